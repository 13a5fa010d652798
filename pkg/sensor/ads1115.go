package sensor

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	pointerConv   = 0x00
	pointerConfig = 0x01
)

// ADS1115 performs single-shot conversions on one of the four single-ended
// inputs at the ±4.096V range.
type ADS1115 struct {
	dev        *i2c.Dev
	sampleRate int
}

func NewADS1115(bus i2c.Bus, addr uint16, sampleRate int) *ADS1115 {
	return &ADS1115{dev: &i2c.Dev{Addr: addr, Bus: bus}, sampleRate: sampleRate}
}

// ReadRaw returns the signed conversion result for channel.
func (s *ADS1115) ReadRaw(channel int) (int16, error) {
	msb, lsb, err := configForChannel(channel, s.sampleRate)
	if err != nil {
		return 0, err
	}
	if err := s.dev.Tx([]byte{pointerConfig, msb, lsb}, nil); err != nil {
		return 0, fmt.Errorf("write config: %w", err)
	}
	time.Sleep(conversionDelay(s.sampleRate))
	readBuf := make([]byte, 2)
	if err := s.dev.Tx([]byte{pointerConv}, readBuf); err != nil {
		return 0, fmt.Errorf("read conv: %w", err)
	}
	return int16(readBuf[0])<<8 | int16(readBuf[1]), nil
}

// conversionDelay is one conversion period plus a small margin.
func conversionDelay(sampleRate int) time.Duration {
	if sampleRate <= 0 {
		sampleRate = 128
	}
	delayMs := int(1000.0/float64(sampleRate)) + 2
	return time.Duration(delayMs) * time.Millisecond
}

// Config register fields.
const (
	adsStartSingle = 1 << 15
	adsMuxSingle0  = 0x4 << 12 // AINx vs GND; channel n adds n
	adsPGA4096mV   = 0x1 << 9
	adsModeSingle  = 1 << 8
	adsCompDisable = 0x3
	adsRateShift   = 5
)

// adsDataRates maps samples per second to the DR field.
var adsDataRates = map[int]uint16{8: 0, 16: 1, 32: 2, 64: 3, 128: 4, 250: 5, 475: 6, 860: 7}

// configForChannel builds the config word for a single-shot conversion on
// channel. Unsupported data rates fall back to 128 SPS.
func configForChannel(channel, sampleRate int) (byte, byte, error) {
	if channel < 0 || channel > 3 {
		return 0, 0, fmt.Errorf("invalid channel %d", channel)
	}
	dr, ok := adsDataRates[sampleRate]
	if !ok {
		dr = adsDataRates[128]
	}
	word := uint16(adsStartSingle|adsMuxSingle0|adsPGA4096mV|adsModeSingle|adsCompDisable) |
		uint16(channel)<<12 | dr<<adsRateShift
	return byte(word >> 8), byte(word), nil
}
