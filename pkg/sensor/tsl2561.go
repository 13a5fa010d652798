package sensor

import (
	"fmt"
	"math"
	"time"

	"periph.io/x/conn/v3/i2c"
)

const (
	tslCommand     = 0x80
	tslWord        = 0x20
	tslRegControl  = 0x00
	tslRegTiming   = 0x01
	tslRegData0Low = 0x0C
	tslRegData1Low = 0x0E
	tslPowerOn     = 0x03
	tslTiming402ms = 0x02 // gain 1x, 402ms integration

	tslIntegration = 402 * time.Millisecond
	// counts at 1x gain are scaled to the 16x gain the lux formula assumes
	tslGainScale = 16
)

// TSL2561 reads ambient light in lux. The device is powered on once and
// left integrating continuously.
type TSL2561 struct {
	dev *i2c.Dev
}

func NewTSL2561(bus i2c.Bus, addr uint16) (*TSL2561, error) {
	s := &TSL2561{dev: &i2c.Dev{Addr: addr, Bus: bus}}
	if err := s.dev.Tx([]byte{tslCommand | tslRegControl, tslPowerOn}, nil); err != nil {
		return nil, fmt.Errorf("power on: %w", err)
	}
	if err := s.dev.Tx([]byte{tslCommand | tslRegTiming, tslTiming402ms}, nil); err != nil {
		return nil, fmt.Errorf("set timing: %w", err)
	}
	// first integration cycle must complete before data is valid
	time.Sleep(tslIntegration)
	return s, nil
}

func (s *TSL2561) readWord(reg byte) (uint16, error) {
	buf := make([]byte, 2)
	if err := s.dev.Tx([]byte{tslCommand | tslWord | reg}, buf); err != nil {
		return 0, err
	}
	return uint16(buf[1])<<8 | uint16(buf[0]), nil
}

func (s *TSL2561) Lux() (float64, error) {
	ch0, err := s.readWord(tslRegData0Low)
	if err != nil {
		return 0, fmt.Errorf("read broadband: %w", err)
	}
	ch1, err := s.readWord(tslRegData1Low)
	if err != nil {
		return 0, fmt.Errorf("read infrared: %w", err)
	}
	return computeLux(ch0, ch1)
}

func (s *TSL2561) Close() error {
	return s.dev.Tx([]byte{tslCommand | tslRegControl, 0x00}, nil)
}

// computeLux applies the datasheet's T/FN/CL package approximation to the
// broadband (ch0) and infrared (ch1) counts.
func computeLux(ch0, ch1 uint16) (float64, error) {
	if ch0 == math.MaxUint16 || ch1 == math.MaxUint16 {
		return 0, ErrSaturated
	}
	if ch0 == 0 {
		return 0, nil
	}
	c0 := float64(ch0) * tslGainScale
	c1 := float64(ch1) * tslGainScale
	ratio := c1 / c0
	var lux float64
	switch {
	case ratio <= 0.50:
		lux = 0.0304*c0 - 0.062*c0*math.Pow(ratio, 1.4)
	case ratio <= 0.61:
		lux = 0.0224*c0 - 0.031*c1
	case ratio <= 0.80:
		lux = 0.0128*c0 - 0.0153*c1
	case ratio <= 1.30:
		lux = 0.00146*c0 - 0.00112*c1
	default:
		lux = 0
	}
	return math.Max(lux, 0), nil
}
