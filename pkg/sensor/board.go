package sensor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericogr/envlogger/pkg/config"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Board is the real hardware adapter: a BME280 for temperature/humidity, an
// ADS1115 for the analog gas sensor and a TSL2561 for light, all on one I2C
// bus. A part that fails to initialize is logged and its channel reports
// ErrChannelUnavailable instead of aborting the run.
type Board struct {
	bus        i2c.BusCloser
	thermo     *BME280
	adc        *ADS1115
	light      *TSL2561
	tempOffset float64
	humOffset  float64
	logger     *slog.Logger
}

func NewBoard(cfg config.Config, logger *slog.Logger) *Board {
	b := &Board{
		tempOffset: cfg.Calibration.TemperatureOffsetC,
		humOffset:  cfg.Calibration.HumidityOffsetPct,
		logger:     logger,
	}
	if _, err := host.Init(); err != nil {
		logger.Warn("periph host init failed; all channels unavailable", "err", err)
		return b
	}
	bus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		logger.Warn("open i2c failed; all channels unavailable", "bus", cfg.I2C.Bus, "err", err)
		return b
	}
	b.bus = bus

	if b.thermo, err = NewBME280(bus, uint16(cfg.I2C.BME280Address)); err != nil {
		logger.Warn("failed to init BME280", "err", err)
	}
	// the ADS1115 is single-shot, so there is nothing to probe until the first read
	b.adc = NewADS1115(bus, uint16(cfg.I2C.ADS1115Address), cfg.ADS1115SampleRate)
	if b.light, err = NewTSL2561(bus, uint16(cfg.I2C.TSL2561Address)); err != nil {
		logger.Warn("failed to init TSL2561", "err", err)
	}
	return b
}

func (b *Board) ReadTemperatureHumidity() (TempHumidity, error) {
	if b.thermo == nil {
		return TempHumidity{}, ErrChannelUnavailable
	}
	th, err := b.thermo.Sense()
	if err != nil {
		return TempHumidity{}, err
	}
	th.TemperatureC += b.tempOffset
	th.HumidityPct += b.humOffset
	return th, nil
}

func (b *Board) ReadAnalog(channel int) (int16, error) {
	if b.adc == nil {
		return 0, ErrChannelUnavailable
	}
	raw, err := b.adc.ReadRaw(channel)
	if err != nil {
		return 0, fmt.Errorf("ads1115: %w", err)
	}
	return raw, nil
}

func (b *Board) ReadLight() (float64, error) {
	if b.light == nil {
		return 0, ErrChannelUnavailable
	}
	lux, err := b.light.Lux()
	if err != nil {
		return 0, fmt.Errorf("tsl2561: %w", err)
	}
	return lux, nil
}

func (b *Board) Close() error {
	var errs []error
	if b.thermo != nil {
		errs = append(errs, b.thermo.Close())
	}
	if b.light != nil {
		errs = append(errs, b.light.Close())
	}
	if b.bus != nil {
		errs = append(errs, b.bus.Close())
	}
	return errors.Join(errs...)
}
