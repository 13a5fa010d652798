package sensor

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
)

// BME280 wraps the periph bmxx80 driver for temperature and humidity.
type BME280 struct {
	dev *bmxx80.Dev
}

func NewBME280(bus i2c.Bus, addr uint16) (*BME280, error) {
	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		return nil, fmt.Errorf("bme280 init: %w", err)
	}
	return &BME280{dev: dev}, nil
}

func (s *BME280) Sense() (TempHumidity, error) {
	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return TempHumidity{}, fmt.Errorf("bme280 sense: %w", err)
	}
	return envToTempHumidity(e), nil
}

func (s *BME280) Close() error {
	return s.dev.Halt()
}

func envToTempHumidity(e physic.Env) TempHumidity {
	return TempHumidity{
		TemperatureC: e.Temperature.Celsius(),
		HumidityPct:  float64(e.Humidity) / float64(physic.PercentRH),
	}
}
