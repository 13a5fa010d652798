// Package sensortest provides a programmable sensor.Adapter for tests.
package sensortest

import (
	"errors"

	"github.com/ericogr/envlogger/pkg/sensor"
)

var ErrNoReading = errors.New("no reading")

// Fake answers every read with a fixed healthy value unless the matching
// function field is set. OnRead runs before each read, which lets tests
// charge sensor latency to a manual clock.
type Fake struct {
	TempHumidityFunc func() (sensor.TempHumidity, error)
	AnalogFunc       func(channel int) (int16, error)
	LightFunc        func() (float64, error)
	OnRead           func()

	TempHumidityCalls int
	AnalogCalls       int
	LightCalls        int
	AnalogChannels    []int
	Closed            bool
}

// Healthy values returned by an unconfigured Fake.
var (
	DefaultTempHumidity = sensor.TempHumidity{TemperatureC: 22.5, HumidityPct: 48}
	DefaultAnalog       = int16(9000)
	DefaultLux          = 250.0
)

// Failing returns a Fake whose every read fails.
func Failing() *Fake {
	return &Fake{
		TempHumidityFunc: func() (sensor.TempHumidity, error) { return sensor.TempHumidity{}, ErrNoReading },
		AnalogFunc:       func(int) (int16, error) { return 0, ErrNoReading },
		LightFunc:        func() (float64, error) { return 0, ErrNoReading },
	}
}

func (f *Fake) ReadTemperatureHumidity() (sensor.TempHumidity, error) {
	f.TempHumidityCalls++
	f.tick()
	if f.TempHumidityFunc != nil {
		return f.TempHumidityFunc()
	}
	return DefaultTempHumidity, nil
}

func (f *Fake) ReadAnalog(channel int) (int16, error) {
	f.AnalogCalls++
	f.AnalogChannels = append(f.AnalogChannels, channel)
	f.tick()
	if f.AnalogFunc != nil {
		return f.AnalogFunc(channel)
	}
	return DefaultAnalog, nil
}

func (f *Fake) ReadLight() (float64, error) {
	f.LightCalls++
	f.tick()
	if f.LightFunc != nil {
		return f.LightFunc()
	}
	return DefaultLux, nil
}

func (f *Fake) Close() error {
	f.Closed = true
	return nil
}

func (f *Fake) tick() {
	if f.OnRead != nil {
		f.OnRead()
	}
}

// AnalogSequence replays values in order; a nil entry is a failed read.
// Reads past the end fail.
func AnalogSequence(values ...*int16) func(int) (int16, error) {
	i := 0
	return func(int) (int16, error) {
		if i >= len(values) {
			return 0, ErrNoReading
		}
		v := values[i]
		i++
		if v == nil {
			return 0, ErrNoReading
		}
		return *v, nil
	}
}

func Raw(v int16) *int16 { return &v }
