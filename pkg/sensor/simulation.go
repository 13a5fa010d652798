package sensor

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/ericogr/envlogger/pkg/config"
)

var errSimulatedFailure = errors.New("simulated read failure")

// Simulation produces plausible indoor readings without hardware. Each read
// fails independently with the configured probability.
type Simulation struct {
	rng         *rand.Rand
	failureRate float64
}

func NewSimulation(cfg config.Config) *Simulation {
	seed := uint64(time.Now().UnixNano())
	return &Simulation{
		rng:         rand.New(rand.NewPCG(seed, seed>>1)),
		failureRate: cfg.SimulationFailureRate,
	}
}

func (f *Simulation) fail() bool {
	return f.failureRate > 0 && f.rng.Float64() < f.failureRate
}

func (f *Simulation) ReadTemperatureHumidity() (TempHumidity, error) {
	if f.fail() {
		return TempHumidity{}, errSimulatedFailure
	}
	return TempHumidity{
		TemperatureC: 20 + f.rng.Float64()*5,
		HumidityPct:  40 + f.rng.Float64()*20,
	}, nil
}

func (f *Simulation) ReadAnalog(channel int) (int16, error) {
	if channel < 0 || channel > 3 {
		return 0, ErrChannelUnavailable
	}
	if f.fail() {
		return 0, errSimulatedFailure
	}
	// MQ135 in clean air sits well below mid-scale
	return int16(8000 + f.rng.IntN(2000)), nil
}

func (f *Simulation) ReadLight() (float64, error) {
	if f.fail() {
		return 0, errSimulatedFailure
	}
	return 100 + f.rng.Float64()*400, nil
}

func (f *Simulation) Close() error { return nil }
