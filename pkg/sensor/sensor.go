package sensor

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericogr/envlogger/pkg/config"
)

var (
	// ErrChannelUnavailable is returned by every read on a channel whose
	// hardware failed to initialize.
	ErrChannelUnavailable = errors.New("channel unavailable")
	// ErrSaturated is returned when a reading is clipped at full scale.
	ErrSaturated = errors.New("sensor saturated")
)

type TempHumidity struct {
	TemperatureC float64 `json:"temperature_c"`
	HumidityPct  float64 `json:"humidity_pct"`
}

// Adapter exposes the three measurement channels. A returned error means the
// value is absent for this read.
type Adapter interface {
	ReadTemperatureHumidity() (TempHumidity, error)
	ReadAnalog(channel int) (int16, error)
	ReadLight() (float64, error)
	Close() error
}

// New builds the adapter selected by cfg.SensorType.
func New(cfg config.Config, logger *slog.Logger) (Adapter, error) {
	switch cfg.SensorType {
	case config.SensorTypeReal:
		return NewBoard(cfg, logger), nil
	case config.SensorTypeSimulation:
		return NewSimulation(cfg), nil
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.SensorType)
	}
}

// SafeRead runs a driver read and turns a panic inside it into an error.
func SafeRead(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}
