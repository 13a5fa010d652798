// Package sampler performs one sampling cycle: a read of every channel,
// retried as a whole until every channel succeeds or the attempt budget runs
// out.
package sampler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/ericogr/envlogger/pkg/clock"
	"github.com/ericogr/envlogger/pkg/logging"
	"github.com/ericogr/envlogger/pkg/sample"
	"github.com/ericogr/envlogger/pkg/sensor"
)

const (
	DefaultMaxRetries = 3
	DefaultRetryDelay = 5 * time.Second

	minTemperatureC = -40.0
	maxTemperatureC = 85.0
	minHumidityPct  = 0.0
	maxHumidityPct  = 100.0
)

type Sampler struct {
	adapter       sensor.Adapter
	clock         clock.Clock
	logger        *slog.Logger
	maxRetries    int
	retryDelay    time.Duration
	analogChannel int
}

type Option func(*Sampler)

// WithRetries sets the attempt budget per cycle and the pause between attempts.
func WithRetries(maxRetries int, delay time.Duration) Option {
	return func(s *Sampler) {
		if maxRetries > 0 {
			s.maxRetries = maxRetries
		}
		if delay >= 0 {
			s.retryDelay = delay
		}
	}
}

func WithAnalogChannel(channel int) Option {
	return func(s *Sampler) { s.analogChannel = channel }
}

func WithClock(c clock.Clock) Option {
	return func(s *Sampler) { s.clock = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Sampler) { s.logger = l }
}

func New(adapter sensor.Adapter, opts ...Option) *Sampler {
	s := &Sampler{
		adapter:    adapter,
		clock:      clock.Real(),
		logger:     logging.Discard(),
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sampler) MaxRetries() int { return s.maxRetries }

// PerformSample never fails: channel errors become absent values plus notes.
// Only the values and notes of the final attempt are reported. The pause
// between attempts ignores cancellation so a cycle always completes.
func (s *Sampler) PerformSample(ctx context.Context) sample.Sample {
	var out sample.Sample
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		out = s.attempt()
		out.ReadAttempts = attempt
		if out.Status == sample.StatusOK {
			break
		}
		s.logger.Warn("sample attempt incomplete",
			"attempt", attempt,
			"max_retries", s.maxRetries,
			"status", out.Status,
			"notes", out.JoinedNotes())
		if attempt < s.maxRetries {
			_ = s.clock.Sleep(context.WithoutCancel(ctx), s.retryDelay)
		}
	}
	return out
}

// attempt reads every channel once; one channel failing never skips another.
func (s *Sampler) attempt() sample.Sample {
	var out sample.Sample

	var th sensor.TempHumidity
	err := sensor.SafeRead(func() (err error) {
		th, err = s.adapter.ReadTemperatureHumidity()
		if err == nil {
			err = checkTempHumidity(th)
		}
		return err
	})
	if err != nil {
		out.Notes = append(out.Notes, fmt.Sprintf("temperature/humidity error: %v", err))
	} else {
		out.Temperature = sample.Float(th.TemperatureC)
		out.Humidity = sample.Float(th.HumidityPct)
	}

	var raw int16
	err = sensor.SafeRead(func() (err error) {
		raw, err = s.adapter.ReadAnalog(s.analogChannel)
		return err
	})
	if err != nil {
		out.Notes = append(out.Notes, fmt.Sprintf("air quality error: %v", err))
	} else {
		out.AirQualityRaw = sample.Int(int(raw))
	}

	var lux float64
	err = sensor.SafeRead(func() (err error) {
		lux, err = s.adapter.ReadLight()
		if err == nil && (!finite(lux) || lux < 0) {
			err = fmt.Errorf("lux %v out of range", lux)
		}
		return err
	})
	if err != nil {
		out.Notes = append(out.Notes, fmt.Sprintf("light error: %v", err))
	} else {
		out.LightLux = sample.Float(lux)
	}

	out.Status = out.Classify()
	return out
}

func checkTempHumidity(th sensor.TempHumidity) error {
	if !finite(th.TemperatureC) {
		return fmt.Errorf("temperature %v is not a number", th.TemperatureC)
	}
	if !finite(th.HumidityPct) {
		return fmt.Errorf("humidity %v is not a number", th.HumidityPct)
	}
	if th.TemperatureC < minTemperatureC || th.TemperatureC > maxTemperatureC {
		return fmt.Errorf("temperature %.2fC out of range", th.TemperatureC)
	}
	if th.HumidityPct < minHumidityPct || th.HumidityPct > maxHumidityPct {
		return fmt.Errorf("humidity %.2f%% out of range", th.HumidityPct)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
