// Package calibration captures the analog baseline once at start-up, with the
// gas sensor assumed to sit in clean reference air.
package calibration

import (
	"context"
	"log/slog"
	"time"

	"github.com/ericogr/envlogger/pkg/clock"
	"github.com/ericogr/envlogger/pkg/deployment"
	"github.com/ericogr/envlogger/pkg/sensor"
)

const FailureNote = "Failed to capture analog baseline. "

type Calibrator struct {
	adapter sensor.Adapter
	channel int
	clock   clock.Clock
	logger  *slog.Logger
}

func New(adapter sensor.Adapter, channel int, c clock.Clock, logger *slog.Logger) *Calibrator {
	return &Calibrator{adapter: adapter, channel: channel, clock: c, logger: logger}
}

// Calibrate averages up to samples raw reads taken delay apart. Failed reads
// are skipped; nil means no read succeeded.
func (c *Calibrator) Calibrate(samples int, delay time.Duration) *float64 {
	var sum float64
	n := 0
	for i := 0; i < samples; i++ {
		var raw int16
		err := sensor.SafeRead(func() (err error) {
			raw, err = c.adapter.ReadAnalog(c.channel)
			return err
		})
		if err != nil {
			c.logger.Warn("baseline read failed", "read", i+1, "of", samples, "err", err)
		} else {
			sum += float64(raw)
			n++
		}
		_ = c.clock.Sleep(context.Background(), delay)
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	return &mean
}

// Apply records the baseline in meta, or a note when there is none.
func (c *Calibrator) Apply(meta *deployment.Metadata, baseline *float64) {
	if baseline == nil {
		meta.AddNote(FailureNote)
		c.logger.Warn("failed to capture analog baseline")
		return
	}
	meta.Calibration.BaselineRaw = baseline
	c.logger.Info("captured analog baseline", "baseline_raw", *baseline)
}

// Run calibrates and records the result in meta.
func (c *Calibrator) Run(meta *deployment.Metadata, samples int, delay time.Duration) *float64 {
	baseline := c.Calibrate(samples, delay)
	c.Apply(meta, baseline)
	return baseline
}
