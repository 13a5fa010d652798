// Package scheduler drives the sampler at a fixed cadence until a wall-clock
// deadline, recording every cycle.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericogr/envlogger/pkg/clock"
	"github.com/ericogr/envlogger/pkg/deployment"
	"github.com/ericogr/envlogger/pkg/logging"
	"github.com/ericogr/envlogger/pkg/metrics"
	"github.com/ericogr/envlogger/pkg/output"
	"github.com/ericogr/envlogger/pkg/sample"
)

type Sampler interface {
	PerformSample(ctx context.Context) sample.Sample
}

type MetadataWriter interface {
	Write(*deployment.Metadata) error
}

type Options struct {
	Interval time.Duration
	Duration time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
	// Metrics is optional.
	Metrics *metrics.Metrics
}

type Scheduler struct {
	sampler    Sampler
	outputs    []output.Output
	meta       *deployment.Metadata
	metaWriter MetadataWriter
	opts       Options
}

type Summary struct {
	Start    time.Time
	Deadline time.Time
	Cycles   int
	ByStatus map[sample.Status]int
}

func New(sampler Sampler, outputs []output.Output, meta *deployment.Metadata, metaWriter MetadataWriter, opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Scheduler{
		sampler:    sampler,
		outputs:    outputs,
		meta:       meta,
		metaWriter: metaWriter,
		opts:       opts,
	}
}

// SleepDuration is the wait that keeps the cadence: the remainder of the
// interval, or zero when the cycle overran it.
func SleepDuration(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}

// Run samples every Interval until Duration has passed since the call.
// No cycle starts at or after the deadline. Cancellation is honoured between
// cycles and while waiting, never in the middle of a sample; Run then returns
// the context error. Any failure to record a cycle ends the run.
func (s *Scheduler) Run(ctx context.Context) (Summary, error) {
	c := s.opts.Clock
	start := c.Now()
	sum := Summary{
		Start:    start,
		Deadline: start.Add(s.opts.Duration),
		ByStatus: map[sample.Status]int{},
	}
	s.opts.Logger.Info("starting data collection", "until", sum.Deadline.UTC(), "interval", s.opts.Interval)

	for c.Now().Before(sum.Deadline) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		loopStart := c.Now()

		smp := s.sampler.PerformSample(ctx)
		rec := sample.Record{Timestamp: c.Now().UTC(), Sample: smp}
		if err := s.record(rec); err != nil {
			return sum, fmt.Errorf("cycle %d: %w", sum.Cycles+1, err)
		}
		sum.Cycles++
		sum.ByStatus[smp.Status]++

		elapsed := c.Now().Sub(loopStart)
		s.observe(smp, rec.Timestamp, elapsed)

		if err := c.Sleep(ctx, SleepDuration(s.opts.Interval, elapsed)); err != nil {
			return sum, err
		}
	}

	s.opts.Logger.Info("completed data collection", "cycles", sum.Cycles)
	return sum, nil
}

func (s *Scheduler) record(rec sample.Record) error {
	for _, out := range s.outputs {
		if err := out.Publish(rec); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
	s.meta.Heartbeat(rec.Timestamp)
	if err := s.metaWriter.Write(s.meta); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}
	return nil
}

func (s *Scheduler) observe(smp sample.Sample, ts time.Time, elapsed time.Duration) {
	if smp.Status != sample.StatusOK {
		s.opts.Logger.Warn("cycle logged without all channels",
			"status", smp.Status, "read_attempts", smp.ReadAttempts, "notes", smp.JoinedNotes())
	}
	if s.opts.Metrics == nil {
		return
	}
	s.opts.Metrics.ObserveCycle(smp, ts, elapsed)
	if err := s.opts.Metrics.Flush(); err != nil {
		s.opts.Logger.Warn("metrics textfile write failed", "err", err)
	}
}
