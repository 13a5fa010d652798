// Package metrics keeps run-health counters and writes them in the Prometheus
// text format to a file for node_exporter's textfile collector.
package metrics

import (
	"math"
	"time"

	"github.com/ericogr/envlogger/pkg/sample"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	reg           *prometheus.Registry
	cycles        *prometheus.CounterVec
	attempts      prometheus.Histogram
	cycleDuration prometheus.Histogram
	lastSample    prometheus.Gauge
	baseline      prometheus.Gauge
	textfile      string
}

// New registers the collectors on a private registry. An empty textfile
// disables Flush.
func New(textfile string, location string) *Metrics {
	labels := prometheus.Labels{"location": location}
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "envlogger_cycles_total",
			Help:        "Sampling cycles logged, by sensor status.",
			ConstLabels: labels,
		}, []string{"status"}),
		attempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "envlogger_read_attempts",
			Help:        "Read attempts needed per sampling cycle.",
			ConstLabels: labels,
			Buckets:     prometheus.LinearBuckets(1, 1, 5),
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "envlogger_cycle_duration_seconds",
			Help:        "Time spent sampling and writing one cycle.",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		lastSample: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "envlogger_last_sample_timestamp_seconds",
			Help:        "Unix time of the last logged sample.",
			ConstLabels: labels,
		}),
		baseline: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "envlogger_calibration_baseline_raw",
			Help:        "Analog baseline captured at start-up; NaN when calibration failed.",
			ConstLabels: labels,
		}),
		textfile: textfile,
	}
	m.reg.MustRegister(m.cycles, m.attempts, m.cycleDuration, m.lastSample, m.baseline)
	for _, st := range []sample.Status{sample.StatusOK, sample.StatusPartialFail, sample.StatusFail} {
		m.cycles.WithLabelValues(string(st))
	}
	return m
}

func (m *Metrics) ObserveCycle(s sample.Sample, ts time.Time, took time.Duration) {
	m.cycles.WithLabelValues(string(s.Status)).Inc()
	m.attempts.Observe(float64(s.ReadAttempts))
	m.cycleDuration.Observe(took.Seconds())
	m.lastSample.Set(float64(ts.Unix()))
}

func (m *Metrics) SetBaseline(baseline *float64) {
	if baseline == nil {
		m.baseline.Set(math.NaN())
		return
	}
	m.baseline.Set(*baseline)
}

// Flush rewrites the textfile with the current values.
func (m *Metrics) Flush() error {
	if m.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(m.textfile, m.reg)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
