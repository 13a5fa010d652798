package deployment

import (
	"time"

	"github.com/ericogr/envlogger/pkg/config"
	"github.com/google/uuid"
)

type Calibration struct {
	BaselineRaw        *float64 `json:"baseline_raw"`
	TemperatureOffsetC float64  `json:"temperature_offset_C"`
	HumidityOffsetPct  float64  `json:"humidity_offset_pct"`
}

// Metadata describes one deployment run. It is created at start-up, owned by
// the run loop and rewritten to disk after every cycle.
type Metadata struct {
	RunID             string            `json:"run_id"`
	StartTime         time.Time         `json:"start_time_iso"`
	LocationLabel     string            `json:"location_label"`
	Sensors           map[string]string `json:"sensors"`
	SampleIntervalSec int               `json:"sample_interval_sec"`
	RunDurationDays   float64           `json:"run_duration_days"`
	BiasIntroduced    bool              `json:"bias_introduced"`
	BiasDescription   string            `json:"bias_description"`
	Calibration       Calibration       `json:"calibration"`
	LastSampleTime    *time.Time        `json:"last_sample_iso"`
	Cycles            int               `json:"cycles"`
	Notes             string            `json:"notes"`
}

func New(cfg config.Config, start time.Time) *Metadata {
	sensors := make(map[string]string, len(cfg.Sensors))
	for k, v := range cfg.Sensors {
		sensors[k] = v
	}
	return &Metadata{
		RunID:             uuid.NewString(),
		StartTime:         start.UTC(),
		LocationLabel:     cfg.LocationLabel,
		Sensors:           sensors,
		SampleIntervalSec: cfg.SampleIntervalSec,
		RunDurationDays:   cfg.RunDurationDays,
		BiasIntroduced:    cfg.BiasIntroduced,
		BiasDescription:   cfg.BiasDescription,
		Calibration: Calibration{
			TemperatureOffsetC: cfg.Calibration.TemperatureOffsetC,
			HumidityOffsetPct:  cfg.Calibration.HumidityOffsetPct,
		},
		Notes: cfg.Notes,
	}
}

// Heartbeat marks a completed cycle.
func (m *Metadata) Heartbeat(ts time.Time) {
	t := ts.UTC()
	m.LastSampleTime = &t
	m.Cycles++
}

// AddNote appends free text to the run notes.
func (m *Metadata) AddNote(note string) {
	m.Notes += note
}
