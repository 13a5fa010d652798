package sample

import (
	"strings"
	"time"
)

type Status string

const (
	StatusOK          Status = "OK"
	StatusPartialFail Status = "PARTIAL_FAIL"
	StatusFail        Status = "FAIL"
)

// Sample is the outcome of one sampling cycle. A nil channel value means the
// read failed on the last attempt.
type Sample struct {
	Temperature   *float64 `json:"temperature_C"`
	Humidity      *float64 `json:"humidity_percent"`
	AirQualityRaw *int     `json:"air_quality_raw"`
	LightLux      *float64 `json:"light_lux"`
	ReadAttempts  int      `json:"read_attempts"`
	Status        Status   `json:"sensor_status"`
	Notes         []string `json:"notes"`
}

// Record is a sample stamped with the time it was taken.
type Record struct {
	Timestamp time.Time
	Sample    Sample
}

// Classify derives the status from which of the four channel values are present.
func Classify(temperature, humidity *float64, airRaw *int, light *float64) Status {
	present := 0
	for _, ok := range []bool{temperature != nil, humidity != nil, airRaw != nil, light != nil} {
		if ok {
			present++
		}
	}
	switch present {
	case 4:
		return StatusOK
	case 0:
		return StatusFail
	default:
		return StatusPartialFail
	}
}

// Classify re-derives the status of s from its channel values.
func (s Sample) Classify() Status {
	return Classify(s.Temperature, s.Humidity, s.AirQualityRaw, s.LightLux)
}

// JoinedNotes renders the notes the way they appear in the log.
func (s Sample) JoinedNotes() string {
	return strings.Join(s.Notes, "; ")
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
