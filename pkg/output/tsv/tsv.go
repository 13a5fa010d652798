// Package tsv appends sampling records to a tab-separated durable log.
package tsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ericogr/envlogger/pkg/sample"
)

// Header is written once, when the log file is new or empty.
var Header = []string{
	"timestamp_iso",
	"unix_time",
	"temperature_C",
	"humidity_percent",
	"air_quality_raw",
	"light_lux",
	"read_attempts",
	"sensor_status", // OK / PARTIAL_FAIL / FAIL
	"notes",
}

// Writer appends one row per record and syncs it to disk before returning.
type Writer struct {
	f *os.File
	w *csv.Writer
}

func Open(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open data log: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat data log: %w", err)
	}
	w := &Writer{f: f, w: newTSVWriter(f)}
	if st.Size() == 0 {
		if err := w.writeRow(Header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return w, nil
}

func newTSVWriter(f *os.File) *csv.Writer {
	w := csv.NewWriter(f)
	w.Comma = '\t'
	return w
}

func (w *Writer) Publish(r sample.Record) error {
	if err := w.writeRow(Row(r)); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	return nil
}

func (w *Writer) writeRow(row []string) error {
	if err := w.w.Write(row); err != nil {
		return err
	}
	w.w.Flush()
	if err := w.w.Error(); err != nil {
		return err
	}
	return w.f.Sync()
}

func (w *Writer) Close() error {
	if w.f == nil {
		return nil
	}
	w.w.Flush()
	err := w.f.Close()
	w.f = nil
	return err
}

// Row renders r in Header order; absent values become empty fields.
func Row(r sample.Record) []string {
	s := r.Sample
	ts := r.Timestamp.UTC()
	return []string{
		ts.Format(time.RFC3339Nano),
		strconv.FormatInt(ts.Unix(), 10),
		formatFloat(s.Temperature),
		formatFloat(s.Humidity),
		formatInt(s.AirQualityRaw),
		formatFloat(s.LightLux),
		strconv.Itoa(s.ReadAttempts),
		string(s.Status),
		s.JoinedNotes(),
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
