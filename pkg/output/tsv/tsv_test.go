package tsv

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ericogr/envlogger/pkg/sample"
)

var ts = time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)

func TestRowAbsentValuesAreEmpty(t *testing.T) {
	rec := sample.Record{Timestamp: ts, Sample: sample.Sample{
		Temperature:  sample.Float(21.5),
		ReadAttempts: 3,
		Status:       sample.StatusPartialFail,
		Notes:        []string{"air quality error: nack", "light error: saturated"},
	}}
	want := []string{
		"2025-09-19T14:41:54Z", "1758292914", "21.5", "", "", "", "3", "PARTIAL_FAIL",
		"air quality error: nack; light error: saturated",
	}
	if got := Row(rec); !reflect.DeepEqual(got, want) {
		t.Fatalf("row mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestRowConvertsToUTC(t *testing.T) {
	local := ts.In(time.FixedZone("CEST", 2*3600))
	row := Row(sample.Record{Timestamp: local, Sample: sample.Sample{Status: sample.StatusFail, ReadAttempts: 1}})
	if row[0] != "2025-09-19T14:41:54Z" {
		t.Fatalf("timestamp: got %q", row[0])
	}
}

func TestWriterHeaderOnceAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.tsv")
	ok := sample.Sample{
		Temperature:   sample.Float(22),
		Humidity:      sample.Float(45.25),
		AirQualityRaw: sample.Int(9100),
		LightLux:      sample.Float(300),
		ReadAttempts:  1,
		Status:        sample.StatusOK,
	}

	for i := 0; i < 2; i++ {
		w, err := Open(path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		if err := w.Publish(sample.Record{Timestamp: ts.Add(time.Duration(i) * time.Minute), Sample: ok}); err != nil {
			t.Fatalf("publish: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(b), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines: %q", len(lines), lines)
	}
	if lines[0] != strings.Join(Header, "\t") {
		t.Fatalf("header: %q", lines[0])
	}
	want := "2025-09-19T14:42:54Z\t1758292974\t22\t45.25\t9100\t300\t1\tOK\t"
	if lines[2] != want {
		t.Fatalf("row:\n got: %q\nwant: %q", lines[2], want)
	}
}

func TestWriterRowIsDurableBeforeClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.tsv")
	w, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer w.Close()
	if err := w.Publish(sample.Record{Timestamp: ts, Sample: sample.Sample{Status: sample.StatusFail, ReadAttempts: 3}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	b, _ := os.ReadFile(path)
	if strings.Count(string(b), "\n") != 2 {
		t.Fatalf("row should be on disk right after Publish: %q", string(b))
	}
}

func TestOpenInvalidPath(t *testing.T) {
	if _, err := Open("/nonexistent/path/log.tsv"); err == nil {
		t.Fatalf("expected error for invalid path")
	}
}

func TestCloseTwice(t *testing.T) {
	w, err := Open(filepath.Join(t.TempDir(), "log.tsv"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
