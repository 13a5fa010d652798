package console

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"github.com/ericogr/envlogger/pkg/sample"
)

func captureStdout(f func()) string {
	r, w, _ := os.Pipe()
	stdout := os.Stdout
	os.Stdout = w
	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()
	f()
	_ = w.Close()
	os.Stdout = stdout
	return <-outC
}

func TestConsolePublish(t *testing.T) {
	ts := time.Date(2025, 9, 19, 14, 41, 54, 0, time.UTC)
	rec := sample.Record{Timestamp: ts, Sample: sample.Sample{
		Temperature:   sample.Float(22.456),
		Humidity:      sample.Float(48),
		AirQualityRaw: sample.Int(9000),
		ReadAttempts:  2,
		Status:        sample.StatusPartialFail,
	}}
	out := captureStdout(func() {
		c := NewConsole()
		_ = c.Publish(rec)
	})
	want := "2025-09-19T14:41:54Z status=PARTIAL_FAIL attempts=2 temp=22.46 hum=48.00 air=9000 lux=-\n"
	if out != want {
		t.Fatalf("console output mismatch:\n got: %q\nwant: %q", out, want)
	}
}
