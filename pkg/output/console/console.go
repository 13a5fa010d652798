package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ericogr/envlogger/pkg/output"
	"github.com/ericogr/envlogger/pkg/sample"
)

type ConsoleOutput struct {
	w io.Writer
}

func NewConsole() output.Output { return &ConsoleOutput{w: os.Stdout} }

func (c *ConsoleOutput) Publish(r sample.Record) error {
	s := r.Sample
	_, err := fmt.Fprintf(c.w, "%s status=%s attempts=%d temp=%s hum=%s air=%s lux=%s\n",
		r.Timestamp.Format(time.RFC3339), s.Status, s.ReadAttempts,
		fmtFloat(s.Temperature), fmtFloat(s.Humidity), fmtInt(s.AirQualityRaw), fmtFloat(s.LightLux))
	return err
}

func (c *ConsoleOutput) Close() error { return nil }

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func fmtInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
