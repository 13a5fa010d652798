package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ericogr/envlogger/pkg/calibration"
	"github.com/ericogr/envlogger/pkg/clock"
	"github.com/ericogr/envlogger/pkg/config"
	"github.com/ericogr/envlogger/pkg/deployment"
	"github.com/ericogr/envlogger/pkg/logging"
	"github.com/ericogr/envlogger/pkg/metrics"
	"github.com/ericogr/envlogger/pkg/output"
	"github.com/ericogr/envlogger/pkg/output/console"
	"github.com/ericogr/envlogger/pkg/output/metadata"
	"github.com/ericogr/envlogger/pkg/output/tsv"
	"github.com/ericogr/envlogger/pkg/sample"
	"github.com/ericogr/envlogger/pkg/sampler"
	"github.com/ericogr/envlogger/pkg/scheduler"
	"github.com/ericogr/envlogger/pkg/sensor"
)

const fileTimeLayout = "20060102_150405"

func main() {
	cmd, args := "run", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = runCommand(args)
	case "validate":
		err = validateCommand(args)
	case "help":
		printUsage()
		return
	default:
		printUsage()
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		log.Fatalf("envlogger %s: %v", cmd, err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: envlogger [run|validate] [flags]")
	fmt.Fprintln(os.Stderr, "  run       sample the sensors until the run duration elapses (default)")
	fmt.Fprintln(os.Stderr, "  validate  load and check the configuration, then exit")
}

func runCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := collect(ctx, cfg, clock.Real()); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	cfg, err := config.Load(fs, args)
	if err != nil {
		return err
	}
	for _, w := range cfg.Warnings() {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Printf("config ok: %s every %ds for %g days -> %s\n",
		cfg.LocationLabel, cfg.SampleIntervalSec, cfg.RunDurationDays, cfg.OutputDir)
	return nil
}

type runFiles struct {
	data   string
	meta   string
	health string
}

func runFileNames(dir, label string, start time.Time) runFiles {
	suffix := safeLabel(label) + "_" + start.Format(fileTimeLayout)
	return runFiles{
		data:   filepath.Join(dir, "environment_log_"+suffix+".tsv"),
		meta:   filepath.Join(dir, "deployment_meta_"+suffix+".json"),
		health: filepath.Join(dir, "collector_health_"+suffix+".log"),
	}
}

// safeLabel keeps a location label usable as part of a file name.
func safeLabel(label string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, label)
}

// collect runs one deployment end to end. Failures are written to the
// health log before being returned.
func collect(ctx context.Context, cfg config.Config, clk clock.Clock) error {
	start := clk.Now()
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := runFileNames(cfg.OutputDir, cfg.LocationLabel, start)

	logger, logFile, err := logging.Open(files.health, slog.LevelInfo)
	if err != nil {
		return err
	}
	defer logFile.Close()

	err = collectWith(ctx, cfg, clk, start, files, logger)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Warn("interrupted; exiting")
	case err != nil:
		logger.Error("fatal error", "err", err)
	}
	return err
}

func collectWith(ctx context.Context, cfg config.Config, clk clock.Clock, start time.Time, files runFiles, logger *slog.Logger) error {
	metaWriter := metadata.NewWriter(files.meta)
	logger.Info("starting collector", "location", cfg.LocationLabel, "sensor_type", cfg.SensorType,
		"data_file", files.data, "metadata_file", metaWriter.Path())
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	adapter, err := sensor.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init sensors: %w", err)
	}
	defer adapter.Close()

	meta := deployment.New(cfg, start)

	baseline := calibration.New(adapter, cfg.AnalogChannel, clk, logger).
		Run(meta, cfg.Calibration.Samples, cfg.CalibrationDelay())
	if err := metaWriter.Write(meta); err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.MetricsTextfile != "" {
		m = metrics.New(cfg.MetricsTextfile, cfg.LocationLabel)
		m.SetBaseline(baseline)
		if err := m.Flush(); err != nil {
			logger.Warn("metrics textfile write failed", "err", err)
		}
	}

	data, err := tsv.Open(files.data)
	if err != nil {
		return err
	}
	outputs := []output.Output{data}
	if cfg.ConsoleEcho {
		outputs = append(outputs, console.NewConsole())
	}
	defer func() {
		for _, out := range outputs {
			if err := out.Close(); err != nil {
				logger.Warn("closing output", "err", err)
			}
		}
	}()

	smp := sampler.New(adapter,
		sampler.WithRetries(cfg.MaxRetries, cfg.RetryDelay()),
		sampler.WithAnalogChannel(cfg.AnalogChannel),
		sampler.WithClock(clk),
		sampler.WithLogger(logger),
	)
	sched := scheduler.New(smp, outputs, meta, metaWriter, scheduler.Options{
		Interval: cfg.SampleInterval(),
		Duration: cfg.RunDuration(),
		Clock:    clk,
		Logger:   logger,
		Metrics:  m,
	})

	sum, err := sched.Run(ctx)
	logger.Info("run summary", "run_id", meta.RunID, "cycles", sum.Cycles,
		"ok", sum.ByStatus[sample.StatusOK], "partial_fail", sum.ByStatus[sample.StatusPartialFail], "fail", sum.ByStatus[sample.StatusFail])
	return err
}
