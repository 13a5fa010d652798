package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestParseKeyStringMap(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]string
		ok   bool
	}{
		{"", map[string]string{}, true},
		{"light=TSL2561,temperature_humidity=BME280", map[string]string{"light": "TSL2561", "temperature_humidity": "BME280"}, true},
		{" light = LDR , ", map[string]string{"light": "LDR"}, true},
		{"bad", nil, false},
		{"=x", nil, false},
	}
	for _, tt := range tests {
		got, err := parseKeyStringMap(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseKeyStringMap(%q) ok=%v err=%v", tt.in, tt.ok, err)
		}
		if tt.ok && !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("parseKeyStringMap(%q) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseIntOrHex(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"72", 72, true},
		{"0x48", 0x48, true},
		{"0X39", 0x39, true},
		{"zz", 0, false},
	}
	for _, tt := range tests {
		got, err := parseIntOrHex(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseIntOrHex(%q) ok=%v err=%v", tt.in, tt.ok, err)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parseIntOrHex(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SampleInterval() != 120*time.Second {
		t.Fatalf("interval: got %s", cfg.SampleInterval())
	}
	if cfg.RunDuration() != 5*24*time.Hour {
		t.Fatalf("duration: got %s", cfg.RunDuration())
	}
	if cfg.MaxRetries != 3 || cfg.RetryDelay() != 5*time.Second {
		t.Fatalf("retry: got %d/%s", cfg.MaxRetries, cfg.RetryDelay())
	}
	if cfg.Calibration.Samples != 5 || cfg.CalibrationDelay() != 2*time.Second {
		t.Fatalf("calibration: %+v", cfg.Calibration)
	}
	if cfg.I2C.ADS1115Address != 0x48 {
		t.Fatalf("ads1115 address: got %#x", cfg.I2C.ADS1115Address)
	}
}

func TestLoadYAMLFileWithFlagOverrides(t *testing.T) {
	path := writeFile(t, "config.yaml", `
location_label: greenhouse
sample_interval_sec: 60
run_duration_days: 0.5
bias_introduced: true
bias_description: near heater
calibration:
  samples: 3
sensors:
  light: LDR
`)
	args := []string{"-config", path, "-interval-sec", "90", "-ads1115-address", "0x49", "-bias=false"}
	cfg, err := Load(newFlagSet(), args)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LocationLabel != "greenhouse" {
		t.Fatalf("location: got %q", cfg.LocationLabel)
	}
	if cfg.SampleIntervalSec != 90 {
		t.Fatalf("flag should override interval, got %d", cfg.SampleIntervalSec)
	}
	if cfg.RunDuration() != 12*time.Hour {
		t.Fatalf("duration: got %s", cfg.RunDuration())
	}
	if cfg.BiasIntroduced {
		t.Fatalf("flag should clear bias")
	}
	if cfg.BiasDescription != "near heater" {
		t.Fatalf("bias description: got %q", cfg.BiasDescription)
	}
	if cfg.Calibration.Samples != 3 || cfg.Calibration.DelaySec != 2 {
		t.Fatalf("calibration: %+v", cfg.Calibration)
	}
	if cfg.I2C.ADS1115Address != 0x49 {
		t.Fatalf("ads1115 address: got %#x", cfg.I2C.ADS1115Address)
	}
	if cfg.Sensors["light"] != "LDR" || cfg.Sensors["temperature_humidity"] != "BME280" {
		t.Fatalf("sensors: %v", cfg.Sensors)
	}
}

func TestLoadJSONFile(t *testing.T) {
	path := writeFile(t, "config.json", `{
        "location_label": "lab",
        "sensor_type": "simulation",
        "i2c": { "bus": "2", "tsl2561_address": 41 },
        "max_retries": 5
    }`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SensorType != SensorTypeSimulation || cfg.MaxRetries != 5 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.I2C.Bus != "2" || cfg.I2C.TSL2561Address != 41 || cfg.I2C.BME280Address != 0x76 {
		t.Fatalf("i2c: %+v", cfg.I2C)
	}
}

func TestLoadRejectsBadAddress(t *testing.T) {
	if _, err := Load(newFlagSet(), []string{"-tsl2561-address", "nope"}); err == nil {
		t.Fatalf("expected error for bad address")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty label", func(c *Config) { c.LocationLabel = " " }},
		{"sensor type", func(c *Config) { c.SensorType = "usb" }},
		{"interval", func(c *Config) { c.SampleIntervalSec = 0 }},
		{"duration", func(c *Config) { c.RunDurationDays = -1 }},
		{"duration overflow", func(c *Config) { c.RunDurationDays = 200000 }},
		{"retries", func(c *Config) { c.MaxRetries = 0 }},
		{"retry delay", func(c *Config) { c.RetryDelaySec = -1 }},
		{"calibration samples", func(c *Config) { c.Calibration.Samples = -1 }},
		{"analog channel", func(c *Config) { c.AnalogChannel = 4 }},
		{"failure rate", func(c *Config) { c.SimulationFailureRate = 1.5 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", tt.name, err)
		}
	}
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestRunDurationAtLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RunDurationDays = MaxRunDurationDays
	if err := cfg.Validate(); err != nil {
		t.Fatalf("limit should validate: %v", err)
	}
	if cfg.RunDuration() <= 0 {
		t.Fatalf("duration overflowed: %s", cfg.RunDuration())
	}
}

func TestWarnings(t *testing.T) {
	cfg := DefaultConfig()
	if w := cfg.Warnings(); len(w) != 0 {
		t.Fatalf("unexpected warnings: %v", w)
	}
	cfg.SampleIntervalSec = 10
	cfg.BiasIntroduced = true
	if w := cfg.Warnings(); len(w) != 2 {
		t.Fatalf("expected 2 warnings, got %v", w)
	}
}
