package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

const (
	SensorTypeReal       = "real"
	SensorTypeSimulation = "simulation"

	// recommended cadence window for unattended deployments
	MinRecommendedIntervalSec = 60
	MaxRecommendedIntervalSec = 300

	// longer runs would overflow time.Duration
	MaxRunDurationDays = 36500
)

type I2CConfig struct {
	Bus            string `yaml:"bus"`
	ADS1115Address int    `yaml:"ads1115_address"`
	TSL2561Address int    `yaml:"tsl2561_address"`
	BME280Address  int    `yaml:"bme280_address"`
}

type CalibrationConfig struct {
	Samples            int     `yaml:"samples"`
	DelaySec           float64 `yaml:"delay_sec"`
	TemperatureOffsetC float64 `yaml:"temperature_offset_c"`
	HumidityOffsetPct  float64 `yaml:"humidity_offset_pct"`
}

type Config struct {
	LocationLabel         string            `yaml:"location_label"`
	OutputDir             string            `yaml:"output_dir"`
	SensorType            string            `yaml:"sensor_type"`
	SampleIntervalSec     int               `yaml:"sample_interval_sec"`
	RunDurationDays       float64           `yaml:"run_duration_days"`
	MaxRetries            int               `yaml:"max_retries"`
	RetryDelaySec         float64           `yaml:"retry_delay_sec"`
	BiasIntroduced        bool              `yaml:"bias_introduced"`
	BiasDescription       string            `yaml:"bias_description"`
	Notes                 string            `yaml:"notes"`
	Calibration           CalibrationConfig `yaml:"calibration"`
	I2C                   I2CConfig         `yaml:"i2c"`
	AnalogChannel         int               `yaml:"analog_channel"`
	ADS1115SampleRate     int               `yaml:"ads1115_sample_rate"`
	Sensors               map[string]string `yaml:"sensors"`
	ConsoleEcho           bool              `yaml:"console_echo"`
	MetricsTextfile       string            `yaml:"metrics_textfile"`
	SimulationFailureRate float64           `yaml:"simulation_failure_rate"`
}

func DefaultConfig() Config {
	return Config{
		LocationLabel:     "room_corner",
		OutputDir:         "env_run_output",
		SensorType:        SensorTypeReal,
		SampleIntervalSec: 120,
		RunDurationDays:   5,
		MaxRetries:        3,
		RetryDelaySec:     5,
		Calibration: CalibrationConfig{
			Samples:  5,
			DelaySec: 2,
		},
		I2C: I2CConfig{
			Bus:            "1",
			ADS1115Address: 0x48,
			TSL2561Address: 0x39,
			BME280Address:  0x76,
		},
		AnalogChannel:     0,
		ADS1115SampleRate: 128,
		Sensors: map[string]string{
			"temperature_humidity": "BME280",
			"air_quality_proxy":    "Analog via ADS1115 (e.g., MQ135)",
			"light":                "TSL2561",
		},
	}
}

func (c Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalSec) * time.Second
}

func (c Config) RunDuration() time.Duration {
	return time.Duration(c.RunDurationDays * 86400 * float64(time.Second))
}

func (c Config) RetryDelay() time.Duration {
	return secondsToDuration(c.RetryDelaySec)
}

func (c Config) CalibrationDelay() time.Duration {
	return secondsToDuration(c.Calibration.DelaySec)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// LoadFile reads a YAML (or JSON) config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	if err := mergeFile(&cfg, path); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func mergeFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Load builds the configuration from an optional config file and flags
// registered on fs. Flags override values present in the file.
func Load(fs *flag.FlagSet, args []string) (Config, error) {
	cfgPath := fs.String("config", "", "Path to YAML or JSON config file")
	flagLabel := fs.String("location", "", "Location label for this deployment")
	flagOutDir := fs.String("output-dir", "", "Directory for the data log, metadata and health log")
	flagSensorType := fs.String("sensor-type", "", "sensor type: real|simulation")
	flagInterval := fs.Int("interval-sec", 0, "Sample interval in seconds (recommended 60-300)")
	flagDuration := fs.Float64("duration-days", 0, "Run duration in days")
	flagRetries := fs.Int("max-retries", 0, "Maximum read attempts per sample")
	flagRetryDelay := fs.Float64("retry-delay-sec", 0, "Delay between read attempts in seconds")
	flagBias := fs.Bool("bias", false, "Mark this run as having an intentional bias")
	flagBiasDesc := fs.String("bias-description", "", "Description of the introduced bias")
	flagNotes := fs.String("notes", "", "Free-text deployment notes")
	flagCalSamples := fs.Int("calibration-samples", 0, "Number of analog reads averaged into the baseline")
	flagCalDelay := fs.Float64("calibration-delay-sec", 0, "Delay between calibration reads in seconds")
	flagTempOffset := fs.Float64("temperature-offset", 0, "Offset added to temperature readings (C)")
	flagHumOffset := fs.Float64("humidity-offset", 0, "Offset added to humidity readings (%)")
	flagI2CBus := fs.String("i2c-bus", "", "I2C bus (e.g., '1' -> /dev/i2c-1)")
	flagADSAddr := fs.String("ads1115-address", "", "ADS1115 I2C address (decimal or 0x hex)")
	flagTSLAddr := fs.String("tsl2561-address", "", "TSL2561 I2C address (decimal or 0x hex)")
	flagBMEAddr := fs.String("bme280-address", "", "BME280 I2C address (decimal or 0x hex)")
	flagChannel := fs.Int("analog-channel", 0, "ADS1115 input wired to the gas sensor (0-3)")
	flagSampleRate := fs.Int("ads1115-sample-rate", 0, "ADS1115 data rate (SPS)")
	flagSensors := fs.String("sensors", "", "Sensor descriptions e.g. light=TSL2561,temperature_humidity=BME280")
	flagConsole := fs.Bool("console", false, "Echo every row to stdout")
	flagMetrics := fs.String("metrics-textfile", "", "Write Prometheus metrics to this file after every cycle")
	flagFailRate := fs.Float64("simulation-failure-rate", 0, "Probability that a simulated channel read fails")

	if err := fs.Parse(args); err != nil {
		return DefaultConfig(), err
	}

	cfg := DefaultConfig()
	if *cfgPath != "" {
		if err := mergeFile(&cfg, *cfgPath); err != nil {
			return cfg, err
		}
	}

	var ferr error
	fs.Visit(func(f *flag.Flag) {
		if ferr != nil {
			return
		}
		switch f.Name {
		case "location":
			cfg.LocationLabel = *flagLabel
		case "output-dir":
			cfg.OutputDir = *flagOutDir
		case "sensor-type":
			cfg.SensorType = *flagSensorType
		case "interval-sec":
			cfg.SampleIntervalSec = *flagInterval
		case "duration-days":
			cfg.RunDurationDays = *flagDuration
		case "max-retries":
			cfg.MaxRetries = *flagRetries
		case "retry-delay-sec":
			cfg.RetryDelaySec = *flagRetryDelay
		case "bias":
			cfg.BiasIntroduced = *flagBias
		case "bias-description":
			cfg.BiasDescription = *flagBiasDesc
		case "notes":
			cfg.Notes = *flagNotes
		case "calibration-samples":
			cfg.Calibration.Samples = *flagCalSamples
		case "calibration-delay-sec":
			cfg.Calibration.DelaySec = *flagCalDelay
		case "temperature-offset":
			cfg.Calibration.TemperatureOffsetC = *flagTempOffset
		case "humidity-offset":
			cfg.Calibration.HumidityOffsetPct = *flagHumOffset
		case "i2c-bus":
			cfg.I2C.Bus = *flagI2CBus
		case "ads1115-address":
			cfg.I2C.ADS1115Address, ferr = parseAddress(f.Name, *flagADSAddr)
		case "tsl2561-address":
			cfg.I2C.TSL2561Address, ferr = parseAddress(f.Name, *flagTSLAddr)
		case "bme280-address":
			cfg.I2C.BME280Address, ferr = parseAddress(f.Name, *flagBMEAddr)
		case "analog-channel":
			cfg.AnalogChannel = *flagChannel
		case "ads1115-sample-rate":
			cfg.ADS1115SampleRate = *flagSampleRate
		case "sensors":
			var m map[string]string
			if m, ferr = parseKeyStringMap(*flagSensors); ferr == nil {
				for k, v := range m {
					cfg.Sensors[k] = v
				}
			}
		case "console":
			cfg.ConsoleEcho = *flagConsole
		case "metrics-textfile":
			cfg.MetricsTextfile = *flagMetrics
		case "simulation-failure-rate":
			cfg.SimulationFailureRate = *flagFailRate
		}
	})
	if ferr != nil {
		return cfg, ferr
	}

	cfg.applyDefaults()
	return cfg, cfg.Validate()
}

func (c *Config) applyDefaults() {
	if c.Sensors == nil {
		c.Sensors = DefaultConfig().Sensors
	}
	if c.ADS1115SampleRate == 0 {
		c.ADS1115SampleRate = 128
	}
	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	c.SensorType = strings.ToLower(strings.TrimSpace(c.SensorType))
}

// Validate reports the first configuration value that cannot be used for a run.
func (c Config) Validate() error {
	switch {
	case strings.TrimSpace(c.LocationLabel) == "":
		return fmt.Errorf("%w: location label is required", ErrInvalid)
	case c.SensorType != SensorTypeReal && c.SensorType != SensorTypeSimulation:
		return fmt.Errorf("%w: sensor type %q (want real|simulation)", ErrInvalid, c.SensorType)
	case c.SampleIntervalSec <= 0:
		return fmt.Errorf("%w: sample interval must be > 0", ErrInvalid)
	case c.RunDurationDays < 0:
		return fmt.Errorf("%w: run duration must be >= 0", ErrInvalid)
	case c.RunDurationDays > MaxRunDurationDays:
		return fmt.Errorf("%w: run duration must be <= %d days", ErrInvalid, MaxRunDurationDays)
	case c.MaxRetries < 1:
		return fmt.Errorf("%w: max retries must be >= 1", ErrInvalid)
	case c.RetryDelaySec < 0:
		return fmt.Errorf("%w: retry delay must be >= 0", ErrInvalid)
	case c.Calibration.Samples < 0:
		return fmt.Errorf("%w: calibration samples must be >= 0", ErrInvalid)
	case c.Calibration.DelaySec < 0:
		return fmt.Errorf("%w: calibration delay must be >= 0", ErrInvalid)
	case c.AnalogChannel < 0 || c.AnalogChannel > 3:
		return fmt.Errorf("%w: analog channel %d (want 0-3)", ErrInvalid, c.AnalogChannel)
	case c.ADS1115SampleRate < 0:
		return fmt.Errorf("%w: ads1115 sample rate must be > 0", ErrInvalid)
	case c.SimulationFailureRate < 0 || c.SimulationFailureRate > 1:
		return fmt.Errorf("%w: simulation failure rate must be within [0,1]", ErrInvalid)
	}
	return nil
}

// Warnings lists settings that are usable but outside recommended bounds.
func (c Config) Warnings() []string {
	var out []string
	if c.SampleIntervalSec < MinRecommendedIntervalSec || c.SampleIntervalSec > MaxRecommendedIntervalSec {
		out = append(out, fmt.Sprintf("sample interval %ds is outside the recommended %d-%ds range",
			c.SampleIntervalSec, MinRecommendedIntervalSec, MaxRecommendedIntervalSec))
	}
	if c.BiasIntroduced && c.BiasDescription == "" {
		out = append(out, "bias introduced without a bias description")
	}
	return out
}

func parseAddress(name, s string) (int, error) {
	v, err := parseIntOrHex(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

func parseIntOrHex(s string) (int, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseInt(s[2:], 16, 0)
		return int(v), err
	}
	v, err := strconv.Atoi(s)
	return v, err
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// parseKeyStringMap parses "a=x,b=y" into a map.
func parseKeyStringMap(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range parseCSV(s) {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" {
			return nil, fmt.Errorf("invalid entry %q (want key=value)", p)
		}
		out[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
	}
	return out, nil
}
