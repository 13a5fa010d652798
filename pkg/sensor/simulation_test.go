package sensor

import (
	"testing"

	"github.com/ericogr/envlogger/pkg/config"
)

func TestSimulationReadsSucceedWithoutFailureRate(t *testing.T) {
	s := NewSimulation(config.DefaultConfig())
	for i := 0; i < 100; i++ {
		th, err := s.ReadTemperatureHumidity()
		if err != nil {
			t.Fatalf("temperature/humidity: %v", err)
		}
		if th.TemperatureC < 20 || th.TemperatureC > 25 || th.HumidityPct < 40 || th.HumidityPct > 60 {
			t.Fatalf("out of range: %+v", th)
		}
		raw, err := s.ReadAnalog(0)
		if err != nil || raw < 8000 || raw >= 10000 {
			t.Fatalf("analog: raw=%d err=%v", raw, err)
		}
		lux, err := s.ReadLight()
		if err != nil || lux < 100 || lux > 500 {
			t.Fatalf("light: lux=%f err=%v", lux, err)
		}
	}
}

func TestSimulationAlwaysFails(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SimulationFailureRate = 1
	s := NewSimulation(cfg)
	if _, err := s.ReadTemperatureHumidity(); err == nil {
		t.Fatalf("expected temperature/humidity failure")
	}
	if _, err := s.ReadAnalog(0); err == nil {
		t.Fatalf("expected analog failure")
	}
	if _, err := s.ReadLight(); err == nil {
		t.Fatalf("expected light failure")
	}
}

func TestSimulationInvalidChannel(t *testing.T) {
	s := NewSimulation(config.DefaultConfig())
	if _, err := s.ReadAnalog(7); err == nil {
		t.Fatalf("expected error for invalid channel")
	}
}

func TestNewSelectsAdapter(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SensorType = config.SensorTypeSimulation
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, ok := a.(*Simulation); !ok {
		t.Fatalf("expected *Simulation, got %T", a)
	}
	cfg.SensorType = "usb"
	if _, err := New(cfg, nil); err == nil {
		t.Fatalf("expected error for unknown sensor type")
	}
}
