package terminal

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/terminal-sim/terminal-sim/sim"
	"github.com/terminal-sim/terminal-sim/sim/arrival"
)

// Config holds every input of one terminal run. Times are in minutes.
type Config struct {
	Horizon             int64        `yaml:"horizon"`
	Seed                int64        `yaml:"seed"`
	Berths              int          `yaml:"berths"`
	Cranes              int          `yaml:"cranes"`
	Trucks              int          `yaml:"trucks"`
	ContainersPerVessel int          `yaml:"containers_per_vessel"`
	CraneServiceTime    float64      `yaml:"crane_service_time"`
	TruckTripTime       float64      `yaml:"truck_trip_time"`
	MeanInterArrival    float64      `yaml:"mean_inter_arrival"`
	MaxVessels          int          `yaml:"max_vessels"` // 0 = unlimited
	Arrival             arrival.Spec `yaml:"arrival"`
}

// DefaultConfig returns the reference terminal: 2 berths, 2 cranes, 3 trucks,
// 150 containers per vessel, one vessel every 5 hours on average.
func DefaultConfig() Config {
	return Config{
		Seed:                42,
		Berths:              2,
		Cranes:              2,
		Trucks:              3,
		ContainersPerVessel: 150,
		CraneServiceTime:    3,
		TruckTripTime:       6,
		MeanInterArrival:    300,
		Arrival:             arrival.Spec{Process: arrival.ProcessPoisson},
	}
}

// LoadConfigFile decodes the YAML file at path over cfg, leaving fields
// absent from the file untouched. Unknown keys are rejected.
func LoadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading terminal config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("parsing terminal config %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration describes a runnable terminal.
// Every failure is a *sim.ConfigurationError.
func (c Config) Validate() error {
	if c.Horizon < 0 {
		return configErr("horizon", "must be >= 0, got %d", c.Horizon)
	}
	for _, pool := range []struct {
		name     string
		capacity int
	}{{"berths", c.Berths}, {"cranes", c.Cranes}, {"trucks", c.Trucks}} {
		if pool.capacity <= 0 {
			return configErr(pool.name, "capacity must be > 0, got %d", pool.capacity)
		}
	}
	if c.ContainersPerVessel <= 0 {
		return configErr("containers_per_vessel", "must be > 0, got %d", c.ContainersPerVessel)
	}
	if err := validateDuration("crane_service_time", c.CraneServiceTime); err != nil {
		return err
	}
	if err := validateDuration("truck_trip_time", c.TruckTripTime); err != nil {
		return err
	}
	if c.MaxVessels < 0 {
		return configErr("max_vessels", "must be >= 0, got %d", c.MaxVessels)
	}
	if !arrival.IsValidProcess(c.Arrival.Process) {
		return configErr("arrival.process", "unknown process %q; valid: poisson, constant, gamma, weibull, replay", c.Arrival.Process)
	}
	if c.Arrival.CV != nil {
		if cv := *c.Arrival.CV; cv <= 0 || math.IsNaN(cv) || math.IsInf(cv, 0) {
			return configErr("arrival.cv", "must be finite and > 0, got %v", cv)
		}
	}
	if c.Arrival.Process == arrival.ProcessReplay {
		if len(c.Arrival.Gaps) == 0 {
			return configErr("arrival.gaps", "replay needs at least one gap")
		}
	} else if c.MeanInterArrival <= 0 || math.IsNaN(c.MeanInterArrival) || math.IsInf(c.MeanInterArrival, 0) {
		return configErr("mean_inter_arrival", "must be finite and > 0, got %v", c.MeanInterArrival)
	}
	return nil
}

func validateDuration(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return configErr(field, "must be finite and >= 0, got %v", v)
	}
	return nil
}

func configErr(field, format string, args ...any) *sim.ConfigurationError {
	return &sim.ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
