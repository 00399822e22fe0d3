// Package config holds the simulation tunables.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every timing and scoring parameter of a run. All durations are seconds.
type Config struct {
	TickSeconds      float64 `yaml:"tick_seconds" json:"tick_seconds"`
	SpawnInterval    float64 `yaml:"spawn_interval" json:"spawn_interval"`
	SpawnJitter      float64 `yaml:"spawn_jitter" json:"spawn_jitter"` // upper bound of the random delay added to SpawnInterval
	MaxPerType       int     `yaml:"max_per_type" json:"max_per_type"` // live vehicles per car type
	SpawnDelay       float64 `yaml:"spawn_delay" json:"spawn_delay"`
	CellTravelTime   float64 `yaml:"cell_travel_time" json:"cell_travel_time"`
	MaxWait          float64 `yaml:"max_wait" json:"max_wait"`
	RerouteInterval  float64 `yaml:"reroute_interval" json:"reroute_interval"`
	ExitGrace        float64 `yaml:"exit_grace" json:"exit_grace"`
	FailGrace        float64 `yaml:"fail_grace" json:"fail_grace"`
	SuccessThreshold float64 `yaml:"success_threshold" json:"success_threshold"`
	MinSampleFactor  float64 `yaml:"min_sample_factor" json:"min_sample_factor"`
	Seed             uint64  `yaml:"seed" json:"seed"`
	MaxTime          float64 `yaml:"max_time" json:"max_time"` // headless runs stop here without a verdict
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		TickSeconds:      0.05,
		SpawnInterval:    3,
		SpawnJitter:      1,
		MaxPerType:       3,
		SpawnDelay:       0.5,
		CellTravelTime:   0.4,
		MaxWait:          10,
		RerouteInterval:  2,
		ExitGrace:        0.5,
		FailGrace:        3,
		SuccessThreshold: 0.8,
		MinSampleFactor:  3,
		Seed:             1,
		MaxTime:          300,
	}
}

// Load reads a YAML config file. Keys missing from the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML (or JSON, a YAML subset) over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every out-of-range value.
func (c Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", name, v))
		}
	}
	positive("tick_seconds", c.TickSeconds)
	positive("spawn_interval", c.SpawnInterval)
	nonNegative("spawn_jitter", c.SpawnJitter)
	positive("max_per_type", float64(c.MaxPerType))
	nonNegative("spawn_delay", c.SpawnDelay)
	positive("cell_travel_time", c.CellTravelTime)
	positive("max_wait", c.MaxWait)
	positive("reroute_interval", c.RerouteInterval)
	nonNegative("exit_grace", c.ExitGrace)
	nonNegative("fail_grace", c.FailGrace)
	positive("min_sample_factor", c.MinSampleFactor)
	positive("max_time", c.MaxTime)
	if c.SuccessThreshold <= 0 || c.SuccessThreshold > 1 {
		errs = append(errs, fmt.Errorf("success_threshold must be in (0, 1], got %v", c.SuccessThreshold))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// WithLevel applies the per-level overrides; zero values leave the config unchanged.
func (c Config) WithLevel(successThreshold float64, maxPerType int) Config {
	if successThreshold > 0 {
		c.SuccessThreshold = successThreshold
	}
	if maxPerType > 0 {
		c.MaxPerType = maxPerType
	}
	return c
}
