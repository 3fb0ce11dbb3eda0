// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/brownian/internal/logging"
)

// FileConfig represents the TOML configuration file. Unset keys stay nil so
// callers can tell them apart from explicit zero values.
type FileConfig struct {
	FirstPassage FirstPassageConfig `toml:"first-passage"`
	Arcsine      ArcsineConfig      `toml:"arcsine"`
	Engine       EngineConfig       `toml:"engine"`
	Logging      LoggingConfig      `toml:"logging"`
}

// FirstPassageConfig maps first-passage defaults.
type FirstPassageConfig struct {
	Drift      *float64 `toml:"drift"`
	Volatility *float64 `toml:"volatility"`
	Barrier    *float64 `toml:"barrier"`
	Horizon    *float64 `toml:"horizon"`
	StepSize   *float64 `toml:"step-size"`
	Paths      *int     `toml:"paths"`
}

// ArcsineConfig maps arcsine-law defaults.
type ArcsineConfig struct {
	Paths    *int     `toml:"paths"`
	Horizon  *float64 `toml:"horizon"`
	StepSize *float64 `toml:"step-size"`
	Bins     *int     `toml:"bins"`
}

// EngineConfig maps execution settings shared by both simulations.
type EngineConfig struct {
	Seed    *uint64 `toml:"seed"`
	Workers *int    `toml:"workers"`
}

// LoggingConfig maps logger settings.
type LoggingConfig struct {
	Level *string `toml:"level"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Validate checks value ranges that can be judged without the flags. The
// simulation packages validate the merged configuration again before running.
func (c FileConfig) Validate() error {
	var errs []error
	positive := func(key string, v *float64) {
		if v != nil && (*v <= 0 || math.IsNaN(*v) || math.IsInf(*v, 0)) {
			errs = append(errs, fmt.Errorf("%s must be a positive number", key))
		}
	}
	positive("first-passage.volatility", c.FirstPassage.Volatility)
	positive("first-passage.barrier", c.FirstPassage.Barrier)
	positive("first-passage.horizon", c.FirstPassage.Horizon)
	positive("first-passage.step-size", c.FirstPassage.StepSize)
	positive("arcsine.horizon", c.Arcsine.Horizon)
	positive("arcsine.step-size", c.Arcsine.StepSize)
	if d := c.FirstPassage.Drift; d != nil && (math.IsNaN(*d) || math.IsInf(*d, 0)) {
		errs = append(errs, errors.New("first-passage.drift must be finite"))
	}
	if p := c.FirstPassage.Paths; p != nil && *p <= 0 {
		errs = append(errs, errors.New("first-passage.paths must be > 0"))
	}
	if p := c.Arcsine.Paths; p != nil && *p < 0 {
		errs = append(errs, errors.New("arcsine.paths must be >= 0"))
	}
	if b := c.Arcsine.Bins; b != nil && *b <= 0 {
		errs = append(errs, errors.New("arcsine.bins must be > 0"))
	}
	if w := c.Engine.Workers; w != nil && *w < 0 {
		errs = append(errs, errors.New("engine.workers must be >= 0"))
	}
	if l := c.Logging.Level; l != nil {
		if err := logging.ValidateLevel(*l); err != nil {
			errs = append(errs, fmt.Errorf("logging.level: %w", err))
		}
	}
	return errors.Join(errs...)
}
