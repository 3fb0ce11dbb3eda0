// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// SimulationConfig defines a first-passage run.
type SimulationConfig struct {
	Drift      float64 `json:"drift" yaml:"drift"`
	Volatility float64 `json:"volatility" yaml:"volatility"`
	Barrier    float64 `json:"barrier" yaml:"barrier"`
	Horizon    float64 `json:"horizon" yaml:"horizon"`
	StepSize   float64 `json:"step_size" yaml:"step_size"`
	PathCount  int     `json:"path_count" yaml:"path_count"`
}

// ArcsineConfig defines an arcsine-law run. A zero Horizon means the unit horizon.
type ArcsineConfig struct {
	PathCount int     `json:"path_count" yaml:"path_count"`
	Horizon   float64 `json:"horizon" yaml:"horizon"`
	StepSize  float64 `json:"step_size" yaml:"step_size"`
}

// PathPoint is one (time, value) observation of a simulated path.
type PathPoint struct {
	Time  float64 `json:"t" yaml:"t"`
	Value float64 `json:"x" yaml:"x"`
}

// PathSample is a trajectory ordered by strictly increasing time, starting at 0.
type PathSample []PathPoint

// SamplePath is a retained trajectory and whether it reached the barrier.
type SamplePath struct {
	Path PathSample `json:"path" yaml:"path"`
	Hit  bool       `json:"hit" yaml:"hit"`
}

// FirstPassageResult summarizes a first-passage run.
type FirstPassageResult struct {
	EmpiricalProbability   float64      `json:"empirical_probability" yaml:"empirical_probability"`
	TheoreticalProbability float64      `json:"theoretical_probability" yaml:"theoretical_probability"`
	HitCount               int          `json:"hit_count" yaml:"hit_count"`
	PathCount              int          `json:"path_count" yaml:"path_count"`
	StepCount              int          `json:"step_count" yaml:"step_count"`
	SamplePaths            []SamplePath `json:"sample_paths" yaml:"sample_paths"`
	Horizon                float64      `json:"horizon" yaml:"horizon"`
}

// ArcsineResult holds one entry per simulated path for each statistic.
type ArcsineResult struct {
	OccupationFraction []float64 `json:"occupation_fraction" yaml:"occupation_fraction"`
	LastZeroFraction   []float64 `json:"last_zero_fraction" yaml:"last_zero_fraction"`
	MaxTimeFraction    []float64 `json:"max_time_fraction" yaml:"max_time_fraction"`
}

// HistogramBin pairs an empirical density with the arcsine density at the bin midpoint.
type HistogramBin struct {
	Midpoint           float64 `json:"midpoint" yaml:"midpoint"`
	EmpiricalDensity   float64 `json:"empirical_density" yaml:"empirical_density"`
	TheoreticalDensity float64 `json:"theoretical_density" yaml:"theoretical_density"`
}

// Statistic names one of the three arcsine statistics.
type Statistic string

const (
	StatOccupation Statistic = "occupation"
	StatLastZero   Statistic = "last-zero"
	StatMaxTime    Statistic = "max-time"
)

// Statistics lists the arcsine statistics in display order.
var Statistics = []Statistic{StatOccupation, StatLastZero, StatMaxTime}

// Title returns a human-readable label for the statistic.
func (s Statistic) Title() string {
	switch s {
	case StatOccupation:
		return "Occupation Time Above Zero"
	case StatLastZero:
		return "Last Zero-Crossing Time"
	case StatMaxTime:
		return "Maximum Achievement Time"
	default:
		return string(s)
	}
}

// ParseStatistic resolves a statistic name such as "last-zero".
func ParseStatistic(name string) (Statistic, error) {
	s := Statistic(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Statistics {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown statistic %q (want occupation, last-zero or max-time)", name)
}

// Values returns the per-path sequence for the statistic.
func (r ArcsineResult) Values(s Statistic) []float64 {
	switch s {
	case StatOccupation:
		return r.OccupationFraction
	case StatLastZero:
		return r.LastZeroFraction
	case StatMaxTime:
		return r.MaxTimeFraction
	default:
		return nil
	}
}

// Preset is a named first-passage configuration.
type Preset struct {
	Name      string           `json:"name" yaml:"name"`
	Config    SimulationConfig `json:"config" yaml:"config"`
	CreatedAt time.Time        `json:"created_at" yaml:"created_at"`
}
