package mcpserver

import (
	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/stats"
)

// FirstPassageInput defines the input for the first_passage tool. Omitted
// fields take the server defaults.
type FirstPassageInput struct {
	Drift        *float64 `json:"drift,omitempty" jsonschema:"drift coefficient μ"`
	Volatility   *float64 `json:"volatility,omitempty" jsonschema:"volatility σ, positive"`
	Barrier      *float64 `json:"barrier,omitempty" jsonschema:"barrier level b, positive"`
	Horizon      *float64 `json:"horizon,omitempty" jsonschema:"time horizon T, positive"`
	StepSize     *float64 `json:"step_size,omitempty" jsonschema:"integration step Δt, positive and at most T"`
	Paths        *int     `json:"paths,omitempty" jsonschema:"number of simulated paths, at least 1"`
	Seed         *uint64  `json:"seed,omitempty" jsonschema:"random seed; 0 or omitted draws a fresh seed"`
	IncludePaths bool     `json:"include_paths,omitempty" jsonschema:"include the retained sample trajectories"`
}

// FirstPassageOutput defines the output for the first_passage tool.
type FirstPassageOutput struct {
	Config                 model.SimulationConfig `json:"config" jsonschema:"configuration that was simulated"`
	Seed                   uint64                 `json:"seed" jsonschema:"seed used for the run"`
	EmpiricalProbability   float64                `json:"empirical_probability" jsonschema:"fraction of paths that reached the barrier"`
	TheoreticalProbability float64                `json:"theoretical_probability" jsonschema:"reflection-principle probability"`
	AbsoluteError          float64                `json:"absolute_error" jsonschema:"absolute difference of the two probabilities"`
	HitCount               int                    `json:"hit_count"`
	PathCount              int                    `json:"path_count"`
	StepCount              int                    `json:"step_count"`
	SamplePaths            []model.SamplePath     `json:"sample_paths,omitempty" jsonschema:"retained trajectories, when requested"`
}

// ArcsineInput defines the input for the arcsine_laws tool.
type ArcsineInput struct {
	Paths    *int     `json:"paths,omitempty" jsonschema:"number of simulated paths"`
	Horizon  *float64 `json:"horizon,omitempty" jsonschema:"time horizon, defaults to 1"`
	StepSize *float64 `json:"step_size,omitempty" jsonschema:"integration step"`
	Bins     *int     `json:"bins,omitempty" jsonschema:"histogram bins per statistic"`
	Seed     *uint64  `json:"seed,omitempty" jsonschema:"random seed; 0 or omitted draws a fresh seed"`
}

// ArcsineOutput defines the output for the arcsine_laws tool.
type ArcsineOutput struct {
	Config     model.ArcsineConfig `json:"config" jsonschema:"configuration that was simulated"`
	Seed       uint64              `json:"seed" jsonschema:"seed used for the run"`
	Statistics []stats.Summary     `json:"statistics" jsonschema:"one summary per arcsine statistic"`
}

// NormalCDFInput defines the input for the normal_cdf tool.
type NormalCDFInput struct {
	X float64 `json:"x" jsonschema:"point at which to evaluate Φ"`
}

// NormalCDFOutput defines the output for the normal_cdf tool.
type NormalCDFOutput struct {
	X           float64 `json:"x"`
	Probability float64 `json:"probability" jsonschema:"Φ(x)"`
}
