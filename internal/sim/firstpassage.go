package sim

import (
	"context"
	"math"
	"time"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/generator"
	"github.com/verte-zerg/brownian/internal/logging"
	"github.com/verte-zerg/brownian/internal/model"
)

// ValidateFirstPassage checks cfg and returns the number of time steps.
func ValidateFirstPassage(cfg model.SimulationConfig) (int, error) {
	if math.IsNaN(cfg.Drift) || math.IsInf(cfg.Drift, 0) {
		return 0, invalid("drift", cfg.Drift, "must be finite")
	}
	if err := positive("volatility", cfg.Volatility); err != nil {
		return 0, err
	}
	if err := positive("barrier", cfg.Barrier); err != nil {
		return 0, err
	}
	if err := positive("horizon", cfg.Horizon); err != nil {
		return 0, err
	}
	if err := positive("step_size", cfg.StepSize); err != nil {
		return 0, err
	}
	if cfg.PathCount <= 0 {
		return 0, invalid("path_count", float64(cfg.PathCount), "must be > 0")
	}
	return stepCount(cfg.Horizon, cfg.StepSize)
}

// RunFirstPassage simulates cfg.PathCount paths from 0 and reports how many
// reach cfg.Barrier within cfg.Horizon, next to the reflection-principle value.
// A path stops at its first step at or above the barrier. The trajectories of
// the first MaxSamplePaths paths are kept, up to and including that step.
func RunFirstPassage(ctx context.Context, cfg model.SimulationConfig, opts Options) (model.FirstPassageResult, error) {
	steps, err := ValidateFirstPassage(cfg)
	if err != nil {
		return model.FirstPassageResult{}, err
	}
	log := opts.logger()
	workers := opts.workerCount(cfg.PathCount)
	started := time.Now()
	log.Debug("first passage started",
		"paths", cfg.PathCount, "steps", steps, "workers", workers, "seed", opts.Seed)

	retained := min(MaxSamplePaths, cfg.PathCount)
	hits := make([]bool, cfg.PathCount)
	samples := make([]model.SamplePath, retained)

	err = forEachPath(ctx, cfg.PathCount, workers, func(p int) {
		in := NewIntegrator(cfg.Drift, cfg.Volatility, cfg.StepSize,
			generator.NewGaussian(generator.NewStream(opts.Seed, uint64(p))))
		hit, path := simulatePassage(in, cfg.Barrier, cfg.StepSize, steps, p < retained)
		hits[p] = hit
		if p < retained {
			samples[p] = model.SamplePath{Path: path, Hit: hit}
		}
	})
	if err != nil {
		log.Debug("first passage aborted", "error", err)
		return model.FirstPassageResult{}, err
	}

	for i, sp := range samples {
		log.Log(ctx, logging.LevelTrace, "sample path", "index", i, "hit", sp.Hit, "steps", len(sp.Path)-1)
	}
	hitCount := 0
	for _, h := range hits {
		if h {
			hitCount++
		}
	}
	res := model.FirstPassageResult{
		EmpiricalProbability:   float64(hitCount) / float64(cfg.PathCount),
		TheoreticalProbability: analytic.FirstPassageProbability(cfg.Drift, cfg.Volatility, cfg.Barrier, cfg.Horizon),
		HitCount:               hitCount,
		PathCount:              cfg.PathCount,
		StepCount:              steps,
		SamplePaths:            samples,
		Horizon:                cfg.Horizon,
	}
	log.Debug("first passage finished",
		"hits", hitCount, "empirical", res.EmpiricalProbability,
		"theoretical", res.TheoreticalProbability, "elapsed", time.Since(started))
	return res, nil
}

func simulatePassage(in *Integrator, barrier, stepSize float64, steps int, record bool) (bool, model.PathSample) {
	var path model.PathSample
	if record {
		path = make(model.PathSample, 1, steps+1)
	}
	x := 0.0
	for i := 1; i <= steps; i++ {
		x = in.Step(x)
		if record {
			path = append(path, model.PathPoint{Time: float64(i) * stepSize, Value: x})
		}
		if x >= barrier {
			return true, path
		}
	}
	return false, path
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, v, "must be finite")
	}
	if v <= 0 {
		return invalid(field, v, "must be > 0")
	}
	return nil
}

// stepCount truncates horizon/stepSize and rejects a zero result.
func stepCount(horizon, stepSize float64) (int, error) {
	n := math.Floor(horizon / stepSize)
	if n < 1 {
		return 0, invalid("step_size", stepSize, "must not exceed the horizon")
	}
	if n > math.MaxInt32 {
		return 0, invalid("step_size", stepSize, "yields too many steps")
	}
	return int(n), nil
}
