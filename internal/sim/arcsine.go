package sim

import (
	"context"
	"time"

	"github.com/verte-zerg/brownian/internal/generator"
	"github.com/verte-zerg/brownian/internal/model"
)

// DefaultArcsineHorizon is used when ArcsineConfig.Horizon is zero.
const DefaultArcsineHorizon = 1.0

// ValidateArcsine checks cfg, fills in the default horizon and returns the
// normalized config with its number of time steps.
func ValidateArcsine(cfg model.ArcsineConfig) (model.ArcsineConfig, int, error) {
	if cfg.Horizon == 0 {
		cfg.Horizon = DefaultArcsineHorizon
	}
	if err := positive("horizon", cfg.Horizon); err != nil {
		return cfg, 0, err
	}
	if err := positive("step_size", cfg.StepSize); err != nil {
		return cfg, 0, err
	}
	if cfg.PathCount < 0 {
		return cfg, 0, invalid("path_count", float64(cfg.PathCount), "must be >= 0")
	}
	steps, err := stepCount(cfg.Horizon, cfg.StepSize)
	if err != nil {
		return cfg, 0, err
	}
	return cfg, steps, nil
}

// RunArcsine simulates driftless unit-volatility paths over cfg.Horizon and
// returns, per path, the fraction of time spent above zero, the time of the
// last zero crossing and the time of the maximum, each divided by the horizon.
// Zero paths yield three empty sequences.
func RunArcsine(ctx context.Context, cfg model.ArcsineConfig, opts Options) (model.ArcsineResult, error) {
	cfg, steps, err := ValidateArcsine(cfg)
	if err != nil {
		return model.ArcsineResult{}, err
	}
	log := opts.logger()
	workers := opts.workerCount(cfg.PathCount)
	started := time.Now()
	log.Debug("arcsine started",
		"paths", cfg.PathCount, "steps", steps, "workers", workers, "seed", opts.Seed)

	res := model.ArcsineResult{
		OccupationFraction: make([]float64, cfg.PathCount),
		LastZeroFraction:   make([]float64, cfg.PathCount),
		MaxTimeFraction:    make([]float64, cfg.PathCount),
	}
	err = forEachPath(ctx, cfg.PathCount, workers, func(p int) {
		in := NewIntegrator(0, 1, cfg.StepSize,
			generator.NewGaussian(generator.NewStream(opts.Seed, uint64(p))))
		above, lastZero, maxTime := arcsinePath(in, cfg.StepSize, steps)
		res.OccupationFraction[p] = above / cfg.Horizon
		res.LastZeroFraction[p] = lastZero / cfg.Horizon
		res.MaxTimeFraction[p] = maxTime / cfg.Horizon
	})
	if err != nil {
		log.Debug("arcsine aborted", "error", err)
		return model.ArcsineResult{}, err
	}
	log.Debug("arcsine finished", "paths", cfg.PathCount, "elapsed", time.Since(started))
	return res, nil
}

// arcsinePath runs one full path. A sign change or exact touch of zero
// between consecutive values moves the last crossing forward; the maximum
// keeps the earliest step that achieved it.
func arcsinePath(in *Integrator, stepSize float64, steps int) (above, lastZero, maxTime float64) {
	x := 0.0
	runningMax := 0.0
	for i := 1; i <= steps; i++ {
		prev := x
		x = in.Step(x)
		t := float64(i) * stepSize
		if x > 0 {
			above += stepSize
		}
		if prev*x <= 0 {
			lastZero = t
		}
		if x > runningMax {
			runningMax = x
			maxTime = t
		}
	}
	return above, lastZero, maxTime
}
