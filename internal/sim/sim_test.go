package sim

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/generator"
	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/stats"
)

// scripted feeds Box-Muller pairs that decode to exactly +r or -r, r ~ 1.
type scripted struct {
	values []float64
	pos    int
}

func (s *scripted) Float64() float64 {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v
}

func walk(signs ...int) *generator.Gaussian {
	u1 := math.Exp(-0.5)
	vals := make([]float64, 0, 2*len(signs))
	for _, s := range signs {
		u2 := 0.0
		if s < 0 {
			u2 = 0.5
		}
		vals = append(vals, u1, u2)
	}
	return generator.NewGaussian(&scripted{values: vals})
}

func baseline() model.SimulationConfig {
	return model.SimulationConfig{
		Drift:      0,
		Volatility: 1,
		Barrier:    2,
		Horizon:    10,
		StepSize:   0.01,
		PathCount:  200,
	}
}

func TestEulerStep(t *testing.T) {
	assert.InDelta(t, 2.125, EulerStep(1, 0.5, 2, 0.25, 1), 1e-12)
	assert.Equal(t, 0.0, EulerStep(0, 0, 1, 0.01, 0))
}

func TestIntegratorMatchesEulerStep(t *testing.T) {
	src := generator.NewStream(7, 0)
	ref := generator.NewGaussian(generator.NewStream(7, 0))
	in := NewIntegrator(0.3, 1.7, 0.01, generator.NewGaussian(src))
	x, y := 0.0, 0.0
	for i := 0; i < 100; i++ {
		x = in.Step(x)
		y = EulerStep(y, 0.3, 1.7, 0.01, ref.Sample())
	}
	assert.Equal(t, y, x)
}

func TestValidateFirstPassageRejects(t *testing.T) {
	cases := map[string]func(*model.SimulationConfig){
		"zero paths":        func(c *model.SimulationConfig) { c.PathCount = 0 },
		"negative paths":    func(c *model.SimulationConfig) { c.PathCount = -5 },
		"zero volatility":   func(c *model.SimulationConfig) { c.Volatility = 0 },
		"negative barrier":  func(c *model.SimulationConfig) { c.Barrier = -1 },
		"zero barrier":      func(c *model.SimulationConfig) { c.Barrier = 0 },
		"zero horizon":      func(c *model.SimulationConfig) { c.Horizon = 0 },
		"zero step":         func(c *model.SimulationConfig) { c.StepSize = 0 },
		"step over horizon": func(c *model.SimulationConfig) { c.StepSize = 20 },
		"nan drift":         func(c *model.SimulationConfig) { c.Drift = math.NaN() },
		"inf volatility":    func(c *model.SimulationConfig) { c.Volatility = math.Inf(1) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseline()
			mutate(&cfg)
			_, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 1})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			var cerr *ConfigError
			require.True(t, errors.As(err, &cerr))
			assert.NotEmpty(t, cerr.Field)
		})
	}
}

func TestValidateFirstPassageStepCount(t *testing.T) {
	steps, err := ValidateFirstPassage(baseline())
	require.NoError(t, err)
	assert.InDelta(t, 1000, steps, 1)

	cfg := baseline()
	cfg.Horizon = 1
	cfg.StepSize = 0.3
	steps, err = ValidateFirstPassage(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, steps)
}

func TestFirstPassageDeterministicAcrossWorkers(t *testing.T) {
	cfg := baseline()
	cfg.PathCount = 300
	a, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 42, Workers: 1})
	require.NoError(t, err)
	b, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 42, Workers: 7})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 43, Workers: 7})
	require.NoError(t, err)
	assert.NotEqual(t, a.SamplePaths, c.SamplePaths)
}

func TestFirstPassageResultShape(t *testing.T) {
	cfg := baseline()
	res, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 5})
	require.NoError(t, err)

	assert.Equal(t, cfg.PathCount, res.PathCount)
	assert.Equal(t, cfg.Horizon, res.Horizon)
	assert.InDelta(t, float64(res.HitCount)/float64(cfg.PathCount), res.EmpiricalProbability, 1e-15)
	assert.GreaterOrEqual(t, res.EmpiricalProbability, 0.0)
	assert.LessOrEqual(t, res.EmpiricalProbability, 1.0)
	assert.Equal(t,
		analytic.FirstPassageProbability(cfg.Drift, cfg.Volatility, cfg.Barrier, cfg.Horizon),
		res.TheoreticalProbability)

	require.Len(t, res.SamplePaths, MaxSamplePaths)
	for i, sp := range res.SamplePaths {
		require.NotEmpty(t, sp.Path, "path %d", i)
		assert.Equal(t, model.PathPoint{}, sp.Path[0])
		for k := 1; k < len(sp.Path); k++ {
			assert.Greater(t, sp.Path[k].Time, sp.Path[k-1].Time)
			assert.InDelta(t, float64(k)*cfg.StepSize, sp.Path[k].Time, 1e-9)
		}
		last := sp.Path[len(sp.Path)-1]
		if sp.Hit {
			assert.GreaterOrEqual(t, last.Value, cfg.Barrier)
			for _, p := range sp.Path[:len(sp.Path)-1] {
				assert.Less(t, p.Value, cfg.Barrier)
			}
		} else {
			assert.Len(t, sp.Path, res.StepCount+1)
			for _, p := range sp.Path {
				assert.Less(t, p.Value, cfg.Barrier)
			}
		}
	}
}

func TestFirstPassageFewPathsRetainsAll(t *testing.T) {
	cfg := baseline()
	cfg.PathCount = 3
	res, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 9})
	require.NoError(t, err)
	assert.Len(t, res.SamplePaths, 3)
}

func TestSimulatePassageStopsAtBarrier(t *testing.T) {
	in := NewIntegrator(0, 1, 1, walk(1, -1, 1, 1, 1, 1))
	hit, path := simulatePassage(in, 1.5, 1, 10, true)
	require.True(t, hit)
	require.Len(t, path, 5)
	assert.InDelta(t, 2, path[4].Value, 1e-12)
	assert.InDelta(t, 4, path[4].Time, 1e-12)

	in = NewIntegrator(0, 1, 1, walk(-1))
	hit, path = simulatePassage(in, 1.5, 1, 4, true)
	assert.False(t, hit)
	assert.Len(t, path, 5)

	in = NewIntegrator(0, 1, 1, walk(1))
	hit, path = simulatePassage(in, 1.5, 1, 4, false)
	assert.True(t, hit)
	assert.Nil(t, path)
}

func TestFirstPassageExtremeDrift(t *testing.T) {
	cfg := model.SimulationConfig{Drift: 1000, Volatility: 1, Barrier: 1, Horizon: 1, StepSize: 0.01, PathCount: 100}
	res, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.EmpiricalProbability)
	for _, sp := range res.SamplePaths {
		assert.Len(t, sp.Path, 2)
	}

	cfg.Drift = -1000
	res, err = RunFirstPassage(context.Background(), cfg, Options{Seed: 3})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.EmpiricalProbability)
	assert.Less(t, res.TheoreticalProbability, 1e-6)
}

func TestFirstPassageMatchesReflectionPrinciple(t *testing.T) {
	cfg := model.SimulationConfig{Drift: 0, Volatility: 1, Barrier: 2, Horizon: 10, StepSize: 0.01, PathCount: 20000}
	res, err := RunFirstPassage(context.Background(), cfg, Options{Seed: 2024})
	require.NoError(t, err)
	assert.InDelta(t, 2*(1-analytic.NormalCDF(2/math.Sqrt(10))), res.TheoreticalProbability, 1e-9)
	// Discrete monitoring misses some crossings, so the estimate sits slightly low.
	assert.InDelta(t, res.TheoreticalProbability, res.EmpiricalProbability, 0.025)
}

func TestFirstPassageConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("slow")
	}
	cfg := model.SimulationConfig{Drift: 0, Volatility: 1, Barrier: 1, Horizon: 1, StepSize: 0.001}
	meanErr := func(paths int) float64 {
		cfg.PathCount = paths
		total := 0.0
		const seeds = 8
		for s := uint64(1); s <= seeds; s++ {
			res, err := RunFirstPassage(context.Background(), cfg, Options{Seed: s * 101})
			require.NoError(t, err)
			total += math.Abs(res.EmpiricalProbability - res.TheoreticalProbability)
		}
		return total / seeds
	}
	small := meanErr(100)
	large := meanErr(10000)
	assert.Greater(t, small, large)
}

func TestFirstPassageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := RunFirstPassage(ctx, baseline(), Options{Seed: 1})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.FirstPassageResult{}, res)
}

func TestFirstPassageCancelledMidRun(t *testing.T) {
	cfg := model.SimulationConfig{Drift: 0, Volatility: 1, Barrier: 1e9, Horizon: 10, StepSize: 0.001, PathCount: 200000}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	started := time.Now()
	_, err := RunFirstPassage(ctx, cfg, Options{Seed: 1, Workers: 2})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(started), 10*time.Second)
}

func TestArcsinePathScripted(t *testing.T) {
	// x: 1, 0, -1, 0, 1, 2
	in := NewIntegrator(0, 1, 1, walk(1, -1, -1, 1, 1, 1))
	above, lastZero, maxTime := arcsinePath(in, 1, 6)
	assert.InDelta(t, 3, above, 1e-12)
	assert.InDelta(t, 5, lastZero, 1e-12)
	assert.InDelta(t, 6, maxTime, 1e-12)
}

func TestArcsinePathNeverPositive(t *testing.T) {
	in := NewIntegrator(0, 1, 1, walk(-1))
	above, lastZero, maxTime := arcsinePath(in, 1, 5)
	assert.Equal(t, 0.0, above)
	assert.InDelta(t, 1, lastZero, 1e-12)
	assert.Equal(t, 0.0, maxTime)
}

func TestRunArcsineZeroPaths(t *testing.T) {
	res, err := RunArcsine(context.Background(), model.ArcsineConfig{PathCount: 0, StepSize: 0.01}, Options{})
	require.NoError(t, err)
	assert.NotNil(t, res.OccupationFraction)
	assert.Empty(t, res.OccupationFraction)
	assert.Empty(t, res.LastZeroFraction)
	assert.Empty(t, res.MaxTimeFraction)
}

func TestValidateArcsine(t *testing.T) {
	cfg, steps, err := ValidateArcsine(model.ArcsineConfig{PathCount: 10, StepSize: 0.25})
	require.NoError(t, err)
	assert.Equal(t, DefaultArcsineHorizon, cfg.Horizon)
	assert.Equal(t, 4, steps)

	bad := []model.ArcsineConfig{
		{PathCount: -1, StepSize: 0.01},
		{PathCount: 10, StepSize: 0},
		{PathCount: 10, StepSize: 2},
		{PathCount: 10, StepSize: 0.01, Horizon: -1},
		{PathCount: 10, StepSize: math.NaN()},
	}
	for _, c := range bad {
		_, _, err := ValidateArcsine(c)
		assert.ErrorIs(t, err, ErrInvalidConfig, "%+v", c)
	}
}

func TestRunArcsineRanges(t *testing.T) {
	cfg := model.ArcsineConfig{PathCount: 500, Horizon: 2, StepSize: 0.01}
	res, err := RunArcsine(context.Background(), cfg, Options{Seed: 11})
	require.NoError(t, err)
	for _, s := range model.Statistics {
		vals := res.Values(s)
		require.Len(t, vals, cfg.PathCount, string(s))
		for _, v := range vals {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0+1e-9)
		}
	}
	for _, v := range res.OccupationFraction {
		steps := v * cfg.Horizon / cfg.StepSize
		assert.InDelta(t, math.Round(steps), steps, 1e-6)
	}
}

func TestRunArcsineDeterministicAcrossWorkers(t *testing.T) {
	cfg := model.ArcsineConfig{PathCount: 250, StepSize: 0.01}
	a, err := RunArcsine(context.Background(), cfg, Options{Seed: 77, Workers: 1})
	require.NoError(t, err)
	b, err := RunArcsine(context.Background(), cfg, Options{Seed: 77, Workers: 5})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRunArcsineMatchesArcsineLaw(t *testing.T) {
	cfg := model.ArcsineConfig{PathCount: 4000, Horizon: 1, StepSize: 0.002}
	res, err := RunArcsine(context.Background(), cfg, Options{Seed: 31337})
	require.NoError(t, err)
	for _, s := range model.Statistics {
		vals := res.Values(s)
		for _, x := range []float64{0.1, 0.5, 0.9} {
			n := 0
			for _, v := range vals {
				if v <= x {
					n++
				}
			}
			got := float64(n) / float64(len(vals))
			assert.InDelta(t, analytic.ArcsineCDF(x), got, 0.05, "%s at %.1f", s, x)
		}
	}
}

func TestRunArcsineHistogramIsUShaped(t *testing.T) {
	cfg := model.ArcsineConfig{PathCount: 10000, StepSize: 0.001}
	res, err := RunArcsine(context.Background(), cfg, Options{Seed: 99})
	require.NoError(t, err)
	for _, s := range model.Statistics {
		bins := stats.BuildHistogram(res.Values(s), 40)
		require.Len(t, bins, 40, string(s))
		first, mid, last := bins[0], bins[20], bins[39]
		assert.InDelta(t, 0.0125, first.Midpoint, 1e-12)
		assert.InDelta(t, 0.5125, mid.Midpoint, 1e-12)
		assert.InDelta(t, 0.9875, last.Midpoint, 1e-12)
		assert.Greater(t, first.EmpiricalDensity, mid.EmpiricalDensity, "%s: first bin", s)
		assert.Greater(t, last.EmpiricalDensity, mid.EmpiricalDensity, "%s: last bin", s)
	}
}

func TestRunArcsineCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunArcsine(ctx, model.ArcsineConfig{PathCount: 10, StepSize: 0.01}, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkerCount(t *testing.T) {
	assert.Equal(t, 3, Options{Workers: 8}.workerCount(3))
	assert.Equal(t, 1, Options{Workers: 8}.workerCount(0))
	assert.Equal(t, 2, Options{Workers: 2}.workerCount(100))
	assert.GreaterOrEqual(t, Options{}.workerCount(100), 1)
}

func TestForEachPathVisitsEveryIndexOnce(t *testing.T) {
	seen := make([]int, 103)
	err := forEachPath(context.Background(), len(seen), 4, func(p int) { seen[p]++ })
	require.NoError(t, err)
	for i, n := range seen {
		assert.Equal(t, 1, n, "index %d", i)
	}
}
