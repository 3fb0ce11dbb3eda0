package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/config"
	"github.com/verte-zerg/brownian/internal/generator"
	"github.com/verte-zerg/brownian/internal/logging"
	"github.com/verte-zerg/brownian/internal/model"
	"github.com/verte-zerg/brownian/internal/sim"
	"github.com/verte-zerg/brownian/internal/stats"
)

type passageOptions struct {
	drift      float64
	volatility float64
	barrier    float64
	horizon    float64
	stepSize   float64
	paths      int
	preset     string
}

func defaultPassageOptions() *passageOptions {
	return &passageOptions{
		drift:      defaultDrift,
		volatility: defaultVolatility,
		barrier:    defaultBarrier,
		horizon:    defaultHorizon,
		stepSize:   defaultStepSize,
		paths:      defaultPaths,
	}
}

func (p *passageOptions) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&p.drift, "drift", p.drift, "drift coefficient μ")
	cmd.Flags().Float64Var(&p.volatility, "volatility", p.volatility, "volatility σ (> 0)")
	cmd.Flags().Float64Var(&p.barrier, "barrier", p.barrier, "barrier level b (> 0)")
	cmd.Flags().Float64Var(&p.horizon, "horizon", p.horizon, "time horizon T (> 0)")
	cmd.Flags().Float64Var(&p.stepSize, "step-size", p.stepSize, "integration step Δt (0 < Δt <= T)")
	cmd.Flags().IntVar(&p.paths, "paths", p.paths, "number of simulated paths")
}

func (p *passageOptions) apply(cmd *cobra.Command, fileCfg config.FileConfig) {
	fp := fileCfg.FirstPassage
	applyFloatConfig(cmd, "drift", &p.drift, fp.Drift)
	applyFloatConfig(cmd, "volatility", &p.volatility, fp.Volatility)
	applyFloatConfig(cmd, "barrier", &p.barrier, fp.Barrier)
	applyFloatConfig(cmd, "horizon", &p.horizon, fp.Horizon)
	applyFloatConfig(cmd, "step-size", &p.stepSize, fp.StepSize)
	applyIntConfig(cmd, "paths", &p.paths, fp.Paths)
}

// applyPreset overrides config and default values with a saved preset.
// Flags given on the command line still win.
func (p *passageOptions) applyPreset(cmd *cobra.Command, preset model.Preset) {
	c := preset.Config
	applyFloatConfig(cmd, "drift", &p.drift, &c.Drift)
	applyFloatConfig(cmd, "volatility", &p.volatility, &c.Volatility)
	applyFloatConfig(cmd, "barrier", &p.barrier, &c.Barrier)
	applyFloatConfig(cmd, "horizon", &p.horizon, &c.Horizon)
	applyFloatConfig(cmd, "step-size", &p.stepSize, &c.StepSize)
	applyIntConfig(cmd, "paths", &p.paths, &c.PathCount)
}

func (p *passageOptions) config() model.SimulationConfig {
	return model.SimulationConfig{
		Drift:      p.drift,
		Volatility: p.volatility,
		Barrier:    p.barrier,
		Horizon:    p.horizon,
		StepSize:   p.stepSize,
		PathCount:  p.paths,
	}
}

type arcsineOptions struct {
	paths    int
	horizon  float64
	stepSize float64
	bins     int
	stat     string
	table    bool
}

func defaultArcsineOptions() *arcsineOptions {
	return &arcsineOptions{
		paths:    defaultArcsinePaths,
		horizon:  defaultArcsineHorizon,
		stepSize: defaultArcsineStepSize,
		bins:     defaultBins,
		stat:     "all",
	}
}

func (a *arcsineOptions) apply(cmd *cobra.Command, fileCfg config.FileConfig) {
	ac := fileCfg.Arcsine
	applyIntConfig(cmd, "paths", &a.paths, ac.Paths)
	applyFloatConfig(cmd, "horizon", &a.horizon, ac.Horizon)
	applyFloatConfig(cmd, "step-size", &a.stepSize, ac.StepSize)
	applyIntConfig(cmd, "bins", &a.bins, ac.Bins)
}

func (a *arcsineOptions) config() model.ArcsineConfig {
	return model.ArcsineConfig{
		PathCount: a.paths,
		Horizon:   a.horizon,
		StepSize:  a.stepSize,
	}
}

func (a *arcsineOptions) statistics() ([]model.Statistic, error) {
	if strings.EqualFold(strings.TrimSpace(a.stat), "all") {
		return model.Statistics, nil
	}
	var out []model.Statistic
	for _, name := range strings.Split(a.stat, ",") {
		s, err := model.ParseStatistic(name)
		if err != nil {
			return nil, fmt.Errorf("invalid --stat: %w", err)
		}
		out = append(out, s)
	}
	return out, nil
}

type passageReport struct {
	Config model.SimulationConfig   `json:"config" yaml:"config"`
	Seed   uint64                   `json:"seed" yaml:"seed"`
	Result model.FirstPassageResult `json:"result" yaml:"result"`
}

type arcsineReport struct {
	Config     model.ArcsineConfig `json:"config" yaml:"config"`
	Seed       uint64              `json:"seed" yaml:"seed"`
	Statistics []stats.Summary     `json:"statistics" yaml:"statistics"`
}

func newPassageCmd(opts *rootOptions) *cobra.Command {
	p := defaultPassageOptions()
	cmd := &cobra.Command{
		Use:   "passage",
		Short: "Estimate the probability of reaching a barrier before the horizon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPassageCmd(cmd, opts, p)
		},
	}
	p.register(cmd)
	cmd.Flags().StringVar(&p.preset, "preset", "", "start from a saved preset")
	return cmd
}

func runPassageCmd(cmd *cobra.Command, opts *rootOptions, p *passageOptions) error {
	fileCfg, err := loadFileConfig(cmd, opts)
	if err != nil {
		return err
	}
	p.apply(cmd, fileCfg)
	if p.preset != "" {
		st, err := openStore(opts)
		if err != nil {
			return err
		}
		preset, err := st.GetPreset(cmd.Context(), p.preset)
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
		if err != nil {
			return err
		}
		p.applyPreset(cmd, preset)
	}

	cfg := p.config()
	seed := resolveSeed(opts.seed)
	res, err := sim.RunFirstPassage(cmd.Context(), cfg, sim.Options{
		Seed:    seed,
		Workers: opts.workers,
		Logger:  newLogger(cmd, opts),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format != formatText {
		return writeStructured(out, opts.format, passageReport{Config: cfg, Seed: seed, Result: res})
	}
	if err := stats.RenderFirstPassage(out, cfg, res, plotOptions(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if _, err := fmt.Fprintf(out, "Seed %d\n", seed); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newArcsineCmd(opts *rootOptions) *cobra.Command {
	a := defaultArcsineOptions()
	cmd := &cobra.Command{
		Use:   "arcsine",
		Short: "Compare occupation time, last zero and time of the maximum with the arcsine law",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runArcsineCmd(cmd, opts, a)
		},
	}
	cmd.Flags().IntVar(&a.paths, "paths", a.paths, "number of simulated paths")
	cmd.Flags().Float64Var(&a.horizon, "horizon", a.horizon, "time horizon")
	cmd.Flags().Float64Var(&a.stepSize, "step-size", a.stepSize, "integration step")
	cmd.Flags().IntVar(&a.bins, "bins", a.bins, "histogram bins over [0, 1)")
	cmd.Flags().StringVar(&a.stat, "stat", a.stat, "statistics to show: occupation, last-zero, max-time or all (comma-separated)")
	cmd.Flags().BoolVar(&a.table, "table", false, "print per-bin densities")
	return cmd
}

func runArcsineCmd(cmd *cobra.Command, opts *rootOptions, a *arcsineOptions) error {
	fileCfg, err := loadFileConfig(cmd, opts)
	if err != nil {
		return err
	}
	a.apply(cmd, fileCfg)
	if a.bins <= 0 {
		return fmt.Errorf("--bins must be > 0")
	}
	selected, err := a.statistics()
	if err != nil {
		return err
	}

	cfg := a.config()
	seed := resolveSeed(opts.seed)
	res, err := sim.RunArcsine(cmd.Context(), cfg, sim.Options{
		Seed:    seed,
		Workers: opts.workers,
		Logger:  newLogger(cmd, opts),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.format != formatText {
		report := arcsineReport{Config: cfg, Seed: seed}
		for _, s := range selected {
			report.Statistics = append(report.Statistics, stats.Summarize(s, res.Values(s), a.bins))
		}
		return writeStructured(out, opts.format, report)
	}
	if _, err := fmt.Fprintf(out, "Arcsine Laws (seed %d)\n\n", seed); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return stats.RenderArcsine(out, res, stats.ArcsineReport{
		Stats: selected,
		Bins:  a.bins,
		Table: a.table,
		Plot:  plotOptions(out),
	})
}

type cdfReport struct {
	X           float64 `json:"x" yaml:"x"`
	Probability float64 `json:"probability" yaml:"probability"`
}

func newCDFCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "cdf X",
		Short:   "Evaluate the standard normal distribution function Φ(X)",
		Example: "  brownian cdf 1.96\n  brownian cdf -- -0.5",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}
			x, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid X %q: %w", args[0], err)
			}
			report := cdfReport{X: x, Probability: analytic.NormalCDF(x)}
			out := cmd.OutOrStdout()
			if opts.format != formatText {
				return writeStructured(out, opts.format, report)
			}
			if _, err := fmt.Fprintf(out, "Φ(%s) = %.6f\n", args[0], report.Probability); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		},
	}
}

func resolveSeed(seed uint64) uint64 {
	if seed == 0 {
		return generator.NewSeed()
	}
	return seed
}

// newLogger writes to stderr so structured output on stdout stays parseable.
func newLogger(cmd *cobra.Command, opts *rootOptions) *slog.Logger {
	return logging.NewLogger(opts.logLevel, cmd.ErrOrStderr())
}

// plotOptions enables colour only when out is a terminal. The width is left
// to the plotter, which sizes itself to the terminal.
func plotOptions(out io.Writer) stats.PlotOptions {
	f, ok := out.(*os.File)
	return stats.PlotOptions{Color: ok && term.IsTerminal(int(f.Fd()))}
}
