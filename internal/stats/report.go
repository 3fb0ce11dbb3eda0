package stats

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/model"
)

// CDFCheckpoints are the points at which empirical and arcsine CDFs are compared.
var CDFCheckpoints = []float64{0.1, 0.25, 0.5, 0.75, 0.9}

// ArcsineReport selects what RenderArcsine prints.
type ArcsineReport struct {
	Stats []model.Statistic
	Bins  int
	// Table adds the per-bin densities below each plot.
	Table bool
	Plot  PlotOptions
}

// RenderFirstPassage prints the hit summary and a plot of the retained paths
// against the barrier.
func RenderFirstPassage(w io.Writer, cfg model.SimulationConfig, res model.FirstPassageResult, opts PlotOptions) error {
	if _, err := fmt.Fprintln(w, "First Passage"); err != nil {
		return err
	}
	rows := [][]string{
		{"Drift", formatFloat(cfg.Drift)},
		{"Volatility", formatFloat(cfg.Volatility)},
		{"Barrier", formatFloat(cfg.Barrier)},
		{"Horizon", formatFloat(res.Horizon)},
		{"Steps per path", humanize.Comma(int64(res.StepCount))},
		{"Paths", humanize.Comma(int64(res.PathCount))},
		{"Hits", humanize.Comma(int64(res.HitCount))},
		{"Empirical", formatPercent(res.EmpiricalProbability)},
		{"Theoretical", formatPercent(res.TheoreticalProbability)},
		{"Error", fmt.Sprintf("%.4f", math.Abs(res.EmpiricalProbability-res.TheoreticalProbability))},
	}
	if err := writeLines(w, formatTable(nil, rows, map[int]bool{1: true})); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	opts.SharedScale = true
	return PlotSeries(w, "Sample Paths", SamplePathSeries(res, cfg.Barrier), opts)
}

// SamplePathSeries converts the retained paths into plot series, hits in red
// and misses in blue, with a dashed barrier line spanning the full horizon.
func SamplePathSeries(res model.FirstPassageResult, barrier float64) []Series {
	series := make([]Series, 0, len(res.SamplePaths)+1)
	barrierLine := make([]float64, res.StepCount+1)
	for i := range barrierLine {
		barrierLine[i] = barrier
	}
	series = append(series, Series{Name: "barrier", Values: barrierLine, Color: ColorYellow, Style: StyleDashed})
	for _, sp := range res.SamplePaths {
		values := make([]float64, len(sp.Path))
		for i, p := range sp.Path {
			values[i] = p.Value
		}
		s := Series{Name: "miss", Values: values, Color: ColorBlue, Style: StyleSolid}
		if sp.Hit {
			s.Name = "hit"
			s.Color = ColorRed
		}
		series = append(series, s)
	}
	return series
}

// DensitySeries returns the empirical and arcsine densities of bins as plot series.
func DensitySeries(bins []model.HistogramBin) []Series {
	empirical, theoretical := Densities(bins)
	return []Series{
		{Name: "empirical", Values: empirical, Color: ColorMagenta, Style: StyleSolid},
		{Name: "arcsine", Values: theoretical, Color: ColorRed, Style: StyleDashed},
	}
}

// RenderArcsine prints, for each requested statistic, a CDF comparison at
// CDFCheckpoints and the density plot of its histogram.
func RenderArcsine(w io.Writer, res model.ArcsineResult, rep ArcsineReport) error {
	stats := rep.Stats
	if len(stats) == 0 {
		stats = model.Statistics
	}
	for _, stat := range stats {
		values := res.Values(stat)
		bins := BuildHistogram(values, rep.Bins)
		if _, err := fmt.Fprintf(w, "%s (%s paths)\n", stat.Title(), humanize.Comma(int64(len(values)))); err != nil {
			return err
		}
		if len(values) == 0 {
			if _, err := fmt.Fprintln(w, "No paths simulated."); err != nil {
				return err
			}
			if _, err := fmt.Fprintln(w, ""); err != nil {
				return err
			}
			continue
		}
		empirical, _ := Densities(bins)
		if _, err := fmt.Fprintf(w, "Mean %.4f  Shape %s\n", mean(values), Sparkline(empirical)); err != nil {
			return err
		}
		if err := renderCDFTable(w, values); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, ""); err != nil {
			return err
		}
		plot := rep.Plot
		plot.SharedScale = true
		if err := PlotSeries(w, "Density", DensitySeries(bins), plot); err != nil {
			return err
		}
		if rep.Table {
			if err := RenderBins(w, bins); err != nil {
				return err
			}
		}
	}
	return nil
}

func renderCDFTable(w io.Writer, values []float64) error {
	headers := []string{"x", "Empirical F(x)", "Arcsine F(x)", "Diff"}
	rows := make([][]string, 0, len(CDFCheckpoints))
	for _, x := range CDFCheckpoints {
		emp := EmpiricalCDF(values, x)
		theo := analytic.ArcsineCDF(x)
		rows = append(rows, []string{
			formatFloat(x),
			fmt.Sprintf("%.4f", emp),
			fmt.Sprintf("%.4f", theo),
			fmt.Sprintf("%+.4f", emp-theo),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true}))
}

// RenderBins prints one row per histogram bin.
func RenderBins(w io.Writer, bins []model.HistogramBin) error {
	headers := []string{"Bin", "Midpoint", "Empirical", "Arcsine"}
	rows := make([][]string, 0, len(bins))
	for i, b := range bins {
		rows = append(rows, []string{
			strconv.Itoa(i),
			fmt.Sprintf("%.4f", b.Midpoint),
			fmt.Sprintf("%.4f", b.EmpiricalDensity),
			fmt.Sprintf("%.4f", b.TheoreticalDensity),
		})
	}
	if err := writeLines(w, formatTable(headers, rows, map[int]bool{0: true, 1: true, 2: true, 3: true})); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTheory prints the reference formulas, evaluated for cfg where they
// depend on it, and a plot of the arcsine density.
func RenderTheory(w io.Writer, cfg model.SimulationConfig, opts PlotOptions) error {
	p := analytic.FirstPassageProbability(cfg.Drift, cfg.Volatility, cfg.Barrier, cfg.Horizon)
	lines := []string{
		"Drift-diffusion process",
		"  dX = μ dt + σ dW,  X(0) = 0",
		"  Euler–Maruyama step: x' = x + μΔt + σ√Δt·Z,  Z ~ N(0, 1)",
		"",
		"First passage (reflection principle)",
		"  P(X reaches b before T) = 1 − Φ(d1) + exp(2μb/σ²)·Φ(d2)",
		"  d1 = (b − μT)/(σ√T),  d2 = (−b − μT)/(σ√T)",
		fmt.Sprintf("  μ=%s σ=%s b=%s T=%s  →  %s",
			formatFloat(cfg.Drift), formatFloat(cfg.Volatility),
			formatFloat(cfg.Barrier), formatFloat(cfg.Horizon), formatPercent(p)),
		"",
		"Arcsine laws (μ = 0, σ = 1)",
		"  Time above zero, last zero and time of the maximum, as fractions",
		"  of the horizon, share the density f(x) = 1/(π√(x(1−x)))",
		"  and the distribution F(x) = (2/π)·arcsin(√x).",
		"",
	}
	if err := writeLines(w, lines); err != nil {
		return err
	}
	rows := make([][]string, 0, len(CDFCheckpoints))
	for _, x := range CDFCheckpoints {
		rows = append(rows, []string{
			formatFloat(x),
			fmt.Sprintf("%.4f", analytic.ArcsineDensity(x)),
			fmt.Sprintf("%.4f", analytic.ArcsineCDF(x)),
		})
	}
	if err := writeLines(w, formatTable([]string{"x", "f(x)", "F(x)"}, rows, map[int]bool{1: true, 2: true})); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	bins := BuildHistogram(nil, DefaultBinCount)
	_, theoretical := Densities(bins)
	opts.SharedScale = true
	return PlotSeries(w, "Arcsine density", []Series{
		{Name: "f(x)", Values: theoretical, Color: ColorRed, Style: StyleSolid},
	}, opts)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.2f%%", p*100)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// RenderPresets prints saved presets one per row.
func RenderPresets(w io.Writer, presets []model.Preset) error {
	if len(presets) == 0 {
		_, err := fmt.Fprintln(w, "No presets saved.")
		return err
	}
	headers := []string{"Name", "Drift", "Volatility", "Barrier", "Horizon", "Step", "Paths", "Saved"}
	rows := make([][]string, 0, len(presets))
	for _, p := range presets {
		c := p.Config
		rows = append(rows, []string{
			p.Name,
			formatFloat(c.Drift),
			formatFloat(c.Volatility),
			formatFloat(c.Barrier),
			formatFloat(c.Horizon),
			formatFloat(c.StepSize),
			humanize.Comma(int64(c.PathCount)),
			humanize.Time(p.CreatedAt),
		})
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}))
}
