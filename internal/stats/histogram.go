// Package stats turns simulation output into histograms, text reports and
// braille plots.
package stats

import (
	"math"

	"github.com/verte-zerg/brownian/internal/analytic"
	"github.com/verte-zerg/brownian/internal/model"
)

// DefaultBinCount is the number of bins used when none is requested.
const DefaultBinCount = 40

// BuildHistogram bins values on [0, 1) into binCount equal-width bins and
// pairs each empirical density with the arcsine density at the bin midpoint.
//
// A value v lands in bin floor(v*binCount) and is dropped when that index is
// outside [0, binCount); in particular v == 1 is dropped. Densities are
// normalized by the total number of values, dropped ones included. Empty input
// yields zero empirical densities.
func BuildHistogram(values []float64, binCount int) []model.HistogramBin {
	if binCount <= 0 {
		binCount = DefaultBinCount
	}
	width := 1 / float64(binCount)
	counts := make([]int, binCount)
	for _, v := range values {
		idx := math.Floor(v * float64(binCount))
		if idx >= 0 && idx < float64(binCount) {
			counts[int(idx)]++
		}
	}

	bins := make([]model.HistogramBin, binCount)
	for i := range bins {
		mid := (float64(i) + 0.5) / float64(binCount)
		bins[i] = model.HistogramBin{
			Midpoint:           mid,
			TheoreticalDensity: analytic.ArcsineDensity(mid),
		}
		if len(values) > 0 {
			bins[i].EmpiricalDensity = float64(counts[i]) / (float64(len(values)) * width)
		}
	}
	return bins
}

// EmpiricalCDF returns the fraction of values that are <= x, or 0 for empty input.
func EmpiricalCDF(values []float64, x float64) float64 {
	if len(values) == 0 {
		return 0
	}
	n := 0
	for _, v := range values {
		if v <= x {
			n++
		}
	}
	return float64(n) / float64(len(values))
}

// Densities splits bins into empirical and theoretical density series.
func Densities(bins []model.HistogramBin) (empirical, theoretical []float64) {
	empirical = make([]float64, len(bins))
	theoretical = make([]float64, len(bins))
	for i, b := range bins {
		empirical[i] = b.EmpiricalDensity
		theoretical[i] = b.TheoreticalDensity
	}
	return empirical, theoretical
}
