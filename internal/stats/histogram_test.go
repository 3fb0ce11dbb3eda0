package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/brownian/internal/analytic"
)

func TestBuildHistogramDefaultBins(t *testing.T) {
	for _, n := range []int{0, -3} {
		bins := BuildHistogram([]float64{0.5}, n)
		if len(bins) != DefaultBinCount {
			t.Fatalf("binCount %d: expected %d bins, got %d", n, DefaultBinCount, len(bins))
		}
	}
	bins := BuildHistogram(nil, 40)
	if math.Abs(bins[0].Midpoint-0.0125) > 1e-12 {
		t.Fatalf("unexpected first midpoint %v", bins[0].Midpoint)
	}
	if math.Abs(bins[39].Midpoint-0.9875) > 1e-12 {
		t.Fatalf("unexpected last midpoint %v", bins[39].Midpoint)
	}
}

func TestBuildHistogramMidpointsAndTheory(t *testing.T) {
	const n = 8
	bins := BuildHistogram([]float64{0.1, 0.2}, n)
	for i, b := range bins {
		want := (float64(i) + 0.5) / n
		if math.Abs(b.Midpoint-want) > 1e-12 {
			t.Fatalf("bin %d midpoint %v, want %v", i, b.Midpoint, want)
		}
		if b.TheoreticalDensity != analytic.ArcsineDensity(want) {
			t.Fatalf("bin %d theoretical density %v", i, b.TheoreticalDensity)
		}
	}
}

func TestBuildHistogramDropsOutOfRange(t *testing.T) {
	// 1.0 maps to index binCount and is dropped, as are negatives and values above 1.
	values := []float64{0.05, 1.0, -0.1, 1.5}
	bins := BuildHistogram(values, 10)
	if got, want := bins[0].EmpiricalDensity, 1/(4*0.1); math.Abs(got-want) > 1e-12 {
		t.Fatalf("bin 0 density %v, want %v", got, want)
	}
	for i := 1; i < len(bins); i++ {
		if bins[i].EmpiricalDensity != 0 {
			t.Fatalf("bin %d should be empty, got %v", i, bins[i].EmpiricalDensity)
		}
	}
}

func TestBuildHistogramIntegratesToKeptFraction(t *testing.T) {
	values := make([]float64, 0, 1000)
	for i := 0; i < 1000; i++ {
		values = append(values, float64(i)/1000)
	}
	for _, n := range []int{7, 40, 128} {
		bins := BuildHistogram(values, n)
		var integral float64
		for _, b := range bins {
			integral += b.EmpiricalDensity / float64(n)
		}
		if math.Abs(integral-1) > 1e-9 {
			t.Fatalf("bins %d: integral %v, want 1", n, integral)
		}
	}

	withDropped := append([]float64{1, 1}, values[:98]...)
	bins := BuildHistogram(withDropped, 10)
	var integral float64
	for _, b := range bins {
		integral += b.EmpiricalDensity * 0.1
	}
	if math.Abs(integral-0.98) > 1e-9 {
		t.Fatalf("integral with dropped values %v, want 0.98", integral)
	}
}

func TestBuildHistogramEmpty(t *testing.T) {
	bins := BuildHistogram(nil, 5)
	if len(bins) != 5 {
		t.Fatalf("expected 5 bins, got %d", len(bins))
	}
	for i, b := range bins {
		if b.EmpiricalDensity != 0 {
			t.Fatalf("bin %d empirical density %v, want 0", i, b.EmpiricalDensity)
		}
		if b.TheoreticalDensity <= 0 {
			t.Fatalf("bin %d theoretical density should be filled", i)
		}
	}
}

func TestEmpiricalCDF(t *testing.T) {
	values := []float64{0.1, 0.2, 0.2, 0.9}
	tests := []struct {
		x, want float64
	}{
		{0, 0},
		{0.1, 0.25},
		{0.2, 0.75},
		{0.5, 0.75},
		{1, 1},
	}
	for _, tt := range tests {
		if got := EmpiricalCDF(values, tt.x); got != tt.want {
			t.Fatalf("EmpiricalCDF(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}
	if got := EmpiricalCDF(nil, 0.5); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
}
