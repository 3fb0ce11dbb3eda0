// Package analytic provides closed-form reference values for Brownian motion:
// the reflection-principle hitting probability and Lévy's arcsine law.
package analytic

import "math"

// Hastings coefficients for the normal CDF. They are fixed so that theoretical
// values agree across implementations of the same approximation.
const (
	hastingsP  = 0.2316419
	hastingsD  = 0.3989423
	hastingsB1 = 0.3193815
	hastingsB2 = -0.3565638
	hastingsB3 = 1.781478
	hastingsB4 = -1.821256
	hastingsB5 = 1.330274
)

// NormalCDF returns the standard normal CDF using the Hastings rational
// approximation. Absolute error is about 7.5e-8.
func NormalCDF(x float64) float64 {
	t := 1 / (1 + hastingsP*math.Abs(x))
	d := hastingsD * math.Exp(-x*x/2)
	poly := hastingsB1 + t*(hastingsB2+t*(hastingsB3+t*(hastingsB4+t*hastingsB5)))
	prob := d * t * poly
	if x > 0 {
		return 1 - prob
	}
	return prob
}

// FirstPassageProbability returns the probability that a Wiener process with
// the given drift and volatility, started at 0, reaches barrier before horizon.
// The formula assumes barrier > 0, volatility > 0 and horizon > 0.
func FirstPassageProbability(drift, volatility, barrier, horizon float64) float64 {
	driftTerm := drift * horizon
	volTerm := volatility * math.Sqrt(horizon)
	d1 := (barrier - driftTerm) / volTerm
	d2 := (-barrier - driftTerm) / volTerm
	// The reflected term is combined in log space: for large positive drift the
	// exponential overflows while the normal tail underflows.
	var reflected float64
	if tail := NormalCDF(d2); tail > 0 {
		reflected = math.Exp(2*drift*barrier/(volatility*volatility) + math.Log(tail))
	}
	p := 1 - NormalCDF(d1) + reflected
	return math.Max(0, math.Min(1, p))
}

// ArcsineDensity returns 1/(π·sqrt(x(1-x))) inside (0,1) and 0 elsewhere.
// The true density is singular at the boundary; 0 is used there for
// histogram comparison.
func ArcsineDensity(x float64) float64 {
	if x <= 0 || x >= 1 {
		return 0
	}
	return 1 / (math.Pi * math.Sqrt(x*(1-x)))
}

// ArcsineCDF returns (2/π)·arcsin(sqrt(x)), clamped to [0,1].
func ArcsineCDF(x float64) float64 {
	switch {
	case x <= 0:
		return 0
	case x >= 1:
		return 1
	}
	return 2 / math.Pi * math.Asin(math.Sqrt(x))
}
