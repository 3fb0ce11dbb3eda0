package sim

import (
	"math"

	"github.com/verte-zerg/brownian/internal/generator"
)

// EulerStep applies one Euler–Maruyama update with the standard-normal draw z.
func EulerStep(x, drift, volatility, stepSize, z float64) float64 {
	return x + drift*stepSize + volatility*math.Sqrt(stepSize)*z
}

// Integrator advances a constant-coefficient drift-diffusion process.
// StepSize must be positive; it is not checked here.
type Integrator struct {
	drift   float64
	vol     float64
	dt      float64
	sqrtDt  float64
	sampler *generator.Gaussian
}

// NewIntegrator builds an integrator drawing from sampler.
func NewIntegrator(drift, volatility, stepSize float64, sampler *generator.Gaussian) *Integrator {
	return &Integrator{
		drift:   drift,
		vol:     volatility,
		dt:      stepSize,
		sqrtDt:  math.Sqrt(stepSize),
		sampler: sampler,
	}
}

// Step returns the value after one time step from x.
func (in *Integrator) Step(x float64) float64 {
	return x + in.drift*in.dt + in.vol*in.sqrtDt*in.sampler.Sample()
}
