package testutil

import "math"

// Grid returns n abscissa samples starting at start with the given step.
func Grid(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// GaussianLine evaluates a Gaussian emission line over xs.
func GaussianLine(xs []float64, center, sigma, amplitude, baseline float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		d := (x - center) / sigma
		out[i] = baseline + amplitude*math.Exp(-0.5*d*d)
	}
	return out
}

// Flat returns a constant-valued series.
func Flat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}
