package kernel

import (
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	vecmath "github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/floats"
)

// Kernels shorter than this use direct convolution; longer ones go through
// the FFT path.
const directThreshold = 64

// ApplySame convolves values with a symmetric, odd-length kernel using
// reflect-boundary padding. The output has the same length as the input.
func ApplySame(values, k []float64) ([]float64, error) {
	if len(k) == 0 || len(k)%2 == 0 {
		return nil, fmt.Errorf("%w: kernel length must be odd, got %d", ErrInvalidWindow, len(k))
	}
	n := len(values)
	r := len(k) / 2
	padded := reflectPad(values, r)

	if len(k) <= directThreshold {
		return directSame(padded, k, n), nil
	}
	return fftSame(padded, k, n, r)
}

// directSame computes one output sample per input position as the dot
// product of the kernel with the padded window around it.
func directSame(padded, k []float64, n int) []float64 {
	out := make([]float64, n)
	tmp := make([]float64, len(k))
	for i := 0; i < n; i++ {
		vecmath.MulBlock(tmp, padded[i:i+len(k)], k)
		out[i] = floats.Sum(tmp)
	}
	return out
}

// fftSame convolves via a single zero-padded FFT and extracts the centered
// portion corresponding to the unpadded input.
func fftSame(padded, k []float64, n, r int) ([]float64, error) {
	full := len(padded) + len(k) - 1
	size := nextPowerOf2(full)

	plan, err := algofft.NewPlan64(size)
	if err != nil {
		return nil, fmt.Errorf("kernel: failed to create FFT plan: %w", err)
	}

	a := make([]complex128, size)
	for i, v := range padded {
		a[i] = complex(v, 0)
	}
	b := make([]complex128, size)
	for i, v := range k {
		b[i] = complex(v, 0)
	}

	if err := plan.Forward(a, a); err != nil {
		return nil, fmt.Errorf("kernel: forward FFT failed: %w", err)
	}
	if err := plan.Forward(b, b); err != nil {
		return nil, fmt.Errorf("kernel: forward FFT failed: %w", err)
	}
	for i := range a {
		a[i] *= b[i]
	}
	if err := plan.Inverse(a, a); err != nil {
		return nil, fmt.Errorf("kernel: inverse FFT failed: %w", err)
	}

	// The centered samples of the full convolution start at offset 2r:
	// r from the kernel half-width plus r from the left padding.
	out := make([]float64, n)
	for i := range out {
		out[i] = real(a[2*r+i])
	}
	return out, nil
}

// reflectPad extends values by r samples on each side, mirroring the
// series including the edge sample: (c b a | a b c ... | z y x).
func reflectPad(values []float64, r int) []float64 {
	n := len(values)
	out := make([]float64, n+2*r)
	copy(out[r:], values)
	for i := 0; i < r; i++ {
		out[r-1-i] = values[reflectIndex(-1-i, n)]
		out[r+n+i] = values[reflectIndex(n+i, n)]
	}
	return out
}

// reflectIndex maps an arbitrary index into [0, n) by mirroring at both
// ends with the edge samples repeated.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// FillHoles replaces invalid (NaN) samples with values linearly
// interpolated from the neighboring valid samples, so a kernel can run
// over the series without NaN poisoning entire windows. Leading and
// trailing holes take the nearest valid value. The returned mask flags
// the samples that were valid in the input. A fully invalid series is
// returned unchanged.
func FillHoles(values []float64) (filled []float64, valid []bool) {
	n := len(values)
	filled = append([]float64(nil), values...)
	valid = make([]bool, n)

	prev := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		valid[i] = true
		if prev >= 0 && i-prev > 1 {
			// Bridge the hole between the two valid neighbors.
			span := float64(i - prev)
			for j := prev + 1; j < i; j++ {
				t := float64(j-prev) / span
				filled[j] = values[prev] + t*(values[i]-values[prev])
			}
		}
		if prev < 0 {
			for j := 0; j < i; j++ {
				filled[j] = v
			}
		}
		prev = i
	}
	if prev < 0 {
		return filled, valid // nothing valid to fill from
	}
	for j := prev + 1; j < n; j++ {
		filled[j] = values[prev]
	}
	return filled, valid
}

// MarkInvalid re-flags output samples whose entire kernel window covered
// only invalid input samples. Windows are clamped to the series bounds.
func MarkInvalid(out []float64, valid []bool, radius int) {
	n := len(out)
	// Prefix sums of the valid mask for O(1) window queries.
	sums := make([]int, n+1)
	for i, ok := range valid {
		sums[i+1] = sums[i]
		if ok {
			sums[i+1]++
		}
	}
	for i := range out {
		lo := i - radius
		if lo < 0 {
			lo = 0
		}
		hi := i + radius + 1
		if hi > n {
			hi = n
		}
		if sums[hi]-sums[lo] == 0 {
			out[i] = math.NaN()
		}
	}
}

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
