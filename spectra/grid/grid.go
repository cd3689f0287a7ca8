// Package grid aligns two sampled series onto a common abscissa so binary
// operations can combine them element-wise.
//
// Policy: the overlap of the two abscissa ranges is computed, the
// coarser-resolution operand's grid restricted to that overlap becomes the
// common grid, and the finer operand is resampled onto it by linear
// interpolation. A coarse source is never upsampled into fabricated fine
// resolution.
package grid

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ErrNoOverlap is returned when the abscissa ranges do not intersect, or
// when the intersection holds fewer than two samples of the coarser grid.
var ErrNoOverlap = errors.New("grid: abscissa ranges do not overlap")

// Align computes the common grid for the series (ax, ay) and (bx, by) and
// returns both value series resampled onto it. Both abscissas must be
// strictly increasing and expressed in the same unit; the inputs are never
// modified.
func Align(ax, ay, bx, by []float64) (grid, av, bv []float64, err error) {
	lo, hi, err := Overlap(ax, bx)
	if err != nil {
		return nil, nil, nil, err
	}

	// Identical grids need no resampling; copies keep results bit-exact.
	if floats.Equal(ax, bx) {
		return clone(ax), clone(ay), clone(by), nil
	}

	coarseX, coarseY, fineX, fineY := ax, ay, bx, by
	bIsCoarse := meanSpacing(bx) > meanSpacing(ax)
	if bIsCoarse {
		coarseX, coarseY, fineX, fineY = bx, by, ax, ay
	}

	grid, coarseVals, err := clip(coarseX, coarseY, lo, hi)
	if err != nil {
		return nil, nil, nil, err
	}
	fineVals := Resample(fineX, fineY, grid)

	if bIsCoarse {
		return grid, fineVals, coarseVals, nil
	}
	return grid, coarseVals, fineVals, nil
}

// Overlap returns the intersection of the two abscissa ranges.
func Overlap(ax, bx []float64) (lo, hi float64, err error) {
	lo = ax[0]
	if bx[0] > lo {
		lo = bx[0]
	}
	hi = ax[len(ax)-1]
	if last := bx[len(bx)-1]; last < hi {
		hi = last
	}
	if lo > hi {
		return 0, 0, fmt.Errorf("%w: [%v, %v] vs [%v, %v]",
			ErrNoOverlap, ax[0], ax[len(ax)-1], bx[0], bx[len(bx)-1])
	}
	return lo, hi, nil
}

// Resample linearly interpolates (xs, ys) at every target point. Targets
// must lie inside [xs[0], xs[len-1]]; Align guarantees this by clipping the
// grid to the overlap first. An interval with an invalid (NaN) endpoint
// yields an invalid sample.
func Resample(xs, ys, targets []float64) []float64 {
	out := make([]float64, len(targets))
	for i, x := range targets {
		j := sort.SearchFloat64s(xs, x)
		if j < len(xs) && xs[j] == x {
			out[i] = ys[j]
			continue
		}
		// SearchFloat64s returned the first index >= x, so the enclosing
		// interval is [j-1, j].
		if j == 0 {
			out[i] = ys[0]
			continue
		}
		if j == len(xs) {
			out[i] = ys[len(ys)-1]
			continue
		}
		t := (x - xs[j-1]) / (xs[j] - xs[j-1])
		out[i] = ys[j-1] + t*(ys[j]-ys[j-1])
	}
	return out
}

// clip restricts a grid and its values to the inclusive range [lo, hi].
func clip(xs, ys []float64, lo, hi float64) (gx, gy []float64, err error) {
	start := sort.SearchFloat64s(xs, lo)
	end := sort.Search(len(xs), func(i int) bool { return xs[i] > hi })
	if end-start < 2 {
		return nil, nil, fmt.Errorf("%w: fewer than two common samples in [%v, %v]", ErrNoOverlap, lo, hi)
	}
	return clone(xs[start:end]), clone(ys[start:end]), nil
}

// meanSpacing measures grid resolution as the average abscissa step.
func meanSpacing(xs []float64) float64 {
	return (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1)
}

func clone(xs []float64) []float64 {
	return append([]float64(nil), xs...)
}
