package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidWindow is returned for windows that are even where odd is
// required, too small, or otherwise unusable.
var ErrInvalidWindow = errors.New("kernel: invalid window")

// Boxcar returns a uniform moving-average kernel. The width must be odd
// and positive.
func Boxcar(width int) ([]float64, error) {
	if width < 1 || width%2 == 0 {
		return nil, fmt.Errorf("%w: boxcar width must be odd and positive, got %d", ErrInvalidWindow, width)
	}
	k := make([]float64, width)
	w := 1 / float64(width)
	for i := range k {
		k[i] = w
	}
	return k, nil
}

// Gaussian returns a normalized Gaussian kernel with the given standard
// deviation in samples, truncated at four sigma and forced to odd length.
func Gaussian(sigma float64) ([]float64, error) {
	if !(sigma > 0) || math.IsInf(sigma, 0) {
		return nil, fmt.Errorf("%w: gaussian sigma must be positive and finite, got %v", ErrInvalidWindow, sigma)
	}
	radius := int(math.Ceil(4 * sigma))
	if radius < 1 {
		radius = 1
	}
	k := make([]float64, 2*radius+1)
	for i := range k {
		d := float64(i-radius) / sigma
		k[i] = math.Exp(-0.5 * d * d)
	}
	floats.Scale(1/floats.Sum(k), k)
	return k, nil
}

// SavitzkyGolay returns the convolution coefficients of a Savitzky-Golay
// smoothing filter: a least-squares polynomial fit of the given order
// inside a sliding window. The window must be odd and at least order + 2.
func SavitzkyGolay(window, order int) ([]float64, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: polynomial order must be >= 1, got %d", ErrInvalidWindow, order)
	}
	if window%2 == 0 || window < order+2 {
		return nil, fmt.Errorf("%w: savitzky-golay window must be odd and >= order+2, got window=%d order=%d", ErrInvalidWindow, window, order)
	}

	// Vandermonde design matrix over the centered offsets -h..h.
	h := window / 2
	v := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - h)
		p := 1.0
		for j := 0; j <= order; j++ {
			v.Set(i, j, p)
			p *= x
		}
	}

	// The smoothed center sample is e0' (V'V)^-1 V' y, so the convolution
	// coefficients are c = V (V'V)^-1 e0.
	var vtv mat.Dense
	vtv.Mul(v.T(), v)
	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)
	var z mat.VecDense
	if err := z.SolveVec(&vtv, e0); err != nil {
		return nil, fmt.Errorf("%w: singular design matrix (window=%d order=%d): %v", ErrInvalidWindow, window, order, err)
	}
	var c mat.VecDense
	c.MulVec(v, &z)

	k := make([]float64, window)
	for i := range k {
		k[i] = c.AtVec(i)
	}
	return k, nil
}
