package ops

import (
	"errors"
	"fmt"
)

// Errors returned by the operation engine.
var (
	ErrZeroNormalization = errors.New("ops: normalization denominator is zero")
	ErrUnknownMethod     = errors.New("ops: unknown method")
)

// savitzkyGolayOrder is the polynomial order of the Savitzky-Golay fit.
const savitzkyGolayOrder = 3

// continuumWindowDefault is the boxcar width used by continuum
// normalization; it shrinks to the largest odd width that fits the series.
const continuumWindowDefault = 51

// NormalizeMethod selects the normalization denominator.
type NormalizeMethod int

const (
	// NormalizePeak divides by the maximum valid value.
	NormalizePeak NormalizeMethod = iota

	// NormalizeArea divides by the trapezoidal integral over the abscissa.
	NormalizeArea

	// NormalizeContinuum divides sample-by-sample by a heavy boxcar smooth
	// of the spectrum itself.
	NormalizeContinuum
)

var normalizeNames = map[NormalizeMethod]string{
	NormalizePeak:      "peak",
	NormalizeArea:      "area",
	NormalizeContinuum: "continuum",
}

func (m NormalizeMethod) String() string {
	if s, ok := normalizeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("NormalizeMethod(%d)", int(m))
}

// ParseNormalizeMethod maps a method label to a NormalizeMethod.
func ParseNormalizeMethod(s string) (NormalizeMethod, error) {
	for m, name := range normalizeNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: normalize %q", ErrUnknownMethod, s)
}

// SmoothMethod selects the smoothing kernel.
type SmoothMethod int

const (
	// SmoothSavitzkyGolay fits a cubic polynomial inside a sliding window.
	SmoothSavitzkyGolay SmoothMethod = iota

	// SmoothBoxcar applies a uniform moving average.
	SmoothBoxcar

	// SmoothGaussian convolves with a normalized Gaussian kernel; the
	// window parameter is the standard deviation in samples.
	SmoothGaussian
)

var smoothNames = map[SmoothMethod]string{
	SmoothSavitzkyGolay: "savitzky_golay",
	SmoothBoxcar:        "boxcar",
	SmoothGaussian:      "gaussian",
}

func (m SmoothMethod) String() string {
	if s, ok := smoothNames[m]; ok {
		return s
	}
	return fmt.Sprintf("SmoothMethod(%d)", int(m))
}

// ParseSmoothMethod maps a method label to a SmoothMethod.
func ParseSmoothMethod(s string) (SmoothMethod, error) {
	for m, name := range smoothNames {
		if s == name {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: smooth %q", ErrUnknownMethod, s)
}
