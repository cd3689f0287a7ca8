package spectrum

import "errors"

// Construction and slicing errors.
var (
	ErrLengthMismatch = errors.New("spectrum: abscissa and values must have the same length")
	ErrTooFewSamples  = errors.New("spectrum: at least two samples required")
	ErrNotIncreasing  = errors.New("spectrum: abscissa must be strictly increasing")
	ErrEmptyRange     = errors.New("spectrum: no samples in range")
)
