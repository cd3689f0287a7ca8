// Package unit converts spectral abscissa values between the supported
// physical units: nanometers, angstroms, hertz, and electronvolts.
//
// Every conversion routes through nanometers as the canonical intermediate,
// so only the four mappings nm <-> {angstrom, Hz, eV} exist. A full cycle
// A -> B -> A reproduces the input within floating-point tolerance.
package unit

import (
	"errors"
	"fmt"
	"strings"
)

// Physical constants (CODATA 2018 exact values).
const (
	SpeedOfLight   = 2.99792458e8    // m/s
	PlanckConstant = 6.62607015e-34  // J*s
	ElectronVolt   = 1.602176634e-19 // J
)

// ErrUnsupported is returned for units outside the closed set.
var ErrUnsupported = errors.New("unit: unsupported unit")

// Unit identifies the physical quantity of a spectral abscissa.
type Unit int

const (
	Nanometer Unit = iota
	Angstrom
	Hertz
	Electronvolt
)

var names = map[Unit]string{
	Nanometer:    "nm",
	Angstrom:     "angstrom",
	Hertz:        "Hz",
	Electronvolt: "eV",
}

// Valid reports whether u is a member of the closed unit set.
func (u Unit) Valid() bool {
	_, ok := names[u]
	return ok
}

// String returns the canonical short name of the unit.
func (u Unit) String() string {
	if s, ok := names[u]; ok {
		return s
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Parse maps a unit label to a Unit. Labels are matched case-insensitively
// and common synonyms are accepted.
func Parse(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nm", "nanometer", "nanometers", "nanometre", "nanometres":
		return Nanometer, nil
	case "angstrom", "angstroms", "a", "aa", "å":
		return Angstrom, nil
	case "hz", "hertz", "frequency":
		return Hertz, nil
	case "ev", "electronvolt", "electronvolts", "energy":
		return Electronvolt, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, s)
}

// DecreasesWith reports whether converting from one unit to the other
// reverses the natural ordering of a strictly increasing sequence.
// Frequency and energy are inversely related to wavelength.
func DecreasesWith(from, to Unit) bool {
	return isInverse(from) != isInverse(to)
}

func isInverse(u Unit) bool {
	return u == Hertz || u == Electronvolt
}

// Convert maps a single abscissa value from one unit to another.
func Convert(x float64, from, to Unit) (float64, error) {
	if !from.Valid() || !to.Valid() {
		return 0, fmt.Errorf("%w: %s -> %s", ErrUnsupported, from, to)
	}
	if from == to {
		return x, nil
	}
	return fromNanometers(toNanometers(x, from), to), nil
}

// ConvertSlice converts every element of xs and returns a new slice.
// The output preserves element order; callers re-sort when the conversion
// reverses ordering (see DecreasesWith).
func ConvertSlice(xs []float64, from, to Unit) ([]float64, error) {
	if !from.Valid() || !to.Valid() {
		return nil, fmt.Errorf("%w: %s -> %s", ErrUnsupported, from, to)
	}
	out := make([]float64, len(xs))
	if from == to {
		copy(out, xs)
		return out, nil
	}
	for i, x := range xs {
		out[i] = fromNanometers(toNanometers(x, from), to)
	}
	return out, nil
}

// toNanometers maps a value in the given unit to wavelength in nm.
func toNanometers(x float64, from Unit) float64 {
	switch from {
	case Nanometer:
		return x
	case Angstrom:
		return x / 10
	case Hertz:
		// lambda = c / f, then m -> nm
		return SpeedOfLight / x * 1e9
	case Electronvolt:
		// lambda = h*c / E, E in joules
		return PlanckConstant * SpeedOfLight / (x * ElectronVolt) * 1e9
	}
	return x
}

// fromNanometers maps a wavelength in nm to a value in the target unit.
func fromNanometers(nm float64, to Unit) float64 {
	switch to {
	case Nanometer:
		return nm
	case Angstrom:
		return nm * 10
	case Hertz:
		return SpeedOfLight / (nm * 1e-9)
	case Electronvolt:
		return PlanckConstant * SpeedOfLight / (nm * 1e-9) / ElectronVolt
	}
	return nm
}
