package ops

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-spectra/spectra/provenance"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

// Replay errors.
var (
	ErrEmptyLedger      = errors.New("ops: nothing to replay")
	ErrMissingInput     = errors.New("ops: replay input not found")
	ErrUnknownOperation = errors.New("ops: unknown operation in ledger")
	ErrMissingParameter = errors.New("ops: ledger record lacks a parameter")
)

// Replay re-executes a recorded ledger against fresh copies of the
// original inputs, keyed by the fingerprints stored in the records.
// Because every operation is deterministic, the result's values are
// bit-identical to the spectrum the ledger was recorded from.
//
// The chain output of each step becomes the input of the next; operand
// fingerprints that are not the chain output must be present in inputs.
func Replay(steps provenance.Ledger, inputs map[string]*spectrum.Spectrum) (*spectrum.Spectrum, error) {
	if len(steps) == 0 {
		return nil, ErrEmptyLedger
	}

	var cur *spectrum.Spectrum
	for i, rec := range steps {
		primary, operand, err := resolveInputs(rec, cur, inputs)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Operation, err)
		}
		cur, err = applyRecord(rec, primary, operand)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Operation, err)
		}
	}
	return cur, nil
}

// resolveInputs maps the recorded fingerprints to spectra. The running
// chain output substitutes for any fingerprint absent from the registry;
// registered fingerprints always win.
func resolveInputs(rec provenance.Record, cur *spectrum.Spectrum, inputs map[string]*spectrum.Spectrum) (primary, operand *spectrum.Spectrum, err error) {
	lookup := func(idx int) *spectrum.Spectrum {
		if idx >= len(rec.Inputs) {
			return nil
		}
		if s, ok := inputs[rec.Inputs[idx]]; ok {
			return s
		}
		return cur
	}

	switch len(rec.Inputs) {
	case 1:
		primary = lookup(0)
	case 2:
		primary = lookup(0)
		operand = lookup(1)
		if operand == nil {
			return nil, nil, fmt.Errorf("%w: operand %q", ErrMissingInput, rec.Inputs[1])
		}
	default:
		return nil, nil, fmt.Errorf("%w: record names %d inputs", ErrMissingInput, len(rec.Inputs))
	}
	if primary == nil {
		return nil, nil, fmt.Errorf("%w: %q", ErrMissingInput, rec.Inputs[0])
	}
	return primary, operand, nil
}

// applyRecord dispatches one ledger record to the engine.
func applyRecord(rec provenance.Record, primary, operand *spectrum.Spectrum) (*spectrum.Spectrum, error) {
	base, variant, _ := strings.Cut(rec.Operation, ":")

	switch base {
	case "subtract":
		if operand == nil {
			return nil, fmt.Errorf("%w: subtract needs two inputs", ErrMissingInput)
		}
		return Subtract(primary, operand)

	case "divide":
		if operand == nil {
			return nil, fmt.Errorf("%w: divide needs two inputs", ErrMissingInput)
		}
		return Divide(primary, operand)

	case "normalize":
		method, err := ParseNormalizeMethod(variant)
		if err != nil {
			return nil, err
		}
		return Normalize(primary, method)

	case "smooth":
		method, err := ParseSmoothMethod(variant)
		if err != nil {
			return nil, err
		}
		key := "window"
		if method == SmoothGaussian {
			key = "sigma"
		}
		window, err := paramFloat(rec, key)
		if err != nil {
			return nil, err
		}
		return Smooth(primary, method, window)

	case "convert_units":
		label, ok := rec.Parameters["to"]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingParameter, "to")
		}
		to, err := unit.Parse(label)
		if err != nil {
			return nil, err
		}
		return ConvertUnits(primary, to)

	case "slice":
		lo, err := paramFloat(rec, "lo")
		if err != nil {
			return nil, err
		}
		hi, err := paramFloat(rec, "hi")
		if err != nil {
			return nil, err
		}
		return primary.Slice(lo, hi)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, rec.Operation)
}

func paramFloat(rec provenance.Record, key string) (float64, error) {
	raw, ok := rec.Parameters[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrMissingParameter, key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("ops: bad %q parameter %q: %w", key, raw, err)
	}
	return v, nil
}
