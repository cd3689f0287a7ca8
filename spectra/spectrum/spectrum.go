package spectrum

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-spectra/spectra/provenance"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

// Meta carries descriptive information about a spectrum. Algorithms never
// consult it; it exists for display and export. Extra holds anything that
// does not fit the fixed fields.
type Meta struct {
	Name       string
	Object     string
	Instrument string
	Source     string
	Extra      map[string]string
}

func (m Meta) clone() Meta {
	c := m
	if m.Extra != nil {
		c.Extra = make(map[string]string, len(m.Extra))
		for k, v := range m.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

// Spectrum is an immutable sampled 1D series with unit, metadata and
// provenance. Construct with New, Restore, or Derive.
type Spectrum struct {
	id        string
	abscissa  []float64
	values    []float64
	unit      unit.Unit
	valueUnit string
	meta      Meta
	ledger    provenance.Ledger
}

// New validates and builds a spectrum with an empty provenance ledger.
// All inputs are copied; the spectrum never shares backing storage with
// the caller.
func New(abscissa, values []float64, u unit.Unit, valueUnit string, meta Meta) (*Spectrum, error) {
	return Restore("", abscissa, values, u, valueUnit, meta, nil)
}

// Restore builds a spectrum with an existing fingerprint and ledger, as
// read back from a store or decoder. An empty id assigns a fresh one.
// Validation is identical to New.
func Restore(id string, abscissa, values []float64, u unit.Unit, valueUnit string, meta Meta, ledger provenance.Ledger) (*Spectrum, error) {
	if err := validate(abscissa, values, u); err != nil {
		return nil, err
	}
	if id == "" {
		id = uuid.NewString()
	}
	s := &Spectrum{
		id:        id,
		abscissa:  append([]float64(nil), abscissa...),
		values:    append([]float64(nil), values...),
		unit:      u,
		valueUnit: valueUnit,
		meta:      meta.clone(),
		ledger:    ledger.Clone(),
	}
	return s, nil
}

// Derive builds the result of an operation. The new spectrum carries the
// metadata and ledger of whichever input has the longer history (ties go
// to the primary), extended by rec. The other operand may be nil for
// unary operations.
func Derive(primary, other *Spectrum, rec provenance.Record, abscissa, values []float64, u unit.Unit, valueUnit string) (*Spectrum, error) {
	if err := validate(abscissa, values, u); err != nil {
		return nil, err
	}
	parent := primary
	if other != nil && len(other.ledger) > len(primary.ledger) {
		parent = other
	}
	s := &Spectrum{
		id:        uuid.NewString(),
		abscissa:  append([]float64(nil), abscissa...),
		values:    append([]float64(nil), values...),
		unit:      u,
		valueUnit: valueUnit,
		meta:      parent.meta.clone(),
		ledger:    parent.ledger.Append(rec),
	}
	return s, nil
}

func validate(abscissa, values []float64, u unit.Unit) error {
	if len(abscissa) != len(values) {
		return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(abscissa), len(values))
	}
	if len(abscissa) < 2 {
		return fmt.Errorf("%w: got %d", ErrTooFewSamples, len(abscissa))
	}
	for i := 1; i < len(abscissa); i++ {
		// NaN never compares greater, so it fails here as well.
		if !(abscissa[i] > abscissa[i-1]) {
			return fmt.Errorf("%w: index %d (%v after %v)", ErrNotIncreasing, i, abscissa[i], abscissa[i-1])
		}
	}
	if !u.Valid() {
		return fmt.Errorf("%w: %s", unit.ErrUnsupported, u)
	}
	return nil
}

// ID returns the spectrum's fingerprint, used as an input identifier in
// provenance records.
func (s *Spectrum) ID() string { return s.id }

// Len returns the number of samples.
func (s *Spectrum) Len() int { return len(s.abscissa) }

// Abscissa returns a copy of the independent-variable series.
func (s *Spectrum) Abscissa() []float64 {
	return append([]float64(nil), s.abscissa...)
}

// Values returns a copy of the dependent-variable series.
func (s *Spectrum) Values() []float64 {
	return append([]float64(nil), s.values...)
}

// Unit returns the abscissa unit.
func (s *Spectrum) Unit() unit.Unit { return s.unit }

// ValueUnit returns the free-form label of the dependent axis.
func (s *Spectrum) ValueUnit() string { return s.valueUnit }

// Meta returns a copy of the descriptive metadata.
func (s *Spectrum) Meta() Meta { return s.meta.clone() }

// Provenance returns a copy of the operation ledger.
func (s *Spectrum) Provenance() provenance.Ledger { return s.ledger.Clone() }

// Range returns the first and last abscissa values.
func (s *Spectrum) Range() (lo, hi float64) {
	return s.abscissa[0], s.abscissa[len(s.abscissa)-1]
}

// At returns the sample at index i.
func (s *Spectrum) At(i int) (x, v float64) {
	return s.abscissa[i], s.values[i]
}

// Slice returns a new spectrum restricted to the inclusive abscissa range
// [lo, hi]. It fails with ErrEmptyRange when no samples fall inside and
// with ErrTooFewSamples when fewer than two do.
func (s *Spectrum) Slice(lo, hi float64) (*Spectrum, error) {
	if lo > hi {
		lo, hi = hi, lo
	}
	start := sort.SearchFloat64s(s.abscissa, lo)
	end := sort.Search(len(s.abscissa), func(i int) bool { return s.abscissa[i] > hi })
	switch {
	case end <= start:
		return nil, fmt.Errorf("%w: [%v, %v]", ErrEmptyRange, lo, hi)
	case end-start < 2:
		return nil, fmt.Errorf("%w: [%v, %v] holds a single sample", ErrTooFewSamples, lo, hi)
	}
	rec := provenance.NewRecord("slice", map[string]string{
		"lo": strconv.FormatFloat(lo, 'g', -1, 64),
		"hi": strconv.FormatFloat(hi, 'g', -1, 64),
	}, s.id)
	return Derive(s, nil, rec, s.abscissa[start:end], s.values[start:end], s.unit, s.valueUnit)
}

// Invalid returns the marker stored for flagged-invalid samples.
func Invalid() float64 { return math.NaN() }

// IsInvalid reports whether a sample is flagged invalid.
func IsInvalid(v float64) bool { return math.IsNaN(v) }

// ValidCount returns the number of samples not flagged invalid.
func (s *Spectrum) ValidCount() int {
	n := 0
	for _, v := range s.values {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}
