// Package provenance records the operation history of a spectrum.
//
// A Ledger is an ordered, append-only sequence of records. Two equal ledgers
// imply the same inputs went through the same operations with the same
// parameters, which is the reproducibility contract: replaying a ledger
// against the recorded inputs reconstructs bit-identical values.
package provenance

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"
)

// Record describes one transformation applied to a spectrum.
type Record struct {
	// Operation names the transformation, e.g. "subtract" or "normalize:peak".
	Operation string
	// Timestamp is the creation time of the record.
	Timestamp time.Time
	// Parameters holds operation parameters as strings formatted for exact
	// round-tripping (strconv 'g' with -1 precision for floats).
	Parameters map[string]string
	// Inputs lists the fingerprints of the spectra the operation consumed,
	// primary operand first.
	Inputs []string
}

// NewRecord builds a record stamped with the current UTC time.
func NewRecord(operation string, params map[string]string, inputs ...string) Record {
	p := make(map[string]string, len(params))
	for k, v := range params {
		p[k] = v
	}
	in := make([]string, len(inputs))
	copy(in, inputs)
	return Record{
		Operation:  operation,
		Timestamp:  time.Now().UTC(),
		Parameters: p,
		Inputs:     in,
	}
}

// clone returns a deep copy of the record.
func (r Record) clone() Record {
	c := Record{Operation: r.Operation, Timestamp: r.Timestamp}
	if r.Parameters != nil {
		c.Parameters = make(map[string]string, len(r.Parameters))
		for k, v := range r.Parameters {
			c.Parameters[k] = v
		}
	}
	if r.Inputs != nil {
		c.Inputs = make([]string, len(r.Inputs))
		copy(c.Inputs, r.Inputs)
	}
	return c
}

// equal compares operation, parameters and inputs. Timestamps are audit
// data and take no part in equality.
func (r Record) equal(o Record) bool {
	if r.Operation != o.Operation || len(r.Parameters) != len(o.Parameters) || len(r.Inputs) != len(o.Inputs) {
		return false
	}
	for k, v := range r.Parameters {
		if ov, ok := o.Parameters[k]; !ok || ov != v {
			return false
		}
	}
	for i := range r.Inputs {
		if r.Inputs[i] != o.Inputs[i] {
			return false
		}
	}
	return true
}

// Ledger is the ordered operation history attached to a spectrum.
type Ledger []Record

// Append returns a new ledger extended by rec. The receiver is not modified.
func (l Ledger) Append(rec Record) Ledger {
	out := make(Ledger, 0, len(l)+1)
	for _, r := range l {
		out = append(out, r.clone())
	}
	return append(out, rec.clone())
}

// Clone returns a deep copy of the ledger.
func (l Ledger) Clone() Ledger {
	if l == nil {
		return nil
	}
	out := make(Ledger, len(l))
	for i, r := range l {
		out[i] = r.clone()
	}
	return out
}

// Equal reports whether both ledgers record the same operation sequence
// with the same parameters and inputs. Timestamps are ignored.
func (l Ledger) Equal(o Ledger) bool {
	if len(l) != len(o) {
		return false
	}
	for i := range l {
		if !l[i].equal(o[i]) {
			return false
		}
	}
	return true
}

// RecordView is the serialized form of a record: timestamps become
// ISO-8601 strings so external writers need no time handling.
type RecordView struct {
	Operation  string            `yaml:"operation"`
	Timestamp  string            `yaml:"timestamp"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
	Inputs     []string          `yaml:"inputs,omitempty"`
}

// Records returns the ledger as an ordered list of serializable views.
func (l Ledger) Records() []RecordView {
	out := make([]RecordView, len(l))
	for i, r := range l {
		c := r.clone()
		out[i] = RecordView{
			Operation:  c.Operation,
			Timestamp:  c.Timestamp.Format(time.RFC3339Nano),
			Parameters: c.Parameters,
			Inputs:     c.Inputs,
		}
	}
	return out
}

type document struct {
	Provenance []RecordView `yaml:"provenance"`
}

// MarshalTo writes the ledger as a YAML document to w.
func (l Ledger) MarshalTo(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(document{Provenance: l.Records()}); err != nil {
		return fmt.Errorf("provenance: encode: %w", err)
	}
	return nil
}

// Parse reads a YAML document previously written by MarshalTo.
func Parse(r io.Reader) (Ledger, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("provenance: decode: %w", err)
	}
	out := make(Ledger, len(doc.Provenance))
	for i, v := range doc.Provenance {
		ts, err := time.Parse(time.RFC3339Nano, v.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("provenance: record %d: bad timestamp %q: %w", i, v.Timestamp, err)
		}
		out[i] = Record{
			Operation:  v.Operation,
			Timestamp:  ts,
			Parameters: v.Parameters,
			Inputs:     v.Inputs,
		}
	}
	return out, nil
}
