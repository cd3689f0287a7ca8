package specio

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-spectra/spectra/provenance"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
)

// WriteCSV encodes a spectrum as two-column CSV with metadata in '#'
// comment lines. Samples are written with the shortest representation
// that survives a round trip through ReadCSV bit for bit.
func WriteCSV(w io.Writer, s *spectrum.Spectrum) error {
	if err := writeMetaComments(w, s); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	header := []string{
		fmt.Sprintf("abscissa (%s)", s.Unit()),
		fmt.Sprintf("value (%s)", s.ValueUnit()),
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("specio: csv: %w", err)
	}
	abscissa := s.Abscissa()
	values := s.Values()
	row := make([]string, 2)
	for i := range abscissa {
		row[0] = strconv.FormatFloat(abscissa[i], 'g', -1, 64)
		row[1] = strconv.FormatFloat(values[i], 'g', -1, 64)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("specio: csv: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("specio: csv: %w", err)
	}
	return nil
}

// WriteASCII encodes a spectrum as whitespace-delimited columns with
// metadata in '#' comment lines.
func WriteASCII(w io.Writer, s *spectrum.Spectrum) error {
	if err := writeMetaComments(w, s); err != nil {
		return err
	}
	abscissa := s.Abscissa()
	values := s.Values()
	for i := range abscissa {
		_, err := fmt.Fprintf(w, "%s %s\n",
			strconv.FormatFloat(abscissa[i], 'g', -1, 64),
			strconv.FormatFloat(values[i], 'g', -1, 64))
		if err != nil {
			return fmt.Errorf("specio: write: %w", err)
		}
	}
	return nil
}

// WriteProvenanceYAML writes the spectrum's transformation history as a
// YAML document.
func WriteProvenanceYAML(w io.Writer, s *spectrum.Spectrum) error {
	doc := struct {
		Spectrum   string                   `yaml:"spectrum"`
		ID         string                   `yaml:"id"`
		Provenance []provenance.RecordView `yaml:"provenance"`
	}{
		Spectrum:   s.Meta().Name,
		ID:         s.ID(),
		Provenance: s.Provenance().Records(),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("specio: yaml: %w", err)
	}
	return enc.Close()
}

func writeMetaComments(w io.Writer, s *spectrum.Spectrum) error {
	meta := s.Meta()
	lines := []struct{ key, val string }{
		{"name", meta.Name},
		{"object", meta.Object},
		{"instrument", meta.Instrument},
		{"source", meta.Source},
		{"unit", s.Unit().String()},
		{"value_unit", s.ValueUnit()},
	}
	for _, l := range lines {
		if l.val == "" {
			continue
		}
		if _, err := fmt.Fprintf(w, "# %s: %s\n", l.key, l.val); err != nil {
			return fmt.Errorf("specio: write: %w", err)
		}
	}
	keys := make([]string, 0, len(meta.Extra))
	for k := range meta.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "# %s: %s\n", k, meta.Extra[k]); err != nil {
			return fmt.Errorf("specio: write: %w", err)
		}
	}
	return nil
}
