// Package specio reads and writes spectra as tabular text: CSV and
// whitespace-delimited ASCII, plus the YAML provenance export. The decoded
// spectrum enters the core through the same validated constructor as any
// other input.
package specio

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

// Errors returned by the readers.
var (
	ErrNoData        = errors.New("specio: fewer than two data rows")
	ErrMalformedRow  = errors.New("specio: malformed data row")
	ErrUnknownFormat = errors.New("specio: unknown file format")
)

// Option configures reading.
type Option func(*config)

type config struct {
	unit      unit.Unit
	valueUnit string
	name      string
	source    string
	comma     rune
}

func defaultConfig() config {
	return config{
		unit:      unit.Nanometer,
		valueUnit: "counts",
		comma:     ',',
	}
}

// WithUnit sets the abscissa unit of the decoded spectrum.
func WithUnit(u unit.Unit) Option {
	return func(c *config) { c.unit = u }
}

// WithValueUnit sets the dependent-axis label of the decoded spectrum.
func WithValueUnit(s string) Option {
	return func(c *config) { c.valueUnit = s }
}

// WithName sets the spectrum name.
func WithName(s string) Option {
	return func(c *config) { c.name = s }
}

// WithDelimiter sets the CSV field delimiter.
func WithDelimiter(d rune) Option {
	return func(c *config) { c.comma = d }
}

func withSource(s string) Option {
	return func(c *config) { c.source = s }
}

// ReadCSV decodes a two-column CSV stream. Lines starting with '#' are
// comments; a leading non-numeric row is treated as a header.
func ReadCSV(r io.Reader, opts ...Option) (*spectrum.Spectrum, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	cr := csv.NewReader(r)
	cr.Comma = cfg.comma
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var abscissa, values []float64
	first := true
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("specio: csv: %w", err)
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: need two columns, got %d", ErrMalformedRow, len(row))
		}
		x, errX := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		v, errV := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if errX != nil || errV != nil {
			if first {
				// Header row.
				first = false
				continue
			}
			return nil, fmt.Errorf("%w: %q", ErrMalformedRow, row)
		}
		first = false
		abscissa = append(abscissa, x)
		values = append(values, v)
	}
	return build(abscissa, values, cfg)
}

// ReadASCII decodes a whitespace-delimited two-column stream. Blank lines
// and lines starting with '#' are skipped.
func ReadASCII(r io.Reader, opts ...Option) (*spectrum.Spectrum, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var abscissa, values []float64
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRow, line)
		}
		x, errX := strconv.ParseFloat(fields[0], 64)
		v, errV := strconv.ParseFloat(fields[1], 64)
		if errX != nil || errV != nil {
			return nil, fmt.Errorf("%w: %q", ErrMalformedRow, line)
		}
		abscissa = append(abscissa, x)
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("specio: read: %w", err)
	}
	return build(abscissa, values, cfg)
}

// Load opens a file and decodes it based on its extension: .csv and .txt
// as CSV, .dat and .asc as whitespace ASCII.
func Load(path string, opts ...Option) (*spectrum.Spectrum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("specio: %w", err)
	}
	defer f.Close()

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	opts = append([]Option{WithName(stem), withSource(base)}, opts...)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return ReadCSV(f, opts...)
	case ".dat", ".asc":
		return ReadASCII(f, opts...)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

func build(abscissa, values []float64, cfg config) (*spectrum.Spectrum, error) {
	if len(abscissa) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNoData, len(abscissa))
	}
	meta := spectrum.Meta{Name: cfg.name, Source: cfg.source}
	s, err := spectrum.New(abscissa, values, cfg.unit, cfg.valueUnit, meta)
	if err != nil {
		return nil, fmt.Errorf("specio: %w", err)
	}
	return s, nil
}
