// Package catalog persists spectra in a SQLite database so pipelines can
// park intermediate results and pick them up later, provenance intact.
package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cwbudde/algo-spectra/spectra/provenance"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

// ErrNotFound is returned when no spectrum with the requested ID exists.
var ErrNotFound = errors.New("catalog: spectrum not found")

const schema = `
CREATE TABLE IF NOT EXISTS spectra (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	unit       TEXT NOT NULL,
	value_unit TEXT NOT NULL,
	abscissa   TEXT NOT NULL,
	ordinates  TEXT NOT NULL,
	meta       TEXT NOT NULL,
	provenance TEXT NOT NULL,
	samples    INTEGER NOT NULL,
	operations INTEGER NOT NULL,
	created_at TEXT NOT NULL
);`

// Store is a SQLite-backed spectrum catalog. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the catalog database at path and
// applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores a spectrum under its fingerprint, replacing any previous
// version with the same ID. The original creation time survives updates.
func (s *Store) Put(ctx context.Context, sp *spectrum.Spectrum) error {
	metaJSON, err := json.Marshal(sp.Meta())
	if err != nil {
		return fmt.Errorf("catalog: meta: %w", err)
	}
	var ledgerBuf bytes.Buffer
	if err := sp.Provenance().MarshalTo(&ledgerBuf); err != nil {
		return fmt.Errorf("catalog: %w", err)
	}

	const q = `
INSERT INTO spectra (id, name, unit, value_unit, abscissa, ordinates, meta,
	provenance, samples, operations, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	unit = excluded.unit,
	value_unit = excluded.value_unit,
	abscissa = excluded.abscissa,
	ordinates = excluded.ordinates,
	meta = excluded.meta,
	provenance = excluded.provenance,
	samples = excluded.samples,
	operations = excluded.operations;`

	_, err = s.db.ExecContext(ctx, q,
		sp.ID(), sp.Meta().Name, sp.Unit().String(), sp.ValueUnit(),
		encodeSeries(sp.Abscissa()), encodeSeries(sp.Values()),
		string(metaJSON), ledgerBuf.String(),
		sp.Len(), len(sp.Provenance()),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("catalog: put: %w", err)
	}
	return nil
}

// Get loads the spectrum with the given fingerprint.
func (s *Store) Get(ctx context.Context, id string) (*spectrum.Spectrum, error) {
	const q = `
SELECT unit, value_unit, abscissa, ordinates, meta, provenance
FROM spectra WHERE id = ?;`

	var unitName, valueUnit, abscissaText, ordinatesText, metaJSON, ledgerYAML string
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&unitName, &valueUnit, &abscissaText, &ordinatesText, &metaJSON, &ledgerYAML)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: get: %w", err)
	}

	u, err := unit.Parse(unitName)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	abscissa, err := decodeSeries(abscissaText)
	if err != nil {
		return nil, fmt.Errorf("catalog: abscissa: %w", err)
	}
	values, err := decodeSeries(ordinatesText)
	if err != nil {
		return nil, fmt.Errorf("catalog: ordinates: %w", err)
	}
	var meta spectrum.Meta
	if err := json.Unmarshal([]byte(metaJSON), &meta); err != nil {
		return nil, fmt.Errorf("catalog: meta: %w", err)
	}
	var ledger provenance.Ledger
	if strings.TrimSpace(ledgerYAML) != "" {
		ledger, err = provenance.Parse(strings.NewReader(ledgerYAML))
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
	}

	sp, err := spectrum.Restore(id, abscissa, values, u, valueUnit, meta, ledger)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	return sp, nil
}

// Entry is a catalog listing row.
type Entry struct {
	ID         string
	Name       string
	Unit       string
	ValueUnit  string
	Samples    int
	Operations int
	Created    time.Time
}

// List returns all stored spectra ordered by creation time.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	const q = `
SELECT id, name, unit, value_unit, samples, operations, created_at
FROM spectra ORDER BY created_at, id;`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.ID, &e.Name, &e.Unit, &e.ValueUnit,
			&e.Samples, &e.Operations, &created); err != nil {
			return nil, fmt.Errorf("catalog: list: %w", err)
		}
		e.Created, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("catalog: list: bad timestamp %q: %w", created, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	return out, nil
}

// Delete removes the spectrum with the given fingerprint.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM spectra WHERE id = ?;`, id)
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("catalog: delete: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}

// Series are stored as space-separated shortest-round-trip decimals so
// NaN markers survive, which JSON number encoding would reject.
func encodeSeries(v []float64) string {
	var b strings.Builder
	for i, x := range v {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	return b.String()
}

func decodeSeries(s string) ([]float64, error) {
	fields := strings.Fields(s)
	out := make([]float64, len(fields))
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = x
	}
	return out, nil
}
