// Package ops implements the spectral transformation engine: arithmetic
// combination, normalization, smoothing, and unit conversion of spectra.
//
// Every operation is a pure function. Inputs are never modified; each call
// returns a new spectrum whose provenance ledger extends the richer
// parent's ledger by exactly one record. Binary operations reconcile units
// and align grids internally (see the grid package), so callers combine
// spectra sampled on different abscissas directly.
//
// Per-sample numeric anomalies (division by zero, invalid inputs) are
// flagged as NaN in the output rather than raised as errors; whole-spectrum
// misuse (no overlap, zero normalization denominator, bad smoothing window)
// fails synchronously.
//
// Replay re-executes a recorded ledger against the original inputs and
// reproduces bit-identical values.
package ops
