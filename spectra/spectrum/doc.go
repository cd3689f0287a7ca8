// Package spectrum defines the sampled 1D spectrum value that the rest of
// the library operates on.
//
// A Spectrum couples a strictly increasing abscissa (wavelength, frequency,
// or energy) with dependent values of the same length, a unit tag, free-form
// descriptive metadata, and a provenance ledger. Spectra are immutable after
// construction: every transformation allocates a new Spectrum and the
// accessors hand out copies, so concurrent reads need no locking.
//
// Invalid samples (division by zero, holes in source data) are flagged as
// IEEE NaN in the value series rather than raised as errors, preserving
// array length and downstream composability.
package spectrum
