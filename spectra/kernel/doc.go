// Package kernel builds smoothing kernels and applies them to sampled
// series with reflect-boundary padding, so output length always equals
// input length.
//
// Available kernels:
//
//   - [Boxcar]:        uniform moving average, odd window length
//   - [Gaussian]:      normalized Gaussian, truncated at four sigma
//   - [SavitzkyGolay]: polynomial least-squares convolution coefficients
//
// [ApplySame] selects direct convolution for short kernels and FFT-based
// convolution for long ones, mirroring the usual crossover point.
package kernel
