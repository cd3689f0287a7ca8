package ops

import (
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate"

	"github.com/cwbudde/algo-spectra/spectra/grid"
	"github.com/cwbudde/algo-spectra/spectra/kernel"
	"github.com/cwbudde/algo-spectra/spectra/provenance"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

// Subtract returns a - b on their common grid. When the operands use
// different units, b is converted into a's unit before alignment.
func Subtract(a, b *spectrum.Spectrum) (*spectrum.Spectrum, error) {
	common, av, bv, err := alignOperands(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(av))
	floats.SubTo(out, av, bv)

	rec := provenance.NewRecord("subtract", nil, a.ID(), b.ID())
	return spectrum.Derive(a, b, rec, common, out, a.Unit(), a.ValueUnit())
}

// Divide returns a / b on their common grid. Samples where b is zero are
// flagged invalid rather than raised as errors.
func Divide(a, b *spectrum.Spectrum) (*spectrum.Spectrum, error) {
	common, av, bv, err := alignOperands(a, b)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(av))
	for i := range out {
		if bv[i] == 0 {
			out[i] = spectrum.Invalid()
			continue
		}
		out[i] = av[i] / bv[i]
	}

	rec := provenance.NewRecord("divide", nil, a.ID(), b.ID())
	valueUnit := fmt.Sprintf("(%s)/(%s)", a.ValueUnit(), b.ValueUnit())
	return spectrum.Derive(a, b, rec, common, out, a.Unit(), valueUnit)
}

// Normalize scales the spectrum by the denominator the method selects.
// Invalid samples are excluded from the denominator computation and stay
// invalid in the output.
func Normalize(s *spectrum.Spectrum, method NormalizeMethod) (*spectrum.Spectrum, error) {
	values := s.Values()
	params := map[string]string{"method": method.String()}

	switch method {
	case NormalizePeak, NormalizeArea:
		factor, err := scalarDenominator(s, method)
		if err != nil {
			return nil, err
		}
		// True division keeps the peak sample exactly 1, which makes peak
		// normalization idempotent; a reciprocal multiply would not.
		for i := range values {
			values[i] /= factor
		}
		params["factor"] = strconv.FormatFloat(factor, 'g', -1, 64)

	case NormalizeContinuum:
		width := continuumWidth(s.Len())
		baseline, err := boxcarBaseline(values, width)
		if err != nil {
			return nil, err
		}
		finite := false
		for i := range values {
			if baseline[i] == 0 {
				values[i] = spectrum.Invalid()
				continue
			}
			if !math.IsNaN(baseline[i]) {
				finite = true
			}
			values[i] /= baseline[i]
		}
		if !finite {
			return nil, fmt.Errorf("%w: continuum baseline has no usable samples", ErrZeroNormalization)
		}
		params["window"] = strconv.Itoa(width)

	default:
		return nil, fmt.Errorf("%w: normalize %d", ErrUnknownMethod, int(method))
	}

	rec := provenance.NewRecord("normalize:"+method.String(), params, s.ID())
	return spectrum.Derive(s, nil, rec, s.Abscissa(), values, s.Unit(), "normalized")
}

// scalarDenominator computes the peak or area factor over valid samples.
func scalarDenominator(s *spectrum.Spectrum, method NormalizeMethod) (float64, error) {
	xs := s.Abscissa()
	values := s.Values()

	vx := make([]float64, 0, len(values))
	vy := make([]float64, 0, len(values))
	for i, v := range values {
		if !spectrum.IsInvalid(v) {
			vx = append(vx, xs[i])
			vy = append(vy, v)
		}
	}
	if len(vy) == 0 {
		return 0, fmt.Errorf("%w: no valid samples", ErrZeroNormalization)
	}

	var factor float64
	if method == NormalizePeak {
		factor = floats.Max(vy)
	} else {
		if len(vy) < 2 {
			return 0, fmt.Errorf("%w: fewer than two valid samples for area", ErrZeroNormalization)
		}
		factor = integrate.Trapezoidal(vx, vy)
	}
	if factor == 0 {
		return 0, fmt.Errorf("%w: %s factor", ErrZeroNormalization, method)
	}
	return factor, nil
}

// boxcarBaseline smooths over invalid holes the same way Smooth does.
func boxcarBaseline(values []float64, width int) ([]float64, error) {
	k, err := kernel.Boxcar(width)
	if err != nil {
		return nil, err
	}
	filled, valid := kernel.FillHoles(values)
	baseline, err := kernel.ApplySame(filled, k)
	if err != nil {
		return nil, err
	}
	kernel.MarkInvalid(baseline, valid, width/2)
	return baseline, nil
}

// continuumWidth shrinks the default heavy window to the largest odd width
// that fits the series.
func continuumWidth(n int) int {
	w := continuumWindowDefault
	if w > n {
		w = n
	}
	if w%2 == 0 {
		w--
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Smooth filters the spectrum with the selected kernel. The window
// parameter is an odd integer length for boxcar and Savitzky-Golay, and
// the standard deviation in samples for gaussian. Invalid samples are
// bridged by linear interpolation before convolution and re-flagged when
// an entire window was invalid.
func Smooth(s *spectrum.Spectrum, method SmoothMethod, window float64) (*spectrum.Spectrum, error) {
	var (
		k      []float64
		err    error
		params = map[string]string{"method": method.String()}
	)
	switch method {
	case SmoothBoxcar:
		w, ierr := integerWindow(window)
		if ierr != nil {
			return nil, ierr
		}
		k, err = kernel.Boxcar(w)
		params["window"] = strconv.Itoa(w)

	case SmoothSavitzkyGolay:
		w, ierr := integerWindow(window)
		if ierr != nil {
			return nil, ierr
		}
		k, err = kernel.SavitzkyGolay(w, savitzkyGolayOrder)
		params["window"] = strconv.Itoa(w)
		params["order"] = strconv.Itoa(savitzkyGolayOrder)

	case SmoothGaussian:
		k, err = kernel.Gaussian(window)
		params["sigma"] = strconv.FormatFloat(window, 'g', -1, 64)

	default:
		return nil, fmt.Errorf("%w: smooth %d", ErrUnknownMethod, int(method))
	}
	if err != nil {
		return nil, err
	}

	values := s.Values()
	filled, valid := kernel.FillHoles(values)
	out, err := kernel.ApplySame(filled, k)
	if err != nil {
		return nil, err
	}
	kernel.MarkInvalid(out, valid, len(k)/2)

	rec := provenance.NewRecord("smooth:"+method.String(), params, s.ID())
	return spectrum.Derive(s, nil, rec, s.Abscissa(), out, s.Unit(), s.ValueUnit())
}

func integerWindow(window float64) (int, error) {
	w := int(window)
	if float64(w) != window {
		return 0, fmt.Errorf("%w: window must be an integer sample count, got %v", kernel.ErrInvalidWindow, window)
	}
	return w, nil
}

// ConvertUnits re-expresses the abscissa in the target unit, re-sorting
// both series in lock-step when the conversion reverses the natural
// ordering (wavelength versus frequency or energy).
func ConvertUnits(s *spectrum.Spectrum, to unit.Unit) (*spectrum.Spectrum, error) {
	from := s.Unit()
	xs, err := unit.ConvertSlice(s.Abscissa(), from, to)
	if err != nil {
		return nil, err
	}
	values := s.Values()
	if unit.DecreasesWith(from, to) {
		reverse(xs)
		reverse(values)
	}

	rec := provenance.NewRecord("convert_units", map[string]string{
		"from": from.String(),
		"to":   to.String(),
	}, s.ID())
	return spectrum.Derive(s, nil, rec, xs, values, to, s.ValueUnit())
}

// Slice restricts a spectrum to an inclusive abscissa range. It exists so
// the engine covers every replayable operation; it delegates to the entity.
func Slice(s *spectrum.Spectrum, lo, hi float64) (*spectrum.Spectrum, error) {
	return s.Slice(lo, hi)
}

// alignOperands reconciles units and grids for a binary operation.
func alignOperands(a, b *spectrum.Spectrum) (common, av, bv []float64, err error) {
	bx := b.Abscissa()
	by := b.Values()
	if b.Unit() != a.Unit() {
		bx, err = unit.ConvertSlice(bx, b.Unit(), a.Unit())
		if err != nil {
			return nil, nil, nil, err
		}
		if unit.DecreasesWith(b.Unit(), a.Unit()) {
			reverse(bx)
			reverse(by)
		}
	}
	return grid.Align(a.Abscissa(), a.Values(), bx, by)
}

func reverse(xs []float64) {
	for i, j := 0, len(xs)-1; i < j; i, j = i+1, j-1 {
		xs[i], xs[j] = xs[j], xs[i]
	}
}
