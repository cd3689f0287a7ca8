package ops

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-spectra/internal/testutil"
	"github.com/cwbudde/algo-spectra/spectra/grid"
	"github.com/cwbudde/algo-spectra/spectra/kernel"
	"github.com/cwbudde/algo-spectra/spectra/spectrum"
	"github.com/cwbudde/algo-spectra/spectra/unit"
)

func mustSpectrum(t *testing.T, abscissa, values []float64, u unit.Unit) *spectrum.Spectrum {
	t.Helper()
	s, err := spectrum.New(abscissa, values, u, "flux", spectrum.Meta{Name: "test"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestSubtractSelfInverse(t *testing.T) {
	xs := testutil.Grid(500, 1, 64)
	vals := testutil.GaussianLine(xs, 532, 4, 100, 7)
	s := mustSpectrum(t, xs, vals, unit.Nanometer)

	out, err := Subtract(s, s)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	for i, v := range out.Values() {
		if v != 0 {
			t.Fatalf("index %d: got %v, want exactly 0", i, v)
		}
	}
	testutil.RequireSliceNearlyEqual(t, out.Abscissa(), xs, 0)
	if out.Unit() != unit.Nanometer {
		t.Fatalf("unit changed to %s", out.Unit())
	}
	if n := len(out.Provenance()); n != 1 {
		t.Fatalf("ledger has %d records, want 1", n)
	}
	if got := out.Provenance()[0]; got.Operation != "subtract" || len(got.Inputs) != 2 {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestSubtractLeavesInputsUntouched(t *testing.T) {
	xs := testutil.Grid(400, 1, 10)
	a := mustSpectrum(t, xs, testutil.Flat(5, 10), unit.Nanometer)
	b := mustSpectrum(t, xs, testutil.Flat(2, 10), unit.Nanometer)

	if _, err := Subtract(a, b); err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if a.Values()[0] != 5 || b.Values()[0] != 2 {
		t.Fatal("operand values mutated")
	}
	if len(a.Provenance()) != 0 || len(b.Provenance()) != 0 {
		t.Fatal("operand ledgers mutated")
	}
}

func TestSubtractNoOverlap(t *testing.T) {
	a := mustSpectrum(t, testutil.Grid(400, 1, 10), testutil.Flat(1, 10), unit.Nanometer)
	b := mustSpectrum(t, testutil.Grid(900, 1, 10), testutil.Flat(1, 10), unit.Nanometer)
	if _, err := Subtract(a, b); !errors.Is(err, grid.ErrNoOverlap) {
		t.Fatalf("expected ErrNoOverlap, got %v", err)
	}
}

func TestSubtractAlignsCoarserGrid(t *testing.T) {
	// A: 400-700 step 1, B: 450-650 step 2; common grid is B's.
	ax := testutil.Grid(400, 1, 301)
	av := make([]float64, len(ax))
	for i, x := range ax {
		av[i] = x // linear, interpolates exactly
	}
	bx := testutil.Grid(450, 2, 101)
	a := mustSpectrum(t, ax, av, unit.Nanometer)
	b := mustSpectrum(t, bx, testutil.Flat(50, 101), unit.Nanometer)

	out, err := Subtract(a, b)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	gotX := out.Abscissa()
	if len(gotX) != 101 || gotX[0] != 450 || gotX[100] != 650 || gotX[1] != 452 {
		t.Fatalf("common grid not drawn from coarser operand: %v...", gotX[:3])
	}
	for i, v := range out.Values() {
		if math.Abs(v-(gotX[i]-50)) > 1e-9 {
			t.Fatalf("index %d: got %v want %v", i, v, gotX[i]-50)
		}
	}
}

func TestSubtractReconcilesUnits(t *testing.T) {
	xs := testutil.Grid(500, 10, 21) // 500..700 nm
	a := mustSpectrum(t, xs, testutil.Flat(10, 21), unit.Nanometer)

	// Same spectral region expressed in angstroms.
	bx := testutil.Grid(5000, 100, 21) // 5000..7000 A
	b := mustSpectrum(t, bx, testutil.Flat(4, 21), unit.Angstrom)

	out, err := Subtract(a, b)
	if err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if out.Unit() != unit.Nanometer {
		t.Fatalf("result unit %s, want nm", out.Unit())
	}
	for i, v := range out.Values() {
		if math.Abs(v-6) > 1e-9 {
			t.Fatalf("index %d: got %v want 6", i, v)
		}
	}
}

func TestDivideFlagsZeroDenominator(t *testing.T) {
	xs := []float64{1, 2, 3}
	a := mustSpectrum(t, xs, []float64{1, 2, 3}, unit.Nanometer)
	b := mustSpectrum(t, xs, []float64{1, 0, 3}, unit.Nanometer)

	out, err := Divide(a, b)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	got := out.Values()
	if got[0] != 1 || got[2] != 1 {
		t.Fatalf("got %v, want [1, invalid, 1]", got)
	}
	if !spectrum.IsInvalid(got[1]) {
		t.Fatalf("zero-denominator sample not flagged invalid: %v", got[1])
	}
	if out.ValueUnit() != "(flux)/(flux)" {
		t.Fatalf("unexpected value unit %q", out.ValueUnit())
	}
}

func TestDividePropagatesInvalid(t *testing.T) {
	xs := []float64{1, 2, 3}
	a := mustSpectrum(t, xs, []float64{1, spectrum.Invalid(), 3}, unit.Nanometer)
	b := mustSpectrum(t, xs, []float64{1, 1, 1}, unit.Nanometer)

	out, err := Divide(a, b)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	if !spectrum.IsInvalid(out.Values()[1]) {
		t.Fatal("invalid numerator sample did not propagate")
	}
}

func TestNormalizePeakScenario(t *testing.T) {
	xs := []float64{500, 501, 502, 503, 504}
	s := mustSpectrum(t, xs, []float64{10, 20, 30, 20, 10}, unit.Nanometer)

	out, err := Normalize(s, NormalizePeak)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := []float64{1.0 / 3, 2.0 / 3, 1, 2.0 / 3, 1.0 / 3}
	testutil.RequireSliceNearlyEqual(t, out.Values(), want, 1e-12)
	if out.ValueUnit() != "normalized" {
		t.Fatalf("value unit %q, want normalized", out.ValueUnit())
	}
}

func TestNormalizePeakIdempotent(t *testing.T) {
	xs := testutil.Grid(500, 1, 32)
	s := mustSpectrum(t, xs, testutil.GaussianLine(xs, 516, 3, 42, 1), unit.Nanometer)

	once, err := Normalize(s, NormalizePeak)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	twice, err := Normalize(once, NormalizePeak)
	if err != nil {
		t.Fatalf("Normalize twice: %v", err)
	}

	a, b := once.Values(), twice.Values()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("index %d: %v != %v (not bit-identical)", i, a[i], b[i])
		}
	}
}

func TestNormalizeAreaIntegratesToOne(t *testing.T) {
	xs := []float64{500, 501, 502, 503, 504}
	s := mustSpectrum(t, xs, []float64{10, 20, 30, 20, 10}, unit.Nanometer)

	out, err := Normalize(s, NormalizeArea)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	// Trapezoidal integral of the normalized spectrum must be 1.
	vals := out.Values()
	total := 0.0
	for i := 1; i < len(xs); i++ {
		total += (vals[i] + vals[i-1]) / 2 * (xs[i] - xs[i-1])
	}
	if math.Abs(total-1) > 1e-12 {
		t.Fatalf("normalized area %v, want 1", total)
	}
}

func TestNormalizeExcludesInvalidFromDenominator(t *testing.T) {
	xs := []float64{1, 2, 3, 4}
	s := mustSpectrum(t, xs, []float64{1, spectrum.Invalid(), 2, 1}, unit.Nanometer)

	out, err := Normalize(s, NormalizePeak)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got := out.Values()
	if got[2] != 1 {
		t.Fatalf("peak sample %v, want 1 (invalid must not poison max)", got[2])
	}
	if !spectrum.IsInvalid(got[1]) {
		t.Fatal("invalid sample lost its flag")
	}
}

func TestNormalizeZeroDenominator(t *testing.T) {
	xs := []float64{1, 2, 3}
	s := mustSpectrum(t, xs, []float64{0, 0, 0}, unit.Nanometer)

	if _, err := Normalize(s, NormalizePeak); !errors.Is(err, ErrZeroNormalization) {
		t.Fatalf("peak: expected ErrZeroNormalization, got %v", err)
	}
	if _, err := Normalize(s, NormalizeArea); !errors.Is(err, ErrZeroNormalization) {
		t.Fatalf("area: expected ErrZeroNormalization, got %v", err)
	}
	if _, err := Normalize(s, NormalizeContinuum); !errors.Is(err, ErrZeroNormalization) {
		t.Fatalf("continuum: expected ErrZeroNormalization, got %v", err)
	}
}

func TestNormalizeContinuumFlattensBaseline(t *testing.T) {
	xs := testutil.Grid(400, 1, 200)
	vals := testutil.GaussianLine(xs, 500, 2, 50, 100)
	s := mustSpectrum(t, xs, vals, unit.Nanometer)

	out, err := Normalize(s, NormalizeContinuum)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	got := out.Values()
	// Far from the narrow line the spectrum equals its own baseline.
	for _, i := range []int{30, 60, 150, 170} {
		if math.Abs(got[i]-1) > 0.02 {
			t.Fatalf("index %d: continuum-normalized value %v, want ~1", i, got[i])
		}
	}
	// The line itself stands proud of the normalized continuum.
	if got[100] < 1.2 {
		t.Fatalf("line peak %v, expected to remain above the continuum", got[100])
	}
}

func TestSmoothBoxcarPreservesConstant(t *testing.T) {
	xs := testutil.Grid(400, 1, 50)
	s := mustSpectrum(t, xs, testutil.Flat(3, 50), unit.Nanometer)

	out, err := Smooth(s, SmoothBoxcar, 5)
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}
	if out.Len() != s.Len() {
		t.Fatalf("length changed: %d -> %d", s.Len(), out.Len())
	}
	testutil.RequireSliceNearlyEqual(t, out.Values(), testutil.Flat(3, 50), 1e-12)
}

func TestSmoothWindowValidation(t *testing.T) {
	xs := testutil.Grid(400, 1, 50)
	s := mustSpectrum(t, xs, testutil.Flat(3, 50), unit.Nanometer)

	cases := []struct {
		method SmoothMethod
		window float64
	}{
		{SmoothBoxcar, 4},            // even
		{SmoothBoxcar, 2.5},          // not an integer
		{SmoothSavitzkyGolay, 3},     // below order+2
		{SmoothSavitzkyGolay, 6},     // even
		{SmoothGaussian, 0},          // non-positive sigma
		{SmoothGaussian, math.NaN()}, // NaN sigma
	}
	for _, tc := range cases {
		if _, err := Smooth(s, tc.method, tc.window); !errors.Is(err, kernel.ErrInvalidWindow) {
			t.Fatalf("%s window %v: expected ErrInvalidWindow, got %v", tc.method, tc.window, err)
		}
	}
}

func TestSmoothBridgesInvalidSamples(t *testing.T) {
	xs := testutil.Grid(400, 1, 20)
	vals := testutil.Flat(10, 20)
	vals[7] = spectrum.Invalid()
	s := mustSpectrum(t, xs, vals, unit.Nanometer)

	out, err := Smooth(s, SmoothBoxcar, 3)
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}
	// The hole sits between valid neighbors, so the window never goes
	// fully invalid and the output stays finite everywhere.
	testutil.RequireFinite(t, out.Values())
	testutil.RequireSliceNearlyEqual(t, out.Values(), testutil.Flat(10, 20), 1e-12)
}

func TestSmoothGaussianReducesNoise(t *testing.T) {
	xs := testutil.Grid(0, 1, 200)
	vals := make([]float64, len(xs))
	for i := range vals {
		vals[i] = 5 + math.Sin(float64(i))*0.5 // deterministic wiggle
	}
	s := mustSpectrum(t, xs, vals, unit.Nanometer)

	out, err := Smooth(s, SmoothGaussian, 3)
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}

	variance := func(v []float64) float64 {
		mean, sum := 0.0, 0.0
		for _, x := range v {
			mean += x
		}
		mean /= float64(len(v))
		for _, x := range v {
			sum += (x - mean) * (x - mean)
		}
		return sum / float64(len(v))
	}
	if variance(out.Values()) >= variance(vals)/2 {
		t.Fatal("gaussian smoothing did not attenuate the wiggle")
	}
}

func TestConvertUnitsRoundTrip(t *testing.T) {
	xs := testutil.Grid(400, 5, 61)
	vals := testutil.GaussianLine(xs, 550, 20, 10, 2)
	s := mustSpectrum(t, xs, vals, unit.Nanometer)

	units := []unit.Unit{unit.Angstrom, unit.Hertz, unit.Electronvolt}
	for _, u := range units {
		fwd, err := ConvertUnits(s, u)
		if err != nil {
			t.Fatalf("ConvertUnits(%s): %v", u, err)
		}
		back, err := ConvertUnits(fwd, unit.Nanometer)
		if err != nil {
			t.Fatalf("ConvertUnits back: %v", err)
		}
		testutil.RequireSliceNearlyEqualRel(t, back.Abscissa(), xs, 1e-9)
		testutil.RequireSliceNearlyEqualRel(t, back.Values(), vals, 1e-9)
	}
}

func TestConvertUnitsReordersLockStep(t *testing.T) {
	xs := []float64{400, 500, 600}
	s := mustSpectrum(t, xs, []float64{1, 2, 3}, unit.Nanometer)

	out, err := ConvertUnits(s, unit.Hertz)
	if err != nil {
		t.Fatalf("ConvertUnits: %v", err)
	}
	gotX := out.Abscissa()
	// Frequencies of 600, 500, 400 nm in increasing order.
	if !(gotX[0] < gotX[1] && gotX[1] < gotX[2]) {
		t.Fatalf("abscissa not increasing after conversion: %v", gotX)
	}
	// 600 nm carried value 3 and now sits first.
	testutil.RequireSliceNearlyEqual(t, out.Values(), []float64{3, 2, 1}, 0)
	if out.Unit() != unit.Hertz {
		t.Fatalf("unit %s, want Hz", out.Unit())
	}
}

func TestConvertUnitsUnsupported(t *testing.T) {
	xs := testutil.Grid(400, 1, 4)
	s := mustSpectrum(t, xs, testutil.Flat(1, 4), unit.Nanometer)
	if _, err := ConvertUnits(s, unit.Unit(7)); !errors.Is(err, unit.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestOperationsAppendSingleRecord(t *testing.T) {
	xs := testutil.Grid(400, 1, 64)
	s := mustSpectrum(t, xs, testutil.GaussianLine(xs, 430, 5, 10, 1), unit.Nanometer)

	sm, err := Smooth(s, SmoothBoxcar, 5)
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}
	norm, err := Normalize(sm, NormalizePeak)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	conv, err := ConvertUnits(norm, unit.Angstrom)
	if err != nil {
		t.Fatalf("ConvertUnits: %v", err)
	}

	ledger := conv.Provenance()
	if len(ledger) != 3 {
		t.Fatalf("ledger has %d records, want 3", len(ledger))
	}
	wantOps := []string{"smooth:boxcar", "normalize:peak", "convert_units"}
	for i, rec := range ledger {
		if rec.Operation != wantOps[i] {
			t.Fatalf("record %d: %q, want %q", i, rec.Operation, wantOps[i])
		}
		if len(rec.Inputs) != 1 {
			t.Fatalf("record %d: %d inputs, want 1", i, len(rec.Inputs))
		}
	}
	if ledger[0].Inputs[0] != s.ID() || ledger[1].Inputs[0] != sm.ID() || ledger[2].Inputs[0] != norm.ID() {
		t.Fatal("ledger input fingerprints do not chain")
	}
}
