package unit

import (
	"errors"
	"math"
	"testing"
)

func TestConvertKnownValues(t *testing.T) {
	tests := []struct {
		name string
		x    float64
		from Unit
		to   Unit
		want float64
	}{
		{name: "nm to angstrom", x: 500, from: Nanometer, to: Angstrom, want: 5000},
		{name: "angstrom to nm", x: 5000, from: Angstrom, to: Nanometer, want: 500},
		{name: "nm to Hz", x: 500, from: Nanometer, to: Hertz, want: SpeedOfLight / 500e-9},
		{name: "nm to eV", x: 500, from: Nanometer, to: Electronvolt, want: PlanckConstant * SpeedOfLight / 500e-9 / ElectronVolt},
		{name: "identity", x: 632.8, from: Nanometer, to: Nanometer, want: 632.8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Convert(tc.x, tc.from, tc.to)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if rel := math.Abs(got-tc.want) / math.Abs(tc.want); rel > 1e-12 {
				t.Fatalf("got %v want %v (rel %v)", got, tc.want, rel)
			}
		})
	}
}

func TestConvertRoundTrip(t *testing.T) {
	units := []Unit{Nanometer, Angstrom, Hertz, Electronvolt}
	xs := []float64{121.6, 486.1, 656.3, 1875.1}

	for _, u1 := range units {
		for _, u2 := range units {
			for _, x := range xs {
				fwd, err := Convert(x, u1, u2)
				if err != nil {
					t.Fatalf("%s -> %s: %v", u1, u2, err)
				}
				back, err := Convert(fwd, u2, u1)
				if err != nil {
					t.Fatalf("%s -> %s: %v", u2, u1, err)
				}
				if rel := math.Abs(back-x) / math.Abs(x); rel > 1e-9 {
					t.Fatalf("%s -> %s -> %s: %v -> %v (rel %v)", u1, u2, u1, x, back, rel)
				}
			}
		}
	}
}

func TestConvertUnsupported(t *testing.T) {
	if _, err := Convert(1, Unit(42), Nanometer); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := ConvertSlice([]float64{1, 2}, Nanometer, Unit(-1)); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
		ok   bool
	}{
		{in: "nm", want: Nanometer, ok: true},
		{in: "Nanometer", want: Nanometer, ok: true},
		{in: "ANGSTROM", want: Angstrom, ok: true},
		{in: "Hz", want: Hertz, ok: true},
		{in: "eV", want: Electronvolt, ok: true},
		{in: "parsec", ok: false},
		{in: "", ok: false},
	}
	for _, tc := range tests {
		got, err := Parse(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("Parse(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
		if !tc.ok && !errors.Is(err, ErrUnsupported) {
			t.Fatalf("Parse(%q): expected ErrUnsupported, got %v", tc.in, err)
		}
	}
}

func TestDecreasesWith(t *testing.T) {
	tests := []struct {
		from, to Unit
		want     bool
	}{
		{Nanometer, Angstrom, false},
		{Nanometer, Hertz, true},
		{Nanometer, Electronvolt, true},
		{Hertz, Electronvolt, false},
		{Electronvolt, Angstrom, true},
	}
	for _, tc := range tests {
		if got := DecreasesWith(tc.from, tc.to); got != tc.want {
			t.Fatalf("DecreasesWith(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestConvertSlicePreservesInput(t *testing.T) {
	xs := []float64{400, 500, 600}
	out, err := ConvertSlice(xs, Nanometer, Hertz)
	if err != nil {
		t.Fatalf("ConvertSlice: %v", err)
	}
	if len(out) != len(xs) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(xs))
	}
	if xs[0] != 400 || xs[1] != 500 || xs[2] != 600 {
		t.Fatal("input slice was mutated")
	}
	// frequency decreases as wavelength increases
	if !(out[0] > out[1] && out[1] > out[2]) {
		t.Fatalf("expected decreasing frequencies, got %v", out)
	}
}
