package pass

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
)

func TestLowpassRBJ_Shape(t *testing.T) {
	sr := 48000.0
	c := LowpassRBJ(1000, 1/math.Sqrt2, sr)

	assertFiniteCoefficients(t, c)
	assertStableSection(t, c)

	if !(mag(c, 100, sr) > mag(c, 10000, sr)) {
		t.Fatal("lowpass shape check failed")
	}

	// Butterworth damping puts the cutoff at -3 dB.
	if got := 20 * math.Log10(mag(c, 1000, sr)); !almostEqual(got, -3.0103, 0.05) {
		t.Fatalf("cutoff level %.3f dB, want about -3", got)
	}
}

func TestHighpassRBJ_Shape(t *testing.T) {
	sr := 48000.0
	c := HighpassRBJ(1000, 1/math.Sqrt2, sr)

	assertFiniteCoefficients(t, c)
	assertStableSection(t, c)

	if !(mag(c, 10000, sr) > mag(c, 100, sr)) {
		t.Fatal("highpass shape check failed")
	}

	if got := 20 * math.Log10(mag(c, 1000, sr)); !almostEqual(got, -3.0103, 0.05) {
		t.Fatalf("cutoff level %.3f dB, want about -3", got)
	}
}

func TestRBJ_DefaultQFallback(t *testing.T) {
	sr := 48000.0

	want := LowpassRBJ(1000, 1/math.Sqrt2, sr)
	for _, q := range []float64{0, -1, math.NaN()} {
		got := LowpassRBJ(1000, q, sr)
		if got != want {
			t.Fatalf("q=%v: got %+v, want Butterworth fallback %+v", q, got, want)
		}
	}
}

func TestRBJ_InvalidInputs(t *testing.T) {
	zero := biquad.Coefficients{}

	if got := LowpassRBJ(0, 0.707, 48000); got != zero {
		t.Fatalf("freq=0: got %+v, want zero", got)
	}
	if got := LowpassRBJ(1000, 0.707, 0); got != zero {
		t.Fatalf("sr=0: got %+v, want zero", got)
	}
	if got := HighpassRBJ(30000, 0.707, 48000); got != zero {
		t.Fatalf("above Nyquist: got %+v, want zero", got)
	}
}

func TestRBJ_UnityAtExtremes(t *testing.T) {
	sr := 48000.0

	lp := LowpassRBJ(1000, 1/math.Sqrt2, sr)
	if got := mag(lp, 10, sr); !almostEqual(got, 1, 1e-3) {
		t.Fatalf("lowpass passband gain %v, want ~1", got)
	}

	hp := HighpassRBJ(1000, 1/math.Sqrt2, sr)
	if got := mag(hp, 20000, sr); !almostEqual(got, 1, 1e-2) {
		t.Fatalf("highpass passband gain %v, want ~1", got)
	}
}
