package pass

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
)

const tol = 1e-9

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func mag(c biquad.Coefficients, freq, sr float64) float64 {
	h := c.Response(freq, sr)
	return cmplx.Abs(h)
}

func magChain(c *biquad.Chain, freq, sr float64) float64 {
	h := c.Response(freq, sr)
	return cmplx.Abs(h)
}

func cascadeMagDB(sections []biquad.Coefficients, freq, sr float64) float64 {
	h := complex(1, 0)
	for _, s := range sections {
		h *= s.Response(freq, sr)
	}
	return 20 * math.Log10(cmplx.Abs(h))
}

type bandSignature struct {
	spanDB       float64
	extrema      int
	minDB        float64
	maxDB        float64
	maxAbsDB     float64
	peakFreqHz   float64
	troughFreqHz float64
}

func measureBandSignature(sections []biquad.Coefficients, fStart, fEnd, step, sr float64) bandSignature {
	sig := bandSignature{
		minDB: math.MaxFloat64,
		maxDB: -math.MaxFloat64,
	}
	var vals []float64
	for f := fStart; f <= fEnd; f += step {
		d := cascadeMagDB(sections, f, sr)
		vals = append(vals, d)
		if d < sig.minDB {
			sig.minDB = d
			sig.troughFreqHz = f
		}
		if d > sig.maxDB {
			sig.maxDB = d
			sig.peakFreqHz = f
		}
	}
	sig.spanDB = sig.maxDB - sig.minDB
	sig.maxAbsDB = math.Max(math.Abs(sig.maxDB), math.Abs(sig.minDB))
	for i := 1; i < len(vals)-1; i++ {
		if (vals[i] > vals[i-1] && vals[i] > vals[i+1]) || (vals[i] < vals[i-1] && vals[i] < vals[i+1]) {
			sig.extrema++
		}
	}
	return sig
}

func assertFiniteCoefficients(t *testing.T, c biquad.Coefficients) {
	t.Helper()
	v := []float64{c.B0, c.B1, c.B2, c.A1, c.A2}
	for i := range v {
		if math.IsNaN(v[i]) || math.IsInf(v[i], 0) {
			t.Fatalf("invalid coefficient[%d]=%v", i, v[i])
		}
	}
}

func assertStableSection(t *testing.T, c biquad.Coefficients) {
	t.Helper()
	r1, r2 := sectionRoots(c)
	if cmplx.Abs(r1) >= 1+tol || cmplx.Abs(r2) >= 1+tol {
		t.Fatalf("unstable poles: |r1|=%v |r2|=%v coeff=%#v", cmplx.Abs(r1), cmplx.Abs(r2), c)
	}
}

func sectionRoots(c biquad.Coefficients) (complex128, complex128) {
	disc := complex(c.A1*c.A1-4*c.A2, 0)
	sqrtDisc := cmplx.Sqrt(disc)
	r1 := (-complex(c.A1, 0) + sqrtDisc) / 2
	r2 := (-complex(c.A1, 0) - sqrtDisc) / 2
	return r1, r2
}
