package pass

import (
	"math"

	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
)

// LowpassRBJ designs a second-order lowpass biquad section using the
// RBJ cookbook formula. q <= 0 falls back to Butterworth damping
// (1/sqrt(2)). Invalid frequency or sample rate yields zero
// coefficients.
func LowpassRBJ(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := rbjW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = rbjQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := (1 - cw) / 2
	b1 := 1 - cw
	b2 := (1 - cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return rbjNormalize(b0, b1, b2, a0, a1, a2)
}

// HighpassRBJ designs a second-order highpass biquad section using the
// RBJ cookbook formula. q <= 0 falls back to Butterworth damping
// (1/sqrt(2)). Invalid frequency or sample rate yields zero
// coefficients.
func HighpassRBJ(freq, q, sampleRate float64) biquad.Coefficients {
	w0, ok := rbjW0(freq, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	q = rbjQ(q)
	cw := math.Cos(w0)
	sw := math.Sin(w0)
	alpha := sw / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)
	b2 := (1 + cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return rbjNormalize(b0, b1, b2, a0, a1, a2)
}

func rbjW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func rbjQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return 1 / math.Sqrt2
	}

	return q
}

func rbjNormalize(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
