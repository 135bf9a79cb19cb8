package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chain/dsp/core"
)

const (
	// Default limiter ceiling, just below 0 dBFS.
	defaultLimiterThreshold = 0.98

	// Default release coefficient, roughly 40 ms at 48 kHz.
	defaultLimiterReleaseCoeff = 0.9995

	minLimiterThresholdDB = -12.0
	maxLimiterThresholdDB = 0.0
	minLimiterReleaseMs   = 1.0
	maxLimiterReleaseMs   = 1000.0
)

// Limiter is a stereo-linked peak limiter with instant attack and
// exponential release.
//
// The gain computer tracks how much of the signal must be shaved to
// keep the louder channel at or below the ceiling; attack is
// instantaneous so no peak ever passes, and the reduction decays
// exponentially afterward. A ratio below the maximum softens the
// limiter into a high-ratio compressor.
type Limiter struct {
	threshold    float64 // linear ceiling
	ratio        float64
	releaseCoeff float64
	sampleRate   float64

	// Fraction of gain currently shaved off (0 = unity).
	envelope float64
}

// NewLimiter creates a limiter with the ceiling just below 0 dBFS and
// a release of roughly 40 ms.
func NewLimiter(sampleRate float64) (*Limiter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("limiter sample rate must be positive and finite: %f", sampleRate)
	}

	return &Limiter{
		threshold:    defaultLimiterThreshold,
		ratio:        maxRatio,
		releaseCoeff: defaultLimiterReleaseCoeff,
		sampleRate:   sampleRate,
	}, nil
}

// SetThreshold sets the limiting ceiling in dB, clamped to [-12, 0].
func (l *Limiter) SetThreshold(dB float64) {
	if math.IsNaN(dB) {
		return
	}
	dB = core.Clamp(dB, minLimiterThresholdDB, maxLimiterThresholdDB)
	l.threshold = core.DBToLinear(dB)
}

// SetRelease sets the release time in milliseconds, clamped to [1, 1000].
func (l *Limiter) SetRelease(ms float64) {
	if math.IsNaN(ms) {
		return
	}
	ms = core.Clamp(ms, minLimiterReleaseMs, maxLimiterReleaseMs)
	l.releaseCoeff = math.Exp(-1 / (ms * 0.001 * l.sampleRate))
}

// SetRatio sets the limiting ratio, clamped to [1, 20]. At the maximum
// the limiter is a brickwall; lower values let a fraction of the
// overshoot through.
func (l *Limiter) SetRatio(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	l.ratio = core.Clamp(ratio, minRatio, maxRatio)
}

// Threshold returns the current ceiling as a linear amplitude.
func (l *Limiter) Threshold() float64 { return l.threshold }

// Ratio returns the current limiting ratio.
func (l *Limiter) Ratio() float64 { return l.ratio }

// GainReduction returns the fraction of gain currently shaved off,
// in [0, 1). Zero means the limiter is passing the signal untouched.
func (l *Limiter) GainReduction() float64 { return l.envelope }

// ProcessStereoSample limits one stereo sample pair.
func (l *Limiter) ProcessStereoSample(inL, inR float64) (outL, outR float64) {
	peak := math.Abs(inL)
	if r := math.Abs(inR); r > peak {
		peak = r
	}

	if peak > l.threshold {
		// Fraction of the signal to shave for the peak to sit at the
		// ceiling, scaled down by the ratio's permitted overshoot.
		// At the maximum ratio the limiter acts as a true brickwall.
		factor := 1.0
		if l.ratio < maxRatio {
			factor = 1 - 1/l.ratio
		}
		target := (1 - l.threshold/peak) * factor
		if target > l.envelope {
			l.envelope = target // instant attack
		}
	}

	l.envelope *= l.releaseCoeff

	gain := 1 - l.envelope
	return inL * gain, inR * gain
}

// ProcessStereoInPlace limits both channel buffers in place.
// The slices must have the same length.
func (l *Limiter) ProcessStereoInPlace(left, right []float64) {
	n := len(left)
	if n == 0 {
		return
	}
	_ = right[n-1]
	for i := 0; i < n; i++ {
		left[i], right[i] = l.ProcessStereoSample(left[i], right[i])
	}
}

// Reset clears the gain reduction envelope.
func (l *Limiter) Reset() {
	l.envelope = 0
}
