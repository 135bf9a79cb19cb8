package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chain/dsp/core"
)

const (
	// Default compressor parameters
	defaultThresholdDB = -24.0
	defaultRatio       = 4.0
	defaultAttackMs    = 10.0
	defaultReleaseMs   = 100.0
	defaultMakeupDB    = 0.0

	// Parameter clamping ranges
	minThresholdDB = -60.0
	maxThresholdDB = 0.0
	minRatio       = 1.0
	maxRatio       = 20.0
	minAttackMs    = 0.1
	maxAttackMs    = 1000.0
	minReleaseMs   = 1.0
	maxReleaseMs   = 5000.0
	minMakeupDB    = -24.0
	maxMakeupDB    = 24.0

	// Detector floor: below this linear peak the detector reports
	// silence rather than diverging toward -inf dB.
	peakFloor   = 1e-10
	peakFloorDB = -120.0
)

// Compressor is a stereo-linked downward compressor.
//
// Both channels share a single gain computer driven by the louder
// channel's peak, so the stereo image does not shift under compression.
// Gain reduction is computed in the dB domain and smoothed by a
// one-pole envelope with separate attack and release coefficients.
//
// Out-of-range parameter values are clamped, never rejected. This
// implementation is single-threaded; parameter changes should occur
// outside audio processing callbacks.
type Compressor struct {
	// User-configurable parameters
	thresholdDB float64
	ratio       float64
	attackMs    float64
	releaseMs   float64
	makeupDB    float64

	sampleRate float64

	// Computed coefficients (cached for performance)
	attackCoeff  float64
	releaseCoeff float64
	makeupLin    float64

	// Smoothed gain reduction in dB (always >= 0)
	envelopeDB float64
}

// NewCompressor creates a stereo-linked compressor with default
// parameters: threshold -24 dB, ratio 4:1, attack 10 ms, release 100 ms.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c := &Compressor{
		thresholdDB: defaultThresholdDB,
		ratio:       defaultRatio,
		attackMs:    defaultAttackMs,
		releaseMs:   defaultReleaseMs,
		makeupDB:    defaultMakeupDB,
		makeupLin:   1,
		sampleRate:  sampleRate,
	}

	c.updateTimeConstants()
	return c, nil
}

// SetThreshold sets the compression threshold in dB, clamped to [-60, 0].
func (c *Compressor) SetThreshold(dB float64) {
	if math.IsNaN(dB) {
		return
	}
	c.thresholdDB = core.Clamp(dB, minThresholdDB, maxThresholdDB)
}

// SetRatio sets the compression ratio, clamped to [1, 20].
// A ratio of 1 means no compression.
func (c *Compressor) SetRatio(ratio float64) {
	if math.IsNaN(ratio) {
		return
	}
	c.ratio = core.Clamp(ratio, minRatio, maxRatio)
}

// SetAttack sets the attack time in milliseconds, clamped to [0.1, 1000].
func (c *Compressor) SetAttack(ms float64) {
	if math.IsNaN(ms) {
		return
	}
	c.attackMs = core.Clamp(ms, minAttackMs, maxAttackMs)
	c.updateTimeConstants()
}

// SetRelease sets the release time in milliseconds, clamped to [1, 5000].
func (c *Compressor) SetRelease(ms float64) {
	if math.IsNaN(ms) {
		return
	}
	c.releaseMs = core.Clamp(ms, minReleaseMs, maxReleaseMs)
	c.updateTimeConstants()
}

// SetMakeupGain sets the output makeup gain in dB, clamped to [-24, 24].
func (c *Compressor) SetMakeupGain(dB float64) {
	if math.IsNaN(dB) {
		return
	}
	c.makeupDB = core.Clamp(dB, minMakeupDB, maxMakeupDB)
	c.makeupLin = core.DBToLinear(c.makeupDB)
}

// SetSampleRate updates the sample rate and recalculates time constants.
func (c *Compressor) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}
	c.sampleRate = sampleRate
	c.updateTimeConstants()
	return nil
}

// Threshold returns the current threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the current compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Attack returns the current attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs }

// Release returns the current release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs }

// MakeupGain returns the current makeup gain in dB.
func (c *Compressor) MakeupGain() float64 { return c.makeupDB }

// SampleRate returns the current sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// GainReductionDB returns the current smoothed gain reduction in dB,
// a non-negative value useful for metering.
func (c *Compressor) GainReductionDB() float64 { return c.envelopeDB }

// ProcessStereoSample compresses one stereo sample pair.
func (c *Compressor) ProcessStereoSample(inL, inR float64) (outL, outR float64) {
	// Peak detection, stereo linked
	peak := math.Abs(inL)
	if r := math.Abs(inR); r > peak {
		peak = r
	}

	gain := c.gainFor(peak)
	return inL * gain, inR * gain
}

// ProcessSample compresses one mono sample.
func (c *Compressor) ProcessSample(x float64) float64 {
	return x * c.gainFor(math.Abs(x))
}

// ProcessStereoInPlace compresses both channel buffers in place.
// The slices must have the same length.
func (c *Compressor) ProcessStereoInPlace(left, right []float64) {
	n := len(left)
	if n == 0 {
		return
	}
	_ = right[n-1]
	for i := 0; i < n; i++ {
		left[i], right[i] = c.ProcessStereoSample(left[i], right[i])
	}
}

// ProcessInPlace compresses a mono buffer in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// Reset clears the envelope follower.
func (c *Compressor) Reset() {
	c.envelopeDB = 0
}

// gainFor runs the detector, gain computer and envelope for one linear
// peak value and returns the combined linear gain including makeup.
func (c *Compressor) gainFor(peak float64) float64 {
	peakDB := peakFloorDB
	if peak > peakFloor {
		peakDB = 20 * math.Log10(peak)
	}

	// Gain computer: reduction needed above threshold
	var reduction float64
	if peakDB > c.thresholdDB {
		excess := peakDB - c.thresholdDB
		reduction = excess - excess/c.ratio
	}

	// Envelope follower: attack when reduction grows, release when it decays
	coeff := c.releaseCoeff
	if reduction > c.envelopeDB {
		coeff = c.attackCoeff
	}
	c.envelopeDB = reduction + coeff*(c.envelopeDB-reduction)

	return core.DBToLinear(-c.envelopeDB) * c.makeupLin
}

func (c *Compressor) updateTimeConstants() {
	c.attackCoeff = math.Exp(-1 / (c.attackMs * 0.001 * c.sampleRate))
	c.releaseCoeff = math.Exp(-1 / (c.releaseMs * 0.001 * c.sampleRate))
}
