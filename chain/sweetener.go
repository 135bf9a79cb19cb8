package chain

import (
	"github.com/cwbudde/algo-chain/dsp/buffer"
	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/measure/loudness"
)

// Sweetening is the result of one loudness analysis: the pre-gain that
// moves the material toward the target, and the enhancer settings
// matched to how far away it was.
type Sweetening struct {
	// MeasuredDB is the approximate integrated loudness of the
	// analyzed material in dBFS.
	MeasuredDB float64

	// DeltaDB is target minus measured; positive means the material
	// is quieter than the target.
	DeltaDB float64

	// PreGain is the linear gain toward the target.
	PreGain float64

	// Enhancer drive derived from the loudness deficit.
	Intensity float64
	Mix       float64
}

// sweetenerBands maps the loudness deficit onto enhancer settings.
// Material far below target gets density added on top of the makeup
// gain; material at or above target is left nearly untouched.
var sweetenerBands = []struct {
	maxDeltaDB float64
	intensity  float64
	mix        float64
}{
	{maxDeltaDB: 3, intensity: 0.15, mix: 0.1},
	{maxDeltaDB: 9, intensity: 0.4, mix: 0.25},
	{maxDeltaDB: 15, intensity: 0.7, mix: 0.45},
	{intensity: 1, mix: 0.6}, // anything further out
}

// Sweetener analyzes program material offline and derives the chain's
// loudness correction.
type Sweetener struct {
	estimator *loudness.Estimator
	targetDB  float64
}

// NewSweetener creates a sweetener for the given loudness target.
func NewSweetener(targetDB float64, opts ...loudness.Option) *Sweetener {
	return &Sweetener{
		estimator: loudness.NewEstimator(opts...),
		targetDB:  targetDB,
	}
}

// Target returns the loudness target in dBFS.
func (s *Sweetener) Target() float64 { return s.targetDB }

// Analyze measures the buffer and returns the sweetening to apply.
func (s *Sweetener) Analyze(buf *buffer.Buffer) Sweetening {
	measured := s.estimator.Measure(buf)
	delta := s.targetDB - measured

	sw := Sweetening{
		MeasuredDB: measured,
		DeltaDB:    delta,
		PreGain:    loudness.GainForTarget(measured, s.targetDB),
	}

	for _, band := range sweetenerBands[:len(sweetenerBands)-1] {
		if delta <= band.maxDeltaDB {
			sw.Intensity = band.intensity
			sw.Mix = band.mix

			return sw
		}
	}

	last := sweetenerBands[len(sweetenerBands)-1]
	sw.Intensity = last.intensity
	sw.Mix = last.mix

	return sw
}

// ApplySweetening pushes an analysis result into the chain: the
// pre-gain stage and every enhancer module.
func (c *Chain) ApplySweetening(sw Sweetening) {
	c.SetGain(core.LinearToDB(sw.PreGain))

	c.fanOut(TypeEnhancer, "intensity", sw.Intensity)
	c.fanOut(TypeEnhancer, "mix", sw.Mix)
}

// Sweeten analyzes the buffer against the chain's loudness target and
// applies the result in one step. The analysis runs at the chain's
// sample rate.
func (c *Chain) Sweeten(buf *buffer.Buffer) Sweetening {
	sw := NewSweetener(c.targetLoudnessDB, loudness.WithSampleRate(c.ctx.SampleRate)).Analyze(buf)
	c.ApplySweetening(sw)

	return sw
}
