package eq

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
	"github.com/cwbudde/algo-chain/dsp/filter/design"
)

// Shape selects the filter response of one equalizer band.
type Shape int

const (
	ShapePeaking Shape = iota
	ShapeLowShelf
	ShapeHighShelf
)

func (s Shape) String() string {
	switch s {
	case ShapePeaking:
		return "peaking"
	case ShapeLowShelf:
		return "lowshelf"
	case ShapeHighShelf:
		return "highshelf"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

const (
	minGainDB = -12.0
	maxGainDB = 12.0

	minQ = 0.1
	maxQ = 18.0

	defaultQ = 0.70710678118654752440

	// Default band frequencies span this range geometrically; with ten
	// bands the spacing is exactly one octave.
	minDefaultHz = 31.25
	maxDefaultHz = 16000.0

	gainSmoothingMs = 20.0

	// Coefficient rebuild threshold while a gain glide is in flight.
	gainEps = 1e-6
)

// BandConfig is a partial update for one band. Nil fields keep their
// current value.
type BandConfig struct {
	FrequencyHz *float64
	GainDB      *float64
	Q           *float64
	Shape       *Shape
	Enabled     *bool
}

// BandState is a read-only snapshot of one band's configuration.
// GainDB reports the configured gain even while the band is disabled.
type BandState struct {
	FrequencyHz float64
	GainDB      float64
	Q           float64
	Shape       Shape
	Enabled     bool
}

// Float64Ptr returns a pointer to v, for building BandConfig values.
func Float64Ptr(v float64) *float64 { return &v }

// ShapePtr returns a pointer to s, for building BandConfig values.
func ShapePtr(s Shape) *Shape { return &s }

// BoolPtr returns a pointer to b, for building BandConfig values.
func BoolPtr(b bool) *bool { return &b }

type band struct {
	freqHz  float64
	gainDB  float64 // configured gain, survives disable
	q       float64
	shape   Shape
	enabled bool

	gain     *core.SmoothedParam // effective gain glide in dB
	lastGain float64             // gain baked into the current coefficients

	left  *biquad.Section
	right *biquad.Section
}

// ParametricEQ is a stereo equalizer with a fixed number of bands wired
// as a series cascade. Band order is fixed at construction.
type ParametricEQ struct {
	bands      []band
	sampleRate float64
}

// NewParametricEQ builds an equalizer with numBands peaking bands at
// geometrically spaced default frequencies, all at 0 dB.
func NewParametricEQ(numBands int, sampleRate float64) (*ParametricEQ, error) {
	if numBands < 1 {
		return nil, fmt.Errorf("eq: band count must be at least 1: %d", numBands)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("eq: sample rate must be positive and finite: %f", sampleRate)
	}

	p := &ParametricEQ{
		bands:      make([]band, numBands),
		sampleRate: sampleRate,
	}
	for i := range p.bands {
		b := &p.bands[i]
		b.freqHz = defaultFrequency(i, numBands, sampleRate)
		b.q = defaultQ
		b.shape = ShapePeaking
		b.enabled = true
		b.gain = core.NewSmoothedParam(0, gainSmoothingMs, sampleRate)
		b.left = biquad.NewSection(biquad.Coefficients{B0: 1})
		b.right = biquad.NewSection(biquad.Coefficients{B0: 1})
		p.rebuild(b)
	}
	return p, nil
}

func defaultFrequency(index, numBands int, sampleRate float64) float64 {
	if numBands == 1 {
		return 1000
	}
	ratio := float64(index) / float64(numBands-1)
	f := minDefaultHz * math.Pow(maxDefaultHz/minDefaultHz, ratio)
	return math.Min(f, sampleRate*0.45)
}

// NumBands returns the number of bands fixed at construction.
func (p *ParametricEQ) NumBands() int { return len(p.bands) }

// SampleRate returns the sample rate the filters were designed for.
func (p *ParametricEQ) SampleRate() float64 { return p.sampleRate }

// Band returns a snapshot of one band's configuration.
func (p *ParametricEQ) Band(index int) (BandState, error) {
	if index < 0 || index >= len(p.bands) {
		return BandState{}, fmt.Errorf("eq: band index out of range: %d", index)
	}
	b := &p.bands[index]
	return BandState{
		FrequencyHz: b.freqHz,
		GainDB:      b.gainDB,
		Q:           b.q,
		Shape:       b.shape,
		Enabled:     b.enabled,
	}, nil
}

// SetBand applies a partial configuration to one band. Out-of-range
// values are clamped. Each field is written only if it differs from
// the cached value, so repeated identical writes never restart a gain
// glide. Frequency, Q and shape changes retune the filter immediately;
// gain changes glide.
func (p *ParametricEQ) SetBand(index int, cfg BandConfig) error {
	if index < 0 || index >= len(p.bands) {
		return fmt.Errorf("eq: band index out of range: %d", index)
	}
	b := &p.bands[index]

	retune := false
	if cfg.FrequencyHz != nil && !math.IsNaN(*cfg.FrequencyHz) {
		f := core.Clamp(*cfg.FrequencyHz, 1, p.sampleRate*0.45)
		if !core.NearlyEqual(f, b.freqHz, 1e-9) {
			b.freqHz = f
			retune = true
		}
	}
	if cfg.Q != nil && !math.IsNaN(*cfg.Q) {
		q := core.Clamp(*cfg.Q, minQ, maxQ)
		if !core.NearlyEqual(q, b.q, 1e-9) {
			b.q = q
			retune = true
		}
	}
	if cfg.Shape != nil && *cfg.Shape != b.shape {
		b.shape = *cfg.Shape
		retune = true
	}
	if cfg.GainDB != nil && !math.IsNaN(*cfg.GainDB) {
		b.gainDB = core.Clamp(*cfg.GainDB, minGainDB, maxGainDB)
	}
	if cfg.Enabled != nil {
		b.enabled = *cfg.Enabled
	}

	// The effective gain target is the configured gain, or 0 dB while
	// the band is disabled. SetTarget is itself equality-gated.
	target := 0.0
	if b.enabled {
		target = b.gainDB
	}
	b.gain.SetTarget(target)

	if retune {
		p.rebuild(b)
	}
	return nil
}

// Reset sets all configured gains back to 0 dB immediately and clears
// the filter state of every band.
func (p *ParametricEQ) Reset() {
	for i := range p.bands {
		b := &p.bands[i]
		b.gainDB = 0
		b.gain.Snap(0)
		p.rebuild(b)
		b.left.Reset()
		b.right.Reset()
	}
}

// ProcessBlock runs both channel buffers through the band cascade in
// place. The slices must have the same length.
func (p *ParametricEQ) ProcessBlock(left, right []float64) {
	n := len(left)
	if n == 0 {
		return
	}
	_ = right[n-1]

	for i := range p.bands {
		b := &p.bands[i]
		if !b.gain.Settled() {
			b.gain.TickBlock(n)
		}
		if math.Abs(b.gain.Value()-b.lastGain) > gainEps {
			p.rebuild(b)
		}
		b.left.ProcessBlock(left)
		b.right.ProcessBlock(right)
	}
}

// ProcessMonoBlock runs a single channel through the left cascade.
func (p *ParametricEQ) ProcessMonoBlock(buf []float64) {
	n := len(buf)
	if n == 0 {
		return
	}
	for i := range p.bands {
		b := &p.bands[i]
		if !b.gain.Settled() {
			b.gain.TickBlock(n)
		}
		if math.Abs(b.gain.Value()-b.lastGain) > gainEps {
			p.rebuild(b)
		}
		b.left.ProcessBlock(buf)
	}
}

// rebuild redesigns one band's coefficients from its current tuning and
// the smoothed gain value, preserving filter state.
func (p *ParametricEQ) rebuild(b *band) {
	g := b.gain.Value()
	var c biquad.Coefficients
	switch b.shape {
	case ShapeLowShelf:
		c = design.LowShelf(b.freqHz, g, b.q, p.sampleRate)
	case ShapeHighShelf:
		c = design.HighShelf(b.freqHz, g, b.q, p.sampleRate)
	default:
		c = design.Peak(b.freqHz, g, b.q, p.sampleRate)
	}
	b.left.Coefficients = c
	b.right.Coefficients = c
	b.lastGain = g
}
