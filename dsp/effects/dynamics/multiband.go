package dynamics

import (
	"fmt"

	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/filter/crossover"
)

// NumBands is the fixed band count of the multiband compressor.
const NumBands = 3

const (
	defaultCrossoverLowHz  = 200.0
	defaultCrossoverHighHz = 2000.0
	defaultCrossoverOrder  = 4

	// Time constant for smoothed per-band parameter updates.
	bandSmoothingMs = 20.0
)

// Float64Ptr returns a pointer to the given float64 value, for use in
// [BandConfig].
func Float64Ptr(v float64) *float64 { return &v }

// BandConfig holds a partial compressor configuration for a single
// frequency band. Nil fields mean "keep the current value".
type BandConfig struct {
	ThresholdDB  *float64
	Ratio        *float64
	AttackMs     *float64
	ReleaseMs    *float64
	MakeupGainDB *float64
}

// bandSmoothing drives the click-free parameter trajectory of one band.
// Threshold, ratio and makeup feed the gain computer directly, so they
// glide; attack and release only reshape envelope coefficients and are
// applied immediately.
type bandSmoothing struct {
	threshold *core.SmoothedParam
	ratio     *core.SmoothedParam
	makeup    *core.SmoothedParam
}

// MultibandCompressor splits stereo input into three frequency bands
// using a coupled Linkwitz-Riley crossover pair, compresses each band
// independently with a stereo-linked [Compressor], and recombines by
// summing the post-compression bands.
//
// The two split frequencies are a single coupled parameter
// ([crossover.Pair]): the mid band's edges are exactly the low and high
// bands' cutoffs, never two free-standing filter settings. Per-band
// parameter changes are smoothed over roughly 20 ms and gated on
// equality, so redundant writes never restart a glide.
type MultibandCompressor struct {
	xoverL *crossover.ThreeBand
	xoverR *crossover.ThreeBand

	comps  [NumBands]*Compressor
	smooth [NumBands]bandSmoothing

	sampleRate float64

	// Per-channel band scratch, grown on demand.
	bandsL [NumBands][]float64
	bandsR [NumBands][]float64
}

// NewMultibandCompressor creates a three-band compressor with the given
// coupled crossover pair and Linkwitz-Riley order. Each band starts
// with compressor defaults (threshold -24 dB, ratio 4:1).
func NewMultibandCompressor(pair crossover.Pair, order int, sampleRate float64) (*MultibandCompressor, error) {
	xoverL, err := crossover.NewThreeBand(pair, order, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("multiband compressor: %w", err)
	}
	xoverR, err := crossover.NewThreeBand(pair, order, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("multiband compressor: %w", err)
	}

	m := &MultibandCompressor{
		xoverL:     xoverL,
		xoverR:     xoverR,
		sampleRate: sampleRate,
	}

	for i := range m.comps {
		c, err := NewCompressor(sampleRate)
		if err != nil {
			return nil, fmt.Errorf("multiband compressor: band %d: %w", i, err)
		}
		m.comps[i] = c
		m.smooth[i] = bandSmoothing{
			threshold: core.NewSmoothedParam(c.Threshold(), bandSmoothingMs, sampleRate),
			ratio:     core.NewSmoothedParam(c.Ratio(), bandSmoothingMs, sampleRate),
			makeup:    core.NewSmoothedParam(c.MakeupGain(), bandSmoothingMs, sampleRate),
		}
	}

	return m, nil
}

// NewDefaultMultibandCompressor creates a three-band compressor with
// splits at 200 Hz and 2 kHz using LR4 crossovers.
func NewDefaultMultibandCompressor(sampleRate float64) (*MultibandCompressor, error) {
	pair, err := crossover.NewPair(defaultCrossoverLowHz, defaultCrossoverHighHz)
	if err != nil {
		return nil, err
	}
	return NewMultibandCompressor(pair, defaultCrossoverOrder, sampleRate)
}

// Crossovers returns the current coupled split frequencies.
func (m *MultibandCompressor) Crossovers() crossover.Pair {
	return m.xoverL.Pair()
}

// SetCrossovers retunes both split points atomically. The values are
// coupled: low must stay below high or the previous tuning is kept and
// an error returned.
func (m *MultibandCompressor) SetCrossovers(lowHz, highHz float64) error {
	pair, err := crossover.NewPair(lowHz, highHz)
	if err != nil {
		return err
	}
	if err := m.xoverL.SetPair(pair); err != nil {
		return err
	}
	return m.xoverR.SetPair(pair)
}

// SetBand applies a partial configuration to one band. Threshold,
// ratio and makeup glide to their new values over the smoothing window;
// attack and release take effect immediately. Values equal to the
// current target are ignored. The index must be in [0, NumBands).
func (m *MultibandCompressor) SetBand(index int, cfg BandConfig) error {
	if index < 0 || index >= NumBands {
		return fmt.Errorf("multiband compressor: band index must be in [0, %d): %d", NumBands, index)
	}

	s := &m.smooth[index]
	c := m.comps[index]

	if cfg.ThresholdDB != nil {
		s.threshold.SetTarget(core.Clamp(*cfg.ThresholdDB, minThresholdDB, maxThresholdDB))
	}
	if cfg.Ratio != nil {
		s.ratio.SetTarget(core.Clamp(*cfg.Ratio, minRatio, maxRatio))
	}
	if cfg.MakeupGainDB != nil {
		s.makeup.SetTarget(core.Clamp(*cfg.MakeupGainDB, minMakeupDB, maxMakeupDB))
	}
	if cfg.AttackMs != nil {
		c.SetAttack(*cfg.AttackMs)
	}
	if cfg.ReleaseMs != nil {
		c.SetRelease(*cfg.ReleaseMs)
	}

	return nil
}

// BandThreshold returns the target threshold of one band in dB.
func (m *MultibandCompressor) BandThreshold(index int) float64 {
	return m.smooth[index].threshold.Target()
}

// BandRatio returns the target ratio of one band.
func (m *MultibandCompressor) BandRatio(index int) float64 {
	return m.smooth[index].ratio.Target()
}

// BandGainReductionDB returns the current gain reduction of one band
// in dB, for metering.
func (m *MultibandCompressor) BandGainReductionDB(index int) float64 {
	return m.comps[index].GainReductionDB()
}

// ProcessStereoInPlace splits, compresses and recombines both channel
// buffers in place. The slices must have the same length.
func (m *MultibandCompressor) ProcessStereoInPlace(left, right []float64) {
	n := len(left)
	if n == 0 {
		return
	}
	_ = right[n-1]

	m.tickSmoothing(n)
	m.ensureScratch(n)

	m.xoverL.ProcessBlock(left, m.bandsL[0][:n], m.bandsL[1][:n], m.bandsL[2][:n])
	m.xoverR.ProcessBlock(right, m.bandsR[0][:n], m.bandsR[1][:n], m.bandsR[2][:n])

	for b := 0; b < NumBands; b++ {
		m.comps[b].ProcessStereoInPlace(m.bandsL[b][:n], m.bandsR[b][:n])
	}

	for i := 0; i < n; i++ {
		left[i] = m.bandsL[0][i] + m.bandsL[1][i] + m.bandsL[2][i]
		right[i] = m.bandsR[0][i] + m.bandsR[1][i] + m.bandsR[2][i]
	}
}

// Reset clears all crossover and compressor state and snaps smoothed
// parameters to their targets.
func (m *MultibandCompressor) Reset() {
	m.xoverL.Reset()
	m.xoverR.Reset()
	for b := 0; b < NumBands; b++ {
		m.comps[b].Reset()
		s := &m.smooth[b]
		s.threshold.Snap(s.threshold.Target())
		s.ratio.Snap(s.ratio.Target())
		s.makeup.Snap(s.makeup.Target())
		m.applyBand(b)
	}
}

// tickSmoothing advances per-band parameter glides by one block and
// pushes the current values into the band compressors.
func (m *MultibandCompressor) tickSmoothing(samples int) {
	for b := 0; b < NumBands; b++ {
		s := &m.smooth[b]
		if s.threshold.Settled() && s.ratio.Settled() && s.makeup.Settled() {
			continue
		}
		s.threshold.TickBlock(samples)
		s.ratio.TickBlock(samples)
		s.makeup.TickBlock(samples)
		m.applyBand(b)
	}
}

func (m *MultibandCompressor) applyBand(b int) {
	s := &m.smooth[b]
	c := m.comps[b]
	c.SetThreshold(s.threshold.Value())
	c.SetRatio(s.ratio.Value())
	c.SetMakeupGain(s.makeup.Value())
}

func (m *MultibandCompressor) ensureScratch(n int) {
	for b := 0; b < NumBands; b++ {
		if cap(m.bandsL[b]) < n {
			m.bandsL[b] = make([]float64, n)
			m.bandsR[b] = make([]float64, n)
		}
	}
}
