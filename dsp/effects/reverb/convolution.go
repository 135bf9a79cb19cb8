package reverb

import (
	"fmt"
	"math"
	"sync"

	"github.com/cwbudde/algo-chain/dsp/buffer"
	"github.com/cwbudde/algo-chain/dsp/conv"
	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/delay"
	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
	"github.com/cwbudde/algo-chain/dsp/filter/design"
)

const (
	maxPreDelayMs = 250.0

	toneLowShelfHz  = 250.0
	toneHighShelfHz = 4000.0
	maxToneDB       = 12.0

	minModRateHz = 0.01
	maxModRateHz = 5.0

	// Shimmer overlays a brighter wet path and a faster wobble on top
	// of the user's tone and modulation settings.
	shimmerShelfDB   = 6.0
	shimmerRateScale = 4.0

	mixSmoothingMs = 20.0
)

// ConvolutionReverb is a stereo wet/dry reverb that convolves the input
// with an impulse response, either supplied or synthesized from a room
// descriptor.
//
// The wet path is: pre-delay, convolution, tone shelves, slow LFO gain
// modulation. Freeze disconnects the input from the wet path and lets
// the tail ring. Impulse response replacement is atomic: a new response
// is fully prepared before it is swapped in, and a build that is
// superseded by a newer one is discarded.
type ConvolutionReverb struct {
	sampleRate float64
	blockSize  int

	mu      sync.Mutex
	gen     uint64 // committed convolver generation
	nextGen uint64
	convL   *conv.StreamingOverlapAdd
	convR   *conv.StreamingOverlapAdd

	mix      *core.SmoothedParam // wet fraction in [0,1]
	predelay int                 // samples
	delayL   *delay.Line
	delayR   *delay.Line

	lowShelfDB  float64
	highShelfDB float64
	toneL       [2]*biquad.Section
	toneR       [2]*biquad.Section

	modRateHz float64
	modDepth  float64
	lfoPhase  float64

	freeze  bool
	shimmer bool

	wetL, wetR []float64
}

// NewConvolutionReverb builds a reverb that processes blocks of at most
// blockSize samples. Until an impulse response is set the wet path is
// silent and the reverb passes the dry signal through.
func NewConvolutionReverb(blockSize int, sampleRate float64) (*ConvolutionReverb, error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("reverb: block size must be positive: %d", blockSize)
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("reverb: sample rate must be positive and finite: %f", sampleRate)
	}

	maxDelay := int(maxPreDelayMs*0.001*sampleRate) + 1
	dl, err := delay.New(maxDelay)
	if err != nil {
		return nil, err
	}
	dr, err := delay.New(maxDelay)
	if err != nil {
		return nil, err
	}

	r := &ConvolutionReverb{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		mix:        core.NewSmoothedParam(0.3, mixSmoothingMs, sampleRate),
		delayL:     dl,
		delayR:     dr,
		modRateHz:  0.5,
		wetL:       make([]float64, blockSize),
		wetR:       make([]float64, blockSize),
	}
	r.rebuildTone()
	return r, nil
}

// SetImpulseResponse prepares convolvers for the given response and
// swaps them in atomically. A mono buffer feeds both channels. On error
// the previously active response stays in place.
func (r *ConvolutionReverb) SetImpulseResponse(ir *buffer.Buffer) error {
	gen := r.beginBuild()
	convL, convR, err := buildConvolvers(ir, r.blockSize)
	if err != nil {
		return err
	}
	r.commit(gen, convL, convR)
	return nil
}

// GenerateRoom synthesizes an impulse response from the room descriptor
// and installs it. Superseded by any later SetImpulseResponse or
// GenerateRoom call that commits first.
func (r *ConvolutionReverb) GenerateRoom(cfg IRConfig) error {
	gen := r.beginBuild()
	ir, err := GenerateIR(cfg, r.sampleRate)
	if err != nil {
		return err
	}
	convL, convR, err := buildConvolvers(ir, r.blockSize)
	if err != nil {
		return err
	}
	r.commit(gen, convL, convR)
	return nil
}

// GenerateRoomAsync runs GenerateRoom on a background goroutine and
// reports the result on the returned channel. A build that finishes
// after a newer one committed is dropped without error.
func (r *ConvolutionReverb) GenerateRoomAsync(cfg IRConfig) <-chan error {
	done := make(chan error, 1)
	gen := r.beginBuild()
	go func() {
		ir, err := GenerateIR(cfg, r.sampleRate)
		if err != nil {
			done <- err
			return
		}
		convL, convR, err := buildConvolvers(ir, r.blockSize)
		if err != nil {
			done <- err
			return
		}
		r.commit(gen, convL, convR)
		done <- nil
	}()
	return done
}

func (r *ConvolutionReverb) beginBuild() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextGen++
	return r.nextGen
}

// commit installs the convolvers unless a later build already did.
func (r *ConvolutionReverb) commit(gen uint64, convL, convR *conv.StreamingOverlapAdd) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen <= r.gen {
		return
	}
	r.gen = gen
	r.convL = convL
	r.convR = convR
}

func buildConvolvers(ir *buffer.Buffer, blockSize int) (convL, convR *conv.StreamingOverlapAdd, err error) {
	if ir == nil || ir.Len() == 0 {
		return nil, nil, fmt.Errorf("reverb: empty impulse response")
	}
	convL, err = conv.NewStreamingOverlapAdd(ir.Left(), blockSize)
	if err != nil {
		return nil, nil, err
	}
	convR, err = conv.NewStreamingOverlapAdd(ir.Right(), blockSize)
	if err != nil {
		return nil, nil, err
	}
	return convL, convR, nil
}

// SetMix sets the wet fraction in [0,1], clamped and smoothed.
func (r *ConvolutionReverb) SetMix(wet float64) {
	if math.IsNaN(wet) {
		return
	}
	r.mix.SetTarget(core.Clamp(wet, 0, 1))
}

// Mix returns the wet fraction target.
func (r *ConvolutionReverb) Mix() float64 { return r.mix.Target() }

// SetPreDelay sets the wet path pre-delay in milliseconds, clamped to
// [0, 250].
func (r *ConvolutionReverb) SetPreDelay(ms float64) {
	if math.IsNaN(ms) {
		return
	}
	ms = core.Clamp(ms, 0, maxPreDelayMs)
	r.predelay = int(ms * 0.001 * r.sampleRate)
}

// PreDelay returns the pre-delay in milliseconds.
func (r *ConvolutionReverb) PreDelay() float64 {
	return float64(r.predelay) / r.sampleRate * 1000
}

// SetTone adjusts the wet path low and high shelf gains in dB, clamped
// to ±12.
func (r *ConvolutionReverb) SetTone(lowShelfDB, highShelfDB float64) {
	if math.IsNaN(lowShelfDB) || math.IsNaN(highShelfDB) {
		return
	}
	r.lowShelfDB = core.Clamp(lowShelfDB, -maxToneDB, maxToneDB)
	r.highShelfDB = core.Clamp(highShelfDB, -maxToneDB, maxToneDB)
	r.rebuildTone()
}

// Tone returns the wet path low and high shelf gains in dB.
func (r *ConvolutionReverb) Tone() (lowShelfDB, highShelfDB float64) {
	return r.lowShelfDB, r.highShelfDB
}

// SetModulation sets the wet gain LFO rate in Hz and depth in [0,1].
func (r *ConvolutionReverb) SetModulation(rateHz, depth float64) {
	if math.IsNaN(rateHz) || math.IsNaN(depth) {
		return
	}
	r.modRateHz = core.Clamp(rateHz, minModRateHz, maxModRateHz)
	r.modDepth = core.Clamp(depth, 0, 1)
}

// Modulation returns the wet gain LFO rate in Hz and depth.
func (r *ConvolutionReverb) Modulation() (rateHz, depth float64) {
	return r.modRateHz, r.modDepth
}

// SetFreeze disconnects the input from the wet path while true, letting
// the current tail ring out.
func (r *ConvolutionReverb) SetFreeze(on bool) { r.freeze = on }

// Freeze reports whether the wet path input is disconnected.
func (r *ConvolutionReverb) Freeze() bool { return r.freeze }

// SetShimmer toggles the brightened, faster-modulated wet character.
func (r *ConvolutionReverb) SetShimmer(on bool) {
	if r.shimmer == on {
		return
	}
	r.shimmer = on
	r.rebuildTone()
}

// Shimmer reports whether the shimmer overlay is active.
func (r *ConvolutionReverb) Shimmer() bool { return r.shimmer }

func (r *ConvolutionReverb) rebuildTone() {
	high := r.highShelfDB
	if r.shimmer {
		high = core.Clamp(high+shimmerShelfDB, -maxToneDB, maxToneDB)
	}
	low := design.LowShelf(toneLowShelfHz, r.lowShelfDB, 0.707, r.sampleRate)
	hi := design.HighShelf(toneHighShelfHz, high, 0.707, r.sampleRate)
	for i, c := range [2]biquad.Coefficients{low, hi} {
		if r.toneL[i] == nil {
			r.toneL[i] = biquad.NewSection(c)
			r.toneR[i] = biquad.NewSection(c)
			continue
		}
		r.toneL[i].Coefficients = c
		r.toneR[i].Coefficients = c
	}
}

// ProcessStereoInPlace applies the reverb to both channel buffers in
// place. The slices must have equal length, at most the configured
// block size.
func (r *ConvolutionReverb) ProcessStereoInPlace(left, right []float64) error {
	n := len(left)
	if n == 0 {
		return nil
	}
	if len(right) != n {
		return fmt.Errorf("reverb: channel length mismatch: %d vs %d", n, len(right))
	}
	if n > r.blockSize {
		return fmt.Errorf("reverb: block length %d exceeds maximum %d", n, r.blockSize)
	}

	r.mu.Lock()
	convL, convR := r.convL, r.convR
	r.mu.Unlock()
	if convL == nil {
		// No response yet: dry passthrough, but keep the mix glide
		// advancing so a later response fades in from the right level.
		r.mix.TickBlock(n)
		return nil
	}

	wetL := r.wetL[:n]
	wetR := r.wetR[:n]

	// Pre-delayed wet input, or silence while frozen.
	for i := 0; i < n; i++ {
		inL, inR := left[i], right[i]
		if r.freeze {
			inL, inR = 0, 0
		}
		r.delayL.Write(inL)
		r.delayR.Write(inR)
		// Read(1) is the sample just written, so the delay is offset.
		wetL[i] = r.delayL.Read(r.predelay + 1)
		wetR[i] = r.delayR.Read(r.predelay + 1)
	}

	if err := convL.ProcessBlockTo(wetL, wetL); err != nil {
		return err
	}
	if err := convR.ProcessBlockTo(wetR, wetR); err != nil {
		return err
	}

	for i := range r.toneL {
		r.toneL[i].ProcessBlock(wetL)
		r.toneR[i].ProcessBlock(wetR)
	}

	rate := r.modRateHz
	if r.shimmer {
		rate = math.Min(rate*shimmerRateScale, maxModRateHz*shimmerRateScale)
	}
	inc := 2 * math.Pi * rate / r.sampleRate

	for i := 0; i < n; i++ {
		lfo := 1 - r.modDepth*0.5*(1-math.Cos(r.lfoPhase))
		r.lfoPhase += inc
		if r.lfoPhase > 2*math.Pi {
			r.lfoPhase -= 2 * math.Pi
		}
		m := r.mix.Tick()
		left[i] = (1-m)*left[i] + m*lfo*wetL[i]
		right[i] = (1-m)*right[i] + m*lfo*wetR[i]
	}
	return nil
}

// Reset clears convolution tails, delay lines, tone filter state and
// the modulation phase. Parameter targets are kept.
func (r *ConvolutionReverb) Reset() {
	r.mu.Lock()
	convL, convR := r.convL, r.convR
	r.mu.Unlock()
	if convL != nil {
		convL.Reset()
		convR.Reset()
	}
	r.delayL.Reset()
	r.delayR.Reset()
	for i := range r.toneL {
		r.toneL[i].Reset()
		r.toneR[i].Reset()
	}
	r.lfoPhase = 0
	r.mix.Snap(r.mix.Target())
}

// SampleRate returns the sample rate the reverb was built for.
func (r *ConvolutionReverb) SampleRate() float64 { return r.sampleRate }

// BlockSize returns the maximum block length per call.
func (r *ConvolutionReverb) BlockSize() int { return r.blockSize }
