package core

import "math"

const (
	// DefaultSmoothingMs is the default parameter smoothing time constant.
	// Short enough to feel immediate, long enough to avoid zipper noise.
	DefaultSmoothingMs = 20.0

	smoothEqualityEps = 1e-9
)

// SmoothedParam ramps a control value toward its target with a one-pole
// smoother so that parameter changes never step audibly. Writes are
// equality-gated: setting the same target twice does not retrigger the
// smoothing ramp.
//
// SmoothedParam is single-writer and not thread-safe, matching the
// control-thread discipline of the chain.
type SmoothedParam struct {
	current float64
	target  float64
	coeff   float64
	keep    float64 // 1 - coeff, cached for block advancement
}

// NewSmoothedParam creates a smoother resting at initial with the given
// time constant in milliseconds. A non-positive time constant or sample
// rate yields an instant (non-smoothing) parameter.
func NewSmoothedParam(initial, timeConstantMs, sampleRate float64) *SmoothedParam {
	p := &SmoothedParam{current: initial, target: initial}
	p.SetTimeConstant(timeConstantMs, sampleRate)

	return p
}

// SetTimeConstant updates the smoothing time constant.
func (p *SmoothedParam) SetTimeConstant(timeConstantMs, sampleRate float64) {
	if timeConstantMs <= 0 || sampleRate <= 0 {
		p.coeff = 1
		p.keep = 0

		return
	}

	p.keep = math.Exp(-1.0 / (timeConstantMs * 0.001 * sampleRate))
	p.coeff = 1 - p.keep
}

// SetTarget sets a new target value. Returns false without retriggering
// the ramp when v equals the current target within a small epsilon.
func (p *SmoothedParam) SetTarget(v float64) bool {
	if math.Abs(v-p.target) <= smoothEqualityEps {
		return false
	}

	p.target = v

	return true
}

// Snap jumps current and target to v without smoothing.
func (p *SmoothedParam) Snap(v float64) {
	p.current = v
	p.target = v
}

// Tick advances the smoother by one sample and returns the new value.
func (p *SmoothedParam) Tick() float64 {
	p.current += (p.target - p.current) * p.coeff
	if NearlyEqual(p.current, p.target, smoothEqualityEps) {
		p.current = p.target
	}

	return p.current
}

// TickBlock advances the smoother by n samples in one step and returns
// the value after the block. Equivalent to calling Tick n times.
func (p *SmoothedParam) TickBlock(n int) float64 {
	if n <= 0 {
		return p.current
	}

	p.current = p.target + (p.current-p.target)*math.Pow(p.keep, float64(n))
	if NearlyEqual(p.current, p.target, smoothEqualityEps) {
		p.current = p.target
	}

	return p.current
}

// Value returns the current smoothed value without advancing.
func (p *SmoothedParam) Value() float64 { return p.current }

// Target returns the target value.
func (p *SmoothedParam) Target() float64 { return p.target }

// Settled reports whether the smoother has reached its target.
func (p *SmoothedParam) Settled() bool {
	return p.current == p.target
}
