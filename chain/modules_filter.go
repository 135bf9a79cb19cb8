package chain

import (
	"math"

	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/effects/eq"
	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
	"github.com/cwbudde/algo-chain/dsp/filter/design"
)

const (
	eqModuleBands    = 10
	minTiltDBPerDec  = -6.0
	maxTiltDBPerDec  = 6.0
	tiltParamEpsilon = 1e-9
)

// eqModule wraps the parametric equalizer and adds a spectral tilt
// stage after the band cascade. Band parameters use keys of the form
// "band<N>.gainDb", "band<N>.freqHz", "band<N>.q" and
// "band<N>.enabled"; the tilt slope is "tiltDbPerDecade".
type eqModule struct {
	moduleBase

	fx         *eq.ParametricEQ
	sampleRate float64

	tiltDBPerDecade float64
	tiltL           *biquad.Chain
	tiltR           *biquad.Chain
}

func newEQModule(ctx Context, id string) (Module, error) {
	fx, err := eq.NewParametricEQ(eqModuleBands, ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	identity := []biquad.Coefficients{{B0: 1}, {B0: 1}}

	return &eqModule{
		moduleBase: newModuleBase(id, TypeEQ),
		fx:         fx,
		sampleRate: ctx.SampleRate,
		tiltL:      biquad.NewChain(identity),
		tiltR:      biquad.NewChain(identity),
	}, nil
}

func (e *eqModule) SetParam(name string, value float64) error {
	if name == "tiltDbPerDecade" {
		e.setTilt(value)
		return nil
	}

	band, field, ok := splitBandKey(name)
	if !ok || band < 0 || band >= e.fx.NumBands() {
		return e.unknownParam(name)
	}

	var cfg eq.BandConfig

	switch field {
	case "gainDb":
		cfg.GainDB = eq.Float64Ptr(value)
	case "freqHz":
		cfg.FrequencyHz = eq.Float64Ptr(value)
	case "q":
		cfg.Q = eq.Float64Ptr(value)
	case "enabled":
		cfg.Enabled = eq.BoolPtr(value != 0)
	default:
		return e.unknownParam(name)
	}

	return e.fx.SetBand(band, cfg)
}

func (e *eqModule) Param(name string) (float64, error) {
	if name == "tiltDbPerDecade" {
		return e.tiltDBPerDecade, nil
	}

	band, field, ok := splitBandKey(name)
	if !ok {
		return 0, e.unknownParam(name)
	}

	state, err := e.fx.Band(band)
	if err != nil {
		return 0, err
	}

	switch field {
	case "gainDb":
		return state.GainDB, nil
	case "freqHz":
		return state.FrequencyHz, nil
	case "q":
		return state.Q, nil
	case "enabled":
		if state.Enabled {
			return 1, nil
		}

		return 0, nil
	default:
		return 0, e.unknownParam(name)
	}
}

// setTilt retunes the tilt shelf pair in place. The chain always holds
// two sections so filter state survives retuning.
func (e *eqModule) setTilt(dbPerDecade float64) {
	if math.IsNaN(dbPerDecade) {
		return
	}

	dbPerDecade = core.Clamp(dbPerDecade, minTiltDBPerDec, maxTiltDBPerDec)
	if core.NearlyEqual(dbPerDecade, e.tiltDBPerDecade, tiltParamEpsilon) {
		return
	}

	e.tiltDBPerDecade = dbPerDecade

	coeffs := design.TiltSections(dbPerDecade, e.sampleRate)
	if coeffs == nil {
		coeffs = []biquad.Coefficients{{B0: 1}, {B0: 1}}
	}

	e.tiltL.UpdateCoefficients(coeffs, 1)
	e.tiltR.UpdateCoefficients(coeffs, 1)
}

func (e *eqModule) ProcessBlock(left, right []float64) {
	e.fx.ProcessBlock(left, right)
	e.tiltL.ProcessBlock(left)
	e.tiltR.ProcessBlock(right)
}

func (e *eqModule) Reset() {
	e.fx.Reset()
	e.tiltL.Reset()
	e.tiltR.Reset()
}

// Enhancer tuning. Intensity scales both the presence shelf and the
// saturation drive; mix blends the processed signal against the dry
// input.
const (
	enhancerShelfHz     = 3000.0
	enhancerMaxLiftDB   = 6.0
	enhancerMaxDrive    = 3.0
	enhancerMixSmoothMs = 20.0
)

// enhancerModule adds presence and density: a high-shelf lift followed
// by soft saturation, blended under a smoothed mix. The sweetener
// drives its (intensity, mix) pair from the measured loudness deficit.
type enhancerModule struct {
	moduleBase

	intensity float64
	mix       *core.SmoothedParam
	drive     float64

	shelfL *biquad.Section
	shelfR *biquad.Section

	sampleRate float64
}

func newEnhancerModule(ctx Context, id string) (Module, error) {
	identity := biquad.Coefficients{B0: 1}

	m := &enhancerModule{
		moduleBase: newModuleBase(id, TypeEnhancer),
		mix:        core.NewSmoothedParam(0, enhancerMixSmoothMs, ctx.SampleRate),
		drive:      1,
		shelfL:     biquad.NewSection(identity),
		shelfR:     biquad.NewSection(identity),
		sampleRate: ctx.SampleRate,
	}

	return m, nil
}

func (e *enhancerModule) SetParam(name string, value float64) error {
	if math.IsNaN(value) {
		return nil
	}

	switch name {
	case "intensity":
		e.setIntensity(core.Clamp(value, 0, 1))
	case "mix":
		e.mix.SetTarget(core.Clamp(value, 0, 1))
	default:
		return e.unknownParam(name)
	}

	return nil
}

func (e *enhancerModule) Param(name string) (float64, error) {
	switch name {
	case "intensity":
		return e.intensity, nil
	case "mix":
		return e.mix.Target(), nil
	default:
		return 0, e.unknownParam(name)
	}
}

func (e *enhancerModule) setIntensity(v float64) {
	if core.NearlyEqual(v, e.intensity, tiltParamEpsilon) {
		return
	}

	e.intensity = v
	e.drive = 1 + enhancerMaxDrive*v

	c := design.HighShelf(enhancerShelfHz, enhancerMaxLiftDB*v, 0, e.sampleRate)
	e.shelfL.Coefficients = c
	e.shelfR.Coefficients = c
}

func (e *enhancerModule) ProcessBlock(left, right []float64) {
	d := e.drive
	for i := range left {
		m := e.mix.Tick()

		wetL := e.shelfL.ProcessSample(math.Tanh(left[i]*d) / d)
		wetR := e.shelfR.ProcessSample(math.Tanh(right[i]*d) / d)

		left[i] = (1-m)*left[i] + m*wetL
		right[i] = (1-m)*right[i] + m*wetR
	}
}

func (e *enhancerModule) Reset() {
	e.mix.Snap(e.mix.Target())
	e.shelfL.Reset()
	e.shelfR.Reset()
}
