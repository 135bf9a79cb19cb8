package chain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/effects/dynamics"
)

// Gain module parameter range.
const (
	minGainDB = -24.0
	maxGainDB = 24.0

	gainSmoothingMs = 20.0
)

// gainModule is a smoothed wideband gain stage. It doubles as the
// chain's sweetener pre-gain.
type gainModule struct {
	moduleBase

	gainDB float64
	gain   *core.SmoothedParam
}

func newGainModule(ctx Context, id string) (Module, error) {
	return &gainModule{
		moduleBase: newModuleBase(id, TypeGain),
		gain:       core.NewSmoothedParam(1, gainSmoothingMs, ctx.SampleRate),
	}, nil
}

func (g *gainModule) SetParam(name string, value float64) error {
	if name != "gainDb" {
		return g.unknownParam(name)
	}

	db := core.Clamp(value, minGainDB, maxGainDB)
	if g.gain.SetTarget(core.DBToLinear(db)) {
		g.gainDB = db
	}

	return nil
}

func (g *gainModule) Param(name string) (float64, error) {
	if name != "gainDb" {
		return 0, g.unknownParam(name)
	}

	return g.gainDB, nil
}

func (g *gainModule) ProcessBlock(left, right []float64) {
	for i := range left {
		v := g.gain.Tick()
		left[i] *= v
		right[i] *= v
	}
}

func (g *gainModule) Reset() {
	g.gain.Snap(core.DBToLinear(g.gainDB))
}

// compressorModule wraps the stereo-linked wideband compressor.
type compressorModule struct {
	moduleBase

	fx *dynamics.Compressor
}

func newCompressorModule(ctx Context, id string) (Module, error) {
	fx, err := dynamics.NewCompressor(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	return &compressorModule{moduleBase: newModuleBase(id, TypeCompressor), fx: fx}, nil
}

func (c *compressorModule) SetParam(name string, value float64) error {
	switch name {
	case "thresholdDb":
		c.fx.SetThreshold(value)
	case "ratio":
		c.fx.SetRatio(value)
	case "attackMs":
		c.fx.SetAttack(value)
	case "releaseMs":
		c.fx.SetRelease(value)
	case "makeupDb":
		c.fx.SetMakeupGain(value)
	default:
		return c.unknownParam(name)
	}

	return nil
}

func (c *compressorModule) Param(name string) (float64, error) {
	switch name {
	case "thresholdDb":
		return c.fx.Threshold(), nil
	case "ratio":
		return c.fx.Ratio(), nil
	case "attackMs":
		return c.fx.Attack(), nil
	case "releaseMs":
		return c.fx.Release(), nil
	case "makeupDb":
		return c.fx.MakeupGain(), nil
	default:
		return 0, c.unknownParam(name)
	}
}

func (c *compressorModule) ProcessBlock(left, right []float64) {
	c.fx.ProcessStereoInPlace(left, right)
}

func (c *compressorModule) Reset() { c.fx.Reset() }

// multibandModule wraps the three-band compressor. Crossover writes
// keep the coupled pair ordered by clamping the incoming edge against
// the other one.
type multibandModule struct {
	moduleBase

	fx         *dynamics.MultibandCompressor
	sampleRate float64

	attackMs  [3]float64
	releaseMs [3]float64
}

func newMultibandModule(ctx Context, id string) (Module, error) {
	fx, err := dynamics.NewDefaultMultibandCompressor(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	m := &multibandModule{
		moduleBase: newModuleBase(id, TypeMultiband),
		fx:         fx,
		sampleRate: ctx.SampleRate,
	}
	for b := range m.attackMs {
		m.attackMs[b] = 10
		m.releaseMs[b] = 100
	}

	return m, nil
}

func (m *multibandModule) SetParam(name string, value float64) error {
	switch name {
	case "crossoverLowHz":
		pair := m.fx.Crossovers()
		low := core.Clamp(value, 20, pair.HighHz*0.5)

		return m.fx.SetCrossovers(low, pair.HighHz)
	case "crossoverHighHz":
		pair := m.fx.Crossovers()
		high := core.Clamp(value, pair.LowHz*2, m.sampleRate*0.45)

		return m.fx.SetCrossovers(pair.LowHz, high)
	}

	band, field, ok := splitBandKey(name)
	if !ok || band < 0 || band > 2 {
		return m.unknownParam(name)
	}

	var cfg dynamics.BandConfig

	switch field {
	case "thresholdDb":
		cfg.ThresholdDB = dynamics.Float64Ptr(value)
	case "ratio":
		cfg.Ratio = dynamics.Float64Ptr(value)
	case "attackMs":
		cfg.AttackMs = dynamics.Float64Ptr(value)
	case "releaseMs":
		cfg.ReleaseMs = dynamics.Float64Ptr(value)
	case "makeupDb":
		cfg.MakeupGainDB = dynamics.Float64Ptr(value)
	default:
		return m.unknownParam(name)
	}

	err := m.fx.SetBand(band, cfg)
	if err != nil {
		return err
	}

	switch field {
	case "attackMs":
		m.attackMs[band] = core.Clamp(value, 0.1, 1000)
	case "releaseMs":
		m.releaseMs[band] = core.Clamp(value, 1, 5000)
	}

	return nil
}

func (m *multibandModule) Param(name string) (float64, error) {
	switch name {
	case "crossoverLowHz":
		return m.fx.Crossovers().LowHz, nil
	case "crossoverHighHz":
		return m.fx.Crossovers().HighHz, nil
	}

	band, field, ok := splitBandKey(name)
	if !ok || band < 0 || band > 2 {
		return 0, m.unknownParam(name)
	}

	switch field {
	case "thresholdDb":
		return m.fx.BandThreshold(band), nil
	case "ratio":
		return m.fx.BandRatio(band), nil
	case "attackMs":
		return m.attackMs[band], nil
	case "releaseMs":
		return m.releaseMs[band], nil
	default:
		return 0, m.unknownParam(name)
	}
}

func (m *multibandModule) ProcessBlock(left, right []float64) {
	m.fx.ProcessStereoInPlace(left, right)
}

func (m *multibandModule) Reset() { m.fx.Reset() }

// limiterModule wraps the brickwall output limiter.
type limiterModule struct {
	moduleBase

	fx        *dynamics.Limiter
	releaseMs float64
}

func newLimiterModule(ctx Context, id string) (Module, error) {
	fx, err := dynamics.NewLimiter(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	return &limiterModule{
		moduleBase: newModuleBase(id, TypeLimiter),
		fx:         fx,
		releaseMs:  50,
	}, nil
}

func (l *limiterModule) SetParam(name string, value float64) error {
	switch name {
	case "thresholdDb":
		l.fx.SetThreshold(value)
	case "releaseMs":
		l.fx.SetRelease(value)
		l.releaseMs = core.Clamp(value, 1, 1000)
	case "ratio":
		l.fx.SetRatio(value)
	default:
		return l.unknownParam(name)
	}

	return nil
}

func (l *limiterModule) Param(name string) (float64, error) {
	switch name {
	case "thresholdDb":
		return core.LinearToDB(l.fx.Threshold()), nil
	case "releaseMs":
		return l.releaseMs, nil
	case "ratio":
		return l.fx.Ratio(), nil
	default:
		return 0, l.unknownParam(name)
	}
}

func (l *limiterModule) ProcessBlock(left, right []float64) {
	l.fx.ProcessStereoInPlace(left, right)
}

func (l *limiterModule) Reset() { l.fx.Reset() }

// splitBandKey parses keys of the form "band<N>.<field>".
func splitBandKey(name string) (band int, field string, ok bool) {
	rest, found := strings.CutPrefix(name, "band")
	if !found {
		return 0, "", false
	}

	idx, field, found := strings.Cut(rest, ".")
	if !found || idx == "" || field == "" {
		return 0, "", false
	}

	band, err := strconv.Atoi(idx)
	if err != nil {
		return 0, "", false
	}

	return band, field, true
}

// bandKey formats a multiband or EQ parameter key.
func bandKey(band int, field string) string {
	return fmt.Sprintf("band%d.%s", band, field)
}
