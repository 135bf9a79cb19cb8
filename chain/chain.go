package chain

import (
	"errors"
	"fmt"
)

// ErrModuleExists is returned when adding a module whose id is taken.
var ErrModuleExists = errors.New("module id already in chain")

// ErrModuleUnknown is returned when an operation names a module id the
// chain does not hold.
var ErrModuleUnknown = errors.New("module id not in chain")

// Chain runs an ordered list of modules between a shared input and
// output. A pre-gain stage always runs first and a brickwall limiter
// always runs last; the orderable modules sit between the two.
//
// Parameter writes and rebuilds are expected from one control
// goroutine; Process is called from the audio goroutine. Modules keep
// their own writes click-free, and expensive work (impulse response
// builds) never runs on the audio path.
type Chain struct {
	ctx      Context
	registry *Registry

	pregain Module
	limiter Module

	order []Module
	byID  map[string]Module

	bypassed         bool
	targetLoudnessDB float64
}

// NewChain creates an empty chain with its fixed pre-gain and limiter
// stages.
func NewChain(ctx Context, registry *Registry) (*Chain, error) {
	pregain, err := registry.Create(ctx, TypeGain, "pregain")
	if err != nil {
		return nil, fmt.Errorf("chain: pregain: %w", err)
	}

	limiter, err := registry.Create(ctx, TypeLimiter, "output-limiter")
	if err != nil {
		return nil, fmt.Errorf("chain: limiter: %w", err)
	}

	return &Chain{
		ctx:      ctx,
		registry: registry,
		pregain:  pregain,
		limiter:  limiter,
		byID:     make(map[string]Module),
	}, nil
}

// Add instantiates a module of the given type and appends it to the
// chain order.
func (c *Chain) Add(typ, id string) (Module, error) {
	if id == "" {
		return nil, errors.New("chain: empty module id")
	}

	if _, exists := c.byID[id]; exists || id == c.pregain.ID() || id == c.limiter.ID() {
		return nil, fmt.Errorf("chain: %w: %q", ErrModuleExists, id)
	}

	m, err := c.registry.Create(c.ctx, typ, id)
	if err != nil {
		return nil, err
	}

	c.byID[id] = m
	c.order = append(c.order, m)

	return m, nil
}

// Remove closes the module and detaches it from the chain.
func (c *Chain) Remove(id string) error {
	m, ok := c.byID[id]
	if !ok {
		return fmt.Errorf("chain: %w: %q", ErrModuleUnknown, id)
	}

	delete(c.byID, id)

	for i, mod := range c.order {
		if mod == m {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	return m.Close()
}

// Module returns the module with the given id, or nil.
func (c *Chain) Module(id string) Module {
	return c.byID[id]
}

// Order returns the module ids in processing order.
func (c *Chain) Order() []string {
	ids := make([]string, len(c.order))
	for i, m := range c.order {
		ids[i] = m.ID()
	}

	return ids
}

// SetOrder rewires the chain to the given id sequence. Every currently
// held module must appear exactly once; unknown or duplicate ids leave
// the existing order untouched.
func (c *Chain) SetOrder(ids []string) error {
	if len(ids) != len(c.order) {
		return fmt.Errorf("chain: order lists %d modules, chain holds %d", len(ids), len(c.order))
	}

	next := make([]Module, 0, len(ids))
	seen := make(map[string]bool, len(ids))

	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("chain: %w in order: %q", ErrModuleExists, id)
		}

		seen[id] = true

		m, ok := c.byID[id]
		if !ok {
			return fmt.Errorf("chain: %w: %q", ErrModuleUnknown, id)
		}

		next = append(next, m)
	}

	c.order = next

	return nil
}

// ToggleBypass flips the chain between processing and a direct
// input-to-output path. Module state is preserved, so toggling twice
// leaves the chain exactly as it was. Returns the new bypass state.
func (c *Chain) ToggleBypass() bool {
	c.bypassed = !c.bypassed
	return c.bypassed
}

// Bypassed reports whether the chain passes audio through untouched.
func (c *Chain) Bypassed() bool { return c.bypassed }

// Process runs the block through the chain in-place: pre-gain, the
// ordered modules (disabled ones skipped), then the limiter.
func (c *Chain) Process(left, right []float64) {
	if c.bypassed || len(left) == 0 {
		return
	}

	c.pregain.ProcessBlock(left, right)

	for _, m := range c.order {
		if !m.Enabled() {
			continue
		}

		m.ProcessBlock(left, right)
	}

	c.limiter.ProcessBlock(left, right)
}

// Reset clears the processing state of every module, fixed stages
// included. Parameter targets survive.
func (c *Chain) Reset() {
	c.pregain.Reset()

	for _, m := range c.order {
		m.Reset()
	}

	c.limiter.Reset()
}

// Close closes all modules. Safe to call more than once.
func (c *Chain) Close() error {
	var firstErr error

	closeModule := func(m Module) {
		if err := m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	closeModule(c.pregain)

	for _, m := range c.order {
		closeModule(m)
	}

	closeModule(c.limiter)

	return firstErr
}

// SetGain sets the pre-gain in dB.
func (c *Chain) SetGain(db float64) {
	//nolint:errcheck // gainDb is a known parameter
	c.pregain.SetParam("gainDb", db)
}

// SetStereoWidth fans the width out to every widener module.
func (c *Chain) SetStereoWidth(width float64) {
	c.fanOut(TypeWidener, "width", width)
}

// SetCompressor fans threshold and ratio out to every wideband
// compressor module.
func (c *Chain) SetCompressor(thresholdDB, ratio float64) {
	c.fanOut(TypeCompressor, "thresholdDb", thresholdDB)
	c.fanOut(TypeCompressor, "ratio", ratio)
}

// SetEQGain sets one band's gain on every EQ module.
func (c *Chain) SetEQGain(band int, gainDB float64) {
	c.fanOut(TypeEQ, bandKey(band, "gainDb"), gainDB)
}

func (c *Chain) fanOut(typ, name string, value float64) {
	for _, m := range c.order {
		if m.Type() != typ {
			continue
		}

		if err := m.SetParam(name, value); err != nil {
			c.ctx.log().Warn("parameter fan-out failed",
				"module", m.ID(), "param", name, "error", err)
		}
	}
}
