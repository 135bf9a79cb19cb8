package chain

import (
	"errors"
	"fmt"
)

// ErrModuleNotFound is returned by Create for an unregistered type.
var ErrModuleNotFound = errors.New("module type not found")

// Factory builds one Module instance with the given node identity.
type Factory func(ctx Context, id string) (Module, error)

// Descriptor describes one registrable module type.
type Descriptor struct {
	Type        string
	DisplayName string
	Factory     Factory
}

// Registry maps module type names to descriptors. It carries no
// package-level state: build one, populate it, and hand it to chain
// construction.
type Registry struct {
	descriptors map[string]Descriptor
	order       []string
	warned      map[string]bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		descriptors: make(map[string]Descriptor),
		warned:      make(map[string]bool),
	}
}

// Register adds a descriptor. Registering a type twice is a no-op
// that keeps the first registration; the duplicate is reported as an
// error and logged at most once per type.
func (r *Registry) Register(ctx Context, d Descriptor) error {
	if d.Type == "" {
		return errors.New("empty module type")
	}

	if d.Factory == nil {
		return errors.New("nil factory")
	}

	if _, exists := r.descriptors[d.Type]; exists {
		if !r.warned[d.Type] {
			r.warned[d.Type] = true
			ctx.log().Warn("duplicate module registration ignored", "type", d.Type)
		}

		return fmt.Errorf("duplicate module type %q", d.Type)
	}

	r.descriptors[d.Type] = d
	r.order = append(r.order, d.Type)

	return nil
}

// Create instantiates a module of the given type.
func (r *Registry) Create(ctx Context, typ, id string) (Module, error) {
	d, ok := r.descriptors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, typ)
	}

	return d.Factory(ctx, id)
}

// List returns the registered descriptors in registration order.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, typ := range r.order {
		out = append(out, r.descriptors[typ])
	}

	return out
}

// RegisterDefaults populates the registry with all built-in module
// types. Safe to call more than once; repeats are ignored.
func RegisterDefaults(ctx Context, r *Registry) *Registry {
	defaults := []Descriptor{
		{Type: TypeGain, DisplayName: "Gain", Factory: newGainModule},
		{Type: TypeEQ, DisplayName: "Parametric EQ", Factory: newEQModule},
		{Type: TypeCompressor, DisplayName: "Compressor", Factory: newCompressorModule},
		{Type: TypeMultiband, DisplayName: "Multiband Compressor", Factory: newMultibandModule},
		{Type: TypeReverb, DisplayName: "Convolution Reverb", Factory: newReverbModule},
		{Type: TypeFDNReverb, DisplayName: "FDN Reverb", Factory: newFDNReverbModule},
		{Type: TypeWidener, DisplayName: "Stereo Widener", Factory: newWidenerModule},
		{Type: TypeSpatializer, DisplayName: "Spatializer", Factory: newSpatializerModule},
		{Type: TypeEnhancer, DisplayName: "Enhancer", Factory: newEnhancerModule},
		{Type: TypeLimiter, DisplayName: "Limiter", Factory: newLimiterModule},
	}

	for _, d := range defaults {
		//nolint:errcheck // duplicates are an expected no-op here
		r.Register(ctx, d)
	}

	return r
}

// Built-in module type names.
const (
	TypeGain        = "gain"
	TypeEQ          = "eq"
	TypeCompressor  = "compressor"
	TypeMultiband   = "multiband"
	TypeReverb      = "reverb"
	TypeFDNReverb   = "fdnreverb"
	TypeWidener     = "widener"
	TypeSpatializer = "spatializer"
	TypeEnhancer    = "enhancer"
	TypeLimiter     = "limiter"
)
