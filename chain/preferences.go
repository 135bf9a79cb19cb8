package chain

import "fmt"

// Preferences holds the listener-facing tuning that New maps onto a
// standard chain. Zero values are meaningful (no tilt, no bass mono),
// so start from DefaultPreferences and override.
type Preferences struct {
	// TargetLoudnessDB is the sweetener's integrated loudness target
	// in dBFS (approximate LUFS).
	TargetLoudnessDB float64

	// Output limiter stage.
	LimiterThresholdDB float64
	LimiterReleaseMs   float64
	LimiterRatio       float64

	// EQTiltDBPerDecade brightens (positive) or darkens (negative)
	// the whole spectrum around a fixed pivot.
	EQTiltDBPerDecade float64

	// MonoBelowHz folds the side channel to mono below this frequency;
	// 0 disables.
	MonoBelowHz float64

	// StereoWidth is the M/S width in [0, 4]; 1 is unchanged.
	StereoWidth float64
}

// DefaultPreferences returns the standard tuning: streaming-style
// loudness target, brickwall limiter just under full scale, flat tilt,
// untouched stereo image.
func DefaultPreferences() Preferences {
	return Preferences{
		TargetLoudnessDB:   -14,
		LimiterThresholdDB: -0.2,
		LimiterReleaseMs:   50,
		LimiterRatio:       20,
		EQTiltDBPerDecade:  0,
		MonoBelowHz:        0,
		StereoWidth:        1,
	}
}

// Standard chain module ids, in processing order.
const (
	StandardEQID         = "eq"
	StandardCompressorID = "comp"
	StandardEnhancerID   = "enhancer"
	StandardWidenerID    = "widener"
)

// New builds the standard chain from preferences: pre-gain, parametric
// EQ with tilt, wideband compressor, enhancer, stereo widener, output
// limiter. Out-of-range preference values are clamped by the modules,
// never rejected.
func New(ctx Context, registry *Registry, prefs Preferences) (*Chain, error) {
	c, err := NewChain(ctx, registry)
	if err != nil {
		return nil, err
	}

	modules := []struct {
		typ, id string
	}{
		{TypeEQ, StandardEQID},
		{TypeCompressor, StandardCompressorID},
		{TypeEnhancer, StandardEnhancerID},
		{TypeWidener, StandardWidenerID},
	}

	for _, spec := range modules {
		_, err = c.Add(spec.typ, spec.id)
		if err != nil {
			return nil, fmt.Errorf("chain: build %s: %w", spec.id, err)
		}
	}

	c.targetLoudnessDB = prefs.TargetLoudnessDB

	_ = c.limiter.SetParam("thresholdDb", prefs.LimiterThresholdDB)
	_ = c.limiter.SetParam("releaseMs", prefs.LimiterReleaseMs)
	_ = c.limiter.SetParam("ratio", prefs.LimiterRatio)

	_ = c.Module(StandardEQID).SetParam("tiltDbPerDecade", prefs.EQTiltDBPerDecade)
	_ = c.Module(StandardWidenerID).SetParam("width", prefs.StereoWidth)
	_ = c.Module(StandardWidenerID).SetParam("monoBelowHz", prefs.MonoBelowHz)

	return c, nil
}

// TargetLoudness returns the sweetener loudness target in dBFS.
func (c *Chain) TargetLoudness() float64 { return c.targetLoudnessDB }
