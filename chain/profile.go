package chain

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"
)

// Profile is a read-only device tuning loaded from YAML. Every field
// is optional; missing fields keep the default preference values.
//
//	name: desk-speakers
//	sweetener:
//	  targetLufs: -16
//	limiter:
//	  thresholdDb: -0.5
//	  releaseMs: 80
//	  ratio: 20
//	eqTiltDbPerDecade: 0.5
//	monoBelowHz: 120
//	stereoWidth: 1.2
type Profile struct {
	Name string `yaml:"name"`

	Sweetener struct {
		TargetLUFS *float64 `yaml:"targetLufs"`
	} `yaml:"sweetener"`

	Limiter struct {
		ThresholdDB *float64 `yaml:"thresholdDb"`
		ReleaseMs   *float64 `yaml:"releaseMs"`
		Ratio       *float64 `yaml:"ratio"`
	} `yaml:"limiter"`

	EQTiltDBPerDecade *float64 `yaml:"eqTiltDbPerDecade"`
	MonoBelowHz       *float64 `yaml:"monoBelowHz"`
	StereoWidth       *float64 `yaml:"stereoWidth"`
}

// ParseProfile decodes a YAML document into a Profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile

	err := yaml.UnmarshalStrict(data, &p)
	if err != nil {
		return nil, fmt.Errorf("chain: parse profile: %w", err)
	}

	return &p, nil
}

// LoadProfile reads and parses a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("chain: load profile: %w", err)
	}

	return ParseProfile(data)
}

// Preferences maps the profile onto a preference set, starting from
// DefaultPreferences for anything the profile leaves out.
func (p *Profile) Preferences() Preferences {
	prefs := DefaultPreferences()

	setIf := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}

	setIf(&prefs.TargetLoudnessDB, p.Sweetener.TargetLUFS)
	setIf(&prefs.LimiterThresholdDB, p.Limiter.ThresholdDB)
	setIf(&prefs.LimiterReleaseMs, p.Limiter.ReleaseMs)
	setIf(&prefs.LimiterRatio, p.Limiter.Ratio)
	setIf(&prefs.EQTiltDBPerDecade, p.EQTiltDBPerDecade)
	setIf(&prefs.MonoBelowHz, p.MonoBelowHz)
	setIf(&prefs.StereoWidth, p.StereoWidth)

	return prefs
}
