package design

import (
	"math"

	"github.com/cwbudde/algo-chain/dsp/filter/biquad"
)

// Tilt filter pivot and shelf corner placement. The pivot sits at the
// geometric mean of the audible band; the shelves a decade either side.
const (
	tiltLowShelfHz  = 200.0
	tiltHighShelfHz = 2000.0
)

// TiltSections designs a spectral tilt as a complementary shelf pair.
//
// dbPerDecade is the slope of the tilt: positive values brighten
// (boost highs, cut lows), negative values darken. The response is
// flat at the pivot between the two shelf corners. The audible band
// spans roughly three decades, so the total top-to-bottom spread is
// about 3*dbPerDecade.
//
// A dbPerDecade of 0 returns nil, meaning no sections are needed.
func TiltSections(dbPerDecade, sampleRate float64) []biquad.Coefficients {
	if dbPerDecade == 0 || math.IsNaN(dbPerDecade) {
		return nil
	}

	// Each shelf covers half the spread around the pivot.
	half := dbPerDecade * 1.5

	return []biquad.Coefficients{
		LowShelf(tiltLowShelfHz, -half, defaultQ, sampleRate),
		HighShelf(tiltHighShelfHz, half, defaultQ, sampleRate),
	}
}
