// Package dynamics provides stereo-linked dynamics processors: a
// downward compressor, a brickwall limiter, and a three-band multiband
// compressor built on coupled Linkwitz-Riley crossovers.
//
// All processors share the same gain-computer topology: peak detection
// linked across both channels, gain reduction computed in the dB
// domain, and a one-pole envelope smoothing the reduction with
// separate attack and release coefficients. Out-of-range parameter
// values are clamped to their documented ranges, never rejected.
package dynamics
