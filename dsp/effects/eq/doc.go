// Package eq implements a stereo parametric equalizer built from a
// fixed series cascade of second-order sections.
//
// Each band owns a frequency, gain, Q and filter shape (peaking, low
// shelf or high shelf). Band writes are equality-gated and gain changes
// glide with a short smoothing time constant so in-flight automation
// never steps the filter audibly. Disabling a band flattens it to 0 dB
// while preserving the configured gain for re-enable.
package eq
