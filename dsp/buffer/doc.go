// Package buffer provides a planar multichannel audio buffer for
// allocation-friendly DSP processing. All DSP functions accept raw
// []float64 slices; Buffer carries the channel layout and sample rate
// and helps callers manage allocation and reuse in hot paths.
package buffer
