package buffer

import (
	"fmt"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Buffer holds planar multichannel audio at a fixed sample rate.
// Channels share a common length. DSP functions accept raw []float64
// slices; use Channel, Left and Right to bridge.
type Buffer struct {
	sampleRate float64
	chans      [][]float64
}

// New returns a zero-filled Buffer with the given channel count and length.
func New(channels, length int, sampleRate float64) *Buffer {
	if channels < 1 {
		channels = 1
	}
	if length < 0 {
		length = 0
	}
	chans := make([][]float64, channels)
	for c := range chans {
		chans[c] = make([]float64, length)
	}
	return &Buffer{sampleRate: sampleRate, chans: chans}
}

// FromSlices wraps existing channel slices without copying.
// All channels must share the same length.
func FromSlices(chans [][]float64, sampleRate float64) (*Buffer, error) {
	if len(chans) == 0 {
		return nil, fmt.Errorf("buffer: need at least one channel")
	}
	n := len(chans[0])
	for c := 1; c < len(chans); c++ {
		if len(chans[c]) != n {
			return nil, fmt.Errorf("buffer: channel %d has length %d, want %d", c, len(chans[c]), n)
		}
	}
	return &Buffer{sampleRate: sampleRate, chans: chans}, nil
}

// Channels returns the channel count.
func (b *Buffer) Channels() int { return len(b.chans) }

// Len returns the per-channel length in samples.
func (b *Buffer) Len() int {
	if len(b.chans) == 0 {
		return 0
	}
	return len(b.chans[0])
}

// SampleRate returns the sample rate in Hz.
func (b *Buffer) SampleRate() float64 { return b.sampleRate }

// Channel returns the backing slice for channel c.
func (b *Buffer) Channel(c int) []float64 { return b.chans[c] }

// Left returns channel 0.
func (b *Buffer) Left() []float64 { return b.chans[0] }

// Right returns channel 1 for stereo buffers, channel 0 otherwise.
func (b *Buffer) Right() []float64 {
	if len(b.chans) > 1 {
		return b.chans[1]
	}
	return b.chans[0]
}

// Resize grows or shrinks every channel to length, reusing capacity
// where possible. Retained samples are zeroed so stale data never
// leaks into new blocks.
func (b *Buffer) Resize(length int) {
	if length < 0 {
		length = 0
	}
	for c, ch := range b.chans {
		if cap(ch) >= length {
			ch = ch[:length]
			for i := range ch {
				ch[i] = 0
			}
		} else {
			ch = make([]float64, length)
		}
		b.chans[c] = ch
	}
}

// Zero sets all samples in all channels to 0.
func (b *Buffer) Zero() {
	for _, ch := range b.chans {
		for i := range ch {
			ch[i] = 0
		}
	}
}

// Copy returns a deep copy of the buffer.
func (b *Buffer) Copy() *Buffer {
	chans := make([][]float64, len(b.chans))
	for c, ch := range b.chans {
		chans[c] = make([]float64, len(ch))
		copy(chans[c], ch)
	}
	return &Buffer{sampleRate: b.sampleRate, chans: chans}
}

// ApplyGain multiplies every channel by a linear gain factor.
func (b *Buffer) ApplyGain(gain float64) {
	for _, ch := range b.chans {
		vecmath.ScaleBlockInPlace(ch, gain)
	}
}

// Peak returns the largest absolute sample value across all channels.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, ch := range b.chans {
		for _, v := range ch {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
	}
	return peak
}

// MixInto adds src scaled by gain into dst. Slices must share a length.
func MixInto(dst, src []float64, gain float64) {
	if gain == 1 {
		vecmath.AddBlockInPlace(dst, src)
		return
	}
	for i := range dst {
		dst[i] += src[i] * gain
	}
}

// ScaleInto writes src scaled by gain into dst.
func ScaleInto(dst, src []float64, gain float64) {
	vecmath.ScaleBlock(dst, src, gain)
}
