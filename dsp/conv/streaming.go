package conv

// StreamingConvolver performs block-by-block convolution with persistent state.
//
// Implementations:
//   - Process input blocks of up to a fixed maximum size
//   - Maintain internal state for continuity between blocks
//   - Support zero-allocation processing via ProcessBlockTo
//   - Use FFT for efficient convolution
type StreamingConvolver interface {
	// ProcessBlock convolves a single input block and returns the output
	// block of the same length. State is maintained between calls to
	// ensure continuity.
	ProcessBlock(input []float64) ([]float64, error)

	// ProcessBlockTo convolves an input block and writes to a
	// pre-allocated output of the same length. This is the
	// zero-allocation path.
	ProcessBlockTo(output, input []float64) error

	// Reset clears internal state for processing a new signal stream.
	Reset()

	// BlockSize returns the maximum input/output block size.
	BlockSize() int

	// KernelLen returns the convolution kernel length.
	KernelLen() int

	// FFTSize returns the internal FFT size used.
	FFTSize() int
}
