package conv

import (
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
)

// StreamingOverlapAdd implements streaming FFT-based convolution using
// overlap-add. Unlike OverlapAdd which processes entire signals, this
// maintains state for block-by-block processing with minimal allocations.
//
// This is optimized for real-time audio processing where input arrives
// in blocks and output blocks must be continuous across calls. Blocks
// may be shorter than the configured maximum, which accommodates the
// final partial block of a stream and hosts with variable buffer sizes.
type StreamingOverlapAdd struct {
	// Kernel in frequency domain
	kernelFFT []complex128

	// Configuration
	kernelLen int // Original kernel length
	blockSize int // Maximum input/output block size
	fftSize   int // FFT size (blockSize + kernelLen - 1, rounded to power of 2)

	// FFT plan
	plan *algofft.Plan[complex128]

	// Reusable buffers (pre-allocated to avoid allocations per block)
	inputPadded  []complex128
	outputPadded []complex128
	convResult   []float64 // Full convolution result (n + kernelLen - 1)

	// Overlap state (tail carried into the next block)
	tail []float64
}

// NewStreamingOverlapAdd creates a streaming overlap-add convolver.
// blockSize is the maximum size of input and output blocks.
func NewStreamingOverlapAdd(kernel []float64, blockSize int) (*StreamingOverlapAdd, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBlockSize, blockSize)
	}

	kernelLen := len(kernel)

	// FFT size must accommodate block + kernel - 1 for linear convolution
	minFFTSize := blockSize + kernelLen - 1
	fftSize := nextPowerOf2(minFFTSize)

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	soa := &StreamingOverlapAdd{
		kernelFFT:    make([]complex128, fftSize),
		kernelLen:    kernelLen,
		blockSize:    blockSize,
		fftSize:      fftSize,
		plan:         plan,
		inputPadded:  make([]complex128, fftSize),
		outputPadded: make([]complex128, fftSize),
		convResult:   make([]float64, blockSize+kernelLen-1),
		tail:         make([]float64, kernelLen-1),
	}

	// Compute kernel FFT
	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}

	err = plan.Forward(soa.kernelFFT, kernelPadded)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return soa, nil
}

// ProcessBlock convolves a single block and returns the output block.
// The input may hold up to blockSize samples; the output has the same
// length. State is maintained between calls to ensure continuity.
func (soa *StreamingOverlapAdd) ProcessBlock(input []float64) ([]float64, error) {
	output := make([]float64, len(input))
	if err := soa.ProcessBlockTo(output, input); err != nil {
		return nil, err
	}
	return output, nil
}

// ProcessBlockTo convolves an input block and writes to a pre-allocated
// output of the same length. The block may hold up to blockSize samples.
// This is the zero-allocation path.
func (soa *StreamingOverlapAdd) ProcessBlockTo(output, input []float64) error {
	n := len(input)
	if n == 0 || n > soa.blockSize {
		return fmt.Errorf("%w: block must hold 1..%d samples, got %d", ErrLengthMismatch, soa.blockSize, n)
	}
	if len(output) != n {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, n, len(output))
	}

	// Zero-pad input to FFT size
	for i := range soa.inputPadded {
		soa.inputPadded[i] = 0
	}
	for i := 0; i < n; i++ {
		soa.inputPadded[i] = complex(input[i], 0)
	}

	// Forward FFT of input block
	err := soa.plan.Forward(soa.inputPadded, soa.inputPadded)
	if err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	// Multiply in frequency domain
	for i := range soa.outputPadded {
		soa.outputPadded[i] = soa.inputPadded[i] * soa.kernelFFT[i]
	}

	// Inverse FFT
	err = soa.plan.Inverse(soa.outputPadded, soa.outputPadded)
	if err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	// Extract real part and add the tail from previous blocks
	resultLen := n + soa.kernelLen - 1
	for i := 0; i < resultLen; i++ {
		soa.convResult[i] = real(soa.outputPadded[i])
	}

	tailLen := len(soa.tail)
	for i := 0; i < tailLen && i < resultLen; i++ {
		soa.convResult[i] += soa.tail[i]
	}

	// Write output block
	copy(output, soa.convResult[:n])

	// Update tail for the next block. The full old tail was folded into
	// convResult above (tailLen <= resultLen always), so any unconsumed
	// tail samples for a short block are already present in the region
	// copied here.
	for i := 0; i < tailLen; i++ {
		soa.tail[i] = soa.convResult[n+i]
	}

	return nil
}

// Reset clears the tail buffer (overlap state from previous blocks).
func (soa *StreamingOverlapAdd) Reset() {
	for i := range soa.tail {
		soa.tail[i] = 0
	}
}

// BlockSize returns the maximum block size.
func (soa *StreamingOverlapAdd) BlockSize() int {
	return soa.blockSize
}

// KernelLen returns the kernel length.
func (soa *StreamingOverlapAdd) KernelLen() int {
	return soa.kernelLen
}

// FFTSize returns the FFT size.
func (soa *StreamingOverlapAdd) FFTSize() int {
	return soa.fftSize
}
