// Package conv provides convolution routines for audio processing.
//
// The package offers multiple convolution strategies optimized for different use cases:
//
//   - Direct convolution: Simple O(N*M) time-domain convolution, best for very short kernels (< 64 samples)
//   - Overlap-add (OLA): FFT-based block convolution, efficient for long signals with medium to long kernels
//   - Streaming overlap-add: block-by-block convolution with persistent state for real-time use
//
// # Usage
//
// For one-shot convolution, use the simple functions:
//
//	result, err := conv.Convolve(signal, kernel)  // Auto-selects best algorithm
//	result, err := conv.Direct(signal, kernel)    // Force direct convolution
//
// For repeated convolution with the same kernel, create a reusable convolver:
//
//	c, err := conv.NewOverlapAdd(kernel, blockSize)
//	result, err := c.Process(signal)
//
// For real-time block processing, for example a convolution reverb running
// an impulse response against a live stream, create a streaming convolver:
//
//	s, err := conv.NewStreamingOverlapAdd(ir, maxBlockSize)
//	err = s.ProcessBlockTo(out, in)  // zero-allocation per block
//
// # Algorithm Selection
//
// The [Convolve] function automatically selects the best algorithm based on kernel size:
//   - Kernel length < 64: Direct convolution
//   - Kernel length >= 64: FFT-based overlap-add
//
// These thresholds were determined empirically through benchmarking on typical hardware.
// The crossover point is approximately 64-128 samples for a 4096-sample signal.
package conv
