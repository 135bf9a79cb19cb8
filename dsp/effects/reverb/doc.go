// Package reverb provides reusable non-I/O reverb processors.
//
// Included processors:
//   - ConvolutionReverb: stereo wet/dry convolution reverb with
//     synthetic room impulse response generation.
//   - FDNReverb: modulated feedback delay network reverb.
package reverb
