package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeCosine
	TypeTriangle
)

// Slope controls which edge(s) of the window are tapered.
//
// SlopeLeft produces a rising ramp over the whole length (half window),
// SlopeRight a falling one. These are the fade-in/fade-out shapes used
// on impulse response tails.
type Slope int

const (
	SlopeSymmetric Slope = iota
	SlopeLeft
	SlopeRight
)

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
	slope    Slope
	invert   bool
}

// WithPeriodic configures periodic form (FFT framing) instead of symmetric form.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// WithSlope configures edge tapering mode.
func WithSlope(s Slope) Option {
	return func(c *config) {
		c.slope = s
	}
}

// WithInvert inverts coefficients (1 - w[n]).
func WithInvert() Option {
	return func(c *config) {
		c.invert = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	for i := range out {
		x := samplePosition(i, length, cfg.periodic)
		switch cfg.slope {
		case SlopeLeft:
			x /= 2
		case SlopeRight:
			x = 0.5 + x/2
		}
		out[i] = evalWindow(t, x)
	}

	if cfg.invert {
		for i := range out {
			out[i] = 1 - out[i]
		}
	}

	return out
}

// Apply multiplies buf in-place by the selected window.
func Apply(t Type, buf []float64, opts ...Option) {
	if len(buf) == 0 {
		return
	}

	coeffs := Generate(t, len(buf), opts...)
	if len(coeffs) != len(buf) {
		return
	}

	vecmath.MulBlockInPlace(buf, coeffs)
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHann, size, opts...), validateLength(size)
}

// Hamming returns Hamming window coefficients.
func Hamming(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHamming, size, opts...), validateLength(size)
}

// Blackman returns Blackman window coefficients.
func Blackman(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeBlackman, size, opts...), validateLength(size)
}

// FadeIn applies a half-Hann rising ramp to the first n samples of buf.
// If n exceeds len(buf) the whole buffer is faded.
func FadeIn(buf []float64, n int) {
	if n > len(buf) {
		n = len(buf)
	}
	if n <= 0 {
		return
	}
	Apply(TypeHann, buf[:n], WithSlope(SlopeLeft))
}

// FadeOut applies a half-Hann falling ramp to the last n samples of buf.
// If n exceeds len(buf) the whole buffer is faded.
func FadeOut(buf []float64, n int) {
	if n > len(buf) {
		n = len(buf)
	}
	if n <= 0 {
		return
	}
	Apply(TypeHann, buf[len(buf)-n:], WithSlope(SlopeRight))
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	case TypeHamming:
		return 0.54 - 0.46*math.Cos(2*math.Pi*x)
	case TypeBlackman:
		return 0.42 - 0.5*math.Cos(2*math.Pi*x) + 0.08*math.Cos(4*math.Pi*x)
	case TypeCosine:
		return math.Sin(math.Pi * x)
	case TypeTriangle:
		return 1 - math.Abs(2*x-1)
	case TypeRectangular:
		return 1
	default:
		return 1
	}
}

func samplePosition(n, size int, periodic bool) float64 {
	if periodic {
		return float64(n) / float64(size)
	}
	if size == 1 {
		return 0.5
	}
	return float64(n) / float64(size-1)
}
