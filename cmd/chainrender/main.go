// Command chainrender renders generated program material through a
// processing chain offline and reports the loudness before and after.
//
// Usage:
//
//	chainrender [flags]
//
// Examples:
//
//	chainrender -seconds 5
//	chainrender -profile desk.yaml -seconds 10
//	chainrender -width 1.4 -tilt 0.5
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-chain/chain"
	"github.com/cwbudde/algo-chain/dsp/buffer"
	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/signal"
	"github.com/cwbudde/algo-chain/measure/loudness"
)

func main() {
	var (
		profilePath = flag.String("profile", "", "device profile YAML (optional)")
		seconds     = flag.Float64("seconds", 5, "program length in seconds")
		sampleRate  = flag.Float64("samplerate", 48000, "sample rate in Hz")
		blockSize   = flag.Int("block", 512, "processing block size")
		width       = flag.Float64("width", math.NaN(), "override stereo width")
		tilt        = flag.Float64("tilt", math.NaN(), "override EQ tilt in dB/decade")
	)

	flag.Parse()

	err := run(*profilePath, *seconds, *sampleRate, *blockSize, *width, *tilt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chainrender:", err)
		os.Exit(1)
	}
}

func run(profilePath string, seconds, sampleRate float64, blockSize int, width, tilt float64) error {
	prefs := chain.DefaultPreferences()

	if profilePath != "" {
		profile, err := chain.LoadProfile(profilePath)
		if err != nil {
			return err
		}

		prefs = profile.Preferences()

		fmt.Printf("profile: %s\n", profile.Name)
	}

	if !math.IsNaN(width) {
		prefs.StereoWidth = width
	}

	if !math.IsNaN(tilt) {
		prefs.EQTiltDBPerDecade = tilt
	}

	ctx := chain.Context{SampleRate: sampleRate, BlockSize: blockSize}
	registry := chain.RegisterDefaults(ctx, chain.NewRegistry())

	c, err := chain.New(ctx, registry, prefs)
	if err != nil {
		return err
	}
	defer c.Close()

	program, err := generateProgram(seconds, sampleRate)
	if err != nil {
		return err
	}

	estimator := loudness.NewEstimator(loudness.WithSampleRate(sampleRate))
	before := estimator.Measure(program)

	sw := c.Sweeten(program)

	left := program.Left()
	right := program.Right()

	for start := 0; start < len(left); start += blockSize {
		end := start + blockSize
		if end > len(left) {
			end = len(left)
		}

		c.Process(left[start:end], right[start:end])
	}

	after := estimator.Measure(program)

	fmt.Printf("target loudness: %6.1f dB\n", c.TargetLoudness())
	fmt.Printf("before:          %6.1f dB\n", before)
	fmt.Printf("after:           %6.1f dB\n", after)
	fmt.Printf("pre-gain:        %6.1f dB\n", core.LinearToDB(sw.PreGain))
	fmt.Printf("enhancer:        intensity %.2f, mix %.2f\n", sw.Intensity, sw.Mix)

	return nil
}

// generateProgram builds a stereo test signal: a low tone, a midrange
// tone detuned between the channels, and a bed of seeded noise.
func generateProgram(seconds, sampleRate float64) (*buffer.Buffer, error) {
	n := int(seconds * sampleRate)
	if n <= 0 {
		return nil, fmt.Errorf("program length %v s is empty", seconds)
	}

	gen := signal.NewGenerator(core.WithSampleRate(sampleRate))

	bass, err := gen.Sine(110, 0.25, n)
	if err != nil {
		return nil, err
	}

	midL, err := gen.Sine(440, 0.15, n)
	if err != nil {
		return nil, err
	}

	midR, err := gen.Sine(445, 0.15, n)
	if err != nil {
		return nil, err
	}

	noise, err := gen.WhiteNoise(0.03, n)
	if err != nil {
		return nil, err
	}

	left := make([]float64, n)
	right := make([]float64, n)

	for i := 0; i < n; i++ {
		left[i] = bass[i] + midL[i] + noise[i]
		right[i] = bass[i] + midR[i] + noise[i]
	}

	return buffer.FromSlices([][]float64{left, right}, sampleRate)
}
