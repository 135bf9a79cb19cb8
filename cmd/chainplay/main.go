// Command chainplay streams generated material through a processing
// chain to the default audio output.
//
// Usage:
//
//	chainplay [flags]
//
// Examples:
//
//	chainplay -seconds 10
//	chainplay -profile desk.yaml -reverb
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/cwbudde/algo-chain/chain"
	"github.com/cwbudde/algo-chain/dsp/core"
	dspsignal "github.com/cwbudde/algo-chain/dsp/signal"
)

const (
	sampleRate      = 48000
	framesPerBuffer = 512
)

func main() {
	var (
		profilePath = flag.String("profile", "", "device profile YAML (optional)")
		seconds     = flag.Float64("seconds", 10, "playback length in seconds")
		withReverb  = flag.Bool("reverb", false, "append a convolution reverb module")
	)

	flag.Parse()

	err := run(*profilePath, *seconds, *withReverb)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chainplay:", err)
		os.Exit(1)
	}
}

func run(profilePath string, seconds float64, withReverb bool) error {
	prefs := chain.DefaultPreferences()

	if profilePath != "" {
		profile, err := chain.LoadProfile(profilePath)
		if err != nil {
			return err
		}

		prefs = profile.Preferences()
	}

	ctx := chain.Context{SampleRate: sampleRate, BlockSize: framesPerBuffer}
	registry := chain.RegisterDefaults(ctx, chain.NewRegistry())

	c, err := chain.New(ctx, registry, prefs)
	if err != nil {
		return err
	}
	defer c.Close()

	if withReverb {
		reverb, err := c.Add(chain.TypeReverb, "reverb")
		if err != nil {
			return err
		}

		// Pick a hall and let the impulse response build while the
		// dry path already plays.
		if err := reverb.SetParam("size", 0.7); err != nil {
			return err
		}

		if err := reverb.SetParam("mix", 0.25); err != nil {
			return err
		}
	}

	source := newToneSource(sampleRate)

	err = portaudio.Initialize()
	if err != nil {
		return fmt.Errorf("initialize portaudio: %w", err)
	}
	defer portaudio.Terminate()

	left := make([]float64, framesPerBuffer)
	right := make([]float64, framesPerBuffer)

	callback := func(out [][]float32) {
		source.fill(left, right)
		c.Process(left, right)

		for i := range out[0] {
			out[0][i] = float32(left[i])
			out[1][i] = float32(right[i])
		}
	}

	stream, err := portaudio.OpenDefaultStream(0, 2, sampleRate, framesPerBuffer, callback)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	err = stream.Start()
	if err != nil {
		return fmt.Errorf("start stream: %w", err)
	}
	defer stream.Stop()

	fmt.Printf("playing %.0f s to the default output (ctrl-c to stop)\n", seconds)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case <-time.After(time.Duration(seconds * float64(time.Second))):
	case <-interrupt:
	}

	return nil
}

// toneSource produces an endless two-voice test signal with a slow
// amplitude swell, so the dynamics stages are audible. Phase runs
// across block boundaries to keep the output continuous.
type toneSource struct {
	rate  float64
	noise []float64
	phase int
}

func newToneSource(rate float64) *toneSource {
	gen := dspsignal.NewGenerator(core.WithSampleRate(rate))

	// A looping second of seeded noise as a texture bed.
	noise, _ := gen.WhiteNoise(0.02, int(rate))

	return &toneSource{rate: rate, noise: noise}
}

func (s *toneSource) fill(left, right []float64) {
	for i := range left {
		t := float64(s.phase+i) / s.rate

		swell := 0.6 + 0.4*math.Sin(2*math.Pi*0.1*t)
		bass := 0.2 * math.Sin(2*math.Pi*110*t)
		mid := 0.12 * math.Sin(2*math.Pi*440*t)
		bed := s.noise[(s.phase+i)%len(s.noise)]

		left[i] = swell*(bass+mid) + bed
		right[i] = swell*(bass+mid*0.8) + bed
	}

	s.phase += len(left)
}
