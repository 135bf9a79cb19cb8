package loudness

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-chain/dsp/buffer"
)

func sineBuffer(amp float64, channels, n int) *buffer.Buffer {
	buf := buffer.New(channels, n, 48000)
	for ch := 0; ch < channels; ch++ {
		data := buf.Channel(ch)
		for i := range data {
			data[i] = amp * math.Sin(2*math.Pi*997*float64(i)/48000)
		}
	}
	return buf
}

func TestMeasureFullScaleSine(t *testing.T) {
	e := NewEstimator(WithSampleRate(48000))

	// A full-scale sine has an RMS of -3.01 dBFS; the estimate is that
	// plus the fixed offset.
	got := e.Measure(sineBuffer(1.0, 2, 48000))
	want := -3.01 + empiricalOffsetDB
	if math.Abs(got-want) > 0.5 {
		t.Errorf("Measure() = %.2f dB, want about %.2f", got, want)
	}
}

func TestMeasureTracksLevel(t *testing.T) {
	e := NewEstimator(WithSampleRate(48000))

	loud := e.Measure(sineBuffer(0.5, 2, 48000))
	quiet := e.Measure(sineBuffer(0.05, 2, 48000))

	// A 20 dB input level drop moves the estimate by 20 dB.
	if diff := loud - quiet; math.Abs(diff-20) > 0.5 {
		t.Errorf("level delta = %.2f dB, want 20", diff)
	}
}

func TestMeasureChannelAveraged(t *testing.T) {
	e := NewEstimator(WithSampleRate(48000))

	mono := e.Measure(sineBuffer(0.5, 1, 48000))
	stereo := e.Measure(sineBuffer(0.5, 2, 48000))

	// Identical material in every channel reads the same regardless of
	// channel count.
	if math.Abs(mono-stereo) > 0.1 {
		t.Errorf("mono %.2f dB vs stereo %.2f dB, want equal", mono, stereo)
	}
}

func TestMeasureSilence(t *testing.T) {
	e := NewEstimator(WithSampleRate(48000))

	if got := e.Measure(buffer.New(2, 4800, 48000)); got != SilenceFloorDB {
		t.Errorf("Measure(silence) = %v, want %v", got, SilenceFloorDB)
	}
	if got := e.Measure(nil); got != SilenceFloorDB {
		t.Errorf("Measure(nil) = %v, want %v", got, SilenceFloorDB)
	}
}

func TestMeasureMono(t *testing.T) {
	e := NewEstimator(WithSampleRate(48000))

	data := make([]float64, 48000)
	for i := range data {
		data[i] = 0.25 * math.Sin(2*math.Pi*440*float64(i)/48000)
	}

	got := e.MeasureMono(data)
	buf, err := buffer.FromSlices([][]float64{data}, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if want := e.Measure(buf); got != want {
		t.Errorf("MeasureMono() = %v, Measure() = %v, want equal", got, want)
	}
}

func TestGainForTargetIdentity(t *testing.T) {
	for _, l := range []float64{-60, -23, -14, 0, 6} {
		if got := GainForTarget(l, l); got != 1.0 {
			t.Errorf("GainForTarget(%v, %v) = %v, want exactly 1", l, l, got)
		}
	}
}

func TestGainForTargetMonotonic(t *testing.T) {
	prev := GainForTarget(-23, -40)
	for target := -39.0; target <= 0; target++ {
		g := GainForTarget(-23, target)
		if g <= prev {
			t.Fatalf("GainForTarget not increasing at target %v: %v <= %v", target, g, prev)
		}
		prev = g
	}
}

func TestGainForTargetKnownValues(t *testing.T) {
	if got := GainForTarget(-20, -14); math.Abs(got-1.9953) > 1e-3 {
		t.Errorf("GainForTarget(-20, -14) = %v, want ~1.9953", got)
	}
	if got := GainForTarget(-14, -20); math.Abs(got-0.5012) > 1e-3 {
		t.Errorf("GainForTarget(-14, -20) = %v, want ~0.5012", got)
	}
}
