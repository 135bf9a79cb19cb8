package chain

import (
	"errors"
	"math"
	"testing"
)

func newTestModule(t *testing.T, typ string) Module {
	t.Helper()

	m, err := RegisterDefaults(testContext(), NewRegistry()).Create(testContext(), typ, typ+"-1")
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestGainModuleClampsRange(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeGain)

	if err := m.SetParam("gainDb", 100); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("gainDb"); got != maxGainDB {
		t.Errorf("gainDb = %v, want clamped to %v", got, maxGainDB)
	}

	if err := m.SetParam("gainDb", -100); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("gainDb"); got != minGainDB {
		t.Errorf("gainDb = %v, want clamped to %v", got, minGainDB)
	}
}

func TestModuleUnknownParam(t *testing.T) {
	t.Parallel()

	types := []string{
		TypeGain, TypeEQ, TypeCompressor, TypeMultiband, TypeReverb,
		TypeFDNReverb, TypeWidener, TypeSpatializer, TypeEnhancer, TypeLimiter,
	}

	for _, typ := range types {
		m := newTestModule(t, typ)

		if err := m.SetParam("no-such-param", 1); !errors.Is(err, ErrUnknownParam) {
			t.Errorf("%s SetParam error = %v, want ErrUnknownParam", typ, err)
		}

		if _, err := m.Param("no-such-param"); !errors.Is(err, ErrUnknownParam) {
			t.Errorf("%s Param error = %v, want ErrUnknownParam", typ, err)
		}
	}
}

func TestModuleCloseIdempotent(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeCompressor)

	if err := m.Close(); err != nil {
		t.Fatal(err)
	}

	if err := m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if m.Enabled() {
		t.Error("closed module still reports enabled")
	}
}

func TestEQModuleBandParams(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeEQ)

	if err := m.SetParam("band4.gainDb", 5); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("band4.gainDb"); got != 5 {
		t.Errorf("band4.gainDb = %v, want 5", got)
	}

	// Gain clamps to the band range.
	if err := m.SetParam("band4.gainDb", 40); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("band4.gainDb"); got != 12 {
		t.Errorf("band4.gainDb = %v, want clamped to 12", got)
	}

	if err := m.SetParam("band4.enabled", 0); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("band4.enabled"); got != 0 {
		t.Errorf("band4.enabled = %v, want 0", got)
	}

	if err := m.SetParam("band99.gainDb", 1); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("out-of-range band error = %v, want ErrUnknownParam", err)
	}
}

func TestEQModuleTilt(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeEQ)

	if err := m.SetParam("tiltDbPerDecade", 1.5); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("tiltDbPerDecade"); got != 1.5 {
		t.Errorf("tilt = %v, want 1.5", got)
	}

	// Clamped to the documented slope range.
	if err := m.SetParam("tiltDbPerDecade", 50); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("tiltDbPerDecade"); got != maxTiltDBPerDec {
		t.Errorf("tilt = %v, want %v", got, maxTiltDBPerDec)
	}
}

func TestEQModuleTiltBrightens(t *testing.T) {
	t.Parallel()

	const n = 48000

	run := func(tilt float64) (low, high float64) {
		m := newTestModule(t, TypeEQ)
		if err := m.SetParam("tiltDbPerDecade", tilt); err != nil {
			t.Fatal(err)
		}

		measure := func(freq float64) float64 {
			left := make([]float64, n)
			right := make([]float64, n)
			for i := range left {
				left[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/48000)
				right[i] = left[i]
			}

			m.ProcessBlock(left, right)

			var sum float64
			for _, v := range left[n/2:] {
				sum += v * v
			}

			return sum
		}

		low = measure(100)
		m.Reset()
		high = measure(8000)

		return low, high
	}

	flatLow, flatHigh := run(0)
	tiltLow, tiltHigh := run(3)

	if tiltHigh <= flatHigh {
		t.Error("positive tilt did not boost highs")
	}

	if tiltLow >= flatLow {
		t.Error("positive tilt did not cut lows")
	}
}

func TestMultibandModuleCrossoverClamped(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeMultiband)

	// Writing a low edge above the high edge clamps it below instead
	// of breaking the pair ordering.
	if err := m.SetParam("crossoverLowHz", 5000); err != nil {
		t.Fatal(err)
	}

	low, _ := m.Param("crossoverLowHz")
	high, _ := m.Param("crossoverHighHz")

	if low >= high {
		t.Errorf("pair ordering broken: low %v >= high %v", low, high)
	}

	if err := m.SetParam("band1.thresholdDb", -30); err != nil {
		t.Fatal(err)
	}

	m.Reset() // snap smoothing

	if got, _ := m.Param("band1.thresholdDb"); got != -30 {
		t.Errorf("band1.thresholdDb = %v, want -30", got)
	}

	if err := m.SetParam("band5.ratio", 2); !errors.Is(err, ErrUnknownParam) {
		t.Errorf("band index error = %v, want ErrUnknownParam", err)
	}
}

func TestWidenerModuleParams(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeWidener)

	if err := m.SetParam("width", 9); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("width"); got != 4 {
		t.Errorf("width = %v, want clamped to 4", got)
	}
}

func TestSpatializerModulePosition(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeSpatializer)

	for name, v := range map[string]float64{"x": 1, "y": 0.5, "z": -2} {
		if err := m.SetParam(name, v); err != nil {
			t.Fatal(err)
		}

		if got, _ := m.Param(name); got != v {
			t.Errorf("%s = %v, want %v", name, got, v)
		}
	}

	// NaN writes are ignored.
	if err := m.SetParam("x", math.NaN()); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("x"); got != 1 {
		t.Errorf("x after NaN write = %v, want 1", got)
	}
}

func TestSpatializerModuleProcessesDownmix(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeSpatializer)

	left := make([]float64, 256)
	right := make([]float64, 256)
	left[0] = 1
	right[0] = 1

	m.ProcessBlock(left, right)

	var energy float64
	for i := range left {
		energy += left[i]*left[i] + right[i]*right[i]
	}

	if energy == 0 {
		t.Error("spatializer produced silence for an impulse")
	}
}

func TestSpatializerModuleRoomParams(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeSpatializer)

	if err := m.SetParam("roomSize", 999); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("roomSize"); got != maxRoomDimension {
		t.Errorf("roomSize = %v, want clamped to %v", got, maxRoomDimension)
	}

	if err := m.SetParam("roomAbsorption", 2); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("roomAbsorption"); got != 1 {
		t.Errorf("roomAbsorption = %v, want clamped to 1", got)
	}
}

func TestSpatializerModuleRoomReflections(t *testing.T) {
	t.Parallel()

	process := func(roomSize float64) ([]float64, []float64) {
		m := newTestModule(t, TypeSpatializer)

		if err := m.SetParam("roomSize", roomSize); err != nil {
			t.Fatal(err)
		}
		if err := m.SetParam("roomAbsorption", 0.2); err != nil {
			t.Fatal(err)
		}

		n := 4096
		left := make([]float64, n)
		right := make([]float64, n)
		left[0] = 1
		right[0] = 1

		m.ProcessBlock(left, right)

		return left, right
	}

	dryL, dryR := process(0)
	wetL, wetR := process(4)

	differs := false
	for i := range dryL {
		if dryL[i] != wetL[i] || dryR[i] != wetR[i] {
			differs = true
			break
		}
	}

	if !differs {
		t.Error("room reflections left the rendered field unchanged")
	}

	// Turning the room back off restores the anechoic rendering.
	offL, offR := process(0)
	for i := range dryL {
		if dryL[i] != offL[i] || dryR[i] != offR[i] {
			t.Fatalf("roomSize 0 output differs from anechoic at sample %d", i)
		}
	}
}

func TestReverbModuleParams(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeReverb)

	if err := m.SetParam("mix", 1.5); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("mix"); got != 1 {
		t.Errorf("mix = %v, want clamped to 1", got)
	}

	if err := m.SetParam("room", 99); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("room"); got != 4 {
		t.Errorf("room = %v, want clamped to 4 (spring)", got)
	}

	if err := m.SetParam("freeze", 1); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("freeze"); got != 1 {
		t.Errorf("freeze = %v, want 1", got)
	}
}

func TestReverbModuleDryBeforeRoom(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeReverb)

	left := []float64{0.5, -0.25, 0.125}
	right := []float64{0.5, -0.25, 0.125}

	// No impulse response installed yet: passthrough.
	m.ProcessBlock(left, right)

	want := []float64{0.5, -0.25, 0.125}
	for i := range want {
		if math.Abs(left[i]-want[i]) > 1e-12 {
			t.Errorf("left[%d] = %v, want %v", i, left[i], want[i])
		}
	}
}

func TestReverbModuleEnsureRoomWetPath(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeReverb)

	if err := m.SetParam("mix", 1); err != nil {
		t.Fatal(err)
	}

	rm := m.(*reverbModule)
	if err := rm.EnsureRoom(); err != nil {
		t.Fatal(err)
	}

	m.Reset() // snap the mix glide; Reset keeps the installed room

	left := make([]float64, 4096)
	right := make([]float64, 4096)
	left[0] = 1
	right[0] = 1

	m.ProcessBlock(left, right)

	var tail float64
	for i := 2048; i < len(left); i++ {
		tail += left[i] * left[i]
	}

	if tail == 0 {
		t.Error("no reverb tail after EnsureRoom")
	}
}

func TestFDNReverbModuleParams(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeFDNReverb)

	if err := m.SetParam("rt60", 100); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("rt60"); got != 10 {
		t.Errorf("rt60 = %v, want clamped to 10", got)
	}

	if err := m.SetParam("wet", -1); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("wet"); got != 0 {
		t.Errorf("wet = %v, want clamped to 0", got)
	}

	if err := m.SetParam("preDelayMs", 20); err != nil {
		t.Fatal(err)
	}

	if got, _ := m.Param("preDelayMs"); math.Abs(got-20) > 1e-9 {
		t.Errorf("preDelayMs = %v, want 20", got)
	}
}

func TestFDNReverbModuleDecorrelatesChannels(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeFDNReverb)

	if err := m.SetParam("wet", 1); err != nil {
		t.Fatal(err)
	}

	if err := m.SetParam("dry", 0); err != nil {
		t.Fatal(err)
	}

	if err := m.SetParam("modDepthMs", 2); err != nil {
		t.Fatal(err)
	}

	if err := m.SetParam("modRateHz", 1); err != nil {
		t.Fatal(err)
	}

	left := make([]float64, 48000)
	right := make([]float64, 48000)
	left[0] = 1
	right[0] = 1

	m.ProcessBlock(left, right)

	diff := 0.0
	for i := range left {
		d := left[i] - right[i]
		diff += d * d
	}

	if diff == 0 {
		t.Error("detuned modulation left the channels identical")
	}
}

func TestEnhancerModuleBlend(t *testing.T) {
	t.Parallel()

	m := newTestModule(t, TypeEnhancer)

	// mix 0: exact passthrough regardless of intensity.
	if err := m.SetParam("intensity", 1); err != nil {
		t.Fatal(err)
	}

	left := []float64{0.3, -0.3}
	right := []float64{0.3, -0.3}
	m.ProcessBlock(left, right)

	if left[0] != 0.3 || left[1] != -0.3 {
		t.Errorf("mix 0 altered the signal: %v", left)
	}

	// Full mix with drive saturates a loud sample below its input.
	if err := m.SetParam("mix", 1); err != nil {
		t.Fatal(err)
	}

	m.Reset() // snap the mix

	loudL := []float64{0.9}
	loudR := []float64{0.9}
	m.ProcessBlock(loudL, loudR)

	if loudL[0] >= 0.9 {
		t.Errorf("enhanced loud sample = %v, want below 0.9", loudL[0])
	}

	if got, _ := m.Param("intensity"); got != 1 {
		t.Errorf("intensity = %v, want 1", got)
	}
}
