package dynamics

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-chain/dsp/filter/crossover"
)

func stereoSine(freq, amp, sr float64, n int) ([]float64, []float64) {
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		s := amp * math.Sin(2*math.Pi*freq*float64(i)/sr)
		left[i] = s
		right[i] = s
	}
	return left, right
}

func rmsTail(buf []float64) float64 {
	half := buf[len(buf)/2:]
	var sum float64
	for _, v := range half {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(half)))
}

func TestNewMultibandCompressorDefaults(t *testing.T) {
	m, err := NewDefaultMultibandCompressor(48000)
	if err != nil {
		t.Fatal(err)
	}
	pair := m.Crossovers()
	if pair.LowHz != 200 || pair.HighHz != 2000 {
		t.Errorf("Crossovers() = %v, want {200 2000}", pair)
	}
}

func TestNewMultibandCompressorRejectsBadPair(t *testing.T) {
	bad := []crossover.Pair{
		{LowHz: 2000, HighHz: 200},
		{LowHz: 0, HighHz: 2000},
		{LowHz: 500, HighHz: 500},
	}
	for _, p := range bad {
		if _, err := NewMultibandCompressor(p, 4, 48000); err == nil {
			t.Errorf("NewMultibandCompressor(%v) succeeded, want error", p)
		}
	}
}

func TestSetCrossoversCoupled(t *testing.T) {
	m, _ := NewDefaultMultibandCompressor(48000)

	if err := m.SetCrossovers(150, 3000); err != nil {
		t.Fatal(err)
	}
	pair := m.Crossovers()
	if pair.LowHz != 150 || pair.HighHz != 3000 {
		t.Errorf("Crossovers() = %v, want {150 3000}", pair)
	}

	// An inverted pair must be rejected as a whole, keeping the old
	// tuning for both points.
	if err := m.SetCrossovers(5000, 100); err == nil {
		t.Fatal("SetCrossovers(5000, 100) succeeded, want error")
	}
	if pair := m.Crossovers(); pair.LowHz != 150 || pair.HighHz != 3000 {
		t.Errorf("Crossovers() = %v after rejected update, want {150 3000}", pair)
	}
}

func TestSetBandIndexOutOfRange(t *testing.T) {
	m, _ := NewDefaultMultibandCompressor(48000)
	for _, idx := range []int{-1, NumBands} {
		if err := m.SetBand(idx, BandConfig{}); err == nil {
			t.Errorf("SetBand(%d) succeeded, want error", idx)
		}
	}
}

func TestSetBandPartialUpdate(t *testing.T) {
	m, _ := NewDefaultMultibandCompressor(48000)

	if err := m.SetBand(0, BandConfig{ThresholdDB: Float64Ptr(-30)}); err != nil {
		t.Fatal(err)
	}
	// Nil fields keep their previous value.
	ratioBefore := m.BandRatio(1)
	if err := m.SetBand(1, BandConfig{ThresholdDB: Float64Ptr(-18)}); err != nil {
		t.Fatal(err)
	}
	if m.BandRatio(1) != ratioBefore {
		t.Errorf("BandRatio(1) = %v, want unchanged %v", m.BandRatio(1), ratioBefore)
	}
}

func TestSetBandClampsTargets(t *testing.T) {
	m, _ := NewDefaultMultibandCompressor(48000)

	if err := m.SetBand(0, BandConfig{ThresholdDB: Float64Ptr(-200), Ratio: Float64Ptr(500)}); err != nil {
		t.Fatal(err)
	}
	m.Reset() // snap smoothed targets

	if m.BandThreshold(0) != minThresholdDB {
		t.Errorf("BandThreshold(0) = %v, want clamp to %v", m.BandThreshold(0), minThresholdDB)
	}
	if m.BandRatio(0) != maxRatio {
		t.Errorf("BandRatio(0) = %v, want clamp to %v", m.BandRatio(0), maxRatio)
	}
}

func TestMultibandBandIsolation(t *testing.T) {
	const (
		sr = 48000.0
		n  = 48000
	)

	process := func(m *MultibandCompressor) (low, high float64) {
		// 100 Hz well above the low band's threshold plus a quiet
		// 5 kHz tone that must pass through the high band untouched.
		left := make([]float64, n)
		right := make([]float64, n)
		for i := 0; i < n; i++ {
			t := float64(i) / sr
			s := 0.5*math.Sin(2*math.Pi*100*t) + 0.01*math.Sin(2*math.Pi*5000*t)
			left[i] = s
			right[i] = s
		}
		m.ProcessStereoInPlace(left, right)

		// Measure per-band output levels with a fresh splitter.
		xo, err := crossover.NewThreeBand(m.Crossovers(), 4, sr)
		if err != nil {
			panic(err)
		}
		lo := make([]float64, n)
		mid := make([]float64, n)
		hi := make([]float64, n)
		xo.ProcessBlock(left, lo, mid, hi)
		return rmsTail(lo), rmsTail(hi)
	}

	// Reference pass with compression effectively off.
	ref, _ := NewDefaultMultibandCompressor(sr)
	for b := 0; b < NumBands; b++ {
		if err := ref.SetBand(b, BandConfig{ThresholdDB: Float64Ptr(0), Ratio: Float64Ptr(1)}); err != nil {
			t.Fatal(err)
		}
	}
	ref.Reset()
	refLow, refHigh := process(ref)

	// Compressing pass: only the low band has a hot threshold.
	m, _ := NewDefaultMultibandCompressor(sr)
	if err := m.SetBand(0, BandConfig{
		ThresholdDB: Float64Ptr(-16), // 100 Hz tone sits ~10 dB over
		Ratio:       Float64Ptr(8),
		AttackMs:    Float64Ptr(1),
		ReleaseMs:   Float64Ptr(50),
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.SetBand(1, BandConfig{ThresholdDB: Float64Ptr(0), Ratio: Float64Ptr(1)}); err != nil {
		t.Fatal(err)
	}
	if err := m.SetBand(2, BandConfig{ThresholdDB: Float64Ptr(0), Ratio: Float64Ptr(1)}); err != nil {
		t.Fatal(err)
	}
	m.Reset()
	gotLow, gotHigh := process(m)

	lowDelta := 20 * math.Log10(gotLow/refLow)
	highDelta := 20 * math.Log10(gotHigh/refHigh)

	if lowDelta > -3 {
		t.Errorf("low band changed by %.2f dB, want at least 3 dB of reduction", lowDelta)
	}
	if math.Abs(highDelta) > 0.5 {
		t.Errorf("high band changed by %.2f dB, want materially unchanged", highDelta)
	}
}

func TestMultibandReconstructionWhenTransparent(t *testing.T) {
	const (
		sr = 48000.0
		n  = 8192
	)

	m, _ := NewDefaultMultibandCompressor(sr)
	for b := 0; b < NumBands; b++ {
		if err := m.SetBand(b, BandConfig{ThresholdDB: Float64Ptr(0), Ratio: Float64Ptr(1)}); err != nil {
			t.Fatal(err)
		}
	}
	m.Reset()

	left, right := stereoSine(700, 0.3, sr, n)
	wantRMS := rmsTail(left)

	m.ProcessStereoInPlace(left, right)
	gotRMS := rmsTail(left)

	// Linkwitz-Riley bands sum to an allpass, so with unity ratios the
	// level must survive the split and recombine.
	ratio := gotRMS / wantRMS
	if ratio < 0.9 || ratio > 1.1 {
		t.Errorf("reconstruction RMS ratio = %v, want near 1", ratio)
	}
}

func TestMultibandGainReductionReporting(t *testing.T) {
	const sr = 48000.0

	m, _ := NewDefaultMultibandCompressor(sr)
	if err := m.SetBand(0, BandConfig{
		ThresholdDB: Float64Ptr(-30),
		Ratio:       Float64Ptr(8),
		AttackMs:    Float64Ptr(1),
	}); err != nil {
		t.Fatal(err)
	}
	m.Reset()

	left, right := stereoSine(100, 0.5, sr, 24000)
	m.ProcessStereoInPlace(left, right)

	if m.BandGainReductionDB(0) <= 0 {
		t.Errorf("BandGainReductionDB(0) = %v, want positive reduction", m.BandGainReductionDB(0))
	}
	if m.BandGainReductionDB(2) > 0.5 {
		t.Errorf("BandGainReductionDB(2) = %v, want near zero", m.BandGainReductionDB(2))
	}
}

func TestMultibandReset(t *testing.T) {
	m, _ := NewDefaultMultibandCompressor(48000)
	if err := m.SetBand(0, BandConfig{ThresholdDB: Float64Ptr(-40), Ratio: Float64Ptr(8)}); err != nil {
		t.Fatal(err)
	}

	left, right := stereoSine(100, 0.8, 48000, 4800)
	m.ProcessStereoInPlace(left, right)

	m.Reset()
	if m.BandGainReductionDB(0) != 0 {
		t.Errorf("BandGainReductionDB(0) = %v after Reset, want 0", m.BandGainReductionDB(0))
	}
	// Reset snaps smoothing, so the configured targets are in effect.
	if m.BandThreshold(0) != -40 {
		t.Errorf("BandThreshold(0) = %v after Reset, want -40", m.BandThreshold(0))
	}
}
