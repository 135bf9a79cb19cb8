// Package loudness estimates program loudness with a deliberately
// simple RMS shortcut: the signal is decimated to a fixed analysis
// rate, the channel-averaged mean square is converted to dBFS, and a
// fixed empirical offset approximates an integrated loudness reading.
// It is a fast estimate for gain staging, not a broadcast meter.
package loudness

import (
	"math"

	"github.com/cwbudde/algo-chain/dsp/buffer"
	"github.com/cwbudde/algo-chain/dsp/core"
)

const (
	// Fixed decimation target for analysis.
	defaultAnalysisRate = 8000.0

	// Empirical offset from channel-averaged RMS dBFS to a
	// LUFS-like value for typical program material.
	empiricalOffsetDB = -3.0

	// SilenceFloorDB is reported for silent or empty input.
	SilenceFloorDB = -120.0
)

// Config defines configuration for the loudness estimator.
type Config struct {
	core.ProcessorConfig
	AnalysisRate float64
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ProcessorConfig: core.DefaultProcessorConfig(),
		AnalysisRate:    defaultAnalysisRate,
	}
}

// WithSampleRate sets the input sample rate.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *Config) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithAnalysisRate overrides the decimation target rate.
func WithAnalysisRate(rate float64) Option {
	return func(cfg *Config) {
		if rate > 0 {
			cfg.AnalysisRate = rate
		}
	}
}

// Estimator measures approximate loudness of offline buffers.
type Estimator struct {
	sampleRate   float64
	analysisRate float64
}

// NewEstimator creates a loudness estimator with the given options.
func NewEstimator(opts ...Option) *Estimator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return &Estimator{
		sampleRate:   cfg.SampleRate,
		analysisRate: cfg.AnalysisRate,
	}
}

// Measure returns the estimated loudness of the buffer in dB. Silent
// or empty buffers report SilenceFloorDB.
func (e *Estimator) Measure(buf *buffer.Buffer) float64 {
	if buf == nil || buf.Len() == 0 || buf.Channels() == 0 {
		return SilenceFloorDB
	}

	stride := int(math.Round(e.sampleRate / e.analysisRate))
	if stride < 1 {
		stride = 1
	}

	var sum float64
	var count int
	for ch := 0; ch < buf.Channels(); ch++ {
		data := buf.Channel(ch)
		for i := 0; i < len(data); i += stride {
			sum += data[i] * data[i]
			count++
		}
	}
	if count == 0 || sum <= 0 {
		return SilenceFloorDB
	}

	meanSquare := sum / float64(count)
	rmsDB := 10 * math.Log10(meanSquare)
	db := rmsDB + empiricalOffsetDB
	if db < SilenceFloorDB {
		return SilenceFloorDB
	}
	return db
}

// MeasureMono estimates the loudness of a single channel slice at the
// estimator's sample rate.
func (e *Estimator) MeasureMono(data []float64) float64 {
	buf, err := buffer.FromSlices([][]float64{data}, e.sampleRate)
	if err != nil {
		return SilenceFloorDB
	}
	return e.Measure(buf)
}

// GainForTarget returns the linear gain that moves a signal measured at
// current dB to the target dB. Equal levels yield exactly 1.
func GainForTarget(current, target float64) float64 {
	return math.Pow(10, (target-current)/20)
}
