package reverb

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-chain/dsp/buffer"
	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/window"
)

// RoomType selects a synthetic room character for impulse response
// generation.
type RoomType int

const (
	RoomHall RoomType = iota
	RoomRoom
	RoomChamber
	RoomPlate
	RoomSpring
)

func (r RoomType) String() string {
	switch r {
	case RoomHall:
		return "hall"
	case RoomRoom:
		return "room"
	case RoomChamber:
		return "chamber"
	case RoomPlate:
		return "plate"
	case RoomSpring:
		return "spring"
	default:
		return fmt.Sprintf("RoomType(%d)", int(r))
	}
}

// roomProfile holds the per-room synthesis constants. These are tuned
// approximations, not derived from acoustics.
type roomProfile struct {
	minSeconds float64 // tail length at size 0
	maxSeconds float64 // tail length at size 1
	decayRate  float64 // tail envelope rate in 1/s at size 1
	diffusion  float64 // tail noise level
	erDensity  float64 // early reflections per second
	erWindowMs float64 // early reflection span
}

var roomProfiles = [...]roomProfile{
	RoomHall:    {minSeconds: 1.2, maxSeconds: 4.0, decayRate: 1.6, diffusion: 0.85, erDensity: 220, erWindowMs: 100},
	RoomRoom:    {minSeconds: 0.3, maxSeconds: 1.2, decayRate: 4.5, diffusion: 0.70, erDensity: 400, erWindowMs: 80},
	RoomChamber: {minSeconds: 0.8, maxSeconds: 2.5, decayRate: 2.4, diffusion: 0.80, erDensity: 300, erWindowMs: 90},
	RoomPlate:   {minSeconds: 1.0, maxSeconds: 3.0, decayRate: 2.0, diffusion: 0.95, erDensity: 600, erWindowMs: 80},
	RoomSpring:  {minSeconds: 0.6, maxSeconds: 2.0, decayRate: 3.0, diffusion: 0.60, erDensity: 120, erWindowMs: 100},
}

// IRConfig describes a synthetic impulse response. Size and Dampening
// are normalized to [0,1] and clamped. The same config with the same
// Seed always produces the same buffer.
type IRConfig struct {
	Room      RoomType
	Size      float64
	Dampening float64
	Seed      int64
}

// IRDuration returns the impulse response length in seconds for a room
// type and normalized size. The length is deterministic so callers can
// budget buffers before generating.
func IRDuration(room RoomType, size float64) float64 {
	p, err := profileFor(room)
	if err != nil {
		return 0
	}
	size = core.Clamp(size, 0, 1)
	return core.Lerp(p.minSeconds, p.maxSeconds, size)
}

func profileFor(room RoomType) (roomProfile, error) {
	if room < 0 || int(room) >= len(roomProfiles) {
		return roomProfile{}, fmt.Errorf("reverb: unknown room type: %d", int(room))
	}
	return roomProfiles[room], nil
}

// GenerateIR synthesizes a stereo impulse response for the given room
// descriptor: a direct impulse, discrete early reflections inside the
// room's early window with a per-channel phase offset for stereo
// decorrelation, and an exponentially decaying noise tail. Dampening
// progressively lowpasses the tail.
func GenerateIR(cfg IRConfig, sampleRate float64) (*buffer.Buffer, error) {
	p, err := profileFor(cfg.Room)
	if err != nil {
		return nil, err
	}
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("reverb: sample rate must be positive and finite: %f", sampleRate)
	}

	size := core.Clamp(cfg.Size, 0, 1)
	damp := core.Clamp(cfg.Dampening, 0, 1)

	length := int(IRDuration(cfg.Room, size) * sampleRate)
	if length < 1 {
		length = 1
	}
	buf := buffer.New(2, length, sampleRate)

	erWindow := int(p.erWindowMs * 0.001 * sampleRate)
	if erWindow > length {
		erWindow = length
	}

	// The decay rate shortens for small rooms so the audible tail
	// tracks the configured duration.
	decay := p.decayRate / (0.35 + 0.65*size)

	rng := rand.New(rand.NewSource(cfg.Seed))

	for ch := 0; ch < buf.Channels(); ch++ {
		out := buf.Channel(ch)
		out[0] = 1 // direct sound

		// Early reflections: tap delays derived from the room size,
		// with a small per-channel offset so the channels decorrelate.
		numTaps := int(p.erDensity * p.erWindowMs * 0.001)
		phase := ch * int(0.0005*sampleRate)
		for k := 1; k <= numTaps; k++ {
			frac := float64(k) / float64(numTaps+1)
			pos := int(frac*frac*float64(erWindow)*(0.5+0.5*size)) + phase
			if pos <= 0 || pos >= erWindow {
				continue
			}
			amp := (1 - frac) * 0.6 * (0.7 + 0.3*rng.Float64())
			if k%2 == 1 {
				amp = -amp
			}
			out[pos] += amp
		}

		// Diffuse tail: seeded noise under an exponential envelope,
		// lowpassed harder as dampening rises.
		alpha := 1 - 0.98*damp
		var lp float64
		for i := erWindow; i < length; i++ {
			t := float64(i) / sampleRate
			noise := 2*rng.Float64() - 1
			lp += alpha * (noise - lp)
			out[i] += p.diffusion * math.Exp(-decay*t) * lp
		}

		window.FadeOut(out, int(0.01*sampleRate))
	}

	// Keep the convolution roughly unity-level regardless of room.
	if peak := buf.Peak(); peak > 1 {
		buf.ApplyGain(1 / peak)
	}
	return buf, nil
}
