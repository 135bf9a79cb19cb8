package chain

import (
	"math"

	"github.com/cwbudde/algo-chain/dsp/core"
	"github.com/cwbudde/algo-chain/dsp/effects/reverb"
	"github.com/cwbudde/algo-chain/dsp/effects/spatial"
)

// widenerModule wraps the M/S stereo widener with bass-mono support.
type widenerModule struct {
	moduleBase

	fx *spatial.StereoWidener
}

func newWidenerModule(ctx Context, id string) (Module, error) {
	fx, err := spatial.NewStereoWidener(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	return &widenerModule{moduleBase: newModuleBase(id, TypeWidener), fx: fx}, nil
}

func (w *widenerModule) SetParam(name string, value float64) error {
	switch name {
	case "width":
		w.fx.SetWidth(value)
		return nil
	case "monoBelowHz":
		return w.fx.SetBassMonoFreq(value)
	default:
		return w.unknownParam(name)
	}
}

func (w *widenerModule) Param(name string) (float64, error) {
	switch name {
	case "width":
		return w.fx.Width(), nil
	case "monoBelowHz":
		return w.fx.BassMonoFreq(), nil
	default:
		return 0, w.unknownParam(name)
	}
}

func (w *widenerModule) ProcessBlock(left, right []float64) {
	//nolint:errcheck // slices come from the chain and are equal length
	w.fx.ProcessStereoInPlace(left, right)
}

func (w *widenerModule) Reset() { w.fx.Reset() }

// Room model bounds for the spatializer's early reflections.
const (
	maxRoomDimension      = 50.0
	defaultRoomAbsorption = 0.5
)

// spatializerModule places the (downmixed) signal at a point in space.
// Parameters x, y, z are listener-relative meters; writes retrigger
// the grid lookup inside the processor, which is itself change-gated.
// A positive roomSize adds first-order wall reflections to the mono
// field before the ear paths render it.
type spatializerModule struct {
	moduleBase

	fx  *spatial.Spatializer
	pos spatial.Position

	reflector *spatial.RoomReflector
	roomSize  float64
	roomAbs   float64

	mono []float64
}

func newSpatializerModule(ctx Context, id string) (Module, error) {
	fx, err := spatial.NewSpatializer(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	reflector, err := spatial.NewRoomReflector(ctx.SampleRate, maxRoomDimension)
	if err != nil {
		return nil, err
	}

	return &spatializerModule{
		moduleBase: newModuleBase(id, TypeSpatializer),
		fx:         fx,
		pos:        spatial.Position{Z: -1},
		reflector:  reflector,
		roomAbs:    defaultRoomAbsorption,
	}, nil
}

func (s *spatializerModule) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	switch name {
	case "x":
		s.pos.X = value
	case "y":
		s.pos.Y = value
	case "z":
		s.pos.Z = value
	case "roomSize":
		s.roomSize = core.Clamp(value, 0, maxRoomDimension)
	case "roomAbsorption":
		s.roomAbs = core.Clamp(value, 0, 1)
	default:
		return s.unknownParam(name)
	}

	s.fx.SetPosition(s.pos)

	return s.configureRoom()
}

// configureRoom retunes the reflection taps for the current source
// position and room. roomSize zero leaves the reflector tapless.
func (s *spatializerModule) configureRoom() error {
	if s.roomSize <= 0 {
		s.reflector.Clear()
		return nil
	}

	return s.reflector.Configure(s.pos, spatial.Room{
		Width:      s.roomSize,
		Height:     s.roomSize,
		Depth:      s.roomSize,
		Absorption: s.roomAbs,
	})
}

func (s *spatializerModule) Param(name string) (float64, error) {
	switch name {
	case "x":
		return s.pos.X, nil
	case "y":
		return s.pos.Y, nil
	case "z":
		return s.pos.Z, nil
	case "roomSize":
		return s.roomSize, nil
	case "roomAbsorption":
		return s.roomAbs, nil
	default:
		return 0, s.unknownParam(name)
	}
}

func (s *spatializerModule) ProcessBlock(left, right []float64) {
	if cap(s.mono) < len(left) {
		s.mono = make([]float64, len(left))
	}

	mono := s.mono[:len(left)]
	for i := range mono {
		mono[i] = 0.5 * (left[i] + right[i])
	}

	if s.roomSize > 0 {
		s.reflector.ProcessInPlace(mono)
	}

	//nolint:errcheck // buffers are sized together
	s.fx.ProcessBlock(mono, left, right)
}

func (s *spatializerModule) Reset() {
	s.fx.Reset()
	s.reflector.Reset()
}

// Reverb room parameter defaults.
const (
	defaultRoomSize = 0.5
	defaultRoomDamp = 0.3
	defaultRoomSeed = 1
)

// reverbModule wraps the convolution reverb. Room-shape parameters
// (room, size, damp) regenerate the impulse response off the audio
// thread; a newer write supersedes any build still in flight.
type reverbModule struct {
	moduleBase

	fx *reverb.ConvolutionReverb

	room      reverb.RoomType
	size      float64
	damp      float64
	generated bool

	blockSize int
}

func newReverbModule(ctx Context, id string) (Module, error) {
	blockSize := ctx.BlockSize
	if blockSize <= 0 {
		blockSize = 512
	}

	fx, err := reverb.NewConvolutionReverb(blockSize, ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	return &reverbModule{
		moduleBase: newModuleBase(id, TypeReverb),
		fx:         fx,
		room:       reverb.RoomHall,
		size:       defaultRoomSize,
		damp:       defaultRoomDamp,
		blockSize:  blockSize,
	}, nil
}

//nolint:cyclop
func (r *reverbModule) SetParam(name string, value float64) error {
	if math.IsNaN(value) {
		return nil
	}

	switch name {
	case "mix":
		r.fx.SetMix(value)
	case "preDelayMs":
		r.fx.SetPreDelay(value)
	case "toneLowDb":
		r.fx.SetTone(value, r.toneHigh())
	case "toneHighDb":
		r.fx.SetTone(r.toneLow(), value)
	case "modRateHz":
		r.fx.SetModulation(value, r.modDepth())
	case "modDepth":
		r.fx.SetModulation(r.modRate(), value)
	case "freeze":
		r.fx.SetFreeze(value != 0)
	case "shimmer":
		r.fx.SetShimmer(value != 0)
	case "room":
		r.setRoom(reverb.RoomType(core.Clamp(value, 0, float64(reverb.RoomSpring))), r.size, r.damp)
	case "size":
		r.setRoom(r.room, core.Clamp(value, 0, 1), r.damp)
	case "damp":
		r.setRoom(r.room, r.size, core.Clamp(value, 0, 1))
	default:
		return r.unknownParam(name)
	}

	return nil
}

//nolint:cyclop
func (r *reverbModule) Param(name string) (float64, error) {
	switch name {
	case "mix":
		return r.fx.Mix(), nil
	case "preDelayMs":
		return r.fx.PreDelay(), nil
	case "toneLowDb":
		return r.toneLow(), nil
	case "toneHighDb":
		return r.toneHigh(), nil
	case "modRateHz":
		return r.modRate(), nil
	case "modDepth":
		return r.modDepth(), nil
	case "freeze":
		return boolParam(r.fx.Freeze()), nil
	case "shimmer":
		return boolParam(r.fx.Shimmer()), nil
	case "room":
		return float64(r.room), nil
	case "size":
		return r.size, nil
	case "damp":
		return r.damp, nil
	default:
		return 0, r.unknownParam(name)
	}
}

func (r *reverbModule) toneLow() float64  { low, _ := r.fx.Tone(); return low }
func (r *reverbModule) toneHigh() float64 { _, high := r.fx.Tone(); return high }
func (r *reverbModule) modRate() float64  { rate, _ := r.fx.Modulation(); return rate }
func (r *reverbModule) modDepth() float64 { _, depth := r.fx.Modulation(); return depth }

func (r *reverbModule) setRoom(room reverb.RoomType, size, damp float64) {
	if r.generated && room == r.room && size == r.size && damp == r.damp {
		return
	}

	r.room = room
	r.size = size
	r.damp = damp
	r.generated = true

	r.fx.GenerateRoomAsync(reverb.IRConfig{
		Room:      room,
		Size:      size,
		Dampening: damp,
		Seed:      defaultRoomSeed,
	})
}

// EnsureRoom generates the current room synchronously if no impulse
// response has been installed yet. Offline callers use it so the wet
// path is live from the first block.
func (r *reverbModule) EnsureRoom() error {
	if r.generated {
		return nil
	}

	r.generated = true

	return r.fx.GenerateRoom(reverb.IRConfig{
		Room:      r.room,
		Size:      r.size,
		Dampening: r.damp,
		Seed:      defaultRoomSeed,
	})
}

func (r *reverbModule) ProcessBlock(left, right []float64) {
	for start := 0; start < len(left); start += r.blockSize {
		end := start + r.blockSize
		if end > len(left) {
			end = len(left)
		}

		//nolint:errcheck // chunks never exceed the configured block size
		r.fx.ProcessStereoInPlace(left[start:end], right[start:end])
	}
}

func (r *reverbModule) Reset() { r.fx.Reset() }

// fdnReverbModule runs one feedback-delay-network reverb per channel.
// The right network's modulation rate is slightly detuned so the tails
// decorrelate. Clamping happens here; the wrapped setters only see
// in-range values.
type fdnReverbModule struct {
	moduleBase

	left  *reverb.FDNReverb
	right *reverb.FDNReverb
}

const fdnModRateDetune = 1.07

func newFDNReverbModule(ctx Context, id string) (Module, error) {
	left, err := reverb.NewFDNReverb(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	right, err := reverb.NewFDNReverb(ctx.SampleRate)
	if err != nil {
		return nil, err
	}

	if err := right.SetModRate(left.ModRate() * fdnModRateDetune); err != nil {
		return nil, err
	}

	return &fdnReverbModule{
		moduleBase: newModuleBase(id, TypeFDNReverb),
		left:       left,
		right:      right,
	}, nil
}

//nolint:cyclop
func (f *fdnReverbModule) SetParam(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil
	}

	apply := func(set func(r *reverb.FDNReverb) error) error {
		if err := set(f.left); err != nil {
			return err
		}

		return set(f.right)
	}

	switch name {
	case "wet":
		v := core.Clamp(value, 0, 1)
		return apply(func(r *reverb.FDNReverb) error { return r.SetWet(v) })
	case "dry":
		v := core.Clamp(value, 0, 1)
		return apply(func(r *reverb.FDNReverb) error { return r.SetDry(v) })
	case "rt60":
		v := core.Clamp(value, 0.1, 10)
		return apply(func(r *reverb.FDNReverb) error { return r.SetRT60(v) })
	case "damp":
		v := core.Clamp(value, 0, 1)
		return apply(func(r *reverb.FDNReverb) error { return r.SetDamp(v) })
	case "preDelayMs":
		v := core.Clamp(value, 0, 250) * 0.001
		return apply(func(r *reverb.FDNReverb) error { return r.SetPreDelay(v) })
	case "modDepthMs":
		v := core.Clamp(value, 0, 10) * 0.001
		return apply(func(r *reverb.FDNReverb) error { return r.SetModDepth(v) })
	case "modRateHz":
		v := core.Clamp(value, 0, 5)
		if err := f.left.SetModRate(v); err != nil {
			return err
		}

		return f.right.SetModRate(v * fdnModRateDetune)
	default:
		return f.unknownParam(name)
	}
}

func (f *fdnReverbModule) Param(name string) (float64, error) {
	switch name {
	case "wet":
		return f.left.Wet(), nil
	case "dry":
		return f.left.Dry(), nil
	case "rt60":
		return f.left.RT60(), nil
	case "damp":
		return f.left.Damp(), nil
	case "preDelayMs":
		return f.left.PreDelay() * 1000, nil
	case "modDepthMs":
		return f.left.ModDepth() * 1000, nil
	case "modRateHz":
		return f.left.ModRate(), nil
	default:
		return 0, f.unknownParam(name)
	}
}

func (f *fdnReverbModule) ProcessBlock(left, right []float64) {
	f.left.ProcessInPlace(left)
	f.right.ProcessInPlace(right)
}

func (f *fdnReverbModule) Reset() {
	f.left.Reset()
	f.right.Reset()
}

func boolParam(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
