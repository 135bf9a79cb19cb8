package spatial

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chain/dsp/delay"
)

// Room is an axis-aligned box centered on the listener. Dimensions are
// in meters; Absorption is the fraction of energy lost per boundary
// contact in [0,1].
type Room struct {
	Width      float64 // X extent
	Height     float64 // Y extent
	Depth      float64 // Z extent
	Absorption float64
}

// Validate reports whether the room geometry is usable.
func (r Room) Validate() error {
	if r.Width <= 0 || r.Height <= 0 || r.Depth <= 0 {
		return fmt.Errorf("spatial: room dimensions must be positive: %gx%gx%g",
			r.Width, r.Height, r.Depth)
	}
	if r.Absorption < 0 || r.Absorption > 1 || math.IsNaN(r.Absorption) {
		return fmt.Errorf("spatial: room absorption must be in [0,1]: %f", r.Absorption)
	}
	return nil
}

// Reflection is one image-source contribution: the mirrored source
// position, its total path length to the listener and the resulting
// tap gain.
type Reflection struct {
	Source     Position
	PathLength float64
	Gain       float64
}

// FirstOrderReflections mirrors the source across each of the six room
// boundaries and returns one reflection per boundary, scaled by
// (1 - absorption) / pathLength. The listener sits at the origin.
func FirstOrderReflections(source Position, room Room) ([]Reflection, error) {
	if err := room.Validate(); err != nil {
		return nil, err
	}

	hw, hh, hd := room.Width/2, room.Height/2, room.Depth/2
	images := [6]Position{
		{X: 2*hw - source.X, Y: source.Y, Z: source.Z},  // +X wall
		{X: -2*hw - source.X, Y: source.Y, Z: source.Z}, // -X wall
		{X: source.X, Y: 2*hh - source.Y, Z: source.Z},  // ceiling
		{X: source.X, Y: -2*hh - source.Y, Z: source.Z}, // floor
		{X: source.X, Y: source.Y, Z: 2*hd - source.Z},  // +Z wall
		{X: source.X, Y: source.Y, Z: -2*hd - source.Z}, // -Z wall
	}

	refl := make([]Reflection, 0, len(images))
	for _, img := range images {
		path := img.Distance()
		if path <= 0 {
			continue
		}
		refl = append(refl, Reflection{
			Source:     img,
			PathLength: path,
			Gain:       (1 - room.Absorption) / path,
		})
	}
	return refl, nil
}

// RoomReflector renders first-order reflections as a small set of
// delay taps on a mono signal. Retuning the room or source swaps the
// tap set without clearing the delay history.
type RoomReflector struct {
	sampleRate   float64
	speedOfSound float64

	line *delay.Line
	taps []reflectorTap
}

type reflectorTap struct {
	delay int
	gain  float64
}

// NewRoomReflector builds a reflector for rooms up to maxDimension
// meters in any direction.
func NewRoomReflector(sampleRate, maxDimension float64) (*RoomReflector, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spatial: reflector sample rate must be > 0 and finite: %f", sampleRate)
	}
	if maxDimension <= 0 || math.IsNaN(maxDimension) || math.IsInf(maxDimension, 0) {
		return nil, fmt.Errorf("spatial: reflector max dimension must be > 0 and finite: %f", maxDimension)
	}

	// Longest first-order path is just under twice the room diagonal.
	maxPath := 2 * math.Sqrt(3) * maxDimension
	size := int(maxPath/defaultSpeedOfSound*sampleRate) + 2
	line, err := delay.New(size)
	if err != nil {
		return nil, err
	}

	return &RoomReflector{
		sampleRate:   sampleRate,
		speedOfSound: defaultSpeedOfSound,
		line:         line,
	}, nil
}

// Configure computes the first-order tap set for a source in a room.
func (r *RoomReflector) Configure(source Position, room Room) error {
	refl, err := FirstOrderReflections(source, room)
	if err != nil {
		return err
	}

	taps := make([]reflectorTap, 0, len(refl))
	maxDelay := r.line.Len() - 1
	for _, ref := range refl {
		d := int(ref.PathLength / r.speedOfSound * r.sampleRate)
		if d < 1 {
			d = 1
		}
		if d > maxDelay {
			d = maxDelay
		}
		taps = append(taps, reflectorTap{delay: d, gain: ref.Gain})
	}
	r.taps = taps
	return nil
}

// Clear removes the tap set, leaving only the direct path.
func (r *RoomReflector) Clear() {
	r.taps = nil
}

// ProcessSample returns the input plus its configured reflections.
func (r *RoomReflector) ProcessSample(x float64) float64 {
	r.line.Write(x)
	out := x
	for _, tap := range r.taps {
		out += tap.gain * r.line.Read(tap.delay+1)
	}
	return out
}

// ProcessInPlace applies the reflections to a mono buffer in place.
func (r *RoomReflector) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = r.ProcessSample(x)
	}
}

// Reset clears the delay history, keeping the tap set.
func (r *RoomReflector) Reset() {
	r.line.Reset()
}
