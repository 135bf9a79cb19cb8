package spatial

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-chain/dsp/core"
)

const (
	numAzimuths   = 8
	numElevations = 5

	hrtfIRMs = 5.0

	defaultHeadRadius      = 0.0875 // meters
	defaultSpeedOfSound    = 343.0  // m/s
	defaultDistanceFalloff = 0.5    // gain = 1/(1 + distance*k)

	// Per-ear resonance decorating the synthesized responses.
	hrtfResonanceHz    = 3000.0
	hrtfResonanceDecay = 1800.0 // 1/s

	positionGainSmoothingMs = 20.0
)

// Position is a 3D point in meters relative to the listener at the
// origin. The listener faces -Z, +X is to the right and +Y is up.
type Position struct {
	X, Y, Z float64
}

// Distance returns the Euclidean distance from the origin.
func (p Position) Distance() float64 {
	return math.Sqrt(p.X*p.X + p.Y*p.Y + p.Z*p.Z)
}

// spherical converts the position to azimuth (radians, 0 ahead,
// positive to the right) and elevation (radians, positive up).
func (p Position) spherical() (azimuth, elevation float64) {
	d := p.Distance()
	if d == 0 {
		return 0, 0
	}
	azimuth = math.Atan2(p.X, -p.Z)
	elevation = math.Asin(core.Clamp(p.Y/d, -1, 1))
	return azimuth, elevation
}

type hrtfEntry struct {
	azimuth   float64
	elevation float64
	left      []float64
	right     []float64
}

// SpatializerOption mutates spatializer construction parameters.
type SpatializerOption func(*spatializerConfig) error

type spatializerConfig struct {
	headRadius      float64
	speedOfSound    float64
	distanceFalloff float64
}

func defaultSpatializerConfig() spatializerConfig {
	return spatializerConfig{
		headRadius:      defaultHeadRadius,
		speedOfSound:    defaultSpeedOfSound,
		distanceFalloff: defaultDistanceFalloff,
	}
}

// WithHeadRadius overrides the listener head radius in meters.
func WithHeadRadius(radius float64) SpatializerOption {
	return func(cfg *spatializerConfig) error {
		if radius <= 0 || math.IsNaN(radius) || math.IsInf(radius, 0) {
			return fmt.Errorf("spatializer head radius must be > 0 and finite: %f", radius)
		}
		cfg.headRadius = radius
		return nil
	}
}

// WithSpeedOfSound overrides the speed of sound in m/s.
func WithSpeedOfSound(speed float64) SpatializerOption {
	return func(cfg *spatializerConfig) error {
		if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
			return fmt.Errorf("spatializer speed of sound must be > 0 and finite: %f", speed)
		}
		cfg.speedOfSound = speed
		return nil
	}
}

// WithDistanceFalloff overrides the distance attenuation constant k in
// gain = 1/(1 + distance*k).
func WithDistanceFalloff(k float64) SpatializerOption {
	return func(cfg *spatializerConfig) error {
		if k < 0 || math.IsNaN(k) || math.IsInf(k, 0) {
			return fmt.Errorf("spatializer distance falloff must be >= 0 and finite: %f", k)
		}
		cfg.distanceFalloff = k
		return nil
	}
}

// Spatializer renders a mono source at a 3D position to binaural stereo
// using a coarse grid of synthesized head-related impulse responses.
//
// The grid samples 8 azimuths by 5 elevations. Each entry holds a short
// per-ear response built from a simplified interaural time difference
// (head radius over speed of sound, scaled by sin of the azimuth), a
// cosine interaural level falloff and an exponentially decaying
// resonance. Lookups are nearest neighbor; moving a source across a
// grid boundary swaps responses without crossfading.
type Spatializer struct {
	sampleRate      float64
	headRadius      float64
	speedOfSound    float64
	distanceFalloff float64

	grid [numAzimuths][numElevations]hrtfEntry

	pos     Position
	azIndex int
	elIndex int

	gain *core.SmoothedParam // distance gain

	earL firPath
	earR firPath
}

// NewSpatializer builds the HRTF grid and places the source directly
// ahead at one meter.
func NewSpatializer(sampleRate float64, opts ...SpatializerOption) (*Spatializer, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("spatializer sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultSpatializerConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	s := &Spatializer{
		sampleRate:      sampleRate,
		headRadius:      cfg.headRadius,
		speedOfSound:    cfg.speedOfSound,
		distanceFalloff: cfg.distanceFalloff,
		gain:            core.NewSmoothedParam(1, positionGainSmoothingMs, sampleRate),
	}
	s.buildGrid()

	s.azIndex, s.elIndex = -1, -1
	s.SetPosition(Position{Z: -1})
	return s, nil
}

func (s *Spatializer) buildGrid() {
	irLen := int(hrtfIRMs * 0.001 * s.sampleRate)
	if irLen < 8 {
		irLen = 8
	}

	for ai := 0; ai < numAzimuths; ai++ {
		az := gridAzimuth(ai)
		for ei := 0; ei < numElevations; ei++ {
			el := gridElevation(ei)
			s.grid[ai][ei] = hrtfEntry{
				azimuth:   az,
				elevation: el,
				left:      s.synthesizeEarIR(az, el, false, irLen),
				right:     s.synthesizeEarIR(az, el, true, irLen),
			}
		}
	}
}

func gridAzimuth(index int) float64 {
	// Eight points around the full circle, 45 degrees apart.
	return -math.Pi + float64(index)*(2*math.Pi/numAzimuths)
}

func gridElevation(index int) float64 {
	// Five points from -60 to +60 degrees.
	return (-60 + float64(index)*30) * math.Pi / 180
}

// synthesizeEarIR builds one ear's response for a grid direction.
func (s *Spatializer) synthesizeEarIR(az, el float64, rightEar bool, irLen int) []float64 {
	ir := make([]float64, irLen)

	// Interaural time difference: the ear away from the source hears
	// the wavefront later.
	itd := s.headRadius / s.speedOfSound * math.Sin(az)
	delaySec := 0.0
	if rightEar {
		if itd < 0 {
			delaySec = -itd
		}
	} else {
		if itd > 0 {
			delaySec = itd
		}
	}
	delay := int(delaySec * s.sampleRate)
	if delay >= irLen {
		delay = irLen - 1
	}

	// Interaural level difference: cosine falloff toward the shadowed
	// side. Straight ahead both ears sit at the same level.
	earAz := az
	if rightEar {
		earAz = -az
	}
	level := 0.5 * (1 + math.Cos(earAz+math.Pi/2))
	if level < 0.05 {
		level = 0.05 // head shadowing never fully mutes an ear
	}

	// Elevation tilts the resonance rather than the broadband level.
	resHz := hrtfResonanceHz * (1 + 0.4*math.Sin(el))

	ir[delay] = level
	for k := delay + 1; k < irLen; k++ {
		t := float64(k-delay) / s.sampleRate
		ir[k] = 0.3 * level * math.Exp(-hrtfResonanceDecay*t) * math.Cos(2*math.Pi*resHz*t)
	}
	return ir
}

// SetPosition moves the source and re-runs the nearest-neighbor grid
// lookup. The per-ear responses are rebound only when the selected grid
// entry actually changes; the distance gain glide updates every call.
func (s *Spatializer) SetPosition(p Position) {
	s.pos = p

	az, el := p.spherical()
	ai, ei := s.nearestEntry(az, el)
	if ai != s.azIndex || ei != s.elIndex {
		s.azIndex, s.elIndex = ai, ei
		entry := &s.grid[ai][ei]
		s.earL.init(entry.left)
		s.earR.init(entry.right)
	}

	s.gain.SetTarget(1 / (1 + p.Distance()*s.distanceFalloff))
}

// nearestEntry picks the grid entry with the smallest Euclidean angular
// distance to the requested direction.
func (s *Spatializer) nearestEntry(az, el float64) (azIndex, elIndex int) {
	best := math.MaxFloat64
	for ai := 0; ai < numAzimuths; ai++ {
		for ei := 0; ei < numElevations; ei++ {
			e := &s.grid[ai][ei]
			da := angleDelta(az, e.azimuth)
			de := el - e.elevation
			d := da*da + de*de
			if d < best {
				best = d
				azIndex, elIndex = ai, ei
			}
		}
	}
	return azIndex, elIndex
}

func angleDelta(a, b float64) float64 {
	d := math.Mod(a-b+3*math.Pi, 2*math.Pi) - math.Pi
	return d
}

// Position returns the current source position.
func (s *Spatializer) Position() Position { return s.pos }

// GridIndices returns the selected azimuth and elevation grid indices.
func (s *Spatializer) GridIndices() (azimuth, elevation int) {
	return s.azIndex, s.elIndex
}

// GridDirection returns the azimuth and elevation of the selected grid
// entry in radians.
func (s *Spatializer) GridDirection() (azimuth, elevation float64) {
	e := &s.grid[s.azIndex][s.elIndex]
	return e.azimuth, e.elevation
}

// MoveTowards steps the source toward target by at most step meters and
// re-runs the grid lookup. It returns true when the target is reached.
func (s *Spatializer) MoveTowards(target Position, step float64) bool {
	if step <= 0 || math.IsNaN(step) {
		return false
	}
	dx := target.X - s.pos.X
	dy := target.Y - s.pos.Y
	dz := target.Z - s.pos.Z
	dist := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if dist <= step {
		s.SetPosition(target)
		return true
	}
	scale := step / dist
	s.SetPosition(Position{
		X: s.pos.X + dx*scale,
		Y: s.pos.Y + dy*scale,
		Z: s.pos.Z + dz*scale,
	})
	return false
}

// Orbit rotates the source around the vertical axis by the given angle
// in radians, keeping its height and distance, and re-runs the lookup.
func (s *Spatializer) Orbit(angle float64) {
	if math.IsNaN(angle) {
		return
	}
	sin, cos := math.Sincos(angle)
	x := s.pos.X*cos - s.pos.Z*sin
	z := s.pos.X*sin + s.pos.Z*cos
	s.SetPosition(Position{X: x, Y: s.pos.Y, Z: z})
}

// ProcessSample renders one mono input sample to binaural stereo.
func (s *Spatializer) ProcessSample(x float64) (left, right float64) {
	g := s.gain.Tick()
	return g * s.earL.process(x), g * s.earR.process(x)
}

// ProcessBlock renders a mono input block into left and right output
// buffers of the same length.
func (s *Spatializer) ProcessBlock(input, left, right []float64) error {
	if len(left) != len(input) || len(right) != len(input) {
		return fmt.Errorf("spatializer: buffer lengths differ: in=%d left=%d right=%d",
			len(input), len(left), len(right))
	}
	for i, x := range input {
		left[i], right[i] = s.ProcessSample(x)
	}
	return nil
}

// Reset clears both ear convolution paths and snaps the distance gain.
func (s *Spatializer) Reset() {
	s.earL.reset()
	s.earR.reset()
	s.gain.Snap(s.gain.Target())
}

// SampleRate returns the sample rate the responses were built for.
func (s *Spatializer) SampleRate() float64 { return s.sampleRate }
