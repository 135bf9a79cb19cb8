package spatial

import (
	"math"
	"testing"
)

func TestSpatializerAheadSelectsCenterEntry(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	s.SetPosition(Position{Z: -1})

	az, el := s.GridDirection()
	if az != 0 || el != 0 {
		t.Fatalf("GridDirection() = (%g, %g), want (0, 0)", az, el)
	}
}

func TestSpatializerAheadEqualEarLevels(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	s.SetPosition(Position{Z: -1})
	s.Reset()

	// Impulse through both ear paths: the responses must match exactly
	// for a source directly ahead.
	n := 256
	var energyL, energyR float64
	for i := 0; i < n; i++ {
		x := 0.0
		if i == 0 {
			x = 1
		}
		l, r := s.ProcessSample(x)
		if math.Abs(l-r) > 1e-12 {
			t.Fatalf("sample %d: ears differ for a centered source: L=%g R=%g", i, l, r)
		}
		energyL += l * l
		energyR += r * r
	}

	if energyL == 0 || energyR == 0 {
		t.Fatal("no ear output for an impulse")
	}
}

func TestSpatializerRightSourceFavorsRightEar(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	s.SetPosition(Position{X: 1}) // hard right
	s.Reset()

	n := 512
	var energyL, energyR float64
	firstL, firstR := -1, -1
	for i := 0; i < n; i++ {
		x := 0.0
		if i == 0 {
			x = 1
		}
		l, r := s.ProcessSample(x)
		energyL += l * l
		energyR += r * r
		if firstL < 0 && math.Abs(l) > 1e-9 {
			firstL = i
		}
		if firstR < 0 && math.Abs(r) > 1e-9 {
			firstR = i
		}
	}

	if energyR <= energyL {
		t.Errorf("right source: ear energies L=%g R=%g, want right louder", energyL, energyR)
	}

	// Interaural time difference: the far (left) ear hears later.
	if firstL <= firstR {
		t.Errorf("right source: first arrival L=%d R=%d, want left delayed", firstL, firstR)
	}
}

func TestSpatializerDistanceAttenuation(t *testing.T) {
	impulseEnergy := func(p Position) float64 {
		s, err := NewSpatializer(48000)
		if err != nil {
			t.Fatalf("NewSpatializer() error = %v", err)
		}
		s.SetPosition(p)
		s.Reset()

		var energy float64
		for i := 0; i < 256; i++ {
			x := 0.0
			if i == 0 {
				x = 1
			}
			l, r := s.ProcessSample(x)
			energy += l*l + r*r
		}
		return energy
	}

	near := impulseEnergy(Position{Z: -1})
	far := impulseEnergy(Position{Z: -8})
	if far >= near {
		t.Errorf("distance attenuation missing: near=%g far=%g", near, far)
	}
}

func TestSpatializerNearestNeighborWraparound(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	// Slightly past +175 degrees should wrap to the -180 entry rather
	// than landing on +135.
	az := 178.0 * math.Pi / 180
	s.SetPosition(Position{X: math.Sin(az), Z: -math.Cos(az)})

	gotAz, _ := s.GridDirection()
	if gotAz != -math.Pi {
		t.Errorf("GridDirection() azimuth = %g, want wrap to -pi", gotAz)
	}
}

func TestSpatializerMoveTowards(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	s.SetPosition(Position{Z: -1})
	target := Position{X: 3, Z: -1}

	calls := 0
	for {
		calls++
		if calls > 100 {
			t.Fatal("MoveTowards never reached the target")
		}
		if s.MoveTowards(target, 0.5) {
			break
		}
	}

	if got := s.Position(); got != target {
		t.Errorf("Position() = %+v, want %+v", got, target)
	}
	// 3 meters at 0.5 per step: the sixth step snaps onto the target.
	if calls != 6 {
		t.Errorf("calls = %d, want 6", calls)
	}
}

func TestSpatializerOrbit(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	s.SetPosition(Position{Z: -1})
	s.Orbit(math.Pi / 2)

	got := s.Position()
	if math.Abs(got.X-1) > 1e-12 || math.Abs(got.Z) > 1e-12 {
		t.Errorf("Position() = %+v, want (1, 0, 0)", got)
	}

	// A quarter orbit from ahead lands on the hard-right grid entry.
	gotAz, _ := s.GridDirection()
	if math.Abs(gotAz-math.Pi/2) > 1e-12 {
		t.Errorf("GridDirection() azimuth = %g, want pi/2", gotAz)
	}

	// Orbiting must preserve the distance.
	if d := got.Distance(); math.Abs(d-1) > 1e-12 {
		t.Errorf("Distance() = %g after orbit, want 1", d)
	}
}

func TestSpatializerEntryRebindOnlyOnChange(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	s.SetPosition(Position{Z: -1})

	// Prime the ear paths with signal.
	for i := 0; i < 64; i++ {
		s.ProcessSample(0.5)
	}

	// A small move inside the same grid cell must not clear the
	// convolution history, so the output continues smoothly.
	l1, _ := s.ProcessSample(0.5)
	s.SetPosition(Position{X: 0.01, Z: -1})
	l2, _ := s.ProcessSample(0.5)

	if math.Abs(l1-l2) > 0.05 {
		t.Errorf("output stepped after an in-cell move: %g -> %g", l1, l2)
	}
}

func TestSpatializerOptionValidation(t *testing.T) {
	if _, err := NewSpatializer(0); err == nil {
		t.Error("zero sample rate accepted")
	}
	if _, err := NewSpatializer(48000, WithHeadRadius(0)); err == nil {
		t.Error("zero head radius accepted")
	}
	if _, err := NewSpatializer(48000, WithSpeedOfSound(-1)); err == nil {
		t.Error("negative speed of sound accepted")
	}
	if _, err := NewSpatializer(48000, WithDistanceFalloff(math.NaN())); err == nil {
		t.Error("NaN distance falloff accepted")
	}
}

func TestSpatializerProcessBlockLengthCheck(t *testing.T) {
	s, err := NewSpatializer(48000)
	if err != nil {
		t.Fatalf("NewSpatializer() error = %v", err)
	}

	in := make([]float64, 8)
	if err := s.ProcessBlock(in, make([]float64, 8), make([]float64, 7)); err == nil {
		t.Error("mismatched output length accepted")
	}
	if err := s.ProcessBlock(in, make([]float64, 8), make([]float64, 8)); err != nil {
		t.Errorf("ProcessBlock() error = %v", err)
	}
}
