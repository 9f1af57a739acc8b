package bodies

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/ephem"
)

// fakeProvider returns fixed values relative to the query instant and
// records every call.
type fakeProvider struct {
	sunKm  float64
	moonKm float64
	sunEq  astro.Equatorial
	moonEq astro.Equatorial

	// Event offsets from the query instant, in days.
	prevNew  float64
	nextNew  float64
	nextFull float64
	perigee  float64
	apogee   float64

	// fail maps an operation key to the error it returns.
	fail map[string]error

	calls    int
	eventJDs []astro.JulianDay
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		sunKm:    147_500_000,
		moonKm:   384_400,
		sunEq:    astro.Equatorial{RAdeg: 270, DecDeg: -23.44},
		moonEq:   astro.Equatorial{RAdeg: 90, DecDeg: 23},
		prevNew:  -15,
		nextNew:  15,
		nextFull: 29,
		perigee:  3,
		apogee:   17,
		fail:     map[string]error{},
	}
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) DistanceFromEarth(body ephem.Body, jd astro.JulianDay) (float64, error) {
	f.calls++
	if err := f.fail["distance:"+body.String()]; err != nil {
		return 0, err
	}
	if body == ephem.Sun {
		return f.sunKm, nil
	}
	return f.moonKm, nil
}

func (f *fakeProvider) ApparentEquatorial(body ephem.Body, jd astro.JulianDay) (astro.Equatorial, error) {
	f.calls++
	if err := f.fail["equatorial:"+body.String()]; err != nil {
		return astro.Equatorial{}, err
	}
	if body == ephem.Sun {
		return f.sunEq, nil
	}
	return f.moonEq, nil
}

func (f *fakeProvider) NearestPhase(event ephem.PhaseEvent, jd astro.JulianDay, dir ephem.Direction) (astro.JulianDay, error) {
	f.calls++
	f.eventJDs = append(f.eventJDs, jd)
	key := "phase:" + event.String()
	if dir == ephem.Backward {
		key += ":backward"
	}
	if err := f.fail[key]; err != nil {
		return 0, err
	}
	switch {
	case event == ephem.FullMoon:
		return jd + astro.JulianDay(f.nextFull), nil
	case dir == ephem.Backward:
		return jd + astro.JulianDay(f.prevNew), nil
	default:
		return jd + astro.JulianDay(f.nextNew), nil
	}
}

func (f *fakeProvider) NextApsis(event ephem.ApsisEvent, jd astro.JulianDay) (astro.JulianDay, error) {
	f.calls++
	f.eventJDs = append(f.eventJDs, jd)
	if err := f.fail["apsis:"+event.String()]; err != nil {
		return 0, err
	}
	if event == ephem.Perigee {
		return jd + astro.JulianDay(f.perigee), nil
	}
	return jd + astro.JulianDay(f.apogee), nil
}

var queryTime = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestAssembler(p ephem.Provider) *Assembler {
	return NewAssembler(p, DefaultConfig(), nil)
}

func computationFailure(op string) error {
	return astro.NewComputationError(op, errors.New("did not converge"))
}

func TestComputeSun_NoLocation(t *testing.T) {
	p := newFakeProvider()
	sun, err := newTestAssembler(p).ComputeSun(queryTime, nil)
	if err != nil {
		t.Fatalf("ComputeSun failed: %v", err)
	}

	if sun.Kind() != KindSun || sun.Name() != "Sun" {
		t.Errorf("Kind/Name = %v/%q, want Sun", sun.Kind(), sun.Name())
	}
	if sun.Instant() != astro.ToJulianDay(queryTime) {
		t.Errorf("Instant = %v, want %v", sun.Instant(), astro.ToJulianDay(queryTime))
	}
	if sun.DistanceFromEarthKm == nil || *sun.DistanceFromEarthKm != p.sunKm {
		t.Errorf("DistanceFromEarthKm = %v, want %v", sun.DistanceFromEarthKm, p.sunKm)
	}
	if sun.DistanceFromMoonKm == nil || *sun.DistanceFromMoonKm != p.sunKm-p.moonKm {
		t.Errorf("DistanceFromMoonKm = %v, want %v", sun.DistanceFromMoonKm, p.sunKm-p.moonKm)
	}
	if sun.PerihelionKm != ephem.PerihelionKm || sun.AphelionKm != ephem.AphelionKm {
		t.Errorf("extremes = %v/%v", sun.PerihelionKm, sun.AphelionKm)
	}
	if sun.Position != nil || sun.Rise != nil || sun.Set != nil {
		t.Error("observer fields should be absent without a location")
	}
}

func TestComputeSun_WithLocation(t *testing.T) {
	p := newFakeProvider()
	geo := astro.NewGeo(40, 0, 0)

	sun, err := newTestAssembler(p).ComputeSun(queryTime, &geo)
	if err != nil {
		t.Fatalf("ComputeSun failed: %v", err)
	}
	if sun.Position == nil {
		t.Fatal("Position should be present with a location")
	}
	want := astro.HorizontalPosition(p.sunEq, geo, sun.At)
	if *sun.Position != want {
		t.Errorf("Position = %+v, want %+v", *sun.Position, want)
	}
	for name, ev := range map[string]*HorizonEvent{"rise": sun.Rise, "set": sun.Set} {
		if ev == nil {
			continue
		}
		if ev.AzimuthDeg < 0 || ev.AzimuthDeg >= 360 {
			t.Errorf("%s azimuth = %v, want [0, 360)", name, ev.AzimuthDeg)
		}
	}
}

func TestComputeMoon_Phase(t *testing.T) {
	p := newFakeProvider()
	moon, err := newTestAssembler(p).ComputeMoon(queryTime, nil)
	if err != nil {
		t.Fatalf("ComputeMoon failed: %v", err)
	}

	if moon.PhaseFraction == nil || math.Abs(*moon.PhaseFraction-0.5) > 1e-9 {
		t.Errorf("PhaseFraction = %v, want 0.5", moon.PhaseFraction)
	}
	if moon.Phase == nil || *moon.Phase != astro.PhaseFull {
		t.Errorf("Phase = %v, want Full Moon", moon.Phase)
	}
	if moon.NextNewMoon == nil || *moon.NextNewMoon != moon.At+15 {
		t.Errorf("NextNewMoon = %v, want %v", moon.NextNewMoon, moon.At+15)
	}
	if moon.NextFullMoon == nil || *moon.NextFullMoon != moon.At+29 {
		t.Errorf("NextFullMoon = %v, want %v", moon.NextFullMoon, moon.At+29)
	}
	if moon.NextPerigee == nil || moon.NextPerigee.Time != moon.At+3 || moon.NextPerigee.DistanceKm != p.moonKm {
		t.Errorf("NextPerigee = %+v", moon.NextPerigee)
	}
	if moon.NextApogee == nil || moon.NextApogee.Time != moon.At+17 {
		t.Errorf("NextApogee = %+v", moon.NextApogee)
	}
	// Sun and Moon opposite on the sky.
	if moon.Illuminated == nil || *moon.Illuminated < 0.99 {
		t.Errorf("Illuminated = %v, want ~1", moon.Illuminated)
	}
}

func TestComputeEarth(t *testing.T) {
	p := newFakeProvider()
	geo := astro.NewGeo(51.48, 0, 0)

	earth, err := newTestAssembler(p).ComputeEarth(queryTime, &geo)
	if err != nil {
		t.Fatalf("ComputeEarth failed: %v", err)
	}
	if earth.DistanceFromSunKm == nil || *earth.DistanceFromSunKm != p.sunKm {
		t.Errorf("DistanceFromSunKm = %v, want %v", earth.DistanceFromSunKm, p.sunKm)
	}
	if earth.DistanceFromMoonKm == nil || *earth.DistanceFromMoonKm != p.moonKm {
		t.Errorf("DistanceFromMoonKm = %v, want %v", earth.DistanceFromMoonKm, p.moonKm)
	}
	if earth.AxialTiltDeg == nil || math.Abs(*earth.AxialTiltDeg-23.436) > 0.01 {
		t.Errorf("AxialTiltDeg = %v, want ~23.436", earth.AxialTiltDeg)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	tests := []struct {
		name   string
		sunKm  float64
		moonKm float64
	}{
		{"typical", 149_600_000, 384_400},
		{"perigee", 147_100_000, 356_500},
		{"equal", 1000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			p.sunKm, p.moonKm = tt.sunKm, tt.moonKm

			r, err := newTestAssembler(p).ComputeAll(queryTime, nil)
			if err != nil {
				t.Fatalf("ComputeAll failed: %v", err)
			}
			if *r.Sun.DistanceFromMoonKm != *r.Moon.DistanceFromSunKm {
				t.Errorf("Sun-Moon %v != Moon-Sun %v", *r.Sun.DistanceFromMoonKm, *r.Moon.DistanceFromSunKm)
			}
			if *r.Sun.DistanceFromMoonKm < 0 {
				t.Errorf("distance %v should be non-negative", *r.Sun.DistanceFromMoonKm)
			}
		})
	}
}

func TestCompute_InvalidInput(t *testing.T) {
	badGeo := astro.NewGeo(91, 0, 0)
	nanGeo := astro.NewGeo(math.NaN(), 0, 0)

	tests := []struct {
		name    string
		t       time.Time
		geo     *astro.Geo
		wantErr error
	}{
		{"zero time", time.Time{}, nil, ErrInvalidTime},
		{"latitude out of range", queryTime, &badGeo, astro.ErrInvalidLocation},
		{"non-finite latitude", queryTime, &nanGeo, astro.ErrInvalidLocation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider()
			a := newTestAssembler(p)

			sun, err := a.ComputeSun(tt.t, tt.geo)
			if !errors.Is(err, tt.wantErr) || sun != nil {
				t.Errorf("ComputeSun = %v, %v; want nil, %v", sun, err, tt.wantErr)
			}
			moon, err := a.ComputeMoon(tt.t, tt.geo)
			if !errors.Is(err, tt.wantErr) || moon != nil {
				t.Errorf("ComputeMoon = %v, %v; want nil, %v", moon, err, tt.wantErr)
			}
			earth, err := a.ComputeEarth(tt.t, tt.geo)
			if !errors.Is(err, tt.wantErr) || earth != nil {
				t.Errorf("ComputeEarth = %v, %v; want nil, %v", earth, err, tt.wantErr)
			}
			r, err := a.ComputeAll(tt.t, tt.geo)
			if !errors.Is(err, tt.wantErr) || r != nil {
				t.Errorf("ComputeAll = %v, %v; want nil, %v", r, err, tt.wantErr)
			}
			if p.calls != 0 {
				t.Errorf("provider called %d times, want 0", p.calls)
			}
		})
	}
}

func TestComputeMoon_PartialFailure(t *testing.T) {
	p := newFakeProvider()
	p.fail["phase:new moon:backward"] = computationFailure("new moon")

	moon, err := newTestAssembler(p).ComputeMoon(queryTime, nil)
	if !errors.Is(err, astro.ErrComputation) {
		t.Fatalf("err = %v, want ComputationError", err)
	}
	if moon == nil {
		t.Fatal("snapshot should be returned alongside a ComputationError")
	}
	if moon.PhaseFraction != nil || moon.Phase != nil {
		t.Error("phase should be absent when the bracket is unavailable")
	}
	if moon.DistanceFromEarthKm == nil {
		t.Error("DistanceFromEarthKm should survive an unrelated failure")
	}
	if moon.NextFullMoon == nil || moon.NextPerigee == nil {
		t.Error("independent events should survive an unrelated failure")
	}
}

func TestComputeMoon_InvertedBracket(t *testing.T) {
	p := newFakeProvider()
	p.prevNew, p.nextNew = 5, 5

	moon, err := newTestAssembler(p).ComputeMoon(queryTime, nil)
	if !errors.Is(err, astro.ErrInvertedBracket) {
		t.Fatalf("err = %v, want ErrInvertedBracket", err)
	}
	if !errors.Is(err, astro.ErrComputation) {
		t.Errorf("err = %v, want ComputationError", err)
	}
	if moon.PhaseFraction != nil || moon.Phase != nil {
		t.Errorf("phase = %v/%v, want absent", moon.PhaseFraction, moon.Phase)
	}
}

func TestComputeAll_SunDistanceFailure(t *testing.T) {
	p := newFakeProvider()
	p.fail["distance:Sun"] = computationFailure("sun distance")

	r, err := newTestAssembler(p).ComputeAll(queryTime, nil)
	if !errors.Is(err, astro.ErrComputation) {
		t.Fatalf("err = %v, want ComputationError", err)
	}
	if r.Sun.DistanceFromEarthKm != nil || r.Sun.DistanceFromMoonKm != nil {
		t.Error("Sun distances should be absent")
	}
	if r.Moon.DistanceFromSunKm != nil || r.Earth.DistanceFromSunKm != nil {
		t.Error("distances derived from the Sun should be absent")
	}
	if r.Moon.DistanceFromEarthKm == nil || r.Earth.DistanceFromMoonKm == nil {
		t.Error("Moon distances should be present")
	}
}

func TestComputeSun_BothDistancesFail(t *testing.T) {
	p := newFakeProvider()
	sunErr := computationFailure("sun distance")
	moonErr := computationFailure("moon distance")
	p.fail["distance:Sun"] = sunErr
	p.fail["distance:Moon"] = moonErr

	tests := []struct {
		name    string
		compute func(a *Assembler) error
		field   string
	}{
		{"sun", func(a *Assembler) error { _, err := a.ComputeSun(queryTime, nil); return err }, "Sun distance_from_moon"},
		{"moon", func(a *Assembler) error { _, err := a.ComputeMoon(queryTime, nil); return err }, "Moon distance_from_sun"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.compute(newTestAssembler(p))
			if !errors.Is(err, sunErr) || !errors.Is(err, moonErr) {
				t.Errorf("err = %v, want both distance causes", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("err = %v, want it to name %q", err, tt.field)
			}
		})
	}
}

func TestComputeAll_SingleInstant(t *testing.T) {
	p := newFakeProvider()
	r, err := newTestAssembler(p).ComputeAll(queryTime, nil)
	if err != nil {
		t.Fatalf("ComputeAll failed: %v", err)
	}

	if len(p.eventJDs) == 0 {
		t.Fatal("no event queries recorded")
	}
	for i, jd := range p.eventJDs {
		if jd != r.At {
			t.Errorf("event query %d at %v, want %v", i, jd, r.At)
		}
	}
	for _, s := range r.Snapshots() {
		if s.Instant() != r.At {
			t.Errorf("%s instant = %v, want %v", s.Name(), s.Instant(), r.At)
		}
	}
	if got := len(r.Snapshots()); got != 3 {
		t.Errorf("Snapshots = %d, want 3", got)
	}
}

func TestComputeSun_PositionFailure(t *testing.T) {
	p := newFakeProvider()
	p.fail["equatorial:Sun"] = computationFailure("sun position")
	geo := astro.NewGeo(40, 0, 0)

	sun, err := newTestAssembler(p).ComputeSun(queryTime, &geo)
	if !errors.Is(err, astro.ErrComputation) {
		t.Fatalf("err = %v, want ComputationError", err)
	}
	if sun.Position != nil || sun.Rise != nil || sun.Set != nil {
		t.Error("observer fields should be absent when the position fails")
	}
	if sun.DistanceFromEarthKm == nil {
		t.Error("DistanceFromEarthKm should be present")
	}
}

func TestNewAssembler_NilLocation(t *testing.T) {
	a := NewAssembler(newFakeProvider(), Config{Solver: astro.NewSolver()}, nil)
	if a.cfg.Location != time.UTC {
		t.Errorf("Location = %v, want UTC", a.cfg.Location)
	}
}
