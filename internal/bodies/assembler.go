package bodies

import (
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/ephem"
	"github.com/litescript/ls-celestial/internal/logging"
	"github.com/litescript/ls-celestial/internal/metrics"
)

// ErrInvalidTime is returned for a zero timestamp.
var ErrInvalidTime = errors.New("invalid query time")

// Windows holds the daily rise/set search windows per body and event.
type Windows struct {
	SunRise  astro.SearchWindow
	SunSet   astro.SearchWindow
	MoonRise astro.SearchWindow
	MoonSet  astro.SearchWindow
}

// DefaultWindows returns the fixed local-time windows: 06:00-08:00 for
// sunrise, 16:00-18:00 for sunset, and the whole day in two-hour slices
// for the Moon, whose rise drifts by about 50 minutes a day.
//
// The Sun windows miss events outside them (long summer days, high
// latitudes); that is reported as no crossing.
func DefaultWindows() Windows {
	moon := astro.SearchWindow{From: 0, To: astro.WholeDay, Slice: 2 * time.Hour}
	return Windows{
		SunRise:  astro.SearchWindow{From: 6 * time.Hour, To: 8 * time.Hour},
		SunSet:   astro.SearchWindow{From: 16 * time.Hour, To: 18 * time.Hour},
		MoonRise: moon,
		MoonSet:  moon,
	}
}

// Config holds configuration for the assembler.
type Config struct {
	// Location defines local midnight for the rise/set windows.
	// Nil means UTC.
	Location *time.Location
	Solver   astro.Solver
	Windows  Windows
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		Location: time.UTC,
		Solver:   astro.NewSolver(),
		Windows:  DefaultWindows(),
	}
}

// Assembler builds body snapshots. It holds no mutable state, so one
// Assembler may serve concurrent callers.
type Assembler struct {
	provider ephem.Provider
	cfg      Config
	logger   *logging.Logger
}

// NewAssembler creates an assembler over an ephemeris provider.
func NewAssembler(provider ephem.Provider, cfg Config, logger *logging.Logger) *Assembler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Assembler{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With("component", "bodies"),
	}
}

// ComputeSun returns the Sun snapshot for t. With a nil geo, the
// observer-dependent fields are left nil.
//
// Input errors are returned with a nil snapshot. ComputationErrors are
// returned alongside a snapshot in which the affected fields are nil.
func (a *Assembler) ComputeSun(t time.Time, geo *astro.Geo) (*SunSnapshot, error) {
	jd, err := a.prepare(t, geo)
	if err != nil {
		return nil, err
	}
	return a.sun(jd, geo)
}

// ComputeMoon returns the Moon snapshot for t.
func (a *Assembler) ComputeMoon(t time.Time, geo *astro.Geo) (*MoonSnapshot, error) {
	jd, err := a.prepare(t, geo)
	if err != nil {
		return nil, err
	}
	return a.moon(jd, geo)
}

// ComputeEarth returns the Earth snapshot for t. The Earth has no
// observer-dependent fields; geo is only validated.
func (a *Assembler) ComputeEarth(t time.Time, geo *astro.Geo) (*EarthSnapshot, error) {
	jd, err := a.prepare(t, geo)
	if err != nil {
		return nil, err
	}
	return a.earth(jd)
}

// ComputeAll builds all three snapshots from a single JulianDay.
func (a *Assembler) ComputeAll(t time.Time, geo *astro.Geo) (*Report, error) {
	jd, err := a.prepare(t, geo)
	if err != nil {
		return nil, err
	}

	r := &Report{At: jd}
	if geo != nil {
		g := *geo
		r.Geo = &g
	}

	var errs []error
	var e error
	r.Sun, e = a.sun(jd, geo)
	errs = append(errs, e)
	r.Moon, e = a.moon(jd, geo)
	errs = append(errs, e)
	r.Earth, e = a.earth(jd)
	errs = append(errs, e)

	return r, errors.Join(errs...)
}

func (a *Assembler) prepare(t time.Time, geo *astro.Geo) (astro.JulianDay, error) {
	if t.IsZero() {
		return 0, ErrInvalidTime
	}
	if geo != nil {
		if err := geo.Validate(); err != nil {
			return 0, err
		}
	}
	return astro.ToJulianDay(t), nil
}

func (a *Assembler) sun(jd astro.JulianDay, geo *astro.Geo) (*SunSnapshot, error) {
	start := time.Now()
	fc := a.newCollector(KindSun)

	s := &SunSnapshot{
		At:           jd,
		PerihelionKm: ephem.PerihelionKm,
		AphelionKm:   ephem.AphelionKm,
	}

	sunKm, sunErr := a.provider.DistanceFromEarth(ephem.Sun, jd)
	moonKm, moonErr := a.provider.DistanceFromEarth(ephem.Moon, jd)
	if fc.ok("distance_from_earth", sunErr) {
		s.DistanceFromEarthKm = ptr(sunKm)
	}
	if fc.ok("distance_from_moon", errors.Join(sunErr, moonErr)) {
		s.DistanceFromMoonKm = ptr(astro.SeparationDistance(sunKm, moonKm))
	}

	if geo != nil {
		s.Position = a.position(fc, ephem.Sun, *geo, jd)
		s.Rise, s.Set = a.riseSet(fc, ephem.Sun, *geo, jd, a.cfg.Windows.SunRise, a.cfg.Windows.SunSet)
	}

	return s, fc.finish(start)
}

func (a *Assembler) moon(jd astro.JulianDay, geo *astro.Geo) (*MoonSnapshot, error) {
	start := time.Now()
	fc := a.newCollector(KindMoon)
	m := &MoonSnapshot{At: jd}

	moonKm, moonErr := a.provider.DistanceFromEarth(ephem.Moon, jd)
	sunKm, sunErr := a.provider.DistanceFromEarth(ephem.Sun, jd)
	if fc.ok("distance_from_earth", moonErr) {
		m.DistanceFromEarthKm = ptr(moonKm)
	}
	if fc.ok("distance_from_sun", errors.Join(moonErr, sunErr)) {
		m.DistanceFromSunKm = ptr(astro.SeparationDistance(moonKm, sunKm))
	}

	// Phase within the synodic month bracketed by new moons.
	prevNew, prevErr := a.provider.NearestPhase(ephem.NewMoon, jd, ephem.Backward)
	nextNew, nextErr := a.provider.NearestPhase(ephem.NewMoon, jd, ephem.Forward)
	if fc.ok("previous_new_moon", prevErr) && fc.ok("next_new_moon", nextErr) {
		m.NextNewMoon = ptr(nextNew)
		frac, err := astro.PhaseFraction(jd, prevNew, nextNew)
		if fc.ok("phase", err) {
			m.PhaseFraction = ptr(frac)
			m.Phase = ptr(astro.PhaseLabel(frac))
		}
	}

	if full, err := a.provider.NearestPhase(ephem.FullMoon, jd, ephem.Forward); fc.ok("next_full_moon", err) {
		m.NextFullMoon = ptr(full)
	}

	sunEq, err := a.provider.ApparentEquatorial(ephem.Sun, jd)
	if fc.ok("illuminated", err) {
		if moonEq, err := a.provider.ApparentEquatorial(ephem.Moon, jd); fc.ok("illuminated", err) {
			m.Illuminated = ptr(astro.Illumination(astro.AngularSeparation(sunEq, moonEq)))
		}
	}

	m.NextPerigee = a.apsis(fc, ephem.Perigee, jd)
	m.NextApogee = a.apsis(fc, ephem.Apogee, jd)

	if geo != nil {
		m.Position = a.position(fc, ephem.Moon, *geo, jd)
		m.Rise, m.Set = a.riseSet(fc, ephem.Moon, *geo, jd, a.cfg.Windows.MoonRise, a.cfg.Windows.MoonSet)
	}

	return m, fc.finish(start)
}

func (a *Assembler) earth(jd astro.JulianDay) (*EarthSnapshot, error) {
	start := time.Now()
	fc := a.newCollector(KindEarth)

	e := &EarthSnapshot{
		At:           jd,
		AxialTiltDeg: ptr(ephem.MeanObliquity(jd)),
		PerihelionKm: ephem.PerihelionKm,
		AphelionKm:   ephem.AphelionKm,
	}

	if km, err := a.provider.DistanceFromEarth(ephem.Sun, jd); fc.ok("distance_from_sun", err) {
		e.DistanceFromSunKm = ptr(km)
	}
	if km, err := a.provider.DistanceFromEarth(ephem.Moon, jd); fc.ok("distance_from_moon", err) {
		e.DistanceFromMoonKm = ptr(km)
	}

	return e, fc.finish(start)
}

func (a *Assembler) apsis(fc *collector, event ephem.ApsisEvent, jd astro.JulianDay) *Apsis {
	field := "next_" + event.String()
	at, err := a.provider.NextApsis(event, jd)
	if !fc.ok(field, err) {
		return nil
	}
	km, err := a.provider.DistanceFromEarth(ephem.Moon, at)
	if !fc.ok(field, err) {
		return nil
	}
	return &Apsis{Time: at, DistanceKm: km}
}

func (a *Assembler) position(fc *collector, body ephem.Body, geo astro.Geo, jd astro.JulianDay) *astro.Horizontal {
	eq, err := a.provider.ApparentEquatorial(body, jd)
	if !fc.ok("position", err) {
		return nil
	}
	hz := astro.HorizontalPosition(eq, geo, jd)
	return &hz
}

// altitude returns the body's altitude function for the solver.
func (a *Assembler) altitude(body ephem.Body, geo astro.Geo) astro.AltitudeFunc {
	return func(jd astro.JulianDay) (float64, error) {
		eq, err := a.provider.ApparentEquatorial(body, jd)
		if err != nil {
			return 0, err
		}
		return astro.HorizontalPosition(eq, geo, jd).AltDeg, nil
	}
}

func (a *Assembler) riseSet(fc *collector, body ephem.Body, geo astro.Geo, jd astro.JulianDay, riseWin, setWin astro.SearchWindow) (rise, set *HorizonEvent) {
	day := jd.LocalDay(a.cfg.Location)
	target := ephem.StandardAltitude(body)
	alt := a.altitude(body, geo)

	rise = a.crossing(fc, body, alt, geo, riseWin, day, target, true)
	set = a.crossing(fc, body, alt, geo, setWin, day, target, false)
	return rise, set
}

func (a *Assembler) crossing(fc *collector, body ephem.Body, alt astro.AltitudeFunc, geo astro.Geo, sw astro.SearchWindow, day astro.LocalDay, target float64, rising bool) *HorizonEvent {
	event := "set"
	if rising {
		event = "rise"
	}

	c, ok, err := a.cfg.Solver.Search(alt, sw, day, target, rising)
	if !fc.ok(event, err) {
		metrics.ObserveCrossing(body.String(), event, metrics.OutcomeError, 0)
		return nil
	}
	if !ok {
		metrics.ObserveCrossing(body.String(), event, metrics.OutcomeNoneFound, 0)
		a.logger.Debug("no crossing in window", "body", body, "event", event)
		return nil
	}
	metrics.ObserveCrossing(body.String(), event, metrics.OutcomeFound, c.Iterations)

	eq, err := a.provider.ApparentEquatorial(body, c.Time)
	if !fc.ok(event+"_azimuth", err) {
		return nil
	}
	return &HorizonEvent{
		Time:       c.Time,
		AzimuthDeg: astro.HorizontalPosition(eq, geo, c.Time).AzDeg,
	}
}

// collector accumulates per-field failures for one snapshot.
type collector struct {
	kind   Kind
	logger *logging.Logger
	errs   []error
}

func (a *Assembler) newCollector(kind Kind) *collector {
	return &collector{kind: kind, logger: a.logger}
}

// ok records err against field and reports whether err was nil.
func (c *collector) ok(field string, err error) bool {
	if err == nil {
		return true
	}
	c.logger.Warn("field dropped", "body", c.kind, "field", field, "err", err)
	metrics.IncComputationError(c.kind.String(), field)
	c.errs = append(c.errs, fmt.Errorf("%s %s: %w", c.kind, field, err))
	return false
}

func (c *collector) finish(start time.Time) error {
	metrics.ObserveSnapshot(c.kind.String(), time.Since(start).Seconds())
	c.logger.Debug("computed snapshot", "body", c.kind, "failed_fields", len(c.errs))
	return errors.Join(c.errs...)
}
