package ephem

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/apsis"
	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/coord"
	"github.com/soniakeys/meeus/v3/moonphase"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/rise"
	"github.com/soniakeys/meeus/v3/solar"
	"github.com/soniakeys/unit"

	"github.com/litescript/ls-celestial/internal/astro"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8

	// PerihelionKm and AphelionKm are the mean extremes of the Earth-Sun
	// distance. They drift by only a few thousand km per century.
	PerihelionKm = 147_098_074.0
	AphelionKm   = 152_097_701.0

	// SynodicMonth is the mean new-moon to new-moon interval in days.
	SynodicMonth = 29.530588861

	// AnomalisticMonth is the mean perigee to perigee interval in days.
	AnomalisticMonth = 27.554549878

	daysPerYear = 365.25

	// maxEventSteps bounds the month-by-month walk when snapping a series
	// result to the requested side of the reference time.
	maxEventSteps = 4
)

// ErrUnknownBody is the cause of a ComputationError for a Body value the
// provider does not model.
var ErrUnknownBody = errors.New("unknown body")

// MeeusProvider computes positions and events from the series in Jean
// Meeus' Astronomical Algorithms: VSOP87-derived solar theory and the
// ELP-2000/82 based lunar theory.
type MeeusProvider struct{}

// NewMeeusProvider creates a provider backed by the meeus series.
func NewMeeusProvider() *MeeusProvider {
	return &MeeusProvider{}
}

// Name implements Provider.
func (p *MeeusProvider) Name() string {
	return "Meeus"
}

// DistanceFromEarth implements Provider.
func (p *MeeusProvider) DistanceFromEarth(body Body, jd astro.JulianDay) (float64, error) {
	if err := checkTime("distance", jd); err != nil {
		return 0, err
	}

	var km float64
	switch body {
	case Sun:
		km = solar.Radius(base.J2000Century(float64(jd))) * AU
	case Moon:
		_, _, km = moonposition.Position(float64(jd))
	default:
		return 0, astro.NewComputationError("distance", fmt.Errorf("%w: %d", ErrUnknownBody, body))
	}

	if !finite(km) || km <= 0 {
		return 0, astro.NewComputationError("distance",
			fmt.Errorf("%s distance did not converge at JD %.5f", body, float64(jd)))
	}
	return km, nil
}

// ApparentEquatorial implements Provider.
func (p *MeeusProvider) ApparentEquatorial(body Body, jd astro.JulianDay) (astro.Equatorial, error) {
	if err := checkTime("equatorial position", jd); err != nil {
		return astro.Equatorial{}, err
	}

	var (
		ra  unit.RA
		dec unit.Angle
	)
	switch body {
	case Sun:
		ra, dec = solar.ApparentEquatorial(float64(jd))
	case Moon:
		ra, dec = moonApparentEquatorial(float64(jd))
	default:
		return astro.Equatorial{}, astro.NewComputationError("equatorial position",
			fmt.Errorf("%w: %d", ErrUnknownBody, body))
	}

	eq := astro.Equatorial{RAdeg: ra.Deg(), DecDeg: dec.Deg()}
	if !finite(eq.RAdeg) || !finite(eq.DecDeg) {
		return astro.Equatorial{}, astro.NewComputationError("equatorial position",
			fmt.Errorf("%s position did not converge at JD %.5f", body, float64(jd)))
	}
	return eq, nil
}

// moonApparentEquatorial corrects the geometric lunar longitude for
// nutation and rotates it to the true equator of date.
func moonApparentEquatorial(jde float64) (unit.RA, unit.Angle) {
	λ, β, _ := moonposition.Position(jde)
	Δψ, Δε := nutation.Nutation(jde)
	ε := nutation.MeanObliquity(jde) + Δε
	sε, cε := ε.Sincos()
	return coord.EclToEq(λ+Δψ, β, sε, cε)
}

// NearestPhase implements Provider.
func (p *MeeusProvider) NearestPhase(event PhaseEvent, jd astro.JulianDay, dir Direction) (astro.JulianDay, error) {
	op := event.String()
	if err := checkTime(op, jd); err != nil {
		return 0, err
	}

	var series func(year float64) float64
	switch event {
	case NewMoon:
		series = moonphase.New
	case FullMoon:
		series = moonphase.Full
	default:
		return 0, astro.NewComputationError(op, fmt.Errorf("unknown phase event %d", event))
	}

	return snapEvent(op, series, jd, SynodicMonth, dir)
}

// NextApsis implements Provider.
func (p *MeeusProvider) NextApsis(event ApsisEvent, jd astro.JulianDay) (astro.JulianDay, error) {
	op := event.String()
	if err := checkTime(op, jd); err != nil {
		return 0, err
	}

	var series func(year float64) float64
	switch event {
	case Perigee:
		series = apsis.Perigee
	case Apogee:
		series = apsis.Apogee
	default:
		return 0, astro.NewComputationError(op, fmt.Errorf("unknown apsis event %d", event))
	}

	return snapEvent(op, series, jd, AnomalisticMonth, Forward)
}

// snapEvent evaluates a periodic event series near jd and steps it one
// period at a time until the result is on the requested side: strictly
// after jd for Forward, at or before jd for Backward.
//
// The series round to the nearest cycle, so at most one step is normally
// needed.
func snapEvent(op string, series func(year float64) float64, jd astro.JulianDay, period float64, dir Direction) (astro.JulianDay, error) {
	year := jd.DecimalYear()
	step := period / daysPerYear

	for i := 0; i < maxEventSteps; i++ {
		ev := astro.JulianDay(series(year))
		if !ev.Valid() {
			return 0, astro.NewComputationError(op, fmt.Errorf("series diverged near JD %.5f", float64(jd)))
		}
		switch {
		case dir == Forward && ev <= jd:
			year += step
		case dir == Backward && ev > jd:
			year -= step
		default:
			return ev, nil
		}
	}
	return 0, astro.NewComputationError(op, fmt.Errorf("no event found within %d cycles of JD %.5f", maxEventSteps, float64(jd)))
}

// StandardAltitude returns the geometric altitude in degrees of the body's
// center at the moment of apparent rise or set, as tabulated by the rise
// package: -0°50' for the Sun (refraction plus semidiameter) and the mean
// lunar value +0.125° for the Moon.
func StandardAltitude(body Body) float64 {
	switch body {
	case Sun:
		return rise.Stdh0Solar.Deg()
	case Moon:
		return rise.Stdh0LunarMean.Deg()
	default:
		return rise.Stdh0Stellar.Deg()
	}
}

// MeanObliquity returns the mean obliquity of the ecliptic at jd in
// degrees, which is Earth's axial tilt of date.
func MeanObliquity(jd astro.JulianDay) float64 {
	return nutation.MeanObliquity(float64(jd)).Deg()
}

func checkTime(op string, jd astro.JulianDay) error {
	if !jd.Valid() {
		return astro.NewComputationError(op, errors.New("non-finite Julian day"))
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
