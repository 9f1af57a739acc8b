// Package ephem provides ephemeris data for the Sun and the Moon.
package ephem

import (
	"github.com/litescript/ls-celestial/internal/astro"
)

// Body identifies a body the ephemeris can locate.
type Body int

const (
	Sun Body = iota
	Moon
)

// String returns the body name.
func (b Body) String() string {
	switch b {
	case Sun:
		return "Sun"
	case Moon:
		return "Moon"
	default:
		return "unknown"
	}
}

// PhaseEvent is a principal lunar phase.
type PhaseEvent int

const (
	NewMoon PhaseEvent = iota
	FullMoon
)

func (e PhaseEvent) String() string {
	switch e {
	case NewMoon:
		return "new moon"
	case FullMoon:
		return "full moon"
	default:
		return "unknown"
	}
}

// ApsisEvent is an extreme of the Moon's distance from Earth.
type ApsisEvent int

const (
	Perigee ApsisEvent = iota
	Apogee
)

func (e ApsisEvent) String() string {
	switch e {
	case Perigee:
		return "perigee"
	case Apogee:
		return "apogee"
	default:
		return "unknown"
	}
}

// Direction selects whether an event search looks ahead of or behind the
// reference time.
type Direction int

const (
	Forward Direction = iota
	Backward
)

// Provider defines the interface for ephemeris data sources.
//
// Every method returns an *astro.ComputationError when the underlying
// series cannot produce a value; it never substitutes zero.
type Provider interface {
	// Name returns the provider name for display/logging.
	Name() string

	// DistanceFromEarth returns the geocentric distance of body in km.
	DistanceFromEarth(body Body, jd astro.JulianDay) (float64, error)

	// ApparentEquatorial returns the apparent geocentric right ascension
	// and declination of body.
	ApparentEquatorial(body Body, jd astro.JulianDay) (astro.Equatorial, error)

	// NearestPhase returns the closest lunar phase event strictly after jd
	// (Forward) or at/before jd (Backward).
	NearestPhase(event PhaseEvent, jd astro.JulianDay, dir Direction) (astro.JulianDay, error)

	// NextApsis returns the first lunar perigee or apogee strictly after jd.
	NextApsis(event ApsisEvent, jd astro.JulianDay) (astro.JulianDay, error)
}
