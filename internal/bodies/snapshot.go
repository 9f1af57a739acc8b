// Package bodies assembles per-body snapshots of the Sun, the Moon and the
// Earth from the ephemeris, the phase calculator and the rise/set solver.
package bodies

import (
	"github.com/litescript/ls-celestial/internal/astro"
)

// Kind identifies which body a snapshot describes.
type Kind int

const (
	KindSun Kind = iota
	KindMoon
	KindEarth
)

func (k Kind) String() string {
	switch k {
	case KindSun:
		return "Sun"
	case KindMoon:
		return "Moon"
	case KindEarth:
		return "Earth"
	default:
		return "Unknown"
	}
}

// Snapshot is implemented by *SunSnapshot, *MoonSnapshot and
// *EarthSnapshot. Each variant carries only the fields meaningful for its
// body; a nil pointer field means "not applicable or not determinable for
// this query" and is distinct from zero.
type Snapshot interface {
	Kind() Kind
	Name() string
	Instant() astro.JulianDay
}

// HorizonEvent is a located rise or set.
type HorizonEvent struct {
	Time       astro.JulianDay
	AzimuthDeg float64 // from North, eastward
}

// Apsis is a lunar perigee or apogee.
type Apsis struct {
	Time       astro.JulianDay
	DistanceKm float64
}

// SunSnapshot describes the Sun at one instant.
type SunSnapshot struct {
	At astro.JulianDay

	DistanceFromEarthKm *float64
	DistanceFromMoonKm  *float64

	// Extremes of the Earth-Sun distance.
	PerihelionKm float64
	AphelionKm   float64

	// Observer-dependent; nil without a location.
	Position *astro.Horizontal
	Rise     *HorizonEvent
	Set      *HorizonEvent
}

func (s *SunSnapshot) Kind() Kind               { return KindSun }
func (s *SunSnapshot) Name() string             { return KindSun.String() }
func (s *SunSnapshot) Instant() astro.JulianDay { return s.At }

// MoonSnapshot describes the Moon at one instant.
type MoonSnapshot struct {
	At astro.JulianDay

	DistanceFromEarthKm *float64
	DistanceFromSunKm   *float64

	PhaseFraction *float64 // position in the synodic month, [0, 1)
	Phase         *astro.MoonPhase
	Illuminated   *float64 // illuminated fraction of the disk, [0, 1]

	NextNewMoon  *astro.JulianDay
	NextFullMoon *astro.JulianDay
	NextPerigee  *Apsis
	NextApogee   *Apsis

	// Observer-dependent; nil without a location.
	Position *astro.Horizontal
	Rise     *HorizonEvent
	Set      *HorizonEvent
}

func (m *MoonSnapshot) Kind() Kind               { return KindMoon }
func (m *MoonSnapshot) Name() string             { return KindMoon.String() }
func (m *MoonSnapshot) Instant() astro.JulianDay { return m.At }

// EarthSnapshot describes the Earth at one instant.
type EarthSnapshot struct {
	At astro.JulianDay

	DistanceFromSunKm  *float64
	DistanceFromMoonKm *float64
	AxialTiltDeg       *float64

	PerihelionKm float64
	AphelionKm   float64
}

func (e *EarthSnapshot) Kind() Kind               { return KindEarth }
func (e *EarthSnapshot) Name() string             { return KindEarth.String() }
func (e *EarthSnapshot) Instant() astro.JulianDay { return e.At }

// Report groups the three snapshots for one instant.
type Report struct {
	At    astro.JulianDay
	Geo   *astro.Geo
	Sun   *SunSnapshot
	Moon  *MoonSnapshot
	Earth *EarthSnapshot
}

// Snapshots returns the report's snapshots in display order, skipping nil
// entries.
func (r *Report) Snapshots() []Snapshot {
	var out []Snapshot
	if r.Sun != nil {
		out = append(out, r.Sun)
	}
	if r.Moon != nil {
		out = append(out, r.Moon)
	}
	if r.Earth != nil {
		out = append(out, r.Earth)
	}
	return out
}

func ptr[T any](v T) *T {
	return &v
}
