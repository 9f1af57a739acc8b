package astro

import (
	"errors"
	"fmt"
	"math"

	"github.com/soniakeys/meeus/v3/sidereal"
)

// ErrInvalidLocation is returned for observer coordinates outside their
// valid ranges.
var ErrInvalidLocation = errors.New("invalid observer location")

// Equatorial holds apparent geocentric equatorial coordinates of date.
type Equatorial struct {
	RAdeg  float64 // Right Ascension in degrees (0-360)
	DecDeg float64 // Declination in degrees (-90 to +90)
}

// Horizontal holds observer-relative coordinates.
//
// Azimuth is measured from North, increasing eastward:
// 0° = North, 90° = East, 180° = South, 270° = West.
type Horizontal struct {
	AltDeg float64 // Altitude in degrees (0=horizon, 90=zenith)
	AzDeg  float64 // Azimuth in degrees
}

// Geo is an observer position on the Earth.
//
// Longitude follows the astronomical convention used by the ephemeris
// series: positive WEST of Greenwich. Use NewGeo to build one from the
// usual east-positive longitude.
type Geo struct {
	LatDeg     float64 // Latitude in degrees (north positive)
	LonWestDeg float64 // Longitude in degrees (west positive)
	AltM       float64 // Height above the reference ellipsoid in meters
}

// NewGeo builds a Geo from an east-positive longitude, which is what maps
// and GPS receivers report.
func NewGeo(latDeg, lonEastDeg, altM float64) Geo {
	return Geo{LatDeg: latDeg, LonWestDeg: -lonEastDeg, AltM: altM}
}

// LonEastDeg returns the longitude in the east-positive convention.
func (g Geo) LonEastDeg() float64 {
	return -g.LonWestDeg
}

// Validate rejects non-finite values and out-of-range angles.
func (g Geo) Validate() error {
	for _, v := range []float64{g.LatDeg, g.LonWestDeg, g.AltM} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite component", ErrInvalidLocation)
		}
	}
	if g.LatDeg < -90 || g.LatDeg > 90 {
		return fmt.Errorf("%w: latitude %.4f out of range [-90, 90]", ErrInvalidLocation, g.LatDeg)
	}
	if g.LonWestDeg < -180 || g.LonWestDeg > 180 {
		return fmt.Errorf("%w: longitude %.4f out of range [-180, 180]", ErrInvalidLocation, g.LonWestDeg)
	}
	return nil
}

// HorizontalPosition converts apparent equatorial coordinates to altitude
// and azimuth for an observer at the given instant.
//
// The local hour angle is H = θ0 - L - α, with θ0 the apparent sidereal
// time at Greenwich and L the west-positive longitude.
func HorizontalPosition(eq Equatorial, geo Geo, jd JulianDay) Horizontal {
	lat := degToRad(geo.LatDeg)
	dec := degToRad(eq.DecDeg)

	lst := localSiderealTime(jd, geo.LonWestDeg)
	ha := degToRad(lst - eq.RAdeg)

	sinLat, cosLat := math.Sincos(lat)
	sinDec, cosDec := math.Sincos(dec)
	sinHA, cosHA := math.Sincos(ha)

	sinAlt := sinDec*sinLat + cosDec*cosLat*cosHA
	// Clamp to handle floating point errors at the poles
	if sinAlt > 1 {
		sinAlt = 1
	} else if sinAlt < -1 {
		sinAlt = -1
	}
	alt := math.Asin(sinAlt)

	// Azimuth from South, westward; shifted by 180° to North, eastward.
	azSouth := math.Atan2(cosDec*sinHA, cosDec*cosHA*sinLat-sinDec*cosLat)

	return Horizontal{
		AltDeg: radToDeg(alt),
		AzDeg:  normalizeAngle360(radToDeg(azSouth) + 180),
	}
}

// localSiderealTime returns the local apparent sidereal time in degrees
// for a west-positive longitude.
func localSiderealTime(jd JulianDay, lonWestDeg float64) float64 {
	return normalizeAngle360(greenwichSiderealTime(jd) - lonWestDeg)
}

// greenwichSiderealTime returns the apparent sidereal time at Greenwich
// in degrees (0-360).
func greenwichSiderealTime(jd JulianDay) float64 {
	st := sidereal.Apparent(float64(jd))
	return normalizeAngle360(st.Angle().Deg())
}

// normalizeAngle360 normalizes an angle to 0-360 degrees.
func normalizeAngle360(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// degToRad converts degrees to radians.
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// radToDeg converts radians to degrees.
func radToDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
