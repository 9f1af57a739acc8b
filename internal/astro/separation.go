package astro

import "math"

// AngularSeparation calculates the angular separation between two points on the celestial sphere.
// All coordinates in degrees. Returns separation in degrees.
func AngularSeparation(a, b Equatorial) float64 {
	ra1Rad := degToRad(a.RAdeg)
	dec1Rad := degToRad(a.DecDeg)
	ra2Rad := degToRad(b.RAdeg)
	dec2Rad := degToRad(b.DecDeg)

	// Haversine formula for angular separation
	dRA := ra2Rad - ra1Rad
	dDec := dec2Rad - dec1Rad

	h := math.Sin(dDec/2)*math.Sin(dDec/2) +
		math.Cos(dec1Rad)*math.Cos(dec2Rad)*math.Sin(dRA/2)*math.Sin(dRA/2)

	// Clamp to avoid numerical errors with asin
	if h > 1 {
		h = 1
	}

	return radToDeg(2 * math.Asin(math.Sqrt(h)))
}

// Illumination returns the illuminated fraction (0-1) of the Moon's disk
// for a given Sun-Moon elongation in degrees.
//
// The phase angle is approximated as 180° - elongation, which is accurate
// to a fraction of a percent at lunar distances.
func Illumination(elongationDeg float64) float64 {
	k := (1 - math.Cos(degToRad(elongationDeg))) / 2
	return math.Max(0, math.Min(1, k))
}

// SeparationDistance approximates the distance between two bodies from
// their geocentric distances as |dA - dB|. The angle between the bodies is
// ignored, so the value is exact only when they are aligned with Earth.
// The result is symmetric in its arguments.
func SeparationDistance(dA, dB float64) float64 {
	return math.Abs(dA - dB)
}
