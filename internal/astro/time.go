// Package astro provides astronomical coordinate transformations and sky math.
package astro

import (
	"math"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// SecondsPerDay is the length of a Julian day in seconds.
const SecondsPerDay = 86400.0

// JulianDay is a continuous time coordinate in fractional days since
// noon UT on January 1, 4713 BC (proleptic Julian calendar).
//
// A JulianDay is built once per query and passed by value, so every
// sub-computation sees the same instant.
type JulianDay float64

// J2000 is the Julian Day of the J2000.0 epoch.
const J2000 JulianDay = 2451545.0

// ToJulianDay converts a wall-clock timestamp to a JulianDay.
// The time zone of t is irrelevant; nanoseconds are preserved.
func ToJulianDay(t time.Time) JulianDay {
	return JulianDay(julian.TimeToJD(t))
}

// Time converts the JulianDay back to a UTC timestamp.
func (jd JulianDay) Time() time.Time {
	return julian.JDToTime(float64(jd)).UTC()
}

// Add returns the JulianDay offset by d.
func (jd JulianDay) Add(d time.Duration) JulianDay {
	return jd + JulianDay(d.Seconds()/SecondsPerDay)
}

// Sub returns the duration jd - other, rounded to the microsecond.
func (jd JulianDay) Sub(other JulianDay) time.Duration {
	sec := float64(jd-other) * SecondsPerDay
	return time.Duration(math.Round(sec*1e6)) * time.Microsecond
}

// Before reports whether jd is strictly earlier than other.
func (jd JulianDay) Before(other JulianDay) bool {
	return jd < other
}

// After reports whether jd is strictly later than other.
func (jd JulianDay) After(other JulianDay) bool {
	return jd > other
}

// Valid reports whether jd is a finite number.
func (jd JulianDay) Valid() bool {
	f := float64(jd)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Centuries returns Julian centuries elapsed since J2000.0.
func (jd JulianDay) Centuries() float64 {
	return float64(jd-J2000) / 36525.0
}

// DecimalYear returns the calendar year with the elapsed fraction of the
// year appended, e.g. 2024.5 for early July 2024. Lunar phase and apsis
// series are indexed by this value.
func (jd JulianDay) DecimalYear() float64 {
	t := jd.Time()
	start := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	return float64(t.Year()) + float64(t.Sub(start))/float64(end.Sub(start))
}

// LocalDay spans one calendar date in a location, from its midnight to the
// next. It lasts 23 or 25 hours on a daylight-saving transition date.
type LocalDay struct {
	Start JulianDay
	End   JulianDay
}

// Length returns the elapsed time between the two midnights, rounded to
// the second.
func (d LocalDay) Length() time.Duration {
	return d.End.Sub(d.Start).Round(time.Second)
}

// LocalDay returns the calendar date of jd as seen in loc.
func (jd JulianDay) LocalDay(loc *time.Location) LocalDay {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := jd.Time().In(loc).Date()
	return LocalDay{
		Start: ToJulianDay(time.Date(y, m, d, 0, 0, 0, 0, loc)),
		End:   ToJulianDay(time.Date(y, m, d+1, 0, 0, 0, 0, loc)),
	}
}
