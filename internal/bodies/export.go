package bodies

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/litescript/ls-celestial/internal/astro"
)

// ReportExport is the JSON-serializable representation of a Report.
// Instants are rendered in the caller's zone; absent fields are omitted.
type ReportExport struct {
	Timestamp time.Time       `json:"timestamp"`
	JulianDay float64         `json:"julian_day"`
	Observer  *ObserverExport `json:"observer,omitempty"`
	Sun       *SunExport      `json:"sun,omitempty"`
	Moon      *MoonExport     `json:"moon,omitempty"`
	Earth     *EarthExport    `json:"earth,omitempty"`
}

// ObserverExport is the observer location, longitude east-positive.
type ObserverExport struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	AltitudeM float64 `json:"altitude_m"`
}

// PositionExport is a horizontal position.
type PositionExport struct {
	Altitude float64 `json:"altitude"`
	Azimuth  float64 `json:"azimuth"`
}

// HorizonEventExport is a rise or set.
type HorizonEventExport struct {
	Time    time.Time `json:"time"`
	Azimuth float64   `json:"azimuth"`
}

// ApsisExport is a perigee or apogee.
type ApsisExport struct {
	Time     time.Time `json:"time"`
	Distance float64   `json:"distance_km"`
}

// SunExport is a JSON-friendly Sun snapshot.
type SunExport struct {
	DistanceFromEarth *float64            `json:"distance_from_earth_km,omitempty"`
	DistanceFromMoon  *float64            `json:"distance_from_moon_km,omitempty"`
	Perihelion        float64             `json:"perihelion_km"`
	Aphelion          float64             `json:"aphelion_km"`
	Position          *PositionExport     `json:"position,omitempty"`
	Rise              *HorizonEventExport `json:"rise,omitempty"`
	Set               *HorizonEventExport `json:"set,omitempty"`
}

// MoonExport is a JSON-friendly Moon snapshot.
type MoonExport struct {
	DistanceFromEarth *float64            `json:"distance_from_earth_km,omitempty"`
	DistanceFromSun   *float64            `json:"distance_from_sun_km,omitempty"`
	PhaseFraction     *float64            `json:"phase_fraction,omitempty"`
	Phase             string              `json:"phase,omitempty"`
	Illuminated       *float64            `json:"illuminated,omitempty"`
	NextNewMoon       *time.Time          `json:"next_new_moon,omitempty"`
	NextFullMoon      *time.Time          `json:"next_full_moon,omitempty"`
	NextPerigee       *ApsisExport        `json:"next_perigee,omitempty"`
	NextApogee        *ApsisExport        `json:"next_apogee,omitempty"`
	Position          *PositionExport     `json:"position,omitempty"`
	Rise              *HorizonEventExport `json:"rise,omitempty"`
	Set               *HorizonEventExport `json:"set,omitempty"`
}

// EarthExport is a JSON-friendly Earth snapshot.
type EarthExport struct {
	DistanceFromSun  *float64 `json:"distance_from_sun_km,omitempty"`
	DistanceFromMoon *float64 `json:"distance_from_moon_km,omitempty"`
	AxialTilt        *float64 `json:"axial_tilt_deg,omitempty"`
	Perihelion       float64  `json:"perihelion_km"`
	Aphelion         float64  `json:"aphelion_km"`
}

// ExportReport converts a Report to an exportable format, rendering
// instants in loc (UTC when nil).
func ExportReport(r *Report, loc *time.Location) *ReportExport {
	if loc == nil {
		loc = time.UTC
	}
	if r == nil {
		return &ReportExport{}
	}

	in := func(jd astro.JulianDay) time.Time { return jd.Time().In(loc) }

	export := &ReportExport{
		Timestamp: in(r.At),
		JulianDay: float64(r.At),
	}
	if r.Geo != nil {
		export.Observer = &ObserverExport{
			Latitude:  r.Geo.LatDeg,
			Longitude: r.Geo.LonEastDeg(),
			AltitudeM: r.Geo.AltM,
		}
	}

	if s := r.Sun; s != nil {
		export.Sun = &SunExport{
			DistanceFromEarth: s.DistanceFromEarthKm,
			DistanceFromMoon:  s.DistanceFromMoonKm,
			Perihelion:        s.PerihelionKm,
			Aphelion:          s.AphelionKm,
			Position:          exportPosition(s.Position),
			Rise:              exportHorizonEvent(s.Rise, loc),
			Set:               exportHorizonEvent(s.Set, loc),
		}
	}

	if m := r.Moon; m != nil {
		me := &MoonExport{
			DistanceFromEarth: m.DistanceFromEarthKm,
			DistanceFromSun:   m.DistanceFromSunKm,
			PhaseFraction:     m.PhaseFraction,
			Illuminated:       m.Illuminated,
			NextPerigee:       exportApsis(m.NextPerigee, loc),
			NextApogee:        exportApsis(m.NextApogee, loc),
			Position:          exportPosition(m.Position),
			Rise:              exportHorizonEvent(m.Rise, loc),
			Set:               exportHorizonEvent(m.Set, loc),
		}
		if m.Phase != nil {
			me.Phase = m.Phase.String()
		}
		if m.NextNewMoon != nil {
			me.NextNewMoon = ptr(in(*m.NextNewMoon))
		}
		if m.NextFullMoon != nil {
			me.NextFullMoon = ptr(in(*m.NextFullMoon))
		}
		export.Moon = me
	}

	if e := r.Earth; e != nil {
		export.Earth = &EarthExport{
			DistanceFromSun:  e.DistanceFromSunKm,
			DistanceFromMoon: e.DistanceFromMoonKm,
			AxialTilt:        e.AxialTiltDeg,
			Perihelion:       e.PerihelionKm,
			Aphelion:         e.AphelionKm,
		}
	}

	return export
}

func exportPosition(h *astro.Horizontal) *PositionExport {
	if h == nil {
		return nil
	}
	return &PositionExport{Altitude: h.AltDeg, Azimuth: h.AzDeg}
}

func exportHorizonEvent(ev *HorizonEvent, loc *time.Location) *HorizonEventExport {
	if ev == nil {
		return nil
	}
	return &HorizonEventExport{Time: ev.Time.Time().In(loc), Azimuth: ev.AzimuthDeg}
}

func exportApsis(a *Apsis, loc *time.Location) *ApsisExport {
	if a == nil {
		return nil
	}
	return &ApsisExport{Time: a.Time.Time().In(loc), Distance: a.DistanceKm}
}

// WriteJSON writes the report as JSON to the given writer.
func (r *ReportExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// SummaryRow is one labelled line of a snapshot summary.
type SummaryRow struct {
	Label string
	Value string
}

// SummaryRows returns the display rows for one snapshot. Absent fields
// render as "—" so they stay distinct from zero.
func SummaryRows(s Snapshot, loc *time.Location) []SummaryRow {
	if loc == nil {
		loc = time.UTC
	}
	switch v := s.(type) {
	case *SunSnapshot:
		rows := []SummaryRow{
			{"Distance from Earth", formatKmPtr(v.DistanceFromEarthKm)},
			{"Distance from Moon", formatKmPtr(v.DistanceFromMoonKm)},
			{"Perihelion", FormatDistance(v.PerihelionKm)},
			{"Aphelion", FormatDistance(v.AphelionKm)},
		}
		return append(rows, horizonRows(v.Position, v.Rise, v.Set, loc)...)
	case *MoonSnapshot:
		rows := []SummaryRow{
			{"Distance from Earth", formatKmPtr(v.DistanceFromEarthKm)},
			{"Distance from Sun", formatKmPtr(v.DistanceFromSunKm)},
			{"Phase", formatPhase(v.Phase, v.PhaseFraction)},
			{"Illuminated", formatPercent(v.Illuminated)},
			{"Next new moon", formatJDPtr(v.NextNewMoon, loc)},
			{"Next full moon", formatJDPtr(v.NextFullMoon, loc)},
			{"Next perigee", formatApsis(v.NextPerigee, loc)},
			{"Next apogee", formatApsis(v.NextApogee, loc)},
		}
		return append(rows, horizonRows(v.Position, v.Rise, v.Set, loc)...)
	case *EarthSnapshot:
		return []SummaryRow{
			{"Distance from Sun", formatKmPtr(v.DistanceFromSunKm)},
			{"Distance from Moon", formatKmPtr(v.DistanceFromMoonKm)},
			{"Axial tilt", formatDegPtr(v.AxialTiltDeg)},
			{"Perihelion", FormatDistance(v.PerihelionKm)},
			{"Aphelion", FormatDistance(v.AphelionKm)},
		}
	default:
		return nil
	}
}

func horizonRows(pos *astro.Horizontal, rise, set *HorizonEvent, loc *time.Location) []SummaryRow {
	var rows []SummaryRow
	if pos != nil {
		rows = append(rows,
			SummaryRow{"Altitude", fmt.Sprintf("%.2f°", pos.AltDeg)},
			SummaryRow{"Azimuth", fmt.Sprintf("%.2f°", pos.AzDeg)},
		)
	}
	rows = append(rows,
		SummaryRow{"Rise", formatHorizonEvent(rise, loc)},
		SummaryRow{"Set", formatHorizonEvent(set, loc)},
	)
	return rows
}

// WriteSummary writes a text summary of the report to the given writer.
func WriteSummary(w io.Writer, r *Report, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	if r == nil {
		fmt.Fprintln(w, "No data")
		return
	}

	fmt.Fprintf(w, "Celestial report @ %s\n", r.At.Time().In(loc).Format(time.RFC3339))
	if r.Geo != nil {
		fmt.Fprintf(w, "Observer: %.4f°, %.4f° (%.0f m)\n", r.Geo.LatDeg, r.Geo.LonEastDeg(), r.Geo.AltM)
	}

	for _, s := range r.Snapshots() {
		fmt.Fprintln(w, strings.Repeat("─", 50))
		fmt.Fprintln(w, s.Name())
		for _, row := range SummaryRows(s, loc) {
			fmt.Fprintf(w, "  %-20s %s\n", row.Label, row.Value)
		}
	}
}

const absent = "—"

// FormatDistance returns a human-readable distance string.
func FormatDistance(km float64) string {
	switch {
	case km <= 0:
		return "N/A"
	case km < 1e6:
		return formatWithUnit(km, "km")
	default:
		return formatWithUnit(km/1e6, "M km")
	}
}

func formatWithUnit(value float64, unit string) string {
	switch {
	case value < 10:
		return fmt.Sprintf("%.2f %s", value, unit)
	case value < 100:
		return fmt.Sprintf("%.1f %s", value, unit)
	default:
		return fmt.Sprintf("%.0f %s", value, unit)
	}
}

func formatKmPtr(km *float64) string {
	if km == nil {
		return absent
	}
	return FormatDistance(*km)
}

func formatDegPtr(deg *float64) string {
	if deg == nil {
		return absent
	}
	return fmt.Sprintf("%.4f°", *deg)
}

func formatPercent(f *float64) string {
	if f == nil {
		return absent
	}
	return fmt.Sprintf("%.0f%%", *f*100)
}

func formatPhase(p *astro.MoonPhase, frac *float64) string {
	if p == nil || frac == nil {
		return absent
	}
	return fmt.Sprintf("%s (%.3f)", p, *frac)
}

func formatJDPtr(jd *astro.JulianDay, loc *time.Location) string {
	if jd == nil {
		return absent
	}
	return formatTime(*jd, loc)
}

func formatTime(jd astro.JulianDay, loc *time.Location) string {
	return jd.Time().In(loc).Format("2006-01-02 15:04 MST")
}

func formatHorizonEvent(ev *HorizonEvent, loc *time.Location) string {
	if ev == nil {
		return absent
	}
	return fmt.Sprintf("%s  az %.1f°", formatTime(ev.Time, loc), ev.AzimuthDeg)
}

func formatApsis(a *Apsis, loc *time.Location) string {
	if a == nil {
		return absent
	}
	return fmt.Sprintf("%s  %s", formatTime(a.Time, loc), FormatDistance(a.DistanceKm))
}
