package ui

import (
	"time"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/bodies"
	"github.com/litescript/ls-celestial/internal/state"
)

var testAt = astro.ToJulianDay(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

func fptr(v float64) *float64 { return &v }

// testSnapshot builds a state snapshot with all three bodies above Greenwich.
func testSnapshot() state.Snapshot {
	geo := astro.NewGeo(51.4779, 0, 46)
	phase := astro.PhaseWaxingCrescent
	r := &bodies.Report{
		At:  testAt,
		Geo: &geo,
		Sun: &bodies.SunSnapshot{
			At:                  testAt,
			DistanceFromEarthKm: fptr(148_600_000),
			DistanceFromMoonKm:  fptr(148_230_000),
			Position:            &astro.Horizontal{AltDeg: 34.5, AzDeg: 182},
			Rise:                &bodies.HorizonEvent{Time: testAt.Add(-6 * time.Hour), AzimuthDeg: 96},
			Set:                 &bodies.HorizonEvent{Time: testAt.Add(6 * time.Hour), AzimuthDeg: 264},
		},
		Moon: &bodies.MoonSnapshot{
			At:                  testAt,
			DistanceFromEarthKm: fptr(370_000),
			Illuminated:         fptr(0.02),
			PhaseFraction:       fptr(0.03),
			Phase:               &phase,
			Position:            &astro.Horizontal{AltDeg: 30, AzDeg: 160},
		},
		Earth: &bodies.EarthSnapshot{
			At:                testAt,
			DistanceFromSunKm: fptr(148_600_000),
			AxialTiltDeg:      fptr(23.436),
		},
	}

	trace := &bodies.AltitudeTrace{Body: bodies.KindSun}
	for i := -24; i <= 24; i++ {
		trace.Samples = append(trace.Samples, bodies.AltitudeSample{
			Time:   testAt.Add(time.Duration(i) * bodies.TraceSampleInterval),
			AltDeg: 34.5 - float64(i*i)/40,
			AzDeg:  182 + float64(i)*1.2,
		})
	}

	return state.Snapshot{
		Report:      r,
		LastCompute: time.Now(),
		Traces:      map[bodies.Kind]*bodies.AltitudeTrace{bodies.KindSun: trace},
		RangeRates:  map[string]float64{"Moon": -0.25},
		Events: []state.Event{
			{Type: state.EventRise, Timestamp: testAt.Add(-6 * time.Hour).Time(), Body: "Sun"},
			{Type: state.EventPhaseChange, Timestamp: testAt.Time(), Body: "Moon", OldPhase: "New Moon", NewPhase: "Waxing Crescent"},
		},
	}
}
