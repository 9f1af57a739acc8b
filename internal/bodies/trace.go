package bodies

import (
	"errors"
	"fmt"
	"time"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/ephem"
)

// TraceWindow is the time span for altitude traces (±2 hours from the query).
const TraceWindow = 2 * time.Hour

// TraceSampleInterval is the time between samples.
const TraceSampleInterval = 5 * time.Minute

// ErrNoTrace is returned for bodies without a horizontal position.
var ErrNoTrace = errors.New("body has no altitude trace")

// AltitudeSample is the horizontal position of a body at one instant.
type AltitudeSample struct {
	Time   astro.JulianDay
	AltDeg float64
	AzDeg  float64
}

// AltitudeTrace holds altitude samples around a query instant.
type AltitudeTrace struct {
	Body        Kind
	Samples     []AltitudeSample
	WindowStart astro.JulianDay
	WindowEnd   astro.JulianDay
}

// Current returns the sample closest to jd, or nil for an empty trace.
func (tr *AltitudeTrace) Current(jd astro.JulianDay) *AltitudeSample {
	if tr == nil || len(tr.Samples) == 0 {
		return nil
	}
	best := 0
	for i, s := range tr.Samples {
		if abs(s.Time.Sub(jd)) < abs(tr.Samples[best].Time.Sub(jd)) {
			best = i
		}
	}
	return &tr.Samples[best]
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// ComputeTrace samples the altitude of the Sun or the Moon over
// TraceWindow either side of t.
func (a *Assembler) ComputeTrace(kind Kind, t time.Time, geo astro.Geo) (*AltitudeTrace, error) {
	var body ephem.Body
	switch kind {
	case KindSun:
		body = ephem.Sun
	case KindMoon:
		body = ephem.Moon
	default:
		return nil, fmt.Errorf("%s: %w", kind, ErrNoTrace)
	}

	jd, err := a.prepare(t, &geo)
	if err != nil {
		return nil, err
	}

	tr := &AltitudeTrace{
		Body:        kind,
		WindowStart: jd.Add(-TraceWindow),
		WindowEnd:   jd.Add(TraceWindow),
	}
	n := int(2*TraceWindow/TraceSampleInterval) + 1
	tr.Samples = make([]AltitudeSample, 0, n)
	for i := 0; i < n; i++ {
		at := tr.WindowStart.Add(time.Duration(i) * TraceSampleInterval)
		eq, err := a.provider.ApparentEquatorial(body, at)
		if err != nil {
			return nil, fmt.Errorf("%s trace: %w", kind, err)
		}
		hz := astro.HorizontalPosition(eq, geo, at)
		tr.Samples = append(tr.Samples, AltitudeSample{Time: at, AltDeg: hz.AltDeg, AzDeg: hz.AzDeg})
	}
	return tr, nil
}
