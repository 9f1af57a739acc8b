package astro

import (
	"errors"
	"math"
	"time"
)

// DefaultTolerance is the width of the bracket at which bisection stops.
const DefaultTolerance = 10 * time.Second

// maxIterations bounds the bisection loop regardless of tolerance.
const maxIterations = 64

// AltitudeFunc returns a body's altitude in degrees at the given instant.
type AltitudeFunc func(jd JulianDay) (float64, error)

// Window is a closed search interval [Start, End].
type Window struct {
	Start JulianDay
	End   JulianDay
}

// SearchWindow describes a daily search range as elapsed offsets from
// local midnight. A non-zero Slice splits the range into consecutive
// sub-windows of that length, each short enough for the altitude to be
// monotonic across it.
//
// A To of WholeDay or more ends the range at the next local midnight, so
// the range covers 23 or 25 hours on a daylight-saving transition date.
type SearchWindow struct {
	From  time.Duration
	To    time.Duration
	Slice time.Duration
}

// WholeDay is the To offset that reaches the end of the local day.
const WholeDay = 24 * time.Hour

// Windows returns the concrete sub-windows of w for day. No sub-window
// extends past the end of day.
func (w SearchWindow) Windows(day LocalDay) []Window {
	to := w.To
	if length := day.Length(); to >= WholeDay || to > length {
		to = length
	}
	if to <= w.From {
		return nil
	}
	step := w.Slice
	if step <= 0 || step > to-w.From {
		step = to - w.From
	}
	var out []Window
	for off := w.From; off < to; off += step {
		end := off + step
		if end > to {
			end = to
		}
		out = append(out, Window{Start: day.Start.Add(off), End: day.Start.Add(end)})
	}
	return out
}

// Crossing is a located rise or set instant.
type Crossing struct {
	Time       JulianDay
	Iterations int // midpoint evaluations performed
}

// Solver locates the instant at which an altitude function crosses a
// target altitude by bisection.
type Solver struct {
	// Tolerance is the bracket width at which the search stops.
	// Zero means DefaultTolerance.
	Tolerance time.Duration

	// Trace, if set, is called with the bracket after every step, along
	// with altitude - target at each end.
	Trace func(lo, hi JulianDay, dLo, dHi float64)
}

// NewSolver returns a Solver using DefaultTolerance.
func NewSolver() Solver {
	return Solver{Tolerance: DefaultTolerance}
}

func (s Solver) tolerance() JulianDay {
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return JulianDay(tol.Seconds() / SecondsPerDay)
}

// FindCrossing searches w for the instant where alt crosses target.
//
// A rising search requires alt(Start) < target < alt(End); a setting
// search requires alt(Start) > target > alt(End). When the bracket does
// not hold, ok is false and no time is reported: the event does not occur
// inside this window. Errors come only from alt itself.
//
// alt must be monotonic across w for the result to be the crossing.
func (s Solver) FindCrossing(alt AltitudeFunc, w Window, target float64, rising bool) (c Crossing, ok bool, err error) {
	if !w.Start.Valid() || !w.End.Valid() || w.End <= w.Start {
		return Crossing{}, false, nil
	}

	a0, err := evalAltitude(alt, w.Start)
	if err != nil {
		return Crossing{}, false, err
	}
	a1, err := evalAltitude(alt, w.End)
	if err != nil {
		return Crossing{}, false, err
	}

	if rising && !(a0 < target && target < a1) {
		return Crossing{}, false, nil
	}
	if !rising && !(a0 > target && target > a1) {
		return Crossing{}, false, nil
	}

	lo, hi := w.Start, w.End
	dLo, dHi := a0-target, a1-target
	if s.Trace != nil {
		s.Trace(lo, hi, dLo, dHi)
	}

	tol := s.tolerance()
	iter := 0
	for hi-lo > tol && iter < maxIterations {
		mid := lo + (hi-lo)/2
		am, err := evalAltitude(alt, mid)
		if err != nil {
			return Crossing{}, false, err
		}
		iter++

		d := am - target
		if d == 0 {
			lo, hi = mid, mid
			dLo, dHi = 0, 0
		} else if math.Signbit(d) == math.Signbit(dLo) {
			lo, dLo = mid, d
		} else {
			hi, dHi = mid, d
		}
		if s.Trace != nil {
			s.Trace(lo, hi, dLo, dHi)
		}
	}

	return Crossing{Time: lo + (hi-lo)/2, Iterations: iter}, true, nil
}

// Search runs FindCrossing over each sub-window of sw for day and returns
// the first crossing found.
func (s Solver) Search(alt AltitudeFunc, sw SearchWindow, day LocalDay, target float64, rising bool) (Crossing, bool, error) {
	for _, w := range sw.Windows(day) {
		c, ok, err := s.FindCrossing(alt, w, target, rising)
		if err != nil {
			return Crossing{}, false, err
		}
		if ok {
			return c, true, nil
		}
	}
	return Crossing{}, false, nil
}

func evalAltitude(alt AltitudeFunc, jd JulianDay) (float64, error) {
	a, err := alt(jd)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0, NewComputationError("altitude", errors.New("non-finite altitude"))
	}
	return a, nil
}
