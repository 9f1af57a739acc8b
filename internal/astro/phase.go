package astro

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvertedBracket is the cause of a ComputationError when the bracketing
// new moons are equal or out of order.
var ErrInvertedBracket = errors.New("bracketing new moons are not strictly increasing")

// MoonPhase is a qualitative lunar phase descriptor.
type MoonPhase int

const (
	PhaseNew MoonPhase = iota
	PhaseWaxingCrescent
	PhaseFirstQuarter
	PhaseWaxingGibbous
	PhaseFull
	PhaseWaningGibbous
	PhaseLastQuarter
	PhaseWaningCrescent
)

func (p MoonPhase) String() string {
	switch p {
	case PhaseNew:
		return "New Moon"
	case PhaseWaxingCrescent:
		return "Waxing Crescent"
	case PhaseFirstQuarter:
		return "First Quarter"
	case PhaseWaxingGibbous:
		return "Waxing Gibbous"
	case PhaseFull:
		return "Full Moon"
	case PhaseWaningGibbous:
		return "Waning Gibbous"
	case PhaseLastQuarter:
		return "Last Quarter"
	case PhaseWaningCrescent:
		return "Waning Crescent"
	default:
		return "Unknown"
	}
}

// phaseBins holds the lower bound of each bin in ascending order. Every bin
// is half-open [lo, next lo); the last one runs to 1.0 and the New Moon bin
// wraps across 0/1.
var phaseBins = []struct {
	lo    float64
	phase MoonPhase
}{
	{0, PhaseNew},
	{0.03, PhaseWaxingCrescent},
	{0.22, PhaseFirstQuarter},
	{0.28, PhaseWaxingGibbous},
	{0.47, PhaseFull},
	{0.53, PhaseWaningGibbous},
	{0.72, PhaseLastQuarter},
	{0.78, PhaseWaningCrescent},
	{0.97, PhaseNew},
}

// PhaseFraction returns how far t lies through the synodic month that
// starts at prevNew and ends at nextNew, in [0, 1).
func PhaseFraction(t, prevNew, nextNew JulianDay) (float64, error) {
	if !t.Valid() || !prevNew.Valid() || !nextNew.Valid() {
		return 0, NewComputationError("phase fraction", errors.New("non-finite time"))
	}
	month := float64(nextNew - prevNew)
	if month <= 0 {
		return 0, NewComputationError("phase fraction",
			fmt.Errorf("%w: previous %.5f, next %.5f", ErrInvertedBracket, float64(prevNew), float64(nextNew)))
	}
	f := float64(t-prevNew) / month
	return f - math.Floor(f), nil
}

// PhaseLabel maps a synodic fraction to its phase. Values outside [0, 1)
// wrap around, so the function is total.
func PhaseLabel(fraction float64) MoonPhase {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return PhaseNew
	}
	f := fraction - math.Floor(fraction)
	label := PhaseNew
	for _, b := range phaseBins {
		if f < b.lo {
			break
		}
		label = b.phase
	}
	return label
}
