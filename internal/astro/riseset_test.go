package astro

import (
	"errors"
	"math"
	"testing"
	"time"
)

func linear(offset, slope float64) AltitudeFunc {
	return func(jd JulianDay) (float64, error) {
		return slope*float64(jd) - offset, nil
	}
}

func TestFindCrossing_Linear(t *testing.T) {
	s := NewSolver()
	tol := JulianDay(DefaultTolerance.Seconds() / SecondsPerDay)

	tests := []struct {
		name   string
		alt    AltitudeFunc
		rising bool
		want   JulianDay
	}{
		{"rising t-5", linear(5, 1), true, 5},
		{"setting 5-t", linear(-5, -1), false, 5},
		{"rising off-center", linear(7.3, 1), true, 7.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok, err := s.FindCrossing(tt.alt, Window{Start: 0, End: 10}, 0, tt.rising)
			if err != nil {
				t.Fatalf("FindCrossing() error = %v", err)
			}
			if !ok {
				t.Fatal("expected a crossing")
			}
			if math.Abs(float64(c.Time-tt.want)) > float64(tol) {
				t.Errorf("crossing = %v, want %v ± %v", c.Time, tt.want, tol)
			}
		})
	}
}

func TestFindCrossing_NoCrossing(t *testing.T) {
	s := NewSolver()
	w := Window{Start: 0, End: 10}

	tests := []struct {
		name   string
		alt    AltitudeFunc
		target float64
		rising bool
	}{
		{"always above", linear(-20, 1), 0, true},
		{"always below", linear(20, 1), 0, true},
		{"rising search on setting curve", linear(-5, -1), 0, true},
		{"setting search on rising curve", linear(5, 1), 0, false},
		{"target equals start altitude", linear(5, 1), -5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			alt := func(jd JulianDay) (float64, error) {
				calls++
				return tt.alt(jd)
			}
			c, ok, err := s.FindCrossing(alt, w, tt.target, tt.rising)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok {
				t.Errorf("expected no crossing, got %v", c.Time)
			}
			if c.Time != 0 {
				t.Errorf("no-crossing result must not carry a time, got %v", c.Time)
			}
			if calls != 2 {
				t.Errorf("bracket validation should only evaluate endpoints, got %d calls", calls)
			}
		})
	}
}

func TestFindCrossing_BracketInvariant(t *testing.T) {
	steps := 0
	s := Solver{
		Tolerance: DefaultTolerance,
		Trace: func(lo, hi JulianDay, dLo, dHi float64) {
			steps++
			if hi < lo {
				t.Fatalf("bracket inverted: [%v, %v]", lo, hi)
			}
			if dLo == 0 || dHi == 0 {
				return
			}
			if math.Signbit(dLo) == math.Signbit(dHi) {
				t.Fatalf("sign invariant broken at [%v, %v]: %v, %v", lo, hi, dLo, dHi)
			}
		},
	}

	// A smooth, monotonic, non-linear rise across a two-hour window.
	start := ToJulianDay(time.Date(2024, 6, 15, 6, 0, 0, 0, time.UTC))
	end := start.Add(2 * time.Hour)
	alt := func(jd JulianDay) (float64, error) {
		x := float64(jd-start) / float64(end-start)
		return 20*math.Sin(math.Pi*(x-0.37)/2) + 0.3, nil
	}

	c, ok, err := s.FindCrossing(alt, Window{Start: start, End: end}, -0.8333, true)
	if err != nil || !ok {
		t.Fatalf("FindCrossing() ok=%v err=%v", ok, err)
	}
	if steps == 0 {
		t.Error("Trace was never called")
	}

	// Two-hour window at 10 s tolerance needs at most ceil(log2(720)) steps.
	if c.Iterations > 10 {
		t.Errorf("iterations = %d, want <= 10", c.Iterations)
	}
	if c.Time < start || c.Time > end {
		t.Errorf("crossing %v outside window", c.Time)
	}
}

func TestFindCrossing_Convergence(t *testing.T) {
	start := ToJulianDay(time.Date(2024, 1, 1, 16, 0, 0, 0, time.UTC))
	truth := start.Add(47*time.Minute + 13*time.Second)
	alt := func(jd JulianDay) (float64, error) {
		// Sets through the target at `truth`
		return -float64(jd-truth) * 360, nil
	}

	c, ok, err := NewSolver().FindCrossing(alt, Window{Start: start, End: start.Add(2 * time.Hour)}, 0, false)
	if err != nil || !ok {
		t.Fatalf("FindCrossing() ok=%v err=%v", ok, err)
	}
	if d := c.Time.Sub(truth); d > DefaultTolerance || d < -DefaultTolerance {
		t.Errorf("crossing off by %v, want within %v", d, DefaultTolerance)
	}
}

func TestFindCrossing_ExactMidpointHit(t *testing.T) {
	c, ok, err := NewSolver().FindCrossing(linear(5, 1), Window{Start: 0, End: 10}, 0, true)
	if err != nil || !ok {
		t.Fatalf("FindCrossing() ok=%v err=%v", ok, err)
	}
	if c.Time != 5 || c.Iterations != 1 {
		t.Errorf("exact hit = (%v, %d iterations), want (5, 1)", c.Time, c.Iterations)
	}
}

func TestFindCrossing_Errors(t *testing.T) {
	boom := errors.New("ephemeris diverged")

	failing := func(jd JulianDay) (float64, error) {
		return 0, NewComputationError("position", boom)
	}
	_, ok, err := NewSolver().FindCrossing(failing, Window{Start: 0, End: 1}, 0, true)
	if ok || !errors.Is(err, boom) || !errors.Is(err, ErrComputation) {
		t.Errorf("expected wrapped ephemeris error, got ok=%v err=%v", ok, err)
	}

	nan := func(jd JulianDay) (float64, error) { return math.NaN(), nil }
	_, ok, err = NewSolver().FindCrossing(nan, Window{Start: 0, End: 1}, 0, true)
	if ok || !errors.Is(err, ErrComputation) {
		t.Errorf("expected ComputationError for NaN altitude, got ok=%v err=%v", ok, err)
	}

	// Failure at a midpoint, after a valid bracket
	calls := 0
	late := func(jd JulianDay) (float64, error) {
		calls++
		if calls > 2 {
			return 0, boom
		}
		return float64(jd) - 5, nil
	}
	_, ok, err = NewSolver().FindCrossing(late, Window{Start: 0, End: 10}, 0, true)
	if ok || !errors.Is(err, boom) {
		t.Errorf("expected midpoint error, got ok=%v err=%v", ok, err)
	}
}

func TestFindCrossing_DegenerateWindow(t *testing.T) {
	_, ok, err := NewSolver().FindCrossing(linear(5, 1), Window{Start: 10, End: 0}, 0, true)
	if ok || err != nil {
		t.Errorf("inverted window: ok=%v err=%v, want no crossing", ok, err)
	}
}

func TestSearchWindow_Windows(t *testing.T) {
	day := ToJulianDay(time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)).LocalDay(time.UTC)
	midnight := day.Start

	single := SearchWindow{From: 6 * time.Hour, To: 8 * time.Hour}
	ws := single.Windows(day)
	if len(ws) != 1 {
		t.Fatalf("single window split into %d", len(ws))
	}
	if d := ws[0].Start.Sub(midnight) - 6*time.Hour; d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("start offset off by %v, want 6h", d)
	}
	if d := ws[0].End.Sub(midnight) - 8*time.Hour; d > time.Millisecond || d < -time.Millisecond {
		t.Errorf("end offset off by %v, want 8h", d)
	}

	whole := SearchWindow{From: 0, To: WholeDay, Slice: 2 * time.Hour}
	ws = whole.Windows(day)
	if len(ws) != 12 {
		t.Fatalf("day split into %d windows, want 12", len(ws))
	}
	for i := 1; i < len(ws); i++ {
		if ws[i].Start != ws[i-1].End {
			t.Errorf("gap between window %d and %d", i-1, i)
		}
	}

	uneven := SearchWindow{From: 0, To: 5 * time.Hour, Slice: 2 * time.Hour}
	if n := len(uneven.Windows(day)); n != 3 {
		t.Errorf("uneven split = %d windows, want 3", n)
	}

	if ws := (SearchWindow{From: 8 * time.Hour, To: 6 * time.Hour}).Windows(day); ws != nil {
		t.Errorf("inverted search window should be empty, got %v", ws)
	}
}

func TestSearchWindow_DaylightSavingDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name        string
		date        time.Time
		wantLength  time.Duration
		wantWindows int
	}{
		{"spring forward", time.Date(2024, 3, 10, 12, 0, 0, 0, ny), 23 * time.Hour, 12},
		{"fall back", time.Date(2024, 11, 3, 12, 0, 0, 0, ny), 25 * time.Hour, 13},
		{"ordinary", time.Date(2024, 6, 15, 12, 0, 0, 0, ny), 24 * time.Hour, 12},
	}

	whole := SearchWindow{From: 0, To: WholeDay, Slice: 2 * time.Hour}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			day := ToJulianDay(tt.date).LocalDay(ny)
			if d := day.Length() - tt.wantLength; d > time.Millisecond || d < -time.Millisecond {
				t.Fatalf("Length() = %v, want %v", day.Length(), tt.wantLength)
			}

			ws := whole.Windows(day)
			if len(ws) != tt.wantWindows {
				t.Fatalf("got %d windows, want %d", len(ws), tt.wantWindows)
			}
			if ws[0].Start != day.Start {
				t.Errorf("first window starts at %v, want %v", ws[0].Start.Time(), day.Start.Time())
			}
			if d := ws[len(ws)-1].End.Sub(day.End); d > time.Millisecond || d < -time.Millisecond {
				t.Errorf("last window ends %v from the next midnight", d)
			}
		})
	}
}

func TestSolver_SearchStaysInsideShortDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	day := ToJulianDay(time.Date(2024, 3, 10, 12, 0, 0, 0, ny)).LocalDay(ny)

	// Rises half an hour after the 23-hour day has ended.
	rise := day.End.Add(30 * time.Minute)
	alt := func(jd JulianDay) (float64, error) {
		return float64(jd-rise) * 24, nil
	}

	sw := SearchWindow{From: 0, To: WholeDay, Slice: 2 * time.Hour}
	if c, ok, _ := NewSolver().Search(alt, sw, day, 0, true); ok {
		t.Errorf("found rise at %v, which belongs to the next local day", c.Time.Time().In(ny))
	}
}

func TestSolver_Search(t *testing.T) {
	day := ToJulianDay(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)).LocalDay(time.UTC)
	rise := day.Start.Add(13*time.Hour + 20*time.Minute)

	// Rises through zero at 13:20 and peaks six hours later.
	alt := func(jd JulianDay) (float64, error) {
		h := float64(jd-rise) * 24
		return 40 * math.Sin(h*math.Pi/12), nil
	}

	sw := SearchWindow{From: 0, To: 24 * time.Hour, Slice: 2 * time.Hour}
	c, ok, err := NewSolver().Search(alt, sw, day, 0, true)
	if err != nil || !ok {
		t.Fatalf("Search() ok=%v err=%v", ok, err)
	}
	if d := c.Time.Sub(rise); d > DefaultTolerance || d < -DefaultTolerance {
		t.Errorf("rise off by %v", d)
	}

	// A single morning window never sees the afternoon rise.
	morning := SearchWindow{From: 6 * time.Hour, To: 8 * time.Hour}
	if _, ok, _ := NewSolver().Search(alt, morning, day, 0, true); ok {
		t.Error("morning window should not bracket an afternoon rise")
	}
}
