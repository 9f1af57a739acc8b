// Package state provides thread-safe state management for the application.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/bodies"
	"github.com/litescript/ls-celestial/internal/ephem"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventRise        EventType = "RISE"
	EventSet         EventType = "SET"
	EventPhaseChange EventType = "PHASE_CHANGE"
)

// Event is a change noticed between two consecutive reports.
type Event struct {
	Seq       uint64    `json:"seq"` // increases by one per event, starting at 1
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Body      string    `json:"body"`
	OldPhase  string    `json:"old_phase,omitempty"`
	NewPhase  string    `json:"new_phase,omitempty"`
}

// TimeSeries is a single data point with timestamp.
type TimeSeries struct {
	Timestamp time.Time
	Value     float64
}

// BodyHistory tracks the geocentric distance of one body over time.
type BodyHistory struct {
	Body            string
	DistanceHistory []TimeSeries
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	current         *bodies.Report
	lastCompute     time.Time
	lastError       error
	computeDuration time.Duration

	traces          map[bodies.Kind]*bodies.AltitudeTrace
	history         map[string]*BodyHistory
	maxHistoryLen   int
	illumination    []TimeSeries
	maxEvents       int
	events          []Event
	eventWriteAt    int
	eventSeq        uint64
	refreshInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen   int
	MaxEvents       int
	RefreshInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen:   120, // 2 hours at 1 refresh/min
		MaxEvents:       50,
		RefreshInterval: time.Minute,
	}
}

// NewManager creates a new state manager.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		maxHistoryLen:   cfg.MaxHistoryLen,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		refreshInterval: cfg.RefreshInterval,
		history:         make(map[string]*BodyHistory),
		traces:          make(map[bodies.Kind]*bodies.AltitudeTrace),
	}
}

// UpdateTrace stores the latest altitude trace for a body.
func (m *Manager) UpdateTrace(tr *bodies.AltitudeTrace) {
	if tr == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.traces[tr.Body] = tr
}

// Update records the outcome of one computation. A report that came back
// with a partial error still replaces the current one.
func (m *Manager) Update(report *bodies.Report, computeDuration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastCompute = time.Now()
	m.lastError = err
	m.computeDuration = computeDuration

	if report == nil {
		return
	}

	m.detectEvents(m.current, report)
	m.current = report
	m.updateHistory(report)
}

// detectEvents compares two reports and logs horizon crossings and phase
// changes that happened between them.
func (m *Manager) detectEvents(prev, next *bodies.Report) {
	if prev == nil {
		return
	}
	ts := next.At.Time()

	if prev.Sun != nil && next.Sun != nil {
		m.detectHorizon(ephem.Sun, prev.Sun.Position, next.Sun.Position, ts)
	}
	if prev.Moon == nil || next.Moon == nil {
		return
	}
	m.detectHorizon(ephem.Moon, prev.Moon.Position, next.Moon.Position, ts)

	if prev.Moon.Phase != nil && next.Moon.Phase != nil && *prev.Moon.Phase != *next.Moon.Phase {
		m.addEvent(Event{
			Type:      EventPhaseChange,
			Timestamp: ts,
			Body:      ephem.Moon.String(),
			OldPhase:  prev.Moon.Phase.String(),
			NewPhase:  next.Moon.Phase.String(),
		})
	}
}

func (m *Manager) detectHorizon(body ephem.Body, prev, next *astro.Horizontal, ts time.Time) {
	if prev == nil || next == nil {
		return
	}
	h0 := ephem.StandardAltitude(body)
	wasUp, isUp := prev.AltDeg > h0, next.AltDeg > h0
	switch {
	case !wasUp && isUp:
		m.addEvent(Event{Type: EventRise, Timestamp: ts, Body: body.String()})
	case wasUp && !isUp:
		m.addEvent(Event{Type: EventSet, Timestamp: ts, Body: body.String()})
	}
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	m.eventSeq++
	e.Seq = m.eventSeq
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

func (m *Manager) updateHistory(r *bodies.Report) {
	ts := r.At.Time()
	if r.Sun != nil && r.Sun.DistanceFromEarthKm != nil {
		m.appendDistance(r.Sun.Name(), ts, *r.Sun.DistanceFromEarthKm)
	}
	if r.Moon == nil {
		return
	}
	if r.Moon.DistanceFromEarthKm != nil {
		m.appendDistance(r.Moon.Name(), ts, *r.Moon.DistanceFromEarthKm)
	}
	if r.Moon.Illuminated != nil {
		m.illumination = appendBounded(m.illumination, TimeSeries{Timestamp: ts, Value: *r.Moon.Illuminated}, m.maxHistoryLen)
	}
}

func (m *Manager) appendDistance(body string, ts time.Time, km float64) {
	hist, ok := m.history[body]
	if !ok {
		hist = &BodyHistory{
			Body:            body,
			DistanceHistory: make([]TimeSeries, 0, m.maxHistoryLen),
		}
		m.history[body] = hist
	}
	hist.DistanceHistory = appendBounded(hist.DistanceHistory, TimeSeries{Timestamp: ts, Value: km}, m.maxHistoryLen)
}

func appendBounded(series []TimeSeries, p TimeSeries, maxLen int) []TimeSeries {
	series = append(series, p)
	if maxLen > 0 && len(series) > maxLen {
		series = series[1:]
	}
	return series
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Report          *bodies.Report
	LastCompute     time.Time
	LastError       error
	ComputeDuration time.Duration
	Events          []Event
	Traces          map[bodies.Kind]*bodies.AltitudeTrace
	RangeRates      map[string]float64 // km/s, by body name
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	traces := make(map[bodies.Kind]*bodies.AltitudeTrace, len(m.traces))
	for k, v := range m.traces {
		traces[k] = v
	}

	rates := make(map[string]float64, len(m.history))
	for name := range m.history {
		rates[name] = m.rangeRate(name)
	}

	return Snapshot{
		Traces:          traces,
		RangeRates:      rates,
		Report:          m.current,
		LastCompute:     m.lastCompute,
		LastError:       m.lastError,
		ComputeDuration: m.computeDuration,
		Events:          m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		result[i] = m.events[(m.eventWriteAt+i)%m.maxEvents]
	}
	return result
}

// RecentEvents returns the last n events.
func (m *Manager) RecentEvents(n int) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	if len(all) <= n {
		return all
	}
	return all[len(all)-n:]
}

// EventsSince returns the retained events with a sequence number greater
// than seq, oldest first. Events that fell out of the ring buffer are
// not returned.
func (m *Manager) EventsSince(seq uint64) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.getEventsOrdered()
	for i, e := range all {
		if e.Seq > seq {
			return all[i:]
		}
	}
	return nil
}

// GetBodyHistory returns a copy of the distance history for a body, or
// nil when none has been recorded.
func (m *Manager) GetBodyHistory(body string) *BodyHistory {
	m.mu.RLock()
	defer m.mu.RUnlock()

	hist, ok := m.history[body]
	if !ok {
		return nil
	}
	out := &BodyHistory{
		Body:            hist.Body,
		DistanceHistory: make([]TimeSeries, len(hist.DistanceHistory)),
	}
	copy(out.DistanceHistory, hist.DistanceHistory)
	return out
}

// IlluminationHistory returns a copy of the Moon's illuminated fraction
// over time.
func (m *Manager) IlluminationHistory() []TimeSeries {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]TimeSeries, len(m.illumination))
	copy(out, m.illumination)
	return out
}

// RangeRate estimates how fast a body's distance is changing, in km/s,
// from the last two history points. Positive means receding.
func (m *Manager) RangeRate(body string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rangeRate(body)
}

func (m *Manager) rangeRate(body string) float64 {
	hist, ok := m.history[body]
	if !ok || len(hist.DistanceHistory) < 2 {
		return 0
	}

	n := len(hist.DistanceHistory)
	p1 := hist.DistanceHistory[n-2]
	p2 := hist.DistanceHistory[n-1]

	dt := p2.Timestamp.Sub(p1.Timestamp).Seconds()
	if dt <= 0 {
		return 0
	}
	return (p2.Value - p1.Value) / dt
}

// RefreshInterval returns the configured refresh interval.
func (m *Manager) RefreshInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.refreshInterval
}

// SetRefreshInterval updates the refresh interval.
func (m *Manager) SetRefreshInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshInterval = d
}

// HasData returns true once at least one report has been stored.
func (m *Manager) HasData() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current != nil
}
