package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-celestial/internal/state"
)

var (
	eventRiseStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	eventSetStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	eventPhaseStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#d0c8ff"))
)

// EventsModel lists horizon crossings and phase changes, newest first.
type EventsModel struct {
	width   int
	height  int
	offset  int
	loc     *time.Location
	entries []state.Event
}

// NewEventsModel creates an empty event log view.
func NewEventsModel(loc *time.Location) EventsModel {
	return EventsModel{loc: loc}
}

// SetSize updates the viewport size.
func (m EventsModel) SetSize(width, height int) EventsModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData replaces the event list.
func (m EventsModel) UpdateData(snapshot state.Snapshot) EventsModel {
	m.entries = make([]state.Event, len(snapshot.Events))
	for i, e := range snapshot.Events {
		m.entries[len(snapshot.Events)-1-i] = e
	}
	if m.offset >= len(m.entries) {
		m.offset = 0
	}
	return m
}

// Update handles messages.
func (m EventsModel) Update(msg tea.Msg) (EventsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.offset > 0 {
				m.offset--
			}
		case "down", "j":
			if m.offset < len(m.entries)-1 {
				m.offset++
			}
		}
	}
	return m, nil
}

func (m EventsModel) visibleRows() int {
	rows := m.height - 4
	if rows < 5 {
		rows = 5
	}
	return rows
}

// View renders the event log.
func (m EventsModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Events"))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-20s %-6s %-14s %s", "Time", "Body", "Event", "Detail")))
	b.WriteString("\n")

	if len(m.entries) == 0 {
		b.WriteString("  No events yet\n")
		return b.String()
	}

	end := m.offset + m.visibleRows()
	if end > len(m.entries) {
		end = len(m.entries)
	}
	for _, e := range m.entries[m.offset:end] {
		b.WriteString(m.renderEvent(e))
		b.WriteString("\n")
	}

	if len(m.entries) > end-m.offset {
		fmt.Fprintf(&b, "\n  Showing %d-%d of %d events", m.offset+1, end, len(m.entries))
	}

	return b.String()
}

func (m EventsModel) renderEvent(e state.Event) string {
	ts := e.Timestamp.In(m.loc).Format("2006-01-02 15:04")

	var kind, detail string
	switch e.Type {
	case state.EventRise:
		kind = eventRiseStyle.Render(fmt.Sprintf("%-14s", "▲ rise"))
	case state.EventSet:
		kind = eventSetStyle.Render(fmt.Sprintf("%-14s", "▼ set"))
	case state.EventPhaseChange:
		kind = eventPhaseStyle.Render(fmt.Sprintf("%-14s", "◐ phase"))
		detail = e.OldPhase + " → " + e.NewPhase
	default:
		kind = fmt.Sprintf("%-14s", string(e.Type))
	}

	return rowStyle.Render(fmt.Sprintf("%-20s %-6s ", ts, e.Body)) + kind + " " + rowStyle.Render(detail)
}
