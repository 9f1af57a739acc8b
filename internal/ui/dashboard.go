package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-celestial/internal/astro"
	"github.com/litescript/ls-celestial/internal/bodies"
	"github.com/litescript/ls-celestial/internal/state"
)

// Styles for the dashboard
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRowStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	aboveHorizonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("46"))

	belowHorizonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("244"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// DashboardModel lists the Sun, the Moon and the Earth at a glance.
type DashboardModel struct {
	width    int
	height   int
	cursor   int
	loc      *time.Location
	snapshot state.Snapshot
	lastErr  error
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(loc *time.Location) DashboardModel {
	return DashboardModel{loc: loc}
}

// Init implements the Bubble Tea model interface.
func (m DashboardModel) Init() tea.Cmd {
	return nil
}

// SetSize updates the viewport size.
func (m DashboardModel) SetSize(width, height int) DashboardModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates the model with new data.
func (m DashboardModel) UpdateData(snapshot state.Snapshot) DashboardModel {
	m.snapshot = snapshot
	m.lastErr = snapshot.LastError
	return m
}

// SetError sets the last error for display.
func (m DashboardModel) SetError(err error) DashboardModel {
	m.lastErr = err
	return m
}

// Update handles messages.
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(orderedKinds)-1 {
				m.cursor++
			}
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = len(orderedKinds) - 1
		}
	}
	return m, nil
}

// SelectedKind returns the body under the cursor.
func (m DashboardModel) SelectedKind() bodies.Kind {
	return orderedKinds[m.cursor]
}

// View renders the dashboard.
func (m DashboardModel) View() string {
	var b strings.Builder

	if m.lastErr != nil {
		b.WriteString(errorStyle.Render("Error: " + m.lastErr.Error()))
		b.WriteString("\n\n")
	}

	r := m.snapshot.Report
	if r == nil {
		if m.lastErr == nil {
			b.WriteString("Computing ephemeris...\n")
		}
		return b.String()
	}

	b.WriteString(m.renderObserver(r))
	b.WriteString("\n\n")
	b.WriteString(m.renderBodiesTable(r))

	if r.Moon != nil && r.Moon.Illuminated != nil {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Moon"))
		b.WriteString("\n  ")
		b.WriteString(renderIlluminationBar(*r.Moon.Illuminated, 20))
		if r.Moon.Phase != nil {
			b.WriteString("  " + r.Moon.Phase.String())
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m DashboardModel) renderObserver(r *bodies.Report) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Observer"))
	b.WriteString("\n  ")
	b.WriteString(r.At.Time().In(m.loc).Format("2006-01-02 15:04:05 MST"))
	if r.Geo == nil {
		b.WriteString(belowHorizonStyle.Render("  [no location: geocentric only]"))
		return b.String()
	}
	fmt.Fprintf(&b, "  lat %.4f° lon %.4f° alt %.0f m", r.Geo.LatDeg, r.Geo.LonEastDeg(), r.Geo.AltM)
	return b.String()
}

func (m DashboardModel) renderBodiesTable(r *bodies.Report) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bodies"))
	b.WriteString("\n")

	header := fmt.Sprintf("%-6s %-14s %-16s %-6s %-6s",
		"Body", "Distance", "Alt / Az", "Rise", "Set")
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	for i, kind := range orderedKinds {
		row := fmt.Sprintf("%-6s %-14s %-16s %-6s %-6s",
			kind.String(),
			m.distanceCell(r, kind),
			positionCell(r, kind),
			m.eventCell(r, kind, true),
			m.eventCell(r, kind, false),
		)

		if i == m.cursor {
			b.WriteString(selectedRowStyle.Render(row))
		} else {
			b.WriteString(rowStyle.Render(row))
		}
		if pos := positionOf(r, kind); pos != nil {
			if pos.AltDeg > 0 {
				b.WriteString(" " + aboveHorizonStyle.Render("▲"))
			} else {
				b.WriteString(" " + belowHorizonStyle.Render("▼"))
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (m DashboardModel) distanceCell(r *bodies.Report, kind bodies.Kind) string {
	var km *float64
	switch kind {
	case bodies.KindSun:
		if r.Sun != nil {
			km = r.Sun.DistanceFromEarthKm
		}
	case bodies.KindMoon:
		if r.Moon != nil {
			km = r.Moon.DistanceFromEarthKm
		}
	case bodies.KindEarth:
		if r.Earth != nil {
			km = r.Earth.DistanceFromSunKm
		}
	}
	if km == nil {
		return "—"
	}
	return bodies.FormatDistance(*km)
}

func positionOf(r *bodies.Report, kind bodies.Kind) *astro.Horizontal {
	switch kind {
	case bodies.KindSun:
		if r.Sun != nil {
			return r.Sun.Position
		}
	case bodies.KindMoon:
		if r.Moon != nil {
			return r.Moon.Position
		}
	}
	return nil
}

func positionCell(r *bodies.Report, kind bodies.Kind) string {
	pos := positionOf(r, kind)
	if pos == nil {
		return "—"
	}
	return fmt.Sprintf("%+.1f° / %.0f°", pos.AltDeg, pos.AzDeg)
}

func horizonEvents(r *bodies.Report, kind bodies.Kind) (rise, set *bodies.HorizonEvent) {
	switch kind {
	case bodies.KindSun:
		if r.Sun != nil {
			return r.Sun.Rise, r.Sun.Set
		}
	case bodies.KindMoon:
		if r.Moon != nil {
			return r.Moon.Rise, r.Moon.Set
		}
	}
	return nil, nil
}

func (m DashboardModel) eventCell(r *bodies.Report, kind bodies.Kind, rising bool) string {
	rise, set := horizonEvents(r, kind)
	ev := set
	if rising {
		ev = rise
	}
	if ev == nil {
		return "—"
	}
	return ev.Time.Time().In(m.loc).Format("15:04")
}

// renderIlluminationBar draws the lit fraction of the lunar disk.
func renderIlluminationBar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style lipgloss.Style
	switch {
	case frac >= 0.75:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	case frac >= 0.25:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	default:
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	}

	return "[" + style.Render(bar) + "] " + fmt.Sprintf("%3.0f%%", frac*100)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
