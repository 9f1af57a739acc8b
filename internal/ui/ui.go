// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-celestial/internal/bodies"
	"github.com/litescript/ls-celestial/internal/state"
	"github.com/litescript/ls-celestial/internal/version"
)

// ViewMode represents the current UI view.
type ViewMode int

const (
	ViewDashboard ViewMode = iota
	ViewDetail
	ViewSky
	ViewEvents
	viewCount
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic UI updates.
	TickMsg time.Time

	// AnimTickMsg triggers fast animation updates.
	AnimTickMsg time.Time

	// DataUpdateMsg signals a new report is available.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// ErrorMsg signals a computation error.
	ErrorMsg struct {
		Error error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	state *state.Manager
	loc   *time.Location

	viewMode  ViewMode
	width     int
	height    int
	ready     bool
	statusMsg string
	animTick  int

	dashboard DashboardModel
	detail    DetailModel
	sky       SkyViewModel
	events    EventsModel

	snapshot state.Snapshot
}

// New creates a new root UI model. Times are shown in loc.
func New(stateMgr *state.Manager, loc *time.Location) Model {
	if loc == nil {
		loc = time.Local
	}
	return Model{
		state:     stateMgr,
		loc:       loc,
		viewMode:  ViewDashboard,
		dashboard: NewDashboardModel(loc),
		detail:    NewDetailModel(loc),
		sky:       NewSkyViewModel(),
		events:    NewEventsModel(loc),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), animTickCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit

		case "1", "d":
			m.viewMode = ViewDashboard
		case "2", "b":
			m.viewMode = ViewDetail
		case "3", "s":
			if m.viewMode != ViewSky {
				m.sky = m.sky.Focus(m.dashboard.SelectedKind())
			}
			m.viewMode = ViewSky
		case "4", "e":
			m.viewMode = ViewEvents

		case "tab":
			m.viewMode = (m.viewMode + 1) % viewCount

		case "enter":
			if m.viewMode == ViewDashboard {
				m.detail = m.detail.Select(m.dashboard.SelectedKind())
				m.viewMode = ViewDetail
				break
			}
			cmds = append(cmds, m.updateActiveView(msg))

		default:
			cmds = append(cmds, m.updateActiveView(msg))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

		// Header takes 4 lines, footer 2
		contentHeight := msg.Height - 7
		m.dashboard = m.dashboard.SetSize(msg.Width, contentHeight)
		m.detail = m.detail.SetSize(msg.Width, contentHeight)
		m.sky = m.sky.SetSize(msg.Width, contentHeight)
		m.events = m.events.SetSize(msg.Width, contentHeight)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.state != nil {
			m.snapshot = m.state.Snapshot()
		}

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++
		m.detail = m.detail.SetAnimTick(m.animTick)

	case DataUpdateMsg:
		m.snapshot = msg.Snapshot
		m.statusMsg = ""
		m.dashboard = m.dashboard.UpdateData(m.snapshot)
		m.detail = m.detail.UpdateData(m.snapshot)
		m.sky = m.sky.UpdateData(m.snapshot)
		m.events = m.events.UpdateData(m.snapshot)

	case ErrorMsg:
		m.snapshot.LastError = msg.Error
		m.dashboard = m.dashboard.SetError(msg.Error)

	case skyAnimTickMsg:
		var cmd tea.Cmd
		m.sky, cmd = m.sky.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) updateActiveView(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.viewMode {
	case ViewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewSky:
		m.sky, cmd = m.sky.Update(msg)
	case ViewEvents:
		m.events, cmd = m.events.Update(msg)
	}
	return cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var content string
	switch m.viewMode {
	case ViewDashboard:
		content = m.dashboard.View()
	case ViewDetail:
		content = m.detail.View()
	case ViewSky:
		content = m.sky.View()
	case ViewEvents:
		content = m.events.View()
	}

	return m.renderHeader() + "\n" + content + "\n" + m.renderFooter()
}

func (m Model) renderHeader() string {
	return m.renderLogo() + m.renderTabs() + "\n"
}

func (m Model) renderLogo() string {
	title := []rune("  ☉  ☾  ⊕   L S · C E L E S T I A L")

	var b strings.Builder
	b.WriteString("\n")
	for col, r := range title {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradientColor(col, len(title))))
		b.WriteString(style.Render(string(r)))
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	b.WriteString(muted.Render(fmt.Sprintf("   v%s", version.Version)))
	b.WriteString("\n")
	return b.String()
}

// gradientColor returns a hex color for a position in the title gradient:
// gold -> orange -> violet, from the Sun towards the night sky.
func gradientColor(col, width int) string {
	x := float64(col) / float64(width)

	var r, g, b float64
	if x < 0.5 {
		t := x / 0.5
		r = 250 + t*(236-250)
		g = 204 + t*(114-204)
		b = 21 + t*(60-21)
	} else {
		t := (x - 0.5) / 0.5
		r = 236 + t*(139-236)
		g = 114 + t*(92-114)
		b = 60 + t*(246-60)
	}

	return fmt.Sprintf("#%02X%02X%02X", clampByte(r), clampByte(g), clampByte(b))
}

func clampByte(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 255:
		return 255
	default:
		return int(v)
	}
}

func (m Model) renderTabs() string {
	tabs := []string{"[1] Bodies", "[2] Detail", "[3] Sky", "[4] Events"}
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#9D4EDD")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))

	var parts []string
	for i, tab := range tabs {
		if ViewMode(i) == m.viewMode {
			parts = append(parts, activeStyle.Render("▶ "+tab))
		} else {
			parts = append(parts, dimStyle.Render("  "+tab))
		}
	}
	return "  " + strings.Join(parts, "  ")
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#E84A27"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	var status string
	switch {
	case m.snapshot.LastError != nil:
		status = errorStyle.Render("ERROR: " + m.snapshot.LastError.Error())
	case !m.snapshot.LastCompute.IsZero():
		status = accentStyle.Render(spinner) + dimStyle.Render(fmt.Sprintf(" refresh in %ds", int(m.countdown().Seconds())))
		if m.snapshot.ComputeDuration > 0 {
			status += dimStyle.Render(" (" + m.snapshot.ComputeDuration.Round(time.Microsecond).String() + ")")
		}
	default:
		status = accentStyle.Render(spinner) + " " + dimStyle.Render("Computing...")
	}

	var help string
	switch m.viewMode {
	case ViewDetail:
		help = dimStyle.Render("←/→: body | ↑↓: scroll")
	case ViewSky:
		help = dimStyle.Render("j/k: focus | l: labels")
	case ViewEvents:
		help = dimStyle.Render("↑↓: scroll")
	default:
		help = dimStyle.Render("↑↓: navigate | enter: detail | tab: switch view")
	}

	footer := "  " + status + "  " + dimStyle.Render("|") + "  " + help
	if m.statusMsg != "" {
		footer += "\n  " + dimStyle.Render(m.statusMsg)
	}
	return footer
}

// countdown returns the time until the next scheduled refresh.
func (m Model) countdown() time.Duration {
	if m.state == nil {
		return 0
	}
	next := m.snapshot.LastCompute.Add(m.state.RefreshInterval())
	d := time.Until(next).Round(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendDataUpdate creates a command that sends a data update message.
func SendDataUpdate(snapshot state.Snapshot) tea.Cmd {
	return func() tea.Msg {
		return DataUpdateMsg{Snapshot: snapshot}
	}
}

// SendError creates a command that sends an error message.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

// orderedKinds is the display order of the bodies.
var orderedKinds = []bodies.Kind{bodies.KindSun, bodies.KindMoon, bodies.KindEarth}

// snapshotFor returns the snapshot for kind from a report, or nil.
func snapshotFor(r *bodies.Report, kind bodies.Kind) bodies.Snapshot {
	if r == nil {
		return nil
	}
	switch kind {
	case bodies.KindSun:
		if r.Sun != nil {
			return r.Sun
		}
	case bodies.KindMoon:
		if r.Moon != nil {
			return r.Moon
		}
	case bodies.KindEarth:
		if r.Earth != nil {
			return r.Earth
		}
	}
	return nil
}
