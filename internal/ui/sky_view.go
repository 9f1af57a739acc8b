package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-celestial/internal/bodies"
	"github.com/litescript/ls-celestial/internal/state"
)

const (
	// Field of view in degrees
	fovAz = 120.0
	fovEl = 60.0

	// Lowest camera elevation; keeps the horizon on screen.
	minCamEl = fovEl/2 - 2

	animDuration  = 400 * time.Millisecond
	animFrameRate = 30 * time.Millisecond

	glyphSun   = '☉'
	glyphMoon  = '☾'
	glyphTrail = '·'

	colorSun     = "220"
	colorMoon    = "#d0c8ff"
	colorTrail   = "60"
	colorFocused = "229"
)

// LabelMode controls how body labels are displayed.
type LabelMode int

const (
	LabelNone LabelMode = iota
	LabelFocused
	LabelAll
)

// skyBodies are the bodies that can appear on the dome.
var skyBodies = []bodies.Kind{bodies.KindSun, bodies.KindMoon}

// SkyViewModel renders the sky dome with the Sun and the Moon and their
// altitude traces.
type SkyViewModel struct {
	width  int
	height int

	// Camera position (center of view)
	camAz float64
	camEl float64

	animating   bool
	animStartAz float64
	animStartEl float64
	animTargAz  float64
	animTargEl  float64
	animStart   time.Time

	focusIdx  int
	labelMode LabelMode
	snapshot  state.Snapshot
}

// NewSkyViewModel creates a new sky view model looking south.
func NewSkyViewModel() SkyViewModel {
	return SkyViewModel{
		camAz:     180,
		camEl:     minCamEl,
		labelMode: LabelFocused,
	}
}

// SetSize updates the viewport size.
func (m SkyViewModel) SetSize(width, height int) SkyViewModel {
	m.width = width
	m.height = height
	return m
}

// UpdateData updates with new data snapshot.
func (m SkyViewModel) UpdateData(snapshot state.Snapshot) SkyViewModel {
	m.snapshot = snapshot
	if !m.animating {
		if az, el, ok := m.focusTarget(); ok {
			m.camAz, m.camEl = az, el
		}
	}
	return m
}

// Focus points the camera at kind. Earth is ignored.
func (m SkyViewModel) Focus(kind bodies.Kind) SkyViewModel {
	for i, k := range skyBodies {
		if k == kind {
			m.focusIdx = i
			if az, el, ok := m.focusTarget(); ok {
				m.camAz, m.camEl = az, el
			}
		}
	}
	return m
}

// Focused returns the body the camera follows.
func (m SkyViewModel) Focused() bodies.Kind {
	return skyBodies[m.focusIdx]
}

// focusTarget returns the camera position for the focused body.
func (m SkyViewModel) focusTarget() (az, el float64, ok bool) {
	if m.snapshot.Report == nil {
		return 0, 0, false
	}
	pos := positionOf(m.snapshot.Report, m.Focused())
	if pos == nil {
		return 0, 0, false
	}
	return pos.AzDeg, math.Max(pos.AltDeg, minCamEl), true
}

// skyAnimTickMsg is sent during camera animation.
type skyAnimTickMsg time.Time

func skyAnimTick() tea.Cmd {
	return tea.Tick(animFrameRate, func(t time.Time) tea.Msg {
		return skyAnimTickMsg(t)
	})
}

// Update handles messages.
func (m SkyViewModel) Update(msg tea.Msg) (SkyViewModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k", "down", "j":
			m.focusIdx = (m.focusIdx + 1) % len(skyBodies)
			return m.startAnimation()
		case "l":
			m.labelMode = (m.labelMode + 1) % 3
		}

	case skyAnimTickMsg:
		if m.animating {
			return m.updateAnimation()
		}
	}

	return m, nil
}

func (m SkyViewModel) startAnimation() (SkyViewModel, tea.Cmd) {
	az, el, ok := m.focusTarget()
	if !ok {
		return m, nil
	}

	m.animating = true
	m.animStartAz = m.camAz
	m.animStartEl = m.camEl
	m.animTargAz = az
	m.animTargEl = el
	m.animStart = time.Now()

	return m, skyAnimTick()
}

func (m SkyViewModel) updateAnimation() (SkyViewModel, tea.Cmd) {
	t := float64(time.Since(m.animStart)) / float64(animDuration)

	if t >= 1.0 {
		m.animating = false
		m.camAz = m.animTargAz
		m.camEl = m.animTargEl
		return m, nil
	}

	// Ease-out cubic
	t = 1 - math.Pow(1-t, 3)

	m.camAz = lerpAngle(m.animStartAz, m.animTargAz, t)
	m.camEl = lerp(m.animStartEl, m.animTargEl, t)

	return m, skyAnimTick()
}

// View renders the sky view.
func (m SkyViewModel) View() string {
	if m.width < 20 || m.height < 10 {
		return "Sky view requires larger terminal"
	}
	if m.snapshot.Report != nil && m.snapshot.Report.Geo == nil {
		return "Sky view requires an observer location (-lat/-lon)"
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderSkyCanvas(m.width, m.height-4))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())

	return b.String()
}

func (m SkyViewModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("135"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(colorMoon))

	var labelStr string
	switch m.labelMode {
	case LabelNone:
		labelStr = dimStyle.Render("Labels: off")
	case LabelFocused:
		labelStr = accentStyle.Render("Labels: focus")
	case LabelAll:
		labelStr = accentStyle.Render("Labels: all")
	}

	compass := dimStyle.Render(fmt.Sprintf("Az:%.0f° El:%.0f°", m.camAz, m.camEl))
	return fmt.Sprintf("%s | %s | %s", titleStyle.Render("Sky View"), labelStr, compass)
}

func (m SkyViewModel) renderStatus() string {
	r := m.snapshot.Report
	if r == nil {
		return "Waiting for positions..."
	}
	kind := m.Focused()
	pos := positionOf(r, kind)
	if pos == nil {
		return "No position for " + kind.String()
	}

	where := "above horizon"
	if pos.AltDeg <= 0 {
		where = "below horizon"
	}
	line := fmt.Sprintf(">>> %s | Az:%.1f° Alt:%+.1f° | %s", kind, pos.AzDeg, pos.AltDeg, where)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(colorFocused)).Render(line)
}

// bodyPos tracks a body's screen position for label rendering.
type bodyPos struct {
	x, y      int
	name      string
	isFocused bool
}

func (m SkyViewModel) renderSkyCanvas(width, height int) string {
	canvas := make([][]rune, height)
	colors := make([][]lipgloss.Color, height)
	for y := 0; y < height; y++ {
		canvas[y] = make([]rune, width)
		colors[y] = make([]lipgloss.Color, width)
		for x := 0; x < width; x++ {
			canvas[y][x] = ' '
			colors[y][x] = "236"
		}
	}

	horizonY := height - 2

	// Trails first so bodies draw over them.
	for _, kind := range skyBodies {
		tr := m.snapshot.Traces[kind]
		if tr == nil {
			continue
		}
		for _, s := range tr.Samples {
			x, y, ok := m.onCanvas(s.AzDeg, s.AltDeg, width, height, horizonY)
			if !ok || s.AltDeg <= 0 {
				continue
			}
			canvas[y][x] = glyphTrail
			colors[y][x] = colorTrail
		}
	}

	for x := 0; x < width; x++ {
		canvas[horizonY][x] = '─'
		colors[horizonY][x] = "60"
	}

	m.drawCardinal(canvas, colors, width, height, "N", 0)
	m.drawCardinal(canvas, colors, width, height, "E", 90)
	m.drawCardinal(canvas, colors, width, height, "S", 180)
	m.drawCardinal(canvas, colors, width, height, "W", 270)

	var positions []bodyPos
	if r := m.snapshot.Report; r != nil {
		for i, kind := range skyBodies {
			pos := positionOf(r, kind)
			if pos == nil || pos.AltDeg <= 0 {
				continue
			}
			x, y, ok := m.onCanvas(pos.AzDeg, pos.AltDeg, width, height, horizonY)
			if !ok {
				continue
			}
			glyph, color := bodyGlyph(kind)
			focused := i == m.focusIdx
			if focused {
				color = colorFocused
			}
			canvas[y][x] = glyph
			colors[y][x] = color
			positions = append(positions, bodyPos{x: x, y: y, name: kind.String(), isFocused: focused})
		}
	}

	m.renderLabels(canvas, colors, width, horizonY, positions)

	// Observer marker
	if stationX, stationY := width/2, height-1; stationY >= 0 {
		canvas[stationY][stationX] = '▲'
		colors[stationY][stationX] = "46"
	}

	var b strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			style := lipgloss.NewStyle().Foreground(colors[y][x])
			b.WriteString(style.Render(string(canvas[y][x])))
		}
		if y < height-1 {
			b.WriteString("\n")
		}
	}

	return b.String()
}

// onCanvas projects az/alt and reports whether the cell lies above the horizon line.
func (m SkyViewModel) onCanvas(az, alt float64, width, height, horizonY int) (int, int, bool) {
	x, y, visible := m.projectToScreen(az, alt, width, height)
	if !visible || x < 0 || x >= width || y < 0 || y >= horizonY {
		return 0, 0, false
	}
	return x, y, true
}

func bodyGlyph(kind bodies.Kind) (rune, lipgloss.Color) {
	if kind == bodies.KindSun {
		return glyphSun, colorSun
	}
	return glyphMoon, colorMoon
}

// renderLabels draws body names to the right of their glyphs.
func (m SkyViewModel) renderLabels(canvas [][]rune, colors [][]lipgloss.Color, width, horizonY int, positions []bodyPos) {
	for _, pos := range positions {
		switch {
		case m.labelMode == LabelNone:
			return
		case m.labelMode == LabelFocused && !pos.isFocused:
			continue
		}

		label := pos.name
		color := lipgloss.Color(colorMoon)
		if pos.isFocused {
			label = "◄ " + pos.name
			color = colorFocused
		}

		for i, r := range []rune(label) {
			x := pos.x + 2 + i
			if x >= width || pos.y >= horizonY {
				break
			}
			canvas[pos.y][x] = r
			colors[pos.y][x] = color
		}
	}
}

func (m SkyViewModel) drawCardinal(canvas [][]rune, colors [][]lipgloss.Color, width, height int, label string, az float64) {
	x, _, visible := m.projectToScreen(az, 0, width, height)
	if !visible {
		return
	}
	y := height - 2

	if x >= 0 && x < width && y >= 0 && y < height {
		canvas[y][x] = rune(label[0])
		colors[y][x] = "252"
	}
}

// projectToScreen converts az/el to screen coordinates relative to camera
func (m SkyViewModel) projectToScreen(az, el float64, width, height int) (int, int, bool) {
	dAz := normalizeAngle(az - m.camAz)
	dEl := el - m.camEl

	if dAz < -fovAz/2 || dAz > fovAz/2 {
		return 0, 0, false
	}
	if dEl < -fovEl/2 || dEl > fovEl/2 {
		return 0, 0, false
	}

	// X: -fovAz/2..+fovAz/2 -> 0..width
	// Y: +fovEl/2..-fovEl/2 -> 0..horizonY (higher el = higher on screen)
	horizonY := height - 2

	x := int((dAz + fovAz/2) / fovAz * float64(width))
	y := int((fovEl/2 - dEl) / fovEl * float64(horizonY))

	return x, y, true
}

// normalizeAngle wraps angle to -180..+180 range
func normalizeAngle(a float64) float64 {
	for a > 180 {
		a -= 360
	}
	for a < -180 {
		a += 360
	}
	return a
}

// lerpAngle interpolates between angles, taking shortest path
func lerpAngle(a, b, t float64) float64 {
	diff := normalizeAngle(b - a)
	return a + diff*t
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Init returns nil cmd
func (m SkyViewModel) Init() tea.Cmd {
	return nil
}
