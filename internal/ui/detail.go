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

// SparklineWidth is the fixed width of the altitude sparkline.
const SparklineWidth = 48

// sparklineBlocks are the Unicode block characters for sparkline (0 = lowest, 7 = highest).
var sparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Altitude gradient: near the horizon (dark blue) → mid (blue) → zenith (cyan).
var (
	altColorLow  = [3]uint8{0x1b, 0x2b, 0x4b}
	altColorMid  = [3]uint8{0x34, 0x78, 0xc0}
	altColorHigh = [3]uint8{0x8b, 0xe9, 0xff}
)

// DetailModel shows every field of one body's snapshot.
type DetailModel struct {
	width    int
	height   int
	kind     bodies.Kind
	loc      *time.Location
	snapshot state.Snapshot
	scrollY  int
	animTick int
}

// NewDetailModel creates a new detail model showing the Sun.
func NewDetailModel(loc *time.Location) DetailModel {
	return DetailModel{kind: bodies.KindSun, loc: loc}
}

// SetSize updates the viewport size.
func (m DetailModel) SetSize(width, height int) DetailModel {
	m.width = width
	m.height = height
	return m
}

// SetAnimTick updates the animation tick for shimmer effects.
func (m DetailModel) SetAnimTick(tick int) DetailModel {
	m.animTick = tick
	return m
}

// UpdateData updates with new data snapshot.
func (m DetailModel) UpdateData(snapshot state.Snapshot) DetailModel {
	m.snapshot = snapshot
	return m
}

// Select switches the displayed body.
func (m DetailModel) Select(kind bodies.Kind) DetailModel {
	if kind != m.kind {
		m.scrollY = 0
	}
	m.kind = kind
	return m
}

// Selected returns the displayed body.
func (m DetailModel) Selected() bodies.Kind {
	return m.kind
}

// Update handles messages.
func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			if m.scrollY > 0 {
				m.scrollY--
			}
		case "down", "j":
			m.scrollY++
		case "left", "[":
			m = m.Select(orderedKinds[(indexOfKind(m.kind)+len(orderedKinds)-1)%len(orderedKinds)])
		case "right", "]":
			m = m.Select(orderedKinds[(indexOfKind(m.kind)+1)%len(orderedKinds)])
		}
	}
	return m, nil
}

func indexOfKind(kind bodies.Kind) int {
	for i, k := range orderedKinds {
		if k == kind {
			return i
		}
	}
	return 0
}

// View renders the detail view.
func (m DetailModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderSelector())
	b.WriteString("\n\n")

	snap := snapshotFor(m.snapshot.Report, m.kind)
	if snap == nil {
		if m.snapshot.Report == nil {
			b.WriteString("  " + m.renderShimmerText("Computing ephemeris..."))
		} else {
			b.WriteString("  No data for " + m.kind.String() + ".")
		}
		b.WriteString("\n")
		return b.String()
	}

	lines := strings.Split(m.renderDetails(snap), "\n")
	if m.scrollY > 0 {
		skip := m.scrollY
		if skip >= len(lines) {
			skip = len(lines) - 1
		}
		lines = lines[skip:]
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}

func (m DetailModel) renderSelector() string {
	var b strings.Builder

	selectorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39"))

	selectedStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Padding(0, 1)

	unselectedStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		Padding(0, 1)

	b.WriteString(selectorStyle.Render("Body: "))
	b.WriteString("← ")
	for _, k := range orderedKinds {
		if k == m.kind {
			b.WriteString(selectedStyle.Render(k.String()))
		} else {
			b.WriteString(unselectedStyle.Render(k.String()))
		}
		b.WriteString(" ")
	}
	b.WriteString("→")

	return b.String()
}

func (m DetailModel) renderDetails(snap bodies.Snapshot) string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		Width(20)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	name := snap.Name()
	b.WriteString(headerStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", len(name)+4))
	b.WriteString("\n\n")

	for _, row := range bodies.SummaryRows(snap, m.loc) {
		b.WriteString(labelStyle.Render(row.Label+":") + valueStyle.Render(row.Value))
		b.WriteString("\n")
	}

	if rate, ok := m.snapshot.RangeRates[name]; ok && rate != 0 {
		b.WriteString(labelStyle.Render("Range rate:") + valueStyle.Render(formatRangeRate(rate)))
		b.WriteString("\n")
	}

	if m.kind != bodies.KindEarth {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Altitude ±2h:"))
		b.WriteString(m.renderAltitudeSparkline())
		b.WriteString("\n")
	}

	return b.String()
}

// formatRangeRate formats a distance change rate in km/s.
func formatRangeRate(kmPerSec float64) string {
	dir := "receding"
	if kmPerSec < 0 {
		dir = "approaching"
	}
	return fmt.Sprintf("%+.3f km/s (%s)", kmPerSec, dir)
}

// renderAltitudeSparkline renders the altitude trace as a sparkline.
func (m DetailModel) renderAltitudeSparkline() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	trace := m.snapshot.Traces[m.kind]
	if trace == nil || len(trace.Samples) == 0 {
		if m.snapshot.Report != nil && m.snapshot.Report.Geo == nil {
			return dimStyle.Render("No observer location")
		}
		return m.renderShimmerSparkline("Tracing altitude...")
	}

	samples := resampleAltitude(trace.Samples, SparklineWidth)

	var sb strings.Builder
	for _, alt := range samples {
		if alt <= 0 {
			sb.WriteString(dimStyle.Render(string(sparklineBlocks[0])))
			continue
		}
		if alt > 90 {
			alt = 90
		}
		t := alt / 90.0

		blockIdx := int(t * 7.0)
		if blockIdx > 7 {
			blockIdx = 7
		}

		r, g, b := interpolateAltColor(t)
		color := fmt.Sprintf("#%02x%02x%02x", r, g, b)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(sparklineBlocks[blockIdx])))
	}

	var at astro.JulianDay
	if m.snapshot.Report != nil {
		at = m.snapshot.Report.At
	}
	if cur := trace.Current(at); cur != nil {
		nowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
		sb.WriteString(nowStyle.Render(fmt.Sprintf(" now: %+.0f°", cur.AltDeg)))
	}

	return sb.String()
}

// renderShimmerSparkline renders a loading animation sparkline.
func (m DetailModel) renderShimmerSparkline(msg string) string {
	var sb strings.Builder

	offset := m.animTick % SparklineWidth
	for i := 0; i < SparklineWidth; i++ {
		dist := (i - offset + SparklineWidth) % SparklineWidth
		gray := 60
		if dist < 8 {
			gray = 60 + dist*8
		}
		color := fmt.Sprintf("#%02x%02x%02x", gray, gray, gray)
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render("▄"))
	}

	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	sb.WriteString(" ")
	sb.WriteString(dimStyle.Render(msg))

	return sb.String()
}

// interpolateAltColor returns RGB color for altitude value t in [0, 1].
func interpolateAltColor(t float64) (uint8, uint8, uint8) {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	from, to, s := altColorLow, altColorMid, t*2
	if t >= 0.5 {
		from, to, s = altColorMid, altColorHigh, (t-0.5)*2
	}

	mix := func(i int) uint8 {
		return uint8(float64(from[i])*(1-s) + float64(to[i])*s)
	}
	return mix(0), mix(1), mix(2)
}

// resampleAltitude averages altitude samples into a fixed number of buckets.
func resampleAltitude(samples []bodies.AltitudeSample, width int) []float64 {
	if len(samples) == 0 || width <= 0 {
		return nil
	}

	result := make([]float64, width)
	perBucket := float64(len(samples)) / float64(width)

	for i := 0; i < width; i++ {
		start := int(float64(i) * perBucket)
		end := int(float64(i+1) * perBucket)
		if end <= start {
			end = start + 1
		}
		if end > len(samples) {
			end = len(samples)
			start = end - 1
		}

		sum := 0.0
		for j := start; j < end; j++ {
			sum += samples[j].AltDeg
		}
		result[i] = sum / float64(end-start)
	}

	return result
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m DetailModel) renderShimmerText(text string) string {
	runes := []rune(text)
	if len(runes) == 0 {
		return ""
	}

	pos := m.animTick % (len(runes) + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 160, 220
		case dist <= 3:
			r8, g8, b8 = 140, 120, 180
		case dist <= 5:
			r8, g8, b8 = 110, 90, 150
		default:
			r8, g8, b8 = 80, 70, 120
		}

		style := lipgloss.NewStyle().Foreground(lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}
