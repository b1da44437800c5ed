package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/roach88/lockstep/internal/dataset"
	"github.com/roach88/lockstep/internal/present"
)

const (
	defaultWidth = 80
	barRows      = 8
	minPanelW    = 24
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	doneStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6BCB77"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	barColors = map[present.HighlightKind]lipgloss.Style{
		present.HighlightNone:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		present.HighlightPivot:   lipgloss.NewStyle().Foreground(lipgloss.Color("#B388FF")),
		present.HighlightCompare: lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
		present.HighlightWrite:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F2C94C")),
		present.HighlightSwap:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
	doneBar = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
)

// eighths are the partial block glyphs, index k is k/8 of a cell.
var eighths = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.width
	if width <= 0 {
		width = defaultWidth
	}

	perRow := 1
	if width >= 2*(minPanelW+4) {
		perRow = 2
	}
	inner := width/perRow - 4

	var rows []string
	panels := m.board.Panels()
	for k := 0; k < len(panels); k += perRow {
		var row []string
		for _, p := range panels[k:min(k+perRow, len(panels))] {
			row = append(row, panelStyle.Width(inner+2).Render(renderPanel(p, inner)))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}

	sections := []string{m.statusLine(), lipgloss.JoinVertical(lipgloss.Left, rows...)}
	if m.err != nil {
		sections = append(sections, errStyle.Render("error: "+m.err.Error()))
	}
	sections = append(sections, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) statusLine() string {
	state := "playing"
	if !m.cond.Playing() {
		state = "paused"
	}
	mode := "local"
	if m.cfg.Offload {
		mode = "offload"
	}
	parts := []string{
		fmt.Sprintf("seed %q", m.seed),
		fmt.Sprintf("%d values", m.cfg.Size),
		mode,
		fmt.Sprintf("speed %d", m.cond.Speed()),
		state,
		fmt.Sprintf("tick %d", m.lastTick),
	}
	if m.dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", m.dropped))
	}
	if m.counting {
		parts = append(parts, fmt.Sprintf("next dataset in %ds", int(m.remaining.Seconds()+0.999)))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return dimStyle.Render(strings.Join(parts, " · "))
}

func renderPanel(p *present.Panel, width int) string {
	header := titleStyle.Render(p.ID().Title())
	if p.Done() {
		header += " " + doneStyle.Render("✓ done")
	}
	stats := dimStyle.Render(fmt.Sprintf("%d steps · %d compares", p.Steps(), p.Compares()))
	return lipgloss.JoinVertical(lipgloss.Left, header, renderBars(p, width, barRows), stats)
}

type column struct {
	value int
	kind  present.HighlightKind
}

// columnsOf folds the panel's values into at most width columns. Each
// column shows the largest value and strongest highlight of its indices.
func columnsOf(p *present.Panel, width int) []column {
	n := p.Len()
	if n == 0 || width <= 0 {
		return nil
	}
	cols := min(n, width)
	h := p.Highlights()
	out := make([]column, cols)
	for c := range out {
		lo, hi := c*n/cols, (c+1)*n/cols
		for i := lo; i < hi; i++ {
			out[c].value = max(out[c].value, p.At(i))
			out[c].kind = max(out[c].kind, h.Kind(i))
		}
	}
	return out
}

// renderBars draws the columns bottom-aligned in rows lines, scaled so
// that dataset.MaxValue fills every row.
func renderBars(p *present.Panel, width, rows int) string {
	cols := columnsOf(p, width)
	if len(cols) == 0 {
		return dimStyle.Render(strings.Repeat("\n", rows-1) + "(empty)")
	}

	lines := make([]string, rows)
	for r := range rows {
		var b strings.Builder
		floor := (rows - 1 - r) * 8
		for _, col := range cols {
			eights := col.value * rows * 8 / dataset.MaxValue
			if col.value > 0 && eights == 0 {
				eights = 1
			}
			cell := min(max(eights-floor, 0), 8)
			style := barColors[col.kind]
			if p.Done() {
				style = doneBar
			}
			b.WriteString(style.Render(eighths[cell]))
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}
