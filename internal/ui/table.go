package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table is the fixed-width listing used by the backends command. Each
// column grows to its longest cell, optionally capped by MaxWidth.
type Table struct {
	Headers  []string
	Rows     [][]string
	MaxWidth int
}

// ColumnWidths returns the display width of each column.
func (t *Table) ColumnWidths() []int {
	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	if t.MaxWidth > 0 {
		for i, w := range widths {
			if w > t.MaxWidth {
				widths[i] = t.MaxWidth
			}
		}
	}
	return widths
}

// Render produces the styled listing. No headers means no output, so a
// caller with an empty registry prints nothing rather than a bare rule.
func (t *Table) Render() string {
	if len(t.Headers) == 0 {
		return ""
	}

	widths := t.ColumnWidths()
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	cellStyle := lipgloss.NewStyle().Foreground(ColorText)
	ruleStyle := lipgloss.NewStyle().Foreground(ColorSecondary)

	var sb strings.Builder

	cells := make([]string, len(t.Headers))
	for i, h := range t.Headers {
		cells[i] = headerStyle.Render(pad(h, widths[i]))
	}
	sb.WriteString(" " + strings.Join(cells, "  ") + "\n")

	for i, w := range widths {
		cells[i] = ruleStyle.Render(strings.Repeat("─", w))
	}
	sb.WriteString(" " + strings.Join(cells, "──") + "\n")

	for _, row := range t.Rows {
		for i := range t.Headers {
			val := ""
			if i < len(row) {
				val = row[i]
			}
			cells[i] = cellStyle.Render(pad(clip(val, widths[i]), widths[i]))
		}
		sb.WriteString(" " + strings.Join(cells, "  ") + "\n")
	}

	return sb.String()
}

// clip shortens a cell that overruns its column, marking the cut.
func clip(s string, width int) string {
	if len(s) <= width {
		return s
	}
	if width < 2 {
		return "…"
	}
	return s[:width-1] + "…"
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// TruncateID shortens a run or assumption ID to its leading eight
// characters, the prefix the summary line and logs print.
func TruncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
