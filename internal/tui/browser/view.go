package browser

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

type styles struct {
	title    lipgloss.Style
	cursor   lipgloss.Style
	muted    lipgloss.Style
	dragging lipgloss.Style
	target   lipgloss.Style
	status   lipgloss.Style
	err      lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		cursor:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		muted:    lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		dragging: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		target:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		status:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		err:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.title.Render("treegrid"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(m.styles.muted.Render("  (no records)"))
		b.WriteString("\n")
	}
	for i, row := range m.rows {
		b.WriteString(m.renderRow(i, row))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.muted.Render(fmt.Sprintf("Page %d of %d (%d top-level)", m.page+1, max(m.pageCount(), 1), m.total)))
	b.WriteString("\n")

	if m.status != "" {
		style := m.styles.status
		if m.statusIsErr {
			style = m.styles.err
		}
		b.WriteString(style.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(i int, row core.Row) string {
	rec := row.Record

	pointer := "  "
	if i == m.cursor {
		pointer = m.styles.cursor.Render("> ")
	}

	glyph := "•"
	if rec.IsContainer {
		glyph = "▸"
		if row.Expanded {
			glyph = "▾"
		}
	}

	line := fmt.Sprintf("%s%s%s %s %s", pointer, strings.Repeat("  ", row.Depth), glyph,
		rec.Label(), m.styles.muted.Render("("+string(rec.ID)+")"))

	switch {
	case rec.ID == m.dragging:
		line += " " + m.styles.dragging.Render("[dragging]")
	case m.dragging != "" && m.droppable(rec.ID):
		line += " " + m.styles.target.Render("[drop]")
	}
	return line
}

func (m Model) droppable(target core.RecordID) bool {
	ok, err := m.source.CanDrop(m.dragging, target)
	return err == nil && ok
}
