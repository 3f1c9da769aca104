package browser

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Expand):
		m.setExpanded(true)

	case key.Matches(msg, m.keys.Collapse):
		m.setExpanded(false)

	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.current(); ok {
			m.setExpanded(!row.Expanded)
		}

	case key.Matches(msg, m.keys.PickUp):
		m.pickUp()

	case key.Matches(msg, m.keys.Drop):
		m.drop()

	case key.Matches(msg, m.keys.Cancel):
		if m.dragging != "" {
			m.setStatus(fmt.Sprintf("Put %s back", m.dragging))
			m.dragging = ""
		}

	case key.Matches(msg, m.keys.NextPage):
		if m.page+1 < m.pageCount() {
			m.page++
			m.cursor = 0
			m.refresh()
		}

	case key.Matches(msg, m.keys.PrevPage):
		if m.page > 0 {
			m.page--
			m.cursor = 0
			m.refresh()
		}

	case key.Matches(msg, m.keys.Refresh):
		m.refresh()
		m.setStatus("Refreshed")
	}
	return m, nil
}

// setExpanded expands or collapses the selected container; on a leaf,
// collapsing jumps to its parent row.
func (m *Model) setExpanded(expand bool) {
	row, ok := m.current()
	if !ok {
		return
	}
	if !row.Record.IsContainer {
		if !expand && !row.Record.IsRoot() {
			for i := m.cursor - 1; i >= 0; i-- {
				if m.rows[i].Record.ID == row.Record.ParentID {
					m.cursor = i
					break
				}
			}
		}
		return
	}
	if expand {
		m.expanded.Expand(row.Record.ID)
	} else {
		m.expanded.Collapse(row.Record.ID)
	}
	m.refresh()
}

func (m *Model) pickUp() {
	row, ok := m.current()
	if !ok {
		return
	}
	ok, err := m.source.CanDrag(row.Record.ID)
	switch {
	case err != nil:
		m.setError(err.Error())
	case !ok:
		m.setError(fmt.Sprintf("%s is a container and cannot be dragged", row.Record.Label()))
	default:
		m.dragging = row.Record.ID
		m.setStatus(fmt.Sprintf("Dragging %s: select a container and press p", row.Record.Label()))
	}
}

func (m *Model) drop() {
	if m.dragging == "" {
		m.setError("Nothing picked up (press d on a row first)")
		return
	}
	target, ok := m.current()
	if !ok {
		return
	}

	_, err := m.move(m.ctx, m.dragging, target.Record.ID)
	switch {
	case core.IsNoOp(err):
		m.setStatus(fmt.Sprintf("%s is already under %s", m.dragging, target.Record.Label()))
	case errors.Is(err, core.ErrInvalidTarget):
		m.setError(fmt.Sprintf("Cannot drop onto %s", target.Record.Label()))
		return
	case err != nil:
		m.setError(err.Error())
		return
	default:
		m.setStatus(fmt.Sprintf("Moved %s to %s", m.dragging, target.Record.Label()))
		m.expanded.Expand(target.Record.ID)
	}
	m.dragging = ""
	m.refresh()
}
