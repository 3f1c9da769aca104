// Package browser is a terminal tree browser over the data source with
// keyboard drag and drop.
package browser

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

// MoveFunc commits a reparent. The engine's Move in production, the
// source's Reparent in tests.
type MoveFunc func(ctx context.Context, id, parent core.RecordID) (core.MoveEvent, error)

// Model is the bubbletea model of the browser.
type Model struct {
	ctx    context.Context
	source *forest.Source
	move   MoveFunc

	expanded core.ExpansionSet
	rows     []core.Row
	total    int
	page     int
	pageSize int
	cursor   int

	// dragging is the picked-up record, empty when nothing is held
	dragging core.RecordID

	status      string
	statusIsErr bool

	keys   KeyMap
	help   help.Model
	styles styles
	width  int
	height int
}

// New creates a browser over source showing pageSize top-level rows per page.
func New(ctx context.Context, source *forest.Source, move MoveFunc, pageSize int) Model {
	if pageSize <= 0 {
		pageSize = 20
	}
	m := Model{
		ctx:      ctx,
		source:   source,
		move:     move,
		expanded: core.NewExpansionSet(),
		pageSize: pageSize,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		styles:   defaultStyles(),
	}
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Dragging returns the picked-up record, if any.
func (m Model) Dragging() core.RecordID {
	return m.dragging
}

// Status returns the current status line.
func (m Model) Status() string {
	return m.status
}

// Rows returns the visible rows.
func (m Model) Rows() []core.Row {
	return m.rows
}

// Cursor returns the index of the selected row.
func (m Model) Cursor() int {
	return m.cursor
}

func (m *Model) current() (core.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return core.Row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) pageCount() int {
	return core.PageResult{TotalCount: m.total}.PageCount(m.pageSize)
}

// refresh re-reads the visible rows, keeping the cursor on the same record
// when it is still visible.
func (m *Model) refresh() {
	var selected core.RecordID
	if row, ok := m.current(); ok {
		selected = row.Record.ID
	}

	rows, total, err := m.source.VisibleRows(m.expanded, core.PageRequest{PageIndex: m.page, PageSize: m.pageSize})
	if err != nil {
		m.setError(err.Error())
		return
	}
	if len(rows) == 0 && m.page > 0 {
		m.total = total
		m.page = max(m.pageCount()-1, 0)
		rows, total, err = m.source.VisibleRows(m.expanded, core.PageRequest{PageIndex: m.page, PageSize: m.pageSize})
		if err != nil {
			m.setError(err.Error())
			return
		}
	}
	m.rows, m.total = rows, total

	for i, row := range rows {
		if row.Record.ID == selected {
			m.cursor = i
			return
		}
	}
	m.cursor = min(m.cursor, max(len(rows)-1, 0))
}

func (m *Model) setStatus(msg string) {
	m.status, m.statusIsErr = msg, false
}

func (m *Model) setError(msg string) {
	m.status, m.statusIsErr = msg, true
}
