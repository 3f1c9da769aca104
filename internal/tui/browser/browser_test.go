package browser

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/internal/testutil"
	"github.com/leapstack-labs/treegrid/pkg/core"
)

func newModel(t *testing.T, records []core.Record, pageSize int) (Model, *forest.Source) {
	t.Helper()
	src := forest.New(forest.WithLogger(testutil.NewTestLogger(t)))
	require.NoError(t, src.Load(records))
	return New(context.Background(), src, src.Reparent, pageSize), src
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m
}

func rowIDs(m Model) []core.RecordID {
	out := make([]core.RecordID, len(m.Rows()))
	for i, r := range m.Rows() {
		out[i] = r.Record.ID
	}
	return out
}

func TestNavigationAndExpansion(t *testing.T) {
	m, _ := newModel(t, testutil.Org(), 10)
	assert.Equal(t, []core.RecordID{"M1", "M2"}, rowIDs(m))

	m = press(m, "l")
	assert.Equal(t, []core.RecordID{"M1", "E1", "E2", "M2"}, rowIDs(m))

	m = press(m, "j", "j", "down")
	assert.Equal(t, 3, m.Cursor())
	m = press(m, "down")
	assert.Equal(t, 3, m.Cursor(), "cursor stops at the last row")

	// collapsing on a leaf jumps to its parent
	m = press(m, "up", "h")
	assert.Equal(t, 0, m.Cursor())

	m = press(m, "enter")
	assert.Equal(t, []core.RecordID{"M1", "M2"}, rowIDs(m))
}

func TestDragAndDrop(t *testing.T) {
	m, src := newModel(t, testutil.Org(), 10)

	// containers cannot be picked up
	m = press(m, "d")
	assert.Empty(t, m.Dragging())
	assert.Contains(t, m.Status(), "cannot be dragged")

	m = press(m, "l", "j", "d")
	assert.Equal(t, core.RecordID("E1"), m.Dragging())
	assert.Contains(t, m.View(), "[dragging]")
	assert.Contains(t, m.View(), "[drop]", "M2 is a valid target")

	// dropping onto a leaf is refused and keeps the drag
	m = press(m, "j", "p")
	assert.Equal(t, core.RecordID("E1"), m.Dragging())
	assert.Contains(t, m.Status(), "Cannot drop")

	m = press(m, "j", "p")
	assert.Empty(t, m.Dragging())
	assert.Contains(t, m.Status(), "Moved E1")

	got, err := src.Get("E1")
	require.NoError(t, err)
	assert.Equal(t, core.RecordID("M2"), got.ParentID)
	assert.Equal(t, []core.RecordID{"M1", "E2", "M2", "E1"}, rowIDs(m))
}

func TestDropOntoCurrentParent(t *testing.T) {
	m, _ := newModel(t, testutil.Org(), 10)

	m = press(m, "l", "j", "d", "k", "p")
	assert.Empty(t, m.Dragging())
	assert.Contains(t, m.Status(), "already under")
}

func TestDropWithoutPickUp(t *testing.T) {
	m, _ := newModel(t, testutil.Org(), 10)

	m = press(m, "p")
	assert.Contains(t, m.Status(), "Nothing picked up")
}

func TestCancelDrag(t *testing.T) {
	m, _ := newModel(t, testutil.Org(), 10)

	m = press(m, "l", "j", "d", "esc")
	assert.Empty(t, m.Dragging())
	assert.Contains(t, m.Status(), "Put E1 back")
}

func TestPaging(t *testing.T) {
	m, _ := newModel(t, testutil.Roots(5), 2)
	assert.Equal(t, []core.RecordID{"r0", "r1"}, rowIDs(m))

	m = press(m, "n", "n")
	assert.Equal(t, []core.RecordID{"r4"}, rowIDs(m))
	assert.Contains(t, m.View(), "Page 3 of 3")

	m = press(m, "n")
	assert.Equal(t, []core.RecordID{"r4"}, rowIDs(m), "no page past the end")

	m = press(m, "b")
	assert.Equal(t, []core.RecordID{"r2", "r3"}, rowIDs(m))
}

func TestQuit(t *testing.T) {
	m, _ := newModel(t, testutil.Org(), 10)

	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_Empty(t *testing.T) {
	m, _ := newModel(t, nil, 10)
	assert.Contains(t, m.View(), "(no records)")
}
