package forest

import (
	"testing"

	"github.com/leapstack-labs/treegrid/internal/testutil"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rowView struct {
	ID       core.RecordID
	Depth    int
	Expanded bool
	Children int
}

func view(rows []core.Row) []rowView {
	out := make([]rowView, len(rows))
	for i, r := range rows {
		out[i] = rowView{ID: r.Record.ID, Depth: r.Depth, Expanded: r.Expanded, Children: r.ChildCount}
	}
	return out
}

func TestVisibleRows(t *testing.T) {
	s := newSource(t, testutil.Org())

	tests := []struct {
		name     string
		expanded core.ExpansionSet
		req      core.PageRequest
		want     []rowView
		total    int
	}{
		{
			name:     "collapsed",
			expanded: core.NewExpansionSet(),
			req:      core.PageRequest{PageSize: 10},
			want: []rowView{
				{ID: "M1", Children: 2},
				{ID: "M2"},
			},
			total: 2,
		},
		{
			name:     "M1 expanded",
			expanded: core.NewExpansionSet("M1"),
			req:      core.PageRequest{PageSize: 10},
			want: []rowView{
				{ID: "M1", Expanded: true, Children: 2},
				{ID: "E1", Depth: 1},
				{ID: "E2", Depth: 1},
				{ID: "M2"},
			},
			total: 2,
		},
		{
			name:     "leaf in expansion set is ignored",
			expanded: core.NewExpansionSet("E1", "M2"),
			req:      core.PageRequest{PageSize: 10},
			want: []rowView{
				{ID: "M1", Children: 2},
				{ID: "M2", Expanded: true},
			},
			total: 2,
		},
		{
			name:     "paging applies to top level only",
			expanded: core.NewExpansionSet("M1"),
			req:      core.PageRequest{PageSize: 1},
			want: []rowView{
				{ID: "M1", Expanded: true, Children: 2},
				{ID: "E1", Depth: 1},
				{ID: "E2", Depth: 1},
			},
			total: 2,
		},
		{
			name:     "child page starts below parent depth",
			expanded: nil,
			req:      core.PageRequest{ParentID: "M1", PageIndex: 1, PageSize: 1},
			want: []rowView{
				{ID: "E2", Depth: 1},
			},
			total: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, total, err := s.VisibleRows(tt.expanded, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, view(rows))
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestVisibleRows_Nested(t *testing.T) {
	records := append(testutil.Chain(), core.Record{ID: "leaf", ParentID: "C"})
	s := newSource(t, records)

	rows, _, err := s.VisibleRows(core.NewExpansionSet("A", "B", "C"), core.PageRequest{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, []rowView{
		{ID: "A", Expanded: true, Children: 1},
		{ID: "B", Depth: 1, Expanded: true, Children: 1},
		{ID: "C", Depth: 2, Expanded: true, Children: 1},
		{ID: "leaf", Depth: 3},
	}, view(rows))

	// collapsing B hides everything beneath it even though C stays expanded
	rows, _, err = s.VisibleRows(core.NewExpansionSet("A", "C"), core.PageRequest{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, []core.RecordID{"A", "B"}, ids(rows))
}

func TestVisibleRows_DoesNotModifyExpansionSet(t *testing.T) {
	s := newSource(t, testutil.Org())
	expanded := core.NewExpansionSet("M1", "ghost")

	_, _, err := s.VisibleRows(expanded, core.PageRequest{PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []core.RecordID{"M1", "ghost"}, expanded.IDs())
}

func TestVisibleRows_InvalidRequest(t *testing.T) {
	s := newSource(t, testutil.Org())

	_, _, err := s.VisibleRows(nil, core.PageRequest{PageSize: 0})
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestAncestorsAndDescendants(t *testing.T) {
	s := newSource(t, testutil.Chain())

	anc, err := s.Ancestors("C")
	require.NoError(t, err)
	assert.Equal(t, []core.RecordID{"B", "A"}, anc)

	anc, err = s.Ancestors("A")
	require.NoError(t, err)
	assert.Empty(t, anc)

	desc, err := s.Descendants("A")
	require.NoError(t, err)
	assert.Equal(t, []core.RecordID{"B", "C"}, desc)

	_, err = s.Ancestors("ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
	_, err = s.Descendants("ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func ids(rows []core.Row) []core.RecordID {
	out := make([]core.RecordID, len(rows))
	for i, r := range rows {
		out[i] = r.Record.ID
	}
	return out
}
