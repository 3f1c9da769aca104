package forest

import (
	"fmt"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Ancestors returns the parent chain of id, nearest first.
func (s *Source) Ancestors(id core.RecordID) ([]core.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tree.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrNotFound, id)
	}

	var chain []core.RecordID
	for cur := rec; !cur.IsRoot(); cur = s.tree.records[cur.ParentID] {
		chain = append(chain, cur.ParentID)
	}
	return chain, nil
}

// Descendants returns every record below id, depth-first in insertion order.
func (s *Source) Descendants(id core.RecordID) ([]core.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.tree.records[id]; !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrNotFound, id)
	}

	var out []core.RecordID
	var walk func(parent core.RecordID)
	walk = func(parent core.RecordID) {
		for _, child := range s.tree.children(parent) {
			out = append(out, child.ID)
			walk(child.ID)
		}
	}
	walk(id)
	return out, nil
}

// VisibleRows flattens one page of the tree for display. The page selected
// by req is listed in order; every expanded container in it is followed by
// its full child set, recursively. The expansion set is only read.
// The returned count is the TotalCount of the requested page.
func (s *Source) VisibleRows(expanded core.ExpansionSet, req core.PageRequest) ([]core.Row, int, error) {
	if err := req.Validate(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	page := s.tree.page(req)
	baseDepth := 0
	if req.ParentID != core.NoParent {
		baseDepth = s.tree.depth(req.ParentID) + 1
	}

	rows := make([]core.Row, 0, len(page.Items))
	var add func(rec core.Record, depth int)
	add = func(rec core.Record, depth int) {
		children := s.tree.children(rec.ID)
		open := rec.IsContainer && expanded.Contains(rec.ID)
		rows = append(rows, core.Row{
			Record:     rec,
			Depth:      depth,
			Expanded:   open,
			ChildCount: len(children),
		})
		if !open {
			return
		}
		for _, child := range children {
			add(child.Clone(), depth+1)
		}
	}
	for _, rec := range page.Items {
		add(rec, baseDepth)
	}
	return rows, page.TotalCount, nil
}

// depth returns the number of ancestors of id. Callers hold the read lock.
func (t snapshot) depth(id core.RecordID) int {
	d := 0
	for cur := t.records[id]; cur != nil && !cur.IsRoot(); cur = t.records[cur.ParentID] {
		d++
	}
	return d
}
