package core

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// RecordID identifies a record. IDs are opaque and compared for equality only.
type RecordID string

// NoParent is the ParentID of a root record.
const NoParent RecordID = ""

// Record is a node in the forest.
type Record struct {
	ID          RecordID       `json:"id" yaml:"id"`
	ParentID    RecordID       `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	IsContainer bool           `json:"isContainer" yaml:"isContainer"`
	Fields      map[string]any `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// IsRoot reports whether the record has no parent.
func (r Record) IsRoot() bool {
	return r.ParentID == NoParent
}

// Label returns a human-readable name for the record, built from the
// common name fields when present and falling back to the ID.
func (r Record) Label() string {
	first, _ := r.Fields["firstName"].(string)
	last, _ := r.Fields["lastName"].(string)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	}
	for _, key := range []string{"name", "label", "title"} {
		if v, ok := r.Fields[key]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return string(r.ID)
}

// Clone returns a copy of the record whose Fields map can be modified
// without affecting the original.
func (r Record) Clone() Record {
	if r.Fields == nil {
		return r
	}
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	r.Fields = fields
	return r
}

// PageRequest identifies a contiguous window of the children of ParentID,
// or of the root set when ParentID is NoParent.
type PageRequest struct {
	ParentID  RecordID `json:"parentId,omitempty"`
	PageIndex int      `json:"page"`
	PageSize  int      `json:"pageSize"`
}

// Validate checks the window bounds.
func (p PageRequest) Validate() error {
	if p.PageIndex < 0 {
		return fmt.Errorf("%w: page index must be non-negative, got %d", ErrInvalidArgument, p.PageIndex)
	}
	if p.PageSize <= 0 {
		return fmt.Errorf("%w: page size must be positive, got %d", ErrInvalidArgument, p.PageSize)
	}
	return nil
}

// Offset returns the index of the first item in the window.
func (p PageRequest) Offset() int {
	start, _ := p.Window()
	return start
}

// Window returns the half-open item range [start, end) of the request.
// Both bounds saturate at math.MaxInt, so a huge page index selects nothing.
func (p PageRequest) Window() (start, end int) {
	if p.PageSize <= 0 || p.PageIndex < 0 {
		return 0, 0
	}
	if p.PageIndex > math.MaxInt/p.PageSize {
		return math.MaxInt, math.MaxInt
	}
	start = p.PageIndex * p.PageSize
	if start > math.MaxInt-p.PageSize {
		return start, math.MaxInt
	}
	return start, start + p.PageSize
}

// PageResult is one window of an ordered result set.
// TotalCount is the size of the full set, independent of the window.
type PageResult struct {
	Items      []Record `json:"items"`
	TotalCount int      `json:"totalCount"`
}

// PageCount returns how many pages of the given size cover TotalCount.
func (p PageResult) PageCount(pageSize int) int {
	if pageSize <= 0 || p.TotalCount == 0 {
		return 0
	}
	return (p.TotalCount + pageSize - 1) / pageSize
}

// MoveEvent describes a committed reparent.
type MoveEvent struct {
	ID          string    `json:"id"`
	RecordID    RecordID  `json:"recordId"`
	OldParentID RecordID  `json:"oldParentId,omitempty"`
	NewParentID RecordID  `json:"newParentId"`
	MovedAt     time.Time `json:"movedAt"`
}

// Row is one visible line of a flattened tree.
type Row struct {
	Record     Record `json:"record"`
	Depth      int    `json:"depth"`
	Expanded   bool   `json:"expanded"`
	ChildCount int    `json:"childCount"`
}

// ExpansionSet holds the IDs of records shown expanded.
// It is view state owned by the caller; the data source only reads it.
type ExpansionSet map[RecordID]struct{}

// NewExpansionSet creates a set containing ids.
func NewExpansionSet(ids ...RecordID) ExpansionSet {
	s := make(ExpansionSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is expanded. A nil set contains nothing.
func (s ExpansionSet) Contains(id RecordID) bool {
	_, ok := s[id]
	return ok
}

// Expand marks id as expanded.
func (s ExpansionSet) Expand(id RecordID) {
	s[id] = struct{}{}
}

// Collapse marks id as collapsed.
func (s ExpansionSet) Collapse(id RecordID) {
	delete(s, id)
}

// Toggle flips the state of id and returns the new state.
func (s ExpansionSet) Toggle(id RecordID) bool {
	if s.Contains(id) {
		s.Collapse(id)
		return false
	}
	s.Expand(id)
	return true
}

// IDs returns the expanded IDs in sorted order.
func (s ExpansionSet) IDs() []RecordID {
	ids := make([]RecordID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
