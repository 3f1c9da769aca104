package testutil

import (
	"fmt"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Manager returns a root container record.
func Manager(id, name string) core.Record {
	return core.Record{
		ID:          core.RecordID(id),
		IsContainer: true,
		Fields:      map[string]any{"name": name},
	}
}

// Employee returns a leaf record under parent.
func Employee(id, parent, name string) core.Record {
	return core.Record{
		ID:       core.RecordID(id),
		ParentID: core.RecordID(parent),
		Fields:   map[string]any{"name": name},
	}
}

// Org returns two managers M1, M2 and two employees E1, E2 reporting to M1.
func Org() []core.Record {
	return []core.Record{
		Manager("M1", "Manager One"),
		Manager("M2", "Manager Two"),
		Employee("E1", "M1", "Employee One"),
		Employee("E2", "M1", "Employee Two"),
	}
}

// Chain returns containers A -> B -> C, where C's parent is B and B's parent is A.
func Chain() []core.Record {
	return []core.Record{
		{ID: "A", IsContainer: true},
		{ID: "B", ParentID: "A", IsContainer: true},
		{ID: "C", ParentID: "B", IsContainer: true},
	}
}

// Roots returns n root leaf records named r0..r(n-1).
func Roots(n int) []core.Record {
	out := make([]core.Record, n)
	for i := range out {
		out[i] = core.Record{ID: core.RecordID(fmt.Sprintf("r%d", i))}
	}
	return out
}

// IDs extracts record IDs in order.
func IDs(records []core.Record) []core.RecordID {
	out := make([]core.RecordID, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}
