package policy

import (
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/treegrid/internal/testutil"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(id, parent string, container bool, fields map[string]any) core.Record {
	return core.Record{ID: core.RecordID(id), ParentID: core.RecordID(parent), IsContainer: container, Fields: fields}
}

func TestLoadFile(t *testing.T) {
	p, err := LoadFile(filepath.Join("testdata", "same_department.star"), testutil.NewTestLogger(t))
	require.NoError(t, err)

	sales := rec("M1", "", true, map[string]any{"department": "sales"})
	eng := rec("M2", "", true, map[string]any{"department": "eng"})
	emp := rec("E1", "M2", false, map[string]any{"department": "sales"})

	ok, err := p.AllowDrop(emp, sales)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = p.AllowDrop(emp, eng)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join("testdata", "nope.star"), nil)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.Message, "failed to read file")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{"syntax error", "def can_drop(:\n", "Starlark execution error"},
		{"not defined", "x = 1\n", "is not defined"},
		{"not a function", "can_drop = True\n", "must be a function"},
		{"wrong arity", "def can_drop(a):\n    return True\n", "must take 2 parameters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load("test.star", []byte(tt.src), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestAllowDrop_StructuralKeys(t *testing.T) {
	src := `
def can_drop(candidate, target):
    return candidate["id"] == "E1" and candidate["parent"] == "M1" and target["container"] and not candidate["container"]
`
	p, err := Load("keys.star", []byte(src), nil)
	require.NoError(t, err)

	// a payload field named id must not shadow the record id
	ok, err := p.AllowDrop(
		rec("E1", "M1", false, map[string]any{"id": 42, "tags": []any{"a", "b"}}),
		rec("M2", "", true, nil),
	)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowDrop_Errors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		errMsg string
	}{
		{"non bool", "def can_drop(c, t):\n    return 1\n", "must return a bool"},
		{"runtime error", "def can_drop(c, t):\n    return c[\"missing\"]\n", "can_drop"},
		{"frozen input", "def can_drop(c, t):\n    c[\"x\"] = 1\n    return True\n", "frozen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Load("test.star", []byte(tt.src), nil)
			require.NoError(t, err)

			_, err = p.AllowDrop(rec("E1", "M1", false, nil), rec("M2", "", true, nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
