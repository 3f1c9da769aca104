package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile_People(t *testing.T) {
	records, err := LoadFile(filepath.Join("testdata", "people.yaml"), Keys{})
	require.NoError(t, err)
	require.Len(t, records, 6)

	assert.Equal(t, core.RecordID("1"), records[0].ID)
	assert.True(t, records[0].IsRoot())
	assert.True(t, records[0].IsContainer)
	assert.Equal(t, "Aria Bailey", records[0].Label())

	assert.Equal(t, core.RecordID("4"), records[3].ID)
	assert.Equal(t, core.RecordID("2"), records[3].ParentID)
	assert.False(t, records[3].IsContainer)
	assert.Equal(t, "adam.clark@example.com", records[3].Fields["email"])

	// structural keys do not leak into fields
	assert.NotContains(t, records[3].Fields, "id")
	assert.NotContains(t, records[3].Fields, "parentId")

	require.NoError(t, Validate(records))
}

func TestLoadFile_CustomKeys(t *testing.T) {
	records, err := LoadFile(filepath.Join("testdata", "custom.json"), Keys{
		ID:        "key",
		Parent:    "managerId",
		Container: "manager",
	})
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, core.Record{ID: "root", IsContainer: true, Fields: map[string]any{"name": "Root"}}, records[0])
	assert.Equal(t, core.RecordID("root"), records[1].ParentID)
	require.NoError(t, Validate(records))
}

func TestLoadFile_UnsupportedExt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n1\n"), 0o600))

	_, err := LoadFile(path, Keys{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported seed file extension")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantIDs []core.RecordID
		errMsg  string
	}{
		{
			name:    "empty document",
			content: "   \n",
			wantIDs: []core.RecordID{},
		},
		{
			name:    "top-level list",
			content: "- id: a\n  isContainer: true\n- id: b\n  parentId: a\n",
			wantIDs: []core.RecordID{"a", "b"},
		},
		{
			name:    "records key",
			content: "records:\n  - id: x\n",
			wantIDs: []core.RecordID{"x"},
		},
		{
			name:    "json numeric ids",
			content: `[{"id": 10, "isContainer": true}, {"id": 11, "parentId": 10}]`,
			wantIDs: []core.RecordID{"10", "11"},
		},
		{
			name:    "mapping without list",
			content: "other: 1\n",
			errMsg:  "expected a list or a mapping",
		},
		{
			name:    "scalar document",
			content: "hello\n",
			errMsg:  "expected a list of records",
		},
		{
			name:    "entry not a mapping",
			content: "- 1\n",
			errMsg:  "entry 0: expected a mapping",
		},
		{
			name:    "missing id",
			content: "- name: nobody\n",
			errMsg:  `missing "id"`,
		},
		{
			name:    "fractional id",
			content: "- id: 1.5\n",
			errMsg:  "is not an integer",
		},
		{
			name:    "container not bool",
			content: "- id: a\n  isContainer: yes please\n",
			errMsg:  "isContainer must be a bool",
		},
		{
			name:    "invalid yaml",
			content: "- id: [\n",
			errMsg:  "invalid YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Parse("seed.yaml", []byte(tt.content), Keys{})
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)

			ids := make([]core.RecordID, 0, len(records))
			for _, r := range records {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestValidate_RejectsBrokenForest(t *testing.T) {
	records, err := Parse("seed.yaml", []byte("- id: a\n- id: b\n  parentId: a\n"), Keys{})
	require.NoError(t, err)

	err = Validate(records)
	assert.ErrorIs(t, err, core.ErrInvalidArgument)
}
