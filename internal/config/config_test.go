package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/treegrid/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, `
store:
  type: sqlite
  path: data/tree.db
seed:
  path: seeds/people.yaml
  id_key: key
policy:
  script: /etc/treegrid/policy.star
page_size: 50
`)

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, filepath.Join(dir, "data", "tree.db"), cfg.Store.Path)
	assert.Equal(t, filepath.Join(dir, "seeds", "people.yaml"), cfg.Seed.Path)
	assert.Equal(t, "/etc/treegrid/policy.star", cfg.Policy.Script)
	assert.Equal(t, 50, cfg.PageSize)

	keys := cfg.Seed.Keys()
	assert.Equal(t, "key", keys.ID)
	assert.Empty(t, keys.Parent)
}

func TestLoadFromDir_Defaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileNameAlt, "seed:\n  path: people.yaml\n")

	cfg, err := LoadFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, DefaultStoreType, cfg.Store.Type)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
}

func TestLoadFromDir_NoConfig(t *testing.T) {
	cfg, err := LoadFromDir(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadFromDir_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ConfigFileName, "store: [\n")

	_, err := LoadFromDir(dir)
	assert.Error(t, err)
}

func TestFindProjectRoot(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, ConfigFileName, "page_size: 5\n")
	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	assert.Equal(t, root, FindProjectRoot(nested, 0))
	assert.Equal(t, root, FindProjectRoot(root, 1))
	assert.Empty(t, FindProjectRoot(nested, 2))
}

func TestApplyStoreDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   StoreConfig
		want StoreConfig
	}{
		{"empty becomes memory", StoreConfig{}, StoreConfig{Type: "memory"}},
		{"sqlite path", StoreConfig{Type: "sqlite"}, StoreConfig{Type: "sqlite", Path: state.DefaultSQLitePath}},
		{"postgres host and port", StoreConfig{Type: "postgres", Database: "db"}, StoreConfig{Type: "postgres", Database: "db", Host: "localhost", Port: 5432}},
		{"explicit values kept", StoreConfig{Type: "postgres", Host: "pg", Port: 1}, StoreConfig{Type: "postgres", Host: "pg", Port: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			ApplyStoreDefaults(&got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateStore(t *testing.T) {
	assert.Error(t, ValidateStore(nil))
	assert.Error(t, ValidateStore(&StoreConfig{}))
	assert.NoError(t, ValidateStore(&StoreConfig{Type: "memory"}))
	assert.NoError(t, ValidateStore(&StoreConfig{Type: "sqlite", Path: ":memory:"}))

	err := ValidateStore(&StoreConfig{Type: "postgres"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database")

	err = ValidateStore(&StoreConfig{Type: "mongo"})
	var unknown *state.UnknownStoreError
	assert.True(t, errors.As(err, &unknown))
}
