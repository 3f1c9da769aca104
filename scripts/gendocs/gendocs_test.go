package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/treegrid/internal/cli"
)

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	raw, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	index := string(raw)
	assert.Contains(t, index, "# CLI Reference")
	assert.Contains(t, index, "TREEGRID_STORE__TYPE")
	assert.Contains(t, index, "TREEGRID_UI__SESSION_SECRET")
	assert.Contains(t, index, "TREEGRID_PAGE_SIZE")
	assert.Contains(t, index, "`<candidate> <parent>`")
	assert.Contains(t, index, `{"noop":true}`)

	read := strings.Index(index, "## Reading the tree")
	mutate := strings.Index(index, "## Changing the tree")
	interactive := strings.Index(index, "## Interactive")
	other := strings.Index(index, "## Other Commands")
	require.True(t, read >= 0 && mutate >= 0 && interactive >= 0 && other >= 0, index)
	assert.Less(t, read, mutate)
	assert.Less(t, mutate, interactive)
	assert.Less(t, interactive, other)

	raw, err = os.ReadFile(filepath.Join(dir, "move.md"))
	require.NoError(t, err)
	move := string(raw)
	assert.Contains(t, move, "treegrid move <candidate> <parent>")
	assert.Contains(t, move, "*Changing the tree*")
	assert.Contains(t, move, "## Exit Status")
	assert.Contains(t, move, "`--page-size`")
	assert.Contains(t, move, "treegrid move 5 4\n")

	raw, err = os.ReadFile(filepath.Join(dir, "tree.md"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "## Exit Status")

	raw, err = os.ReadFile(filepath.Join(dir, "serve.md"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Also available as `ui`.")
}

func TestCommandSections(t *testing.T) {
	sections := commandSections(cli.NewRootCmd())

	names := func(s section) []string {
		var out []string
		for _, cmd := range s.commands {
			out = append(out, cmd.Name())
		}
		return out
	}

	require.Len(t, sections, 4)
	assert.Equal(t, "Reading the tree", sections[0].title)
	assert.ElementsMatch(t, []string{"can-drag", "can-drop", "history", "ls", "tree"}, names(sections[0]))
	assert.ElementsMatch(t, []string{"import", "move"}, names(sections[1]))
	assert.ElementsMatch(t, []string{"browse", "serve", "shell"}, names(sections[2]))
	assert.ElementsMatch(t, []string{"completion", "version"}, names(sections[3]))
}

func TestEnvVar(t *testing.T) {
	tests := []struct {
		field ConfigField
		want  string
	}{
		{ConfigField{Name: "page_size", Category: "project"}, "TREEGRID_PAGE_SIZE"},
		{ConfigField{Name: "policy.script", Category: "project"}, "TREEGRID_POLICY__SCRIPT"},
		{ConfigField{Name: "type", Category: "store"}, "TREEGRID_STORE__TYPE"},
		{ConfigField{Name: "shutdown_timeout", Category: "ui"}, "TREEGRID_UI__SHUTDOWN_TIMEOUT"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, envVar(tt.field))
	}
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "# a\ntreegrid ls\n\ntreegrid tree", dedent("  # a\n  treegrid ls\n\n  treegrid tree"))
}

func TestGenerateSchemaDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateSchemaDocs(dir))

	doc, err := os.ReadFile(filepath.Join(dir, "configuration.md"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "`container_key`")
	assert.Contains(t, string(doc), "`isContainer`")
	assert.Contains(t, string(doc), "port: 8765")
}

func TestCleanDescription(t *testing.T) {
	assert.Equal(t, "a b \\| c", cleanDescription("  a\n  b | c "))
	assert.Equal(t, "`x`", InlineCode("x"))
}
