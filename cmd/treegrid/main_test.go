// Package main provides tests for the treegrid CLI.
package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/treegrid/internal/cli"
	"github.com/leapstack-labs/treegrid/internal/cli/config"
)

const orgSeed = `- id: "1"
  name: Aria Bailey
  isContainer: true
- id: "2"
  name: Aaliyah Butler
  parentId: "1"
  isContainer: true
- id: "3"
  name: Abigail Carter
  parentId: "1"
- id: "4"
  name: Adam Clark
  parentId: "2"
`

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "people.yaml"), []byte(orgSeed), 0600))
	cfg := "store:\n  type: sqlite\n  path: .treegrid/treegrid.db\nseed:\n  path: people.yaml\n"
	cfgPath := filepath.Join(dir, "treegrid.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0600))
	return cfgPath
}

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), "treegrid %v", args)
	return buf.String()
}

func TestVersionCommand(t *testing.T) {
	out := runCLI(t, "version")
	assert.Contains(t, out, "treegrid")
}

func TestHelpCommand(t *testing.T) {
	out := runCLI(t, "--help")
	for _, name := range []string{"ls", "tree", "move", "serve", "browse"} {
		assert.Contains(t, out, name)
	}
}

func TestMovePersistsAcrossInvocations(t *testing.T) {
	cfgPath := setupProject(t)

	out := runCLI(t, "--config", cfgPath, "-o", "markdown", "move", "3", "2")
	assert.Contains(t, out, "Moved 3")

	out = runCLI(t, "--config", cfgPath, "-o", "markdown", "ls", "2")
	assert.Contains(t, out, "Abigail Carter")
	assert.Contains(t, out, "Adam Clark")

	out = runCLI(t, "--config", cfgPath, "-o", "json", "history")
	assert.Contains(t, out, `"recordId": "3"`)
}
