package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/leapstack-labs/treegrid/internal/cli/config"
	intconfig "github.com/leapstack-labs/treegrid/internal/config"
	"github.com/leapstack-labs/treegrid/internal/loader"
	"github.com/leapstack-labs/treegrid/internal/state"
)

// generateSchemaDocs generates the configuration reference.
func generateSchemaDocs(outDir string) error {
	log.Printf("Generating schema docs to %s", outDir)

	// Create output directory
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "project", "store", "seed", "ui"
}

// getConfigSchema mirrors internal/cli/config.Config.
func getConfigSchema() []ConfigField {
	keys := loader.DefaultKeys()
	return []ConfigField{
		{Name: "page_size", Type: "int", Default: strconv.Itoa(intconfig.DefaultPageSize), Description: "Records per page", Category: "project"},
		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json", Category: "project"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Debug logging on stderr", Category: "project"},
		{Name: "policy.script", Type: "string", Description: "Starlark script defining can_drop(candidate, target)", Category: "project"},

		{Name: "type", Type: "string", Default: intconfig.DefaultStoreType, Description: "Store type: memory, sqlite, postgres", Category: "store"},
		{Name: "path", Type: "string", Default: state.DefaultSQLitePath, Description: "SQLite database file, or :memory:", Category: "store"},
		{Name: "host", Type: "string", Default: "localhost", Description: "PostgreSQL host", Category: "store"},
		{Name: "port", Type: "int", Default: "5432", Description: "PostgreSQL port", Category: "store"},
		{Name: "user", Type: "string", Description: "PostgreSQL user", Category: "store"},
		{Name: "password", Type: "string", Description: "PostgreSQL password", Category: "store"},
		{Name: "database", Type: "string", Description: "PostgreSQL database (required for postgres)", Category: "store"},
		{Name: "options", Type: "map[string]string", Description: "Additional connection parameters", Category: "store"},

		{Name: "path", Type: "string", Default: intconfig.DefaultSeedFile, Description: "YAML or JSON seed file", Category: "seed"},
		{Name: "id_key", Type: "string", Default: keys.ID, Description: "Field holding the record ID", Category: "seed"},
		{Name: "parent_key", Type: "string", Default: keys.Parent, Description: "Field holding the parent ID", Category: "seed"},
		{Name: "container_key", Type: "string", Default: keys.Container, Description: "Field marking a container", Category: "seed"},

		{Name: "port", Type: "int", Default: strconv.Itoa(config.DefaultPort), Description: "HTTP port for the web grid", Category: "ui"},
		{Name: "watch", Type: "bool", Default: "false", Description: "Reload when the seed file changes", Category: "ui"},
		{Name: "dev", Type: "bool", Default: "false", Description: "Enable browser hot reload", Category: "ui"},
		{Name: "session_secret", Type: "string", Description: "Cookie signing key", Category: "ui"},
		{Name: "shutdown_timeout", Type: "duration", Default: config.DefaultShutdownTimeout.String(), Description: "Graceful shutdown limit", Category: "ui"},
	}
}

func fieldRows(fields []ConfigField, category string) [][]string {
	var rows [][]string
	for _, f := range fields {
		if f.Category != category {
			continue
		}
		defVal := "-"
		if f.Default != "" {
			defVal = InlineCode(f.Default)
		}
		rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
	}
	return rows
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "treegrid configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("treegrid is configured via `treegrid.yaml` in your project root. Environment variables override the file and flags override both.")

	fields := getConfigSchema()
	headers := []string{"Field", "Type", "Default", "Description"}

	w.Header(2, "Project Settings")
	w.Table(headers, fieldRows(fields, "project"))

	w.Header(2, "Store")
	w.Paragraph("Records and the move history live in the store named by `store.type`.")
	w.Table(headers, fieldRows(fields, "store"))

	w.Header(3, "PostgreSQL Example")
	w.CodeBlock("yaml", `store:
  type: postgres
  host: localhost
  user: treegrid
  password: ${POSTGRES_PASSWORD}
  database: org`)

	w.Header(2, "Seed")
	w.Paragraph("The seed file is imported when the store is empty and on every reload.")
	w.Table(headers, fieldRows(fields, "seed"))

	w.Header(2, "Web Grid")
	w.Paragraph("Settings for `treegrid serve`, under the `ui` key.")
	w.Table(headers, fieldRows(fields, "ui"))

	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", fmt.Sprintf(`# treegrid.yaml
store:
  type: sqlite
  path: %s

seed:
  path: people.yaml
  id_key: employeeId
  parent_key: managerId
  container_key: isManager

policy:
  script: policy.star

page_size: 25

ui:
  port: %d
  watch: true
  shutdown_timeout: %s`, state.DefaultSQLitePath, config.DefaultPort, 10*time.Second))

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
