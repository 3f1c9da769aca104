package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/treegrid/internal/cli"
	"github.com/leapstack-labs/treegrid/internal/cli/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// section is one heading of the CLI reference.
type section struct {
	title    string
	commands []*cobra.Command
}

// generateCLIDocs writes index.md and one page per command.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	sections := commandSections(root)

	if err := os.WriteFile(filepath.Join(outDir, "index.md"), cliIndex(root, sections), 0600); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	log.Printf("  Generated index.md")

	for _, sec := range sections {
		for _, cmd := range sec.commands {
			name := cmd.Name() + ".md"
			if err := os.WriteFile(filepath.Join(outDir, name), commandPage(cmd, sec.title), 0600); err != nil {
				return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
			}
			log.Printf("  Generated %s", name)
		}
	}
	return nil
}

// commandSections buckets the documented subcommands of root by cobra group
// in the order the groups were added. Ungrouped commands come last.
func commandSections(root *cobra.Command) []section {
	index := make(map[string]int, len(root.Groups()))
	sections := make([]section, 0, len(root.Groups())+1)
	for _, g := range root.Groups() {
		index[g.ID] = len(sections)
		sections = append(sections, section{title: strings.TrimSuffix(g.Title, ":")})
	}

	other := section{title: "Other Commands"}
	for _, cmd := range root.Commands() {
		if cmd.Hidden || cmd.Name() == "help" || cmd.Name() == "__complete" {
			continue
		}
		if i, ok := index[cmd.GroupID]; ok {
			sections[i].commands = append(sections[i].commands, cmd)
		} else {
			other.commands = append(other.commands, cmd)
		}
	}
	if len(other.commands) > 0 {
		sections = append(sections, other)
	}
	return sections
}

func cliIndex(root *cobra.Command, sections []section) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for treegrid")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "treegrid [global options] <command> [arguments]")

	for _, sec := range sections {
		w.Header(2, sec.title)
		var rows [][]string
		for _, cmd := range sec.commands {
			link := fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name())
			rows = append(rows, []string{link, arguments(cmd), cleanDescription(cmd.Short)})
		}
		w.Table([]string{"Command", "Arguments", "Description"}, rows)
	}

	w.Header(2, "Exit Status")
	w.Paragraph("Commands exit 0 on success and 1 on error, with the error on stderr. These commands differ:")
	var exitRows [][]string
	for _, sec := range sections {
		for _, cmd := range sec.commands {
			if exit := cmd.Annotations[commands.AnnotationExit]; exit != "" {
				exitRows = append(exitRows, []string{InlineCode(cmd.Name()), cleanDescription(exit)})
			}
		}
	}
	w.Table([]string{"Command", "Exit status"}, exitRows)

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Environment Variables")
	w.Paragraph("Flags override environment variables, which override `treegrid.yaml`.")
	var envRows [][]string
	for _, f := range getConfigSchema() {
		if strings.HasPrefix(f.Type, "map") {
			continue
		}
		envRows = append(envRows, []string{InlineCode(envVar(f)), f.Description})
	}
	w.Table([]string{"Variable", "Description"}, envRows)

	return w.Bytes()
}

// envVar names the environment override of a config field. Nested keys
// are joined with a double underscore.
func envVar(f ConfigField) string {
	key := f.Name
	if f.Category != "project" {
		key = f.Category + "." + key
	}
	return "TREEGRID_" + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// arguments returns the positional part of a command's Use line.
func arguments(cmd *cobra.Command) string {
	args := strings.TrimSpace(strings.TrimPrefix(cmd.Use, cmd.Name()))
	if args == "" {
		return "-"
	}
	return InlineCode(args)
}

func commandPage(cmd *cobra.Command, sectionTitle string) []byte {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	w.Paragraph(fmt.Sprintf("*%s*", sectionTitle))
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())
	if len(cmd.Aliases) > 0 {
		aliases := make([]string, len(cmd.Aliases))
		for i, a := range cmd.Aliases {
			aliases[i] = InlineCode(a)
		}
		w.Paragraph("Also available as " + strings.Join(aliases, ", ") + ".")
	}

	if exit := cmd.Annotations[commands.AnnotationExit]; exit != "" {
		w.Header(2, "Exit Status")
		w.Paragraph(exit)
	}

	if cmd.HasAvailableLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasAvailableInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}

	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	return w.Bytes()
}

func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			name = InlineCode("-"+f.Shorthand) + ", " + name
		}
		def := "-"
		if f.DefValue != "" && f.DefValue != "[]" {
			def = InlineCode(f.DefValue)
		}
		rows = append(rows, []string{name, def, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Flag", "Default", "Description"}, rows)
}

// dedent strips the two-space indent cobra examples are written with.
func dedent(example string) string {
	lines := strings.Split(strings.Trim(example, "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimPrefix(line, "  ")
	}
	return strings.Join(lines, "\n")
}
