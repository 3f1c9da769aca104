package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/spf13/cobra"
)

// TreeOptions holds options for the tree command.
type TreeOptions struct {
	Expand    []string
	ExpandAll bool
	Page      int
	Size      int
}

type treeOutput struct {
	Page       int             `json:"page"`
	Size       int             `json:"size"`
	TotalCount int             `json:"totalCount"`
	Expanded   []core.RecordID `json:"expanded"`
	Rows       []core.Row      `json:"rows"`
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the visible rows of the tree",
		Long: `Show one page of root records with the children of expanded containers
nested beneath them. Paging applies to the root records only.`,
		Example: `  # Roots only
  treegrid tree

  # Expand two managers
  treegrid tree --expand 1,4

  # Everything
  treegrid tree --expand-all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTree(cmd, opts)
		},
		GroupID: GroupRead,
	}

	cmd.Flags().StringSliceVar(&opts.Expand, "expand", nil, "Container IDs to expand (comma-separated)")
	cmd.Flags().BoolVar(&opts.ExpandAll, "expand-all", false, "Expand every container")
	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page index (0-based)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Page size (default: page_size from config)")

	return cmd
}

func runTree(cmd *cobra.Command, opts *TreeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	size := opts.Size
	if size == 0 {
		size = cmdCtx.Cfg.PageSize
	}

	src := cmdCtx.Engine.Source()
	expanded := expansionFor(src, opts.Expand, opts.ExpandAll)

	rows, total, err := src.VisibleRows(expanded, core.PageRequest{PageIndex: opts.Page, PageSize: size})
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(treeOutput{
			Page:       opts.Page,
			Size:       size,
			TotalCount: total,
			Expanded:   expanded.IDs(),
			Rows:       rows,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Tree"))
		r.Println("")
		for _, row := range rows {
			r.Println(strings.Repeat("  ", row.Depth) + "- " + markdownRow(row))
		}
	default:
		r.Header(1, "Tree")
		for _, row := range rows {
			r.Println(textRow(r.Styles(), row))
		}
	}

	if len(rows) == 0 {
		r.Println("(no records)")
	}
	r.Println("")
	r.Println(fmt.Sprintf("Page %d of %d (%d top-level)", opts.Page+1, max(core.PageResult{TotalCount: total}.PageCount(size), 1), total))
	return nil
}

// expansionFor builds the expansion set for the tree command.
func expansionFor(src *forest.Source, ids []string, all bool) core.ExpansionSet {
	set := core.NewExpansionSet()
	if all {
		for _, rec := range src.All() {
			if rec.IsContainer {
				set.Expand(rec.ID)
			}
		}
		return set
	}
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set.Expand(core.RecordID(id))
		}
	}
	return set
}

func rowGlyph(row core.Row) string {
	switch {
	case !row.Record.IsContainer:
		return "•"
	case row.Expanded:
		return "▾"
	default:
		return "▸"
	}
}

func markdownRow(row core.Row) string {
	s := fmt.Sprintf("%s **%s** (`%s`)", rowGlyph(row), row.Record.Label(), row.Record.ID)
	if row.Record.IsContainer && !row.Expanded && row.ChildCount > 0 {
		s += fmt.Sprintf(" [%d]", row.ChildCount)
	}
	return s
}

func textRow(s output.Styles, row core.Row) string {
	label := row.Record.Label()
	if row.Record.IsContainer {
		label = s.Container.Render(label)
	}
	line := fmt.Sprintf("%s%s %s %s", strings.Repeat("  ", row.Depth), rowGlyph(row), label, s.ID.Render("("+string(row.Record.ID)+")"))
	if row.Record.IsContainer && !row.Expanded && row.ChildCount > 0 {
		line += s.Muted.Render(fmt.Sprintf(" [%d]", row.ChildCount))
	}
	return line
}
