package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/internal/forest"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
)

// ListOptions holds options for the ls command.
type ListOptions struct {
	Page  int
	Size  int
	Match string
}

// listOutput is the JSON shape of ls.
type listOutput struct {
	Parent     core.RecordID `json:"parent,omitempty"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	PageCount  int           `json:"pageCount"`
	TotalCount int           `json:"totalCount"`
	Items      []core.Record `json:"items"`
}

// NewListCommand creates the ls command.
func NewListCommand() *cobra.Command {
	opts := &ListOptions{}

	cmd := &cobra.Command{
		Use:     "ls [parent]",
		Aliases: []string{"list"},
		Short:   "List one page of records under a parent",
		Long: `List one page of the children of a record, or of the root records when no
parent is given. Pages are numbered from 0.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List the root records
  treegrid ls

  # Second page of a manager's reports
  treegrid ls 1 --page 1 --size 10

  # Filter the page by name
  treegrid ls --match alice`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var parent core.RecordID
			if len(args) == 1 {
				parent = core.RecordID(args[0])
			}
			return runList(cmd, parent, opts)
		},
		GroupID: GroupRead,
	}

	cmd.Flags().IntVar(&opts.Page, "page", 0, "Page index (0-based)")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "Page size (default: page_size from config)")
	cmd.Flags().StringVar(&opts.Match, "match", "", "Only show records whose name or ID contains this text (case-insensitive)")

	return cmd
}

func runList(cmd *cobra.Command, parent core.RecordID, opts *ListOptions) error {
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
	res, err := src.FetchPage(core.PageRequest{ParentID: parent, PageIndex: opts.Page, PageSize: size})
	if err != nil {
		return err
	}
	items := filterRecords(res.Items, opts.Match)

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(listOutput{
			Parent:     parent,
			Page:       opts.Page,
			Size:       size,
			PageCount:  res.PageCount(size),
			TotalCount: res.TotalCount,
			Items:      items,
		})
	}

	title := "Roots"
	if parent != core.NoParent {
		title = fmt.Sprintf("Children of %s", parent)
	}
	r.Header(1, title)

	if len(items) == 0 {
		r.Println("(no records)")
	} else {
		rows := make([][]string, len(items))
		for i, rec := range items {
			rows[i] = []string{string(rec.ID), rec.Label(), containerMark(rec), childCount(src, rec)}
		}
		r.Table([]string{"ID", "Name", "Container", "Children"}, rows)
	}

	r.Println(fmt.Sprintf("Page %d of %d (%d total)", opts.Page+1, max(res.PageCount(size), 1), res.TotalCount))
	return nil
}

// filterRecords keeps records whose label or ID contains match, ignoring
// case. An empty match keeps everything.
func filterRecords(records []core.Record, match string) []core.Record {
	if match == "" {
		return records
	}
	fold := cases.Fold()
	needle := fold.String(match)

	out := make([]core.Record, 0, len(records))
	for _, rec := range records {
		if strings.Contains(fold.String(rec.Label()), needle) || strings.Contains(fold.String(string(rec.ID)), needle) {
			out = append(out, rec)
		}
	}
	return out
}

func containerMark(rec core.Record) string {
	if rec.IsContainer {
		return "yes"
	}
	return ""
}

func childCount(src *forest.Source, rec core.Record) string {
	if !rec.IsContainer {
		return ""
	}
	res, err := src.FetchPage(core.PageRequest{ParentID: rec.ID, PageSize: 1})
	if err != nil {
		return "?"
	}
	return strconv.Itoa(res.TotalCount)
}
