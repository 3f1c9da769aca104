package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/internal/engine"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/spf13/cobra"
)

const shellPrompt = "treegrid> "

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Explore and rearrange the tree interactively",
		Long: `Start an interactive shell over the data source. The shell keeps its own
expansion state and a picked-up record between commands.

Type .help inside the shell for the command list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runShell(cmd)
		},
		GroupID: GroupInteractive,
	}
}

func runShell(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sh := newShell(cmd.Context(), cmdCtx.Engine, cmdCtx.Renderer, cmd.ErrOrStderr(), cmdCtx.Cfg.PageSize)

	// Setup history file (project-local)
	historyFile := ""
	if root := cmdCtx.Cfg.ProjectRoot; root != "" {
		dir := filepath.Join(root, ".treegrid")
		if err := os.MkdirAll(dir, 0750); err == nil {
			historyFile = filepath.Join(dir, "shell_history")
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    sh.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "treegrid shell (%d records, %s store)\n", cmdCtx.Engine.Source().Len(), cmdCtx.Cfg.Store.Type)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if sh.exec(line) {
			break
		}
		if sh.dragging != "" {
			rl.SetPrompt(fmt.Sprintf("treegrid [%s]> ", sh.dragging))
		} else {
			rl.SetPrompt(shellPrompt)
		}
	}
	return nil
}

// shell is the state of one interactive session.
type shell struct {
	ctx      context.Context
	eng      *engine.Engine
	r        *output.Renderer
	errOut   io.Writer
	pageSize int

	expanded core.ExpansionSet
	page     int
	dragging core.RecordID
}

func newShell(ctx context.Context, eng *engine.Engine, r *output.Renderer, errOut io.Writer, pageSize int) *shell {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &shell{
		ctx:      ctx,
		eng:      eng,
		r:        r,
		errOut:   errOut,
		pageSize: pageSize,
		expanded: core.NewExpansionSet(),
	}
}

// exec runs one input line and reports whether the shell should exit.
func (s *shell) exec(line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	command, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch command {
	case ".quit", ".exit":
		return true
	case ".help", "help":
		printShellHelp(s.r.Writer())
	case ".clear":
		s.r.Printf("\033[H\033[2J")
	case "ls":
		err = s.list(args)
	case "tree":
		err = s.tree(args)
	case "expand", "collapse":
		err = s.toggle(command == "expand", args)
	case "drag":
		err = s.drag(args)
	case "drop":
		err = s.drop(args)
	case "move":
		if len(args) != 2 {
			err = errors.New("usage: move <id> <parent>")
			break
		}
		err = s.move(core.RecordID(args[0]), core.RecordID(args[1]))
	case "find":
		err = s.find(strings.Join(args, " "))
	case "history":
		err = s.history(args)
	default:
		err = fmt.Errorf("unknown command: %s (type .help for commands)", command)
	}

	if err != nil {
		_, _ = fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
	return false
}

func pageArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, nil
	}
	n, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("page must be a number, got %q", args[i])
	}
	return n, nil
}

func (s *shell) list(args []string) error {
	var parent core.RecordID
	if len(args) > 0 {
		parent = core.RecordID(args[0])
	}
	page, err := pageArg(args, 1)
	if err != nil {
		return err
	}

	res, err := s.eng.Source().FetchPage(core.PageRequest{ParentID: parent, PageIndex: page, PageSize: s.pageSize})
	if err != nil {
		return err
	}
	s.printRecords(res.Items)
	s.r.Println(fmt.Sprintf("Page %d of %d (%d total)", page+1, max(res.PageCount(s.pageSize), 1), res.TotalCount))
	return nil
}

func (s *shell) tree(args []string) error {
	if len(args) > 0 {
		page, err := pageArg(args, 0)
		if err != nil {
			return err
		}
		s.page = page
	}

	rows, total, err := s.eng.Source().VisibleRows(s.expanded, core.PageRequest{PageIndex: s.page, PageSize: s.pageSize})
	if err != nil {
		return err
	}
	for _, row := range rows {
		line := textRow(s.r.Styles(), row)
		if row.Record.ID == s.dragging {
			line += " [dragging]"
		}
		s.r.Println(line)
	}
	if len(rows) == 0 {
		s.r.Println("(no records)")
	}
	s.r.Println(fmt.Sprintf("Page %d of %d", s.page+1, max(core.PageResult{TotalCount: total}.PageCount(s.pageSize), 1)))
	return nil
}

func (s *shell) toggle(expand bool, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: expand|collapse <id>")
	}
	for _, arg := range args {
		id := core.RecordID(arg)
		if _, err := s.eng.Source().Get(id); err != nil {
			return err
		}
		if expand {
			s.expanded.Expand(id)
		} else {
			s.expanded.Collapse(id)
		}
	}
	return s.tree(nil)
}

func (s *shell) drag(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: drag <id>")
	}
	id := core.RecordID(args[0])
	ok, err := s.eng.Source().CanDrag(id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s is a container and cannot be dragged", id)
	}
	s.dragging = id
	s.r.Println(fmt.Sprintf("Picked up %s; use drop <target>", id))
	return nil
}

func (s *shell) drop(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: drop <target>")
	}
	if s.dragging == "" {
		return errors.New("nothing picked up (use drag <id> first)")
	}
	target := core.RecordID(args[0])
	ok, err := s.eng.Source().CanDrop(s.dragging, target)
	if err != nil {
		return err
	}
	if !ok {
		if rec, _ := s.eng.Source().Get(s.dragging); rec.ParentID == target {
			s.r.Println(fmt.Sprintf("%s is already under %s", s.dragging, target))
			s.dragging = ""
			return nil
		}
		return fmt.Errorf("%s cannot be dropped onto %s", s.dragging, target)
	}
	if err := s.move(s.dragging, target); err != nil {
		return err
	}
	s.dragging = ""
	return nil
}

func (s *shell) move(id, parent core.RecordID) error {
	_, err := s.eng.Move(s.ctx, id, parent)
	if core.IsNoOp(err) {
		s.r.Println(fmt.Sprintf("%s is already under %s", id, parent))
		return nil
	}
	if err != nil {
		return err
	}
	s.r.Success(fmt.Sprintf("Moved %s to %s", id, parent))
	return nil
}

func (s *shell) find(text string) error {
	if text == "" {
		return errors.New("usage: find <text>")
	}
	matches := filterRecords(s.eng.Source().All(), text)
	if len(matches) == 0 {
		s.r.Println("(no matches)")
		return nil
	}
	s.printRecords(matches)
	return nil
}

func (s *shell) history(args []string) error {
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("limit must be a number, got %q", args[0])
		}
		limit = n
	}
	moves, err := s.eng.History(s.ctx, limit)
	if err != nil {
		return err
	}
	if len(moves) == 0 {
		s.r.Println("(no moves)")
		return nil
	}
	for _, ev := range moves {
		from := string(ev.OldParentID)
		if from == "" {
			from = "(root)"
		}
		s.r.Println(fmt.Sprintf("%s  %s: %s -> %s", ev.MovedAt.Local().Format("15:04:05"), ev.RecordID, from, ev.NewParentID))
	}
	return nil
}

func (s *shell) printRecords(records []core.Record) {
	if len(records) == 0 {
		s.r.Println("(no records)")
		return
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{string(rec.ID), rec.Label(), containerMark(rec), string(rec.ParentID)}
	}
	s.r.Table([]string{"ID", "Name", "Container", "Parent"}, rows)
}

// completer completes shell commands and record IDs.
func (s *shell) completer() *readline.PrefixCompleter {
	ids := func(string) []string {
		records := s.eng.Source().All()
		out := make([]string, len(records))
		for i, rec := range records {
			out[i] = string(rec.ID)
		}
		return out
	}
	id := func() readline.PrefixCompleterInterface { return readline.PcItemDynamic(ids) }

	return readline.NewPrefixCompleter(
		readline.PcItem("ls", id()),
		readline.PcItem("tree"),
		readline.PcItem("expand", id()),
		readline.PcItem("collapse", id()),
		readline.PcItem("drag", id()),
		readline.PcItem("drop", id()),
		readline.PcItem("move", readline.PcItemDynamic(ids, readline.PcItemDynamic(ids))),
		readline.PcItem("find"),
		readline.PcItem("history"),
		readline.PcItem(".help"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  ls [parent] [page]   List one page of children (roots without a parent)
  tree [page]          Show visible rows for the current expansion state
  expand <id>...       Expand containers
  collapse <id>...     Collapse containers
  drag <id>            Pick up a record
  drop <target>        Drop the picked-up record onto a container
  move <id> <parent>   Move a record directly
  find <text>          Search all records by name or ID
  history [n]          Show the last n moves
  .clear               Clear the screen
  .help                Show this help message
  .quit / .exit        Exit the shell

Tips:
  - Tab completion works for commands and record IDs
  - Use arrow keys to navigate history
`
	_, _ = fmt.Fprintln(w, help)
}
