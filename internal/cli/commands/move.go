package commands

import (
	"fmt"

	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/spf13/cobra"
)

// NewMoveCommand creates the move command.
func NewMoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "move <candidate> <parent>",
		Short: "Reparent a record under a container",
		Long: `Move a record under a new parent container. The change is written to the
configured store and recorded in the move history.

Moving a record onto its current parent changes nothing and is reported as
such; it is not an error.`,
		Example: `  # Move employee 5 under manager 4
  treegrid move 5 4`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMove(cmd, core.RecordID(args[0]), core.RecordID(args[1]))
		},
		GroupID: GroupMutate,
		Annotations: map[string]string{
			AnnotationExit: "0 when the record is already under parent. Nothing is written and JSON output is {\"noop\":true}. 1 when the drop is refused.",
		},
	}
}

func runMove(cmd *cobra.Command, candidate, parent core.RecordID) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	ev, err := cmdCtx.Engine.Move(cmd.Context(), candidate, parent)
	if core.IsNoOp(err) {
		if r.EffectiveMode() == output.ModeJSON {
			return r.JSON(map[string]bool{"noop": true})
		}
		r.Println(fmt.Sprintf("%s is already under %s", candidate, parent))
		return nil
	}
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(ev)
	}
	from := string(ev.OldParentID)
	if from == "" {
		from = "(root)"
	}
	r.Success(fmt.Sprintf("Moved %s from %s to %s", candidate, from, parent))
	return nil
}
