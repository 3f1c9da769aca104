package commands

import (
	"fmt"

	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/spf13/cobra"
)

// NewCanDragCommand creates the can-drag command.
func NewCanDragCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "can-drag <id>",
		Short: "Check whether a record may be dragged",
		Long:  `Report whether a record may start a drag. Only leaf records can be dragged.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			id := core.RecordID(args[0])
			ok, err := cmdCtx.Engine.Source().CanDrag(id)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"id": id, "draggable": ok})
			}
			if ok {
				r.Success(fmt.Sprintf("%s can be dragged", id))
			} else {
				r.Println(fmt.Sprintf("%s cannot be dragged (containers stay in place)", id))
			}
			return nil
		},
		GroupID: GroupRead,
		Annotations: map[string]string{
			AnnotationExit: "0 whether or not the record is draggable. The answer is printed, or reported as draggable in JSON.",
		},
	}
}

// NewCanDropCommand creates the can-drop command.
func NewCanDropCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "can-drop <candidate> <target>",
		Short: "Check whether a record may be dropped onto a target",
		Long: `Report whether candidate may be dropped onto target. The target must be a
container other than the candidate's current parent, and the drop policy
(if configured) must allow it.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			candidate, target := core.RecordID(args[0]), core.RecordID(args[1])
			ok, err := cmdCtx.Engine.Source().CanDrop(candidate, target)
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"candidate": candidate, "target": target, "droppable": ok})
			}
			if ok {
				r.Success(fmt.Sprintf("%s can be dropped onto %s", candidate, target))
			} else {
				r.Println(fmt.Sprintf("%s cannot be dropped onto %s", candidate, target))
			}
			return nil
		},
		GroupID: GroupRead,
		Annotations: map[string]string{
			AnnotationExit: "0 whether or not the drop is allowed. The answer is printed, or reported as droppable in JSON.",
		},
	}
}
