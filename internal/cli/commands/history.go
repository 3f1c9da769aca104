package commands

import (
	"time"

	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show committed moves, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			moves, err := cmdCtx.Engine.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if moves == nil {
				moves = []core.MoveEvent{}
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(moves)
			}

			r.Header(1, "Move history")
			if len(moves) == 0 {
				r.Println("(no moves)")
				return nil
			}
			rows := make([][]string, len(moves))
			for i, ev := range moves {
				from := string(ev.OldParentID)
				if from == "" {
					from = "(root)"
				}
				rows[i] = []string{ev.MovedAt.Local().Format(time.DateTime), string(ev.RecordID), from, string(ev.NewParentID)}
			}
			r.Table([]string{"When", "Record", "From", "To"}, rows)
			return nil
		},
		GroupID: GroupRead,
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of moves to show (0 for all)")
	return cmd
}
