package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/leapstack-labs/treegrid/internal/tui/browser"
	"github.com/spf13/cobra"
)

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse and rearrange the tree in the terminal",
		Long: `Open a full-screen tree browser. Move with the arrow keys, expand and
collapse containers, pick up a record with d and drop it onto a container
with p. Press ? for all keys.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			m := browser.New(cmd.Context(), cmdCtx.Engine.Source(), cmdCtx.Engine.Move, cmdCtx.Cfg.PageSize)
			p := tea.NewProgram(m,
				tea.WithAltScreen(),
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
		GroupID: GroupInteractive,
	}
}
