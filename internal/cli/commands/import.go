package commands

import (
	"fmt"

	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the stored records with a seed file",
		Long: `Load a YAML or JSON seed file into the configured store, replacing every
stored record and clearing the move history. The file is validated first
(unique IDs, container parents, no cycles); an invalid file changes nothing.`,
		Example: `  # Import into a SQLite store
  treegrid import people.yaml --store sqlite --store-path .treegrid/treegrid.db`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			n, err := cmdCtx.Engine.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				return r.JSON(map[string]any{"file": args[0], "records": n, "store": cmdCtx.Cfg.Store.Type})
			}
			r.Success(fmt.Sprintf("Imported %d records from %s into the %s store", n, args[0], cmdCtx.Cfg.Store.Type))
			return nil
		},
		GroupID: GroupMutate,
		Annotations: map[string]string{
			AnnotationExit: "1 when the file fails validation. The store is left unchanged.",
		},
	}
}
