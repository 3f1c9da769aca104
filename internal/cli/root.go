// Package cli provides the command-line interface for treegrid.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/treegrid/internal/cli/commands"
	"github.com/leapstack-labs/treegrid/internal/cli/config"
	"github.com/leapstack-labs/treegrid/internal/cli/output"
	"github.com/leapstack-labs/treegrid/internal/state"
	"github.com/spf13/cobra"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treegrid",
		Short: "treegrid - paged tree data source with drag and drop",
		Long: `treegrid serves a forest of records (an org chart, say) one page at a time,
expands containers on demand and moves records between containers by drag
and drop.

Records come from a YAML or JSON seed file and live in a memory, SQLite or
PostgreSQL store. Every committed move is recorded.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg.Verbose)
			cmd.SetContext(context.WithValue(cmd.Context(), config.LoggerKey(), logger))

			if configFile := config.GetConfigFileUsed(); configFile != "" {
				logger.Debug("using config file", "path", configFile)
			}
			logger.Debug("configuration loaded",
				"store", cfg.Store.Type,
				"seed", cfg.Seed.Path,
				"policy", cfg.Policy.Script,
				"page_size", cfg.PageSize)

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./treegrid.yaml)")
	rootCmd.PersistentFlags().String("store", "", "Store type (memory|sqlite|postgres)")
	rootCmd.PersistentFlags().String("store-path", "", "SQLite database path (:memory: for in-memory)")
	rootCmd.PersistentFlags().String("seed", "", "Seed file (YAML or JSON)")
	rootCmd.PersistentFlags().String("policy", "", "Starlark drop policy script")
	rootCmd.PersistentFlags().Int("page-size", 0, "Records per page")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	// Register completion for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return output.ValidModes(), cobra.ShellCompDirectiveNoFileComp
	})

	// Register completion for store flag
	_ = rootCmd.RegisterFlagCompletionFunc("store", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return state.ListStores(), cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddGroup(commands.Groups()...)
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewTreeCommand())
	rootCmd.AddCommand(commands.NewCanDragCommand())
	rootCmd.AddCommand(commands.NewCanDropCommand())
	rootCmd.AddCommand(commands.NewMoveCommand())
	rootCmd.AddCommand(commands.NewHistoryCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewShellCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newLogger writes text logs to stderr; --verbose enables debug level.
func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// NewCompletionCommand creates the completion command.
func NewCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for treegrid.

To load completions:

Bash:
  $ source <(treegrid completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ treegrid completion bash > /etc/bash_completion.d/treegrid
  # macOS:
  $ treegrid completion bash > $(brew --prefix)/etc/bash_completion.d/treegrid

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ treegrid completion zsh > "${fpath[1]}/_treegrid"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ treegrid completion fish | source

  # To load completions for each session, execute once:
  $ treegrid completion fish > ~/.config/fish/completions/treegrid.fish

PowerShell:
  PS> treegrid completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> treegrid completion powershell > treegrid.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
	return cmd
}
