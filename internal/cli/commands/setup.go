package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/treegrid/internal/cli/config"
	"github.com/leapstack-labs/treegrid/internal/cli/output"
	intconfig "github.com/leapstack-labs/treegrid/internal/config"
	"github.com/leapstack-labs/treegrid/internal/engine"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	eng, err := createEngine(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cleanup := func() {
		_ = eng.Close()
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Engine:   eng,
		Renderer: r,
	}, cleanup, nil
}

// getConfig returns the current configuration, or defaults when none was
// loaded (commands built outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	project := intconfig.ProjectConfig{}
	intconfig.ApplyDefaults(&project)
	return &config.Config{
		Store:        project.Store,
		PageSize:     project.PageSize,
		OutputFormat: config.DefaultOutput,
	}
}

func createEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	store := intconfig.StoreConfig{}
	if cfg.Store != nil {
		store = *cfg.Store
	}
	return engine.New(ctx, engine.Config{
		Store:        store,
		SeedPath:     cfg.Seed.Path,
		SeedKeys:     cfg.Seed.Keys(),
		PolicyScript: cfg.Policy.Script,
		Logger:       logger,
	})
}
