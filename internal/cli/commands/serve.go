package commands

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/leapstack-labs/treegrid/internal/cli/config"
	"github.com/leapstack-labs/treegrid/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	Watch     bool
	Dev       bool
	NoBrowser bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Serve the tree grid in the browser",
		Long: `Start a local web server with the tree grid and its JSON API.

The grid pages through root records, expands containers and moves records
by drag and drop. Every browser keeps its own expansion state; committed
moves are pushed to all open pages.

With --watch the seed file is reloaded whenever it changes.`,
		Example: `  # Start on the default port
  treegrid serve

  # Start on a custom port without watching the seed file
  treegrid serve --port 3000 --watch=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
		GroupID: GroupInteractive,
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, fmt.Sprintf("Port to serve on (default: %d)", config.DefaultPort))
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Reload the seed file when it changes")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Enable the /reload and /hotreload dev endpoints")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't open a browser")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer cleanup()

	// Get UI config with defaults; CLI flags override config file
	uiCfg := cmdCtx.Cfg.GetUIConfig()
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}
	dev := uiCfg.Dev || opts.Dev

	server := ui.NewServer(ui.Config{
		Engine:          cmdCtx.Engine,
		Port:            port,
		Watch:           watch,
		Dev:             dev,
		SessionSecret:   sessionSecret(uiCfg.SessionSecret),
		PageSize:        cmdCtx.Cfg.PageSize,
		ShutdownTimeout: uiCfg.ShutdownTimeout,
		Logger:          cmdCtx.Logger,
	})

	url := fmt.Sprintf("http://localhost:%d", port)
	if !opts.NoBrowser {
		go openBrowser(url)
	}

	cmdCtx.Renderer.Println(fmt.Sprintf("Serving %d records on %s", cmdCtx.Engine.Source().Len(), url))
	cmdCtx.Renderer.Println("Press Ctrl+C to stop")

	return server.Serve(cmd.Context())
}

// sessionSecret prefers TREEGRID_SESSION_SECRET over the configured value.
func sessionSecret(configured string) string {
	if secret := os.Getenv("TREEGRID_SESSION_SECRET"); secret != "" {
		return secret
	}
	return configured
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
