package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/listgraph/listgraph/internal/web"
	"github.com/listgraph/listgraph/pkg/config"
	"github.com/listgraph/listgraph/pkg/session"
)

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	configPath string
	addr       string
	outputDir  string
	redisAddr  string
}

// serveCommand creates the serve command for the web front end.
func (c *CLI) serveCommand() *cobra.Command {
	var opts serveOpts

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web form for generating diagrams in the browser",
		Long: `Start an HTTP server with a form that accepts a Graph API token and a
SharePoint site id, generates the schema diagram, and serves the result.

Settings come from an optional TOML config file; flags override it. With a
Redis address configured, sessions are shared across instances; otherwise an
in-memory session store is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to TOML config file")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address (default :8080)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "directory for generated diagrams (default diagrams)")
	cmd.Flags().StringVar(&opts.redisAddr, "redis", "", "redis address for shared sessions (default in-memory)")

	return cmd
}

// runServe loads config, picks a session backend, and blocks on the server.
func (c *CLI) runServe(ctx context.Context, opts serveOpts) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.outputDir != "" {
		cfg.Server.OutputDir = opts.outputDir
	}
	if opts.redisAddr != "" {
		cfg.Redis.Addr = opts.redisAddr
	}

	var store session.Store
	if cfg.Redis.Addr != "" {
		rs, err := session.NewRedisStore(ctx, cfg.Redis.Addr)
		if err != nil {
			return err
		}
		defer rs.Close()
		store = rs
		c.Logger.Info("using redis session store", "addr", cfg.Redis.Addr)
	} else {
		store = session.NewMemoryStore()
	}

	srv, err := web.NewServer(cfg, store, c.Logger)
	if err != nil {
		return err
	}

	printInfo("Serving listgraph web form")
	printLink("http://localhost" + cfg.Server.Addr)

	return srv.ListenAndServe(ctx)
}
