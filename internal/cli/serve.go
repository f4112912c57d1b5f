package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/craftree/internal/config"
	"github.com/matzehuels/craftree/internal/server"
	"github.com/matzehuels/craftree/pkg/itemdb"
)

// serveCommand runs the HTTP API over an item database.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		db        string
		staticDir string
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the item database and recipe diagrams over HTTP",
		Long: `Serve the item database and recipe diagrams over HTTP.

The API lists and searches items, returns recipe rows, and lays out and
renders recipe diagrams on demand. Prometheus metrics are exposed on
/metrics. With --static, the directory's index.html and assets/ are served
as the web frontend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.Config.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("db") {
				cfg.DB = db
			}
			if cmd.Flags().Changed("static") {
				cfg.StaticDir = staticDir
			}
			return c.runServe(cmd.Context(), cfg, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", c.Config.Server.Addr, "listen address")
	cmd.Flags().StringVar(&db, "db", c.Config.Server.DB, "item database")
	cmd.Flags().StringVar(&staticDir, "static", "", "directory with the web frontend")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg config.Server, noCache bool) error {
	db, err := itemdb.Open(cfg.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	runner, err := c.newRunner(ctx, noCache, db.Path())
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	srv, err := server.New(ctx, db, runner, cfg, c.Config.PipelineOptions(), c.Logger)
	if err != nil {
		return err
	}
	srv.InstallHooks()

	printSuccess("Serving %s", cfg.DB)
	printKeyValue("address", "http://"+cfg.Addr)
	printKeyValue("metrics", "http://"+cfg.Addr+"/metrics")
	if cfg.StaticDir != "" {
		printKeyValue("frontend", cfg.StaticDir)
	}

	return srv.Run(ctx)
}
