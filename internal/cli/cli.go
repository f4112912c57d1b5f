// Package cli implements the craftree command-line interface.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/craftree/internal/config"
	"github.com/matzehuels/craftree/pkg/buildinfo"
	"github.com/matzehuels/craftree/pkg/cache"
	"github.com/matzehuels/craftree/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for key prefixes and display.
	appName = "craftree"

	// redisPrefix namespaces craftree keys in a shared Redis.
	redisPrefix = appName + ":"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded by the root command before any subcommand runs.
	Config     config.Config
	configPath string
}

// New creates a new CLI instance with a default logger and the built-in
// configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "craftree draws crafting recipes as tidy trees",
		Long:         `craftree looks up how an item is crafted, lays the recipe out as a tidy tree of labeled boxes and renders it as SVG, PNG, PDF, DOT or JSON. It can also serve the item database and diagrams over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/craftree/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.recipeCommand())
	root.AddCommand(c.diagramCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if c.configPath != "" {
		c.Logger.Debug("loaded config", "path", c.configPath)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. A non-empty scope
// namespaces the cache keys, e.g. per item database.
func (c *CLI) newRunner(ctx context.Context, noCache bool, scope string) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if scope != "" {
		keyer = cache.NewScopedKeyer(nil, scope+":")
	}
	r := pipeline.NewRunner(ch, keyer, c.Logger)
	r.TTL = c.Config.Cache.TTL
	return r, nil
}

// newCache selects the backend configured in [cache]: Redis when a URL is
// set, otherwise the file cache. An unusable cache directory disables
// caching instead of failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.Config.Cache
	if noCache || cc.Disabled {
		return cache.NewNullCache(), nil
	}
	if cc.RedisURL != "" {
		return cache.NewRedisCache(ctx, cc.RedisURL, redisPrefix)
	}
	dir, err := c.cacheDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the configured cache directory or the XDG default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return config.CacheDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// addLayoutFlags binds the layout and label flags to opts, which must already
// hold the configured values so they show up as flag defaults.
func addLayoutFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.RowSpacing, "row-spacing", opts.RowSpacing, "vertical distance between row tops")
	cmd.Flags().Float64Var(&opts.ColumnSpacing, "column-spacing", opts.ColumnSpacing, "minimum gap between boxes on a row")
	cmd.Flags().Float64Var(&opts.FontSize, "font-size", opts.FontSize, "label font size")
	cmd.Flags().Float64Var(&opts.Padding, "padding", opts.Padding, "padding around label text")
}

// addRenderFlags binds the render flags to opts.
func addRenderFlags(cmd *cobra.Command, opts *pipeline.Options) {
	cmd.Flags().Float64Var(&opts.Margin, "margin", opts.Margin, "canvas margin around the diagram")
	cmd.Flags().Float64Var(&opts.CornerRadius, "corner-radius", opts.CornerRadius, "label box corner radius")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.Detailed, "detailed", false, "include item ids in DOT labels")
}

// flagOptions returns opts with every flag the user did not set taken from
// the loaded config. Empty formats fall back to the configured ones.
func (c *CLI) flagOptions(cmd *cobra.Command, opts pipeline.Options) pipeline.Options {
	base := c.Config.PipelineOptions()
	fs := cmd.Flags()
	keep := func(name string, dst *float64, v float64) {
		if !fs.Changed(name) {
			*dst = v
		}
	}
	keep("row-spacing", &opts.RowSpacing, base.RowSpacing)
	keep("column-spacing", &opts.ColumnSpacing, base.ColumnSpacing)
	keep("font-size", &opts.FontSize, base.FontSize)
	keep("padding", &opts.Padding, base.Padding)
	keep("margin", &opts.Margin, base.Margin)
	keep("corner-radius", &opts.CornerRadius, base.CornerRadius)
	keep("scale", &opts.Scale, base.Scale)
	if len(opts.Formats) == 0 {
		opts.Formats = base.Formats
	}
	opts.SetDefaults()
	return opts
}

// parseFormats parses a comma-separated format string into a slice.
// Empty entries are dropped; an empty string yields nil so the configured
// formats apply.
func parseFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
