package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/itemdb"
	"github.com/matzehuels/craftree/pkg/pipeline"
	"github.com/matzehuels/craftree/pkg/recipe"
	"github.com/matzehuels/craftree/pkg/remote"
)

// sourceFlags selects where items and recipes come from: a local item
// database or a running craftree server.
type sourceFlags struct {
	db     string
	remote string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.db, "db", "", "item database (default from config)")
	cmd.Flags().StringVar(&f.remote, "remote", "", "craftree server URL to query instead of a database")
	cmd.MarkFlagsMutuallyExclusive("db", "remote")
}

// itemSource is what the commands need from a database or server.
type itemSource interface {
	pipeline.Source
	Search(ctx context.Context, query string, limit int) ([]itemdb.Entry, error)
	// Scope namespaces cache keys of this source.
	Scope() string
	Close() error
}

// openSource opens the configured source.
func (c *CLI) openSource(ctx context.Context, f sourceFlags) (itemSource, error) {
	if f.remote != "" {
		ch, err := c.newCache(ctx, false)
		if err != nil {
			return nil, err
		}
		client, err := remote.NewClient(f.remote, ch, nil)
		if err != nil {
			ch.Close()
			return nil, err
		}
		c.Logger.Debug("using remote source", "url", f.remote)
		return remoteSource{client: client, url: f.remote, closer: ch}, nil
	}

	path := f.db
	if path == "" {
		path = c.Config.Server.DB
	}
	db, err := itemdb.Open(path)
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("opened item database", "path", path)
	return dbSource{db}, nil
}

type dbSource struct{ *itemdb.DB }

func (s dbSource) Search(ctx context.Context, query string, limit int) ([]itemdb.Entry, error) {
	return s.SearchItems(ctx, query, limit)
}

func (s dbSource) Scope() string { return s.Path() }

type remoteSource struct {
	client *remote.Client
	url    string
	closer io.Closer
}

func (s remoteSource) Recipe(ctx context.Context, item int) ([]recipe.Row, error) {
	return s.client.Recipe(ctx, item)
}

// Search returns the server's matches; the server applies its own limit.
func (s remoteSource) Search(ctx context.Context, query string, limit int) ([]itemdb.Entry, error) {
	entries, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s remoteSource) Scope() string { return s.url }
func (s remoteSource) Close() error  { return s.closer.Close() }

// parseItemID parses a positional item id argument.
func parseItemID(arg string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return 0, apperrors.New(apperrors.ErrCodeInvalidInput, "item id must be an integer, got %q", arg)
	}
	if err := apperrors.ValidateItemID(id); err != nil {
		return 0, err
	}
	return id, nil
}

// recipeCommand prints the recipe rows of an item.
func (c *CLI) recipeCommand() *cobra.Command {
	var (
		src    sourceFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "recipe [item-id]",
		Short: "Print the recipe rows of an item",
		Long: `Print the recipe rows of an item as JSON.

Each row is [id, "label", parent]; the item itself has parent -1. Every item
is expanded once, so ingredients that appear again are leaves. Base items
have no recipe and yield a single row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			return c.runRecipe(cmd.Context(), cmd.OutOrStdout(), src, id, output)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

func (c *CLI) runRecipe(ctx context.Context, stdout io.Writer, f sourceFlags, id int, output string) error {
	s, err := c.openSource(ctx, f)
	if err != nil {
		return err
	}
	defer s.Close()

	rows, err := s.Recipe(ctx, id)
	if err != nil {
		return err
	}
	c.Logger.Debug("fetched recipe", "item", id, "rows", len(rows))

	if output == "" || output == "-" {
		return recipe.WriteRows(stdout, rows)
	}
	var buf strings.Builder
	if err := recipe.WriteRows(&buf, rows); err != nil {
		return err
	}
	if err := writeFile(output, []byte(buf.String())); err != nil {
		return err
	}
	printSuccess("Wrote %d rows", len(rows))
	printFile(output)
	printNextStep("Lay out", appName+" layout "+output)
	return nil
}

// searchCommand lists items whose name contains the query.
func (c *CLI) searchCommand() *cobra.Command {
	var (
		src   sourceFlags
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Find items by name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = c.Config.Server.SearchLimit
			}
			return c.runSearch(cmd.Context(), cmd.OutOrStdout(), src, strings.Join(args, " "), limit)
		},
	}

	src.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of results")

	return cmd
}

func (c *CLI) runSearch(ctx context.Context, stdout io.Writer, f sourceFlags, query string, limit int) error {
	if err := apperrors.ValidateItemQuery(query); err != nil {
		return err
	}
	if limit <= 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput, "limit must be positive, got %d", limit)
	}
	s, err := c.openSource(ctx, f)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.Search(ctx, query, limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printInfo("No items match %q", query)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%d\t%s\n", e.ID, e.Label)
	}
	return nil
}
