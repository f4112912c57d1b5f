package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/craftree/pkg/pipeline"
	"github.com/matzehuels/craftree/pkg/render"
)

// diagramCommand looks an item up, lays out its recipe and renders it.
func (c *CLI) diagramCommand() *cobra.Command {
	var (
		src        sourceFlags
		output     string
		formatsStr string
		noCache    bool
	)
	opts := c.Config.PipelineOptions()

	cmd := &cobra.Command{
		Use:   "diagram [item-id]",
		Short: "Draw the recipe tree of an item",
		Long: `Draw the recipe tree of an item.

Runs recipe, layout and render in one step. Every stage is cached, keyed by
the item source, so drawing the same item again only repeats the stages
whose inputs changed. Files are named item-<id>.<format> unless -o is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseItemID(args[0])
			if err != nil {
				return err
			}
			opts.Formats = parseFormats(formatsStr)
			return c.runDiagram(cmd.Context(), src, id, c.flagOptions(cmd, opts), output, noCache)
		},
	}

	src.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): "+strings.Join(render.Formats, ", ")+" (comma-separated, default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "ignore cached results and recompute")
	cmd.Flags().BoolVar(&opts.Graphviz, "graphviz", false, "draw svg/png/pdf with Graphviz's layout for comparison")
	addLayoutFlags(cmd, &opts)
	addRenderFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runDiagram(ctx context.Context, f sourceFlags, id int, opts pipeline.Options, output string, noCache bool) error {
	s, err := c.openSource(ctx, f)
	if err != nil {
		return err
	}
	defer s.Close()

	runner, err := c.newRunner(ctx, noCache, s.Scope())
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Drawing item %d...", id))
	spinner.Start()

	res, err := runner.Execute(ctx, s, id, opts)
	if err != nil {
		spinner.StopWithError(fmt.Sprintf("Item %d failed", id))
		return err
	}
	spinner.Stop()

	paths, err := writeArtifacts(res.Artifacts, opts.Formats, output, fmt.Sprintf("item-%d.json", id))
	if err != nil {
		return err
	}

	ci := res.CacheInfo
	printSuccess("Drew item %d", id)
	for _, p := range paths {
		printFile(p)
	}
	printStats(res.Stats.Nodes, res.Stats.Nodes-1, ci.RecipeHit && ci.LayoutHit && ci.RenderHit)
	printDetail("recipe %s · layout %s · render %s", res.Stats.RecipeTime, res.Stats.LayoutTime, res.Stats.RenderTime)
	if res.Stats.Orphans > 0 {
		printWarning("%d rows not connected to the root were skipped", res.Stats.Orphans)
	}
	return nil
}
