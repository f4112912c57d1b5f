package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/craftree/pkg/diagram"
	"github.com/matzehuels/craftree/pkg/pipeline"
	"github.com/matzehuels/craftree/pkg/recipe"
)

// layoutCommand creates the layout command for computing diagram layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := c.Config.PipelineOptions()

	cmd := &cobra.Command{
		Use:   "layout [rows.json]",
		Short: "Compute a tidy-tree layout from recipe rows",
		Long: `Compute a tidy-tree layout from recipe rows.

The input is a rows file as printed by 'recipe' or served by /api/recipe/{id}:
[[id, "label", parent], ...] with parent -1 marking the result item. The output
is a layout.json file (same format as 'render -f json') that 'render' turns
into SVG/PNG/PDF.

Results are cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], c.flagOptions(cmd, opts), output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	addLayoutFlags(cmd, &opts)

	return cmd
}

// runLayout loads the rows, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	rows, err := recipe.ReadRowsFile(input)
	if err != nil {
		return fmt.Errorf("load rows %s: %w", input, err)
	}
	if err := opts.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinner(ctx, fmt.Sprintf("Laying out %d rows...", len(rows)))
	spinner.Start()

	res, cacheHit, err := runner.Layout(ctx, rows, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input) + ".layout.json"
	}
	if err := diagram.WriteFile(res.Layout, outputPath); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(len(res.Layout.Nodes), len(res.Layout.Edges), cacheHit)
	warnOrphans(res.Orphans)
	printNextStep("Render", appName+" render "+outputPath)

	return nil
}

// warnOrphans reports rows that were not reachable from the root.
func warnOrphans(orphans []recipe.Row) {
	if len(orphans) == 0 {
		return
	}
	printWarning("%d rows not connected to the root were skipped", len(orphans))
	for _, r := range orphans {
		printDetail("#%d %s (parent %d)", r.ID, r.Text, r.Parent)
	}
}
