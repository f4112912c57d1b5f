package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/craftree/pkg/diagram"
	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/pipeline"
	"github.com/matzehuels/craftree/pkg/recipe"
	"github.com/matzehuels/craftree/pkg/render"
)

// renderCommand creates the render command for drawing rows or layouts.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := c.Config.PipelineOptions()

	cmd := &cobra.Command{
		Use:   "render [rows.json|layout.json]",
		Short: "Render recipe rows or a layout to SVG, PNG, PDF, DOT or JSON",
		Long: `Render recipe rows or a layout to SVG, PNG, PDF, DOT or JSON.

Rows files ([[id, "label", parent], ...]) are laid out first; layout files
written by 'layout' or 'render -f json' are drawn as they are. With a single
format, -o names the output file; with several, -o is the base path and each
file gets its format as extension.

PDF output requires rsvg-convert (librsvg).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formatsStr)
			return c.runRender(cmd.Context(), args[0], c.flagOptions(cmd, opts), output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): "+strings.Join(render.Formats, ", ")+" (comma-separated, default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Graphviz, "graphviz", false, "draw svg/png/pdf with Graphviz's layout for comparison")
	addLayoutFlags(cmd, &opts)
	addRenderFlags(cmd, &opts)

	return cmd
}

// runRender loads the input, lays it out if needed, and writes one file per
// requested format.
func (c *CLI) runRender(ctx context.Context, input string, opts pipeline.Options, output string, noCache bool) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, noCache, "")
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	spinner := newSpinner(ctx, "Loading "+input+"...")
	spinner.Start()

	l, orphans, layoutHit, err := c.loadLayout(ctx, runner, input, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}

	spinner.Update(fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	artifacts, renderHit, err := runner.Render(ctx, l, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()
	prog.done(fmt.Sprintf("Rendered %d formats", len(artifacts)))

	paths, err := writeArtifacts(artifacts, opts.Formats, output, input)
	if err != nil {
		return err
	}

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(len(l.Nodes), len(l.Edges), layoutHit && renderHit)
	warnOrphans(orphans)
	return nil
}

// loadLayout reads input as a layout file or, for recipe rows, computes the
// layout through the runner. Orphans are only known for fresh layouts.
func (c *CLI) loadLayout(ctx context.Context, runner *pipeline.Runner, input string, opts pipeline.Options) (diagram.Layout, []recipe.Row, bool, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		if os.IsNotExist(err) {
			return diagram.Layout{}, nil, false, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "read %s", input)
		}
		return diagram.Layout{}, nil, false, err
	}

	if isLayoutJSON(data) {
		l, err := diagram.Unmarshal(data)
		if err != nil {
			return diagram.Layout{}, nil, false, fmt.Errorf("load layout %s: %w", input, err)
		}
		c.Logger.Debug("loaded layout", "path", input, "nodes", len(l.Nodes))
		return l, nil, true, nil
	}

	rows, err := recipe.ReadRows(bytes.NewReader(data))
	if err != nil {
		return diagram.Layout{}, nil, false, fmt.Errorf("load rows %s: %w", input, err)
	}
	res, hit, err := runner.Layout(ctx, rows, opts)
	if err != nil {
		return diagram.Layout{}, nil, false, fmt.Errorf("compute layout: %w", err)
	}
	return res.Layout, res.Orphans, hit, nil
}

// isLayoutJSON reports whether data holds a JSON object. Rows files are
// always arrays.
func isLayoutJSON(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

// writeArtifacts writes each format to its file and returns the paths in
// format order. A single format with an explicit output is written there
// verbatim; otherwise files are named <base>.<format>.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, input string) ([]string, error) {
	paths := make([]string, 0, len(formats))
	for _, f := range formats {
		path := basePath(output, input) + "." + f
		if len(formats) == 1 && output != "" {
			path = output
		}
		if err := writeFile(path, artifacts[f]); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output and input file
// paths. If output is empty, it strips the extension from input, including
// a ".layout" infix. If output has a format extension (.svg, .pdf, etc.),
// it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		return strings.TrimSuffix(base, ".layout")
	}
	ext := filepath.Ext(output)
	if slices.Contains(render.Formats, strings.TrimPrefix(ext, ".")) {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path after validating the path.
func writeFile(path string, data []byte) error {
	if err := apperrors.ValidatePath(path); err != nil {
		return err
	}
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// openOutput returns a WriteCloser for the given path.
// If path is empty or "-", it returns os.Stdout wrapped in nopCloser.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
