package pipeline

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/craftree/pkg/diagram"
	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/render"
	"github.com/matzehuels/craftree/pkg/render/nodelink"
	"github.com/matzehuels/craftree/pkg/render/sink"
)

// RenderFormats renders l once per format in opts.Formats. Formats are
// rendered concurrently; the first failure cancels the rest.
func RenderFormats(ctx context.Context, l diagram.Layout, opts Options) (map[string][]byte, error) {
	opts.SetDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	artifacts := make(map[string][]byte, len(opts.Formats))

	g, ctx := errgroup.WithContext(ctx)
	for _, format := range opts.Formats {
		g.Go(func() error {
			data, err := renderFormat(ctx, l, format, opts)
			if err != nil {
				return fmt.Errorf("render %s: %w", format, err)
			}
			mu.Lock()
			artifacts[format] = data
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l diagram.Layout, format string, opts Options) ([]byte, error) {
	if opts.graphviz(format) {
		return renderGraphviz(ctx, l, format, opts)
	}
	switch format {
	case render.FormatSVG:
		return sink.RenderSVG(l, opts.sinkOptions()...), nil
	case render.FormatPNG:
		return sink.RenderPNG(l, opts.sinkOptions()...)
	case render.FormatPDF:
		return sink.RenderPDF(ctx, l, opts.sinkOptions()...)
	case render.FormatDOT:
		return []byte(nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})), nil
	case render.FormatJSON:
		return diagram.Marshal(l)
	default:
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "unsupported format: %s", format)
	}
}

func renderGraphviz(ctx context.Context, l diagram.Layout, format string, opts Options) ([]byte, error) {
	dot := nodelink.ToDOT(l, nodelink.Options{Detailed: opts.Detailed})
	switch format {
	case render.FormatPNG:
		return nodelink.RenderPNG(ctx, dot, opts.Scale)
	case render.FormatPDF:
		return nodelink.RenderPDF(ctx, dot)
	default:
		return nodelink.RenderSVG(ctx, dot)
	}
}
