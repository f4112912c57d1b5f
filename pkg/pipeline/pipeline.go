// Package pipeline runs the recipe → layout → render pipeline for craftree.
//
// The command line and the API server share this package, so both produce
// byte-identical diagrams for the same rows and options.
//
// # Architecture
//
// The pipeline has three stages:
//
//  1. Recipe: fetch the rows of an item from a [Source] (the item database
//     or the remote API)
//  2. Layout: measure every label and run the tidy-tree layout
//  3. Render: produce SVG, PNG, PDF, DOT or JSON from the layout
//
// Every stage is cached through a [cache.Cache] keyed by a hash of its
// inputs.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, db, 42, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"time"

	"github.com/matzehuels/craftree/pkg/cache"
	"github.com/matzehuels/craftree/pkg/diagram"
	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/measure"
	"github.com/matzehuels/craftree/pkg/recipe"
	"github.com/matzehuels/craftree/pkg/render"
	"github.com/matzehuels/craftree/pkg/render/sink"
	"github.com/matzehuels/craftree/pkg/tidytree"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	DefaultRowSpacing    = tidytree.DefaultRowSpacing
	DefaultColumnSpacing = tidytree.DefaultColumnSpacing
	DefaultFontSize      = measure.DefaultFontSize
	DefaultPadding       = measure.DefaultPadding
	DefaultMargin        = sink.DefaultMargin
	DefaultCornerRadius  = sink.DefaultCornerRadius
	DefaultScale         = sink.DefaultScale
)

// DefaultFormats is used when no format is requested.
var DefaultFormats = []string{render.FormatSVG}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run. Zero fields take their defaults in
// [Options.SetDefaults]. The struct is JSON-serializable for API requests.
type Options struct {
	// Layout options
	RowSpacing    float64 `json:"row_spacing,omitempty"`
	ColumnSpacing float64 `json:"column_spacing,omitempty"`
	FontSize      float64 `json:"font_size,omitempty"`
	Padding       float64 `json:"padding,omitempty"`

	// Render options
	Formats      []string `json:"formats,omitempty"`
	Margin       float64  `json:"margin,omitempty"`
	CornerRadius float64  `json:"corner_radius,omitempty"`
	Scale        float64  `json:"scale,omitempty"`
	Detailed     bool     `json:"detailed,omitempty"` // item ids in DOT labels
	// Graphviz draws svg, png and pdf through Graphviz's own layout of
	// the DOT graph instead of the tidy-tree layout.
	Graphviz bool `json:"graphviz,omitempty"`

	// Refresh skips cache reads; results are still written back.
	Refresh bool `json:"refresh,omitempty"`
}

// Result holds the outputs of [Runner.Execute].
type Result struct {
	Rows      []recipe.Row
	Layout    diagram.Layout
	Artifacts map[string][]byte
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats holds timing and size information of a run.
type Stats struct {
	Rows         int
	Nodes        int
	Orphans      int
	ContourSteps int
	RecipeTime   time.Duration
	LayoutTime   time.Duration
	RenderTime   time.Duration
}

// CacheInfo records which stages were served from the cache.
type CacheInfo struct {
	RecipeHit bool
	LayoutHit bool
	RenderHit bool // every requested format was cached
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormats rejects unknown output formats.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if !render.IsFormat(f) {
			return apperrors.New(apperrors.ErrCodeInvalidInput,
				"invalid format: %q (must be one of: svg, png, pdf, dot, json)", f)
		}
	}
	return nil
}

// SetDefaults fills zero fields with the default values.
func (o *Options) SetDefaults() {
	if o.RowSpacing == 0 {
		o.RowSpacing = DefaultRowSpacing
	}
	if o.ColumnSpacing == 0 {
		o.ColumnSpacing = DefaultColumnSpacing
	}
	if o.FontSize == 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Padding == 0 {
		o.Padding = DefaultPadding
	}
	if len(o.Formats) == 0 {
		o.Formats = DefaultFormats
	}
	if o.Margin == 0 {
		o.Margin = DefaultMargin
	}
	if o.CornerRadius == 0 {
		o.CornerRadius = DefaultCornerRadius
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
}

// Validate applies defaults and checks every option.
func (o *Options) Validate() error {
	o.SetDefaults()
	if err := o.TreeConfig().Validate(); err != nil {
		return err
	}
	switch {
	case o.FontSize < 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "font size must be positive, got %v", o.FontSize)
	case o.Padding < 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "padding must not be negative, got %v", o.Padding)
	case o.Margin < 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "margin must not be negative, got %v", o.Margin)
	case o.Scale < 0:
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "scale must be positive, got %v", o.Scale)
	}
	return ValidateFormats(o.Formats)
}

// TreeConfig returns the spacing part of the options.
func (o *Options) TreeConfig() tidytree.Config {
	return tidytree.Config{RowSpacing: o.RowSpacing, ColumnSpacing: o.ColumnSpacing}
}

// LayoutKeyOpts returns cache key options for a layout.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		RowSpacing:    o.RowSpacing,
		ColumnSpacing: o.ColumnSpacing,
		FontSize:      o.FontSize,
		Padding:       o.Padding,
	}
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format}
	switch format {
	case render.FormatSVG, render.FormatPNG, render.FormatPDF:
		k.Margin = o.Margin
		k.CornerRadius = o.CornerRadius
		k.FontSize = o.FontSize
	}
	if format == render.FormatPNG {
		k.Scale = o.Scale
	}
	if o.graphviz(format) {
		k.Format += "+graphviz"
		k.Margin, k.CornerRadius, k.FontSize = 0, 0, 0
	}
	if o.Detailed && (format == render.FormatDOT || o.graphviz(format)) {
		k.Format += "+detailed"
	}
	return k
}

func (o *Options) graphviz(format string) bool {
	if !o.Graphviz {
		return false
	}
	switch format {
	case render.FormatSVG, render.FormatPNG, render.FormatPDF:
		return true
	}
	return false
}

func (o *Options) sinkOptions() []sink.Option {
	return []sink.Option{
		sink.WithMargin(o.Margin),
		sink.WithCornerRadius(o.CornerRadius),
		sink.WithFontSize(o.FontSize),
		sink.WithScale(o.Scale),
	}
}
