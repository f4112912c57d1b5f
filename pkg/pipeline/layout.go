package pipeline

import (
	"github.com/matzehuels/craftree/pkg/diagram"
	"github.com/matzehuels/craftree/pkg/measure"
	"github.com/matzehuels/craftree/pkg/recipe"
)

// LayoutResult is a computed layout and what it took to compute it.
type LayoutResult struct {
	Layout       diagram.Layout
	Orphans      []recipe.Row
	ContourSteps int
}

// ComputeLayout builds the tree for rows, sizes every label with m and runs
// the tidy-tree layout. When m is nil the labels are measured with the
// embedded font at opts.FontSize.
func ComputeLayout(rows []recipe.Row, m measure.Measurer, opts Options) (LayoutResult, error) {
	opts.SetDefaults()
	if m == nil {
		fm, err := measure.NewFontMeasurer(measure.Options{FontSize: opts.FontSize, Padding: opts.Padding})
		if err != nil {
			return LayoutResult{}, err
		}
		defer fm.Close()
		m = fm
	}

	d, st, err := recipe.Layout(rows, m, opts.TreeConfig())
	if err != nil {
		return LayoutResult{}, err
	}
	return LayoutResult{
		Layout:       diagram.FromDiagram(d, opts.TreeConfig()),
		Orphans:      d.Orphans,
		ContourSteps: st.ContourSteps,
	}, nil
}
