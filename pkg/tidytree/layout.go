package tidytree

import (
	"errors"
	"math"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
)

const (
	// DefaultRowSpacing is the vertical distance between the tops of two
	// consecutive rows.
	DefaultRowSpacing = 75
	// DefaultColumnSpacing is the minimum horizontal gap between two boxes
	// on the same row.
	DefaultColumnSpacing = 20
)

// ErrEmptyTree is returned by [Layout] for a nil or empty tree.
var ErrEmptyTree = errors.New("tree has no nodes")

// Config holds the spacing parameters of a layout.
type Config struct {
	RowSpacing    float64 `toml:"row_spacing" json:"row_spacing"`
	ColumnSpacing float64 `toml:"column_spacing" json:"column_spacing"`
}

// DefaultConfig returns the spacing used by the recipe diagrams.
func DefaultConfig() Config {
	return Config{RowSpacing: DefaultRowSpacing, ColumnSpacing: DefaultColumnSpacing}
}

// Validate rejects negative or non-finite spacings.
func (c Config) Validate() error {
	if err := validSpacing("row spacing", c.RowSpacing); err != nil {
		return err
	}
	return validSpacing("column spacing", c.ColumnSpacing)
}

func validSpacing(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "%s must be finite, got %v", name, v)
	}
	if v < 0 {
		return apperrors.New(apperrors.ErrCodeInvalidConfig, "%s must not be negative, got %v", name, v)
	}
	return nil
}

// Stats reports the work done by one [Layout] call.
type Stats struct {
	Nodes        int // nodes positioned
	ContourSteps int // iterations of the contour comparison loop
	Threads      int // threads created while merging subtrees
}

// Layout assigns a position to every node of t.
//
// After a successful call [Tree.Position] returns, for every node, the
// horizontal center of its box and the top of its row. The root is centered
// at x = 0 and a node at depth d sits at y = d * cfg.RowSpacing. Siblings keep
// their order, every parent is centered over the span of its children, and
// two boxes on the same row are at least cfg.ColumnSpacing apart.
//
// Rows do not grow with box heights: a box taller than cfg.RowSpacing reaches
// into the rows below it. Separation is only guaranteed within a row.
//
// Layout runs in time linear in the number of nodes. It only reads the node
// dimensions, so calling it twice on an unchanged tree yields identical
// positions. It must not be called concurrently on the same tree.
func Layout(t *Tree, cfg Config) (Stats, error) {
	if t.Len() == 0 {
		return Stats{}, apperrors.Wrap(apperrors.ErrCodeInvalidInput, ErrEmptyTree, "layout")
	}
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}

	w := newWalker(t, cfg)
	w.firstWalk(0)
	// The root carries no modifier, so its preliminary position is final.
	w.origin = w.s[0].prelim + t.nodes[0].w/2
	w.secondWalk(0, 0)
	return w.stats, nil
}
