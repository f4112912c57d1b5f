// Package diagram is the serialized form of a laid out recipe tree.
//
// A [Layout] carries everything a renderer needs: one [Node] per box with
// its label and final position, one [Edge] per parent/child link with the
// connector polyline already routed, and the overall bounds. Renderers in
// pkg/render and the HTTP API consume Layout values; nothing downstream
// needs the tidytree arena.
package diagram

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/recipe"
	"github.com/matzehuels/craftree/pkg/tidytree"
)

// =============================================================================
// Layout
// =============================================================================

// Layout is a positioned recipe diagram. Coordinates follow tidytree: X is
// a box's horizontal center, Y its top edge, and the root is centered at
// (0, 0).
type Layout struct {
	Nodes         []Node  `json:"nodes"`
	Edges         []Edge  `json:"edges"`
	Bounds        Bounds  `json:"bounds"`
	RowSpacing    float64 `json:"row_spacing"`
	ColumnSpacing float64 `json:"column_spacing"`
}

// Node is one labeled box.
type Node struct {
	Index  int     `json:"index"`
	Item   int     `json:"item"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Parent int     `json:"parent"` // -1 for the root
}

// Left returns the x coordinate of the box's left edge.
func (n Node) Left() float64 { return n.X - n.W/2 }

// Right returns the x coordinate of the box's right edge.
func (n Node) Right() float64 { return n.X + n.W/2 }

// Bottom returns the y coordinate of the box's bottom edge.
func (n Node) Bottom() float64 { return n.Y + n.H }

// Edge links a parent box to a child box.
type Edge struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Points []Point `json:"points"`
}

// Point is a polyline vertex.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds is the extent of all boxes.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
}

// Width returns MaxX - MinX.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Height returns MaxY - MinY.
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Root returns the root node. It panics on an empty layout.
func (l Layout) Root() Node { return l.Nodes[0] }

// =============================================================================
// Construction
// =============================================================================

// FromDiagram converts a laid out recipe diagram. d.Tree must have been
// passed to [tidytree.Layout] with cfg.
func FromDiagram(d *recipe.Diagram, cfg tidytree.Config) Layout {
	t := d.Tree
	l := Layout{
		Nodes:         make([]Node, 0, t.Len()),
		Edges:         make([]Edge, 0, max(t.Len()-1, 0)),
		RowSpacing:    cfg.RowSpacing,
		ColumnSpacing: cfg.ColumnSpacing,
	}
	for i := range t.Len() {
		id := tidytree.NodeID(i)
		x, y := t.Position(id)
		w, h := t.Size(id)
		l.Nodes = append(l.Nodes, Node{
			Index:  i,
			Item:   d.Items[i],
			Label:  d.Labels[i],
			X:      x,
			Y:      y,
			W:      w,
			H:      h,
			Parent: int(t.Parent(id)),
		})
	}

	for _, n := range l.Nodes {
		if n.Parent < 0 {
			continue
		}
		l.Edges = append(l.Edges, Edge{
			From:   n.Parent,
			To:     n.Index,
			Points: Connector(l.Nodes[n.Parent], n),
		})
	}

	b := t.Bounds()
	l.Bounds = Bounds{MinX: b.MinX, MinY: b.MinY, MaxX: b.MaxX, MaxY: b.MaxY}
	return l
}

// Connector routes the line from the bottom center of parent to the top
// center of child: down to the midpoint between the two, across, then down.
func Connector(parent, child Node) []Point {
	startY := parent.Bottom()
	endY := child.Y
	midY := startY + (endY-startY)/2
	return []Point{
		{parent.X, startY},
		{parent.X, midY},
		{child.X, midY},
		{child.X, endY},
	}
}

// Validate checks that node indexes, parents and edges are consistent.
func (l Layout) Validate() error {
	if len(l.Nodes) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "layout has no nodes")
	}
	roots := 0
	for i, n := range l.Nodes {
		if n.Index != i {
			return apperrors.New(apperrors.ErrCodeInvalidFormat, "node %d has index %d", i, n.Index)
		}
		switch {
		case n.Parent == -1:
			roots++
		case n.Parent < 0 || n.Parent >= i:
			return apperrors.New(apperrors.ErrCodeInvalidFormat, "node %d has invalid parent %d", i, n.Parent)
		}
	}
	if roots != 1 {
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "layout has %d roots, want 1", roots)
	}
	for _, e := range l.Edges {
		if e.From < 0 || e.From >= len(l.Nodes) || e.To < 0 || e.To >= len(l.Nodes) {
			return apperrors.New(apperrors.ErrCodeInvalidFormat, "edge %d->%d out of range", e.From, e.To)
		}
	}
	return nil
}

// =============================================================================
// Serialization
// =============================================================================

// Marshal serializes a Layout to indented JSON.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal decodes and validates a Layout.
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "unmarshal layout")
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Read decodes a Layout from r.
func Read(r io.Reader) (Layout, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Layout{}, err
	}
	return Unmarshal(data)
}

// WriteFile writes a Layout to a JSON file.
func WriteFile(l Layout, path string) error {
	data, err := Marshal(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile reads a Layout from a JSON file.
func ReadFile(path string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layout{}, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return Layout{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
