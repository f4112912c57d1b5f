// Package tidytree lays out ordered trees of variable-sized boxes in linear
// time.
//
// # Overview
//
// The algorithm is van der Ploeg's extension of Reingold–Tilford: boxes may
// have different widths and heights, rows are fixed ([Config.RowSpacing]
// apart), and every subtree is placed as close to its left sibling as the
// [Config.ColumnSpacing] allows. Contours are followed through threads, so
// each node is compared a bounded number of times and the whole pass stays
// O(n).
//
// The result is aesthetic in the usual tidy-tree sense:
//
//   - boxes on the same row never overlap
//   - a parent is centered over its children
//   - sibling order is preserved
//   - identical subtrees are drawn identically wherever they occur
//
// # Usage
//
// Build the tree by appending children, then call [Layout]:
//
//	t, root := tidytree.NewTree(80, 20)
//	water := t.AddChild(root, 60, 20)
//	fire := t.AddChild(root, 60, 20)
//
//	if _, err := tidytree.Layout(t, tidytree.DefaultConfig()); err != nil {
//	    return err
//	}
//	x, y := t.Position(water) // center x, row top y
//
// # Coordinates
//
// Positions are box centers on the x axis and row tops on the y axis. The
// root is centered at (0, 0) and a node at depth d has y = d * RowSpacing.
// Callers that need a non-negative canvas translate by [Tree.Bounds].
//
// # Concurrency
//
// A [Tree] is not safe for concurrent use. Separate trees can be laid out
// from separate goroutines.
package tidytree
