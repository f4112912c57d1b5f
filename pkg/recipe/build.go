// Package recipe turns recipe listings into laid out diagram trees.
//
// A listing is a flat slice of [Row] values. Exactly one row has
// Parent == NoParent and names the crafted item; every other row names an
// ingredient and the item it goes into. [Build] links the rows into a
// [tidytree.Tree], measuring each label with a [measure.Measurer].
package recipe

import (
	"errors"
	"slices"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/measure"
	"github.com/matzehuels/craftree/pkg/tidytree"
)

// Sentinel errors returned by [Build], wrapped in a coded error. Match them
// with errors.Is.
var (
	// ErrNoRows is returned for an empty row list (INVALID_INPUT).
	ErrNoRows = errors.New("recipe has no rows")

	// ErrNoRoot is returned when no row has parent -1 (ROOT_NOT_FOUND).
	ErrNoRoot = errors.New("no row has parent -1")

	// ErrMultipleRoots is returned when several rows have parent -1
	// (INVALID_INPUT).
	ErrMultipleRoots = errors.New("more than one row has parent -1")
)

// Diagram is a recipe tree ready for layout. Labels and Items are indexed
// by node ID.
type Diagram struct {
	Tree    *tidytree.Tree
	Labels  []string
	Items   []int
	Orphans []Row // rows not reachable from the root
}

// Build links rows into a tree.
//
// Children keep their row order. An item can occur several times (a shared
// ingredient): the first occurrence reached in depth-first order claims the
// rows listing it as parent, later occurrences stay leaves. Every row is
// therefore used at most once, which keeps cyclic listings finite.
func Build(rows []Row, m measure.Measurer) (*Diagram, error) {
	if len(rows) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, ErrNoRows, "build recipe")
	}

	rootIdx := -1
	pending := make(map[int][]int) // parent item -> row indexes
	for i, r := range rows {
		if r.IsRoot() {
			if rootIdx >= 0 {
				return nil, apperrors.Wrap(apperrors.ErrCodeInvalidInput, ErrMultipleRoots,
					"items %d and %d", rows[rootIdx].ID, r.ID)
			}
			rootIdx = i
			continue
		}
		pending[r.Parent] = append(pending[r.Parent], i)
	}
	if rootIdx < 0 {
		return nil, apperrors.Wrap(apperrors.ErrCodeRootNotFound, ErrNoRoot, "build recipe")
	}

	root := rows[rootIdx]
	w, h := m.Measure(root.Text)
	t, rootID := tidytree.NewTree(w, h)
	d := &Diagram{
		Tree:   t,
		Labels: []string{root.Text},
		Items:  []int{root.ID},
	}
	used := make([]bool, len(rows))
	used[rootIdx] = true

	stack := []tidytree.NodeID{rootID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		item := d.Items[id]
		claimed, ok := pending[item]
		if !ok {
			continue
		}
		delete(pending, item)

		first := len(stack)
		for _, ri := range claimed {
			r := rows[ri]
			used[ri] = true
			w, h := m.Measure(r.Text)
			stack = append(stack, t.AddChild(id, w, h))
			d.Labels = append(d.Labels, r.Text)
			d.Items = append(d.Items, r.ID)
		}
		// Visit the first child next.
		slices.Reverse(stack[first:])
	}

	for i, r := range rows {
		if !used[i] {
			d.Orphans = append(d.Orphans, r)
		}
	}
	return d, nil
}

// Layout builds the diagram and lays it out with cfg.
func Layout(rows []Row, m measure.Measurer, cfg tidytree.Config) (*Diagram, tidytree.Stats, error) {
	d, err := Build(rows, m)
	if err != nil {
		return nil, tidytree.Stats{}, err
	}
	st, err := tidytree.Layout(d.Tree, cfg)
	if err != nil {
		return nil, st, err
	}
	return d, st, nil
}
