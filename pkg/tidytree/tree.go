package tidytree

import (
	"fmt"
	"math"
)

// NodeID addresses a node inside a [Tree]. IDs are dense, start at 0 for the
// root and increase in creation order, so a parent always has a smaller ID
// than any of its children.
type NodeID int

// None marks an absent link (the root's parent, a missing thread).
const None NodeID = -1

// node is the stable part of a tree node: shape, dimensions and the final
// position written by the second walk.
type node struct {
	parent   NodeID
	children []NodeID
	w, h     float64
	x, y     float64
}

// Tree is an arena of nodes forming a single-rooted, ordered tree.
//
// Parent→child edges are owned by the arena and stored as ordered index
// lists; every other cross-reference (parent, threads, extremes) is a plain
// [NodeID]. Because children can only be appended to an existing node, the
// arena can never contain a cycle.
//
// The zero value is an empty tree; use [NewTree] to create a usable one.
// Tree is not safe for concurrent use.
type Tree struct {
	nodes []node
}

// NewTree creates a tree whose root has the given dimensions.
func NewTree(width, height float64) (*Tree, NodeID) {
	t := &Tree{}
	t.nodes = append(t.nodes, node{parent: None, w: width, h: height})
	return t, 0
}

// AddChild appends a new last child to parent and returns its ID.
// It panics if parent does not exist.
func (t *Tree) AddChild(parent NodeID, width, height float64) NodeID {
	t.mustExist(parent)
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{parent: parent, w: width, h: height})
	t.nodes[parent].children = append(t.nodes[parent].children, id)
	return id
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Root returns the root ID, or None for an empty tree.
func (t *Tree) Root() NodeID {
	if t.Len() == 0 {
		return None
	}
	return 0
}

// Parent returns the parent of id, or None for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	t.mustExist(id)
	return t.nodes[id].parent
}

// Children returns the ordered children of id. The slice is owned by the
// tree and must not be modified.
func (t *Tree) Children(id NodeID) []NodeID {
	t.mustExist(id)
	return t.nodes[id].children
}

// IsLeaf reports whether id has no children.
func (t *Tree) IsLeaf(id NodeID) bool { return len(t.Children(id)) == 0 }

// Size returns the width and height of id.
func (t *Tree) Size(id NodeID) (w, h float64) {
	t.mustExist(id)
	return t.nodes[id].w, t.nodes[id].h
}

// SetSize changes the dimensions of id. Positions are stale until the next
// [Layout].
func (t *Tree) SetSize(id NodeID, width, height float64) {
	t.mustExist(id)
	t.nodes[id].w, t.nodes[id].h = width, height
}

// Position returns the laid out center x and top y of id.
func (t *Tree) Position(id NodeID) (x, y float64) {
	t.mustExist(id)
	return t.nodes[id].x, t.nodes[id].y
}

// Depth returns the number of edges between id and the root.
func (t *Tree) Depth(id NodeID) int {
	t.mustExist(id)
	d := 0
	for p := t.nodes[id].parent; p != None; p = t.nodes[p].parent {
		d++
	}
	return d
}

// Height returns the depth of the deepest node.
func (t *Tree) Height() int {
	depth := make([]int, t.Len())
	h := 0
	for i := 1; i < len(depth); i++ {
		depth[i] = depth[t.nodes[i].parent] + 1
		h = max(h, depth[i])
	}
	return h
}

// Walk calls fn for every node in pre-order (parents before children,
// siblings left to right). Returning false from fn prunes that subtree.
func (t *Tree) Walk(fn func(id NodeID) bool) {
	if t.Len() == 0 {
		return
	}
	stack := []NodeID{0}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(id) {
			continue
		}
		cs := t.nodes[id].children
		for i := len(cs) - 1; i >= 0; i-- {
			stack = append(stack, cs[i])
		}
	}
}

// Rect is an axis-aligned box in layout coordinates.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Box returns the rectangle occupied by id after layout.
func (t *Tree) Box(id NodeID) Rect {
	t.mustExist(id)
	n := &t.nodes[id]
	return Rect{MinX: n.x - n.w/2, MinY: n.y, MaxX: n.x + n.w/2, MaxY: n.y + n.h}
}

// Bounds returns the smallest rectangle enclosing every laid out box.
func (t *Tree) Bounds() Rect {
	if t.Len() == 0 {
		return Rect{}
	}
	b := Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for i := range t.nodes {
		r := t.Box(NodeID(i))
		b.MinX = min(b.MinX, r.MinX)
		b.MinY = min(b.MinY, r.MinY)
		b.MaxX = max(b.MaxX, r.MaxX)
		b.MaxY = max(b.MaxY, r.MaxY)
	}
	return b
}

func (t *Tree) mustExist(id NodeID) {
	if t == nil || id < 0 || int(id) >= len(t.nodes) {
		panic(fmt.Sprintf("tidytree: unknown node %d", id))
	}
}
