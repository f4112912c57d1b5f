package tidytree

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"pgregory.net/rapid"

	apperrors "github.com/matzehuels/craftree/pkg/errors"
)

const eps = 1e-6

func mustLayout(t *testing.T, tr *Tree, cfg Config) Stats {
	t.Helper()
	st, err := Layout(tr, cfg)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	return st
}

func near(a, b float64) bool { return math.Abs(a-b) < eps }

func TestLayoutSingleNode(t *testing.T) {
	tr, root := NewTree(50, 20)
	st := mustLayout(t, tr, DefaultConfig())

	if x, y := tr.Position(root); x != 0 || y != 0 {
		t.Errorf("Position(root) = (%v, %v), want (0, 0)", x, y)
	}
	if st.Nodes != 1 || st.ContourSteps != 0 || st.Threads != 0 {
		t.Errorf("Stats = %+v, want {Nodes:1}", st)
	}
}

func TestLayoutTwoLeaves(t *testing.T) {
	tr, root := NewTree(40, 20)
	a := tr.AddChild(root, 40, 20)
	b := tr.AddChild(root, 40, 20)
	mustLayout(t, tr, DefaultConfig())

	tests := []struct {
		id   NodeID
		x, y float64
	}{
		{root, 0, 0},
		{a, -30, 75},
		{b, 30, 75},
	}
	for _, tt := range tests {
		if x, y := tr.Position(tt.id); !near(x, tt.x) || !near(y, tt.y) {
			t.Errorf("Position(%v) = (%v, %v), want (%v, %v)", tt.id, x, y, tt.x, tt.y)
		}
	}
}

func TestLayoutRootWidthDoesNotMoveChildren(t *testing.T) {
	for _, w := range []float64{10, 40, 300} {
		tr, root := NewTree(w, 20)
		a := tr.AddChild(root, 40, 20)
		b := tr.AddChild(root, 40, 20)
		mustLayout(t, tr, DefaultConfig())

		xa, _ := tr.Position(a)
		xb, _ := tr.Position(b)
		if !near(xa, -30) || !near(xb, 30) {
			t.Errorf("root width %v: children at (%v, %v), want (-30, 30)", w, xa, xb)
		}
	}
}

// A short middle sibling between a deep left subtree and a wide right one:
// the right subtree must clear the left one through a thread, and the slack
// is spread evenly over both gaps.
func TestLayoutThreadsAndDistributesSpacing(t *testing.T) {
	tr, root := NewTree(40, 20)
	a := tr.AddChild(root, 40, 20)
	b := tr.AddChild(root, 40, 20)
	c := tr.AddChild(root, 40, 20)
	a1 := tr.AddChild(a, 40, 20)
	c1 := tr.AddChild(c, 200, 20)
	st := mustLayout(t, tr, DefaultConfig())

	tests := []struct {
		name string
		id   NodeID
		x, y float64
	}{
		{"root", root, 0, 0},
		{"a", a, -70, 75},
		{"b", b, 0, 75},
		{"c", c, 70, 75},
		{"a1", a1, -70, 150},
		{"c1", c1, 70, 150},
	}
	for _, tt := range tests {
		if x, y := tr.Position(tt.id); !near(x, tt.x) || !near(y, tt.y) {
			t.Errorf("Position(%s) = (%v, %v), want (%v, %v)", tt.name, x, y, tt.x, tt.y)
		}
	}
	if st.Threads != 1 {
		t.Errorf("Threads = %v, want 1", st.Threads)
	}

	// a1 and c1 share a row and are only compared through the thread.
	if gap := tr.Box(c1).MinX - tr.Box(a1).MaxX; !near(gap, DefaultColumnSpacing) {
		t.Errorf("gap(a1, c1) = %v, want %v", gap, DefaultColumnSpacing)
	}
}

// A leaf beside a three-row subtree: the leaf's contour ends first, so the
// leaf is threaded into the deeper subtree without moving.
func TestLayoutLeafBesideDeepSubtree(t *testing.T) {
	tr, root := NewTree(40, 20)
	a := tr.AddChild(root, 40, 20)
	b := tr.AddChild(root, 40, 20)
	b1 := tr.AddChild(b, 40, 20)
	b2 := tr.AddChild(b1, 40, 20)
	st := mustLayout(t, tr, DefaultConfig())

	tests := []struct {
		name string
		id   NodeID
		x, y float64
	}{
		{"root", root, 0, 0},
		{"a", a, -30, 75},
		{"b", b, 30, 75},
		{"b1", b1, 30, 150},
		{"b2", b2, 30, 225},
	}
	for _, tt := range tests {
		if x, y := tr.Position(tt.id); !near(x, tt.x) || !near(y, tt.y) {
			t.Errorf("Position(%s) = (%v, %v), want (%v, %v)", tt.name, x, y, tt.x, tt.y)
		}
	}
	if st.Threads != 1 {
		t.Errorf("Threads = %v, want 1", st.Threads)
	}
}

// A box taller than the row spacing must not hide the row below it from the
// neighbouring subtree.
func TestLayoutTallBoxKeepsRowsApart(t *testing.T) {
	tr, root := NewTree(40, 20)
	a := tr.AddChild(root, 40, 200)
	a1 := tr.AddChild(a, 200, 20)
	b := tr.AddChild(root, 40, 20)
	b1 := tr.AddChild(b, 40, 20)
	tr.AddChild(b1, 40, 20)
	mustLayout(t, tr, DefaultConfig())

	tests := []struct {
		name string
		id   NodeID
		x    float64
	}{
		{"a", a, -70},
		{"a1", a1, -70},
		{"b", b, 70},
		{"b1", b1, 70},
	}
	for _, tt := range tests {
		if x, _ := tr.Position(tt.id); !near(x, tt.x) {
			t.Errorf("Position(%s).x = %v, want %v", tt.name, x, tt.x)
		}
	}
	if gap := tr.Box(b1).MinX - tr.Box(a1).MaxX; !near(gap, DefaultColumnSpacing) {
		t.Errorf("gap(a1, b1) = %v, want %v", gap, DefaultColumnSpacing)
	}
	checkLayout(t, tr, DefaultConfig())
}

func TestLayoutCustomSpacing(t *testing.T) {
	tr, root := NewTree(10, 10)
	a := tr.AddChild(root, 10, 10)
	b := tr.AddChild(root, 10, 10)
	cfg := Config{RowSpacing: 30, ColumnSpacing: 0}
	mustLayout(t, tr, cfg)

	xa, ya := tr.Position(a)
	xb, _ := tr.Position(b)
	if !near(xa, -5) || !near(xb, 5) || ya != 30 {
		t.Errorf("children at (%v, %v), (%v, _), want (-5, 30), (5, _)", xa, ya, xb)
	}
}

func TestLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		tree *Tree
		cfg  Config
		code apperrors.Code
	}{
		{"nil tree", nil, DefaultConfig(), apperrors.ErrCodeInvalidInput},
		{"empty tree", &Tree{}, DefaultConfig(), apperrors.ErrCodeInvalidInput},
		{"negative row spacing", singleNode(), Config{RowSpacing: -1}, apperrors.ErrCodeInvalidConfig},
		{"NaN column spacing", singleNode(), Config{RowSpacing: 75, ColumnSpacing: math.NaN()}, apperrors.ErrCodeInvalidConfig},
		{"infinite row spacing", singleNode(), Config{RowSpacing: math.Inf(1)}, apperrors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Layout(tt.tree, tt.cfg)
			if err == nil {
				t.Fatal("Layout() error = nil, want error")
			}
			if !apperrors.Is(err, tt.code) {
				t.Errorf("code = %v, want %v", apperrors.GetCode(err), tt.code)
			}
		})
	}
}

func TestLayoutEmptyTreeSentinel(t *testing.T) {
	_, err := Layout(nil, DefaultConfig())
	if !errors.Is(err, ErrEmptyTree) {
		t.Errorf("Layout(nil) error = %v, want ErrEmptyTree in chain", err)
	}
}

func TestLayoutIdempotent(t *testing.T) {
	tr := randomTree(rand.New(rand.NewPCG(1, 2)), 500)
	mustLayout(t, tr, DefaultConfig())
	first := positions(tr)

	mustLayout(t, tr, DefaultConfig())
	second := positions(tr)
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("node %d moved from %v to %v on relayout", i, first[i], second[i])
		}
	}
}

func TestLayoutDeterministic(t *testing.T) {
	t1 := randomTree(rand.New(rand.NewPCG(7, 7)), 300)
	t2 := randomTree(rand.New(rand.NewPCG(7, 7)), 300)
	s1 := mustLayout(t, t1, DefaultConfig())
	s2 := mustLayout(t, t2, DefaultConfig())

	if s1 != s2 {
		t.Errorf("Stats differ: %+v vs %+v", s1, s2)
	}
	p1, p2 := positions(t1), positions(t2)
	for i := range p1 {
		if p1[i] != p2[i] {
			t.Fatalf("node %d at %v and %v", i, p1[i], p2[i])
		}
	}
}

func TestLayoutSameSubtreeSameShape(t *testing.T) {
	tr, root := NewTree(30, 20)
	var subtrees [2]NodeID
	for i := range subtrees {
		s := tr.AddChild(root, 30, 20)
		tr.AddChild(s, 80, 20)
		tr.AddChild(s, 20, 20)
		subtrees[i] = s
	}
	mustLayout(t, tr, DefaultConfig())

	x0, _ := tr.Position(subtrees[0])
	x1, _ := tr.Position(subtrees[1])
	c0, c1 := tr.Children(subtrees[0]), tr.Children(subtrees[1])
	for i := range c0 {
		a, _ := tr.Position(c0[i])
		b, _ := tr.Position(c1[i])
		if !near(a-x0, b-x1) {
			t.Errorf("child %d offset = %v and %v, want equal", i, a-x0, b-x1)
		}
	}
}

func TestLayoutPropertiesRapid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cfg := Config{
			RowSpacing:    rapid.Float64Range(10, 120).Draw(rt, "rowSpacing"),
			ColumnSpacing: rapid.Float64Range(0, 40).Draw(rt, "columnSpacing"),
		}
		n := rapid.IntRange(1, 80).Draw(rt, "nodes")
		// Heights may exceed the row spacing.
		size := func() (float64, float64) {
			return rapid.Float64Range(1, 150).Draw(rt, "w"), rapid.Float64Range(1, 3*cfg.RowSpacing).Draw(rt, "h")
		}

		w, h := size()
		tr, _ := NewTree(w, h)
		for i := 1; i < n; i++ {
			p := NodeID(rapid.IntRange(0, i-1).Draw(rt, "parent"))
			w, h := size()
			tr.AddChild(p, w, h)
		}

		st, err := Layout(tr, cfg)
		if err != nil {
			rt.Fatalf("Layout() error = %v", err)
		}
		checkLayout(rt, tr, cfg)
		if st.Nodes != n {
			rt.Fatalf("Stats.Nodes = %v, want %v", st.Nodes, n)
		}
	})
}

func TestLayoutLinearContourSteps(t *testing.T) {
	shapes := []struct {
		name  string
		build func(n int) *Tree
	}{
		{"random", func(n int) *Tree { return randomTree(rand.New(rand.NewPCG(3, 4)), n) }},
		{"binary", completeBinary},
		{"comb", comb},
		{"star", star},
	}
	for _, s := range shapes {
		t.Run(s.name, func(t *testing.T) {
			for _, n := range []int{1_000, 10_000, 100_000} {
				st := mustLayout(t, s.build(n), DefaultConfig())
				if ratio := float64(st.ContourSteps) / float64(st.Nodes); ratio > 4 {
					t.Errorf("n=%d: ContourSteps/Nodes = %.2f, want <= 4", n, ratio)
				}
			}
		})
	}
}

func BenchmarkLayout(b *testing.B) {
	for _, n := range []int{1_000, 10_000, 100_000} {
		tr := randomTree(rand.New(rand.NewPCG(5, 6)), n)
		b.Run(fmt.Sprintf("n=%d", n), func(b *testing.B) {
			for b.Loop() {
				if _, err := Layout(tr, DefaultConfig()); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// =============================================================================
// Helpers
// =============================================================================

type fataler interface {
	Fatalf(format string, args ...any)
}

// checkLayout verifies the row, spacing and centering invariants of a laid
// out tree.
func checkLayout(tb fataler, tr *Tree, cfg Config) {
	if x, y := tr.Position(0); !near(x, 0) || y != 0 {
		tb.Fatalf("root at (%v, %v), want (0, 0)", x, y)
	}

	// Pre-order visits each row left to right.
	lastOnRow := map[int]NodeID{}
	tr.Walk(func(id NodeID) bool {
		d := tr.Depth(id)
		if _, y := tr.Position(id); !near(y, float64(d)*cfg.RowSpacing) {
			tb.Fatalf("node %d at depth %d has y = %v, want %v", id, d, y, float64(d)*cfg.RowSpacing)
		}
		if prev, ok := lastOnRow[d]; ok {
			if gap := tr.Box(id).MinX - tr.Box(prev).MaxX; gap < cfg.ColumnSpacing-eps {
				tb.Fatalf("nodes %d and %d on row %d are %v apart, want >= %v", prev, id, d, gap, cfg.ColumnSpacing)
			}
		}
		lastOnRow[d] = id

		if cs := tr.Children(id); len(cs) > 0 {
			mid := (tr.Box(cs[0]).MinX + tr.Box(cs[len(cs)-1]).MaxX) / 2
			if x, _ := tr.Position(id); !near(x, mid) {
				tb.Fatalf("node %d centered at %v, want %v", id, x, mid)
			}
		}
		return true
	})
}

func singleNode() *Tree {
	tr, _ := NewTree(10, 10)
	return tr
}

func positions(tr *Tree) [][2]float64 {
	out := make([][2]float64, tr.Len())
	for i := range out {
		x, y := tr.Position(NodeID(i))
		out[i] = [2]float64{x, y}
	}
	return out
}

func randomTree(r *rand.Rand, n int) *Tree {
	tr, _ := NewTree(20+r.Float64()*80, 10+r.Float64()*40)
	for i := 1; i < n; i++ {
		tr.AddChild(NodeID(r.IntN(i)), 20+r.Float64()*80, 10+r.Float64()*40)
	}
	return tr
}

func completeBinary(n int) *Tree {
	tr, _ := NewTree(40, 20)
	for i := 1; i < n; i++ {
		tr.AddChild(NodeID((i-1)/2), 40, 20)
	}
	return tr
}

// comb is a spine where every spine node also has a leaf on its left, so
// each merge compares a deep contour against a single leaf.
func comb(n int) *Tree {
	tr, spine := NewTree(40, 20)
	for tr.Len()+2 <= n {
		tr.AddChild(spine, 30, 20)
		spine = tr.AddChild(spine, 40, 20)
	}
	return tr
}

func star(n int) *Tree {
	tr, root := NewTree(40, 20)
	for i := 1; i < n; i++ {
		tr.AddChild(root, 10+float64(i%7)*5, 20)
	}
	return tr
}
