package tidytree

import (
	"slices"
	"testing"
)

func TestNewTree(t *testing.T) {
	tr, root := NewTree(40, 20)
	if root != 0 {
		t.Errorf("root = %v, want 0", root)
	}
	if tr.Len() != 1 {
		t.Errorf("Len() = %v, want 1", tr.Len())
	}
	if tr.Parent(root) != None {
		t.Errorf("Parent(root) = %v, want None", tr.Parent(root))
	}
	if w, h := tr.Size(root); w != 40 || h != 20 {
		t.Errorf("Size(root) = (%v, %v), want (40, 20)", w, h)
	}
	if !tr.IsLeaf(root) {
		t.Error("IsLeaf(root) = false, want true")
	}
}

func TestAddChildOrder(t *testing.T) {
	tr, root := NewTree(10, 10)
	a := tr.AddChild(root, 10, 10)
	b := tr.AddChild(root, 10, 10)
	c := tr.AddChild(root, 10, 10)
	a1 := tr.AddChild(a, 10, 10)

	if got, want := tr.Children(root), []NodeID{a, b, c}; !slices.Equal(got, want) {
		t.Errorf("Children(root) = %v, want %v", got, want)
	}
	if got := tr.Parent(a1); got != a {
		t.Errorf("Parent(a1) = %v, want %v", got, a)
	}
	if a1 <= a {
		t.Errorf("child id %v not greater than parent id %v", a1, a)
	}
}

func TestDepthAndHeight(t *testing.T) {
	tr, root := NewTree(10, 10)
	a := tr.AddChild(root, 10, 10)
	b := tr.AddChild(a, 10, 10)
	c := tr.AddChild(b, 10, 10)
	tr.AddChild(root, 10, 10)

	tests := []struct {
		id   NodeID
		want int
	}{
		{root, 0},
		{a, 1},
		{b, 2},
		{c, 3},
	}
	for _, tt := range tests {
		if got := tr.Depth(tt.id); got != tt.want {
			t.Errorf("Depth(%v) = %v, want %v", tt.id, got, tt.want)
		}
	}
	if got := tr.Height(); got != 3 {
		t.Errorf("Height() = %v, want 3", got)
	}
}

func TestWalkPreOrder(t *testing.T) {
	tr, root := NewTree(10, 10)
	a := tr.AddChild(root, 10, 10)
	b := tr.AddChild(root, 10, 10)
	a1 := tr.AddChild(a, 10, 10)
	a2 := tr.AddChild(a, 10, 10)
	b1 := tr.AddChild(b, 10, 10)

	var got []NodeID
	tr.Walk(func(id NodeID) bool {
		got = append(got, id)
		return true
	})
	if want := []NodeID{root, a, a1, a2, b, b1}; !slices.Equal(got, want) {
		t.Errorf("Walk order = %v, want %v", got, want)
	}

	got = got[:0]
	tr.Walk(func(id NodeID) bool {
		got = append(got, id)
		return id != a
	})
	if want := []NodeID{root, a, b, b1}; !slices.Equal(got, want) {
		t.Errorf("pruned Walk order = %v, want %v", got, want)
	}
}

func TestNilTree(t *testing.T) {
	var tr *Tree
	if tr.Len() != 0 {
		t.Errorf("Len() = %v, want 0", tr.Len())
	}
	if tr.Root() != None {
		t.Errorf("Root() = %v, want None", tr.Root())
	}
	tr.Walk(func(NodeID) bool {
		t.Error("Walk visited a node of a nil tree")
		return true
	})
	if b := tr.Bounds(); b != (Rect{}) {
		t.Errorf("Bounds() = %v, want zero", b)
	}
}

func TestUnknownNodePanics(t *testing.T) {
	tests := []struct {
		name string
		fn   func(*Tree)
	}{
		{"AddChild", func(tr *Tree) { tr.AddChild(5, 1, 1) }},
		{"Parent", func(tr *Tree) { tr.Parent(None) }},
		{"Position", func(tr *Tree) { tr.Position(1) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s did not panic", tt.name)
				}
			}()
			tr, _ := NewTree(1, 1)
			tt.fn(tr)
		})
	}
}

func TestBoxAndBounds(t *testing.T) {
	tr, root := NewTree(40, 20)
	tr.AddChild(root, 40, 20)
	tr.AddChild(root, 40, 20)
	if _, err := Layout(tr, DefaultConfig()); err != nil {
		t.Fatalf("Layout() error = %v", err)
	}

	if got, want := tr.Box(root), (Rect{MinX: -20, MinY: 0, MaxX: 20, MaxY: 20}); got != want {
		t.Errorf("Box(root) = %v, want %v", got, want)
	}
	b := tr.Bounds()
	want := Rect{MinX: -50, MinY: 0, MaxX: 50, MaxY: 95}
	if b != want {
		t.Errorf("Bounds() = %v, want %v", b, want)
	}
	if b.Width() != 100 || b.Height() != 95 {
		t.Errorf("Bounds() size = %vx%v, want 100x95", b.Width(), b.Height())
	}
}
