package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/craftree/pkg/diagram"
)

func steam() diagram.Layout {
	return diagram.Layout{
		Nodes: []diagram.Node{
			{Index: 0, Item: 5, Label: "💨 Steam", Parent: -1},
			{Index: 1, Item: 1, Label: "💧 Water", Parent: 0},
			{Index: 2, Item: 2, Label: "🔥 Fire", Parent: 0},
		},
		Edges: []diagram.Edge{{From: 0, To: 1}, {From: 0, To: 2}},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(steam(), Options{})

	for _, want := range []string{
		"digraph G",
		"ordering=out",
		`n0 [label="💨 Steam"]`,
		`n2 [label="🔥 Fire"]`,
		"n0 -> n1;",
		"n0 -> n2;",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q:\n%s", want, dot)
		}
	}
	// Sibling order must survive.
	if strings.Index(dot, "n0 -> n1") > strings.Index(dot, "n0 -> n2") {
		t.Error("ToDOT() reordered siblings")
	}
}

func TestFmtLabel(t *testing.T) {
	n := diagram.Node{Item: 7, Label: "Geyser"}
	if got := fmtLabel(n, false); got != "Geyser" {
		t.Errorf("fmtLabel() simple = %q, want %q", got, "Geyser")
	}
	if got := fmtLabel(n, true); got != "Geyser\n#7" {
		t.Errorf("fmtLabel() detailed = %q, want %q", got, "Geyser\n#7")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	if !strings.Contains(got, `viewBox="0 0 62.00 116.00" width="62" height="116"`) {
		t.Errorf("normalizeViewBox() = %s", got)
	}

	plain := []byte(`<svg><g/></svg>`)
	if got := normalizeViewBox(plain); string(got) != string(plain) {
		t.Errorf("normalizeViewBox() changed svg without viewBox: %s", got)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(steam(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error = %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output is not SVG")
	}
}

func TestRenderSVGInvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), "digraph {"); err == nil {
		t.Error("RenderSVG() error = nil for malformed DOT")
	}
}
