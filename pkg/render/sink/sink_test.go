package sink

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"image/png"
	"strings"
	"testing"

	"golang.org/x/image/font"

	"github.com/matzehuels/craftree/pkg/diagram"
	apperrors "github.com/matzehuels/craftree/pkg/errors"
	"github.com/matzehuels/craftree/pkg/measure"
	"github.com/matzehuels/craftree/pkg/render"
)

// twoLeaves is Steam over Water and Fire, laid out with the default spacing.
func twoLeaves() diagram.Layout {
	nodes := []diagram.Node{
		{Index: 0, Item: 5, Label: "Steam", X: 0, Y: 0, W: 40, H: 20, Parent: -1},
		{Index: 1, Item: 1, Label: "Water & Ice", X: -30, Y: 75, W: 40, H: 20, Parent: 0},
		{Index: 2, Item: 2, Label: "Fire", X: 30, Y: 75, W: 40, H: 20, Parent: 0},
	}
	l := diagram.Layout{
		Nodes:         nodes,
		Bounds:        diagram.Bounds{MinX: -50, MinY: 0, MaxX: 50, MaxY: 95},
		RowSpacing:    75,
		ColumnSpacing: 20,
	}
	for _, n := range nodes[1:] {
		l.Edges = append(l.Edges, diagram.Edge{From: 0, To: n.Index, Points: diagram.Connector(nodes[0], n)})
	}
	return l
}

func TestRenderSVG(t *testing.T) {
	out := RenderSVG(twoLeaves())
	s := string(out)

	if !strings.Contains(s, `width="160" height="155"`) {
		t.Errorf("SVG size not fitted to bounds plus margin:\n%s", s)
	}
	if got := strings.Count(s, "<rect"); got != 3 {
		t.Errorf("rect count = %d, want 3", got)
	}
	if got := strings.Count(s, "<polyline"); got != 2 {
		t.Errorf("polyline count = %d, want 2", got)
	}
	if !strings.Contains(s, "Water &amp; Ice") {
		t.Error("label not escaped")
	}
	if !strings.Contains(s, `rx="5"`) {
		t.Error("boxes are not rounded with radius 5")
	}
	// Root box: center 0 -> 80 on the canvas, width 40.
	if !strings.Contains(s, `x="60" y="30" width="40" height="20"`) {
		t.Errorf("root box misplaced:\n%s", s)
	}

	var doc struct{ XMLName xml.Name }
	if err := xml.Unmarshal(out, &doc); err != nil {
		t.Errorf("SVG is not well-formed XML: %v", err)
	}
}

func TestRenderSVGOptions(t *testing.T) {
	s := string(RenderSVG(twoLeaves(), WithMargin(0), WithCornerRadius(2), WithFontSize(16)))
	if !strings.Contains(s, `width="100" height="95"`) {
		t.Errorf("margin 0 not applied:\n%s", s)
	}
	if !strings.Contains(s, `rx="2"`) {
		t.Error("corner radius not applied")
	}
	if !strings.Contains(s, "font-size:16px") {
		t.Error("font size not applied")
	}
}

// Labels are drawn at the width the measurer gave their boxes, whatever font
// the viewer substitutes for Go Regular.
func TestRenderSVGLabelLength(t *testing.T) {
	s := string(RenderSVG(twoLeaves()))
	if !strings.Contains(s, "font-family:Go, sans-serif") {
		t.Errorf("labels not set in Go:\n%s", s)
	}

	face, err := measure.NewFace(DefaultFontSize)
	if err != nil {
		t.Fatal(err)
	}
	defer face.Close()
	for _, label := range []string{"Steam", "Fire"} {
		adv := float64(font.MeasureString(face, label)) / 64
		if want := fmt.Sprintf(`textLength="%.2f"`, adv); !strings.Contains(s, want) {
			t.Errorf("label %q: missing %s in\n%s", label, want, s)
		}
	}
	if got := strings.Count(s, `lengthAdjust="spacingAndGlyphs"`); got != 3 {
		t.Errorf("lengthAdjust count = %d, want 3", got)
	}
}

func TestRenderPNG(t *testing.T) {
	out, err := RenderPNG(twoLeaves(), WithScale(2))
	if err != nil {
		t.Fatalf("RenderPNG() error = %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 310 {
		t.Errorf("image size = %dx%d, want 320x310", b.Dx(), b.Dy())
	}
	// Margin stays background white.
	if r, g, b, _ := img.At(2, 2).RGBA(); r != 0xffff || g != 0xffff || b != 0xffff {
		t.Errorf("corner pixel = (%x, %x, %x), want white", r, g, b)
	}
}

func TestRenderPDF(t *testing.T) {
	out, err := RenderPDF(context.Background(), twoLeaves())
	if !render.HasConverter() {
		if !apperrors.Is(err, apperrors.ErrCodeUnsupported) {
			t.Errorf("RenderPDF() without rsvg-convert: error = %v", err)
		}
		return
	}
	if err != nil {
		t.Fatalf("RenderPDF() error = %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Error("output is not a PDF")
	}
}
