package sink

import (
	"bytes"
	"fmt"
	"math"

	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/font"

	"github.com/matzehuels/craftree/pkg/diagram"
	"github.com/matzehuels/craftree/pkg/measure"
)

const (
	boxStyle  = "fill:#fff;stroke:#000;stroke-width:1"
	lineStyle = "fill:none;stroke:#000;stroke-width:1"
	textStyle = "fill:#000;text-anchor:middle;dominant-baseline:central;font-family:Go, sans-serif;font-size:%gpx"
)

// RenderSVG renders the layout as a standalone SVG document.
//
// Boxes are sized with Go Regular (see package measure), which viewers
// rarely have installed. Each label therefore carries its Go Regular advance
// as textLength, so a fallback font is stretched or squeezed to the width
// the box was measured for.
func RenderSVG(l diagram.Layout, opts ...Option) []byte {
	o := newOptions(opts...)
	f := newFrame(l, o.margin)

	face, err := measure.NewFace(o.fontSize)
	if err != nil {
		face = nil
	} else {
		defer face.Close()
	}

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(px(f.w), px(f.h))
	if len(l.Nodes) > 0 {
		canvas.Title(l.Root().Label)
	}

	// Connectors go first so boxes cover their ends.
	canvas.Gid("edges")
	for _, e := range l.Edges {
		xs := make([]int, len(e.Points))
		ys := make([]int, len(e.Points))
		for i, p := range e.Points {
			xs[i], ys[i] = px(f.x(p.X)), px(f.y(p.Y))
		}
		canvas.Polyline(xs, ys, lineStyle)
	}
	canvas.Gend()

	canvas.Gid("nodes")
	rx := px(o.radius)
	for _, n := range l.Nodes {
		canvas.Group(fmt.Sprintf(`id="node-%d"`, n.Index), fmt.Sprintf(`data-item="%d"`, n.Item))
		canvas.Roundrect(px(f.x(n.Left())), px(f.y(n.Y)), px(n.W), px(n.H), rx, rx, boxStyle)
		canvas.Text(px(f.x(n.X)), px(f.y(n.Y+n.H/2)), n.Label, textAttrs(face, n.Label, o.fontSize)...)
		canvas.Gend()
	}
	canvas.Gend()

	canvas.End()
	return buf.Bytes()
}

// textAttrs returns the style of a label and, when face is set, its
// measured length.
func textAttrs(face font.Face, label string, size float64) []string {
	attrs := []string{fmt.Sprintf(textStyle, size)}
	if face == nil {
		return attrs
	}
	if adv := float64(font.MeasureString(face, label)) / 64; adv > 0 {
		attrs = append(attrs, fmt.Sprintf(`textLength="%.2f"`, adv), `lengthAdjust="spacingAndGlyphs"`)
	}
	return attrs
}

func px(v float64) int { return int(math.Round(v)) }
