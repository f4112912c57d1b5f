package sink

import (
	"bytes"
	"image/png"

	"git.sr.ht/~sbinet/gg"

	"github.com/matzehuels/craftree/pkg/diagram"
	"github.com/matzehuels/craftree/pkg/measure"
)

// RenderPNG rasterizes the layout. Every layout unit becomes scale pixels.
func RenderPNG(l diagram.Layout, opts ...Option) ([]byte, error) {
	o := newOptions(opts...)
	f := newFrame(l, o.margin)
	s := o.scale

	face, err := measure.NewFace(o.fontSize * s)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	dc := gg.NewContext(px(f.w*s), px(f.h*s))
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(s)
	for _, e := range l.Edges {
		for i, p := range e.Points {
			x, y := f.x(p.X)*s, f.y(p.Y)*s
			if i == 0 {
				dc.MoveTo(x, y)
			} else {
				dc.LineTo(x, y)
			}
		}
		dc.Stroke()
	}

	dc.SetFontFace(face)
	for _, n := range l.Nodes {
		x, y := f.x(n.Left())*s, f.y(n.Y)*s
		w, h := n.W*s, n.H*s

		dc.SetRGB(1, 1, 1)
		dc.DrawRoundedRectangle(x, y, w, h, o.radius*s)
		dc.Fill()
		dc.SetRGB(0, 0, 0)
		dc.DrawRoundedRectangle(x, y, w, h, o.radius*s)
		dc.Stroke()
		dc.DrawStringAnchored(n.Label, x+w/2, y+h/2, 0.5, 0.35)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
