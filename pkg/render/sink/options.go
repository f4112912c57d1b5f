package sink

import (
	"math"

	"github.com/matzehuels/craftree/pkg/diagram"
)

// Renderer defaults, in layout units except for the PNG scale.
const (
	DefaultMargin       = 30
	DefaultCornerRadius = 5
	DefaultFontSize     = 12
	DefaultScale        = 2
)

// Option configures a renderer.
type Option func(*options)

type options struct {
	margin   float64
	radius   float64
	fontSize float64
	scale    float64
}

func WithMargin(m float64) Option       { return func(o *options) { o.margin = m } }
func WithCornerRadius(r float64) Option { return func(o *options) { o.radius = r } }
func WithFontSize(s float64) Option     { return func(o *options) { o.fontSize = s } }

// WithScale sets the PNG pixel density (default 2.0 for 2x resolution).
func WithScale(s float64) Option { return func(o *options) { o.scale = s } }

func newOptions(opts ...Option) options {
	o := options{
		margin:   DefaultMargin,
		radius:   DefaultCornerRadius,
		fontSize: DefaultFontSize,
		scale:    DefaultScale,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = DefaultScale
	}
	return o
}

// frame maps layout coordinates onto a canvas whose origin is the top-left
// corner of the bounds grown by the margin.
type frame struct {
	offX, offY float64
	w, h       float64
}

func newFrame(l diagram.Layout, margin float64) frame {
	return frame{
		offX: l.Bounds.MinX - margin,
		offY: l.Bounds.MinY - margin,
		w:    math.Ceil(l.Bounds.Width() + 2*margin),
		h:    math.Ceil(l.Bounds.Height() + 2*margin),
	}
}

func (f frame) x(v float64) float64 { return v - f.offX }
func (f frame) y(v float64) float64 { return v - f.offY }
