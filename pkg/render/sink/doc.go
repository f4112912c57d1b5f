// Package sink draws a [diagram.Layout] as a tidy recipe tree.
//
// Every node becomes a white rounded box with a centered label, and every
// edge a black polyline from the bottom center of the parent to the top
// center of the child. The canvas is fitted to the diagram's bounds plus a
// margin on each side.
//
//	svg := sink.RenderSVG(l, sink.WithMargin(30))
//	png, err := sink.RenderPNG(l, sink.WithScale(2))
//	pdf, err := sink.RenderPDF(ctx, l)
//
// SVG is written with [github.com/ajstarks/svgo] and PNG is rasterized
// in-process with [git.sr.ht/~sbinet/gg]. PDF goes through rsvg-convert.
//
// [diagram.Layout]: github.com/matzehuels/craftree/pkg/diagram#Layout
package sink
