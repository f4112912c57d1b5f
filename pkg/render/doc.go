// Package render turns laid out recipe diagrams into images.
//
// # Overview
//
// Two renderers share one input, [diagram.Layout]:
//
//   - [sink] draws the tidy-tree layout itself: rounded label boxes joined
//     by orthogonal connectors, as SVG, PNG or PDF
//   - [nodelink] hands the same tree to Graphviz for a comparison drawing
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg).
//
//	svg := sink.RenderSVG(layout)
//	pdf, err := render.ToPDF(ctx, svg)
//
// [sink]: github.com/matzehuels/craftree/pkg/render/sink
// [nodelink]: github.com/matzehuels/craftree/pkg/render/nodelink
// [diagram.Layout]: github.com/matzehuels/craftree/pkg/diagram#Layout
package render

import "slices"

// Output formats understood by the renderers and the pipeline.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatDOT  = "dot"
	FormatJSON = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// IsFormat reports whether f is a supported output format.
func IsFormat(f string) bool { return slices.Contains(Formats, f) }

// ContentType returns the MIME type of a format.
func ContentType(f string) string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}
