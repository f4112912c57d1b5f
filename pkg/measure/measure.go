// Package measure computes the box size of a diagram label.
//
// A label box is the text's bounding box grown by a fixed padding and
// rounded to whole pixels. [FontMeasurer] measures with the embedded Go
// Regular font; [FixedMeasurer] uses a monospace bitmap face so sizes are
// predictable in tests.
package measure

import (
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// DefaultFontSize is the label size in points when none is configured.
	DefaultFontSize = 12

	// DefaultPadding is added to the text width and height of every box.
	DefaultPadding = 10

	// lineHeight is the text height per unit of font size.
	lineHeight = 1.16
)

// Measurer reports the box size for a label.
type Measurer interface {
	Measure(text string) (w, h float64)
}

// Options configures a [FontMeasurer].
type Options struct {
	FontSize float64 // points at 72 DPI, 0 means DefaultFontSize
	Padding  float64 // added to both dimensions, negative means none
}

func (o Options) withDefaults() Options {
	if o.FontSize <= 0 {
		o.FontSize = DefaultFontSize
	}
	if o.Padding < 0 {
		o.Padding = 0
	}
	return o
}

// FontMeasurer measures labels set in Go Regular.
// It is safe for concurrent use.
type FontMeasurer struct {
	mu      sync.Mutex
	face    font.Face
	size    float64
	padding float64
}

// NewFontMeasurer parses the embedded font at the requested size.
func NewFontMeasurer(opts Options) (*FontMeasurer, error) {
	opts = opts.withDefaults()
	face, err := NewFace(opts.FontSize)
	if err != nil {
		return nil, err
	}
	return &FontMeasurer{face: face, size: opts.FontSize, padding: opts.Padding}, nil
}

// NewFace returns a Go Regular face of the given size at 72 DPI. The face
// is not safe for concurrent use.
func NewFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// Measure implements [Measurer].
func (m *FontMeasurer) Measure(text string) (w, h float64) {
	m.mu.Lock()
	adv := font.MeasureString(m.face, text)
	m.mu.Unlock()
	return box(adv, m.size*lineHeight, m.padding)
}

// Close releases the font face.
func (m *FontMeasurer) Close() error {
	return m.face.Close()
}

// FixedMeasurer measures every rune as one 7x13 cell.
type FixedMeasurer struct {
	Padding float64
}

// NewFixedMeasurer returns a FixedMeasurer with the default padding.
func NewFixedMeasurer() FixedMeasurer {
	return FixedMeasurer{Padding: DefaultPadding}
}

// Measure implements [Measurer].
func (m FixedMeasurer) Measure(text string) (w, h float64) {
	adv := font.MeasureString(basicfont.Face7x13, text)
	return box(adv, float64(basicfont.Face7x13.Height), m.Padding)
}

func box(advance fixed.Int26_6, textHeight, padding float64) (w, h float64) {
	textWidth := float64(advance) / 64
	return math.Round(textWidth + padding), math.Round(textHeight + padding)
}
