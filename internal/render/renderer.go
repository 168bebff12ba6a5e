package render

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/fmuoria/resume-tailor/internal/fontmap"
	"github.com/fmuoria/resume-tailor/internal/models"
)

const (
	// ShrinkFactor offsets the font-size inflation between extraction and
	// re-rendering
	ShrinkFactor = 0.97
	// BulletRadius is the vector bullet radius relative to font size
	BulletRadius = 0.18
	// BulletIndent is how far text moves right to make room for a bullet
	BulletIndent = 1.2
	// bulletCenterX and bulletCenterY place the bullet centre relative to the
	// element origin and the baseline, in font-size units
	bulletCenterX = 0.4
	bulletCenterY = 0.3
	// DefaultFontSize is used for elements that carry no usable size
	DefaultFontSize = 10.0

	letterWidth  = 612.0
	letterHeight = 792.0
)

// vectorBullets are drawn as circles instead of glyphs. A leading "-" or "*"
// stays text.
var vectorBullets = []string{"●", "•"}

// Renderer writes layouts as PDF documents
type Renderer struct {
	compress bool
	metrics  Measurer
}

// NewRenderer creates a renderer with compressed content streams
func NewRenderer() *Renderer {
	return &Renderer{compress: true, metrics: NewMetrics()}
}

// SetCompression toggles content stream compression
func (r *Renderer) SetCompression(compress bool) {
	r.compress = compress
}

// RenderLayout draws every element of the layout and writes the PDF to w
func (r *Renderer) RenderLayout(layout models.Layout, w io.Writer) error {
	c := newPDFCanvas(r.compress)
	if err := Draw(c, layout); err != nil {
		return err
	}
	if err := c.Output(w); err != nil {
		return &models.RenderError{Page: -1, Err: fmt.Errorf("failed to write output stream: %w", err)}
	}
	return nil
}

// RenderBlocks lays out a structured resume and renders it
func (r *Renderer) RenderBlocks(blocks models.Blocks, w io.Writer) error {
	return r.RenderLayout(FlowBlocks(blocks, r.metrics), w)
}

// Draw replays a layout onto a canvas, one page per layout page and elements
// in their original order
func Draw(c Canvas, layout models.Layout) error {
	for pi, page := range layout.Pages {
		width, height := page.Width, page.Height
		if width <= 0 || height <= 0 {
			width, height = letterWidth, letterHeight
		}
		c.AddPage(width, height)
		if err := c.Err(); err != nil {
			return &models.RenderError{Page: pi, Err: fmt.Errorf("failed to start page: %w", err)}
		}

		for _, el := range page.Elements {
			if err := drawElement(c, el, height); err != nil {
				return &models.RenderError{Page: pi, ElementID: el.ID, Text: el.Text, Err: err}
			}
		}
	}
	return nil
}

func drawElement(c Canvas, el models.TextElement, pageHeight float64) error {
	text := strings.TrimSpace(el.Text)
	if text == "" {
		return nil
	}

	font := fontmap.Resolve(fontmap.Style{Bold: el.IsBold, Italic: el.IsItalic})
	size := el.FontSize
	if size <= 0 {
		size = DefaultFontSize
	}
	size *= ShrinkFactor

	c.SetFont(font, size)
	if err := c.Err(); err != nil {
		return fmt.Errorf("failed to resolve font %s: %w", font.Name(), err)
	}

	baseline := pageHeight - el.Y - fontmap.Ascent(font.Name())*size/1000
	x := el.X

	if rest, ok := cutBullet(text); ok {
		c.FillCircle(x+bulletCenterX*size, baseline+bulletCenterY*size, BulletRadius*size)
		x += BulletIndent * size
		text = rest
	}

	if text != "" {
		c.Text(x, baseline, text)
	}

	if el.Link != "" && text != "" {
		width := c.StringWidth(text)
		if err := c.Err(); err != nil {
			return fmt.Errorf("failed to measure text: %w", err)
		}
		c.Link(x, baseline, width, size, el.Link)
	}

	if err := c.Err(); err != nil {
		return fmt.Errorf("failed to draw text: %w", err)
	}
	return nil
}

// cutBullet strips a leading vector bullet glyph and the whitespace after it
func cutBullet(text string) (string, bool) {
	for _, g := range vectorBullets {
		if rest, ok := strings.CutPrefix(text, g); ok {
			return strings.TrimLeftFunc(rest, unicode.IsSpace), true
		}
	}
	return text, false
}
