// Package render draws layouts and structured resumes as PDF documents.
package render

import (
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/fmuoria/resume-tailor/internal/fontmap"
)

// Canvas is the drawing surface used by the renderer. Coordinates are PDF
// user space: origin at the bottom-left of the page, y growing upwards.
type Canvas interface {
	AddPage(width, height float64)
	SetFont(font fontmap.Font, size float64)
	StringWidth(s string) float64
	Text(x, y float64, s string)
	FillCircle(x, y, r float64)
	Link(x, y, w, h float64, url string)
	Err() error
}

// Measurer reports rendered string widths for layout decisions
type Measurer interface {
	StringWidth(font fontmap.Font, size float64, s string) float64
	// SplitText breaks s into lines no wider than width
	SplitText(font fontmap.Font, size float64, s string, width float64) []string
}

// documentDate is stamped on every document so output is reproducible
var documentDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// pdfCanvas draws onto an fpdf document, which works top-down in points
type pdfCanvas struct {
	doc   *fpdf.Fpdf
	font  string
	pageH float64
}

func newPDFCanvas(compress bool) *pdfCanvas {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetAutoPageBreak(false, 0)
	doc.SetMargins(0, 0, 0)
	doc.SetCompression(compress)
	doc.SetCreationDate(documentDate)
	doc.SetModificationDate(documentDate)
	doc.SetCatalogSort(true)
	doc.SetFillColor(0, 0, 0)
	doc.SetTextColor(0, 0, 0)

	return &pdfCanvas{doc: doc}
}

func (c *pdfCanvas) AddPage(width, height float64) {
	c.doc.AddPageFormat("P", fpdf.SizeType{Wd: width, Ht: height})
	c.pageH = height
}

func (c *pdfCanvas) SetFont(font fontmap.Font, size float64) {
	c.doc.SetFont(font.Family, font.Style, size)
	c.font = font.Name()
}

// encode converts s for the current core font. A character the font cannot
// show puts the document into its error state.
func (c *pdfCanvas) encode(s string) (string, bool) {
	if c.doc.Err() {
		return "", false
	}
	out, err := encodeCP1252(s, c.font)
	if err != nil {
		c.doc.SetError(err)
		return "", false
	}
	return out, true
}

func (c *pdfCanvas) StringWidth(s string) float64 {
	out, ok := c.encode(s)
	if !ok {
		return 0
	}
	return c.doc.GetStringWidth(out)
}

func (c *pdfCanvas) Text(x, y float64, s string) {
	if out, ok := c.encode(s); ok {
		c.doc.Text(x, c.pageH-y, out)
	}
}

func (c *pdfCanvas) FillCircle(x, y, r float64) {
	c.doc.Circle(x, c.pageH-y, r, "F")
}

func (c *pdfCanvas) Link(x, y, w, h float64, url string) {
	c.doc.LinkString(x, c.pageH-y-h, w, h, url)
}

func (c *pdfCanvas) Err() error {
	if c.doc.Err() {
		return c.doc.Error()
	}
	return nil
}

// Output writes the finished document and closes it
func (c *pdfCanvas) Output(w io.Writer) error {
	return c.doc.Output(w)
}

// fpdfMetrics measures and wraps strings with the core font tables of fpdf
type fpdfMetrics struct {
	doc *fpdf.Fpdf
}

// NewMetrics returns a Measurer backed by the same fonts the renderer uses
func NewMetrics() Measurer {
	doc := fpdf.New("P", "pt", "Letter", "")
	doc.SetCellMargin(0)
	return &fpdfMetrics{doc: doc}
}

func (m *fpdfMetrics) StringWidth(font fontmap.Font, size float64, s string) float64 {
	m.doc.SetFont(font.Family, font.Style, size)
	return m.doc.GetStringWidth(string(approxCP1252(s)))
}

// SplitText wraps s with fpdf's splitter. The core-font width tables are
// indexed by cp1252 byte, so the text is split in that form and mapped back.
func (m *fpdfMetrics) SplitText(font fontmap.Font, size float64, s string, width float64) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	m.doc.SetFont(font.Family, font.Style, size)
	return rejoin(s, m.doc.SplitText(string(widthRunes(s)), width))
}
