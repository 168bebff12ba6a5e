package ingestion

import (
	"bytes"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"

	"github.com/fmuoria/resume-tailor/internal/fontmap"
	"github.com/fmuoria/resume-tailor/internal/models"
)

const (
	// HeaderSearchSize is how many leading bytes are searched for the PDF header
	HeaderSearchSize = 1024
	// SpaceGapRatio is the horizontal gap, relative to font size, above which
	// a space is inserted between merged glyphs
	SpaceGapRatio = 0.15
	// SplitGapRatio is the gap above which glyphs start a new span
	SplitGapRatio = 2.0
	// DefaultColor is reported for every element; fill colour is not decoded
	DefaultColor = "#000000"
)

// letterBox is used when a page has no MediaBox anywhere in its tree
var letterBox = [4]float64{0, 0, 612, 792}

var disableConfigDir sync.Once

// Extractor turns PDF bytes into a Layout
type Extractor struct {
	validate bool
	newID    func() string
}

// NewExtractor creates an extractor that validates input with pdfcpu before
// decoding
func NewExtractor() *Extractor {
	return &Extractor{
		validate: true,
		newID:    uuid.NewString,
	}
}

// span is a run of glyphs sharing font, size and baseline
type span struct {
	text     string
	font     string
	size     float64
	x        float64
	baseline float64
	width    float64
}

type rect struct {
	x0, y0, x1, y1 float64
}

func (r rect) intersects(o rect) bool {
	return r.x0 < o.x1 && o.x0 < r.x1 && r.y0 < o.y1 && o.y0 < r.y1
}

type linkAnnot struct {
	uri  string
	area rect
}

// ExtractFile reads and extracts a PDF from disk
func (e *Extractor) ExtractFile(path string) (models.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Layout{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return e.Extract(data)
}

// Extract decodes PDF bytes into pages of positioned text elements
func (e *Extractor) Extract(data []byte) (models.Layout, error) {
	if !IsPDFData(data) {
		return models.Layout{}, &models.UnsupportedInputError{Reason: "input is not a PDF document"}
	}

	if e.validate {
		if err := ValidatePDF(data); err != nil {
			log.Printf("Warning: %v", err)
		}
	}

	reader, err := openReader(data)
	if err != nil {
		return models.Layout{}, &models.UnsupportedInputError{Reason: "failed to decode PDF", Err: err}
	}

	layout := models.Layout{Pages: []models.Page{}}
	for i := 1; i <= reader.NumPage(); i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}

		page, err := e.extractPage(p, i-1)
		if err != nil {
			return models.Layout{}, &models.UnsupportedInputError{Reason: fmt.Sprintf("failed to decode page %d", i), Err: err}
		}
		layout.Pages = append(layout.Pages, page)
	}

	return layout, nil
}

// extractPage converts one decoded page. The decoder panics on some
// malformed content streams, so panics are turned into errors here.
func (e *Extractor) extractPage(p pdf.Page, index int) (page models.Page, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed page content: %v", r)
		}
	}()

	box := mediaBox(p.V)
	width := box[2] - box[0]
	height := box[3] - box[1]
	top := box[3]

	links := pageLinks(p.V, box)
	spans := mergeGlyphs(p.Content().Text)

	elements := make([]models.TextElement, 0, len(spans))
	for _, s := range spans {
		text := norm.NFKC.String(s.text)
		if strings.TrimSpace(text) == "" {
			continue
		}

		style := fontmap.StyleOf(s.font)
		y := top - s.baseline - fontmap.Ascent(s.font)*s.size/1000
		w := s.width
		if w <= 0 {
			// fonts without a Widths array report zero advance
			w = 0.5 * s.size * float64(utf8.RuneCountInString(text))
		}
		bbox := rect{x0: s.x - box[0], y0: y, x1: s.x - box[0] + w, y1: y + s.size}

		el := models.TextElement{
			ID:       e.newID(),
			Text:     text,
			X:        bbox.x0,
			Y:        y,
			FontName: s.font,
			FontSize: round2(s.size),
			IsBold:   style.Bold,
			IsItalic: style.Italic,
			Color:    DefaultColor,
		}
		for _, l := range links {
			if l.area.intersects(bbox) {
				el.Link = l.uri
				break
			}
		}
		elements = append(elements, el)
	}

	return models.Page{
		PageNumber: index,
		Width:      width,
		Height:     height,
		Elements:   elements,
	}, nil
}

// mergeGlyphs joins per-glyph runs into spans, in content-stream order
func mergeGlyphs(glyphs []pdf.Text) []span {
	var (
		spans []span
		cur   *span
	)

	for _, g := range glyphs {
		if g.S == "" {
			continue
		}

		if cur != nil && sameRun(*cur, g) {
			gap := g.X - (cur.x + cur.width)
			if gap <= SplitGapRatio*cur.size {
				if gap > SpaceGapRatio*cur.size && !strings.HasSuffix(cur.text, " ") && g.S != " " {
					cur.text += " "
				}
				cur.text += g.S
				cur.width = math.Max(cur.width, g.X+g.W-cur.x)
				continue
			}
		}

		if cur != nil {
			spans = append(spans, *cur)
		}
		cur = &span{
			text:     g.S,
			font:     g.Font,
			size:     g.FontSize,
			x:        g.X,
			baseline: g.Y,
			width:    g.W,
		}
	}

	if cur != nil {
		spans = append(spans, *cur)
	}
	return spans
}

func sameRun(s span, g pdf.Text) bool {
	return s.font == g.Font &&
		math.Abs(s.size-g.FontSize) < 0.01 &&
		math.Abs(s.baseline-g.Y) < 0.5 &&
		g.X >= s.x
}

// mediaBox walks up the page tree until a MediaBox is found
func mediaBox(v pdf.Value) [4]float64 {
	for depth := 0; depth < 32 && v.Kind() == pdf.Dict; depth++ {
		if b := v.Key("MediaBox"); b.Len() == 4 {
			var box [4]float64
			for i := range box {
				box[i] = b.Index(i).Float64()
			}
			if box[2] < box[0] {
				box[0], box[2] = box[2], box[0]
			}
			if box[3] < box[1] {
				box[1], box[3] = box[3], box[1]
			}
			return box
		}
		v = v.Key("Parent")
	}
	return letterBox
}

// pageLinks collects URI link annotations with rectangles converted to
// top-down coordinates
func pageLinks(page pdf.Value, box [4]float64) []linkAnnot {
	left, top := box[0], box[3]
	annots := page.Key("Annots")
	var links []linkAnnot
	for i := 0; i < annots.Len(); i++ {
		a := annots.Index(i)
		if a.Key("Subtype").Name() != "Link" {
			continue
		}
		uri := a.Key("A").Key("URI").RawString()
		if uri == "" {
			continue
		}
		r := a.Key("Rect")
		if r.Len() != 4 {
			continue
		}
		x0, y0, x1, y1 := r.Index(0).Float64(), r.Index(1).Float64(), r.Index(2).Float64(), r.Index(3).Float64()
		links = append(links, linkAnnot{
			uri: uri,
			area: rect{
				x0: math.Min(x0, x1) - left,
				y0: top - math.Max(y0, y1),
				x1: math.Max(x0, x1) - left,
				y1: top - math.Min(y0, y1),
			},
		})
	}
	return links
}

func openReader(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// ValidatePDF runs pdfcpu's relaxed structural validation
func ValidatePDF(data []byte) error {
	disableConfigDir.Do(api.DisableConfigDir)

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return fmt.Errorf("pdf validation failed: %w", err)
	}
	return nil
}

// IsPDFData checks for the %PDF- magic number near the start of the data
func IsPDFData(data []byte) bool {
	head := data
	if len(head) > HeaderSearchSize {
		head = head[:HeaderSearchSize]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
