package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/fontmap"
	"github.com/fmuoria/resume-tailor/internal/models"
)

// Flow layout metrics for structured exports, in points on a Letter page
const (
	marginX      = 54.0 // 0.75in
	marginY      = 36.0 // 0.5in
	leading      = 1.2
	nameSize     = 16.0
	contactSize  = 9.0
	sectionSize  = 11.0
	bodySize     = 10.0
	sectionSpace = 6.0
	groupSpace   = 4.0

	skillSeparator = " • "
	certSeparator  = " | "
)

var (
	regularFont = fontmap.Resolve(fontmap.Style{})
	boldFont    = fontmap.Resolve(fontmap.Style{Bold: true})

	emailToken = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)
)

// flow places text top to bottom, breaking pages at the bottom margin
type flow struct {
	m      Measurer
	layout models.Layout
	y      float64
	seq    int
}

// FlowBlocks lays out a structured resume as a Layout that Draw can render.
// Bullet lines carry a leading "●" so the renderer draws them as vectors.
func FlowBlocks(blocks models.Blocks, m Measurer) models.Layout {
	f := &flow{m: m, layout: models.Layout{Pages: []models.Page{}}}
	f.newPage()

	for _, b := range blocks {
		switch v := b.(type) {
		case models.ContactInfo:
			f.contact(v)
		case models.SectionTitle:
			f.section(v.Text)
		case models.Text:
			f.paragraph(v.Text, regularFont, bodySize)
		case models.ExperienceGroup:
			if v.Title != "" {
				f.paragraph(v.Title, boldFont, bodySize)
			}
			f.paragraph(v.Header, regularFont, bodySize)
			for _, bullet := range v.Bullets {
				f.bullet(bullet, bodySize)
			}
			f.y += groupSpace
		case models.EducationGroup:
			f.paragraph(v.Degree, boldFont, bodySize)
			for _, d := range v.Details {
				f.paragraph(d, regularFont, bodySize)
			}
			f.y += groupSpace
		case models.SkillsGroup:
			f.paragraph(strings.Join(v.Skills, skillSeparator), regularFont, bodySize)
			f.y += groupSpace
		case models.CertificatesGroup:
			f.bullet(strings.Join(v.Certificates, certSeparator), bodySize)
			f.y += groupSpace
		case models.ProjectGroup:
			f.paragraph(v.Title, boldFont, bodySize)
			for _, bullet := range v.Bullets {
				f.bullet(bullet, bodySize)
			}
			f.y += groupSpace
		}
	}

	return f.layout
}

func (f *flow) newPage() {
	f.layout.Pages = append(f.layout.Pages, models.Page{
		PageNumber: len(f.layout.Pages),
		Width:      letterWidth,
		Height:     letterHeight,
		Elements:   []models.TextElement{},
	})
	f.y = marginY
}

func (f *flow) page() *models.Page {
	return &f.layout.Pages[len(f.layout.Pages)-1]
}

// ensure starts a new page when a line of height h would cross the margin
func (f *flow) ensure(h float64) {
	if f.y+h > letterHeight-marginY && len(f.page().Elements) > 0 {
		f.newPage()
	}
}

// width measures s as the renderer will draw it
func (f *flow) width(font fontmap.Font, size float64, s string) float64 {
	return f.m.StringWidth(font, size*ShrinkFactor, s)
}

func (f *flow) place(text string, font fontmap.Font, size, x float64, link string) {
	f.seq++
	f.page().Elements = append(f.page().Elements, models.TextElement{
		ID:       fmt.Sprintf("flow-%d", f.seq),
		Text:     text,
		X:        x,
		Y:        f.y,
		FontName: font.Name(),
		FontSize: size,
		IsBold:   strings.Contains(font.Style, "B"),
		IsItalic: strings.Contains(font.Style, "I"),
		Color:    "#000000",
		Link:     link,
	})
}

func (f *flow) newline(size float64) {
	f.y += size * leading
}

func (f *flow) paragraph(text string, font fontmap.Font, size float64) {
	for _, line := range f.wrap(text, font, size, letterWidth-2*marginX) {
		f.ensure(size * leading)
		f.place(line, font, size, marginX, "")
		f.newline(size)
	}
}

// bullet writes a hanging-indent bullet; continuation lines align with the
// text after the rendered bullet
func (f *flow) bullet(text string, size float64) {
	indent := BulletIndent * size * ShrinkFactor
	lines := f.wrap(text, regularFont, size, letterWidth-2*marginX-indent)
	for i, line := range lines {
		f.ensure(size * leading)
		if i == 0 {
			f.place("● "+line, regularFont, size, marginX, "")
		} else {
			f.place(line, regularFont, size, marginX+indent, "")
		}
		f.newline(size)
	}
}

func (f *flow) section(text string) {
	f.y += sectionSpace
	f.ensure(sectionSize * leading)
	f.place(strings.ToUpper(text), boldFont, sectionSize, marginX, "")
	f.newline(sectionSize)
}

// contact centres the name, then lays the contact lines out as rows of
// bullet-separated tokens, each linked when it looks like an address
func (f *flow) contact(c models.ContactInfo) {
	content := letterWidth - 2*marginX

	if c.Name != "" {
		w := f.width(boldFont, nameSize, c.Name)
		f.ensure(nameSize * leading)
		f.place(c.Name, boldFont, nameSize, marginX+(content-w)/2, "")
		f.newline(nameSize)
	}

	s := contactSize * ShrinkFactor
	gap := 0.4 * s
	sep := BulletIndent * s

	type token struct {
		text  string
		width float64
	}
	var row []token
	rowWidth := 0.0

	flush := func() {
		if len(row) == 0 {
			return
		}
		f.ensure(contactSize * leading)
		x := marginX + (content-rowWidth)/2
		for i, t := range row {
			text := t.text
			if i > 0 {
				x += gap
				text = "• " + t.text
			}
			f.place(text, regularFont, contactSize, x, linkFor(t.text))
			x += t.width
			if i > 0 {
				x += sep
			}
		}
		f.newline(contactSize)
		row, rowWidth = nil, 0
	}

	for _, line := range c.Lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		w := f.width(regularFont, contactSize, line)
		extra := w
		if len(row) > 0 {
			extra += gap + sep
		}
		if len(row) > 0 && rowWidth+extra > content {
			flush()
			extra = w
		}
		row = append(row, token{text: line, width: w})
		rowWidth += extra
	}
	flush()
	f.y += groupSpace
}

// wrap splits text into lines no wider than maxWidth, measured as the
// renderer will draw them
func (f *flow) wrap(text string, font fontmap.Font, size, maxWidth float64) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}
	return f.m.SplitText(font, size*ShrinkFactor, text, maxWidth)
}

// linkFor returns a link target for contact tokens that are addresses
func linkFor(token string) string {
	lower := strings.ToLower(token)
	switch {
	case emailToken.MatchString(token):
		return "mailto:" + token
	case strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://"):
		return token
	case strings.HasPrefix(lower, "www.") ||
		strings.HasPrefix(lower, "linkedin.com/") ||
		strings.HasPrefix(lower, "github.com/"):
		return "https://" + token
	}
	return ""
}
