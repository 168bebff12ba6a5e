// Package layout groups positioned text elements into visual lines.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/models"
)

// LineEpsilon is the largest vertical distance, in layout units, between an
// element and the running line for the element to join that line
const LineEpsilon = 2.0

// Line is one assembled visual line and the elements it came from
type Line struct {
	Page       int
	Text       string
	ElementIDs []string
}

// AssemblePage groups one page's elements into lines. Elements are sorted by
// (y rounded to one decimal, x); an element joins the current line while its
// y is within LineEpsilon of the last element added.
func AssemblePage(page models.Page) []Line {
	elements := make([]models.TextElement, len(page.Elements))
	copy(elements, page.Elements)

	sort.SliceStable(elements, func(i, j int) bool {
		yi, yj := round1(elements[i].Y), round1(elements[j].Y)
		if yi != yj {
			return yi < yj
		}
		return elements[i].X < elements[j].X
	})

	var (
		lines   []Line
		words   []string
		ids     []string
		curY    float64
		started bool
	)
	flush := func() {
		if len(words) == 0 {
			return
		}
		lines = append(lines, Line{Page: page.PageNumber, Text: strings.Join(words, " "), ElementIDs: ids})
		words, ids = nil, nil
	}

	for _, el := range elements {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		if started && math.Abs(el.Y-curY) >= LineEpsilon {
			flush()
		}
		words = append(words, text)
		ids = append(ids, el.ID)
		curY = el.Y
		started = true
	}
	flush()

	return lines
}

// Assemble runs AssemblePage over every page in order
func Assemble(layout models.Layout) []Line {
	var lines []Line
	for _, p := range layout.Pages {
		lines = append(lines, AssemblePage(p)...)
	}
	return lines
}

// Readable flattens a layout into newline-joined text plus the line map
func Readable(layout models.Layout) models.ReadableText {
	lines := Assemble(layout)

	texts := make([]string, len(lines))
	lineMap := make([][]string, len(lines))
	for i, l := range lines {
		texts[i] = l.Text
		lineMap[i] = l.ElementIDs
	}

	return models.ReadableText{
		Text:    strings.Join(texts, "\n"),
		LineMap: lineMap,
	}
}

// Texts returns just the line strings
func Texts(lines []Line) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
