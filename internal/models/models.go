package models

// TextElement is one positioned glyph run on a page
type TextElement struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	X        float64 `json:"x"` // left edge, top-left origin
	Y        float64 `json:"y"` // top edge, top-left origin
	FontName string  `json:"font_name"`
	FontSize float64 `json:"font_size"`
	IsBold   bool    `json:"is_bold"`
	IsItalic bool    `json:"is_italic"`
	Color    string  `json:"color"`
	Link     string  `json:"link,omitempty"`
}

// Page holds the elements of one page in extraction order
type Page struct {
	PageNumber int           `json:"page_number"`
	Width      float64       `json:"width"`
	Height     float64       `json:"height"`
	Elements   []TextElement `json:"elements"`
}

// Layout is the positional model of a whole PDF
type Layout struct {
	Pages []Page `json:"pages"`
}

// ElementCount returns the number of elements across all pages
func (l Layout) ElementCount() int {
	n := 0
	for _, p := range l.Pages {
		n += len(p.Elements)
	}
	return n
}

// ReadableText is reading-order text plus, per line, the ids of the
// elements that make it up
type ReadableText struct {
	Text    string     `json:"text"`
	LineMap [][]string `json:"line_map"`
}

// LineType is the semantic tag assigned to one text line
type LineType string

const (
	LineSectionTitle LineType = "section_title"
	LineBullet       LineType = "bullet"
	LineDate         LineType = "date_line"
	LineContact      LineType = "contact"
	LineText         LineType = "text"
)

// ClassifiedLine pairs a line of text with its tag
type ClassifiedLine struct {
	Text string   `json:"text"`
	Type LineType `json:"type"`
}

// ParseResult is the outcome of running the full pipeline on one PDF
type ParseResult struct {
	Layout   Layout       `json:"layout"`
	Readable ReadableText `json:"readable"`
	Blocks   Blocks       `json:"blocks"`
	Source   string       `json:"source"` // "heuristic" or "oracle"
	Warnings []string     `json:"warnings,omitempty"`
}

// ParseResponse is the body returned by the parse endpoint
type ParseResponse struct {
	Blocks   Blocks   `json:"blocks"`
	Source   string   `json:"source"`
	Warnings []string `json:"warnings,omitempty"`
}

// StructureRequest asks for plain resume text to be structured
type StructureRequest struct {
	Text *string `json:"text"`
}

// OracleSectionsRequest is the line-span form of an oracle request
type OracleSectionsRequest struct {
	Instructions string   `json:"instructions"`
	Lines        []string `json:"lines"`
}

// SectionSpan marks a run of lines belonging to one resume section.
// Line indices are 0-based and EndLine is inclusive.
type SectionSpan struct {
	Type      string `json:"type"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// SectionsResponse is the line-span form of an oracle response
type SectionsResponse struct {
	Sections []SectionSpan `json:"sections"`
}

// BatchResult records what happened to one file in a batch run
type BatchResult struct {
	File       string `json:"file"`
	BlocksPath string `json:"blocks_path,omitempty"`
	PDFPath    string `json:"pdf_path,omitempty"`
	Blocks     int    `json:"blocks"`
	Source     string `json:"source,omitempty"`
	Error      string `json:"error,omitempty"`
}
