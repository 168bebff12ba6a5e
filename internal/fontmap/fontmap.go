// Package fontmap holds the fixed lookup tables shared by the extractor and
// the renderer: style markers in font names, the style to core font table,
// and core font ascents.
package fontmap

import "strings"

// Style is a bold/italic combination
type Style struct {
	Bold   bool
	Italic bool
}

// Font names a core PDF font as family plus style letters ("", "B", "I")
type Font struct {
	Family string
	Style  string
}

// Name returns the PostScript-style name, e.g. "Helvetica-Bold"
func (f Font) Name() string {
	switch f.Style {
	case "B":
		return f.Family + "-Bold"
	case "I":
		return f.Family + "-Oblique"
	case "BI":
		return f.Family + "-BoldOblique"
	}
	return f.Family
}

type marker struct {
	substr string
	bold   bool
	italic bool
}

// styleMarkers are matched case-sensitively against the embedded font name
var styleMarkers = []marker{
	{substr: "Bold", bold: true},
	{substr: "Italic", italic: true},
	{substr: "Oblique", italic: true},
}

// Regular is the fallback for style combinations missing from styleFonts
var Regular = Font{Family: "Helvetica"}

var styleFonts = map[Style]Font{
	{}:             Regular,
	{Bold: true}:   {Family: "Helvetica", Style: "B"},
	{Italic: true}: {Family: "Helvetica", Style: "I"},
}

// DefaultAscent is the Helvetica ascent, used for unknown fonts
const DefaultAscent = 718

// ascents in 1/1000 text space units, keyed by lower-cased name fragment.
// First match wins, so "sans" is listed before "serif" for names such as
// "MicrosoftSansSerif".
var ascents = []struct {
	fragment string
	ascent   float64
}{
	{"courier", 629},
	{"mono", 629},
	{"sans", DefaultAscent},
	{"times", 683},
	{"serif", 683},
	{"georgia", 683},
}

// StyleOf infers bold and italic from substrings of a font name
func StyleOf(fontName string) Style {
	var s Style
	for _, m := range styleMarkers {
		if strings.Contains(fontName, m.substr) {
			s.Bold = s.Bold || m.bold
			s.Italic = s.Italic || m.italic
		}
	}
	return s
}

// Resolve picks the core font for a style, falling back to Regular
func Resolve(s Style) Font {
	if f, ok := styleFonts[s]; ok {
		return f
	}
	return Regular
}

// Ascent returns the ascent of a font name in 1/1000 units
func Ascent(fontName string) float64 {
	lower := strings.ToLower(fontName)
	for _, a := range ascents {
		if strings.Contains(lower, a.fragment) {
			return a.ascent
		}
	}
	return DefaultAscent
}
