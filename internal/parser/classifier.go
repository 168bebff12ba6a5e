// Package parser turns assembled resume lines into semantic blocks: a line
// classifier followed by a single-pass section structurer.
package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/fmuoria/resume-tailor/internal/models"
)

// SectionTitleMaxLen is the exclusive upper bound, in characters, for a line
// to count as a section title
const SectionTitleMaxLen = 60

// bulletGlyphs are the characters that open a bullet line
var bulletGlyphs = []string{"●", "•", "-", "*"}

var (
	monthYearPattern = regexp.MustCompile(`(?i)\b(jan(uary)?|feb(ruary)?|mar(ch)?|apr(il)?|may|june?|july?|aug(ust)?|sep(t|tember)?|oct(ober)?|nov(ember)?|dec(ember)?)\.?,?\s+\d{4}\b`)
	yearRangePattern = regexp.MustCompile(`\b\d{4}\s*[-–]\s*\d{4}\b`)
	yearOpenPattern  = regexp.MustCompile(`(?i)\b\d{4}\s*[-–]?\s*(present|current)\b`)

	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
)

var contactMarkers = []string{"linkedin", "github", "portfolio", "http"}

// Classify tags one non-empty line. Rules are checked in priority order and
// the first match wins.
func Classify(line string) models.LineType {
	text := strings.TrimSpace(line)

	switch {
	case isSectionTitle(text):
		return models.LineSectionTitle
	case isBullet(text):
		return models.LineBullet
	case isDateLine(text):
		return models.LineDate
	case isContact(text):
		return models.LineContact
	default:
		return models.LineText
	}
}

// ClassifyLines classifies every non-blank line of the input
func ClassifyLines(lines []string) []models.ClassifiedLine {
	out := make([]models.ClassifiedLine, 0, len(lines))
	for _, l := range lines {
		text := strings.TrimSpace(l)
		if text == "" {
			continue
		}
		out = append(out, models.ClassifiedLine{Text: text, Type: Classify(text)})
	}
	return out
}

// ClassifyText splits newline-joined text into lines and classifies them
func ClassifyText(text string) []models.ClassifiedLine {
	return ClassifyLines(strings.Split(text, "\n"))
}

func isSectionTitle(text string) bool {
	if utf8.RuneCountInString(text) >= SectionTitleMaxLen {
		return false
	}
	hasUpper := false
	for _, r := range text {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsUpper(r) {
			hasUpper = true
		}
	}
	return hasUpper
}

func isBullet(text string) bool {
	for _, g := range bulletGlyphs {
		if strings.HasPrefix(text, g) {
			return true
		}
	}
	return false
}

func isDateLine(text string) bool {
	return monthYearPattern.MatchString(text) ||
		yearRangePattern.MatchString(text) ||
		yearOpenPattern.MatchString(text)
}

func isContact(text string) bool {
	if emailPattern.MatchString(text) || phonePattern.MatchString(text) {
		return true
	}
	lower := strings.ToLower(text)
	for _, m := range contactMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// StripBullet removes leading bullet glyphs and whitespace
func StripBullet(text string) string {
	return strings.TrimLeftFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == '●' || r == '•' || r == '-' || r == '*'
	})
}
