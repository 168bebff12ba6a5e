package parser

import (
	"strings"

	"github.com/fmuoria/resume-tailor/internal/models"
)

// ContactWindow is how many leading lines are searched for contact lines
const ContactWindow = 5

// SectionKind identifies which sub-parser owns a section
type SectionKind string

const (
	SectionExperience   SectionKind = "experience"
	SectionEducation    SectionKind = "education"
	SectionSkills       SectionKind = "skills"
	SectionCertificates SectionKind = "certificates"
	SectionProjects     SectionKind = "projects"
	SectionContact      SectionKind = "contact_info"
	SectionOther        SectionKind = "other"
)

// sectionParser consumes lines from start until the next section title or
// the end of input, returning its blocks and the next unconsumed index
type sectionParser func(lines []models.ClassifiedLine, start int) (models.Blocks, int)

var sectionParsers = map[SectionKind]sectionParser{
	SectionExperience:   parseExperience,
	SectionEducation:    parseEducation,
	SectionSkills:       parseSkills,
	SectionCertificates: parseCertificates,
	SectionProjects:     parseProjects,
}

// genericHeaders never stand in for a candidate name
var genericHeaders = []string{
	"SUMMARY", "PROFILE", "OBJECTIVE", "ABOUT", "CONTACT", "EXPERIENCE",
	"INTERESTS", "LANGUAGES", "REFERENCES", "PUBLICATIONS", "AWARDS",
}

// SectionKindOf maps a section header to the sub-parser that handles it.
// Headers that match nothing return SectionOther.
func SectionKindOf(header string) SectionKind {
	h := strings.ToUpper(header)
	switch {
	case strings.Contains(h, "WORK") && strings.Contains(h, "EXPERIENCE"):
		return SectionExperience
	case strings.Contains(h, "EDUCATION"):
		return SectionEducation
	case strings.Contains(h, "SKILL"):
		return SectionSkills
	case strings.Contains(h, "CERTIFICATE") || strings.Contains(h, "CERTIFICATION"):
		return SectionCertificates
	case strings.Contains(h, "PROJECT") || strings.Contains(h, "TRAINING"):
		return SectionProjects
	default:
		return SectionOther
	}
}

// Structure walks the classified lines once and groups them into blocks.
// A populated contact_info block is always placed first.
func Structure(lines []models.ClassifiedLine) models.Blocks {
	blocks := models.Blocks{}
	var contact models.ContactInfo

	i := 0
	for i < len(lines) {
		line := lines[i]

		if i == 0 && isNameCandidate(line) {
			contact.Name = line.Text
			i++
			continue
		}

		if i < ContactWindow && line.Type == models.LineContact {
			contact.Lines = append(contact.Lines, line.Text)
			i++
			continue
		}

		if line.Type == models.LineSectionTitle {
			blocks = append(blocks, models.SectionTitle{Text: line.Text})
			parse, ok := sectionParsers[SectionKindOf(line.Text)]
			if !ok {
				i++
				continue
			}
			items, next := parse(lines, i+1)
			blocks = append(blocks, items...)
			i = next
			continue
		}

		blocks = append(blocks, models.Text{Text: line.Text})
		i++
	}

	if contact.Name != "" || len(contact.Lines) > 0 {
		if contact.Lines == nil {
			contact.Lines = []string{}
		}
		blocks = append(models.Blocks{contact}, blocks...)
	}
	return blocks
}

// StructureText classifies newline-joined text and structures it
func StructureText(text string) models.Blocks {
	return Structure(ClassifyText(text))
}

// StructureSection builds the blocks for lines already known to belong to
// one section, as reported by a line-span oracle. A leading section title
// is kept, unless it opens a contact span and looks like a name; later
// titles inside the span are treated as body text.
func StructureSection(kind SectionKind, lines []models.ClassifiedLine) models.Blocks {
	blocks := models.Blocks{}
	if len(lines) == 0 {
		return blocks
	}

	body := lines
	nameFirst := kind == SectionContact && isNameCandidate(lines[0])
	if lines[0].Type == models.LineSectionTitle && !nameFirst {
		blocks = append(blocks, models.SectionTitle{Text: lines[0].Text})
		body = lines[1:]
	}

	flat := make([]models.ClassifiedLine, len(body))
	for i, l := range body {
		if l.Type == models.LineSectionTitle {
			l.Type = models.LineText
		}
		flat[i] = l
	}

	switch kind {
	case SectionContact:
		contact := models.ContactInfo{Lines: []string{}}
		for i, l := range flat {
			if i == 0 && l.Type != models.LineContact && len(blocks) == 0 {
				contact.Name = l.Text
				continue
			}
			contact.Lines = append(contact.Lines, l.Text)
		}
		if contact.Name == "" && len(contact.Lines) == 0 {
			return blocks
		}
		return append(blocks, contact)
	case SectionOther:
		for _, l := range flat {
			blocks = append(blocks, models.Text{Text: l.Text})
		}
		return blocks
	}

	parse, ok := sectionParsers[kind]
	if !ok {
		for _, l := range flat {
			blocks = append(blocks, models.Text{Text: l.Text})
		}
		return blocks
	}
	items, _ := parse(flat, 0)
	return append(blocks, items...)
}

// isNameCandidate reports whether the first line looks like a name: plain
// text, or an all-caps line that is not a recognised section header
func isNameCandidate(line models.ClassifiedLine) bool {
	switch line.Type {
	case models.LineText:
		return true
	case models.LineSectionTitle:
		if SectionKindOf(line.Text) != SectionOther {
			return false
		}
		upper := strings.ToUpper(line.Text)
		for _, h := range genericHeaders {
			if strings.Contains(upper, h) {
				return false
			}
		}
		return true
	}
	return false
}
