package oracle

import (
	"sort"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/models"
	"github.com/fmuoria/resume-tailor/internal/parser"
)

// spanKinds maps oracle section types to structurer section kinds
var spanKinds = map[string]parser.SectionKind{
	"contact_info": parser.SectionContact,
	"experience":   parser.SectionExperience,
	"education":    parser.SectionEducation,
	"skills":       parser.SectionSkills,
	"certificates": parser.SectionCertificates,
	"projects":     parser.SectionProjects,
	"training":     parser.SectionProjects,
	"other":        parser.SectionOther,
}

// KindOf maps an oracle section type to a section kind. Unknown types are
// treated as other.
func KindOf(spanType string) parser.SectionKind {
	if kind, ok := spanKinds[strings.ToLower(strings.TrimSpace(spanType))]; ok {
		return kind
	}
	return parser.SectionOther
}

// BlocksFromSpans builds blocks for each span by running the structurer's
// parser for the span's kind over the covered lines. Spans are clamped to
// the line range and taken in start order; overlaps are trimmed so each line
// is used once. Lines no span covers become text blocks.
func BlocksFromSpans(lines []models.ClassifiedLine, spans []models.SectionSpan) models.Blocks {
	blocks := models.Blocks{}
	if len(lines) == 0 {
		return blocks
	}

	ordered := make([]models.SectionSpan, 0, len(spans))
	for _, s := range spans {
		s.StartLine = max(s.StartLine, 0)
		s.EndLine = min(s.EndLine, len(lines)-1)
		if s.StartLine > s.EndLine {
			continue
		}
		ordered = append(ordered, s)
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartLine < ordered[j].StartLine
	})

	cursor := 0
	for _, s := range ordered {
		start := max(s.StartLine, cursor)
		if start > s.EndLine {
			continue
		}
		for ; cursor < start; cursor++ {
			blocks = append(blocks, models.Text{Text: lines[cursor].Text})
		}
		blocks = append(blocks, parser.StructureSection(KindOf(s.Type), lines[start:s.EndLine+1])...)
		cursor = s.EndLine + 1
	}
	for ; cursor < len(lines); cursor++ {
		blocks = append(blocks, models.Text{Text: lines[cursor].Text})
	}

	return blocks
}
