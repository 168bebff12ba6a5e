package parser

import (
	"regexp"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/models"
)

// companyMaxLen caps the company name when the header has no delimiter
const companyMaxLen = 40

var (
	companyDelimiter = regexp.MustCompile(`\s{2,}|,`)
	skillSeparator   = regexp.MustCompile(`[●•]|\s[-*]\s`)
)

func atBoundary(lines []models.ClassifiedLine, i int) bool {
	return i >= len(lines) || lines[i].Type == models.LineSectionTitle
}

func parseExperience(lines []models.ClassifiedLine, start int) (models.Blocks, int) {
	items := models.Blocks{}
	var cur *models.ExperienceGroup

	i := start
	for !atBoundary(lines, i) {
		line := lines[i]
		switch line.Type {
		case models.LineDate:
			if cur != nil {
				items = append(items, *cur)
			}
			cur = &models.ExperienceGroup{
				Company: companyOf(line.Text),
				Header:  line.Text,
				Bullets: []string{},
			}
			if i+1 < len(lines) && lines[i+1].Type == models.LineText {
				cur.Title = lines[i+1].Text
				i++
			}
		case models.LineBullet:
			if cur != nil {
				cur.Bullets = appendBullet(cur.Bullets, line.Text)
			}
		}
		i++
	}

	if cur != nil {
		items = append(items, *cur)
	}
	return items, i
}

func parseEducation(lines []models.ClassifiedLine, start int) (models.Blocks, int) {
	items := models.Blocks{}
	var cur *models.EducationGroup

	i := start
	for !atBoundary(lines, i) {
		line := lines[i]
		if line.Type == models.LineDate || strings.Contains(strings.ToLower(line.Text), "graduated") {
			if cur != nil {
				items = append(items, *cur)
			}
			cur = &models.EducationGroup{Degree: line.Text, Details: []string{}}
			i++
			continue
		}

		if cur != nil && (line.Type == models.LineText || line.Type == models.LineBullet) {
			if d := strings.TrimSpace(StripBullet(line.Text)); d != "" {
				cur.Details = append(cur.Details, d)
			}
		}
		i++
	}

	if cur != nil {
		items = append(items, *cur)
	}
	return items, i
}

func parseSkills(lines []models.ClassifiedLine, start int) (models.Blocks, int) {
	var skills []string

	i := start
	for !atBoundary(lines, i) {
		line := lines[i]
		if line.Type == models.LineText || line.Type == models.LineBullet {
			skills = append(skills, splitSkills(StripBullet(line.Text))...)
		}
		i++
	}

	if len(skills) == 0 {
		return models.Blocks{}, i
	}
	return models.Blocks{models.SkillsGroup{Skills: skills}}, i
}

func parseCertificates(lines []models.ClassifiedLine, start int) (models.Blocks, int) {
	var certs []string

	i := start
	for !atBoundary(lines, i) {
		line := lines[i]
		if line.Type == models.LineText || line.Type == models.LineBullet {
			if c := strings.TrimSpace(StripBullet(line.Text)); c != "" {
				certs = append(certs, c)
			}
		}
		i++
	}

	if len(certs) == 0 {
		return models.Blocks{}, i
	}
	return models.Blocks{models.CertificatesGroup{Certificates: certs}}, i
}

func parseProjects(lines []models.ClassifiedLine, start int) (models.Blocks, int) {
	items := models.Blocks{}
	var cur *models.ProjectGroup

	i := start
	for !atBoundary(lines, i) {
		line := lines[i]
		switch line.Type {
		case models.LineDate:
			if cur != nil {
				items = append(items, *cur)
			}
			cur = &models.ProjectGroup{Title: line.Text, Bullets: []string{}}
		case models.LineBullet:
			if cur != nil {
				cur.Bullets = appendBullet(cur.Bullets, line.Text)
			}
		}
		i++
	}

	if cur != nil {
		items = append(items, *cur)
	}
	return items, i
}

// companyOf takes the first segment of a header split on double spaces or a
// comma, or the first companyMaxLen characters when there is no delimiter
func companyOf(header string) string {
	parts := companyDelimiter.Split(header, -1)
	if len(parts) > 1 {
		return strings.TrimSpace(parts[0])
	}
	r := []rune(header)
	if len(r) > companyMaxLen {
		r = r[:companyMaxLen]
	}
	return strings.TrimSpace(string(r))
}

func appendBullet(bullets []string, text string) []string {
	if b := strings.TrimSpace(StripBullet(text)); b != "" {
		return append(bullets, b)
	}
	return bullets
}

func splitSkills(text string) []string {
	var out []string
	for _, s := range skillSeparator.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
