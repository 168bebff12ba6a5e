package oracle

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/models"
)

// sectionInstructions accompany every line-span request
const sectionInstructions = `You are a resume analyzer.

You do not change text and you do not rewrite content.

Your task:
- Identify resume sections from the numbered lines.
- Sections start at their header line.
- Sections end immediately before the next section header.

Rules:
- Line numbers are 0-based and end_line is inclusive.
- Contact info may appear at the top or at the bottom.
- If unsure, keep sections smaller rather than larger.
- Do not merge unrelated sections.

Valid section types: contact_info, education, experience, skills, projects,
certificates, training, other.`

// buildBlocksPrompt creates the direct block form request
func buildBlocksPrompt(text string) string {
	var sb strings.Builder

	sb.WriteString("You are a resume parser. Parse the following resume text into a structured JSON format.\n\n")
	sb.WriteString("Return ONLY valid JSON (no markdown, no explanation) with this exact structure:\n")
	sb.WriteString("{\n")
	sb.WriteString(`  "blocks": [` + "\n")
	sb.WriteString(`    {"type": "contact_info", "name": "Full Name", "lines": ["email", "phone", "location", "linkedin", "github"]},` + "\n")
	sb.WriteString(`    {"type": "section_title", "text": "SECTION NAME"},` + "\n")
	sb.WriteString(`    {"type": "experience_group", "title": "Job Title", "header": "Company, Location Dates", "company": "Company Name", "bullets": ["bullet 1"]},` + "\n")
	sb.WriteString(`    {"type": "skills_group", "skills": ["skill1", "skill2"]},` + "\n")
	sb.WriteString(`    {"type": "education_group", "degree": "Degree Name, School", "details": ["additional info"]},` + "\n")
	sb.WriteString(`    {"type": "certificates_group", "certificates": ["cert1", "cert2"]},` + "\n")
	sb.WriteString(`    {"type": "project_group", "title": "Project Name", "bullets": ["bullet 1"]},` + "\n")
	sb.WriteString(`    {"type": "text", "text": "any other line"}` + "\n")
	sb.WriteString("  ]\n")
	sb.WriteString("}\n\n")

	sb.WriteString("Rules:\n")
	sb.WriteString("1. Detect ALL section types: WORK EXPERIENCE, PROFESSIONAL EXPERIENCE, EMPLOYMENT, EDUCATION, SKILLS, CERTIFICATES, PROJECTS, TRAINING\n")
	sb.WriteString("2. Group job experiences with their company/location/dates header, title, and bullet points\n")
	sb.WriteString("3. Extract skills as individual items (split by bullets, pipes, or commas)\n")
	sb.WriteString("4. Keep original section names in section_title blocks\n")
	sb.WriteString("5. Preserve all bullet points exactly as written, without the bullet glyph\n\n")

	sb.WriteString("Resume Text:\n")
	sb.WriteString(text)
	sb.WriteString("\n")

	return sb.String()
}

// buildSectionsPrompt creates the line-span form request. The payload is the
// JSON request shape so line indices stay unambiguous.
func buildSectionsPrompt(lines []string) (string, error) {
	if lines == nil {
		lines = []string{}
	}
	payload, err := json.MarshalIndent(models.OracleSectionsRequest{
		Instructions: sectionInstructions,
		Lines:        lines,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(sectionInstructions)
	sb.WriteString("\n\nReturn JSON ONLY in this format:\n")
	sb.WriteString(`{"sections": [{"type": "experience", "start_line": 10, "end_line": 22}]}`)
	sb.WriteString("\n\nRequest:\n")
	sb.Write(payload)
	sb.WriteString("\n")

	return sb.String(), nil
}
