package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	resumeSheet = "Resume"
	skillsSheet = "Skills"
)

// row is one line of the Resume sheet
type row struct {
	section string
	kind    string
	heading string
	detail  string
}

// ExportToExcel writes a workbook with one row per block item and a sheet
// listing every skill
func ExportToExcel(blocks models.Blocks, w io.Writer) error {
	f, err := buildWorkbook(blocks)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write Excel workbook: %w", err)
	}
	return nil
}

// ExportToExcelFile writes the workbook to outputPath, adding the .xlsx
// extension when missing, and returns the path written
func ExportToExcelFile(blocks models.Blocks, outputPath string) (string, error) {
	if !strings.HasSuffix(strings.ToLower(outputPath), ".xlsx") {
		outputPath = outputPath + ".xlsx"
	}
	outputPath = filepath.Clean(outputPath)

	var buf bytes.Buffer
	if err := ExportToExcel(blocks, &buf); err != nil {
		return "", err
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save Excel file: %w", err)
	}
	return outputPath, nil
}

func buildWorkbook(blocks models.Blocks) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", resumeSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(skillsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create skills sheet: %w", err)
	}

	if err := createResumeSheet(f, resumeSheet, flatten(blocks)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create resume sheet: %w", err)
	}

	if err := createSkillsSheet(f, skillsSheet, collectSkills(blocks)); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create skills sheet: %w", err)
	}

	return f, nil
}

// flatten turns blocks into sheet rows, tagging each with the section title
// it appears under
func flatten(blocks models.Blocks) []row {
	var rows []row
	section := ""

	add := func(kind, heading, detail string) {
		rows = append(rows, row{section: section, kind: kind, heading: heading, detail: detail})
	}

	for _, b := range blocks {
		switch v := b.(type) {
		case models.SectionTitle:
			section = v.Text
		case models.ContactInfo:
			if len(v.Lines) == 0 {
				add("contact", v.Name, "")
			}
			for _, l := range v.Lines {
				add("contact", v.Name, l)
			}
		case models.Text:
			add("text", "", v.Text)
		case models.ExperienceGroup:
			add("experience", v.Header, v.Title)
			for _, bullet := range v.Bullets {
				add("bullet", v.Company, bullet)
			}
		case models.EducationGroup:
			add("education", v.Degree, "")
			for _, d := range v.Details {
				add("detail", v.Degree, d)
			}
		case models.SkillsGroup:
			for _, s := range v.Skills {
				add("skill", "", s)
			}
		case models.CertificatesGroup:
			for _, c := range v.Certificates {
				add("certificate", "", c)
			}
		case models.ProjectGroup:
			add("project", v.Title, "")
			for _, bullet := range v.Bullets {
				add("bullet", v.Title, bullet)
			}
		}
	}

	return rows
}

func collectSkills(blocks models.Blocks) []string {
	var skills []string
	for _, b := range blocks {
		if v, ok := b.(models.SkillsGroup); ok {
			skills = append(skills, v.Skills...)
		}
	}
	return skills
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
}

func createResumeSheet(f *excelize.File, sheetName string, rows []row) error {
	f.SetColWidth(sheetName, "A", "A", 25)
	f.SetColWidth(sheetName, "B", "B", 14)
	f.SetColWidth(sheetName, "C", "C", 40)
	f.SetColWidth(sheetName, "D", "D", 80)

	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return err
	}

	headers := []string{"Section", "Kind", "Heading", "Detail"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}
	f.SetCellStyle(sheetName, "A1", "D1", style)

	for i, r := range rows {
		n := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", n), r.section)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", n), r.kind)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", n), r.heading)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", n), r.detail)
	}
	if len(rows) > 0 {
		f.SetCellStyle(sheetName, "D2", fmt.Sprintf("D%d", len(rows)+1), wrapStyle)
	}

	return f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func createSkillsSheet(f *excelize.File, sheetName string, skills []string) error {
	f.SetColWidth(sheetName, "A", "A", 40)

	style, err := headerStyle(f)
	if err != nil {
		return err
	}

	f.SetCellValue(sheetName, "A1", "Skill")
	f.SetCellStyle(sheetName, "A1", "A1", style)

	for i, s := range skills {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+2), s)
	}
	return nil
}
