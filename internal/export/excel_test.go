package export

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fmuoria/resume-tailor/internal/models"
	"github.com/xuri/excelize/v2"
)

func sampleBlocks() models.Blocks {
	return models.Blocks{
		models.ContactInfo{Name: "Jane Doe", Lines: []string{"jane@x.com"}},
		models.SectionTitle{Text: "WORK EXPERIENCE"},
		models.ExperienceGroup{
			Company: "Acme",
			Header:  "Acme  2019 - 2021",
			Title:   "Engineer",
			Bullets: []string{"Built APIs"},
		},
		models.SectionTitle{Text: "SKILLS"},
		models.SkillsGroup{Skills: []string{"Go", "SQL"}},
	}
}

func TestExportToExcel(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportToExcel(sampleBlocks(), &buf); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("Failed to open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(resumeSheet)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}

	want := [][]string{
		{"Section", "Kind", "Heading", "Detail"},
		{"", "contact", "Jane Doe", "jane@x.com"},
		{"WORK EXPERIENCE", "experience", "Acme  2019 - 2021", "Engineer"},
		{"WORK EXPERIENCE", "bullet", "Acme", "Built APIs"},
		{"SKILLS", "skill", "", "Go"},
		{"SKILLS", "skill", "", "SQL"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("Unexpected rows:\n%q\nwant\n%q", rows, want)
	}

	skills, err := f.GetRows(skillsSheet)
	if err != nil {
		t.Fatalf("GetRows() failed: %v", err)
	}
	if len(skills) != 3 || skills[1][0] != "Go" || skills[2][0] != "SQL" {
		t.Errorf("Unexpected skills sheet: %q", skills)
	}
}

func TestExportToExcelEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := ExportToExcel(models.Blocks{}, &buf); err != nil {
		t.Fatalf("ExportToExcel() failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("Expected a workbook even for no blocks")
	}
}

func TestFlatten(t *testing.T) {
	rows := flatten(models.Blocks{
		models.Text{Text: "Intro"},
		models.SectionTitle{Text: "EDUCATION"},
		models.EducationGroup{Degree: "BS CS 2019", Details: []string{"Honors"}},
		models.SectionTitle{Text: "PROJECTS"},
		models.ProjectGroup{Title: "Tool 2020", Bullets: []string{"Shipped"}},
		models.CertificatesGroup{Certificates: []string{"AWS"}},
		models.ContactInfo{Name: "Only Name", Lines: []string{}},
	})

	want := []row{
		{section: "", kind: "text", detail: "Intro"},
		{section: "EDUCATION", kind: "education", heading: "BS CS 2019"},
		{section: "EDUCATION", kind: "detail", heading: "BS CS 2019", detail: "Honors"},
		{section: "PROJECTS", kind: "project", heading: "Tool 2020"},
		{section: "PROJECTS", kind: "bullet", heading: "Tool 2020", detail: "Shipped"},
		{section: "PROJECTS", kind: "certificate", detail: "AWS"},
		{section: "PROJECTS", kind: "contact", heading: "Only Name"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("flatten() =\n%+v\nwant\n%+v", rows, want)
	}
}

func TestExportToExcelFile_EnsuresXlsxExtension(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"adds extension", "report", "report.xlsx"},
		{"keeps extension", "report.xlsx", "report.xlsx"},
		{"keeps upper-case extension", "report.XLSX", "report.XLSX"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			got, err := ExportToExcelFile(sampleBlocks(), filepath.Join(dir, tt.path))
			if err != nil {
				t.Fatalf("ExportToExcelFile() failed: %v", err)
			}
			if got != filepath.Join(dir, tt.want) {
				t.Errorf("Expected %s, got %s", filepath.Join(dir, tt.want), got)
			}
			if _, err := os.Stat(got); err != nil {
				t.Errorf("Expected file at %s: %v", got, err)
			}
		})
	}
}

func TestExportToExcelFile_BadDirectory(t *testing.T) {
	_, err := ExportToExcelFile(sampleBlocks(), filepath.Join(t.TempDir(), "missing", "report.xlsx"))
	if err == nil {
		t.Error("Expected error writing into a missing directory")
	}
}
