package render

import (
	"strings"
	"testing"

	"github.com/fmuoria/resume-tailor/internal/fontmap"
	"github.com/fmuoria/resume-tailor/internal/models"
)

// fixedMetrics measures every rune as half the font size
type fixedMetrics struct{}

func (fixedMetrics) StringWidth(_ fontmap.Font, size float64, s string) float64 {
	return 0.5 * size * float64(len([]rune(s)))
}

func (m fixedMetrics) SplitText(font fontmap.Font, size float64, s string, width float64) []string {
	var lines []string
	cur := ""
	for _, w := range strings.Fields(s) {
		if cur != "" && m.StringWidth(font, size, cur+" "+w) > width {
			lines = append(lines, cur)
			cur = w
			continue
		}
		if cur != "" {
			cur += " "
		}
		cur += w
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}

func texts(layout models.Layout) []string {
	var out []string
	for _, p := range layout.Pages {
		for _, el := range p.Elements {
			out = append(out, el.Text)
		}
	}
	return out
}

func TestFlowBlocksOrderAndStyles(t *testing.T) {
	blocks := models.Blocks{
		models.ContactInfo{Name: "Jane Doe", Lines: []string{"jane@x.com"}},
		models.SectionTitle{Text: "Experience"},
		models.ExperienceGroup{
			Company: "Acme",
			Header:  "Acme Corp 2019 - 2021",
			Bullets: []string{"Built pipelines"},
		},
		models.SectionTitle{Text: "SKILLS"},
		models.SkillsGroup{Skills: []string{"Go", "SQL"}},
	}

	layout := FlowBlocks(blocks, fixedMetrics{})
	if len(layout.Pages) != 1 {
		t.Fatalf("Expected 1 page, got %d", len(layout.Pages))
	}

	want := []string{
		"Jane Doe",
		"jane@x.com",
		"EXPERIENCE",
		"Acme Corp 2019 - 2021",
		"● Built pipelines",
		"SKILLS",
		"Go • SQL",
	}
	got := texts(layout)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("Unexpected flow text:\n%s", strings.Join(got, "\n"))
	}

	els := layout.Pages[0].Elements
	if !els[0].IsBold || els[0].FontSize != nameSize {
		t.Errorf("Expected bold name at %v, got %+v", nameSize, els[0])
	}
	if els[1].Link != "mailto:jane@x.com" {
		t.Errorf("Expected mailto link, got %q", els[1].Link)
	}
	if !els[2].IsBold || els[2].FontSize != sectionSize {
		t.Errorf("Expected bold section title, got %+v", els[2])
	}

	for i := 1; i < len(els); i++ {
		if els[i].Y <= els[i-1].Y {
			t.Errorf("Expected element %d below element %d", i, i-1)
		}
	}

	seen := make(map[string]bool)
	for _, el := range els {
		if seen[el.ID] {
			t.Errorf("Duplicate element id %s", el.ID)
		}
		seen[el.ID] = true
	}
}

func TestFlowBlocksBreaksPages(t *testing.T) {
	var blocks models.Blocks
	for i := 0; i < 120; i++ {
		blocks = append(blocks, models.Text{Text: "line"})
	}

	layout := FlowBlocks(blocks, fixedMetrics{})
	if len(layout.Pages) < 2 {
		t.Fatalf("Expected more than one page, got %d", len(layout.Pages))
	}
	if layout.ElementCount() != 120 {
		t.Errorf("Expected 120 elements, got %d", layout.ElementCount())
	}
	for i, p := range layout.Pages {
		if p.PageNumber != i {
			t.Errorf("Expected page number %d, got %d", i, p.PageNumber)
		}
		for _, el := range p.Elements {
			if el.Y+bodySize*leading > letterHeight-marginY+1e-9 {
				t.Errorf("Element on page %d crosses bottom margin at y=%v", i, el.Y)
			}
		}
	}
}

func TestFlowBulletWrapIndent(t *testing.T) {
	long := strings.Repeat("word ", 40)
	layout := FlowBlocks(models.Blocks{
		models.ProjectGroup{Title: "Tool", Bullets: []string{long}},
	}, fixedMetrics{})

	els := layout.Pages[0].Elements
	if len(els) < 3 {
		t.Fatalf("Expected the bullet to wrap, got %d elements", len(els))
	}
	if !strings.HasPrefix(els[1].Text, "● ") {
		t.Errorf("Expected first bullet line to carry a bullet, got %q", els[1].Text)
	}
	indent := marginX + BulletIndent*bodySize*ShrinkFactor
	if !near(els[2].X, indent) {
		t.Errorf("Expected continuation at x=%v, got %v", indent, els[2].X)
	}
	if strings.HasPrefix(els[2].Text, "●") {
		t.Errorf("Continuation line should not carry a bullet: %q", els[2].Text)
	}
}

func TestFlowContactRow(t *testing.T) {
	layout := FlowBlocks(models.Blocks{
		models.ContactInfo{Lines: []string{"jane@x.com", "555-123-4567", "github.com/jane"}},
	}, fixedMetrics{})

	els := layout.Pages[0].Elements
	if len(els) != 3 {
		t.Fatalf("Expected 3 contact tokens, got %d", len(els))
	}
	if els[0].Y != els[1].Y || els[1].Y != els[2].Y {
		t.Error("Expected contact tokens on one row")
	}
	if els[1].Text != "• 555-123-4567" || els[1].Link != "" {
		t.Errorf("Unexpected phone token %+v", els[1])
	}
	if els[2].Link != "https://github.com/jane" {
		t.Errorf("Expected github link, got %q", els[2].Link)
	}
	if els[0].X >= els[1].X || els[1].X >= els[2].X {
		t.Error("Expected tokens left to right")
	}
}

func TestLinkFor(t *testing.T) {
	tests := []struct {
		token string
		want  string
	}{
		{"jane@x.com", "mailto:jane@x.com"},
		{"https://jane.dev", "https://jane.dev"},
		{"www.jane.dev", "https://www.jane.dev"},
		{"linkedin.com/in/jane", "https://linkedin.com/in/jane"},
		{"555-123-4567", ""},
		{"Berlin, Germany", ""},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := linkFor(tt.token); got != tt.want {
				t.Errorf("linkFor(%q) = %q, want %q", tt.token, got, tt.want)
			}
		})
	}
}

func TestRenderBlocksDrawsBulletsAsVectors(t *testing.T) {
	layout := FlowBlocks(models.Blocks{
		models.ProjectGroup{Title: "Tool", Bullets: []string{"Shipped it"}},
	}, fixedMetrics{})

	c := &recordingCanvas{}
	if err := Draw(c, layout); err != nil {
		t.Fatalf("Draw() failed: %v", err)
	}
	if len(c.byKind("circle")) != 1 {
		t.Errorf("Expected 1 vector bullet, got %d", len(c.byKind("circle")))
	}
	for _, o := range c.byKind("text") {
		if strings.Contains(o.text, "●") {
			t.Errorf("Bullet glyph leaked into text %q", o.text)
		}
	}
}
