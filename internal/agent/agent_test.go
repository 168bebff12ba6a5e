package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fmuoria/resume-tailor/internal/config"
	"github.com/fmuoria/resume-tailor/internal/models"
	"github.com/fmuoria/resume-tailor/internal/render"
)

// fakeGenerator replays canned responses in order, repeating the last one
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	closed    bool
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	i := min(f.calls, max(len(f.responses), len(f.errs))-1)
	f.calls++
	var (
		resp string
		err  error
	)
	if i < 0 {
		return "", nil
	}
	if i < len(f.responses) {
		resp = f.responses[i]
	}
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return resp, err
}

func (f *fakeGenerator) Close() error {
	f.closed = true
	return nil
}

const resumeText = "JOHN SMITH\njohn@x.com\nSKILLS\nGo ● SQL"

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.StructuringMode = mode
	cfg.UploadsDir = filepath.Join(t.TempDir(), "uploads")
	cfg.OutputDir = filepath.Join(t.TempDir(), "output")
	return cfg
}

func newTestAgent(t *testing.T, mode string, gen *fakeGenerator) *ResumeAgent {
	t.Helper()
	var a *ResumeAgent
	if gen == nil {
		a = NewResumeAgent(testConfig(t, mode), nil)
	} else {
		a = NewResumeAgent(testConfig(t, mode), gen)
	}
	a.requestDelay = 0
	a.retryBackoff = 0
	return a
}

// TestIsRateLimitError tests the rate limit error detection
func TestIsRateLimitError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
		{
			name:     "ResourceExhausted error",
			err:      errors.New("rpc error: code = ResourceExhausted desc = Resource exhausted"),
			expected: true,
		},
		{
			name:     "HTTP 429 error",
			err:      errors.New("HTTP 429: Too Many Requests"),
			expected: true,
		},
		{
			name:     "Rate limit error",
			err:      errors.New("rate limit exceeded"),
			expected: true,
		},
		{
			name:     "Quota error",
			err:      &models.SemanticOracleError{Reason: "oracle call failed", Err: errors.New("quota exceeded for this project")},
			expected: true,
		},
		{
			name:     "Other error",
			err:      errors.New("connection timeout"),
			expected: false,
		},
		{
			name:     "Invalid JSON error",
			err:      errors.New("failed to parse JSON"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRateLimitError(tt.err)
			if result != tt.expected {
				t.Errorf("isRateLimitError(%v) = %v, want %v", tt.err, result, tt.expected)
			}
		})
	}
}

// TestRateLimitConstants tests that rate limit constants are set correctly
func TestRateLimitConstants(t *testing.T) {
	if requestDelay.Seconds() != 4 {
		t.Errorf("requestDelay = %v, want 4 seconds", requestDelay)
	}

	if maxRetries != 3 {
		t.Errorf("maxRetries = %d, want 3", maxRetries)
	}

	if retryBackoff.Seconds() != 10 {
		t.Errorf("retryBackoff = %v, want 10 seconds", retryBackoff)
	}
}

func TestStructureModes(t *testing.T) {
	oracleBlocks := `{"blocks": [{"type": "text", "text": "from oracle"}]}`

	tests := []struct {
		name       string
		mode       string
		gen        *fakeGenerator
		wantSource string
		wantFirst  models.BlockType
		wantWarn   bool
		wantErr    bool
	}{
		{
			name:       "heuristic",
			mode:       config.ModeHeuristic,
			wantSource: SourceHeuristic,
			wantFirst:  models.BlockContactInfo,
		},
		{
			name:       "oracle",
			mode:       config.ModeOracle,
			gen:        &fakeGenerator{responses: []string{oracleBlocks}},
			wantSource: SourceOracle,
			wantFirst:  models.BlockText,
		},
		{
			name:    "oracle surfaces errors",
			mode:    config.ModeOracle,
			gen:     &fakeGenerator{responses: []string{`{"foo": []}`}},
			wantErr: true,
		},
		{
			name:       "oracle sections",
			mode:       config.ModeOracleSections,
			gen:        &fakeGenerator{responses: []string{`{"sections": [{"type": "contact_info", "start_line": 0, "end_line": 1}, {"type": "skills", "start_line": 2, "end_line": 3}]}`}},
			wantSource: SourceOracle,
			wantFirst:  models.BlockContactInfo,
		},
		{
			name:    "oracle sections without provider",
			mode:    config.ModeOracleSections,
			wantErr: true,
		},
		{
			name:       "fallback not needed",
			mode:       config.ModeOracleWithFallback,
			gen:        &fakeGenerator{responses: []string{oracleBlocks}},
			wantSource: SourceOracle,
			wantFirst:  models.BlockText,
		},
		{
			name:       "fallback on bad response",
			mode:       config.ModeOracleWithFallback,
			gen:        &fakeGenerator{responses: []string{"not json"}},
			wantSource: SourceHeuristic,
			wantFirst:  models.BlockContactInfo,
			wantWarn:   true,
		},
		{
			name:       "fallback on call failure",
			mode:       config.ModeOracleWithFallback,
			gen:        &fakeGenerator{errs: []error{errors.New("connection refused")}},
			wantSource: SourceHeuristic,
			wantFirst:  models.BlockContactInfo,
			wantWarn:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgent(t, tt.mode, tt.gen)
			resp, err := a.Structure(context.Background(), resumeText)
			if tt.wantErr {
				var oracleErr *models.SemanticOracleError
				if !errors.As(err, &oracleErr) {
					t.Fatalf("Expected SemanticOracleError, got %v", err)
				}
				if resp.Blocks != nil {
					t.Errorf("Expected no blocks on error, got %v", resp.Blocks)
				}
				return
			}
			if err != nil {
				t.Fatalf("Structure() failed: %v", err)
			}
			if resp.Source != tt.wantSource {
				t.Errorf("Expected source %s, got %s", tt.wantSource, resp.Source)
			}
			if len(resp.Blocks) == 0 || resp.Blocks[0].Type() != tt.wantFirst {
				t.Errorf("Expected first block %s, got %v", tt.wantFirst, resp.Blocks)
			}
			if (len(resp.Warnings) > 0) != tt.wantWarn {
				t.Errorf("Unexpected warnings: %v", resp.Warnings)
			}
		})
	}
}

func TestStructureHeuristicBlocks(t *testing.T) {
	a := newTestAgent(t, config.ModeHeuristic, nil)
	resp, err := a.Structure(context.Background(), resumeText)
	if err != nil {
		t.Fatalf("Structure() failed: %v", err)
	}

	contact, ok := resp.Blocks[0].(models.ContactInfo)
	if !ok || contact.Name != "JOHN SMITH" {
		t.Errorf("Expected contact block with name, got %#v", resp.Blocks[0])
	}
	last, ok := resp.Blocks[len(resp.Blocks)-1].(models.SkillsGroup)
	if !ok || strings.Join(last.Skills, ",") != "Go,SQL" {
		t.Errorf("Expected skills group, got %#v", resp.Blocks[len(resp.Blocks)-1])
	}
}

func writeSamplePDF(t *testing.T, path string) {
	t.Helper()
	lay := models.Layout{Pages: []models.Page{{
		Width:  612,
		Height: 792,
		Elements: []models.TextElement{
			{ID: "1", Text: "JOHN SMITH", X: 72, Y: 72, FontSize: 16, IsBold: true},
			{ID: "2", Text: "john@x.com", X: 72, Y: 100, FontSize: 10},
			{ID: "3", Text: "SKILLS", X: 72, Y: 130, FontSize: 11, IsBold: true},
			{ID: "4", Text: "Go, SQL", X: 72, Y: 150, FontSize: 10},
		},
	}}}

	var buf bytes.Buffer
	if err := render.NewRenderer().RenderLayout(lay, &buf); err != nil {
		t.Fatalf("Failed to render sample PDF: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestProcessDirectory(t *testing.T) {
	a := newTestAgent(t, config.ModeHeuristic, nil)
	cfg := a.Config()

	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeSamplePDF(t, filepath.Join(cfg.UploadsDir, "alice.pdf"))
	if err := os.WriteFile(filepath.Join(cfg.UploadsDir, "broken.pdf"), []byte("not a pdf"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfg.UploadsDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	var progress []int
	a.SetProgressCallback(func(current, total int, message string) {
		progress = append(progress, current)
	})

	results, err := a.ProcessDirectory(context.Background())
	if err != nil {
		t.Fatalf("ProcessDirectory() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	alice, broken := results[0], results[1]
	if alice.Error != "" {
		t.Fatalf("Unexpected error for alice: %s", alice.Error)
	}
	if alice.Blocks == 0 || alice.Source != SourceHeuristic {
		t.Errorf("Unexpected result %+v", alice)
	}

	data, err := os.ReadFile(alice.BlocksPath)
	if err != nil {
		t.Fatalf("Expected blocks file: %v", err)
	}
	var doc models.BlockDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Blocks file does not decode: %v", err)
	}
	if len(doc.Blocks) != alice.Blocks {
		t.Errorf("Expected %d blocks in file, got %d", alice.Blocks, len(doc.Blocks))
	}

	pdfData, err := os.ReadFile(alice.PDFPath)
	if err != nil {
		t.Fatalf("Expected PDF output: %v", err)
	}
	if !bytes.HasPrefix(pdfData, []byte("%PDF-")) {
		t.Error("Expected PDF output to start with a PDF header")
	}

	if broken.Error == "" {
		t.Error("Expected an error for the broken file")
	}
	if broken.PDFPath != "" || broken.BlocksPath != "" {
		t.Errorf("Expected no outputs for the broken file, got %+v", broken)
	}

	if len(progress) == 0 || progress[len(progress)-1] != 100 {
		t.Errorf("Expected progress to finish at 100, got %v", progress)
	}
}

func TestProcessDirectoryEmpty(t *testing.T) {
	a := newTestAgent(t, config.ModeHeuristic, nil)
	if _, err := a.ProcessDirectory(context.Background()); err == nil {
		t.Error("Expected error for an empty uploads directory")
	}
}

func TestProcessDirectoryCancelled(t *testing.T) {
	a := newTestAgent(t, config.ModeHeuristic, nil)
	cfg := a.Config()
	if err := os.MkdirAll(cfg.UploadsDir, 0755); err != nil {
		t.Fatal(err)
	}
	writeSamplePDF(t, filepath.Join(cfg.UploadsDir, "alice.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := a.ProcessDirectory(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}

func TestStructureWithRetry(t *testing.T) {
	gen := &fakeGenerator{
		responses: []string{"", `{"blocks": []}`},
		errs:      []error{errors.New("HTTP 429: Too Many Requests"), nil},
	}
	a := newTestAgent(t, config.ModeOracle, gen)

	resp, err := a.structureWithRetry(context.Background(), resumeText)
	if err != nil {
		t.Fatalf("structureWithRetry() failed: %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("Expected 2 calls, got %d", gen.calls)
	}
	if resp.Source != SourceOracle {
		t.Errorf("Expected oracle source, got %s", resp.Source)
	}

	gen = &fakeGenerator{errs: []error{errors.New("quota exceeded")}}
	a = newTestAgent(t, config.ModeOracle, gen)
	if _, err := a.structureWithRetry(context.Background(), resumeText); err == nil {
		t.Fatal("Expected error after exhausting retries")
	}
	if gen.calls != maxRetries+1 {
		t.Errorf("Expected %d calls, got %d", maxRetries+1, gen.calls)
	}

	gen = &fakeGenerator{errs: []error{errors.New("connection refused")}}
	a = newTestAgent(t, config.ModeOracle, gen)
	if _, err := a.structureWithRetry(context.Background(), resumeText); err == nil {
		t.Fatal("Expected error")
	}
	if gen.calls != 1 {
		t.Errorf("Expected no retry for other errors, got %d calls", gen.calls)
	}
}

func TestCloseReleasesGenerator(t *testing.T) {
	gen := &fakeGenerator{}
	a := newTestAgent(t, config.ModeOracle, gen)
	if err := a.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}
	if !gen.closed {
		t.Error("Expected generator to be closed")
	}

	if err := newTestAgent(t, config.ModeHeuristic, nil).Close(); err != nil {
		t.Errorf("Close() without generator failed: %v", err)
	}
}
