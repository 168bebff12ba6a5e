package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fmuoria/resume-tailor/internal/config"
	"github.com/fmuoria/resume-tailor/internal/export"
	"github.com/fmuoria/resume-tailor/internal/ingestion"
	"github.com/fmuoria/resume-tailor/internal/layout"
	"github.com/fmuoria/resume-tailor/internal/llm"
	"github.com/fmuoria/resume-tailor/internal/models"
	"github.com/fmuoria/resume-tailor/internal/oracle"
	"github.com/fmuoria/resume-tailor/internal/parser"
	"github.com/fmuoria/resume-tailor/internal/render"
)

// Batch pacing for oracle-backed runs
const (
	requestDelay = 4 * time.Second
	maxRetries   = 3
	retryBackoff = 10 * time.Second
)

// Structuring sources reported with every result
const (
	SourceHeuristic = "heuristic"
	SourceOracle    = "oracle"
)

// ProgressCallback is called to report progress during processing
type ProgressCallback func(current, total int, message string)

// ResumeAgent runs the resume pipeline: extraction, line assembly,
// structuring and rendering
type ResumeAgent struct {
	FileHandler *ingestion.FileHandler
	cfg         *config.Config
	extractor   *ingestion.Extractor
	renderer    *render.Renderer
	gen         llm.Generator
	oracle      *oracle.Oracle
	mu          sync.RWMutex
	progressCb  ProgressCallback

	requestDelay time.Duration
	retryBackoff time.Duration
}

// NewResumeAgent creates an agent. gen may be nil when the structuring mode
// never calls the oracle.
func NewResumeAgent(cfg *config.Config, gen llm.Generator) *ResumeAgent {
	return &ResumeAgent{
		FileHandler:  ingestion.NewFileHandler(cfg.UploadsDir),
		cfg:          cfg,
		extractor:    ingestion.NewExtractor(),
		renderer:     render.NewRenderer(),
		gen:          gen,
		oracle:       oracle.New(gen),
		requestDelay: requestDelay,
		retryBackoff: retryBackoff,
	}
}

// New creates an agent with the generator selected by cfg
func New(ctx context.Context, cfg *config.Config) (*ResumeAgent, error) {
	gen, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	return NewResumeAgent(cfg, gen), nil
}

// Config returns the configuration the agent was built with
func (a *ResumeAgent) Config() *config.Config {
	return a.cfg
}

// SetProgressCallback sets the progress callback function
func (a *ResumeAgent) SetProgressCallback(cb ProgressCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.progressCb = cb
}

// reportProgress calls the progress callback if set
func (a *ResumeAgent) reportProgress(current, total int, message string) {
	a.mu.RLock()
	cb := a.progressCb
	a.mu.RUnlock()

	if cb != nil {
		cb(current, total, message)
	}
}

// ExtractLayout decodes PDF bytes into a layout
func (a *ResumeAgent) ExtractLayout(data []byte) (models.Layout, error) {
	lay, err := a.extractor.Extract(data)
	if err != nil {
		return models.Layout{}, err
	}
	log.Printf("Extracted %d pages with %d elements", len(lay.Pages), lay.ElementCount())
	return lay, nil
}

// ReadableText assembles a layout into lines of text
func (a *ResumeAgent) ReadableText(lay models.Layout) models.ReadableText {
	return layout.Readable(lay)
}

// Structure turns resume text into blocks using the configured mode
func (a *ResumeAgent) Structure(ctx context.Context, text string) (models.ParseResponse, error) {
	var (
		resp models.ParseResponse
		err  error
	)

	switch a.cfg.StructuringMode {
	case config.ModeOracle:
		resp.Blocks, err = a.oracle.ParseBlocks(ctx, text)
		resp.Source = SourceOracle
	case config.ModeOracleSections:
		resp.Blocks, err = a.oracle.StructureLines(ctx, parser.ClassifyText(text))
		resp.Source = SourceOracle
	case config.ModeOracleWithFallback:
		resp.Blocks, err = a.oracle.ParseBlocks(ctx, text)
		resp.Source = SourceOracle

		var oracleErr *models.SemanticOracleError
		if err != nil && errors.As(err, &oracleErr) && ctx.Err() == nil {
			log.Printf("Warning: falling back to heuristic structuring: %v", err)
			resp = models.ParseResponse{
				Blocks:   parser.StructureText(text),
				Source:   SourceHeuristic,
				Warnings: []string{err.Error()},
			}
			err = nil
		}
	default:
		resp.Blocks = parser.StructureText(text)
		resp.Source = SourceHeuristic
	}

	if err != nil {
		return models.ParseResponse{}, err
	}

	log.Printf("Structured %d blocks via %s", len(resp.Blocks), resp.Source)
	return resp, nil
}

// ParseResume runs the whole pipeline on PDF bytes
func (a *ResumeAgent) ParseResume(ctx context.Context, data []byte) (models.ParseResult, error) {
	lay, err := a.ExtractLayout(data)
	if err != nil {
		return models.ParseResult{}, err
	}

	readable := a.ReadableText(lay)

	resp, err := a.Structure(ctx, readable.Text)
	if err != nil {
		return models.ParseResult{}, err
	}

	return models.ParseResult{
		Layout:   lay,
		Readable: readable,
		Blocks:   resp.Blocks,
		Source:   resp.Source,
		Warnings: resp.Warnings,
	}, nil
}

// RenderLayout writes the layout as a PDF
func (a *ResumeAgent) RenderLayout(lay models.Layout, w io.Writer) error {
	return a.renderer.RenderLayout(lay, w)
}

// RenderBlocks lays out and writes a structured resume as a PDF
func (a *ResumeAgent) RenderBlocks(blocks models.Blocks, w io.Writer) error {
	return a.renderer.RenderBlocks(blocks, w)
}

// ExportExcel writes a structured resume as an Excel workbook
func (a *ResumeAgent) ExportExcel(blocks models.Blocks, w io.Writer) error {
	return export.ExportToExcel(blocks, w)
}

// ProcessDirectory parses every PDF in the uploads directory and writes
// <name>.blocks.json and <name>.pdf into the output directory. A failed file
// is recorded in its result and the run continues.
func (a *ResumeAgent) ProcessDirectory(ctx context.Context) ([]models.BatchResult, error) {
	a.reportProgress(0, 100, "Loading resumes...")

	resumes, err := a.FileHandler.LoadResumes()
	if err != nil {
		return nil, fmt.Errorf("failed to load resumes: %w", err)
	}
	if len(resumes) == 0 {
		return nil, fmt.Errorf("no PDF resumes found in %s", a.FileHandler.Dir())
	}

	if err := os.MkdirAll(a.cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	log.Printf("Found %d resumes to process", len(resumes))

	results := make([]models.BatchResult, 0, len(resumes))
	for i, resume := range resumes {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		if i > 0 && a.cfg.NeedsOracle() {
			if err := sleep(ctx, a.requestDelay); err != nil {
				return results, err
			}
		}

		progress := 100 * i / len(resumes)
		a.reportProgress(progress, 100, fmt.Sprintf("Processing %s (%d/%d)", resume.Name, i+1, len(resumes)))
		log.Printf("Processing resume %d/%d: %s", i+1, len(resumes), resume.Name)

		result := a.processFile(ctx, resume)
		if result.Error != "" {
			log.Printf("Failed to process %s: %s", resume.Name, result.Error)
		}
		results = append(results, result)
	}

	a.reportProgress(100, 100, "Processing complete!")
	return results, nil
}

func (a *ResumeAgent) processFile(ctx context.Context, resume ingestion.ResumeFile) models.BatchResult {
	result := models.BatchResult{File: resume.Path}

	data, err := os.ReadFile(resume.Path)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	lay, err := a.ExtractLayout(data)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	resp, err := a.structureWithRetry(ctx, a.ReadableText(lay).Text)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Blocks = len(resp.Blocks)
	result.Source = resp.Source

	doc, err := json.MarshalIndent(models.BlockDocument{Blocks: resp.Blocks}, "", "  ")
	if err != nil {
		result.Error = fmt.Sprintf("failed to marshal blocks: %v", err)
		return result
	}
	blocksPath := filepath.Join(a.cfg.OutputDir, resume.Name+".blocks.json")
	if err := os.WriteFile(blocksPath, doc, 0644); err != nil {
		result.Error = fmt.Sprintf("failed to write blocks: %v", err)
		return result
	}
	result.BlocksPath = blocksPath

	var buf bytes.Buffer
	if err := a.RenderBlocks(resp.Blocks, &buf); err != nil {
		result.Error = err.Error()
		return result
	}
	pdfPath := filepath.Join(a.cfg.OutputDir, resume.Name+".pdf")
	if err := os.WriteFile(pdfPath, buf.Bytes(), 0644); err != nil {
		result.Error = fmt.Sprintf("failed to write PDF: %v", err)
		return result
	}
	result.PDFPath = pdfPath

	return result
}

// structureWithRetry retries rate-limited oracle calls with a linear backoff
func (a *ResumeAgent) structureWithRetry(ctx context.Context, text string) (models.ParseResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			wait := a.retryBackoff * time.Duration(attempt)
			log.Printf("Rate limited, retrying in %v (attempt %d/%d)", wait, attempt, maxRetries)
			if err := sleep(ctx, wait); err != nil {
				return models.ParseResponse{}, err
			}
		}

		resp, err := a.Structure(ctx, text)
		if err == nil {
			return resp, nil
		}
		if !isRateLimitError(err) {
			return models.ParseResponse{}, err
		}
		lastErr = err
	}
	return models.ParseResponse{}, fmt.Errorf("giving up after %d retries: %w", maxRetries, lastErr)
}

// IngestFromGmail downloads PDF attachments of messages matching subject
// into the uploads directory and processes them
func (a *ResumeAgent) IngestFromGmail(ctx context.Context, subject string) ([]models.BatchResult, error) {
	a.reportProgress(0, 100, "Initializing Gmail handler...")

	gmailHandler, err := ingestion.NewGmailHandler(ctx, a.cfg.GmailCredentialsPath, a.cfg.GmailTokenPath, a.FileHandler.Dir(),
		func(current, total int, message string) {
			if total > 0 {
				a.reportProgress(40*current/total, 100, message)
			}
		})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gmail handler: %w", err)
	}

	a.reportProgress(5, 100, "Clearing existing uploads...")
	if err := a.FileHandler.ClearUploads(); err != nil {
		return nil, fmt.Errorf("failed to clear uploads: %w", err)
	}

	a.reportProgress(10, 100, "Fetching emails from Gmail...")
	files, err := gmailHandler.FetchAttachments(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Gmail attachments: %w", err)
	}
	log.Printf("Downloaded %d resumes from Gmail", len(files))

	return a.ProcessDirectory(ctx)
}

// Close cleans up resources
func (a *ResumeAgent) Close() error {
	if a.gen != nil {
		return a.gen.Close()
	}
	return nil
}

// isRateLimitError reports whether err looks like a quota or rate limit
// rejection from the model backend
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"resourceexhausted", "resource exhausted", "429", "rate limit", "quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
