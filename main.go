package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fmuoria/resume-tailor/internal/agent"
	"github.com/fmuoria/resume-tailor/internal/api"
	"github.com/fmuoria/resume-tailor/internal/config"
	"github.com/fmuoria/resume-tailor/internal/models"
)

var errBatchSources = errors.New("-batch and -gmail cannot be combined: Gmail ingest clears the uploads directory before downloading")

func main() {
	var (
		batchDir   = flag.String("batch", "", "Parse every PDF in `dir` and write blocks and PDFs to the output directory")
		subject    = flag.String("gmail", "", "Fetch PDF attachments of messages matching `subject` into the uploads directory and process them")
		configPath = flag.String("config", "", "Read configuration from `path` instead of the default location")
	)
	flag.Parse()

	if err := run(*configPath, *batchDir, *subject); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(configPath, batchDir, subject string) error {
	if err := checkBatchSources(batchDir, subject); err != nil {
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if batchDir != "" {
		cfg.UploadsDir = batchDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resumeAgent, err := agent.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize agent: %w", err)
	}
	defer resumeAgent.Close()

	switch {
	case subject != "":
		results, err := resumeAgent.IngestFromGmail(ctx, subject)
		return reportBatch(os.Stdout, results, err)
	case batchDir != "":
		results, err := resumeAgent.ProcessDirectory(ctx)
		return reportBatch(os.Stdout, results, err)
	}

	fmt.Printf("Starting Resume Tailor on port %s (structuring mode: %s)...\n", cfg.Port, cfg.StructuringMode)
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  POST /parse-resume   - Upload a PDF and get structured blocks\n")
	fmt.Printf("  POST /structure-text - Structure plain text\n")
	fmt.Printf("  POST /export-resume  - Render blocks as PDF or Excel\n")

	return api.NewServer(resumeAgent).ListenAndServe(ctx, ":"+cfg.Port)
}

// checkBatchSources rejects flag combinations that would let Gmail ingest
// clear a directory the user pointed -batch at
func checkBatchSources(batchDir, subject string) error {
	if batchDir != "" && subject != "" {
		return errBatchSources
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

// reportBatch writes the per-file results as JSON, then returns the run error
func reportBatch(w io.Writer, results []models.BatchResult, runErr error) error {
	if len(results) > 0 {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			log.Printf("Failed to write results: %v", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("batch failed: %w", runErr)
	}
	return nil
}
