package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/fmuoria/resume-tailor/internal/agent"
	"github.com/fmuoria/resume-tailor/internal/models"
)

// Server handles HTTP requests
type Server struct {
	agent          *agent.ResumeAgent
	allowedOrigin  string
	maxUploadBytes int64
}

// NewServer creates a new API server
func NewServer(agent *agent.ResumeAgent) *Server {
	cfg := agent.Config()
	return &Server{
		agent:          agent,
		allowedOrigin:  cfg.FrontendURL,
		maxUploadBytes: cfg.MaxUploadBytes(),
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /parse-resume", s.handleParseResume)
	mux.HandleFunc("POST /parse-layout", s.handleParseLayout)
	mux.HandleFunc("POST /readable-text", s.handleReadableText)
	mux.HandleFunc("POST /structure-text", s.handleStructureText)
	mux.HandleFunc("POST /export-resume", s.handleExportResume)
	mux.HandleFunc("POST /export-layout", s.handleExportLayout)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// ListenAndServe serves the API on addr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is cancelled. It returns once
// in-flight requests have finished.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	return serve(ctx, ln, s.Router())
}

func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h}

	shutdown := make(chan error, 1)
	go func() {
		<-ctx.Done()
		log.Printf("Shutting down...")
		shutdown <- srv.Shutdown(context.Background())
	}()

	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	if err := <-shutdown; err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// handleRoot provides API information
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"service": "Resume Tailor",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /parse-resume":   "Upload a PDF resume (multipart field 'file') and get structured blocks",
			"POST /parse-layout":   "Upload a PDF and get its positioned text layout",
			"POST /readable-text":  "Turn a layout into readable text with a line map",
			"POST /structure-text": "Structure plain resume text into blocks",
			"POST /export-resume":  "Render blocks as PDF, or as an Excel workbook with ?format=xlsx",
			"POST /export-layout":  "Render a layout back to PDF",
			"GET /health":          "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"mode":   s.agent.Config().StructuringMode,
	})
}

// handleParseResume runs the full pipeline on an uploaded PDF
func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	result, err := s.agent.ParseResume(r.Context(), data)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, models.ParseResponse{
		Blocks:   result.Blocks,
		Source:   result.Source,
		Warnings: result.Warnings,
	})
}

// handleParseLayout extracts the positioned text of an uploaded PDF
func (s *Server) handleParseLayout(w http.ResponseWriter, r *http.Request) {
	data, err := s.readUpload(w, r)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	layout, err := s.agent.ExtractLayout(data)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, layout)
}

func (s *Server) handleReadableText(w http.ResponseWriter, r *http.Request) {
	var layout models.Layout
	if err := s.decodeBody(w, r, &layout); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, s.agent.ReadableText(layout))
}

func (s *Server) handleStructureText(w http.ResponseWriter, r *http.Request) {
	var req models.StructureRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.respondFailure(w, err)
		return
	}
	if req.Text == nil {
		s.respondFailure(w, &models.UnsupportedInputError{Reason: "text is required"})
		return
	}

	resp, err := s.agent.Structure(r.Context(), *req.Text)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleExportResume(w http.ResponseWriter, r *http.Request) {
	var doc struct {
		Blocks *models.Blocks `json:"blocks"`
	}
	if err := s.decodeBody(w, r, &doc); err != nil {
		s.respondFailure(w, err)
		return
	}
	if doc.Blocks == nil {
		s.respondFailure(w, &models.UnsupportedInputError{Reason: "blocks is required"})
		return
	}

	var buf bytes.Buffer
	switch format := strings.ToLower(r.URL.Query().Get("format")); format {
	case "", "pdf":
		if err := s.agent.RenderBlocks(*doc.Blocks, &buf); err != nil {
			s.respondFailure(w, err)
			return
		}
		s.respondFile(w, "application/pdf", "resume.pdf", buf.Bytes())
	case "xlsx":
		if err := s.agent.ExportExcel(*doc.Blocks, &buf); err != nil {
			s.respondFailure(w, err)
			return
		}
		s.respondFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "resume.xlsx", buf.Bytes())
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported format %q", format))
	}
}

func (s *Server) handleExportLayout(w http.ResponseWriter, r *http.Request) {
	var layout models.Layout
	if err := s.decodeBody(w, r, &layout); err != nil {
		s.respondFailure(w, err)
		return
	}

	var buf bytes.Buffer
	if err := s.agent.RenderLayout(layout, &buf); err != nil {
		s.respondFailure(w, err)
		return
	}
	s.respondFile(w, "application/pdf", "resume.pdf", buf.Bytes())
}

// readUpload returns the bytes of the multipart "file" field
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		return nil, &models.UnsupportedInputError{Reason: "failed to parse form", Err: err}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &models.UnsupportedInputError{Reason: "file is required", Err: err}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	log.Printf("Received %s (%d bytes)", header.Filename, len(data))
	return data, nil
}

// decodeBody decodes a JSON request body into v
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &models.UnsupportedInputError{Reason: "invalid JSON body", Err: err}
	}
	return nil
}

// statusFor maps pipeline error kinds to HTTP status codes
func statusFor(err error) int {
	var (
		inputErr  *models.UnsupportedInputError
		oracleErr *models.SemanticOracleError
		renderErr *models.RenderError
	)
	switch {
	case errors.As(err, &inputErr):
		return http.StatusBadRequest
	case errors.As(err, &oracleErr):
		return http.StatusBadGateway
	case errors.As(err, &renderErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// respondFailure logs err and sends it with the matching status
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	status := statusFor(err)
	log.Printf("Request failed (%d): %v", status, err)
	s.respondError(w, status, err.Error())
}

// respondFile sends a binary attachment
func (s *Server) respondFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// corsMiddleware allows the configured frontend origin
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" && origin == s.allowedOrigin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("%s %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
	})
}
