package ingestion

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// ResumeFile is a PDF waiting in the uploads directory
type ResumeFile struct {
	Name string // file name without extension
	Path string
}

// FileHandler manages the uploads directory
type FileHandler struct {
	uploadsDir string
}

// NewFileHandler creates a new file handler
func NewFileHandler(uploadsDir string) *FileHandler {
	return &FileHandler{
		uploadsDir: uploadsDir,
	}
}

// Dir returns the uploads directory
func (fh *FileHandler) Dir() string {
	return fh.uploadsDir
}

// SaveUploadedFile saves an uploaded file to the uploads directory. Only the
// base name of filename is used.
func (fh *FileHandler) SaveUploadedFile(filename string, content io.Reader) (string, error) {
	// Ensure uploads directory exists
	if err := os.MkdirAll(fh.uploadsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		name = uuid.NewString() + ".pdf"
	}

	filePath := filepath.Join(fh.uploadsDir, name)
	file, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, content); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// LoadResumes lists the PDF files in the uploads directory, sorted by name
func (fh *FileHandler) LoadResumes() ([]ResumeFile, error) {
	files, err := os.ReadDir(fh.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ResumeFile{}, nil
		}
		return nil, fmt.Errorf("failed to read uploads directory: %w", err)
	}

	resumes := make([]ResumeFile, 0, len(files))
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		filename := file.Name()
		ext := filepath.Ext(filename)
		if !strings.EqualFold(ext, ".pdf") {
			continue
		}

		resumes = append(resumes, ResumeFile{
			Name: strings.TrimSuffix(filename, ext),
			Path: filepath.Join(fh.uploadsDir, filename),
		})
	}

	sort.Slice(resumes, func(i, j int) bool {
		return resumes[i].Name < resumes[j].Name
	})
	return resumes, nil
}

// ClearUploads removes all files from the uploads directory
func (fh *FileHandler) ClearUploads() error {
	if err := os.RemoveAll(fh.uploadsDir); err != nil {
		return fmt.Errorf("failed to clear uploads directory: %w", err)
	}
	return os.MkdirAll(fh.uploadsDir, 0755)
}
