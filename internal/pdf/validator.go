package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/spf13/afero"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
)

// Validator handles PDF file validation operations
type Validator struct {
	fs          afero.Fs
	maxFileSize int64
	backend     document.Backend
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(fs afero.Fs, maxFileSize int64, backend document.Backend) *Validator {
	return &Validator{
		fs:          fs,
		maxFileSize: maxFileSize,
		backend:     backend,
	}
}

// ValidateFile checks that a file exists, is a PDF within the size limit
// and can be opened by both the structural reader and the document backend.
func (v *Validator) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	result := &PDFValidateFileResult{
		Path:  req.Path,
		Valid: false,
	}

	data, err := v.ReadFile(req.Path)
	if err != nil {
		result.Message = err.Error()
		return result, nil //nolint:nilerr // Return result with validation error, not a processing error
	}

	if _, err := pdf.NewReader(bytes.NewReader(data), int64(len(data))); err != nil {
		result.Message = fmt.Sprintf("invalid PDF file: %v", err)
		return result, nil
	}

	doc, err := v.backend.Load(data)
	if err != nil {
		result.Message = err.Error()
		return result, nil
	}

	result.Valid = true
	result.Pages = doc.PageCount()
	return result, nil
}

// ReadFile validates the file's attributes and returns its content
func (v *Validator) ReadFile(filePath string) ([]byte, error) {
	if filePath == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}

	fileInfo, err := v.fs.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("cannot access file: %w", err)
	}

	if err := v.ValidateFileInfo(filePath, fileInfo); err != nil {
		return nil, err
	}

	data, err := afero.ReadFile(v.fs, filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot read file: %w", err)
	}
	return data, nil
}

// IsValidPDF performs a quick check to see if a file is a valid PDF
func (v *Validator) IsValidPDF(filePath string) bool {
	result, err := v.ValidateFile(PDFValidateFileRequest{Path: filePath})
	return err == nil && result.Valid
}

// ValidateFileInfo performs basic validation on file info without opening the PDF
func (v *Validator) ValidateFileInfo(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}

	if !isPDFName(filePath) {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}

	if fileInfo.Size() == 0 {
		return fmt.Errorf("file is empty: %s", filePath)
	}

	if fileInfo.Size() > v.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), v.maxFileSize)
	}

	return nil
}

func isPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
