package pdf

import (
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/compress"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/engine"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// OutputFile is a file written by a job
type OutputFile struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Job identifies the output directory of one operation
type Job struct {
	ID        string `json:"job_id"`
	OutputDir string `json:"output_dir"`
}

// MatchInfo is a sensitive match as reported to callers. Page is 1-based.
type MatchInfo struct {
	Page   int      `json:"page"`
	Kind   string   `json:"kind"`
	Text   string   `json:"text"`
	Masked string   `json:"masked"`
	Box    geom.Box `json:"box"`
}

// Request Types

// PDFMergeRequest represents a request to merge PDF files in order
type PDFMergeRequest struct {
	Paths      []string `json:"paths"`
	OutputName string   `json:"output_name,omitempty"`
}

// PDFSplitRequest represents a request to split a PDF into single pages.
// Mode is all, range or extract; Ranges is a page expression such as
// "1-3, 8" and Pages holds 1-based page numbers.
type PDFSplitRequest struct {
	Path   string `json:"path"`
	Mode   string `json:"mode"`
	Ranges string `json:"ranges,omitempty"`
	Pages  []int  `json:"pages,omitempty"`
}

// PDFSplitRangesRequest represents a request to split a PDF into one file
// per contiguous range, e.g. "1-3, 4-6".
type PDFSplitRangesRequest struct {
	Path   string `json:"path"`
	Ranges string `json:"ranges"`
}

// PDFCompressRequest represents a request to compress a PDF
type PDFCompressRequest struct {
	Path           string `json:"path"`
	RemoveMetadata bool   `json:"remove_metadata"`
	OutputName     string `json:"output_name,omitempty"`
}

// PDFScanRequest represents a request to scan a PDF for sensitive data.
// With no patterns and no keywords every built-in pattern is used.
type PDFScanRequest struct {
	Path        string   `json:"path"`
	Patterns    []string `json:"patterns,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	RequireLuhn bool     `json:"require_luhn,omitempty"`
}

// PDFScanBatchRequest represents a request to scan several PDFs
type PDFScanBatchRequest struct {
	Paths       []string `json:"paths"`
	Patterns    []string `json:"patterns,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	RequireLuhn bool     `json:"require_luhn,omitempty"`
}

// PDFRedactRequest represents a request to redact sensitive data
type PDFRedactRequest struct {
	Path        string   `json:"path"`
	Patterns    []string `json:"patterns,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Color       string   `json:"color,omitempty"`
	RequireLuhn bool     `json:"require_luhn,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
}

// PDFDocumentInfoRequest represents a request to inspect a PDF
type PDFDocumentInfoRequest struct {
	Path string `json:"path"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFSearchDirectoryRequest represents a request to search for PDF files in a directory
type PDFSearchDirectoryRequest struct {
	Directory string `json:"directory"`
	Query     string `json:"query"`
}

// PDFServerInfoRequest represents a request to get server information and capabilities
type PDFServerInfoRequest struct{}

// Response Types

// PDFMergeResult represents the result of a merge
type PDFMergeResult struct {
	Job
	Output     OutputFile `json:"output"`
	InputCount int        `json:"input_count"`
	PageCount  int        `json:"page_count"`
}

// PDFSplitResult represents the result of a split
type PDFSplitResult struct {
	Job
	Source string       `json:"source"`
	Files  []OutputFile `json:"files"`
}

// PDFCompressResult represents the result of a compression
type PDFCompressResult struct {
	Job
	Source string         `json:"source"`
	Output OutputFile     `json:"output"`
	Stats  compress.Stats `json:"stats"`
}

// PDFScanResult represents the result of a sensitive data scan
type PDFScanResult struct {
	Path          string      `json:"path"`
	Patterns      []string    `json:"patterns"`
	MatchCount    int         `json:"match_count"`
	PagesAffected int         `json:"pages_affected"`
	Matches       []MatchInfo `json:"matches"`
}

// BatchFailure records a document a batch scan could not process
type BatchFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// PDFScanBatchResult represents the result of a batch scan
type PDFScanBatchResult struct {
	Results      []PDFScanResult `json:"results"`
	Failures     []BatchFailure  `json:"failures,omitempty"`
	TotalMatches int             `json:"total_matches"`
}

// PDFRedactResult represents the result of a redaction
type PDFRedactResult struct {
	Job
	Source        string      `json:"source"`
	Output        OutputFile  `json:"output"`
	Color         string      `json:"color"`
	MatchCount    int         `json:"match_count"`
	PagesAffected int         `json:"pages_affected"`
	Matches       []MatchInfo `json:"matches"`
}

// PDFDocumentInfoResult represents page and metadata information
type PDFDocumentInfoResult struct {
	Path      string            `json:"path"`
	Size      int64             `json:"size"`
	PageCount int               `json:"page_count"`
	Encrypted bool              `json:"encrypted"`
	Metadata  document.Metadata `json:"metadata"`
	Pages     []engine.PageInfo `json:"pages"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Message string `json:"message,omitempty"`
}

// PDFSearchDirectoryResult represents the result of a PDF search operation
type PDFSearchDirectoryResult struct {
	Files       []FileInfo `json:"files"`
	TotalCount  int        `json:"total_count"`
	Directory   string     `json:"directory"`
	SearchQuery string     `json:"search_query,omitempty"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	OutputDirectory   string     `json:"output_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	MaxMergeFiles     int        `json:"max_merge_files"`
	TextBackend       string     `json:"text_backend"`
	DocumentBackend   string     `json:"document_backend"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	UsageGuidance     string     `json:"usage_guidance"`
	PatternKinds      []string   `json:"pattern_kinds"`
	RedactionColors   []string   `json:"redaction_colors"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}
