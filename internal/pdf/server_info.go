package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/a3tai/mcp-pdf-engine/internal/descriptions"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/redact"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/sensitive"
)

// DirectoryCache provides TTL-based caching for directory contents
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	files      []FileInfo
	lastUpdate time.Time
	scanning   bool
}

// LazyDirectoryScanner performs bounded directory scanning
type LazyDirectoryScanner struct {
	fs         afero.Fs
	maxDepth   int
	fileLimit  int
	timeLimit  time.Duration
	skipHidden bool
	skipDirs   map[string]bool
}

// PDFServerInfo assembles server info with a cached directory listing
type PDFServerInfo struct {
	cache   *DirectoryCache
	scanner *LazyDirectoryScanner
	service *Service
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files        []FileInfo
	FromCache    bool
	ScanTime     time.Duration
	FilesScanned int
	Truncated    bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves cached directory contents if valid
func (c *DirectoryCache) Get(path string) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || time.Since(entry.lastUpdate) > c.ttl {
		return nil
	}
	return entry
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, files []FileInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{
		files:      files,
		lastUpdate: time.Now(),
	}
}

// SetScanning marks a directory as currently being scanned
func (c *DirectoryCache) SetScanning(path string, scanning bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[path]
	if !exists {
		entry = &CacheEntry{}
		c.entries[path] = entry
	}
	entry.scanning = scanning
}

// IsScanning checks if a directory is currently being scanned
func (c *DirectoryCache) IsScanning(path string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	return exists && entry.scanning
}

// Invalidate drops the entry for path, e.g. after a job wrote into it
func (c *DirectoryCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// NewLazyDirectoryScanner creates a new lazy directory scanner. Directories
// named in skip are not descended into.
func NewLazyDirectoryScanner(fs afero.Fs, maxDepth, fileLimit int, timeLimit time.Duration, skip ...string) *LazyDirectoryScanner {
	skipDirs := make(map[string]bool, len(skip))
	for _, dir := range skip {
		skipDirs[filepath.Clean(dir)] = true
	}
	return &LazyDirectoryScanner{
		fs:         fs,
		maxDepth:   maxDepth,
		fileLimit:  fileLimit,
		timeLimit:  timeLimit,
		skipHidden: true,
		skipDirs:   skipDirs,
	}
}

// ScanDirectory lists PDF files under root within the scanner's limits
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	result := &ScanResult{Files: []FileInfo{}}

	err := s.scanRecursive(ctx, root, 0, start, result)
	result.ScanTime = time.Since(start)
	return result, err
}

func (s *LazyDirectoryScanner) scanRecursive(ctx context.Context, path string, depth int, start time.Time, result *ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}
	if s.limitReached(start, result) {
		return nil
	}

	entries, err := afero.ReadDir(s.fs, path)
	if err != nil {
		return nil // Skip directories we can't read
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entryPath := filepath.Join(path, entry.Name())
		result.FilesScanned++

		if s.skipHidden && strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if entry.Mode()&os.ModeSymlink != 0 {
			continue
		}

		if entry.IsDir() {
			if s.skipDirs[filepath.Clean(entryPath)] {
				continue
			}
			if err := s.scanRecursive(ctx, entryPath, depth+1, start, result); err != nil {
				return err
			}
			if result.Truncated {
				return nil
			}
			continue
		}

		if !isPDFName(entry.Name()) {
			continue
		}
		result.Files = append(result.Files, FileInfo{
			Name:         entry.Name(),
			Path:         entryPath,
			Size:         entry.Size(),
			ModifiedTime: entry.ModTime().Format("2006-01-02 15:04:05"),
		})
		if s.limitReached(start, result) {
			return nil
		}
	}

	return nil
}

func (s *LazyDirectoryScanner) limitReached(start time.Time, result *ScanResult) bool {
	if (s.fileLimit > 0 && len(result.Files) >= s.fileLimit) ||
		(s.timeLimit > 0 && time.Since(start) > s.timeLimit) {
		result.Truncated = true
	}
	return result.Truncated
}

// NewPDFServerInfo creates a new server info handler
func NewPDFServerInfo(service *Service) *PDFServerInfo {
	return &PDFServerInfo{
		cache: NewDirectoryCache(5 * time.Minute),
		// Job outputs are not listed as inputs
		scanner: NewLazyDirectoryScanner(service.fs, 5, 100, 3*time.Second, service.cfg.OutputDir),
		service: service,
	}
}

// GetServerInfo returns server info with the input directory listing
func (p *PDFServerInfo) GetServerInfo(ctx context.Context, serverName, version, directory string) (*PDFServerInfoResult, error) {
	files := []FileInfo{}

	if cached := p.cache.Get(directory); cached != nil {
		files = cached.files
	} else if !p.cache.IsScanning(directory) {
		p.cache.SetScanning(directory, true)
		scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		result, err := p.scanner.ScanDirectory(scanCtx, directory)
		cancel()
		p.cache.SetScanning(directory, false)

		if err == nil {
			files = result.Files
			p.cache.Set(directory, files)
		}
	}

	cfg := p.service.cfg
	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  directory,
		OutputDirectory:   cfg.OutputDir,
		MaxFileSize:       cfg.MaxFileSize,
		MaxMergeFiles:     cfg.MaxMergeFiles,
		TextBackend:       cfg.TextBackend,
		DocumentBackend:   cfg.Backend.Name(),
		AvailableTools:    p.getAvailableTools(),
		DirectoryContents: files,
		UsageGuidance:     p.getUsageGuidance(),
		PatternKinds:      patternKindNames(),
		RedactionColors:   []string{string(redact.Black), string(redact.White), string(redact.Gray)},
	}, nil
}

func patternKindNames() []string {
	names := make([]string, 0, len(sensitive.BuiltinKinds)+1)
	for _, k := range sensitive.BuiltinKinds {
		names = append(names, string(k))
	}
	return append(names, string(sensitive.Custom))
}

const pathParam = "path (required): PDF file path, absolute or relative to the input directory"

// getAvailableTools returns the list of available tools
func (p *PDFServerInfo) getAvailableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_merge",
			Description: descriptions.GetToolDescription("pdf_merge"),
			Usage:       "Use this tool to combine several PDFs into one, in the order given.",
			Parameters:  "paths (required): two or more PDF paths, output_name (optional): merged file name",
		},
		{
			Name:        "pdf_split",
			Description: descriptions.GetToolDescription("pdf_split"),
			Usage:       "Use this tool to write selected pages as single-page PDFs.",
			Parameters: pathParam + ", mode (optional): all, range or extract, " +
				"ranges (range mode): e.g. \"1-3, 8\", pages (extract mode): 1-based page numbers",
		},
		{
			Name:        "pdf_split_ranges",
			Description: descriptions.GetToolDescription("pdf_split_ranges"),
			Usage:       "Use this tool to cut a PDF into one file per contiguous page range.",
			Parameters:  pathParam + ", ranges (required): e.g. \"1-3, 4-10\"",
		},
		{
			Name:        "pdf_compress",
			Description: descriptions.GetToolDescription("pdf_compress"),
			Usage:       "Use this tool to shrink a PDF and optionally strip its metadata.",
			Parameters:  pathParam + ", remove_metadata (optional): blank Info fields and drop XMP",
		},
		{
			Name:        "pdf_scan_sensitive",
			Description: descriptions.GetToolDescription("pdf_scan_sensitive"),
			Usage:       "Use this tool to preview what a redaction would cover. The file is not modified.",
			Parameters:  pathParam + ", patterns (optional), keywords (optional), require_luhn (optional), reveal (optional)",
		},
		{
			Name:        "pdf_scan_batch",
			Description: descriptions.GetToolDescription("pdf_scan_batch"),
			Usage:       "Use this tool to scan many PDFs at once.",
			Parameters:  "paths (required), patterns (optional), keywords (optional), require_luhn (optional)",
		},
		{
			Name:        "pdf_redact",
			Description: descriptions.GetToolDescription("pdf_redact"),
			Usage:       "Use this tool to draw opaque boxes over sensitive data and save a redacted copy.",
			Parameters:  pathParam + ", patterns (optional), keywords (optional), color (optional): black, white or gray",
		},
		{
			Name:        "pdf_document_info",
			Description: descriptions.GetToolDescription("pdf_document_info"),
			Usage:       "Use this tool to get page count, page sizes and document metadata.",
			Parameters:  pathParam,
		},
		{
			Name:        "pdf_validate_file",
			Description: descriptions.GetToolDescription("pdf_validate_file"),
			Usage:       "Use this tool to check if a file is a valid PDF before processing it.",
			Parameters:  pathParam,
		},
		{
			Name:        "pdf_search_directory",
			Description: descriptions.GetToolDescription("pdf_search_directory"),
			Usage:       "Use this tool to find PDF files in the input directory.",
			Parameters:  "directory (optional): directory to search, query (optional): fuzzy file name filter",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get server capabilities and the input directory contents.",
			Parameters:  "No parameters required",
		},
	}
}

// getUsageGuidance returns usage guidance
func (p *PDFServerInfo) getUsageGuidance() string {
	maxFileSizeMB := p.service.cfg.MaxFileSize / (1024 * 1024)

	return fmt.Sprintf(`PDF Engine MCP Server Usage Guide:

1. FIND AND CHECK FILES:
   - Use 'pdf_search_directory' or 'pdf_server_info' to list input PDFs
   - Use 'pdf_validate_file' and 'pdf_document_info' before processing

2. ASSEMBLE DOCUMENTS:
   - 'pdf_merge' joins files in the order given
   - 'pdf_split' writes single pages (all, a range expression, or explicit pages)
   - 'pdf_split_ranges' writes one file per contiguous range

3. SHRINK:
   - 'pdf_compress' rewrites the file with object streams; set remove_metadata
     to blank the title, author and other document properties

4. FIND AND COVER SENSITIVE DATA:
   - Run 'pdf_scan_sensitive' first to preview matches
   - Then 'pdf_redact' with the same patterns and keywords

IMPORTANT NOTES:
- Page numbers are 1-based
- Every job writes into its own directory under %s
- Redaction is visual: boxes are drawn over the text, but the text itself
  stays in the file and can still be extracted
- The server can handle files up to %dMB`, p.service.cfg.OutputDir, maxFileSizeMB)
}
