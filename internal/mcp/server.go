package mcp

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/a3tai/mcp-pdf-engine/internal/config"
	"github.com/a3tai/mcp-pdf-engine/internal/descriptions"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/engine"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
)

const (
	progressMethod  = "notifications/progress"
	shutdownTimeout = 10 * time.Second
	maxListedFiles  = 10
	endpointPath    = "/mcp"
	rangesExample   = "1-3, 8, 10-12"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer

	// stdio transport streams
	stdin  io.Reader
	stdout io.Writer
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
	}

	s.registerTools()

	return s, nil
}

func pathOption(description string) mcp.ToolOption {
	return mcp.WithString("path",
		mcp.Required(),
		mcp.Description(description),
	)
}

func scanOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithArray("patterns",
			mcp.Description("Built-in patterns to detect: creditCard, nationalId, phone, email. "+
				"Defaults to all of them when no keywords are given"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("keywords",
			mcp.Description("Custom terms to detect, matched case-insensitively. "+
				"Used when patterns is empty or lists custom"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithBoolean("require_luhn",
			mcp.Description("Only report card numbers with a valid Luhn checksum"),
		),
	}
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_merge",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_merge")),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("PDF files to merge, in order"),
			mcp.Items(map[string]any{"type": "string"}),
			mcp.MinItems(2),
		),
		mcp.WithString("output_name",
			mcp.Description("File name of the merged PDF (default merged.pdf)"),
		),
	), s.handlePDFMerge)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_split",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_split")),
		pathOption("PDF file to split"),
		mcp.WithString("mode",
			mcp.Description("Page selection: all, range or extract"),
			mcp.Enum("all", "range", "extract"),
			mcp.DefaultString("all"),
		),
		mcp.WithString("ranges",
			mcp.Description("Range expression for mode=range, e.g. \""+rangesExample+"\""),
		),
		mcp.WithArray("pages",
			mcp.Description("1-based page numbers for mode=extract"),
			mcp.Items(map[string]any{"type": "integer"}),
		),
	), s.handlePDFSplit)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_split_ranges",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_split_ranges")),
		pathOption("PDF file to split"),
		mcp.WithString("ranges",
			mcp.Required(),
			mcp.Description("Comma separated 1-based inclusive ranges, e.g. \"1-3, 4-10\""),
		),
	), s.handlePDFSplitRanges)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_compress",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_compress")),
		pathOption("PDF file to compress"),
		mcp.WithBoolean("remove_metadata",
			mcp.Description("Blank the document properties and drop XMP metadata"),
		),
		mcp.WithString("output_name",
			mcp.Description("File name of the compressed PDF (default <name>_compressed.pdf)"),
		),
	), s.handlePDFCompress)

	scanTool := append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription("pdf_scan_sensitive")),
		pathOption("PDF file to scan"),
		mcp.WithBoolean("reveal",
			mcp.Description("Show matched values unmasked"),
		),
	}, scanOptions()...)
	s.mcpServer.AddTool(mcp.NewTool("pdf_scan_sensitive", scanTool...), s.handlePDFScanSensitive)

	batchTool := append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription("pdf_scan_batch")),
		mcp.WithArray("paths",
			mcp.Required(),
			mcp.Description("PDF files to scan"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	}, scanOptions()...)
	s.mcpServer.AddTool(mcp.NewTool("pdf_scan_batch", batchTool...), s.handlePDFScanBatch)

	redactTool := append([]mcp.ToolOption{
		mcp.WithDescription(descriptions.GetToolDescription("pdf_redact")),
		pathOption("PDF file to redact"),
		mcp.WithString("color",
			mcp.Description("Box color (default from server configuration)"),
			mcp.Enum("black", "white", "gray"),
		),
		mcp.WithString("output_name",
			mcp.Description("File name of the redacted PDF (default <name>_redacted.pdf)"),
		),
	}, scanOptions()...)
	s.mcpServer.AddTool(mcp.NewTool("pdf_redact", redactTool...), s.handlePDFRedact)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_document_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_document_info")),
		pathOption("PDF file to inspect"),
	), s.handlePDFDocumentInfo)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_validate_file",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_validate_file")),
		pathOption("PDF file to validate"),
	), s.handlePDFValidateFile)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_search_directory",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_search_directory")),
		mcp.WithString("directory",
			mcp.Description("Directory path to search (uses the input directory if empty)"),
		),
		mcp.WithString("query",
			mcp.Description("Optional search query for fuzzy matching"),
		),
	), s.handlePDFSearchDirectory)

	s.mcpServer.AddTool(mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	), s.handlePDFServerInfo)
}

// stringList reads a list argument given either as an array or as a
// comma separated string.
func stringList(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	if str, ok := v.(string); ok {
		var list []string
		for _, part := range strings.Split(str, ",") {
			if part = strings.TrimSpace(part); part != "" {
				list = append(list, part)
			}
		}
		return list, nil
	}
	list, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a list of strings", key)
	}
	return list, nil
}

// intList reads a list of integers given as an array or a comma separated string
func intList(args map[string]any, key string) ([]int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	if str, ok := v.(string); ok {
		parts, _ := stringList(map[string]any{key: str}, key)
		v = parts
	}
	if parts, ok := v.([]string); ok {
		list := make([]int, len(parts))
		for i, p := range parts {
			n, err := cast.ToIntE(p)
			if err != nil {
				return nil, fmt.Errorf("%s must be a list of page numbers", key)
			}
			list[i] = n
		}
		return list, nil
	}
	list, err := cast.ToIntSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%s must be a list of page numbers", key)
	}
	return list, nil
}

func boolArg(args map[string]any, key string) bool {
	return cast.ToBool(args[key])
}

func stringArg(args map[string]any, key string) string {
	return strings.TrimSpace(cast.ToString(args[key]))
}

// progress returns a progress callback forwarding MCP progress
// notifications, or nil when the client supplied no progress token.
func (s *Server) progress(ctx context.Context, request mcp.CallToolRequest) engine.ProgressFunc {
	meta := request.Params.Meta
	if meta == nil || meta.ProgressToken == nil {
		return nil
	}
	token := meta.ProgressToken
	last := -1
	return func(percent int) {
		if percent == last {
			return
		}
		last = percent
		err := s.mcpServer.SendNotificationToClient(ctx, progressMethod, map[string]any{
			"progressToken": token,
			"progress":      percent,
			"total":         100,
		})
		if err != nil && s.config.IsDebug() {
			log.Printf("progress notification dropped: %v", err)
		}
	}
}

// toolError converts a failure into a tool result
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	if s.config.IsDebug() {
		kind := errors.KindOf(err)
		log.Printf("%s failed (%s, user error: %t): %v", tool, kind, kind.IsUserError(), err)
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) logDone(tool string, start time.Time, job string) {
	if !s.config.IsDebug() {
		return
	}
	if job != "" {
		log.Printf("%s finished in %s (job %s)", tool, time.Since(start).Round(time.Millisecond), job)
		return
	}
	log.Printf("%s finished in %s", tool, time.Since(start).Round(time.Millisecond))
}

// Handler functions
func (s *Server) handlePDFMerge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()
	paths, err := stringList(args, "paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFMerge(pdf.PDFMergeRequest{
		Paths:      paths,
		OutputName: stringArg(args, "output_name"),
	}, s.progress(ctx, request))
	if err != nil {
		return s.toolError("pdf_merge", err), nil
	}

	s.logDone("pdf_merge", start, result.ID)
	return mcp.NewToolResultText(s.formatPDFMergeResult(result)), nil
}

func (s *Server) handlePDFSplit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	pages, err := intList(args, "pages")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFSplit(pdf.PDFSplitRequest{
		Path:   path,
		Mode:   stringArg(args, "mode"),
		Ranges: stringArg(args, "ranges"),
		Pages:  pages,
	}, s.progress(ctx, request))
	if err != nil {
		return s.toolError("pdf_split", err), nil
	}

	s.logDone("pdf_split", start, result.ID)
	return mcp.NewToolResultText(s.formatPDFSplitResult(result)), nil
}

func (s *Server) handlePDFSplitRanges(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ranges, err := request.RequireString("ranges")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFSplitRanges(pdf.PDFSplitRangesRequest{Path: path, Ranges: ranges},
		s.progress(ctx, request))
	if err != nil {
		return s.toolError("pdf_split_ranges", err), nil
	}

	s.logDone("pdf_split_ranges", start, result.ID)
	return mcp.NewToolResultText(s.formatPDFSplitResult(result)), nil
}

func (s *Server) handlePDFCompress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()

	result, err := s.pdfService.PDFCompress(pdf.PDFCompressRequest{
		Path:           path,
		RemoveMetadata: boolArg(args, "remove_metadata"),
		OutputName:     stringArg(args, "output_name"),
	}, s.progress(ctx, request))
	if err != nil {
		return s.toolError("pdf_compress", err), nil
	}

	s.logDone("pdf_compress", start, result.ID)
	return mcp.NewToolResultText(s.formatPDFCompressResult(result)), nil
}

// scanArgs reads the options shared by the scan and redact tools
func scanArgs(args map[string]any) (patterns, keywords []string, requireLuhn bool, err error) {
	if patterns, err = stringList(args, "patterns"); err != nil {
		return nil, nil, false, err
	}
	if keywords, err = stringList(args, "keywords"); err != nil {
		return nil, nil, false, err
	}
	return patterns, keywords, boolArg(args, "require_luhn"), nil
}

func (s *Server) handlePDFScanSensitive(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	patterns, keywords, requireLuhn, err := scanArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFScanSensitive(pdf.PDFScanRequest{
		Path:        path,
		Patterns:    patterns,
		Keywords:    keywords,
		RequireLuhn: requireLuhn,
	})
	if err != nil {
		return s.toolError("pdf_scan_sensitive", err), nil
	}

	s.logDone("pdf_scan_sensitive", start, "")
	return mcp.NewToolResultText(s.formatPDFScanResult(result, boolArg(args, "reveal"))), nil
}

func (s *Server) handlePDFScanBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	args := request.GetArguments()
	paths, err := stringList(args, "paths")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	patterns, keywords, requireLuhn, err := scanArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFScanBatch(ctx, pdf.PDFScanBatchRequest{
		Paths:       paths,
		Patterns:    patterns,
		Keywords:    keywords,
		RequireLuhn: requireLuhn,
	})
	if err != nil {
		return s.toolError("pdf_scan_batch", err), nil
	}

	s.logDone("pdf_scan_batch", start, "")
	return mcp.NewToolResultText(s.formatPDFScanBatchResult(result)), nil
}

func (s *Server) handlePDFRedact(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	args := request.GetArguments()
	patterns, keywords, requireLuhn, err := scanArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFRedact(pdf.PDFRedactRequest{
		Path:        path,
		Patterns:    patterns,
		Keywords:    keywords,
		Color:       stringArg(args, "color"),
		RequireLuhn: requireLuhn,
		OutputName:  stringArg(args, "output_name"),
	}, s.progress(ctx, request))
	if err != nil {
		return s.toolError("pdf_redact", err), nil
	}

	s.logDone("pdf_redact", start, result.ID)
	return mcp.NewToolResultText(s.formatPDFRedactResult(result)), nil
}

func (s *Server) handlePDFDocumentInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFDocumentInfo(pdf.PDFDocumentInfoRequest{Path: path})
	if err != nil {
		return s.toolError("pdf_document_info", err), nil
	}

	return mcp.NewToolResultText(s.formatPDFDocumentInfoResult(result)), nil
}

func (s *Server) handlePDFValidateFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("✓ Valid PDF file: %s (%d pages)", result.Path, result.Pages)
	} else {
		responseText = fmt.Sprintf("✗ Invalid PDF file: %s\nReason: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handlePDFSearchDirectory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	result, err := s.pdfService.PDFSearchDirectory(pdf.PDFSearchDirectoryRequest{
		Directory: stringArg(args, "directory"),
		Query:     stringArg(args, "query"),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFSearchDirectoryResult(result)), nil
}

func (s *Server) handlePDFServerInfo(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatPDFServerInfoResult(result)), nil
}

// Format helper functions
func formatSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%d bytes", bytes)
}

func formatJob(job pdf.Job) string {
	return fmt.Sprintf("Job: %s\nOutput directory: %s\n", job.ID, job.OutputDir)
}

func (s *Server) formatPDFMergeResult(result *pdf.PDFMergeResult) string {
	text := fmt.Sprintf("Merged %d files into %s\n", result.InputCount, result.Output.Name)
	text += formatJob(result.Job)
	text += fmt.Sprintf("Output: %s\n", result.Output.Path)
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Size: %s\n", formatSize(result.Output.Size))
	return text
}

func (s *Server) formatPDFSplitResult(result *pdf.PDFSplitResult) string {
	text := fmt.Sprintf("Split %s into %d files\n", result.Source, len(result.Files))
	text += formatJob(result.Job)
	for i, f := range result.Files {
		text += fmt.Sprintf("%d. %s (%s)\n", i+1, f.Name, formatSize(f.Size))
	}
	return text
}

func (s *Server) formatPDFCompressResult(result *pdf.PDFCompressResult) string {
	text := fmt.Sprintf("Compressed %s\n", result.Source)
	text += formatJob(result.Job)
	text += fmt.Sprintf("Output: %s\n", result.Output.Path)
	text += fmt.Sprintf("Original size: %s\n", formatSize(result.Stats.Original))
	text += fmt.Sprintf("Compressed size: %s\n", formatSize(result.Stats.Compressed))
	text += fmt.Sprintf("Saved: %s (%.1f%%)\n", formatSize(result.Stats.Saved), result.Stats.Percent)
	return text
}

func formatMatches(matches []pdf.MatchInfo, reveal bool) string {
	var text string
	for i, m := range matches {
		value := m.Masked
		if reveal {
			value = m.Text
		}
		text += fmt.Sprintf("%d. Page %d, %s: %s at (%.1f, %.1f, %.1f x %.1f)\n",
			i+1, m.Page, m.Kind, value, m.Box.X, m.Box.Y, m.Box.Width, m.Box.Height)
	}
	return text
}

func (s *Server) formatPDFScanResult(result *pdf.PDFScanResult, reveal bool) string {
	text := fmt.Sprintf("Sensitive data scan: %s\n", result.Path)
	text += fmt.Sprintf("Patterns: %s\n", strings.Join(result.Patterns, ", "))
	text += fmt.Sprintf("Matches: %d on %d pages\n", result.MatchCount, result.PagesAffected)
	if result.MatchCount > 0 {
		text += "\n" + formatMatches(result.Matches, reveal)
	}
	return text
}

func (s *Server) formatPDFScanBatchResult(result *pdf.PDFScanBatchResult) string {
	text := fmt.Sprintf("Scanned %d files, %d matches in total\n",
		len(result.Results)+len(result.Failures), result.TotalMatches)
	for _, r := range result.Results {
		text += fmt.Sprintf("\n%s: %d matches on %d pages\n", r.Path, r.MatchCount, r.PagesAffected)
		text += formatMatches(r.Matches, false)
	}
	if len(result.Failures) > 0 {
		text += "\nFailed:\n"
		for _, f := range result.Failures {
			text += fmt.Sprintf("  %s: %s\n", f.Path, f.Error)
		}
	}
	return text
}

func (s *Server) formatPDFRedactResult(result *pdf.PDFRedactResult) string {
	text := fmt.Sprintf("Redacted %s\n", result.Source)
	text += formatJob(result.Job)
	text += fmt.Sprintf("Output: %s\n", result.Output.Path)
	text += fmt.Sprintf("Color: %s\n", result.Color)
	text += fmt.Sprintf("Regions covered: %d on %d pages\n", result.MatchCount, result.PagesAffected)
	if result.MatchCount > 0 {
		text += "\n" + formatMatches(result.Matches, false)
	}
	text += "\nNote: redaction is visual; the covered text remains in the file.\n"
	return text
}

func (s *Server) formatPDFDocumentInfoResult(result *pdf.PDFDocumentInfoResult) string {
	text := "PDF Document Information\n"
	text += fmt.Sprintf("File: %s\n", result.Path)
	text += fmt.Sprintf("Size: %s\n", formatSize(result.Size))
	text += fmt.Sprintf("Pages: %d\n", result.PageCount)
	text += fmt.Sprintf("Encrypted: %t\n", result.Encrypted)

	md := result.Metadata
	for _, field := range []struct{ label, value string }{
		{"Title", md.Title},
		{"Author", md.Author},
		{"Subject", md.Subject},
		{"Keywords", md.Keywords},
		{"Creator", md.Creator},
		{"Producer", md.Producer},
		{"Created", md.CreationDate},
		{"Modified", md.ModDate},
	} {
		if field.value != "" {
			text += fmt.Sprintf("%s: %s\n", field.label, field.value)
		}
	}

	if len(result.Pages) > 0 {
		text += "\nPage sizes (points):\n"
		for i, p := range result.Pages {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more pages\n", len(result.Pages)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %.0f x %.0f\n", p.Page, p.Width, p.Height)
		}
	}
	return text
}

func (s *Server) formatPDFSearchDirectoryResult(result *pdf.PDFSearchDirectoryResult) string {
	text := fmt.Sprintf("Found %d PDF file(s) in %s", result.TotalCount, result.Directory)
	if result.SearchQuery != "" {
		text += fmt.Sprintf(" matching '%s'", result.SearchQuery)
	}
	text += ":\n\n"

	for i, file := range result.Files {
		text += fmt.Sprintf("%d. %s\n", i+1, file.Name)
		text += fmt.Sprintf("   Path: %s\n", file.Path)
		text += fmt.Sprintf("   Size: %s\n", formatSize(file.Size))
		text += fmt.Sprintf("   Modified: %s\n\n", file.ModifiedTime)
	}

	return text
}

func (s *Server) formatPDFServerInfoResult(result *pdf.PDFServerInfoResult) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("📁 Input Directory: %s\n", result.DefaultDirectory)
	text += fmt.Sprintf("📤 Output Directory: %s\n", result.OutputDirectory)
	text += fmt.Sprintf("📏 Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	text += fmt.Sprintf("📚 Max Files per Merge: %d\n", result.MaxMergeFiles)
	text += fmt.Sprintf("⚙️  Backends: %s documents, %s text\n\n", result.DocumentBackend, result.TextBackend)

	if len(result.DirectoryContents) > 0 {
		text += fmt.Sprintf("📂 Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= maxListedFiles {
				text += fmt.Sprintf("   ... and %d more files\n", len(result.DirectoryContents)-maxListedFiles)
				break
			}
			text += fmt.Sprintf("   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		text += "\n"
	} else {
		text += "📂 Directory Contents: No PDF files found in input directory\n\n"
	}

	text += "🛠️  Available Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += fmt.Sprintf("\n🔍 Patterns: %s\n", strings.Join(result.PatternKinds, ", "))
	text += fmt.Sprintf("🎨 Redaction colors: %s\n", strings.Join(result.RedactionColors, ", "))

	text += "\n" + result.UsageGuidance

	return text
}

// Run starts the MCP server in the configured mode and blocks until ctx is
// cancelled or the transport fails.
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves MCP over the server's stdin and stdout
func (s *Server) runStdioMode(ctx context.Context) error {
	if s.config.IsDebug() {
		log.Printf("Starting PDF MCP server in stdio mode")
		log.Printf("PDF directory: %s", s.config.PDFDirectory)
	}

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))

	err := stdio.Listen(ctx, s.stdin, s.stdout)
	if err != nil && !stderrors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over streamable HTTP until ctx is cancelled
func (s *Server) runServerMode(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.config.Address(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	streamable := server.NewStreamableHTTPServer(s.mcpServer, server.WithStreamableHTTPServer(httpServer))

	// a supplied http.Server keeps its own handler
	mux := http.NewServeMux()
	mux.Handle(endpointPath, streamable)
	httpServer.Handler = mux

	log.Printf("Starting PDF MCP server on http://%s%s", s.config.Address(), endpointPath)
	log.Printf("PDF directory: %s", s.config.PDFDirectory)

	errCh := make(chan error, 1)
	go func() {
		errCh <- streamable.Start(s.config.Address())
	}()

	select {
	case err := <-errCh:
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := streamable.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}
