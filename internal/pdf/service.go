package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/compress"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/engine"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/merge"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/pagerange"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/redact"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/security"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/sensitive"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/split"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/textpos"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/wrapper"
)

const (
	DefaultMaxMergeFiles = 50
	DefaultScanWorkers   = 4
	maxFileSizeLimit     = 1024 * 1024 * 1024 // 1GB
)

// ServiceConfig configures a Service
type ServiceConfig struct {
	// Fs defaults to the OS filesystem
	Fs afero.Fs

	// InputDir confines every input path
	InputDir string

	// OutputDir receives one directory per job; defaults to InputDir/output
	OutputDir string

	MaxFileSize   int64
	MaxMergeFiles int
	ScanWorkers   int

	// TextBackend is native, ledongthuc or auto
	TextBackend string

	// DefaultColor is used when a redaction request names no color
	DefaultColor string

	// Backend defaults to the pdfcpu backend
	Backend document.Backend
}

// Service handles PDF file operations: it resolves and validates paths,
// reads inputs, runs the engine and writes outputs.
type Service struct {
	fs            afero.Fs
	cfg           ServiceConfig
	engine        *engine.Engine
	validator     *Validator
	search        *Search
	pathValidator *security.PathValidator
	defaultColor  redact.Color
	serverInfo    *PDFServerInfo
}

// NewService creates a new PDF service with all components
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.OutputDir == "" && cfg.InputDir != "" {
		cfg.OutputDir = filepath.Join(cfg.InputDir, "output")
	}
	if cfg.MaxMergeFiles <= 0 {
		cfg.MaxMergeFiles = DefaultMaxMergeFiles
	}
	if cfg.ScanWorkers <= 0 {
		cfg.ScanWorkers = DefaultScanWorkers
	}
	if cfg.Backend == nil {
		cfg.Backend = wrapper.NewBackend()
	}

	pathValidator, err := security.NewPathValidator(cfg.Fs, cfg.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	backendType, err := textpos.ParseBackendType(cfg.TextBackend)
	if err != nil {
		return nil, err
	}
	extractor, err := textpos.NewExtractor(backendType)
	if err != nil {
		return nil, err
	}
	cfg.TextBackend = string(backendType)

	color, err := redact.ParseColor(cfg.DefaultColor)
	if err != nil {
		return nil, err
	}
	cfg.DefaultColor = string(color)

	validator := NewValidator(cfg.Fs, cfg.MaxFileSize, cfg.Backend)
	s := &Service{
		fs:            cfg.Fs,
		cfg:           cfg,
		engine:        engine.New(cfg.Backend, extractor),
		validator:     validator,
		search:        NewSearch(cfg.Fs, validator),
		pathValidator: pathValidator,
		defaultColor:  color,
	}
	s.serverInfo = NewPDFServerInfo(s)

	if err := s.ValidateConfiguration(); err != nil {
		return nil, err
	}
	return s, nil
}

// ValidateConfiguration validates the service configuration
func (s *Service) ValidateConfiguration() error {
	var err error
	if s.cfg.MaxFileSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("maxFileSize must be greater than 0"))
	}
	if s.cfg.MaxFileSize > maxFileSizeLimit {
		err = multierr.Append(err, fmt.Errorf("maxFileSize cannot exceed 1GB"))
	}
	if s.cfg.MaxMergeFiles < merge.MinDocuments {
		err = multierr.Append(err, fmt.Errorf("maxMergeFiles must be at least %d", merge.MinDocuments))
	}
	return err
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// Config returns the effective configuration
func (s *Service) Config() ServiceConfig {
	return s.cfg
}

// input resolves, validates and reads an input file
func (s *Service) input(path string) (engine.Source, error) {
	resolved, err := s.pathValidator.SanitizePath(path)
	if err != nil {
		return engine.Source{}, fmt.Errorf("security validation failed: %w", err)
	}
	data, err := s.validator.ReadFile(resolved)
	if err != nil {
		return engine.Source{}, err
	}
	return engine.Source{Name: resolved, Data: data}, nil
}

func (s *Service) newJob() (*jobWriter, error) {
	return newJobWriter(s.fs, s.cfg.OutputDir)
}

// PDFMerge concatenates the given files in order into one PDF
func (s *Service) PDFMerge(req PDFMergeRequest, progress engine.ProgressFunc) (*PDFMergeResult, error) {
	if len(req.Paths) < merge.MinDocuments {
		return nil, errors.New(errors.OpMerge, errors.KindInsufficientInput,
			"merge needs at least %d files, got %d", merge.MinDocuments, len(req.Paths))
	}
	if len(req.Paths) > s.cfg.MaxMergeFiles {
		return nil, fmt.Errorf("too many files to merge: %d (max: %d)", len(req.Paths), s.cfg.MaxMergeFiles)
	}

	sources := make([]engine.Source, len(req.Paths))
	for i, path := range req.Paths {
		src, err := s.input(path)
		if err != nil {
			return nil, err
		}
		sources[i] = src
	}

	data, err := s.engine.Merge(sources, progress)
	if err != nil {
		return nil, err
	}

	merged, err := s.engine.Backend().Load(data)
	if err != nil {
		return nil, errors.Rewrap(errors.OpMerge, err, "merged output cannot be read back")
	}

	job, err := s.newJob()
	if err != nil {
		return nil, err
	}
	out, err := job.write(outputName(req.OutputName, "merged.pdf"), data)
	if err != nil {
		return nil, job.abort(err)
	}

	return &PDFMergeResult{
		Job:        job.job,
		Output:     out,
		InputCount: len(sources),
		PageCount:  merged.PageCount(),
	}, nil
}

// PDFSplit writes one file per selected page
func (s *Service) PDFSplit(req PDFSplitRequest, progress engine.ProgressFunc) (*PDFSplitResult, error) {
	mode := engine.SplitMode{Kind: engine.SplitKind(strings.ToLower(strings.TrimSpace(req.Mode))), Expression: req.Ranges}
	if mode.Kind == engine.SplitExtract {
		mode.Indices = make([]int, len(req.Pages))
		for i, p := range req.Pages {
			mode.Indices[i] = p - 1
		}
	}
	if _, err := mode.Policy(); err != nil {
		return nil, err
	}

	src, err := s.input(req.Path)
	if err != nil {
		return nil, err
	}

	outputs, err := s.engine.Split(src, mode, progress)
	if err != nil {
		return nil, err
	}
	return s.writeSplit(src, outputs)
}

// PDFSplitRanges writes one file per contiguous range
func (s *Service) PDFSplitRanges(req PDFSplitRangesRequest, progress engine.ProgressFunc) (*PDFSplitResult, error) {
	src, err := s.input(req.Path)
	if err != nil {
		return nil, err
	}

	outputs, err := s.engine.SplitRanges(src, pagerange.ParseRanges(req.Ranges), progress)
	if err != nil {
		return nil, err
	}
	return s.writeSplit(src, outputs)
}

func (s *Service) writeSplit(src engine.Source, outputs []split.Output) (*PDFSplitResult, error) {
	job, err := s.newJob()
	if err != nil {
		return nil, err
	}
	files, err := job.writeOutputs(outputs)
	if err != nil {
		return nil, err
	}
	return &PDFSplitResult{Job: job.job, Source: src.Name, Files: files}, nil
}

// PDFCompress rewrites a PDF with compressed object streams
func (s *Service) PDFCompress(req PDFCompressRequest, progress engine.ProgressFunc) (*PDFCompressResult, error) {
	src, err := s.input(req.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Compress(src, compress.Options{RemoveMetadata: req.RemoveMetadata}, progress)
	if err != nil {
		return nil, err
	}

	job, err := s.newJob()
	if err != nil {
		return nil, err
	}
	out, err := job.write(outputName(req.OutputName, derivedName(src.Name, "compressed")), res.Data)
	if err != nil {
		return nil, job.abort(err)
	}

	return &PDFCompressResult{Job: job.job, Source: src.Name, Output: out, Stats: res.Stats}, nil
}

// scanOptions builds matcher options; with no patterns and no keywords
// every built-in pattern is enabled.
func scanOptions(patterns, keywords []string, requireLuhn bool) (engine.ScanOptions, error) {
	kinds, err := sensitive.ParseKinds(patterns)
	if err != nil {
		return engine.ScanOptions{}, errors.Wrap(errors.OpScan, errors.KindInvalidOptions, err, "invalid pattern list")
	}
	if len(kinds) == 0 && len(keywords) == 0 {
		kinds = sensitive.BuiltinKinds
	}
	return engine.ScanOptions{Patterns: kinds, Keywords: keywords, RequireLuhn: requireLuhn}, nil
}

func matchInfos(matches []sensitive.Match) ([]MatchInfo, int) {
	infos := make([]MatchInfo, len(matches))
	pages := make(map[int]bool)
	for i, m := range matches {
		infos[i] = MatchInfo{
			Page:   m.Page + 1,
			Kind:   string(m.Kind),
			Text:   m.Text,
			Masked: sensitive.Mask(m.Kind, m.Text),
			Box:    m.Box,
		}
		pages[m.Page] = true
	}
	return infos, len(pages)
}

func kindNames(opts engine.ScanOptions) []string {
	kinds := sensitive.NewMatcher(opts).Kinds()
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return names
}

// PDFScanSensitive reports sensitive matches without modifying the file
func (s *Service) PDFScanSensitive(req PDFScanRequest) (*PDFScanResult, error) {
	opts, err := scanOptions(req.Patterns, req.Keywords, req.RequireLuhn)
	if err != nil {
		return nil, err
	}
	src, err := s.input(req.Path)
	if err != nil {
		return nil, err
	}
	return s.scan(src, opts)
}

func (s *Service) scan(src engine.Source, opts engine.ScanOptions) (*PDFScanResult, error) {
	matches, err := s.engine.Scan(src, opts)
	if err != nil {
		return nil, err
	}
	infos, pages := matchInfos(matches)
	return &PDFScanResult{
		Path:          src.Name,
		Patterns:      kindNames(opts),
		MatchCount:    len(infos),
		PagesAffected: pages,
		Matches:       infos,
	}, nil
}

type batchOutcome struct {
	index  int
	result *PDFScanResult
	err    error
}

// PDFScanBatch scans several files concurrently, one document per worker.
// Per-file failures are reported alongside the successful results; the call
// fails only when no file could be scanned.
func (s *Service) PDFScanBatch(ctx context.Context, req PDFScanBatchRequest) (*PDFScanBatchResult, error) {
	if len(req.Paths) == 0 {
		return nil, errors.New(errors.OpScan, errors.KindInsufficientInput, "no files to scan")
	}
	opts, err := scanOptions(req.Patterns, req.Keywords, req.RequireLuhn)
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[batchOutcome]().WithMaxGoroutines(s.cfg.ScanWorkers)
	for i, path := range req.Paths {
		p.Go(func() batchOutcome {
			if err := ctx.Err(); err != nil {
				return batchOutcome{index: i, err: err}
			}
			src, err := s.input(path)
			if err != nil {
				return batchOutcome{index: i, err: err}
			}
			res, err := s.scan(src, opts)
			return batchOutcome{index: i, result: res, err: err}
		})
	}
	outcomes := p.Wait()
	sort.Slice(outcomes, func(a, b int) bool { return outcomes[a].index < outcomes[b].index })

	result := &PDFScanBatchResult{Results: []PDFScanResult{}}
	var combined error
	for _, o := range outcomes {
		if o.err != nil {
			path := req.Paths[o.index]
			result.Failures = append(result.Failures, BatchFailure{Path: path, Error: o.err.Error()})
			combined = multierr.Append(combined, fmt.Errorf("%s: %w", path, o.err))
			continue
		}
		result.Results = append(result.Results, *o.result)
		result.TotalMatches += o.result.MatchCount
	}

	if len(result.Results) == 0 {
		return nil, combined
	}
	return result, nil
}

// PDFRedact covers sensitive matches and writes the redacted file. A file
// without matches is still written, unchanged, with zero counts.
func (s *Service) PDFRedact(req PDFRedactRequest, progress engine.ProgressFunc) (*PDFRedactResult, error) {
	opts, err := scanOptions(req.Patterns, req.Keywords, req.RequireLuhn)
	if err != nil {
		return nil, err
	}

	color := s.defaultColor
	if req.Color != "" {
		if color, err = redact.ParseColor(req.Color); err != nil {
			return nil, errors.Wrap(errors.OpRedact, errors.KindInvalidOptions, err, "invalid redaction color")
		}
	}

	src, err := s.input(req.Path)
	if err != nil {
		return nil, err
	}

	res, err := s.engine.Redact(src, engine.RedactOptions{Scan: opts, Color: color}, progress)
	if err != nil {
		return nil, err
	}

	job, err := s.newJob()
	if err != nil {
		return nil, err
	}
	out, err := job.write(outputName(req.OutputName, derivedName(src.Name, "redacted")), res.Data)
	if err != nil {
		return nil, job.abort(err)
	}

	infos, _ := matchInfos(res.Matches)
	return &PDFRedactResult{
		Job:           job.job,
		Source:        src.Name,
		Output:        out,
		Color:         string(color),
		MatchCount:    res.MatchCount,
		PagesAffected: res.PagesAffected,
		Matches:       infos,
	}, nil
}

// PDFDocumentInfo reports page count, page sizes and metadata
func (s *Service) PDFDocumentInfo(req PDFDocumentInfoRequest) (*PDFDocumentInfoResult, error) {
	src, err := s.input(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := s.engine.Inspect(src)
	if err != nil {
		return nil, err
	}

	return &PDFDocumentInfoResult{
		Path:      src.Name,
		Size:      int64(len(src.Data)),
		PageCount: info.PageCount,
		Encrypted: info.Encrypted,
		Metadata:  info.Metadata,
		Pages:     info.Pages,
	}, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	resolved, err := s.pathValidator.SanitizePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(PDFValidateFileRequest{Path: resolved})
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	return s.validator.IsValidPDF(filePath)
}

// PDFSearchDirectory searches for PDF files in a directory
func (s *Service) PDFSearchDirectory(req PDFSearchDirectoryRequest) (*PDFSearchDirectoryResult, error) {
	if req.Directory == "" {
		req.Directory = s.pathValidator.GetConfiguredDirectory()
	} else if !filepath.IsAbs(req.Directory) {
		req.Directory = filepath.Join(s.pathValidator.GetConfiguredDirectory(), req.Directory)
	}

	if err := s.pathValidator.ValidateDirectory(req.Directory); err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	return s.search.SearchDirectory(req)
}

// PDFServerInfo returns server information and usage guidance
func (s *Service) PDFServerInfo(ctx context.Context, serverName, version string) (*PDFServerInfoResult, error) {
	return s.serverInfo.GetServerInfo(ctx, serverName, version, s.pathValidator.GetConfiguredDirectory())
}
