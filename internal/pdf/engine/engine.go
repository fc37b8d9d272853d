// Package engine runs merge, split, compress, scan and redact jobs on
// in-memory document buffers. It has no filesystem or network surface:
// callers hand in bytes and receive bytes or structured results back.
//
// Every job loads its own document graph, so an Engine holds no mutable
// state and may be shared by concurrent jobs on different documents.
package engine

import (
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/compress"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/merge"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/pagerange"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/redact"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/sensitive"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/split"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/textpos"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/wrapper"
)

// ProgressFunc receives completion percentages in [0, 100]
type ProgressFunc = document.ProgressFunc

// Source is one input document
type Source struct {
	Name string
	Data []byte
}

// Engine binds a document backend to a text extractor
type Engine struct {
	backend   document.Backend
	extractor textpos.Extractor
}

// New creates an engine. A nil extractor selects the auto text backend.
func New(backend document.Backend, extractor textpos.Extractor) *Engine {
	if extractor == nil {
		extractor = textpos.AutoExtractor{Primary: textpos.NativeExtractor{}, Fallback: textpos.LedongthucExtractor{}}
	}
	return &Engine{backend: backend, extractor: extractor}
}

// Default creates a pdfcpu backed engine using the given text backend
func Default(textBackend textpos.BackendType) (*Engine, error) {
	extractor, err := textpos.NewExtractor(textBackend)
	if err != nil {
		return nil, errors.Wrap(errors.OpLoad, errors.KindInvalidOptions, err, "invalid text backend")
	}
	return New(wrapper.NewBackend(), extractor), nil
}

// Backend returns the document backend
func (e *Engine) Backend() document.Backend {
	return e.backend
}

// Extractor returns the text extractor
func (e *Engine) Extractor() textpos.Extractor {
	return e.extractor
}

func (e *Engine) load(op errors.Op, src Source) (document.Document, error) {
	doc, err := e.backend.Load(src.Data)
	if err != nil {
		return nil, errors.Rewrap(op, err, "cannot load %s", displayName(src.Name))
	}
	return doc, nil
}

func displayName(name string) string {
	if name == "" {
		return "document"
	}
	return name
}

// Merge concatenates sources in order. Progress is reported after each
// source document is copied.
func (e *Engine) Merge(sources []Source, progress ProgressFunc) ([]byte, error) {
	if len(sources) < merge.MinDocuments {
		return nil, errors.New(errors.OpMerge, errors.KindInsufficientInput,
			"merge needs at least %d documents, got %d", merge.MinDocuments, len(sources))
	}

	docs := make([]document.Document, len(sources))
	for i, src := range sources {
		doc, err := e.load(errors.OpMerge, src)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}

	return merge.Merge(e.backend, docs, progress)
}

// SplitKind selects how pages are chosen for a split
type SplitKind string

const (
	SplitAll     SplitKind = "all"
	SplitRange   SplitKind = "range"
	SplitExtract SplitKind = "extract"
)

// SplitMode describes a split request. Expression is used by SplitRange,
// Indices (0-based) by SplitExtract.
type SplitMode struct {
	Kind       SplitKind
	Expression string
	Indices    []int
}

// Policy converts the mode into a split policy
func (m SplitMode) Policy() (split.Policy, error) {
	switch m.Kind {
	case SplitAll, "":
		return split.AllPages{}, nil
	case SplitRange:
		return split.RangeExpression{Expr: m.Expression}, nil
	case SplitExtract:
		return split.ExplicitIndices{Indices: m.Indices}, nil
	}
	return nil, errors.New(errors.OpSplit, errors.KindUnsupportedMode, "unsupported split mode %q", m.Kind)
}

// Split writes one single-page document per selected page
func (e *Engine) Split(src Source, mode SplitMode, progress ProgressFunc) ([]split.Output, error) {
	policy, err := mode.Policy()
	if err != nil {
		return nil, err
	}
	doc, err := e.load(errors.OpSplit, src)
	if err != nil {
		return nil, err
	}
	return split.Split(e.backend, doc, src.Name, policy, progress)
}

// SplitRanges writes one document per valid contiguous range
func (e *Engine) SplitRanges(src Source, ranges []pagerange.Range, progress ProgressFunc) ([]split.Output, error) {
	doc, err := e.load(errors.OpSplit, src)
	if err != nil {
		return nil, err
	}
	return split.SplitRanges(e.backend, doc, src.Name, ranges, progress)
}

// CompressResult is a compressed document with its size statistics
type CompressResult struct {
	Data  []byte
	Stats compress.Stats
}

// Compress rewrites src with object streams, optionally stripping metadata
func (e *Engine) Compress(src Source, opts compress.Options, progress ProgressFunc) (*CompressResult, error) {
	doc, err := e.load(errors.OpCompress, src)
	if err != nil {
		return nil, err
	}
	data, err := compress.Compress(doc, opts, progress)
	if err != nil {
		return nil, err
	}
	return &CompressResult{
		Data:  data,
		Stats: compress.Calc(int64(len(src.Data)), int64(len(data))),
	}, nil
}

// ScanOptions selects what to look for
type ScanOptions = sensitive.Options

// Scan reports sensitive matches without modifying the document
func (e *Engine) Scan(src Source, opts ScanOptions) ([]sensitive.Match, error) {
	doc, err := e.load(errors.OpScan, src)
	if err != nil {
		return nil, err
	}
	return e.scan(doc, opts)
}

func (e *Engine) scan(doc document.Document, opts ScanOptions) ([]sensitive.Match, error) {
	matcher := sensitive.NewMatcher(opts)
	if !matcher.Enabled() || doc.PageCount() == 0 {
		return []sensitive.Match{}, nil
	}
	pages, err := e.extractor.Extract(doc)
	if err != nil {
		return nil, errors.Rewrap(errors.OpScan, err, "text extraction failed")
	}
	return matcher.FindMatches(pages), nil
}

// RedactOptions selects what to cover and with which color
type RedactOptions struct {
	Scan  ScanOptions
	Color redact.Color
}

// RedactResult is the outcome of a redaction job
type RedactResult struct {
	Data          []byte
	MatchCount    int
	PagesAffected int
	Matches       []sensitive.Match
}

// Redact scans src and covers every match. Finding nothing is not an
// error: the result then has zero counts and the unmodified document.
func (e *Engine) Redact(src Source, opts RedactOptions, progress ProgressFunc) (*RedactResult, error) {
	color := redact.Black
	if opts.Color != "" {
		parsed, err := redact.ParseColor(string(opts.Color))
		if err != nil {
			return nil, errors.Wrap(errors.OpRedact, errors.KindInvalidOptions, err, "invalid redaction color")
		}
		color = parsed
	}

	doc, err := e.load(errors.OpRedact, src)
	if err != nil {
		return nil, err
	}
	progress.Report(0)

	matches, err := e.scan(doc, opts.Scan)
	if err != nil {
		return nil, errors.Rewrap(errors.OpRedact, err, "scan failed")
	}
	progress.Report(40)

	res, err := redact.Redact(doc, matches, color, func(p int) {
		progress.Report(40 + p*60/100)
	})
	if err != nil {
		return nil, err
	}

	return &RedactResult{
		Data:          res.Data,
		MatchCount:    res.MatchCount,
		PagesAffected: res.PagesAffected,
		Matches:       matches,
	}, nil
}

// PageInfo describes one page
type PageInfo struct {
	Page   int     `json:"page"` // 1-based
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Info summarizes a document
type Info struct {
	PageCount int               `json:"page_count"`
	Encrypted bool              `json:"encrypted"`
	Metadata  document.Metadata `json:"metadata"`
	Pages     []PageInfo        `json:"pages"`
}

// Inspect reports page count, page sizes and metadata
func (e *Engine) Inspect(src Source) (*Info, error) {
	doc, err := e.load(errors.OpInspect, src)
	if err != nil {
		return nil, err
	}

	info := &Info{
		PageCount: doc.PageCount(),
		Encrypted: doc.Encrypted(),
		Metadata:  doc.Info(),
		Pages:     make([]PageInfo, 0, doc.PageCount()),
	}
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.Page(i)
		if err != nil {
			return nil, errors.Rewrap(errors.OpInspect, err, "cannot open page %d", i+1)
		}
		box := page.MediaBox().Normalize()
		info.Pages = append(info.Pages, PageInfo{Page: i + 1, Width: box.Width(), Height: box.Height()})
	}
	return info, nil
}
