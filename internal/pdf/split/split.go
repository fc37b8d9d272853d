// Package split extracts pages of a document into new documents.
package split

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/pagerange"
)

const (
	defaultBase = "document"
	defaultExt  = "pdf"
)

// Policy selects the pages that become outputs
type Policy interface {
	isPolicy()
}

// AllPages selects every page
type AllPages struct{}

// RangeExpression selects the pages of a "1-3, 5" style expression
type RangeExpression struct {
	Expr string
}

// ExplicitIndices selects 0-based page indices; out-of-range indices are
// dropped.
type ExplicitIndices struct {
	Indices []int
}

func (AllPages) isPolicy()        {}
func (RangeExpression) isPolicy() {}
func (ExplicitIndices) isPolicy() {}

// Output is a produced document
type Output struct {
	Name string
	Data []byte
}

// Names splits a file name into the base and extension used for outputs
func Names(name string) (base, ext string) {
	name = filepath.Base(strings.TrimSpace(name))
	ext = strings.TrimPrefix(filepath.Ext(name), ".")
	base = strings.TrimSuffix(name, filepath.Ext(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = defaultBase
	}
	if ext == "" {
		ext = defaultExt
	}
	return base, ext
}

// PageName is the output name of a single page, n being 1-based
func PageName(name string, n int) string {
	base, ext := Names(name)
	return fmt.Sprintf("%s_page_%d.%s", base, n, ext)
}

// RangeName is the output name of a contiguous page range
func RangeName(name string, start, end int) string {
	base, ext := Names(name)
	return fmt.Sprintf("%s_pages_%d-%d.%s", base, start, end, ext)
}

// Indices resolves a policy against a document of total pages
func Indices(policy Policy, total int) ([]int, error) {
	switch p := policy.(type) {
	case AllPages:
		return pagerange.All(total), nil
	case RangeExpression:
		indices := pagerange.Resolve(p.Expr, total)
		if len(indices) == 0 {
			return nil, errors.New(errors.OpSplit, errors.KindInvalidRange,
				"range %q selects no pages of a %d page document", p.Expr, total)
		}
		return indices, nil
	case ExplicitIndices:
		indices := pagerange.Clamp(p.Indices, total)
		if len(indices) == 0 {
			return nil, errors.New(errors.OpSplit, errors.KindInvalidRange,
				"no valid page indices for a %d page document", total)
		}
		return indices, nil
	}
	return nil, errors.New(errors.OpSplit, errors.KindUnsupportedMode, "unsupported split policy %T", policy)
}

// Split writes one single-page document per selected page, in ascending
// page order. name is the source file name the outputs are named after.
func Split(backend document.Backend, doc document.Document, name string, policy Policy, progress document.ProgressFunc) ([]Output, error) {
	if doc.PageCount() == 0 {
		return nil, errors.New(errors.OpSplit, errors.KindEmptyDocument, "document has no pages")
	}

	indices, err := Indices(policy, doc.PageCount())
	if err != nil {
		return nil, err
	}

	outputs := make([]Output, 0, len(indices))
	for i, idx := range indices {
		data, err := extract(backend, doc, []int{idx})
		if err != nil {
			return nil, errors.Rewrap(errors.OpSplit, err, "cannot extract page %d", idx+1)
		}
		outputs = append(outputs, Output{Name: PageName(name, idx+1), Data: data})
		progress.Step(i+1, len(indices), 0, 100)
	}
	return outputs, nil
}

// SplitRanges writes one document per 1-based inclusive range. Inverted
// or out-of-bounds ranges are skipped; if none remain the split fails.
func SplitRanges(backend document.Backend, doc document.Document, name string, ranges []pagerange.Range, progress document.ProgressFunc) ([]Output, error) {
	total := doc.PageCount()
	if total == 0 {
		return nil, errors.New(errors.OpSplit, errors.KindEmptyDocument, "document has no pages")
	}

	valid := make([]pagerange.Range, 0, len(ranges))
	for _, r := range ranges {
		if r.Valid(total) {
			valid = append(valid, r)
		}
	}
	if len(valid) == 0 {
		return nil, errors.New(errors.OpSplit, errors.KindInvalidRange,
			"no valid page range for a %d page document", total)
	}

	outputs := make([]Output, 0, len(valid))
	for i, r := range valid {
		data, err := extract(backend, doc, r.Indices())
		if err != nil {
			return nil, errors.Rewrap(errors.OpSplit, err, "cannot extract pages %d-%d", r.Start, r.End)
		}
		outputs = append(outputs, Output{Name: RangeName(name, r.Start, r.End), Data: data})
		progress.Step(i+1, len(valid), 0, 100)
	}
	return outputs, nil
}

func extract(backend document.Backend, doc document.Document, indices []int) ([]byte, error) {
	asm := backend.NewAssembler()
	if err := asm.AddPages(doc, indices); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := asm.Save(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
