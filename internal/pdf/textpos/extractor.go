// Package textpos extracts positioned text runs from page content.
//
// A run is the text produced by one text-showing operation together with
// its bounding box in top-left page space. The native extractor interprets
// content streams itself; the ledongthuc extractor groups the glyphs that
// library reports into runs.
package textpos

import (
	"fmt"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

// Run is a piece of text shown by a single operation
type Run struct {
	Text string   `json:"text"`
	Box  geom.Box `json:"box"`
}

// PageRuns holds the runs of one page, Page being the 0-based index
type PageRuns struct {
	Page int   `json:"page"`
	Runs []Run `json:"runs"`
}

// Extractor produces the runs of every page of a document
type Extractor interface {
	Name() string
	Extract(doc document.Document) ([]PageRuns, error)
}

// NativeExtractor interprets page content streams directly
type NativeExtractor struct{}

// Name returns the extractor name
func (NativeExtractor) Name() string {
	return string(BackendNative)
}

// Extract returns the runs of every page, in page order
func (NativeExtractor) Extract(doc document.Document) ([]PageRuns, error) {
	pages := make([]PageRuns, 0, doc.PageCount())
	for i := 0; i < doc.PageCount(); i++ {
		page, err := doc.Page(i)
		if err != nil {
			return nil, errors.Rewrap(errors.OpScan, err, "cannot open page %d", i+1)
		}
		runs, err := ExtractPage(page)
		if err != nil {
			return nil, err
		}
		pages = append(pages, PageRuns{Page: i, Runs: runs})
	}
	return pages, nil
}

// ExtractPage returns the runs of a single page in content order
func ExtractPage(page document.Page) (runs []Run, err error) {
	content, err := page.Content()
	if err != nil {
		return nil, errors.Rewrap(errors.OpScan, err, "cannot read content of page %d", page.Index()+1)
	}

	// fonts are optional; unknown fonts decode with the default encoding
	fonts, ferr := page.Fonts()
	if ferr != nil {
		fonts = nil
	}

	defer func() {
		if r := recover(); r != nil {
			runs = nil
			err = errors.New(errors.OpScan, errors.KindCorrupt,
				"content of page %d could not be interpreted: %v", page.Index()+1, fmt.Sprint(r))
		}
	}()

	mediaBox := page.MediaBox()
	native := interpret(content, fonts)
	runs = make([]Run, 0, len(native))
	for _, r := range native {
		runs = append(runs, Run{Text: r.text, Box: geom.ToBox(mediaBox, r.rect)})
	}
	return runs, nil
}
