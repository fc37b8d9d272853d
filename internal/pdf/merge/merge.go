// Package merge concatenates documents.
package merge

import (
	"bytes"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/pagerange"
)

// MinDocuments is the smallest number of documents a merge accepts
const MinDocuments = 2

// Merge copies every page of docs, in caller order, into a new document.
// Progress is reported once per source document.
func Merge(backend document.Backend, docs []document.Document, progress document.ProgressFunc) ([]byte, error) {
	if len(docs) < MinDocuments {
		return nil, errors.New(errors.OpMerge, errors.KindInsufficientInput,
			"at least %d documents are required, got %d", MinDocuments, len(docs))
	}

	asm := backend.NewAssembler()
	for i, doc := range docs {
		if doc.PageCount() == 0 {
			return nil, errors.New(errors.OpMerge, errors.KindEmptyDocument, "document %d has no pages", i+1)
		}
		if err := asm.AddPages(doc, pagerange.All(doc.PageCount())); err != nil {
			return nil, errors.Rewrap(errors.OpMerge, err, "cannot copy pages of document %d", i+1)
		}
		progress.Step(i+1, len(docs), 0, 90)
	}

	var out bytes.Buffer
	if err := asm.Save(&out); err != nil {
		return nil, errors.Rewrap(errors.OpMerge, err, "cannot write merged document")
	}
	progress.Report(100)
	return out.Bytes(), nil
}
