package wrapper

import (
	"bytes"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/pagerange"
)

// Assembler builds a new document from page selections of pdfcpu documents.
//
// Each selection is trimmed out of its source with api.Trim, which carries
// along exactly the resources the kept pages reference, and the trimmed
// parts are concatenated with api.MergeRaw.
type Assembler struct {
	parts []part
	pages int
}

type part struct {
	data    []byte
	indices []int
	whole   bool
}

// AddPages queues the given pages of doc
func (a *Assembler) AddPages(doc document.Document, indices []int) error {
	d, ok := doc.(*Document)
	if !ok {
		return errors.New(errors.OpSave, errors.KindInvalidOptions, "document was not loaded by the %s backend", LibraryPDFCPU)
	}

	for _, idx := range indices {
		if idx < 0 || idx >= d.PageCount() {
			return errors.New(errors.OpSave, errors.KindInvalidRange,
				"page index %d out of range [0, %d)", idx, d.PageCount())
		}
	}

	data, err := d.Bytes()
	if err != nil {
		return err
	}

	for _, chunk := range pagerange.Ascending(indices) {
		a.parts = append(a.parts, part{
			data:    data,
			indices: chunk,
			whole:   len(chunk) == d.PageCount(),
		})
	}
	a.pages += len(indices)
	return nil
}

// PageCount returns the number of queued pages
func (a *Assembler) PageCount() int {
	return a.pages
}

// Save writes the assembled document
func (a *Assembler) Save(w io.Writer) error {
	if len(a.parts) == 0 {
		return errors.New(errors.OpSave, errors.KindEmptyDocument, "no pages to assemble")
	}

	readers := make([]io.ReadSeeker, 0, len(a.parts))
	for _, p := range a.parts {
		data := p.data
		if !p.whole {
			var buf bytes.Buffer
			if err := api.Trim(bytes.NewReader(p.data), &buf, pagerange.Selection(p.indices), newConfiguration()); err != nil {
				return errors.Wrap(errors.OpSave, errors.KindSerialize, err,
					"cannot extract pages %s", pagerange.Format(p.indices))
			}
			data = buf.Bytes()
		}
		readers = append(readers, bytes.NewReader(data))
	}

	if len(readers) == 1 {
		if _, err := io.Copy(w, readers[0]); err != nil {
			return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot write document")
		}
		return nil
	}

	if err := api.MergeRaw(readers, w, false, newConfiguration()); err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot merge %d parts", len(readers))
	}
	return nil
}
