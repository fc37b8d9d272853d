// Package memory is an in-memory document backend.
//
// Documents are serialized as JSON so that loading, copying and saving can
// be exercised without a PDF parser. Page content is stored as raw content
// stream operators and is interpreted like real PDF content.
package memory

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

// BackendName is reported by Backend.Name
const BackendName = "memory"

// File is the serialized form of a document
type File struct {
	Protected bool              `json:"protected,omitempty"`
	Encrypted bool              `json:"encrypted,omitempty"`
	Info      document.Metadata `json:"info"`
	XMP       string            `json:"xmp,omitempty"`
	Compact   bool              `json:"compact,omitempty"`
	Pages     []PageSpec        `json:"pages"`
}

// PageSpec is the serialized form of a page
type PageSpec struct {
	Label    string                    `json:"label,omitempty"`
	MediaBox geom.NativeRect           `json:"media_box"`
	Streams  []string                  `json:"streams,omitempty"`
	Fonts    map[string]*document.Font `json:"fonts,omitempty"`
}

// Encode serializes f
func (f File) Encode() []byte {
	data, err := json.Marshal(f)
	if err != nil {
		panic(fmt.Sprintf("memory: cannot encode document: %v", err))
	}
	return data
}

// Letter returns a US Letter page with a Helvetica /F1 font and the given
// content stream.
func Letter(label, content string) PageSpec {
	return PageSpec{
		Label:    label,
		MediaBox: geom.NativeRect{URX: 612, URY: 792},
		Streams:  []string{content},
		Fonts: map[string]*document.Font{
			"F1": {Name: "F1", Subtype: "Type1", BaseFont: "Helvetica", Encoding: "WinAnsiEncoding"},
		},
	}
}

// Pages returns an encoded document of n labelled letter pages, page i
// labelled and showing "Page i".
func Pages(n int) []byte {
	f := File{Pages: make([]PageSpec, n)}
	for i := range f.Pages {
		label := fmt.Sprintf("Page %d", i+1)
		f.Pages[i] = Letter(label, fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", label))
	}
	return f.Encode()
}

// Backend implements document.Backend
type Backend struct{}

// NewBackend creates a memory backend
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns the backend name
func (b *Backend) Name() string {
	return BackendName
}

// Load decodes a JSON document
func (b *Backend) Load(data []byte) (document.Document, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.OpLoad, errors.KindCorrupt, "document is empty")
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "document structure is corrupt")
	}
	if f.Protected {
		return nil, errors.New(errors.OpLoad, errors.KindProtected, "document is password protected")
	}

	return &Document{file: f, raw: data}, nil
}

// NewAssembler returns an empty assembler
func (b *Backend) NewAssembler() document.Assembler {
	return &Assembler{}
}

// Document is a decoded in-memory document
type Document struct {
	file  File
	raw   []byte
	dirty bool
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return len(d.file.Pages)
}

// Encrypted reports the encrypted flag of the file
func (d *Document) Encrypted() bool {
	return d.file.Encrypted
}

// Page returns the page at the 0-based index
func (d *Document) Page(index int) (document.Page, error) {
	if index < 0 || index >= len(d.file.Pages) {
		return nil, errors.New(errors.OpLoad, errors.KindInvalidRange,
			"page index %d out of range [0, %d)", index, len(d.file.Pages))
	}
	return &Page{doc: d, index: index}, nil
}

// Info returns the metadata
func (d *Document) Info() document.Metadata {
	return d.file.Info
}

// XMP returns the XMP packet, empty once metadata has been cleared
func (d *Document) XMP() string {
	return d.file.XMP
}

// Labels returns the page labels in page order
func (d *Document) Labels() []string {
	labels := make([]string, len(d.file.Pages))
	for i, p := range d.file.Pages {
		labels[i] = p.Label
	}
	return labels
}

// ClearMetadata blanks the metadata
func (d *Document) ClearMetadata(epoch string) error {
	d.file.Info = document.Metadata{CreationDate: epoch, ModDate: epoch}
	d.file.XMP = ""
	d.dirty = true
	return nil
}

// Save writes the document. Object streams produce the compact encoding.
func (d *Document) Save(w io.Writer, opts document.SaveOptions) error {
	f := d.file
	f.Compact = opts.ObjectStreams

	var data []byte
	var err error
	if f.Compact {
		data, err = json.Marshal(f)
	} else {
		data, err = json.MarshalIndent(f, "", "  ")
	}
	if err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot serialize document")
	}

	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot write document")
	}
	d.raw, d.dirty = data, false
	return nil
}

// Bytes returns the document bytes
func (d *Document) Bytes() ([]byte, error) {
	if !d.dirty {
		return d.raw, nil
	}
	data, err := json.Marshal(d.file)
	if err != nil {
		return nil, errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot serialize document")
	}
	d.raw, d.dirty = data, false
	return data, nil
}

// Page is a page of a memory document
type Page struct {
	doc   *Document
	index int
}

func (p *Page) spec() *PageSpec {
	return &p.doc.file.Pages[p.index]
}

// Index returns the 0-based index
func (p *Page) Index() int {
	return p.index
}

// MediaBox returns the page media box
func (p *Page) MediaBox() geom.NativeRect {
	return p.spec().MediaBox
}

// Content concatenates the page streams
func (p *Page) Content() ([]byte, error) {
	var content []byte
	for _, s := range p.spec().Streams {
		content = append(content, s...)
		content = append(content, '\n')
	}
	return content, nil
}

// Fonts returns the page fonts
func (p *Page) Fonts() (map[string]*document.Font, error) {
	fonts := make(map[string]*document.Font, len(p.spec().Fonts))
	for name, f := range p.spec().Fonts {
		fonts[name] = f
	}
	return fonts, nil
}

// AppendContent isolates the existing streams and adds ops
func (p *Page) AppendContent(ops []byte) error {
	spec := p.spec()
	streams := make([]string, 0, len(spec.Streams)+2)
	streams = append(streams, "q")
	streams = append(streams, spec.Streams...)
	streams = append(streams, "Q\n"+string(ops))
	spec.Streams = streams
	p.doc.dirty = true
	return nil
}

// Assembler copies page specs into a new file
type Assembler struct {
	pages []PageSpec
}

// AddPages copies the given pages of doc
func (a *Assembler) AddPages(doc document.Document, indices []int) error {
	d, ok := doc.(*Document)
	if !ok {
		return errors.New(errors.OpSave, errors.KindInvalidOptions, "document was not loaded by the %s backend", BackendName)
	}

	for _, idx := range indices {
		if idx < 0 || idx >= len(d.file.Pages) {
			return errors.New(errors.OpSave, errors.KindInvalidRange,
				"page index %d out of range [0, %d)", idx, len(d.file.Pages))
		}
		src := d.file.Pages[idx]
		cp := src
		cp.Streams = append([]string(nil), src.Streams...)
		a.pages = append(a.pages, cp)
	}
	return nil
}

// PageCount returns the number of copied pages
func (a *Assembler) PageCount() int {
	return len(a.pages)
}

// Save writes the assembled document
func (a *Assembler) Save(w io.Writer) error {
	if len(a.pages) == 0 {
		return errors.New(errors.OpSave, errors.KindEmptyDocument, "no pages to assemble")
	}
	if _, err := w.Write(File{Pages: a.pages}.Encode()); err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot write document")
	}
	return nil
}
