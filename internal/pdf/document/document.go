// Package document defines the backend-agnostic object model the engine
// operates on. Loader, compositor and extractor code depends only on these
// interfaces; the pdfcpu backend lives in the wrapper package and an in-memory
// test backend in the memory subpackage.
package document

import (
	"io"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

// Backend builds documents from bytes and assembles new documents from
// pages of loaded ones.
type Backend interface {
	// Name identifies the backend in logs and server info
	Name() string

	// Load parses data into a document. It must not modify data. Documents
	// that cannot be opened without a password fail with KindProtected,
	// structurally broken input with KindCorrupt.
	Load(data []byte) (Document, error)

	// NewAssembler returns an empty output document builder
	NewAssembler() Assembler
}

// Document is a loaded, addressable object graph
type Document interface {
	PageCount() int
	Page(index int) (Page, error)
	Info() Metadata
	Encrypted() bool

	// ClearMetadata blanks every descriptive Info field, sets both
	// timestamps to epoch and drops the XMP metadata stream.
	ClearMetadata(epoch string) error

	// Save serializes the current state of the document
	Save(w io.Writer, opts SaveOptions) error

	// Bytes returns the serialized document; for an unmodified document
	// these are the bytes it was loaded from.
	Bytes() ([]byte, error)
}

// Page is a single page of a loaded document
type Page interface {
	// Index is the 0-based page index
	Index() int

	// MediaBox is the page's media box in user space, inherited from the
	// page tree when the page does not carry one.
	MediaBox() geom.NativeRect

	// Content returns the decoded, concatenated content streams
	Content() ([]byte, error)

	// Fonts returns the fonts of the page's resource dictionary keyed by
	// resource name (without the leading slash).
	Fonts() (map[string]*Font, error)

	// AppendContent draws ops on top of the existing content. The existing
	// content is isolated in q/Q so ops start from the default graphics state.
	AppendContent(ops []byte) error
}

// Assembler copies pages from loaded documents into a fresh document
type Assembler interface {
	// AddPages appends the pages at the given 0-based indices of doc, in
	// the given order, together with the resources they reference.
	AddPages(doc Document, indices []int) error
	PageCount() int
	Save(w io.Writer) error
}

// SaveOptions controls serialization
type SaveOptions struct {
	// ObjectStreams writes objects into compressed object streams with a
	// cross-reference stream instead of a classic xref table.
	ObjectStreams bool

	// Optimize drops duplicate and unused objects before writing
	Optimize bool
}

// Metadata is the descriptive document information dictionary
type Metadata struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
	ModDate      string `json:"mod_date,omitempty"`
}

// Font is the subset of a font dictionary needed to decode shown strings
// and measure glyph advances.
type Font struct {
	Name     string `json:"name,omitempty"`
	BaseFont string `json:"base_font,omitempty"`
	Subtype  string `json:"subtype,omitempty"`

	// Encoding is the base encoding name, e.g. WinAnsiEncoding or Identity-H
	Encoding    string         `json:"encoding,omitempty"`
	Differences map[int]string `json:"differences,omitempty"`

	// Simple font widths, in thousandths of text space units
	FirstChar    int       `json:"first_char,omitempty"`
	Widths       []float64 `json:"widths,omitempty"`
	MissingWidth float64   `json:"missing_width,omitempty"`

	// Composite (Type0) font widths keyed by CID, plus the "cfirst clast w"
	// runs of the W array kept as spans
	CIDWidths    map[int]float64 `json:"cid_widths,omitempty"`
	CIDRanges    []CIDRange      `json:"cid_ranges,omitempty"`
	DefaultWidth float64         `json:"default_width,omitempty"`

	// TwoByte is set for composite fonts using a two byte CMap
	TwoByte bool `json:"two_byte,omitempty"`

	// ToUnicode holds the decoded ToUnicode CMap stream, if any
	ToUnicode []byte `json:"to_unicode,omitempty"`
}

// CIDRange assigns one width to the CIDs First through Last inclusive
type CIDRange struct {
	First int     `json:"first"`
	Last  int     `json:"last"`
	Width float64 `json:"width"`
}

// IsComposite reports whether the font is a Type0 font
func (f *Font) IsComposite() bool {
	return f.Subtype == "Type0"
}

// CIDWidth returns the width of cid from the W array, if it lists one.
// Individually listed widths take precedence over ranges.
func (f *Font) CIDWidth(cid int) (float64, bool) {
	if w, ok := f.CIDWidths[cid]; ok {
		return w, true
	}
	for _, r := range f.CIDRanges {
		if cid >= r.First && cid <= r.Last {
			return r.Width, true
		}
	}
	return 0, false
}

// ProgressFunc receives completion percentages in [0, 100]
type ProgressFunc func(percent int)

// Report calls p with percent clamped to [0, 100]. A nil ProgressFunc is a no-op.
func (p ProgressFunc) Report(percent int) {
	if p == nil {
		return
	}
	p(max(0, min(100, percent)))
}

// Step reports the progress of done out of total units, scaled into the
// [from, to] window.
func (p ProgressFunc) Step(done, total, from, to int) {
	if total <= 0 {
		p.Report(to)
		return
	}
	p.Report(from + (to-from)*done/total)
}
