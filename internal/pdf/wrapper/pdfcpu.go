// Package wrapper implements the document model on top of pdfcpu.
package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
)

// LibraryPDFCPU is the backend name reported by Backend.Name
const LibraryPDFCPU = "pdfcpu"

var (
	infoTextKeys = []string{"Title", "Author", "Subject", "Keywords", "Creator", "Producer"}
	infoDateKeys = []string{"CreationDate", "ModDate"}
)

// Backend implements document.Backend using pdfcpu
type Backend struct{}

// NewBackend creates a pdfcpu backend
func NewBackend() *Backend {
	return &Backend{}
}

// Name returns the backend name
func (b *Backend) Name() string {
	return LibraryPDFCPU
}

// Load parses data with relaxed validation
func (b *Backend) Load(data []byte) (document.Document, error) {
	doc, err := load(data)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// NewAssembler returns an empty assembler
func (b *Backend) NewAssembler() document.Assembler {
	return &Assembler{}
}

// newConfiguration returns a fresh configuration; pdfcpu mutates the
// configuration it is given, so one is never shared between calls.
func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

func load(data []byte) (*Document, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.OpLoad, errors.KindCorrupt, "document is empty")
	}

	ctx, err := readContext(data)
	if err != nil {
		return nil, err
	}

	return &Document{ctx: ctx, raw: data}, nil
}

func readContext(data []byte) (ctx *model.Context, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx = nil
			err = errors.New(errors.OpLoad, errors.KindCorrupt, "cannot parse document: %v", r)
		}
	}()

	ctx, err = api.ReadContext(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, classifyLoadError(err)
	}

	if err := api.ValidateContext(ctx); err != nil {
		return nil, classifyLoadError(err)
	}

	if err := ctx.EnsurePageCount(); err != nil {
		return nil, errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot determine page count")
	}

	return ctx, nil
}

// classifyLoadError separates documents we are not allowed to open from
// documents we cannot parse. pdfcpu reports both as plain errors.
func classifyLoadError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "password") || strings.Contains(msg, "encrypt") {
		return errors.Wrap(errors.OpLoad, errors.KindProtected, err, "document is password protected")
	}
	return errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "document structure is corrupt")
}

// Document is a pdfcpu backed document.
//
// A pdfcpu context cannot be written twice, so every serialization re-reads
// the written bytes into a fresh context.
type Document struct {
	ctx   *model.Context
	raw   []byte
	dirty bool
}

// PageCount returns the number of pages
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// Encrypted reports whether the document carries an encryption dictionary
func (d *Document) Encrypted() bool {
	return d.ctx.Encrypt != nil
}

// Page returns the page at the 0-based index
func (d *Document) Page(index int) (document.Page, error) {
	if index < 0 || index >= d.ctx.PageCount {
		return nil, errors.New(errors.OpLoad, errors.KindInvalidRange,
			"page index %d out of range [0, %d)", index, d.ctx.PageCount)
	}
	page := &Page{doc: d, index: index}
	if _, err := page.dict(); err != nil {
		return nil, err
	}
	return page, nil
}

// Info reads the document information dictionary
func (d *Document) Info() document.Metadata {
	info, err := d.infoDict()
	if err != nil || info == nil {
		return document.Metadata{}
	}

	return document.Metadata{
		Title:        d.text(info, "Title"),
		Author:       d.text(info, "Author"),
		Subject:      d.text(info, "Subject"),
		Keywords:     d.text(info, "Keywords"),
		Creator:      d.text(info, "Creator"),
		Producer:     d.text(info, "Producer"),
		CreationDate: d.text(info, "CreationDate"),
		ModDate:      d.text(info, "ModDate"),
	}
}

// ClearMetadata blanks the Info dictionary and drops the XMP stream
func (d *Document) ClearMetadata(epoch string) error {
	info, err := d.infoDict()
	if err != nil {
		return errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot read info dictionary")
	}

	if info == nil {
		info = types.NewDict()
		ref, err := d.ctx.IndRefForNewObject(info)
		if err != nil {
			return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot create info dictionary")
		}
		d.ctx.Info = ref
	}

	for _, key := range infoTextKeys {
		info.Update(key, types.StringLiteral(""))
	}
	for _, key := range infoDateKeys {
		info.Update(key, types.StringLiteral(epoch))
	}

	root, err := d.ctx.Catalog()
	if err != nil {
		return errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot read document catalog")
	}
	root.Delete("Metadata")

	d.dirty = true
	return nil
}

// Save serializes the document
func (d *Document) Save(w io.Writer, opts document.SaveOptions) error {
	data, err := d.serialize(opts)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot write document")
	}
	return nil
}

// Bytes returns the loaded bytes, or a fresh serialization after changes
func (d *Document) Bytes() ([]byte, error) {
	if !d.dirty {
		return d.raw, nil
	}
	return d.serialize(document.SaveOptions{})
}

func (d *Document) serialize(opts document.SaveOptions) ([]byte, error) {
	d.ctx.Configuration.WriteObjectStream = opts.ObjectStreams
	d.ctx.Configuration.WriteXRefStream = opts.ObjectStreams

	if opts.Optimize {
		if err := api.OptimizeContext(d.ctx); err != nil {
			return nil, errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot optimize document")
		}
	}

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot serialize document")
	}

	data := buf.Bytes()
	ctx, err := readContext(data)
	if err != nil {
		return nil, errors.Wrap(errors.OpSave, errors.KindSerialize, err, "serialized document does not reload")
	}

	d.ctx, d.raw, d.dirty = ctx, data, false
	return data, nil
}

func (d *Document) infoDict() (types.Dict, error) {
	if d.ctx.Info == nil {
		return nil, nil
	}
	return d.ctx.DereferenceDict(*d.ctx.Info)
}

func (d *Document) text(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	s, err := d.ctx.DereferenceStringOrHexLiteral(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return s
}

// inherited looks key up on dict and then up the page tree
func (d *Document) inherited(dict types.Dict, key string) (types.Object, error) {
	const maxDepth = 64
	for depth := 0; dict != nil && depth < maxDepth; depth++ {
		if obj, found := dict.Find(key); found {
			return obj, nil
		}
		parent, found := dict.Find("Parent")
		if !found {
			return nil, nil
		}
		next, err := d.ctx.DereferenceDict(parent)
		if err != nil {
			return nil, err
		}
		dict = next
	}
	return nil, nil
}

// newContentStream adds a flate encoded content stream object
func (d *Document) newContentStream(buf []byte) (*types.IndirectRef, error) {
	sd, err := d.ctx.NewStreamDictForBuf(buf)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return d.ctx.IndRefForNewObject(*sd)
}

// contentArray flattens a page's Contents entry into an array of stream references
func (d *Document) contentArray(obj types.Object) (types.Array, error) {
	switch v := obj.(type) {
	case types.IndirectRef:
		target, err := d.ctx.Dereference(v)
		if err != nil {
			return nil, err
		}
		if arr, ok := target.(types.Array); ok {
			return arr, nil
		}
		return types.Array{v}, nil
	case types.Array:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected Contents entry of type %T", obj)
	}
}
