package wrapper

import (
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

// letterMediaBox is used for pages whose page tree carries no MediaBox
var letterMediaBox = geom.NativeRect{URX: 612, URY: 792}

// Page is a page of a pdfcpu backed document. It holds no pdfcpu objects
// itself because the owning document swaps its context after every save.
type Page struct {
	doc   *Document
	index int
}

// Index returns the 0-based page index
func (p *Page) Index() int {
	return p.index
}

func (p *Page) dict() (types.Dict, error) {
	pageDict, _, _, err := p.doc.ctx.PageDict(p.index+1, false)
	if err != nil {
		return nil, errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot read page %d", p.index+1)
	}
	if pageDict == nil {
		return nil, errors.New(errors.OpLoad, errors.KindCorrupt, "page %d is missing", p.index+1)
	}
	return pageDict, nil
}

// MediaBox returns the effective media box
func (p *Page) MediaBox() geom.NativeRect {
	pageDict, err := p.dict()
	if err != nil {
		return letterMediaBox
	}

	obj, err := p.doc.inherited(pageDict, "MediaBox")
	if err != nil || obj == nil {
		return letterMediaBox
	}

	arr, err := p.doc.ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return letterMediaBox
	}

	var coords [4]float64
	for i, o := range arr {
		f, err := p.doc.ctx.DereferenceNumber(o)
		if err != nil {
			return letterMediaBox
		}
		coords[i] = f
	}

	box := geom.NativeRect{LLX: coords[0], LLY: coords[1], URX: coords[2], URY: coords[3]}.Normalize()
	if box.Width() == 0 || box.Height() == 0 {
		return letterMediaBox
	}
	return box
}

// Content returns the decoded page content
func (p *Page) Content() ([]byte, error) {
	r, err := pdfcpu.ExtractPageContent(p.doc.ctx, p.index+1)
	if err != nil {
		return nil, errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot decode content of page %d", p.index+1)
	}
	if r == nil {
		return nil, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot read content of page %d", p.index+1)
	}
	return data, nil
}

// Fonts returns the fonts of the effective resource dictionary. Fonts that
// cannot be read are left out rather than failing the page.
func (p *Page) Fonts() (map[string]*document.Font, error) {
	fonts := make(map[string]*document.Font)

	pageDict, err := p.dict()
	if err != nil {
		return nil, err
	}

	resObj, err := p.doc.inherited(pageDict, "Resources")
	if err != nil || resObj == nil {
		return fonts, nil
	}
	resources, err := p.doc.ctx.DereferenceDict(resObj)
	if err != nil || resources == nil {
		return fonts, nil
	}

	fontObj, found := resources.Find("Font")
	if !found {
		return fonts, nil
	}
	fontDicts, err := p.doc.ctx.DereferenceDict(fontObj)
	if err != nil || fontDicts == nil {
		return fonts, nil
	}

	for name, obj := range fontDicts {
		fontDict, err := p.doc.ctx.DereferenceDict(obj)
		if err != nil || fontDict == nil {
			continue
		}
		fonts[name] = p.doc.font(name, fontDict)
	}
	return fonts, nil
}

// AppendContent wraps the existing content in q/Q and appends ops
func (p *Page) AppendContent(ops []byte) error {
	pageDict, err := p.dict()
	if err != nil {
		return err
	}

	open, err := p.doc.newContentStream([]byte("q\n"))
	if err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot create content stream")
	}
	closing, err := p.doc.newContentStream(append([]byte("\nQ\n"), ops...))
	if err != nil {
		return errors.Wrap(errors.OpSave, errors.KindSerialize, err, "cannot create content stream")
	}

	contents := types.Array{*open}
	if obj, found := pageDict.Find("Contents"); found {
		existing, err := p.doc.contentArray(obj)
		if err != nil {
			return errors.Wrap(errors.OpLoad, errors.KindCorrupt, err, "cannot read contents of page %d", p.index+1)
		}
		contents = append(contents, existing...)
	}
	contents = append(contents, *closing)

	pageDict.Update("Contents", contents)
	p.doc.dirty = true
	return nil
}

// font converts a font dictionary into the backend-neutral Font
func (d *Document) font(name string, fontDict types.Dict) *document.Font {
	f := &document.Font{
		Name:     name,
		Subtype:  d.name(fontDict, "Subtype"),
		BaseFont: d.name(fontDict, "BaseFont"),
	}

	if encObj, found := fontDict.Find("Encoding"); found {
		if obj, err := d.ctx.Dereference(encObj); err == nil {
			switch enc := obj.(type) {
			case types.Name:
				f.Encoding = string(enc)
			case types.Dict:
				f.Encoding = d.name(enc, "BaseEncoding")
				f.Differences = d.differences(enc)
			}
		}
	}

	if f.IsComposite() {
		f.TwoByte = true
		d.compositeWidths(f, fontDict)
	} else {
		d.simpleWidths(f, fontDict)
	}

	if obj, found := fontDict.Find("ToUnicode"); found {
		if sd, _, err := d.ctx.DereferenceStreamDict(obj); err == nil && sd != nil {
			if err := sd.Decode(); err == nil {
				f.ToUnicode = sd.Content
			}
		}
	}

	return f
}

func (d *Document) simpleWidths(f *document.Font, fontDict types.Dict) {
	f.FirstChar = d.integer(fontDict, "FirstChar")
	if obj, found := fontDict.Find("Widths"); found {
		if arr, err := d.ctx.DereferenceArray(obj); err == nil {
			f.Widths = make([]float64, len(arr))
			for i, o := range arr {
				if w, err := d.ctx.DereferenceNumber(o); err == nil {
					f.Widths[i] = w
				}
			}
		}
	}

	if obj, found := fontDict.Find("FontDescriptor"); found {
		if desc, err := d.ctx.DereferenceDict(obj); err == nil && desc != nil {
			f.MissingWidth = d.number(desc, "MissingWidth")
		}
	}
}

// maxCIDSpan is the largest "cfirst clast w" run accepted from a W array
const maxCIDSpan = 0xFFFF

func (d *Document) compositeWidths(f *document.Font, fontDict types.Dict) {
	f.DefaultWidth = 1000

	obj, found := fontDict.Find("DescendantFonts")
	if !found {
		return
	}
	descendants, err := d.ctx.DereferenceArray(obj)
	if err != nil || len(descendants) == 0 {
		return
	}
	cidFont, err := d.ctx.DereferenceDict(descendants[0])
	if err != nil || cidFont == nil {
		return
	}

	if _, found := cidFont.Find("DW"); found {
		f.DefaultWidth = d.number(cidFont, "DW")
	}

	wObj, found := cidFont.Find("W")
	if !found {
		return
	}
	w, err := d.ctx.DereferenceArray(wObj)
	if err != nil {
		return
	}

	// W holds runs of either "c [w1 w2 ...]" or "cfirst clast w"
	f.CIDWidths = make(map[int]float64)
	for i := 0; i < len(w); {
		first, err := d.ctx.DereferenceNumber(w[i])
		if err != nil || i+1 >= len(w) {
			return
		}

		next, err := d.ctx.Dereference(w[i+1])
		if err != nil {
			return
		}
		if widths, ok := next.(types.Array); ok {
			for j, o := range widths {
				if width, err := d.ctx.DereferenceNumber(o); err == nil {
					f.CIDWidths[int(first)+j] = width
				}
			}
			i += 2
			continue
		}

		if i+2 >= len(w) {
			return
		}
		last, errLast := d.ctx.DereferenceNumber(w[i+1])
		width, errWidth := d.ctx.DereferenceNumber(w[i+2])
		if errLast != nil || errWidth != nil {
			return
		}
		if first >= 0 && last >= first && last-first <= maxCIDSpan {
			f.CIDRanges = append(f.CIDRanges, document.CIDRange{First: int(first), Last: int(last), Width: width})
		}
		i += 3
	}
}

func (d *Document) differences(encDict types.Dict) map[int]string {
	obj, found := encDict.Find("Differences")
	if !found {
		return nil
	}
	arr, err := d.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}

	diffs := make(map[int]string)
	code := 0
	for _, o := range arr {
		v, err := d.ctx.Dereference(o)
		if err != nil {
			continue
		}
		switch v := v.(type) {
		case types.Integer:
			code = int(v)
		case types.Float:
			code = int(v)
		case types.Name:
			diffs[code] = string(v)
			code++
		}
	}
	return diffs
}

func (d *Document) name(dict types.Dict, key string) string {
	obj, found := dict.Find(key)
	if !found {
		return ""
	}
	n, err := d.ctx.DereferenceName(obj, model.V10, nil)
	if err != nil {
		return ""
	}
	return string(n)
}

func (d *Document) integer(dict types.Dict, key string) int {
	obj, found := dict.Find(key)
	if !found {
		return 0
	}
	i, err := d.ctx.DereferenceInteger(obj)
	if err != nil || i == nil {
		return 0
	}
	return int(*i)
}

func (d *Document) number(dict types.Dict, key string) float64 {
	obj, found := dict.Find(key)
	if !found {
		return 0
	}
	f, err := d.ctx.DereferenceNumber(obj)
	if err != nil {
		return 0
	}
	return f
}
