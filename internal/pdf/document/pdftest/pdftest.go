// Package pdftest assembles small, valid PDF files for tests.
//
// Every page uses the standard Helvetica font (resource /F1, WinAnsiEncoding,
// no /Widths) and draws its lines with Td/Tj, so text positions of the
// generated pages are predictable.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Line is one positioned text line
type Line struct {
	X    float64
	Y    float64
	Size float64
	Text string
}

// Page describes one page of the generated document
type Page struct {
	Width  float64
	Height float64
	Lines  []Line
}

// Info is written as the document information dictionary
type Info struct {
	Title    string
	Author   string
	Subject  string
	Keywords string
	Creator  string
	Producer string
}

// Letter returns a US Letter page with the given lines
func Letter(lines ...Line) Page {
	return Page{Width: 612, Height: 792, Lines: lines}
}

// Text returns a 12pt line at (x, y)
func Text(x, y float64, text string) Line {
	return Line{X: x, Y: y, Size: 12, Text: text}
}

// Build returns a PDF containing pages, without an Info dictionary
func Build(pages ...Page) []byte {
	return BuildWithInfo(nil, pages...)
}

// Pages returns a PDF with n letter pages, page i showing "Page i"
func Pages(n int) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Letter(Text(72, 720, fmt.Sprintf("Page %d", i+1)))
	}
	return Build(pages...)
}

// BuildWithInfo returns a PDF containing pages and the given Info dictionary
func BuildWithInfo(info *Info, pages ...Page) []byte {
	w := &writer{}
	w.buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	// 1 catalog, 2 page tree, 3 font, 4 info, then a page and content
	// object per page.
	const (
		catalogObj = 1
		pagesObj   = 2
		fontObj    = 3
		infoObj    = 4
		firstPage  = 5
	)

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPage+2*i)
	}

	w.object(catalogObj, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesObj))
	w.object(pagesObj, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	w.object(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	w.object(infoObj, infoDict(info))

	for i, page := range pages {
		pageNum := firstPage + 2*i
		contentNum := pageNum + 1
		w.object(pageNum, fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] "+
				"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, num(page.Width), num(page.Height), fontObj, contentNum))
		w.stream(contentNum, content(page))
	}

	trailer := fmt.Sprintf("<< /Size %d /Root %d 0 R", len(w.offsets)+1, catalogObj)
	if info != nil {
		trailer += fmt.Sprintf(" /Info %d 0 R", infoObj)
	}
	trailer += " >>"
	w.finish(trailer)
	return w.buf.Bytes()
}

func content(page Page) []byte {
	var b bytes.Buffer
	for _, line := range page.Lines {
		size := line.Size
		if size == 0 {
			size = 12
		}
		fmt.Fprintf(&b, "BT\n/F1 %s Tf\n%s %s Td\n(%s) Tj\nET\n", num(size), num(line.X), num(line.Y), Escape(line.Text))
	}
	return b.Bytes()
}

func infoDict(info *Info) string {
	if info == nil {
		return "<< >>"
	}
	return fmt.Sprintf("<< /Title (%s) /Author (%s) /Subject (%s) /Keywords (%s) /Creator (%s) /Producer (%s) "+
		"/CreationDate (D:20240102030405Z) /ModDate (D:20240102030405Z) >>",
		Escape(info.Title), Escape(info.Author), Escape(info.Subject),
		Escape(info.Keywords), Escape(info.Creator), Escape(info.Producer))
}

// Escape escapes s for use inside a PDF literal string
func Escape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

func num(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", f), "0"), ".")
}

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(n int, body string) {
	w.mark(n)
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

func (w *writer) stream(n int, data []byte) {
	w.mark(n)
	fmt.Fprintf(&w.buf, "%d 0 obj\n<< /Length %d >>\nstream\n", n, len(data))
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *writer) mark(n int) {
	for len(w.offsets) < n {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[n-1] = w.buf.Len()
}

func (w *writer) finish(trailer string) {
	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n%s\nstartxref\n%d\n%%%%EOF\n", trailer, xref)
}
