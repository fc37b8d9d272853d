// Package redact draws opaque boxes over matched regions.
//
// Redaction is visual only: the covered text remains in the content
// stream and can still be extracted.
package redact

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/sensitive"
)

// Margin is added to each side of a match box
const Margin = 2.0

// Color is the fill color of redaction boxes
type Color string

const (
	Black Color = "black"
	White Color = "white"
	Gray  Color = "gray"
)

// ParseColor parses a color name; the empty string is black
func ParseColor(s string) (Color, error) {
	switch c := Color(strings.ToLower(strings.TrimSpace(s))); c {
	case Black, White, Gray:
		return c, nil
	case "", "default":
		return Black, nil
	case "grey":
		return Gray, nil
	}
	return "", fmt.Errorf("unsupported redaction color %q (use black, white or gray)", s)
}

// RGB returns the DeviceRGB components of c
func (c Color) RGB() (r, g, b float64) {
	switch c {
	case White:
		return 1, 1, 1
	case Gray:
		return 0.5, 0.5, 0.5
	}
	return 0, 0, 0
}

// Result is the outcome of a redaction
type Result struct {
	Data          []byte
	MatchCount    int
	PagesAffected int
}

// Redact covers every match on doc. With no matches the document is
// returned unchanged. Progress is reported once per affected page.
func Redact(doc document.Document, matches []sensitive.Match, color Color, progress document.ProgressFunc) (*Result, error) {
	if len(matches) == 0 {
		data, err := doc.Bytes()
		if err != nil {
			return nil, errors.Rewrap(errors.OpRedact, err, "cannot serialize document")
		}
		progress.Report(100)
		return &Result{Data: data}, nil
	}

	byPage := make(map[int][]geom.Box)
	for _, m := range matches {
		if m.Page < 0 || m.Page >= doc.PageCount() {
			return nil, errors.New(errors.OpRedact, errors.KindInvalidRange,
				"match on page %d outside a %d page document", m.Page+1, doc.PageCount())
		}
		byPage[m.Page] = append(byPage[m.Page], m.Box)
	}

	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for i, idx := range pages {
		page, err := doc.Page(idx)
		if err != nil {
			return nil, errors.Rewrap(errors.OpRedact, err, "cannot open page %d", idx+1)
		}
		ops := Overlay(page.MediaBox(), byPage[idx], color)
		if err := page.AppendContent(ops); err != nil {
			return nil, errors.Rewrap(errors.OpRedact, err, "cannot draw on page %d", idx+1)
		}
		progress.Step(i+1, len(pages), 0, 90)
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, errors.Rewrap(errors.OpRedact, err, "cannot write redacted document")
	}
	progress.Report(100)

	return &Result{Data: data, MatchCount: len(matches), PagesAffected: len(pages)}, nil
}

// Overlay returns the content operators filling boxes, given in top-left
// page space, on a page with the given media box.
func Overlay(mediaBox geom.NativeRect, boxes []geom.Box, color Color) []byte {
	r, g, b := color.RGB()

	var buf bytes.Buffer
	buf.WriteString("q\n")
	fmt.Fprintf(&buf, "%s %s %s rg\n", num(r), num(g), num(b))
	for _, box := range boxes {
		rect := geom.ToNative(mediaBox, box).Normalize().Inflate(Margin)
		fmt.Fprintf(&buf, "%s %s %s %s re f\n", num(rect.LLX), num(rect.LLY), num(rect.Width()), num(rect.Height()))
	}
	buf.WriteString("Q\n")
	return buf.Bytes()
}

// num formats f with at most 3 decimals
func num(f float64) string {
	return strconv.FormatFloat(math.Round(f*1000)/1000, 'f', -1, 64)
}
