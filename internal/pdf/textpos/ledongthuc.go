package textpos

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
)

const (
	// runGap is the horizontal gap, relative to the font size, that
	// separates two glyph runs on the same line
	runGap = 0.3

	lineTolerance = 1.0
)

// LedongthucExtractor extracts runs with github.com/ledongthuc/pdf. It
// works on the serialized document and needs a real PDF.
type LedongthucExtractor struct{}

// Name returns the extractor name
func (LedongthucExtractor) Name() string {
	return string(BackendLedongthuc)
}

// Extract returns the runs of every page the library can read
func (LedongthucExtractor) Extract(doc document.Document) ([]PageRuns, error) {
	data, err := doc.Bytes()
	if err != nil {
		return nil, errors.Rewrap(errors.OpScan, err, "cannot serialize document")
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(errors.OpScan, errors.KindCorrupt, err, "failed to open PDF")
	}

	total := min(reader.NumPage(), doc.PageCount())
	pages := make([]PageRuns, 0, total)
	for i := 1; i <= total; i++ {
		page, err := doc.Page(i - 1)
		if err != nil {
			return nil, errors.Rewrap(errors.OpScan, err, "cannot open page %d", i)
		}

		texts, err := pageTexts(reader.Page(i))
		if err != nil {
			return nil, errors.Wrap(errors.OpScan, errors.KindCorrupt, err, "failed to read page %d", i)
		}
		pages = append(pages, PageRuns{Page: i - 1, Runs: groupTexts(texts, page.MediaBox())})
	}
	return pages, nil
}

// pageTexts returns the positioned glyphs of a page. The library panics on
// some malformed content streams.
func pageTexts(p pdf.Page) (texts []pdf.Text, err error) {
	defer func() {
		if r := recover(); r != nil {
			texts, err = nil, fmt.Errorf("content stream panic: %v", r)
		}
	}()

	if p.V.IsNull() {
		return nil, nil
	}
	return p.Content().Text, nil
}

type glyphRun struct {
	text     strings.Builder
	x0, endX float64
	baseline float64
	height   float64
}

// groupTexts joins glyphs that sit next to each other on a baseline
func groupTexts(texts []pdf.Text, mediaBox geom.NativeRect) []Run {
	var runs []Run
	var cur *glyphRun

	flush := func() {
		if cur == nil {
			return
		}
		text := cur.text.String()
		if strings.TrimSpace(text) != "" {
			h := cur.height
			if h <= 0 {
				h = FallbackHeight
			}
			rect := geom.NativeRect{
				LLX: cur.x0,
				LLY: cur.baseline - descent*h,
				URX: cur.endX,
				URY: cur.baseline + ascent*h,
			}
			runs = append(runs, Run{Text: text, Box: geom.ToBox(mediaBox, rect)})
		}
		cur = nil
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		size := math.Abs(t.FontSize)

		if cur != nil {
			sameLine := math.Abs(t.Y-cur.baseline) <= lineTolerance
			gap := t.X - cur.endX
			if !sameLine || gap > runGap*math.Max(size, 1) || gap < -math.Max(size, 1) {
				flush()
			}
		}

		if cur == nil {
			cur = &glyphRun{x0: t.X, endX: t.X, baseline: t.Y}
		}
		cur.text.WriteString(t.S)
		cur.endX = math.Max(cur.endX, t.X+t.W)
		cur.height = math.Max(cur.height, size)
	}
	flush()

	return runs
}
