package redact

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/memory"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/pdftest"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/geom"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/sensitive"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/textpos"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/wrapper"
)

var letter = geom.NativeRect{URX: 612, URY: 792}

func pageContent(t *testing.T, doc document.Document, index int) string {
	t.Helper()
	page, err := doc.Page(index)
	require.NoError(t, err)
	content, err := page.Content()
	require.NoError(t, err)
	return string(content)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want Color
	}{
		{in: "black", want: Black},
		{in: " WHITE ", want: White},
		{in: "gray", want: Gray},
		{in: "grey", want: Gray},
		{in: "", want: Black},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseColor("red")
	assert.Error(t, err)
}

func TestColor_RGB(t *testing.T) {
	r, g, b := Black.RGB()
	assert.Equal(t, []float64{0, 0, 0}, []float64{r, g, b})
	r, g, b = White.RGB()
	assert.Equal(t, []float64{1, 1, 1}, []float64{r, g, b})
	r, g, b = Gray.RGB()
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, []float64{r, g, b})
}

func TestOverlay(t *testing.T) {
	ops := Overlay(letter, []geom.Box{
		{X: 72, Y: 82.4, Width: 30, Height: 12},
		{X: 0, Y: 0, Width: 10, Height: 10},
	}, Gray)

	assert.Equal(t, "q\n"+
		"0.5 0.5 0.5 rg\n"+
		"70 695.6 34 16 re f\n"+
		"-2 780 14 14 re f\n"+
		"Q\n", string(ops))
}

func TestOverlay_OffsetMediaBox(t *testing.T) {
	ops := Overlay(geom.NativeRect{LLX: 100, LLY: 200, URX: 400, URY: 600}, []geom.Box{{X: 50, Y: 342, Width: 5, Height: 10}}, Black)
	assert.Contains(t, string(ops), "148 246 9 14 re f")
}

func TestRedact_NoMatches(t *testing.T) {
	input := memory.Pages(3)
	doc, err := memory.NewBackend().Load(input)
	require.NoError(t, err)

	result, err := Redact(doc, nil, Black, nil)
	require.NoError(t, err)
	assert.Zero(t, result.MatchCount)
	assert.Zero(t, result.PagesAffected)
	assert.Equal(t, input, result.Data)
}

func TestRedact_Memory(t *testing.T) {
	backend := memory.NewBackend()
	doc, err := backend.Load(memory.Pages(3))
	require.NoError(t, err)

	matches := []sensitive.Match{
		{Page: 0, Kind: sensitive.Email, Box: geom.Box{X: 72, Y: 62.4, Width: 36, Height: 12}},
		{Page: 2, Kind: sensitive.Phone, Box: geom.Box{X: 10, Y: 10, Width: 10, Height: 10}},
		{Page: 0, Kind: sensitive.Custom, Box: geom.Box{X: 300, Y: 300, Width: 20, Height: 12}},
	}

	var reports []int
	result, err := Redact(doc, matches, White, func(p int) { reports = append(reports, p) })
	require.NoError(t, err)
	assert.Equal(t, 3, result.MatchCount)
	assert.Equal(t, 2, result.PagesAffected)
	assert.Equal(t, 100, reports[len(reports)-1])

	out, err := backend.Load(result.Data)
	require.NoError(t, err)
	assert.Equal(t, 3, out.PageCount())

	first := pageContent(t, out, 0)
	assert.Contains(t, first, "(Page 1) Tj")
	assert.Contains(t, first, "1 1 1 rg")
	assert.Equal(t, 2, strings.Count(first, " re f"))
	assert.NotContains(t, pageContent(t, out, 1), " re f")
	assert.Equal(t, 1, strings.Count(pageContent(t, out, 2), " re f"))
}

func TestRedact_MatchOutsideDocument(t *testing.T) {
	doc, err := memory.NewBackend().Load(memory.Pages(1))
	require.NoError(t, err)

	_, err = Redact(doc, []sensitive.Match{{Page: 4}}, Black, nil)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, errors.KindInvalidRange))
	assert.Equal(t, errors.OpRedact, errors.OpOf(err))
}

func TestRedact_PDF(t *testing.T) {
	backend := wrapper.NewBackend()
	doc, err := backend.Load(pdftest.Build(
		pdftest.Letter(pdftest.Text(72, 700, "SSN 123-45-6789")),
		pdftest.Letter(pdftest.Text(72, 700, "nothing to see")),
	))
	require.NoError(t, err)

	pages, err := textpos.NativeExtractor{}.Extract(doc)
	require.NoError(t, err)
	matches := sensitive.FindMatches(pages, sensitive.Options{Patterns: []sensitive.PatternKind{sensitive.NationalID}})
	require.Len(t, matches, 1)

	result, err := Redact(doc, matches, Black, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.MatchCount)
	assert.Equal(t, 1, result.PagesAffected)

	out, err := backend.Load(result.Data)
	require.NoError(t, err)
	require.Equal(t, 2, out.PageCount())

	// the run box is x 72..162, baseline 700, inflated by the margin
	first := pageContent(t, out, 0)
	assert.Contains(t, first, "0 0 0 rg")
	assert.Contains(t, first, "70 695.6 94 16 re f")
	assert.Contains(t, first, "(SSN 123-45-6789) Tj")
	assert.NotContains(t, pageContent(t, out, 1), " re f")
}
