package compress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/memory"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/pdftest"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/wrapper"
)

func TestCalc(t *testing.T) {
	tests := []struct {
		original, compressed int64
		saved                int64
		percent              float64
	}{
		{original: 1000, compressed: 700, saved: 300, percent: 30},
		{original: 1000, compressed: 1000, saved: 0, percent: 0},
		{original: 1000, compressed: 1200, saved: 0, percent: 0},
		{original: 0, compressed: 0, saved: 0, percent: 0},
		{original: 1000, compressed: 0, saved: 1000, percent: 100},
		{original: 0, compressed: 50, saved: 0, percent: 0},
	}

	for _, tt := range tests {
		s := Calc(tt.original, tt.compressed)
		assert.Equal(t, tt.saved, s.Saved, "calc(%d, %d)", tt.original, tt.compressed)
		assert.InDelta(t, tt.percent, s.Percent, 1e-9, "calc(%d, %d)", tt.original, tt.compressed)
		assert.Equal(t, tt.original, s.Original)
		assert.Equal(t, tt.compressed, s.Compressed)
	}
}

func memoryDoc(t *testing.T) (document.Document, []byte) {
	t.Helper()
	f := memory.File{
		Info: document.Metadata{
			Title:        "Payroll",
			Author:       "HR",
			Producer:     "Writer 1.0",
			CreationDate: "D:20240101000000Z",
		},
		XMP:   "<x:xmpmeta>payroll</x:xmpmeta>",
		Pages: []memory.PageSpec{memory.Letter("one", "BT /F1 12 Tf 72 720 Td (one) Tj ET")},
	}
	var loose bytes.Buffer
	doc, err := memory.NewBackend().Load(f.Encode())
	require.NoError(t, err)
	require.NoError(t, doc.Save(&loose, document.SaveOptions{}))

	doc, err = memory.NewBackend().Load(loose.Bytes())
	require.NoError(t, err)
	return doc, loose.Bytes()
}

func TestCompress_RemoveMetadata(t *testing.T) {
	doc, original := memoryDoc(t)

	var reports []int
	data, err := Compress(doc, Options{RemoveMetadata: true}, func(p int) { reports = append(reports, p) })
	require.NoError(t, err)
	assert.Less(t, len(data), len(original))
	assert.Equal(t, 100, reports[len(reports)-1])

	out, err := memory.NewBackend().Load(data)
	require.NoError(t, err)
	assert.Equal(t, document.Metadata{CreationDate: MetadataEpoch, ModDate: MetadataEpoch}, out.Info())
	assert.Empty(t, out.(*memory.Document).XMP())
	assert.Equal(t, 1, out.PageCount())

	stats := Calc(int64(len(original)), int64(len(data)))
	assert.Positive(t, stats.Saved)
}

func TestCompress_KeepMetadata(t *testing.T) {
	doc, _ := memoryDoc(t)

	data, err := Compress(doc, Options{}, nil)
	require.NoError(t, err)

	out, err := memory.NewBackend().Load(data)
	require.NoError(t, err)
	assert.Equal(t, "Payroll", out.Info().Title)
	assert.NotEmpty(t, out.(*memory.Document).XMP())
}

func TestCompress_PDF(t *testing.T) {
	backend := wrapper.NewBackend()
	original := pdftest.BuildWithInfo(&pdftest.Info{
		Title:   "Confidential",
		Author:  "Jane Roe",
		Creator: "Editor",
	}, pdftest.Letter(pdftest.Text(72, 700, "one")), pdftest.Letter(pdftest.Text(72, 700, "two")))
	input := append([]byte(nil), original...)

	doc, err := backend.Load(input)
	require.NoError(t, err)

	data, err := Compress(doc, Options{RemoveMetadata: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, original, input)

	out, err := backend.Load(data)
	require.NoError(t, err)
	assert.Equal(t, 2, out.PageCount())

	info := out.Info()
	assert.Empty(t, info.Title)
	assert.Empty(t, info.Author)
	assert.Empty(t, info.Creator)
	assert.Equal(t, MetadataEpoch, info.CreationDate)

	page, err := out.Page(1)
	require.NoError(t, err)
	content, err := page.Content()
	require.NoError(t, err)
	assert.Contains(t, string(content), "(two)")
}

func TestCompress_PDFKeepsMetadata(t *testing.T) {
	backend := wrapper.NewBackend()
	doc, err := backend.Load(pdftest.BuildWithInfo(&pdftest.Info{Title: "Keep me"}, pdftest.Letter()))
	require.NoError(t, err)

	data, err := Compress(doc, Options{}, nil)
	require.NoError(t, err)

	out, err := backend.Load(data)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", out.Info().Title)
}
