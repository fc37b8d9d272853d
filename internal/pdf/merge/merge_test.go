package merge

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/memory"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/pdftest"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/wrapper"
)

func labelled(t *testing.T, prefix string, n int) document.Document {
	t.Helper()
	f := memory.File{}
	for i := 1; i <= n; i++ {
		label := fmt.Sprintf("%s%d", prefix, i)
		f.Pages = append(f.Pages, memory.Letter(label, "BT /F1 12 Tf 72 720 Td ("+label+") Tj ET"))
	}
	doc, err := memory.NewBackend().Load(f.Encode())
	require.NoError(t, err)
	return doc
}

func TestMerge_Order(t *testing.T) {
	backend := memory.NewBackend()
	a, b := labelled(t, "A", 2), labelled(t, "B", 3)

	data, err := Merge(backend, []document.Document{a, b}, nil)
	require.NoError(t, err)

	merged, err := backend.Load(data)
	require.NoError(t, err)
	assert.Equal(t, 5, merged.PageCount())
	assert.Equal(t, []string{"A1", "A2", "B1", "B2", "B3"}, merged.(*memory.Document).Labels())

	data, err = Merge(backend, []document.Document{b, a, b}, nil)
	require.NoError(t, err)
	merged, err = backend.Load(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"B1", "B2", "B3", "A1", "A2", "B1", "B2", "B3"}, merged.(*memory.Document).Labels())
}

func TestMerge_InsufficientInput(t *testing.T) {
	backend := memory.NewBackend()

	for _, docs := range [][]document.Document{nil, {labelled(t, "A", 1)}} {
		_, err := Merge(backend, docs, nil)
		require.Error(t, err)
		assert.True(t, stderrors.Is(err, errors.KindInsufficientInput))
		assert.Equal(t, errors.OpMerge, errors.OpOf(err))
	}
}

func TestMerge_EmptySource(t *testing.T) {
	backend := memory.NewBackend()
	empty, err := backend.Load(memory.File{}.Encode())
	require.NoError(t, err)

	_, err = Merge(backend, []document.Document{labelled(t, "A", 1), empty}, nil)
	assert.True(t, stderrors.Is(err, errors.KindEmptyDocument))
}

func TestMerge_Progress(t *testing.T) {
	var reports []int
	progress := func(p int) { reports = append(reports, p) }

	_, err := Merge(memory.NewBackend(), []document.Document{
		labelled(t, "A", 1), labelled(t, "B", 1), labelled(t, "C", 1),
	}, progress)
	require.NoError(t, err)

	require.Len(t, reports, 4)
	assert.IsNonDecreasing(t, reports)
	assert.Equal(t, 100, reports[len(reports)-1])
}

func TestMerge_PDF(t *testing.T) {
	backend := wrapper.NewBackend()
	a, err := backend.Load(pdftest.Pages(2))
	require.NoError(t, err)
	b, err := backend.Load(pdftest.Build(
		pdftest.Letter(pdftest.Text(72, 700, "second document")),
	))
	require.NoError(t, err)

	data, err := Merge(backend, []document.Document{a, b}, nil)
	require.NoError(t, err)

	merged, err := backend.Load(data)
	require.NoError(t, err)
	require.Equal(t, 3, merged.PageCount())

	for i, want := range []string{"(Page 1)", "(Page 2)", "(second document)"} {
		page, err := merged.Page(i)
		require.NoError(t, err)
		content, err := page.Content()
		require.NoError(t, err)
		assert.Contains(t, string(content), want)
	}
}
