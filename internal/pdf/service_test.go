package pdf

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document/memory"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
)

const testInputDir = "/data"

func newTestService(t *testing.T) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(testInputDir, 0o755))

	s, err := NewService(ServiceConfig{
		Fs:          fs,
		InputDir:    testInputDir,
		MaxFileSize: 1024 * 1024,
		TextBackend: "native",
		Backend:     memory.NewBackend(),
	})
	require.NoError(t, err)
	return s, fs
}

func writeInput(t *testing.T, fs afero.Fs, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(testInputDir, name)
	require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
	return path
}

func textFile(lines ...string) []byte {
	f := memory.File{}
	for i, line := range lines {
		f.Pages = append(f.Pages, memory.Letter(fmt.Sprintf("p%d", i+1),
			fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", line)))
	}
	return f.Encode()
}

func outputLabels(t *testing.T, fs afero.Fs, path string) []string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	doc, err := memory.NewBackend().Load(data)
	require.NoError(t, err)
	return doc.(*memory.Document).Labels()
}

func TestNewService_Defaults(t *testing.T) {
	s, _ := newTestService(t)

	cfg := s.Config()
	assert.Equal(t, "/data/output", cfg.OutputDir)
	assert.Equal(t, DefaultMaxMergeFiles, cfg.MaxMergeFiles)
	assert.Equal(t, DefaultScanWorkers, cfg.ScanWorkers)
	assert.Equal(t, "native", cfg.TextBackend)
	assert.Equal(t, "black", cfg.DefaultColor)
	assert.Equal(t, int64(1024*1024), s.GetMaxFileSize())
}

func TestNewService_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServiceConfig
	}{
		{"zero max file size", ServiceConfig{MaxFileSize: 0}},
		{"max file size above limit", ServiceConfig{MaxFileSize: 2 * 1024 * 1024 * 1024}},
		{"merge limit below two", ServiceConfig{MaxFileSize: 1024, MaxMergeFiles: 1}},
		{"unknown text backend", ServiceConfig{MaxFileSize: 1024, TextBackend: "ocr"}},
		{"unknown default color", ServiceConfig{MaxFileSize: 1024, DefaultColor: "pink"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.Fs = afero.NewMemMapFs()
			tt.cfg.Backend = memory.NewBackend()
			_, err := NewService(tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestService_PDFMerge(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "a.pdf", memory.Pages(2))
	writeInput(t, fs, "b.pdf", memory.Pages(3))

	var reported []int
	res, err := s.PDFMerge(PDFMergeRequest{Paths: []string{"a.pdf", "/data/b.pdf"}}, func(p int) {
		reported = append(reported, p)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.InputCount)
	assert.Equal(t, 5, res.PageCount)
	assert.Equal(t, "merged.pdf", res.Output.Name)
	assert.Equal(t, filepath.Join("/data/output", res.ID, "merged.pdf"), res.Output.Path)
	assert.Equal(t, []string{"Page 1", "Page 2", "Page 1", "Page 2", "Page 3"}, outputLabels(t, fs, res.Output.Path))
	require.NotEmpty(t, reported)
	assert.Equal(t, 100, reported[len(reported)-1])
}

func TestService_PDFMerge_OutputName(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "a.pdf", memory.Pages(1))
	writeInput(t, fs, "b.pdf", memory.Pages(1))

	res, err := s.PDFMerge(PDFMergeRequest{Paths: []string{"a.pdf", "b.pdf"}, OutputName: "../../combined"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "combined.pdf", res.Output.Name)
}

func TestService_PDFMerge_Errors(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "a.pdf", memory.Pages(1))

	_, err := s.PDFMerge(PDFMergeRequest{Paths: []string{"a.pdf"}}, nil)
	assert.True(t, stderrors.Is(err, errors.KindInsufficientInput))

	paths := make([]string, DefaultMaxMergeFiles+1)
	for i := range paths {
		paths[i] = "a.pdf"
	}
	_, err = s.PDFMerge(PDFMergeRequest{Paths: paths}, nil)
	assert.ErrorContains(t, err, "too many files")

	_, err = s.PDFMerge(PDFMergeRequest{Paths: []string{"a.pdf", "../etc/passwd.pdf"}}, nil)
	assert.ErrorContains(t, err, "security validation failed")

	_, err = s.PDFMerge(PDFMergeRequest{Paths: []string{"a.pdf", "missing.pdf"}}, nil)
	assert.ErrorContains(t, err, "file does not exist")

	entries, _ := afero.ReadDir(fs, "/data/output")
	assert.Empty(t, entries, "failed merges leave no job directories")
}

func TestService_PDFSplit(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "report.pdf", memory.Pages(4))

	tests := []struct {
		name  string
		req   PDFSplitRequest
		files []string
	}{
		{"default mode", PDFSplitRequest{Path: "report.pdf"},
			[]string{"report_page_1.pdf", "report_page_2.pdf", "report_page_3.pdf", "report_page_4.pdf"}},
		{"range mode", PDFSplitRequest{Path: "report.pdf", Mode: "Range", Ranges: "2-3"},
			[]string{"report_page_2.pdf", "report_page_3.pdf"}},
		{"extract mode", PDFSplitRequest{Path: "report.pdf", Mode: "extract", Pages: []int{4, 1}},
			[]string{"report_page_1.pdf", "report_page_4.pdf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.PDFSplit(tt.req, nil)
			require.NoError(t, err)
			assert.Equal(t, "/data/report.pdf", res.Source)

			names := make([]string, len(res.Files))
			for i, f := range res.Files {
				names[i] = f.Name
				exists, _ := afero.Exists(fs, f.Path)
				assert.True(t, exists, f.Path)
			}
			assert.Equal(t, tt.files, names)
		})
	}
}

func TestService_PDFSplit_Errors(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "report.pdf", memory.Pages(2))

	_, err := s.PDFSplit(PDFSplitRequest{Path: "report.pdf", Mode: "zip"}, nil)
	assert.True(t, stderrors.Is(err, errors.KindUnsupportedMode))

	_, err = s.PDFSplit(PDFSplitRequest{Path: "report.pdf", Mode: "extract", Pages: []int{3}}, nil)
	assert.True(t, stderrors.Is(err, errors.KindInvalidRange))

	_, err = s.PDFSplit(PDFSplitRequest{Path: "report.pdf", Mode: "range", Ranges: "9-12"}, nil)
	assert.Error(t, err)
}

func TestService_PDFSplitRanges(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "book.pdf", memory.Pages(5))

	res, err := s.PDFSplitRanges(PDFSplitRangesRequest{Path: "book.pdf", Ranges: "1-2, 3-5"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Files, 2)
	assert.Equal(t, "book_pages_1-2.pdf", res.Files[0].Name)
	assert.Equal(t, "book_pages_3-5.pdf", res.Files[1].Name)
	assert.Equal(t, []string{"Page 3", "Page 4", "Page 5"}, outputLabels(t, fs, res.Files[1].Path))
}

func TestService_PDFCompress(t *testing.T) {
	s, fs := newTestService(t)
	f := memory.File{
		Info:  document.Metadata{Title: "Quarterly", Author: "Finance"},
		XMP:   "<x:xmpmeta/>",
		Pages: []memory.PageSpec{memory.Letter("one", "")},
	}
	data := f.Encode()
	writeInput(t, fs, "q.pdf", data)

	res, err := s.PDFCompress(PDFCompressRequest{Path: "q.pdf", RemoveMetadata: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "q_compressed.pdf", res.Output.Name)
	assert.Equal(t, int64(len(data)), res.Stats.Original)
	assert.Equal(t, res.Output.Size, res.Stats.Compressed)

	out, err := afero.ReadFile(fs, res.Output.Path)
	require.NoError(t, err)
	doc, err := memory.NewBackend().Load(out)
	require.NoError(t, err)
	assert.Empty(t, doc.Info().Title)
	assert.Empty(t, doc.(*memory.Document).XMP())
}

func TestService_PDFScanSensitive(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "people.pdf", textFile("Card 4111 1111 1111 1111", "nothing here", "mail ops@example.org"))

	res, err := s.PDFScanSensitive(PDFScanRequest{Path: "people.pdf"})
	require.NoError(t, err)
	assert.Equal(t, []string{"creditCard", "nationalId", "phone", "email"}, res.Patterns)
	require.Equal(t, 2, res.MatchCount)
	assert.Equal(t, 2, res.PagesAffected)

	card := res.Matches[0]
	assert.Equal(t, 1, card.Page)
	assert.Equal(t, "creditCard", card.Kind)
	assert.Equal(t, "4111 1111 1111 1111", card.Text)
	assert.Equal(t, "411111******1111", card.Masked)

	mail := res.Matches[1]
	assert.Equal(t, 3, mail.Page)
	assert.Equal(t, "o**@example.org", mail.Masked)

	entries, _ := afero.ReadDir(fs, "/data/output")
	assert.Empty(t, entries, "scanning writes nothing")
}

func TestService_PDFScanSensitive_Options(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "people.pdf", textFile("Card 4111 1111 1111 1111 for Project Falcon"))

	res, err := s.PDFScanSensitive(PDFScanRequest{Path: "people.pdf", Keywords: []string{"project falcon"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"custom"}, res.Patterns)
	require.Equal(t, 1, res.MatchCount)
	assert.Equal(t, "Project Falcon", res.Matches[0].Text)

	_, err = s.PDFScanSensitive(PDFScanRequest{Path: "people.pdf", Patterns: []string{"passport"}})
	assert.True(t, stderrors.Is(err, errors.KindInvalidOptions))
}

func TestService_PDFScanBatch(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "a.pdf", textFile("Card 4111 1111 1111 1111"))
	writeInput(t, fs, "b.pdf", textFile("mail ops@example.org and dev@example.org"))

	res, err := s.PDFScanBatch(context.Background(), PDFScanBatchRequest{
		Paths: []string{"a.pdf", "missing.pdf", "b.pdf"},
	})
	require.NoError(t, err)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "/data/a.pdf", res.Results[0].Path)
	assert.Equal(t, "/data/b.pdf", res.Results[1].Path)
	assert.Equal(t, 3, res.TotalMatches)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "missing.pdf", res.Failures[0].Path)
}

func TestService_PDFScanBatch_AllFail(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.PDFScanBatch(context.Background(), PDFScanBatchRequest{})
	assert.True(t, stderrors.Is(err, errors.KindInsufficientInput))

	_, err = s.PDFScanBatch(context.Background(), PDFScanBatchRequest{Paths: []string{"x.pdf", "y.pdf"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "x.pdf")
	assert.ErrorContains(t, err, "y.pdf")
}

func TestService_PDFScanBatch_Cancelled(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "a.pdf", textFile("Card 4111 1111 1111 1111"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.PDFScanBatch(ctx, PDFScanBatchRequest{Paths: []string{"a.pdf"}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestService_PDFRedact(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "people.pdf", textFile("Card 4111 1111 1111 1111", "clean"))

	res, err := s.PDFRedact(PDFRedactRequest{Path: "people.pdf", Color: "gray"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "people_redacted.pdf", res.Output.Name)
	assert.Equal(t, "gray", res.Color)
	assert.Equal(t, 1, res.MatchCount)
	assert.Equal(t, 1, res.PagesAffected)
	require.Len(t, res.Matches, 1)
	assert.Equal(t, 1, res.Matches[0].Page)

	out, err := afero.ReadFile(fs, res.Output.Path)
	require.NoError(t, err)
	doc, err := memory.NewBackend().Load(out)
	require.NoError(t, err)
	page, err := doc.Page(0)
	require.NoError(t, err)
	content, err := page.Content()
	require.NoError(t, err)
	assert.Contains(t, string(content), "0.5 0.5 0.5 rg")
	assert.Contains(t, string(content), "re f")
}

func TestService_PDFRedact_NoMatchesStillWritten(t *testing.T) {
	s, fs := newTestService(t)
	data := textFile("nothing to see")
	writeInput(t, fs, "clean.pdf", data)

	res, err := s.PDFRedact(PDFRedactRequest{Path: "clean.pdf"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "black", res.Color)
	assert.Zero(t, res.MatchCount)
	assert.Empty(t, res.Matches)

	out, err := afero.ReadFile(fs, res.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, data, out)
}

func TestService_PDFRedact_InvalidColor(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "people.pdf", textFile("x"))

	_, err := s.PDFRedact(PDFRedactRequest{Path: "people.pdf", Color: "pink"}, nil)
	assert.True(t, stderrors.Is(err, errors.KindInvalidOptions))
	assert.Equal(t, errors.OpRedact, errors.OpOf(err))
}

func TestService_PDFDocumentInfo(t *testing.T) {
	s, fs := newTestService(t)
	data := memory.Pages(2)
	writeInput(t, fs, "a.pdf", data)

	res, err := s.PDFDocumentInfo(PDFDocumentInfoRequest{Path: "a.pdf"})
	require.NoError(t, err)
	assert.Equal(t, "/data/a.pdf", res.Path)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.Equal(t, 2, res.PageCount)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, 1, res.Pages[0].Page)
	assert.Equal(t, 612.0, res.Pages[0].Width)
	assert.Equal(t, 792.0, res.Pages[0].Height)
}

func TestService_PDFSearchDirectory(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "annual_report.pdf", memory.Pages(1))
	writeInput(t, fs, "notes.txt", []byte("text"))
	writeInput(t, fs, "archive/old_report.pdf", memory.Pages(1))

	res, err := s.PDFSearchDirectory(PDFSearchDirectoryRequest{Query: "report"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalCount)

	res, err = s.PDFSearchDirectory(PDFSearchDirectoryRequest{Directory: "archive"})
	require.NoError(t, err)
	require.Len(t, res.Files, 1)
	assert.Equal(t, "/data/archive/old_report.pdf", res.Files[0].Path)

	_, err = s.PDFSearchDirectory(PDFSearchDirectoryRequest{Directory: "/etc"})
	assert.ErrorContains(t, err, "security validation failed")
}

func TestService_PDFServerInfo(t *testing.T) {
	s, fs := newTestService(t)
	writeInput(t, fs, "a.pdf", memory.Pages(1))
	writeInput(t, fs, "b.pdf", memory.Pages(1))

	_, err := s.PDFMerge(PDFMergeRequest{Paths: []string{"a.pdf", "b.pdf"}}, nil)
	require.NoError(t, err)

	res, err := s.PDFServerInfo(context.Background(), "test-server", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "test-server", res.ServerName)
	assert.Equal(t, "/data", res.DefaultDirectory)
	assert.Equal(t, "/data/output", res.OutputDirectory)
	assert.Equal(t, memory.BackendName, res.DocumentBackend)
	assert.Len(t, res.DirectoryContents, 2, "job outputs are not listed")
}
