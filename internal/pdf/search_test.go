package pdf

import (
	"testing"

	"github.com/spf13/afero"
)

func newTestSearch(t *testing.T) *Search {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := []string{
		"/lib/machine_learning.pdf",
		"/lib/deep_learning_tutorial.pdf",
		"/lib/research_paper.PDF",
		"/lib/notes.txt",
		"/lib/sub/ai_guide.pdf",
		"/lib/.hidden/secret.pdf",
	}
	for _, path := range files {
		if err := afero.WriteFile(fs, path, []byte("%PDF-1.4"), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	if err := afero.WriteFile(fs, "/lib/empty.pdf", nil, 0o644); err != nil {
		t.Fatalf("failed to write empty.pdf: %v", err)
	}
	return NewSearch(fs, NewValidator(fs, 1024, nil))
}

func TestSearch_SearchDirectory(t *testing.T) {
	search := newTestSearch(t)

	tests := []struct {
		name          string
		req           PDFSearchDirectoryRequest
		expectedCount int
		expectError   bool
	}{
		{"all files", PDFSearchDirectoryRequest{Directory: "/lib"}, 4, false},
		{"query match", PDFSearchDirectoryRequest{Directory: "/lib", Query: "learning"}, 2, false},
		{"multi word query", PDFSearchDirectoryRequest{Directory: "/lib", Query: "Deep Tutorial"}, 1, false},
		{"no matches", PDFSearchDirectoryRequest{Directory: "/lib", Query: "nonexistent"}, 0, false},
		{"subdirectory", PDFSearchDirectoryRequest{Directory: "/lib/sub"}, 1, false},
		{"empty directory", PDFSearchDirectoryRequest{Directory: ""}, 0, true},
		{"missing directory", PDFSearchDirectoryRequest{Directory: "/nope"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := search.SearchDirectory(tt.req)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if result.TotalCount != tt.expectedCount {
				t.Errorf("expected %d files but got %d: %v", tt.expectedCount, result.TotalCount, result.Files)
			}
			if result.Directory != tt.req.Directory {
				t.Errorf("expected Directory=%s but got %s", tt.req.Directory, result.Directory)
			}
			for i := 1; i < len(result.Files); i++ {
				if result.Files[i-1].Path > result.Files[i].Path {
					t.Errorf("files are not sorted: %s before %s", result.Files[i-1].Path, result.Files[i].Path)
				}
			}
		})
	}
}

func TestSearch_FindPDFsInDirectoryLimited(t *testing.T) {
	search := newTestSearch(t)

	files, err := search.FindPDFsInDirectoryLimited("/lib", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("expected 2 files but got %d", len(files))
	}

	files, err = search.FindPDFsInDirectoryLimited("/lib", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 4 {
		t.Errorf("expected 4 files without a limit but got %d", len(files))
	}
}

func TestSearch_matchesQuery(t *testing.T) {
	tests := []struct {
		filename string
		query    string
		expected bool
	}{
		// Exact matches
		{"machine_learning.pdf", "machine", true},
		{"document.pdf", "document", true},

		// Case insensitive filenames
		{"Machine_Learning.pdf", "machine", true},
		{"RESEARCH_PAPER.pdf", "research", true},

		// Partial matches
		{"artificial_intelligence.pdf", "intel", true},

		// Word-based matching
		{"deep_learning_tutorial.pdf", "deep tutorial", true},
		{"machine_learning_basics.pdf", "machine basics", true},

		// No matches
		{"document.pdf", "nonexistent", false},
		{"research.pdf", "machine", false},
		{"deep_learning.pdf", "deep tutorial", false},

		// Empty query matches everything
		{"anything.pdf", "", true},

		// Special characters
		{"report-2023.pdf", "2023", true},
		{"summary (final).pdf", "final", true},
		{"data[backup].pdf", "backup", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename+"_"+tt.query, func(t *testing.T) {
			result := matchesQuery(tt.filename, tt.query)
			if result != tt.expected {
				t.Errorf("matchesQuery(%s, %s) = %v, expected %v",
					tt.filename, tt.query, result, tt.expected)
			}
		})
	}
}

func TestSearch_splitIntoWords(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"machine_learning", []string{"machine", "learning"}},
		{"deep-learning-guide", []string{"deep", "learning", "guide"}},
		{"AI.research.paper", []string{"ai", "research", "paper"}},
		{"document (final)", []string{"document", "final"}},
		{"data[backup]", []string{"data", "backup"}},
		{"simple", []string{"simple"}},
		{"", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := splitIntoWords(tt.input)

			if len(result) != len(tt.expected) {
				t.Errorf("expected %d words but got %d", len(tt.expected), len(result))
				return
			}

			for i, word := range result {
				if word != tt.expected[i] {
					t.Errorf("word %d: expected %s but got %s", i, tt.expected[i], word)
				}
			}
		})
	}
}
