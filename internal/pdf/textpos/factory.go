package textpos

import (
	"fmt"
	"strings"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
)

// BackendType selects a text extraction implementation
type BackendType string

const (
	BackendNative     BackendType = "native"
	BackendLedongthuc BackendType = "ledongthuc"
	BackendAuto       BackendType = "auto"
)

// ParseBackendType parses a configured backend name
func ParseBackendType(s string) (BackendType, error) {
	switch t := BackendType(strings.ToLower(strings.TrimSpace(s))); t {
	case BackendNative, BackendLedongthuc, BackendAuto:
		return t, nil
	case "":
		return BackendAuto, nil
	}
	return "", fmt.Errorf("unsupported text backend %q (use native, ledongthuc or auto)", s)
}

// NewExtractor creates the extractor for t
func NewExtractor(t BackendType) (Extractor, error) {
	switch t {
	case BackendNative:
		return NativeExtractor{}, nil
	case BackendLedongthuc:
		return LedongthucExtractor{}, nil
	case BackendAuto, "":
		return AutoExtractor{Primary: NativeExtractor{}, Fallback: LedongthucExtractor{}}, nil
	}
	return nil, fmt.Errorf("unsupported text backend %q", t)
}

// AutoExtractor uses Primary and fills pages on which it found no text
// from Fallback. Fallback failures are not reported.
type AutoExtractor struct {
	Primary  Extractor
	Fallback Extractor
}

// Name returns the extractor name
func (a AutoExtractor) Name() string {
	return string(BackendAuto)
}

// Extract runs the primary extractor and patches empty pages
func (a AutoExtractor) Extract(doc document.Document) ([]PageRuns, error) {
	pages, err := a.Primary.Extract(doc)
	if err != nil {
		if fallback, ferr := a.Fallback.Extract(doc); ferr == nil {
			return fallback, nil
		}
		return nil, err
	}

	missing := false
	for _, p := range pages {
		if len(p.Runs) == 0 {
			missing = true
			break
		}
	}
	if !missing {
		return pages, nil
	}

	fallback, ferr := a.Fallback.Extract(doc)
	if ferr != nil {
		return pages, nil
	}
	byPage := make(map[int][]Run, len(fallback))
	for _, p := range fallback {
		byPage[p.Page] = p.Runs
	}
	for i := range pages {
		if len(pages[i].Runs) == 0 {
			pages[i].Runs = byPage[pages[i].Page]
		}
	}
	return pages, nil
}
