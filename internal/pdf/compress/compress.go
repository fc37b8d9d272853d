// Package compress re-serializes documents in their densest form.
package compress

import (
	"bytes"
	"math"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/document"
	"github.com/a3tai/mcp-pdf-engine/internal/pdf/errors"
)

// MetadataEpoch replaces both document timestamps when metadata is removed
const MetadataEpoch = "D:19700101000000Z"

// Options controls compression
type Options struct {
	RemoveMetadata bool
}

// Compress writes doc with object and cross-reference streams, after
// dropping unused objects and, optionally, the descriptive metadata.
func Compress(doc document.Document, opts Options, progress document.ProgressFunc) ([]byte, error) {
	progress.Report(0)

	if opts.RemoveMetadata {
		if err := doc.ClearMetadata(MetadataEpoch); err != nil {
			return nil, errors.Rewrap(errors.OpCompress, err, "cannot clear metadata")
		}
	}
	progress.Report(30)

	var out bytes.Buffer
	if err := doc.Save(&out, document.SaveOptions{ObjectStreams: true, Optimize: true}); err != nil {
		return nil, errors.Rewrap(errors.OpCompress, err, "cannot write compressed document")
	}
	progress.Report(100)
	return out.Bytes(), nil
}

// Stats describes the size change of a compression
type Stats struct {
	Original   int64   `json:"original_size"`
	Compressed int64   `json:"compressed_size"`
	Saved      int64   `json:"saved_bytes"`
	Percent    float64 `json:"saved_percent"`
}

// Calc computes the savings of a compression. Growth counts as no saving
// and an empty original saves nothing.
func Calc(original, compressed int64) Stats {
	s := Stats{Original: original, Compressed: compressed}
	if original <= 0 {
		return s
	}
	s.Saved = max(0, original-compressed)
	s.Percent = math.Max(0, float64(s.Saved)/float64(original)*100)
	return s
}
