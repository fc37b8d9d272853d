package pdf

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/multierr"

	"github.com/a3tai/mcp-pdf-engine/internal/pdf/split"
)

const (
	jobDirPerm  = 0o750
	jobFilePerm = 0o640
)

// jobWriter writes the outputs of one operation into its own directory.
// A job either keeps every output or, after abort, none of them.
type jobWriter struct {
	fs  afero.Fs
	job Job
}

func newJobWriter(fs afero.Fs, outputRoot string) (*jobWriter, error) {
	id := uuid.NewString()
	dir := filepath.Join(outputRoot, id)
	if err := fs.MkdirAll(dir, jobDirPerm); err != nil {
		return nil, fmt.Errorf("cannot create output directory: %w", err)
	}
	return &jobWriter{fs: fs, job: Job{ID: id, OutputDir: dir}}, nil
}

func (j *jobWriter) write(name string, data []byte) (OutputFile, error) {
	path := filepath.Join(j.job.OutputDir, filepath.Base(name))
	if err := afero.WriteFile(j.fs, path, data, jobFilePerm); err != nil {
		return OutputFile{}, fmt.Errorf("cannot write %s: %w", filepath.Base(name), err)
	}
	return OutputFile{Name: filepath.Base(name), Path: path, Size: int64(len(data))}, nil
}

// abort removes the job directory and returns cause combined with any
// cleanup failure.
func (j *jobWriter) abort(cause error) error {
	if err := j.fs.RemoveAll(j.job.OutputDir); err != nil {
		log.Printf("failed to remove output directory %s: %v", j.job.OutputDir, err)
		return multierr.Append(cause, fmt.Errorf("cleanup of %s failed: %w", j.job.OutputDir, err))
	}
	return cause
}

// writeOutputs writes every split output or none of them
func (j *jobWriter) writeOutputs(outputs []split.Output) ([]OutputFile, error) {
	files := make([]OutputFile, 0, len(outputs))
	for _, o := range outputs {
		f, err := j.write(o.Name, o.Data)
		if err != nil {
			return nil, j.abort(err)
		}
		files = append(files, f)
	}
	return files, nil
}

// outputName returns requested as a bare .pdf file name, or fallback
func outputName(requested, fallback string) string {
	name := strings.TrimSpace(strings.ReplaceAll(requested, "\x00", ""))
	if name == "" {
		return fallback
	}
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return fallback
	}
	if !isPDFName(name) {
		name += ".pdf"
	}
	return name
}

// derivedName returns {base}_{suffix}.{ext} for a source path
func derivedName(source, suffix string) string {
	base, ext := split.Names(filepath.Base(source))
	return fmt.Sprintf("%s_%s.%s", base, suffix, ext)
}
