package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"

	"github.com/agroweb/integration-harness/framework"
)

const fileBufferSize = 4096

// FileStore writes each summary as a JSON document. If its path ends in a separator, it is a
// directory and each run gets its own <runId>.json file; otherwise the file is overwritten.
type FileStore struct {
	path   string
	logger framework.Logger
}

func NewFileStore(path string, logger framework.Logger) *FileStore {
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &FileStore{path: path, logger: logger}
}

// PathFor returns the file that a run is written to.
func (f *FileStore) PathFor(runID string) string {
	if strings.HasSuffix(f.path, "/") || strings.HasSuffix(f.path, string(os.PathSeparator)) {
		return filepath.Join(f.path, runID+".json")
	}
	return f.path
}

func (f *FileStore) Save(_ context.Context, s Summary) (err error) {
	path := f.PathFor(s.RunID)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create results directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create results file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
	}()

	w := jwriter.NewStreamingWriter(file, fileBufferSize)
	s.WriteJSON(&w)
	if err := w.Flush(); err != nil {
		return fmt.Errorf("cannot write results file: %w", err)
	}
	if err := w.Error(); err != nil {
		return fmt.Errorf("cannot encode results: %w", err)
	}
	f.logger.Printf("Wrote results of run %s to %s", s.RunID, path)
	return nil
}

func (f *FileStore) Close() error { return nil }

// ReadFile loads a summary written by FileStore.
func ReadFile(path string) (Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Summary{}, err
	}
	var s Summary
	r := jreader.NewReader(data)
	s.ReadJSON(&r)
	if err := r.Error(); err != nil {
		return Summary{}, fmt.Errorf("malformed results file %s: %w", path, err)
	}
	return s, nil
}
