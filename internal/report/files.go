package report

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"mireval/internal/evaluation"
	"mireval/internal/fileutil"
	"mireval/internal/textutil"
)

// ErrLocked indicates another process is writing reports into the same directory.
var ErrLocked = errors.New("output directory locked by another run")

const lockFileName = ".mireval.lock"

// BaseName is the file stem shared by every report written for rs.
func BaseName(rs *evaluation.ResultSet) string {
	return textutil.Slug(rs.Task.Name) + "-" + rs.RunID
}

// WriteFiles writes the JSON, YAML and plain-table renderings of rs into dir
// and returns the paths written. The directory is locked for the duration.
func WriteFiles(dir string, rs *evaluation.ResultSet, opts Options) ([]string, error) {
	if rs == nil {
		return nil, fmt.Errorf("report: nil result set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	defer func() { _ = lock.Unlock() }()

	plain := opts
	plain.Fancy = false
	renderers := []struct {
		ext    string
		render func(*bytes.Buffer) error
	}{
		{"json", func(b *bytes.Buffer) error { return WriteJSON(b, rs, opts) }},
		{"yaml", func(b *bytes.Buffer) error { return WriteYAML(b, rs, opts) }},
		{"txt", func(b *bytes.Buffer) error { return WriteTables(b, rs, plain) }},
	}

	base := BaseName(rs)
	paths := make([]string, 0, len(renderers))
	for _, r := range renderers {
		var buf bytes.Buffer
		if err := r.render(&buf); err != nil {
			return paths, err
		}
		path := filepath.Join(dir, base+"."+r.ext)
		if err := fileutil.WriteAtomic(path, buf.Bytes(), 0o644); err != nil {
			return paths, fmt.Errorf("write report: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
