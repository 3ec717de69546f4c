package addrcache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// JSONStore keeps the cache as a single indented JSON object on disk.
type JSONStore struct {
	entries
	path string
}

// NewJSON creates a JSONStore backed by path. The file is not read until Load.
func NewJSON(path string) *JSONStore {
	return &JSONStore{entries: newEntries(), path: path}
}

// Path returns the backing file path.
func (s *JSONStore) Path() string { return s.path }

// Load reads the file. A missing or unreadable file loads as an empty cache.
func (s *JSONStore) Load(_ context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.L().Warn("addrcache: read file failed, starting empty",
				zap.String("path", s.path), zap.Error(err))
		}
		s.replace(nil)
		return nil
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		zap.L().Warn("addrcache: parse file failed, starting empty",
			zap.String("path", s.path), zap.Error(err))
		s.replace(nil)
		return nil
	}

	s.replace(m)
	return nil
}

// Flush rewrites the whole file with 2-space indentation and literal UTF-8.
func (s *JSONStore) Flush(_ context.Context) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Snapshot()); err != nil {
		return eris.Wrap(err, "addrcache: encode json")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "addrcache: create dir %s", dir)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "addrcache: write %s", tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return eris.Wrapf(err, "addrcache: rename %s", tmp)
	}

	s.markClean()
	return nil
}

// Close is a no-op.
func (s *JSONStore) Close() error { return nil }
