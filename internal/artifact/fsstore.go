// Package artifact manages rendered card files on disk and their lifecycle.
package artifact

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileStore writes and deletes artifacts under a root directory. Writes go
// to a temp file first and are renamed into place, so a partially-written
// artifact is never visible at its published path.
type FileStore struct {
	root string
}

// NewFileStore ensures root exists and returns the store.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Root returns the artifact root directory.
func (s *FileStore) Root() string {
	return s.root
}

// AbsPath resolves a stored relative path to an absolute one.
func (s *FileStore) AbsPath(relPath string) string {
	return filepath.Join(s.root, relPath)
}

// WriteAtomic streams content into relPath via a temp file and an atomic
// rename. On any failure the temp file is removed and the published path is
// untouched.
func (s *FileStore) WriteAtomic(relPath string, write func(io.Writer) error) error {
	abs := s.AbsPath(relPath)
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(abs)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("publish artifact: %w", err)
	}
	return nil
}

// Delete removes an artifact file. Returns os.ErrNotExist (wrapped) when the
// file is already gone so callers can treat that case separately.
func (s *FileStore) Delete(relPath string) error {
	return os.Remove(s.AbsPath(relPath))
}

// Size returns the artifact's size in bytes.
func (s *FileStore) Size(relPath string) (int64, error) {
	info, err := os.Stat(s.AbsPath(relPath))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
