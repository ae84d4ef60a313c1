// Package storage keeps uploaded file bytes outside the database.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is a flat key/value object store.
type Store interface {
	Put(key string, r io.Reader) (int64, error)
	Open(key string) (io.ReadCloser, error)
	Delete(key string) error
	// CheckWritable fails when new objects cannot be written.
	CheckWritable() error
}

// NewKey returns a fresh object key that keeps the file extension.
func NewKey(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

// FS stores objects as files in one directory.
type FS struct{ dir string }

func NewFS(dir string) (*FS, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FS{dir: dir}, nil
}

func (s *FS) path(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.dir, key), nil
}

func (s *FS) Put(key string, r io.Reader) (int64, error) {
	p, err := s.path(key)
	if err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return 0, err
	}
	return n, nil
}

func (s *FS) Open(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Delete removes the object; a missing object is not an error.
func (s *FS) Delete(key string) error {
	p, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FS) CheckWritable() error {
	f, err := os.CreateTemp(s.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("storage not writable: %w", err)
	}
	f.Close()
	return os.Remove(f.Name())
}
