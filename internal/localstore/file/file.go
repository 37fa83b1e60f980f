package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/naochaLuwang/daciana-cart/internal/localstore"
)

// Storage implements localstore.Storage on the local filesystem: one file per
// key under a base directory. Writes go through a temp file and rename so a
// crash mid-write never leaves a torn value behind.
type Storage struct {
	dir string
}

// New creates the base directory if needed and returns a file-backed storage.
func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Get returns the value stored under key, or localstore.ErrNotFound.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("key %q: %w", key, localstore.ErrNotFound)
		}
		return nil, fmt.Errorf("read key %q: %w", key, err)
	}
	return data, nil
}

// Set stores value under key atomically.
func (s *Storage) Set(_ context.Context, key string, value []byte) error {
	target := s.path(key)

	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write key %q: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename key %q: %w", key, err)
	}
	return nil
}

// Remove deletes the value stored under key; absent keys are not an error.
func (s *Storage) Remove(_ context.Context, key string) error {
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove key %q: %w", key, err)
	}
	return nil
}

// path maps a key to a filename, replacing separators so keys like
// "cart/state" stay inside the base directory.
func (s *Storage) path(key string) string {
	name := strings.NewReplacer("/", "_", string(filepath.Separator), "_").Replace(key)
	return filepath.Join(s.dir, name)
}
