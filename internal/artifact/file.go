package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileStore keeps artifacts under a local directory.
type FileStore struct {
	root string
}

// NewFileStore creates root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact directory: %w", ErrStoreNotInitialized)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	return &FileStore{root: root}, nil
}

// Put writes body atomically under key.
func (s *FileStore) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".upload-")
	if err != nil {
		return err
	}

	if _, err = io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())

		return err
	}

	if err = tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())

		return err
	}

	return os.Rename(tmp.Name(), target)
}

// Get opens the artifact stored under key.
func (s *FileStore) Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error) {
	info, err := s.Stat(ctx, key)
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	target, _ := s.path(key)

	file, err := os.Open(filepath.Clean(target))
	if err != nil {
		return nil, ObjectInfo{}, err
	}

	return file, info, nil
}

// Stat describes the artifact stored under key.
func (s *FileStore) Stat(_ context.Context, key string) (ObjectInfo, error) {
	target, err := s.path(key)
	if err != nil {
		return ObjectInfo{}, err
	}

	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return ObjectInfo{}, fmt.Errorf("%s: %w", key, ErrNotFound)
	}

	if err != nil {
		return ObjectInfo{}, err
	}

	return ObjectInfo{
		Key:          key,
		Size:         info.Size(),
		ContentType:  ContentType,
		LastModified: info.ModTime(),
	}, nil
}

// Delete removes the artifact; a missing one is not an error.
func (s *FileStore) Delete(_ context.Context, key string) error {
	target, err := s.path(key)
	if err != nil {
		return err
	}

	if err = os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

func (s *FileStore) path(key string) (string, error) {
	if s == nil || s.root == "" {
		return "", ErrStoreNotInitialized
	}

	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid artifact key %q", key)
	}

	return filepath.Join(s.root, clean), nil
}
