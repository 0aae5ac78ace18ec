package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/logger"
)

var (
	// ErrNotFound means no artifact is stored under the key.
	ErrNotFound = errors.New("artifact not found")
	// ErrStoreNotInitialized means the store was used before construction.
	ErrStoreNotInitialized = errors.New("artifact store not initialized")
)

// ContentType is recorded for every stored archive.
const ContentType = "application/zip"

// ObjectInfo describes a stored artifact.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
}

// Store keeps named build artifacts.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	Stat(ctx context.Context, key string) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// New returns the store selected by cfg.Backend.
func New(cfg config.ArtifactConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Directory)
	case config.BackendS3:
		return NewMinioStore(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}

// Key is the storage key of file under artifact name.
func Key(name, file string) string {
	return path.Join(name, filepath.Base(file))
}

// Publish uploads the file at filePath as artifact name and returns its key.
func Publish(ctx context.Context, store Store, name, filePath string) (string, error) {
	file, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return "", err
	}

	defer func() {
		_ = file.Close()
	}()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	key := Key(name, filePath)

	if err = store.Put(ctx, key, file, info.Size(), ContentType); err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	stored, err := store.Stat(ctx, key)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", key, err)
	}

	if stored.Size != info.Size() {
		return "", fmt.Errorf("stored %s has %d bytes, want %d", key, stored.Size, info.Size())
	}

	logger.InfoKV(ctx, "Artifact published", "key", key, "size", stored.Size)

	return key, nil
}
