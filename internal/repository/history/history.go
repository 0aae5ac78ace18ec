package history

import (
	"context"
	"errors"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
)

// ErrRunRequired is returned when saving a nil run or one without an id.
var ErrRunRequired = errors.New("run with an id is required")

// Repository stores run records.
type Repository interface {
	// Save inserts the run or replaces the record with the same id.
	Save(ctx context.Context, run *pipeline.Run) error
	// List returns at most limit runs, newest first. A non-positive limit returns all.
	List(ctx context.Context, limit int) ([]*pipeline.Run, error)
}

// Closer is implemented by repositories holding connections.
type Closer interface {
	Close() error
}

// Open returns the Postgres repository when a database URL is configured and
// the file repository otherwise.
func Open(ctx context.Context, cfg config.HistoryConfig) (Repository, error) {
	if cfg.DatabaseURL == "" {
		return NewFileRepository(cfg.File, cfg.Limit), nil
	}

	db, err := OpenDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	repo := NewPostgresRepository(db)
	if err = repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()

		return nil, err
	}

	repo.closer = db

	return repo, nil
}

// Close releases the repository's connections when it holds any.
func Close(repo Repository) error {
	if closer, ok := repo.(Closer); ok {
		return closer.Close()
	}

	return nil
}
