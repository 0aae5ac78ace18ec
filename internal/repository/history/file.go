package history

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
)

// FileRepository keeps the newest runs in a YAML file.
type FileRepository struct {
	// path is the history file location.
	path string
	// limit caps how many runs are kept; non-positive keeps all.
	limit int
	// mu serializes read-modify-write cycles.
	mu sync.Mutex
}

type fileContents struct {
	Runs []*pipeline.Run `yaml:"runs"`
}

// NewFileRepository stores history at path keeping at most limit runs.
func NewFileRepository(path string, limit int) *FileRepository {
	return &FileRepository{
		path:  filepath.Clean(path),
		limit: limit,
	}
}

// Save upserts run and trims the file to the limit.
func (r *FileRepository) Save(_ context.Context, run *pipeline.Run) error {
	if run == nil || run.ID == "" {
		return ErrRunRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	runs, err := r.read()
	if err != nil {
		return err
	}

	runs = slices.DeleteFunc(runs, func(existing *pipeline.Run) bool {
		return existing.ID == run.ID
	})
	runs = append(runs, run.Clone())

	sortNewestFirst(runs)

	if r.limit > 0 && len(runs) > r.limit {
		runs = runs[:r.limit]
	}

	data, err := yaml.Marshal(&fileContents{Runs: runs})
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err = os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory: %w", err)
		}
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}

	return nil
}

// List returns the newest runs first.
func (r *FileRepository) List(_ context.Context, limit int) ([]*pipeline.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runs, err := r.read()
	if err != nil {
		return nil, err
	}

	sortNewestFirst(runs)

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

func (r *FileRepository) read() ([]*pipeline.Run, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read history file: %w", err)
	}

	var decoded fileContents
	if err = yaml.Unmarshal(contents, &decoded); err != nil {
		return nil, fmt.Errorf("decode history file: %w", err)
	}

	return decoded.Runs, nil
}

func sortNewestFirst(runs []*pipeline.Run) {
	slices.SortStableFunc(runs, func(a, b *pipeline.Run) int {
		return b.StartedAt.Compare(a.StartedAt)
	})
}
