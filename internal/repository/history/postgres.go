package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oshokin/release-packager/internal/domain/pipeline"
)

// DB is the subset of *sql.DB the repository uses.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const (
	pingTimeout = 5 * time.Second

	createTableQuery = `CREATE TABLE IF NOT EXISTS pipeline_runs (
	run_id       TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	failed_step  TEXT NOT NULL DEFAULT '',
	category     TEXT NOT NULL DEFAULT '',
	error        TEXT NOT NULL DEFAULT '',
	event        TEXT NOT NULL DEFAULT '',
	base_branch  TEXT NOT NULL DEFAULT '',
	actor        TEXT NOT NULL DEFAULT '',
	version      TEXT NOT NULL DEFAULT '',
	artifact_key TEXT NOT NULL DEFAULT '',
	release_url  TEXT NOT NULL DEFAULT '',
	asset_url    TEXT NOT NULL DEFAULT '',
	steps        JSONB NOT NULL DEFAULT '[]',
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
)`

	createIndexQuery = `CREATE INDEX IF NOT EXISTS pipeline_runs_started_at_idx ON pipeline_runs (started_at DESC)`

	upsertRunQuery = `INSERT INTO pipeline_runs (
	run_id, status, failed_step, category, error, event, base_branch, actor,
	version, artifact_key, release_url, asset_url, steps, started_at, finished_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (run_id) DO UPDATE SET
	status = EXCLUDED.status,
	failed_step = EXCLUDED.failed_step,
	category = EXCLUDED.category,
	error = EXCLUDED.error,
	version = EXCLUDED.version,
	artifact_key = EXCLUDED.artifact_key,
	release_url = EXCLUDED.release_url,
	asset_url = EXCLUDED.asset_url,
	steps = EXCLUDED.steps,
	finished_at = EXCLUDED.finished_at`

	listRunsQuery = `SELECT run_id, status, failed_step, category, error, event, base_branch, actor,
	version, artifact_key, release_url, asset_url, steps, started_at, finished_at
FROM pipeline_runs
ORDER BY started_at DESC
LIMIT $1`

	// listAllLimit stands in for "no limit" in the LIMIT clause.
	listAllLimit = 1 << 30
)

// PostgresRepository stores runs in the pipeline_runs table.
type PostgresRepository struct {
	db     DB
	closer Closer
}

// OpenDB opens a pgx-backed pool and checks it answers.
func OpenDB(ctx context.Context, url string) (*sql.DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// NewPostgresRepository wraps db.
func NewPostgresRepository(db DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the table and index when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	for _, query := range []string{createTableQuery, createIndexQuery} {
		if _, err := r.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}

	return nil
}

// Save upserts run by id.
func (r *PostgresRepository) Save(ctx context.Context, run *pipeline.Run) error {
	if run == nil || run.ID == "" {
		return ErrRunRequired
	}

	steps, err := json.Marshal(run.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}

	var event, baseBranch, actor string
	if run.Trigger != nil {
		event = run.Trigger.Event
		baseBranch = run.Trigger.BaseBranch

		if run.Trigger.Actor != nil {
			actor = run.Trigger.Actor.String()
		}
	}

	var finishedAt sql.NullTime
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, upsertRunQuery,
		run.ID,
		string(run.Status),
		string(run.FailedStep),
		string(run.Category),
		run.Error,
		event,
		baseBranch,
		actor,
		run.Version,
		run.ArtifactKey,
		run.ReleaseURL,
		run.AssetURL,
		steps,
		run.StartedAt.UTC(),
		finishedAt,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	return nil
}

// List returns the newest runs first.
func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*pipeline.Run, error) {
	if limit <= 0 {
		limit = listAllLimit
	}

	rows, err := r.db.QueryContext(ctx, listRunsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	defer func() {
		_ = rows.Close()
	}()

	var runs []*pipeline.Run

	for rows.Next() {
		run, scanErr := scanRun(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

// Close closes the underlying pool when the repository owns it.
func (r *PostgresRepository) Close() error {
	if r.closer == nil {
		return nil
	}

	return r.closer.Close()
}

func scanRun(rows *sql.Rows) (*pipeline.Run, error) {
	var (
		run                      pipeline.Run
		status, step, category   string
		event, baseBranch, actor string
		steps                    []byte
		finishedAt               sql.NullTime
	)

	err := rows.Scan(&run.ID, &status, &step, &category, &run.Error, &event, &baseBranch, &actor,
		&run.Version, &run.ArtifactKey, &run.ReleaseURL, &run.AssetURL, &steps, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Status = pipeline.Status(status)
	run.FailedStep = pipeline.Step(step)
	run.Category = pipeline.Category(category)
	run.StartedAt = run.StartedAt.UTC()

	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time.UTC()
	}

	if event != "" {
		run.Trigger = &pipeline.Trigger{Event: event, BaseBranch: baseBranch}
		if actor != "" {
			run.Trigger.Actor = &pipeline.Actor{Username: actor}
		}
	}

	if len(steps) > 0 {
		if err = json.Unmarshal(steps, &run.Steps); err != nil {
			return nil, fmt.Errorf("decode steps: %w", err)
		}
	}

	return &run, nil
}
