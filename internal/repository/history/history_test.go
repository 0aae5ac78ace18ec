package history

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
)

func newRun(id string, startedAt time.Time) *pipeline.Run {
	return &pipeline.Run{
		ID:        id,
		Status:    pipeline.StatusSucceeded,
		StartedAt: startedAt.UTC().Truncate(time.Second),
		Trigger: &pipeline.Trigger{
			Event:      pipeline.EventPullRequest,
			BaseBranch: "master",
			Actor:      &pipeline.Actor{Username: "octocat"},
		},
		Steps: []pipeline.StepResult{{Step: pipeline.StepCheckout, Status: pipeline.StatusSucceeded}},
	}
}

// TestFileRepository_EmptyList returns nothing for a missing file.
func TestFileRepository_EmptyList(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "history.yaml"), 10)

	runs, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Empty(t, runs)
}

// TestFileRepository_SaveList keeps newest first, upserts by id and trims to the limit.
func TestFileRepository_SaveList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewFileRepository(filepath.Join(t.TempDir(), "nested", "history.yaml"), 2)
	now := time.Now()

	first := newRun("first", now.Add(-2*time.Hour))
	second := newRun("second", now.Add(-time.Hour))
	third := newRun("third", now)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	second.Status = pipeline.StatusFailed
	second.FailedStep = pipeline.StepCreateRelease
	require.NoError(t, repo.Save(ctx, second))

	runs, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "second", runs[0].ID)
	require.Equal(t, pipeline.StepCreateRelease, runs[0].FailedStep)
	require.Equal(t, "octocat", runs[0].Trigger.Actor.Username)

	require.NoError(t, repo.Save(ctx, third))

	runs, err = repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Equal(t, "third", runs[0].ID)

	require.ErrorIs(t, repo.Save(ctx, &pipeline.Run{}), ErrRunRequired)
}

// TestOpen_DefaultsToFile picks the file backend without a database URL.
func TestOpen_DefaultsToFile(t *testing.T) {
	t.Parallel()

	repo, err := Open(context.Background(), config.HistoryConfig{File: filepath.Join(t.TempDir(), "h.yaml"), Limit: 5})
	require.NoError(t, err)
	require.IsType(t, &FileRepository{}, repo)
	require.NoError(t, Close(repo))
}

type execCall struct {
	query string
	args  []any
}

type fakeDB struct {
	execs    []execCall
	queryErr error
}

func (f *fakeDB) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})

	return driver.RowsAffected(1), nil
}

func (f *fakeDB) QueryContext(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})

	return nil, f.queryErr
}

// TestPostgresRepository_Save upserts by run id with trigger columns flattened.
func TestPostgresRepository_Save(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	repo := NewPostgresRepository(db)
	run := newRun("run-1", time.Now())
	run.FinishedAt = run.StartedAt.Add(time.Minute)

	require.NoError(t, repo.EnsureSchema(context.Background()))
	require.NoError(t, repo.Save(context.Background(), run))

	require.Len(t, db.execs, 3)
	require.Contains(t, db.execs[0].query, "CREATE TABLE IF NOT EXISTS pipeline_runs")
	require.Contains(t, db.execs[1].query, "started_at DESC")

	upsert := db.execs[2]
	require.True(t, strings.HasPrefix(upsert.query, "INSERT INTO pipeline_runs"))
	require.Contains(t, upsert.query, "ON CONFLICT (run_id) DO UPDATE")
	require.Len(t, upsert.args, 15)
	require.Equal(t, "run-1", upsert.args[0])
	require.Equal(t, "succeeded", upsert.args[1])
	require.Equal(t, pipeline.EventPullRequest, upsert.args[5])
	require.Equal(t, "octocat", upsert.args[7])
	require.JSONEq(t, `[{"Step":"checkout","Status":"succeeded","Duration":0,"StartedAt":"0001-01-01T00:00:00Z","FinishedAt":"0001-01-01T00:00:00Z"}]`,
		string(upsert.args[12].([]byte)))
	require.Equal(t, sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}, upsert.args[14])
}

// TestPostgresRepository_List orders newest first with a bound limit.
func TestPostgresRepository_List(t *testing.T) {
	t.Parallel()

	db := &fakeDB{queryErr: errors.New("connection refused")}
	repo := NewPostgresRepository(db)

	_, err := repo.List(context.Background(), 0)
	require.ErrorContains(t, err, "connection refused")
	require.Contains(t, db.execs[0].query, "ORDER BY started_at DESC")
	require.Contains(t, db.execs[0].query, "LIMIT $1")
	require.Equal(t, listAllLimit, db.execs[0].args[0])

	_, err = repo.List(context.Background(), 7)
	require.Error(t, err)
	require.Equal(t, 7, db.execs[1].args[0])
}
