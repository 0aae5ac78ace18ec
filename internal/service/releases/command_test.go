package releases

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/api/github"
	"github.com/oshokin/release-packager/internal/api/github/githubtest"
	"github.com/oshokin/release-packager/internal/archive"
	"github.com/oshokin/release-packager/internal/config"
	"github.com/oshokin/release-packager/internal/domain/pipeline"
	"github.com/oshokin/release-packager/internal/manifest"
	"github.com/oshokin/release-packager/internal/repository/history"
)

func newClient(t *testing.T, srv *githubtest.Server) *github.Client {
	t.Helper()

	client, err := github.NewClient(context.Background(), config.ReleaseConfig{
		APIURL:     srv.URL,
		UploadURL:  srv.UploadURL(),
		Repository: srv.Repository(),
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)

	return client
}

// TestListReleases prints a row per release.
func TestListReleases(t *testing.T) {
	t.Parallel()

	srv := githubtest.NewServer(t, "game", "updater")
	srv.AddRelease("v1.0.0", "notes", "GameUpdater.zip", "application/zip", []byte("zip"))
	srv.AddRelease("v0.9.0", "notes", "", "", nil)

	var out bytes.Buffer

	require.NoError(t, listReleases(context.Background(), newClient(t, srv), &out))
	require.Contains(t, out.String(), "v1.0.0")
	require.Contains(t, out.String(), "v0.9.0")
	require.Contains(t, out.String(), "GameUpdater.zip")
}

// TestDeleteRelease removes the release and its tag, and tolerates both being gone.
func TestDeleteRelease(t *testing.T) {
	t.Parallel()

	srv := githubtest.NewServer(t, "game", "updater")
	srv.AddRelease("v1.0.0", "notes", "GameUpdater.zip", "application/zip", []byte("zip"))

	client := newClient(t, srv)

	require.NoError(t, deleteRelease(context.Background(), client, "v1.0.0"))
	require.Empty(t, srv.Releases())
	require.False(t, srv.HasTag("v1.0.0"))

	require.NoError(t, deleteRelease(context.Background(), client, "v1.0.0"))
	require.ErrorIs(t, deleteRelease(context.Background(), client, ""), errTagRequired)
}

// TestVerifyAgainstRelease compares an archive with the published checksum.
func TestVerifyAgainstRelease(t *testing.T) {
	t.Parallel()

	src := filepath.Join(t.TempDir(), "GameUpdater")
	require.NoError(t, os.MkdirAll(src, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "main"), []byte("binary"), 0o755))

	archivePath := filepath.Join(t.TempDir(), "GameUpdater.zip")
	require.NoError(t, archive.Create(src, archivePath, "GameUpdater"))

	sum, err := manifest.Checksum(archivePath)
	require.NoError(t, err)

	body, err := manifest.Render(&manifest.Description{
		Version:         "1.4.2",
		Distribution:    "GameUpdater",
		Archive:         "GameUpdater.zip",
		ArchiveChecksum: base64.StdEncoding.EncodeToString(sum),
	})
	require.NoError(t, err)

	srv := githubtest.NewServer(t, "game", "updater")
	srv.AddRelease("v1.0.0", body, "GameUpdater.zip", "application/zip", nil)
	srv.AddRelease("v0.1.0", "no description", "", "", nil)

	client := newClient(t, srv)

	require.NoError(t, verifyAgainstRelease(context.Background(), client, archivePath, "v1.0.0"))
	require.ErrorIs(t, verifyAgainstRelease(context.Background(), client, archivePath, "v0.1.0"), manifest.ErrNoDescription)

	require.NoError(t, os.WriteFile(filepath.Join(src, "main"), []byte("rebuilt"), 0o755))
	require.NoError(t, archive.Create(src, archivePath, "GameUpdater"))
	require.ErrorIs(t, verifyAgainstRelease(context.Background(), client, archivePath, "v1.0.0"), manifest.ErrChecksumMismatch)
}

// TestPrintHistory lists stored runs newest first.
func TestPrintHistory(t *testing.T) {
	t.Parallel()

	repo := history.NewFileRepository(filepath.Join(t.TempDir(), "history.yaml"), 10)

	run := pipeline.NewRun(nil)
	run.Version = "1.4.2"
	run.Finish(nil)
	require.NoError(t, repo.Save(context.Background(), run))

	var out bytes.Buffer

	require.NoError(t, printHistory(context.Background(), repo, 0, &out))
	require.Contains(t, out.String(), run.ID[:8])
	require.Contains(t, out.String(), "1.4.2")
}
