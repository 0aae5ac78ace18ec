package artifact_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/artifact"
	"github.com/oshokin/release-packager/internal/config"
)

// TestPublish_FileStore stores the archive under <name>/<file> and reads it back.
func TestPublish_FileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	store, err := artifact.New(config.ArtifactConfig{Backend: config.BackendFile, Directory: root})
	require.NoError(t, err)

	archivePath := filepath.Join(t.TempDir(), "GameUpdater.zip")
	require.NoError(t, os.WriteFile(archivePath, []byte("PK zip bytes"), 0o600))

	key, err := artifact.Publish(ctx, store, "GameUpdater", archivePath)
	require.NoError(t, err)
	require.Equal(t, "GameUpdater/GameUpdater.zip", key)
	require.FileExists(t, filepath.Join(root, "GameUpdater", "GameUpdater.zip"))

	body, info, err := store.Get(ctx, key)
	require.NoError(t, err)

	contents, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, body.Close())
	require.Equal(t, "PK zip bytes", string(contents))
	require.Equal(t, int64(len(contents)), info.Size)

	require.NoError(t, store.Delete(ctx, key))

	_, err = store.Stat(ctx, key)
	require.ErrorIs(t, err, artifact.ErrNotFound)
	require.NoError(t, store.Delete(ctx, key))
}

// TestFileStore_RejectsEscapingKeys keeps keys inside the root.
func TestFileStore_RejectsEscapingKeys(t *testing.T) {
	t.Parallel()

	store, err := artifact.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Stat(context.Background(), "../outside.zip")
	require.Error(t, err)
}

// TestNew_Backends selects the backend and validates S3 settings.
func TestNew_Backends(t *testing.T) {
	t.Parallel()

	_, err := artifact.New(config.ArtifactConfig{Backend: "ftp"})
	require.Error(t, err)

	_, err = artifact.New(config.ArtifactConfig{Backend: config.BackendS3})
	require.ErrorIs(t, err, artifact.ErrStoreNotInitialized)

	store, err := artifact.New(config.ArtifactConfig{
		Backend: config.BackendS3,
		S3: config.S3Config{
			Endpoint:  "127.0.0.1:9000",
			Bucket:    "release-artifacts",
			AccessKey: "minio",
			SecretKey: "minio123",
		},
	})
	require.NoError(t, err)
	require.IsType(t, &artifact.MinioStore{}, store)
}
