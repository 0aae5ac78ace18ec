package manifest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/archive"
	"github.com/oshokin/release-packager/internal/distribution"
	"github.com/oshokin/release-packager/internal/manifest"
)

var auxiliary = []string{"config.json", "LICENSE", "README.md", "package.json"}

func assemble(t *testing.T, packageJSON string) (*distribution.Distribution, string) {
	t.Helper()

	ws := t.TempDir()
	out := filepath.Join(ws, "dist")
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "main"), []byte("binary"), 0o755))

	for _, file := range auxiliary {
		contents := file
		if file == manifest.VersionFile {
			contents = packageJSON
		}

		require.NoError(t, os.WriteFile(filepath.Join(ws, file), []byte(contents), 0o600))
	}

	dist, err := distribution.Assemble(context.Background(), ws, out, "main", "GameUpdater", auxiliary)
	require.NoError(t, err)

	archivePath := filepath.Join(ws, "GameUpdater.zip")
	require.NoError(t, archive.Create(dist.Dir, archivePath, dist.Name))

	return dist, archivePath
}

// TestBuildRenderParse roundtrips a description through a release body.
func TestBuildRenderParse(t *testing.T) {
	t.Parallel()

	dist, archivePath := assemble(t, `{"name": "game-updater", "version": "2.4.1"}`)

	desc, err := manifest.Build(dist, archivePath)
	require.NoError(t, err)
	require.Equal(t, "2.4.1", desc.Version)
	require.Equal(t, "GameUpdater.zip", desc.Archive)
	require.Len(t, desc.Files, 5)
	require.NoError(t, manifest.VerifyFile(archivePath, desc.ArchiveChecksum))

	body, err := manifest.Render(desc)
	require.NoError(t, err)
	require.Contains(t, body, "## GameUpdater 2.4.1")

	parsed, err := manifest.Parse(body)
	require.NoError(t, err)
	require.Equal(t, desc, parsed)
}

// TestReadVersion falls back to unknown.
func TestReadVersion(t *testing.T) {
	t.Parallel()

	dist, _ := assemble(t, `{"name": "game-updater"}`)
	require.Equal(t, manifest.UnknownVersion, manifest.ReadVersion(filepath.Join(dist.Dir, manifest.VersionFile)))
	require.Equal(t, manifest.UnknownVersion, manifest.ReadVersion(filepath.Join(t.TempDir(), "missing.json")))
}

// TestParse_NoBlock rejects bodies without a description.
func TestParse_NoBlock(t *testing.T) {
	t.Parallel()

	_, err := manifest.Parse("Just release notes.")
	require.ErrorIs(t, err, manifest.ErrNoDescription)
}

// TestVerifyFile detects modified files.
func TestVerifyFile(t *testing.T) {
	t.Parallel()

	dist, archivePath := assemble(t, `{"version": "1.0.0"}`)

	desc, err := manifest.Build(dist, archivePath)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(archivePath, []byte("tampered"), 0o600))
	require.ErrorIs(t, manifest.VerifyFile(archivePath, desc.ArchiveChecksum), manifest.ErrChecksumMismatch)

	_, err = manifest.DecodeChecksum("%%%")
	require.Error(t, err)
}
