package archive_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-packager/internal/archive"
)

var layout = []string{"LICENSE", "README.md", "config.json", "main", "package.json"}

// distDir writes a distribution named name with the five expected files.
func distDir(t *testing.T, name string, modified time.Time) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o755))

	for _, file := range layout {
		mode := os.FileMode(0o644)
		if file == "main" {
			mode = 0o755
		}

		path := filepath.Join(dir, file)
		require.NoError(t, os.WriteFile(path, []byte("contents of "+file), mode))
		require.NoError(t, os.Chtimes(path, modified, modified))
	}

	return dir
}

// TestCreate_Deterministic produces identical bytes for identical inputs with different mtimes.
func TestCreate_Deterministic(t *testing.T) {
	t.Parallel()

	first := distDir(t, "GameUpdater", time.Now())
	second := distDir(t, "GameUpdater", time.Now().Add(-48*time.Hour))

	out := t.TempDir()
	firstZip := filepath.Join(out, "first.zip")
	secondZip := filepath.Join(out, "second.zip")

	require.NoError(t, archive.Create(first, firstZip, "GameUpdater"))
	require.NoError(t, archive.Create(second, secondZip, "GameUpdater"))

	firstBytes, err := os.ReadFile(firstZip)
	require.NoError(t, err)

	secondBytes, err := os.ReadFile(secondZip)
	require.NoError(t, err)

	require.Equal(t, firstBytes, secondBytes)
}

// TestCreate_RootNameIndependentOfSource roots entries at the given name, not the source dir.
func TestCreate_RootNameIndependentOfSource(t *testing.T) {
	t.Parallel()

	src := distDir(t, "some-repository-checkout", time.Now())
	dst := filepath.Join(t.TempDir(), "GameUpdater.zip")

	require.NoError(t, archive.Create(src, dst, "GameUpdater"))
	require.True(t, archive.IsZip(dst))
	require.NoError(t, archive.VerifyLayout(dst, "GameUpdater", layout))

	names, err := archive.List(dst)
	require.NoError(t, err)
	require.Len(t, names, 5)
	require.Equal(t, "GameUpdater/LICENSE", names[0])

	err = archive.VerifyLayout(dst, "some-repository-checkout", layout)
	require.ErrorIs(t, err, archive.ErrUnexpectedLayout)

	err = archive.VerifyLayout(dst, "GameUpdater", layout[:4])
	require.ErrorIs(t, err, archive.ErrUnexpectedLayout)
}

// TestExtract keeps the executable bit and honours StripRoot.
func TestExtract(t *testing.T) {
	t.Parallel()

	src := distDir(t, "dist", time.Now())
	dst := filepath.Join(t.TempDir(), "GameUpdater.zip")
	require.NoError(t, archive.Create(src, dst, "GameUpdater"))

	out := t.TempDir()

	written, err := archive.Extract(dst, out)
	require.NoError(t, err)
	require.Len(t, written, 5)

	info, err := os.Stat(filepath.Join(out, "GameUpdater", "main"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode().Perm()&0o100)

	flat := t.TempDir()

	_, err = archive.Extract(dst, flat, archive.StripRoot())
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(flat, "package.json"))
}

// TestExtract_RejectsTraversal refuses entries escaping the destination.
func TestExtract_RejectsTraversal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "evil.zip")

	file, err := os.Create(path)
	require.NoError(t, err)

	writer := zip.NewWriter(file)
	entry, err := writer.Create("../escaped.txt")
	require.NoError(t, err)
	_, err = entry.Write([]byte("nope"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	require.NoError(t, file.Close())

	out := t.TempDir()

	_, err = archive.Extract(path, out)
	require.ErrorIs(t, err, archive.ErrUnsafePath)
	require.NoFileExists(t, filepath.Join(filepath.Dir(out), "escaped.txt"))
}

// TestIsZip rejects other files.
func TestIsZip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(path, []byte("<html></html>"), 0o600))
	require.False(t, archive.IsZip(path))
	require.False(t, archive.IsZip(filepath.Join(t.TempDir(), "missing.zip")))
}
