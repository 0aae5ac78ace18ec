package release

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestRelease_FindAsset looks assets up by name and falls back to the first zip.
func TestRelease_FindAsset(t *testing.T) {
	t.Parallel()

	r := &Release{
		Assets: []Asset{
			{ID: 1, Name: "checksums.txt"},
			{ID: 2, Name: "GameUpdater.ZIP"},
			{ID: 3, Name: "Other.zip"},
		},
	}

	asset, ok := r.FindAsset("Other.zip")
	require.True(t, ok)
	require.Equal(t, int64(3), asset.ID)

	asset, ok = r.FindAsset("")
	require.True(t, ok)
	require.Equal(t, int64(2), asset.ID)

	_, ok = r.FindAsset("missing.zip")
	require.False(t, ok)

	var nilRelease *Release

	_, ok = nilRelease.FindAsset("")
	require.False(t, ok)
}
