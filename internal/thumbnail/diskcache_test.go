package thumbnail

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

func TestDiskCache_StoreAndLookup(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache")
	c := NewDiskCache(dir)

	_, ok := c.Lookup("abc", "42")
	require.False(t, ok)

	path, err := c.Store("abc", "42", solid(8, 8, color.NRGBA{R: 1, A: 255}))
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "abc_42.png"), path)

	got, ok := c.Lookup("abc", "42")
	require.True(t, ok)
	require.Equal(t, path, got)

	// Distinct requesters never share a render.
	_, ok = c.Lookup("abc", "43")
	require.False(t, ok)

	img, err := imaging.Open(path)
	require.NoError(t, err)
	require.Equal(t, 8, img.Bounds().Dx())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDiskCache_Unwritable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	c := NewDiskCache(filepath.Join(blocker, "cache"))
	_, err := c.Store("abc", "1", solid(2, 2, color.NRGBA{A: 255}))
	require.Error(t, err)
	require.Equal(t, CacheWriteFailed, KindOf(err))
}
