package crawler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestCrawler_ScanDir(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "run01_calibrated.MGF"))
	touch(t, filepath.Join(root, "run01.mzML"))
	touch(t, filepath.Join(root, "run01.pairs"))
	touch(t, filepath.Join(root, "run02.mzML"))
	touch(t, filepath.Join(root, "sub", "run03.mgf"))
	touch(t, filepath.Join(root, "tmp", "run04.mgf"))
	touch(t, filepath.Join(root, "notes.txt"))

	c := NewCrawler()
	require.NoError(t, c.ScanDir(root))

	t.Run("prefers calibrated mgf", func(t *testing.T) {
		f, ok := c.Locate("run01")
		require.True(t, ok)
		assert.Equal(t, KindCalibratedMGF, f.Kind)
		assert.True(t, f.Readable())
	})

	t.Run("mzml only", func(t *testing.T) {
		f, ok := c.Locate("run02")
		require.True(t, ok)
		assert.Equal(t, KindMzML, f.Kind)
		assert.False(t, f.Readable())
	})

	t.Run("nested and ignored", func(t *testing.T) {
		f, ok := c.Locate("run03")
		require.True(t, ok)
		assert.Equal(t, KindMGF, f.Kind)

		_, ok = c.Locate("run04")
		assert.False(t, ok)
	})

	t.Run("scan pairs", func(t *testing.T) {
		p, ok := c.ScanPairs("run01")
		require.True(t, ok)
		assert.Equal(t, filepath.Join(root, "run01.pairs"), p)
		_, ok = c.ScanPairs("run02")
		assert.False(t, ok)
	})

	assert.ElementsMatch(t, []string{"run01", "run02", "run03"}, c.RawFiles())
}
