package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("defaults without file", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
		require.NoError(t, err)
		assert.Equal(t, 10.0, cfg.Search.ProductPpm)
		assert.Equal(t, 30.0, cfg.Search.PrecursorPpm)
		assert.Equal(t, 3, cfg.Search.MaxGlycans)
		assert.Equal(t, []int{0, 1, 2}, cfg.Isotopes())
		assert.Equal(t, "glycoloc.db", cfg.Run.DBPath)
		assert.GreaterOrEqual(t, cfg.Run.Workers, 1)
	})

	t.Run("yaml and env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "glycoloc.yaml")
		yaml := "search:\n  product_ppm: 20\n  max_glycans: 2\n  glycan_database: o.gdb\ninput:\n  psm_file: psm.tsv\n"
		require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
		t.Setenv("GLYCOLOC_RAW_DIR", "/data/raw")
		t.Setenv("GLYCOLOC_WORKERS", "3")

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 20.0, cfg.Search.ProductPpm)
		assert.Equal(t, 30.0, cfg.Search.PrecursorPpm)
		assert.Equal(t, 2, cfg.Search.MaxGlycans)
		assert.Equal(t, "o.gdb", cfg.Search.GlycanDatabase)
		assert.Equal(t, "psm.tsv", cfg.Input.PSMFile)
		assert.Equal(t, "/data/raw", cfg.Input.RawDir)
		assert.Equal(t, 3, cfg.Run.Workers)
	})

	t.Run("invalid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("search:\n  max_glycans: 0\n"), 0o644))
		cfg, err := LoadConfig(path)
		assert.Error(t, err)
		assert.Nil(t, cfg)

		t.Setenv("GLYCOLOC_PRODUCT_PPM", "ten")
		_, err = LoadConfig("")
		assert.Error(t, err)
	})
}
