package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	t.Run("relative paths join the base directory", func(t *testing.T) {
		base := t.TempDir()
		cfg := Default()
		cfg.Pipeline.BaseDir = base

		paths, err := GetPaths(cfg)
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(base, "downloads"), paths.DownloadsDir)
		assert.Equal(t, filepath.Join(base, "data", "processed"), paths.OutputDir)
		assert.Equal(t, filepath.Join(base, "logs"), paths.LogsDir)
		assert.Equal(t, filepath.Join(base, "data", "processed", "consolidado_despesas.csv"), paths.DetailCSV)
		assert.Equal(t, filepath.Join(base, "data", "processed", "despesas_agregadas.csv"), paths.AggregateCSV)
	})

	t.Run("absolute paths are kept", func(t *testing.T) {
		out := t.TempDir()
		cfg := Default()
		cfg.Pipeline.BaseDir = t.TempDir()
		cfg.Pipeline.OutputDir = out

		paths, err := GetPaths(cfg)
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(out), paths.OutputDir)
	})

	t.Run("empty base directory uses the working directory", func(t *testing.T) {
		wd, err := os.Getwd()
		require.NoError(t, err)

		paths, err := GetPaths(nil)
		require.NoError(t, err)
		assert.Equal(t, wd, paths.BaseDir)
		assert.True(t, filepath.IsAbs(paths.DownloadsDir))
	})
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Pipeline.BaseDir = t.TempDir()

	paths, err := GetPaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.DownloadsDir, paths.OutputDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir(), dir)
	}
	assert.Equal(t, filepath.Join(paths.DownloadsDir, "a.zip"), paths.GetDownloadPath("a.zip"))
	assert.Equal(t, filepath.Join(paths.OutputDir, "x.csv"), paths.GetOutputPath("x.csv"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	assert.False(t, FileExists(file))
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.True(t, FileExists(file))
}
