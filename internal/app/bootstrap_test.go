package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/infrastructure"
	"ansanalytics/pkg/contracts"
)

func TestBootstrap(t *testing.T) {
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	base := t.TempDir()
	cfgFile := filepath.Join(base, "config.yaml")
	yaml := "pipeline:\n" +
		"  base_dir: " + base + "\n" +
		"logging:\n" +
		"  output: file\n" +
		"  file_path: logs/app.log\n"
	require.NoError(t, os.WriteFile(cfgFile, []byte(yaml), 0644))

	rt, err := Bootstrap(cfgFile, "processor.log")
	require.NoError(t, err)
	defer rt.Close(context.Background())

	assert.DirExists(t, rt.Paths.DownloadsDir)
	assert.DirExists(t, rt.Paths.OutputDir)
	assert.Equal(t, filepath.Join(rt.Paths.LogsDir, "processor.log"), rt.Config.Logging.FilePath)
	assert.FileExists(t, rt.Config.Logging.FilePath)

	logged, err := os.ReadFile(rt.Config.Logging.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(logged), contracts.GetVersionString())
	assert.NotNil(t, rt.Metrics)
	assert.NotNil(t, rt.OTel.Meter)
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("server:\n  port: 70000\n"), 0644))

	_, err := Bootstrap(cfgFile, "web.log")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}
