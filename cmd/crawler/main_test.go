package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ansanalytics/internal/app"
	"ansanalytics/internal/config"
	"ansanalytics/internal/infrastructure"
	"ansanalytics/internal/shared/testutil"
)

func portal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/PDA/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><a href="demonstracoes_contabeis/">demonstracoes_contabeis/</a></body></html>`)
	})
	mux.HandleFunc("/PDA/demonstracoes_contabeis/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="2025/">2025/</a>`)
	})
	mux.HandleFunc("/PDA/demonstracoes_contabeis/2025/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<a href="1T2025.zip">1T2025.zip</a>`)
	})
	mux.HandleFunc("/PDA/demonstracoes_contabeis/2025/1T2025.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PK"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newRuntime(t *testing.T, baseURL string) *app.Runtime {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.BaseDir = t.TempDir()
	cfg.Crawler.BaseURL = baseURL

	paths, err := config.GetPaths(cfg)
	require.NoError(t, err)

	logger, _ := testutil.NewTestLogger(t)
	return &app.Runtime{
		Config:  cfg,
		Paths:   paths,
		Logger:  logger,
		Metrics: infrastructure.NoopPipelineMetrics(),
	}
}

func TestCrawl(t *testing.T) {
	srv := portal(t)
	rt := newRuntime(t, srv.URL+"/PDA/")

	require.NoError(t, crawl(context.Background(), rt))
	assert.FileExists(t, filepath.Join(rt.Paths.DownloadsDir, "1T2025.zip"))
}

func TestCrawl_ListingUnavailable(t *testing.T) {
	srv := portal(t)
	rt := newRuntime(t, srv.URL+"/missing/")

	assert.Error(t, crawl(context.Background(), rt))
}
