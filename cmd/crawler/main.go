// Command crawler downloads the quarterly accounting archives listed on the
// open-data portal into the configured downloads directory.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ansanalytics/internal/app"
	"ansanalytics/internal/crawler"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	rt, err := app.Bootstrap(*configFile, "crawler.log")
	if err != nil {
		slog.Error("Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = crawl(ctx, rt)
	stop()
	_ = rt.Close(context.Background())

	if err != nil {
		slog.Error("Crawl failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func crawl(ctx context.Context, rt *app.Runtime) error {
	cfg := rt.Config.Crawler
	c := crawler.New(crawler.Config{
		BaseURL:       cfg.BaseURL,
		SectionSuffix: cfg.SectionSuffix,
		YearSuffix:    cfg.YearSuffix,
		FileSuffix:    cfg.FileSuffix,
		DownloadsDir:  rt.Paths.DownloadsDir,
		Concurrency:   cfg.Concurrency,
		Timeout:       cfg.Timeout,
	}, rt.Logger, rt.Metrics)

	result, err := c.Run(ctx)
	if err != nil {
		return err
	}
	for _, f := range result.Failed {
		rt.Logger.WarnContext(ctx, "archive not downloaded", slog.String("url", f))
	}
	return nil
}
