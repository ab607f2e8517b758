// Command loader imports the processor's CSV outputs into the relational
// store queried by the web API. Each run replaces the previous contents.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ansanalytics/internal/app"
	"ansanalytics/internal/storage"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file")
	detail := flag.String("detail", "", "row-level CSV to load (defaults to the processor's detail output)")
	aggregate := flag.String("aggregate", "", "aggregate CSV to load (defaults to the processor's aggregate output)")
	flag.Parse()

	rt, err := app.Bootstrap(*configFile, "loader.log")
	if err != nil {
		slog.Error("Failed to initialize", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *detail == "" {
		*detail = rt.Paths.DetailCSV
	}
	if *aggregate == "" {
		*aggregate = rt.Paths.AggregateCSV
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	_, err = load(ctx, rt, *detail, *aggregate)
	stop()
	_ = rt.Close(context.Background())

	if err != nil {
		slog.Error("Load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func load(ctx context.Context, rt *app.Runtime, detailPath, aggregatePath string) (*storage.LoadReport, error) {
	store, err := storage.Open(ctx, rt.Config.Database, rt.Logger)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	return storage.NewLoader(store, rt.Logger, rt.Metrics).Load(ctx, detailPath, aggregatePath)
}
