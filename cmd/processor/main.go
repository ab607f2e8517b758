// Command processor runs one batch of the expense pipeline over the
// downloaded archives and writes the detail and aggregate CSV files.
//
// Exit status is 0 when the run completes or halts because no rows matched
// the description filter, and 1 on any other failure.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ansanalytics/internal/app"
	"ansanalytics/internal/dataprocessing"
	"ansanalytics/internal/exporter"
	"ansanalytics/internal/extractor"
	"ansanalytics/internal/operations"
	"ansanalytics/internal/registry"
)

func main() {
	configFile := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	os.Exit(run(*configFile, os.Stdout))
}

func run(configFile string, out io.Writer) int {
	rt, err := app.Bootstrap(configFile, "processor.log")
	if err != nil {
		slog.Error("Failed to initialize", slog.String("error", err.Error()))
		return 1
	}
	defer rt.Close(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := process(ctx, rt)
	if resp != nil {
		if encErr := printSummary(out, resp); encErr != nil {
			rt.Logger.Warn("failed to print run summary", slog.String("error", encErr.Error()))
		}
	}
	return exitCode(err)
}

// process builds the five pipeline steps from the runtime configuration
// and executes one run.
func process(ctx context.Context, rt *app.Runtime) (*operations.OperationResponse, error) {
	cfg := rt.Config
	logger := rt.Logger

	steps, err := operations.NewPipelineRegistry(operations.StageDependencies{
		Extractor: extractor.New(extractor.Config{
			FilterTerms: cfg.Pipeline.FilterTerms,
			Delimiter:   cfg.Delimiter(),
		}, logger),
		Normalizer: dataprocessing.NewNormalizer(logger),
		Joiner: registry.NewJoiner(
			registry.NewClient(cfg.Registry.URL, cfg.Registry.Timeout, logger),
			logger,
		),
		Aggregator: dataprocessing.NewAggregator(logger),
		Writer:     exporter.NewCSVWriter(rt.Paths, cfg.Delimiter(), logger),

		DownloadsDir:  rt.Paths.DownloadsDir,
		DetailPath:    rt.Paths.DetailCSV,
		AggregatePath: rt.Paths.AggregateCSV,

		Metrics: rt.Metrics,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	tracer := operations.NewOperationTracer(rt.OTel.Tracer, rt.Metrics)
	manager := operations.NewManager(steps, nil, logger, tracer)
	return manager.Execute(ctx, operations.OperationRequest{})
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, operations.ErrNoMatchingRows):
		slog.Warn("No rows matched the description filter; nothing was written")
		return 0
	default:
		slog.Error("Processing failed", slog.String("error", err.Error()))
		return 1
	}
}

func printSummary(out io.Writer, resp *operations.OperationResponse) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
