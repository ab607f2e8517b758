// Package operations orchestrates one batch run of the expense pipeline.
//
// A run is a fixed sequence of steps registered on a Registry:
//
//	extract → normalize → join → aggregate → write
//
// The Manager executes the steps in registration order against a shared
// OperationState, whose Batch carries each step's output to the next. The
// first failing step stops the run and the remaining steps are skipped.
//
// An extract step that finds no matching rows returns ErrNoMatchingRows. The
// run halts without writing anything and is reported with status "halted";
// callers treat it as a normal exit.
//
// Example usage:
//
//	steps, err := operations.NewPipelineRegistry(operations.StageDependencies{
//		Extractor:  extractor.New(extractorCfg, logger),
//		Normalizer: dataprocessing.NewNormalizer(logger),
//		Joiner:     registry.NewJoiner(client, logger),
//		Aggregator: dataprocessing.NewAggregator(logger),
//		Writer:     exporter.NewCSVWriter(paths, ';', logger),
//
//		DownloadsDir:  paths.DownloadsDir,
//		DetailPath:    paths.DetailCSV,
//		AggregatePath: paths.AggregateCSV,
//	})
//	manager := operations.NewManager(steps, nil, logger, operations.NewOperationTracer(tracer, metrics))
//	resp, err := manager.Execute(ctx, operations.OperationRequest{})
package operations
