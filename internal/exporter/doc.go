// Package exporter persists pipeline tables as delimited UTF-8 files.
//
// DetailTable and AggregateTable project joined records and aggregates onto
// the persisted column sets. CSVWriter writes a Table with a UTF-8 BOM and the
// configured delimiter. Persist wraps a write and classifies the outcome
// instead of failing, so one blocked file never stops the other from being
// written:
//
//	writer := exporter.NewCSVWriter(paths, ';', logger)
//	outcome := writer.Persist(ctx, paths.DetailCSV, exporter.DetailTable(result))
//	if outcome != exporter.Written {
//		// already logged; continue with the next file
//	}
package exporter
