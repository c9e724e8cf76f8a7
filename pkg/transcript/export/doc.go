// Package export writes journal entries to JSON or CSV.
//
//	exporter := export.NewJSONExporter(true) // pretty-print
//	err := exporter.Export(ctx, entries, os.Stdout)
//
// Both exporters also accept the channel produced by Storage.QueryStream,
// for exports too large to hold in memory:
//
//	entriesCh, errCh, err := store.QueryStream(ctx, query)
//	if err != nil {
//	    return err
//	}
//	if err := exporter.ExportStream(ctx, entriesCh, os.Stdout); err != nil {
//	    return err
//	}
//	if err := <-errCh; err != nil {
//	    return err
//	}
package export
