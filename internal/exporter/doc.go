// Package exporter writes report outputs to disk and to streams.
//
// This package contains two components:
//
// CSVWriter: writes a normalized dataset.Table as CSV, with an optional
// UTF-8 BOM for Excel compatibility. Used for filtered-row exports.
//
// SaveDocument: writes an assembled PDF into an output directory atomically.
//
// Example usage:
//
//	writer := exporter.NewCSVWriter("/path/to/out")
//	n, err := writer.WriteTable(w, table, exporter.WriteOptions{IncludeBOM: true})
//
//	path, err := exporter.SaveDocument("/path/to/out", doc)
package exporter
