// Package exporter serializes filtered policy tables for download.
//
// This package contains three writers:
//
// CSVWriter: UTF-8 CSV with a header row; null cells become empty fields. It
// also writes the summary-statistics table (count, mean, std, min, quartiles,
// max per numeric column).
//
// ExcelWriter: an XLSX workbook with a single "Insurance Data" sheet.
//
// Exporter: picks the writer for a domain.ExportFormat and names the result
// with a generation timestamp.
//
// Example usage:
//
//	exp := exporter.NewExporter(logger)
//	artifact, err := exp.Export(ctx, filtered, domain.ExportFormatCSV, time.Now())
//	// artifact.Filename == "insurance_data_20240320_153000.csv"
package exporter
