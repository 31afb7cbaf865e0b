package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"policydash/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to dst
func (w *CSVWriter) WriteCSV(dst io.Writer, options WriteOptions) error {
	stream, err := w.CreateStreamWriter(dst, options.Headers, options.BOMPrefix)
	if err != nil {
		return err
	}
	for i, record := range options.Records {
		if err := stream.WriteRecord(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Close()
}

// WriteTable writes the table header and every row. Null cells are written
// as empty fields.
func (w *CSVWriter) WriteTable(dst io.Writer, table *domain.Table) error {
	w.logger.Debug("Writing CSV table",
		slog.Int("record_count", table.Len()),
		slog.Int("column_count", len(table.Columns)))

	stream, err := w.CreateStreamWriter(dst, table.Columns, false)
	if err != nil {
		return err
	}
	record := make([]string, len(table.Columns))
	for i, row := range table.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = row[j].String()
			}
		}
		if err := stream.WriteRecord(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	return stream.Close()
}

// StreamWriter writes CSV records one at a time
type StreamWriter struct {
	writer *csv.Writer
}

// CreateStreamWriter starts a CSV stream on dst and writes the header row
func (w *CSVWriter) CreateStreamWriter(dst io.Writer, headers []string, bom bool) (*StreamWriter, error) {
	if bom {
		if _, err := dst.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(dst)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return &StreamWriter{writer: writer}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes the stream and reports any buffered write error
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	return s.writer.Error()
}
