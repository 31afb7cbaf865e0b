package exporter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"policydash/internal/dataprocessing"
	"policydash/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for formats this package does not produce.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Exporter serializes a filtered table into downloadable artifacts.
type Exporter struct {
	csv        *CSVWriter
	excel      *ExcelWriter
	summarizer *dataprocessing.Summarizer
	logger     *slog.Logger
}

// NewExporter creates an exporter for the csv, xlsx and summary formats.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "exporter"))
	return &Exporter{
		csv:        NewCSVWriter(logger),
		excel:      NewExcelWriter(logger),
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.DefaultSummarizerConfig()),
		logger:     logger,
	}
}

// Export renders table in format. The artifact name carries the timestamp at.
func (e *Exporter) Export(ctx context.Context, table *domain.Table, format domain.ExportFormat, at time.Time) (*domain.Artifact, error) {
	var buf bytes.Buffer
	contentType := domain.ContentTypeCSV

	var err error
	switch format {
	case domain.ExportFormatCSV:
		err = e.csv.WriteTable(&buf, table)
	case domain.ExportFormatExcel:
		contentType = domain.ContentTypeXLSX
		err = e.excel.WriteTable(&buf, table)
	case domain.ExportFormatSummary:
		err = e.csv.WriteSummary(&buf, e.summarizer.Describe(ctx, table))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", format, err)
	}

	e.logger.InfoContext(ctx, "Export generated",
		slog.String("format", string(format)),
		slog.Int("rows", table.Len()),
		slog.Int("bytes", buf.Len()))

	return &domain.Artifact{
		Filename:    domain.ArtifactFilename(format, at),
		ContentType: contentType,
		Data:        buf.Bytes(),
	}, nil
}
