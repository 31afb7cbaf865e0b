package domain

import (
	"fmt"
	"time"
)

// ExportFormat names a downloadable serialization of the filtered table.
type ExportFormat string

const (
	ExportFormatCSV     ExportFormat = "csv"
	ExportFormatExcel   ExportFormat = "xlsx"
	ExportFormatSummary ExportFormat = "summary"
	ExportFormatPDF     ExportFormat = "pdf"
)

// IngestFormat names an accepted upload encoding.
type IngestFormat string

const (
	IngestFormatCSV  IngestFormat = "csv"
	IngestFormatXLSX IngestFormat = "xlsx"
	IngestFormatXLS  IngestFormat = "xls"
)

// Artifact is a generated file ready for download.
type Artifact struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Content types of generated artifacts.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
	ContentTypePNG  = "image/png"
)

const filenameStamp = "20060102_150405"

// ArtifactFilename builds a timestamped download name such as
// insurance_data_20240320_153000.csv.
func ArtifactFilename(format ExportFormat, at time.Time) string {
	stamp := at.Format(filenameStamp)
	switch format {
	case ExportFormatExcel:
		return fmt.Sprintf("insurance_data_%s.xlsx", stamp)
	case ExportFormatSummary:
		return fmt.Sprintf("insurance_summary_%s.csv", stamp)
	case ExportFormatPDF:
		return fmt.Sprintf("insurance_report_%s.pdf", stamp)
	default:
		return fmt.Sprintf("insurance_data_%s.csv", stamp)
	}
}
