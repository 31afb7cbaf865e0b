package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"policydash/pkg/contracts/domain"
)

// SheetName is the single sheet of a spreadsheet export.
const SheetName = "Insurance Data"

// ExcelWriter writes tables as XLSX workbooks
type ExcelWriter struct {
	logger *slog.Logger
}

// NewExcelWriter creates a new XLSX writer
func NewExcelWriter(logger *slog.Logger) *ExcelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExcelWriter{logger: logger}
}

// WriteTable writes a workbook holding one sheet with the header and rows.
// Numbers become numeric cells, dates become date cells, nulls stay empty.
func (w *ExcelWriter) WriteTable(dst io.Writer, table *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr("yyyy-mm-dd")})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	stampStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: stringPtr("yyyy-mm-dd hh:mm:ss")})
	if err != nil {
		return fmt.Errorf("failed to create timestamp style: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("failed to open sheet stream: %w", err)
	}

	header := make([]interface{}, len(table.Columns))
	for i, c := range table.Columns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range table.Rows {
		values := make([]interface{}, len(table.Columns))
		for j := range values {
			if j >= len(row) {
				continue
			}
			values[j] = excelValue(row[j], dateStyle, stampStyle)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	w.logger.Debug("Writing XLSX table", slog.Int("record_count", table.Len()))
	if _, err := f.WriteTo(dst); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func excelValue(c domain.Cell, dateStyle, stampStyle int) interface{} {
	switch c.Kind {
	case domain.CellString:
		return c.Str
	case domain.CellNumber:
		return c.Num
	case domain.CellTime:
		style := dateStyle
		if c.String() != c.Time.Format("2006-01-02") {
			style = stampStyle
		}
		return excelize.Cell{StyleID: style, Value: c.Time}
	default:
		return nil
	}
}

func stringPtr(s string) *string { return &s }
