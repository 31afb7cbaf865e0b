package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"

	"policydash/pkg/contracts/domain"
)

var (
	// ErrEmptyInput is returned when an upload has no header row.
	ErrEmptyInput = errors.New("file contains no header row")
	// ErrInvalidEncoding is returned for CSV uploads that are not UTF-8.
	ErrInvalidEncoding = errors.New("file is not valid UTF-8")
	// ErrUnknownFormat is returned when no ingest format can be determined.
	ErrUnknownFormat = errors.New("unsupported file format")
)

const utf8BOM = "\ufeff"

// Parser turns an uploaded policy register into a domain.Table. Parse
// failures abort the load; cell coercion failures only produce nulls.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// DetectFormat infers the ingest format from a file name extension.
func DetectFormat(filename string) (domain.IngestFormat, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		return domain.IngestFormatCSV, nil
	case ".xlsx", ".xlsm":
		return domain.IngestFormatXLSX, nil
	case ".xls":
		return domain.IngestFormatXLS, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(filename))
	}
}

// Parse reads the whole stream in the declared format and coerces the date
// and numeric columns.
func (p *Parser) Parse(r io.Reader, format domain.IngestFormat) (*domain.Table, *domain.LoadReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}

	var records [][]string
	switch format {
	case domain.IngestFormatCSV:
		records, err = readCSV(data)
	case domain.IngestFormatXLSX:
		records, err = readXLSX(data)
	case domain.IngestFormatXLS:
		records, err = readXLS(data)
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, nil, err
	}

	table, report, err := buildTable(records)
	if err != nil {
		return nil, nil, err
	}
	report.Format = string(format)

	p.logger.Info("Upload parsed",
		slog.String("format", string(format)),
		slog.Int("rows", report.Rows),
		slog.Int("columns", len(report.Columns)),
		slog.Any("recognized_columns", report.RecognizedColumns))
	for column, failures := range report.CoercionFailures {
		p.logger.Debug("Cells coerced to null",
			slog.String("column", column),
			slog.Int("count", failures))
	}

	return table, report, nil
}

func readCSV(data []byte) ([][]string, error) {
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return records, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyInput
	}
	// Raw values keep dates as serial numbers, which coerceDate understands.
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readXLS(data []byte) ([][]string, error) {
	// xlsReader only opens files by path.
	tmp, err := os.CreateTemp("", "policydash-*.xls")
	if err != nil {
		return nil, fmt.Errorf("failed to stage xls upload: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stage xls upload: %w", err)
	}

	book, err := xls.OpenFile(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to open xls workbook: %w", err)
	}
	sheet, err := book.GetSheet(0)
	if err != nil || sheet == nil {
		return nil, fmt.Errorf("failed to open first xls sheet: %w", ErrEmptyInput)
	}

	var rows [][]string
	for _, xlsRow := range sheet.GetRows() {
		var values []string
		for _, col := range xlsRow.GetCols() {
			if col == nil {
				values = append(values, "")
				continue
			}
			values = append(values, col.GetString())
		}
		rows = append(rows, values)
	}
	return rows, nil
}

// buildTable converts raw string records into typed cells. The first record
// is the header.
func buildTable(records [][]string) (*domain.Table, *domain.LoadReport, error) {
	if len(records) == 0 {
		return nil, nil, ErrEmptyInput
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		header[i] = strings.TrimSpace(h)
	}
	if len(header) == 0 || (len(header) == 1 && header[0] == "") {
		return nil, nil, ErrEmptyInput
	}

	table := domain.NewTable(header)
	report := &domain.LoadReport{
		Columns:          header,
		CoercionFailures: make(map[string]int),
	}

	kinds := make([]domain.CellKind, len(header))
	for i, name := range header {
		kinds[i] = columnKind(name)
		if isRecognized(name) {
			report.RecognizedColumns = append(report.RecognizedColumns, name)
		}
	}

	for _, record := range records[1:] {
		if len(record) == 0 {
			continue
		}
		row := make(domain.Row, len(header))
		for i := range header {
			if i >= len(record) {
				continue
			}
			cell, ok := coerceCell(record[i], kinds[i])
			if !ok {
				report.CoercionFailures[header[i]]++
			}
			row[i] = cell
		}
		table.Rows = append(table.Rows, row)
	}

	report.Rows = table.Len()
	if len(report.CoercionFailures) == 0 {
		report.CoercionFailures = nil
	}
	return table, report, nil
}

func columnKind(name string) domain.CellKind {
	for _, c := range domain.DateColumns {
		if c == name {
			return domain.CellTime
		}
	}
	for _, c := range domain.NumericColumns {
		if c == name {
			return domain.CellNumber
		}
	}
	return domain.CellString
}

func isRecognized(name string) bool {
	switch name {
	case domain.ColumnCategory, domain.ColumnInsurerName, domain.ColumnAgentName,
		domain.ColumnBranchName, domain.ColumnManagerName, domain.ColumnProduct:
		return true
	}
	return columnKind(name) != domain.CellString
}
