package dataprocessing

import (
	"bytes"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"policydash/internal/shared/testutil"
	"policydash/pkg/contracts/domain"
)

func TestParseCSV(t *testing.T) {
	table, report, err := NewParser(nil).Parse(strings.NewReader(registerCSV), domain.IngestFormatCSV)
	require.NoError(t, err)

	require.Equal(t, 7, table.Len())
	assert.Equal(t, 7, report.Rows)
	assert.Equal(t, "csv", report.Format)
	assert.Len(t, report.RecognizedColumns, 11)

	first := table.Rows[0]
	assert.Equal(t, domain.StringCell("Health"), table.Value(first, domain.ColumnCategory))
	assert.Equal(t, domain.NumberCell(1200), table.Value(first, domain.ColumnCommissionablePremium))
	assert.Equal(t, domain.TimeCell(date(2024, 1, 15)), table.Value(first, domain.ColumnIssuedDate))

	// Unparseable cells become null and are counted, never fatal.
	assert.True(t, table.Value(table.Rows[5], domain.ColumnIssuedDate).IsNull())
	assert.True(t, table.Value(table.Rows[6], domain.ColumnCommissionablePremium).IsNull())
	assert.Equal(t, 1, report.CoercionFailures[domain.ColumnIssuedDate])
	assert.Equal(t, 1, report.CoercionFailures[domain.ColumnCommissionablePremium])

	// Empty cells are null without counting as failures.
	assert.True(t, table.Value(table.Rows[6], domain.ColumnAgentName).IsNull())
	assert.Zero(t, report.CoercionFailures[domain.ColumnPremiumPaid])
}

func TestParseCSVEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantRows  int
		wantCols  []string
		checkFunc func(t *testing.T, table *domain.Table)
	}{
		{
			name:     "byte order mark and padded headers",
			input:    "\ufeffCategory , Commissionable Premium\nLife,10\n",
			wantRows: 1,
			wantCols: []string{"Category", "Commissionable Premium"},
		},
		{
			name:     "header only",
			input:    "Category,Product\n",
			wantRows: 0,
			wantCols: []string{"Category", "Product"},
		},
		{
			name:     "ragged rows are padded and truncated",
			input:    "Category,Product\nLife\nHealth,Care,extra\n",
			wantRows: 2,
			wantCols: []string{"Category", "Product"},
			checkFunc: func(t *testing.T, table *domain.Table) {
				assert.True(t, table.Value(table.Rows[0], "Product").IsNull())
				assert.Len(t, table.Rows[1], 2)
			},
		},
		{
			name:     "currency and thousands separators",
			input:    "Commissionable Premium\n\"Rs. 1,25,000\"\n₹450.50\n$10\n",
			wantRows: 3,
			wantCols: []string{"Commissionable Premium"},
			checkFunc: func(t *testing.T, table *domain.Table) {
				assert.Equal(t, []string{"125000", "450.5", "10"}, columnValues(table, domain.ColumnCommissionablePremium))
			},
		},
		{
			name:     "mixed date layouts",
			input:    "Issued Date\n2024-03-05\n03/20/2024\n25/03/2024\n05-Mar-2024\n2024-03-05 10:15:00\n",
			wantRows: 5,
			wantCols: []string{"Issued Date"},
			checkFunc: func(t *testing.T, table *domain.Table) {
				assert.Equal(t,
					[]string{"2024-03-05", "2024-03-20", "2024-03-25", "2024-03-05", "2024-03-05 10:15:00"},
					columnValues(table, domain.ColumnIssuedDate))
			},
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: ErrEmptyInput,
		},
		{
			name:    "invalid encoding",
			input:   "Category\n\xff\xfe\n",
			wantErr: ErrInvalidEncoding,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, _, err := NewParser(nil).Parse(strings.NewReader(tt.input), domain.IngestFormatCSV)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, table.Len())
			assert.Equal(t, tt.wantCols, table.Columns)
			if tt.checkFunc != nil {
				tt.checkFunc(t, table)
			}
		})
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Category", "Issued Date", "Commissionable Premium"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Health", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 1000}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Life", "2024-02-10", "oops"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	logger, handler := testutil.NewTestLogger(t)
	table, report, err := NewParser(logger).Parse(bytes.NewReader(buf.Bytes()), domain.IngestFormatXLSX)
	require.NoError(t, err)

	require.Equal(t, 2, table.Len())
	assert.Equal(t, date(2024, 3, 5), table.Value(table.Rows[0], domain.ColumnIssuedDate).Time)
	assert.Equal(t, 1000.0, table.Value(table.Rows[0], domain.ColumnCommissionablePremium).Num)
	assert.Equal(t, date(2024, 2, 10), table.Value(table.Rows[1], domain.ColumnIssuedDate).Time)
	assert.True(t, table.Value(table.Rows[1], domain.ColumnCommissionablePremium).IsNull())
	assert.Equal(t, "xlsx", report.Format)
	testutil.AssertLogContains(t, handler, slog.LevelInfo, "Upload parsed")
}

func TestParseCorruptSpreadsheet(t *testing.T) {
	_, _, err := NewParser(nil).Parse(strings.NewReader("definitely not a zip"), domain.IngestFormatXLSX)
	assert.Error(t, err)

	_, _, err = NewParser(nil).Parse(strings.NewReader("definitely not a workbook"), domain.IngestFormatXLS)
	assert.Error(t, err)
}

func TestParseXLSRemovesStagingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TMPDIR", dir)

	_, _, err := NewParser(nil).Parse(strings.NewReader("definitely not a workbook"), domain.IngestFormatXLS)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "the staged xls copy must not outlive the parse")
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     domain.IngestFormat
		wantErr  bool
	}{
		{"policies.csv", domain.IngestFormatCSV, false},
		{"POLICIES.XLSX", domain.IngestFormatXLSX, false},
		{"legacy.xls", domain.IngestFormatXLS, false},
		{"notes.pdf", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseUnknownFormat(t *testing.T) {
	_, _, err := NewParser(nil).Parse(strings.NewReader("x"), "json")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
