package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"policydash/pkg/contracts/domain"
)

func TestTablePageOf(t *testing.T) {
	table := domain.NewTable([]string{"Category", "Issued Date", "Commissionable Premium"})
	for i := 0; i < 5; i++ {
		table.Rows = append(table.Rows, domain.Row{
			domain.StringCell("Life"),
			domain.TimeCell(time.Date(2024, 3, i+1, 0, 0, 0, 0, time.UTC)),
			domain.NumberCell(float64(100 * (i + 1))),
		})
	}
	table.Rows[4][2] = domain.NullCell()

	tests := []struct {
		name         string
		page, size   int
		wantPage     int
		wantSize     int
		wantRows     int
		wantFirstRow []any
	}{
		{"first page", 1, 2, 1, 2, 2, []any{"Life", "2024-03-01", 100.0}},
		{"last partial page", 3, 2, 3, 2, 1, []any{"Life", "2024-03-05", nil}},
		{"past the end", 9, 2, 9, 2, 0, nil},
		{"defaults", 0, 0, 1, 50, 5, []any{"Life", "2024-03-01", 100.0}},
		{"clamped size", 1, 10000, 1, 500, 5, []any{"Life", "2024-03-01", 100.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := TablePageOf(table, tt.page, tt.size)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantSize, page.PageSize)
			assert.Equal(t, 5, page.TotalRows)
			assert.Len(t, page.Rows, tt.wantRows)
			assert.Equal(t, table.Columns, page.Columns)
			if tt.wantFirstRow != nil {
				assert.Equal(t, tt.wantFirstRow, page.Rows[0])
			}
		})
	}
}

func TestTablePageOf_NilTable(t *testing.T) {
	page := TablePageOf(nil, 1, 10)
	assert.Equal(t, 0, page.TotalRows)
	assert.Empty(t, page.Rows)
	assert.NotNil(t, page.Columns)
}
