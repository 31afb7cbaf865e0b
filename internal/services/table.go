package services

import (
	api "policydash/pkg/contracts/api/v1"
	"policydash/pkg/contracts/domain"
)

// TablePageOf returns page (1-based) of table for display. Out-of-range pages
// are empty; page sizes are clamped to [1, api.MaxPageSize].
func TablePageOf(table *domain.Table, page, pageSize int) domain.TablePage {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize <= 0:
		pageSize = api.DefaultPageSize
	case pageSize > api.MaxPageSize:
		pageSize = api.MaxPageSize
	}

	out := domain.TablePage{
		Columns:   []string{},
		Rows:      [][]any{},
		Page:      page,
		PageSize:  pageSize,
		TotalRows: table.Len(),
	}
	if table == nil {
		return out
	}
	out.Columns = table.Columns

	start := (page - 1) * pageSize
	if start >= len(table.Rows) {
		return out
	}
	end := min(start+pageSize, len(table.Rows))
	for _, row := range table.Rows[start:end] {
		values := make([]any, len(row))
		for i, cell := range row {
			values[i] = displayValue(cell)
		}
		out.Rows = append(out.Rows, values)
	}
	return out
}

func displayValue(c domain.Cell) any {
	switch c.Kind {
	case domain.CellString, domain.CellTime:
		return c.String()
	case domain.CellNumber:
		return c.Num
	default:
		return nil
	}
}
