package domain

import (
	"strconv"
	"time"
)

// Canonical column names of an uploaded policy register. Matching is exact and
// case-sensitive.
const (
	ColumnCategory              = "Category"
	ColumnInsurerName           = "Insurer Name"
	ColumnAgentName             = "Agent Name"
	ColumnBranchName            = "Branch Name"
	ColumnManagerName           = "Manager Name"
	ColumnProduct               = "Product"
	ColumnIssuedDate            = "Issued Date"
	ColumnCommissionablePremium = "Commissionable Premium"
	ColumnPremiumPayingTerm     = "Premium Paying Term"
	ColumnBenefitTerm           = "Benefit Term"
	ColumnPremiumPaid           = "Premium Paid"
)

// DateColumns are coerced to dates on ingestion.
var DateColumns = []string{ColumnIssuedDate}

// NumericColumns are coerced to numbers on ingestion.
var NumericColumns = []string{
	ColumnCommissionablePremium,
	ColumnPremiumPayingTerm,
	ColumnBenefitTerm,
	ColumnPremiumPaid,
}

// FilterDimensions are the categorical columns exposed as multi-select filters.
var FilterDimensions = []string{
	ColumnCategory,
	ColumnInsurerName,
	ColumnAgentName,
	ColumnBranchName,
	ColumnManagerName,
}

// CellKind tells which field of a Cell carries its value.
type CellKind uint8

const (
	CellNull CellKind = iota
	CellString
	CellNumber
	CellTime
)

// Cell is a single table value. The zero Cell is null.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Time time.Time
}

// NullCell returns a null cell.
func NullCell() Cell { return Cell{} }

// StringCell wraps a categorical value.
func StringCell(s string) Cell { return Cell{Kind: CellString, Str: s} }

// NumberCell wraps a numeric value.
func NumberCell(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }

// TimeCell wraps a date or timestamp.
func TimeCell(t time.Time) Cell { return Cell{Kind: CellTime, Time: t} }

// IsNull reports whether the cell has no value.
func (c Cell) IsNull() bool { return c.Kind == CellNull }

// String renders the cell the way it is written to text exports. Null renders
// as the empty string. Times with an offset or fractional seconds keep both.
func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case CellTime:
		if _, offset := c.Time.Zone(); offset != 0 || c.Time.Nanosecond() != 0 {
			return c.Time.Format(time.RFC3339Nano)
		}
		if c.Time.Hour() == 0 && c.Time.Minute() == 0 && c.Time.Second() == 0 {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// Equal compares kind and value.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case CellString:
		return c.Str == o.Str
	case CellNumber:
		return c.Num == o.Num
	case CellTime:
		return c.Time.Equal(o.Time)
	default:
		return true
	}
}

// Row is one record, aligned with Table.Columns.
type Row []Cell

// Table is an ordered collection of rows sharing one header.
type Table struct {
	Columns []string
	Rows    []Row

	index map[string]int
}

// NewTable builds a table over the given header. Rows are appended by the caller.
func NewTable(columns []string) *Table {
	t := &Table{Columns: append([]string(nil), columns...)}
	t.reindex()
	return t
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c]; !dup {
			t.index[c] = i
		}
	}
}

// ColumnIndex returns the position of a column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	if t.index == nil {
		t.reindex()
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool { return t.ColumnIndex(name) >= 0 }

// HasColumns reports whether every name is present.
func (t *Table) HasColumns(names ...string) bool {
	for _, n := range names {
		if !t.HasColumn(n) {
			return false
		}
	}
	return true
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Value returns the cell of row under column, null when the column is absent.
func (t *Table) Value(row Row, column string) Cell {
	i := t.ColumnIndex(column)
	if i < 0 || i >= len(row) {
		return Cell{}
	}
	return row[i]
}

// WithRows returns a table sharing this header and holding rows.
func (t *Table) WithRows(rows []Row) *Table {
	return &Table{Columns: t.Columns, Rows: rows, index: t.index}
}

// Equal compares headers and every cell in order.
func (t *Table) Equal(o *Table) bool {
	if len(t.Columns) != len(o.Columns) || len(t.Rows) != len(o.Rows) {
		return false
	}
	for i := range t.Columns {
		if t.Columns[i] != o.Columns[i] {
			return false
		}
	}
	for i := range t.Rows {
		if len(t.Rows[i]) != len(o.Rows[i]) {
			return false
		}
		for j := range t.Rows[i] {
			if !t.Rows[i][j].Equal(o.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// LoadReport describes what ingestion did with an upload.
type LoadReport struct {
	Format            string         `json:"format"`
	Rows              int            `json:"rows"`
	Columns           []string       `json:"columns"`
	RecognizedColumns []string       `json:"recognized_columns"`
	CoercionFailures  map[string]int `json:"coercion_failures,omitempty"`
}
