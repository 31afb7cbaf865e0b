package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"policydash/pkg/contracts/domain"
)

// ColumnStats holds descriptive statistics of one numeric column. Statistics
// that are undefined for the sample size are NaN.
type ColumnStats struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
}

// Summarizer computes descriptive statistics over numeric policy columns.
type Summarizer struct {
	logger  *slog.Logger
	columns []string
}

// SummarizerConfig selects the columns to describe.
type SummarizerConfig struct {
	Columns []string
}

// DefaultSummarizerConfig describes every coerced numeric column.
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{Columns: domain.NumericColumns}
}

// NewSummarizer creates a summarizer.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(config.Columns) == 0 {
		config = DefaultSummarizerConfig()
	}
	return &Summarizer{
		logger:  logger,
		columns: config.Columns,
	}
}

// Describe returns statistics for each configured column present in table, in
// configuration order. Null cells are ignored.
func (s *Summarizer) Describe(ctx context.Context, table *domain.Table) []ColumnStats {
	var out []ColumnStats
	for _, column := range s.columns {
		idx := table.ColumnIndex(column)
		if idx < 0 {
			continue
		}
		values := make([]float64, 0, table.Len())
		for _, row := range table.Rows {
			if cell := row[idx]; cell.Kind == domain.CellNumber {
				values = append(values, cell.Num)
			}
		}
		out = append(out, describe(column, values))
	}

	s.logger.DebugContext(ctx, "described numeric columns",
		slog.Int("columns", len(out)),
		slog.Int("rows", table.Len()))
	return out
}

func describe(column string, values []float64) ColumnStats {
	nan := math.NaN()
	st := ColumnStats{
		Column: column, Count: len(values),
		Mean: nan, Std: nan, Min: nan, Q1: nan, Median: nan, Q3: nan, Max: nan,
	}
	if len(values) == 0 {
		return st
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	st.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		st.Std = stat.StdDev(sorted, nil)
	}
	st.Min = floats.Min(sorted)
	st.Max = floats.Max(sorted)
	st.Q1 = quantile(sorted, 0.25)
	st.Median = quantile(sorted, 0.5)
	st.Q3 = quantile(sorted, 0.75)
	return st
}

// quantile interpolates linearly between closest ranks, the default of most
// spreadsheet and dataframe tools. sorted must be ascending and non-empty.
func quantile(sorted []float64, p float64) float64 {
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
