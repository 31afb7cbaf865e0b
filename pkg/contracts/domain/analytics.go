package domain

import (
	"time"
)

// ScopeName identifies the row subset an aggregation runs over.
type ScopeName string

const (
	ScopeOverall     ScopeName = "overall"
	ScopeLatestMonth ScopeName = "latest_month"
)

// LatestPeriodLabel is shown for the latest-month scope when no issued date
// is available.
const LatestPeriodLabel = "Latest Period"

// Window is the closed issued-date interval of the latest-month scope.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Metric is the quantity summed per group.
type Metric string

const (
	MetricPremiumSum Metric = "premium_sum"
	MetricRowCount   Metric = "row_count"
)

// ChartKind selects how a result is rasterized.
type ChartKind string

const (
	ChartBar           ChartKind = "bar"
	ChartHorizontalBar ChartKind = "horizontal_bar"
	ChartPie           ChartKind = "pie"
)

// GroupValue is one group of an aggregation.
type GroupValue struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// AggregationResult holds groups sorted descending by value. Total is the sum
// over every group before any top-N truncation.
type AggregationResult struct {
	Dimension string       `json:"dimension"`
	Metric    Metric       `json:"metric"`
	Scope     ScopeName    `json:"scope"`
	Groups    []GroupValue `json:"groups"`
	Total     float64      `json:"total"`
}

// Empty reports whether there is nothing to plot.
func (r AggregationResult) Empty() bool { return len(r.Groups) == 0 }

// Top returns a copy truncated to the first n groups. n <= 0 keeps every group.
func (r AggregationResult) Top(n int) AggregationResult {
	out := r
	if n > 0 && len(r.Groups) > n {
		out.Groups = append([]GroupValue(nil), r.Groups[:n]...)
	} else {
		out.Groups = append([]GroupValue(nil), r.Groups...)
	}
	return out
}

// SummaryMetrics are computed over a whole scope, never over a top-N view.
type SummaryMetrics struct {
	PolicyCount    int      `json:"policy_count"`
	TotalPremium   float64  `json:"total_premium"`
	AveragePremium float64  `json:"average_premium"`
	PremiumPaid    *float64 `json:"premium_paid,omitempty"`
}

// ScopeSummary pairs a scope with its metrics.
type ScopeSummary struct {
	Scope   ScopeName      `json:"scope"`
	Label   string         `json:"label"`
	Window  *Window        `json:"window,omitempty"`
	Metrics SummaryMetrics `json:"metrics"`
}

// ChartResult is a registry chart evaluated for one scope.
type ChartResult struct {
	ID     string            `json:"id"`
	Title  string            `json:"title"`
	Kind   ChartKind         `json:"kind"`
	Scope  ScopeName         `json:"scope"`
	Result AggregationResult `json:"result"`
}

// TablePage is a window over the filtered rows for display.
type TablePage struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Page      int      `json:"page"`
	PageSize  int      `json:"page_size"`
	TotalRows int      `json:"total_rows"`
}

// Dashboard is everything the page needs after one filter interaction.
type Dashboard struct {
	TotalRows    int           `json:"total_rows"`
	FilteredRows int           `json:"filtered_rows"`
	Overall      ScopeSummary  `json:"overall"`
	LatestMonth  ScopeSummary  `json:"latest_month"`
	Charts       []ChartResult `json:"charts"`
	Skipped      []string      `json:"skipped,omitempty"`
	Table        TablePage     `json:"table"`
}
