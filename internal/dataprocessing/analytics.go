package dataprocessing

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"policydash/pkg/contracts/domain"
)

// MonthColumn is the pseudo-dimension of the monthly trend.
const MonthColumn = "Issued Month"

// latestMonthLabel formats the latest-month window for titles.
const latestMonthLabel = "January 2006"

// Scope selects the rows an aggregation runs over. The same aggregation code
// serves every scope; only the predicate differs.
type Scope struct {
	Name     domain.ScopeName
	Label    string
	Window   *domain.Window
	includes func(table *domain.Table, row domain.Row) bool
}

// Includes reports whether row belongs to the scope.
func (s Scope) Includes(table *domain.Table, row domain.Row) bool {
	if s.includes == nil {
		return true
	}
	return s.includes(table, row)
}

// Summary pairs the scope with metrics computed over table.
func (s Scope) Summary(table *domain.Table) domain.ScopeSummary {
	return domain.ScopeSummary{
		Scope:   s.Name,
		Label:   s.Label,
		Window:  s.Window,
		Metrics: ComputeMetrics(table, s),
	}
}

// OverallScope accepts every row of the filtered table.
func OverallScope() Scope {
	return Scope{Name: domain.ScopeOverall, Label: "Overall"}
}

// LatestMonthScope accepts rows issued between day one of the month of the
// latest issued date and that date. Without any issued date it accepts every
// row, labelled "Latest Period".
func LatestMonthScope(table *domain.Table) Scope {
	window, ok := LatestMonthWindow(table)
	if !ok {
		return Scope{Name: domain.ScopeLatestMonth, Label: domain.LatestPeriodLabel}
	}
	return Scope{
		Name:   domain.ScopeLatestMonth,
		Label:  window.End.Format(latestMonthLabel),
		Window: &window,
		includes: func(t *domain.Table, row domain.Row) bool {
			i := t.ColumnIndex(domain.ColumnIssuedDate)
			if i < 0 || i >= len(row) || row[i].Kind != domain.CellTime {
				return false
			}
			d := row[i].Time
			return !d.Before(window.Start) && !d.After(window.End)
		},
	}
}

// LatestMonthWindow derives [first of month, max issued date] from table.
func LatestMonthWindow(table *domain.Table) (domain.Window, bool) {
	idx := table.ColumnIndex(domain.ColumnIssuedDate)
	if idx < 0 {
		return domain.Window{}, false
	}
	var latest time.Time
	found := false
	for _, row := range table.Rows {
		cell := row[idx]
		if cell.Kind != domain.CellTime {
			continue
		}
		if !found || cell.Time.After(latest) {
			latest = cell.Time
			found = true
		}
	}
	if !found {
		return domain.Window{}, false
	}
	start := time.Date(latest.Year(), latest.Month(), 1, 0, 0, 0, 0, latest.Location())
	return domain.Window{Start: start, End: latest}, true
}

// ScopeRows returns the rows of table within scope.
func ScopeRows(table *domain.Table, scope Scope) *domain.Table {
	if scope.includes == nil {
		return table
	}
	rows := make([]domain.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		if scope.Includes(table, row) {
			rows = append(rows, row)
		}
	}
	return table.WithRows(rows)
}

// keyFunc extracts the group key of a row; false excludes the row.
type keyFunc func(row domain.Row) (string, bool)

func columnKey(idx int) keyFunc {
	return func(row domain.Row) (string, bool) {
		cell := row[idx]
		if cell.Kind == domain.CellNull {
			return "", false
		}
		return cell.String(), true
	}
}

func monthKey(idx int) keyFunc {
	return func(row domain.Row) (string, bool) {
		cell := row[idx]
		if cell.Kind != domain.CellTime {
			return "", false
		}
		return cell.Time.Format("2006-01"), true
	}
}

// Aggregate groups the scoped rows of table by dimension and applies metric.
// Groups are sorted by value descending; equal values keep the order in which
// their group was first seen. Rows with a null key are excluded.
func Aggregate(table *domain.Table, dimension string, metric domain.Metric, scope Scope) domain.AggregationResult {
	result := domain.AggregationResult{
		Dimension: dimension,
		Metric:    metric,
		Scope:     scope.Name,
		Groups:    []domain.GroupValue{},
	}
	idx := table.ColumnIndex(dimension)
	if idx < 0 {
		return result
	}
	groups, ok := group(table, columnKey(idx), metric, scope)
	if !ok {
		return result
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Value > groups[j].Value })
	result.Groups = groups
	result.Total = sumGroups(groups)
	return result
}

// MonthlyTrend sums premium by issued year-month ("2024-03") over the whole
// table, ascending by month.
func MonthlyTrend(table *domain.Table) domain.AggregationResult {
	result := domain.AggregationResult{
		Dimension: MonthColumn,
		Metric:    domain.MetricPremiumSum,
		Scope:     domain.ScopeOverall,
		Groups:    []domain.GroupValue{},
	}
	idx := table.ColumnIndex(domain.ColumnIssuedDate)
	if idx < 0 {
		return result
	}
	groups, ok := group(table, monthKey(idx), domain.MetricPremiumSum, OverallScope())
	if !ok {
		return result
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	result.Groups = groups
	result.Total = sumGroups(groups)
	return result
}

// group accumulates metric per key in first-seen order. It reports false when
// the metric needs a column the table lacks.
func group(table *domain.Table, key keyFunc, metric domain.Metric, scope Scope) ([]domain.GroupValue, bool) {
	premiumIdx := table.ColumnIndex(domain.ColumnCommissionablePremium)
	if metric == domain.MetricPremiumSum && premiumIdx < 0 {
		return nil, false
	}

	order := []string{}
	sums := map[string]decimal.Decimal{}
	counts := map[string]int{}

	for _, row := range table.Rows {
		if !scope.Includes(table, row) {
			continue
		}
		k, ok := key(row)
		if !ok {
			continue
		}
		if _, seen := counts[k]; !seen {
			order = append(order, k)
			sums[k] = decimal.Zero
		}
		counts[k]++
		if metric == domain.MetricPremiumSum {
			if cell := row[premiumIdx]; cell.Kind == domain.CellNumber {
				sums[k] = sums[k].Add(decimal.NewFromFloat(cell.Num))
			}
		}
	}

	groups := make([]domain.GroupValue, 0, len(order))
	for _, k := range order {
		value := float64(counts[k])
		if metric == domain.MetricPremiumSum {
			value = sums[k].InexactFloat64()
		}
		groups = append(groups, domain.GroupValue{Key: k, Value: value})
	}
	return groups, true
}

func sumGroups(groups []domain.GroupValue) float64 {
	total := decimal.Zero
	for _, g := range groups {
		total = total.Add(decimal.NewFromFloat(g.Value))
	}
	return total.InexactFloat64()
}

// ComputeMetrics summarises the scoped rows of table. Premium figures are zero
// when the premium column is absent; PremiumPaid is nil when its column is.
func ComputeMetrics(table *domain.Table, scope Scope) domain.SummaryMetrics {
	var m domain.SummaryMetrics
	if table == nil {
		return m
	}

	premiumIdx := table.ColumnIndex(domain.ColumnCommissionablePremium)
	paidIdx := table.ColumnIndex(domain.ColumnPremiumPaid)

	premium := decimal.Zero
	paid := decimal.Zero
	premiumCount := 0

	for _, row := range table.Rows {
		if !scope.Includes(table, row) {
			continue
		}
		m.PolicyCount++
		if premiumIdx >= 0 && row[premiumIdx].Kind == domain.CellNumber {
			premium = premium.Add(decimal.NewFromFloat(row[premiumIdx].Num))
			premiumCount++
		}
		if paidIdx >= 0 && row[paidIdx].Kind == domain.CellNumber {
			paid = paid.Add(decimal.NewFromFloat(row[paidIdx].Num))
		}
	}

	m.TotalPremium = premium.InexactFloat64()
	if premiumCount > 0 {
		m.AveragePremium = premium.Div(decimal.NewFromInt(int64(premiumCount))).InexactFloat64()
	}
	if paidIdx >= 0 {
		v := paid.InexactFloat64()
		m.PremiumPaid = &v
	}
	return m
}
