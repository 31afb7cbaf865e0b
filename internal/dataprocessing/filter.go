package dataprocessing

import (
	"sort"
	"time"

	"policydash/pkg/contracts/domain"
)

// rowPredicate decides whether a row survives a filter.
type rowPredicate func(row domain.Row) bool

// ApplyFilters returns the rows of table satisfying every criterion, in input
// order. Criteria on absent columns impose no constraint. A range that covers
// the observed bounds of table imposes no constraint either, so default
// criteria keep rows whose value is null.
func ApplyFilters(table *domain.Table, criteria domain.FilterCriteria) *domain.Table {
	if table == nil {
		return nil
	}

	predicates := buildPredicates(table, criteria)
	if len(predicates) == 0 {
		return table.WithRows(append([]domain.Row(nil), table.Rows...))
	}

	rows := make([]domain.Row, 0, len(table.Rows))
	for _, row := range table.Rows {
		keep := true
		for _, p := range predicates {
			if !p(row) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}
	return table.WithRows(rows)
}

func buildPredicates(table *domain.Table, criteria domain.FilterCriteria) []rowPredicate {
	var predicates []rowPredicate

	for _, column := range domain.FilterDimensions {
		idx := table.ColumnIndex(column)
		if idx < 0 {
			continue
		}
		selected := criteria.Selection(column)
		if selected == nil {
			continue
		}
		predicates = append(predicates, func(row domain.Row) bool {
			cell := row[idx]
			if cell.Kind != domain.CellString {
				return false
			}
			_, ok := selected[cell.Str]
			return ok
		})
	}

	if p := datePredicate(table, criteria.IssuedDate); p != nil {
		predicates = append(predicates, p)
	}
	if p := premiumPredicate(table, criteria.Premium); p != nil {
		predicates = append(predicates, p)
	}
	return predicates
}

func datePredicate(table *domain.Table, r *domain.DateRange) rowPredicate {
	idx := table.ColumnIndex(domain.ColumnIssuedDate)
	if r == nil || idx < 0 {
		return nil
	}
	from, to := dateOnly(r.From), dateOnly(r.To)
	if bounds, ok := observedDates(table); ok && !from.After(bounds.From) && !to.Before(bounds.To) {
		return nil
	}
	return func(row domain.Row) bool {
		cell := row[idx]
		if cell.Kind != domain.CellTime {
			return false
		}
		d := dateOnly(cell.Time)
		return !d.Before(from) && !d.After(to)
	}
}

func premiumPredicate(table *domain.Table, r *domain.NumericRange) rowPredicate {
	idx := table.ColumnIndex(domain.ColumnCommissionablePremium)
	if r == nil || idx < 0 {
		return nil
	}
	if bounds, ok := observedNumbers(table, domain.ColumnCommissionablePremium); ok && r.Min <= bounds.Min && r.Max >= bounds.Max {
		return nil
	}
	return func(row domain.Row) bool {
		cell := row[idx]
		if cell.Kind != domain.CellNumber {
			return false
		}
		return cell.Num >= r.Min && cell.Num <= r.Max
	}
}

// dateOnly drops the clock, keeping the calendar date as written.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// observedDates returns the min and max issued date (date part) over non-null cells.
func observedDates(table *domain.Table) (domain.DateRange, bool) {
	idx := table.ColumnIndex(domain.ColumnIssuedDate)
	if idx < 0 {
		return domain.DateRange{}, false
	}
	var r domain.DateRange
	found := false
	for _, row := range table.Rows {
		cell := row[idx]
		if cell.Kind != domain.CellTime {
			continue
		}
		d := dateOnly(cell.Time)
		if !found || d.Before(r.From) {
			r.From = d
		}
		if !found || d.After(r.To) {
			r.To = d
		}
		found = true
	}
	return r, found
}

// observedNumbers returns the min and max of a numeric column over non-null cells.
func observedNumbers(table *domain.Table, column string) (domain.NumericRange, bool) {
	idx := table.ColumnIndex(column)
	if idx < 0 {
		return domain.NumericRange{}, false
	}
	var r domain.NumericRange
	found := false
	for _, row := range table.Rows {
		cell := row[idx]
		if cell.Kind != domain.CellNumber {
			continue
		}
		if !found || cell.Num < r.Min {
			r.Min = cell.Num
		}
		if !found || cell.Num > r.Max {
			r.Max = cell.Num
		}
		found = true
	}
	return r, found
}

// DefaultCriteria selects everything: no dimension constraint and both
// ranges spanning the observed bounds.
func DefaultCriteria(table *domain.Table) domain.FilterCriteria {
	criteria := domain.FilterCriteria{Selections: map[string][]string{}}
	if table == nil {
		return criteria
	}
	for _, column := range domain.FilterDimensions {
		if table.HasColumn(column) {
			criteria.Selections[column] = []string{domain.AllValues}
		}
	}
	if r, ok := observedDates(table); ok {
		criteria.IssuedDate = &r
	}
	if r, ok := observedNumbers(table, domain.ColumnCommissionablePremium); ok {
		criteria.Premium = &r
	}
	return criteria
}

// BuildFilterOptions lists the sorted unique values of every present filter
// dimension plus the observed date and premium bounds.
func BuildFilterOptions(table *domain.Table) domain.FilterOptions {
	opts := domain.FilterOptions{Dimensions: map[string][]string{}}
	if table == nil {
		return opts
	}
	for _, column := range domain.FilterDimensions {
		idx := table.ColumnIndex(column)
		if idx < 0 {
			continue
		}
		seen := make(map[string]struct{})
		values := []string{}
		for _, row := range table.Rows {
			cell := row[idx]
			if cell.Kind != domain.CellString {
				continue
			}
			if _, dup := seen[cell.Str]; dup {
				continue
			}
			seen[cell.Str] = struct{}{}
			values = append(values, cell.Str)
		}
		sort.Strings(values)
		opts.Dimensions[column] = values
	}
	if r, ok := observedDates(table); ok {
		opts.IssuedDate = &r
	}
	if r, ok := observedNumbers(table, domain.ColumnCommissionablePremium); ok {
		opts.Premium = &r
	}
	return opts
}
