// Package dataprocessing turns an uploaded policy register into the figures
// shown on the dashboard.
//
// # Pipeline
//
// Data flows strictly downstream:
//
//	upload → Parser → domain.Table → ApplyFilters → Scope → Aggregate / ComputeMetrics
//
// The Parser accepts CSV, XLSX and legacy XLS files. The date and numeric
// columns listed in domain.DateColumns and domain.NumericColumns are coerced
// cell by cell; a cell that does not convert becomes null and the load goes
// on. Only a file that cannot be read at all fails the load.
//
// # Scopes
//
// Every aggregation takes a Scope. OverallScope accepts the whole filtered
// table; LatestMonthScope accepts rows issued from the first day of the month
// of the latest issued date up to that date. Without issued dates the latest
// month scope accepts everything.
//
// # Charts
//
// The Registry maps each chart to the columns it needs and the function that
// computes it. Charts whose columns are absent are skipped, never failed:
//
//	charts, skipped := DefaultRegistry().Evaluate(filtered, OverallScope(), LatestMonthScope(filtered))
//
// # Statistics
//
// Summarizer.Describe produces count, mean, sample standard deviation,
// min, quartiles and max for each numeric column.
package dataprocessing
