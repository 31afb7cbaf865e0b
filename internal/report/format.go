package report

import (
	"math"

	"github.com/dustin/go-humanize"

	"policydash/pkg/contracts/domain"
)

// CurrencyPrefix is prepended to premium figures.
const CurrencyPrefix = "Rs."

// FormatCurrency renders v rounded to whole units with thousands separators,
// e.g. Rs.1,234,567.
func FormatCurrency(prefix string, v float64) string {
	return prefix + humanize.Comma(int64(math.Round(v)))
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatValue labels a chart value for its metric.
func FormatValue(m domain.Metric, v float64) string {
	if m == domain.MetricRowCount {
		return humanize.Comma(int64(math.Round(v)))
	}
	return FormatCurrency(CurrencyPrefix, v)
}
