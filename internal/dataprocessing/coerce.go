package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"policydash/pkg/contracts/domain"
)

// dateLayouts are tried in order. Month-first precedes day-first for
// ambiguous slash and dash dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"01-02-2006",
	"02-01-2006",
	"2-1-2006",
	"01-02-06",
	"02.01.2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Excel serial bounds accepted as dates: 1900-01-01 through 9999-12-31.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

var currencyPrefixes = []string{"Rs.", "Rs", "INR", "₹", "$"}

// coerceCell converts a raw string into a cell of the wanted kind. The bool
// is false when a non-empty value could not be converted and became null.
func coerceCell(raw string, kind domain.CellKind) (domain.Cell, bool) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return domain.NullCell(), true
	}

	switch kind {
	case domain.CellTime:
		if t, ok := parseDate(v); ok {
			return domain.TimeCell(t), true
		}
		return domain.NullCell(), false
	case domain.CellNumber:
		if f, ok := parseNumber(v); ok {
			return domain.NumberCell(f), true
		}
		return domain.NullCell(), false
	default:
		return domain.StringCell(v), true
	}
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}

	serial, err := strconv.ParseFloat(v, 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return t.Round(time.Second), true
}

func parseNumber(v string) (float64, bool) {
	for _, prefix := range currencyPrefixes {
		if strings.HasPrefix(v, prefix) {
			v = strings.TrimSpace(strings.TrimPrefix(v, prefix))
			break
		}
	}
	v = strings.ReplaceAll(v, ",", "")

	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
