package exporter

import (
	"io"

	"policydash/internal/dataprocessing"
)

// statRows are the row labels of a summary-statistics export, in order.
var statRows = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}

// WriteSummary writes one column per described numeric column and one row
// per statistic. Undefined statistics are empty fields.
func (w *CSVWriter) WriteSummary(dst io.Writer, stats []dataprocessing.ColumnStats) error {
	headers := make([]string, 0, len(stats)+1)
	headers = append(headers, "")
	for _, st := range stats {
		headers = append(headers, st.Column)
	}

	records := make([][]string, 0, len(statRows))
	for _, label := range statRows {
		record := make([]string, 0, len(stats)+1)
		record = append(record, label)
		for _, st := range stats {
			record = append(record, statValue(st, label))
		}
		records = append(records, record)
	}

	return w.WriteCSV(dst, WriteOptions{Headers: headers, Records: records})
}

func statValue(st dataprocessing.ColumnStats, label string) string {
	switch label {
	case "count":
		return formatInt(st.Count)
	case "mean":
		return formatFloat(st.Mean)
	case "std":
		return formatFloat(st.Std)
	case "min":
		return formatFloat(st.Min)
	case "25%":
		return formatFloat(st.Q1)
	case "50%":
		return formatFloat(st.Median)
	case "75%":
		return formatFloat(st.Q3)
	default:
		return formatFloat(st.Max)
	}
}
