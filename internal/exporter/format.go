package exporter

import (
	"math"
	"strconv"
)

// formatFloat renders the shortest representation that parses back to f.
// NaN, meaning undefined, renders as an empty field.
func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatInt formats an integer count
func formatInt(i int) string {
	return strconv.Itoa(i)
}
