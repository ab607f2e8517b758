package exporter

import (
	"strconv"

	"ansanalytics/internal/dataprocessing"
)

// formatAmount formats a currency value with exactly 2 decimal places
func formatAmount(f float64) string {
	return dataprocessing.FormatAmount(f)
}

// formatCount formats an entry count
func formatCount(n int) string {
	return strconv.Itoa(n)
}
