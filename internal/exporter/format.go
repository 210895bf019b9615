package exporter

import (
	"strconv"
	"strings"
	"time"

	"regpulse/pkg/contracts/domain"
)

// DateLayout is the layout of every date cell
const DateLayout = "2006-01-02"

// formatFloat formats with at most six decimals and no trailing zeros, so
// whole registration counts render as integers
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', 6, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatPercent renders an absent percentage as an empty cell
func formatPercent(p domain.Percent) string {
	if !p.Valid {
		return ""
	}
	return formatFloat(p.Value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
