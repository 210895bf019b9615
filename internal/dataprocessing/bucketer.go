package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// AddTimeParts attaches year, quarter ("2024Q1") and month ("2024-03") to
// each record. The dataset is not modified.
func AddTimeParts(d domain.Dataset) []domain.BucketedRecord {
	out := make([]domain.BucketedRecord, len(d))
	for i, r := range d {
		out[i] = domain.BucketedRecord{
			Record:  r,
			Year:    r.Date.Year(),
			Quarter: QuarterLabel(r.Date),
			Month:   MonthLabel(r.Date),
		}
	}
	return out
}

// Records strips the calendar parts again
func Records(records []domain.BucketedRecord) domain.Dataset {
	out := make(domain.Dataset, len(records))
	for i, r := range records {
		out[i] = r.Record
	}
	return out
}

// MonthStart returns midnight UTC on the first day of t's month
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves a month start by n calendar months
func AddMonths(monthStart time.Time, n int) time.Time {
	return time.Date(monthStart.Year(), monthStart.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween counts whole calendar months from a to b
func MonthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// QuarterOf returns 1..4
func QuarterOf(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// QuarterStart returns the first day of t's quarter
func QuarterStart(t time.Time) time.Time {
	return time.Date(t.Year(), time.Month((QuarterOf(t)-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// MonthLabel formats t as "2024-03"
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// QuarterLabel formats t as "2024Q1"
func QuarterLabel(t time.Time) string {
	return fmt.Sprintf("%04dQ%d", t.Year(), QuarterOf(t))
}

// ParseQuarter splits a label such as "2024Q1" into year and quarter
func ParseQuarter(label string) (year, quarter int, err error) {
	s := strings.ToUpper(strings.TrimSpace(label))
	y, q, ok := strings.Cut(s, "Q")
	if !ok {
		return 0, 0, fmt.Errorf("invalid quarter %q", label)
	}
	year, err = strconv.Atoi(y)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid quarter %q: %w", label, err)
	}
	quarter, err = strconv.Atoi(q)
	if err != nil || quarter < 1 || quarter > 4 {
		return 0, 0, fmt.Errorf("invalid quarter %q", label)
	}
	return year, quarter, nil
}

// QuarterEndOf returns the last calendar day of t's quarter
func QuarterEndOf(t time.Time) time.Time {
	return AddMonths(QuarterStart(t), 3).AddDate(0, 0, -1)
}

// QuarterEnd resolves a quarter label to the last day of that quarter, the
// date quarterly values are plotted against
func QuarterEnd(label string) (time.Time, error) {
	year, quarter, err := ParseQuarter(label)
	if err != nil {
		return time.Time{}, err
	}
	return QuarterEndOf(time.Date(year, time.Month(quarter*3), 1, 0, 0, 0, 0, time.UTC)), nil
}

// BucketStart returns the start and label of t's bucket at freq
func BucketStart(t time.Time, freq domain.Frequency) (time.Time, string, error) {
	switch freq {
	case domain.FrequencyMonthly:
		return MonthStart(t), MonthLabel(t), nil
	case domain.FrequencyQuarterly:
		return QuarterStart(t), QuarterLabel(t), nil
	case domain.FrequencyYearly:
		return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), strconv.Itoa(t.Year()), nil
	}
	return time.Time{}, "", errors.NewUnsupportedOptionError("frequency", string(freq))
}
