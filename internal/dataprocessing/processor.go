package dataprocessing

import (
	"sort"
	"time"

	"regpulse/pkg/contracts/domain"
)

// MonthlySeries is one group's continuous monthly series. Values[i] belongs
// to AddMonths(Start, i); Observed[i] is false for months that were filled.
type MonthlySeries struct {
	Group    domain.GroupKey
	Start    time.Time
	Values   []float64
	Observed []bool
}

// Len returns the number of months in the series
func (s MonthlySeries) Len() int {
	return len(s.Values)
}

// Month returns the month start of index i
func (s MonthlySeries) Month(i int) time.Time {
	return AddMonths(s.Start, i)
}

// GapFiller turns sparse aggregated rows into continuous monthly series.
// Months between a group's first and last observation that have no row are
// filled with 0; nothing is added before the first or after the last.
type GapFiller struct{}

// NewGapFiller creates a gap filler
func NewGapFiller() *GapFiller {
	return &GapFiller{}
}

// Fill groups rows by the groupCols part of their key, sums rows that fall
// in the same month and fills the missing months. Series are returned in
// group order. The rows are not modified.
func (g *GapFiller) Fill(rows []domain.AggregateRow, groupCols []domain.Dimension) []MonthlySeries {
	if len(rows) == 0 {
		return nil
	}

	type bucket struct {
		group  domain.GroupKey
		months map[time.Time]float64
	}
	groups := make(map[string]*bucket)

	for _, row := range rows {
		key := g.project(row.Group, groupCols)
		b, ok := groups[key.ID()]
		if !ok {
			b = &bucket{group: key, months: make(map[time.Time]float64)}
			groups[key.ID()] = b
		}
		b.months[MonthStart(row.Bucket)] += row.Value
	}

	series := make([]MonthlySeries, 0, len(groups))
	for _, b := range groups {
		months := g.getSortedMonths(b.months)
		first, last := months[0], months[len(months)-1]
		n := MonthsBetween(first, last) + 1

		s := MonthlySeries{
			Group:    b.group,
			Start:    first,
			Values:   make([]float64, n),
			Observed: make([]bool, n),
		}
		for month, v := range b.months {
			i := MonthsBetween(first, month)
			s.Values[i] = v
			s.Observed[i] = true
		}
		series = append(series, s)
	}

	sort.Slice(series, func(i, j int) bool {
		return series[i].Group.Compare(series[j].Group) < 0
	})
	return series
}

// project keeps only the groupCols values of key, in groupCols order
func (g *GapFiller) project(key domain.GroupKey, groupCols []domain.Dimension) domain.GroupKey {
	values := make([]string, len(groupCols))
	for i, d := range groupCols {
		values[i] = key.Get(d)
	}
	dims := make([]domain.Dimension, len(groupCols))
	copy(dims, groupCols)
	return domain.GroupKey{Dimensions: dims, Values: values}
}

// getSortedMonths extracts and sorts month keys
func (g *GapFiller) getSortedMonths(m map[time.Time]float64) []time.Time {
	keys := make([]time.Time, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	return keys
}

// GapFillStatistics describes a fill operation
type GapFillStatistics struct {
	SeriesProcessed int
	ObservedMonths  int
	FilledMonths    int
}

// FillWithStats performs Fill and reports how many months were synthesized
func (g *GapFiller) FillWithStats(rows []domain.AggregateRow, groupCols []domain.Dimension) ([]MonthlySeries, GapFillStatistics) {
	series := g.Fill(rows, groupCols)

	stats := GapFillStatistics{SeriesProcessed: len(series)}
	for _, s := range series {
		for _, observed := range s.Observed {
			if observed {
				stats.ObservedMonths++
			} else {
				stats.FilledMonths++
			}
		}
	}
	return series, stats
}

// MonthlyTotals builds the single continuous total series of a record set
func MonthlyTotals(records []domain.BucketedRecord) MonthlySeries {
	rows, _ := Aggregate(records, nil, domain.FrequencyMonthly, domain.ReducerSum)
	series := NewGapFiller().Fill(rows, nil)
	if len(series) == 0 {
		return MonthlySeries{Group: domain.GroupKey{}}
	}
	return series[0]
}
