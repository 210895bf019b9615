package dataprocessing

import (
	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// yoyLag is the distance in months between a month and its prior-year month
const yoyLag = 12

// quarterTotal is a quarter's summed registrations within one series
type quarterTotal struct {
	label string
	total float64
}

// ComputeGrowth computes YoY and QoQ growth for every month of every group.
// Each group's months are made continuous first, so a group observed from
// 2023-01 to 2024-01 yields 13 rows even when months were missing.
//
// YoY compares a month with the month twelve earlier and is absent when that
// month lies before the series start or has a zero value. QoQ compares
// quarterly totals with the previous quarter and is shared by all months of
// the quarter; a zero previous total is absent, and a missing previous
// quarter follows opts.MissingQoQ. Rows must be monthly aggregates.
func ComputeGrowth(rows []domain.AggregateRow, groupCols []domain.Dimension, opts GrowthOptions) ([]domain.GrowthRow, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateDimensions(groupCols); err != nil {
		return nil, err
	}
	if err := requireMonthly(rows); err != nil {
		return nil, err
	}

	series := NewGapFiller().Fill(rows, groupCols)

	var out []domain.GrowthRow
	for _, s := range series {
		quarters, indexOf := quarterTotals(s)
		qoq := quarterGrowth(quarters, opts.MissingQoQ)

		for i, v := range s.Values {
			month := s.Month(i)
			row := domain.GrowthRow{
				Date:          month,
				Group:         s.Group,
				Registrations: v,
				Quarter:       QuarterLabel(month),
			}
			if i >= yoyLag {
				row.YoYPct = domain.PercentChange(v, s.Values[i-yoyLag])
			}
			row.QoQPct = qoq[indexOf[i]]
			out = append(out, row)
		}
	}
	return out, nil
}

// QuarterlyGrowth sums each group's continuous monthly series into quarters
// and computes QoQ growth per quarter. Rows carry the quarter-end date. The
// first quarter of a group and quarters following a zero total have an
// absent QoQ value.
func QuarterlyGrowth(rows []domain.AggregateRow, groupCols []domain.Dimension) ([]domain.QuarterGrowthRow, error) {
	if err := ValidateDimensions(groupCols); err != nil {
		return nil, err
	}
	if err := requireMonthly(rows); err != nil {
		return nil, err
	}

	series := NewGapFiller().Fill(rows, groupCols)

	var out []domain.QuarterGrowthRow
	for _, s := range series {
		quarters, _ := quarterTotals(s)
		qoq := quarterGrowth(quarters, domain.MissingAbsent)
		for i, q := range quarters {
			end, _ := QuarterEnd(q.label)
			out = append(out, domain.QuarterGrowthRow{
				Quarter:       q.label,
				Date:          end,
				Group:         s.Group,
				Registrations: q.total,
				QoQPct:        qoq[i],
			})
		}
	}
	return out, nil
}

// requireMonthly rejects rows whose period is not the month label of their bucket
func requireMonthly(rows []domain.AggregateRow) error {
	for _, r := range rows {
		if r.Period != MonthLabel(r.Bucket) {
			return errors.NewUnsupportedOptionError("period", r.Period)
		}
	}
	return nil
}

// quarterTotals sums a continuous series into consecutive quarters and maps
// each month index to its quarter index
func quarterTotals(s MonthlySeries) ([]quarterTotal, []int) {
	var quarters []quarterTotal
	indexOf := make([]int, s.Len())

	for i, v := range s.Values {
		label := QuarterLabel(s.Month(i))
		if len(quarters) == 0 || quarters[len(quarters)-1].label != label {
			quarters = append(quarters, quarterTotal{label: label})
		}
		quarters[len(quarters)-1].total += v
		indexOf[i] = len(quarters) - 1
	}
	return quarters, indexOf
}

// quarterGrowth returns QoQ growth per quarter
func quarterGrowth(quarters []quarterTotal, missing domain.MissingPolicy) []domain.Percent {
	out := make([]domain.Percent, len(quarters))
	for i, q := range quarters {
		if i == 0 {
			if missing == domain.MissingZero {
				out[i] = domain.PercentOf(0)
			}
			continue
		}
		out[i] = domain.PercentChange(q.total, quarters[i-1].total)
	}
	return out
}

// LatestYoY is the YoY growth of the last month of a continuous series,
// defined only when the series spans at least thirteen months
func LatestYoY(s MonthlySeries) domain.Percent {
	n := s.Len()
	if n <= yoyLag {
		return domain.Percent{}
	}
	return domain.PercentChange(s.Values[n-1], s.Values[n-1-yoyLag])
}

// LatestQoQ is the QoQ growth of the last quarter of a continuous series,
// defined only when the series spans at least four months
func LatestQoQ(s MonthlySeries) domain.Percent {
	if s.Len() < 4 {
		return domain.Percent{}
	}
	quarters, _ := quarterTotals(s)
	if len(quarters) < 2 {
		return domain.Percent{}
	}
	last := len(quarters) - 1
	return domain.PercentChange(quarters[last].total, quarters[last-1].total)
}
