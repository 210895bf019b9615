package dataprocessing

import (
	"sort"
	"time"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// ValidateDimensions rejects unknown or repeated grouping dimensions
func ValidateDimensions(dims []domain.Dimension) error {
	seen := make(map[domain.Dimension]bool, len(dims))
	for _, d := range dims {
		if !d.Valid() {
			return errors.NewUnsupportedOptionError("dimension", string(d))
		}
		if seen[d] {
			return errors.NewUnsupportedOptionError("duplicate dimension", string(d))
		}
		seen[d] = true
	}
	return nil
}

type cellKey struct {
	group  string
	bucket time.Time
}

type cell struct {
	row   domain.AggregateRow
	total float64
}

// Aggregate reduces registrations per group and calendar bucket. Buckets in
// which a group has no records are absent from the result. Rows are ordered
// by group, then bucket. An empty groupCols yields a single total series.
func Aggregate(records []domain.BucketedRecord, groupCols []domain.Dimension, freq domain.Frequency, reducer domain.Reducer) ([]domain.AggregateRow, error) {
	if reducer != domain.ReducerSum && reducer != domain.ReducerMean {
		return nil, errors.NewUnsupportedOptionError("reducer", string(reducer))
	}
	if _, _, err := BucketStart(time.Time{}, freq); err != nil {
		return nil, err
	}
	if err := ValidateDimensions(groupCols); err != nil {
		return nil, err
	}

	cells := make(map[cellKey]*cell)
	for _, r := range records {
		start, label, _ := BucketStart(r.Date, freq)
		group := domain.NewGroupKey(r.Record, groupCols)
		key := cellKey{group: group.ID(), bucket: start}

		c, ok := cells[key]
		if !ok {
			c = &cell{row: domain.AggregateRow{Bucket: start, Period: label, Group: group}}
			cells[key] = c
		}
		c.total += float64(r.Registrations)
		c.row.Count++
	}

	out := make([]domain.AggregateRow, 0, len(cells))
	for _, c := range cells {
		row := c.row
		switch reducer {
		case domain.ReducerSum:
			row.Value = c.total
		case domain.ReducerMean:
			row.Value = c.total / float64(row.Count)
		}
		out = append(out, row)
	}

	sortAggregateRows(out)
	return out, nil
}

func sortAggregateRows(rows []domain.AggregateRow) {
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].Group.Compare(rows[j].Group); c != 0 {
			return c < 0
		}
		return rows[i].Bucket.Before(rows[j].Bucket)
	})
}
