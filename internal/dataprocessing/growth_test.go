package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// thirteenMonths is a single 2W/A series from 2023-01 (100) to 2024-01 (150)
func thirteenMonths() []domain.BucketedRecord {
	var records []domain.Record
	for i := 0; i < 12; i++ {
		records = append(records, rec(AddMonths(month(2023, 1), i), "2W", "A", int64(100+10*i)))
	}
	records = append(records, rec(month(2024, 1), "2W", "A", 150))
	return bucketed(records...)
}

func monthlyRows(t *testing.T, records []domain.BucketedRecord, dims []domain.Dimension) []domain.AggregateRow {
	t.Helper()
	rows, err := Aggregate(records, dims, domain.FrequencyMonthly, domain.ReducerSum)
	require.NoError(t, err)
	return rows
}

func TestComputeGrowth_YoY(t *testing.T) {
	rows := monthlyRows(t, thirteenMonths(), byCategory)

	got, err := ComputeGrowth(rows, byCategory, DefaultGrowthOptions())
	require.NoError(t, err)
	require.Len(t, got, 13)

	for i, row := range got[:12] {
		assert.False(t, row.YoYPct.Valid, "month %d should have no YoY", i)
	}
	last := got[12]
	assert.Equal(t, month(2024, 1), last.Date)
	assert.Equal(t, "2024Q1", last.Quarter)
	assert.Equal(t, 150.0, last.Registrations)
	require.True(t, last.YoYPct.Valid)
	assert.InDelta(t, 50.0, last.YoYPct.Value, 1e-9)
}

func TestComputeGrowth_QoQSharedWithinQuarter(t *testing.T) {
	rows := monthlyRows(t, thirteenMonths(), byCategory)

	got, err := ComputeGrowth(rows, byCategory, DefaultGrowthOptions())
	require.NoError(t, err)

	byQuarter := make(map[string][]domain.Percent)
	for _, row := range got {
		byQuarter[row.Quarter] = append(byQuarter[row.Quarter], row.QoQPct)
	}
	for quarter, values := range byQuarter {
		for _, v := range values[1:] {
			assert.Equal(t, values[0], v, "quarter %s", quarter)
		}
	}

	assert.False(t, byQuarter["2023Q1"][0].Valid)
	// 2023Q1 = 330, 2023Q2 = 420
	assert.InDelta(t, (420.0/330.0-1)*100, byQuarter["2023Q2"][0].Value, 1e-9)
}

func TestComputeGrowth_ZeroPreviousQuarter(t *testing.T) {
	records := bucketed(
		rec(month(2024, 1), "2W", "A", 100),
		rec(month(2024, 4), "2W", "A", 150),
		rec(month(2024, 1), "4W", "B", 0),
		rec(month(2024, 4), "4W", "B", 50),
	)
	rows := monthlyRows(t, records, byManufacturer)

	for _, policy := range []domain.MissingPolicy{domain.MissingAbsent, domain.MissingZero} {
		got, err := ComputeGrowth(rows, byManufacturer, GrowthOptions{MissingQoQ: policy})
		require.NoError(t, err)
		require.Len(t, got, 8)

		a, b := got[3], got[7]
		assert.Equal(t, "A", a.Group.Label())
		assert.Equal(t, "2024Q2", a.Quarter)
		require.True(t, a.QoQPct.Valid)
		assert.InDelta(t, 50.0, a.QoQPct.Value, 1e-9)

		assert.Equal(t, "B", b.Group.Label())
		assert.False(t, b.QoQPct.Valid, "division by zero must stay absent under %s", policy)
	}
}

func TestComputeGrowth_FillsGaps(t *testing.T) {
	records := bucketed(
		rec(month(2024, 1), "2W", "A", 10),
		rec(month(2024, 4), "2W", "A", 40),
	)
	rows := monthlyRows(t, records, byCategory)
	require.Len(t, rows, 2)

	got, err := ComputeGrowth(rows, byCategory, DefaultGrowthOptions())
	require.NoError(t, err)

	require.Len(t, got, 4)
	assert.Equal(t, []float64{10, 0, 0, 40}, []float64{
		got[0].Registrations, got[1].Registrations, got[2].Registrations, got[3].Registrations,
	})
	assert.Equal(t, month(2024, 3), got[2].Date)
}

func TestComputeGrowth_MissingPolicy(t *testing.T) {
	rows := monthlyRows(t, thirteenMonths(), byCategory)

	absent, err := ComputeGrowth(rows, byCategory, GrowthOptions{MissingQoQ: domain.MissingAbsent})
	require.NoError(t, err)
	assert.False(t, absent[0].QoQPct.Valid)

	zero, err := ComputeGrowth(rows, byCategory, GrowthOptions{MissingQoQ: domain.MissingZero})
	require.NoError(t, err)
	assert.Equal(t, domain.PercentOf(0), zero[0].QoQPct)
	assert.Equal(t, absent[5].QoQPct, zero[5].QoQPct)
	// YoY is never filled
	assert.False(t, zero[0].YoYPct.Valid)

	_, err = ComputeGrowth(rows, byCategory, GrowthOptions{MissingQoQ: "drop"})
	assert.ErrorIs(t, err, errors.ErrConfig)
}

func TestComputeGrowth_GroupsIndependent(t *testing.T) {
	records := append(thirteenMonths(), bucketed(
		rec(month(2023, 6), "4W", "Z", 10),
		rec(month(2023, 7), "4W", "Z", 20),
	)...)
	rows := monthlyRows(t, records, byCategory)

	got, err := ComputeGrowth(rows, byCategory, DefaultGrowthOptions())
	require.NoError(t, err)

	counts := make(map[string]int)
	for _, row := range got {
		counts[row.Group.Label()]++
	}
	assert.Equal(t, map[string]int{"2W": 13, "4W": 2}, counts)
	assert.Equal(t, "4W", got[len(got)-1].Group.Label())
}

func TestComputeGrowth_Empty(t *testing.T) {
	got, err := ComputeGrowth(nil, byCategory, DefaultGrowthOptions())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestComputeGrowth_ZeroLagYoY(t *testing.T) {
	var records []domain.Record
	for i := 0; i < 13; i++ {
		records = append(records, rec(AddMonths(month(2023, 1), i), "2W", "A", int64(i*10)))
	}
	rows := monthlyRows(t, bucketed(records...), byCategory)

	got, err := ComputeGrowth(rows, byCategory, DefaultGrowthOptions())
	require.NoError(t, err)
	// 2023-01 is 0, so 2024-01 has nothing to compare with
	assert.False(t, got[12].YoYPct.Valid)
}

func TestGrowth_RejectsCoarserPeriods(t *testing.T) {
	for _, freq := range []domain.Frequency{domain.FrequencyQuarterly, domain.FrequencyYearly} {
		t.Run(string(freq), func(t *testing.T) {
			rows, err := Aggregate(thirteenMonths(), byCategory, freq, domain.ReducerSum)
			require.NoError(t, err)

			_, err = ComputeGrowth(rows, byCategory, DefaultGrowthOptions())
			assert.ErrorIs(t, err, errors.ErrConfig)

			_, err = QuarterlyGrowth(rows, byCategory)
			assert.ErrorIs(t, err, errors.ErrConfig)
		})
	}
}

func TestQuarterlyGrowth(t *testing.T) {
	rows := monthlyRows(t, thirteenMonths(), byCategory)

	got, err := QuarterlyGrowth(rows, byCategory)
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "2023Q1", got[0].Quarter)
	assert.Equal(t, day(2023, 3, 31), got[0].Date)
	assert.Equal(t, 330.0, got[0].Registrations)
	assert.False(t, got[0].QoQPct.Valid)

	assert.Equal(t, "2024Q1", got[4].Quarter)
	assert.Equal(t, day(2024, 3, 31), got[4].Date)
	assert.Equal(t, 150.0, got[4].Registrations)
	// 2023Q4 = 190 + 200 + 210
	assert.InDelta(t, (150.0/600.0-1)*100, got[4].QoQPct.Value, 1e-9)
}

func TestLatestGrowth(t *testing.T) {
	full := MonthlyTotals(thirteenMonths())
	require.Equal(t, 13, full.Len())
	assert.InDelta(t, 50.0, LatestYoY(full).Value, 1e-9)
	assert.True(t, LatestQoQ(full).Valid)

	short := MonthlyTotals(thirteenMonths()[:3])
	assert.False(t, LatestYoY(short).Valid)
	assert.False(t, LatestQoQ(short).Valid)

	four := MonthlyTotals(thirteenMonths()[:4])
	// 2023Q2 so far (130) against 2023Q1 (330)
	assert.InDelta(t, (130.0/330.0-1)*100, LatestQoQ(four).Value, 1e-9)
}

func TestGapFiller_FillWithStats(t *testing.T) {
	records := bucketed(
		rec(month(2024, 1), "2W", "A", 10),
		rec(month(2024, 5), "2W", "A", 50),
		rec(month(2024, 2), "4W", "B", 5),
	)
	rows := monthlyRows(t, records, byCategory)

	series, stats := NewGapFiller().FillWithStats(rows, byCategory)

	require.Len(t, series, 2)
	assert.Equal(t, GapFillStatistics{SeriesProcessed: 2, ObservedMonths: 3, FilledMonths: 3}, stats)
	assert.Equal(t, []bool{true, false, false, false, true}, series[0].Observed)
	assert.Equal(t, month(2024, 2), series[1].Start)
}
