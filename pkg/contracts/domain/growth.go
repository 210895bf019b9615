package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Percent is a growth percentage that may be absent.
// An absent value means there was no comparable prior period; it is
// distinct from a computed 0%.
type Percent struct {
	Value float64
	Valid bool
}

// PercentOf returns a present percentage. Non-finite inputs yield an absent value.
func PercentOf(v float64) Percent {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Percent{}
	}
	return Percent{Value: v, Valid: true}
}

// PercentChange computes (current/previous - 1) * 100. A zero previous value
// yields an absent percentage.
func PercentChange(current, previous float64) Percent {
	if previous == 0 {
		return Percent{}
	}
	return PercentOf((current/previous - 1) * 100)
}

// Or returns the value when present, otherwise fallback
func (p Percent) Or(fallback float64) float64 {
	if !p.Valid {
		return fallback
	}
	return p.Value
}

// String formats the percentage with two decimals, or "" when absent
func (p Percent) String() string {
	if !p.Valid {
		return ""
	}
	return strconv.FormatFloat(p.Value, 'f', 2, 64)
}

// MarshalJSON renders absent values as null
func (p Percent) MarshalJSON() ([]byte, error) {
	if !p.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(p.Value)
}

// UnmarshalJSON accepts a number or null
func (p *Percent) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = Percent{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = PercentOf(v)
	return nil
}

// Frequency is the calendar bucket size used by aggregation
type Frequency string

const (
	FrequencyMonthly   Frequency = "M"
	FrequencyQuarterly Frequency = "Q"
	FrequencyYearly    Frequency = "Y"
)

// Reducer names how values sharing a bucket and group are combined
type Reducer string

const (
	ReducerSum  Reducer = "sum"
	ReducerMean Reducer = "mean"
)

// MissingPolicy controls how a QoQ value with no previous quarter is rendered
type MissingPolicy string

const (
	// MissingAbsent leaves the value undefined
	MissingAbsent MissingPolicy = "absent"
	// MissingZero renders the value as 0%
	MissingZero MissingPolicy = "zero"
)

// AggregateRow is one (bucket, group) cell of an aggregated table
type AggregateRow struct {
	Bucket time.Time `json:"bucket"` // first day of the period
	Period string    `json:"period"` // "2024-03", "2024Q1" or "2024"
	Group  GroupKey  `json:"group"`
	Value  float64   `json:"value"`
	Count  int       `json:"count"`
}

// GrowthRow is one month of a group's series with its growth metrics
type GrowthRow struct {
	Date          time.Time `json:"date"`
	Group         GroupKey  `json:"group"`
	Registrations float64   `json:"registrations"`
	YoYPct        Percent   `json:"yoy_pct"`
	QoQPct        Percent   `json:"qoq_pct"`
	Quarter       string    `json:"quarter"`
}

// QuarterGrowthRow is one quarter of a group's series with its QoQ growth
type QuarterGrowthRow struct {
	Quarter       string    `json:"quarter"`
	Date          time.Time `json:"date"` // quarter end
	Group         GroupKey  `json:"group"`
	Registrations float64   `json:"registrations"`
	QoQPct        Percent   `json:"qoq_pct"`
}
