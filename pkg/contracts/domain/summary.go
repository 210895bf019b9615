package domain

import "time"

// Summary holds the headline figures for a filtered dataset
type Summary struct {
	TotalRegistrations int64     `json:"total_registrations"`
	LatestMonth        time.Time `json:"latest_month,omitempty"`
	MonthsCovered      int       `json:"months_covered"`
	LatestYoYPct       Percent   `json:"latest_yoy_pct"`
	LatestQoQPct       Percent   `json:"latest_qoq_pct"`
}

// ManufacturerGrowth compares a manufacturer's trailing window against the
// same window one year earlier
type ManufacturerGrowth struct {
	Manufacturer string  `json:"manufacturer"`
	Current      int64   `json:"current"`
	Previous     int64   `json:"previous"`
	GrowthPct    float64 `json:"growth_pct"`
}

// MixShift is the change of a category's share of registrations, in
// percentage points
type MixShift struct {
	Category      string  `json:"category"`
	CurrentShare  float64 `json:"current_share"`
	PreviousShare float64 `json:"previous_share"`
	ShiftPP       float64 `json:"shift_pp"`
}

// Insights are the auto-generated observations for a filtered dataset
type Insights struct {
	WindowStart      time.Time            `json:"window_start"`
	WindowEnd        time.Time            `json:"window_end"`
	TopManufacturers []ManufacturerGrowth `json:"top_manufacturers"`
	CategoryMix      []MixShift           `json:"category_mix"`
}
