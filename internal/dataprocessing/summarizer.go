package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"regpulse/pkg/contracts/domain"
)

// Summarizer produces the headline figures and auto insights of a filtered
// record set.
type Summarizer struct {
	logger           *slog.Logger
	topManufacturers int
	windowMonths     int
}

// SummarizerConfig holds configuration options for the Summarizer.
type SummarizerConfig struct {
	TopManufacturers int // How many manufacturers the insights rank
	WindowMonths     int // Length of the trailing insights window
}

// DefaultSummarizerConfig ranks five manufacturers over three months
func DefaultSummarizerConfig() SummarizerConfig {
	return SummarizerConfig{
		TopManufacturers: 5,
		WindowMonths:     3,
	}
}

// NewSummarizer creates a summarizer with the given configuration.
func NewSummarizer(logger *slog.Logger, config SummarizerConfig) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultSummarizerConfig()
	if config.TopManufacturers <= 0 {
		config.TopManufacturers = defaults.TopManufacturers
	}
	if config.WindowMonths <= 0 {
		config.WindowMonths = defaults.WindowMonths
	}

	return &Summarizer{
		logger:           logger.With(slog.String("component", "summarizer")),
		topManufacturers: config.TopManufacturers,
		windowMonths:     config.WindowMonths,
	}
}

// Summary totals the records and reports the latest YoY and QoQ growth of
// their continuous monthly totals. YoY needs at least thirteen months and
// QoQ at least four; otherwise they are absent.
func (s *Summarizer) Summary(ctx context.Context, records []domain.BucketedRecord) domain.Summary {
	totals := MonthlyTotals(records)

	summary := domain.Summary{
		TotalRegistrations: Records(records).TotalRegistrations(),
		MonthsCovered:      totals.Len(),
		LatestYoYPct:       LatestYoY(totals),
		LatestQoQPct:       LatestQoQ(totals),
	}
	if totals.Len() > 0 {
		summary.LatestMonth = totals.Month(totals.Len() - 1)
	}

	s.logger.DebugContext(ctx, "computed summary",
		slog.Int64("total", summary.TotalRegistrations),
		slog.Int("months", summary.MonthsCovered),
		slog.Bool("yoy_defined", summary.LatestYoYPct.Valid),
		slog.Bool("qoq_defined", summary.LatestQoQPct.Valid))
	return summary
}

// Insights compares the trailing window ending at the latest month with the
// same months one year earlier. Manufacturers are ranked by growth, leaving
// out those with no prior-year volume; category shares are compared in
// percentage points.
func (s *Summarizer) Insights(ctx context.Context, records []domain.BucketedRecord) domain.Insights {
	if len(records) == 0 {
		return domain.Insights{TopManufacturers: []domain.ManufacturerGrowth{}, CategoryMix: []domain.MixShift{}}
	}

	latest := records[0].Date
	for _, r := range records[1:] {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	end := AddMonths(MonthStart(latest), 1)
	start := AddMonths(end, -s.windowMonths)
	prevStart, prevEnd := AddMonths(start, -12), AddMonths(end, -12)

	current := s.windowTotals(records, start, end)
	previous := s.windowTotals(records, prevStart, prevEnd)

	insights := domain.Insights{
		WindowStart:      start,
		WindowEnd:        end.AddDate(0, 0, -1),
		TopManufacturers: s.rankManufacturers(current.manufacturers, previous.manufacturers),
		CategoryMix:      s.mixShift(current, previous),
	}

	s.logger.DebugContext(ctx, "computed insights",
		slog.Time("window_start", start),
		slog.Int("ranked_manufacturers", len(insights.TopManufacturers)),
		slog.Int("categories", len(insights.CategoryMix)))
	return insights
}

type windowTotals struct {
	total         int64
	manufacturers map[string]int64
	categories    map[string]int64
}

func (s *Summarizer) windowTotals(records []domain.BucketedRecord, start, end time.Time) windowTotals {
	w := windowTotals{
		manufacturers: make(map[string]int64),
		categories:    make(map[string]int64),
	}
	for _, r := range records {
		if r.Date.Before(start) || !r.Date.Before(end) {
			continue
		}
		w.total += r.Registrations
		w.manufacturers[r.Manufacturer] += r.Registrations
		w.categories[r.Category] += r.Registrations
	}
	return w
}

func (s *Summarizer) rankManufacturers(current, previous map[string]int64) []domain.ManufacturerGrowth {
	ranked := make([]domain.ManufacturerGrowth, 0, len(current))
	for m, cur := range current {
		prev := previous[m]
		if prev == 0 {
			continue
		}
		ranked = append(ranked, domain.ManufacturerGrowth{
			Manufacturer: m,
			Current:      cur,
			Previous:     prev,
			GrowthPct:    float64(cur-prev) / float64(prev) * 100,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].GrowthPct != ranked[j].GrowthPct {
			return ranked[i].GrowthPct > ranked[j].GrowthPct
		}
		return ranked[i].Manufacturer < ranked[j].Manufacturer
	})
	if len(ranked) > s.topManufacturers {
		ranked = ranked[:s.topManufacturers]
	}
	return ranked
}

func (s *Summarizer) mixShift(current, previous windowTotals) []domain.MixShift {
	curDenom := float64(current.total)
	if curDenom == 0 {
		curDenom = 1
	}
	prevDenom := float64(previous.total)
	if prevDenom == 0 {
		prevDenom = 1
	}

	seen := make(map[string]bool)
	shifts := []domain.MixShift{}
	add := func(category string) {
		if seen[category] {
			return
		}
		seen[category] = true
		cur := float64(current.categories[category]) / curDenom * 100
		prev := float64(previous.categories[category]) / prevDenom * 100
		shifts = append(shifts, domain.MixShift{
			Category:      category,
			CurrentShare:  cur,
			PreviousShare: prev,
			ShiftPP:       cur - prev,
		})
	}
	for _, c := range sortedKeys(boolKeys(current.categories)) {
		add(c)
	}
	for _, c := range sortedKeys(boolKeys(previous.categories)) {
		add(c)
	}

	sort.SliceStable(shifts, func(i, j int) bool {
		return shifts[i].ShiftPP > shifts[j].ShiftPP
	})
	return shifts
}

func boolKeys(m map[string]int64) map[string]bool {
	out := make(map[string]bool, len(m))
	for k := range m {
		out[k] = true
	}
	return out
}
