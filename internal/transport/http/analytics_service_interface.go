package http

import (
	"context"
	"io"

	"regpulse/internal/services"
	"regpulse/pkg/contracts/domain"
)

// AnalyticsServiceInterface is what the analytics handler needs from the
// service layer
type AnalyticsServiceInterface interface {
	Dimensions(ctx context.Context) (domain.DimensionOptions, error)
	DefaultFilter(ctx context.Context) (domain.Filter, error)
	Aggregate(ctx context.Context, f domain.Filter, freq domain.Frequency) ([]domain.AggregateRow, error)
	Trend(ctx context.Context, f domain.Filter) ([]domain.GrowthRow, error)
	Quarterly(ctx context.Context, f domain.Filter) ([]domain.QuarterGrowthRow, error)
	Summary(ctx context.Context, f domain.Filter) (domain.Summary, error)
	Insights(ctx context.Context, f domain.Filter) (domain.Insights, error)
	Dashboard(ctx context.Context, f domain.Filter) (services.Dashboard, error)
	Analyze(ctx context.Context, src io.Reader, name string, f *domain.Filter) (services.Dashboard, error)
}

var _ AnalyticsServiceInterface = (*services.AnalyticsService)(nil)
