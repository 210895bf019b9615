package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"regpulse/internal/config"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/errors"
	"regpulse/internal/infrastructure"
	"regpulse/pkg/contracts/domain"
)

// ErrDatasetNotLoaded is returned by queries issued before any dataset was loaded
var ErrDatasetNotLoaded = errors.ErrDatasetNotFound

// snapshot is an immutable, bucketed dataset. It is replaced as a whole and
// never modified after publication.
type snapshot struct {
	records   []domain.BucketedRecord
	options   domain.DimensionOptions
	sources   []string
	gapMonths int
	loadedAt  time.Time
}

var byCategory = []domain.Dimension{domain.DimensionCategory}

func newSnapshot(dataset domain.Dataset, sources []string) *snapshot {
	records := dataprocessing.AddTimeParts(dataset)

	// Months without any registration inside each category's observed span
	var gaps dataprocessing.GapFillStatistics
	if rows, err := dataprocessing.Aggregate(records, byCategory, domain.FrequencyMonthly, domain.ReducerSum); err == nil {
		_, gaps = dataprocessing.NewGapFiller().FillWithStats(rows, byCategory)
	}

	return &snapshot{
		records:   records,
		options:   dataprocessing.DimensionOptions(records),
		sources:   sources,
		gapMonths: gaps.FilledMonths,
		loadedAt:  time.Now().UTC(),
	}
}

// DatasetStatus describes the loaded dataset
type DatasetStatus struct {
	Loaded    bool      `json:"loaded"`
	Sources   []string  `json:"sources,omitempty"`
	Records   int       `json:"records"`
	GapMonths int       `json:"gap_months"`
	LoadedAt  time.Time `json:"loaded_at,omitempty"`
}

// Dashboard bundles every view of a filtered dataset
type Dashboard struct {
	Source     string                    `json:"source,omitempty"`
	Records    int                       `json:"records"`
	Dimensions domain.DimensionOptions   `json:"dimensions"`
	Filter     domain.Filter             `json:"filter"`
	Summary    domain.Summary            `json:"summary"`
	Trend      []domain.GrowthRow        `json:"trend"`
	Quarterly  []domain.QuarterGrowthRow `json:"quarterly"`
	Insights   domain.Insights           `json:"insights"`
}

// AnalyticsService answers trend, growth and summary queries over an
// in-memory dataset. Queries never mutate the snapshot, so the service is
// safe for concurrent use; LoadFiles swaps the snapshot atomically.
type AnalyticsService struct {
	current    atomic.Pointer[snapshot]
	loader     *dataprocessing.Loader
	summarizer *dataprocessing.Summarizer
	growth     dataprocessing.GrowthOptions
	reducer    domain.Reducer

	maxManufacturers int

	metrics *infrastructure.BusinessMetrics
	logger  *slog.Logger
}

// NewAnalyticsService creates a service configured from the analysis
// section. metrics may be nil.
func NewAnalyticsService(cfg config.AnalysisConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*AnalyticsService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	missing, err := dataprocessing.ParseMissingPolicy(cfg.QoQMissing)
	if err != nil {
		return nil, err
	}
	reducer, err := dataprocessing.ParseReducer(cfg.Reducer)
	if err != nil {
		return nil, err
	}

	return &AnalyticsService{
		loader: dataprocessing.NewLoader(logger),
		summarizer: dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{
			TopManufacturers: cfg.TopManufacturers,
			WindowMonths:     cfg.WindowMonths,
		}),
		growth:           dataprocessing.GrowthOptions{MissingQoQ: missing},
		reducer:          reducer,
		maxManufacturers: cfg.MaxManufacturers,
		metrics:          metrics,
		logger:           infrastructure.WithComponent(logger, "analytics_service"),
	}, nil
}

// LoadFiles loads and publishes a new dataset. On failure the previous
// dataset stays in place.
func (s *AnalyticsService) LoadFiles(ctx context.Context, paths ...string) error {
	ctx, span := infrastructure.StartSpan(ctx, "analytics.load",
		attribute.StringSlice("files", paths))
	defer span.End()

	start := time.Now()
	dataset, err := s.loader.LoadFiles(ctx, paths...)
	infrastructure.RecordPipelineMetrics(ctx, s.metrics, "load", len(dataset), time.Since(start), err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "dataset load failed",
			slog.Any("files", paths),
			slog.String("error", err.Error()))
		return err
	}

	s.Replace(ctx, dataset, paths...)
	snap := s.current.Load()
	infrastructure.AddSpanEvent(ctx, "dataset.published", map[string]interface{}{
		"records":    len(snap.records),
		"gap_months": snap.gapMonths,
		"categories": len(snap.options.Categories),
	})
	return nil
}

// Replace publishes an already normalized dataset
func (s *AnalyticsService) Replace(ctx context.Context, dataset domain.Dataset, sources ...string) {
	snap := newSnapshot(dataset.Clone(), sources)
	s.current.Store(snap)

	if s.metrics != nil {
		s.metrics.DatasetRecords.Record(ctx, int64(len(snap.records)))
	}
	s.logger.InfoContext(ctx, "dataset published",
		slog.Int("records", len(snap.records)),
		slog.Int("categories", len(snap.options.Categories)),
		slog.Int("manufacturers", len(snap.options.Manufacturers)),
		slog.Int("gap_months", snap.gapMonths))
}

// Status reports what is currently loaded
func (s *AnalyticsService) Status() DatasetStatus {
	snap := s.current.Load()
	if snap == nil {
		return DatasetStatus{}
	}
	return DatasetStatus{
		Loaded:    true,
		Sources:   snap.sources,
		Records:   len(snap.records),
		GapMonths: snap.gapMonths,
		LoadedAt:  snap.loadedAt,
	}
}

// Dataset returns a copy of the loaded records
func (s *AnalyticsService) Dataset() (domain.Dataset, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return dataprocessing.Records(snap.records), nil
}

// Dimensions lists the selectable years, categories and manufacturers
func (s *AnalyticsService) Dimensions(ctx context.Context) (domain.DimensionOptions, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.DimensionOptions{}, err
	}
	return snap.options, nil
}

// DefaultFilter is the filter a fresh dashboard starts from
func (s *AnalyticsService) DefaultFilter(ctx context.Context) (domain.Filter, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.Filter{}, err
	}
	return dataprocessing.DefaultFilter(snap.options, s.maxManufacturers), nil
}

// Aggregate groups the filtered records by the filter's view
func (s *AnalyticsService) Aggregate(ctx context.Context, f domain.Filter, freq domain.Frequency) ([]domain.AggregateRow, error) {
	var rows []domain.AggregateRow
	err := s.run(ctx, "aggregate", f, func(ctx context.Context, records []domain.BucketedRecord) (int, error) {
		var err error
		rows, err = dataprocessing.Aggregate(records, []domain.Dimension{f.View}, freq, s.reducer)
		return len(rows), err
	})
	return rows, err
}

// Trend returns the monthly series of each group in the filter's view with
// YoY and QoQ growth
func (s *AnalyticsService) Trend(ctx context.Context, f domain.Filter) ([]domain.GrowthRow, error) {
	var rows []domain.GrowthRow
	err := s.run(ctx, "trend", f, func(ctx context.Context, records []domain.BucketedRecord) (int, error) {
		var err error
		rows, err = s.trend(records, f.View)
		return len(rows), err
	})
	return rows, err
}

// Quarterly returns quarterly totals and QoQ growth per group
func (s *AnalyticsService) Quarterly(ctx context.Context, f domain.Filter) ([]domain.QuarterGrowthRow, error) {
	var rows []domain.QuarterGrowthRow
	err := s.run(ctx, "quarterly", f, func(ctx context.Context, records []domain.BucketedRecord) (int, error) {
		var err error
		rows, err = s.quarterly(records, f.View)
		return len(rows), err
	})
	return rows, err
}

// Summary returns the headline figures of the filtered records
func (s *AnalyticsService) Summary(ctx context.Context, f domain.Filter) (domain.Summary, error) {
	var summary domain.Summary
	err := s.run(ctx, "summary", f, func(ctx context.Context, records []domain.BucketedRecord) (int, error) {
		summary = s.summarizer.Summary(ctx, records)
		return len(records), nil
	})
	return summary, err
}

// Insights returns the top manufacturers and category mix shift
func (s *AnalyticsService) Insights(ctx context.Context, f domain.Filter) (domain.Insights, error) {
	var insights domain.Insights
	err := s.run(ctx, "insights", f, func(ctx context.Context, records []domain.BucketedRecord) (int, error) {
		insights = s.summarizer.Insights(ctx, records)
		return len(records), nil
	})
	return insights, err
}

// Dashboard computes every view of the loaded dataset for one filter
func (s *AnalyticsService) Dashboard(ctx context.Context, f domain.Filter) (Dashboard, error) {
	snap, err := s.snapshot()
	if err != nil {
		return Dashboard{}, err
	}
	return s.dashboard(ctx, snap, f)
}

// Analyze loads an uploaded file and computes its dashboard without
// publishing it. A nil filter selects the default filter of the upload.
func (s *AnalyticsService) Analyze(ctx context.Context, src io.Reader, name string, f *domain.Filter) (Dashboard, error) {
	ctx, span := infrastructure.StartSpan(ctx, "analytics.analyze",
		attribute.String("file.name", filepath.Base(name)))
	defer span.End()

	counter := &countingReader{r: src}
	dataset, err := s.loader.Load(ctx, counter, name)
	infrastructure.RecordUpload(ctx, s.metrics, counter.n, err)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("file", filepath.Base(name)),
			slog.String("error", err.Error()))
		return Dashboard{}, err
	}

	snap := newSnapshot(dataset, []string{filepath.Base(name)})
	filter := dataprocessing.DefaultFilter(snap.options, s.maxManufacturers)
	if f != nil {
		filter = *f
	}

	dash, err := s.dashboard(ctx, snap, filter)
	if err != nil {
		return Dashboard{}, err
	}
	dash.Source = filepath.Base(name)
	return dash, nil
}

func (s *AnalyticsService) dashboard(ctx context.Context, snap *snapshot, f domain.Filter) (Dashboard, error) {
	dash := Dashboard{Dimensions: snap.options, Filter: f}
	err := s.runOn(ctx, snap, "dashboard", f, func(ctx context.Context, records []domain.BucketedRecord) (int, error) {
		var err error
		if dash.Trend, err = s.trend(records, f.View); err != nil {
			return 0, err
		}
		if dash.Quarterly, err = s.quarterly(records, f.View); err != nil {
			return 0, err
		}
		dash.Records = len(records)
		dash.Summary = s.summarizer.Summary(ctx, records)
		dash.Insights = s.summarizer.Insights(ctx, records)
		return len(records), nil
	})
	return dash, err
}

func (s *AnalyticsService) trend(records []domain.BucketedRecord, view domain.Dimension) ([]domain.GrowthRow, error) {
	groupCols := []domain.Dimension{view}
	agg, err := dataprocessing.Aggregate(records, groupCols, domain.FrequencyMonthly, s.reducer)
	if err != nil {
		return nil, err
	}
	return dataprocessing.ComputeGrowth(agg, groupCols, s.growth)
}

func (s *AnalyticsService) quarterly(records []domain.BucketedRecord, view domain.Dimension) ([]domain.QuarterGrowthRow, error) {
	groupCols := []domain.Dimension{view}
	agg, err := dataprocessing.Aggregate(records, groupCols, domain.FrequencyMonthly, s.reducer)
	if err != nil {
		return nil, err
	}
	return dataprocessing.QuarterlyGrowth(agg, groupCols)
}

func (s *AnalyticsService) snapshot() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrDatasetNotLoaded
	}
	return snap, nil
}

type stage func(ctx context.Context, records []domain.BucketedRecord) (int, error)

func (s *AnalyticsService) run(ctx context.Context, operation string, f domain.Filter, fn stage) error {
	snap, err := s.snapshot()
	if err != nil {
		return err
	}
	return s.runOn(ctx, snap, operation, f, fn)
}

// runOn filters the snapshot and runs one stage inside a span, recording
// pipeline metrics for it
func (s *AnalyticsService) runOn(ctx context.Context, snap *snapshot, operation string, f domain.Filter, fn stage) error {
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := infrastructure.StartSpan(ctx, "analytics."+operation,
		attribute.String("filter.view", string(f.View)),
		attribute.Int("filter.year_from", f.YearFrom),
		attribute.Int("filter.year_to", f.YearTo),
		attribute.Int("filter.categories", len(f.Categories)),
		attribute.Int("filter.manufacturers", len(f.Manufacturers)),
	)
	defer span.End()

	start := time.Now()
	records, err := dataprocessing.ApplyFilter(snap.records, f)
	var produced int
	if err == nil {
		produced, err = fn(ctx, records)
	}
	duration := time.Since(start)
	infrastructure.RecordPipelineMetrics(ctx, s.metrics, operation, len(records), duration, err)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "analytics query failed",
			slog.String("operation", operation))
		return fmt.Errorf("%s: %w", operation, err)
	}

	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"records": len(records),
		"rows":    produced,
	})

	s.logger.DebugContext(ctx, "analytics query completed",
		slog.String("operation", operation),
		slog.Int("records", len(records)),
		slog.Int("rows", produced),
		slog.Duration("duration", duration))
	return nil
}

// countingReader counts the bytes read from an upload
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
