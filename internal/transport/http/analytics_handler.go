package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"regpulse/internal/dataprocessing"
	apierrors "regpulse/internal/errors"
	"regpulse/internal/exporter"
	mw "regpulse/internal/middleware"
	"regpulse/internal/services"
	"regpulse/internal/validation"
	"regpulse/pkg/contracts/domain"
)

// Output formats accepted by the ?format parameter
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AnalyticsHandler serves the registration analytics API
type AnalyticsHandler struct {
	service        AnalyticsServiceInterface
	files          *validation.FileValidator
	query          *mw.QueryParamValidator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service AnalyticsServiceInterface, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *AnalyticsHandler {
	return &AnalyticsHandler{
		service:        service,
		files:          validation.NewFileValidator(maxUploadBytes, logger),
		query:          mw.NewQueryParamValidator(logger, errorHandler),
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "analytics_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the analytics routes
func (h *AnalyticsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/dimensions", h.GetDimensions)
	r.Get("/filter", h.GetDefaultFilter)
	r.Get("/aggregate", h.GetAggregate)
	r.Get("/trend", h.GetTrend)
	r.Get("/quarterly", h.GetQuarterly)
	r.Get("/summary", h.GetSummary)
	r.Get("/insights", h.GetInsights)
	r.Get("/dashboard", h.GetDashboard)

	r.With(
		mw.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
		// multipart framing on top of the file itself
		mw.MaxBodySize(h.maxUploadBytes+1<<20, h.errorHandler),
	).Post("/analyze", h.Analyze)

	return r
}

// GetDimensions handles GET /api/v1/dimensions
func (h *AnalyticsHandler) GetDimensions(w http.ResponseWriter, r *http.Request) {
	format, ok := h.format(w, r)
	if !ok {
		return
	}
	opts, err := h.service.Dimensions(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "dimensions", opts, exporter.DimensionsTable(opts))
}

// GetDefaultFilter handles GET /api/v1/filter
func (h *AnalyticsHandler) GetDefaultFilter(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.DefaultFilter(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, f)
}

// GetAggregate handles GET /api/v1/aggregate?freq=M|Q|Y
func (h *AnalyticsHandler) GetAggregate(w http.ResponseWriter, r *http.Request) {
	f, format, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	freq, ok := h.query.ValidateEnum(w, r, "freq", []string{
		string(domain.FrequencyMonthly), string(domain.FrequencyQuarterly), string(domain.FrequencyYearly),
	}, string(domain.FrequencyMonthly))
	if !ok {
		return
	}

	rows, err := h.service.Aggregate(r.Context(), f, domain.Frequency(freq))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "aggregate", rows, exporter.AggregateTable(rows, viewCols(f)))
}

// GetTrend handles GET /api/v1/trend
func (h *AnalyticsHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	f, format, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Trend(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "trend", rows, exporter.GrowthTable(rows, viewCols(f)))
}

// GetQuarterly handles GET /api/v1/quarterly
func (h *AnalyticsHandler) GetQuarterly(w http.ResponseWriter, r *http.Request) {
	f, format, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	rows, err := h.service.Quarterly(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "quarterly", rows, exporter.QuarterlyTable(rows, viewCols(f)))
}

// GetSummary handles GET /api/v1/summary
func (h *AnalyticsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	f, format, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Summary(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "summary", summary, exporter.SummaryTable(summary))
}

// GetInsights handles GET /api/v1/insights
func (h *AnalyticsHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	f, format, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	insights, err := h.service.Insights(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "insights", insights,
		exporter.ManufacturerGrowthTable(insights),
		exporter.CategoryMixTable(insights))
}

// GetDashboard handles GET /api/v1/dashboard
func (h *AnalyticsHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	f, format, ok := h.parseQuery(w, r)
	if !ok {
		return
	}
	dash, err := h.service.Dashboard(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, format, "dashboard", dash, dashboardTables(dash)...)
}

// Analyze handles POST /api/v1/analyze. The multipart field "file" holds a
// CSV or XLSX registrations export; filter parameters may be given in the
// query string. The upload is analyzed and discarded.
func (h *AnalyticsHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	format, ok := h.format(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.WarnContext(r.Context(), "invalid upload",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrField("file", "a multipart field named file is required"))
		return
	}
	defer file.Close()

	if err := h.files.ValidateUpload(header.Filename, header.Size); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	var filter *domain.Filter
	if hasFilterParams(r) {
		f, ok := h.filterFrom(w, r, domain.Filter{View: domain.DimensionCategory})
		if !ok {
			return
		}
		filter = &f
	}

	start := time.Now()
	dash, err := h.service.Analyze(r.Context(), file, header.Filename, filter)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "upload analyzed",
		slog.String("request_id", reqID),
		slog.String("file", header.Filename),
		slog.Int64("size", header.Size),
		slog.Int("records", dash.Records),
		slog.Duration("duration", time.Since(start)))

	h.respond(w, r, format, "dashboard", dash, dashboardTables(dash)...)
}

// parseQuery builds the filter, starting from the dataset's default filter,
// and reads the output format
func (h *AnalyticsHandler) parseQuery(w http.ResponseWriter, r *http.Request) (domain.Filter, string, bool) {
	format, ok := h.format(w, r)
	if !ok {
		return domain.Filter{}, "", false
	}

	base, err := h.service.DefaultFilter(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return domain.Filter{}, "", false
	}

	f, ok := h.filterFrom(w, r, base)
	return f, format, ok
}

// filterFrom overrides base with the filter parameters present in the query
func (h *AnalyticsHandler) filterFrom(w http.ResponseWriter, r *http.Request, base domain.Filter) (domain.Filter, bool) {
	from, ok := h.query.ValidateInt(w, r, "from", 1900, 9999, base.YearFrom)
	if !ok {
		return domain.Filter{}, false
	}
	to, ok := h.query.ValidateInt(w, r, "to", 1900, 9999, base.YearTo)
	if !ok {
		return domain.Filter{}, false
	}
	view, ok := h.query.ValidateEnum(w, r, "view", []string{
		string(domain.DimensionCategory), string(domain.DimensionManufacturer),
	}, string(base.View))
	if !ok {
		return domain.Filter{}, false
	}
	if from != 0 && to != 0 && to < from {
		h.errorHandler.HandleError(w, r, apierrors.ErrField("to", "to must not be before from"))
		return domain.Filter{}, false
	}

	categories := dataprocessing.CanonicalCategories(h.query.Values(r, "category"))
	if categories == nil {
		categories = base.Categories
	}
	manufacturers := dataprocessing.CanonicalManufacturers(h.query.Values(r, "manufacturer"))
	if manufacturers == nil {
		manufacturers = base.Manufacturers
	}
	if r.URL.Query().Get("manufacturer") == "*" {
		manufacturers = nil
	}

	return domain.NewFilter(from, to, categories, manufacturers, domain.Dimension(view)), true
}

func (h *AnalyticsHandler) format(w http.ResponseWriter, r *http.Request) (string, bool) {
	return h.query.ValidateEnum(w, r, "format", []string{FormatJSON, FormatCSV, FormatXLSX}, FormatJSON)
}

// respond renders v as JSON or the tables as CSV or XLSX
func (h *AnalyticsHandler) respond(w http.ResponseWriter, r *http.Request, format, name string, v interface{}, tables ...exporter.Table) {
	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case FormatCSV:
		contentType = "text/csv; charset=utf-8"
		err = exporter.EncodeCSV(&buf, tables...)
	case FormatXLSX:
		contentType = xlsxContentType
		err = exporter.EncodeXLSX(&buf, tables...)
	default:
		render.JSON(w, r, v)
		return
	}
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func hasFilterParams(r *http.Request) bool {
	q := r.URL.Query()
	for _, p := range []string{"from", "to", "category", "manufacturer", "view"} {
		if q.Has(p) {
			return true
		}
	}
	return false
}

func viewCols(f domain.Filter) []domain.Dimension {
	return []domain.Dimension{f.View}
}

func dashboardTables(d services.Dashboard) []exporter.Table {
	cols := viewCols(d.Filter)
	return []exporter.Table{
		exporter.SummaryTable(d.Summary),
		exporter.GrowthTable(d.Trend, cols),
		exporter.QuarterlyTable(d.Quarterly, cols),
		exporter.ManufacturerGrowthTable(d.Insights),
		exporter.CategoryMixTable(d.Insights),
	}
}
