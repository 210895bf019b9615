package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regpulse/internal/config"
	apierrors "regpulse/internal/errors"
	mw "regpulse/internal/middleware"
	"regpulse/internal/services"
	"regpulse/internal/shared/testutil"
	"regpulse/pkg/contracts/domain"
)

func jan(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func registrationsCSV() string {
	rows := append(
		testutil.MonthlyRows(jan(2023), "2W", "Hero", 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 150),
		testutil.MonthlyRows(jan(2023), "4W", "Tata", 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50, 50)...,
	)
	return testutil.RegistrationsCSV(rows...)
}

func newTestRouter(t *testing.T, loaded bool) (http.Handler, *services.AnalyticsService) {
	t.Helper()

	logger, _ := testutil.NewTestLogger(t)
	svc, err := services.NewAnalyticsService(config.Default().Analysis, nil, logger)
	require.NoError(t, err)
	if loaded {
		path := testutil.WriteFile(t, t.TempDir(), "registrations.csv", registrationsCSV())
		require.NoError(t, svc.LoadFiles(context.Background(), path))
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	h := NewAnalyticsHandler(svc, 1<<20, logger, errorHandler)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Mount("/api/v1", h.Routes())
	return r, svc
}

func get(t *testing.T, router http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestAnalyticsHandler_GetDimensions(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := get(t, router, "/api/v1/dimensions")
	require.Equal(t, http.StatusOK, rec.Code)

	opts := decode[domain.DimensionOptions](t, rec)
	assert.Equal(t, []int{2023, 2024}, opts.Years)
	assert.Equal(t, []string{"2W", "4W"}, opts.Categories)
	assert.Equal(t, []string{"Hero", "Tata"}, opts.Manufacturers)
}

func TestAnalyticsHandler_GetDefaultFilter(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := get(t, router, "/api/v1/filter")
	require.Equal(t, http.StatusOK, rec.Code)

	f := decode[domain.Filter](t, rec)
	assert.Equal(t, 2023, f.YearFrom)
	assert.Equal(t, domain.DimensionCategory, f.View)
}

func TestAnalyticsHandler_GetTrend(t *testing.T) {
	router, _ := newTestRouter(t, true)

	tests := []struct {
		name     string
		query    string
		wantRows int
	}{
		{"defaults", "", 26},
		{"one category", "?category=2W", 13},
		{"two categories", "?category=2W&category=4W", 26},
		{"lower-case category", "?category=2w", 13},
		{"long-form category", "?category=Two+Wheeler", 13},
		{"padded manufacturer", "?view=manufacturer&manufacturer=+Tata+", 13},
		{"by manufacturer", "?view=manufacturer&manufacturer=Tata", 13},
		{"all manufacturers", "?manufacturer=*", 26},
		{"year range", "?from=2024&to=2024", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, "/api/v1/trend"+tt.query)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rows := decode[[]map[string]any](t, rec)
			assert.Len(t, rows, tt.wantRows)
		})
	}

	t.Run("absent growth is null", func(t *testing.T) {
		rec := get(t, router, "/api/v1/trend?category=2W")
		rows := decode[[]map[string]any](t, rec)
		require.Len(t, rows, 13)
		assert.Nil(t, rows[0]["yoy_pct"])
		assert.Equal(t, 50.0, rows[12]["yoy_pct"])
	})
}

func TestAnalyticsHandler_CSVAndXLSX(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := get(t, router, "/api/v1/trend?category=2W&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "trend.csv")

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 14)
	assert.Equal(t, []string{"date", "category", "registrations", "yoy_pct", "qoq_pct", "quarter"}, records[0])
	assert.Equal(t, []string{"2024-01-01", "2W", "150", "50", "-50", "2024Q1"}, records[13])

	rec = get(t, router, "/api/v1/dashboard?format=xlsx")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"summary", "trend", "quarterly", "top_manufacturers", "category_mix"}, f.GetSheetList())
}

func TestAnalyticsHandler_SummaryInsightsQuarterly(t *testing.T) {
	router, _ := newTestRouter(t, true)

	rec := get(t, router, "/api/v1/summary?category=2W")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[domain.Summary](t, rec)
	assert.Equal(t, int64(1350), summary.TotalRegistrations)
	assert.Equal(t, domain.PercentOf(50), summary.LatestYoYPct)

	rec = get(t, router, "/api/v1/insights")
	require.Equal(t, http.StatusOK, rec.Code)
	insights := decode[domain.Insights](t, rec)
	require.NotEmpty(t, insights.TopManufacturers)
	assert.Equal(t, "Hero", insights.TopManufacturers[0].Manufacturer)

	rec = get(t, router, "/api/v1/quarterly?view=manufacturer")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.QuarterGrowthRow](t, rec), 10)

	rec = get(t, router, "/api/v1/aggregate?freq=Y")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.AggregateRow](t, rec), 4)
}

func TestAnalyticsHandler_Errors(t *testing.T) {
	router, _ := newTestRouter(t, true)

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"bad year", "/api/v1/trend?from=abc", http.StatusBadRequest},
		{"reversed range", "/api/v1/trend?from=2024&to=2023", http.StatusBadRequest},
		{"bad view", "/api/v1/trend?view=colour", http.StatusBadRequest},
		{"bad format", "/api/v1/summary?format=xml", http.StatusBadRequest},
		{"bad frequency", "/api/v1/aggregate?freq=W", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)

			problem := decode[map[string]any](t, rec)
			assert.NotEmpty(t, problem["trace_id"])
			assert.Equal(t, float64(tt.wantStatus), problem["status"])
		})
	}

	t.Run("dataset not loaded", func(t *testing.T) {
		empty, _ := newTestRouter(t, false)
		rec := get(t, empty, "/api/v1/trend")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")
	})
}

func multipartBody(t *testing.T, field, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	part, err := mpw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mpw.Close())
	return &body, mpw.FormDataContentType()
}

func TestAnalyticsHandler_Analyze(t *testing.T) {
	router, svc := newTestRouter(t, false)

	post := func(target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("dashboard of upload", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "upload.csv", registrationsCSV())
		rec := post("/api/v1/analyze", body, ct)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		dash := decode[services.Dashboard](t, rec)
		assert.Equal(t, "upload.csv", dash.Source)
		assert.Equal(t, 26, dash.Records)
		assert.Len(t, dash.Trend, 26)
		assert.False(t, svc.Status().Loaded)
	})

	t.Run("filter from query", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "upload.csv", registrationsCSV())
		rec := post("/api/v1/analyze?category=4W", body, ct)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 13, decode[services.Dashboard](t, rec).Records)
	})

	t.Run("missing columns", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "upload.csv", "date,category\n2024-01-01,2W\n")
		rec := post("/api/v1/analyze", body, ct)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		problem := decode[map[string]any](t, rec)
		assert.Equal(t, apierrors.TypeSchema, problem["type"])
	})

	t.Run("invalid date", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "upload.csv", testutil.RegistrationHeader+"\nnot-a-date,2W,Hero,1\n")
		rec := post("/api/v1/analyze", body, ct)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unsupported file type", func(t *testing.T) {
		body, ct := multipartBody(t, "file", "upload.json", "{}")
		rec := post("/api/v1/analyze", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong field", func(t *testing.T) {
		body, ct := multipartBody(t, "data", "upload.csv", registrationsCSV())
		rec := post("/api/v1/analyze", body, ct)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("not multipart", func(t *testing.T) {
		rec := post("/api/v1/analyze", bytes.NewBufferString("{}"), "application/json")
		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		big := strings.Repeat("x", 3<<20)
		body, ct := multipartBody(t, "file", "upload.csv", big)
		rec := post("/api/v1/analyze", body, ct)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
