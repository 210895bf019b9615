package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/xuri/excelize/v2"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

// columnSynonyms maps lower-cased, trimmed input headers to canonical columns
var columnSynonyms = map[string]string{
	"date":  domain.ColumnDate,
	"month": domain.ColumnDate,
	"dt":    domain.ColumnDate,

	"category":         domain.ColumnCategory,
	"vehicle_category": domain.ColumnCategory,
	"vehicle_class":    domain.ColumnCategory,
	"type":             domain.ColumnCategory,
	"veh_type":         domain.ColumnCategory,

	"manufacturer": domain.ColumnManufacturer,
	"oem":          domain.ColumnManufacturer,
	"make":         domain.ColumnManufacturer,

	"registrations": domain.ColumnRegistrations,
	"count":         domain.ColumnRegistrations,
	"total":         domain.ColumnRegistrations,
	"value":         domain.ColumnRegistrations,
	"qty":           domain.ColumnRegistrations,
	"number":        domain.ColumnRegistrations,
}

// categoryCodes collapses known long-form labels to short codes
var categoryCodes = map[string]string{
	"FOUR WHEELER":  "4W",
	"TWO WHEELER":   "2W",
	"THREE WHEELER": "3W",
}

// excelSerial matches spreadsheet date serials (1973 onwards), optionally with a time fraction
var excelSerial = regexp.MustCompile(`^\d{5}(\.\d+)?$`)

// MapColumns resolves canonical columns to their index in columns. Matching
// is case-insensitive and ignores surrounding whitespace; when two columns
// map to the same canonical field the first one wins.
func MapColumns(columns []string) (map[string]int, error) {
	mapping := make(map[string]int, len(domain.CanonicalColumns))
	for i, col := range columns {
		canonical, ok := columnSynonyms[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			continue
		}
		if _, seen := mapping[canonical]; !seen {
			mapping[canonical] = i
		}
	}

	var missing []string
	for _, col := range domain.CanonicalColumns {
		if _, ok := mapping[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		found := make([]string, len(columns))
		for i, col := range columns {
			found[i] = strings.TrimSpace(col)
		}
		return nil, &errors.SchemaError{Missing: missing, Found: found}
	}
	return mapping, nil
}

// namedMonthLayouts are tried before the general parser, which misreads
// some of them. Month-only labels read as the first of the month.
var namedMonthLayouts = []string{
	"2-Jan-2006",
	"Jan 2006",
	"Jan-2006",
	"January 2006",
	"January-2006",
	"2006-Jan",
	"2006 Jan",
	"2006-January",
	"Jan-06",
	"Jan 06",
}

// monthName finds an English month name or abbreviation in a date string
var monthName = regexp.MustCompile(`(?i)\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b`)

var monthAbbrev = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}

// ParseDate parses a date permissively: ISO dates, year-month, slashed and
// named-month forms, month labels such as "Mar-2024", RFC 3339 timestamps
// and spreadsheet serial numbers. Ambiguous numeric forms are read month
// first. The result is the calendar date as written, at midnight UTC; the
// time of day and any UTC offset are dropped.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if excelSerial.MatchString(s) {
		serial, err := strconv.ParseFloat(s, 64)
		if err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err != nil {
				return time.Time{}, err
			}
			return calendarDate(t), nil
		}
	}

	for _, layout := range namedMonthLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendarDate(t), nil
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if m := monthName.FindStringSubmatch(s); m != nil {
		want := time.Month(slices.Index(monthAbbrev, strings.ToLower(m[1][:3])) + 1)
		if t.Month() != want {
			return time.Time{}, fmt.Errorf("date %q: month %q read as %s", s, m[1], t.Month())
		}
	}
	return calendarDate(t), nil
}

// calendarDate keeps the wall-clock year, month and day of t
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NormalizeCategory trims and upper-cases a category and collapses the
// long-form wheeler labels to 2W/3W/4W. Other labels pass through.
func NormalizeCategory(raw string) string {
	c := strings.ToUpper(strings.TrimSpace(raw))
	if code, ok := categoryCodes[c]; ok {
		return code
	}
	return c
}

// CanonicalCategories maps filter values onto the category codes the
// normalizer stores, so "two wheeler" and "2w" both select 2W.
func CanonicalCategories(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = NormalizeCategory(v)
	}
	return out
}

// CanonicalManufacturers trims filter values the way manufacturer cells are
// trimmed on load.
func CanonicalManufacturers(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.TrimSpace(v)
	}
	return out
}

// ParseRegistrations coerces a cell to a non-negative count. Values that are
// not numeric become 0, decimals are truncated and negatives clamp to 0.
func ParseRegistrations(raw string) int64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return clampCount(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64
	}
	return clampCount(int64(math.Trunc(f)))
}

func clampCount(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// Normalizer turns arbitrary registration tables into the canonical dataset
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger.With(slog.String("component", "normalizer"))}
}

// Normalize maps the table's columns, validates every date and returns the
// records sorted ascending by date. Any unparseable date fails the whole
// table with a ValidationError listing the offending rows. The table is not
// modified.
func (n *Normalizer) Normalize(ctx context.Context, t Table) (domain.Dataset, error) {
	mapping, err := MapColumns(t.Columns)
	if err != nil {
		n.logger.WarnContext(ctx, "schema mismatch", slog.String("error", err.Error()))
		return nil, err
	}

	dateIdx := mapping[domain.ColumnDate]
	catIdx := mapping[domain.ColumnCategory]
	mfgIdx := mapping[domain.ColumnManufacturer]
	valIdx := mapping[domain.ColumnRegistrations]

	invalid := errors.NewDatasetValidationError(domain.ColumnDate)
	coerced := 0
	records := make(domain.Dataset, 0, len(t.Rows))

	for i := range t.Rows {
		rawDate := t.Cell(i, dateIdx)
		date, err := ParseDate(rawDate)
		if err != nil {
			invalid.Add(i+1, rawDate)
			continue
		}

		rawValue := t.Cell(i, valIdx)
		value := ParseRegistrations(rawValue)
		if value == 0 && strings.TrimSpace(rawValue) != "0" {
			coerced++
		}

		records = append(records, domain.Record{
			Date:          date,
			Category:      NormalizeCategory(t.Cell(i, catIdx)),
			Manufacturer:  strings.TrimSpace(t.Cell(i, mfgIdx)),
			Registrations: value,
		})
	}

	if invalid.HasErrors() {
		n.logger.WarnContext(ctx, "dataset rejected",
			slog.Int("invalid_dates", invalid.Count),
			slog.Int("rows", len(t.Rows)))
		return nil, invalid
	}

	sortByDate(records)

	n.logger.DebugContext(ctx, "normalized dataset",
		slog.Int("records", len(records)),
		slog.Int("coerced_to_zero", coerced))
	return records, nil
}

// NormalizeRecords re-canonicalizes typed records. It is a fixed point on
// already normalized input. A record without a date invalidates the set.
func (n *Normalizer) NormalizeRecords(ctx context.Context, in []domain.Record) (domain.Dataset, error) {
	invalid := errors.NewDatasetValidationError(domain.ColumnDate)
	out := make(domain.Dataset, 0, len(in))

	for i, r := range in {
		if r.Date.IsZero() {
			invalid.Add(i+1, "")
			continue
		}
		out = append(out, domain.Record{
			Date:          calendarDate(r.Date),
			Category:      NormalizeCategory(r.Category),
			Manufacturer:  strings.TrimSpace(r.Manufacturer),
			Registrations: clampCount(r.Registrations),
		})
	}
	if invalid.HasErrors() {
		return nil, invalid
	}

	sortByDate(out)
	return out, nil
}

// TableFromDataset renders a dataset back to a canonical table
func TableFromDataset(d domain.Dataset) Table {
	rows := make([][]string, len(d))
	for i, r := range d {
		rows[i] = []string{
			r.Date.Format(time.DateOnly),
			r.Category,
			r.Manufacturer,
			strconv.FormatInt(r.Registrations, 10),
		}
	}
	columns := make([]string, len(domain.CanonicalColumns))
	copy(columns, domain.CanonicalColumns)
	return Table{Columns: columns, Rows: rows}
}

// sortByDate orders records ascending by date, keeping input order for ties
func sortByDate(records domain.Dataset) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
}
