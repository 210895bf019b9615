package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// RegistrationHeader is the canonical header of a registrations export
const RegistrationHeader = "date,category,manufacturer,registrations"

// RegistrationRow is one line of a registrations fixture
type RegistrationRow struct {
	Date          time.Time
	Category      string
	Manufacturer  string
	Registrations int64
}

// RegistrationsCSV renders rows under the canonical header
func RegistrationsCSV(rows ...RegistrationRow) string {
	var b strings.Builder
	b.WriteString(RegistrationHeader)
	b.WriteByte('\n')
	for _, r := range rows {
		fmt.Fprintf(&b, "%s,%s,%s,%d\n", r.Date.Format("2006-01-02"), r.Category, r.Manufacturer, r.Registrations)
	}
	return b.String()
}

// MonthlyRows builds one row per month starting at start, taking the
// registrations from values
func MonthlyRows(start time.Time, category, manufacturer string, values ...int64) []RegistrationRow {
	rows := make([]RegistrationRow, len(values))
	for i, v := range values {
		rows[i] = RegistrationRow{
			Date:          time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC),
			Category:      category,
			Manufacturer:  manufacturer,
			Registrations: v,
		}
	}
	return rows
}

// WriteFile writes content into dir/name and returns the path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create fixture dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}
