package exporter

import (
	"strconv"

	"regpulse/pkg/contracts/domain"
)

// Table is a rendered result: a header and string cells, ready for CSV or
// a worksheet
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

func groupHeaders(groupCols []domain.Dimension) []string {
	out := make([]string, len(groupCols))
	for i, d := range groupCols {
		out[i] = string(d)
	}
	return out
}

func groupCells(key domain.GroupKey, groupCols []domain.Dimension) []string {
	out := make([]string, len(groupCols))
	for i, d := range groupCols {
		out[i] = key.Get(d)
	}
	return out
}

// DatasetTable renders normalized records under the canonical header
func DatasetTable(d domain.Dataset) Table {
	t := Table{
		Name:    "dataset",
		Headers: DatasetHeaders,
		Rows:    make([][]string, len(d)),
	}
	for i, r := range d {
		t.Rows[i] = DatasetRow(r)
	}
	return t
}

// DatasetHeaders is the canonical column order of a normalized dataset
var DatasetHeaders = []string{"date", "category", "manufacturer", "registrations"}

// DatasetRow renders one record in DatasetHeaders order
func DatasetRow(r domain.Record) []string {
	return []string{formatDate(r.Date), r.Category, r.Manufacturer, formatInt(r.Registrations)}
}

// AggregateTable renders aggregated cells
func AggregateTable(rows []domain.AggregateRow, groupCols []domain.Dimension) Table {
	t := Table{
		Name:    "aggregate",
		Headers: append(append([]string{"period", "bucket"}, groupHeaders(groupCols)...), "value", "count"),
		Rows:    make([][]string, len(rows)),
	}
	for i, r := range rows {
		row := append([]string{r.Period, formatDate(r.Bucket)}, groupCells(r.Group, groupCols)...)
		t.Rows[i] = append(row, formatFloat(r.Value), strconv.Itoa(r.Count))
	}
	return t
}

// GrowthTable renders monthly growth rows. Absent growth values are empty
// cells.
func GrowthTable(rows []domain.GrowthRow, groupCols []domain.Dimension) Table {
	t := Table{
		Name:    "trend",
		Headers: append(append([]string{"date"}, groupHeaders(groupCols)...), "registrations", "yoy_pct", "qoq_pct", "quarter"),
		Rows:    make([][]string, len(rows)),
	}
	for i, r := range rows {
		row := append([]string{formatDate(r.Date)}, groupCells(r.Group, groupCols)...)
		t.Rows[i] = append(row, formatFloat(r.Registrations), formatPercent(r.YoYPct), formatPercent(r.QoQPct), r.Quarter)
	}
	return t
}

// QuarterlyTable renders quarterly totals with their quarter-end date
func QuarterlyTable(rows []domain.QuarterGrowthRow, groupCols []domain.Dimension) Table {
	t := Table{
		Name:    "quarterly",
		Headers: append(append([]string{"quarter", "date"}, groupHeaders(groupCols)...), "registrations", "qoq_pct"),
		Rows:    make([][]string, len(rows)),
	}
	for i, r := range rows {
		row := append([]string{r.Quarter, formatDate(r.Date)}, groupCells(r.Group, groupCols)...)
		t.Rows[i] = append(row, formatFloat(r.Registrations), formatPercent(r.QoQPct))
	}
	return t
}

// SummaryTable renders the headline figures as metric/value pairs
func SummaryTable(s domain.Summary) Table {
	return Table{
		Name:    "summary",
		Headers: []string{"metric", "value"},
		Rows: [][]string{
			{"total_registrations", formatInt(s.TotalRegistrations)},
			{"latest_month", formatDate(s.LatestMonth)},
			{"months_covered", strconv.Itoa(s.MonthsCovered)},
			{"latest_yoy_pct", formatPercent(s.LatestYoYPct)},
			{"latest_qoq_pct", formatPercent(s.LatestQoQPct)},
		},
	}
}

// ManufacturerGrowthTable renders the top manufacturers of an insights result
func ManufacturerGrowthTable(in domain.Insights) Table {
	t := Table{
		Name:    "top_manufacturers",
		Headers: []string{"manufacturer", "current", "previous", "growth_pct"},
		Rows:    make([][]string, len(in.TopManufacturers)),
	}
	for i, m := range in.TopManufacturers {
		t.Rows[i] = []string{m.Manufacturer, formatInt(m.Current), formatInt(m.Previous), formatFloat(m.GrowthPct)}
	}
	return t
}

// CategoryMixTable renders the category share shift of an insights result
func CategoryMixTable(in domain.Insights) Table {
	t := Table{
		Name:    "category_mix",
		Headers: []string{"category", "current_share", "previous_share", "shift_pp"},
		Rows:    make([][]string, len(in.CategoryMix)),
	}
	for i, m := range in.CategoryMix {
		t.Rows[i] = []string{m.Category, formatFloat(m.CurrentShare), formatFloat(m.PreviousShare), formatFloat(m.ShiftPP)}
	}
	return t
}

// DimensionsTable lists the selectable values, one dimension per row
func DimensionsTable(opts domain.DimensionOptions) Table {
	t := Table{Name: "dimensions", Headers: []string{"dimension", "value"}}
	for _, y := range opts.Years {
		t.Rows = append(t.Rows, []string{"year", strconv.Itoa(y)})
	}
	for _, c := range opts.Categories {
		t.Rows = append(t.Rows, []string{string(domain.DimensionCategory), c})
	}
	for _, m := range opts.Manufacturers {
		t.Rows = append(t.Rows, []string{string(domain.DimensionManufacturer), m})
	}
	return t
}
