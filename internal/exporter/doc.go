// Package exporter renders analytics results as tables and writes them as
// CSV or XLSX.
//
// Tables are built from domain rows (GrowthTable, QuarterlyTable,
// AggregateTable, DatasetTable, SummaryTable and the insights tables).
// Absent growth percentages become empty cells, so they stay distinguishable
// from a computed 0%.
//
// Example usage:
//
//	w := exporter.NewWriter(paths, logger)
//	table := exporter.GrowthTable(rows, []domain.Dimension{domain.DimensionCategory})
//	path, err := w.WriteTable("trend.csv", table)
//
//	// Or encode straight to a response or stdout
//	err = exporter.EncodeCSV(os.Stdout, table)
//	err = exporter.EncodeXLSX(buf, table, exporter.SummaryTable(summary))
package exporter
