package dataprocessing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"regpulse/internal/errors"
)

// headerScanRows is how many leading spreadsheet rows are searched for a header
const headerScanRows = 10

// utf8BOM is stripped from the first header cell of CSV input
const utf8BOM = "\ufeff"

// Table is a header-driven tabular record set with arbitrary column naming
type Table struct {
	Columns []string
	Rows    [][]string
}

// Cell returns the value at row i, column j, or "" for short rows
func (t Table) Cell(i, j int) string {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return ""
	}
	return t.Rows[i][j]
}

// Parser reads registration exports (CSV or XLSX) into a Table
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "parser"))}
}

// ParseFile reads a CSV or XLSX file, chosen by extension
func (p *Parser) ParseFile(ctx context.Context, filePath string) (Table, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return Table{}, errors.NewStorageError("failed to open file", err).WithContext("path", filePath)
	}
	defer f.Close()

	return p.Parse(ctx, f, filepath.Base(filePath))
}

// Parse reads src, using name's extension to pick the format. Anything
// that is not .xlsx or .xlsm is treated as delimited text.
func (p *Parser) Parse(ctx context.Context, src io.Reader, name string) (Table, error) {
	ext := strings.ToLower(filepath.Ext(name))

	var (
		table Table
		err   error
	)
	switch ext {
	case ".xlsx", ".xlsm":
		table, err = p.ParseXLSX(src)
	default:
		table, err = p.ParseCSV(src)
	}
	if err != nil {
		return Table{}, err
	}

	p.logger.DebugContext(ctx, "parsed input",
		slog.String("name", name),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))
	return table, nil
}

// ParseCSV reads comma separated text with a header row
func (p *Parser) ParseCSV(src io.Reader) (Table, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return Table{}, errors.NewParsingError("failed to read CSV", err)
	}
	if len(records) == 0 {
		return Table{}, errors.NewParsingError("file is empty", nil)
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	return Table{Columns: header, Rows: dropBlankRows(records[1:])}, nil
}

// ParseXLSX reads the first sheet that carries a recognizable header row.
// Cells are read raw so date cells arrive as Excel serial numbers.
func (p *Parser) ParseXLSX(src io.Reader) (Table, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return Table{}, errors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	var fallback *Table
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			p.logger.Warn("skipping unreadable sheet", slog.String("sheet", name), slog.String("error", err.Error()))
			continue
		}

		for i := 0; i < len(rows) && i < headerScanRows; i++ {
			if isBlank(rows[i]) {
				continue
			}
			candidate := Table{Columns: rows[i], Rows: dropBlankRows(rows[i+1:])}
			if _, err := MapColumns(rows[i]); err == nil {
				p.logger.Debug("found header row", slog.String("sheet", name), slog.Int("row", i+1))
				return candidate, nil
			}
			if fallback == nil {
				fallback = &candidate
			}
		}
	}

	if fallback == nil {
		return Table{}, errors.NewParsingError("workbook has no data", nil)
	}
	// Let the normalizer report which columns are missing
	return *fallback, nil
}

// WriteCSV renders a table as CSV text
func (t Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// Bytes renders the table as CSV, mainly for tests and uploads
func (t Table) Bytes() []byte {
	var buf bytes.Buffer
	_ = t.WriteCSV(&buf)
	return buf.Bytes()
}

func dropBlankRows(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
