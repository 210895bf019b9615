package exporter

import (
	"io"
	"log/slog"
	"strconv"

	"github.com/xuri/excelize/v2"

	"regpulse/internal/errors"
)

// EncodeXLSX writes each table to its own worksheet. Numeric cells are
// stored as numbers so spreadsheets can chart them.
func EncodeXLSX(w io.Writer, tables ...Table) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	for i, t := range tables {
		name := sheetName(t, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		if err := f.SetSheetRow(name, "A1", &t.Headers); err != nil {
			return err
		}
		if len(t.Headers) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
			if err := f.SetCellStyle(name, "A1", last, header); err != nil {
				return err
			}
		}

		for r, row := range t.Rows {
			cells := make([]interface{}, len(row))
			for c, v := range row {
				cells[c] = cellValue(v)
			}
			cell, _ := excelize.CoordinatesToCellName(1, r+2)
			if err := f.SetSheetRow(name, cell, &cells); err != nil {
				return err
			}
		}
	}

	_, err = f.WriteTo(w)
	return err
}

// WriteWorkbook writes tables to an XLSX file and returns the resolved path
func (w *Writer) WriteWorkbook(filePath string, tables ...Table) (string, error) {
	fullPath := w.resolvePath(filePath)
	w.logger.Info("writing workbook",
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(tables)))

	file, err := create(fullPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if err := EncodeXLSX(file, tables...); err != nil {
		return "", errors.NewStorageError("failed to write "+fullPath, err)
	}
	return fullPath, file.Close()
}

func sheetName(t Table, i int) string {
	name := t.Name
	if name == "" {
		name = "Sheet" + strconv.Itoa(i+1)
	}
	// Excel caps sheet names at 31 characters
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

// cellValue keeps numbers numeric and everything else, including empty
// absent values, as text
func cellValue(v string) interface{} {
	if v == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}
