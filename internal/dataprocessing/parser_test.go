package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"regpulse/internal/errors"
	"regpulse/pkg/contracts/domain"
)

func TestParser_ParseCSV(t *testing.T) {
	p := NewParser(nil)

	tests := []struct {
		name     string
		input    string
		wantCols []string
		wantRows int
		wantErr  bool
	}{
		{
			name:     "plain header",
			input:    "date,category,manufacturer,registrations\n2024-01-01,2W,Hero,10\n",
			wantCols: []string{"date", "category", "manufacturer", "registrations"},
			wantRows: 1,
		},
		{
			name:     "byte order mark stripped",
			input:    "\ufeffMonth,Type,OEM,Count\n2024-01,4W,Tata,5\n2024-02,4W,Tata,6\n",
			wantCols: []string{"Month", "Type", "OEM", "Count"},
			wantRows: 2,
		},
		{
			name:     "blank rows dropped",
			input:    "date,category,manufacturer,registrations\n2024-01-01,2W,Hero,10\n,,,\n2024-02-01,2W,Hero,12\n",
			wantCols: []string{"date", "category", "manufacturer", "registrations"},
			wantRows: 2,
		},
		{
			name:     "short rows kept",
			input:    "date,category,manufacturer,registrations\n2024-01-01,2W\n",
			wantCols: []string{"date", "category", "manufacturer", "registrations"},
			wantRows: 1,
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := p.ParseCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				var appErr *errors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, errors.ErrTypeParsing, appErr.Type)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantCols, table.Columns)
			assert.Len(t, table.Rows, tt.wantRows)
		})
	}
}

func TestTable_Cell(t *testing.T) {
	table := Table{
		Columns: []string{"a", "b"},
		Rows:    [][]string{{"1", "2"}, {"3"}},
	}

	assert.Equal(t, "2", table.Cell(0, 1))
	assert.Equal(t, "", table.Cell(1, 1))
	assert.Equal(t, "", table.Cell(5, 0))
	assert.Equal(t, "", table.Cell(0, -1))
}

func buildWorkbook(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParser_ParseXLSX(t *testing.T) {
	ctx := context.Background()
	p := NewParser(nil)

	t.Run("header below a title row with date cells", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"Vahan registrations export"},
			{"Date", "Vehicle_Class", "Make", "Qty"},
			{day(2024, 1, 15), "Two Wheeler", "Hero", 120},
			{day(2024, 2, 15), "Two Wheeler", "Hero", 130},
		})

		table, err := p.Parse(ctx, strings.NewReader(string(data)), "export.xlsx")
		require.NoError(t, err)
		assert.Equal(t, []string{"Date", "Vehicle_Class", "Make", "Qty"}, table.Columns)
		require.Len(t, table.Rows, 2)

		dataset, err := NewNormalizer(nil).Normalize(ctx, table)
		require.NoError(t, err)
		require.Len(t, dataset, 2)
		assert.Equal(t, day(2024, 1, 15), dataset[0].Date)
		assert.Equal(t, "2W", dataset[0].Category)
		assert.Equal(t, int64(130), dataset[1].Registrations)
	})

	t.Run("no recognizable header reports missing columns", func(t *testing.T) {
		data := buildWorkbook(t, [][]interface{}{
			{"when", "what"},
			{"2024-01-01", "x"},
		})

		table, err := p.Parse(ctx, strings.NewReader(string(data)), "export.xlsx")
		require.NoError(t, err)

		_, err = NewNormalizer(nil).Normalize(ctx, table)
		var schemaErr *errors.SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Equal(t, []string{"when", "what"}, schemaErr.Found)
	})

	t.Run("corrupt workbook", func(t *testing.T) {
		_, err := p.Parse(ctx, strings.NewReader("not a zip"), "broken.xlsx")
		var appErr *errors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, errors.ErrTypeParsing, appErr.Type)
	})
}

func TestParser_ParseFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "registrations.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,category,manufacturer,registrations\n2024-01-01,2W,Hero,10\n"), 0o644))

	table, err := NewParser(nil).ParseFile(ctx, path)
	require.NoError(t, err)
	assert.Len(t, table.Rows, 1)

	_, err = NewParser(nil).ParseFile(ctx, filepath.Join(dir, "missing.csv"))
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrTypeStorage, appErr.Type)
}

func TestTable_WriteCSV(t *testing.T) {
	dataset := domain.Dataset{rec(day(2024, 3, 1), "4W", "Tata, Motors", 7)}

	out := string(TableFromDataset(dataset).Bytes())

	assert.Equal(t, "date,category,manufacturer,registrations\n2024-03-01,4W,\"Tata, Motors\",7\n", out)
}
