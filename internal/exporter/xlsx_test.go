package exporter

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestEncodeXLSX(t *testing.T) {
	trend := Table{
		Name:    "trend",
		Headers: []string{"date", "category", "registrations", "yoy_pct"},
		Rows: [][]string{
			{"2023-01-01", "2W", "100", ""},
			{"2024-01-01", "2W", "150", "50"},
		},
	}
	summary := Table{Name: "summary", Headers: []string{"metric", "value"}, Rows: [][]string{{"months_covered", "13"}}}

	var buf bytes.Buffer
	require.NoError(t, EncodeXLSX(&buf, trend, summary))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"trend", "summary"}, f.GetSheetList())

	rows, err := f.GetRows("trend")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, trend.Headers, rows[0])
	assert.Equal(t, []string{"2024-01-01", "2W", "150", "50"}, rows[2])

	typ, err := f.GetCellType("trend", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)

	value, err := f.GetCellValue("trend", "D2")
	require.NoError(t, err)
	assert.Empty(t, value, "absent growth stays empty")

	rows, err = f.GetRows("summary")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"metric", "value"}, {"months_covered", "13"}}, rows)
}

func TestWriter_WriteWorkbook(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	path, err := writer.WriteWorkbook("dashboard.xlsx", Table{Headers: []string{"a"}, Rows: [][]string{{"x"}}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "exports", "dashboard.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestCellValue(t *testing.T) {
	assert.Nil(t, cellValue(""))
	assert.Equal(t, 12.5, cellValue("12.5"))
	assert.Equal(t, "2024Q1", cellValue("2024Q1"))
	assert.Equal(t, "2024-01-01", cellValue("2024-01-01"))
}
