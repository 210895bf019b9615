package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/pkg/contracts/domain"
)

func TestWriteJSON(t *testing.T) {
	writer, tempDir := setupTestEnv(t)

	summary := domain.Summary{TotalRegistrations: 42, LatestYoYPct: domain.PercentOf(12.5)}
	path, err := writer.WriteJSON("reports/summary.json", summary)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "exports", "reports", "summary.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 42.0, decoded["total_registrations"])
	assert.Equal(t, 12.5, decoded["latest_yoy_pct"])
	assert.Nil(t, decoded["latest_qoq_pct"])
}
