package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/shared/testutil"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	original, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(original) })
}

func TestGetPaths(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	paths, err := GetPaths()
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.ExecutableDir), "ExecutableDir should be absolute")
	assert.Equal(t, wd, paths.WorkingDir)
	assert.Equal(t, filepath.Join(wd, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.DataDir, "exports"), paths.ExportsDir)
	assert.Equal(t, filepath.Join(wd, "logs"), paths.LogsDir)
}

func TestEnsureDirectories(t *testing.T) {
	chdir(t, t.TempDir())

	paths, err := GetPaths()
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.ExportsDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestResolveFile(t *testing.T) {
	work := t.TempDir()
	exe := t.TempDir()
	testutil.WriteFile(t, work, "data/local.csv", "x")
	testutil.WriteFile(t, exe, "data/bundled.csv", "x")

	paths := &Paths{WorkingDir: work, ExecutableDir: exe}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"working directory wins", "data/local.csv", filepath.Join(work, "data/local.csv")},
		{"falls back to executable dir", "data/bundled.csv", filepath.Join(exe, "data/bundled.csv")},
		{"missing resolves under working dir", "data/none.csv", filepath.Join(work, "data/none.csv")},
		{"absolute untouched", filepath.Join(exe, "x.csv"), filepath.Join(exe, "x.csv")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, paths.ResolveFile(tt.in))
		})
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := testutil.WriteFile(t, dir, "a.csv", "x")

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir), "directories are not files")
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
}

func TestLogPathResolution(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	paths := &Paths{ExecutableDir: "/opt/regpulse", WorkingDir: "/srv", DataDir: "/srv/data"}

	paths.LogPathResolution(logger)

	records := handler.GetRecords()
	require.Len(t, records, 1)
	assert.Equal(t, "Path resolution summary", records[0].Message)
	assert.Contains(t, records[0].Attrs, "directories")
}
