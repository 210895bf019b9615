package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regpulse/internal/errors"
	"regpulse/internal/shared/testutil"
)

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"registrations.csv", true},
		{"REGISTRATIONS.CSV", true},
		{"dir/2024.xlsx", true},
		{"~$2024.xlsx", false},
		{"legacy.xls", false},
		{"notes.txt", false},
		{"noext", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupported(tt.name))
		})
	}
}

func TestFileValidator_ValidateUpload(t *testing.T) {
	v := NewFileValidator(10, nil)

	tests := []struct {
		name    string
		file    string
		size    int64
		wantErr string
	}{
		{"ok", "a.csv", 5, ""},
		{"at limit", "a.xlsx", 10, ""},
		{"too large", "a.csv", 11, "limit is 10"},
		{"empty", "a.csv", 0, "empty"},
		{"wrong type", "a.json", 5, "unsupported file type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpload(tt.file, tt.size)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, errors.ErrTypeValidation, appErr.Type)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.NoError(t, NewFileValidator(0, nil).ValidateUpload("big.csv", 1<<40))
}

func TestFileValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	good := testutil.WriteFile(t, dir, "good.csv", testutil.RegistrationHeader+"\n")
	empty := testutil.WriteFile(t, dir, "empty.csv", "")
	text := testutil.WriteFile(t, dir, "notes.txt", "hello")

	tests := []struct {
		name     string
		path     string
		wantType errors.ErrorType
	}{
		{"valid", good, ""},
		{"missing", filepath.Join(dir, "nope.csv"), errors.ErrTypeNotFound},
		{"directory", dir, errors.ErrTypeValidation},
		{"empty", empty, errors.ErrTypeValidation},
		{"unsupported", text, errors.ErrTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(0, logger).ValidateFile(tt.path)
			if tt.wantType == "" {
				assert.NoError(t, err)
				return
			}
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantType, appErr.Type)
		})
	}
}

func TestFileValidator_ExpandInputs(t *testing.T) {
	dir := t.TempDir()
	b := testutil.WriteFile(t, dir, "b.csv", "x")
	a := testutil.WriteFile(t, dir, "a.xlsx", "x")
	testutil.WriteFile(t, dir, "readme.md", "x")
	testutil.WriteFile(t, dir, "~$a.xlsx", "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	other := testutil.WriteFile(t, t.TempDir(), "other.csv", "x")

	logger, handler := testutil.NewTestLogger(t)
	v := NewFileValidator(0, logger)

	got, err := v.ExpandInputs([]string{other, dir})
	require.NoError(t, err)
	assert.Equal(t, []string{other, a, b}, got)
	assert.True(t, handler.ContainsMessage("input directory expanded"))

	_, err = v.ExpandInputs([]string{t.TempDir()})
	assert.Error(t, err)

	_, err = v.ExpandInputs([]string{filepath.Join(dir, "missing.csv")})
	assert.Error(t, err)
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(0, nil)

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, v.ValidateOutputDirectory(dir))
	assert.DirExists(t, dir)
	assert.NoFileExists(t, filepath.Join(dir, ".write_test"))

	blocker := testutil.WriteFile(t, t.TempDir(), "file", "x")
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(blocker, "out")))
}
