package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"regpulse/internal/errors"
)

// SupportedExtensions are the registration file formats the parser reads
var SupportedExtensions = []string{".csv", ".xlsx"}

// FileValidator checks registration input files before they reach the parser
type FileValidator struct {
	maxSize int64
	logger  *slog.Logger
}

// NewFileValidator creates a new file validator. maxSize <= 0 disables the
// size limit.
func NewFileValidator(maxSize int64, logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		maxSize: maxSize,
		logger:  logger.With(slog.String("component", "file_validator")),
	}
}

// IsSupported reports whether name has a readable extension and is not an
// Excel lock file
func IsSupported(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, s := range SupportedExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ValidateUpload checks an uploaded file's name and size
func (v *FileValidator) ValidateUpload(name string, size int64) error {
	if !IsSupported(name) {
		v.logger.Warn("unsupported upload",
			slog.String("file", name))
		return errors.NewAppValidationError(fmt.Sprintf(
			"unsupported file type %q, expected one of %s",
			filepath.Ext(name), strings.Join(SupportedExtensions, ", ")))
	}
	if size == 0 {
		return errors.NewAppValidationError("uploaded file is empty")
	}
	if v.maxSize > 0 && size > v.maxSize {
		return errors.NewAppValidationError(fmt.Sprintf(
			"file is %d bytes, the limit is %d", size, v.maxSize))
	}
	return nil
}

// ValidateFile checks that path is a readable, supported, non-empty file
// within the size limit
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("file does not exist",
			slog.String("file", path))
		return errors.NewNotFoundError("file " + path)
	}
	if err != nil {
		return errors.NewStorageError("failed to stat "+path, err)
	}
	if info.IsDir() {
		return errors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}
	if err := v.ValidateUpload(path, info.Size()); err != nil {
		return err
	}

	// Check if file is readable by opening it
	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("file is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewStorageError("file "+path+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ExpandInputs validates each path and replaces directories by the
// supported files they contain, sorted by name
func (v *FileValidator) ExpandInputs(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			files, err := v.filesIn(path)
			if err != nil {
				return nil, err
			}
			out = append(out, files...)
			continue
		}
		if err := v.ValidateFile(path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	if len(out) == 0 {
		return nil, errors.NewAppValidationError("no registration files found")
	}
	return out, nil
}

func (v *FileValidator) filesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewStorageError("failed to read directory "+dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSupported(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := v.ValidateFile(path); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	sort.Strings(files)

	v.logger.Info("input directory expanded",
		slog.String("directory", dir),
		slog.Int("files_found", len(files)))
	return files, nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to create output directory "+dir, err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		return errors.NewStorageError("output directory "+dir+" is not writable", err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}
