package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"regpulse/internal/config"
	"regpulse/internal/errors"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Writer writes result tables to files. Relative paths land in the exports
// directory.
type Writer struct {
	paths  *config.Paths
	logger *slog.Logger
}

// NewWriter creates a new writer instance
func NewWriter(paths *config.Paths, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{paths: paths, logger: logger.With(slog.String("component", "exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file with the given options and returns
// the resolved path
func (w *Writer) WriteCSV(filePath string, options WriteOptions) (string, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", len(options.Records)))

	file, err := create(fullPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write(utf8BOM); err != nil {
			return "", errors.NewStorageError("failed to write BOM", err)
		}
	}
	if err := encode(file, options.Headers, options.Records); err != nil {
		return "", errors.NewStorageError("failed to write "+fullPath, err)
	}
	return fullPath, file.Close()
}

// WriteTable writes one table to a CSV file with a BOM
func (w *Writer) WriteTable(filePath string, t Table) (string, error) {
	return w.WriteCSV(filePath, WriteOptions{Headers: t.Headers, Records: t.Rows, BOMPrefix: true})
}

// StreamWriter provides streaming CSV writing for large datasets
type StreamWriter struct {
	path   string
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter creates a new streaming CSV writer
func (w *Writer) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)

	w.logger.Info("creating CSV stream writer",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	file, err := create(fullPath)
	if err != nil {
		return nil, err
	}

	// Write BOM for Excel compatibility
	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, errors.NewStorageError("failed to write BOM", err)
	}

	writer := csv.NewWriter(file)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			file.Close()
			return nil, errors.NewStorageError("failed to write headers", err)
		}
	}

	return &StreamWriter{path: fullPath, file: file, writer: writer}, nil
}

// Path is the resolved output path
func (s *StreamWriter) Path() string {
	return s.path
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// EncodeCSV writes tables to w without a BOM. Consecutive tables are
// separated by an empty line.
func EncodeCSV(w io.Writer, tables ...Table) error {
	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := encode(w, t.Headers, t.Rows); err != nil {
			return fmt.Errorf("encode %s: %w", t.Name, err)
		}
	}
	return nil
}

func encode(w io.Writer, headers []string, records [][]string) error {
	writer := csv.NewWriter(w)
	if len(headers) > 0 {
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func create(fullPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, errors.NewStorageError("failed to create directory", err)
	}
	file, err := os.Create(fullPath)
	if err != nil {
		return nil, errors.NewStorageError("failed to create file", err)
	}
	return file, nil
}

// resolvePath anchors relative paths at the exports directory
func (w *Writer) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return filepath.Join(w.paths.ExportsDir, filePath)
}
