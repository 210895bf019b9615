package exporter

import (
	"encoding/json"
	"log/slog"

	"regpulse/internal/errors"
)

// WriteJSON writes value as indented JSON and returns the resolved path
func (w *Writer) WriteJSON(filePath string, value any) (string, error) {
	fullPath := w.resolvePath(filePath)

	file, err := create(fullPath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return "", errors.NewStorageError("failed to write "+fullPath, err)
	}

	w.logger.Info("JSON file written", slog.String("full_path", fullPath))
	return fullPath, file.Close()
}
