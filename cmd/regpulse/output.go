package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"regpulse/internal/errors"
	"regpulse/internal/exporter"
	"regpulse/pkg/contracts/domain"
)

const (
	formatCSV  = "csv"
	formatJSON = "json"
	formatXLSX = "xlsx"
)

// emit writes value as JSON or tables as CSV/XLSX, to stdout or --out
func (c *cli) emit(cmd *cobra.Command, name string, value any, tables ...exporter.Table) error {
	if c.out == "" {
		switch c.format {
		case formatJSON:
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(value)
		case formatXLSX:
			return errors.NewConfigError("xlsx output needs --out", nil)
		default:
			return exporter.EncodeCSV(cmd.OutOrStdout(), tables...)
		}
	}

	writer := exporter.NewWriter(c.paths, c.logger)
	var written []string

	switch c.format {
	case formatJSON:
		path, err := writer.WriteJSON(c.out, value)
		if err != nil {
			return err
		}
		written = append(written, path)
	case formatXLSX:
		path, err := writer.WriteWorkbook(c.out, tables...)
		if err != nil {
			return err
		}
		written = append(written, path)
	default:
		for _, t := range tables {
			target := c.out
			if len(tables) > 1 {
				target = suffixed(c.out, t.Name)
			}
			path, err := writer.WriteTable(target, t)
			if err != nil {
				return err
			}
			written = append(written, path)
		}
	}

	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	c.logger.InfoContext(cmd.Context(), "output written",
		slog.String("report", name),
		slog.String("format", c.format),
		slog.Any("files", written))
	return nil
}

// streamDataset writes a normalized dataset row by row
func (c *cli) streamDataset(cmd *cobra.Command, d domain.Dataset) error {
	stream, err := exporter.NewWriter(c.paths, c.logger).CreateStreamWriter(c.out, exporter.DatasetHeaders)
	if err != nil {
		return err
	}
	for _, r := range d {
		if err := stream.WriteRecord(exporter.DatasetRow(r)); err != nil {
			stream.Close()
			return errors.NewStorageError("failed to write "+stream.Path(), err)
		}
	}
	if err := stream.Close(); err != nil {
		return errors.NewStorageError("failed to write "+stream.Path(), err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), stream.Path())
	c.logger.InfoContext(cmd.Context(), "output written",
		slog.String("report", "normalized"),
		slog.String("format", c.format),
		slog.Int("records", len(d)),
		slog.Any("files", []string{stream.Path()}))
	return nil
}

// suffixed turns out/report.csv into out/report_<name>.csv
func suffixed(path, name string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + name + ext
}
