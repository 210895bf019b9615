package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"regpulse/pkg/contracts/domain"
)

// maxConcurrentLoads bounds how many files are parsed at once
const maxConcurrentLoads = 4

// Loader parses and normalizes registration files into one dataset
type Loader struct {
	parser     *Parser
	normalizer *Normalizer
	logger     *slog.Logger
}

// NewLoader creates a loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		parser:     NewParser(logger),
		normalizer: NewNormalizer(logger),
		logger:     logger.With(slog.String("component", "loader")),
	}
}

// LoadFiles loads every path concurrently and merges the results into a
// single dataset sorted by date. Each file is normalized with its own header
// mapping. The first failure aborts the load.
func (l *Loader) LoadFiles(ctx context.Context, paths ...string) (domain.Dataset, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no input files")
	}

	parts := make([]domain.Dataset, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := l.parser.ParseFile(gctx, path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			dataset, err := l.normalizer.Normalize(gctx, table)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			parts[i] = dataset
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged domain.Dataset
	for _, part := range parts {
		merged = append(merged, part...)
	}
	sortByDate(merged)

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("files", len(paths)),
		slog.Int("records", len(merged)))
	return merged, nil
}

// Load parses and normalizes a single upload
func (l *Loader) Load(ctx context.Context, src io.Reader, name string) (domain.Dataset, error) {
	table, err := l.parser.Parse(ctx, src, name)
	if err != nil {
		return nil, err
	}
	return l.normalizer.Normalize(ctx, table)
}
