package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"regpulse/internal/config"
	"regpulse/internal/dataprocessing"
	"regpulse/internal/errors"
	"regpulse/internal/infrastructure"
	"regpulse/internal/services"
	"regpulse/internal/validation"
	"regpulse/pkg/contracts"
	"regpulse/pkg/contracts/domain"
)

// allManufacturers lifts the default manufacturer selection
const allManufacturers = "*"

// cli carries the state shared by every subcommand
type cli struct {
	files         []string
	fromYear      int
	toYear        int
	categories    []string
	manufacturers []string
	view          string
	qoqMissing    string
	reducer       string
	format        string
	out           string
	logLevel      string

	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "regpulse",
		Short: "Vehicle registration growth analytics",
		Long: `regpulse turns monthly vehicle registration exports into YoY and QoQ
growth tables, KPI summaries and insights.

Input files are CSV (a UTF-8 BOM is tolerated) or XLSX with date, category,
manufacturer and registrations columns. Unset filters fall back to the
dashboard defaults: every year and category, the first manufacturers
alphabetically, grouped by category.`,
		Version:           contracts.GetFullVersionString(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.StringArrayVarP(&c.files, "file", "f", nil, "registration file or directory (repeatable, defaults to analysis.data_file)")
	flags.IntVar(&c.fromYear, "from-year", 0, "first year to include")
	flags.IntVar(&c.toYear, "to-year", 0, "last year to include")
	flags.StringArrayVar(&c.categories, "category", nil, "category to include (repeatable)")
	flags.StringArrayVar(&c.manufacturers, "manufacturer", nil, `manufacturer to include (repeatable, "*" for all)`)
	flags.StringVar(&c.view, "view", "", "series dimension: category or manufacturer")
	flags.StringVar(&c.qoqMissing, "qoq-missing", "", "QoQ when the previous quarter is missing: absent or zero")
	flags.StringVar(&c.reducer, "reducer", "", "monthly aggregation: sum or mean")
	flags.StringVar(&c.format, "format", formatCSV, "output format: csv, json or xlsx")
	flags.StringVarP(&c.out, "out", "o", "", "output file (relative paths go under data/exports); stdout when empty")
	flags.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		c.normalizeCmd(),
		c.trendCmd(),
		c.quarterlyCmd(),
		c.summaryCmd(),
		c.insightsCmd(),
		c.dimensionsCmd(),
		c.serveCmd(),
	)
	return root
}

// setup loads configuration and applies the option flags to it
func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("qoq-missing") {
		cfg.Analysis.QoQMissing = c.qoqMissing
	}
	if cmd.Flags().Changed("reducer") {
		cfg.Analysis.Reducer = c.reducer
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	if len(c.files) > 0 {
		cfg.Analysis.DataFile = strings.Join(c.files, ",")
	}

	switch c.format {
	case formatCSV, formatJSON, formatXLSX:
	default:
		return errors.NewUnsupportedOptionError("format", c.format)
	}

	paths, err := config.GetPaths()
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.paths = paths
	c.logger = infrastructure.NewLogger(cmd.ErrOrStderr(), cfg.Logging)
	return nil
}

// loadService reads the input files into a fresh analytics service
func (c *cli) loadService(ctx context.Context) (*services.AnalyticsService, error) {
	svc, err := services.NewAnalyticsService(c.cfg.Analysis, nil, c.logger)
	if err != nil {
		return nil, err
	}

	configured := c.cfg.Analysis.DataFiles()
	if len(configured) == 0 {
		return nil, errors.NewConfigError("no input file given, use --file", nil)
	}
	resolved := make([]string, len(configured))
	for i, f := range configured {
		resolved[i] = c.paths.ResolveFile(f)
	}

	files, err := validation.NewFileValidator(0, c.logger).ExpandInputs(resolved)
	if err != nil {
		return nil, err
	}
	if err := svc.LoadFiles(ctx, files...); err != nil {
		return nil, err
	}
	return svc, nil
}

// filter starts from the dashboard defaults and applies the filter flags
func (c *cli) filter(cmd *cobra.Command, svc *services.AnalyticsService) (domain.Filter, error) {
	f, err := svc.DefaultFilter(cmd.Context())
	if err != nil {
		return domain.Filter{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("from-year") {
		f.YearFrom = c.fromYear
	}
	if flags.Changed("to-year") {
		f.YearTo = c.toYear
	}
	if flags.Changed("category") {
		f.Categories = dataprocessing.CanonicalCategories(c.categories)
	}
	if flags.Changed("manufacturer") {
		f.Manufacturers = dataprocessing.CanonicalManufacturers(c.manufacturers)
		for _, m := range f.Manufacturers {
			if m == allManufacturers {
				f.Manufacturers = nil
				break
			}
		}
	}
	if flags.Changed("view") {
		view, ok := domain.ParseDimension(c.view)
		if !ok {
			return domain.Filter{}, errors.NewUnsupportedOptionError("view", c.view)
		}
		f.View = view
	}

	c.logger.DebugContext(cmd.Context(), "filter resolved",
		slog.Int("year_from", f.YearFrom),
		slog.Int("year_to", f.YearTo),
		slog.Any("categories", f.Categories),
		slog.Any("manufacturers", f.Manufacturers),
		slog.String("view", string(f.View)))
	return domain.NewFilter(f.YearFrom, f.YearTo, f.Categories, f.Manufacturers, f.View), nil
}

// query loads the data, resolves the filter and hands both to fn
func (c *cli) query(fn func(cmd *cobra.Command, svc *services.AnalyticsService, f domain.Filter) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		svc, err := c.loadService(cmd.Context())
		if err != nil {
			return err
		}
		f, err := c.filter(cmd, svc)
		if err != nil {
			return err
		}
		if err := fn(cmd, svc, f); err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		return nil
	}
}
