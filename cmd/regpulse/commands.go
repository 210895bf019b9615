package main

import (
	"strings"

	"github.com/spf13/cobra"

	"regpulse/internal/app"
	"regpulse/internal/exporter"
	"regpulse/internal/services"
	"regpulse/pkg/contracts/domain"
)

func (c *cli) normalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Print the canonical date, category, manufacturer, registrations table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.loadService(cmd.Context())
			if err != nil {
				return err
			}
			dataset, err := svc.Dataset()
			if err != nil {
				return err
			}
			if c.out != "" && c.format == formatCSV {
				return c.streamDataset(cmd, dataset)
			}
			return c.emit(cmd, "normalized", dataset, exporter.DatasetTable(dataset))
		},
	}
}

func (c *cli) trendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trend",
		Short: "Monthly registrations with YoY and QoQ growth per series",
		Args:  cobra.NoArgs,
		RunE: c.query(func(cmd *cobra.Command, svc *services.AnalyticsService, f domain.Filter) error {
			rows, err := svc.Trend(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.emit(cmd, "trend", rows, exporter.GrowthTable(rows, viewCols(f)))
		}),
	}
}

func (c *cli) quarterlyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quarterly",
		Short: "Quarterly totals with QoQ growth per series",
		Args:  cobra.NoArgs,
		RunE: c.query(func(cmd *cobra.Command, svc *services.AnalyticsService, f domain.Filter) error {
			rows, err := svc.Quarterly(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.emit(cmd, "quarterly", rows, exporter.QuarterlyTable(rows, viewCols(f)))
		}),
	}
}

func (c *cli) summaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Total registrations and the latest YoY and QoQ growth",
		Args:  cobra.NoArgs,
		RunE: c.query(func(cmd *cobra.Command, svc *services.AnalyticsService, f domain.Filter) error {
			summary, err := svc.Summary(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.emit(cmd, "summary", summary, exporter.SummaryTable(summary))
		}),
	}
}

func (c *cli) insightsCmd() *cobra.Command {
	var top, window int

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Fastest growing manufacturers and category mix shift",
		Args:  cobra.NoArgs,
		PreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("top") {
				c.cfg.Analysis.TopManufacturers = top
			}
			if cmd.Flags().Changed("window") {
				c.cfg.Analysis.WindowMonths = window
			}
		},
		RunE: c.query(func(cmd *cobra.Command, svc *services.AnalyticsService, f domain.Filter) error {
			insights, err := svc.Insights(cmd.Context(), f)
			if err != nil {
				return err
			}
			return c.emit(cmd, "insights", insights,
				exporter.ManufacturerGrowthTable(insights),
				exporter.CategoryMixTable(insights))
		}),
	}
	cmd.Flags().IntVar(&top, "top", 5, "number of manufacturers to rank")
	cmd.Flags().IntVar(&window, "window", 3, "trailing months compared with a year earlier")
	return cmd
}

func (c *cli) dimensionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dimensions",
		Short: "List the years, categories and manufacturers in the data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := c.loadService(cmd.Context())
			if err != nil {
				return err
			}
			opts, err := svc.Dimensions(cmd.Context())
			if err != nil {
				return err
			}
			return c.emit(cmd, "dimensions", opts, exporter.DimensionsTable(opts))
		},
	}
}

func (c *cli) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analytics HTTP API",
		Long: `Serve loads the dataset and exposes it under /api/v1 together with
/api/health and /metrics. It stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}
			if len(c.files) > 0 {
				c.cfg.Analysis.DataFile = strings.Join(c.files, ",")
			}

			application, err := app.NewApplication(c.cfg, nil)
			if err != nil {
				return err
			}
			return application.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port")
	return cmd
}

func viewCols(f domain.Filter) []domain.Dimension {
	return []domain.Dimension{f.View}
}
