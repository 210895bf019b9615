// Package services implements the business logic layer of regpulse. It sits
// between the HTTP handlers and CLI commands on one side and the
// dataprocessing pipeline on the other.
//
// # Analytics
//
// AnalyticsService holds the loaded registrations as an immutable snapshot.
// Every query filters the snapshot into fresh slices before aggregating, so
// handlers can call it concurrently without locking:
//
//	svc, err := services.NewAnalyticsService(cfg.Analysis, metrics, logger)
//	if err := svc.LoadFiles(ctx, cfg.Analysis.DataFiles()...); err != nil {
//	    return err
//	}
//	filter, _ := svc.DefaultFilter(ctx)
//	rows, err := svc.Trend(ctx, filter)
//
// Each query runs inside an OpenTelemetry span and records pipeline metrics.
//
// # Health
//
// HealthService reports readiness based on whether a dataset is loaded and
// includes Go runtime statistics in the health response.
package services
