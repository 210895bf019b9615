// Package app wires regpulse together and runs its HTTP server.
//
// NewApplication loads configuration (defaults, optional YAML file, then
// REGPULSE_* environment variables), builds the slog logger and the
// OpenTelemetry providers, creates the analytics and health services and
// mounts the chi router:
//
//	/api/v1/...       analytics endpoints (see transport/http)
//	/api/health       health, /ready and /live probes
//	/api/version      build information
//	/metrics          Prometheus scrape endpoint
//
// Run loads the configured dataset, serves until the context is cancelled
// or SIGINT/SIGTERM arrives, then shuts the server and telemetry down
// within Server.ShutdownTimeout. A dataset that fails to load does not
// stop the server; readiness reports not_ready until a load succeeds.
//
// Initialization errors are returned to the caller. The package never
// calls os.Exit.
package app
