// Package config provides centralized configuration management for regpulse.
// It handles loading configuration from multiple sources, validation, and
// path resolution for the dataset and log files.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Default values (Default)
//	2. A YAML file: $REGPULSE_CONFIG, regpulse.yaml or configs/regpulse.yaml
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern REGPULSE_<SECTION>_<KEY>:
//
//	REGPULSE_SERVER_PORT=8080
//	REGPULSE_LOGGING_LEVEL=debug
//	REGPULSE_ANALYSIS_DATA_FILE=data/sample_registrations.csv
//	REGPULSE_ANALYSIS_QOQ_MISSING=zero
//	REGPULSE_SECURITY_RATE_LIMIT_RPS=20
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
