package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate clears every REGPULSE_* variable and runs the test from an empty
// directory so no stray config file is picked up
func isolate(t *testing.T) string {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			// Setenv registers the restore, Unsetenv makes the key absent
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
	dir := t.TempDir()
	chdir(t, dir)
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, Default(), cfg)
			},
		},
		{
			name: "custom environment variables",
			env: map[string]string{
				"REGPULSE_SERVER_PORT":                "9090",
				"REGPULSE_SERVER_READ_TIMEOUT":        "30s",
				"REGPULSE_SECURITY_ALLOWED_ORIGINS":   "http://example.com,https://example.com",
				"REGPULSE_SECURITY_RATE_LIMIT_RPS":    "5.5",
				"REGPULSE_LOGGING_LEVEL":              "debug",
				"REGPULSE_LOGGING_FORMAT":             "text",
				"REGPULSE_ANALYSIS_MAX_MANUFACTURERS": "0",
				"REGPULSE_ANALYSIS_QOQ_MISSING":       "zero",
				"REGPULSE_ANALYSIS_DATA_FILE":         "a.csv, b.xlsx",
				"REGPULSE_TELEMETRY_TRACE_EXPORTER":   "stdout",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://example.com", "https://example.com"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, 5.5, cfg.Security.RateLimit.RPS)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format) // always json
				assert.Equal(t, 0, cfg.Analysis.MaxManufacturers)
				assert.Equal(t, "zero", cfg.Analysis.QoQMissing)
				assert.Equal(t, []string{"a.csv", "b.xlsx"}, cfg.Analysis.DataFiles())
				assert.Equal(t, "stdout", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "config file with environment override",
			env: map[string]string{
				"REGPULSE_SERVER_PORT":   "7070",
				"REGPULSE_LOGGING_LEVEL": "warn",
			},
			file: `
server:
  port: 6060
  read_timeout: 20s
logging:
  level: error
analysis:
  top_manufacturers: 3
  reducer: mean
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, 20*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 3, cfg.Analysis.TopManufacturers)
				assert.Equal(t, "mean", cfg.Analysis.Reducer)
				// untouched keys keep their defaults
				assert.Equal(t, 10, cfg.Analysis.MaxManufacturers)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
			},
		},
		{
			name:    "invalid port number",
			env:     map[string]string{"REGPULSE_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "negative timeout",
			env:     map[string]string{"REGPULSE_SERVER_READ_TIMEOUT": "-5s"},
			wantErr: true,
		},
		{
			name:    "empty allowed origins with cors",
			env:     map[string]string{"REGPULSE_SECURITY_ALLOWED_ORIGINS": ""},
			wantErr: true,
		},
		{
			name:    "unparsable value",
			env:     map[string]string{"REGPULSE_SERVER_PORT": "eighty"},
			wantErr: true,
		},
		{
			name:    "unknown missing policy",
			env:     map[string]string{"REGPULSE_ANALYSIS_QOQ_MISSING": "interpolate"},
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			file:    "server: [unclosed",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.file != "" {
				require.NoError(t, os.WriteFile(filepath.Join(dir, "regpulse.yaml"), []byte(tt.file), 0644))
			}

			cfg, err := Load()

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadExplicitConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  window_months: 6\n"), 0644))
	t.Setenv(ConfigFileEnv, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.Analysis.WindowMonths)

	t.Setenv(ConfigFileEnv, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "valid YAML config",
			fileContent: `
server:
  port: 9000
  read_timeout: 25s
security:
  allowed_origins: ["http://test.com"]
  enable_cors: false
telemetry:
  service_name: regpulse-test
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9000, cfg.Server.Port)
				assert.Equal(t, 25*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://test.com"}, cfg.Security.AllowedOrigins)
				assert.False(t, cfg.Security.EnableCORS)
				assert.Equal(t, "regpulse-test", cfg.Telemetry.ServiceName)
			},
		},
		{
			name:        "invalid YAML syntax",
			fileContent: "invalid: yaml: content: [unclosed",
			wantErr:     true,
		},
		{
			name:        "partial config",
			fileContent: "server:\n  port: 8888\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8888, cfg.Server.Port)
				// Other fields should be zero values
				assert.Equal(t, time.Duration(0), cfg.Server.ReadTimeout)
				assert.Empty(t, cfg.Analysis.DataFile)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configFile := filepath.Join(t.TempDir(), "regpulse.yaml")
			require.NoError(t, os.WriteFile(configFile, []byte(tt.fileContent), 0644))

			cfg, err := loadFromFile(configFile)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}

	t.Run("non-existent file", func(t *testing.T) {
		_, err := loadFromFile("/non/existent/file.yaml")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid configuration", mutate: func(*Config) {}},
		{
			name:    "invalid port - zero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port: 0",
		},
		{
			name:    "invalid write timeout",
			mutate:  func(c *Config) { c.Server.WriteTimeout = 0 },
			wantErr: "server write timeout must be positive",
		},
		{
			name:    "upload limit",
			mutate:  func(c *Config) { c.Server.MaxUploadBytes = 0 },
			wantErr: "max upload bytes must be positive",
		},
		{
			name:   "no origins without cors",
			mutate: func(c *Config) { c.Security.EnableCORS = false; c.Security.AllowedOrigins = nil },
		},
		{
			name:    "rate limit burst",
			mutate:  func(c *Config) { c.Security.RateLimit.Burst = 0 },
			wantErr: "rate limit rps and burst must be positive",
		},
		{
			name:   "disabled rate limit ignores values",
			mutate: func(c *Config) { c.Security.RateLimit = RateLimitConfig{} },
		},
		{
			name:    "logging output",
			mutate:  func(c *Config) { c.Logging.Output = "syslog" },
			wantErr: "invalid logging output",
		},
		{
			name:    "negative max manufacturers",
			mutate:  func(c *Config) { c.Analysis.MaxManufacturers = -1 },
			wantErr: "max manufacturers must not be negative",
		},
		{
			name:    "top manufacturers",
			mutate:  func(c *Config) { c.Analysis.TopManufacturers = 0 },
			wantErr: "top manufacturers must be positive",
		},
		{
			name:    "window months",
			mutate:  func(c *Config) { c.Analysis.WindowMonths = 13 },
			wantErr: "window months must be between 1 and 12",
		},
		{
			name:    "reducer",
			mutate:  func(c *Config) { c.Analysis.Reducer = "median" },
			wantErr: "invalid reducer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateFillsLogFile(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "both"
	cfg.Logging.FilePath = ""

	require.NoError(t, cfg.validate())
	assert.Equal(t, "logs/regpulse.log", cfg.Logging.FilePath)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(32<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "console", cfg.Logging.Output)
	assert.Equal(t, "data/sample_registrations.csv", cfg.Analysis.DataFile)
	assert.Equal(t, 10, cfg.Analysis.MaxManufacturers)
	assert.Equal(t, "absent", cfg.Analysis.QoQMissing)
	assert.Equal(t, "sum", cfg.Analysis.Reducer)
	assert.Equal(t, 5, cfg.Analysis.TopManufacturers)
	assert.Equal(t, 3, cfg.Analysis.WindowMonths)
	assert.True(t, cfg.Telemetry.Enabled)

	// Each call returns a fresh copy
	cfg.Server.Port = 1
	assert.Equal(t, 8080, Default().Server.Port)
}

func TestDataFiles(t *testing.T) {
	assert.Nil(t, AnalysisConfig{}.DataFiles())
	assert.Equal(t, []string{"a.csv"}, AnalysisConfig{DataFile: " a.csv ,, "}.DataFiles())
}
