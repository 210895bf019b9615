package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"regpulse/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable, e.g. REGPULSE_SERVER_PORT
const EnvPrefix = "REGPULSE"

// ConfigFileEnv points Load at an explicit YAML file
const ConfigFileEnv = EnvPrefix + "_CONFIG"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Analysis  AnalysisConfig  `yaml:"analysis" envconfig:"ANALYSIS"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// MaxUploadBytes caps the body of POST /api/v1/analyze
	MaxUploadBytes int64 `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// AnalysisConfig holds the defaults applied to every dashboard query
type AnalysisConfig struct {
	// DataFile is the dataset loaded at start. Several files may be
	// separated by commas.
	DataFile string `yaml:"data_file" envconfig:"DATA_FILE"`
	// MaxManufacturers bounds the default manufacturer selection
	MaxManufacturers int    `yaml:"max_manufacturers" envconfig:"MAX_MANUFACTURERS"`
	QoQMissing       string `yaml:"qoq_missing" envconfig:"QOQ_MISSING"`
	Reducer          string `yaml:"reducer" envconfig:"REDUCER"`
	TopManufacturers int    `yaml:"top_manufacturers" envconfig:"TOP_MANUFACTURERS"`
	WindowMonths     int    `yaml:"window_months" envconfig:"WINDOW_MONTHS"`
}

// DataFiles splits DataFile into individual paths
func (a AnalysisConfig) DataFiles() []string {
	var files []string
	for _, f := range strings.Split(a.DataFile, ",") {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}
	return files
}

// TelemetryConfig controls OpenTelemetry setup
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" envconfig:"ENABLED"`
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	// TraceExporter is "none" or "stdout"
	TraceExporter string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
}

// Load builds the configuration from defaults, an optional YAML file and
// REGPULSE_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := mergeFile(cfg, configFile); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads configuration from a YAML file. Keys absent from the
// file keep their zero values.
func loadFromFile(filePath string) (*Config, error) {
	var cfg Config
	if err := mergeFile(&cfg, filePath); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeFile overlays the keys present in the YAML file onto cfg
func mergeFile(cfg *Config, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	// Logs are always JSON
	c.Logging.Format = "json"

	switch c.Logging.Output {
	case "console", "file", "both":
	default:
		return fmt.Errorf("invalid logging output: %q", c.Logging.Output)
	}

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/regpulse.log"
	}

	return c.Analysis.validate()
}

func (a AnalysisConfig) validate() error {
	if a.MaxManufacturers < 0 {
		return fmt.Errorf("max manufacturers must not be negative")
	}
	if a.TopManufacturers <= 0 {
		return fmt.Errorf("top manufacturers must be positive")
	}
	if a.WindowMonths <= 0 || a.WindowMonths > 12 {
		return fmt.Errorf("window months must be between 1 and 12: %d", a.WindowMonths)
	}

	switch domain.MissingPolicy(a.QoQMissing) {
	case "", domain.MissingAbsent, domain.MissingZero:
	default:
		return fmt.Errorf("invalid qoq missing policy: %q", a.QoQMissing)
	}

	switch domain.Reducer(a.Reducer) {
	case "", domain.ReducerSum, domain.ReducerMean:
	default:
		return fmt.Errorf("invalid reducer: %q", a.Reducer)
	}

	return nil
}

// getConfigFilePath returns the path to the config file, or "" when none exists
func getConfigFilePath() string {
	if explicit := os.Getenv(ConfigFileEnv); explicit != "" {
		return explicit
	}

	locations := []string{
		"regpulse.yaml",
		"configs/regpulse.yaml",
		"../configs/regpulse.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     100,
				Burst:   50,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/regpulse.log",
		},
		Analysis: AnalysisConfig{
			DataFile:         "data/sample_registrations.csv",
			MaxManufacturers: 10,
			QoQMissing:       string(domain.MissingAbsent),
			Reducer:          string(domain.ReducerSum),
			TopManufacturers: 5,
			WindowMonths:     3,
		},
		Telemetry: TelemetryConfig{
			Enabled:       true,
			ServiceName:   "regpulse",
			TraceExporter: "none",
		},
	}
}
