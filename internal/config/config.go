package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix is the prefix shared by every environment variable the service reads.
const EnvPrefix = "MATCHREPORT"

// nonNumericColumns are the dataset columns that cannot be the proxy metric.
// Keep in sync with report.TextColumns plus the date column.
var nonNumericColumns = map[string]bool{
	"date": true, "season": true, "team1": true, "team2": true, "winner": true,
	"venue": true, "player_of_match": true, "city": true, "toss_winner": true,
	"toss_decision": true, "result": true, "umpire1": true, "umpire2": true,
}

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Report    ReportConfig    `yaml:"report" envconfig:"REPORT"`
	Narrative NarrativeConfig `yaml:"narrative" envconfig:"NARRATIVE"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port             int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout      time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout     time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout      time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes   int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	OperationTimeout time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT" default:"2m"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"http://localhost:8080"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS" default:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	// APIKeys maps accepted X-API-Key values to client names. Empty disables
	// API key checks.
	APIKeys map[string]string `yaml:"api_keys" envconfig:"API_KEYS"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"20"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"10"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/matchreport.log"`
}

// ReportConfig controls the report produced from a match dataset.
type ReportConfig struct {
	Title          string `yaml:"title" envconfig:"TITLE" default:"ODI Matches Report"`
	Header         string `yaml:"header" envconfig:"HEADER" default:"ODI Matches Report"`
	FilenamePrefix string `yaml:"filename_prefix" envconfig:"FILENAME_PREFIX" default:"odi_matches_report"`
	// ProxyMetric is the numeric column charted as a stand-in for runs when
	// the dataset carries no innings totals.
	ProxyMetric    string   `yaml:"proxy_metric" envconfig:"PROXY_METRIC" default:"win_by_runs"`
	DateLayouts    []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS"`
	MaxUploadBytes int64    `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" default:"33554432"`
}

// NarrativeConfig selects the optional narrative generator.
type NarrativeConfig struct {
	Provider   string        `yaml:"provider" envconfig:"PROVIDER" default:"none"`
	Model      string        `yaml:"model" envconfig:"MODEL" default:"gemini-2.0-flash"`
	APIKey     string        `yaml:"api_key" envconfig:"API_KEY"`
	Endpoint   string        `yaml:"endpoint" envconfig:"ENDPOINT"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"10s"`
	StaticText string        `yaml:"static_text" envconfig:"STATIC_TEXT"`
}

// TelemetryConfig contains OpenTelemetry settings
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" envconfig:"SERVICE_NAME" default:"matchreport"`
	ServiceVersion  string `yaml:"service_version" envconfig:"SERVICE_VERSION" default:"dev"`
	TracingExporter string `yaml:"tracing_exporter" envconfig:"TRACING_EXPORTER" default:"none"`
	MetricsEnabled  bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED" default:"true"`
}

// Narrative providers
const (
	NarrativeNone   = "none"
	NarrativeStatic = "static"
	NarrativeGemini = "gemini"
)

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom loads configuration from environment variables and the given YAML
// file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if configFile != "" {
		if _, err := os.Stat(configFile); err == nil {
			fileConfig, err := loadFromFile(configFile)
			if err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
			cfg = mergeConfigs(*fileConfig, cfg, setEnvKeys())
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setEnvKeys returns the set of MATCHREPORT_* variables present in the environment.
func setEnvKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix+"_") {
			keys[name] = true
		}
	}
	return keys
}

// mergeConfigs overlays file values onto the env config. Env takes precedence
// for every variable that was explicitly set; otherwise the file value wins
// over the envconfig default.
func mergeConfigs(fileConfig, envConfig Config, envSet map[string]bool) Config {
	pick := func(key string, fileHas bool) bool {
		return fileHas && !envSet[EnvPrefix+"_"+key]
	}

	if pick("SERVER_PORT", fileConfig.Server.Port != 0) {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if pick("SERVER_READ_TIMEOUT", fileConfig.Server.ReadTimeout != 0) {
		envConfig.Server.ReadTimeout = fileConfig.Server.ReadTimeout
	}
	if pick("SERVER_WRITE_TIMEOUT", fileConfig.Server.WriteTimeout != 0) {
		envConfig.Server.WriteTimeout = fileConfig.Server.WriteTimeout
	}
	if pick("SERVER_OPERATION_TIMEOUT", fileConfig.Server.OperationTimeout != 0) {
		envConfig.Server.OperationTimeout = fileConfig.Server.OperationTimeout
	}
	if pick("SECURITY_ALLOWED_ORIGINS", len(fileConfig.Security.AllowedOrigins) > 0) {
		envConfig.Security.AllowedOrigins = fileConfig.Security.AllowedOrigins
	}
	if pick("SECURITY_API_KEYS", len(fileConfig.Security.APIKeys) > 0) {
		envConfig.Security.APIKeys = fileConfig.Security.APIKeys
	}
	if pick("LOGGING_LEVEL", fileConfig.Logging.Level != "") {
		envConfig.Logging.Level = fileConfig.Logging.Level
	}
	if pick("LOGGING_OUTPUT", fileConfig.Logging.Output != "") {
		envConfig.Logging.Output = fileConfig.Logging.Output
	}
	if pick("REPORT_TITLE", fileConfig.Report.Title != "") {
		envConfig.Report.Title = fileConfig.Report.Title
	}
	if pick("REPORT_HEADER", fileConfig.Report.Header != "") {
		envConfig.Report.Header = fileConfig.Report.Header
	}
	if pick("REPORT_PROXY_METRIC", fileConfig.Report.ProxyMetric != "") {
		envConfig.Report.ProxyMetric = fileConfig.Report.ProxyMetric
	}
	if pick("REPORT_DATE_LAYOUTS", len(fileConfig.Report.DateLayouts) > 0) {
		envConfig.Report.DateLayouts = fileConfig.Report.DateLayouts
	}
	if pick("NARRATIVE_PROVIDER", fileConfig.Narrative.Provider != "") {
		envConfig.Narrative.Provider = fileConfig.Narrative.Provider
	}
	if pick("NARRATIVE_MODEL", fileConfig.Narrative.Model != "") {
		envConfig.Narrative.Model = fileConfig.Narrative.Model
	}
	if pick("NARRATIVE_TIMEOUT", fileConfig.Narrative.Timeout != 0) {
		envConfig.Narrative.Timeout = fileConfig.Narrative.Timeout
	}
	if pick("NARRATIVE_STATIC_TEXT", fileConfig.Narrative.StaticText != "") {
		envConfig.Narrative.StaticText = fileConfig.Narrative.StaticText
	}
	if pick("TELEMETRY_TRACING_EXPORTER", fileConfig.Telemetry.TracingExporter != "") {
		envConfig.Telemetry.TracingExporter = fileConfig.Telemetry.TracingExporter
	}

	return envConfig
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

	if len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified")
	}

	if strings.TrimSpace(c.Report.ProxyMetric) == "" {
		return fmt.Errorf("report proxy metric must name a column")
	}

	if col := strings.ToLower(strings.TrimSpace(c.Report.ProxyMetric)); nonNumericColumns[col] {
		return fmt.Errorf("report proxy metric %q must name a numeric column", c.Report.ProxyMetric)
	}

	if c.Report.MaxUploadBytes <= 0 {
		return fmt.Errorf("report max upload bytes must be positive")
	}

	switch c.Narrative.Provider {
	case NarrativeNone, NarrativeStatic:
	case NarrativeGemini:
		if c.Narrative.APIKey == "" {
			return fmt.Errorf("narrative provider %q requires an api key", c.Narrative.Provider)
		}
	default:
		return fmt.Errorf("unknown narrative provider: %q", c.Narrative.Provider)
	}

	if c.Narrative.Timeout <= 0 {
		return fmt.Errorf("narrative timeout must be positive")
	}

	switch c.Telemetry.TracingExporter {
	case "none", "stdout":
	default:
		return fmt.Errorf("unknown tracing exporter: %q", c.Telemetry.TracingExporter)
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			ReadTimeout:      15 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      60 * time.Second,
			MaxHeaderBytes:   1 << 20, // 1MB
			ShutdownTimeout:  30 * time.Second,
			OperationTimeout: 2 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/matchreport.log",
		},
		Report: ReportConfig{
			Title:          "ODI Matches Report",
			Header:         "ODI Matches Report",
			FilenamePrefix: "odi_matches_report",
			ProxyMetric:    "win_by_runs",
			MaxUploadBytes: 32 << 20,
		},
		Narrative: NarrativeConfig{
			Provider: NarrativeNone,
			Model:    "gemini-2.0-flash",
			Timeout:  10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName:     "matchreport",
			ServiceVersion:  "dev",
			TracingExporter: "none",
			MetricsEnabled:  true,
		},
	}
}
