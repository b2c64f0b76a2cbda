package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every MATCHREPORT_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for key := range setEnvKeys() {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "ODI Matches Report", cfg.Report.Title)
				assert.Equal(t, "win_by_runs", cfg.Report.ProxyMetric)
				assert.Equal(t, "odi_matches_report", cfg.Report.FilenamePrefix)
				assert.Equal(t, int64(32<<20), cfg.Report.MaxUploadBytes)
				assert.Equal(t, NarrativeNone, cfg.Narrative.Provider)
				assert.Equal(t, 10*time.Second, cfg.Narrative.Timeout)
				assert.Equal(t, "none", cfg.Telemetry.TracingExporter)
			},
		},
		{
			name: "env overrides proxy metric",
			env: map[string]string{
				"MATCHREPORT_REPORT_PROXY_METRIC": "win_by_wickets",
				"MATCHREPORT_SERVER_PORT":         "9090",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "win_by_wickets", cfg.Report.ProxyMetric)
				assert.Equal(t, 9090, cfg.Server.Port)
			},
		},
		{
			name: "file values apply when env is unset",
			file: "report:\n  title: Season Review\n  proxy_metric: margin\nnarrative:\n  provider: static\n  static_text: hello\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "Season Review", cfg.Report.Title)
				assert.Equal(t, "margin", cfg.Report.ProxyMetric)
				assert.Equal(t, NarrativeStatic, cfg.Narrative.Provider)
				assert.Equal(t, "hello", cfg.Narrative.StaticText)
			},
		},
		{
			name: "explicit env wins over file",
			env:  map[string]string{"MATCHREPORT_REPORT_PROXY_METRIC": "win_by_wickets"},
			file: "report:\n  proxy_metric: margin\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "win_by_wickets", cfg.Report.ProxyMetric)
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"MATCHREPORT_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "gemini without api key",
			env:     map[string]string{"MATCHREPORT_NARRATIVE_PROVIDER": "gemini"},
			wantErr: "requires an api key",
		},
		{
			name:    "unknown narrative provider",
			env:     map[string]string{"MATCHREPORT_NARRATIVE_PROVIDER": "oracle"},
			wantErr: "unknown narrative provider",
		},
		{
			name:    "unknown tracing exporter",
			env:     map[string]string{"MATCHREPORT_TELEMETRY_TRACING_EXPORTER": "jaeger"},
			wantErr: "unknown tracing exporter",
		},
		{
			name:    "malformed yaml",
			file:    "report: [unterminated\n",
			wantErr: "failed to load config from file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.validate())
	assert.Equal(t, "win_by_runs", cfg.Report.ProxyMetric)
	assert.Equal(t, 2*time.Minute, cfg.Server.OperationTimeout)
	assert.True(t, cfg.Telemetry.MetricsEnabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty origins", func(c *Config) { c.Security.AllowedOrigins = nil }, "allowed origin"},
		{"blank proxy", func(c *Config) { c.Report.ProxyMetric = "  " }, "proxy metric"},
		{"date proxy", func(c *Config) { c.Report.ProxyMetric = "date" }, "numeric column"},
		{"text proxy", func(c *Config) { c.Report.ProxyMetric = "Winner" }, "numeric column"},
		{"custom numeric proxy", func(c *Config) { c.Report.ProxyMetric = "margin" }, ""},
		{"zero upload limit", func(c *Config) { c.Report.MaxUploadBytes = 0 }, "max upload bytes"},
		{"zero narrative timeout", func(c *Config) { c.Narrative.Timeout = 0 }, "narrative timeout"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read timeout"},
		{"gemini with key", func(c *Config) {
			c.Narrative.Provider = NarrativeGemini
			c.Narrative.APIKey = "k"
		}, ""},
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
