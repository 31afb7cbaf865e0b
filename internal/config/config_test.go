package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets variables a developer shell might carry into the tests.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		ConfigFileEnv,
		"POLICYDASH_SERVER_PORT", "POLICYDASH_LOG_LEVEL", "POLICYDASH_LOG_OUTPUT",
		"POLICYDASH_SESSION_TTL", "POLICYDASH_SESSION_SWEEP_SCHEDULE",
		"POLICYDASH_SECURITY_ALLOWED_ORIGINS", "POLICYDASH_REPORT_TIMEZONE",
		"POLICYDASH_TELEMETRY_TRACE_EXPORTER", "POLICYDASH_UPLOAD_MAX_BYTES",
	} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     string
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultPort, cfg.Server.Port)
				assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL)
				assert.Equal(t, DefaultSweepSchedule, cfg.Session.SweepSchedule)
				assert.Equal(t, int64(DefaultUploadMaxBytes), cfg.Upload.MaxBytes)
				assert.Equal(t, "Rs.", cfg.Report.Currency)
				assert.Equal(t, TraceExporterNone, cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"POLICYDASH_SERVER_PORT":              "9090",
				"POLICYDASH_LOG_LEVEL":                "DEBUG",
				"POLICYDASH_SESSION_TTL":              "30m",
				"POLICYDASH_SECURITY_ALLOWED_ORIGINS": "http://a.test,http://b.test",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
				assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
			},
		},
		{
			name: "file overlays defaults",
			file: "server:\n  port: 7070\nreport:\n  currency: INR\n  timezone: Asia/Kolkata\nsession:\n  max_sessions: 8\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, "INR", cfg.Report.Currency)
				assert.Equal(t, 8, cfg.Session.MaxSessions)
				assert.Equal(t, DefaultSessionTTL, cfg.Session.TTL, "untouched fields keep defaults")
			},
		},
		{
			name: "environment beats file",
			file: "server:\n  port: 7070\n",
			env:  map[string]string{"POLICYDASH_SERVER_PORT": "6060"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 6060, cfg.Server.Port)
			},
		},
		{
			name:    "bad cron schedule",
			env:     map[string]string{"POLICYDASH_SESSION_SWEEP_SCHEDULE": "every ten minutes"},
			wantErr: "sweep schedule",
		},
		{
			name:    "unknown timezone",
			env:     map[string]string{"POLICYDASH_REPORT_TIMEZONE": "Mars/Olympus"},
			wantErr: "timezone",
		},
		{
			name:    "bad port",
			env:     map[string]string{"POLICYDASH_SERVER_PORT": "70000"},
			wantErr: "invalid server port",
		},
		{
			name:    "unparsable value",
			env:     map[string]string{"POLICYDASH_SESSION_TTL": "forever"},
			wantErr: "from env",
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"POLICYDASH_TELEMETRY_TRACE_EXPORTER": "jaeger"},
			wantErr: "trace exporter",
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

			cfg, err := LoadFile(path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadUsesConfigFileEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(ConfigFileEnv, writeConfigFile(t, "server:\n  port: 5050\n"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5050, cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }, true},
		{"zero max sessions", func(c *Config) { c.Session.MaxSessions = 0 }, true},
		{"empty cookie name", func(c *Config) { c.Session.CookieName = "" }, true},
		{"zero upload limit", func(c *Config) { c.Upload.MaxBytes = 0 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"file output without path", func(c *Config) { c.Logging.Output = "file"; c.Logging.FilePath = "" }, true},
		{"cors without origins", func(c *Config) { c.Security.AllowedOrigins = nil }, true},
		{"rate limit disabled ignores rps", func(c *Config) { c.Security.RateLimit = RateLimitConfig{} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddrAndLocation(t *testing.T) {
	cfg := Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 8181
	assert.Equal(t, "127.0.0.1:8181", cfg.Addr())

	cfg.Report.Timezone = "UTC"
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}
