package config

import "time"

// Application constants
const (
	AppName    = "policydash"
	AppVersion = "1.0.0"
	AppTitle   = "Insurance Dashboard"
)

// Defaults
const (
	DefaultPort           = 8080
	DefaultRequestTimeout = 90 * time.Second
	DefaultRateLimit      = 20 // requests per second
	DefaultBurstSize      = 40
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"

	DefaultSessionTTL     = 2 * time.Hour
	DefaultMaxSessions    = 64
	DefaultSweepSchedule  = "*/10 * * * *"
	DefaultCookieName     = "policydash_session"
	DefaultUploadMaxBytes = 32 << 20 // 32MB

	DefaultCurrency = "Rs."
)

// Trace exporters
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
)

// HTTP endpoints
const (
	APIBasePath     = "/api"
	HealthEndpoint  = "/healthz"
	ReadyEndpoint   = "/readyz"
	MetricsEndpoint = "/metrics"
)
