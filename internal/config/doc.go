// Package config loads the application configuration.
//
// # Configuration Sources
//
// Configuration is resolved in order of increasing precedence:
//
//	1. Default values
//	2. An optional YAML file named by POLICYDASH_CONFIG_FILE
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern POLICYDASH_<SECTION>_<FIELD>:
//
//	POLICYDASH_SERVER_PORT=8080
//	POLICYDASH_LOG_LEVEL=debug
//	POLICYDASH_SESSION_TTL=2h
//	POLICYDASH_SESSION_SWEEP_SCHEDULE="*/10 * * * *"
//	POLICYDASH_UPLOAD_MAX_BYTES=33554432
//	POLICYDASH_REPORT_CURRENCY=Rs.
//	POLICYDASH_TELEMETRY_TRACE_EXPORTER=stdout
//
// A .env file in the working directory is loaded by the command before Load
// runs, so it behaves like the process environment.
//
// # Validation
//
// Load validates ports, timeouts, limits, log settings, the sweep cron
// schedule and the report timezone, and fails on the first problem.
package config
