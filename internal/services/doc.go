// Package services implements the business logic layer between the HTTP
// handlers and the data pipeline.
//
// DashboardService owns the per-session workflow: an upload is parsed into a
// table and stored in the caller's session, and every later request filters
// that table with the caller's criteria before aggregating, exporting or
// rendering it. The stored table is never mutated, so requests for one
// session can run concurrently and sessions never see each other's data.
//
// Errors leave the package wrapped in *errors.AppError values whose type
// selects the HTTP status:
//
//	- PARSING:    the upload could not be read (ErrLoadFailed)
//	- VALIDATION: unsupported upload or export format, oversize upload
//	- NO_DATA:    no dataset has been uploaded (ErrNoDataLoaded)
//	- NOT_FOUND:  unknown chart (ErrUnknownChart)
//	- REPORT:     the PDF report was aborted (ErrReportFailed)
//
// The sentinels remain reachable with errors.Is.
//
// HealthService answers the liveness and readiness probes.
package services
