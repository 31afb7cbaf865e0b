package services

import "errors"

// Dashboard service errors. They reach handlers wrapped in an AppError that
// selects the response status.
var (
	ErrNoDataLoaded      = errors.New("no data loaded")
	ErrUnsupportedFormat = errors.New("unsupported upload format")
	ErrUnsupportedExport = errors.New("unsupported export format")
	ErrLoadFailed        = errors.New("upload could not be parsed")
	ErrReportFailed      = errors.New("report generation failed")
	ErrUploadTooLarge    = errors.New("upload exceeds size limit")
	ErrUnknownChart      = errors.New("unknown chart")
	ErrChartUnavailable  = errors.New("chart columns missing from dataset")
)
