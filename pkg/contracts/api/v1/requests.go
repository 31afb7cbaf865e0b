// Package api contains the HTTP request and response contracts of the
// dashboard API.
package api

import (
	"fmt"
	"time"

	"policydash/pkg/contracts/domain"
)

// DateLayout is the wire format of every date in requests.
const DateLayout = "2006-01-02"

// Pagination limits for the data table.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// PaginationRequest represents common pagination parameters
type PaginationRequest struct {
	Page     int `json:"page" validate:"omitempty,min=1"`
	PageSize int `json:"page_size" validate:"omitempty,min=1,max=500"`
}

// Normalized fills defaults for unset fields.
func (p PaginationRequest) Normalized() PaginationRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	return p
}

// DateRangeRequest is a closed issued-date interval.
type DateRangeRequest struct {
	From string `json:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" validate:"required,datetime=2006-01-02"`
}

// NumericRangeRequest is a closed premium interval.
type NumericRangeRequest struct {
	Min *float64 `json:"min" validate:"required"`
	Max *float64 `json:"max" validate:"required"`
}

// FilterRequest carries the filter controls. Omitted dimensions and ranges
// are unconstrained, as is any selection containing "All". An empty list
// selects nothing.
type FilterRequest struct {
	Selections map[string][]string  `json:"selections,omitempty" validate:"omitempty,dive,keys,filtercolumn,endkeys,omitempty"`
	IssuedDate *DateRangeRequest    `json:"issued_date,omitempty" validate:"omitempty"`
	Premium    *NumericRangeRequest `json:"premium,omitempty" validate:"omitempty"`
}

// Criteria converts the request into domain criteria. Dates are taken in UTC
// and compared on their date part only.
func (r FilterRequest) Criteria() (domain.FilterCriteria, error) {
	c := domain.FilterCriteria{Selections: r.Selections}
	if r.IssuedDate != nil {
		from, err := time.Parse(DateLayout, r.IssuedDate.From)
		if err != nil {
			return c, fmt.Errorf("issued_date.from: %w", err)
		}
		to, err := time.Parse(DateLayout, r.IssuedDate.To)
		if err != nil {
			return c, fmt.Errorf("issued_date.to: %w", err)
		}
		c.IssuedDate = &domain.DateRange{From: from, To: to}
	}
	if r.Premium != nil && r.Premium.Min != nil && r.Premium.Max != nil {
		c.Premium = &domain.NumericRange{Min: *r.Premium.Min, Max: *r.Premium.Max}
	}
	return c, nil
}

// DashboardRequest asks for metrics, charts and one page of the table.
type DashboardRequest struct {
	FilterRequest
	PaginationRequest
}

// ChartScopes lists the accepted chart scope values.
var ChartScopes = []string{string(domain.ScopeOverall), string(domain.ScopeLatestMonth)}

// ExportFormats lists the accepted export path values.
var ExportFormats = []string{string(domain.ExportFormatCSV), string(domain.ExportFormatExcel), string(domain.ExportFormatSummary)}

// UploadRequest carries the non-file fields of a multipart upload. An empty
// format is inferred from the file name.
type UploadRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Format   string `json:"format" validate:"omitempty,oneof=csv xlsx xls"`
}
