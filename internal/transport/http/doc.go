// Package http implements the HTTP handlers of the insurance dashboard. It is
// a thin layer between the chi router and the services package: handlers
// decode and validate requests, call the service, and write JSON, PNG or file
// downloads.
//
// # Routes
//
// DashboardHandler.Routes is mounted under /api:
//
//	POST   /upload              multipart "file", optional "format"
//	GET    /options             filter control seeds
//	POST   /dashboard           metrics, charts and a table page
//	POST   /charts/{chart}      one chart as PNG, ?scope=overall|latest_month
//	POST   /export/{format}     csv, xlsx or summary download
//	POST   /report              PDF report download
//	DELETE /session             drop the dataset
//
// Filter bodies are api.FilterRequest documents. An empty body applies no
// filters.
//
// # Sessions
//
// The dataset is selected by an HttpOnly session cookie set on the first
// successful upload. Requests without a loaded dataset answer 409.
//
// # Error Handling
//
// All errors are written as RFC 7807 problem details by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard"
//	}
package http
