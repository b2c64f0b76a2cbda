// Package http implements the HTTP handlers of the match report service.
// Handlers stay thin: they parse the multipart upload, hand a
// services.GenerateRequest to the report service and write the result.
//
// # Endpoints
//
//	POST /api/v1/reports          multipart upload, responds with the PDF
//	POST /api/v1/reports/preview  multipart upload, responds with JSON
//	POST /api/v1/reports/export   multipart upload, responds with filtered CSV
//	GET  /health, /health/ready, /health/live, /version
//	GET  /metrics                 Prometheus exposition
//
// The upload form carries the dataset in the "file" part. Optional fields
// are "format" (csv or xlsx, otherwise taken from the file extension),
// "title", "proxy_metric", "filename" (a bare name for the PDF),
// "narrative" (false skips the narrative step) and "filters", a JSON object:
//
//	{"date_from": "2011-01-01", "date_to": "2011-12-31",
//	 "seasons": ["2011"], "team": "India", "venue": "Wankhede Stadium"}
//
// # Error Handling
//
// Every failure is written as an RFC 7807 problem by errors.ErrorHandler.
// Schema errors in the upload map to 422, validation problems to 400 and
// oversized uploads to 413.
package http
