// Package services implements the business logic layer of the report
// application. It sits between the HTTP handlers and CLI on one side and
// the report pipeline on the other, so that both surfaces share one
// implementation of ingestion, analysis, narrative and assembly.
//
// # Available Services
//
//	- ReportService: Generate, Preview and ExportFiltered over one dataset
//	- BatchService: independent report runs over many files, in parallel
//	- HealthService: liveness and readiness checks
//
// # Common Service Pattern
//
//	svc := services.NewReportService(cfg.Report, gen, cfg.Narrative.Timeout, metrics, logger)
//	result, err := svc.Generate(ctx, services.GenerateRequest{
//	    Input:  file,
//	    Format: dataset.FormatCSV,
//	    Filters: report.Filters{Team: "India"},
//	})
//
// # Error Handling
//
// Services return errors the handlers map to problem responses:
//
//	- *errors.SchemaError when a required column is absent
//	- *errors.AppError of type validation for bad requests or filters
//	- *errors.RenderError when a chart or the document cannot be produced
//
// An empty filter result is not an error. It is reported through the
// analysis warnings and the document carries NA metrics and placeholder
// charts.
//
// # Testing
//
// Consumers mock services through small interfaces:
//
//	gen := new(MockReportGenerator)
//	gen.On("Generate", mock.Anything, mock.Anything).Return(result, nil)
package services
