package http

import (
	"context"
	"io"

	"matchreport/internal/services"
)

// ReportServiceInterface defines the report operations the HTTP layer needs
type ReportServiceInterface interface {
	Generate(ctx context.Context, req services.GenerateRequest) (*services.ReportResult, error)
	Preview(ctx context.Context, req services.GenerateRequest) (*services.PreviewResult, error)
	ExportFiltered(ctx context.Context, req services.GenerateRequest, w io.Writer) (int, error)
}
