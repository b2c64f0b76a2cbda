package services

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockReportGenerator is a mock for the ReportGenerator interface
type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) Generate(ctx context.Context, req GenerateRequest) (*ReportResult, error) {
	args := m.Called(ctx, req)
	if r, ok := args.Get(0).(*ReportResult); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNarrativeGenerator is a mock for narrative.Generator
type MockNarrativeGenerator struct {
	mock.Mock
}

func (m *MockNarrativeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
