package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"matchreport/internal/config"
	"matchreport/internal/dataset"
	apperrors "matchreport/internal/errors"
	"matchreport/internal/infrastructure"
	"matchreport/internal/report"
)

const matchesCSV = `date,season,team1,team2,winner,win_by_runs,win_by_wickets,player_of_match,venue
2010-02-21,2010,Australia,India,Australia,20,0,R Ponting,WACA
2010-05-09,2010,India,Kenya,India,0,6,S Tendulkar,SCG
2011-01-15,2011,Kenya,India,India,87,0,S Tendulkar,SCG
2011-03-02,2011,Australia,India,Australia,0,7,S Watson,WACA
2011-04-02,2011,India,Sri Lanka,India,0,6,MS Dhoni,Wankhede
`

func testReportConfig() config.ReportConfig {
	return config.ReportConfig{
		Title:          "ODI Matches Report",
		Header:         "ODI Matches Report",
		FilenamePrefix: "odi_matches_report",
		ProxyMetric:    "win_by_runs",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestReportService(gen *MockNarrativeGenerator) *ReportService {
	if gen == nil {
		return NewReportService(testReportConfig(), nil, time.Second, infrastructure.NoopReportMetrics(), discardLogger())
	}
	return NewReportService(testReportConfig(), gen, time.Second, infrastructure.NoopReportMetrics(), discardLogger())
}

func csvRequest(filters report.Filters) GenerateRequest {
	return GenerateRequest{
		Input:       strings.NewReader(matchesCSV),
		Format:      dataset.FormatCSV,
		Filters:     filters,
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestReportServiceGenerate(t *testing.T) {
	gen := new(MockNarrativeGenerator)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Top winning team: India")
	})).Return("  India won the most matches.\n", nil)

	svc := newTestReportService(gen)
	res, err := svc.Generate(context.Background(), csvRequest(report.Filters{}))
	require.NoError(t, err)

	assert.Equal(t, "odi_matches_report.pdf", res.Document.Filename)
	assert.Equal(t, 4, res.Document.PageCount)
	assert.True(t, bytes.HasPrefix(res.Document.Bytes, []byte("%PDF")))
	assert.Equal(t, "India won the most matches.", res.Narrative)
	assert.False(t, res.NarrativeFallback)
	assert.Equal(t, 5, res.Analysis.Rows)
	assert.Empty(t, res.Analysis.Warnings)
	gen.AssertExpectations(t)
}

func TestReportServiceNarrativeFallback(t *testing.T) {
	gen := new(MockNarrativeGenerator)
	gen.On("Generate", mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	svc := newTestReportService(gen)
	res, err := svc.Generate(context.Background(), csvRequest(report.Filters{}))
	require.NoError(t, err)

	assert.True(t, res.NarrativeFallback)
	assert.Empty(t, res.Narrative)
	assert.Equal(t, 4, res.Document.PageCount)
}

func TestReportServiceSkipNarrative(t *testing.T) {
	gen := new(MockNarrativeGenerator)

	req := csvRequest(report.Filters{})
	req.SkipNarrative = true
	res, err := newTestReportService(gen).Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Empty(t, res.Narrative)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestReportServiceEmptyResult(t *testing.T) {
	res, err := newTestReportService(nil).Generate(context.Background(), csvRequest(report.Filters{Team: "Bermuda"}))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Analysis.Rows)
	require.Len(t, res.Analysis.Warnings, 1)
	assert.Equal(t, 4, res.Document.PageCount)
}

func TestReportServiceErrors(t *testing.T) {
	tests := []struct {
		name  string
		req   GenerateRequest
		check func(t *testing.T, err error)
	}{
		{
			name: "missing input",
			req:  GenerateRequest{Format: dataset.FormatCSV},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNoInput)
			},
		},
		{
			name: "unsupported format",
			req:  GenerateRequest{Input: strings.NewReader(matchesCSV), Format: "json"},
			check: func(t *testing.T, err error) {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
			},
		},
		{
			name: "missing required column",
			req: GenerateRequest{
				Input:  strings.NewReader("date,team1,win_by_runs\n2011-01-01,India,3\n"),
				Format: dataset.FormatCSV,
			},
			check: func(t *testing.T, err error) {
				var schemaErr *apperrors.SchemaError
				require.ErrorAs(t, err, &schemaErr)
				assert.Equal(t, []string{"winner"}, schemaErr.Missing)
			},
		},
		{
			name: "text column as proxy",
			req: func() GenerateRequest {
				req := csvRequest(report.Filters{})
				req.ProxyMetric = "winner"
				return req
			}(),
			check: func(t *testing.T, err error) {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
				assert.Contains(t, appErr.Message, "winner")
			},
		},
		{
			name: "date column as proxy",
			req: func() GenerateRequest {
				req := csvRequest(report.Filters{})
				req.ProxyMetric = "date"
				return req
			}(),
			check: func(t *testing.T, err error) {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
			},
		},
		{
			name: "inverted date range",
			req: csvRequest(report.Filters{
				DateFrom: timePtr(time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)),
				DateTo:   timePtr(time.Date(2011, 1, 1, 0, 0, 0, 0, time.UTC)),
			}),
			check: func(t *testing.T, err error) {
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.ErrTypeValidation, appErr.Type)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestReportService(nil).Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, res)
			tt.check(t, err)
		})
	}
}

func TestReportServicePreview(t *testing.T) {
	svc := newTestReportService(nil)

	tests := []struct {
		name        string
		filters     report.Filters
		wantRows    int
		wantMetrics map[string]string
		wantYears   []string
		wantWarning bool
	}{
		{
			name:     "all rows",
			wantRows: 5,
			wantMetrics: map[string]string{
				"Total matches":                "5",
				"Top winning team":             "India",
				"Top player (Player of match)": "S Tendulkar",
				"Average win by runs":          "21",
				"Average win by wickets":       "3.80",
			},
			wantYears: []string{"2010", "2011"},
		},
		{
			name:     "team on either side",
			filters:  report.Filters{Team: "Kenya"},
			wantRows: 2,
			wantMetrics: map[string]string{
				"Total matches":    "2",
				"Top winning team": "India",
			},
			wantYears: []string{"2010", "2011"},
		},
		{
			name:     "no match",
			filters:  report.Filters{Venue: "Lord's"},
			wantRows: 0,
			wantMetrics: map[string]string{
				"Total matches":       "0",
				"Top winning team":    "N/A",
				"Average win by runs": "N/A",
			},
			wantYears:   nil,
			wantWarning: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Preview(context.Background(), csvRequest(tt.filters))
			require.NoError(t, err)

			assert.Equal(t, 5, res.InputRows)
			assert.Equal(t, tt.wantRows, res.Rows)
			assert.NotEmpty(t, res.ID)
			assert.Len(t, res.Fingerprint, 16)

			got := make(map[string]string, len(res.Metrics))
			for _, m := range res.Metrics {
				got[m.Name] = m.Value
			}
			for name, want := range tt.wantMetrics {
				assert.Equal(t, want, got[name], name)
			}

			require.Len(t, res.Series, 2)
			if tt.wantYears == nil {
				assert.Zero(t, res.Series[0].Len())
			} else {
				assert.Equal(t, tt.wantYears, res.Series[0].Labels())
			}
			assert.Equal(t, tt.wantWarning, len(res.Warnings) > 0)
		})
	}
}

func TestReportServiceExportFiltered(t *testing.T) {
	var buf bytes.Buffer
	n, err := newTestReportService(nil).ExportFiltered(context.Background(), csvRequest(report.Filters{Venue: "SCG"}), &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(buf.String(), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,season,team1,team2,winner,win_by_runs,win_by_wickets,player_of_match,venue", lines[0])
	assert.Equal(t, "2010-05-09,2010,India,Kenya,India,0,6,S Tendulkar,SCG", lines[1])
}

func TestReportServiceDefinition(t *testing.T) {
	svc := newTestReportService(nil)

	def := svc.Definition(GenerateRequest{})
	assert.Equal(t, "ODI Matches Report", def.Title)
	assert.Equal(t, "win_by_runs", def.ProxyMetric)

	def = svc.Definition(GenerateRequest{Title: "World Cup 2011", ProxyMetric: "win_by_wickets"})
	assert.Equal(t, "World Cup 2011", def.Title)
	assert.Equal(t, "World Cup 2011", def.Header)
	assert.Equal(t, "win_by_wickets", def.ProxyMetric)
	assert.Equal(t, "Distribution of Win-by-Wickets (proxy for runs)", def.Charts[1].Title)

	def = svc.Definition(GenerateRequest{FilenamePrefix: "World Cup"})
	assert.Equal(t, "world_cup.pdf", def.Filename)
}

func timePtr(t time.Time) *time.Time { return &t }
