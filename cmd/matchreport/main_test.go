package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchesCSV = `date,season,team1,team2,winner,win_by_runs,win_by_wickets,player_of_match,venue
2010-02-21,2010,Australia,India,Australia,20,0,R Ponting,WACA
2010-05-09,2010,India,Kenya,India,0,6,S Tendulkar,SCG
2011-01-15,2011,Kenya,India,India,87,0,S Tendulkar,SCG
2011-03-02,2011,Australia,India,Australia,0,7,S Watson,WACA
2011-04-02,2011,India,Sri Lanka,India,0,6,MS Dhoni,Wankhede
`

// isolate keeps a developer's config file and environment out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("MATCHREPORT_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("MATCHREPORT_NARRATIVE_PROVIDER", "none")
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func writeDataset(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFilterFlags(t *testing.T) {
	tests := []struct {
		name    string
		flags   filterFlags
		check   func(t *testing.T, f filterFlags)
		wantErr string
	}{
		{
			name:  "empty",
			flags: filterFlags{},
		},
		{
			name:  "all set",
			flags: filterFlags{dateFrom: "2010-01-01", dateTo: "2010-12-31", seasons: []string{"2010", " ", "2011 "}, team: " India ", venue: "SCG"},
		},
		{
			name:    "bad date",
			flags:   filterFlags{dateFrom: "01/01/2010"},
			wantErr: "--date-from must be YYYY-MM-DD",
		},
		{
			name:    "inverted",
			flags:   filterFlags{dateFrom: "2011-01-01", dateTo: "2010-01-01"},
			wantErr: "is after --date-to",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.flags.filters()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.flags.dateFrom == "" {
				assert.Nil(t, got.DateFrom)
				assert.Empty(t, got.Seasons)
				return
			}
			require.NotNil(t, got.DateFrom)
			assert.True(t, got.DateFrom.Equal(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC)))
			assert.Equal(t, []string{"2010", "2011"}, got.Seasons)
			assert.Equal(t, "India", got.Team)
			assert.Equal(t, "SCG", got.Venue)
		})
	}
}

func TestGenerateCommand(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeDataset(t, dir, "odi.csv", matchesCSV)
	out := filepath.Join(dir, "reports")

	stdout, err := execute(t, "generate", "-i", input, "-o", out, "--team", "Kenya", "--csv")
	require.NoError(t, err)

	assert.Contains(t, stdout, "rows:    2 of 5")
	assert.FileExists(t, filepath.Join(out, "odi_matches_report.pdf"))
	assert.FileExists(t, filepath.Join(out, "odi_matches_report_filtered.csv"))

	pdf, err := os.ReadFile(filepath.Join(out, "odi_matches_report.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))
}

func TestGenerateCommandEmptyResult(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	input := writeDataset(t, dir, "odi.csv", matchesCSV)

	stdout, err := execute(t, "generate", "-i", input, "-o", dir, "--venue", "Lord's")
	require.NoError(t, err)
	assert.Contains(t, stdout, "rows:    0 of 5")
	assert.Contains(t, stdout, "warning: empty result")
}

func TestGenerateCommandErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	noWinner := writeDataset(t, dir, "bad.csv", "date,season,win_by_runs\n2011-04-02,2011,0\n")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"missing input flag", []string{"generate"}, `required flag(s) "input" not set`},
		{"unsupported format", []string{"generate", "-i", filepath.Join(dir, "odi.json")}, "unsupported dataset format"},
		{"missing file", []string{"generate", "-i", filepath.Join(dir, "nope.csv")}, "does not exist"},
		{"schema error", []string{"generate", "-i", noWinner, "-o", dir}, "missing required column(s): winner"},
		{"bad filter", []string{"generate", "-i", noWinner, "--date-to", "yesterday"}, "--date-to must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBatchCommand(t *testing.T) {
	isolate(t)
	in := t.TempDir()
	out := t.TempDir()
	writeDataset(t, in, "odi_2010.csv", matchesCSV)
	writeDataset(t, in, "odi_2011.csv", matchesCSV)

	stdout, err := execute(t, "batch", "--input-dir", in, "-o", out, "-p", "2", "--season", "2011")
	require.NoError(t, err)

	assert.Contains(t, stdout, "2 report(s), 0 failed")
	assert.FileExists(t, filepath.Join(out, "odi_2010_csv_odi_matches_report.pdf"))
	assert.FileExists(t, filepath.Join(out, "odi_2011_csv_odi_matches_report.pdf"))
}

func TestBatchCommandPartialFailure(t *testing.T) {
	isolate(t)
	in := t.TempDir()
	out := t.TempDir()
	writeDataset(t, in, "good.csv", matchesCSV)
	writeDataset(t, in, "broken.csv", "date,season\n2011-04-02,2011\n")

	stdout, err := execute(t, "batch", "--input-dir", in, "-o", out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 datasets failed")
	assert.Contains(t, stdout, "1 report(s), 1 failed")
	assert.FileExists(t, filepath.Join(out, "good_csv_odi_matches_report.pdf"))
}

func TestBatchCommandNoDatasets(t *testing.T) {
	isolate(t)
	_, err := execute(t, "batch", "--input-dir", t.TempDir(), "-o", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no datasets found")

	_, err = execute(t, "batch", "--input-dir", filepath.Join(t.TempDir(), "missing"), "-o", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
