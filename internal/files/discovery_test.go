package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchreport/internal/dataset"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("date,winner\n"), 0644))
}

func names(files []FileInfo) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.Name
	}
	return out
}

func TestNewDiscovery(t *testing.T) {
	discovery := NewDiscovery("/test/base")
	assert.Equal(t, "/test/base", discovery.basePath)
	assert.Equal(t, "/test/base/odi", discovery.resolve("odi"))
	assert.Equal(t, "/abs/odi", discovery.resolve("/abs/odi"))
}

func TestFindDatasets(t *testing.T) {
	tests := []struct {
		name      string
		files     []string
		recursive bool
		want      []string
		wantErr   error
	}{
		{
			name:  "csv and xlsx",
			files: []string{"odi_2011.csv", "odi_2010.XLSX", "notes.pdf"},
			want:  []string{"odi_2010.XLSX", "odi_2011.csv"},
		},
		{
			name:  "lock and hidden files skipped",
			files: []string{"~$odi.xlsx", ".odi.csv", "odi.csv"},
			want:  []string{"odi.csv"},
		},
		{
			name:  "subdirectories ignored",
			files: []string{"odi.csv", "archive/old.csv"},
			want:  []string{"odi.csv"},
		},
		{
			name:      "recursive",
			files:     []string{"odi.csv", "archive/old.csv", ".git/config.csv"},
			recursive: true,
			want:      []string{"old.csv", "odi.csv"},
		},
		{
			name:    "no datasets",
			files:   []string{"readme.md"},
			wantErr: ErrNoDatasets,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, f := range tt.files {
				touch(t, filepath.Join(dir, f))
			}

			got, err := NewDiscovery(dir).FindDatasets(".", tt.recursive)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestFindDatasetsFormat(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.csv"))
	touch(t, filepath.Join(dir, "b.xlsx"))

	got, err := NewDiscovery("").FindDatasets(dir, false)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, dataset.FormatCSV, got[0].Format)
	assert.Equal(t, dataset.FormatXLSX, got[1].Format)
	assert.Equal(t, filepath.Join(dir, "a.csv"), got[0].Path)
	assert.Positive(t, got[0].Size)
}

func TestFindDatasetsMissingDir(t *testing.T) {
	_, err := NewDiscovery("").FindDatasets(filepath.Join(t.TempDir(), "missing"), false)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoDatasets)
}

func TestFindFilesByPattern(t *testing.T) {
	dir := t.TempDir()
	for _, f := range []string{"odi_2010.csv", "odi_2011.csv", "t20_2011.csv", "odi_notes.pdf"} {
		touch(t, filepath.Join(dir, f))
	}

	got, err := NewDiscovery(dir).FindFilesByPattern(".", "odi_*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"odi_2010.csv", "odi_2011.csv"}, names(got))

	_, err = NewDiscovery(dir).FindFilesByPattern(".", "test_*")
	assert.ErrorIs(t, err, ErrNoDatasets)

	_, err = NewDiscovery(dir).FindFilesByPattern(".", "[")
	assert.Error(t, err)
}

func TestGetLatestFile(t *testing.T) {
	_, ok := GetLatestFile(nil)
	assert.False(t, ok)

	now := time.Now()
	files := []FileInfo{
		{Name: "a.csv", ModTime: now.Add(-2 * time.Hour)},
		{Name: "b.csv", ModTime: now},
		{Name: "c.csv", ModTime: now.Add(-time.Hour)},
	}
	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "b.csv", latest.Name)
}
