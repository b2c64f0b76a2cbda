package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchreport/internal/config"
)

func TestHealthService(t *testing.T) {
	hs := NewHealthService("1.2.3", "2024-05-01", "", config.NarrativeConfig{}, discardLogger())
	ctx := context.Background()

	health := hs.HealthCheck(ctx)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	version := hs.Version()
	assert.Equal(t, "1.2.3", version["version"])
	assert.Equal(t, "2024-05-01", version["build_time"])
}

func TestHealthServiceReadiness(t *testing.T) {
	blocked := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	tests := []struct {
		name       string
		outputDir  string
		narrative  config.NarrativeConfig
		wantStatus string
		notReady   string
	}{
		{
			name:       "streaming without narrative",
			wantStatus: "ready",
		},
		{
			name:       "writable output and static narrative",
			outputDir:  filepath.Join(t.TempDir(), "reports"),
			narrative:  config.NarrativeConfig{Provider: config.NarrativeStatic},
			wantStatus: "ready",
		},
		{
			name:       "gemini without key",
			narrative:  config.NarrativeConfig{Provider: config.NarrativeGemini},
			wantStatus: "not_ready",
			notReady:   "narrative",
		},
		{
			name:       "output path is a file",
			outputDir:  filepath.Join(blocked, "reports"),
			wantStatus: "not_ready",
			notReady:   "output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService("dev", "", tt.outputDir, tt.narrative, discardLogger())
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			require.Len(t, status.Services, 3)
			assert.Equal(t, "ready", status.Services["renderer"].Status)
			if tt.notReady != "" {
				assert.Equal(t, "not_ready", status.Services[tt.notReady].Status)
			}
		})
	}
}
