package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"matchreport/internal/aggregate"
	"matchreport/internal/chart"
	"matchreport/internal/config"
)

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	outputDir string
	narrative config.NarrativeConfig
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a new health service. outputDir is checked for
// writability when set.
func NewHealthService(version, buildTime, outputDir string, narrative config.NarrativeConfig, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("build_time", buildTime),
		slog.String("output_dir", outputDir))

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		outputDir: outputDir,
		narrative: narrative,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"renderer":  hs.checkRenderer(),
			"narrative": hs.checkNarrative(),
			"output":    hs.checkOutput(),
		},
	}

	for name, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			hs.logger.WarnContext(ctx, "ReadinessCheck: service not ready",
				slog.String("service", name),
				slog.String("message", sh.Message))
		}
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

// checkRenderer draws a placeholder chart to prove the font and PNG
// encoder are usable.
func (hs *HealthService) checkRenderer() ServiceHealth {
	_, err := chart.Render(chart.Request{Kind: chart.KindLine, Title: "health", Series: aggregate.Series{}})
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Chart renderer error: %v", err),
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "Chart renderer is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkNarrative() ServiceHealth {
	switch hs.narrative.Provider {
	case "", config.NarrativeNone:
		return ServiceHealth{Status: "ready", Message: "Narrative disabled"}
	case config.NarrativeGemini:
		if hs.narrative.APIKey == "" {
			return ServiceHealth{Status: "not_ready", Message: "Gemini narrative configured without an API key"}
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("Narrative provider %s configured", hs.narrative.Provider),
	}
}

// checkOutput checks that the output directory exists and is writable
func (hs *HealthService) checkOutput() ServiceHealth {
	if hs.outputDir == "" {
		return ServiceHealth{Status: "ready", Message: "Reports are streamed, no output directory"}
	}

	if err := os.MkdirAll(hs.outputDir, 0755); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot create output directory: %v", err),
		}
	}
	tmp, err := os.CreateTemp(hs.outputDir, ".health-*")
	if err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot write to output directory: %v", err),
		}
	}
	tmp.Close()
	os.Remove(filepath.Clean(tmp.Name()))

	return ServiceHealth{
		Status:  "ready",
		Message: "Output directory is writable",
	}
}
