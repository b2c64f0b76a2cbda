package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"matchreport/internal/document"
)

// SaveDocument writes doc into dir under its own filename and returns the
// full path. The file is written to a temporary name first and renamed, so
// a reader never sees a partial PDF.
func SaveDocument(dir string, doc *document.Document) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	fullPath := filepath.Join(dir, filepath.Base(doc.Filename))
	tmp, err := os.CreateTemp(dir, ".report-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(doc.Bytes); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close document: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move document into place: %w", err)
	}

	slog.Info("Saved report document",
		slog.String("path", fullPath),
		slog.Int("bytes", len(doc.Bytes)),
		slog.Int("pages", doc.PageCount))
	return fullPath, nil
}
