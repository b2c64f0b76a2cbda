package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"matchreport/internal/dataset"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	baseDir string
}

// NewCSVWriter creates a CSV writer resolving relative paths against baseDir
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{baseDir: baseDir}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	IncludeBOM bool // Add UTF-8 BOM for Excel compatibility
	// DateLayout formats date cells; dataset.DateLayout when empty.
	DateLayout string
}

// WriteTable writes t with a header row to w and returns the number of data
// rows written. Missing cells are written empty.
func (cw *CSVWriter) WriteTable(w io.Writer, t *dataset.Table, opts WriteOptions) (int, error) {
	if opts.IncludeBOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return 0, fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	cols := t.Columns()
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.Name
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(cols))
	for row := 0; row < t.Len(); row++ {
		for i, c := range cols {
			record[i] = formatValue(t.Value(row, c.Name), opts.DateLayout)
		}
		if err := writer.Write(record); err != nil {
			return row, fmt.Errorf("failed to write record %d: %w", row, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return t.Len(), fmt.Errorf("failed to flush csv: %w", err)
	}
	return t.Len(), nil
}

// WriteTableFile writes t to filePath, creating parent directories as needed.
func (cw *CSVWriter) WriteTableFile(filePath string, t *dataset.Table, opts WriteOptions) (string, error) {
	fullPath := cw.resolvePath(filePath)

	slog.Info("Writing CSV file",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("record_count", t.Len()))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := cw.WriteTable(file, t, opts); err != nil {
		file.Close()
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return fullPath, nil
}

// resolvePath resolves a path against the writer's base directory
func (cw *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || cw.baseDir == "" {
		return filePath
	}
	return filepath.Join(cw.baseDir, filePath)
}
