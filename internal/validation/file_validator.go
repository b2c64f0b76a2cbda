package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"matchreport/internal/dataset"
)

// SniffLen is the number of leading bytes CheckContent looks at.
const SniffLen = 512

var zipMagic = []byte("PK\x03\x04")

// ErrContentMismatch is returned when a dataset's bytes do not match its
// declared format.
var ErrContentMismatch = errors.New("dataset content does not match its format")

// FileValidator checks dataset inputs and report output locations
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInputDirectory validates that dir exists and is a directory
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Error("Input directory does not exist",
			slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Input path is not a directory",
			slog.String("path", dir))
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	tmp.Close()
	os.Remove(tmp.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateDataset checks that path is a readable, non-empty regular file
// whose leading bytes fit the format implied by its extension. It returns
// that format.
func (v *FileValidator) ValidateDataset(path string) (dataset.Format, error) {
	format, err := dataset.DetectFormat(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return "", fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		return "", fmt.Errorf("file %s is empty", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("file %s is not readable: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := CheckContent(head[:n], format); err != nil {
		v.logger.Warn("Dataset content check failed",
			slog.String("file", path),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return "", fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	v.logger.Debug("Dataset validated",
		slog.String("file", path),
		slog.String("format", string(format)),
		slog.Int64("size", info.Size()))
	return format, nil
}

// CheckContent reports whether head, the first bytes of a dataset, can be
// format. XLSX workbooks are zip archives; CSV must be text. A multi-byte
// rune cut at the end of head is tolerated.
func CheckContent(head []byte, format dataset.Format) error {
	switch format {
	case dataset.FormatXLSX:
		if !bytes.HasPrefix(head, zipMagic) {
			return fmt.Errorf("%w: xlsx is not a zip archive", ErrContentMismatch)
		}
	case dataset.FormatCSV:
		if bytes.HasPrefix(head, zipMagic) {
			return fmt.Errorf("%w: csv looks like a spreadsheet archive", ErrContentMismatch)
		}
		if bytes.IndexByte(head, 0) >= 0 {
			return fmt.Errorf("%w: csv contains binary data", ErrContentMismatch)
		}
		if !validUTF8Prefix(head) {
			return fmt.Errorf("%w: csv is not UTF-8 text", ErrContentMismatch)
		}
	default:
		return fmt.Errorf("%w: %q", dataset.ErrUnsupportedFormat, format)
	}
	return nil
}

func validUTF8Prefix(b []byte) bool {
	if utf8.Valid(b) {
		return true
	}
	// Drop at most one truncated rune from the end.
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			return utf8.Valid(b[:len(b)-i])
		}
	}
	return false
}
