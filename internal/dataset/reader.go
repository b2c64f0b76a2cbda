package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "matchreport/internal/errors"
)

const utf8BOM = "\uFEFF"

// Format identifies the encoding of a raw dataset.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for datasets that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("unsupported dataset format")

// DetectFormat infers the format from a file name extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// RawTable is an untyped table straight from the source: one header row and
// string cells.
type RawTable struct {
	Header  []string
	Records [][]string
}

// Read decodes r according to format.
func Read(r io.Reader, format Format) (RawTable, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r, "")
	default:
		return RawTable{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadCSV reads a delimited-text dataset with a header row. Rows may have a
// different number of fields than the header; Normalize pads or truncates them.
func ReadCSV(r io.Reader) (RawTable, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return RawTable{}, apperrors.NewParsingError("dataset is empty", nil)
	}
	if err != nil {
		return RawTable{}, apperrors.NewParsingError("failed to read csv header", err)
	}
	header = stripHeaderBOM(header)

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line, _ := reader.FieldPos(0)
			return RawTable{}, apperrors.NewParsingError("failed to read csv record", err).WithContext("line", line)
		}
		if isBlankRecord(record) {
			continue
		}
		records = append(records, record)
	}

	return RawTable{Header: header, Records: records}, nil
}

// ReadXLSX reads the named sheet (the first sheet when empty) of a workbook.
// Cells are read in their formatted text form.
func ReadXLSX(r io.Reader, sheet string) (RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return RawTable{}, apperrors.NewParsingError("failed to open workbook", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return RawTable{}, apperrors.NewParsingError("workbook has no sheets", nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return RawTable{}, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}

	// Skip leading blank rows; the first non-blank row is the header.
	start := 0
	for start < len(rows) && isBlankRecord(rows[start]) {
		start++
	}
	if start == len(rows) {
		return RawTable{}, apperrors.NewParsingError(fmt.Sprintf("sheet %q is empty", sheet), nil)
	}

	raw := RawTable{Header: stripHeaderBOM(rows[start])}
	for _, row := range rows[start+1:] {
		if isBlankRecord(row) {
			continue
		}
		raw.Records = append(raw.Records, row)
	}

	return raw, nil
}

func stripHeaderBOM(header []string) []string {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}
	return header
}

func isBlankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
