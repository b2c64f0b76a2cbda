package dataset

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	apperrors "matchreport/internal/errors"
)

// Schema maps column names to the kind their cells are coerced to. Columns
// not listed stay strings.
type Schema struct {
	Types    map[string]Kind
	Required []string
	// DateLayouts replaces the built-in layout detection when set.
	DateLayouts []string
}

// naTokens are cell texts treated as missing in every column.
var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

var (
	isoDateLayouts = []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"2 Jan 2006",
		"02 Jan 2006",
		"Jan 2, 2006",
		"January 2, 2006",
	}
	monthFirstLayouts = []string{"01/02/2006", "1/2/2006", "01-02-2006", "1-2-2006", "1/2/06", "01/02/06"}
	dayFirstLayouts   = []string{"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "2/1/06", "02/01/06", "02.01.2006", "2.1.2006"}
)

// Normalize converts a raw table into a typed Table. Column names are
// trimmed and Unicode-normalized, cells are coerced per schema, and a cell
// that fails its kind becomes missing without dropping its row. It fails
// with a SchemaError when a required column is absent.
func Normalize(raw RawTable, schema Schema) (*Table, error) {
	names := normalizeHeader(raw.Header)

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	var missing []string
	for _, req := range schema.Required {
		if !present[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing...)
	}

	columns := make([]Column, len(names))
	for i, n := range names {
		kind, ok := schema.Types[n]
		if !ok {
			kind = KindString
		}
		columns[i] = Column{Name: n, Kind: kind}
	}

	rows := make([][]Value, len(raw.Records))
	for r := range raw.Records {
		rows[r] = make([]Value, len(columns))
	}

	for c, col := range columns {
		cells := make([]string, len(raw.Records))
		for r, rec := range raw.Records {
			if c < len(rec) {
				cells[r] = strings.TrimSpace(rec[c])
			}
		}

		var values []Value
		switch col.Kind {
		case KindNumber:
			values = coerceNumbers(cells)
		case KindDate:
			values = coerceDates(cells, schema.DateLayouts)
		default:
			values = coerceStrings(cells)
		}
		for r, v := range values {
			rows[r][c] = v
		}
	}

	return New(columns, rows)
}

// Load reads and normalizes a dataset in one step.
func Load(r io.Reader, format Format, schema Schema) (*Table, error) {
	raw, err := Read(r, format)
	if err != nil {
		return nil, err
	}
	return Normalize(raw, schema)
}

// normalizeHeader trims, strips format characters and NFC-normalizes column
// names. Blank names become "Unnamed: i" and repeats get the first free
// ".n" suffix.
func normalizeHeader(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))

	for i, h := range header {
		name := cleanText(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			// Skip suffixes an earlier column already claimed.
			base := name
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		names[i] = name
	}
	return names
}

func cleanText(s string) string {
	t := transform.Chain(runes.Remove(runes.In(unicode.Cf)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

func isNA(cell string) bool {
	_, ok := naTokens[cell]
	return ok
}

func coerceStrings(cells []string) []Value {
	out := make([]Value, len(cells))
	for i, cell := range cells {
		if isNA(cell) {
			out[i] = Missing(KindString)
			continue
		}
		out[i] = String(cell)
	}
	return out
}

func coerceNumbers(cells []string) []Value {
	out := make([]Value, len(cells))
	for i, cell := range cells {
		out[i] = Missing(KindNumber)
		if isNA(cell) {
			continue
		}
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out[i] = Number(f)
	}
	return out
}

// coerceDates parses a date column. With explicit layouts only those are
// tried. Otherwise the column is parsed month-first and, if any cell fails,
// re-parsed day-first; the reading with fewer failures wins and month-first
// wins ties.
func coerceDates(cells []string, layouts []string) []Value {
	if len(layouts) > 0 {
		out, _ := parseDates(cells, layouts)
		return out
	}

	monthFirst, failed := parseDates(cells, append(append([]string{}, isoDateLayouts...), monthFirstLayouts...))
	if failed == 0 {
		return monthFirst
	}

	dayFirst, dayFailed := parseDates(cells, append(append([]string{}, isoDateLayouts...), dayFirstLayouts...))
	if dayFailed < failed {
		return dayFirst
	}
	return monthFirst
}

func parseDates(cells []string, layouts []string) ([]Value, int) {
	out := make([]Value, len(cells))
	failed := 0
	for i, cell := range cells {
		out[i] = Missing(KindDate)
		if isNA(cell) {
			continue
		}
		t, ok := parseDate(cell, layouts)
		if !ok {
			failed++
			continue
		}
		out[i] = Date(t)
	}
	return out, failed
}

func parseDate(cell string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, cell); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayOf truncates t to its calendar day in its own location, returned as UTC
// midnight so days compare with Equal, Before and After.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
