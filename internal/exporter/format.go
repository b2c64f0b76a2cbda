package exporter

import (
	"strconv"

	"matchreport/internal/dataset"
)

// formatValue renders a cell for CSV output. Whole numbers are written
// without a fractional part so integer columns round-trip unchanged.
func formatValue(v dataset.Value, dateLayout string) string {
	if v.IsMissing() {
		return ""
	}
	if d, ok := v.Time(); ok {
		if dateLayout == "" {
			dateLayout = dataset.DateLayout
		}
		return d.Format(dateLayout)
	}
	if f, ok := v.Num(); ok {
		return formatFloat(f)
	}
	return v.Text()
}

// formatFloat formats a float64 with the fewest digits that represent it exactly
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
