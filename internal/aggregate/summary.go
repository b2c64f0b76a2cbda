package aggregate

import (
	"fmt"
	"math"
	"strconv"

	"matchreport/internal/dataset"
)

// NA is the display form of a metric with no defined value.
const NA = "N/A"

// MetricKind selects how a summary metric is derived from its column.
type MetricKind int

const (
	// MetricCount counts rows, or non-missing cells when a column is named.
	MetricCount MetricKind = iota
	// MetricMode picks the most frequent non-missing value.
	MetricMode
	// MetricMean averages the non-missing numbers of a column.
	MetricMean
)

func (k MetricKind) String() string {
	switch k {
	case MetricCount:
		return "count"
	case MetricMode:
		return "mode"
	case MetricMean:
		return "mean"
	default:
		return fmt.Sprintf("MetricKind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k MetricKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Rounding selects how a mean is cut to its precision for display.
type Rounding int

const (
	// RoundHalfAway rounds to the nearest value, halves away from zero.
	RoundHalfAway Rounding = iota
	// RoundTruncate drops the digits past the precision (1.5 shows as 1).
	RoundTruncate
)

// MetricDef declares one summary metric.
type MetricDef struct {
	Name   string
	Column string
	Kind   MetricKind
	// Precision is the number of decimals shown for a mean.
	Precision int
	Rounding  Rounding
}

// Metric is a computed summary value. Valid is false when the source column
// had nothing to compute over; such a metric displays as NA.
type Metric struct {
	Name      string     `json:"name"`
	Kind      MetricKind `json:"kind"`
	Value     float64    `json:"value"`
	Text      string     `json:"text,omitempty"`
	Valid     bool       `json:"valid"`
	Precision int        `json:"-"`
	Rounding  Rounding   `json:"-"`
}

// String renders the metric for display.
func (m Metric) String() string {
	if !m.Valid {
		return NA
	}
	switch m.Kind {
	case MetricCount:
		return strconv.FormatInt(int64(m.Value), 10)
	case MetricMode:
		return m.Text
	default:
		return strconv.FormatFloat(m.Rounded(), 'f', m.Precision, 64)
	}
}

// Rounded returns Value cut to Precision decimals according to Rounding.
func (m Metric) Rounded() float64 {
	scale := math.Pow10(m.Precision)
	if m.Rounding == RoundTruncate {
		return math.Trunc(m.Value*scale) / scale
	}
	return math.Round(m.Value*scale) / scale
}

// Summary is an ordered list of metrics, in declaration order.
type Summary []Metric

// Get returns the metric named name.
func (s Summary) Get(name string) (Metric, bool) {
	for _, m := range s {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Summarize computes defs over t in declaration order. Metrics over an empty
// or all-missing column are returned with Valid false, never computed over
// an empty set.
func Summarize(t *dataset.Table, defs []MetricDef) Summary {
	out := make(Summary, 0, len(defs))
	for _, def := range defs {
		out = append(out, compute(t, def))
	}
	return out
}

func compute(t *dataset.Table, def MetricDef) Metric {
	m := Metric{Name: def.Name, Kind: def.Kind, Precision: def.Precision, Rounding: def.Rounding}

	switch def.Kind {
	case MetricCount:
		m.Valid = true
		if def.Column == "" {
			m.Value = float64(t.Len())
			return m
		}
		for i := 0; i < t.Len(); i++ {
			if !t.Value(i, def.Column).IsMissing() {
				m.Value++
			}
		}
	case MetricMode:
		if text, count, ok := mode(t, def.Column); ok {
			m.Text, m.Value, m.Valid = text, float64(count), true
		}
	case MetricMean:
		if mean, ok := meanOf(t, def.Column); ok {
			m.Value, m.Valid = mean, true
		}
	}
	return m
}

// mode returns the most frequent non-missing value of column. Among equal
// counts the value encountered first wins.
func mode(t *dataset.Table, column string) (string, int, bool) {
	counts := make(map[string]int)
	var order []string

	for i := 0; i < t.Len(); i++ {
		v := t.Value(i, column)
		if v.IsMissing() {
			continue
		}
		key := v.Text()
		if _, seen := counts[key]; !seen {
			order = append(order, key)
		}
		counts[key]++
	}

	if len(order) == 0 {
		return "", 0, false
	}

	best := order[0]
	for _, key := range order[1:] {
		if counts[key] > counts[best] {
			best = key
		}
	}
	return best, counts[best], true
}

func meanOf(t *dataset.Table, column string) (float64, bool) {
	var sum float64
	n := 0
	for i := 0; i < t.Len(); i++ {
		if f, ok := t.Value(i, column).Num(); ok {
			sum += f
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
