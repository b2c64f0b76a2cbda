// Package filter narrows a dataset.Table with a conjunction of optional
// predicates. Filtering is stable, never mutates its input and is idempotent.
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"matchreport/internal/dataset"
	apperrors "matchreport/internal/errors"
)

// DefaultDateColumn is used when Spec.DateColumn is empty.
const DefaultDateColumn = "date"

// Spec is a set of optional row-inclusion predicates, combined with AND.
// An absent or empty option lets every row through.
type Spec struct {
	DateColumn string     `json:"date_column,omitempty"`
	DateFrom   *time.Time `json:"date_from,omitempty"`
	DateTo     *time.Time `json:"date_to,omitempty"`
	// Categories maps a column to its allowed values.
	Categories map[string][]string `json:"categories,omitempty"`
	// ExactMatch maps a column to the single value it must equal.
	ExactMatch map[string]string `json:"exact_match,omitempty"`
	// AnyMatch predicates pass when at least one of their columns equals Value.
	AnyMatch []AnyMatch `json:"any_match,omitempty"`
	// Description, when set, is what Describe returns.
	Description string `json:"description,omitempty"`
}

// AnyMatch matches a value against several columns, e.g. a team playing on
// either side.
type AnyMatch struct {
	Label   string   `json:"label,omitempty"`
	Columns []string `json:"columns"`
	Value   string   `json:"value"`
}

type predicate func(t *dataset.Table, row int) bool

func (s Spec) dateColumn() string {
	if s.DateColumn == "" {
		return DefaultDateColumn
	}
	return s.DateColumn
}

// IsEmpty reports whether no predicate is active.
func (s Spec) IsEmpty() bool {
	return len(s.predicates()) == 0
}

// Validate checks the spec for contradictions.
func (s Spec) Validate() error {
	if s.DateFrom != nil && s.DateTo != nil && dataset.DayOf(*s.DateFrom).After(dataset.DayOf(*s.DateTo)) {
		return apperrors.NewAppValidationError(fmt.Sprintf("date_from %s is after date_to %s",
			s.DateFrom.Format(dataset.DateLayout), s.DateTo.Format(dataset.DateLayout)))
	}
	for i, m := range s.AnyMatch {
		if m.Value != "" && len(m.Columns) == 0 {
			return apperrors.NewAppValidationError(fmt.Sprintf("any_match[%d] names no columns", i))
		}
	}
	return nil
}

// Apply returns a new table holding the rows of t that satisfy every active
// predicate of s, in their original order.
func Apply(t *dataset.Table, s Spec) *dataset.Table {
	preds := s.predicates()

	keep := make([]int, 0, t.Len())
	for row := 0; row < t.Len(); row++ {
		if matches(t, row, preds) {
			keep = append(keep, row)
		}
	}
	return t.Select(keep)
}

func matches(t *dataset.Table, row int, preds []predicate) bool {
	for _, p := range preds {
		if !p(t, row) {
			return false
		}
	}
	return true
}

func (s Spec) predicates() []predicate {
	var preds []predicate

	if s.DateFrom != nil || s.DateTo != nil {
		preds = append(preds, dateRange(s.dateColumn(), s.DateFrom, s.DateTo))
	}

	for _, col := range sortedKeys(s.Categories) {
		if len(s.Categories[col]) == 0 {
			continue
		}
		preds = append(preds, memberOf(col, s.Categories[col]))
	}

	for _, col := range sortedKeys(s.ExactMatch) {
		if s.ExactMatch[col] == "" {
			continue
		}
		preds = append(preds, equals(col, s.ExactMatch[col]))
	}

	for _, m := range s.AnyMatch {
		if m.Value == "" {
			continue
		}
		preds = append(preds, anyEquals(m.Columns, m.Value))
	}

	return preds
}

// dateRange keeps rows whose date falls within [from, to] by calendar day.
// Rows with a missing date fail an active range.
func dateRange(column string, from, to *time.Time) predicate {
	var lo, hi time.Time
	if from != nil {
		lo = dataset.DayOf(*from)
	}
	if to != nil {
		hi = dataset.DayOf(*to)
	}
	return func(t *dataset.Table, row int) bool {
		d, ok := t.Value(row, column).Time()
		if !ok {
			return false
		}
		day := dataset.DayOf(d)
		if from != nil && day.Before(lo) {
			return false
		}
		if to != nil && day.After(hi) {
			return false
		}
		return true
	}
}

func memberOf(column string, allowed []string) predicate {
	set := make(map[string]struct{}, len(allowed))
	for _, v := range allowed {
		set[v] = struct{}{}
	}
	return func(t *dataset.Table, row int) bool {
		v := t.Value(row, column)
		if v.IsMissing() {
			return false
		}
		_, ok := set[v.Text()]
		return ok
	}
}

func equals(column, want string) predicate {
	return func(t *dataset.Table, row int) bool {
		v := t.Value(row, column)
		return !v.IsMissing() && v.Text() == want
	}
}

func anyEquals(columns []string, want string) predicate {
	return func(t *dataset.Table, row int) bool {
		for _, c := range columns {
			v := t.Value(row, c)
			if !v.IsMissing() && v.Text() == want {
				return true
			}
		}
		return false
	}
}

// Describe renders the active predicates as one human-readable line, e.g.
// "Date: 2011-01-01 to 2011-12-31; Season: 2011; Team: India".
func (s Spec) Describe() string {
	if s.Description != "" {
		return s.Description
	}
	var parts []string

	if s.DateFrom != nil || s.DateTo != nil {
		from, to := "start", "end"
		if s.DateFrom != nil {
			from = s.DateFrom.Format(dataset.DateLayout)
		}
		if s.DateTo != nil {
			to = s.DateTo.Format(dataset.DateLayout)
		}
		parts = append(parts, fmt.Sprintf("Date: %s to %s", from, to))
	}

	for _, col := range sortedKeys(s.Categories) {
		if vals := s.Categories[col]; len(vals) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", Humanize(col), strings.Join(vals, ", ")))
		}
	}

	for _, col := range sortedKeys(s.ExactMatch) {
		if v := s.ExactMatch[col]; v != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", Humanize(col), v))
		}
	}

	for _, m := range s.AnyMatch {
		if m.Value == "" {
			continue
		}
		label := m.Label
		if label == "" {
			label = Humanize(strings.Join(m.Columns, " or "))
		}
		parts = append(parts, fmt.Sprintf("%s: %s", label, m.Value))
	}

	if len(parts) == 0 {
		return "None (all rows)"
	}
	return strings.Join(parts, "; ")
}

// Humanize turns a column name such as "player_of_match" into "Player of match".
func Humanize(column string) string {
	s := strings.TrimSpace(strings.ReplaceAll(column, "_", " "))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
