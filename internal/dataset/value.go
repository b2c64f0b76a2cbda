package dataset

import (
	"strconv"
	"time"
)

// Kind is the type every cell of a column is coerced to.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "string"
	}
}

// DateLayout is the canonical text form of date cells.
const DateLayout = "2006-01-02"

// Value is an immutable typed cell. The zero Value is a missing string.
type Value struct {
	kind  Kind
	valid bool
	str   string
	num   float64
	date  time.Time
}

// String returns a present string value.
func String(s string) Value {
	return Value{kind: KindString, valid: true, str: s}
}

// Number returns a present numeric value.
func Number(f float64) Value {
	return Value{kind: KindNumber, valid: true, num: f}
}

// Date returns a present date value.
func Date(t time.Time) Value {
	return Value{kind: KindDate, valid: true, date: t}
}

// Missing returns the missing marker for a column of kind k.
func Missing(k Kind) Value {
	return Value{kind: k}
}

// Kind returns the column kind the value belongs to.
func (v Value) Kind() Kind { return v.kind }

// IsMissing reports whether the cell is the missing marker.
func (v Value) IsMissing() bool { return !v.valid }

// Str returns the string payload and whether it is present.
func (v Value) Str() (string, bool) {
	if v.kind != KindString || !v.valid {
		return "", false
	}
	return v.str, true
}

// Num returns the numeric payload and whether it is present.
func (v Value) Num() (float64, bool) {
	if v.kind != KindNumber || !v.valid {
		return 0, false
	}
	return v.num, true
}

// Time returns the date payload and whether it is present.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindDate || !v.valid {
		return time.Time{}, false
	}
	return v.date, true
}

// Text renders the value for display and grouping. Missing values render
// as the empty string.
func (v Value) Text() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindDate:
		return v.date.Format(DateLayout)
	default:
		return v.str
	}
}

// Equal reports whether two values have the same kind, presence and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind || v.valid != o.valid {
		return false
	}
	if !v.valid {
		return true
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindDate:
		return v.date.Equal(o.date)
	default:
		return v.str == o.str
	}
}
