package aggregate

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"matchreport/internal/dataset"
)

// Mode selects how values are combined within a group.
type Mode string

const (
	ModeCount Mode = "count"
	ModeSum   Mode = "sum"
	ModeMean  Mode = "mean"
)

// Bin groups a date column into calendar buckets.
type Bin string

const (
	BinNone  Bin = ""
	BinYear  Bin = "year"
	BinMonth Bin = "month"
)

// Order records how a series' points were sorted. Consumers must keep it.
type Order string

const (
	OrderChronological Order = "chronological"
	OrderValueDesc     Order = "value_desc"
	OrderObserved      Order = "observed"
)

// ErrUnknownColumn is returned when a grouping or value column is absent.
var ErrUnknownColumn = errors.New("unknown column")

// GroupKey names the grouping column and an optional time bin.
type GroupKey struct {
	Column string `json:"column"`
	Bin    Bin    `json:"bin,omitempty"`
}

// Point is one labelled value of a series.
type Point struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Series is an ordered list of points ready for charting.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
	Order  Order   `json:"order"`
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// Values returns the point values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Labels returns the point labels in order.
func (s Series) Labels() []string {
	out := make([]string, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Label
	}
	return out
}

type options struct {
	unknown    string
	hasUnknown bool
	limit      int
}

// Option configures Aggregate.
type Option func(*options)

// WithUnknownBucket collects rows with a missing group key under label
// instead of excluding them.
func WithUnknownBucket(label string) Option {
	return func(o *options) {
		o.unknown = label
		o.hasUnknown = true
	}
}

// WithLimit keeps the first n points after sorting.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

type group struct {
	label   string
	start   time.Time
	unknown bool
	count   int
	sum     float64
	n       int
}

// Aggregate groups t by key and combines valueKey per group using mode.
// Time-binned and date keys are sorted chronologically; other keys are
// sorted by value, descending, with first-seen order breaking ties. Rows
// with a missing key are excluded unless WithUnknownBucket is given.
func Aggregate(t *dataset.Table, key GroupKey, valueKey string, mode Mode, opts ...Option) (Series, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	col, ok := t.Column(key.Column)
	if !ok {
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownColumn, key.Column)
	}
	if key.Bin != BinNone && col.Kind != dataset.KindDate {
		return Series{}, fmt.Errorf("cannot bin %s column %q by %s", col.Kind, key.Column, key.Bin)
	}

	switch mode {
	case ModeCount:
	case ModeSum, ModeMean:
		vc, ok := t.Column(valueKey)
		if !ok {
			return Series{}, fmt.Errorf("%w: %q", ErrUnknownColumn, valueKey)
		}
		if vc.Kind != dataset.KindNumber {
			return Series{}, fmt.Errorf("cannot %s %s column %q", mode, vc.Kind, valueKey)
		}
	default:
		return Series{}, fmt.Errorf("unknown aggregate mode %q", mode)
	}

	groups := make(map[string]*group)
	var order []*group

	for i := 0; i < t.Len(); i++ {
		g := lookupGroup(t.Value(i, key.Column), key.Bin, o, groups, &order)
		if g == nil {
			continue
		}
		g.count++
		if mode != ModeCount {
			if f, ok := t.Value(i, valueKey).Num(); ok {
				g.sum += f
				g.n++
			}
		}
	}

	// The unknown bucket always sorts last, whatever the ordering.
	seriesOrder := OrderChronological
	if col.Kind == dataset.KindDate {
		sort.SliceStable(order, func(a, b int) bool {
			ga, gb := order[a], order[b]
			if ga.unknown != gb.unknown {
				return gb.unknown
			}
			return ga.start.Before(gb.start)
		})
	} else {
		seriesOrder = OrderValueDesc
		sort.SliceStable(order, func(a, b int) bool {
			ga, gb := order[a], order[b]
			if ga.unknown != gb.unknown {
				return gb.unknown
			}
			return ga.value(mode) > gb.value(mode)
		})
	}

	points := make([]Point, len(order))
	for i, g := range order {
		points[i] = Point{Label: g.label, Value: g.value(mode)}
	}
	series := Series{Name: seriesName(key, valueKey, mode), Points: points, Order: seriesOrder}

	if o.limit > 0 && len(series.Points) > o.limit {
		series.Points = series.Points[:o.limit]
	}

	return series, nil
}

func lookupGroup(v dataset.Value, bin Bin, o options, groups map[string]*group, order *[]*group) *group {
	var g group
	if v.IsMissing() {
		if !o.hasUnknown {
			return nil
		}
		g = group{label: o.unknown, unknown: true}
	} else if d, ok := v.Time(); ok {
		g.start, g.label = binDate(d, bin)
	} else {
		g.label = v.Text()
	}

	id := g.label
	if g.unknown {
		id = "\x00unknown"
	}
	if existing, ok := groups[id]; ok {
		return existing
	}
	groups[id] = &g
	*order = append(*order, &g)
	return &g
}

func binDate(d time.Time, bin Bin) (time.Time, string) {
	switch bin {
	case BinYear:
		start := time.Date(d.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		return start, strconv.Itoa(d.Year())
	case BinMonth:
		start := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.Format("2006-01")
	default:
		day := dataset.DayOf(d)
		return day, day.Format(dataset.DateLayout)
	}
}

func (g *group) value(mode Mode) float64 {
	switch mode {
	case ModeSum:
		return g.sum
	case ModeMean:
		if g.n == 0 {
			return 0
		}
		return g.sum / float64(g.n)
	default:
		return float64(g.count)
	}
}

func seriesName(key GroupKey, valueKey string, mode Mode) string {
	by := key.Column
	if key.Bin != BinNone {
		by = string(key.Bin)
	}
	if mode == ModeCount {
		return "count by " + by
	}
	return fmt.Sprintf("%s of %s by %s", mode, valueKey, by)
}

// Observations returns the non-missing values of a numeric column in row
// order, labelled by row number. It is the input of a histogram.
func Observations(t *dataset.Table, column string) (Series, error) {
	col, ok := t.Column(column)
	if !ok {
		return Series{}, fmt.Errorf("%w: %q", ErrUnknownColumn, column)
	}
	if col.Kind != dataset.KindNumber {
		return Series{}, fmt.Errorf("column %q is %s, not number", column, col.Kind)
	}

	s := Series{Name: column, Order: OrderObserved, Points: []Point{}}
	for i := 0; i < t.Len(); i++ {
		if f, ok := t.Value(i, column).Num(); ok {
			s.Points = append(s.Points, Point{Label: strconv.Itoa(i + 1), Value: f})
		}
	}
	return s, nil
}
