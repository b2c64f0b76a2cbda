package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matchreport/internal/dataset"
)

func date(y int, m time.Month, d int) dataset.Value {
	return dataset.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func matchesTable(t *testing.T) *dataset.Table {
	t.Helper()
	cols := []dataset.Column{
		{Name: "date", Kind: dataset.KindDate},
		{Name: "winner", Kind: dataset.KindString},
		{Name: "player_of_match", Kind: dataset.KindString},
		{Name: "win_by_runs", Kind: dataset.KindNumber},
		{Name: "win_by_wickets", Kind: dataset.KindNumber},
	}
	s, n := dataset.String, dataset.Number
	missingStr := dataset.Missing(dataset.KindString)
	missingNum := dataset.Missing(dataset.KindNumber)
	rows := [][]dataset.Value{
		{date(2011, 3, 2), s("India"), s("Tendulkar"), n(87), n(0)},
		{date(2010, 5, 9), s("Australia"), s("Ponting"), n(0), n(6)},
		{date(2011, 1, 15), s("Australia"), s("Tendulkar"), n(12), missingNum},
		{dataset.Missing(dataset.KindDate), s("India"), missingStr, missingNum, n(3)},
		{date(2010, 5, 30), missingStr, s("Ponting"), n(0), n(5)},
		{date(2012, 8, 1), s("Kenya"), s("Odoyo"), n(1), n(0)},
	}
	table, err := dataset.New(cols, rows)
	require.NoError(t, err)
	return table
}

func TestAggregateTimeBins(t *testing.T) {
	table := matchesTable(t)

	tests := []struct {
		name       string
		key        GroupKey
		valueKey   string
		mode       Mode
		opts       []Option
		wantLabels []string
		wantValues []float64
	}{
		{
			name:       "count by year is chronological",
			key:        GroupKey{Column: "date", Bin: BinYear},
			mode:       ModeCount,
			wantLabels: []string{"2010", "2011", "2012"},
			wantValues: []float64{2, 2, 1},
		},
		{
			name:       "count by month",
			key:        GroupKey{Column: "date", Bin: BinMonth},
			mode:       ModeCount,
			wantLabels: []string{"2010-05", "2011-01", "2011-03", "2012-08"},
			wantValues: []float64{2, 1, 1, 1},
		},
		{
			name:       "sum by year",
			key:        GroupKey{Column: "date", Bin: BinYear},
			valueKey:   "win_by_runs",
			mode:       ModeSum,
			wantLabels: []string{"2010", "2011", "2012"},
			wantValues: []float64{0, 99, 1},
		},
		{
			name:       "mean by year skips missing values",
			key:        GroupKey{Column: "date", Bin: BinYear},
			valueKey:   "win_by_wickets",
			mode:       ModeMean,
			wantLabels: []string{"2010", "2011", "2012"},
			wantValues: []float64{5.5, 0, 0},
		},
		{
			name:       "unknown bucket sorts last",
			key:        GroupKey{Column: "date", Bin: BinYear},
			mode:       ModeCount,
			opts:       []Option{WithUnknownBucket("Unknown")},
			wantLabels: []string{"2010", "2011", "2012", "Unknown"},
			wantValues: []float64{2, 2, 1, 1},
		},
		{
			name:       "unbinned date groups by day",
			key:        GroupKey{Column: "date"},
			mode:       ModeCount,
			opts:       []Option{WithLimit(2)},
			wantLabels: []string{"2010-05-09", "2010-05-30"},
			wantValues: []float64{1, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(table, tt.key, tt.valueKey, tt.mode, tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, OrderChronological, got.Order)
			assert.Equal(t, tt.wantLabels, got.Labels())
			assert.InDeltaSlice(t, tt.wantValues, got.Values(), 1e-9)
		})
	}
}

func TestAggregateCategories(t *testing.T) {
	table := matchesTable(t)

	got, err := Aggregate(table, GroupKey{Column: "winner"}, "", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, OrderValueDesc, got.Order)
	// India and Australia tie at 2; India was seen first.
	assert.Equal(t, []string{"India", "Australia", "Kenya"}, got.Labels())
	assert.Equal(t, []float64{2, 2, 1}, got.Values())

	got, err = Aggregate(table, GroupKey{Column: "winner"}, "", ModeCount, WithUnknownBucket("Unknown"))
	require.NoError(t, err)
	assert.Equal(t, []string{"India", "Australia", "Kenya", "Unknown"}, got.Labels())

	got, err = Aggregate(table, GroupKey{Column: "winner"}, "win_by_runs", ModeSum, WithLimit(1))
	require.NoError(t, err)
	assert.Equal(t, []Point{{Label: "India", Value: 87}}, got.Points)
}

func TestAggregateSingleYear(t *testing.T) {
	table := matchesTable(t)
	only2011 := table.Select([]int{0, 2})

	got, err := Aggregate(only2011, GroupKey{Column: "date", Bin: BinYear}, "", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, []Point{{Label: "2011", Value: 2}}, got.Points)
}

func TestAggregateEmptyTable(t *testing.T) {
	table := matchesTable(t).Select(nil)

	got, err := Aggregate(table, GroupKey{Column: "date", Bin: BinYear}, "", ModeCount)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Len())
}

func TestAggregateErrors(t *testing.T) {
	table := matchesTable(t)

	_, err := Aggregate(table, GroupKey{Column: "city"}, "", ModeCount)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Aggregate(table, GroupKey{Column: "winner", Bin: BinYear}, "", ModeCount)
	assert.ErrorContains(t, err, "cannot bin")

	_, err = Aggregate(table, GroupKey{Column: "winner"}, "player_of_match", ModeMean)
	assert.ErrorContains(t, err, "cannot mean")

	_, err = Aggregate(table, GroupKey{Column: "winner"}, "margin", ModeSum)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Aggregate(table, GroupKey{Column: "winner"}, "", Mode("median"))
	assert.ErrorContains(t, err, "unknown aggregate mode")
}

func TestObservations(t *testing.T) {
	table := matchesTable(t)

	got, err := Observations(table, "win_by_runs")
	require.NoError(t, err)
	assert.Equal(t, OrderObserved, got.Order)
	assert.Equal(t, []float64{87, 0, 12, 0, 1}, got.Values())
	assert.Equal(t, []string{"1", "2", "3", "5", "6"}, got.Labels())

	_, err = Observations(table, "winner")
	assert.Error(t, err)
	_, err = Observations(table, "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	empty, err := Observations(table.Select(nil), "win_by_runs")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())
}

func TestSummarize(t *testing.T) {
	table := matchesTable(t)
	defs := []MetricDef{
		{Name: "Total matches", Kind: MetricCount},
		{Name: "Top winning team", Column: "winner", Kind: MetricMode},
		{Name: "Top player", Column: "player_of_match", Kind: MetricMode},
		{Name: "Average win by runs", Column: "win_by_runs", Kind: MetricMean},
		{Name: "Average win by wickets", Column: "win_by_wickets", Kind: MetricMean, Precision: 2},
		{Name: "Recorded margins", Column: "win_by_runs", Kind: MetricCount},
	}

	got := Summarize(table, defs)
	require.Len(t, got, len(defs))

	want := []string{"6", "India", "Tendulkar", "20", "2.80", "5"}
	for i, m := range got {
		assert.Equal(t, defs[i].Name, m.Name)
		assert.Equal(t, want[i], m.String(), m.Name)
	}

	top, ok := got.Get("Top player")
	require.True(t, ok)
	assert.Equal(t, 2.0, top.Value)
	_, ok = got.Get("missing")
	assert.False(t, ok)
}

func TestSummarizeEmpty(t *testing.T) {
	table := matchesTable(t).Select(nil)
	defs := []MetricDef{
		{Name: "Total matches", Kind: MetricCount},
		{Name: "Top winning team", Column: "winner", Kind: MetricMode},
		{Name: "Average win by runs", Column: "win_by_runs", Kind: MetricMean},
		{Name: "Unknown column", Column: "city", Kind: MetricMode},
	}

	got := Summarize(table, defs)
	assert.Equal(t, "0", got[0].String())
	for _, m := range got[1:] {
		assert.False(t, m.Valid, m.Name)
		assert.Equal(t, NA, m.String())
	}
}

func TestMetricRounding(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		rounding  Rounding
		want      string
	}{
		{"truncate half", 1.5, 0, RoundTruncate, "1"},
		{"truncate above half", 20.7, 0, RoundTruncate, "20"},
		{"truncate negative", -1.5, 0, RoundTruncate, "-1"},
		{"truncate two places", 2.809, 2, RoundTruncate, "2.80"},
		{"nearest half", 1.5, 0, RoundHalfAway, "2"},
		{"nearest two places", 2.125, 2, RoundHalfAway, "2.13"},
		{"nearest down", 20.4, 0, RoundHalfAway, "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Metric{Kind: MetricMean, Value: tt.value, Valid: true, Precision: tt.precision, Rounding: tt.rounding}
			assert.Equal(t, tt.want, m.String())
		})
	}
}

func TestSummarizeTruncatedMean(t *testing.T) {
	cols := []dataset.Column{{Name: "win_by_runs", Kind: dataset.KindNumber}}
	table, err := dataset.New(cols, [][]dataset.Value{{dataset.Number(20)}, {dataset.Number(21.4)}})
	require.NoError(t, err)

	got := Summarize(table, []MetricDef{
		{Name: "Average win by runs", Column: "win_by_runs", Kind: MetricMean, Rounding: RoundTruncate},
		{Name: "Nearest", Column: "win_by_runs", Kind: MetricMean},
	})
	assert.Equal(t, "20", got[0].String())
	assert.Equal(t, "21", got[1].String())
	assert.InDelta(t, 20.7, got[0].Value, 1e-9)
}

func TestMetricKindText(t *testing.T) {
	b, err := MetricMean.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "mean", string(b))
	assert.Equal(t, "MetricKind(9)", MetricKind(9).String())
}
