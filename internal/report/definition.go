package report

import (
	"fmt"
	"strings"

	"matchreport/internal/aggregate"
	"matchreport/internal/chart"
	"matchreport/internal/dataset"
	"matchreport/internal/document"
	apperrors "matchreport/internal/errors"
)

// Column names of the ODI matches dataset.
const (
	ColumnDate          = "date"
	ColumnSeason        = "season"
	ColumnTeam1         = "team1"
	ColumnTeam2         = "team2"
	ColumnWinner        = "winner"
	ColumnVenue         = "venue"
	ColumnPlayerOfMatch = "player_of_match"
	ColumnWinByRuns     = "win_by_runs"
	ColumnWinByWickets  = "win_by_wickets"

	// DefaultProxyMetric stands in for runs when the dataset has no innings totals.
	DefaultProxyMetric = ColumnWinByRuns
)

// TextColumns are the known non-numeric columns. None of them can serve as
// the proxy metric, and neither can ColumnDate.
var TextColumns = []string{
	ColumnSeason, ColumnTeam1, ColumnTeam2, ColumnWinner, ColumnVenue, ColumnPlayerOfMatch,
	"city", "toss_winner", "toss_decision", "result", "umpire1", "umpire2",
}

// ValidateProxyMetric rejects proxies that name the date column or a known
// text column, since the proxy is coerced to a number.
func ValidateProxyMetric(proxy string) error {
	name := strings.ToLower(strings.TrimSpace(proxy))
	if name == "" {
		return nil
	}
	if name == ColumnDate {
		return apperrors.NewAppValidationError(fmt.Sprintf("proxy metric %q is the date column, not a numeric column", proxy))
	}
	for _, c := range TextColumns {
		if name == c {
			return apperrors.NewAppValidationError(fmt.Sprintf("proxy metric %q is a text column, not a numeric column", proxy))
		}
	}
	return nil
}

// ChartDef declares one chart of a report. Line charts aggregate Key; a
// histogram bins the values of the Observe column.
type ChartDef struct {
	Kind         chart.Kind
	Title        string
	XLabel       string
	YLabel       string
	EmptyMessage string

	Key   aggregate.GroupKey
	Value string
	Mode  aggregate.Mode

	Observe string
}

// Definition is the content plan of a report.
type Definition struct {
	Title       string
	Header      string
	Filename    string
	DateColumn  string
	ProxyMetric string
	Metrics     []aggregate.MetricDef
	Charts      []ChartDef
}

// DefaultDefinition is the ODI matches report with proxy charted as the
// runs distribution. An empty proxy means DefaultProxyMetric.
func DefaultDefinition(proxy string) Definition {
	if proxy == "" {
		proxy = DefaultProxyMetric
	}
	return Definition{
		Title:       document.DefaultTitle,
		Header:      document.DefaultTitle,
		Filename:    document.DefaultFilename,
		DateColumn:  ColumnDate,
		ProxyMetric: proxy,
		Metrics: []aggregate.MetricDef{
			{Name: "Total matches", Kind: aggregate.MetricCount},
			{Name: "Top winning team", Column: ColumnWinner, Kind: aggregate.MetricMode},
			{Name: "Top player (Player of match)", Column: ColumnPlayerOfMatch, Kind: aggregate.MetricMode},
			{Name: "Average win by runs", Column: ColumnWinByRuns, Kind: aggregate.MetricMean, Rounding: aggregate.RoundTruncate},
			{Name: "Average win by wickets", Column: ColumnWinByWickets, Kind: aggregate.MetricMean, Precision: 2},
		},
		Charts: []ChartDef{
			{
				Kind:         chart.KindLine,
				Title:        "Matches per Year",
				XLabel:       "Year",
				YLabel:       "Number of matches",
				EmptyMessage: "No date data available",
				Key:          aggregate.GroupKey{Column: ColumnDate, Bin: aggregate.BinYear},
				Mode:         aggregate.ModeCount,
			},
			{
				Kind:         chart.KindHistogram,
				Title:        "Distribution of " + proxyLabel(proxy) + " (proxy for runs)",
				XLabel:       proxyLabel(proxy),
				YLabel:       "Frequency",
				EmptyMessage: "No runs-related numeric data available",
				Observe:      proxy,
			},
		},
	}
}

// Schema is the normalization schema of the ODI matches dataset. The proxy
// metric is coerced to a number and required alongside date and winner.
func Schema(proxy string, dateLayouts []string) dataset.Schema {
	if proxy == "" {
		proxy = DefaultProxyMetric
	}
	return dataset.Schema{
		Types: map[string]dataset.Kind{
			ColumnDate:         dataset.KindDate,
			ColumnWinByRuns:    dataset.KindNumber,
			ColumnWinByWickets: dataset.KindNumber,
			proxy:              dataset.KindNumber,
		},
		Required:    uniq(ColumnDate, ColumnWinner, proxy),
		DateLayouts: dateLayouts,
	}
}

// proxyLabel turns "win_by_runs" into "Win-by-Runs".
func proxyLabel(column string) string {
	parts := strings.FieldsFunc(column, func(r rune) bool { return r == '_' || r == ' ' })
	for i, p := range parts {
		if len(p) > 2 || i == 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, "-")
}

func uniq(names ...string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
