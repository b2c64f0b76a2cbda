package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"matchreport/internal/dataset"
	"matchreport/internal/report"
)

// filterFlags are the match filters shared by generate and batch.
type filterFlags struct {
	dateFrom string
	dateTo   string
	seasons  []string
	team     string
	venue    string
}

func (f *filterFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&f.dateFrom, "date-from", "", "keep matches on or after this day (YYYY-MM-DD)")
	fs.StringVar(&f.dateTo, "date-to", "", "keep matches on or before this day (YYYY-MM-DD)")
	fs.StringSliceVar(&f.seasons, "season", nil, "keep these seasons (repeatable or comma separated)")
	fs.StringVar(&f.team, "team", "", "keep matches where this team played either side")
	fs.StringVar(&f.venue, "venue", "", "keep matches at this venue")
}

func (f *filterFlags) filters() (report.Filters, error) {
	out := report.Filters{
		Team:  strings.TrimSpace(f.team),
		Venue: strings.TrimSpace(f.venue),
	}
	for _, s := range f.seasons {
		if s = strings.TrimSpace(s); s != "" {
			out.Seasons = append(out.Seasons, s)
		}
	}

	var err error
	if out.DateFrom, err = parseDay("date-from", f.dateFrom); err != nil {
		return report.Filters{}, err
	}
	if out.DateTo, err = parseDay("date-to", f.dateTo); err != nil {
		return report.Filters{}, err
	}
	if out.DateFrom != nil && out.DateTo != nil && out.DateFrom.After(*out.DateTo) {
		return report.Filters{}, fmt.Errorf("--date-from %s is after --date-to %s", f.dateFrom, f.dateTo)
	}
	return out, nil
}

func parseDay(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dataset.DateLayout, value)
	if err != nil {
		return nil, fmt.Errorf("--%s must be YYYY-MM-DD: %q", flag, value)
	}
	return &t, nil
}
