package report

import (
	"fmt"
	"strings"
	"time"

	"matchreport/internal/dataset"
	"matchreport/internal/filter"
)

// allValues stands for an inactive filter in Describe.
const allValues = "All"

// Filters are the user-facing match filters. Every field is optional.
type Filters struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`
	Seasons  []string   `json:"seasons,omitempty" validate:"omitempty,dive,required"`
	// Team matches either side of a fixture.
	Team  string `json:"team,omitempty" validate:"omitempty,max=100"`
	Venue string `json:"venue,omitempty" validate:"omitempty,max=200"`
}

// Spec converts f into a filter.Spec over the ODI columns.
func (f Filters) Spec() filter.Spec {
	s := filter.Spec{
		DateColumn:  ColumnDate,
		DateFrom:    f.DateFrom,
		DateTo:      f.DateTo,
		Description: f.Describe(),
	}
	if len(f.Seasons) > 0 {
		s.Categories = map[string][]string{ColumnSeason: f.Seasons}
	}
	if f.Venue != "" {
		s.ExactMatch = map[string]string{ColumnVenue: f.Venue}
	}
	if f.Team != "" {
		s.AnyMatch = []filter.AnyMatch{{Label: "Team", Columns: []string{ColumnTeam1, ColumnTeam2}, Value: f.Team}}
	}
	return s
}

// Describe renders every filter in the fixed form printed on the title page:
//
//	Date: 2011-01-01 to 2011-12-31; Seasons: 2010, 2011; Team: India; Venue: WACA
//
// Inactive filters read "All". An open date bound reads "All" on its side.
func (f Filters) Describe() string {
	seasons := allValues
	if len(f.Seasons) > 0 {
		seasons = strings.Join(f.Seasons, ", ")
	}
	return fmt.Sprintf("Date: %s to %s; Seasons: %s; Team: %s; Venue: %s",
		dateOrAll(f.DateFrom), dateOrAll(f.DateTo), seasons, orAll(f.Team), orAll(f.Venue))
}

func dateOrAll(t *time.Time) string {
	if t == nil {
		return allValues
	}
	return t.Format(dataset.DateLayout)
}

func orAll(s string) string {
	if s == "" {
		return allValues
	}
	return s
}
