// Package aggregate derives scalar summary metrics and grouped series from a
// dataset.Table.
//
// Metrics over empty input are reported as NA rather than computed. Series
// over date columns are ordered chronologically; series over categories are
// ordered by value, descending, with first-seen order breaking ties.
package aggregate
