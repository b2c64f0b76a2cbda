// Package chart renders aggregate series to fixed-size PNG images with
// go-chart. A request whose series is empty yields a placeholder image
// carrying a "no data" message, never an error.
package chart
