// Package narrative produces the optional free-text commentary of a report.
//
// Generation is best effort: Resolve bounds every call with a timeout and
// turns any failure into an empty narrative, so a report never fails
// because its narrative could not be produced.
package narrative
