// Package dataset turns raw delimited-text or workbook input into a typed,
// immutable Table.
//
// Normalization trims column names and coerces cells per a Schema. Number
// and date cells that fail to parse become missing values; rows are never
// dropped. Only a required column that is absent is fatal, reported as a
// SchemaError before any downstream stage runs.
package dataset
