// Package tabular holds the row/column data model shared by the validator,
// merge engine, and persistence layer, plus the CSV codec that moves it to
// and from disk in a configurable delimiter and charset.
package tabular
