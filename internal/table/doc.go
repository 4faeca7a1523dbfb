// Package table provides the in-memory tabular model shared by the scraper and the
// season pipeline.
//
// A Table is an ordered set of rows with named columns whose cells are nullable
// strings, the shape in which statistics tables arrive from the source site. Once a
// column is set as the index, rows can be joined to other indexed tables by key.
// Every operation returns a new Table and leaves its receiver untouched, so a table
// can be shared freely between pipeline stages.
package table
