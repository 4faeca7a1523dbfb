// Package storage manages the dataset files written by nfl-stats.
//
// Files live in a data directory (default ./data, "~/" is expanded) and are
// replaced atomically: content is written to a temporary file in the same directory
// and renamed over the target. Saved CSV datasets can be loaded back as tables,
// which lets the API serve a dataset without a database.
package storage
