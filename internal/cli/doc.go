// Package cli implements the command-line interface for nfl-stats.
//
// The cli package provides the Cobra-based CLI with three commands: scrape combines
// a range of seasons once and writes the dataset (csv, json or text), schedule
// repeats scrape on a cron schedule, and serve exposes stored seasons over HTTP.
// It coordinates the config, runner, storage, store and api packages.
//
// Exit codes: 0 on success, 1 on error, 2 when the dataset was written but some
// seasons were skipped.
package cli
