// Package api serves combined season data over HTTP.
//
// Routes:
//
//	GET /healthz                          liveness
//	GET /metrics                          metrics snapshot
//	GET /seasons                          stored seasons, newest first
//	GET /seasons/{season}                 all team rows of one season
//	GET /seasons/{season}/teams/{team}    one team row
//	GET /rows?season=2021&season=2020     team rows across seasons (all when omitted)
//
// Rows are JSON objects in column order. The data comes from a Source, either the
// Postgres store or a dataset file loaded into a TableSource.
package api
