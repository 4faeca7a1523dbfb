// Package season turns the raw standings and team statistics tables of one NFL
// season into a single table keyed by team.
//
// The pipeline has three stages, each a pure function of its inputs:
//
//	Standings  concatenates the per-conference standings, strips playoff markers,
//	           drops division header rows and canonicalizes team names.
//	Stats      canonicalizes the offensive table, joins the opponent (defensive)
//	           table onto it and projects the per-game columns.
//	Combine    left-joins the stats onto the standings, projects the final columns
//	           and tags every row with the season.
//
// Failures are reported with the sentinel errors in errors.go and are never retried.
package season
