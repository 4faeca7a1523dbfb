package season

// Layout names the columns each stage reads and writes. Column availability varies
// across eras (ties only appear in seasons that had one), so it is configuration
// rather than code.
type Layout struct {
	// Key is the team name column shared by every source table
	Key string
	// StandingsRequired rows with a null in any of these are dropped
	StandingsRequired []string
	// StatsColumns are kept from the offensive table
	StatsColumns []string
	// OpponentColumns are taken from the defensive table, renamed with OpponentSuffix
	OpponentColumns []string
	OpponentSuffix  string
	// StatsSuffix disambiguates stats columns that collide with standings columns
	StatsSuffix string
	// Final is the output column order, after the key and before Season
	Final []string
	// Optional columns may be absent from the sources and are emitted as nulls
	Optional []string
}

// SeasonColumn is appended to every combined row
const SeasonColumn = "Season"

// DefaultLayout matches the pro-football-reference season and opponent pages
func DefaultLayout() Layout {
	return Layout{
		Key:               "Tm",
		StandingsRequired: []string{"Tm", "W", "L", "PF", "PA"},
		StatsColumns:      []string{"Rk", "G", "PF", "Yds", "Ply", "Y/P", "TO", "FL", "1stD", "Cmp", "Att"},
		OpponentColumns:   []string{"Yds"},
		OpponentSuffix:    "_opp",
		StatsSuffix:       "_stats",
		Final: []string{
			"W", "L", "T", "W-L%", "PF", "PA", "PD", "MoV", "SoS", "SRS", "OSRS", "DSRS",
			"Rk", "G", "Yds", "Ply", "Y/P", "TO", "FL", "1stD", "Cmp", "Att", "Yds_opp",
		},
		Optional: []string{"T", "Yds_opp"},
	}
}

// Header returns the column names of a combined table
func (l Layout) Header() []string {
	h := make([]string, 0, len(l.Final)+2)
	h = append(h, l.Key)
	h = append(h, l.Final...)
	return append(h, SeasonColumn)
}

func (l Layout) optional() map[string]bool {
	m := make(map[string]bool, len(l.Optional))
	for _, c := range l.Optional {
		m[c] = true
	}
	return m
}
