package season

import (
	"fmt"
	"strconv"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

// Combine joins a season's normalized stats onto its normalized standings.
//
// Standings decides which teams existed: every standings team is kept, with null
// stat columns when it has no stats row, and stats rows for teams missing from the
// standings are dropped. A nil stats table is treated as one with no rows.
func Combine(standings, stats *table.Table, year int, layout Layout) (*table.Table, error) {
	if standings == nil || standings.Len() == 0 {
		return nil, fmt.Errorf("combine %d: %w: no standings rows", year, ErrEmptyResult)
	}

	if stats == nil {
		empty, err := table.New(append([]string{layout.Key}, layout.StatsColumns...), nil).SetIndex(layout.Key)
		if err != nil {
			return nil, fmt.Errorf("combine %d: %w", year, err)
		}
		stats = empty
	}

	joined, err := standings.LeftJoin(stats, layout.StatsSuffix)
	if err != nil {
		return nil, fmt.Errorf("combine %d: %w", year, err)
	}

	out, err := joined.Select(layout.Final, layout.optional())
	if err != nil {
		return nil, fmt.Errorf("combine %d: %w", year, err)
	}

	return out.WithConstant(SeasonColumn, strconv.Itoa(year)), nil
}
