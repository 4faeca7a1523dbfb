package season

import (
	"fmt"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
	"github.com/pfrederiksen/nfl-season-stats/internal/teams"
)

// Stats normalizes the per-game team statistics of one season. The offense table
// is required; defense, the opponent statistics table, may be nil. The result is
// indexed by canonical team name and holds layout.StatsColumns, plus the renamed
// opponent columns when defense is given.
func Stats(offense, defense *table.Table, names teams.Map, layout Layout) (*table.Table, error) {
	if offense == nil || offense.Len() == 0 {
		return nil, fmt.Errorf("stats: %w: no offense rows", ErrEmptyResult)
	}

	off, err := teamRows(offense, names, layout.Key)
	if err != nil {
		return nil, fmt.Errorf("stats: offense: %w", err)
	}

	cols := append([]string(nil), layout.StatsColumns...)
	if defense != nil {
		def, err := teamRows(defense, names, layout.Key)
		if err != nil {
			return nil, fmt.Errorf("stats: defense: %w", err)
		}

		def, err = opponentColumns(def, layout)
		if err != nil {
			return nil, fmt.Errorf("stats: defense: %w", err)
		}

		if off.Matches(def) == 0 {
			return nil, fmt.Errorf("stats: %w: none of %d offense teams found in defense table", ErrJoinMismatch, off.Len())
		}

		off, err = off.LeftJoin(def, layout.OpponentSuffix)
		if err != nil {
			return nil, fmt.Errorf("stats: %w", err)
		}
		for _, c := range layout.OpponentColumns {
			cols = append(cols, c+layout.OpponentSuffix)
		}
	}

	t, err := off.Select(cols, nil)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}

	// Teams missing from the defense table have null opponent columns here
	t, err = t.DropNull(t.Columns()...)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return t, nil
}

// teamRows canonicalizes team names, keeps only rows naming a current franchise and
// indexes the result. The site appends league average and total rows after the
// last team; those never name a franchise.
func teamRows(t *table.Table, names teams.Map, key string) (*table.Table, error) {
	t, err := canonicalize(t, names, key)
	if err != nil {
		return nil, err
	}

	t = t.Filter(func(r table.Row) bool {
		return names.IsFranchise(r.Get(key).Value)
	})

	return t.SetIndex(key)
}

func opponentColumns(def *table.Table, layout Layout) (*table.Table, error) {
	def, err := def.Select(layout.OpponentColumns, nil)
	if err != nil {
		return nil, err
	}

	renames := make(map[string]string, len(layout.OpponentColumns))
	for _, c := range layout.OpponentColumns {
		renames[c] = c + layout.OpponentSuffix
	}
	return def.Rename(renames)
}
