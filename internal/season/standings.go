package season

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
	"github.com/pfrederiksen/nfl-season-stats/internal/teams"
)

// playoffMarkers are appended to team names in the standings: "*" division
// winner, "+" wild card
const playoffMarkers = "*+"

// Standings normalizes the standings tables of one season (the site publishes one
// per conference) into a single table indexed by canonical team name
func Standings(tables []*table.Table, names teams.Map, layout Layout) (*table.Table, error) {
	if len(tables) == 0 {
		return nil, fmt.Errorf("standings: %w: no tables", ErrEmptyResult)
	}

	t, err := table.Concat(tables...)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}

	t, err = t.MapColumn(layout.Key, func(c table.Cell) table.Cell {
		if !c.Valid {
			return c
		}
		return table.Text(StripMarkers(c.Value))
	})
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}

	required := layout.StandingsRequired
	if !slices.Contains(required, layout.Key) {
		required = append(slices.Clone(required), layout.Key)
	}
	t, err = t.DropNull(required...)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}

	// Header rows that carry placeholder text survive the null filter
	t = t.Filter(func(r table.Row) bool {
		return !teams.IsDivisionLabel(r.Get(layout.Key).Value)
	})

	t, err = canonicalize(t, names, layout.Key)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}

	if t.Len() == 0 {
		return nil, fmt.Errorf("standings: %w: no team rows", ErrEmptyResult)
	}

	t, err = t.SetIndex(layout.Key)
	if err != nil {
		return nil, fmt.Errorf("standings: %w", err)
	}
	return t, nil
}

// StripMarkers removes trailing playoff markers from a team name
func StripMarkers(name string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), playoffMarkers))
}

func canonicalize(t *table.Table, names teams.Map, key string) (*table.Table, error) {
	return t.MapColumn(key, func(c table.Cell) table.Cell {
		if !c.Valid {
			return c
		}
		return table.Text(names.Canonical(c.Value))
	})
}
