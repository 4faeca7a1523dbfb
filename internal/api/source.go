package api

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

// Source provides stored team seasons. *store.Store implements it.
type Source interface {
	Seasons(ctx context.Context) ([]int, error)
	SeasonRows(ctx context.Context, seasons ...int) ([]json.RawMessage, error)
	TeamSeason(ctx context.Context, season int, team string) (json.RawMessage, bool, error)
}

// TableSource serves a combined dataset held in memory
type TableSource struct {
	data      *table.Table
	keyCol    string
	seasonCol string
}

// NewTableSource wraps a dataset with a team column keyCol and a season column
// seasonCol
func NewTableSource(data *table.Table, keyCol, seasonCol string) (*TableSource, error) {
	for _, col := range []string{keyCol, seasonCol} {
		if !data.Has(col) {
			return nil, fmt.Errorf("dataset has no %q column", col)
		}
	}
	for _, r := range data.Rows() {
		if _, err := seasonOf(r, seasonCol); err != nil {
			return nil, err
		}
	}
	return &TableSource{data: data, keyCol: keyCol, seasonCol: seasonCol}, nil
}

// Seasons lists the seasons present in the dataset, newest first
func (s *TableSource) Seasons(ctx context.Context) ([]int, error) {
	var seasons []int
	for _, r := range s.data.Rows() {
		year, _ := seasonOf(r, s.seasonCol)
		if !slices.Contains(seasons, year) {
			seasons = append(seasons, year)
		}
	}
	slices.Sort(seasons)
	slices.Reverse(seasons)
	return seasons, nil
}

// SeasonRows returns the rows of the given seasons, newest season first and rows
// in dataset order within a season
func (s *TableSource) SeasonRows(ctx context.Context, seasons ...int) ([]json.RawMessage, error) {
	wanted := slices.Clone(seasons)
	slices.Sort(wanted)
	slices.Reverse(wanted)
	wanted = slices.Compact(wanted)

	var out []json.RawMessage
	for _, year := range wanted {
		for _, r := range s.data.Rows() {
			if y, _ := seasonOf(r, s.seasonCol); y != year {
				continue
			}
			raw, err := r.MarshalJSON()
			if err != nil {
				return nil, fmt.Errorf("encoding row: %w", err)
			}
			out = append(out, raw)
		}
	}
	return out, nil
}

// TeamSeason returns the row of team in season
func (s *TableSource) TeamSeason(ctx context.Context, season int, team string) (json.RawMessage, bool, error) {
	for _, r := range s.data.Rows() {
		if y, _ := seasonOf(r, s.seasonCol); y != season || r.Get(s.keyCol).Value != team {
			continue
		}
		raw, err := r.MarshalJSON()
		if err != nil {
			return nil, false, fmt.Errorf("encoding row: %w", err)
		}
		return raw, true, nil
	}
	return nil, false, nil
}

func seasonOf(r table.Row, col string) (int, error) {
	cell := r.Get(col)
	year, err := strconv.Atoi(cell.Value)
	if !cell.Valid || err != nil {
		return 0, fmt.Errorf("invalid season %q", cell.Value)
	}
	return year, nil
}
