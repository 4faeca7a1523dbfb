package cli

import (
	"fmt"
	"strings"

	"github.com/pfrederiksen/nfl-season-stats/internal/table"
)

// SortOrder names the column to sort rows by. A leading "-" sorts descending.
type SortOrder string

func (o SortOrder) column() (string, bool) {
	s := string(o)
	if strings.HasPrefix(s, "-") {
		return s[1:], true
	}
	return s, false
}

// sortRows orders the dataset by the column in order. Numeric cells compare by
// value, other cells case-insensitively, and nulls always sort last. An empty order
// keeps the dataset order.
func sortRows(t *table.Table, order SortOrder) (*table.Table, error) {
	if order == "" {
		return t, nil
	}
	col, desc := order.column()
	if !t.Has(col) {
		return nil, fmt.Errorf("cannot sort by %q: no such column", col)
	}

	return t.SortStable(func(a, b table.Row) int {
		ca, cb := a.Get(col), b.Get(col)
		switch {
		case !ca.Valid && !cb.Valid:
			return 0
		case !ca.Valid:
			return 1
		case !cb.Valid:
			return -1
		}
		c := compareCells(ca, cb)
		if desc {
			return -c
		}
		return c
	}), nil
}

func compareCells(a, b table.Cell) int {
	da, aok := a.Decimal()
	db, bok := b.Decimal()
	if aok && bok {
		return da.Cmp(db)
	}
	return strings.Compare(strings.ToLower(a.Value), strings.ToLower(b.Value))
}
