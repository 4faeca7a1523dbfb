package table

import (
	"fmt"
	"slices"
)

// Concat stacks the rows of the given tables. All tables must have identical
// columns. The result is not indexed.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(nil, nil), nil
	}

	first := tables[0]
	rows := make([][]Cell, 0, first.Len())
	for i, t := range tables {
		if !slices.Equal(t.columns, first.columns) {
			return nil, fmt.Errorf("%w: table %d has columns %v, want %v", ErrSchemaMismatch, i, t.columns, first.columns)
		}
		rows = append(rows, t.rows...)
	}

	out := &Table{id: first.id, columns: append([]string(nil), first.columns...)}
	for _, r := range rows {
		out.rows = append(out.rows, append([]Cell(nil), r...))
	}
	return out, nil
}

// Filter returns the rows for which keep returns true
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := &Table{id: t.id, columns: append([]string(nil), t.columns...), key: t.key}
	for i, r := range t.rows {
		if keep(Row{t: t, i: i}) {
			out.rows = append(out.rows, append([]Cell(nil), r...))
		}
	}
	if out.key != "" {
		// A subset of unique keys stays unique
		_ = out.reindex()
	}
	return out
}

// DropNull removes rows holding a null in any of the named columns, or in any
// column at all when none are named
func (t *Table) DropNull(cols ...string) (*Table, error) {
	if len(cols) == 0 {
		cols = t.columns
	}
	idx, err := t.require(cols)
	if err != nil {
		return nil, err
	}

	return t.Filter(func(r Row) bool {
		for _, j := range idx {
			if !r.t.rows[r.i][j].Valid {
				return false
			}
		}
		return true
	}), nil
}

// MapColumn returns a copy of the table with fn applied to every cell of col
func (t *Table) MapColumn(col string, fn func(Cell) Cell) (*Table, error) {
	j := t.col(col)
	if j < 0 {
		return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, col)
	}

	out := t.clone()
	for _, r := range out.rows {
		r[j] = fn(r[j])
	}
	if out.key == col {
		if err := out.reindex(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SetIndex makes col the unique row key
func (t *Table) SetIndex(col string) (*Table, error) {
	if t.col(col) < 0 {
		return nil, fmt.Errorf("%w: missing index column %q", ErrSchemaMismatch, col)
	}

	out := t.clone()
	out.key = col
	if err := out.reindex(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Table) reindex() error {
	k := t.col(t.key)
	t.index = make(map[string]int, len(t.rows))
	for i, r := range t.rows {
		cell := r[k]
		if !cell.Valid {
			return fmt.Errorf("%w: row %d: null value in index column %q", ErrSchemaMismatch, i, t.key)
		}
		if prev, dup := t.index[cell.Value]; dup {
			return fmt.Errorf("%w: %q at rows %d and %d", ErrDuplicateKey, cell.Value, prev, i)
		}
		t.index[cell.Value] = i
	}
	return nil
}

// Select projects the table onto cols, in that order. The index column is always
// kept as the first column. A missing column listed in optional is filled with
// nulls; any other missing column is a schema mismatch.
func (t *Table) Select(cols []string, optional map[string]bool) (*Table, error) {
	names := make([]string, 0, len(cols)+1)
	if t.key != "" && !slices.Contains(cols, t.key) {
		names = append(names, t.key)
	}
	names = append(names, cols...)

	src := make([]int, len(names))
	var missing []string
	for i, c := range names {
		src[i] = t.col(c)
		if src[i] < 0 && !optional[c] {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrSchemaMismatch, missing)
	}

	out := &Table{id: t.id, columns: names, key: t.key, rows: make([][]Cell, len(t.rows))}
	for i, r := range t.rows {
		row := make([]Cell, len(names))
		for j, s := range src {
			if s >= 0 {
				row[j] = r[s]
			}
		}
		out.rows[i] = row
	}
	if out.key != "" {
		_ = out.reindex()
	}
	return out, nil
}

// LeftJoin joins right onto t by index. Every row of t is kept in order; rows of
// right without a match in t are discarded. Right-hand columns whose names already
// exist in t are renamed with suffix. Both tables must be indexed.
func (t *Table) LeftJoin(right *Table, suffix string) (*Table, error) {
	if t.key == "" || right.key == "" {
		return nil, fmt.Errorf("left join requires indexed tables")
	}

	rk := right.col(right.key)
	cols := append([]string(nil), t.columns...)
	var src []int
	for j, c := range right.columns {
		if j == rk {
			continue
		}
		name := c
		if slices.Contains(t.columns, c) {
			name = c + suffix
		}
		if slices.Contains(cols, name) {
			return nil, fmt.Errorf("%w: joined column %q already exists", ErrSchemaMismatch, name)
		}
		cols = append(cols, name)
		src = append(src, j)
	}

	lk := t.col(t.key)
	out := &Table{id: t.id, columns: cols, key: t.key, rows: make([][]Cell, len(t.rows))}
	for i, r := range t.rows {
		row := make([]Cell, 0, len(cols))
		row = append(row, r...)
		match, ok := right.index[r[lk].Value]
		for _, j := range src {
			if ok {
				row = append(row, right.rows[match][j])
			} else {
				row = append(row, Cell{})
			}
		}
		out.rows[i] = row
	}
	if err := out.reindex(); err != nil {
		return nil, err
	}
	return out, nil
}

// Matches counts the index values of t that also appear in right
func (t *Table) Matches(right *Table) int {
	n := 0
	for k := range t.index {
		if _, ok := right.index[k]; ok {
			n++
		}
	}
	return n
}

// WithConstant appends a column holding value in every row
func (t *Table) WithConstant(col, value string) *Table {
	out := t.clone()
	out.columns = append(out.columns, col)
	for i := range out.rows {
		out.rows[i] = append(out.rows[i], Text(value))
	}
	return out
}

func (t *Table) require(cols []string) ([]int, error) {
	idx := make([]int, len(cols))
	var missing []string
	for i, c := range cols {
		idx[i] = t.col(c)
		if idx[i] < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %v", ErrSchemaMismatch, missing)
	}
	return idx, nil
}

// Rename returns a copy of the table with columns renamed per names
func (t *Table) Rename(names map[string]string) (*Table, error) {
	out := t.clone()
	for from, to := range names {
		j := out.col(from)
		if j < 0 {
			return nil, fmt.Errorf("%w: missing column %q", ErrSchemaMismatch, from)
		}
		out.columns[j] = to
		if out.key == from {
			out.key = to
		}
	}
	return out, nil
}

// SortStable returns a copy of the table with rows ordered by cmp. Rows that compare
// equal keep their relative order.
func (t *Table) SortStable(cmp func(a, b Row) int) *Table {
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp(Row{t: t, i: a}, Row{t: t, i: b})
	})

	out := &Table{id: t.id, columns: append([]string(nil), t.columns...), key: t.key}
	for _, i := range order {
		out.rows = append(out.rows, append([]Cell(nil), t.rows[i]...))
	}
	if out.key != "" {
		_ = out.reindex()
	}
	return out
}
