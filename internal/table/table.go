package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrSchemaMismatch reports columns that differ from what an operation expects.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrDuplicateKey reports two rows sharing the same index value.
	ErrDuplicateKey = errors.New("duplicate key")
)

// Cell is a single nullable value
type Cell struct {
	Value string
	Valid bool
}

// Text returns a cell holding s, or a null cell when s is blank
func Text(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return Cell{}
	}
	return Cell{Value: s, Valid: true}
}

// Null returns a null cell
func Null() Cell {
	return Cell{}
}

// String returns the cell value, or "" for null cells
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// Decimal parses the cell as a number. Values like ".706" and "+12" are accepted.
func (c Cell) Decimal() (decimal.Decimal, bool) {
	if !c.Valid {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(c.Value, "+"))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Table is an ordered set of rows with named columns
type Table struct {
	id      string
	columns []string
	rows    [][]Cell
	key     string
	index   map[string]int
}

// New creates a table. Repeated column names are made unique by appending ".1",
// ".2", ... to later occurrences, and blank names become "Unnamed: <i>". Rows shorter
// than the header are padded with nulls; longer rows are truncated.
func New(columns []string, rows [][]Cell) *Table {
	cols := uniqueColumns(columns)

	out := make([][]Cell, 0, len(rows))
	for _, r := range rows {
		row := make([]Cell, len(cols))
		copy(row, r)
		out = append(out, row)
	}

	return &Table{columns: cols, rows: out}
}

// FromRecords creates a table from a header and string records, treating blank
// strings as nulls
func FromRecords(header []string, records [][]string) *Table {
	rows := make([][]Cell, 0, len(records))
	for _, rec := range records {
		row := make([]Cell, len(rec))
		for i, v := range rec {
			row[i] = Text(v)
		}
		rows = append(rows, row)
	}
	return New(header, rows)
}

func uniqueColumns(columns []string) []string {
	seen := make(map[string]bool, len(columns))
	counts := make(map[string]int)
	out := make([]string, len(columns))
	for i, c := range columns {
		c = strings.TrimSpace(c)
		if c == "" {
			c = fmt.Sprintf("Unnamed: %d", i)
		}
		name := c
		for seen[name] {
			counts[c]++
			name = fmt.Sprintf("%s.%d", c, counts[c])
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// WithID returns a copy of the table tagged with the given identifier
func (t *Table) WithID(id string) *Table {
	c := t.clone()
	c.id = id
	return c
}

// ID returns the identifier of the source table (the HTML id attribute), if any
func (t *Table) ID() string { return t.id }

// Columns returns a copy of the column names
func (t *Table) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Len returns the number of rows
func (t *Table) Len() int { return len(t.rows) }

// Has reports whether the table has the named column
func (t *Table) Has(col string) bool {
	return t.col(col) >= 0
}

// Key returns the index column, or "" when the table is not indexed
func (t *Table) Key() string { return t.key }

// Row returns the i-th row
func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// Rows returns all rows in order
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.rows))
	for i := range t.rows {
		rows[i] = Row{t: t, i: i}
	}
	return rows
}

// Lookup returns the row with the given index value
func (t *Table) Lookup(key string) (Row, bool) {
	i, ok := t.index[key]
	if !ok {
		return Row{}, false
	}
	return Row{t: t, i: i}, true
}

// Keys returns the index values in row order
func (t *Table) Keys() []string {
	if t.key == "" {
		return nil
	}
	keys := make([]string, len(t.rows))
	k := t.col(t.key)
	for i, r := range t.rows {
		keys[i] = r[k].Value
	}
	return keys
}

// Records returns the header and the rows as strings, nulls rendered as ""
func (t *Table) Records() ([]string, [][]string) {
	records := make([][]string, len(t.rows))
	for i, r := range t.rows {
		rec := make([]string, len(r))
		for j, c := range r {
			rec[j] = c.String()
		}
		records[i] = rec
	}
	return t.Columns(), records
}

func (t *Table) col(name string) int {
	for i, c := range t.columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (t *Table) clone() *Table {
	c := &Table{
		id:      t.id,
		columns: append([]string(nil), t.columns...),
		rows:    make([][]Cell, len(t.rows)),
		key:     t.key,
	}
	for i, r := range t.rows {
		c.rows[i] = append([]Cell(nil), r...)
	}
	if t.index != nil {
		c.index = make(map[string]int, len(t.index))
		for k, v := range t.index {
			c.index[k] = v
		}
	}
	return c
}

// Row is a read-only view of one table row
type Row struct {
	t *Table
	i int
}

// Get returns the named cell, or a null cell when the column does not exist
func (r Row) Get(col string) Cell {
	if r.t == nil {
		return Cell{}
	}
	j := r.t.col(col)
	if j < 0 {
		return Cell{}
	}
	return r.t.rows[r.i][j]
}

// Key returns the index value of the row
func (r Row) Key() string {
	if r.t == nil || r.t.key == "" {
		return ""
	}
	return r.Get(r.t.key).Value
}

// Cells returns a copy of the row's cells in column order
func (r Row) Cells() []Cell {
	return append([]Cell(nil), r.t.rows[r.i]...)
}
