package table

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON encodes the row as an object in column order. Numeric cells become
// JSON numbers, null cells null and everything else strings.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for j, col := range r.t.columns {
		if j > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		cell := r.t.rows[r.i][j]
		switch d, ok := cell.Decimal(); {
		case !cell.Valid:
			buf.WriteString("null")
		case ok:
			buf.WriteString(d.String())
		default:
			v, err := json.Marshal(cell.Value)
			if err != nil {
				return nil, err
			}
			buf.Write(v)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON encodes the table as an array of row objects
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.Rows()
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}
