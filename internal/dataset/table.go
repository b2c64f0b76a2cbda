package dataset

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Column describes one normalized column.
type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Table is an ordered, immutable set of rows sharing one column set.
// Operations that narrow a table return a new Table; none mutate the receiver.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]Value
}

// New builds a table, checking that every row has one value per column and
// that each value has its column's kind.
func New(columns []Column, rows [][]Value) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		index[c.Name] = i
	}

	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", r, len(row), len(columns))
		}
		for c, v := range row {
			if v.Kind() != columns[c].Kind {
				return nil, fmt.Errorf("row %d column %q: value kind %s, want %s", r, columns[c].Name, v.Kind(), columns[c].Kind)
			}
		}
	}

	cols := make([]Column, len(columns))
	copy(cols, columns)

	return &Table{columns: cols, index: index, rows: rows}, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Columns returns a copy of the column list.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether the table has a column named name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns the column named name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// Value returns the cell at row i in column name. An unknown column yields
// a missing string.
func (t *Table) Value(i int, name string) Value {
	c, ok := t.index[name]
	if !ok {
		return Missing(KindString)
	}
	return t.rows[i][c]
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// Select returns a new table holding the given rows in the given order.
func (t *Table) Select(indices []int) *Table {
	rows := make([][]Value, len(indices))
	for i, idx := range indices {
		rows[i] = t.rows[idx]
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Equal reports whether both tables have the same columns, row order and values.
func (t *Table) Equal(o *Table) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.columns) != len(o.columns) || len(t.rows) != len(o.rows) {
		return false
	}
	for i := range t.columns {
		if t.columns[i] != o.columns[i] {
			return false
		}
	}
	for r := range t.rows {
		for c := range t.rows[r] {
			if !t.rows[r][c].Equal(o.rows[r][c]) {
				return false
			}
		}
	}
	return true
}

// Fingerprint hashes the normalized content of the table. Equal tables have
// equal fingerprints.
func (t *Table) Fingerprint() uint64 {
	h := xxh3.New()
	for _, c := range t.columns {
		_, _ = h.WriteString(c.Name)
		_, _ = h.WriteString("\x1f" + strconv.Itoa(int(c.Kind)) + "\x1e")
	}
	for _, row := range t.rows {
		for _, v := range row {
			if v.IsMissing() {
				_, _ = h.WriteString("\x00")
			} else {
				_, _ = h.WriteString(v.Text())
			}
			_, _ = h.WriteString("\x1f")
		}
		_, _ = h.WriteString("\x1e")
	}
	return h.Sum64()
}
