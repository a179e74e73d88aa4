package conditioning

import (
	"fmt"
	"strings"
)

// Column is a named value column of a Table.
type Column struct {
	Name   string
	Values []float64
}

// Table is a time-indexed set of equal-length columns. Index holds the
// timestamp in seconds of every row and may be nil, in which case rows are
// assumed to be sampled at the configured rate from zero.
type Table struct {
	Index   []float64
	Columns []Column
}

// Rows returns the number of rows in the table.
func (t Table) Rows() int {
	if t.Index != nil {
		return len(t.Index)
	}
	if len(t.Columns) > 0 {
		return len(t.Columns[0].Values)
	}
	return 0
}

// Validate checks that every column has one value per row.
func (t Table) Validate() error {
	rows := t.Rows()
	for _, c := range t.Columns {
		if len(c.Values) != rows {
			return fmt.Errorf("%w: column %q has %d values, want %d", ErrRaggedTable, c.Name, len(c.Values), rows)
		}
	}
	return nil
}

// Column returns the column with the given name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Names returns the column names in order.
func (t Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Marked returns the positions of the columns whose name contains marker.
// The match is case-sensitive.
func (t Table) Marked(marker string) []int {
	var out []int
	for i, c := range t.Columns {
		if strings.Contains(c.Name, marker) {
			out = append(out, i)
		}
	}
	return out
}

// With returns a copy of the table with col replacing the column of the same
// name, or appended when no such column exists. Column values are shared,
// not copied.
func (t Table) With(col Column) Table {
	out := Table{Index: t.Index, Columns: make([]Column, len(t.Columns), len(t.Columns)+1)}
	copy(out.Columns, t.Columns)
	for i, c := range out.Columns {
		if c.Name == col.Name {
			out.Columns[i] = col
			return out
		}
	}
	out.Columns = append(out.Columns, col)
	return out
}

// Select returns a new table holding only the rows where keep is true.
func (t Table) Select(keep []bool) (Table, error) {
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	if len(keep) != t.Rows() {
		return Table{}, fmt.Errorf("%w: row mask has %d entries, want %d", ErrRaggedTable, len(keep), t.Rows())
	}
	pick := func(values []float64) []float64 {
		out := make([]float64, 0, len(values))
		for i, v := range values {
			if keep[i] {
				out = append(out, v)
			}
		}
		return out
	}
	out := Table{Columns: make([]Column, len(t.Columns))}
	if t.Index != nil {
		out.Index = pick(t.Index)
	}
	for i, c := range t.Columns {
		out.Columns[i] = Column{Name: c.Name, Values: pick(c.Values)}
	}
	return out, nil
}
