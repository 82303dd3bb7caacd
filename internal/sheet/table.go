// Package sheet provides the raw table model for spreadsheet ranges and the
// reader interface used to fetch them.
//
// A [Table] is an ordered list of rows. Row 0 is the header; data operations
// address columns by header name through [Table.Index] rather than by position.
package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// CellKind identifies the dynamic type of a cell value.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindString
	KindNumber
	KindBool
)

// Cell is a single spreadsheet value.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
	Bool bool
}

// String returns a cell's text form. Numbers use the shortest decimal
// representation, booleans render as "true"/"false".
func (c Cell) String() string {
	switch c.Kind {
	case KindString:
		return c.Str
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	case KindBool:
		if c.Bool {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

// IsEmpty reports whether the cell carries no value. A string cell holding
// only whitespace is not empty; callers trim where the feed rules say so.
func (c Cell) IsEmpty() bool {
	return c.Kind == KindEmpty || (c.Kind == KindString && c.Str == "")
}

// Trimmed returns the cell's text form with surrounding whitespace removed.
func (c Cell) Trimmed() string {
	return strings.TrimSpace(c.String())
}

// Value returns the cell as a plain Go value suitable for JSON encoding.
func (c Cell) Value() any {
	switch c.Kind {
	case KindString:
		return c.Str
	case KindNumber:
		return c.Num
	case KindBool:
		return c.Bool
	default:
		return nil
	}
}

// Text builds a string cell.
func Text(s string) Cell { return Cell{Kind: KindString, Str: s} }

// Number builds a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Num: f} }

// Bool builds a boolean cell.
func Bool(b bool) Cell { return Cell{Kind: KindBool, Bool: b} }

// FromValue converts a decoded API value (string, float64, bool, nil) to a Cell.
func FromValue(v any) Cell {
	switch t := v.(type) {
	case nil:
		return Cell{}
	case string:
		return Text(t)
	case float64:
		return Number(t)
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return Bool(t)
	default:
		return Text(fmt.Sprint(t))
	}
}

// Row is one spreadsheet row. Rows may be shorter than the header.
type Row []Cell

// At returns the cell at position i, or an empty cell when the row is short.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Cell{}
	}
	return r[i]
}

// IsBlank reports whether every cell in the row is empty.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// Table is a raw spreadsheet range: header row followed by data rows.
type Table struct {
	Rows []Row
}

// NewTable builds a table from string rows. Used by tests and fixtures.
func NewTable(rows ...[]string) Table {
	t := Table{Rows: make([]Row, len(rows))}
	for i, r := range rows {
		row := make(Row, len(r))
		for j, s := range r {
			if s != "" {
				row[j] = Text(s)
			}
		}
		t.Rows[i] = row
	}
	return t
}

// Len returns the number of rows including the header.
func (t Table) Len() int { return len(t.Rows) }

// HasData reports whether the table has a header and at least one data row.
func (t Table) HasData() bool { return len(t.Rows) >= 2 }

// Header returns the trimmed header names. Empty for an empty table.
func (t Table) Header() []string {
	if len(t.Rows) == 0 {
		return nil
	}
	h := make([]string, len(t.Rows[0]))
	for i, c := range t.Rows[0] {
		h[i] = c.Trimmed()
	}
	return h
}

// Data returns the rows after the header.
func (t Table) Data() []Row {
	if len(t.Rows) < 2 {
		return nil
	}
	return t.Rows[1:]
}

// HeaderIndex maps a header name to the position of its first occurrence.
type HeaderIndex map[string]int

// Index builds a HeaderIndex over the trimmed header names. Header names are
// not guaranteed unique; the first occurrence wins.
func (t Table) Index() HeaderIndex {
	header := t.Header()
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

// Lookup returns the column position for name, or -1.
func (h HeaderIndex) Lookup(name string) int {
	if i, ok := h[name]; ok {
		return i
	}
	return -1
}
