/*
Copyright © 2026 the datawiz authors.
This file is part of datawiz.

datawiz is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

datawiz is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with datawiz.  If not, see <http://www.gnu.org/licenses/>.
*/

package datawiz

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Float is a measurement that may be missing. A Float with Valid set to
// false is null, which is different from NaN or infinity: the latter are
// legitimate results of a degenerate ratio.
type Float struct {
	V     float64
	Valid bool
}

// Null is the missing value.
var Null = Float{}

// Value returns a non-null Float holding v.
func Value(v float64) Float {
	return Float{V: v, Valid: true}
}

// String returns the empty string for null values.
func (f Float) String() string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.V, 'g', -1, 64)
}

// plus adds g to f, skipping nulls. The sum of two nulls is null.
func (f Float) plus(g Float) Float {
	switch {
	case !g.Valid:
		return f
	case !f.Valid:
		return g
	}
	return Value(f.V + g.V)
}

// IsDegenerate reports whether f holds NaN or an infinity, as produced by
// dividing by zero.
func IsDegenerate(f Float) bool {
	return f.Valid && (math.IsNaN(f.V) || math.IsInf(f.V, 0))
}

// ParseFloat converts spreadsheet cell text into a Float. Empty cells are
// null. "NaN" and "Inf" are accepted.
func ParseFloat(s string) (Float, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Null, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Null, err
	}
	return Value(v), nil
}

// RawTable holds spreadsheet cells as text, exactly as read from a file.
type RawTable struct {
	// Name identifies where the table came from, e.g. a file name.
	Name string

	Header []string
	Rows   [][]string
}

// Cell returns the trimmed contents of the given cell, or the empty
// string if the row is too short.
func (r *RawTable) Cell(row, col int) string {
	if col >= len(r.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(r.Rows[row][col])
}

// Column returns the index of the header column with the given name,
// or -1 if there is no such column.
func (r *RawTable) Column(name string) int {
	for i, h := range r.Header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// Row is one record of a Table.
type Row struct {
	// Keys holds the categorical fields. The empty string is a null key.
	Keys []string

	Measures []Float
}

// Table is a long-format table of categorical key columns and numeric
// measure columns.
type Table struct {
	Keys     []string
	Measures []string
	Rows     []Row

	// Period and Technology name the key columns holding the time
	// period and the technology identifier.
	Period, Technology string
}

// Len returns the number of rows in the table.
func (t *Table) Len() int { return len(t.Rows) }

// KeyIndex returns the position of the named key column, or -1.
func (t *Table) KeyIndex(name string) int {
	return indexOf(t.Keys, name)
}

// MeasureIndex returns the position of the named measure column, or -1.
func (t *Table) MeasureIndex(name string) int {
	return indexOf(t.Measures, name)
}

// Column returns a copy of the values of the named measure.
func (t *Table) Column(measure string) ([]Float, error) {
	j := t.MeasureIndex(measure)
	if j < 0 {
		return nil, &MissingColumnError{Column: measure}
	}
	o := make([]Float, len(t.Rows))
	for i, r := range t.Rows {
		o[i] = r.Measures[j]
	}
	return o, nil
}

// Clone returns a deep copy of t.
func (t *Table) Clone() *Table {
	o := &Table{
		Keys:       append([]string(nil), t.Keys...),
		Measures:   append([]string(nil), t.Measures...),
		Rows:       make([]Row, len(t.Rows)),
		Period:     t.Period,
		Technology: t.Technology,
	}
	for i, r := range t.Rows {
		o.Rows[i] = Row{
			Keys:     append([]string(nil), r.Keys...),
			Measures: append([]Float(nil), r.Measures...),
		}
	}
	return o
}

// Sort orders the rows by their keys, comparing numeric keys such as
// years by value.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return compareKeys(t.Rows[i].Keys, t.Rows[j].Keys) < 0
	})
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// tupleKey joins a key tuple into a single map key.
func tupleKey(keys []string) string {
	return strings.Join(keys, "\x1f")
}

// compareKey compares two key values numerically when both are numbers
// and lexically otherwise. Numbers sort before text.
func compareKey(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		if fa < fb {
			return -1
		} else if fa > fb {
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

func compareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareKey(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}

// sortKeys sorts key values numerically where possible.
func sortKeys(s []string) {
	sort.SliceStable(s, func(i, j int) bool { return compareKey(s[i], s[j]) < 0 })
}
