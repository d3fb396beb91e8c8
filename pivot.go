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
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// WideTable holds one measure with one column per fuel group and one row
// per combination of index keys.
type WideTable struct {
	// Index names the key columns identifying each row.
	Index []string

	// Columns holds the fuel groups in stacking order.
	Columns []string

	// Measure is the name of the measure in the cells.
	Measure string

	// Keys holds the index values of each row.
	Keys [][]string

	// Values holds the cells by row and then by column. A null cell
	// means the combination does not occur in the source table.
	Values [][]Float
}

// Len returns the number of rows.
func (w *WideTable) Len() int { return len(w.Keys) }

// Column returns the values of the named column, or nil if there is no
// such column.
func (w *WideTable) Column(name string) []Float {
	j := indexOf(w.Columns, name)
	if j < 0 {
		return nil
	}
	o := make([]Float, len(w.Values))
	for i, r := range w.Values {
		o[i] = r[j]
	}
	return o
}

// Labels returns one label per row, made by joining the index values
// with sep.
func (w *WideTable) Labels(sep string) []string {
	return lo.Map(w.Keys, func(k []string, _ int) string { return strings.Join(k, sep) })
}

// Pivot turns t into a WideTable with one row per distinct combination of
// the index columns and one column per fuel group. Columns follow the
// catalog's canonical order, and groups missing from it come after,
// sorted by name. Rows with no fuel group are left out and key columns
// that are neither in index nor FuelGroup are summed over.
func (p *Pipeline) Pivot(t *Table, index []string, measure string) (*WideTable, error) {
	m := t.MeasureIndex(measure)
	if m < 0 {
		return nil, &MissingColumnError{Column: measure}
	}
	idx, err := keyIndices(t, index)
	if err != nil {
		return nil, err
	}
	group := t.KeyIndex(FuelGroupColumn)
	if group < 0 {
		return nil, &KeyMismatchError{Reason: fmt.Sprintf("table has no key column `%s`", FuelGroupColumn)}
	}
	rows := lo.Filter(t.Rows, func(r Row, _ int) bool { return r.Keys[group] != "" })

	present := lo.Uniq(lo.Map(rows, func(r Row, _ int) string { return r.Keys[group] }))
	columns := p.Catalog.FilterToPresent(present)
	extra, _ := lo.Difference(present, columns)
	sort.Strings(extra)
	columns = append(columns, extra...)
	colIndex := make(map[string]int, len(columns))
	for j, c := range columns {
		colIndex[c] = j
	}

	w := &WideTable{
		Index:   append([]string(nil), index...),
		Columns: columns,
		Measure: measure,
	}
	rowIndex := make(map[string]int)
	for _, r := range rows {
		keys := make([]string, len(idx))
		for i, j := range idx {
			keys[i] = r.Keys[j]
		}
		k := tupleKey(keys)
		i, ok := rowIndex[k]
		if !ok {
			i = len(w.Keys)
			rowIndex[k] = i
			w.Keys = append(w.Keys, keys)
			w.Values = append(w.Values, make([]Float, len(columns)))
		}
		c := colIndex[r.Keys[group]]
		w.Values[i][c] = w.Values[i][c].plus(r.Measures[m])
	}
	sort.Stable(byKeys{w})
	return w, nil
}

// byKeys sorts the rows of a WideTable by their index values.
type byKeys struct{ *WideTable }

func (b byKeys) Less(i, j int) bool { return compareKeys(b.Keys[i], b.Keys[j]) < 0 }
func (b byKeys) Swap(i, j int) {
	b.Keys[i], b.Keys[j] = b.Keys[j], b.Keys[i]
	b.Values[i], b.Values[j] = b.Values[j], b.Values[i]
}

// PivotForDisplay pivots measure into a WideTable indexed by period, and
// by region for regional tables. This is the form charts are drawn from.
func (p *Pipeline) PivotForDisplay(t *WorkingTable, measure string) (*WideTable, error) {
	index := []string{t.Period}
	if t.RegionalLevel != Nationwide && t.KeyIndex(t.RegionalLevel) >= 0 {
		index = append(index, t.RegionalLevel)
	}
	return p.Pivot(t.Table, index, measure)
}

// Unpivot turns w back into a long table with a FuelGroup key column.
// Null cells are left out.
func Unpivot(w *WideTable) *Table {
	t := &Table{
		Keys:     append(append([]string(nil), w.Index...), FuelGroupColumn),
		Measures: []string{w.Measure},
	}
	for i, keys := range w.Keys {
		for j, v := range w.Values[i] {
			if !v.Valid {
				continue
			}
			t.Rows = append(t.Rows, Row{
				Keys:     append(append([]string(nil), keys...), w.Columns[j]),
				Measures: []Float{v},
			})
		}
	}
	return t
}

// Collapse returns a WideTable with a single column called name, holding
// the first non-null value of each row. It is used for values such as an
// aggregate ratio that are the same in every column of a row.
func (w *WideTable) Collapse(name string) *WideTable {
	o := &WideTable{
		Index:   append([]string(nil), w.Index...),
		Columns: []string{name},
		Measure: w.Measure,
		Keys:    make([][]string, len(w.Keys)),
		Values:  make([][]Float, len(w.Values)),
	}
	for i, r := range w.Values {
		o.Keys[i] = append([]string(nil), w.Keys[i]...)
		o.Values[i] = []Float{Null}
		for _, v := range r {
			if v.Valid {
				o.Values[i][0] = v
				break
			}
		}
	}
	return o
}
