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

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// WorkingTable is a Table that has been filtered and grouped, together
// with a record of how it was produced.
type WorkingTable struct {
	*Table

	// RegionalLevel is the region key column kept when grouping, or
	// Nationwide.
	RegionalLevel string

	TechGroupSelection Selection
	RegionSelection    Selection

	// Derived is the name of the most recently derived column, if any.
	Derived string

	// Region is set when the table was restricted to a single region
	// by ForRegion.
	Region string
}

// with returns a copy of w holding table t.
func (w *WorkingTable) with(t *Table) *WorkingTable {
	o := *w
	o.Table = t
	return &o
}

// Filter selects fuel groups, sums every measure by period, fuel group
// and (unless opts.RegionalLevel is Nationwide) region, and then selects
// regions. Rows without a fuel group are left out. Combinations that do
// not occur in raw do not appear in the output.
func (p *Pipeline) Filter(raw *Table, opts FilterOptions) (*WorkingTable, error) {
	period := raw.Period
	if period == "" {
		period = DefaultPeriodColumn
	}
	by := []string{period}
	if opts.RegionalLevel != Nationwide {
		by = append(by, opts.RegionalLevel)
	}
	by = append(by, FuelGroupColumn)
	idx, err := keyIndices(raw, by)
	if err != nil {
		return nil, err
	}
	group := idx[len(idx)-1]

	rows := lo.Filter(raw.Rows, func(r Row, _ int) bool {
		return r.Keys[group] == "" || opts.TechGroups.Keep(r.Keys[group])
	})
	t, nulls := groupSum(raw, rows, idx)
	noGroup := lo.CountBy(rows, func(r Row) bool { return r.Keys[group] == "" })
	if noGroup > 0 {
		p.Log.WithField("rows", noGroup).Warn("datawiz: leaving out rows with no fuel group")
	}
	if n := nulls - noGroup; n > 0 {
		p.Log.WithField("rows", n).Warn("datawiz: leaving out rows with null keys")
	}
	t.Period = period

	if opts.RegionalLevel != Nationwide {
		t.Rows = lo.Filter(t.Rows, func(r Row, _ int) bool { return opts.Regions.Keep(r.Keys[1]) })
	}
	t.Sort()
	p.Log.WithFields(logrus.Fields{
		"level":      opts.RegionalLevel,
		"techGroups": opts.TechGroups.String(),
		"regions":    opts.Regions.String(),
		"rowsIn":     len(raw.Rows),
		"rowsOut":    len(t.Rows),
	}).Info("datawiz: filtered table")

	w := &WorkingTable{
		Table:              t,
		RegionalLevel:      opts.RegionalLevel,
		TechGroupSelection: opts.TechGroups,
		RegionSelection:    opts.Regions,
	}
	if opts.RegionalLevel == Nationwide {
		w.RegionSelection = Unfiltered()
	}
	return w, nil
}

// GroupSum sums every measure of t by the given key columns. Rows with a
// null value in any of those columns are left out.
func (p *Pipeline) GroupSum(t *Table, keys []string) (*Table, error) {
	idx, err := keyIndices(t, keys)
	if err != nil {
		return nil, err
	}
	o, nulls := groupSum(t, t.Rows, idx)
	if nulls > 0 {
		p.Log.WithField("rows", nulls).Warn("datawiz: leaving out rows with null keys")
	}
	o.Sort()
	return o, nil
}

func keyIndices(t *Table, keys []string) ([]int, error) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		if idx[i] = t.KeyIndex(k); idx[i] < 0 {
			return nil, &KeyMismatchError{Reason: fmt.Sprintf("table has no key column `%s`", k)}
		}
	}
	return idx, nil
}

// groupSum sums the measures of rows by the key columns at idx, in order
// of first appearance. It also returns the number of rows left out
// because of null keys.
func groupSum(t *Table, rows []Row, idx []int) (*Table, int) {
	o := &Table{
		Keys:     make([]string, len(idx)),
		Measures: append([]string(nil), t.Measures...),
	}
	for i, j := range idx {
		o.Keys[i] = t.Keys[j]
	}
	if indexOf(o.Keys, t.Period) >= 0 {
		o.Period = t.Period
	}
	if indexOf(o.Keys, t.Technology) >= 0 {
		o.Technology = t.Technology
	}

	var nulls int
	index := make(map[string]int)
rows:
	for _, r := range rows {
		keys := make([]string, len(idx))
		for i, j := range idx {
			if r.Keys[j] == "" {
				nulls++
				continue rows
			}
			keys[i] = r.Keys[j]
		}
		k := tupleKey(keys)
		i, ok := index[k]
		if !ok {
			i = len(o.Rows)
			index[k] = i
			o.Rows = append(o.Rows, Row{Keys: keys, Measures: make([]Float, len(o.Measures))})
		}
		for m, v := range r.Measures {
			o.Rows[i].Measures[m] = o.Rows[i].Measures[m].plus(v)
		}
	}
	return o, nulls
}

// ForRegion returns the rows of a regional table that belong to region,
// without the region column.
func (w *WorkingTable) ForRegion(region string) (*WorkingTable, error) {
	if w.RegionalLevel == Nationwide {
		return nil, fmt.Errorf("datawiz: selecting region `%s` from a nationwide table", region)
	}
	col := w.KeyIndex(w.RegionalLevel)
	if col < 0 {
		return nil, &KeyMismatchError{Reason: fmt.Sprintf("table has no key column `%s`", w.RegionalLevel)}
	}
	t := &Table{
		Keys:       append(append([]string(nil), w.Keys[:col]...), w.Keys[col+1:]...),
		Measures:   append([]string(nil), w.Measures...),
		Period:     w.Period,
		Technology: w.Technology,
	}
	for _, r := range w.Rows {
		if r.Keys[col] != region {
			continue
		}
		t.Rows = append(t.Rows, Row{
			Keys:     append(append([]string(nil), r.Keys[:col]...), r.Keys[col+1:]...),
			Measures: append([]Float(nil), r.Measures...),
		})
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("datawiz: region `%s` is not in the table", region)
	}
	o := w.with(t)
	o.Region = region
	return o, nil
}

// Regions returns the distinct regions in a regional table, sorted. It
// returns nil for nationwide tables.
func (w *WorkingTable) Regions() []string {
	col := w.KeyIndex(w.RegionalLevel)
	if w.RegionalLevel == Nationwide || col < 0 {
		return nil
	}
	o := lo.Uniq(lo.Map(w.Rows, func(r Row, _ int) string { return r.Keys[col] }))
	sortKeys(o)
	return o
}
