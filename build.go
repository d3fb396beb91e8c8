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
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// UnmappedPolicy specifies what Build does with technologies that have
// no fuel group in the catalog.
type UnmappedPolicy int

const (
	// UnmappedKeep keeps such rows with a null fuel group.
	UnmappedKeep UnmappedPolicy = iota
	// UnmappedDefault assigns them BuildOptions.DefaultGroup.
	UnmappedDefault
	// UnmappedError makes Build fail with an *UnmappedTechnologyError.
	UnmappedError
)

var unmappedNames = []string{"keep", "default", "error"}

func (u UnmappedPolicy) String() string {
	if int(u) < len(unmappedNames) {
		return unmappedNames[u]
	}
	return fmt.Sprintf("UnmappedPolicy(%d)", int(u))
}

// ParseUnmappedPolicy converts "keep", "default" or "error" into an
// UnmappedPolicy.
func ParseUnmappedPolicy(s string) (UnmappedPolicy, error) {
	i := indexOf(unmappedNames, strings.ToLower(strings.TrimSpace(s)))
	if i < 0 {
		return 0, fmt.Errorf("datawiz: invalid unmapped technology policy `%s`", s)
	}
	return UnmappedPolicy(i), nil
}

// SourceSpec describes how to read one raw table.
type SourceSpec struct {
	// Name identifies the source in errors and log messages. The table
	// name is used if it is empty.
	Name string

	Table *RawTable

	// SkipColumns is the number of leading columns to discard, such as
	// an exported row index.
	SkipColumns int

	// KeyColumns names the key columns that follow the skipped ones.
	// Header text is ignored: columns are renamed by position.
	KeyColumns []string

	// MeasureColumns optionally names the columns after the keys, by
	// position. Otherwise their header text is used.
	MeasureColumns []string

	// Measure is the measure column to keep.
	Measure string
}

func (s SourceSpec) name() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Table != nil {
		return s.Table.Name
	}
	return ""
}

// BuildOptions specifies how sources are combined.
type BuildOptions struct {
	// PeriodColumn and TechnologyColumn name the time period and
	// technology key columns. They default to DefaultPeriodColumn and
	// DefaultTechnologyColumn.
	PeriodColumn     string
	TechnologyColumn string

	Unmapped UnmappedPolicy

	// DefaultGroup is used with UnmappedDefault. It defaults to
	// DefaultUnmappedGroup.
	DefaultGroup string
}

func (o BuildOptions) withDefaults() BuildOptions {
	if o.PeriodColumn == "" {
		o.PeriodColumn = DefaultPeriodColumn
	}
	if o.TechnologyColumn == "" {
		o.TechnologyColumn = DefaultTechnologyColumn
	}
	if o.DefaultGroup == "" {
		o.DefaultGroup = DefaultUnmappedGroup
	}
	return o
}

// Build combines sources into one table with one measure column per
// source. Sources are outer-joined on their key columns, so a key
// combination found in only one source has null measures for the others.
// Duplicate key combinations within a source are summed. A FuelGroup key
// column is appended from the catalog, and rows where every measure is
// exactly zero are dropped.
func (p *Pipeline) Build(sources []SourceSpec, opts BuildOptions) (*Table, error) {
	opts = opts.withDefaults()
	keys, err := checkSources(sources, opts)
	if err != nil {
		return nil, err
	}
	measures := lo.Map(sources, func(s SourceSpec, _ int) string { return s.Measure })
	if dup := lo.FindDuplicates(measures); len(dup) > 0 {
		return nil, &KeyMismatchError{Reason: fmt.Sprintf("measure `%s` is declared by more than one source", dup[0])}
	}

	t := &Table{
		Keys:       keys,
		Measures:   measures,
		Period:     opts.PeriodColumn,
		Technology: opts.TechnologyColumn,
	}
	index := make(map[string]int)
	for j, s := range sources {
		rows, err := extract(s)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			k := tupleKey(r.Keys)
			i, ok := index[k]
			if !ok {
				i = len(t.Rows)
				index[k] = i
				t.Rows = append(t.Rows, Row{Keys: r.Keys, Measures: make([]Float, len(measures))})
			}
			t.Rows[i].Measures[j] = t.Rows[i].Measures[j].plus(r.Measures[0])
		}
	}

	if err := p.enrich(t, opts); err != nil {
		return nil, err
	}

	n := len(t.Rows)
	t.Rows = lo.Filter(t.Rows, func(r Row, _ int) bool { return recordsActivity(r.Measures) })
	p.Log.WithFields(logrus.Fields{
		"sources": len(sources),
		"rows":    len(t.Rows),
		"dropped": n - len(t.Rows),
	}).Info("datawiz: built table")
	return t, nil
}

// Concat stacks sources that share key columns and a measure name,
// without joining or summing, and appends the FuelGroup key column.
func (p *Pipeline) Concat(sources []SourceSpec, opts BuildOptions) (*Table, error) {
	opts = opts.withDefaults()
	keys, err := checkSources(sources, opts)
	if err != nil {
		return nil, err
	}
	for _, s := range sources[1:] {
		if s.Measure != sources[0].Measure {
			return nil, &KeyMismatchError{
				Source: s.name(),
				Reason: fmt.Sprintf("measure `%s` differs from `%s`", s.Measure, sources[0].Measure),
			}
		}
	}
	t := &Table{
		Keys:       keys,
		Measures:   []string{sources[0].Measure},
		Period:     opts.PeriodColumn,
		Technology: opts.TechnologyColumn,
	}
	for _, s := range sources {
		rows, err := extract(s)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, rows...)
	}
	if err := p.enrich(t, opts); err != nil {
		return nil, err
	}
	p.Log.WithFields(logrus.Fields{
		"sources": len(sources),
		"rows":    len(t.Rows),
	}).Info("datawiz: concatenated tables")
	return t, nil
}

// checkSources makes sure that all sources declare the same keys and
// returns the keys.
func checkSources(sources []SourceSpec, opts BuildOptions) ([]string, error) {
	if len(sources) == 0 {
		return nil, &KeyMismatchError{Reason: "no sources"}
	}
	keys := sources[0].KeyColumns
	for _, s := range sources {
		if s.Table == nil {
			return nil, &KeyMismatchError{Source: s.name(), Reason: "no table"}
		}
		if !equalStrings(s.KeyColumns, keys) {
			return nil, &KeyMismatchError{
				Source: s.name(),
				Reason: fmt.Sprintf("key columns [%s] differ from [%s]",
					strings.Join(s.KeyColumns, ", "), strings.Join(keys, ", ")),
			}
		}
		if s.Measure == "" {
			return nil, &KeyMismatchError{Source: s.name(), Reason: "no measure column specified"}
		}
	}
	if dup := lo.FindDuplicates(keys); len(dup) > 0 {
		return nil, &KeyMismatchError{Reason: fmt.Sprintf("duplicate key column `%s`", dup[0])}
	}
	for _, k := range []string{opts.PeriodColumn, opts.TechnologyColumn} {
		if indexOf(keys, k) < 0 {
			return nil, &KeyMismatchError{Reason: fmt.Sprintf("key columns do not include `%s`", k)}
		}
	}
	if indexOf(keys, FuelGroupColumn) >= 0 {
		return nil, &KeyMismatchError{Reason: fmt.Sprintf("`%s` is a reserved column name", FuelGroupColumn)}
	}
	return append([]string(nil), keys...), nil
}

// extract reads the key columns and the declared measure of one source.
// Blank rows are skipped.
func extract(s SourceSpec) ([]Row, error) {
	raw := s.Table
	nKeys := len(s.KeyColumns)
	first := s.SkipColumns + nKeys
	if len(raw.Header) <= first {
		return nil, &KeyMismatchError{
			Source: s.name(),
			Reason: fmt.Sprintf("%d columns, but %d skipped and %d key columns need at least one measure after them",
				len(raw.Header), s.SkipColumns, nKeys),
		}
	}
	col := -1
	for i := first; i < len(raw.Header); i++ {
		name := strings.TrimSpace(raw.Header[i])
		if m := i - first; m < len(s.MeasureColumns) {
			name = s.MeasureColumns[m]
		}
		if name == s.Measure {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, &KeyMismatchError{Source: s.name(), Reason: fmt.Sprintf("no measure column `%s`", s.Measure)}
	}

	rows := make([]Row, 0, len(raw.Rows))
	for i := range raw.Rows {
		if blankRow(raw.Rows[i]) {
			continue
		}
		r := Row{Keys: make([]string, nKeys)}
		for k := range r.Keys {
			r.Keys[k] = raw.Cell(i, s.SkipColumns+k)
		}
		v, err := ParseFloat(raw.Cell(i, col))
		if err != nil {
			return nil, fmt.Errorf("datawiz: source `%s` row %d column `%s`: %w", s.name(), i+2, s.Measure, err)
		}
		r.Measures = []Float{v}
		rows = append(rows, r)
	}
	return rows, nil
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// enrich appends the FuelGroup key column to every row of t.
func (p *Pipeline) enrich(t *Table, opts BuildOptions) error {
	tech := t.KeyIndex(opts.TechnologyColumn)
	var unmapped []string
	for i, r := range t.Rows {
		g, ok := p.Catalog.GroupOf(r.Keys[tech])
		if !ok {
			unmapped = append(unmapped, r.Keys[tech])
			if opts.Unmapped == UnmappedDefault {
				g = opts.DefaultGroup
			}
		}
		t.Rows[i].Keys = append(r.Keys, g)
	}
	t.Keys = append(t.Keys, FuelGroupColumn)
	if len(unmapped) == 0 {
		return nil
	}
	unmapped = lo.Uniq(unmapped)
	if opts.Unmapped == UnmappedError {
		return &UnmappedTechnologyError{Technologies: unmapped}
	}
	p.Log.WithFields(logrus.Fields{
		"technologies": unmapped,
		"policy":       opts.Unmapped,
	}).Warn("datawiz: technologies with no fuel group")
	return nil
}

// recordsActivity reports whether a row has at least one measure that
// is null or not exactly zero.
func recordsActivity(m []Float) bool {
	for _, v := range m {
		if !v.Valid || v.V != 0 {
			return true
		}
	}
	return false
}
