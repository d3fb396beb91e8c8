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
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// FallbackColor is the color of fuel groups that have no catalog color.
const FallbackColor = "#111111"

// ReferenceEntry maps one technology to its fuel group, display color
// and stacking rank.
type ReferenceEntry struct {
	Technology string
	FuelGroup  string
	HexColor   string

	// Order is the stacking rank. It is only meaningful if HasOrder is
	// true.
	Order    int
	HasOrder bool
}

// catalogColumns are the required reference table columns, each followed
// by the header names accepted in its place.
var catalogColumns = [][]string{
	{"Technology", "Tech"},
	{"FuelGroup", "Fuel_Group"},
	{"HexColor", "HEX"},
	{"Order"},
}

// Catalog holds technology reference information. It is not modified
// after it is created, so it can be shared between goroutines.
type Catalog struct {
	entries []ReferenceEntry
	groupOf map[string]string
	colors  map[string]string
	groups  []string
	order   []string
}

// LoadCatalog creates a Catalog from a reference table with the columns
// Technology, FuelGroup, HexColor and Order. Blank technology rows are
// ignored and blank Order cells mean the entry has no rank.
func LoadCatalog(raw *RawTable) (*Catalog, error) {
	var cols []int
	var missing []string
	for _, names := range catalogColumns {
		i := -1
		for _, n := range names {
			if i = raw.Column(n); i >= 0 {
				break
			}
		}
		if i < 0 {
			missing = append(missing, names[0])
		}
		cols = append(cols, i)
	}
	if len(missing) > 0 {
		return nil, &MalformedCatalogError{Missing: missing}
	}

	var entries []ReferenceEntry
	for r := range raw.Rows {
		e := ReferenceEntry{
			Technology: raw.Cell(r, cols[0]),
			FuelGroup:  raw.Cell(r, cols[1]),
			HexColor:   raw.Cell(r, cols[2]),
		}
		if e.Technology == "" {
			continue
		}
		if o := raw.Cell(r, cols[3]); o != "" {
			v, err := strconv.ParseFloat(o, 64)
			if err != nil || v != math.Trunc(v) {
				return nil, &MalformedCatalogError{
					Reason: fmt.Sprintf("technology `%s` has invalid order `%s`", e.Technology, o),
				}
			}
			e.Order, e.HasOrder = int(v), true
		}
		entries = append(entries, e)
	}
	return NewCatalog(entries)
}

// NewCatalog creates a Catalog from the given entries. Technologies must
// be unique.
func NewCatalog(entries []ReferenceEntry) (*Catalog, error) {
	c := &Catalog{
		entries: append([]ReferenceEntry(nil), entries...),
		groupOf: make(map[string]string),
		colors:  make(map[string]string),
	}
	for _, e := range entries {
		if _, ok := c.groupOf[e.Technology]; ok {
			return nil, &MalformedCatalogError{
				Reason: fmt.Sprintf("duplicate technology `%s`", e.Technology),
			}
		}
		c.groupOf[e.Technology] = e.FuelGroup
		if e.FuelGroup == "" {
			continue
		}
		c.groups = append(c.groups, e.FuelGroup)
		if e.HexColor != "" {
			c.colors[e.FuelGroup] = e.HexColor
		}
	}
	c.groups = lo.Uniq(c.groups)

	ranked := lo.Filter(c.entries, func(e ReferenceEntry, _ int) bool {
		return e.HasOrder && e.FuelGroup != ""
	})
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Order < ranked[j].Order })
	c.order = lo.Uniq(lo.Map(ranked, func(e ReferenceEntry, _ int) string { return e.FuelGroup }))
	return c, nil
}

// ColorOf returns the hex color of the given fuel group, or
// FallbackColor if the group has none.
func (c *Catalog) ColorOf(group string) string {
	if col, ok := c.colors[group]; ok {
		return col
	}
	return FallbackColor
}

// GroupOf returns the fuel group of the given technology. ok is false if
// the technology is not in the catalog or has no group.
func (c *Catalog) GroupOf(tech string) (group string, ok bool) {
	group = c.groupOf[tech]
	return group, group != ""
}

// CanonicalOrder returns the fuel groups in stacking order.
func (c *Catalog) CanonicalOrder() []string {
	return append([]string(nil), c.order...)
}

// FilterToPresent returns the groups of the canonical order that are in
// candidates, in canonical order.
func (c *Catalog) FilterToPresent(candidates []string) []string {
	present := lo.SliceToMap(candidates, func(g string) (string, struct{}) { return g, struct{}{} })
	return lo.Filter(c.order, func(g string, _ int) bool {
		_, ok := present[g]
		return ok
	})
}

// Groups returns every fuel group in the catalog, ranked or not, in the
// order they first appear.
func (c *Catalog) Groups() []string {
	return append([]string(nil), c.groups...)
}

// Technologies returns the catalog technologies in input order.
func (c *Catalog) Technologies() []string {
	return lo.Map(c.entries, func(e ReferenceEntry, _ int) string { return e.Technology })
}

// Entries returns a copy of the catalog entries.
func (c *Catalog) Entries() []ReferenceEntry {
	return append([]ReferenceEntry(nil), c.entries...)
}
