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
)

// Nationwide is the regional level that sums over all regions.
const Nationwide = ""

// nationwideAliases are accepted in configuration in place of Nationwide.
var nationwideAliases = []string{"nationwide", "全国"}

// SelectionMode specifies how a Selection treats its values.
type SelectionMode int

const (
	// SelectAll keeps everything.
	SelectAll SelectionMode = iota
	// SelectOnly keeps only the listed values.
	SelectOnly
	// SelectAllExcept keeps everything except the listed values.
	SelectAllExcept
)

// Selection chooses a subset of categorical values. The zero value keeps
// everything.
type Selection struct {
	mode   SelectionMode
	values []string
}

// Unfiltered returns a Selection that keeps every value.
func Unfiltered() Selection { return Selection{} }

// OnlyThese returns a Selection that keeps only the given values.
func OnlyThese(values ...string) Selection {
	return Selection{mode: SelectOnly, values: lo.Uniq(values)}
}

// AllExcept returns a Selection that keeps everything except the given
// values.
func AllExcept(values ...string) Selection {
	return Selection{mode: SelectAllExcept, values: lo.Uniq(values)}
}

// Mode returns the selection mode.
func (s Selection) Mode() SelectionMode { return s.mode }

// Values returns the listed values.
func (s Selection) Values() []string { return append([]string(nil), s.values...) }

// Keep reports whether v is selected.
func (s Selection) Keep(v string) bool {
	switch s.mode {
	case SelectOnly:
		return lo.Contains(s.values, v)
	case SelectAllExcept:
		return !lo.Contains(s.values, v)
	default:
		return true
	}
}

func (s Selection) String() string {
	switch s.mode {
	case SelectOnly:
		return fmt.Sprintf("only [%s]", strings.Join(s.values, ", "))
	case SelectAllExcept:
		return fmt.Sprintf("all except [%s]", strings.Join(s.values, ", "))
	default:
		return "all"
	}
}

// FilterConfig holds user-facing filter settings as they appear in
// configuration files.
type FilterConfig struct {
	// RegionalLevel is the name of the region key column to keep when
	// grouping. Empty, "nationwide" or "全国" sum over all regions.
	RegionalLevel string

	// IncludedTechGroups and ExcludedTechGroups list fuel groups to
	// keep or drop. At most one of them may be set.
	IncludedTechGroups []string
	ExcludedTechGroups []string

	// SelectedRegions lists regions to keep, or to drop when
	// RegionSelectReverse is true. An empty list keeps every region.
	SelectedRegions     []string
	RegionSelectReverse bool
}

// FilterOptions specifies how Filter selects and groups rows.
type FilterOptions struct {
	RegionalLevel string
	TechGroups    Selection
	Regions       Selection
}

// NewFilterOptions validates cfg and converts it into FilterOptions.
func NewFilterOptions(cfg FilterConfig) (FilterOptions, error) {
	var o FilterOptions
	if len(cfg.IncludedTechGroups) > 0 && len(cfg.ExcludedTechGroups) > 0 {
		return o, &InvalidFilterConfigError{
			Reason: "both included and excluded technology groups are set",
		}
	}
	o.RegionalLevel = strings.TrimSpace(cfg.RegionalLevel)
	if lo.Contains(nationwideAliases, strings.ToLower(o.RegionalLevel)) {
		o.RegionalLevel = Nationwide
	}
	switch {
	case len(cfg.IncludedTechGroups) > 0:
		o.TechGroups = OnlyThese(cfg.IncludedTechGroups...)
	case len(cfg.ExcludedTechGroups) > 0:
		o.TechGroups = AllExcept(cfg.ExcludedTechGroups...)
	}
	switch {
	case len(cfg.SelectedRegions) == 0:
	case cfg.RegionSelectReverse:
		o.Regions = AllExcept(cfg.SelectedRegions...)
	default:
		o.Regions = OnlyThese(cfg.SelectedRegions...)
	}
	return o, nil
}
