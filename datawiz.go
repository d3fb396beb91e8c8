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

// Package datawiz reshapes energy-system scenario spreadsheets
// (installed capacity, generation, emissions, load profiles) into
// year/region/fuel-group aggregates that are ready for stacked charts.
//
// The work is split into a reference Catalog, which maps technologies to
// fuel groups, colors and a canonical stacking order, and a Pipeline of
// immutable stages:
//
//	raw sheets -> Build -> Filter -> DeriveRatio -> PivotForDisplay
//
// Each stage returns a new table and never modifies its input.
package datawiz

import (
	"github.com/sirupsen/logrus"
)

// Version gives the version number.
const Version = "0.3.0"

const (
	// FuelGroupColumn is the name of the key column added by Build
	// to hold the fuel group of each technology.
	FuelGroupColumn = "FuelGroup"

	// DefaultPeriodColumn is the default name of the time period key.
	DefaultPeriodColumn = "Year"

	// DefaultTechnologyColumn is the default name of the technology key.
	DefaultTechnologyColumn = "Tech"

	// DefaultRatioName is the default name of the derived ratio column.
	DefaultRatioName = "Complex"

	// DefaultUnmappedGroup is the fuel group given to unmapped
	// technologies under the UnmappedDefault policy.
	DefaultUnmappedGroup = "other"

	// HoursPerYear is the number of hours in a non-leap year.
	HoursPerYear = 8760.
)

// DefaultKeyColumns are the key columns shared by the capacity,
// generation and emissions exports: year, grid region, province,
// sub-provincial region and technology.
var DefaultKeyColumns = []string{"Year", "GridRegion", "Province", "SubRegion", "Tech"}

// Pipeline turns raw scenario sheets into ordered, pivoted tables.
// A Pipeline holds no per-run state, so one Pipeline can serve any
// number of independent analyses as long as the Catalog is not modified.
type Pipeline struct {
	// Catalog holds the technology reference information.
	Catalog *Catalog

	// Log receives progress and warning messages.
	Log logrus.FieldLogger
}

// NewPipeline creates a new Pipeline that uses the given catalog.
func NewPipeline(cat *Catalog) *Pipeline {
	return &Pipeline{
		Catalog: cat,
		Log:     logrus.StandardLogger(),
	}
}
