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
)

// MalformedCatalogError is returned when a reference table cannot be
// loaded as a Catalog.
type MalformedCatalogError struct {
	// Missing lists the required columns that were not found.
	Missing []string

	// Reason describes any other problem.
	Reason string
}

func (err *MalformedCatalogError) Error() string {
	if len(err.Missing) > 0 {
		return fmt.Sprintf("datawiz: malformed catalog: missing column(s) `%s`", strings.Join(err.Missing, "`, `"))
	}
	return "datawiz: malformed catalog: " + err.Reason
}

// KeyMismatchError is returned when source tables cannot be combined
// because their key columns disagree or are missing.
type KeyMismatchError struct {
	Source string
	Reason string
}

func (err *KeyMismatchError) Error() string {
	if err.Source == "" {
		return "datawiz: key mismatch: " + err.Reason
	}
	return fmt.Sprintf("datawiz: key mismatch in source `%s`: %s", err.Source, err.Reason)
}

// UnmappedTechnologyError is returned by Build under the UnmappedError
// policy when technologies have no catalog entry.
type UnmappedTechnologyError struct {
	Technologies []string
}

func (err *UnmappedTechnologyError) Error() string {
	return fmt.Sprintf("datawiz: technologies with no fuel group: `%s`", strings.Join(err.Technologies, "`, `"))
}

// InvalidFilterConfigError is returned when a FilterConfig contradicts
// itself.
type InvalidFilterConfigError struct {
	Reason string
}

func (err *InvalidFilterConfigError) Error() string {
	return "datawiz: invalid filter configuration: " + err.Reason
}

// MissingColumnError is returned when a requested measure column does
// not exist.
type MissingColumnError struct {
	Column string
}

func (err *MissingColumnError) Error() string {
	return fmt.Sprintf("datawiz: no column `%s`", err.Column)
}
