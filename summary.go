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

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary gives descriptive statistics for one measure column.
// NaN and infinite values are counted as Degenerate and left out of the
// statistics.
type Summary struct {
	Measure string

	Count, Nulls, Degenerate int

	Sum, Mean, StdDev, Min, Max float64
}

// Describe summarizes every measure column of t.
func Describe(t *Table) []Summary {
	o := make([]Summary, len(t.Measures))
	for j, m := range t.Measures {
		s := Summary{Measure: m}
		var x []float64
		for _, r := range t.Rows {
			switch v := r.Measures[j]; {
			case !v.Valid:
				s.Nulls++
			case IsDegenerate(v):
				s.Degenerate++
			default:
				x = append(x, v.V)
			}
		}
		s.Count = len(x)
		if len(x) == 0 {
			s.Mean, s.StdDev, s.Min, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN()
		} else {
			s.Sum = floats.Sum(x)
			s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
			s.Min, s.Max = floats.Min(x), floats.Max(x)
		}
		o[j] = s
	}
	return o
}
