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

package xlsxio

import (
	"fmt"
	"strconv"

	"github.com/spatialmodel/datawiz"
	"github.com/tealeg/xlsx"
)

// maxSheetName is the longest sheet name Excel accepts.
const maxSheetName = 31

// Sheet is one sheet of a workbook to be written.
type Sheet struct {
	Name string
	Rows [][]Cell
}

// Cell is one spreadsheet cell. Null cells are left empty.
type Cell struct {
	Text   string
	Number datawiz.Float
}

// TextCell returns a cell holding s.
func TextCell(s string) Cell { return Cell{Text: s} }

// NumberCell returns a cell holding v.
func NumberCell(v datawiz.Float) Cell { return Cell{Number: v} }

// Write saves the given sheets as a Microsoft Excel file.
func Write(fileName string, sheets ...Sheet) error {
	f := xlsx.NewFile()
	for i, sh := range sheets {
		name := sh.Name
		if name == "" {
			name = fmt.Sprintf("Sheet%d", i+1)
		}
		if r := []rune(name); len(r) > maxSheetName {
			name = string(r[:maxSheetName])
		}
		s, err := f.AddSheet(name)
		if err != nil {
			return fmt.Errorf("xlsxio: adding sheet %s: %v", name, err)
		}
		for _, cells := range sh.Rows {
			row := s.AddRow()
			for _, c := range cells {
				setCell(row.AddCell(), c)
			}
		}
	}
	if err := f.Save(fileName); err != nil {
		return fmt.Errorf("xlsxio: saving %s: %v", fileName, err)
	}
	return nil
}

// setCell writes finite numbers as numbers, NaN and infinities as text
// and nulls as empty cells.
func setCell(xc *xlsx.Cell, c Cell) {
	switch {
	case datawiz.IsDegenerate(c.Number):
		xc.SetString(strconv.FormatFloat(c.Number.V, 'g', -1, 64))
	case c.Number.Valid:
		xc.SetFloat(c.Number.V)
	case c.Text != "":
		xc.SetString(c.Text)
	}
}

// TableSheet converts a long table into a sheet with one column per key
// and measure.
func TableSheet(name string, t *datawiz.Table) Sheet {
	s := Sheet{Name: name}
	header := make([]Cell, 0, len(t.Keys)+len(t.Measures))
	for _, k := range t.Keys {
		header = append(header, TextCell(k))
	}
	for _, m := range t.Measures {
		header = append(header, TextCell(m))
	}
	s.Rows = append(s.Rows, header)
	for _, r := range t.Rows {
		row := make([]Cell, 0, len(header))
		for _, k := range r.Keys {
			row = append(row, TextCell(k))
		}
		for _, v := range r.Measures {
			row = append(row, NumberCell(v))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// WideSheet converts a wide table into a sheet with the index columns
// followed by one column per fuel group.
func WideSheet(name string, w *datawiz.WideTable) Sheet {
	s := Sheet{Name: name}
	header := make([]Cell, 0, len(w.Index)+len(w.Columns))
	for _, k := range w.Index {
		header = append(header, TextCell(k))
	}
	for _, c := range w.Columns {
		header = append(header, TextCell(c))
	}
	s.Rows = append(s.Rows, header)
	for i, keys := range w.Keys {
		row := make([]Cell, 0, len(header))
		for _, k := range keys {
			row = append(row, TextCell(k))
		}
		for _, v := range w.Values[i] {
			row = append(row, NumberCell(v))
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// SummarySheet converts measure statistics into a sheet.
func SummarySheet(name string, summaries []datawiz.Summary) Sheet {
	s := Sheet{Name: name}
	s.Rows = append(s.Rows, []Cell{
		TextCell("Measure"), TextCell("Count"), TextCell("Nulls"), TextCell("Degenerate"),
		TextCell("Sum"), TextCell("Mean"), TextCell("StdDev"), TextCell("Min"), TextCell("Max"),
	})
	for _, m := range summaries {
		s.Rows = append(s.Rows, []Cell{
			TextCell(m.Measure),
			NumberCell(datawiz.Value(float64(m.Count))),
			NumberCell(datawiz.Value(float64(m.Nulls))),
			NumberCell(datawiz.Value(float64(m.Degenerate))),
			NumberCell(datawiz.Value(m.Sum)),
			NumberCell(datawiz.Value(m.Mean)),
			NumberCell(datawiz.Value(m.StdDev)),
			NumberCell(datawiz.Value(m.Min)),
			NumberCell(datawiz.Value(m.Max)),
		})
	}
	return s
}

// WriteTable saves a long table as a Microsoft Excel file.
func WriteTable(fileName string, t *datawiz.Table) error {
	return Write(fileName, TableSheet("data", t))
}

// WriteWide saves a wide table as a Microsoft Excel file.
func WriteWide(fileName string, w *datawiz.WideTable) error {
	return Write(fileName, WideSheet(w.Measure, w))
}
