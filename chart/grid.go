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

package chart

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// GridSize returns the number of rows and columns needed to tile n
// charts. If cols is not positive, the grid is made about square.
func GridSize(n, cols int) (rows, columns int) {
	if n <= 0 {
		return 0, 0
	}
	if cols <= 0 {
		cols = int(math.Ceil(math.Sqrt(float64(n))))
	}
	if cols > n {
		cols = n
	}
	return (n + cols - 1) / cols, cols
}

// SaveGrid tiles plots into a single PNG image at fileName, filling the
// grid row by row. Each tile has the size given in o. If cols is not
// positive, the grid is made about square.
func SaveGrid(plots []*plot.Plot, cols int, o Options, fileName string) error {
	o = o.withDefaults()
	rows, cols := GridSize(len(plots), cols)
	if rows == 0 {
		return fmt.Errorf("chart: no charts to tile")
	}
	c := vgimg.NewWith(vgimg.UseWH(o.Width*vg.Length(cols), o.Height*vg.Length(rows)), vgimg.UseDPI(96))
	dc := draw.New(c)
	tiles := draw.Tiles{
		Rows:      rows,
		Cols:      cols,
		PadTop:    vg.Points(2),
		PadBottom: vg.Points(2),
		PadLeft:   vg.Points(2),
		PadRight:  vg.Points(2),
		PadX:      2 * vg.Millimeter,
		PadY:      2 * vg.Millimeter,
	}
	for i, p := range plots {
		p.Draw(tiles.At(dc, i%cols, i/cols))
	}

	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("chart: %v", err)
	}
	if _, err = (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("chart: writing %s: %v", fileName, err)
	}
	return f.Close()
}
