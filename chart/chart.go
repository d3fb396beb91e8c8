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

// Package chart draws pivoted pipeline tables as stacked bar, stacked
// area and line charts, using the fuel group colors from a catalog.
package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/spatialmodel/datawiz"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Options specifies the appearance of a chart.
type Options struct {
	Title, XLabel, YLabel string

	// Width and Height are the size of one chart. They default to 7
	// by 4 inches.
	Width, Height vg.Length

	// BarWidth is the width of each bar. By default the bars fill
	// most of the chart width.
	BarWidth vg.Length

	// LogScale draws the Y axis on a logarithmic scale. It is only
	// allowed for line charts with positive values.
	LogScale bool
}

func (o Options) withDefaults() Options {
	if o.Width == 0 {
		o.Width = 7 * vg.Inch
	}
	if o.Height == 0 {
		o.Height = 4 * vg.Inch
	}
	return o
}

// ParseColor converts a hex color such as "#1f77b4" or "#abc" into a
// color.
func ParseColor(hex string) (color.Color, error) {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("chart: invalid color `%s`", hex)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("chart: invalid color `%s`", hex)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// groupColor returns the catalog color of group, or the fallback color
// if the catalog color cannot be parsed.
func groupColor(cat *datawiz.Catalog, group string) color.Color {
	c, err := ParseColor(cat.ColorOf(group))
	if err != nil {
		c, _ = ParseColor(datawiz.FallbackColor)
	}
	return c
}

func newPlot(w *datawiz.WideTable, o Options) (*plot.Plot, error) {
	p, err := plot.New()
	if err != nil {
		return nil, err
	}
	p.Title.Text = o.Title
	p.X.Label.Text = o.XLabel
	if p.X.Label.Text == "" {
		p.X.Label.Text = strings.Join(w.Index, " / ")
	}
	p.Y.Label.Text = o.YLabel
	if p.Y.Label.Text == "" {
		p.Y.Label.Text = w.Measure
	}
	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// stackValues returns the values of column j with nulls as zero. It is
// an error for the column to hold NaN or infinite values.
func stackValues(w *datawiz.WideTable, j int) (plotter.Values, error) {
	o := make(plotter.Values, len(w.Values))
	for i, r := range w.Values {
		v := r[j]
		if datawiz.IsDegenerate(v) {
			return nil, fmt.Errorf("chart: column `%s` has a non-finite value at `%s`",
				w.Columns[j], strings.Join(w.Keys[i], "-"))
		}
		if v.Valid {
			o[i] = v.V
		}
	}
	return o, nil
}

// StackedBars draws one bar per row of w, with the columns stacked in
// order from the bottom up.
func StackedBars(w *datawiz.WideTable, cat *datawiz.Catalog, o Options) (*plot.Plot, error) {
	o = o.withDefaults()
	if o.LogScale {
		return nil, fmt.Errorf("chart: stacked bars cannot use a log scale")
	}
	p, err := newPlot(w, o)
	if err != nil {
		return nil, err
	}
	width := o.BarWidth
	if width == 0 && w.Len() > 0 {
		width = o.Width * 0.6 / vg.Length(w.Len())
	}
	var below *plotter.BarChart
	for j, group := range w.Columns {
		vals, err := stackValues(w, j)
		if err != nil {
			return nil, err
		}
		b, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return nil, fmt.Errorf("chart: %v", err)
		}
		b.Color = groupColor(cat, group)
		b.LineStyle.Width = 0
		if below != nil {
			b.StackOn(below)
		}
		below = b
		p.Add(b)
		p.Legend.Add(group, b)
	}
	p.NominalX(w.Labels("-")...)
	return p, nil
}

// StackedArea draws the columns of w as areas stacked in order from the
// bottom up, with one X position per row.
func StackedArea(w *datawiz.WideTable, cat *datawiz.Catalog, o Options) (*plot.Plot, error) {
	o = o.withDefaults()
	if o.LogScale {
		return nil, fmt.Errorf("chart: stacked areas cannot use a log scale")
	}
	p, err := newPlot(w, o)
	if err != nil {
		return nil, err
	}
	base := make([]float64, w.Len())
	for j, group := range w.Columns {
		vals, err := stackValues(w, j)
		if err != nil {
			return nil, err
		}
		xys := make(plotter.XYs, 0, 2*len(vals))
		for i, v := range vals {
			xys = append(xys, struct{ X, Y float64 }{X: float64(i), Y: base[i] + v})
		}
		for i := len(vals) - 1; i >= 0; i-- {
			xys = append(xys, struct{ X, Y float64 }{X: float64(i), Y: base[i]})
			base[i] += vals[i]
		}
		poly, err := plotter.NewPolygon(xys)
		if err != nil {
			return nil, fmt.Errorf("chart: %v", err)
		}
		poly.Color = groupColor(cat, group)
		poly.LineStyle.Width = 0
		p.Add(poly)
		p.Legend.Add(group, poly)
	}
	p.NominalX(w.Labels("-")...)
	return p, nil
}

// Lines draws one line per column of w, with one X position per row.
// Null and non-finite values leave a gap in the line.
func Lines(w *datawiz.WideTable, cat *datawiz.Catalog, o Options) (*plot.Plot, error) {
	o = o.withDefaults()
	p, err := newPlot(w, o)
	if err != nil {
		return nil, err
	}
	var points int
	for j, group := range w.Columns {
		var segments []plotter.XYs
		var seg plotter.XYs
		for i, r := range w.Values {
			v := r[j]
			if !v.Valid || math.IsNaN(v.V) || math.IsInf(v.V, 0) {
				if len(seg) > 0 {
					segments = append(segments, seg)
					seg = nil
				}
				continue
			}
			if o.LogScale && v.V <= 0 {
				return nil, fmt.Errorf("chart: column `%s` has value %g, which cannot be drawn on a log scale", group, v.V)
			}
			seg = append(seg, struct{ X, Y float64 }{X: float64(i), Y: v.V})
			points++
		}
		if len(seg) > 0 {
			segments = append(segments, seg)
		}
		c := groupColor(cat, group)
		for k, s := range segments {
			l, sc, err := plotter.NewLinePoints(s)
			if err != nil {
				return nil, fmt.Errorf("chart: %v", err)
			}
			l.Color = c
			sc.Color = c
			sc.Shape = draw.CircleGlyph{}
			p.Add(l, sc)
			if k == 0 {
				p.Legend.Add(group, l, sc)
			}
		}
	}
	if o.LogScale {
		if points == 0 {
			return nil, fmt.Errorf("chart: no finite values to draw on a log scale")
		}
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{}
	}
	p.NominalX(w.Labels("-")...)
	return p, nil
}

// Save writes p to fileName. The format is chosen by the file
// extension, e.g. .png, .svg or .pdf.
func Save(p *plot.Plot, o Options, fileName string) error {
	o = o.withDefaults()
	if err := p.Save(o.Width, o.Height, fileName); err != nil {
		return fmt.Errorf("chart: saving %s: %v", fileName, err)
	}
	return nil
}
