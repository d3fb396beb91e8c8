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
	"image/color"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/spatialmodel/datawiz"
	"gonum.org/v1/plot"
)

func testCatalog(t *testing.T) *datawiz.Catalog {
	c, err := datawiz.NewCatalog([]datawiz.ReferenceEntry{
		{Technology: "coal_pp", FuelGroup: "Coal", HexColor: "#000000", Order: 1, HasOrder: true},
		{Technology: "wind_on", FuelGroup: "Wind", HexColor: "#00ff00", Order: 2, HasOrder: true},
		{Technology: "gas_cc", FuelGroup: "Gas", HexColor: "not a color", Order: 3, HasOrder: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func testWide() *datawiz.WideTable {
	return &datawiz.WideTable{
		Index:   []string{"Year"},
		Columns: []string{"Coal", "Wind", "Gas"},
		Measure: "Capacity",
		Keys:    [][]string{{"2023"}, {"2030"}, {"2040"}},
		Values: [][]datawiz.Float{
			{datawiz.Value(25), datawiz.Null, datawiz.Value(20)},
			{datawiz.Value(20), datawiz.Value(5), datawiz.Value(30)},
			{datawiz.Value(10), datawiz.Value(15), datawiz.Null},
		},
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.Color
		err  bool
	}{
		{in: "#1f77b4", want: color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 255}},
		{in: "abc", want: color.NRGBA{R: 0xaa, G: 0xbb, B: 0xcc, A: 255}},
		{in: datawiz.FallbackColor, want: color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 255}},
		{in: "#12345", err: true},
		{in: "#zzzzzz", err: true},
	}
	for _, test := range tests {
		have, err := ParseColor(test.in)
		if test.err {
			if err == nil {
				t.Errorf("%s: expected an error", test.in)
			}
			continue
		}
		if err != nil {
			t.Fatal(err)
		}
		if have != test.want {
			t.Errorf("%s: want %v, have %v", test.in, test.want, have)
		}
	}
	want, _ := ParseColor(datawiz.FallbackColor)
	if have := groupColor(testCatalog(t), "Gas"); have != want {
		t.Errorf("unparseable color: want fallback, have %v", have)
	}
}

func TestGridSize(t *testing.T) {
	tests := []struct {
		n, cols, wantRows, wantCols int
	}{
		{n: 0, wantRows: 0, wantCols: 0},
		{n: 1, wantRows: 1, wantCols: 1},
		{n: 4, wantRows: 2, wantCols: 2},
		{n: 5, wantRows: 2, wantCols: 3},
		{n: 10, wantRows: 3, wantCols: 4},
		{n: 7, cols: 2, wantRows: 4, wantCols: 2},
		{n: 2, cols: 5, wantRows: 1, wantCols: 2},
	}
	for _, test := range tests {
		rows, cols := GridSize(test.n, test.cols)
		if rows != test.wantRows || cols != test.wantCols {
			t.Errorf("n=%d cols=%d: want %dx%d, have %dx%d", test.n, test.cols,
				test.wantRows, test.wantCols, rows, cols)
		}
	}
}

func TestCharts(t *testing.T) {
	dir, err := ioutil.TempDir("", "chart")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	cat := testCatalog(t)
	o := Options{Title: "Capacity"}
	var plots []*plot.Plot
	for name, f := range map[string]func(*datawiz.WideTable, *datawiz.Catalog, Options) (*plot.Plot, error){
		"bars":  StackedBars,
		"area":  StackedArea,
		"lines": Lines,
	} {
		t.Run(name, func(t *testing.T) {
			p, err := f(testWide(), cat, o)
			if err != nil {
				t.Fatal(err)
			}
			fileName := filepath.Join(dir, name+".png")
			if err := Save(p, o, fileName); err != nil {
				t.Fatal(err)
			}
			if info, err := os.Stat(fileName); err != nil || info.Size() == 0 {
				t.Errorf("%s was not written: %v", fileName, err)
			}
			plots = append(plots, p)
		})
	}

	fileName := filepath.Join(dir, "grid.png")
	if err := SaveGrid(plots, 0, Options{Width: 200, Height: 150}, fileName); err != nil {
		t.Fatal(err)
	}
	if info, err := os.Stat(fileName); err != nil || info.Size() == 0 {
		t.Errorf("grid was not written: %v", err)
	}
	if err := SaveGrid(nil, 0, o, fileName); err == nil {
		t.Error("expected an error for an empty grid")
	}
}

func TestLogScale(t *testing.T) {
	cat := testCatalog(t)
	o := Options{LogScale: true}
	if _, err := StackedBars(testWide(), cat, o); err == nil {
		t.Error("bars: expected an error")
	}
	if _, err := StackedArea(testWide(), cat, o); err == nil {
		t.Error("area: expected an error")
	}
	if _, err := Lines(testWide(), cat, o); err != nil {
		t.Errorf("lines: %v", err)
	}
	w := testWide()
	w.Values[0][0] = datawiz.Value(0)
	if _, err := Lines(w, cat, o); err == nil {
		t.Error("lines with zero: expected an error")
	}
}

func TestLogScaleNoValues(t *testing.T) {
	cat := testCatalog(t)
	for _, fill := range []datawiz.Float{datawiz.Null, datawiz.Value(math.NaN()), datawiz.Value(math.Inf(1))} {
		w := &datawiz.WideTable{
			Index:   []string{"Year"},
			Columns: []string{"Coal"},
			Measure: "Complex",
			Keys:    [][]string{{"2023"}, {"2030"}},
			Values:  [][]datawiz.Float{{fill}, {fill}},
		}
		if _, err := Lines(w, cat, Options{LogScale: true}); err == nil {
			t.Errorf("%v: expected an error", fill)
		}
		if _, err := Lines(w, cat, Options{}); err != nil {
			t.Errorf("%v: linear scale: %v", fill, err)
		}
	}
}

func TestDegenerateValues(t *testing.T) {
	cat := testCatalog(t)
	w := testWide()
	w.Values[1][1] = datawiz.Value(math.Inf(1))
	if _, err := StackedBars(w, cat, Options{}); err == nil {
		t.Error("bars: expected an error")
	}
	w.Values[2][1] = datawiz.Value(math.NaN())
	if _, err := Lines(w, cat, Options{}); err != nil {
		t.Errorf("lines should skip non-finite values: %v", err)
	}
}
