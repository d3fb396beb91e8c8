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
	"errors"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func testBuilt() *Table {
	return &Table{
		Keys:       []string{"Year", "Province", "Tech", "FuelGroup"},
		Measures:   []string{"Capacity", "Generation"},
		Period:     "Year",
		Technology: "Tech",
		Rows: []Row{
			{Keys: []string{"2023", "Hebei", "coal_a", "Coal"}, Measures: []Float{Value(10), Value(40)}},
			{Keys: []string{"2023", "Hebei", "coal_b", "Coal"}, Measures: []Float{Value(15), Value(60)}},
			{Keys: []string{"2023", "Jiangsu", "gas_cc", "Gas"}, Measures: []Float{Value(20), Null}},
			{Keys: []string{"2030", "Jiangsu", "gas_cc", "Gas"}, Measures: []Float{Value(30), Value(90)}},
			{Keys: []string{"2023", "Hebei", "fusion", ""}, Measures: []Float{Value(1), Value(1)}},
			{Keys: []string{"2023", "Shanxi", "wind_on", "Wind"}, Measures: []Float{Null, Null}},
		},
	}
}

func TestFilter(t *testing.T) {
	type result struct {
		Keys     []string
		Measures []Float
	}
	tests := []struct {
		name string
		cfg  FilterConfig
		want []result
	}{
		{
			name: "nationwide",
			cfg:  FilterConfig{RegionalLevel: "全国"},
			want: []result{
				{Keys: []string{"2023", "Coal"}, Measures: []Float{Value(25), Value(100)}},
				{Keys: []string{"2023", "Gas"}, Measures: []Float{Value(20), Null}},
				{Keys: []string{"2023", "Wind"}, Measures: []Float{Null, Null}},
				{Keys: []string{"2030", "Gas"}, Measures: []Float{Value(30), Value(90)}},
			},
		},
		{
			name: "include groups",
			cfg:  FilterConfig{IncludedTechGroups: []string{"Gas"}},
			want: []result{
				{Keys: []string{"2023", "Gas"}, Measures: []Float{Value(20), Null}},
				{Keys: []string{"2030", "Gas"}, Measures: []Float{Value(30), Value(90)}},
			},
		},
		{
			name: "exclude groups",
			cfg:  FilterConfig{ExcludedTechGroups: []string{"Gas"}},
			want: []result{
				{Keys: []string{"2023", "Coal"}, Measures: []Float{Value(25), Value(100)}},
				{Keys: []string{"2023", "Wind"}, Measures: []Float{Null, Null}},
			},
		},
		{
			name: "select region",
			cfg:  FilterConfig{RegionalLevel: "Province", SelectedRegions: []string{"Jiangsu"}},
			want: []result{
				{Keys: []string{"2023", "Jiangsu", "Gas"}, Measures: []Float{Value(20), Null}},
				{Keys: []string{"2030", "Jiangsu", "Gas"}, Measures: []Float{Value(30), Value(90)}},
			},
		},
		{
			name: "exclude region",
			cfg:  FilterConfig{RegionalLevel: "Province", SelectedRegions: []string{"Jiangsu"}, RegionSelectReverse: true},
			want: []result{
				{Keys: []string{"2023", "Hebei", "Coal"}, Measures: []Float{Value(25), Value(100)}},
				{Keys: []string{"2023", "Shanxi", "Wind"}, Measures: []Float{Null, Null}},
			},
		},
		{
			name: "regions ignored when nationwide",
			cfg:  FilterConfig{SelectedRegions: []string{"Jiangsu"}, IncludedTechGroups: []string{"Coal"}},
			want: []result{
				{Keys: []string{"2023", "Coal"}, Measures: []Float{Value(25), Value(100)}},
			},
		},
	}
	p := testPipeline(t)
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts, err := NewFilterOptions(test.cfg)
			if err != nil {
				t.Fatal(err)
			}
			raw := testBuilt()
			w, err := p.Filter(raw, opts)
			if err != nil {
				t.Fatal(err)
			}
			var have []result
			for _, r := range w.Rows {
				have = append(have, result{Keys: r.Keys, Measures: r.Measures})
			}
			if diff := pretty.Diff(test.want, have); len(diff) != 0 {
				t.Error(diff)
			}
			if diff := pretty.Diff(testBuilt(), raw); len(diff) != 0 {
				t.Errorf("input was modified: %v", diff)
			}
		})
	}
}

func TestFilterSumExact(t *testing.T) {
	p := testPipeline(t)
	raw := &Table{
		Keys:     []string{"Year", "Tech", "FuelGroup"},
		Measures: []string{"Capacity"},
		Period:   "Year",
		Rows: []Row{
			{Keys: []string{"2023", "coal_a", "Coal"}, Measures: []Float{Value(10)}},
			{Keys: []string{"2023", "coal_b", "Coal"}, Measures: []Float{Value(15)}},
		},
	}
	w, err := p.Filter(raw, FilterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(w.Rows) != 1 {
		t.Fatalf("want 1 row, have %d", len(w.Rows))
	}
	if have := w.Rows[0].Measures[0]; have != Value(25) {
		t.Errorf("want 25, have %v", have)
	}
}

func TestFilterUnknownRegionalLevel(t *testing.T) {
	p := testPipeline(t)
	_, err := p.Filter(testBuilt(), FilterOptions{RegionalLevel: "County"})
	var e *KeyMismatchError
	if !errors.As(err, &e) {
		t.Errorf("want *KeyMismatchError, have %v", err)
	}
}

func TestNewFilterOptions(t *testing.T) {
	_, err := NewFilterOptions(FilterConfig{
		IncludedTechGroups: []string{"Coal"},
		ExcludedTechGroups: []string{"Gas"},
	})
	var e *InvalidFilterConfigError
	if !errors.As(err, &e) {
		t.Errorf("want *InvalidFilterConfigError, have %v", err)
	}

	for _, level := range []string{"", "nationwide", "Nationwide", "全国"} {
		o, err := NewFilterOptions(FilterConfig{RegionalLevel: level})
		if err != nil {
			t.Fatal(err)
		}
		if o.RegionalLevel != Nationwide {
			t.Errorf("%q: want nationwide, have %q", level, o.RegionalLevel)
		}
		if o.TechGroups.Mode() != SelectAll || o.Regions.Mode() != SelectAll {
			t.Errorf("%q: selections should be unfiltered", level)
		}
	}

	o, err := NewFilterOptions(FilterConfig{
		RegionalLevel:       "Province",
		ExcludedTechGroups:  []string{"Gas", "Gas"},
		SelectedRegions:     []string{"Hebei"},
		RegionSelectReverse: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if o.TechGroups.Mode() != SelectAllExcept || len(o.TechGroups.Values()) != 1 {
		t.Errorf("tech groups: have %v", o.TechGroups)
	}
	if o.Regions.Keep("Hebei") || !o.Regions.Keep("Jiangsu") {
		t.Errorf("regions: have %v", o.Regions)
	}
}

func TestWorkingTableRegions(t *testing.T) {
	p := testPipeline(t)
	w, err := p.Filter(testBuilt(), FilterOptions{RegionalLevel: "Province"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Hebei", "Jiangsu", "Shanxi"}
	if diff := pretty.Diff(want, w.Regions()); len(diff) != 0 {
		t.Error(diff)
	}

	js, err := w.ForRegion("Jiangsu")
	if err != nil {
		t.Fatal(err)
	}
	if js.Region != "Jiangsu" || js.RegionalLevel != "Province" {
		t.Errorf("have region %q at level %q", js.Region, js.RegionalLevel)
	}
	wantKeys := []string{"Year", "FuelGroup"}
	if diff := pretty.Diff(wantKeys, js.Keys); len(diff) != 0 {
		t.Error(diff)
	}
	if js.Len() != 2 {
		t.Errorf("want 2 rows, have %d", js.Len())
	}
	if w.KeyIndex("Province") != 1 {
		t.Error("regional table was modified")
	}

	if _, err := w.ForRegion("Tibet"); err == nil {
		t.Error("expected an error for a missing region")
	}
	nw, err := p.Filter(testBuilt(), FilterOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if nw.Regions() != nil {
		t.Errorf("nationwide table has regions %v", nw.Regions())
	}
	if _, err := nw.ForRegion("Hebei"); err == nil {
		t.Error("expected an error for a nationwide table")
	}
}

func TestFilterNullKeyWarnings(t *testing.T) {
	p := testPipeline(t)
	logger, hook := test.NewNullLogger()
	p.Log = logger

	raw := testBuilt()
	raw.Rows = append(raw.Rows,
		Row{Keys: []string{"2023", "", "coal_c", "Coal"}, Measures: []Float{Value(2), Value(3)}},
		Row{Keys: []string{"", "Hebei", "coal_d", "Coal"}, Measures: []Float{Value(2), Value(3)}},
	)
	opts, err := NewFilterOptions(FilterConfig{RegionalLevel: "Province"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Filter(raw, opts); err != nil {
		t.Fatal(err)
	}
	have := make(map[string]interface{})
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			have[e.Message] = e.Data["rows"]
		}
	}
	want := map[string]interface{}{
		"datawiz: leaving out rows with no fuel group": 1,
		"datawiz: leaving out rows with null keys":     2,
	}
	if diff := pretty.Diff(want, have); len(diff) != 0 {
		t.Error(diff)
	}
}
