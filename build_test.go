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
	"io/ioutil"
	"math"
	"testing"

	"github.com/kr/pretty"
	"github.com/sirupsen/logrus"
)

func testPipeline(t *testing.T) *Pipeline {
	p := NewPipeline(testCatalog(t))
	l := logrus.New()
	l.Out = ioutil.Discard
	p.Log = l
	return p
}

var testKeys = []string{"Year", "GridRegion", "Province", "SubRegion", "Tech"}

func testSources() []SourceSpec {
	capacity := &RawTable{
		Name:   "capacity.xlsx",
		Header: []string{"", "年份", "电网区域", "省份", "省下区域", "Tech", "装机"},
		Rows: [][]string{
			{"0", "2023", "North", "Hebei", "A", "coal_pp", "10"},
			{"1", "2023", "North", "Hebei", "A", "coal_pp", "5"},
			{"2", "2023", "North", "Hebei", "A", "wind_on", "0"},
			{"3", "2023", "East", "Jiangsu", "B", "gas_cc", "20"},
			{"4", "2030", "East", "Jiangsu", "B", "fusion", "3"},
			{"", "", "", "", "", "", ""},
		},
	}
	generation := &RawTable{
		Name:   "generation.xlsx",
		Header: []string{"", "year", "grid", "province", "sub", "technology", "Generation"},
		Rows: [][]string{
			{"0", "2023", "North", "Hebei", "A", "coal_pp", "50"},
			{"1", "2023", "North", "Hebei", "A", "wind_on", "0"},
			{"2", "2030", "North", "Hebei", "A", "solar_pv", "7"},
			{"3", "2023", "East", "Jiangsu", "B", "gas_cc", ""},
		},
	}
	return []SourceSpec{
		{Table: capacity, SkipColumns: 1, KeyColumns: testKeys, MeasureColumns: []string{"Capacity"}, Measure: "Capacity"},
		{Table: generation, SkipColumns: 1, KeyColumns: testKeys, Measure: "Generation"},
	}
}

func TestBuild(t *testing.T) {
	p := testPipeline(t)
	have, err := p.Build(testSources(), BuildOptions{Unmapped: UnmappedDefault})
	if err != nil {
		t.Fatal(err)
	}
	want := &Table{
		Keys:       []string{"Year", "GridRegion", "Province", "SubRegion", "Tech", "FuelGroup"},
		Measures:   []string{"Capacity", "Generation"},
		Period:     "Year",
		Technology: "Tech",
		Rows: []Row{
			{Keys: []string{"2023", "North", "Hebei", "A", "coal_pp", "Coal"}, Measures: []Float{Value(15), Value(50)}},
			{Keys: []string{"2023", "East", "Jiangsu", "B", "gas_cc", "Gas"}, Measures: []Float{Value(20), Null}},
			{Keys: []string{"2030", "East", "Jiangsu", "B", "fusion", "other"}, Measures: []Float{Value(3), Null}},
			{Keys: []string{"2030", "North", "Hebei", "A", "solar_pv", "Solar"}, Measures: []Float{Null, Value(7)}},
		},
	}
	if diff := pretty.Diff(want, have); len(diff) != 0 {
		t.Error(diff)
	}
}

// Every key combination found in either source appears exactly once.
func TestBuildOuterJoin(t *testing.T) {
	p := testPipeline(t)
	have, err := p.Build(testSources(), BuildOptions{Unmapped: UnmappedKeep})
	if err != nil {
		t.Fatal(err)
	}
	seen := make(map[string]int)
	for _, r := range have.Rows {
		seen[tupleKey(r.Keys[:len(testKeys)])]++
	}
	for _, s := range testSources() {
		for i := range s.Table.Rows {
			if blankRow(s.Table.Rows[i]) || s.Table.Rows[i][5] == "wind_on" {
				continue
			}
			k := tupleKey(s.Table.Rows[i][1:6])
			if seen[k] != 1 {
				t.Errorf("%v appears %d times", s.Table.Rows[i][1:6], seen[k])
			}
		}
	}
	for _, r := range have.Rows {
		if r.Keys[4] == "fusion" && r.Keys[5] != "" {
			t.Errorf("unmapped technology should have null group, have %s", r.Keys[5])
		}
	}
}

func TestBuildUnmappedError(t *testing.T) {
	p := testPipeline(t)
	_, err := p.Build(testSources(), BuildOptions{Unmapped: UnmappedError})
	var e *UnmappedTechnologyError
	if !errors.As(err, &e) {
		t.Fatalf("want *UnmappedTechnologyError, have %v", err)
	}
	if len(e.Technologies) != 1 || e.Technologies[0] != "fusion" {
		t.Errorf("want [fusion], have %v", e.Technologies)
	}
}

func TestBuildDropsInactiveRows(t *testing.T) {
	p := testPipeline(t)
	raw := &RawTable{
		Header: []string{"Year", "Tech", "A", "B"},
		Rows: [][]string{
			{"2023", "coal_pp", "0", "0"},
			{"2023", "gas_cc", "0", "5"},
			{"2023", "wind_on", "", ""},
			{"2023", "solar_pv", "0", ""},
		},
	}
	keys := []string{"Year", "Tech"}
	have, err := p.Build([]SourceSpec{
		{Name: "a", Table: raw, KeyColumns: keys, Measure: "A"},
		{Name: "b", Table: raw, KeyColumns: keys, Measure: "B"},
	}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var techs []string
	for _, r := range have.Rows {
		techs = append(techs, r.Keys[1])
	}
	want := []string{"gas_cc", "wind_on", "solar_pv"}
	if diff := pretty.Diff(want, techs); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestBuildKeepsNullOnlyKeys(t *testing.T) {
	p := testPipeline(t)
	keys := []string{"Year", "Tech"}
	a := &RawTable{
		Header: []string{"Year", "Tech", "A"},
		Rows: [][]string{
			{"2023", "coal_pp", "10"},
			{"2023", "gas_cc", ""},
		},
	}
	b := &RawTable{
		Header: []string{"Year", "Tech", "B"},
		Rows: [][]string{
			{"2023", "coal_pp", "5"},
		},
	}
	have, err := p.Build([]SourceSpec{
		{Name: "a", Table: a, KeyColumns: keys, Measure: "A"},
		{Name: "b", Table: b, KeyColumns: keys, Measure: "B"},
	}, BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	want := []Row{
		{Keys: []string{"2023", "coal_pp", "Coal"}, Measures: []Float{Value(10), Value(5)}},
		{Keys: []string{"2023", "gas_cc", "Gas"}, Measures: []Float{Null, Null}},
	}
	if diff := pretty.Diff(want, have.Rows); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestBuildKeyMismatch(t *testing.T) {
	p := testPipeline(t)
	tests := []struct {
		name   string
		modify func([]SourceSpec) []SourceSpec
	}{
		{
			name: "different keys",
			modify: func(s []SourceSpec) []SourceSpec {
				s[1].KeyColumns = []string{"Year", "GridRegion", "Province", "Tech", "SubRegion"}
				return s
			},
		},
		{
			name: "missing measure",
			modify: func(s []SourceSpec) []SourceSpec {
				s[1].Measure = "Emissions"
				return s
			},
		},
		{
			name: "too few columns",
			modify: func(s []SourceSpec) []SourceSpec {
				s[0].SkipColumns = 2
				return s
			},
		},
		{
			name: "duplicate measure",
			modify: func(s []SourceSpec) []SourceSpec {
				s[1].MeasureColumns = []string{"Capacity"}
				s[1].Measure = "Capacity"
				return s
			},
		},
		{
			name: "no technology column",
			modify: func(s []SourceSpec) []SourceSpec {
				for i := range s {
					s[i].KeyColumns = []string{"Year", "GridRegion", "Province", "SubRegion", "Technology"}
				}
				return s
			},
		},
		{
			name:   "no sources",
			modify: func([]SourceSpec) []SourceSpec { return nil },
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := p.Build(test.modify(testSources()), BuildOptions{})
			var e *KeyMismatchError
			if !errors.As(err, &e) {
				t.Errorf("want *KeyMismatchError, have %v", err)
			}
		})
	}
}

func TestBuildBadCell(t *testing.T) {
	p := testPipeline(t)
	s := testSources()
	s[1].Table.Rows[2][6] = "seven"
	_, err := p.Build(s, BuildOptions{})
	if err == nil {
		t.Fatal("expected an error")
	}
	want := "datawiz: source `generation.xlsx` row 4 column `Generation`: strconv.ParseFloat: parsing \"seven\": invalid syntax"
	if err.Error() != want {
		t.Errorf("want %q, have %q", want, err.Error())
	}
}

func TestConcatGroupSum(t *testing.T) {
	p := testPipeline(t)
	keys := []string{"Province", "Tech", "Weekday", "Hour"}
	a := &RawTable{
		Header: []string{"省份", "技术", "星期", "时刻", "Level"},
		Rows: [][]string{
			{"Hebei", "coal_pp", "1", "0", "3"},
			{"Hebei", "wind_on", "1", "0", "1"},
			{"Hebei", "coal_pp", "1", "1", "4"},
		},
	}
	b := &RawTable{
		Header: []string{"省份", "技术", "星期", "时刻", "Level"},
		Rows: [][]string{
			{"Hebei", "coal_pp", "1", "0", "2"},
			{"Jiangsu", "wind_off", "1", "10", "6"},
		},
	}
	opts := BuildOptions{PeriodColumn: "Weekday", TechnologyColumn: "Tech"}
	all, err := p.Concat([]SourceSpec{
		{Name: "a", Table: a, KeyColumns: keys, Measure: "Level"},
		{Name: "b", Table: b, KeyColumns: keys, Measure: "Level"},
	}, opts)
	if err != nil {
		t.Fatal(err)
	}
	if all.Len() != 5 {
		t.Fatalf("want 5 rows, have %d", all.Len())
	}
	grouped, err := p.GroupSum(all, []string{"Weekday", "Hour", FuelGroupColumn})
	if err != nil {
		t.Fatal(err)
	}
	wide, err := p.Pivot(grouped, []string{"Weekday", "Hour"}, "Level")
	if err != nil {
		t.Fatal(err)
	}
	want := &WideTable{
		Index:   []string{"Weekday", "Hour"},
		Columns: []string{"Coal", "Wind"},
		Measure: "Level",
		Keys:    [][]string{{"1", "0"}, {"1", "1"}, {"1", "10"}},
		Values: [][]Float{
			{Value(5), Value(1)},
			{Value(4), Null},
			{Null, Value(6)},
		},
	}
	if diff := pretty.Diff(want, wide); len(diff) != 0 {
		t.Error(diff)
	}
}

func TestConcatMeasureMismatch(t *testing.T) {
	p := testPipeline(t)
	s := testSources()
	_, err := p.Concat(s, BuildOptions{})
	var e *KeyMismatchError
	if !errors.As(err, &e) {
		t.Errorf("want *KeyMismatchError, have %v", err)
	}
}

func TestParseFloat(t *testing.T) {
	for s, want := range map[string]Float{
		"":     Null,
		" 12 ": Value(12),
		"-1.5": Value(-1.5),
		"Inf":  Value(math.Inf(1)),
	} {
		have, err := ParseFloat(s)
		if err != nil {
			t.Fatal(err)
		}
		if have != want {
			t.Errorf("%q: want %v, have %v", s, want, have)
		}
	}
	nan, err := ParseFloat("NaN")
	if err != nil || !IsDegenerate(nan) {
		t.Errorf("NaN: have %v, %v", nan, err)
	}
	if IsDegenerate(Null) || IsDegenerate(Value(1)) {
		t.Error("finite and null values are not degenerate")
	}
}
