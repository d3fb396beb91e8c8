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

package datawizutil

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/datawiz"
	"github.com/spatialmodel/datawiz/chart"
	"github.com/spatialmodel/datawiz/internal/hash"
	"github.com/spatialmodel/datawiz/xlsxio"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
)

// readFile reads one sheet of a spreadsheet file.
var readFile = xlsxio.ReadFile

// LoadCatalog reads a technology reference table from a .xlsx or .csv
// file.
func LoadCatalog(fileName, sheet string) (*datawiz.Catalog, error) {
	if fileName == "" {
		return nil, fmt.Errorf("datawiz: Catalog.File must be specified")
	}
	raw, err := readFile(fileName, sheet)
	if err != nil {
		return nil, err
	}
	c, err := datawiz.LoadCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", raw.Name, err)
	}
	return c, nil
}

// Analysis holds the settings of one pipeline run:
// sources are combined, filtered and grouped, optional ratio and
// expression columns are derived, and one measure is pivoted for display.
type Analysis struct {
	CatalogFile, CatalogSheet string

	Sources     []SourceConfig
	KeyColumns  []string
	SkipColumns int

	Build  datawiz.BuildOptions
	Filter datawiz.FilterOptions

	// Ratio is nil if no ratio column is derived.
	Ratio *datawiz.RatioOptions

	// Expressions maps new column names to expressions over measures.
	// They are derived in order of name.
	Expressions map[string]string

	// Measure is the measure to pivot. It defaults to the measure of
	// the first source.
	Measure string
}

func (a *Analysis) measure() string {
	if a.Measure == "" && len(a.Sources) > 0 {
		return a.Sources[0].Measure
	}
	return a.Measure
}

// Name returns a short name for the analysis that changes whenever its
// settings change, for use in output file names.
func (a *Analysis) Name() string {
	return a.measure() + "_" + hash.Short(a)
}

// Result holds the tables produced by each stage of an analysis.
type Result struct {
	Pipeline *datawiz.Pipeline

	Raw     *datawiz.Table
	Working *datawiz.WorkingTable
	Wide    *datawiz.WideTable

	// Ratio holds the pivoted ratio column, or nil if no ratio was
	// derived. Ratios computed over whole periods are collapsed into a
	// single column.
	Ratio *datawiz.WideTable
}

// Run carries out the analysis, writing progress messages to log.
func (a *Analysis) Run(log logrus.FieldLogger) (*Result, error) {
	cat, err := LoadCatalog(a.CatalogFile, a.CatalogSheet)
	if err != nil {
		return nil, err
	}
	p := datawiz.NewPipeline(cat)
	p.Log = log

	specs, err := loadSources(a.Sources, a.KeyColumns, a.SkipColumns)
	if err != nil {
		return nil, err
	}
	r := &Result{Pipeline: p}
	if r.Raw, err = p.Build(specs, a.Build); err != nil {
		return nil, err
	}
	if r.Working, err = p.Filter(r.Raw, a.Filter); err != nil {
		return nil, err
	}
	if a.Ratio != nil {
		if r.Working, err = p.DeriveRatio(r.Working, *a.Ratio); err != nil {
			return nil, err
		}
		if r.Ratio, err = p.PivotForDisplay(r.Working, r.Working.Derived); err != nil {
			return nil, err
		}
		if !a.Ratio.PerGroup {
			r.Ratio = r.Ratio.Collapse("System")
		}
	}
	names := make([]string, 0, len(a.Expressions))
	for name := range a.Expressions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if r.Working, err = p.DeriveExpression(r.Working, name, a.Expressions[name]); err != nil {
			return nil, err
		}
	}
	if r.Wide, err = p.PivotForDisplay(r.Working, a.measure()); err != nil {
		return nil, err
	}
	return r, nil
}

// WriteWorkbook saves every stage of the result, and summary statistics
// of the working table, as sheets of one Microsoft Excel file.
func (r *Result) WriteWorkbook(fileName string) error {
	sheets := []xlsxio.Sheet{
		xlsxio.TableSheet("raw", r.Raw),
		xlsxio.TableSheet("working", r.Working.Table),
		xlsxio.WideSheet(r.Wide.Measure, r.Wide),
	}
	if r.Ratio != nil {
		sheets = append(sheets, xlsxio.WideSheet("ratio", r.Ratio))
	}
	sheets = append(sheets, xlsxio.SummarySheet("summary", datawiz.Describe(r.Working.Table)))
	return xlsxio.Write(fileName, sheets...)
}

// PlotOptions specifies the charts drawn for a Result.
type PlotOptions struct {
	chart.Options

	// Type is "bars", "area" or "lines".
	Type string

	// Grid draws one chart per region, tiled into one image, for
	// regional analyses.
	Grid        bool
	GridColumns int
}

func (o PlotOptions) draw(w *datawiz.WideTable, cat *datawiz.Catalog) (*plot.Plot, error) {
	switch o.Type {
	case "bars", "":
		return chart.StackedBars(w, cat, o.Options)
	case "area":
		return chart.StackedArea(w, cat, o.Options)
	case "lines":
		return chart.Lines(w, cat, o.Options)
	default:
		return nil, fmt.Errorf("datawiz: invalid plot type `%s`", o.Type)
	}
}

// Plot draws the result into PNG files in dir whose names start with
// name, and returns the paths of the files written.
func (r *Result) Plot(dir, name string, o PlotOptions) ([]string, error) {
	cat := r.Pipeline.Catalog
	var files []string

	p, err := o.draw(r.Wide, cat)
	if err != nil {
		return nil, err
	}
	f := filepath.Join(dir, name+"_"+typeName(o.Type)+".png")
	if err := chart.Save(p, o.Options, f); err != nil {
		return nil, err
	}
	files = append(files, f)

	if r.Ratio != nil {
		ro := o.Options
		ro.YLabel = r.Ratio.Measure
		ro.LogScale = false
		p, err := chart.Lines(r.Ratio, cat, ro)
		if err != nil {
			return nil, err
		}
		f := filepath.Join(dir, name+"_ratio.png")
		if err := chart.Save(p, ro, f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}

	if o.Grid {
		regions := r.Working.Regions()
		if len(regions) == 0 {
			return nil, fmt.Errorf("datawiz: a chart grid needs a regional analysis")
		}
		plots := make([]*plot.Plot, len(regions))
		for i, region := range regions {
			rw, err := r.Working.ForRegion(region)
			if err != nil {
				return nil, err
			}
			wide, err := r.Pipeline.PivotForDisplay(rw, r.Wide.Measure)
			if err != nil {
				return nil, err
			}
			ro := o
			ro.Title = region
			if plots[i], err = ro.draw(wide, cat); err != nil {
				return nil, err
			}
		}
		f := filepath.Join(dir, name+"_grid.png")
		if err := chart.SaveGrid(plots, o.GridColumns, o.Options, f); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, nil
}

func typeName(t string) string {
	if t == "" {
		return "bars"
	}
	return t
}

// inches converts a length in inches into a vg.Length.
func inches(v float64) vg.Length { return vg.Length(v) * vg.Inch }

// Profile holds the settings of an hourly load profile aggregation:
// sources are stacked, summed by the index columns and fuel group, and
// pivoted with one column per fuel group.
type Profile struct {
	CatalogFile, CatalogSheet string

	Sources     []SourceConfig
	KeyColumns  []string
	SkipColumns int

	// Index lists the key columns kept in the output, such as weekday
	// and hour.
	Index []string

	// Measure is used for sources that do not name their own.
	Measure string

	Build datawiz.BuildOptions
}

// Name returns a short name for the profile settings.
func (pr *Profile) Name() string {
	return "profile_" + hash.Short(pr)
}

// Run carries out the aggregation and returns the grouped long table and
// its pivot.
func (pr *Profile) Run(log logrus.FieldLogger) (*datawiz.Table, *datawiz.WideTable, error) {
	if len(pr.Index) == 0 {
		return nil, nil, fmt.Errorf("datawiz: Profile.Index must be specified")
	}
	cat, err := LoadCatalog(pr.CatalogFile, pr.CatalogSheet)
	if err != nil {
		return nil, nil, err
	}
	p := datawiz.NewPipeline(cat)
	p.Log = log

	sources := append([]SourceConfig(nil), pr.Sources...)
	for i := range sources {
		if sources[i].Measure == "" {
			sources[i].Measure = pr.Measure
		}
	}
	specs, err := loadSources(sources, pr.KeyColumns, pr.SkipColumns)
	if err != nil {
		return nil, nil, err
	}
	opts := pr.Build
	opts.PeriodColumn = pr.Index[0]
	all, err := p.Concat(specs, opts)
	if err != nil {
		return nil, nil, err
	}
	grouped, err := p.GroupSum(all, append(append([]string(nil), pr.Index...), datawiz.FuelGroupColumn))
	if err != nil {
		return nil, nil, err
	}
	wide, err := p.Pivot(grouped, pr.Index, specs[0].Measure)
	if err != nil {
		return nil, nil, err
	}
	return grouped, wide, nil
}

// outputPath returns the path of an output file, making sure its
// directory exists.
func outputPath(dir, fileName string) (string, error) {
	dir, err := checkOutputDir(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}
