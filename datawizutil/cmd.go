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

// Package datawizutil contains the command-line interface for datawiz.
package datawizutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/datawiz"
	"github.com/spatialmodel/datawiz/chart"
	"github.com/spatialmodel/datawiz/xlsxio"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	pipelineFlags := []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags()}
	chartFlags := []*pflag.FlagSet{plotCmd.Flags(), profileCmd.Flags()}

	// Options are the configuration options available to datawiz.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose specifies whether to print debugging messages.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Catalog.File",
			usage: `
              Catalog.File is the path to the technology reference table,
              a .xlsx or .csv file with the columns Technology, FuelGroup,
              HexColor and Order. It can contain environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Catalog.Sheet",
			usage: `
              Catalog.Sheet is the sheet of Catalog.File to read. By default
              the first sheet is read.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory where output files are written.
              It is created if it does not exist.`,
			shorthand:  "o",
			defaultVal: "checking",
			flagsets:   []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "OutputPrefix",
			usage: `
              OutputPrefix is the start of the output file names. By default
              it is made from the measure and a hash of the settings.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "Sources",
			usage: `
              Sources lists the input spreadsheets. In a configuration file
              it is an array of tables ([[Sources]]) with the keys File,
              Sheet, Measure and optionally Name, MeasureColumns and
              SkipColumns. On the command line it is a JSON array.`,
			defaultVal: "",
			flagsets:   pipelineFlags,
		},
		{
			name: "KeyColumns",
			usage: `
              KeyColumns names the key columns of every source, in order.
              Source header text is ignored: columns are matched by position.`,
			defaultVal: datawiz.DefaultKeyColumns,
			flagsets:   pipelineFlags,
		},
		{
			name: "SkipColumns",
			usage: `
              SkipColumns is the number of leading columns of each source
              to ignore, such as an exported row index.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "PeriodColumn",
			usage: `
              PeriodColumn is the key column holding the time period.`,
			defaultVal: datawiz.DefaultPeriodColumn,
			flagsets:   pipelineFlags,
		},
		{
			name: "TechnologyColumn",
			usage: `
              TechnologyColumn is the key column holding the technology.`,
			defaultVal: datawiz.DefaultTechnologyColumn,
			flagsets:   []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "Unmapped",
			usage: `
              Unmapped specifies what to do with technologies that are not in
              the catalog: "keep" them without a fuel group (they are left
              out when grouping), put them in DefaultGroup ("default"), or
              stop with an "error".`,
			defaultVal: datawiz.UnmappedKeep.String(),
			flagsets:   []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "DefaultGroup",
			usage: `
              DefaultGroup is the fuel group for unmapped technologies when
              Unmapped is "default".`,
			defaultVal: datawiz.DefaultUnmappedGroup,
			flagsets:   []*pflag.FlagSet{pivotCmd.Flags(), plotCmd.Flags(), profileCmd.Flags()},
		},
		{
			name: "RegionalLevel",
			usage: `
              RegionalLevel is the key column of the regions to keep when
              grouping, or "nationwide" to sum over all regions.`,
			shorthand:  "r",
			defaultVal: "nationwide",
			flagsets:   pipelineFlags,
		},
		{
			name: "IncludedTechGroups",
			usage: `
              IncludedTechGroups lists the only fuel groups to keep. It
              cannot be used together with ExcludedTechGroups.`,
			defaultVal: []string{},
			flagsets:   pipelineFlags,
		},
		{
			name: "ExcludedTechGroups",
			usage: `
              ExcludedTechGroups lists fuel groups to leave out. It cannot
              be used together with IncludedTechGroups.`,
			defaultVal: []string{},
			flagsets:   pipelineFlags,
		},
		{
			name: "SelectedRegions",
			usage: `
              SelectedRegions lists the regions to keep, or to leave out if
              RegionSelectReverse is true. It has no effect for nationwide
              analyses.`,
			defaultVal: []string{},
			flagsets:   pipelineFlags,
		},
		{
			name: "RegionSelectReverse",
			usage: `
              RegionSelectReverse specifies that SelectedRegions are to be
              left out rather than kept.`,
			defaultVal: false,
			flagsets:   pipelineFlags,
		},
		{
			name: "Ratio.Dividend",
			usage: `
              Ratio.Dividend is the measure divided to make the ratio
              column, e.g. generation. No ratio is made if it is empty.`,
			defaultVal: "",
			flagsets:   pipelineFlags,
		},
		{
			name: "Ratio.Divisor",
			usage: `
              Ratio.Divisor is the measure that Ratio.Dividend is divided by,
              e.g. capacity.`,
			defaultVal: "",
			flagsets:   pipelineFlags,
		},
		{
			name: "Ratio.PerGroup",
			usage: `
              Ratio.PerGroup computes the ratio for each fuel group and region
              separately. Otherwise one ratio is computed for each period
              from the totals and given to every row of that period.`,
			defaultVal: false,
			flagsets:   pipelineFlags,
		},
		{
			name: "Ratio.Normalize",
			usage: `
              Ratio.Normalize divides the ratio by 8760 hours per year, e.g.
              to turn generation over capacity into a capacity factor.`,
			defaultVal: false,
			flagsets:   pipelineFlags,
		},
		{
			name: "Ratio.Name",
			usage: `
              Ratio.Name is the name of the ratio column.`,
			defaultVal: datawiz.DefaultRatioName,
			flagsets:   pipelineFlags,
		},
		{
			name: "Expressions",
			usage: `
              Expressions maps the names of additional columns to
              expressions over the measures, e.g.
              {"Intensity":"Emissions / Generation"}. On the command line it
              is a JSON object.`,
			defaultVal: map[string]string{},
			flagsets:   pipelineFlags,
		},
		{
			name: "Measure",
			usage: `
              Measure is the measure to pivot and plot. By default it is the
              measure of the first source.`,
			shorthand:  "m",
			defaultVal: "",
			flagsets:   pipelineFlags,
		},
		{
			name: "Plot.Type",
			usage: `
              Plot.Type is the kind of chart: "bars", "area" or "lines".`,
			defaultVal: "bars",
			flagsets:   chartFlags,
		},
		{
			name: "Plot.Title",
			usage: `
              Plot.Title is the chart title.`,
			defaultVal: "",
			flagsets:   chartFlags,
		},
		{
			name: "Plot.YLabel",
			usage: `
              Plot.YLabel is the Y axis label. By default it is the measure.`,
			defaultVal: "",
			flagsets:   chartFlags,
		},
		{
			name: "Plot.Width",
			usage: `
              Plot.Width is the width of each chart in inches.`,
			defaultVal: 7.0,
			flagsets:   chartFlags,
		},
		{
			name: "Plot.Height",
			usage: `
              Plot.Height is the height of each chart in inches.`,
			defaultVal: 4.0,
			flagsets:   chartFlags,
		},
		{
			name: "Plot.LogScale",
			usage: `
              Plot.LogScale draws line charts with a logarithmic Y axis.`,
			defaultVal: false,
			flagsets:   chartFlags,
		},
		{
			name: "Plot.Grid",
			usage: `
              Plot.Grid additionally draws one chart per region, tiled into
              one image. It needs a regional analysis.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Plot.GridColumns",
			usage: `
              Plot.GridColumns is the number of columns in the chart grid.
              By default the grid is about square.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Profile.Sources",
			usage: `
              Profile.Sources lists the load profile spreadsheets, in the
              same format as Sources. They are stacked rather than joined.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.KeyColumns",
			usage: `
              Profile.KeyColumns names the key columns of the load profile
              spreadsheets, in order.`,
			defaultVal: []string{"Province", "Tech", "Weekday", "Hour"},
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.Index",
			usage: `
              Profile.Index lists the key columns to keep, in order. The
              profile is summed over the other key columns.`,
			defaultVal: []string{"Weekday", "Hour"},
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.Measure",
			usage: `
              Profile.Measure is the measure column of the load profile
              spreadsheets.`,
			defaultVal: "Level",
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
		{
			name: "Profile.Plot",
			usage: `
              Profile.Plot specifies whether to draw the profile as a chart.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{profileCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DATAWIZ")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := strings.TrimSpace(b.String())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(catalogCmd)
	Root.AddCommand(pivotCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(profileCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("datawiz: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// setLogging sets up the standard logger.
func setLogging() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	})
	if Cfg.GetBool("verbose") {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "datawiz",
	Short: "Shape energy scenario spreadsheets into charts.",
	Long: `datawiz combines energy-system scenario spreadsheets (installed capacity,
generation, emissions, load profiles) with a technology reference table,
sums them by year, region and fuel group, and writes the results as
spreadsheets and stacked charts in a fixed color scheme and stacking order.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'DATAWIZ_var' where 'var' is the
name of the variable to be set, with '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		setLogging()
		return nil
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of datawiz.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "datawiz v%s\n", datawiz.Version)
	},
	DisableAutoGenTag: true,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the fuel groups of the technology reference table.",
	Long: `catalog prints the fuel groups in the technology reference table in stacking
order with their colors, followed by any groups that have no rank.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := LoadCatalog(Cfg.GetString("Catalog.File"), Cfg.GetString("Catalog.Sheet"))
		if err != nil {
			return err
		}
		_, err = catalogTable(cat).Tabbed(cmd.OutOrStdout())
		return err
	},
	DisableAutoGenTag: true,
}

// textTable holds a text representation of a table.
type textTable [][]string

// Tabbed writes a tab-aligned table.
func (t textTable) Tabbed(w io.Writer) (n int, err error) {
	ww := new(tabwriter.Writer)
	ww.Init(w, 0, 2, 2, ' ', 0)
	var nn int
	for _, l := range t {
		nn, err = fmt.Fprintln(ww, strings.Join(l, "\t"))
		if err != nil {
			return
		}
		n += nn
	}
	err = ww.Flush()
	return
}

func catalogTable(cat *datawiz.Catalog) textTable {
	t := textTable{{"Rank", "FuelGroup", "Color", "Technologies"}}
	techs := make(map[string][]string)
	for _, e := range cat.Entries() {
		techs[e.FuelGroup] = append(techs[e.FuelGroup], e.Technology)
	}
	ranked := cat.CanonicalOrder()
	for i, g := range ranked {
		t = append(t, []string{fmt.Sprint(i + 1), g, cat.ColorOf(g), strings.Join(techs[g], ",")})
	}
	for _, g := range cat.Groups() {
		if indexOf(ranked, g) < 0 {
			t = append(t, []string{"-", g, cat.ColorOf(g), strings.Join(techs[g], ",")})
		}
	}
	return t
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// analysisName returns the output file prefix for an analysis.
func analysisName(a *Analysis) string {
	if p := Cfg.GetString("OutputPrefix"); p != "" {
		return p
	}
	return a.Name()
}

var pivotCmd = &cobra.Command{
	Use:   "pivot",
	Short: "Combine, filter and pivot the sources.",
	Long: `pivot combines the sources, sums them by period, fuel group and region,
derives any ratio or expression columns and pivots the selected measure with
one column per fuel group. The result of every stage is written to one
spreadsheet in OutputDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := AnalysisFromConfig(Cfg)
		if err != nil {
			return err
		}
		r, err := a.Run(logrus.StandardLogger())
		if err != nil {
			return err
		}
		f, err := outputPath(Cfg.GetString("OutputDir"), analysisName(a)+".xlsx")
		if err != nil {
			return err
		}
		if err := r.WriteWorkbook(f); err != nil {
			return err
		}
		logrus.WithField("file", f).Info("datawiz: wrote tables")
		return nil
	},
	DisableAutoGenTag: true,
}

// plotOptions reads the chart settings from cfg.
func plotOptions(cfg *viper.Viper) PlotOptions {
	return PlotOptions{
		Options: chart.Options{
			Title:    cfg.GetString("Plot.Title"),
			YLabel:   cfg.GetString("Plot.YLabel"),
			Width:    inches(cfg.GetFloat64("Plot.Width")),
			Height:   inches(cfg.GetFloat64("Plot.Height")),
			LogScale: cfg.GetBool("Plot.LogScale"),
		},
		Type:        cfg.GetString("Plot.Type"),
		Grid:        cfg.GetBool("Plot.Grid"),
		GridColumns: cfg.GetInt("Plot.GridColumns"),
	}
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Draw charts of the pivoted sources.",
	Long: `plot runs the same steps as pivot and draws the pivoted measure as a
chart in OutputDir. If a ratio is configured it is drawn as a line chart, and
for regional analyses Plot.Grid draws one chart per region.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := AnalysisFromConfig(Cfg)
		if err != nil {
			return err
		}
		r, err := a.Run(logrus.StandardLogger())
		if err != nil {
			return err
		}
		dir, err := checkOutputDir(Cfg.GetString("OutputDir"))
		if err != nil {
			return err
		}
		files, err := r.Plot(dir, analysisName(a), plotOptions(Cfg))
		if err != nil {
			return err
		}
		logrus.WithField("files", files).Info("datawiz: wrote charts")
		return nil
	},
	DisableAutoGenTag: true,
}

// ProfileFromConfig collects the settings of a load profile aggregation
// from cfg.
func ProfileFromConfig(cfg *viper.Viper) (*Profile, error) {
	sources, err := getSources("Profile.Sources", cfg)
	if err != nil {
		return nil, err
	}
	build, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}
	return &Profile{
		CatalogFile:  cfg.GetString("Catalog.File"),
		CatalogSheet: cfg.GetString("Catalog.Sheet"),
		Sources:      sources,
		KeyColumns:   cast.ToStringSlice(cfg.Get("Profile.KeyColumns")),
		SkipColumns:  cfg.GetInt("SkipColumns"),
		Index:        cast.ToStringSlice(cfg.Get("Profile.Index")),
		Measure:      cfg.GetString("Profile.Measure"),
		Build:        build,
	}, nil
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Sum load profiles by time of day and fuel group.",
	Long: `profile stacks the load profile sources, sums them by the Profile.Index
columns (e.g. weekday and hour) and fuel group, and writes the result with one
column per fuel group to a spreadsheet in OutputDir.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		pr, err := ProfileFromConfig(Cfg)
		if err != nil {
			return err
		}
		grouped, wide, err := pr.Run(logrus.StandardLogger())
		if err != nil {
			return err
		}
		name := Cfg.GetString("OutputPrefix")
		if name == "" {
			name = pr.Name()
		}
		f, err := outputPath(Cfg.GetString("OutputDir"), name+".xlsx")
		if err != nil {
			return err
		}
		if err := xlsxio.Write(f, xlsxio.TableSheet("grouped", grouped), xlsxio.WideSheet(wide.Measure, wide)); err != nil {
			return err
		}
		files := []string{f}
		if Cfg.GetBool("Profile.Plot") {
			cat, err := LoadCatalog(pr.CatalogFile, pr.CatalogSheet)
			if err != nil {
				return err
			}
			o := plotOptions(Cfg)
			p, err := o.draw(wide, cat)
			if err != nil {
				return err
			}
			f, err := outputPath(Cfg.GetString("OutputDir"), name+"_"+typeName(o.Type)+".png")
			if err != nil {
				return err
			}
			if err := chart.Save(p, o.Options, f); err != nil {
				return err
			}
			files = append(files, f)
		}
		logrus.WithField("files", files).Info("datawiz: wrote profile")
		return nil
	},
	DisableAutoGenTag: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration.",
	Long: `config prints the configuration in effect, after combining defaults, the
configuration file, environment variables and command-line arguments, in
the TOML format of configuration files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := effectiveConfig(Cfg)
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(c)
	},
	DisableAutoGenTag: true,
}

// effectiveConfig returns the value of every option as nested tables.
func effectiveConfig(cfg *viper.Viper) (map[string]interface{}, error) {
	o := make(map[string]interface{})
	for _, option := range options {
		if option.name == "config" {
			continue
		}
		var v interface{}
		var err error
		switch option.name {
		case "Sources", "Profile.Sources":
			v, err = getSources(option.name, cfg)
		case "Expressions":
			v, err = GetStringMapString(option.name, cfg)
		default:
			v = cfg.Get(option.name)
		}
		if err != nil {
			return nil, err
		}
		if v == nil {
			continue
		}
		if s, ok := v.([]SourceConfig); ok && len(s) == 0 {
			continue
		}
		parts := strings.Split(option.name, ".")
		m := o
		for _, p := range parts[:len(parts)-1] {
			sub, ok := m[p].(map[string]interface{})
			if !ok {
				sub = make(map[string]interface{})
				m[p] = sub
			}
			m = sub
		}
		m[parts[len(parts)-1]] = v
	}
	return o, nil
}
