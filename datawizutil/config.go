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
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/datawiz"
	"github.com/spf13/cast"
)

// SourceConfig specifies one input spreadsheet.
type SourceConfig struct {
	// Name identifies the source in messages. It defaults to the file
	// name.
	Name string

	// File is the path to a .xlsx or .csv file and Sheet is the sheet
	// to read. An empty Sheet reads the first sheet.
	File, Sheet string

	// Measure is the measure column to keep from this source.
	Measure string

	// MeasureColumns optionally names the columns after the key columns.
	MeasureColumns []string

	// SkipColumns, if set, overrides the global SkipColumns option for
	// this source.
	SkipColumns *int
}

// checkOutputDir makes sure that the output directory is specified and
// exists, creating it if necessary, and expands any environment
// variables.
func checkOutputDir(d string) (string, error) {
	if d == "" {
		return "", fmt.Errorf("datawiz: OutputDir must be specified")
	}
	d = os.ExpandEnv(d)
	if err := os.MkdirAll(d, os.ModePerm); err != nil {
		return "", fmt.Errorf("datawiz: creating output directory: %v", err)
	}
	return d, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case nil:
		return map[string]string{}, nil
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		o := make(map[string]string)
		if v == "" {
			return o, nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("datawiz: reading %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("datawiz: invalid type for %s: %#v", varName, i)
	}
}

// getSources returns the source list stored at varName. In a
// configuration file the sources are an array of tables; on the command
// line they are a JSON array.
func getSources(varName string, cfg *viper.Viper) ([]SourceConfig, error) {
	i := cfg.Get(varName)
	var items []interface{}
	switch v := i.(type) {
	case nil:
		return nil, nil
	case []SourceConfig:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var o []SourceConfig
		d := json.NewDecoder(bytes.NewBufferString(v))
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("datawiz: reading %s: %v", varName, err)
		}
		return o, nil
	case []map[string]interface{}:
		for _, m := range v {
			items = append(items, m)
		}
	case []interface{}:
		items = v
	default:
		return nil, fmt.Errorf("datawiz: invalid type for %s: %#v", varName, i)
	}

	o := make([]SourceConfig, len(items))
	for j, item := range items {
		m, err := cast.ToStringMapE(item)
		if err != nil {
			return nil, fmt.Errorf("datawiz: reading %s item %d: %v", varName, j, err)
		}
		if o[j], err = sourceFromMap(m); err != nil {
			return nil, fmt.Errorf("datawiz: reading %s item %d: %v", varName, j, err)
		}
	}
	return o, nil
}

// sourceFromMap converts a configuration table into a SourceConfig.
// Keys are matched regardless of case.
func sourceFromMap(m map[string]interface{}) (SourceConfig, error) {
	var s SourceConfig
	for k, v := range m {
		var err error
		switch strings.ToLower(k) {
		case "name":
			s.Name, err = cast.ToStringE(v)
		case "file":
			s.File, err = cast.ToStringE(v)
		case "sheet":
			s.Sheet, err = cast.ToStringE(v)
		case "measure":
			s.Measure, err = cast.ToStringE(v)
		case "measurecolumns":
			s.MeasureColumns, err = cast.ToStringSliceE(v)
		case "skipcolumns":
			var n int
			n, err = cast.ToIntE(v)
			s.SkipColumns = &n
		default:
			err = fmt.Errorf("unknown key `%s`", k)
		}
		if err != nil {
			return s, err
		}
	}
	return s, nil
}

// loadSources reads the spreadsheets specified by sources.
func loadSources(sources []SourceConfig, keys []string, skip int) ([]datawiz.SourceSpec, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("datawiz: no sources specified")
	}
	o := make([]datawiz.SourceSpec, len(sources))
	for i, s := range sources {
		raw, err := readFile(os.ExpandEnv(s.File), s.Sheet)
		if err != nil {
			return nil, err
		}
		name := s.Name
		if name == "" {
			name = filepath.Base(s.File)
		}
		o[i] = datawiz.SourceSpec{
			Name:           name,
			Table:          raw,
			SkipColumns:    skip,
			KeyColumns:     keys,
			MeasureColumns: s.MeasureColumns,
			Measure:        s.Measure,
		}
		if s.SkipColumns != nil {
			o[i].SkipColumns = *s.SkipColumns
		}
	}
	return o, nil
}

// filterConfig reads the filter settings from cfg.
func filterConfig(cfg *viper.Viper) (datawiz.FilterOptions, error) {
	return datawiz.NewFilterOptions(datawiz.FilterConfig{
		RegionalLevel:       cfg.GetString("RegionalLevel"),
		IncludedTechGroups:  cast.ToStringSlice(cfg.Get("IncludedTechGroups")),
		ExcludedTechGroups:  cast.ToStringSlice(cfg.Get("ExcludedTechGroups")),
		SelectedRegions:     cast.ToStringSlice(cfg.Get("SelectedRegions")),
		RegionSelectReverse: cfg.GetBool("RegionSelectReverse"),
	})
}

// buildOptions reads the source combination settings from cfg.
func buildOptions(cfg *viper.Viper) (datawiz.BuildOptions, error) {
	policy, err := datawiz.ParseUnmappedPolicy(cfg.GetString("Unmapped"))
	if err != nil {
		return datawiz.BuildOptions{}, err
	}
	return datawiz.BuildOptions{
		PeriodColumn:     cfg.GetString("PeriodColumn"),
		TechnologyColumn: cfg.GetString("TechnologyColumn"),
		Unmapped:         policy,
		DefaultGroup:     cfg.GetString("DefaultGroup"),
	}, nil
}

// ratioOptions reads the derived ratio settings from cfg. It returns nil
// if no ratio is configured.
func ratioOptions(cfg *viper.Viper) (*datawiz.RatioOptions, error) {
	dividend, divisor := cfg.GetString("Ratio.Dividend"), cfg.GetString("Ratio.Divisor")
	if dividend == "" && divisor == "" {
		return nil, nil
	}
	if dividend == "" || divisor == "" {
		return nil, fmt.Errorf("datawiz: Ratio.Dividend and Ratio.Divisor must be set together")
	}
	return &datawiz.RatioOptions{
		Dividend:                dividend,
		Divisor:                 divisor,
		PerGroup:                cfg.GetBool("Ratio.PerGroup"),
		NormalizeByHoursPerYear: cfg.GetBool("Ratio.Normalize"),
		Name:                    cfg.GetString("Ratio.Name"),
	}, nil
}

// AnalysisFromConfig collects the settings of a pipeline run from cfg.
func AnalysisFromConfig(cfg *viper.Viper) (*Analysis, error) {
	sources, err := getSources("Sources", cfg)
	if err != nil {
		return nil, err
	}
	build, err := buildOptions(cfg)
	if err != nil {
		return nil, err
	}
	filter, err := filterConfig(cfg)
	if err != nil {
		return nil, err
	}
	ratio, err := ratioOptions(cfg)
	if err != nil {
		return nil, err
	}
	expressions, err := GetStringMapString("Expressions", cfg)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		CatalogFile:  os.ExpandEnv(cfg.GetString("Catalog.File")),
		CatalogSheet: cfg.GetString("Catalog.Sheet"),
		Sources:      sources,
		KeyColumns:   cast.ToStringSlice(cfg.Get("KeyColumns")),
		SkipColumns:  cfg.GetInt("SkipColumns"),
		Build:        build,
		Filter:       filter,
		Ratio:        ratio,
		Expressions:  expressions,
		Measure:      cfg.GetString("Measure"),
	}, nil
}
