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

// Package xlsxio reads spreadsheet files into raw tables and writes
// pipeline tables back out as Microsoft Excel files for inspection.
package xlsxio

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/spatialmodel/datawiz"
	"github.com/tealeg/xlsx"
)

// excelCache holds previously opened Microsoft Excel files
// to avoid reading the same file multiple times.
var excelCache *requestcache.Cache

var loadExcelCacheOnce sync.Once

// loadExcelFile loads a Microsoft Excel file from disk, utilizing
// a cache to avoid loading the same file more than once. Files that have
// been modified since they were cached are loaded again.
func loadExcelFile(fileName string) (*xlsx.File, error) {
	loadExcelCacheOnce.Do(func() {
		excelCache = requestcache.NewCache(func(ctx context.Context, req interface{}) (interface{}, error) {
			filename := req.(string)
			f, err := xlsx.OpenFile(filename)
			if err != nil {
				return nil, fmt.Errorf("xlsxio: opening xlsx file: %v", err)
			}
			return f, nil
		}, runtime.GOMAXPROCS(-1), requestcache.Memory(1000))
	})
	info, err := os.Stat(fileName)
	if err != nil {
		return nil, fmt.Errorf("xlsxio: %v", err)
	}
	key := fmt.Sprintf("%s@%d", fileName, info.ModTime().UnixNano())
	r := excelCache.NewRequest(context.Background(), fileName, key)
	fI, err := r.Result()
	if err != nil {
		return nil, err
	}
	return fI.(*xlsx.File), nil
}

// ReadFile reads the given sheet of a .xlsx file, or a whole .csv file,
// into a RawTable. The first row is the header. An empty sheet name
// selects the first sheet. Cells are trimmed and trailing blank rows are
// dropped.
func ReadFile(fileName, sheet string) (*datawiz.RawTable, error) {
	var rows [][]string
	var err error
	name := filepath.Base(fileName)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		rows, sheet, err = readExcel(fileName, sheet)
		name += ":" + sheet
	case ".csv":
		rows, err = readCSV(fileName)
	default:
		return nil, fmt.Errorf("xlsxio: unsupported file type `%s`", filepath.Ext(fileName))
	}
	if err != nil {
		return nil, err
	}
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("xlsxio: %s has no header row", name)
	}
	return &datawiz.RawTable{
		Name:   name,
		Header: rows[0],
		Rows:   rows[1:],
	}, nil
}

// Sheets returns the names of the sheets in a .xlsx file.
func Sheets(fileName string) ([]string, error) {
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, err
	}
	o := make([]string, len(f.Sheets))
	for i, s := range f.Sheets {
		o[i] = s.Name
	}
	return o, nil
}

func readExcel(fileName, sheet string) ([][]string, string, error) {
	f, err := loadExcelFile(fileName)
	if err != nil {
		return nil, "", err
	}
	var s *xlsx.Sheet
	if sheet == "" {
		if len(f.Sheets) == 0 {
			return nil, "", fmt.Errorf("xlsxio: %s has no sheets", fileName)
		}
		s = f.Sheets[0]
	} else {
		var ok bool
		if s, ok = f.Sheet[sheet]; !ok {
			return nil, "", fmt.Errorf("xlsxio: reading %s; no sheet %s", fileName, sheet)
		}
	}

	o := make([][]string, s.MaxRow)
	for j := 0; j < s.MaxRow; j++ {
		o[j] = make([]string, s.MaxCol)
		for i := 0; i < s.MaxCol; i++ {
			o[j][i] = strings.TrimSpace(s.Cell(j, i).Value)
		}
	}
	return o, s.Name, nil
}

func readCSV(fileName string) ([][]string, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, fmt.Errorf("xlsxio: %v", err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	lines, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("xlsxio: reading %s: %v", fileName, err)
	}
	for j, line := range lines {
		for i, c := range line {
			if j == 0 && i == 0 {
				c = strings.TrimPrefix(c, "\ufeff")
			}
			line[i] = strings.TrimSpace(c)
		}
	}
	return lines, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
