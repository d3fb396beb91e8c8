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
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// RatioOptions specifies a derived ratio column.
type RatioOptions struct {
	// Dividend and Divisor are the measure columns to divide.
	Dividend, Divisor string

	// PerGroup computes the ratio separately for each row. Otherwise
	// dividend and divisor are summed over every row of a period and
	// the resulting ratio is given to every row of that period.
	PerGroup bool

	// NormalizeByHoursPerYear divides the ratio by HoursPerYear, which
	// turns e.g. generation over capacity into a capacity factor.
	NormalizeByHoursPerYear bool

	// Name is the name of the new column. It defaults to
	// DefaultRatioName.
	Name string
}

// DeriveRatio returns a copy of t with a ratio column added, replacing
// any existing column of the same name. Division by zero gives NaN or an
// infinity, which is kept as is. A ratio with a null operand is null.
func (p *Pipeline) DeriveRatio(t *WorkingTable, opts RatioOptions) (*WorkingTable, error) {
	if opts.Name == "" {
		opts.Name = DefaultRatioName
	}
	a := t.MeasureIndex(opts.Dividend)
	if a < 0 {
		return nil, &MissingColumnError{Column: opts.Dividend}
	}
	b := t.MeasureIndex(opts.Divisor)
	if b < 0 {
		return nil, &MissingColumnError{Column: opts.Divisor}
	}
	scale := 1.
	if opts.NormalizeByHoursPerYear {
		scale = HoursPerYear
	}

	ratios := make([]Float, len(t.Rows))
	if opts.PerGroup {
		for i, r := range t.Rows {
			ratios[i] = divide(r.Measures[a], r.Measures[b], scale)
		}
	} else {
		period := t.KeyIndex(t.Period)
		if period < 0 {
			return nil, &KeyMismatchError{Reason: fmt.Sprintf("table has no period column `%s`", t.Period)}
		}
		dividends := make(map[string][]float64)
		divisors := make(map[string][]float64)
		for _, r := range t.Rows {
			k := r.Keys[period]
			if v := r.Measures[a]; v.Valid {
				dividends[k] = append(dividends[k], v.V)
			}
			if v := r.Measures[b]; v.Valid {
				divisors[k] = append(divisors[k], v.V)
			}
		}
		periodRatio := make(map[string]Float)
		for k := range dividends {
			if _, ok := divisors[k]; ok {
				periodRatio[k] = divide(Value(floats.Sum(dividends[k])), Value(floats.Sum(divisors[k])), scale)
			}
		}
		for i, r := range t.Rows {
			ratios[i] = periodRatio[r.Keys[period]]
		}
	}

	o := withColumn(t.Table, opts.Name, ratios)
	w := t.with(o)
	w.Derived = opts.Name
	var degenerate int
	for _, v := range ratios {
		if IsDegenerate(v) {
			degenerate++
		}
	}
	p.Log.WithFields(logrus.Fields{
		"name":       opts.Name,
		"perGroup":   opts.PerGroup,
		"normalized": opts.NormalizeByHoursPerYear,
		"degenerate": degenerate,
	}).Info("datawiz: derived ratio")
	return w, nil
}

func divide(a, b Float, scale float64) Float {
	if !a.Valid || !b.Valid {
		return Null
	}
	return Value(a.V / b.V / scale)
}

// withColumn returns a copy of t with the given measure values, replacing
// any column with the same name.
func withColumn(t *Table, name string, values []Float) *Table {
	o := t.Clone()
	j := o.MeasureIndex(name)
	if j < 0 {
		j = len(o.Measures)
		o.Measures = append(o.Measures, name)
		for i := range o.Rows {
			o.Rows[i].Measures = append(o.Rows[i].Measures, Null)
		}
	}
	for i := range o.Rows {
		o.Rows[i].Measures[j] = values[i]
	}
	return o
}

// expressionFunctions are the functions available to DeriveExpression.
var expressionFunctions = map[string]govaluate.ExpressionFunction{
	"exp": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("datawiz: got %d arguments for function 'exp', but needs 1", len(arg))
		}
		return math.Exp(arg[0].(float64)), nil
	},
	"log": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("datawiz: got %d arguments for function 'log', but needs 1", len(arg))
		}
		return math.Log(arg[0].(float64)), nil
	},
	"abs": func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("datawiz: got %d arguments for function 'abs', but needs 1", len(arg))
		}
		return math.Abs(arg[0].(float64)), nil
	},
}

// DeriveExpression returns a copy of t with a column calculated row by
// row from expr, an arithmetic expression over measure names such as
// "Emissions / Generation * 1000". Names containing spaces or operators
// are written in brackets, e.g. "[CO2 (t)] / Generation". The functions
// exp, log and abs are available. The result is null for rows where any
// referenced measure is null.
func (p *Pipeline) DeriveExpression(t *WorkingTable, name, expr string) (*WorkingTable, error) {
	expression, err := govaluate.NewEvaluableExpressionWithFunctions(expr, expressionFunctions)
	if err != nil {
		return nil, fmt.Errorf("datawiz: parsing expression for `%s`: %w", name, err)
	}
	vars := expression.Vars()
	cols := make([]int, len(vars))
	for i, v := range vars {
		if cols[i] = t.MeasureIndex(v); cols[i] < 0 {
			return nil, &MissingColumnError{Column: v}
		}
	}

	values := make([]Float, len(t.Rows))
	params := make(map[string]interface{}, len(vars))
rows:
	for i, r := range t.Rows {
		for j, v := range vars {
			x := r.Measures[cols[j]]
			if !x.Valid {
				continue rows
			}
			params[v] = x.V
		}
		result, err := expression.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("datawiz: evaluating `%s`: %w", name, err)
		}
		f, ok := result.(float64)
		if !ok {
			return nil, fmt.Errorf("datawiz: expression for `%s` gives %T, not a number", name, result)
		}
		values[i] = Value(f)
	}
	w := t.with(withColumn(t.Table, name, values))
	w.Derived = name
	p.Log.WithFields(logrus.Fields{"name": name, "expression": expr}).Info("datawiz: derived column")
	return w, nil
}
