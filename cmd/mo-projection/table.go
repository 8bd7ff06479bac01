// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/logutil"
	"github.com/matrixorigin/moprojection/pkg/projection"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

// TableFile is the toml description of a table and its projections.
type TableFile struct {
	Table         string       `toml:"table"`
	Columns       []ColumnFile `toml:"columns"`
	PrimaryKey    string       `toml:"primaryKey"`
	PartitionBy   string       `toml:"partitionBy"`
	MinMaxColumns []string     `toml:"minmaxColumns"`
	Projections   []string     `toml:"projections"`
	// Rows are the values evaluate runs the projections over, one list per
	// row in column order.
	Rows [][]any `toml:"rows"`
}

type ColumnFile struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"`
	Default string `toml:"default"`
}

const secondsPerDay = 24 * 60 * 60

// table is a TableFile with its projections derived.
type table struct {
	def         *catalog.TableDef
	projections *projection.Projections
	rows        [][]any
}

func loadTableFile(ctx context.Context, file string) (*TableFile, error) {
	tf := &TableFile{}
	if _, err := toml.DecodeFile(file, tf); err != nil {
		return nil, moerr.NewBadConfig(ctx, "decode %s: %v", file, err)
	}
	if tf.Table == "" {
		return nil, moerr.NewBadConfig(ctx, "%s: table name is missing", file)
	}
	return tf, nil
}

func (tf *TableFile) columns(ctx context.Context) (*catalog.ColumnsDescription, error) {
	defs := make([]catalog.ColDef, 0, len(tf.Columns))
	for _, col := range tf.Columns {
		typ, err := types.ParseType(col.Type)
		if err != nil {
			return nil, moerr.NewBadConfig(ctx, "column '%s': %v", col.Name, err)
		}
		defs = append(defs, catalog.ColDef{Name: col.Name, Typ: typ, Default: col.Default})
	}
	return catalog.NewColumnsDescription(ctx, defs)
}

// build derives every projection of tf, the minmax count projection comes
// last when the table has a partition key or minmax columns.
func (tf *TableFile) build(proc *process.Process) (*table, error) {
	ctx := proc.Ctx
	columns, err := tf.columns(ctx)
	if err != nil {
		return nil, err
	}
	def := &catalog.TableDef{
		Name:          tf.Table,
		Columns:       columns,
		MinMaxColumns: tf.MinMaxColumns,
	}
	if def.PrimaryKey, err = parseExprList(proc, tf.PrimaryKey); err != nil {
		return nil, err
	}
	if def.PartitionBy, err = parseExprList(proc, tf.PartitionBy); err != nil {
		return nil, err
	}

	ps, err := projection.ParseProjections(proc, strings.Join(tf.Projections, ", "), columns)
	if err != nil {
		return nil, err
	}
	if proc.EnableMinMaxCount && (len(def.PartitionBy) > 0 || len(def.MinMaxColumns) > 0) {
		minmax, err := projection.GetMinMaxCountProjection(proc, columns, def.PartitionBy, def.MinMaxColumns, def.PrimaryKey)
		if err != nil {
			return nil, err
		}
		if err = ps.Add(ctx, minmax, projection.AddOptions{}); err != nil {
			return nil, err
		}
	}
	logutil.Debug("loaded table", logutil.TableField(def.Name))
	return &table{def: def, projections: ps.WithTable(def), rows: tf.Rows}, nil
}

func parseExprList(proc *process.Process, text string) (tree.Exprs, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	decl, err := proc.Parser.ParseProjectionSelect(proc.Ctx, "select "+text)
	if err != nil {
		return nil, err
	}
	exprs := make(tree.Exprs, 0, len(decl.Exprs))
	for _, se := range decl.Exprs {
		exprs = append(exprs, se.Expr)
	}
	return exprs, nil
}

// batches splits the rows of t into batches of at most size rows.
func (t *table) batches(ctx context.Context, size int) ([]*batch.Batch, error) {
	cols := t.def.Columns.All()
	var bats []*batch.Batch
	for start := 0; start < len(t.rows); start += size {
		end := min(start+size, len(t.rows))
		attrs := make([]string, len(cols))
		vecs := make([]*vector.Vector, len(cols))
		for i, col := range cols {
			attrs[i] = col.Name
			vecs[i] = vector.NewVec(col.Typ)
		}
		for r, row := range t.rows[start:end] {
			if len(row) != len(cols) {
				return nil, moerr.NewInvalidInput(ctx, "row %d has %d values, expected %d", start+r, len(row), len(cols))
			}
			for i, val := range row {
				v, err := convertValue(ctx, cols[i], val)
				if err != nil {
					return nil, err
				}
				if err = vecs[i].AppendAny(v); err != nil {
					return nil, err
				}
			}
		}
		bat, err := batch.NewWithVectors(attrs, vecs)
		if err != nil {
			return nil, err
		}
		bat.SetRowCount(end - start)
		bats = append(bats, bat)
	}
	return bats, nil
}

// convertValue turns a toml value into the physical value of col. toml
// decodes integers as int64 and floats as float64, the string "null" and
// the empty string are NULL.
func convertValue(ctx context.Context, col catalog.ColDef, val any) (any, error) {
	if s, ok := val.(string); ok && (s == "" || strings.EqualFold(s, "null")) && !col.Typ.Oid.IsMySQLString() {
		return nil, nil
	}
	bad := func() error {
		return moerr.NewInvalidInput(ctx, "value %v does not fit column '%s' of type %s", val, col.Name, col.Typ.DescString())
	}
	oid := col.Typ.Oid
	switch {
	case oid.IsInteger():
		var i int64
		switch x := val.(type) {
		case int64:
			i = x
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
			if err != nil {
				return nil, bad()
			}
			i = n
		default:
			return nil, bad()
		}
		return castInt(oid, i), nil
	case oid.IsFloat():
		var f float64
		switch x := val.(type) {
		case int64:
			f = float64(x)
		case float64:
			f = x
		default:
			return nil, bad()
		}
		if oid == types.T_float32 {
			return float32(f), nil
		}
		return f, nil
	case oid == types.T_bool:
		b, ok := val.(bool)
		if !ok {
			return nil, bad()
		}
		return b, nil
	case oid == types.T_date:
		switch x := val.(type) {
		case int64:
			return int32(x), nil
		case string:
			t, err := time.Parse(time.DateOnly, x)
			if err != nil {
				return nil, bad()
			}
			return int32(t.Unix() / secondsPerDay), nil
		}
		return nil, bad()
	case oid.IsMySQLString():
		switch x := val.(type) {
		case string:
			return x, nil
		case int64:
			return strconv.FormatInt(x, 10), nil
		}
		return nil, bad()
	}
	return nil, bad()
}

func castInt(oid types.T, i int64) any {
	switch oid {
	case types.T_int8:
		return int8(i)
	case types.T_int16:
		return int16(i)
	case types.T_int32:
		return int32(i)
	case types.T_uint8:
		return uint8(i)
	case types.T_uint16:
		return uint16(i)
	case types.T_uint32:
		return uint32(i)
	case types.T_uint64:
		return uint64(i)
	}
	return i
}
