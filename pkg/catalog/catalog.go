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

package catalog

import (
	"context"
	"strings"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
)

// ColDef describes one table column.
type ColDef struct {
	Name string
	Typ  types.Type
	// Default is the default expression as written, empty when the column has none.
	Default string
}

func (def ColDef) String() string {
	return def.Name + " " + def.Typ.DescString()
}

// ColumnsDescription is the ordered, uniquely named column list of a table.
type ColumnsDescription struct {
	cols  []ColDef
	index map[string]int
}

func NewColumnsDescription(ctx context.Context, cols []ColDef) (*ColumnsDescription, error) {
	desc := &ColumnsDescription{
		cols:  make([]ColDef, 0, len(cols)),
		index: make(map[string]int, len(cols)),
	}
	for _, col := range cols {
		if col.Name == "" {
			return nil, moerr.NewInvalidInput(ctx, "empty column name")
		}
		if _, ok := desc.index[col.Name]; ok {
			return nil, moerr.NewInvalidInput(ctx, "duplicate column name '%s'", col.Name)
		}
		desc.index[col.Name] = len(desc.cols)
		desc.cols = append(desc.cols, col)
	}
	return desc, nil
}

func (desc *ColumnsDescription) Len() int {
	return len(desc.cols)
}

func (desc *ColumnsDescription) Has(name string) bool {
	_, ok := desc.index[name]
	return ok
}

func (desc *ColumnsDescription) Get(name string) (ColDef, bool) {
	pos, ok := desc.index[name]
	if !ok {
		return ColDef{}, false
	}
	return desc.cols[pos], true
}

// All returns a copy of the columns in table order.
func (desc *ColumnsDescription) All() []ColDef {
	return append([]ColDef(nil), desc.cols...)
}

func (desc *ColumnsDescription) Names() []string {
	names := make([]string, len(desc.cols))
	for i, col := range desc.cols {
		names[i] = col.Name
	}
	return names
}

// Pick returns the definitions of names in the given order.
func (desc *ColumnsDescription) Pick(ctx context.Context, names []string) ([]ColDef, error) {
	cols := make([]ColDef, 0, len(names))
	for _, name := range names {
		col, ok := desc.Get(name)
		if !ok {
			return nil, moerr.NewInvalidInput(ctx, "column '%s' does not exist", name)
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// With returns a new description with cols appended.
func (desc *ColumnsDescription) With(ctx context.Context, cols ...ColDef) (*ColumnsDescription, error) {
	return NewColumnsDescription(ctx, append(desc.All(), cols...))
}

// Without returns a new description with the named columns dropped, unknown
// names are ignored.
func (desc *ColumnsDescription) Without(names ...string) *ColumnsDescription {
	drop := make(map[string]struct{}, len(names))
	for _, name := range names {
		drop[name] = struct{}{}
	}
	r := &ColumnsDescription{index: make(map[string]int, len(desc.cols))}
	for _, col := range desc.cols {
		if _, ok := drop[col.Name]; ok {
			continue
		}
		r.index[col.Name] = len(r.cols)
		r.cols = append(r.cols, col)
	}
	return r
}

func (desc *ColumnsDescription) String() string {
	var sb strings.Builder
	for i, col := range desc.cols {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(col.String())
	}
	return sb.String()
}

// TableDef is the part of a table's metadata the projections depend on.
type TableDef struct {
	Name    string
	Columns *ColumnsDescription
	// PrimaryKey is the sorting key, one expression per key part.
	PrimaryKey []tree.Expr
	// PartitionBy lists the partition key expressions.
	PartitionBy []tree.Expr
	// MinMaxColumns are the columns whose per part bounds are tracked.
	MinMaxColumns []string
}

// PrimaryKeyColumns returns the base columns referenced by the primary key
// expressions, in order of first appearance.
func (def *TableDef) PrimaryKeyColumns() []string {
	return ReferencedColumns(def.PrimaryKey...)
}

// ReferencedColumns collects the column names referenced by exprs in order of
// first appearance.
func ReferencedColumns(exprs ...tree.Expr) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, expr := range exprs {
		tree.Walk(expr, func(e tree.Expr) bool {
			if name, ok := e.(*tree.UnresolvedName); ok && !name.Star {
				if _, ok := seen[name.Name]; !ok {
					seen[name.Name] = struct{}{}
					names = append(names, name.Name)
				}
			}
			return true
		})
	}
	return names
}
