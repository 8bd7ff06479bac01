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

package projection

import (
	"slices"
	"weak"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/sql/plan/function"
)

// MinMaxCountProjectionName is reserved for the synthesized minmax count
// projection.
const MinMaxCountProjectionName = "_minmax_count_projection"

const directorySuffix = ".proj"

type Kind uint8

const (
	// Normal projections store the rows in another order.
	Normal Kind = iota
	// Aggregate projections store one row per distinct group key.
	Aggregate
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Aggregate:
		return "aggregate"
	}
	return "unknown"
}

// AggregateInfo holds what only an aggregate projection has.
type AggregateInfo struct {
	// GroupBy are the group key expressions, they lead the output.
	GroupBy tree.Exprs
	// Aggregates are the output columns computed from aggregate functions.
	Aggregates []string
}

// MinMaxCountInfo holds what only the minmax count projection has, the
// synthesis parameters included so the projection can be rebuilt.
type MinMaxCountInfo struct {
	PartitionBy   tree.Exprs
	MinMaxColumns []string
	PrimaryKey    tree.Exprs

	// PrimaryKeyMaxColumnName is the output column holding the max of the
	// primary key, empty when no primary key expression qualified.
	PrimaryKeyMaxColumnName string
	// PartitionValueIndices maps every partition expression, duplicates
	// included, to its output column.
	PartitionValueIndices []int
}

// Description describes one projection of a table.
//
// A Description is never changed once derived. Copies sharing trees must not
// be made with plain assignment, use Clone.
type Description struct {
	Name string
	Kind Kind

	// definition is the query as written, query the rewritten one that is
	// evaluated.
	definition *tree.ProjectionSelect
	query      *tree.ProjectionSelect

	requiredColumns []string
	outputSchema    []catalog.ColDef
	keySize         int

	aggregate *AggregateInfo
	minmax    *MinMaxCountInfo

	table weak.Pointer[catalog.TableDef]
}

// Definition returns a copy of the query as written.
func (desc *Description) Definition() *tree.ProjectionSelect {
	return desc.definition.Clone()
}

// Query returns a copy of the rewritten query.
func (desc *Description) Query() *tree.ProjectionSelect {
	return desc.query.Clone()
}

// DefinitionString is the persisted form, `name (SELECT ...)`.
func (desc *Description) DefinitionString() string {
	return tree.String(&tree.ProjectionDecl{Name: desc.Name, Query: desc.definition})
}

func (desc *Description) GetRequiredColumns() []string {
	return slices.Clone(desc.requiredColumns)
}

func (desc *Description) OutputSchema() []catalog.ColDef {
	return slices.Clone(desc.outputSchema)
}

// KeySchema is the leading sort or group key part of the output.
func (desc *Description) KeySchema() []catalog.ColDef {
	return slices.Clone(desc.outputSchema[:desc.keySize])
}

func (desc *Description) KeySize() int {
	return desc.keySize
}

func (desc *Description) AggregateInfo() (AggregateInfo, bool) {
	if desc.aggregate == nil {
		return AggregateInfo{}, false
	}
	return AggregateInfo{
		GroupBy:    tree.CloneExprs(desc.aggregate.GroupBy),
		Aggregates: slices.Clone(desc.aggregate.Aggregates),
	}, true
}

func (desc *Description) IsMinMaxCount() bool {
	return desc.minmax != nil
}

func (desc *Description) MinMaxCountInfo() (MinMaxCountInfo, bool) {
	if desc.minmax == nil {
		return MinMaxCountInfo{}, false
	}
	return desc.minmax.clone(), true
}

func (desc *Description) PrimaryKeyMaxColumnName() string {
	if desc.minmax == nil {
		return ""
	}
	return desc.minmax.PrimaryKeyMaxColumnName
}

func (desc *Description) PartitionValueIndices() []int {
	if desc.minmax == nil {
		return nil
	}
	return slices.Clone(desc.minmax.PartitionValueIndices)
}

// GetDirectoryName is where the data of the projection is stored inside a
// table part.
func (desc *Description) GetDirectoryName() string {
	return desc.Name + directorySuffix
}

// WithTable returns a copy of desc bound to its owning table, desc itself is
// left unchanged. The table is not kept alive by the copy, a nil table
// returns an unbound copy.
func (desc *Description) WithTable(table *catalog.TableDef) *Description {
	c := desc.Clone()
	if table == nil {
		c.table = weak.Pointer[catalog.TableDef]{}
		return c
	}
	c.table = weak.Make(table)
	return c
}

// Table returns the owning table, nil when unset or already collected.
func (desc *Description) Table() *catalog.TableDef {
	return desc.table.Value()
}

// primaryKeyColumns are the base columns of the primary key, taken from the
// synthesis parameters or else from the owning table.
func (desc *Description) primaryKeyColumns() []string {
	if desc.minmax != nil {
		return catalog.ReferencedColumns(desc.minmax.PrimaryKey...)
	}
	if table := desc.Table(); table != nil {
		return table.PrimaryKeyColumns()
	}
	return nil
}

// IsPrimaryKeyColumnPossiblyWrappedInFunctions reports whether node is a
// primary key column, or a chain of single argument monotonic functions
// applied to one.
func (desc *Description) IsPrimaryKeyColumnPossiblyWrappedInFunctions(node tree.Expr) bool {
	return isPrimaryKeyColumnPossiblyWrappedInFunctions(node, desc.primaryKeyColumns())
}

func isPrimaryKeyColumnPossiblyWrappedInFunctions(node tree.Expr, pkColumns []string) bool {
	for node != nil {
		switch e := node.(type) {
		case *tree.UnresolvedName:
			return !e.Star && slices.Contains(pkColumns, e.Name)
		case *tree.FuncExpr:
			if len(e.Exprs) != 1 || !function.IsMonotonicFunction(e.Func) {
				return false
			}
			node = e.Exprs[0]
		case *tree.UnaryExpr:
			if !function.IsMonotonicFunction(e.Op.FuncName()) {
				return false
			}
			node = e.Expr
		default:
			return false
		}
	}
	return false
}

// Clone returns a copy sharing no tree node with desc.
func (desc *Description) Clone() *Description {
	c := &Description{
		Name:            desc.Name,
		Kind:            desc.Kind,
		definition:      desc.definition.Clone(),
		query:           desc.query.Clone(),
		requiredColumns: slices.Clone(desc.requiredColumns),
		outputSchema:    slices.Clone(desc.outputSchema),
		keySize:         desc.keySize,
		table:           desc.table,
	}
	if desc.aggregate != nil {
		info, _ := desc.AggregateInfo()
		c.aggregate = &info
	}
	if desc.minmax != nil {
		info := desc.minmax.clone()
		c.minmax = &info
	}
	return c
}

func (info *MinMaxCountInfo) clone() MinMaxCountInfo {
	return MinMaxCountInfo{
		PartitionBy:             tree.CloneExprs(info.PartitionBy),
		MinMaxColumns:           slices.Clone(info.MinMaxColumns),
		PrimaryKey:              tree.CloneExprs(info.PrimaryKey),
		PrimaryKeyMaxColumnName: info.PrimaryKeyMaxColumnName,
		PartitionValueIndices:   slices.Clone(info.PartitionValueIndices),
	}
}

// Equal compares the name, the kind, the trees, the schemas and the minmax
// count fields. The owning table is not compared.
func (desc *Description) Equal(other *Description) bool {
	if desc == nil || other == nil {
		return desc == other
	}
	return desc.Name == other.Name &&
		desc.Kind == other.Kind &&
		desc.definition.Equal(other.definition) &&
		desc.query.Equal(other.query) &&
		slices.Equal(desc.requiredColumns, other.requiredColumns) &&
		slices.EqualFunc(desc.outputSchema, other.outputSchema, colDefEqual) &&
		desc.keySize == other.keySize &&
		desc.IsMinMaxCount() == other.IsMinMaxCount() &&
		desc.PrimaryKeyMaxColumnName() == other.PrimaryKeyMaxColumnName() &&
		slices.Equal(desc.PartitionValueIndices(), other.PartitionValueIndices())
}

func colDefEqual(a, b catalog.ColDef) bool {
	return a.Name == b.Name && a.Typ.Eq(b.Typ) && a.Default == b.Default
}

func (desc *Description) String() string {
	return desc.DefinitionString()
}
