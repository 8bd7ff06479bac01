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
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
)

func outputNames(desc *Description) []string {
	names := make([]string, 0, len(desc.outputSchema))
	for _, col := range desc.outputSchema {
		names = append(names, col.Name)
	}
	return names
}

func TestDeriveAggregate(t *testing.T) {
	desc := mustDerive(t, testColumns(t, "a int", "b int"), "p1 (select a, sum(b) group by a)")
	require.Equal(t, "p1", desc.Name)
	require.Equal(t, Aggregate, desc.Kind)
	require.Equal(t, []string{"a", "b"}, desc.GetRequiredColumns())
	require.Equal(t, 1, desc.KeySize())
	require.Equal(t, []catalog.ColDef{
		{Name: "a", Typ: types.T_int32.ToType()},
		{Name: "sum(b)", Typ: types.T_int64.ToType()},
	}, desc.OutputSchema())
}

func TestDeriveNormal(t *testing.T) {
	columns := testColumns(t)

	desc := mustDerive(t, columns, "p2 (select b, s order by a)")
	require.Equal(t, Normal, desc.Kind)
	require.Equal(t, 1, desc.KeySize())
	require.Equal(t, "SELECT a, b, s ORDER BY a", desc.Query().String())
	require.Equal(t, "p2 (SELECT b, s ORDER BY a)", desc.DefinitionString())
	require.Equal(t, []string{"a", "b", "s"}, desc.GetRequiredColumns())
	require.Equal(t, []string{"a", "b", "s"}, outputNames(desc))
	_, ok := desc.AggregateInfo()
	require.False(t, ok)

	desc = mustDerive(t, columns, "p3 (select * order by b)")
	require.Equal(t, []string{"b", "a", "s"}, outputNames(desc))
	require.Equal(t, "p3 (SELECT * ORDER BY b)", desc.DefinitionString())

	desc = mustDerive(t, columns, "p4 (select a, b order by (b, a), b)")
	require.Equal(t, 2, desc.KeySize())
	require.Equal(t, []string{"b", "a"}, outputNames(desc))

	desc = mustDerive(t, columns, "p5 (select a, s)")
	require.Equal(t, 0, desc.KeySize())
	require.Equal(t, []string{"a", "s"}, outputNames(desc))
}

func TestDeriveAggregateKeys(t *testing.T) {
	columns := testColumns(t)

	desc := mustDerive(t, columns, "p1 (select sum(b) group by a)")
	require.Equal(t, "SELECT a, sum(b) GROUP BY a", desc.Query().String())
	require.Equal(t, []string{"a", "sum(b)"}, outputNames(desc))

	desc = mustDerive(t, columns, "p2 (select count(), max(b))")
	require.Equal(t, Aggregate, desc.Kind)
	require.Equal(t, 0, desc.KeySize())
	require.Equal(t, []string{"b"}, desc.GetRequiredColumns())
	info, ok := desc.AggregateInfo()
	require.True(t, ok)
	require.Equal(t, []string{"count()", "max(b)"}, info.Aggregates)

	desc = mustDerive(t, columns, "p3 (select count(*) as n, s, a % 2 group by (a % 2, s))")
	require.Equal(t, 2, desc.KeySize())
	require.Equal(t, []string{"a % 2", "s", "n"}, outputNames(desc))
}

func TestDeriveFunctionNameCase(t *testing.T) {
	columns := testColumns(t)

	desc := mustDerive(t, columns, "p1 (select ABS(a), sum(b) group by abs(a))")
	require.Equal(t, Aggregate, desc.Kind)
	require.Equal(t, 1, desc.KeySize())
	require.Equal(t, []string{"ABS(a)", "sum(b)"}, outputNames(desc))

	desc = mustDerive(t, columns, "p2 (select Abs(a), b order by abs(a), ABS(a))")
	require.Equal(t, 1, desc.KeySize())
	require.Equal(t, []string{"Abs(a)", "b"}, outputNames(desc))

	desc = mustDerive(t, columns, "p3 (select SUM(b), sum(b) as total group by a)")
	info, ok := desc.AggregateInfo()
	require.True(t, ok)
	require.Equal(t, []string{"SUM(b)", "total"}, info.Aggregates)
}

func TestDeriveErrors(t *testing.T) {
	columns := testColumns(t)
	proc := testProcess()
	for _, sql := range []string{
		"p (select x order by a)",
		"p (select a order by y)",
		"p (select a, sum(b) group by a order by a)",
		"p (select a, sum(b) order by a)",
		"p (select a, b, sum(b) group by a)",
		"p (select a order by sum(b))",
		"p (select a + s order by a)",
		"p (select sum(sum(b)) group by a)",
		"p (select sum(s) group by a)",
		"p (select nosuchfunc(a))",
		"p (select a, b as a)",
		"_minmax_count_projection (select a order by a)",
	} {
		_, err := GetProjectionFromDefinition(proc, parseDecl(t, sql), columns)
		require.Error(t, err, sql)
		require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionDerive), "%s: %v", sql, err)
	}

	_, err := GetProjectionFromDefinition(proc, nil, columns)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionDerive))
	_, err = GetProjectionFromDefinition(proc, &tree.ProjectionDecl{Query: parseDecl(t, "p (select a)").Query}, columns)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionDerive))
}

func TestDeriveDoesNotAliasDefinition(t *testing.T) {
	decl := parseDecl(t, "p1 (select b order by a)")
	desc, err := GetProjectionFromDefinition(testProcess(), decl, testColumns(t))
	require.NoError(t, err)

	decl.Query.Exprs[0].Expr.(*tree.UnresolvedName).Name = "s"
	require.Equal(t, "SELECT b ORDER BY a", desc.Definition().String())
	require.Equal(t, "SELECT a, b ORDER BY a", desc.Query().String())
}

func minmaxColumns(t *testing.T) *catalog.ColumnsDescription {
	return testColumns(t, "p int", "q int", "x bigint", "k int", "d date")
}

func TestGetMinMaxCountProjection(t *testing.T) {
	proc := testProcess()
	desc, err := GetMinMaxCountProjection(proc, minmaxColumns(t), parseExprs(t, "p, p, q"), []string{"x"}, parseExprs(t, "k"))
	require.NoError(t, err)
	require.Equal(t, MinMaxCountProjectionName, desc.Name)
	require.Equal(t, Aggregate, desc.Kind)
	require.True(t, desc.IsMinMaxCount())
	require.Equal(t, 2, desc.KeySize())
	require.Equal(t, []int{0, 0, 1}, desc.PartitionValueIndices())
	require.Equal(t, "max(k)", desc.PrimaryKeyMaxColumnName())
	require.Equal(t, []string{"p", "q", "min(x)", "max(x)", "min(k)", "max(k)", "count()"}, outputNames(desc))
	require.Equal(t, []string{"p", "q", "x", "k"}, desc.GetRequiredColumns())
	require.Equal(t, "_minmax_count_projection.proj", desc.GetDirectoryName())

	info, ok := desc.MinMaxCountInfo()
	require.True(t, ok)
	require.Equal(t, []string{"x"}, info.MinMaxColumns)
	require.Len(t, info.PartitionBy, 3)

	c := desc.Clone()
	require.True(t, desc.Equal(c))
	require.True(t, c.IsMinMaxCount())
}

func TestMinMaxCountSkipsDuplicates(t *testing.T) {
	desc, err := GetMinMaxCountProjection(testProcess(), minmaxColumns(t), nil, []string{"k", "x", "k"}, parseExprs(t, "k"))
	require.NoError(t, err)
	require.Equal(t, 0, desc.KeySize())
	require.Empty(t, desc.PartitionValueIndices())
	require.Equal(t, []string{"min(k)", "max(k)", "min(x)", "max(x)", "count()"}, outputNames(desc))
	require.Equal(t, "max(k)", desc.PrimaryKeyMaxColumnName())
}

func TestMinMaxCountPrimaryKey(t *testing.T) {
	proc := testProcess()
	columns := minmaxColumns(t)

	// the first qualifying expression is used
	desc, err := GetMinMaxCountProjection(proc, columns, nil, nil, parseExprs(t, "k % 2, toYear(d), k"))
	require.NoError(t, err)
	require.Equal(t, "max(toYear(d))", desc.PrimaryKeyMaxColumnName())
	require.Equal(t, []string{"min(toYear(d))", "max(toYear(d))", "count()"}, outputNames(desc))

	desc, err = GetMinMaxCountProjection(proc, columns, nil, nil, parseExprs(t, "abs(k)"))
	require.NoError(t, err)
	require.Empty(t, desc.PrimaryKeyMaxColumnName())
	require.Equal(t, []string{"count()"}, outputNames(desc))
}

func TestMinMaxCountLegacyModulo(t *testing.T) {
	desc, err := GetMinMaxCountProjection(testProcess(), minmaxColumns(t), parseExprs(t, "p % 4, modulo(q, 2), toYYYYMM(d)"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"moduloLegacy(p, 4)", "moduloLegacy(q, 2)", "toYYYYMM(d)", "count()"}, outputNames(desc))

	info, _ := desc.MinMaxCountInfo()
	require.Equal(t, "p % 4", tree.String(info.PartitionBy[0]))
}

func TestMinMaxCountPartitionCase(t *testing.T) {
	desc, err := GetMinMaxCountProjection(testProcess(), minmaxColumns(t),
		parseExprs(t, "toYear(d), TOYEAR(d), Modulo(p, 3), modulo(p, 3)"), nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2, desc.KeySize())
	require.Equal(t, []int{0, 0, 1, 1}, desc.PartitionValueIndices())
	require.Equal(t, []string{"toYear(d)", "moduloLegacy(p, 3)", "count()"}, outputNames(desc))
}

func TestMinMaxCountErrors(t *testing.T) {
	proc := testProcess()
	_, err := GetMinMaxCountProjection(proc, minmaxColumns(t), parseExprs(t, "z"), nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionDerive))

	proc.EnableMinMaxCount = false
	_, err = GetMinMaxCountProjection(proc, minmaxColumns(t), parseExprs(t, "p"), nil, nil)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestRecalculateWithNewColumns(t *testing.T) {
	ctx := context.Background()
	proc := testProcess()
	columns := testColumns(t)
	table := &catalog.TableDef{Name: "t", Columns: columns}
	existing := mustDerive(t, columns, "p1 (select a, sum(b) group by a)").WithTable(table)

	_, err := RecalculateWithNewColumns(proc, existing, columns.Without("b"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStaleProjection))
	require.Contains(t, err.Error(), "'b'")

	wider, err := columns.With(ctx, catalog.ColDef{Name: "c", Typ: types.T_float64.ToType()})
	require.NoError(t, err)
	desc, err := RecalculateWithNewColumns(proc, existing, wider)
	require.NoError(t, err)
	require.True(t, existing.Equal(desc))
	require.NotSame(t, existing.query, desc.query)
	require.Same(t, table, desc.Table())

	// sum over a string does not type check
	retyped, err := catalog.NewColumnsDescription(ctx, []catalog.ColDef{
		{Name: "a", Typ: types.T_int32.ToType()},
		{Name: "b", Typ: types.T_varchar.ToType()},
	})
	require.NoError(t, err)
	_, err = RecalculateWithNewColumns(proc, existing, retyped)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStaleProjection))

	// a widened column changes the output schema
	widened, err := catalog.NewColumnsDescription(ctx, []catalog.ColDef{
		{Name: "a", Typ: types.T_int64.ToType()},
		{Name: "b", Typ: types.T_int32.ToType()},
	})
	require.NoError(t, err)
	desc, err = RecalculateWithNewColumns(proc, existing, widened)
	require.NoError(t, err)
	require.Equal(t, types.T_int64, desc.OutputSchema()[0].Typ.Oid)
	require.False(t, existing.Equal(desc))
	runtime.KeepAlive(table)
}

func TestRecalculateMinMaxCount(t *testing.T) {
	ctx := context.Background()
	proc := testProcess()
	columns := minmaxColumns(t)
	existing, err := GetMinMaxCountProjection(proc, columns, parseExprs(t, "p"), []string{"x"}, parseExprs(t, "k"))
	require.NoError(t, err)

	wider, err := columns.With(ctx, catalog.ColDef{Name: "y", Typ: types.T_int8.ToType()})
	require.NoError(t, err)
	desc, err := RecalculateWithNewColumns(proc, existing, wider)
	require.NoError(t, err)
	require.True(t, existing.Equal(desc))
	require.True(t, desc.IsMinMaxCount())

	_, err = RecalculateWithNewColumns(proc, existing, columns.Without("x"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrStaleProjection))
}
