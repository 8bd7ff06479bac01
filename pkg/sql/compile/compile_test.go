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

package compile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/config"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/projection"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

func testProcess() *process.Process {
	return process.New(context.Background(), config.ProjectionParameters{})
}

func testSchema(t *testing.T) *catalog.ColumnsDescription {
	desc, err := catalog.NewColumnsDescription(context.Background(), []catalog.ColDef{
		{Name: "a", Typ: types.T_int32.ToType()},
		{Name: "b", Typ: types.T_int64.ToType()},
		{Name: "s", Typ: types.T_varchar.ToType()},
	})
	require.NoError(t, err)
	return desc
}

func testBatch(t *testing.T, as []int32, bs []int64, bNulls ...uint64) *batch.Batch {
	ss := make([]string, len(as))
	for i := range ss {
		ss[i] = string(rune('p' + i%10))
	}
	bat, err := batch.NewWithVectors([]string{"a", "b", "s"}, []*vector.Vector{
		vector.NewVecWithData(types.T_int32.ToType(), as),
		vector.NewVecWithData(types.T_int64.ToType(), bs, bNulls...),
		vector.NewVecWithData(types.T_varchar.ToType(), ss),
	})
	require.NoError(t, err)
	return bat
}

func compileQuery(t *testing.T, sql string) (*Pipeline, error) {
	query, err := projection.ParseProjectionSelect(context.Background(), sql)
	require.NoError(t, err)
	return Compile(testProcess(), query, testSchema(t))
}

func mustCompile(t *testing.T, sql string) *Pipeline {
	p, err := compileQuery(t, sql)
	require.NoError(t, err)
	return p
}

func TestNormalPipeline(t *testing.T) {
	proc := testProcess()
	p := mustCompile(t, "select b, a + 1 as c order by b")
	require.False(t, p.IsAggregate())
	require.Equal(t, []string{"b", "a"}, p.Inputs())
	require.Equal(t, []catalog.ColDef{
		{Name: "b", Typ: types.T_int64.ToType()},
		{Name: "c", Typ: types.T_int64.ToType()},
	}, p.OutputSchema())

	bat := testBatch(t, []int32{1, 2, 3, 4}, []int64{30, 10, 20, 0}, 3)
	res, err := p.Run(proc, bat)
	require.NoError(t, err)
	require.Equal(t, 4, res.RowCount())
	require.Equal(t, []string{"b", "c"}, res.Attrs)
	// nulls sort first
	require.Equal(t, "[null 10 20 30]", res.Vecs[0].String())
	require.Equal(t, "[5 3 4 2]", res.Vecs[1].String())

	// the input is untouched
	require.Equal(t, "[30 10 20 null]", bat.GetVectorByName("b").String())
}

func TestNormalPipelineStableOrder(t *testing.T) {
	p := mustCompile(t, "select a, b order by (b % 2)")
	res, err := p.Run(testProcess(), testBatch(t, []int32{1, 2, 3, 4}, []int64{3, 2, 5, 4}))
	require.NoError(t, err)
	require.Equal(t, "[2 4 1 3]", res.Vecs[0].String())
}

func TestAggregatePipeline(t *testing.T) {
	proc := testProcess()
	p := mustCompile(t, "select a, sum(b) group by a")
	require.True(t, p.IsAggregate())
	require.Equal(t, []catalog.ColDef{
		{Name: "a", Typ: types.T_int32.ToType()},
		{Name: "sum(b)", Typ: types.T_int64.ToType()},
	}, p.OutputSchema())

	res, err := p.Run(proc, testBatch(t, []int32{2, 1, 1}, []int64{5, 10, 20}))
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount())
	require.Equal(t, "[1 2]", res.Vecs[0].String())
	require.Equal(t, "[30 5]", res.Vecs[1].String())
}

func TestAggregateExpressions(t *testing.T) {
	p := mustCompile(t, "select a % 2 as k, count(*) as n, sum(b) / count(*) as m group by a % 2")
	require.Len(t, p.aggs, 2)
	require.Equal(t, types.T_float64, p.OutputSchema()[2].Typ.Oid)

	res, err := p.Run(testProcess(), testBatch(t, []int32{1, 2, 3, 4}, []int64{10, 20, 30, 40}))
	require.NoError(t, err)
	require.Equal(t, "[0 1]", res.Vecs[0].String())
	require.Equal(t, "[2 2]", res.Vecs[1].String())
	require.Equal(t, "[30 20]", res.Vecs[2].String())
}

func TestAggregateWithoutKeys(t *testing.T) {
	proc := testProcess()
	p := mustCompile(t, "select count(*), max(b)")
	require.True(t, p.IsAggregate())

	empty := testBatch(t, nil, nil)
	res, err := p.Run(proc, empty)
	require.NoError(t, err)
	require.Equal(t, 0, res.RowCount())
	require.Equal(t, []string{"count(*)", "max(b)"}, res.Attrs)

	res, err = p.Run(proc, testBatch(t, []int32{1, 2, 3}, []int64{7, 9, 8}, 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.RowCount())
	require.Equal(t, "[3]", res.Vecs[0].String())
	require.Equal(t, "[8]", res.Vecs[1].String())
}

func TestCompileErrors(t *testing.T) {
	for _, sql := range []string{
		"select c",
		"select a + s",
		"select sum(sum(b))",
		"select a, b, sum(b) group by a",
		"select a, sum(b) group by a order by a",
		"select count(*) group by sum(b)",
		"select a, a",
		"select nope(a)",
		"select sum(*)",
	} {
		_, err := compileQuery(t, sql)
		require.Error(t, err, sql)
	}

	_, err := compileQuery(t, "select a, b, sum(b) group by a")
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
	require.Contains(t, err.Error(), "'b' must appear in the group by clause")
}

func TestRunErrors(t *testing.T) {
	proc := testProcess()
	p := mustCompile(t, "select b / (a - 1) as x")
	_, err := p.Run(proc, testBatch(t, []int32{2, 1}, []int64{4, 4}))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrDivByZero))

	p = mustCompile(t, "select a")
	bat, err := batch.NewWithVectors([]string{"a"}, []*vector.Vector{
		vector.NewVecWithData(types.T_int64.ToType(), []int64{1}),
	})
	require.NoError(t, err)
	_, err = p.Run(proc, bat)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	bat, err = batch.NewWithVectors([]string{"b"}, []*vector.Vector{
		vector.NewVecWithData(types.T_int64.ToType(), []int64{1}),
	})
	require.NoError(t, err)
	_, err = p.Run(proc, bat)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(proc.WithContext(ctx), testBatch(t, []int32{1}, []int64{1}))
	require.ErrorIs(t, err, context.Canceled)
}

func TestLiterals(t *testing.T) {
	p := mustCompile(t, "select 1 as i, 18446744073709551615 as u, 1.5 as f, 'x' as v, null as n, true as t")
	require.Equal(t, []types.T{types.T_int64, types.T_uint64, types.T_float64, types.T_varchar, types.T_int64, types.T_bool},
		[]types.T{
			p.OutputSchema()[0].Typ.Oid, p.OutputSchema()[1].Typ.Oid, p.OutputSchema()[2].Typ.Oid,
			p.OutputSchema()[3].Typ.Oid, p.OutputSchema()[4].Typ.Oid, p.OutputSchema()[5].Typ.Oid,
		})
	res, err := p.Run(testProcess(), testBatch(t, []int32{1, 2}, []int64{1, 2}))
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount())
	require.Equal(t, "[1.5 1.5]", res.Vecs[2].String())
	require.Equal(t, "[null null]", res.Vecs[4].String())
}

func TestExpressionPipeline(t *testing.T) {
	ctx := context.Background()
	schema, err := catalog.NewColumnsDescription(ctx, []catalog.ColDef{
		{Name: "x", Typ: types.T_int64.ToType()},
		{Name: "y", Typ: types.T_int64.ToType()},
		{Name: "z", Typ: types.T_int64.ToType()},
		{Name: "w", Typ: types.T_int64.ToType()},
	})
	require.NoError(t, err)
	exprs, err := projection.ParseExprList(ctx, "x + y, (x + y) * 2, y, z")
	require.NoError(t, err)
	selects := make(tree.SelectExprs, len(exprs))
	for i, expr := range exprs {
		selects[i] = tree.SelectExpr{Expr: expr}
	}

	proc := testProcess()
	ep, err := CompileExpressions(proc, selects, schema)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "z"}, ep.Inputs())
	// x, y, x + y, 2, (x + y) * 2, z
	require.Equal(t, 6, ep.StepCount())
	require.Len(t, ep.Outputs(), 4)

	x := vector.NewVecWithData(types.T_int64.ToType(), []int64{1, 2})
	bat, err := batch.NewWithVectors([]string{"x", "y", "z", "w"}, []*vector.Vector{
		x,
		vector.NewVecWithData(types.T_int64.ToType(), []int64{10, 20}),
		vector.NewVecWithData(types.T_int64.ToType(), []int64{5, 6}),
		vector.NewVecWithData(types.T_int64.ToType(), []int64{0, 0}),
	})
	require.NoError(t, err)
	res, err := ep.Run(proc, bat)
	require.NoError(t, err)
	require.Equal(t, "[11 22]", res.Vecs[0].String())
	require.Equal(t, "[22 44]", res.Vecs[1].String())
	require.Equal(t, "[10 20]", res.Vecs[2].String())
	require.NotSame(t, bat.Vecs[1], res.Vecs[2])

	_, err = CompileExpressions(proc, tree.SelectExprs{selects[2], selects[2]}, schema)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))
}
