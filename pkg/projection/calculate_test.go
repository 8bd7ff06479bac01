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
	"runtime"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/lni/goutils/leaktest"
	"github.com/panjf2000/ants/v2"
	"github.com/prashantv/gostub"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/sql/compile"
	"github.com/matrixorigin/moprojection/pkg/sql/compile/mock_compile"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

func intBatch(t *testing.T, attrs []string, cols ...[]int32) *batch.Batch {
	vecs := make([]*vector.Vector, len(cols))
	for i, col := range cols {
		vecs[i] = vector.NewVecWithData(types.T_int32.ToType(), col)
	}
	bat, err := batch.NewWithVectors(attrs, vecs)
	require.NoError(t, err)
	return bat
}

func TestCalculateAggregate(t *testing.T) {
	proc := testProcess()
	desc := mustDerive(t, testColumns(t, "a int", "b int"), "p1 (select a, sum(b) group by a)")
	bat := intBatch(t, []string{"a", "b"}, []int32{1, 1, 2}, []int32{10, 20, 5})

	res, err := Calculate(proc, desc, bat)
	require.NoError(t, err)
	require.Equal(t, 2, res.RowCount())
	require.Equal(t, []string{"a", "sum(b)"}, res.Attrs)
	require.Equal(t, "[1 2]", res.Vecs[0].String())
	require.Equal(t, "[30 5]", res.Vecs[1].String())
}

func TestCalculateNormal(t *testing.T) {
	proc := testProcess()
	desc := mustDerive(t, testColumns(t, "a int", "b int"), "p2 (select b order by a)")
	bat := intBatch(t, []string{"b", "a"}, []int32{30, 10, 20}, []int32{3, 1, 2})

	res, err := Calculate(proc, desc, bat)
	require.NoError(t, err)
	require.Equal(t, bat.RowCount(), res.RowCount())
	require.Equal(t, []string{"a", "b"}, res.Attrs)
	require.Equal(t, "[1 2 3]", res.Vecs[0].String())
	require.Equal(t, "[10 20 30]", res.Vecs[1].String())
	require.Equal(t, "[3 1 2]", bat.GetVectorByName("a").String())
}

func TestCalculateMinMaxCount(t *testing.T) {
	proc := testProcess()
	columns := testColumns(t, "p int", "x int", "k int")
	desc, err := GetMinMaxCountProjection(proc, columns, parseExprs(t, "p"), []string{"x"}, parseExprs(t, "k"))
	require.NoError(t, err)

	bat := intBatch(t, []string{"p", "x", "k"},
		[]int32{2, 1, 1}, []int32{9, 5, 3}, []int32{3, 1, 2})
	res, err := Calculate(proc, desc, bat)
	require.NoError(t, err)
	require.Equal(t, []string{"p", "min(x)", "max(x)", "min(k)", "max(k)", "count()"}, res.Attrs)
	require.Equal(t, 2, res.RowCount())
	require.Equal(t, "[1 2]", res.Vecs[0].String())
	require.Equal(t, "[3 9]", res.Vecs[1].String())
	require.Equal(t, "[5 9]", res.Vecs[2].String())
	require.Equal(t, "[1 3]", res.Vecs[3].String())
	require.Equal(t, "[2 3]", res.Vecs[4].String())
	require.Equal(t, "[2 1]", res.Vecs[5].String())
}

func TestCalculateErrors(t *testing.T) {
	proc := testProcess()
	columns := testColumns(t, "a int", "b int")

	desc := mustDerive(t, columns, "p3 (select a / b order by a)")
	_, err := Calculate(proc, desc, intBatch(t, []string{"a", "b"}, []int32{1, 2}, []int32{1, 0}))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))
	require.Contains(t, err.Error(), "p3")

	_, err = Calculate(proc, desc, intBatch(t, []string{"a"}, []int32{1, 2}))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))
	require.Contains(t, err.Error(), "'b'")

	// the batch does not have the types the projection was derived with
	desc = mustDerive(t, columns, "p4 (select a order by a)")
	wide, err := batch.NewWithVectors([]string{"a"}, []*vector.Vector{
		vector.NewVecWithData(types.T_int64.ToType(), []int64{1, 2}),
	})
	require.NoError(t, err)
	_, err = Calculate(proc, desc, wide)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))

	proc.Lim.BatchRows = 2
	_, err = Calculate(proc, desc, intBatch(t, []string{"a"}, []int32{1, 2, 3}))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))
	_, err = Calculate(proc, desc, intBatch(t, []string{"a"}, []int32{1, 2}))
	require.NoError(t, err)
}

func TestCalculateWithRunner(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	proc := testProcess()
	desc := mustDerive(t, testColumns(t, "a int", "b int"), "p1 (select a, sum(b) group by a)")
	bat := intBatch(t, []string{"a", "b"}, []int32{1}, []int32{2})
	out := intBatch(t, []string{"a", "sum(b)"}, []int32{1}, []int32{2})

	runner := mock_compile.NewMockRunner(ctrl)
	stubs := gostub.Stub(&compileFn, func(*process.Process, *tree.ProjectionSelect, *catalog.ColumnsDescription) (compile.Runner, error) {
		return runner, nil
	})
	defer stubs.Reset()

	runner.EXPECT().OutputSchema().Return(desc.OutputSchema()).Times(2)
	runner.EXPECT().Run(proc, bat).Return(out, nil)
	runner.EXPECT().Run(proc, bat).Return(nil, moerr.NewDivByZero(proc.Ctx))

	res, err := Calculate(proc, desc, bat)
	require.NoError(t, err)
	require.Same(t, out, res)

	_, err = Calculate(proc, desc, bat)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))
	require.Contains(t, err.Error(), "division by zero")

	runner.EXPECT().OutputSchema().Return(desc.OutputSchema()[:1])
	_, err = Calculate(proc, desc, bat)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))
}

// settleWorkerPools lets the background goroutines of the default ants pool,
// started at package init, reach their idle state so that leaktest does not
// see them change between its snapshots.
func settleWorkerPools(t *testing.T) {
	pool, err := ants.NewPool(1)
	require.NoError(t, err)
	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() { close(done) }))
	<-done
	require.NoError(t, pool.ReleaseTimeout(time.Second))
	for i := 0; i < 10; i++ {
		runtime.Gosched()
	}
	time.Sleep(50 * time.Millisecond)
}

func TestCalculateBatches(t *testing.T) {
	settleWorkerPools(t)
	defer leaktest.AfterTest(t)()

	proc := testProcess()
	proc.Lim.Workers = 2
	desc := mustDerive(t, testColumns(t, "a int", "b int"), "p1 (select a, sum(b) group by a)")

	var bats []*batch.Batch
	for i := int32(0); i < 6; i++ {
		bats = append(bats, intBatch(t, []string{"a", "b"}, []int32{i, i, i + 1}, []int32{1, 2, i}))
	}
	res, err := CalculateBatches(proc, desc, bats)
	require.NoError(t, err)
	require.Len(t, res, len(bats))
	for i, r := range res {
		expected, err := Calculate(proc, desc, bats[i])
		require.NoError(t, err)
		require.Equal(t, expected.String(), r.String())
	}

	res, err = CalculateBatches(proc, desc, nil)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestCalculateBatchesFirstError(t *testing.T) {
	settleWorkerPools(t)
	defer leaktest.AfterTest(t)()

	proc := testProcess()
	proc.Lim.Workers = 3
	desc := mustDerive(t, testColumns(t, "a int", "b int"), "p1 (select a, sum(b) group by a)")

	bats := make([]*batch.Batch, 5)
	failing := make(map[*batch.Batch]error)
	for i := range bats {
		bats[i] = intBatch(t, []string{"a", "b"}, []int32{int32(i)}, []int32{1})
	}
	failing[bats[1]] = moerr.NewProjectionEval(proc.Ctx, desc.Name, "first")
	failing[bats[3]] = moerr.NewProjectionEval(proc.Ctx, desc.Name, "second")

	stubs := gostub.Stub(&calculateFn, func(proc *process.Process, desc *Description, bat *batch.Batch) (*batch.Batch, error) {
		if err, ok := failing[bat]; ok {
			return nil, err
		}
		return Calculate(proc, desc, bat)
	})
	defer stubs.Reset()

	_, err := CalculateBatches(proc, desc, bats)
	require.Error(t, err)
	require.Contains(t, err.Error(), "first")
}

func TestGetSingleExpressionForProjections(t *testing.T) {
	proc := testProcess()
	columns := testColumns(t, "x int", "y int", "z int")
	ps := testProjections(t, columns,
		"pa (select x, y order by x)",
		"pb (select y, z order by y)")

	ep, err := GetSingleExpressionForProjections(proc, ps, columns)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y", "z"}, ep.Inputs())
	require.Equal(t, 3, ep.StepCount())

	ps = testProjections(t, columns,
		"pa (select x, y order by x)",
		"pc (select x % 2, sum(y * 2), count(*) group by x % 2)")
	ep, err = GetSingleExpressionForProjections(proc, ps, columns)
	require.NoError(t, err)
	require.Equal(t, []string{"x", "y"}, ep.Inputs())
	require.Equal(t, 5, ep.StepCount())
	var names []string
	for _, col := range ep.Outputs() {
		names = append(names, col.Name)
	}
	require.Equal(t, []string{"x", "y", "x % 2", "y * 2"}, names)

	res, err := ep.Run(proc, intBatch(t, []string{"x", "y", "z"}, []int32{1, 2, 3}, []int32{4, 5, 6}, []int32{7, 8, 9}))
	require.NoError(t, err)
	require.Equal(t, 3, res.RowCount())
	require.Equal(t, "[1 0 1]", res.Vecs[2].String())
	require.Equal(t, "[8 10 12]", res.Vecs[3].String())

	_, err = GetSingleExpressionForProjections(proc, ps, columns.Without("y"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrProjectionEval))
	require.Contains(t, err.Error(), "pa, pc")

	ps = testProjections(t, columns,
		"pa (select abs(x) order by y)",
		"pb (select ABS(x) order by y)")
	ep, err = GetSingleExpressionForProjections(proc, ps, columns)
	require.NoError(t, err)
	require.Equal(t, []string{"y", "x"}, ep.Inputs())
	require.Equal(t, 3, ep.StepCount())
	names = names[:0]
	for _, col := range ep.Outputs() {
		names = append(names, col.Name)
	}
	require.Equal(t, []string{"y", "abs(x)"}, names)

	ep, err = GetSingleExpressionForProjections(proc, NewProjections(), columns)
	require.NoError(t, err)
	require.Empty(t, ep.Inputs())
}
