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

package agg

import (
	"context"
	"testing"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/stretchr/testify/require"
)

// fill feeds every row of vec into the group picked by groups[row].
func fill(t *testing.T, a Agg, groups []int64, vecs ...*vector.Vector) *vector.Vector {
	ngroup := int64(0)
	for _, g := range groups {
		if g+1 > ngroup {
			ngroup = g + 1
		}
	}
	a.Grows(int(ngroup))
	for row, g := range groups {
		require.NoError(t, a.Fill(g, int64(row), vecs))
	}
	vec, err := a.Eval()
	require.NoError(t, err)
	return vec
}

func TestSum(t *testing.T) {
	ctx := context.Background()
	typ := types.T_int32.ToType()
	a, err := New(ctx, AggSum, []types.Type{typ})
	require.NoError(t, err)
	require.Equal(t, types.T_int64, a.OutputType().Oid)

	vec := vector.NewVecWithData(typ, []int32{10, 20, 5, 7}, 3)
	res := fill(t, a, []int64{0, 0, 1, 2}, vec)
	require.Equal(t, "[30 5 null]", res.String())

	a, err = New(ctx, AggSum, []types.Type{types.T_uint8.ToType()})
	require.NoError(t, err)
	require.Equal(t, types.T_uint64, a.OutputType().Oid)

	_, err = New(ctx, AggSum, []types.Type{types.T_varchar.ToType()})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}

func TestAvg(t *testing.T) {
	typ := types.T_int64.ToType()
	a, err := New(context.Background(), AggAvg, []types.Type{typ})
	require.NoError(t, err)
	vec := vector.NewVecWithData(typ, []int64{1, 2, 0}, 2)
	res := fill(t, a, []int64{0, 0, 1}, vec)
	require.Equal(t, "[1.5 null]", res.String())
}

func TestMinMax(t *testing.T) {
	ctx := context.Background()
	typ := types.T_varchar.ToType()
	vec := vector.NewVecWithData(typ, []string{"b", "a", "c", "z"}, 3)

	a, err := New(ctx, AggMin, []types.Type{typ})
	require.NoError(t, err)
	require.Equal(t, "[a c]", fill(t, a, []int64{0, 0, 1, 1}, vec).String())

	a, err = New(ctx, AggMax, []types.Type{typ})
	require.NoError(t, err)
	require.Equal(t, "[b c]", fill(t, a, []int64{0, 0, 1, 1}, vec).String())

	btyp := types.T_bool.ToType()
	bvec := vector.NewVecWithData(btyp, []bool{false, true, false})
	a, err = New(ctx, AggMax, []types.Type{btyp})
	require.NoError(t, err)
	require.Equal(t, "[true false]", fill(t, a, []int64{0, 0, 1}, bvec).String())
	a, err = New(ctx, AggMin, []types.Type{btyp})
	require.NoError(t, err)
	require.Equal(t, "[false false]", fill(t, a, []int64{0, 0, 1}, bvec).String())
}

func TestCountAndAny(t *testing.T) {
	ctx := context.Background()
	typ := types.T_float64.ToType()
	vec := vector.NewVecWithData(typ, []float64{0, 2.5, 3.5}, 0)

	a, err := New(ctx, AggCount, []types.Type{typ})
	require.NoError(t, err)
	require.Equal(t, "[1 1]", fill(t, a, []int64{0, 0, 1}, vec).String())

	a, err = New(ctx, AggCount, nil)
	require.NoError(t, err)
	require.Equal(t, "[3]", fill(t, a, []int64{0, 0, 0}).String())

	a, err = New(ctx, AggAny, []types.Type{typ})
	require.NoError(t, err)
	require.Equal(t, "[2.5 3.5]", fill(t, a, []int64{0, 0, 1}, vec).String())

	_, err = New(ctx, AggCount, []types.Type{typ, typ})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidArg))
	_, err = New(ctx, "median", []types.Type{typ})
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrNotSupported))
}
