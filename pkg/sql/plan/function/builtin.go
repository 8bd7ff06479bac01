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

package function

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/nulls"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
)

const secondsPerDay = 24 * 60 * 60

func initBuiltIns() {
	for _, fs := range builtins {
		appendFunction(fs)
	}
}

var builtins = []*Functions{
	{
		Name:        "identity",
		Flag:        MONOTONIC,
		TypeCheckFn: sameAsInput("identity", nil),
		Fn: func(_ context.Context, vs []*vector.Vector, _ types.Type, _ int) (*vector.Vector, error) {
			return vs[0].Dup(), nil
		},
	},
	{
		Name: "abs",
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			return widenNumeric(ctx, "abs", inputs)
		},
		Fn: func(ctx context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
			switch result.Oid {
			case types.T_int64:
				return unaryNumeric(vs[0], result, func(a int64) (int64, error) {
					if a < 0 {
						return -a, nil
					}
					return a, nil
				})
			case types.T_uint64:
				return unaryNumeric(vs[0], result, func(a uint64) (uint64, error) { return a, nil })
			}
			return unaryNumeric(vs[0], result, func(a float64) (float64, error) {
				if a < 0 {
					return -a, nil
				}
				return a, nil
			})
		},
	},
	{
		Name: "toInt64",
		Flag: MONOTONIC,
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if err := checkArity(ctx, "toInt64", inputs, 1); err != nil {
				return types.Type{}, err
			}
			if !inputs[0].Oid.IsNumeric() && inputs[0].Oid != types.T_date && inputs[0].Oid != types.T_bool {
				return types.Type{}, invalidArgument(ctx, "toInt64", inputs)
			}
			return types.T_int64.ToType(), nil
		},
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
			if vs[0].GetType().Oid == types.T_bool {
				col := vector.MustFixedCol[bool](vs[0])
				rs := make([]int64, len(col))
				for i, b := range col {
					if b {
						rs[i] = 1
					}
				}
				vec := vector.NewVecWithData(result, rs)
				vec.SetNulls(vs[0].GetNulls().Clone())
				return vec, nil
			}
			return unaryNumeric(vs[0], result, func(a int64) (int64, error) { return a, nil })
		},
	},
	{
		Name: "toFloat64",
		Flag: MONOTONIC,
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if err := checkArity(ctx, "toFloat64", inputs, 1); err != nil {
				return types.Type{}, err
			}
			if !inputs[0].Oid.IsNumeric() {
				return types.Type{}, invalidArgument(ctx, "toFloat64", inputs)
			}
			return types.T_float64.ToType(), nil
		},
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
			return unaryNumeric(vs[0], result, func(a float64) (float64, error) { return a, nil })
		},
	},
	{
		Name: "toString",
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if err := checkArity(ctx, "toString", inputs, 1); err != nil {
				return types.Type{}, err
			}
			return types.T_varchar.ToType(), nil
		},
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
			v := vs[0]
			rs := make([]string, length)
			for i := range rs {
				val := v.GetAny(i)
				if val == nil {
					continue
				}
				if v.GetType().Oid == types.T_date {
					rs[i] = dateString(val.(int32))
				} else {
					rs[i] = fmt.Sprint(val)
				}
			}
			vec := vector.NewVecWithData(result, rs)
			vec.SetNulls(v.GetNulls().Clone())
			return vec, nil
		},
	},
	{
		Name:        "lower",
		TypeCheckFn: stringArgument("lower", types.T_varchar),
		Fn:          stringMap(strings.ToLower),
	},
	{
		Name:        "upper",
		TypeCheckFn: stringArgument("upper", types.T_varchar),
		Fn:          stringMap(strings.ToUpper),
	},
	{
		Name:        "length",
		TypeCheckFn: stringArgument("length", types.T_int64),
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
			col := vector.MustStrCol(vs[0])
			rs := make([]int64, len(col))
			for i, s := range col {
				rs[i] = int64(len(s))
			}
			vec := vector.NewVecWithData(result, rs)
			vec.SetNulls(vs[0].GetNulls().Clone())
			return vec, nil
		},
	},
	{
		Name: "concat",
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if len(inputs) < 2 {
				return types.Type{}, moerr.NewInvalidArg(ctx, "concat arguments", len(inputs))
			}
			for _, typ := range inputs {
				if !typ.Oid.IsMySQLString() {
					return types.Type{}, invalidArgument(ctx, "concat", inputs)
				}
			}
			return types.T_varchar.ToType(), nil
		},
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
			nsp := &nulls.Nulls{}
			for _, v := range vs {
				union := &nulls.Nulls{}
				nulls.Or(nsp, v.GetNulls(), union)
				nsp = union
			}
			rs := make([]string, length)
			var sb strings.Builder
			for i := range rs {
				if nulls.Contains(nsp, uint64(i)) {
					continue
				}
				sb.Reset()
				for _, v := range vs {
					sb.WriteString(v.GetStringAt(i))
				}
				rs[i] = sb.String()
			}
			vec := vector.NewVecWithData(result, rs)
			vec.SetNulls(nsp)
			return vec, nil
		},
	},
	{
		Name: "toDate",
		Flag: MONOTONIC,
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if err := checkArity(ctx, "toDate", inputs, 1); err != nil {
				return types.Type{}, err
			}
			if oid := inputs[0].Oid; !oid.IsInteger() && !oid.IsMySQLString() && oid != types.T_date {
				return types.Type{}, invalidArgument(ctx, "toDate", inputs)
			}
			return types.T_date.ToType(), nil
		},
		Fn: toDate,
	},
	{
		Name:        "toYear",
		Flag:        MONOTONIC,
		TypeCheckFn: dateArgument("toYear", types.T_uint16),
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
			return dateMap(vs[0], result, func(t time.Time) uint16 { return uint16(t.Year()) }), nil
		},
	},
	{
		Name:        "toYYYYMM",
		Flag:        MONOTONIC,
		TypeCheckFn: dateArgument("toYYYYMM", types.T_uint32),
		Fn: func(_ context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
			return dateMap(vs[0], result, func(t time.Time) uint32 {
				return uint32(t.Year()*100 + int(t.Month()))
			}), nil
		},
	},
}

func sameAsInput(name string, accept func(types.T) bool) func(context.Context, []types.Type) (types.Type, error) {
	return func(ctx context.Context, inputs []types.Type) (types.Type, error) {
		if err := checkArity(ctx, name, inputs, 1); err != nil {
			return types.Type{}, err
		}
		if accept != nil && !accept(inputs[0].Oid) {
			return types.Type{}, invalidArgument(ctx, name, inputs)
		}
		return inputs[0], nil
	}
}

func widenNumeric(ctx context.Context, name string, inputs []types.Type) (types.Type, error) {
	if err := checkArity(ctx, name, inputs, 1); err != nil {
		return types.Type{}, err
	}
	switch oid := inputs[0].Oid; {
	case oid.IsSignedInt():
		return types.T_int64.ToType(), nil
	case oid.IsUnsignedInt():
		return types.T_uint64.ToType(), nil
	case oid.IsFloat():
		return types.T_float64.ToType(), nil
	}
	return types.Type{}, invalidArgument(ctx, name, inputs)
}

func stringArgument(name string, result types.T) func(context.Context, []types.Type) (types.Type, error) {
	return func(ctx context.Context, inputs []types.Type) (types.Type, error) {
		if err := checkArity(ctx, name, inputs, 1); err != nil {
			return types.Type{}, err
		}
		if !inputs[0].Oid.IsMySQLString() {
			return types.Type{}, invalidArgument(ctx, name, inputs)
		}
		return result.ToType(), nil
	}
}

func dateArgument(name string, result types.T) func(context.Context, []types.Type) (types.Type, error) {
	return func(ctx context.Context, inputs []types.Type) (types.Type, error) {
		if err := checkArity(ctx, name, inputs, 1); err != nil {
			return types.Type{}, err
		}
		if inputs[0].Oid != types.T_date {
			return types.Type{}, invalidArgument(ctx, name, inputs)
		}
		return result.ToType(), nil
	}
}

func stringMap(fn func(string) string) func(context.Context, []*vector.Vector, types.Type, int) (*vector.Vector, error) {
	return func(_ context.Context, vs []*vector.Vector, result types.Type, _ int) (*vector.Vector, error) {
		col := vector.MustStrCol(vs[0])
		rs := make([]string, len(col))
		for i, s := range col {
			rs[i] = fn(s)
		}
		vec := vector.NewVecWithData(result, rs)
		vec.SetNulls(vs[0].GetNulls().Clone())
		return vec, nil
	}
}

func dateMap[R types.FixedSizeT](v *vector.Vector, result types.Type, fn func(time.Time) R) *vector.Vector {
	col := vector.MustFixedCol[int32](v)
	rs := make([]R, len(col))
	for i, d := range col {
		rs[i] = fn(dateTime(d))
	}
	vec := vector.NewVecWithData(result, rs)
	vec.SetNulls(v.GetNulls().Clone())
	return vec
}

// toDate accepts days since 1970-01-01 or 'YYYY-MM-DD' text.
func toDate(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	v := vs[0]
	if !v.GetType().Oid.IsMySQLString() {
		return unaryNumeric(v, result, func(a int32) (int32, error) { return a, nil })
	}
	col := vector.MustStrCol(v)
	rs := make([]int32, length)
	for i, s := range col {
		if v.IsNull(uint64(i)) {
			continue
		}
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
		if err != nil {
			return nil, moerr.NewInvalidInput(ctx, "invalid date value %s", strconv.Quote(s))
		}
		rs[i] = int32(t.Unix() / secondsPerDay)
	}
	vec := vector.NewVecWithData(result, rs)
	vec.SetNulls(v.GetNulls().Clone())
	return vec, nil
}

func dateTime(days int32) time.Time {
	return time.Unix(int64(days)*secondsPerDay, 0).UTC()
}

func dateString(days int32) string {
	return dateTime(days).Format(time.DateOnly)
}
