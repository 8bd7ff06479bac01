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
	"math"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/nulls"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
)

func initOperators() {
	for _, fs := range operators {
		appendFunction(fs)
	}
}

// operators contains the arithmetic operators, the tree operators + - * / %
// and unary minus are evaluated through them.
var operators = []*Functions{
	{
		Name:        "plus",
		TypeCheckFn: arithmeticReturnType("plus"),
		Fn: arithmetic(func(a, b int64) (int64, error) { return a + b, nil },
			func(a, b uint64) (uint64, error) { return a + b, nil },
			func(a, b float64) (float64, error) { return a + b, nil }),
	},
	{
		Name:        "minus",
		TypeCheckFn: arithmeticReturnType("minus"),
		Fn: arithmetic(func(a, b int64) (int64, error) { return a - b, nil },
			func(a, b uint64) (uint64, error) { return a - b, nil },
			func(a, b float64) (float64, error) { return a - b, nil }),
	},
	{
		Name:        "multiply",
		TypeCheckFn: arithmeticReturnType("multiply"),
		Fn: arithmetic(func(a, b int64) (int64, error) { return a * b, nil },
			func(a, b uint64) (uint64, error) { return a * b, nil },
			func(a, b float64) (float64, error) { return a * b, nil }),
	},
	{
		Name: "divide",
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if _, err := arithmeticReturnType("divide")(ctx, inputs); err != nil {
				return types.Type{}, err
			}
			return types.T_float64.ToType(), nil
		},
		Fn: divide,
	},
	{
		Name:        "modulo",
		TypeCheckFn: arithmeticReturnType("modulo"),
		Fn:          modulo,
	},
	{
		// moduloLegacy is what partition keys written with the modulo
		// function are rewritten to, it keeps the partition ids stable.
		Name:        "moduloLegacy",
		TypeCheckFn: arithmeticReturnType("moduloLegacy"),
		Fn:          modulo,
	},
	{
		Name: "negate",
		Flag: MONOTONIC,
		TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
			if err := checkArity(ctx, "negate", inputs, 1); err != nil {
				return types.Type{}, err
			}
			switch oid := inputs[0].Oid; {
			case oid.IsFloat():
				return types.T_float64.ToType(), nil
			case oid.IsInteger():
				return types.T_int64.ToType(), nil
			}
			return types.Type{}, invalidArgument(ctx, "negate", inputs)
		},
		Fn: func(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
			if result.Oid == types.T_float64 {
				return unaryNumeric(vs[0], result, func(a float64) (float64, error) { return -a, nil })
			}
			return unaryNumeric(vs[0], result, func(a int64) (int64, error) { return -a, nil })
		},
	},
}

func checkArity(ctx context.Context, name string, inputs []types.Type, n int) error {
	if len(inputs) != n {
		return moerr.NewInvalidArg(ctx, name+" arguments", len(inputs))
	}
	return nil
}

func invalidArgument(ctx context.Context, name string, inputs []types.Type) error {
	args := make([]string, len(inputs))
	for i, typ := range inputs {
		args[i] = typ.String()
	}
	return moerr.NewInvalidArg(ctx, name+" argument types", args)
}

// arithmeticReturnType widens to float64 when any side is a float, to uint64
// when both sides are unsigned and to int64 otherwise.
func arithmeticReturnType(name string) func(context.Context, []types.Type) (types.Type, error) {
	return func(ctx context.Context, inputs []types.Type) (types.Type, error) {
		if err := checkArity(ctx, name, inputs, 2); err != nil {
			return types.Type{}, err
		}
		l, r := inputs[0].Oid, inputs[1].Oid
		if !l.IsNumeric() || !r.IsNumeric() {
			return types.Type{}, invalidArgument(ctx, name, inputs)
		}
		switch {
		case l.IsFloat() || r.IsFloat():
			return types.T_float64.ToType(), nil
		case l.IsUnsignedInt() && r.IsUnsignedInt():
			return types.T_uint64.ToType(), nil
		}
		return types.T_int64.ToType(), nil
	}
}

func arithmetic(
	intOp func(a, b int64) (int64, error),
	uintOp func(a, b uint64) (uint64, error),
	floatOp func(a, b float64) (float64, error)) func(context.Context, []*vector.Vector, types.Type, int) (*vector.Vector, error) {
	return func(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
		switch result.Oid {
		case types.T_int64:
			return binaryNumeric(vs, result, length, intOp)
		case types.T_uint64:
			return binaryNumeric(vs, result, length, uintOp)
		case types.T_float64:
			return binaryNumeric(vs, result, length, floatOp)
		}
		return nil, moerr.NewInternalError(ctx, "unexpected arithmetic result type %s", result)
	}
}

func divide(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	return binaryNumeric(vs, result, length, func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, moerr.NewDivByZero(ctx)
		}
		return a / b, nil
	})
}

func modulo(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	switch result.Oid {
	case types.T_int64:
		return binaryNumeric(vs, result, length, func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, moerr.NewDivByZero(ctx)
			}
			if b == -1 {
				return 0, nil
			}
			return a % b, nil
		})
	case types.T_uint64:
		return binaryNumeric(vs, result, length, func(a, b uint64) (uint64, error) {
			if b == 0 {
				return 0, moerr.NewDivByZero(ctx)
			}
			return a % b, nil
		})
	case types.T_float64:
		return binaryNumeric(vs, result, length, func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, moerr.NewDivByZero(ctx)
			}
			return math.Mod(a, b), nil
		})
	}
	return nil, moerr.NewInternalError(ctx, "unexpected modulo result type %s", result)
}

// binaryNumeric evaluates op row by row over both arguments converted to R,
// a row is NULL when either side is.
func binaryNumeric[R types.Number](vs []*vector.Vector, result types.Type, length int, op func(a, b R) (R, error)) (*vector.Vector, error) {
	as, bs := numericAs[R](vs[0]), numericAs[R](vs[1])
	nsp := &nulls.Nulls{}
	nulls.Or(vs[0].GetNulls(), vs[1].GetNulls(), nsp)
	rs := make([]R, length)
	for i := 0; i < length; i++ {
		if nulls.Contains(nsp, uint64(i)) {
			continue
		}
		r, err := op(as[i], bs[i])
		if err != nil {
			return nil, err
		}
		rs[i] = r
	}
	vec := vector.NewVecWithData(result, rs)
	vec.SetNulls(nsp)
	return vec, nil
}

func unaryNumeric[R types.Number](v *vector.Vector, result types.Type, op func(a R) (R, error)) (*vector.Vector, error) {
	as := numericAs[R](v)
	rs := make([]R, len(as))
	for i := range as {
		if v.IsNull(uint64(i)) {
			continue
		}
		r, err := op(as[i])
		if err != nil {
			return nil, err
		}
		rs[i] = r
	}
	vec := vector.NewVecWithData(result, rs)
	vec.SetNulls(v.GetNulls().Clone())
	return vec, nil
}

// numericAs converts a numeric column to R.
func numericAs[R types.Number](v *vector.Vector) []R {
	switch v.GetType().Oid {
	case types.T_int8:
		return convertCol[int8, R](vector.MustFixedCol[int8](v))
	case types.T_int16:
		return convertCol[int16, R](vector.MustFixedCol[int16](v))
	case types.T_int32, types.T_date:
		return convertCol[int32, R](vector.MustFixedCol[int32](v))
	case types.T_int64:
		return convertCol[int64, R](vector.MustFixedCol[int64](v))
	case types.T_uint8:
		return convertCol[uint8, R](vector.MustFixedCol[uint8](v))
	case types.T_uint16:
		return convertCol[uint16, R](vector.MustFixedCol[uint16](v))
	case types.T_uint32:
		return convertCol[uint32, R](vector.MustFixedCol[uint32](v))
	case types.T_uint64:
		return convertCol[uint64, R](vector.MustFixedCol[uint64](v))
	case types.T_float32:
		return convertCol[float32, R](vector.MustFixedCol[float32](v))
	case types.T_float64:
		return convertCol[float64, R](vector.MustFixedCol[float64](v))
	}
	panic(moerr.NewInternalErrorNoCtx("column of type %s is not numeric", v.GetType()))
}

func convertCol[T, R types.Number](col []T) []R {
	rs := make([]R, len(col))
	for i, v := range col {
		rs[i] = R(v)
	}
	return rs
}
