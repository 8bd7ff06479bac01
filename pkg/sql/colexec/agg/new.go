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

	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/types"
)

const (
	AggSum   = "sum"
	AggAvg   = "avg"
	AggMin   = "min"
	AggMax   = "max"
	AggCount = "count"
	AggAny   = "any"
)

// ReturnType resolves the result type of aggregate name over inputTypes.
func ReturnType(ctx context.Context, name string, inputTypes []types.Type) (types.Type, error) {
	if name == AggCount {
		if len(inputTypes) > 1 {
			return types.Type{}, moerr.NewInvalidArg(ctx, "count arguments", len(inputTypes))
		}
		return CountReturnType(inputTypes), nil
	}
	if len(inputTypes) != 1 {
		return types.Type{}, moerr.NewInvalidArg(ctx, name+" arguments", len(inputTypes))
	}
	var typ types.Type
	switch name {
	case AggSum:
		typ = SumReturnType(inputTypes)
	case AggAvg:
		typ = AvgReturnType(inputTypes)
	case AggMin:
		typ = MinReturnType(inputTypes)
	case AggMax:
		typ = MaxReturnType(inputTypes)
	case AggAny:
		typ = AnyValueReturnType(inputTypes)
	default:
		return types.Type{}, moerr.NewNotSupported(ctx, "aggregate function %s", name)
	}
	if typ.Oid == types.T_any {
		return types.Type{}, moerr.NewNotSupported(ctx, "aggregate function %s(%s)", name, inputTypes[0])
	}
	return typ, nil
}

// New builds the aggregate name over inputTypes.
func New(ctx context.Context, name string, inputTypes []types.Type) (Agg, error) {
	ret, err := ReturnType(ctx, name, inputTypes)
	if err != nil {
		return nil, err
	}
	if name == AggCount {
		return NewCount(inputTypes), nil
	}
	var a Agg
	switch name {
	case AggSum:
		a = newSumByType(inputTypes, ret)
	case AggAvg:
		a = newAvgByType(inputTypes, ret)
	case AggMin, AggMax:
		a = newMinMaxByType(name, inputTypes, ret)
	case AggAny:
		a = newAnyByType(inputTypes, ret)
	}
	if a == nil {
		return nil, moerr.NewNotSupported(ctx, "aggregate function %s(%s)", name, inputTypes[0])
	}
	return a, nil
}

func newSumAgg[T1, T2 types.Number](ityps []types.Type, ret types.Type) Agg {
	s := NewSum[T1, T2]()
	return NewUnaryAgg[T1, T2](AggSum, ityps, ret, s.Grows, s.Eval, s.Fill)
}

func newSumByType(ityps []types.Type, ret types.Type) Agg {
	switch ityps[0].Oid {
	case types.T_int8:
		return newSumAgg[int8, int64](ityps, ret)
	case types.T_int16:
		return newSumAgg[int16, int64](ityps, ret)
	case types.T_int32:
		return newSumAgg[int32, int64](ityps, ret)
	case types.T_int64:
		return newSumAgg[int64, int64](ityps, ret)
	case types.T_uint8:
		return newSumAgg[uint8, uint64](ityps, ret)
	case types.T_uint16:
		return newSumAgg[uint16, uint64](ityps, ret)
	case types.T_uint32:
		return newSumAgg[uint32, uint64](ityps, ret)
	case types.T_uint64:
		return newSumAgg[uint64, uint64](ityps, ret)
	case types.T_float32:
		return newSumAgg[float32, float64](ityps, ret)
	case types.T_float64:
		return newSumAgg[float64, float64](ityps, ret)
	}
	return nil
}

func newAvgAgg[T types.Number](ityps []types.Type, ret types.Type) Agg {
	a := NewAvg[T]()
	return NewUnaryAgg[T, float64](AggAvg, ityps, ret, a.Grows, nil, a.Fill)
}

func newAvgByType(ityps []types.Type, ret types.Type) Agg {
	switch ityps[0].Oid {
	case types.T_int8:
		return newAvgAgg[int8](ityps, ret)
	case types.T_int16:
		return newAvgAgg[int16](ityps, ret)
	case types.T_int32:
		return newAvgAgg[int32](ityps, ret)
	case types.T_int64:
		return newAvgAgg[int64](ityps, ret)
	case types.T_uint8:
		return newAvgAgg[uint8](ityps, ret)
	case types.T_uint16:
		return newAvgAgg[uint16](ityps, ret)
	case types.T_uint32:
		return newAvgAgg[uint32](ityps, ret)
	case types.T_uint64:
		return newAvgAgg[uint64](ityps, ret)
	case types.T_float32:
		return newAvgAgg[float32](ityps, ret)
	case types.T_float64:
		return newAvgAgg[float64](ityps, ret)
	}
	return nil
}

func newMinMaxAgg[T constraints.Ordered](name string, ityps []types.Type, ret types.Type) Agg {
	if name == AggMax {
		m := NewMax[T]()
		return NewUnaryAgg[T, T](name, ityps, ret, m.Grows, m.Eval, m.Fill)
	}
	m := NewMin[T]()
	return NewUnaryAgg[T, T](name, ityps, ret, m.Grows, m.Eval, m.Fill)
}

func newMinMaxByType(name string, ityps []types.Type, ret types.Type) Agg {
	switch ityps[0].Oid {
	case types.T_bool:
		if name == AggMax {
			return NewUnaryAgg[bool, bool](name, ityps, ret, nil, nil, (&BoolMax{}).Fill)
		}
		return NewUnaryAgg[bool, bool](name, ityps, ret, nil, nil, (&BoolMin{}).Fill)
	case types.T_int8:
		return newMinMaxAgg[int8](name, ityps, ret)
	case types.T_int16:
		return newMinMaxAgg[int16](name, ityps, ret)
	case types.T_int32, types.T_date:
		return newMinMaxAgg[int32](name, ityps, ret)
	case types.T_int64:
		return newMinMaxAgg[int64](name, ityps, ret)
	case types.T_uint8:
		return newMinMaxAgg[uint8](name, ityps, ret)
	case types.T_uint16:
		return newMinMaxAgg[uint16](name, ityps, ret)
	case types.T_uint32:
		return newMinMaxAgg[uint32](name, ityps, ret)
	case types.T_uint64:
		return newMinMaxAgg[uint64](name, ityps, ret)
	case types.T_float32:
		return newMinMaxAgg[float32](name, ityps, ret)
	case types.T_float64:
		return newMinMaxAgg[float64](name, ityps, ret)
	case types.T_char, types.T_varchar:
		return newMinMaxAgg[string](name, ityps, ret)
	}
	return nil
}

func newAnyAgg[T any](ityps []types.Type, ret types.Type) Agg {
	return NewUnaryAgg[T, T](AggAny, ityps, ret, nil, nil, AnyValue[T]{}.Fill)
}

func newAnyByType(ityps []types.Type, ret types.Type) Agg {
	switch ityps[0].Oid {
	case types.T_bool:
		return newAnyAgg[bool](ityps, ret)
	case types.T_int8:
		return newAnyAgg[int8](ityps, ret)
	case types.T_int16:
		return newAnyAgg[int16](ityps, ret)
	case types.T_int32, types.T_date:
		return newAnyAgg[int32](ityps, ret)
	case types.T_int64:
		return newAnyAgg[int64](ityps, ret)
	case types.T_uint8:
		return newAnyAgg[uint8](ityps, ret)
	case types.T_uint16:
		return newAnyAgg[uint16](ityps, ret)
	case types.T_uint32:
		return newAnyAgg[uint32](ityps, ret)
	case types.T_uint64:
		return newAnyAgg[uint64](ityps, ret)
	case types.T_float32:
		return newAnyAgg[float32](ityps, ret)
	case types.T_float64:
		return newAnyAgg[float64](ityps, ret)
	case types.T_char, types.T_varchar:
		return newAnyAgg[string](ityps, ret)
	}
	return nil
}
