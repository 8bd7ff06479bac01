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
	"github.com/matrixorigin/moprojection/pkg/container/types"
)

type Sum[T1 types.Number, T2 types.Number] struct{}

var SumSupported = []types.T{
	types.T_uint8, types.T_uint16, types.T_uint32, types.T_uint64,
	types.T_int8, types.T_int16, types.T_int32, types.T_int64,
	types.T_float32, types.T_float64,
}

// SumReturnType widens to the 64 bit type of the same family.
func SumReturnType(typs []types.Type) types.Type {
	switch oid := typs[0].Oid; {
	case oid.IsSignedInt():
		return types.T_int64.ToType()
	case oid.IsUnsignedInt():
		return types.T_uint64.ToType()
	case oid.IsFloat():
		return types.T_float64.ToType()
	}
	return types.Type{}
}

func NewSum[T1 types.Number, T2 types.Number]() *Sum[T1, T2] {
	return &Sum[T1, T2]{}
}

func (s *Sum[T1, T2]) Grows(_ int) {
}

func (s *Sum[T1, T2]) Eval(vs []T2, _ []bool) ([]T2, error) {
	return vs, nil
}

func (s *Sum[T1, T2]) Fill(_ int64, value T1, ov T2, isEmpty bool, isNull bool) (T2, bool, error) {
	if isNull {
		return ov, isEmpty, nil
	}
	return ov + T2(value), false, nil
}
