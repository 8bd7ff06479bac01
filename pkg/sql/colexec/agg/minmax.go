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
	"golang.org/x/exp/constraints"

	"github.com/matrixorigin/moprojection/pkg/container/types"
)

type Max[T constraints.Ordered] struct{}

type Min[T constraints.Ordered] struct{}

func MaxReturnType(typs []types.Type) types.Type {
	return typs[0]
}

func MinReturnType(typs []types.Type) types.Type {
	return typs[0]
}

func NewMax[T constraints.Ordered]() *Max[T] {
	return &Max[T]{}
}

func NewMin[T constraints.Ordered]() *Min[T] {
	return &Min[T]{}
}

func (m *Max[T]) Grows(_ int) {
}

func (m *Max[T]) Eval(vs []T, _ []bool) ([]T, error) {
	return vs, nil
}

func (m *Max[T]) Fill(_ int64, value T, ov T, isEmpty bool, isNull bool) (T, bool, error) {
	if isNull {
		return ov, isEmpty, nil
	}
	if isEmpty || value > ov {
		return value, false, nil
	}
	return ov, false, nil
}

func (m *Min[T]) Grows(_ int) {
}

func (m *Min[T]) Eval(vs []T, _ []bool) ([]T, error) {
	return vs, nil
}

func (m *Min[T]) Fill(_ int64, value T, ov T, isEmpty bool, isNull bool) (T, bool, error) {
	if isNull {
		return ov, isEmpty, nil
	}
	if isEmpty || value < ov {
		return value, false, nil
	}
	return ov, false, nil
}

// BoolMax and BoolMin order false before true.
type BoolMax struct{}

type BoolMin struct{}

func (m *BoolMax) Fill(_ int64, value bool, ov bool, isEmpty bool, isNull bool) (bool, bool, error) {
	if isNull {
		return ov, isEmpty, nil
	}
	return (!isEmpty && ov) || value, false, nil
}

func (m *BoolMin) Fill(_ int64, value bool, ov bool, isEmpty bool, isNull bool) (bool, bool, error) {
	if isNull {
		return ov, isEmpty, nil
	}
	if isEmpty {
		return value, false, nil
	}
	return ov && value, false, nil
}
