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

import "github.com/matrixorigin/moprojection/pkg/container/types"

// Avg keeps a running mean per group, so no sum can overflow before the
// division.
type Avg[T types.Number] struct {
	seen []int64
}

var AvgSupported = SumSupported

func AvgReturnType(typs []types.Type) types.Type {
	if !typs[0].Oid.IsNumeric() {
		return types.Type{}
	}
	return types.T_float64.ToType()
}

func NewAvg[T types.Number]() *Avg[T] {
	return &Avg[T]{}
}

func (a *Avg[T]) Grows(n int) {
	a.seen = append(a.seen, make([]int64, n)...)
}

func (a *Avg[T]) Fill(i int64, value T, mean float64, isEmpty bool, isNull bool) (float64, bool, error) {
	if isNull {
		return mean, isEmpty, nil
	}
	a.seen[i]++
	return mean + (float64(value)-mean)/float64(a.seen[i]), false, nil
}
