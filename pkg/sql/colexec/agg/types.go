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
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
)

// Agg is an aggregate function over a set of groups. Groups are numbered in
// the order they were grown.
type Agg interface {
	// OutputType return the result type of the agg.
	OutputType() types.Type

	// InputTypes return the input types of the agg.
	InputTypes() []types.Type

	// Grows allocates n groups for the agg.
	Grows(n int)

	// Fill use the one row of vector to fill agg.
	Fill(groupIndex int64, rowIndex int64, vectors []*vector.Vector) error

	// Eval method calculates and returns the final result of the aggregate function,
	// one row per group.
	Eval() (*vector.Vector, error)
}

// UnaryAgg generic aggregation function with one input vector
type UnaryAgg[T1, T2 any] struct {
	// name of the aggregate
	op string

	// vs is result value list
	vs []T2
	// es, es[i] is true to indicate that this group has not yet been populated with any value
	es []bool

	// outputType is return type of agg.
	outputType types.Type
	// inputTypes is input type of agg.
	inputTypes []types.Type

	// grows add more n groups into agg.
	grows func(int)

	// eval get final result of agg.
	eval func([]T2, []bool) ([]T2, error)

	// fill add a value into one group of agg.
	// the arguments are
	// [group index, value to add, result of group, is group new, is value null]
	fill func(int64, T1, T2, bool, bool) (T2, bool, error)
}

func NewUnaryAgg[T1, T2 any](
	op string,
	inputTypes []types.Type,
	outputType types.Type,
	grows func(int),
	eval func([]T2, []bool) ([]T2, error),
	fill func(int64, T1, T2, bool, bool) (T2, bool, error)) Agg {
	return &UnaryAgg[T1, T2]{
		op:         op,
		outputType: outputType,
		inputTypes: inputTypes,
		grows:      grows,
		eval:       eval,
		fill:       fill,
	}
}

func (a *UnaryAgg[T1, T2]) OutputType() types.Type {
	return a.outputType
}

func (a *UnaryAgg[T1, T2]) InputTypes() []types.Type {
	return a.inputTypes
}

func (a *UnaryAgg[T1, T2]) Grows(n int) {
	if a.grows != nil {
		a.grows(n)
	}
	var zero T2
	for i := 0; i < n; i++ {
		a.vs = append(a.vs, zero)
		a.es = append(a.es, true)
	}
}

func (a *UnaryAgg[T1, T2]) Fill(i int64, sel int64, vecs []*vector.Vector) error {
	if len(vecs) != 1 {
		return moerr.NewInternalErrorNoCtx("aggregate %s expects 1 argument, got %d", a.op, len(vecs))
	}
	vec := vecs[0]
	isNull := vec.IsNull(uint64(sel))
	var value T1
	if !isNull {
		value = vector.MustCol[T1](vec)[sel]
	}
	var err error
	a.vs[i], a.es[i], err = a.fill(i, value, a.vs[i], a.es[i], isNull)
	return err
}

// Eval returns NULL for the groups that never saw a non NULL value.
func (a *UnaryAgg[T1, T2]) Eval() (*vector.Vector, error) {
	vs := a.vs
	if a.eval != nil {
		var err error
		if vs, err = a.eval(a.vs, a.es); err != nil {
			return nil, err
		}
	}
	var nullRows []uint64
	for i, empty := range a.es {
		if empty {
			nullRows = append(nullRows, uint64(i))
		}
	}
	return vector.NewVecWithData(a.outputType, vs, nullRows...), nil
}
