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

// Count counts the non NULL rows of its argument, every row when it has none.
type Count struct {
	cnts       []int64
	inputTypes []types.Type
}

func CountReturnType(_ []types.Type) types.Type {
	return types.T_int64.ToType()
}

func NewCount(inputTypes []types.Type) *Count {
	return &Count{inputTypes: inputTypes}
}

func (c *Count) OutputType() types.Type {
	return types.T_int64.ToType()
}

func (c *Count) InputTypes() []types.Type {
	return c.inputTypes
}

func (c *Count) Grows(n int) {
	for i := 0; i < n; i++ {
		c.cnts = append(c.cnts, 0)
	}
}

func (c *Count) Fill(i int64, sel int64, vecs []*vector.Vector) error {
	switch len(vecs) {
	case 0:
		c.cnts[i]++
	case 1:
		if !vecs[0].IsNull(uint64(sel)) {
			c.cnts[i]++
		}
	default:
		return moerr.NewInternalErrorNoCtx("aggregate count expects at most 1 argument, got %d", len(vecs))
	}
	return nil
}

func (c *Count) Eval() (*vector.Vector, error) {
	return vector.NewVecWithData(c.OutputType(), append([]int64(nil), c.cnts...)), nil
}
