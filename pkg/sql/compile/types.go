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

package compile

import (
	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/sql/plan/function"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

// Runner is a compiled projection query.
type Runner interface {
	// OutputSchema is the shape of every batch Run returns.
	OutputSchema() []catalog.ColDef
	// Run evaluates the query over bat. bat is never modified.
	Run(proc *process.Process, bat *batch.Batch) (*batch.Batch, error)
}

type slotKind uint8

const (
	inputSlot slotKind = iota
	constSlot
	funcSlot
)

// slot is one step of a program. The arguments of a function slot always
// come before it, so slots are evaluated in order.
type slot struct {
	kind slotKind
	// key is the formatted expression, equal keys mean equal expressions.
	key string
	typ types.Type

	// inputSlot
	col string

	// constSlot, nil is NULL
	val any

	// funcSlot
	fn   *function.Functions
	args []int
}

// aggCall is one aggregate of an aggregate query. Its arguments are
// evaluated by the pre aggregation program.
type aggCall struct {
	key      string
	fn       *function.Functions
	args     []int
	argTypes []types.Type
	typ      types.Type
}

const (
	keyColumnPrefix = "__key_"
	aggColumnPrefix = "__agg_"
)
