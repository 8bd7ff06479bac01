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
	"time"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	v2 "github.com/matrixorigin/moprojection/pkg/util/metric/v2"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

// ExpressionPipeline computes a list of scalar expressions in one pass.
// Every input column is read once and every distinct subexpression is
// computed once, whichever outputs share it.
type ExpressionPipeline struct {
	prog    *program
	outputs []int
	schema  []catalog.ColDef
}

// CompileExpressions compiles exprs over the columns of schema. Output names
// must be unique.
func CompileExpressions(proc *process.Process, exprs tree.SelectExprs, schema *catalog.ColumnsDescription) (*ExpressionPipeline, error) {
	start := time.Now()
	defer func() {
		v2.ProjectionCompileDurationHistogram.Observe(time.Since(start).Seconds())
	}()

	ctx := proc.Ctx
	ep := &ExpressionPipeline{prog: newProgram(schema)}
	names := make(map[string]struct{}, len(exprs))
	for _, se := range exprs {
		name := se.Name()
		if _, ok := names[name]; ok {
			return nil, moerr.NewInvalidInput(ctx, "duplicate output column '%s'", name)
		}
		names[name] = struct{}{}
		pos, err := ep.prog.compileExpr(ctx, se.Expr)
		if err != nil {
			return nil, err
		}
		ep.outputs = append(ep.outputs, pos)
		ep.schema = append(ep.schema, catalog.ColDef{Name: name, Typ: ep.prog.slots[pos].typ})
	}
	v2.ProjectionCompileStepsHistogram.Observe(float64(ep.StepCount()))
	return ep, nil
}

// Inputs are the columns read, each listed once.
func (ep *ExpressionPipeline) Inputs() []string {
	return append([]string(nil), ep.prog.inputs...)
}

func (ep *ExpressionPipeline) Outputs() []catalog.ColDef {
	return append([]catalog.ColDef(nil), ep.schema...)
}

// StepCount is the number of distinct steps, column reads and constants
// included.
func (ep *ExpressionPipeline) StepCount() int {
	return len(ep.prog.slots)
}

func (ep *ExpressionPipeline) Run(proc *process.Process, bat *batch.Batch) (*batch.Batch, error) {
	if err := proc.Ctx.Err(); err != nil {
		return nil, err
	}
	vecs, err := ep.prog.eval(proc.Ctx, bat)
	if err != nil {
		return nil, err
	}
	attrs := make([]string, len(ep.outputs))
	out := make([]*vector.Vector, len(ep.outputs))
	for i, pos := range ep.outputs {
		attrs[i] = ep.schema[i].Name
		// outputs never alias the input columns
		if ep.prog.slots[pos].kind == inputSlot {
			out[i] = vecs[pos].Dup()
		} else {
			out[i] = vecs[pos]
		}
	}
	res, err := batch.NewWithVectors(attrs, out)
	if err != nil {
		return nil, err
	}
	res.SetRowCount(bat.RowCount())
	return res, nil
}
