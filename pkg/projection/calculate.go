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

package projection

import (
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/logutil"
	"github.com/matrixorigin/moprojection/pkg/sql/compile"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/sql/plan/function"
	v2 "github.com/matrixorigin/moprojection/pkg/util/metric/v2"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

const workerReleaseTimeout = time.Second

var (
	compileFn = func(proc *process.Process, query *tree.ProjectionSelect, schema *catalog.ColumnsDescription) (compile.Runner, error) {
		p, err := compile.Compile(proc, query, schema)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	calculateFn = Calculate
)

// Calculate evaluates the query of desc over bat. A normal projection keeps
// the rows of bat sorted by its keys, an aggregate projection has one row
// per distinct key. bat is left untouched.
func Calculate(proc *process.Process, desc *Description, bat *batch.Batch) (*batch.Batch, error) {
	start := time.Now()
	defer func() {
		v2.ProjectionCalculateDurationHistogram.Observe(time.Since(start).Seconds())
	}()

	ctx := proc.Ctx
	if limit := proc.Lim.BatchRows; limit > 0 && int64(bat.RowCount()) > limit {
		return nil, moerr.NewProjectionEval(ctx, desc.Name, "batch of %d rows exceeds the limit of %d", bat.RowCount(), limit)
	}

	cols := make([]catalog.ColDef, 0, len(desc.requiredColumns))
	for _, name := range desc.requiredColumns {
		vec := bat.GetVectorByName(name)
		if vec == nil {
			return nil, moerr.NewProjectionEval(ctx, desc.Name, "column '%s' is missing from the batch", name)
		}
		cols = append(cols, catalog.ColDef{Name: name, Typ: *vec.GetType()})
	}
	schema, err := catalog.NewColumnsDescription(ctx, cols)
	if err != nil {
		return nil, evalError(proc, desc, err)
	}

	runner, err := compileFn(proc, desc.query, schema)
	if err != nil {
		return nil, evalError(proc, desc, err)
	}
	out := runner.OutputSchema()
	if len(out) != len(desc.outputSchema) {
		return nil, moerr.NewProjectionEval(ctx, desc.Name, "batch yields %d columns, expected %d", len(out), len(desc.outputSchema))
	}
	for i, col := range out {
		if !col.Typ.Eq(desc.outputSchema[i].Typ) {
			return nil, moerr.NewProjectionEval(ctx, desc.Name, "column '%s' is %s, expected %s",
				desc.outputSchema[i].Name, col.Typ.DescString(), desc.outputSchema[i].Typ.DescString())
		}
	}

	res, err := runner.Run(proc, bat)
	if err != nil {
		return nil, evalError(proc, desc, err)
	}
	if desc.Kind == Aggregate {
		v2.ProjectionCalculateAggregateRowsCounter.Add(float64(res.RowCount()))
	} else {
		v2.ProjectionCalculateNormalRowsCounter.Add(float64(res.RowCount()))
	}
	return res, nil
}

func evalError(proc *process.Process, desc *Description, err error) error {
	if moerr.IsMoErrCode(err, moerr.ErrProjectionEval) {
		return err
	}
	r := moerr.NewProjectionEval(proc.Ctx, desc.Name, "%s", err.Error())
	proc.Error("calculate projection failed", logutil.ProjectionField(desc.Name), logutil.ErrorField(err))
	return r
}

// CalculateBatches evaluates desc over every batch of bats on a worker pool.
// The results are in the order of bats. On failure the error of the first
// failed batch is returned.
func CalculateBatches(proc *process.Process, desc *Description, bats []*batch.Batch) ([]*batch.Batch, error) {
	start := time.Now()
	defer func() {
		v2.ProjectionCalculateBatchesDurationHistogram.Observe(time.Since(start).Seconds())
	}()

	if len(bats) == 0 {
		return nil, nil
	}
	workers := proc.Lim.Workers
	if workers <= 0 || workers > len(bats) {
		workers = len(bats)
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := pool.ReleaseTimeout(workerReleaseTimeout); err != nil {
			proc.Warn("release calculate workers", logutil.ErrorField(err))
		}
	}()

	results := make([]*batch.Batch, len(bats))
	errs := make([]error, len(bats))
	var wg sync.WaitGroup
	for i := range bats {
		wg.Add(1)
		if err = pool.Submit(func() {
			defer wg.Done()
			results[i], errs[i] = calculateFn(proc, desc, bats[i])
		}); err != nil {
			wg.Done()
			errs[i] = err
			break
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	proc.Debug("calculated batches",
		logutil.ProjectionField(desc.Name),
		zap.Int("batches", len(bats)),
		zap.Int("workers", workers))
	return results, nil
}

// GetSingleExpressionForProjections compiles the columns every projection of
// ps reads from a batch into one pipeline: the select lists of the normal
// projections, the keys and the aggregate arguments of the aggregate ones.
// An expression shared by several projections is computed once.
func GetSingleExpressionForProjections(proc *process.Process, ps *Projections, columns *catalog.ColumnsDescription) (*compile.ExpressionPipeline, error) {
	var exprs tree.SelectExprs
	seen := make(map[string]struct{})
	add := func(expr tree.Expr) {
		if name, ok := expr.(*tree.UnresolvedName); ok && name.Star {
			return
		}
		key := tree.CanonicalString(expr)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		exprs = append(exprs, tree.SelectExpr{Expr: tree.CloneExpr(expr)})
	}

	ps.Iter(func(desc *Description) bool {
		if desc.Kind == Normal {
			for _, se := range desc.query.Exprs {
				add(se.Expr)
			}
			return true
		}
		for _, key := range desc.query.GroupBy {
			add(key)
		}
		for _, se := range desc.query.Exprs {
			tree.Walk(se.Expr, func(e tree.Expr) bool {
				f, ok := e.(*tree.FuncExpr)
				if !ok || !function.IsAggregateFunction(f.Func) {
					return true
				}
				for _, arg := range f.Exprs {
					add(arg)
				}
				return false
			})
		}
		return true
	})

	ep, err := compile.CompileExpressions(proc, exprs, columns)
	if err != nil {
		return nil, moerr.NewProjectionEval(proc.Ctx, strings.Join(ps.Names(), ", "), "%s", err.Error())
	}
	return ep, nil
}
