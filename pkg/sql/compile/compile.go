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
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/btree"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/sql/colexec/agg"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/sql/plan/function"
	v2 "github.com/matrixorigin/moprojection/pkg/util/metric/v2"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

const groupTreeDegree = 32

var _ Runner = new(Pipeline)

// Pipeline is a compiled projection query.
//
// Without aggregates the select list is evaluated row by row and the rows are
// stably sorted by the ORDER BY expressions. With aggregates the rows are
// grouped by the GROUP BY expressions, one row per group in ascending key
// order, and the select list is evaluated over the keys and the aggregate
// results.
type Pipeline struct {
	aggregate bool
	schema    []catalog.ColDef

	pre *program
	// outputs are the select list slots of pre, or of post for aggregates.
	outputs []int

	// normal
	orderBy []int

	// aggregate
	keys []int
	aggs []aggCall
	post *program
}

// Compile compiles query over the columns of schema.
func Compile(proc *process.Process, query *tree.ProjectionSelect, schema *catalog.ColumnsDescription) (*Pipeline, error) {
	start := time.Now()
	defer func() {
		v2.ProjectionCompileDurationHistogram.Observe(time.Since(start).Seconds())
	}()

	ctx := proc.Ctx
	if len(query.Exprs) == 0 {
		return nil, moerr.NewInvalidInput(ctx, "empty select list")
	}
	p := &Pipeline{
		pre:       newProgram(schema),
		aggregate: IsAggregateQuery(query),
	}
	var err error
	if p.aggregate {
		err = p.compileAggregate(ctx, query)
	} else {
		err = p.compileNormal(ctx, query)
	}
	if err != nil {
		return nil, err
	}
	steps := p.pre.funcSteps() + len(p.aggs)
	if p.post != nil {
		steps += p.post.funcSteps()
	}
	v2.ProjectionCompileStepsHistogram.Observe(float64(steps))
	return p, nil
}

// IsAggregateQuery reports whether query groups its rows: it has a GROUP BY
// or an aggregate function call in its select list.
func IsAggregateQuery(query *tree.ProjectionSelect) bool {
	if len(query.GroupBy) > 0 {
		return true
	}
	for _, se := range query.Exprs {
		if ContainsAggregate(se.Expr) {
			return true
		}
	}
	return false
}

// ContainsAggregate reports whether expr calls an aggregate function.
func ContainsAggregate(expr tree.Expr) bool {
	found := false
	tree.Walk(expr, func(e tree.Expr) bool {
		if f, ok := e.(*tree.FuncExpr); ok && function.IsAggregateFunction(f.Func) {
			found = true
		}
		return !found
	})
	return found
}

func (p *Pipeline) compileNormal(ctx context.Context, query *tree.ProjectionSelect) error {
	if len(query.GroupBy) > 0 {
		return moerr.NewInternalError(ctx, "group by in a query without aggregates")
	}
	names := make(map[string]struct{}, len(query.Exprs))
	for _, se := range query.Exprs {
		pos, err := p.pre.compileExpr(ctx, se.Expr)
		if err != nil {
			return err
		}
		if err := p.addOutput(ctx, names, se.Name(), p.pre.slots[pos].typ); err != nil {
			return err
		}
		p.outputs = append(p.outputs, pos)
	}
	for _, expr := range tree.FlattenTuples(query.OrderBy) {
		pos, err := p.pre.compileExpr(ctx, expr)
		if err != nil {
			return err
		}
		p.orderBy = append(p.orderBy, pos)
	}
	return nil
}

func (p *Pipeline) addOutput(ctx context.Context, names map[string]struct{}, name string, typ types.Type) error {
	if _, ok := names[name]; ok {
		return moerr.NewInvalidInput(ctx, "duplicate output column '%s'", name)
	}
	names[name] = struct{}{}
	p.schema = append(p.schema, catalog.ColDef{Name: name, Typ: typ})
	return nil
}

func (p *Pipeline) compileAggregate(ctx context.Context, query *tree.ProjectionSelect) error {
	if len(query.OrderBy) > 0 {
		return moerr.NewInvalidInput(ctx, "order by is not allowed together with aggregates")
	}
	groupBy := tree.FlattenTuples(query.GroupBy)
	keyExprs := make(tree.Exprs, 0, len(groupBy))
	keyCols := make([]catalog.ColDef, 0, len(groupBy))
	for i, expr := range groupBy {
		if ContainsAggregate(expr) {
			return moerr.NewInvalidInput(ctx, "aggregate function is not allowed in group by: %s", tree.String(expr))
		}
		pos, err := p.pre.compileExpr(ctx, expr)
		if err != nil {
			return err
		}
		keyExprs = append(keyExprs, expr)
		p.keys = append(p.keys, pos)
		keyCols = append(keyCols, catalog.ColDef{Name: keyColumnPrefix + strconv.Itoa(i), Typ: p.pre.slots[pos].typ})
	}

	rewritten := make(tree.Exprs, len(query.Exprs))
	for i, se := range query.Exprs {
		expr, err := p.rewriteAggregate(ctx, tree.CloneExpr(se.Expr), keyExprs)
		if err != nil {
			return err
		}
		rewritten[i] = expr
	}

	postCols := keyCols
	for j, a := range p.aggs {
		postCols = append(postCols, catalog.ColDef{Name: aggColumnPrefix + strconv.Itoa(j), Typ: a.typ})
	}
	postSchema, err := catalog.NewColumnsDescription(ctx, postCols)
	if err != nil {
		return err
	}
	p.post = newProgram(postSchema)
	names := make(map[string]struct{}, len(query.Exprs))
	for i, expr := range rewritten {
		if col := bareColumn(expr); col != "" {
			return moerr.NewInvalidInput(ctx,
				"column '%s' must appear in the group by clause or be used in an aggregate function", col)
		}
		pos, err := p.post.compileExpr(ctx, expr)
		if err != nil {
			return err
		}
		if err := p.addOutput(ctx, names, query.Exprs[i].Name(), p.post.slots[pos].typ); err != nil {
			return err
		}
		p.outputs = append(p.outputs, pos)
	}
	return nil
}

// rewriteAggregate replaces the group keys of expr by __key_i and its
// aggregate calls by __agg_j, compiling the aggregate arguments into the pre
// aggregation program.
func (p *Pipeline) rewriteAggregate(ctx context.Context, expr tree.Expr, keys tree.Exprs) (tree.Expr, error) {
	var err error
	expr = tree.Rewrite(expr, func(e tree.Expr) (tree.Expr, bool) {
		if err != nil {
			return e, true
		}
		for i, key := range keys {
			if tree.ExprEqual(e, key) {
				return tree.NewUnresolvedColName(keyColumnPrefix + strconv.Itoa(i)), true
			}
		}
		f, ok := e.(*tree.FuncExpr)
		if !ok || !function.IsAggregateFunction(f.Func) {
			return e, false
		}
		var j int
		if j, err = p.compileAggCall(ctx, f); err != nil {
			return e, true
		}
		return tree.NewUnresolvedColName(aggColumnPrefix + strconv.Itoa(j)), true
	})
	return expr, err
}

func (p *Pipeline) compileAggCall(ctx context.Context, f *tree.FuncExpr) (int, error) {
	key := tree.CanonicalString(f)
	for j := range p.aggs {
		if p.aggs[j].key == key {
			return j, nil
		}
	}
	fn, err := function.GetFunctionByName(ctx, f.Func)
	if err != nil {
		return -1, err
	}
	args := f.Exprs
	if len(args) == 1 {
		if name, ok := args[0].(*tree.UnresolvedName); ok && name.Star {
			if fn.Name != agg.AggCount {
				return -1, moerr.NewInvalidInput(ctx, "'*' is not allowed in %s", key)
			}
			args = nil
		}
	}
	for _, arg := range args {
		if ContainsAggregate(arg) {
			return -1, moerr.NewInvalidInput(ctx, "aggregate function calls cannot be nested: %s", key)
		}
	}
	argPos, argTypes, err := p.pre.compileArgs(ctx, args)
	if err != nil {
		return -1, err
	}
	typ, err := fn.ReturnType(ctx, argTypes)
	if err != nil {
		return -1, err
	}
	p.aggs = append(p.aggs, aggCall{key: key, fn: fn, args: argPos, argTypes: argTypes, typ: typ})
	return len(p.aggs) - 1, nil
}

// bareColumn returns the first column of expr that is neither a key nor an
// aggregate result.
func bareColumn(expr tree.Expr) string {
	col := ""
	tree.Walk(expr, func(e tree.Expr) bool {
		if name, ok := e.(*tree.UnresolvedName); ok && !name.Star && col == "" {
			if !isInternalColumn(name.Name) {
				col = name.Name
			}
		}
		return col == ""
	})
	return col
}

func isInternalColumn(name string) bool {
	return len(name) > len(keyColumnPrefix) && name[:len(keyColumnPrefix)] == keyColumnPrefix ||
		len(name) > len(aggColumnPrefix) && name[:len(aggColumnPrefix)] == aggColumnPrefix
}

func (p *Pipeline) IsAggregate() bool {
	return p.aggregate
}

// Inputs are the columns the pipeline reads, in order of first reference.
func (p *Pipeline) Inputs() []string {
	return append([]string(nil), p.pre.inputs...)
}

func (p *Pipeline) OutputSchema() []catalog.ColDef {
	return append([]catalog.ColDef(nil), p.schema...)
}

func (p *Pipeline) Run(proc *process.Process, bat *batch.Batch) (*batch.Batch, error) {
	ctx := proc.Ctx
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	vecs, err := p.pre.eval(ctx, bat)
	if err != nil {
		return nil, err
	}
	if p.aggregate {
		return p.runAggregate(ctx, bat.RowCount(), vecs)
	}
	return p.runNormal(bat.RowCount(), vecs)
}

func (p *Pipeline) runNormal(rows int, vecs []*vector.Vector) (*batch.Batch, error) {
	sels := make([]int64, rows)
	for i := range sels {
		sels[i] = int64(i)
	}
	if len(p.orderBy) > 0 {
		sort.SliceStable(sels, func(i, j int) bool {
			for _, pos := range p.orderBy {
				if c := vector.Compare(vecs[pos], int(sels[i]), vecs[pos], int(sels[j])); c != 0 {
					return c < 0
				}
			}
			return false
		})
	}
	out := make([]*vector.Vector, len(p.outputs))
	for i, pos := range p.outputs {
		out[i] = vecs[pos].Select(sels)
	}
	return batch.NewWithVectors(p.attrs(), out)
}

// group is an entry of the group table, row is the first input row of the
// group and idx its position in the aggregate states.
type group struct {
	row int64
	idx int64
}

func (p *Pipeline) runAggregate(ctx context.Context, rows int, vecs []*vector.Vector) (*batch.Batch, error) {
	keyVecs := make([]*vector.Vector, len(p.keys))
	for i, pos := range p.keys {
		keyVecs[i] = vecs[pos]
	}
	aggs := make([]agg.Agg, len(p.aggs))
	argVecs := make([][]*vector.Vector, len(p.aggs))
	for j := range p.aggs {
		a, err := p.aggs[j].fn.NewAgg(ctx, p.aggs[j].argTypes)
		if err != nil {
			return nil, err
		}
		aggs[j] = a
		argVecs[j] = make([]*vector.Vector, len(p.aggs[j].args))
		for k, pos := range p.aggs[j].args {
			argVecs[j][k] = vecs[pos]
		}
	}

	groups := btree.NewG(groupTreeDegree, func(a, b group) bool {
		for _, vec := range keyVecs {
			if c := vector.Compare(vec, int(a.row), vec, int(b.row)); c != 0 {
				return c < 0
			}
		}
		return false
	})
	for row := int64(0); row < int64(rows); row++ {
		g, ok := groups.Get(group{row: row})
		if !ok {
			g = group{row: row, idx: int64(groups.Len())}
			groups.ReplaceOrInsert(g)
			for _, a := range aggs {
				a.Grows(1)
			}
		}
		for j, a := range aggs {
			if err := a.Fill(g.idx, row, argVecs[j]); err != nil {
				return nil, err
			}
		}
	}
	reps := make([]int64, 0, groups.Len())
	idxs := make([]int64, 0, groups.Len())
	groups.Ascend(func(g group) bool {
		reps = append(reps, g.row)
		idxs = append(idxs, g.idx)
		return true
	})

	postVecs := make([]*vector.Vector, 0, len(keyVecs)+len(aggs))
	for _, vec := range keyVecs {
		postVecs = append(postVecs, vec.Select(reps))
	}
	for _, a := range aggs {
		vec, err := a.Eval()
		if err != nil {
			return nil, err
		}
		postVecs = append(postVecs, vec.Select(idxs))
	}
	postBat, err := batch.NewWithVectors(p.post.schema.Names(), postVecs)
	if err != nil {
		return nil, err
	}
	postBat.SetRowCount(len(reps))
	out, err := p.post.eval(ctx, postBat)
	if err != nil {
		return nil, err
	}
	res := make([]*vector.Vector, len(p.outputs))
	for i, pos := range p.outputs {
		res[i] = out[pos].Dup()
	}
	bat, err := batch.NewWithVectors(p.attrs(), res)
	if err != nil {
		return nil, err
	}
	bat.SetRowCount(len(reps))
	return bat, nil
}

func (p *Pipeline) attrs() []string {
	attrs := make([]string, len(p.schema))
	for i, col := range p.schema {
		attrs[i] = col.Name
	}
	return attrs
}
