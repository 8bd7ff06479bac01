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

	"go.uber.org/zap"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/logutil"
	"github.com/matrixorigin/moprojection/pkg/sql/colexec/agg"
	"github.com/matrixorigin/moprojection/pkg/sql/compile"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	v2 "github.com/matrixorigin/moprojection/pkg/util/metric/v2"
	"github.com/matrixorigin/moprojection/pkg/vm/process"
)

// GetProjectionFromDefinition derives the description of a user defined
// projection over the table columns.
//
// The select list is reordered so that the sort keys (ORDER BY) or the group
// keys (GROUP BY) come first, keys missing from the select list are added.
// Wildcards of the select list are expanded.
func GetProjectionFromDefinition(proc *process.Process, decl *tree.ProjectionDecl, columns *catalog.ColumnsDescription) (*Description, error) {
	ctx := proc.Ctx
	if decl == nil || decl.Query == nil {
		return nil, moerr.NewProjectionDerive(ctx, "", "empty definition")
	}
	if decl.Name == "" {
		return nil, moerr.NewProjectionDerive(ctx, "", "projection name is empty")
	}
	if decl.Name == MinMaxCountProjectionName {
		v2.ProjectionDeriveFailedCounter.Inc()
		return nil, moerr.NewProjectionDerive(ctx, decl.Name, "the name is reserved")
	}
	desc, err := deriveFromDefinition(proc, decl.Name, decl.Query, columns)
	if err != nil {
		v2.ProjectionDeriveFailedCounter.Inc()
		proc.Debug("derive projection failed", logutil.ProjectionField(decl.Name), logutil.ErrorField(err))
		return nil, err
	}
	if desc.Kind == Aggregate {
		v2.ProjectionDeriveAggregateSuccessCounter.Inc()
	} else {
		v2.ProjectionDeriveNormalSuccessCounter.Inc()
	}
	proc.Debug("derived projection",
		logutil.ProjectionField(desc.Name),
		logutil.KindField(desc.Kind.String()),
		zap.Strings("required-columns", desc.requiredColumns))
	return desc, nil
}

func deriveFromDefinition(proc *process.Process, name string, definition *tree.ProjectionSelect, columns *catalog.ColumnsDescription) (*Description, error) {
	ctx := proc.Ctx
	query := definition.Clone()
	query.Exprs = expandStars(query.Exprs, columns)

	kind := Normal
	var keys tree.Exprs
	if compile.IsAggregateQuery(query) {
		kind = Aggregate
		if len(query.OrderBy) > 0 {
			if len(query.GroupBy) > 0 {
				return nil, moerr.NewProjectionDerive(ctx, name, "GROUP BY and ORDER BY cannot be used together")
			}
			return nil, moerr.NewProjectionDerive(ctx, name, "ORDER BY is not allowed in an aggregate projection")
		}
		keys = dedupExprs(tree.FlattenTuples(query.GroupBy))
	} else {
		keys = dedupExprs(tree.FlattenTuples(query.OrderBy))
		for _, key := range keys {
			if compile.ContainsAggregate(key) {
				return nil, moerr.NewProjectionDerive(ctx, name, "aggregate function in key %s", tree.String(key))
			}
		}
	}

	query.Exprs = keysFirst(query.Exprs, keys)
	if kind == Aggregate {
		query.GroupBy, query.OrderBy = keys, nil
	} else {
		query.GroupBy, query.OrderBy = nil, keys
	}

	desc := &Description{
		Name:       name,
		Kind:       kind,
		definition: definition.Clone(),
		query:      query,
		keySize:    len(keys),
	}
	if err := desc.resolve(proc, columns); err != nil {
		return nil, err
	}
	if kind == Aggregate {
		desc.aggregate = &AggregateInfo{GroupBy: tree.CloneExprs(keys)}
		for _, col := range desc.outputSchema[desc.keySize:] {
			desc.aggregate.Aggregates = append(desc.aggregate.Aggregates, col.Name)
		}
	}
	return desc, nil
}

// resolve fills the required columns and the output schema of desc from its
// rewritten query.
func (desc *Description) resolve(proc *process.Process, columns *catalog.ColumnsDescription) error {
	ctx := proc.Ctx
	query := desc.query
	exprs := make(tree.Exprs, 0, len(query.Exprs)+len(query.GroupBy)+len(query.OrderBy))
	for _, se := range query.Exprs {
		exprs = append(exprs, se.Expr)
	}
	exprs = append(exprs, query.GroupBy...)
	exprs = append(exprs, query.OrderBy...)
	desc.requiredColumns = catalog.ReferencedColumns(exprs...)

	cols, err := columns.Pick(ctx, desc.requiredColumns)
	if err != nil {
		return moerr.NewProjectionDerive(ctx, desc.Name, "%s", missingColumnMessage(desc.requiredColumns, columns))
	}
	schema, err := catalog.NewColumnsDescription(ctx, cols)
	if err != nil {
		return moerr.NewProjectionDerive(ctx, desc.Name, "%s", err.Error())
	}
	pipeline, err := compile.Compile(proc, query, schema)
	if err != nil {
		return moerr.NewProjectionDerive(ctx, desc.Name, "%s", err.Error())
	}

	// run over an empty batch to catch what compiling alone does not
	sample, err := emptyBatch(cols)
	if err != nil {
		return moerr.NewProjectionDerive(ctx, desc.Name, "%s", err.Error())
	}
	if _, err = pipeline.Run(proc, sample); err != nil {
		return moerr.NewProjectionDerive(ctx, desc.Name, "%s", err.Error())
	}
	desc.outputSchema = pipeline.OutputSchema()
	if desc.keySize > len(desc.outputSchema) {
		return moerr.NewInternalError(ctx, "projection '%s' has %d keys but %d columns",
			desc.Name, desc.keySize, len(desc.outputSchema))
	}
	return nil
}

func missingColumnMessage(required []string, columns *catalog.ColumnsDescription) string {
	var missing []string
	for _, name := range required {
		if !columns.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 1 {
		return "column '" + missing[0] + "' does not exist"
	}
	return "columns '" + strings.Join(missing, "', '") + "' do not exist"
}

func emptyBatch(cols []catalog.ColDef) (*batch.Batch, error) {
	attrs := make([]string, len(cols))
	vecs := make([]*vector.Vector, len(cols))
	for i, col := range cols {
		attrs[i] = col.Name
		vecs[i] = vector.NewVec(col.Typ)
	}
	return batch.NewWithVectors(attrs, vecs)
}

// expandStars replaces the `*` items of the select list by every column of
// the table. Wildcards nested in expressions are left alone.
func expandStars(exprs tree.SelectExprs, columns *catalog.ColumnsDescription) tree.SelectExprs {
	r := make(tree.SelectExprs, 0, len(exprs))
	for _, se := range exprs {
		if name, ok := se.Expr.(*tree.UnresolvedName); ok && name.Star {
			for _, col := range columns.Names() {
				r = append(r, tree.SelectExpr{Expr: tree.NewUnresolvedColName(col)})
			}
			continue
		}
		r = append(r, se)
	}
	return r
}

func dedupExprs(exprs tree.Exprs) tree.Exprs {
	r := make(tree.Exprs, 0, len(exprs))
	for _, expr := range exprs {
		if indexOfExpr(r, expr) < 0 {
			r = append(r, expr)
		}
	}
	return r
}

func indexOfExpr(exprs tree.Exprs, expr tree.Expr) int {
	for i, e := range exprs {
		if tree.ExprEqual(e, expr) {
			return i
		}
	}
	return -1
}

// keysFirst moves the select items matching keys to the front in key order,
// keys without a matching item get one.
func keysFirst(exprs tree.SelectExprs, keys tree.Exprs) tree.SelectExprs {
	r := make(tree.SelectExprs, 0, len(exprs)+len(keys))
	used := make([]bool, len(exprs))
	for _, key := range keys {
		found := false
		for i, se := range exprs {
			if !used[i] && tree.ExprEqual(se.Expr, key) {
				r = append(r, se)
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			r = append(r, tree.SelectExpr{Expr: tree.CloneExpr(key)})
		}
	}
	for i, se := range exprs {
		if !used[i] {
			r = append(r, se)
		}
	}
	return r
}

// GetMinMaxCountProjection synthesizes the minmax count projection: grouped
// by the partition expressions it holds the min and the max of every minmax
// column, of the first primary key expression that is a possibly wrapped
// primary key column, and the row count.
func GetMinMaxCountProjection(
	proc *process.Process,
	columns *catalog.ColumnsDescription,
	partitionColumns tree.Exprs,
	minmaxColumns []string,
	primaryKeys tree.Exprs) (*Description, error) {
	ctx := proc.Ctx
	if !proc.EnableMinMaxCount {
		return nil, moerr.NewNotSupported(ctx, "minmax count projection is disabled")
	}
	desc, err := deriveMinMaxCount(proc, columns, partitionColumns, minmaxColumns, primaryKeys)
	if err != nil {
		v2.ProjectionDeriveMinMaxFailedCounter.Inc()
		proc.Debug("derive minmax count projection failed", logutil.ErrorField(err))
		return nil, err
	}
	v2.ProjectionDeriveMinMaxSuccessCounter.Inc()
	proc.Debug("derived minmax count projection",
		zap.Ints("partition-value-indices", desc.minmax.PartitionValueIndices),
		zap.String("primary-key-max", desc.minmax.PrimaryKeyMaxColumnName))
	return desc, nil
}

func deriveMinMaxCount(
	proc *process.Process,
	columns *catalog.ColumnsDescription,
	partitionColumns tree.Exprs,
	minmaxColumns []string,
	primaryKeys tree.Exprs) (*Description, error) {
	info := &MinMaxCountInfo{
		PartitionBy:   tree.CloneExprs(partitionColumns),
		MinMaxColumns: append([]string(nil), minmaxColumns...),
		PrimaryKey:    tree.CloneExprs(primaryKeys),
	}

	partition := tree.FlattenTuples(tree.CloneExprs(partitionColumns))
	keys := make(tree.Exprs, 0, len(partition))
	info.PartitionValueIndices = make([]int, len(partition))
	for i, expr := range partition {
		expr = useLegacyModulo(expr)
		pos := indexOfExpr(keys, expr)
		if pos < 0 {
			pos = len(keys)
			keys = append(keys, expr)
		}
		info.PartitionValueIndices[i] = pos
	}

	query := &tree.ProjectionSelect{GroupBy: keys}
	add := func(expr tree.Expr) {
		for _, se := range query.Exprs {
			if tree.ExprEqual(se.Expr, expr) {
				return
			}
		}
		query.Exprs = append(query.Exprs, tree.SelectExpr{Expr: expr})
	}
	for _, key := range keys {
		add(tree.CloneExpr(key))
	}
	for _, col := range minmaxColumns {
		add(tree.NewFuncExpr(agg.AggMin, tree.NewUnresolvedColName(col)))
		add(tree.NewFuncExpr(agg.AggMax, tree.NewUnresolvedColName(col)))
	}
	pkColumns := catalog.ReferencedColumns(primaryKeys...)
	for _, pk := range primaryKeys {
		if !isPrimaryKeyColumnPossiblyWrappedInFunctions(pk, pkColumns) {
			continue
		}
		maxExpr := tree.NewFuncExpr(agg.AggMax, tree.CloneExpr(pk))
		add(tree.NewFuncExpr(agg.AggMin, tree.CloneExpr(pk)))
		add(maxExpr)
		info.PrimaryKeyMaxColumnName = tree.String(maxExpr)
		break
	}
	add(tree.NewFuncExpr(agg.AggCount))

	desc := &Description{
		Name:       MinMaxCountProjectionName,
		Kind:       Aggregate,
		definition: query.Clone(),
		query:      query,
		keySize:    len(keys),
		minmax:     info,
	}
	if err := desc.resolve(proc, columns); err != nil {
		return nil, err
	}
	desc.aggregate = &AggregateInfo{GroupBy: tree.CloneExprs(keys)}
	for _, col := range desc.outputSchema[desc.keySize:] {
		desc.aggregate.Aggregates = append(desc.aggregate.Aggregates, col.Name)
	}
	return desc, nil
}

// useLegacyModulo rewrites the modulo of a partition expression to
// moduloLegacy, which the existing partition ids were computed with.
func useLegacyModulo(expr tree.Expr) tree.Expr {
	return tree.Rewrite(expr, func(e tree.Expr) (tree.Expr, bool) {
		switch n := e.(type) {
		case *tree.FuncExpr:
			if strings.EqualFold(n.Func, "modulo") {
				n.Func = "moduloLegacy"
			}
		case *tree.BinaryExpr:
			if n.Op == tree.MOD {
				return tree.NewFuncExpr("moduloLegacy",
					useLegacyModulo(n.Left), useLegacyModulo(n.Right)), true
			}
		}
		return e, false
	})
}

// RecalculateWithNewColumns derives existing again over new columns. A
// projection that does not fit the new columns is reported stale, it is
// never dropped here.
func RecalculateWithNewColumns(proc *process.Process, existing *Description, newColumns *catalog.ColumnsDescription) (*Description, error) {
	ctx := proc.Ctx
	for _, name := range existing.requiredColumns {
		if !newColumns.Has(name) {
			err := moerr.NewStaleProjection(ctx, existing.Name, "column '%s' no longer exists", name)
			proc.Warn("stale projection", logutil.ProjectionField(existing.Name), logutil.ErrorField(err))
			return nil, err
		}
	}

	var desc *Description
	var err error
	if existing.minmax != nil {
		info := existing.minmax
		desc, err = deriveMinMaxCount(proc, newColumns, info.PartitionBy, info.MinMaxColumns, info.PrimaryKey)
	} else {
		desc, err = deriveFromDefinition(proc, existing.Name, existing.definition, newColumns)
	}
	if err != nil {
		if !moerr.IsMoErrCode(err, moerr.ErrStaleProjection) {
			err = moerr.NewStaleProjection(ctx, existing.Name, "%s", err.Error())
		}
		proc.Warn("stale projection", logutil.ProjectionField(existing.Name), logutil.ErrorField(err))
		return nil, err
	}
	desc.table = existing.table
	return desc, nil
}
