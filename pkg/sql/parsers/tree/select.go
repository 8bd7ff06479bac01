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

package tree

// SelectExpr is one item of a select list.
type SelectExpr struct {
	Expr Expr
	As   string
}

// Name is the output column name of the item.
func (node SelectExpr) Name() string {
	if node.As != "" {
		return node.As
	}
	return String(node.Expr)
}

func (node SelectExpr) Format(ctx *FmtCtx) {
	node.Expr.Format(ctx)
	if node.As != "" {
		ctx.WriteByte(' ')
		ctx.WriteKeyWord("as ")
		ctx.WriteName(node.As)
	}
}

type SelectExprs []SelectExpr

func (node SelectExprs) Format(ctx *FmtCtx) {
	for i, n := range node {
		if i > 0 {
			ctx.WriteString(", ")
		}
		n.Format(ctx)
	}
}

// ProjectionSelect is the query of a projection:
//
//	SELECT <expr [AS alias]>, ... [GROUP BY <exprs>] [ORDER BY <exprs>]
type ProjectionSelect struct {
	Exprs   SelectExprs
	GroupBy Exprs
	OrderBy Exprs
}

func (node *ProjectionSelect) Format(ctx *FmtCtx) {
	ctx.WriteKeyWord("select ")
	node.Exprs.Format(ctx)
	if len(node.GroupBy) > 0 {
		ctx.WriteKeyWord(" group by ")
		node.GroupBy.Format(ctx)
	}
	if len(node.OrderBy) > 0 {
		ctx.WriteKeyWord(" order by ")
		node.OrderBy.Format(ctx)
	}
}

func (node *ProjectionSelect) String() string { return String(node) }

// ProjectionDecl is a named projection definition: name (SELECT ...).
type ProjectionDecl struct {
	Name  string
	Query *ProjectionSelect
}

func (node *ProjectionDecl) Format(ctx *FmtCtx) {
	ctx.WriteName(node.Name)
	ctx.WriteString(" (")
	node.Query.Format(ctx)
	ctx.WriteByte(')')
}

func (node *ProjectionDecl) String() string { return String(node) }
