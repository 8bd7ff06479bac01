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

import "fmt"

// CloneExpr rebuilds expr node by node, the result shares nothing with expr.
func CloneExpr(expr Expr) Expr {
	if expr == nil {
		return nil
	}
	switch e := expr.(type) {
	case *UnresolvedName:
		return &UnresolvedName{
			Name: e.Name,
			Star: e.Star,
		}
	case *NumVal:
		return &NumVal{
			ValType:    e.ValType,
			origString: e.origString,
		}
	case *FuncExpr:
		return &FuncExpr{
			Func:  e.Func,
			Exprs: CloneExprs(e.Exprs),
		}
	case *BinaryExpr:
		return &BinaryExpr{
			Op:    e.Op,
			Left:  CloneExpr(e.Left),
			Right: CloneExpr(e.Right),
		}
	case *UnaryExpr:
		return &UnaryExpr{
			Op:   e.Op,
			Expr: CloneExpr(e.Expr),
		}
	case *Tuple:
		return &Tuple{
			Exprs: CloneExprs(e.Exprs),
		}
	}
	panic(fmt.Sprintf("unexpected expression node %T", expr))
}

func CloneExprs(exprs Exprs) Exprs {
	if exprs == nil {
		return nil
	}
	r := make(Exprs, len(exprs))
	for i, e := range exprs {
		r[i] = CloneExpr(e)
	}
	return r
}

func (node SelectExpr) Clone() SelectExpr {
	return SelectExpr{
		Expr: CloneExpr(node.Expr),
		As:   node.As,
	}
}

func (node *ProjectionSelect) Clone() *ProjectionSelect {
	if node == nil {
		return nil
	}
	r := &ProjectionSelect{
		Exprs:   make(SelectExprs, len(node.Exprs)),
		GroupBy: CloneExprs(node.GroupBy),
		OrderBy: CloneExprs(node.OrderBy),
	}
	for i, e := range node.Exprs {
		r.Exprs[i] = e.Clone()
	}
	return r
}

func (node *ProjectionDecl) Clone() *ProjectionDecl {
	if node == nil {
		return nil
	}
	return &ProjectionDecl{
		Name:  node.Name,
		Query: node.Query.Clone(),
	}
}
