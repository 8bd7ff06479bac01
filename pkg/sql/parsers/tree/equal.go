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

import "strings"

// ExprEqual compares two trees structurally. Function names are case
// insensitive, as function lookup is.
func ExprEqual(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case *UnresolvedName:
		y, ok := b.(*UnresolvedName)
		return ok && x.Name == y.Name && x.Star == y.Star
	case *NumVal:
		y, ok := b.(*NumVal)
		return ok && x.ValType == y.ValType && x.origString == y.origString
	case *FuncExpr:
		y, ok := b.(*FuncExpr)
		return ok && strings.EqualFold(x.Func, y.Func) && ExprsEqual(x.Exprs, y.Exprs)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && ExprEqual(x.Left, y.Left) && ExprEqual(x.Right, y.Right)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && ExprEqual(x.Expr, y.Expr)
	case *Tuple:
		y, ok := b.(*Tuple)
		return ok && ExprsEqual(x.Exprs, y.Exprs)
	}
	return false
}

func ExprsEqual(a, b Exprs) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !ExprEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func (node SelectExpr) Equal(other SelectExpr) bool {
	return node.As == other.As && ExprEqual(node.Expr, other.Expr)
}

func (node *ProjectionSelect) Equal(other *ProjectionSelect) bool {
	if node == nil || other == nil {
		return node == nil && other == nil
	}
	if len(node.Exprs) != len(other.Exprs) {
		return false
	}
	for i := range node.Exprs {
		if !node.Exprs[i].Equal(other.Exprs[i]) {
			return false
		}
	}
	return ExprsEqual(node.GroupBy, other.GroupBy) && ExprsEqual(node.OrderBy, other.OrderBy)
}

func (node *ProjectionDecl) Equal(other *ProjectionDecl) bool {
	if node == nil || other == nil {
		return node == nil && other == nil
	}
	return node.Name == other.Name && node.Query.Equal(other.Query)
}
