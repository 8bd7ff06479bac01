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

// Walk visits expr in pre-order. Children of a node are skipped when fn
// returns false for it.
func Walk(expr Expr, fn func(Expr) bool) {
	if expr == nil || !fn(expr) {
		return
	}
	for _, child := range children(expr) {
		Walk(child, fn)
	}
}

func children(expr Expr) Exprs {
	switch e := expr.(type) {
	case *FuncExpr:
		return e.Exprs
	case *BinaryExpr:
		return Exprs{e.Left, e.Right}
	case *UnaryExpr:
		return Exprs{e.Expr}
	case *Tuple:
		return e.Exprs
	}
	return nil
}

// Rewrite replaces nodes of expr top down. When fn returns a replacement and
// true the replacement is used as is, otherwise the children of the node are
// rewritten in place. Callers rewrite a clone when the source must survive.
func Rewrite(expr Expr, fn func(Expr) (Expr, bool)) Expr {
	if expr == nil {
		return nil
	}
	if r, ok := fn(expr); ok {
		return r
	}
	switch e := expr.(type) {
	case *FuncExpr:
		for i := range e.Exprs {
			e.Exprs[i] = Rewrite(e.Exprs[i], fn)
		}
	case *BinaryExpr:
		e.Left = Rewrite(e.Left, fn)
		e.Right = Rewrite(e.Right, fn)
	case *UnaryExpr:
		e.Expr = Rewrite(e.Expr, fn)
	case *Tuple:
		for i := range e.Exprs {
			e.Exprs[i] = Rewrite(e.Exprs[i], fn)
		}
	}
	return expr
}

// Depth is the height of the tree rooted at expr.
func Depth(expr Expr) int {
	if expr == nil {
		return 0
	}
	depth := 0
	for _, child := range children(expr) {
		if d := Depth(child); d > depth {
			depth = d
		}
	}
	return depth + 1
}
