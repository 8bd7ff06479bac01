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

import (
	"fmt"
	"strings"
)

// Expr is a node of a projection expression tree. The set of node types is
// closed, see CloneExpr and ExprEqual.
type Expr interface {
	fmt.Stringer
	NodeFormatter
	exprTag()
}

type exprImpl struct{}

func (exprImpl) exprTag() {}

// Exprs is a comma separated expression list.
type Exprs []Expr

func (node Exprs) Format(ctx *FmtCtx) {
	for i, n := range node {
		if i > 0 {
			ctx.WriteString(", ")
		}
		n.Format(ctx)
	}
}

// UnresolvedName is a column reference, or the `*` wildcard when Star is set.
type UnresolvedName struct {
	exprImpl
	Name string
	Star bool
}

func NewUnresolvedColName(name string) *UnresolvedName {
	return &UnresolvedName{Name: name}
}

func NewStar() *UnresolvedName {
	return &UnresolvedName{Star: true}
}

func (node *UnresolvedName) Format(ctx *FmtCtx) {
	if node.Star {
		ctx.WriteByte('*')
		return
	}
	ctx.WriteName(node.Name)
}

func (node *UnresolvedName) String() string { return String(node) }

// P_TYPE is the kind of a literal.
type P_TYPE uint8

const (
	P_any P_TYPE = iota
	P_null
	P_bool
	P_int64
	P_uint64
	P_float64
	P_char
)

// NumVal is a literal, kept in the text it was written with.
type NumVal struct {
	exprImpl
	ValType    P_TYPE
	origString string
}

func NewNumVal(typ P_TYPE, s string) *NumVal {
	return &NumVal{ValType: typ, origString: s}
}

func (node *NumVal) OrigString() string {
	return node.origString
}

func (node *NumVal) Format(ctx *FmtCtx) {
	switch node.ValType {
	case P_char:
		ctx.WriteStringValue(node.origString)
	case P_null:
		ctx.WriteKeyWord("null")
	case P_bool:
		ctx.WriteKeyWord(strings.ToLower(node.origString))
	default:
		ctx.WriteString(node.origString)
	}
}

func (node *NumVal) String() string { return String(node) }

// FuncExpr is a function application, aggregates included.
type FuncExpr struct {
	exprImpl
	Func  string
	Exprs Exprs
}

func NewFuncExpr(name string, args ...Expr) *FuncExpr {
	return &FuncExpr{Func: name, Exprs: args}
}

func (node *FuncExpr) Format(ctx *FmtCtx) {
	if ctx.Flags.HasFuncNameLowercaseFlag() {
		ctx.WriteString(strings.ToLower(node.Func))
	} else {
		ctx.WriteString(node.Func)
	}
	ctx.WriteByte('(')
	node.Exprs.Format(ctx)
	ctx.WriteByte(')')
}

func (node *FuncExpr) String() string { return String(node) }

type BinaryOp int

const (
	PLUS BinaryOp = iota
	MINUS
	MULTI
	DIV
	MOD
)

var binaryOpName = []string{
	"+",
	"-",
	"*",
	"/",
	"%",
}

// binaryOpFunc names the function each operator is evaluated with.
var binaryOpFunc = []string{
	"plus",
	"minus",
	"multiply",
	"divide",
	"modulo",
}

func (op BinaryOp) String() string {
	return binaryOpName[op]
}

func (op BinaryOp) FuncName() string {
	return binaryOpFunc[op]
}

func (op BinaryOp) precedence() int {
	switch op {
	case PLUS, MINUS:
		return 1
	}
	return 2
}

type BinaryExpr struct {
	exprImpl
	Op          BinaryOp
	Left, Right Expr
}

func NewBinaryExpr(op BinaryOp, left, right Expr) *BinaryExpr {
	return &BinaryExpr{Op: op, Left: left, Right: right}
}

// Format writes the minimal parentheses for the tree to read back the same,
// operators are left associative.
func (node *BinaryExpr) Format(ctx *FmtCtx) {
	formatOperand(ctx, node.Left, func(child *BinaryExpr) bool {
		return child.Op.precedence() < node.Op.precedence()
	})
	ctx.WriteByte(' ')
	ctx.WriteString(node.Op.String())
	ctx.WriteByte(' ')
	formatOperand(ctx, node.Right, func(child *BinaryExpr) bool {
		return child.Op.precedence() <= node.Op.precedence()
	})
}

func formatOperand(ctx *FmtCtx, operand Expr, needParen func(*BinaryExpr) bool) {
	if child, ok := operand.(*BinaryExpr); ok && needParen(child) {
		ctx.WriteByte('(')
		child.Format(ctx)
		ctx.WriteByte(')')
		return
	}
	operand.Format(ctx)
}

func (node *BinaryExpr) String() string { return String(node) }

type UnaryOp int

const (
	UNARY_MINUS UnaryOp = iota
)

type UnaryExpr struct {
	exprImpl
	Op   UnaryOp
	Expr Expr
}

func NewUnaryExpr(op UnaryOp, expr Expr) *UnaryExpr {
	return &UnaryExpr{Op: op, Expr: expr}
}

// FuncName names the function the operator is evaluated with.
func (op UnaryOp) FuncName() string {
	return "negate"
}

func (node *UnaryExpr) Format(ctx *FmtCtx) {
	ctx.WriteByte('-')
	formatOperand(ctx, node.Expr, func(*BinaryExpr) bool { return true })
}

func (node *UnaryExpr) String() string { return String(node) }

// Tuple is a parenthesized expression list, used for composite keys.
type Tuple struct {
	exprImpl
	Exprs Exprs
}

func NewTuple(exprs ...Expr) *Tuple {
	return &Tuple{Exprs: exprs}
}

func (node *Tuple) Format(ctx *FmtCtx) {
	ctx.WriteByte('(')
	node.Exprs.Format(ctx)
	ctx.WriteByte(')')
}

func (node *Tuple) String() string { return String(node) }

// FlattenTuples expands tuples into their elements.
func FlattenTuples(exprs Exprs) Exprs {
	var r Exprs
	for _, expr := range exprs {
		if t, ok := expr.(*Tuple); ok {
			r = append(r, FlattenTuples(t.Exprs)...)
			continue
		}
		r = append(r, expr)
	}
	return r
}
