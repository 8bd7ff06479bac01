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
	"context"
	"strconv"
	"strings"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
)

// Parser is the tree.ProjectionParser of the projection definition grammar:
//
//	decl   := name '(' select ')'
//	select := SELECT item [, item]* [GROUP BY expr [, expr]*] [ORDER BY expr [, expr]*]
//	item   := '*' | expr [[AS] name]
type Parser struct{}

var _ tree.ProjectionParser = Parser{}

func (Parser) ParseProjectionDecl(ctx context.Context, sql string) (*tree.ProjectionDecl, error) {
	return ParseProjectionDecl(ctx, sql)
}

func (Parser) ParseProjectionDeclList(ctx context.Context, sql string) ([]*tree.ProjectionDecl, error) {
	return ParseProjectionDeclList(ctx, sql)
}

func (Parser) ParseProjectionSelect(ctx context.Context, sql string) (*tree.ProjectionSelect, error) {
	return ParseProjectionSelect(ctx, sql)
}

func (Parser) ParseExpr(ctx context.Context, sql string) (tree.Expr, error) {
	return ParseExpr(ctx, sql)
}

func ParseProjectionDecl(ctx context.Context, sql string) (*tree.ProjectionDecl, error) {
	p := newParser(ctx, sql)
	decl, err := p.parseDecl()
	if err != nil {
		return nil, err
	}
	if err = p.expectEnd(); err != nil {
		return nil, err
	}
	return decl, nil
}

func ParseProjectionDeclList(ctx context.Context, sql string) ([]*tree.ProjectionDecl, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, nil
	}
	p := newParser(ctx, sql)
	var decls []*tree.ProjectionDecl
	for {
		decl, err := p.parseDecl()
		if err != nil {
			return nil, err
		}
		decls = append(decls, decl)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	if err := p.expectEnd(); err != nil {
		return nil, err
	}
	return decls, nil
}

func ParseProjectionSelect(ctx context.Context, sql string) (*tree.ProjectionSelect, error) {
	p := newParser(ctx, sql)
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if err = p.expectEnd(); err != nil {
		return nil, err
	}
	return sel, nil
}

func ParseExpr(ctx context.Context, sql string) (tree.Expr, error) {
	p := newParser(ctx, sql)
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err = p.expectEnd(); err != nil {
		return nil, err
	}
	return expr, nil
}

// ParseExprList parses comma separated expressions, the empty string gives
// an empty list.
func ParseExprList(ctx context.Context, sql string) (tree.Exprs, error) {
	if strings.TrimSpace(sql) == "" {
		return nil, nil
	}
	p := newParser(ctx, sql)
	exprs, err := p.parseExprList()
	if err != nil {
		return nil, err
	}
	if err = p.expectEnd(); err != nil {
		return nil, err
	}
	return exprs, nil
}

type parser struct {
	ctx     context.Context
	scanner *Scanner
	tok     int
	str     string
	pos     int
}

func newParser(ctx context.Context, sql string) *parser {
	p := &parser{
		ctx:     ctx,
		scanner: NewScanner(sql),
	}
	p.next()
	return p
}

func (p *parser) next() {
	p.pos = p.scanner.Pos
	p.tok, p.str = p.scanner.Scan()
	p.scanner.LastToken = p.str
}

func (p *parser) errorf(msg string) error {
	err := PositionedErr{Err: msg, Pos: p.pos + 1, Near: p.str}
	if p.tok == LEX_ERROR {
		err.Err = "invalid token"
	}
	p.scanner.LastError = err
	return moerr.NewProjectionParse(p.ctx, "%s", err.Error())
}

func (p *parser) expect(tok int, what string) error {
	if p.tok != tok {
		return p.errorf("syntax error, expected " + what)
	}
	p.next()
	return nil
}

func (p *parser) expectEnd() error {
	if p.tok != 0 {
		return p.errorf("syntax error, unexpected trailing input")
	}
	return nil
}

func (p *parser) parseName() (string, error) {
	switch p.tok {
	case ID, QUOTE_ID:
		name := p.str
		p.next()
		return name, nil
	}
	return "", p.errorf("syntax error, expected identifier")
}

func (p *parser) parseDecl() (*tree.ProjectionDecl, error) {
	name, err := p.parseName()
	if err != nil {
		return nil, err
	}
	if err = p.expect('(', "'('"); err != nil {
		return nil, err
	}
	sel, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	if err = p.expect(')', "')'"); err != nil {
		return nil, err
	}
	return &tree.ProjectionDecl{Name: name, Query: sel}, nil
}

func (p *parser) parseSelect() (*tree.ProjectionSelect, error) {
	if err := p.expect(SELECT, "SELECT"); err != nil {
		return nil, err
	}
	sel := &tree.ProjectionSelect{}
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		sel.Exprs = append(sel.Exprs, item)
		if p.tok != ',' {
			break
		}
		p.next()
	}
	var err error
	if p.tok == GROUP {
		p.next()
		if err = p.expect(BY, "BY"); err != nil {
			return nil, err
		}
		if sel.GroupBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}
	if p.tok == ORDER {
		p.next()
		if err = p.expect(BY, "BY"); err != nil {
			return nil, err
		}
		if sel.OrderBy, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func (p *parser) parseSelectItem() (tree.SelectExpr, error) {
	if p.tok == '*' {
		p.next()
		return tree.SelectExpr{Expr: tree.NewStar()}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return tree.SelectExpr{}, err
	}
	item := tree.SelectExpr{Expr: expr}
	if p.tok == AS {
		p.next()
		if item.As, err = p.parseName(); err != nil {
			return tree.SelectExpr{}, err
		}
	} else if p.tok == ID || p.tok == QUOTE_ID {
		item.As, _ = p.parseName()
	}
	return item, nil
}

func (p *parser) parseExprList() (tree.Exprs, error) {
	var exprs tree.Exprs
	for {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if p.tok != ',' {
			return exprs, nil
		}
		p.next()
	}
}

func (p *parser) parseExpr() (tree.Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok == '+' || p.tok == '-' {
		op := tree.PLUS
		if p.tok == '-' {
			op = tree.MINUS
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = tree.NewBinaryExpr(op, left, right)
	}
	return left, nil
}

func (p *parser) parseTerm() (tree.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok == '*' || p.tok == '/' || p.tok == '%' {
		var op tree.BinaryOp
		switch p.tok {
		case '*':
			op = tree.MULTI
		case '/':
			op = tree.DIV
		default:
			op = tree.MOD
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = tree.NewBinaryExpr(op, left, right)
	}
	return left, nil
}

func (p *parser) parseUnary() (tree.Expr, error) {
	if p.tok == '-' {
		p.next()
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return tree.NewUnaryExpr(tree.UNARY_MINUS, expr), nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (tree.Expr, error) {
	switch p.tok {
	case INTEGRAL:
		return p.parseInteger()
	case FLOAT:
		if _, err := strconv.ParseFloat(p.str, 64); err != nil {
			return nil, p.errorf("invalid float literal")
		}
		val := tree.NewNumVal(tree.P_float64, p.str)
		p.next()
		return val, nil
	case STRING:
		val := tree.NewNumVal(tree.P_char, p.str)
		p.next()
		return val, nil
	case NULL:
		p.next()
		return tree.NewNumVal(tree.P_null, "null"), nil
	case TRUE, FALSE:
		val := tree.NewNumVal(tree.P_bool, strings.ToLower(p.str))
		p.next()
		return val, nil
	case ID, QUOTE_ID:
		isQuoted := p.tok == QUOTE_ID
		name := p.str
		p.next()
		if p.tok != '(' || isQuoted {
			return tree.NewUnresolvedColName(name), nil
		}
		return p.parseCall(name)
	case '(':
		p.next()
		if p.tok == ')' {
			p.next()
			return tree.NewTuple(), nil
		}
		exprs, err := p.parseExprList()
		if err != nil {
			return nil, err
		}
		if err = p.expect(')', "')'"); err != nil {
			return nil, err
		}
		if len(exprs) == 1 {
			return exprs[0], nil
		}
		return tree.NewTuple(exprs...), nil
	}
	return nil, p.errorf("syntax error, expected expression")
}

func (p *parser) parseInteger() (tree.Expr, error) {
	s := p.str
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		p.next()
		return tree.NewNumVal(tree.P_int64, s), nil
	}
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		p.next()
		return tree.NewNumVal(tree.P_uint64, s), nil
	}
	return nil, p.errorf("integer literal out of range")
}

// parseCall parses the argument list of name(...), tuple(...) builds a Tuple.
func (p *parser) parseCall(name string) (tree.Expr, error) {
	if err := p.expect('(', "'('"); err != nil {
		return nil, err
	}
	var args tree.Exprs
	switch p.tok {
	case ')':
	case '*':
		p.next()
		args = tree.Exprs{tree.NewStar()}
	default:
		var err error
		if args, err = p.parseExprList(); err != nil {
			return nil, err
		}
	}
	if err := p.expect(')', "')'"); err != nil {
		return nil, err
	}
	if strings.EqualFold(name, "tuple") {
		return tree.NewTuple(args...), nil
	}
	return tree.NewFuncExpr(name, args...), nil
}
