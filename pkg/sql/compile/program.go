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
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/matrixorigin/moprojection/pkg/catalog"
	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/batch"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
	"github.com/matrixorigin/moprojection/pkg/sql/plan/function"
)

// program evaluates a set of scalar expressions over one batch. Structurally
// equal subexpressions share one slot and are computed once per run.
type program struct {
	schema *catalog.ColumnsDescription
	slots  []slot
	// index maps the hash of a slot key to the slots carrying it.
	index map[uint64][]int
	// inputs are the columns read, in order of first reference.
	inputs []string
}

func newProgram(schema *catalog.ColumnsDescription) *program {
	return &program{
		schema: schema,
		index:  make(map[uint64][]int),
	}
}

func (p *program) lookup(key string) (int, uint64, bool) {
	h := xxhash.Sum64String(key)
	for _, pos := range p.index[h] {
		if p.slots[pos].key == key {
			return pos, h, true
		}
	}
	return -1, h, false
}

func (p *program) add(h uint64, s slot) int {
	pos := len(p.slots)
	p.slots = append(p.slots, s)
	p.index[h] = append(p.index[h], pos)
	if s.kind == inputSlot {
		p.inputs = append(p.inputs, s.col)
	}
	return pos
}

// compileExpr returns the slot computing expr.
func (p *program) compileExpr(ctx context.Context, expr tree.Expr) (int, error) {
	key := tree.CanonicalString(expr)
	pos, h, ok := p.lookup(key)
	if ok {
		return pos, nil
	}

	switch e := expr.(type) {
	case *tree.UnresolvedName:
		if e.Star {
			return -1, moerr.NewInvalidInput(ctx, "'*' is not allowed here")
		}
		col, ok := p.schema.Get(e.Name)
		if !ok {
			return -1, moerr.NewInvalidInput(ctx, "column '%s' does not exist", e.Name)
		}
		return p.add(h, slot{kind: inputSlot, key: key, typ: col.Typ, col: e.Name}), nil

	case *tree.NumVal:
		typ, val, err := literal(ctx, e)
		if err != nil {
			return -1, err
		}
		return p.add(h, slot{kind: constSlot, key: key, typ: typ, val: val}), nil

	case *tree.FuncExpr:
		return p.compileFunc(ctx, h, key, e.Func, e.Exprs)

	case *tree.BinaryExpr:
		return p.compileFunc(ctx, h, key, e.Op.FuncName(), tree.Exprs{e.Left, e.Right})

	case *tree.UnaryExpr:
		return p.compileFunc(ctx, h, key, e.Op.FuncName(), tree.Exprs{e.Expr})

	case *tree.Tuple:
		return -1, moerr.NewInvalidInput(ctx, "tuple %s is not allowed here", key)
	}
	return -1, moerr.NewInternalError(ctx, "unexpected expression %T", expr)
}

func (p *program) compileFunc(ctx context.Context, h uint64, key, name string, args tree.Exprs) (int, error) {
	fn, err := function.GetFunctionByName(ctx, name)
	if err != nil {
		return -1, err
	}
	if fn.IsAggregate() {
		return -1, moerr.NewInvalidInput(ctx, "aggregate function %s is not allowed here", name)
	}
	argPos, argTypes, err := p.compileArgs(ctx, args)
	if err != nil {
		return -1, err
	}
	typ, err := fn.ReturnType(ctx, argTypes)
	if err != nil {
		return -1, err
	}
	return p.add(h, slot{kind: funcSlot, key: key, typ: typ, fn: fn, args: argPos}), nil
}

func (p *program) compileArgs(ctx context.Context, args tree.Exprs) ([]int, []types.Type, error) {
	pos := make([]int, len(args))
	typs := make([]types.Type, len(args))
	for i, arg := range args {
		var err error
		if pos[i], err = p.compileExpr(ctx, arg); err != nil {
			return nil, nil, err
		}
		typs[i] = p.slots[pos[i]].typ
	}
	return pos, typs, nil
}

// literal types a constant: integers are BIGINT, or BIGINT UNSIGNED when they
// do not fit, other numbers DOUBLE and strings VARCHAR.
func literal(ctx context.Context, n *tree.NumVal) (types.Type, any, error) {
	s := n.OrigString()
	switch n.ValType {
	case tree.P_null:
		return types.T_int64.ToType(), nil, nil
	case tree.P_bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return types.Type{}, nil, moerr.NewInvalidInput(ctx, "invalid bool literal %s", s)
		}
		return types.T_bool.ToType(), b, nil
	case tree.P_int64, tree.P_uint64:
		if n.ValType == tree.P_int64 {
			if v, err := strconv.ParseInt(s, 10, 64); err == nil {
				return types.T_int64.ToType(), v, nil
			}
		}
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return types.Type{}, nil, moerr.NewInvalidInput(ctx, "integer literal %s out of range", s)
		}
		return types.T_uint64.ToType(), v, nil
	case tree.P_float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return types.Type{}, nil, moerr.NewInvalidInput(ctx, "invalid numeric literal %s", s)
		}
		return types.T_float64.ToType(), v, nil
	case tree.P_char:
		return types.T_varchar.ToType(), s, nil
	}
	return types.Type{}, nil, moerr.NewInvalidInput(ctx, "unsupported literal %s", s)
}

func constVector(typ types.Type, val any, length int) *vector.Vector {
	switch v := val.(type) {
	case bool:
		return vector.NewConstFixed(typ, v, length)
	case int64:
		return vector.NewConstFixed(typ, v, length)
	case uint64:
		return vector.NewConstFixed(typ, v, length)
	case float64:
		return vector.NewConstFixed(typ, v, length)
	case string:
		return vector.NewConstFixed(typ, v, length)
	}
	vec := vector.NewVec(typ)
	for i := 0; i < length; i++ {
		_ = vec.AppendAny(nil)
	}
	return vec
}

// eval computes every slot over bat.
func (p *program) eval(ctx context.Context, bat *batch.Batch) ([]*vector.Vector, error) {
	rows := bat.RowCount()
	vecs := make([]*vector.Vector, len(p.slots))
	for i := range p.slots {
		s := &p.slots[i]
		switch s.kind {
		case inputSlot:
			vec := bat.GetVectorByName(s.col)
			if vec == nil {
				return nil, moerr.NewInvalidInput(ctx, "input batch has no column '%s'", s.col)
			}
			if vec.GetType().Oid != s.typ.Oid {
				return nil, moerr.NewInvalidInput(ctx, "column '%s' is %s in the input batch, expected %s",
					s.col, vec.GetType(), s.typ)
			}
			vecs[i] = vec
		case constSlot:
			vecs[i] = constVector(s.typ, s.val, rows)
		case funcSlot:
			args := make([]*vector.Vector, len(s.args))
			for j, pos := range s.args {
				args[j] = vecs[pos]
			}
			vec, err := s.fn.Eval(ctx, args, s.typ, rows)
			if err != nil {
				return nil, err
			}
			vecs[i] = vec
		}
	}
	return vecs, nil
}

// funcSteps counts the function applications of the program.
func (p *program) funcSteps() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].kind == funcSlot {
			n++
		}
	}
	return n
}
