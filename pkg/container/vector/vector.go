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

package vector

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/nulls"
	"github.com/matrixorigin/moprojection/pkg/container/types"
)

// Vector is a typed column. col always holds a slice of the physical type
// of typ.Oid, nsp marks the rows that are NULL.
type Vector struct {
	typ    types.Type
	col    any
	nsp    *nulls.Nulls
	length int
}

func NewVec(typ types.Type) *Vector {
	return &Vector{
		typ: typ,
		col: makeCol(typ.Oid, 0),
		nsp: &nulls.Nulls{},
	}
}

// NewVecWithData wraps vals as a vector of typ, rows listed in nullRows are NULL.
func NewVecWithData[T any](typ types.Type, vals []T, nullRows ...uint64) *Vector {
	v := NewVec(typ)
	col, ok := v.col.([]T)
	if !ok {
		panic(moerr.NewInternalErrorNoCtx("vector of type %s cannot hold %T", typ, vals))
	}
	v.col = append(col, vals...)
	v.length = len(vals)
	nulls.Add(v.nsp, nullRows...)
	return v
}

// NewConstFixed builds a vector repeating val length times.
func NewConstFixed[T any](typ types.Type, val T, length int) *Vector {
	vals := make([]T, length)
	for i := range vals {
		vals[i] = val
	}
	return NewVecWithData(typ, vals)
}

func makeCol(oid types.T, n int) any {
	switch oid {
	case types.T_bool:
		return make([]bool, n)
	case types.T_int8:
		return make([]int8, n)
	case types.T_int16:
		return make([]int16, n)
	case types.T_int32, types.T_date:
		return make([]int32, n)
	case types.T_int64:
		return make([]int64, n)
	case types.T_uint8:
		return make([]uint8, n)
	case types.T_uint16:
		return make([]uint16, n)
	case types.T_uint32:
		return make([]uint32, n)
	case types.T_uint64:
		return make([]uint64, n)
	case types.T_float32:
		return make([]float32, n)
	case types.T_float64:
		return make([]float64, n)
	case types.T_char, types.T_varchar:
		return make([]string, n)
	}
	panic(moerr.NewInternalErrorNoCtx("unsupported vector type %s", oid))
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	if nsp == nil {
		nsp = &nulls.Nulls{}
	}
	v.nsp = nsp
}

func (v *Vector) IsNull(i uint64) bool {
	return nulls.Contains(v.nsp, i)
}

// MustFixedCol returns the typed column, it panics if T is not the physical type.
func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	return v.col.([]T)
}

// MustCol is MustFixedCol for any physical type, strings included.
func MustCol[T any](v *Vector) []T {
	return v.col.([]T)
}

func MustStrCol(v *Vector) []string {
	return v.col.([]string)
}

func (v *Vector) GetStringAt(i int) string {
	return v.col.([]string)[i]
}

// GetAny returns the value at row i boxed, nil for NULL.
func (v *Vector) GetAny(i int) any {
	if v.IsNull(uint64(i)) {
		return nil
	}
	switch col := v.col.(type) {
	case []bool:
		return col[i]
	case []int8:
		return col[i]
	case []int16:
		return col[i]
	case []int32:
		return col[i]
	case []int64:
		return col[i]
	case []uint8:
		return col[i]
	case []uint16:
		return col[i]
	case []uint32:
		return col[i]
	case []uint64:
		return col[i]
	case []float32:
		return col[i]
	case []float64:
		return col[i]
	case []string:
		return col[i]
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected column %T", v.col))
}

// Append appends val to v, T must be the physical type of v.
func Append[T any](v *Vector, val T, isNull bool) error {
	col, ok := v.col.([]T)
	if !ok {
		return moerr.NewInternalErrorNoCtx("append %T to vector of type %s", val, v.typ)
	}
	if isNull {
		nulls.Add(v.nsp, uint64(v.length))
	}
	v.col = append(col, val)
	v.length++
	return nil
}

func AppendList[T any](v *Vector, ws []T, isNulls []bool) error {
	for i, w := range ws {
		isNull := len(isNulls) > 0 && isNulls[i]
		if err := Append(v, w, isNull); err != nil {
			return err
		}
	}
	return nil
}

// AppendAny appends a boxed value, nil appends NULL.
func (v *Vector) AppendAny(val any) error {
	if val == nil {
		return v.appendNull()
	}
	switch col := v.col.(type) {
	case []bool:
		x, ok := val.(bool)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []int8:
		x, ok := val.(int8)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []int16:
		x, ok := val.(int16)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []int32:
		x, ok := val.(int32)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []int64:
		x, ok := val.(int64)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []uint8:
		x, ok := val.(uint8)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []uint16:
		x, ok := val.(uint16)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []uint32:
		x, ok := val.(uint32)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []uint64:
		x, ok := val.(uint64)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []float32:
		x, ok := val.(float32)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []float64:
		x, ok := val.(float64)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	case []string:
		x, ok := val.(string)
		if !ok {
			return v.badAppend(val)
		}
		v.col = append(col, x)
	default:
		return v.badAppend(val)
	}
	v.length++
	return nil
}

func (v *Vector) badAppend(val any) error {
	return moerr.NewInternalErrorNoCtx("append %T to vector of type %s", val, v.typ)
}

func (v *Vector) appendNull() error {
	nulls.Add(v.nsp, uint64(v.length))
	v.col = appendZero(v.col)
	v.length++
	return nil
}

func appendZero(col any) any {
	switch c := col.(type) {
	case []bool:
		return append(c, false)
	case []int8:
		return append(c, 0)
	case []int16:
		return append(c, 0)
	case []int32:
		return append(c, 0)
	case []int64:
		return append(c, 0)
	case []uint8:
		return append(c, 0)
	case []uint16:
		return append(c, 0)
	case []uint32:
		return append(c, 0)
	case []uint64:
		return append(c, 0)
	case []float32:
		return append(c, 0)
	case []float64:
		return append(c, 0)
	case []string:
		return append(c, "")
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected column %T", col))
}

// UnionOne appends row sel of w to v.
func (v *Vector) UnionOne(w *Vector, sel int64) error {
	if v.typ.Oid != w.typ.Oid {
		return moerr.NewInternalErrorNoCtx("union %s into %s", w.typ, v.typ)
	}
	return v.AppendAny(w.GetAny(int(sel)))
}

// Select returns a new vector holding the rows of v picked by sels, v is
// left untouched.
func (v *Vector) Select(sels []int64) *Vector {
	r := &Vector{
		typ:    v.typ,
		col:    selectCol(v.col, sels),
		nsp:    nulls.Filter(v.nsp, sels),
		length: len(sels),
	}
	return r
}

func selectCol(col any, sels []int64) any {
	switch c := col.(type) {
	case []bool:
		return pick(c, sels)
	case []int8:
		return pick(c, sels)
	case []int16:
		return pick(c, sels)
	case []int32:
		return pick(c, sels)
	case []int64:
		return pick(c, sels)
	case []uint8:
		return pick(c, sels)
	case []uint16:
		return pick(c, sels)
	case []uint32:
		return pick(c, sels)
	case []uint64:
		return pick(c, sels)
	case []float32:
		return pick(c, sels)
	case []float64:
		return pick(c, sels)
	case []string:
		return pick(c, sels)
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected column %T", col))
}

func pick[T any](col []T, sels []int64) []T {
	r := make([]T, len(sels))
	for i, sel := range sels {
		r[i] = col[sel]
	}
	return r
}

// Dup deep copies v.
func (v *Vector) Dup() *Vector {
	sels := make([]int64, v.length)
	for i := range sels {
		sels[i] = int64(i)
	}
	return v.Select(sels)
}

// Compare compares row i of v with row j of w, NULL sorts first.
func Compare(v *Vector, i int, w *Vector, j int) int {
	vn, wn := v.IsNull(uint64(i)), w.IsNull(uint64(j))
	switch {
	case vn && wn:
		return 0
	case vn:
		return -1
	case wn:
		return 1
	}
	switch c := v.col.(type) {
	case []bool:
		a, b := c[i], w.col.([]bool)[j]
		if a == b {
			return 0
		}
		if !a {
			return -1
		}
		return 1
	case []int8:
		return cmp(c[i], w.col.([]int8)[j])
	case []int16:
		return cmp(c[i], w.col.([]int16)[j])
	case []int32:
		return cmp(c[i], w.col.([]int32)[j])
	case []int64:
		return cmp(c[i], w.col.([]int64)[j])
	case []uint8:
		return cmp(c[i], w.col.([]uint8)[j])
	case []uint16:
		return cmp(c[i], w.col.([]uint16)[j])
	case []uint32:
		return cmp(c[i], w.col.([]uint32)[j])
	case []uint64:
		return cmp(c[i], w.col.([]uint64)[j])
	case []float32:
		return cmp(c[i], w.col.([]float32)[j])
	case []float64:
		return cmp(c[i], w.col.([]float64)[j])
	case []string:
		return strings.Compare(c[i], w.col.([]string)[j])
	}
	panic(moerr.NewInternalErrorNoCtx("unexpected column %T", v.col))
}

func cmp[T types.Number](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

func (v *Vector) String() string {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < v.length; i++ {
		if i > 0 {
			buf.WriteByte(' ')
		}
		if val := v.GetAny(i); val == nil {
			buf.WriteString("null")
		} else {
			buf.WriteString(fmt.Sprintf("%v", val))
		}
	}
	buf.WriteByte(']')
	return buf.String()
}
