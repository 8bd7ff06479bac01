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

package types

import (
	"fmt"
	"strings"
)

type T uint8

const (
	// any family
	T_any T = 0

	// bool family
	T_bool T = 10

	// numeric/integer family
	T_int8   T = 20
	T_int16  T = 21
	T_int32  T = 22
	T_int64  T = 23
	T_uint8  T = 25
	T_uint16 T = 26
	T_uint32 T = 27
	T_uint64 T = 28

	// numeric/float family
	T_float32 T = 30
	T_float64 T = 31

	// date family, days since 1970-01-01
	T_date T = 50

	// string family
	T_char    T = 60
	T_varchar T = 61
)

// Type is the column type of a vector.
type Type struct {
	Oid T

	// Size of a value, 0 for variable length types
	Size  int32
	Width int32
	Scale int32
}

type Bool = bool

// Ints and Floats are the physical representations of the numeric families.
type Ints interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type UInts interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type Floats interface {
	~float32 | ~float64
}

type Number interface {
	Ints | UInts | Floats
}

// FixedSizeT covers every fixed length physical type.
type FixedSizeT interface {
	Bool | Number
}

var Types = map[string]T{
	"bool":    T_bool,
	"boolean": T_bool,

	"tinyint":  T_int8,
	"smallint": T_int16,
	"int":      T_int32,
	"integer":  T_int32,
	"bigint":   T_int64,

	"tinyint unsigned":  T_uint8,
	"smallint unsigned": T_uint16,
	"int unsigned":      T_uint32,
	"integer unsigned":  T_uint32,
	"bigint unsigned":   T_uint64,

	"int8":   T_int8,
	"int16":  T_int16,
	"int32":  T_int32,
	"int64":  T_int64,
	"uint8":  T_uint8,
	"uint16": T_uint16,
	"uint32": T_uint32,
	"uint64": T_uint64,

	"float":   T_float32,
	"float32": T_float32,
	"double":  T_float64,
	"float64": T_float64,

	"date": T_date,

	"char":    T_char,
	"varchar": T_varchar,
	"string":  T_varchar,
	"text":    T_varchar,
}

// ParseType resolves a type name as written in table definitions.
func ParseType(name string) (Type, error) {
	oid, ok := Types[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Type{}, fmt.Errorf("unknown type '%s'", name)
	}
	return oid.ToType(), nil
}

func New(oid T, width, scale int32) Type {
	typ := oid.ToType()
	typ.Width = width
	typ.Scale = scale
	return typ
}

func (t Type) Eq(b Type) bool {
	return t.Oid == b.Oid && t.Size == b.Size && t.Width == b.Width && t.Scale == b.Scale
}

func (t Type) String() string {
	return t.Oid.String()
}

func (t Type) DescString() string {
	switch t.Oid {
	case T_char, T_varchar:
		if t.Width > 0 {
			return fmt.Sprintf("%s(%d)", t.Oid.String(), t.Width)
		}
	}
	return t.Oid.String()
}

func (t Type) IsFixedLen() bool {
	return t.Oid.FixedLength() >= 0
}

func (t T) ToType() Type {
	var typ Type

	typ.Oid = t
	switch t {
	case T_bool, T_int8, T_uint8:
		typ.Size = 1
	case T_int16, T_uint16:
		typ.Size = 2
	case T_int32, T_uint32, T_float32, T_date:
		typ.Size = 4
	case T_int64, T_uint64, T_float64:
		typ.Size = 8
	case T_char, T_varchar:
		typ.Size = 0
	}
	return typ
}

func (t T) String() string {
	switch t {
	case T_any:
		return "ANY"
	case T_bool:
		return "BOOL"
	case T_int8:
		return "TINYINT"
	case T_int16:
		return "SMALLINT"
	case T_int32:
		return "INT"
	case T_int64:
		return "BIGINT"
	case T_uint8:
		return "TINYINT UNSIGNED"
	case T_uint16:
		return "SMALLINT UNSIGNED"
	case T_uint32:
		return "INT UNSIGNED"
	case T_uint64:
		return "BIGINT UNSIGNED"
	case T_float32:
		return "FLOAT"
	case T_float64:
		return "DOUBLE"
	case T_date:
		return "DATE"
	case T_char:
		return "CHAR"
	case T_varchar:
		return "VARCHAR"
	}
	return fmt.Sprintf("unexpected type: %d", t)
}

// OidString returns T string
func (t T) OidString() string {
	switch t {
	case T_any:
		return "T_any"
	case T_bool:
		return "T_bool"
	case T_int8:
		return "T_int8"
	case T_int16:
		return "T_int16"
	case T_int32:
		return "T_int32"
	case T_int64:
		return "T_int64"
	case T_uint8:
		return "T_uint8"
	case T_uint16:
		return "T_uint16"
	case T_uint32:
		return "T_uint32"
	case T_uint64:
		return "T_uint64"
	case T_float32:
		return "T_float32"
	case T_float64:
		return "T_float64"
	case T_date:
		return "T_date"
	case T_char:
		return "T_char"
	case T_varchar:
		return "T_varchar"
	}
	return "unknown_type"
}

// FixedLength dangerous code, use TypeLen() if you don't want -8, -16, -24
func (t T) FixedLength() int {
	switch t {
	case T_bool, T_int8, T_uint8:
		return 1
	case T_int16, T_uint16:
		return 2
	case T_int32, T_uint32, T_float32, T_date:
		return 4
	case T_int64, T_uint64, T_float64:
		return 8
	case T_char, T_varchar:
		return -24
	}
	panic(fmt.Sprintf("unknown type %d", t))
}

func (t T) IsInteger() bool {
	return t.IsSignedInt() || t.IsUnsignedInt()
}

func (t T) IsSignedInt() bool {
	return t == T_int8 || t == T_int16 || t == T_int32 || t == T_int64
}

func (t T) IsUnsignedInt() bool {
	return t == T_uint8 || t == T_uint16 || t == T_uint32 || t == T_uint64
}

func (t T) IsFloat() bool {
	return t == T_float32 || t == T_float64
}

func (t T) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

func (t T) IsMySQLString() bool {
	return t == T_char || t == T_varchar
}
