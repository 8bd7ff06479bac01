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

package function

import (
	"context"
	"sort"
	"strings"

	"github.com/matrixorigin/moprojection/pkg/common/moerr"
	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/container/vector"
	"github.com/matrixorigin/moprojection/pkg/sql/colexec/agg"
)

type Kind uint8

const (
	SCALAR Kind = iota
	AGGREGATE
)

type FuncFlag uint8

const (
	// MONOTONIC functions preserve or invert the order of their only argument.
	MONOTONIC FuncFlag = 1 << iota
)

// Functions records the information about one function name.
type Functions struct {
	Name string

	Kind Kind

	Flag FuncFlag

	// TypeCheckFn checks if the input parameters are accepted and returns the result type.
	TypeCheckFn func(ctx context.Context, inputs []types.Type) (types.Type, error)

	// Fn is implementation of built-in function and operator
	// it received vector list, and return result vector of length rows.
	Fn func(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error)
}

func (f *Functions) IsAggregate() bool {
	return f.Kind == AGGREGATE
}

func (f *Functions) IsMonotonic() bool {
	return f.Flag&MONOTONIC != 0
}

// ReturnType resolves the result type of the function over args.
func (f *Functions) ReturnType(ctx context.Context, args []types.Type) (types.Type, error) {
	return f.TypeCheckFn(ctx, args)
}

// Eval runs a scalar function.
func (f *Functions) Eval(ctx context.Context, vs []*vector.Vector, result types.Type, length int) (*vector.Vector, error) {
	if f.IsAggregate() {
		return nil, moerr.NewInternalError(ctx, "aggregate function %s evaluated as scalar", f.Name)
	}
	return f.Fn(ctx, vs, result, length)
}

// NewAgg builds the aggregate state of an aggregate function.
func (f *Functions) NewAgg(ctx context.Context, args []types.Type) (agg.Agg, error) {
	if !f.IsAggregate() {
		return nil, moerr.NewInternalError(ctx, "function %s is not an aggregate", f.Name)
	}
	return agg.New(ctx, f.Name, args)
}

// functionRegister records all the operators, built-in functions and
// aggregate functions by lower case name.
//
// For use in other packages, see GetFunctionByName.
var functionRegister = map[string]*Functions{}

func appendFunction(fs *Functions) {
	key := strings.ToLower(fs.Name)
	if _, ok := functionRegister[key]; ok {
		panic("function " + fs.Name + " registered twice")
	}
	functionRegister[key] = fs
}

func init() {
	initOperators()
	initBuiltIns()
	initAggregateFunction()
}

// GetFunctionByName looks a function up, names are case insensitive.
func GetFunctionByName(ctx context.Context, name string) (*Functions, error) {
	fs, ok := functionRegister[strings.ToLower(name)]
	if !ok {
		return nil, moerr.NewInvalidInput(ctx, "function %s doesn't exist", name)
	}
	return fs, nil
}

func IsAggregateFunction(name string) bool {
	fs, ok := functionRegister[strings.ToLower(name)]
	return ok && fs.IsAggregate()
}

func IsMonotonicFunction(name string) bool {
	fs, ok := functionRegister[strings.ToLower(name)]
	return ok && fs.IsMonotonic()
}

// Names lists the registered functions, sorted.
func Names() []string {
	names := make([]string, 0, len(functionRegister))
	for _, fs := range functionRegister {
		names = append(names, fs.Name)
	}
	sort.Strings(names)
	return names
}
