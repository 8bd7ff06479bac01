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

package agg

import "github.com/matrixorigin/moprojection/pkg/container/types"

// AnyValue keeps the first non NULL value a group sees. A group is still
// empty until then, which is all the state it needs.
type AnyValue[T any] struct{}

func AnyValueReturnType(typs []types.Type) types.Type {
	return typs[0]
}

func (AnyValue[T]) Fill(_ int64, value T, ov T, isEmpty bool, isNull bool) (T, bool, error) {
	if isNull || !isEmpty {
		return ov, isEmpty, nil
	}
	return value, false, nil
}
