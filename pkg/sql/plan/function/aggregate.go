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

	"github.com/matrixorigin/moprojection/pkg/container/types"
	"github.com/matrixorigin/moprojection/pkg/sql/colexec/agg"
)

func initAggregateFunction() {
	for _, name := range []string{agg.AggSum, agg.AggAvg, agg.AggMin, agg.AggMax, agg.AggCount, agg.AggAny} {
		aggName := name
		appendFunction(&Functions{
			Name: aggName,
			Kind: AGGREGATE,
			TypeCheckFn: func(ctx context.Context, inputs []types.Type) (types.Type, error) {
				return agg.ReturnType(ctx, aggName, inputs)
			},
		})
	}
}
