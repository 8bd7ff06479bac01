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

package process

import (
	"context"

	"go.uber.org/zap"

	"github.com/matrixorigin/moprojection/pkg/sql/parsers/tree"
)

type Limitation struct {
	BatchRows int64 // max rows for a calculate input batch
	Workers   int   // size of the calculate worker pool
}

// Process carries what one projection operation needs besides its inputs:
// the caller's context, the expression parser and the evaluation limits.
// A Process is read only once built and may be shared by workers.
type Process struct {
	Ctx context.Context

	// query id, every log line of the process carries it
	Id string

	Lim Limitation

	// EnableMinMaxCount gates the synthesized minmax count projection.
	EnableMinMaxCount bool

	Parser tree.ProjectionParser

	logger *zap.Logger
}
