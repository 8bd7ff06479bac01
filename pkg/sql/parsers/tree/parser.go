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

import "context"

// ProjectionParser turns projection definition text into trees. Failures are
// reported as moerr.ErrProjectionParse.
type ProjectionParser interface {
	// ParseProjectionDecl parses `name (SELECT ...)`.
	ParseProjectionDecl(ctx context.Context, sql string) (*ProjectionDecl, error)
	// ParseProjectionDeclList parses comma separated declarations, the
	// empty string gives an empty list.
	ParseProjectionDeclList(ctx context.Context, sql string) ([]*ProjectionDecl, error)
	// ParseProjectionSelect parses a bare `SELECT ...`.
	ParseProjectionSelect(ctx context.Context, sql string) (*ProjectionSelect, error)
	// ParseExpr parses a single expression.
	ParseExpr(ctx context.Context, sql string) (Expr, error)
}
