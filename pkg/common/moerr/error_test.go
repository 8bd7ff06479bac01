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

package moerr

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProjectionErrors(t *testing.T) {
	ctx := context.TODO()

	err := NewDuplicateProjection(ctx, "p1")
	require.True(t, IsMoErrCode(err, ErrDuplicateProjection))
	require.Equal(t, "projection with name 'p1' already exists", err.Error())
	require.Equal(t, ER_DUP_KEYNAME, err.MySQLCode())

	err = NewProjectionNotFound(ctx, "p2", "p1")
	require.True(t, IsMoErrCode(err, ErrProjectionNotFound))
	require.Equal(t, "there is no projection p2. Maybe you meant: [p1]", err.Error())

	err = NewProjectionNotFound(ctx, "p3")
	require.Equal(t, "there is no projection p3", err.Error())

	err = NewStaleProjection(ctx, "p1", "missing column %s", "b")
	require.Equal(t, "projection 'p1' is incompatible with the new columns: missing column b", err.Error())
	require.Equal(t, "42S22", err.SqlState())

	require.False(t, IsMoErrCode(err, ErrProjectionDerive))
	require.True(t, IsMoErrCode(nil, Ok))
	require.False(t, IsMoErrCode(io.EOF, ErrInternal))
}

func TestConvertGoError(t *testing.T) {
	ctx := context.TODO()
	require.Nil(t, ConvertGoError(ctx, nil))

	orig := NewDivByZero(ctx)
	require.Equal(t, orig, ConvertGoError(ctx, orig))
	require.True(t, IsMoErrCode(ConvertGoError(ctx, io.EOF), ErrInvalidInput))

	e := DowncastError(ConvertGoError(ctx, io.ErrClosedPipe))
	require.Equal(t, ErrInternal, e.ErrorCode())
}

func TestDisplay(t *testing.T) {
	err := NewInvalidArg(context.TODO(), "limit", -1).WithDetail("must be positive")
	require.Equal(t, "invalid argument limit, bad value -1", err.Error())
	require.Equal(t, "invalid argument limit, bad value -1: must be positive", err.Display())
	require.False(t, err.Succeeded())
}

func TestConvertPanicError(t *testing.T) {
	orig := NewInternalErrorNoCtx("boom")
	require.Equal(t, orig, ConvertPanicError(context.TODO(), orig))
	require.True(t, IsMoErrCode(ConvertPanicError(context.TODO(), "oops"), ErrInternal))
}
