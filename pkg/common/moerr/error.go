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
	"fmt"
	"io"
)

const MySQLDefaultSqlState = "HY000"

// mysql error codes surfaced by this module.
const (
	ER_UNKNOWN_ERROR     uint16 = 1105
	ER_DIVISION_BY_ZERO  uint16 = 1365
	ER_PARSE_ERROR       uint16 = 1064
	ER_BAD_FIELD_ERROR   uint16 = 1054
	ER_DUP_KEYNAME       uint16 = 1061
	ER_WRONG_ARGUMENTS   uint16 = 1210
	ER_NOT_SUPPORTED_YET uint16 = 1235
)

const (
	// 0 - 99 is OK.
	Ok    uint16 = 0
	OkMax uint16 = 99

	// Group 1: Internal errors
	ErrStart        uint16 = 20100
	ErrInternal     uint16 = 20101
	ErrNotSupported uint16 = 20105

	// Group 2: numeric and functions
	ErrDivByZero  uint16 = 20200
	ErrInvalidArg uint16 = 20203

	// Group 3: invalid input
	ErrBadConfig    uint16 = 20300
	ErrInvalidInput uint16 = 20301

	// Group 10: projections
	// ErrProjectionParse the definition text is not a valid projection query
	ErrProjectionParse uint16 = 21000
	// ErrProjectionDerive the definition is valid text but semantically wrong
	ErrProjectionDerive uint16 = 21001
	// ErrDuplicateProjection a projection with the same name already exists
	ErrDuplicateProjection uint16 = 21002
	// ErrProjectionNotFound no projection with the given name
	ErrProjectionNotFound uint16 = 21003
	// ErrStaleProjection the projection no longer fits the table columns
	ErrStaleProjection uint16 = 21004
	// ErrProjectionEval runtime failure while calculating a projection
	ErrProjectionEval uint16 = 21005

	// ErrEnd, the max value of MOErrorCode
	ErrEnd uint16 = 65535
)

type moErrorMsgItem struct {
	mysqlCode        uint16
	sqlStates        []string
	errorMsgOrFormat string
}

var errorMsgRefer = map[uint16]moErrorMsgItem{
	// Group 1: Internal errors
	ErrStart:        {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: error code start"},
	ErrInternal:     {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: %s"},
	ErrNotSupported: {ER_NOT_SUPPORTED_YET, []string{MySQLDefaultSqlState}, "not supported: %s"},

	// Group 2: numeric
	ErrDivByZero:  {ER_DIVISION_BY_ZERO, []string{"22012"}, "division by zero"},
	ErrInvalidArg: {ER_WRONG_ARGUMENTS, []string{MySQLDefaultSqlState}, "invalid argument %s, bad value %s"},

	// Group 3: invalid input
	ErrBadConfig:    {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid configuration: %s"},
	ErrInvalidInput: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "invalid input: %s"},

	// Group 10: projections
	ErrProjectionParse:     {ER_PARSE_ERROR, []string{"42000"}, "invalid projection definition: %s"},
	ErrProjectionDerive:    {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "projection '%s': %s"},
	ErrDuplicateProjection: {ER_DUP_KEYNAME, []string{"42000"}, "projection with name '%s' already exists"},
	ErrProjectionNotFound:  {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "there is no projection %s%s"},
	ErrStaleProjection:     {ER_BAD_FIELD_ERROR, []string{"42S22"}, "projection '%s' is incompatible with the new columns: %s"},
	ErrProjectionEval:      {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "failed to calculate projection '%s': %s"},

	// Group End: max value of MOErrorCode
	ErrEnd: {ER_UNKNOWN_ERROR, []string{MySQLDefaultSqlState}, "internal error: end of errcode code"},
}

func newError(ctx context.Context, code uint16, args ...any) *Error {
	var err *Error
	item, has := errorMsgRefer[code]
	if !has {
		panic(NewInternalError(ctx, "not exist MOErrorCode: %d", code))
	}
	if len(args) == 0 {
		err = &Error{
			code:      code,
			mysqlCode: item.mysqlCode,
			message:   item.errorMsgOrFormat,
			sqlState:  item.sqlStates[0],
		}
	} else {
		err = &Error{
			code:      code,
			mysqlCode: item.mysqlCode,
			message:   fmt.Sprintf(item.errorMsgOrFormat, args...),
			sqlState:  item.sqlStates[0],
		}
	}
	return err
}

type Error struct {
	code      uint16
	mysqlCode uint16
	message   string
	sqlState  string
	detail    string
}

func (e *Error) Error() string {
	return e.message
}

func (e *Error) Detail() string {
	return e.detail
}

// WithDetail attaches extra information shown by Display but not by Error.
func (e *Error) WithDetail(detail string) *Error {
	e.detail = detail
	return e
}

func (e *Error) Display() string {
	if len(e.detail) == 0 {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.message, e.detail)
}

func (e *Error) ErrorCode() uint16 {
	return e.code
}

func (e *Error) MySQLCode() uint16 {
	return e.mysqlCode
}

func (e *Error) SqlState() string {
	return e.sqlState
}

func (e *Error) Succeeded() bool {
	return e.code < OkMax
}

func IsMoErrCode(e error, rc uint16) bool {
	if e == nil {
		return rc == Ok
	}

	me, ok := e.(*Error)
	if !ok {
		// This is not a moerr
		return false
	}
	return me.code == rc
}

func DowncastError(e error) *Error {
	if err, ok := e.(*Error); ok {
		return err
	}
	return newError(Context(), ErrInternal, fmt.Sprintf("downcast error failed: %v", e))
}

// ConvertPanicError converts a runtime panic to internal error.
func ConvertPanicError(ctx context.Context, v interface{}) *Error {
	if e, ok := v.(*Error); ok {
		return e
	}
	return newError(ctx, ErrInternal, fmt.Sprintf("panic %v", v))
}

// ConvertGoError converts a go error into mo error.
// Note here we must return error, because nil error
// is the same as nil *Error -- Go strangeness.
func ConvertGoError(ctx context.Context, err error) error {
	// nil is nil
	if err == nil {
		return err
	}

	// already a moerr, return it as is
	if _, ok := err.(*Error); ok {
		return err
	}

	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return NewInvalidInput(ctx, "unexpected end of input")
	}

	return NewInternalError(ctx, "convert go error to mo error %v", err)
}

// Context returns the context used by the NoCtx constructors.
func Context() context.Context {
	return context.Background()
}

func NewInternalError(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInternal, xmsg)
}

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(Context(), msg, args...)
}

func NewNotSupported(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrNotSupported, xmsg)
}

func NewDivByZero(ctx context.Context) *Error {
	return newError(ctx, ErrDivByZero)
}

func NewInvalidArg(ctx context.Context, arg string, val any) *Error {
	return newError(ctx, ErrInvalidArg, arg, fmt.Sprintf("%v", val))
}

func NewBadConfig(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrBadConfig, xmsg)
}

func NewInvalidInput(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrInvalidInput, xmsg)
}

func NewProjectionParse(ctx context.Context, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrProjectionParse, xmsg)
}

func NewProjectionDerive(ctx context.Context, name string, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrProjectionDerive, name, xmsg)
}

func NewDuplicateProjection(ctx context.Context, name string) *Error {
	return newError(ctx, ErrDuplicateProjection, name)
}

// NewProjectionNotFound builds the not found error, hints are appended as
// a "Maybe you meant" suffix.
func NewProjectionNotFound(ctx context.Context, name string, hints ...string) *Error {
	suffix := ""
	if len(hints) > 0 {
		suffix = fmt.Sprintf(". Maybe you meant: %v", hints)
	}
	return newError(ctx, ErrProjectionNotFound, name, suffix)
}

func NewStaleProjection(ctx context.Context, name string, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrStaleProjection, name, xmsg)
}

func NewProjectionEval(ctx context.Context, name string, msg string, args ...any) *Error {
	xmsg := fmt.Sprintf(msg, args...)
	return newError(ctx, ErrProjectionEval, name, xmsg)
}
