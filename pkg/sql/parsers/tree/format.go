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

import (
	"fmt"
	"strings"
)

// NodeFormatter restores a node into its textual form.
type NodeFormatter interface {
	Format(ctx *FmtCtx)
}

// FmtCtx is the Format context holding the flags and the output buffer.
type FmtCtx struct {
	*strings.Builder
	Flags RestoreFlags
}

func NewFmtCtx(flags RestoreFlags) *FmtCtx {
	return &FmtCtx{
		Builder: new(strings.Builder),
		Flags:   flags,
	}
}

// String formats node with the default flags.
func String(node NodeFormatter) string {
	ctx := NewFmtCtx(DefaultRestoreFlags)
	node.Format(ctx)
	return ctx.String()
}

// CanonicalString formats node with lowercase function names, two trees
// ExprEqual reports equal have the same canonical string.
func CanonicalString(node NodeFormatter) string {
	ctx := NewFmtCtx(DefaultRestoreFlags | RestoreFuncNameLowercase)
	node.Format(ctx)
	return ctx.String()
}

// WriteKeyWord writes the `keyWord` into writer.
// `keyWord` will be converted format(uppercase and lowercase for now) according to `RestoreFlags`.
func (ctx *FmtCtx) WriteKeyWord(keyWord string) {
	switch {
	case ctx.Flags.HasKeyWordUppercaseFlag():
		keyWord = strings.ToUpper(keyWord)
	case ctx.Flags.HasKeyWordLowercaseFlag():
		keyWord = strings.ToLower(keyWord)
	}
	ctx.WriteString(keyWord)
}

// WriteStringValue writes a string literal,
// `str` may be wrapped in quotes and escaped according to RestoreFlags.
func (ctx *FmtCtx) WriteStringValue(str string) {
	if ctx.Flags.HasStringEscapeBackslashFlag() {
		str = strings.ReplaceAll(str, `\`, `\\`)
	}
	quotes := ""
	switch {
	case ctx.Flags.HasStringSingleQuotesFlag():
		str = strings.ReplaceAll(str, `'`, `''`)
		quotes = `'`
	case ctx.Flags.HasStringDoubleQuotesFlag():
		str = strings.ReplaceAll(str, `"`, `""`)
		quotes = `"`
	}
	fmt.Fprint(ctx.Builder, quotes, str, quotes)
}

// WriteName writes an identifier. It is back quoted when RestoreNameBackQuotes
// is set or when it would not read back as a plain identifier.
func (ctx *FmtCtx) WriteName(name string) {
	if ctx.Flags.HasNameBackQuotesFlag() || !IsPlainIdentifier(name) {
		ctx.WriteByte('`')
		ctx.WriteString(strings.ReplaceAll(name, "`", "``"))
		ctx.WriteByte('`')
		return
	}
	ctx.WriteString(name)
}

// IsPlainIdentifier reports whether name can be written without quotes.
func IsPlainIdentifier(name string) bool {
	if name == "" || IsKeyword(name) {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

var keywords = map[string]struct{}{
	"select": {},
	"group":  {},
	"order":  {},
	"by":     {},
	"as":     {},
	"null":   {},
	"true":   {},
	"false":  {},
}

// IsKeyword reports whether word is reserved by the projection grammar.
func IsKeyword(word string) bool {
	_, ok := keywords[strings.ToLower(word)]
	return ok
}

// RestoreFlags mark the Restore format
type RestoreFlags uint64

// Mutually exclusive group of `RestoreFlags`:
// [RestoreStringSingleQuotes, RestoreStringDoubleQuotes]
// [RestoreKeyWordUppercase, RestoreKeyWordLowercase]
// The flag with the left position in each group has a higher priority.
const (
	RestoreStringSingleQuotes RestoreFlags = 1 << iota
	RestoreStringDoubleQuotes
	RestoreStringEscapeBackslash

	RestoreKeyWordUppercase
	RestoreKeyWordLowercase

	RestoreNameBackQuotes

	RestoreFuncNameLowercase
)

const (
	// DefaultRestoreFlags is the default value of RestoreFlags.
	DefaultRestoreFlags = RestoreStringSingleQuotes | RestoreKeyWordUppercase
)

func (rfg RestoreFlags) has(flag RestoreFlags) bool {
	return rfg&flag != 0
}

// HasStringSingleQuotesFlag returns a boolean indicating when `rf` has `RestoreStringSingleQuotes` flag.
func (rfg RestoreFlags) HasStringSingleQuotesFlag() bool {
	return rfg.has(RestoreStringSingleQuotes)
}

// HasStringDoubleQuotesFlag returns a boolean indicating whether `rf` has `RestoreStringDoubleQuotes` flag.
func (rfg RestoreFlags) HasStringDoubleQuotesFlag() bool {
	return rfg.has(RestoreStringDoubleQuotes)
}

// HasStringEscapeBackslashFlag returns a boolean indicating whether `rf` has `RestoreStringEscapeBackslash` flag.
func (rfg RestoreFlags) HasStringEscapeBackslashFlag() bool {
	return rfg.has(RestoreStringEscapeBackslash)
}

// HasKeyWordUppercaseFlag returns a boolean indicating whether `rf` has `RestoreKeyWordUppercase` flag.
func (rfg RestoreFlags) HasKeyWordUppercaseFlag() bool {
	return rfg.has(RestoreKeyWordUppercase)
}

// HasKeyWordLowercaseFlag returns a boolean indicating whether `rf` has `RestoreKeyWordLowercase` flag.
func (rfg RestoreFlags) HasKeyWordLowercaseFlag() bool {
	return rfg.has(RestoreKeyWordLowercase)
}

// HasFuncNameLowercaseFlag returns a boolean indicating whether `rf` has `RestoreFuncNameLowercase` flag.
func (rfg RestoreFlags) HasFuncNameLowercaseFlag() bool {
	return rfg.has(RestoreFuncNameLowercase)
}

// HasNameBackQuotesFlag returns a boolean indicating whether `rf` has `RestoreNameBackQuotes` flag.
func (rfg RestoreFlags) HasNameBackQuotesFlag() bool {
	return rfg.has(RestoreNameBackQuotes)
}
