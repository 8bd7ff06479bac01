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

package projection

import (
	"fmt"
	"strings"
)

const eofChar = 0x100

// Token ids, single character tokens are returned as their own value.
const (
	LEX_ERROR = iota + 0x101
	ID
	QUOTE_ID
	INTEGRAL
	FLOAT
	STRING
	SELECT
	GROUP
	ORDER
	BY
	AS
	NULL
	TRUE
	FALSE
)

var keywordTokens = map[string]int{
	"select": SELECT,
	"group":  GROUP,
	"order":  ORDER,
	"by":     BY,
	"as":     AS,
	"null":   NULL,
	"true":   TRUE,
	"false":  FALSE,
}

// PositionedErr is a scan or parse failure at a byte offset of the input.
type PositionedErr struct {
	Err  string
	Pos  int
	Near string
}

func (p PositionedErr) Error() string {
	if p.Near != "" {
		return fmt.Sprintf("%s at position %d near '%s'", p.Err, p.Pos, p.Near)
	}
	return fmt.Sprintf("%s at position %d", p.Err, p.Pos)
}

// Scanner splits projection definition text into tokens.
type Scanner struct {
	LastToken string
	LastError error
	Pos       int

	buf string
}

func NewScanner(sql string) *Scanner {
	return &Scanner{buf: sql}
}

// Scan returns the next token id and its text, 0 at the end of input.
func (s *Scanner) Scan() (int, string) {
	s.skipBlank()
	switch ch := s.cur(); {
	case ch == eofChar:
		return 0, ""
	case isLetter(ch):
		start := s.Pos
		for isLetter(s.cur()) || isDigit(s.cur()) {
			s.inc()
		}
		word := s.buf[start:s.Pos]
		if id, ok := keywordTokens[strings.ToLower(word)]; ok {
			return id, word
		}
		return ID, word
	case isDigit(ch), ch == '.' && isDigit(s.peek(1)):
		return s.scanNumber()
	case ch == '`':
		s.inc()
		return s.scanLiteralIdentifier()
	case ch == '\'' || ch == '"':
		s.inc()
		return s.scanString(ch)
	default:
		s.inc()
		switch ch {
		case '(', ')', ',', '*', '+', '-', '/', '%':
			return int(ch), string(rune(ch))
		}
		return LEX_ERROR, string(rune(ch))
	}
}

func (s *Scanner) scanNumber() (int, string) {
	start := s.Pos
	token := INTEGRAL
	for isDigit(s.cur()) {
		s.inc()
	}
	if s.cur() == '.' {
		token = FLOAT
		s.inc()
		for isDigit(s.cur()) {
			s.inc()
		}
	}
	if s.cur() == 'e' || s.cur() == 'E' {
		token = FLOAT
		s.inc()
		if s.cur() == '+' || s.cur() == '-' {
			s.inc()
		}
		if !isDigit(s.cur()) {
			return LEX_ERROR, s.buf[start:s.Pos]
		}
		for isDigit(s.cur()) {
			s.inc()
		}
	}
	if isLetter(s.cur()) {
		return LEX_ERROR, s.buf[start:s.Pos]
	}
	return token, s.buf[start:s.Pos]
}

// scanLiteralIdentifier reads a back quoted identifier, a doubled back quote
// stands for one back quote.
func (s *Scanner) scanLiteralIdentifier() (int, string) {
	var sb strings.Builder
	for {
		ch := s.cur()
		switch ch {
		case eofChar:
			return LEX_ERROR, sb.String()
		case '`':
			s.inc()
			if s.cur() != '`' {
				if sb.Len() == 0 {
					return LEX_ERROR, ""
				}
				return QUOTE_ID, sb.String()
			}
		}
		sb.WriteByte(byte(ch))
		s.inc()
	}
}

func (s *Scanner) scanString(delim uint16) (int, string) {
	var sb strings.Builder
	for {
		ch := s.cur()
		switch {
		case ch == eofChar:
			return LEX_ERROR, sb.String()
		case ch == delim:
			s.inc()
			if s.cur() != delim {
				return STRING, sb.String()
			}
		}
		sb.WriteByte(byte(ch))
		s.inc()
	}
}

func (s *Scanner) skipBlank() {
	for {
		switch s.cur() {
		case ' ', '\n', '\r', '\t':
			s.inc()
		default:
			return
		}
	}
}

func (s *Scanner) cur() uint16 {
	return s.peek(0)
}

func (s *Scanner) peek(dist int) uint16 {
	if s.Pos+dist >= len(s.buf) {
		return eofChar
	}
	return uint16(s.buf[s.Pos+dist])
}

func (s *Scanner) inc() {
	if s.Pos >= len(s.buf) {
		return
	}
	s.Pos++
}

func isLetter(ch uint16) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || ch == '$'
}

func isDigit(ch uint16) bool {
	return '0' <= ch && ch <= '9'
}
