// Copyright (c) 2024 retro16 contributors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package lang

import (
	"fmt"
	"strconv"
)

// TokenKind enumerates the lexer's closed token set.
type TokenKind int

const (
	TokIdent TokenKind = iota
	TokInt
	TokPlus
	TokMinus
	TokStar
	TokSlash
	TokEqEq
	TokNeq
	TokEq
	TokLParen
	TokRParen
	TokLBrace
	TokRBrace
	TokSemicolon
	TokWhile
	TokIf
	TokElse
	TokEOF
)

var tokenNames = map[TokenKind]string{
	TokIdent: "IDENT", TokInt: "INT", TokPlus: "+", TokMinus: "-",
	TokStar: "*", TokSlash: "/", TokEqEq: "==", TokNeq: "!=", TokEq: "=",
	TokLParen: "(", TokRParen: ")", TokLBrace: "{", TokRBrace: "}",
	TokSemicolon: ";", TokWhile: "while", TokIf: "if", TokElse: "else",
	TokEOF: "EOF",
}

func (k TokenKind) String() string { return tokenNames[k] }

// Token is one lexed unit with its source byte offset, for error
// reporting.
type Token struct {
	Kind  TokenKind
	Text  string
	Pos   int
}

var keywords = map[string]TokenKind{
	"while": TokWhile,
	"if":    TokIf,
	"else":  TokElse,
}

// LexError is a fatal, first-error-wins lexer failure carrying the
// offending byte offset (spec section 7).
type LexError struct {
	Pos  int
	Char byte
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lang: unrecognized character %q at %d", e.Char, e.Pos)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}

// Tokenize scans src into tokens, always terminated by a TokEOF. It
// fails fast on the first unrecognized character.
func Tokenize(src string) ([]Token, error) {
	var toks []Token
	i := 0
	n := len(src)

	for i < n {
		c := src[i]

		switch {
		case isSpace(c):
			i++

		case c == '=' && i+1 < n && src[i+1] == '=':
			toks = append(toks, Token{TokEqEq, "==", i})
			i += 2

		case c == '!' && i+1 < n && src[i+1] == '=':
			toks = append(toks, Token{TokNeq, "!=", i})
			i += 2

		case c == '=':
			toks = append(toks, Token{TokEq, "=", i})
			i++

		case c == '+':
			toks = append(toks, Token{TokPlus, "+", i})
			i++

		case c == '-' && (i+1 >= n || !isDigit(src[i+1])):
			// Lone '-' operator. A '-' immediately followed by a digit is
			// lexed as part of an INT literal below, matching the source
			// grammar's optional leading sign on integers.
			toks = append(toks, Token{TokMinus, "-", i})
			i++

		case c == '-' || isDigit(c):
			start := i
			if c == '-' {
				i++
			}
			for i < n && isDigit(src[i]) {
				i++
			}
			text := src[start:i]
			toks = append(toks, Token{TokInt, text, start})

		case c == '*':
			toks = append(toks, Token{TokStar, "*", i})
			i++

		case c == '/':
			toks = append(toks, Token{TokSlash, "/", i})
			i++

		case c == '(':
			toks = append(toks, Token{TokLParen, "(", i})
			i++

		case c == ')':
			toks = append(toks, Token{TokRParen, ")", i})
			i++

		case c == '{':
			toks = append(toks, Token{TokLBrace, "{", i})
			i++

		case c == '}':
			toks = append(toks, Token{TokRBrace, "}", i})
			i++

		case c == ';':
			toks = append(toks, Token{TokSemicolon, ";", i})
			i++

		case isIdentStart(c):
			start := i
			for i < n && isIdentCont(src[i]) {
				i++
			}
			text := src[start:i]
			if kw, ok := keywords[text]; ok {
				toks = append(toks, Token{kw, text, start})
			} else {
				toks = append(toks, Token{TokIdent, text, start})
			}

		default:
			return nil, &LexError{Pos: i, Char: c}
		}
	}

	toks = append(toks, Token{TokEOF, "", n})
	return toks, nil
}

// parseIntLiteral is a small helper so the parser doesn't import
// strconv directly; kept here next to Tokenize since INT text formation
// (optional leading '-') is a lexer concern.
func parseIntLiteral(text string) (int, error) {
	return strconv.Atoi(text)
}
