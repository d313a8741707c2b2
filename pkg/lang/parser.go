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

import "fmt"

// ParseError is a fatal, first-error-wins parser failure carrying the
// offending token's source position (spec section 7).
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("lang: %s at %d", e.Message, e.Pos)
}

// Parser is a single-token-lookahead recursive-descent parser over a
// fixed token slice produced by Tokenize.
type Parser struct {
	toks []Token
	pos  int
}

// NewParser returns a Parser positioned at the start of toks.
func NewParser(toks []Token) *Parser {
	return &Parser{toks: toks}
}

func (p *Parser) cur() Token { return p.toks[p.pos] }

func (p *Parser) eat(kind TokenKind) (Token, error) {
	tok := p.cur()
	if tok.Kind != kind {
		return Token{}, &ParseError{
			Pos:     tok.Pos,
			Message: fmt.Sprintf("expected %s, got %s", kind, tok.Kind),
		}
	}
	p.pos++
	return tok, nil
}

// ParseProgram parses `program := stmt*` up to EOF.
func (p *Parser) ParseProgram() (*Program, error) {
	var stmts []Stmt
	for p.cur().Kind != TokEOF {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	return &Program{Stmts: stmts}, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	tok := p.cur()

	switch tok.Kind {
	case TokIdent:
		name, _ := p.eat(TokIdent)
		if _, err := p.eat(TokEq); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.eat(TokSemicolon); err != nil {
			return nil, err
		}
		return Assign{Name: name.Text, Expr: expr}, nil

	case TokWhile:
		return p.parseWhile()

	case TokIf:
		return p.parseIf()

	default:
		return nil, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("unexpected token %s", tok.Kind)}
	}
}

func (p *Parser) parseWhile() (Stmt, error) {
	if _, err := p.eat(TokWhile); err != nil {
		return nil, err
	}
	if _, err := p.eat(TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return While{Cond: cond, Body: body}, nil
}

func (p *Parser) parseIf() (Stmt, error) {
	if _, err := p.eat(TokIf); err != nil {
		return nil, err
	}
	if _, err := p.eat(TokLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseCond()
	if err != nil {
		return nil, err
	}
	if _, err := p.eat(TokRParen); err != nil {
		return nil, err
	}
	thenBody, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var elseBody []Stmt
	if p.cur().Kind == TokElse {
		p.pos++
		elseBody, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}

	return If{Cond: cond, Then: thenBody, Else: elseBody}, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.eat(TokLBrace); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.cur().Kind != TokRBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.eat(TokRBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

// parseCond parses `cond := expr ('==' | '!=') expr` and normalizes a
// Const{0} right-hand side into CmpZero (spec section 4.6).
func (p *Parser) parseCond() (Expr, error) {
	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	tok := p.cur()
	var op CmpKind
	switch tok.Kind {
	case TokEqEq:
		op = CmpEq
	case TokNeq:
		op = CmpNeq
	default:
		return nil, &ParseError{Pos: tok.Pos, Message: "expected == or != in condition"}
	}
	p.pos++

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if c, ok := right.(Const); ok && c.Value == 0 {
		return CmpZero{Expr: left, Op: op}, nil
	}
	return Cmp{Left: left, Op: op, Right: right}, nil
}

// parseExpr parses `expr := primary (('+' | '-') primary)*`, left
// associative.
func (p *Parser) parseExpr() (Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.cur()
		var opKind BinOpKind
		switch tok.Kind {
		case TokPlus:
			opKind = OpAdd
		case TokMinus:
			opKind = OpSub
		default:
			return expr, nil
		}
		p.pos++

		right, err := p.parsePrimary()
		if err != nil {
			return nil, err
		}
		expr = BinOp{Op: opKind, Left: expr, Right: right}
	}
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok := p.cur()

	switch tok.Kind {
	case TokInt:
		v, err := parseIntLiteral(tok.Text)
		if err != nil {
			return nil, &ParseError{Pos: tok.Pos, Message: "invalid integer literal"}
		}
		p.pos++
		return Const{Value: v}, nil

	case TokIdent:
		p.pos++
		return Var{Name: tok.Text}, nil

	case TokLParen:
		p.pos++
		start := p.pos
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if k := p.cur().Kind; k == TokEqEq || k == TokNeq {
			// A parenthesized comparison is a condition used as an
			// expression; the code generator materializes it as 0 or 1.
			p.pos = start
			if expr, err = p.parseCond(); err != nil {
				return nil, err
			}
		}
		if _, err := p.eat(TokRParen); err != nil {
			return nil, err
		}
		return expr, nil

	default:
		return nil, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf("unexpected token %s in expression", tok.Kind)}
	}
}

// ParseProgram tokenizes src and parses it into a Program; the single
// entry point a host program needs.
func ParseProgram(src string) (*Program, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	return NewParser(toks).ParseProgram()
}
