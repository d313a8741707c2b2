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

// Package lang holds the source-language front end: the AST, the lexer,
// and the recursive-descent parser. Nothing here emits instruction
// words; that is pkg/compiler's job.
package lang

// Expr is any node usable in expression position: Const, Var, BinOp, and
// (per spec section 4.7's "condition as expression" contract) CmpZero
// and Cmp.
type Expr interface{ isExpr() }

// Const is an integer literal.
type Const struct{ Value int }

// Var references a named variable.
type Var struct{ Name string }

// BinOpKind is the operator of a BinOp node.
type BinOpKind int

const (
	OpAdd BinOpKind = iota
	OpSub
)

// BinOp is a left/right arithmetic expression. The code generator only
// supports Var +/- Const shapes (spec section 4.7); any other shape is a
// fatal compile error raised there, not here.
type BinOp struct {
	Op          BinOpKind
	Left, Right Expr
}

// CmpKind is the comparison operator of a condition node.
type CmpKind int

const (
	CmpEq CmpKind = iota
	CmpNeq
)

func (k CmpKind) String() string {
	if k == CmpEq {
		return "=="
	}
	return "!="
}

// CmpZero compares a general expression against the literal 0. The
// parser produces this whenever a condition's right-hand side is
// Const{0} (spec section 4.6, "condition normalization").
type CmpZero struct {
	Expr Expr
	Op   CmpKind
}

// Cmp compares two general expressions. The code generator only
// supports Var op Var and Var op Const shapes (spec section 4.7);
// Cmp(Const, *, Var) is a fatal compile error.
type Cmp struct {
	Left, Right Expr
	Op          CmpKind
}

func (Const) isExpr()   {}
func (Var) isExpr()     {}
func (BinOp) isExpr()   {}
func (CmpZero) isExpr() {}
func (Cmp) isExpr()     {}

// Stmt is any statement node: Assign, While, If.
type Stmt interface{ isStmt() }

// Assign is `name = expr;`.
type Assign struct {
	Name string
	Expr Expr
}

// While is `while (cond) { body }`.
type While struct {
	Cond Expr
	Body []Stmt
}

// If is `if (cond) { then } [else { else }]`. Else is nil when there is
// no else clause.
type If struct {
	Cond Expr
	Then []Stmt
	Else []Stmt // nil if absent
}

func (Assign) isStmt() {}
func (While) isStmt()  {}
func (If) isStmt()     {}

// Program is the root node: a flat list of top-level statements.
type Program struct {
	Stmts []Stmt
}
