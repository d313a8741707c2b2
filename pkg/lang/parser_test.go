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

import "testing"

func TestParseAssign(t *testing.T) {
	prog, err := ParseProgram("x = 1 + 2;")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(prog.Stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(prog.Stmts))
	}
	a, ok := prog.Stmts[0].(Assign)
	if !ok {
		t.Fatalf("stmt = %T, want Assign", prog.Stmts[0])
	}
	if a.Name != "x" {
		t.Errorf("Name = %q, want x", a.Name)
	}
	bin, ok := a.Expr.(BinOp)
	if !ok {
		t.Fatalf("expr = %T, want BinOp", a.Expr)
	}
	if bin.Op != OpAdd {
		t.Errorf("Op = %v, want OpAdd", bin.Op)
	}
}

func TestParseExprLeftAssociative(t *testing.T) {
	prog, err := ParseProgram("x = 1 - 2 - 3;")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	a := prog.Stmts[0].(Assign)
	outer, ok := a.Expr.(BinOp)
	if !ok || outer.Op != OpSub {
		t.Fatalf("outer = %+v, want BinOp(-)", a.Expr)
	}
	inner, ok := outer.Left.(BinOp)
	if !ok || inner.Op != OpSub {
		t.Fatalf("expected (1-2)-3 left-associative shape, got %+v", outer)
	}
	if c, ok := inner.Left.(Const); !ok || c.Value != 1 {
		t.Fatalf("innermost left = %+v, want Const(1)", inner.Left)
	}
}

func TestParseCondNormalizesZeroToCmpZero(t *testing.T) {
	prog, err := ParseProgram("while (x != 0) { x = x - 1; }")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	w := prog.Stmts[0].(While)
	cz, ok := w.Cond.(CmpZero)
	if !ok {
		t.Fatalf("cond = %T, want CmpZero", w.Cond)
	}
	if cz.Op != CmpNeq {
		t.Errorf("Op = %v, want CmpNeq", cz.Op)
	}
	v, ok := cz.Expr.(Var)
	if !ok || v.Name != "x" {
		t.Errorf("Expr = %+v, want Var(x)", cz.Expr)
	}
}

func TestParseCondNonZeroRightIsCmp(t *testing.T) {
	prog, err := ParseProgram("if (x == y) { z = 1; }")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	ifStmt := prog.Stmts[0].(If)
	cmp, ok := ifStmt.Cond.(Cmp)
	if !ok {
		t.Fatalf("cond = %T, want Cmp", ifStmt.Cond)
	}
	if cmp.Op != CmpEq {
		t.Errorf("Op = %v, want CmpEq", cmp.Op)
	}
}

func TestParseIfElse(t *testing.T) {
	prog, err := ParseProgram("if (x == 0) { x = 5; } else { x = 10; }")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	ifStmt := prog.Stmts[0].(If)
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Fatalf("ifStmt = %+v, want one stmt each arm", ifStmt)
	}
}

func TestParseIfWithoutElse(t *testing.T) {
	prog, err := ParseProgram("if (x != 0) { x = 5; }")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	ifStmt := prog.Stmts[0].(If)
	if ifStmt.Else != nil {
		t.Fatalf("Else = %+v, want nil", ifStmt.Else)
	}
}

func TestParseParenthesizedExpr(t *testing.T) {
	prog, err := ParseProgram("x = (1 + 2) - 3;")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	a := prog.Stmts[0].(Assign)
	outer := a.Expr.(BinOp)
	if outer.Op != OpSub {
		t.Fatalf("outer op = %v, want OpSub", outer.Op)
	}
	if _, ok := outer.Left.(BinOp); !ok {
		t.Fatalf("left of outer should itself be the parenthesized BinOp, got %T", outer.Left)
	}
}

func TestParseMissingSemicolonIsFatal(t *testing.T) {
	_, err := ParseProgram("x = 1")
	if err == nil {
		t.Fatal("expected a ParseError for missing semicolon")
	}
}

func TestParseUnexpectedTokenIsFatal(t *testing.T) {
	_, err := ParseProgram("123 = 4;")
	if err == nil {
		t.Fatal("expected a ParseError for a statement starting with an integer")
	}
}

func TestParseNestedWhileInsideIf(t *testing.T) {
	src := `
	x = 3;
	if (x != 0) {
		while (x != 0) {
			x = x - 1;
		}
	}
	`
	prog, err := ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(prog.Stmts) != 2 {
		t.Fatalf("got %d top-level statements, want 2", len(prog.Stmts))
	}
	ifStmt, ok := prog.Stmts[1].(If)
	if !ok {
		t.Fatalf("second statement = %T, want If", prog.Stmts[1])
	}
	if _, ok := ifStmt.Then[0].(While); !ok {
		t.Fatalf("if-body first statement = %T, want While", ifStmt.Then[0])
	}
}
