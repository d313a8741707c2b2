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

package compiler

import (
	"testing"

	"github.com/master-g/retro16/pkg/bus"
	"github.com/master-g/retro16/pkg/cpu"
	"github.com/master-g/retro16/pkg/isa"
	"github.com/master-g/retro16/pkg/lang"
)

// runSource compiles src and executes it to completion (or maxSteps),
// returning the CPU so tests can inspect register state.
func runSource(t *testing.T, src string, maxSteps int) *cpu.CPU {
	t.Helper()
	prog, err := lang.ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	words, err := CompileProgramToROM(prog)
	if err != nil {
		t.Fatalf("CompileProgramToROM: %v", err)
	}

	b := bus.New()
	romBytes := make([]byte, 0, len(words)*2)
	for _, w := range words {
		romBytes = append(romBytes, byte(w), byte(w>>8))
	}
	b.LoadROM(romBytes, 0)

	c := cpu.New(b)
	for i := 0; i < maxSteps && !c.Halted; i++ {
		if _, err := c.Step(false); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	return c
}

func TestCompileEndsInHalt(t *testing.T) {
	prog, err := lang.ParseProgram("x = 1;")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	words, err := CompileProgramToROM(prog)
	if err != nil {
		t.Fatalf("CompileProgramToROM: %v", err)
	}
	last := words[len(words)-1]
	if isa.DecodeOpcode(last) != isa.OpHALT {
		t.Fatalf("last word = %s, want HALT", isa.Disassemble(last))
	}
}

// S4: x = 3; while (x != 0) { x = x - 1; }  -> R1 == 0
func TestScenarioS4While(t *testing.T) {
	c := runSource(t, "x = 3; while (x != 0) { x = x - 1; }", 100)
	if c.Reg[1] != 0 {
		t.Errorf("R1 = %d, want 0", c.Reg[1])
	}
	if !c.Halted {
		t.Error("expected CPU to halt")
	}
}

// S5: x = 3; if (x == 0) { x = 5; } else { x = 10; }  -> R1 == 10
func TestScenarioS5IfElse(t *testing.T) {
	c := runSource(t, "x = 3; if (x == 0) { x = 5; } else { x = 10; }", 100)
	if c.Reg[1] != 10 {
		t.Errorf("R1 = %d, want 10", c.Reg[1])
	}
}

// S6: x = 3; if (x != 0) { x = 5; }  -> R1 == 5
func TestScenarioS6IfNoElse(t *testing.T) {
	c := runSource(t, "x = 3; if (x != 0) { x = 5; }", 100)
	if c.Reg[1] != 5 {
		t.Errorf("R1 = %d, want 5", c.Reg[1])
	}
}

func TestCompareTwoVariables(t *testing.T) {
	c := runSource(t, "a = 4; b = 4; if (a == b) { a = 9; }", 100)
	if c.Reg[1] != 9 {
		t.Errorf("R1(a) = %d, want 9", c.Reg[1])
	}
}

func TestConditionAsExpression(t *testing.T) {
	c := runSource(t, "a = 4; b = (a == 4);", 100)
	if c.Reg[2] != 1 {
		t.Errorf("R2(b) = %d, want 1", c.Reg[2])
	}
}

func TestConditionAsExpressionFalse(t *testing.T) {
	c := runSource(t, "a = 5; b = (a == 4);", 100)
	if c.Reg[2] != 0 {
		t.Errorf("R2(b) = %d, want 0", c.Reg[2])
	}
}

func TestTooManyVariablesIsFatal(t *testing.T) {
	src := "a=1;b=1;c=1;d=1;e=1;f=1;g=1;h=1;"
	prog, err := lang.ParseProgram(src)
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	_, err = CompileProgramToROM(prog)
	if err == nil {
		t.Fatal("expected a CompileError for too many variables")
	}
}

func TestUnsupportedBinOpShapeIsFatal(t *testing.T) {
	prog := &lang.Program{Stmts: []lang.Stmt{
		lang.Assign{Name: "x", Expr: lang.BinOp{
			Op:    lang.OpAdd,
			Left:  lang.Const{Value: 1},
			Right: lang.Var{Name: "y"},
		}},
	}}
	_, err := CompileProgramToROM(prog)
	if err == nil {
		t.Fatal("expected a CompileError for Const + Var shape")
	}
}

func TestCmpConstLeftIsFatal(t *testing.T) {
	prog := &lang.Program{Stmts: []lang.Stmt{
		lang.If{
			Cond: lang.Cmp{Left: lang.Const{Value: 0}, Op: lang.CmpEq, Right: lang.Var{Name: "x"}},
			Then: []lang.Stmt{lang.Assign{Name: "x", Expr: lang.Const{Value: 1}}},
		},
	}}
	_, err := CompileProgramToROM(prog)
	if err == nil {
		t.Fatal("expected a CompileError for Cmp(Const, *, Var)")
	}
}

func TestUnresolvedLabelIsFatal(t *testing.T) {
	c := New()
	c.emitPatch(patchJmp, "nowhere")
	c.emit(isa.EncodeJ(isa.OpHALT, 0))
	if err := c.patchJumps(); err == nil {
		t.Fatal("expected an error for an unresolved label")
	}
}

func TestJumpDisplacementOverflowIsFatal(t *testing.T) {
	c := New()
	c.emitPatch(patchJmp, "far")
	for i := 0; i < 3000; i++ {
		c.emit(isa.EncodeJ(isa.OpHALT, 0))
	}
	c.markLabel("far")
	if err := c.patchJumps(); err == nil {
		t.Fatal("expected an error for a displacement that doesn't fit in 12 bits")
	}
}

func TestVarReusesSameRegisterWithoutExtraInstruction(t *testing.T) {
	// x = x; with x already resident in its own register should compile
	// to an assignment with no ADD emitted (spec section 4.7: Var ->
	// no-op when already in target).
	prog, err := lang.ParseProgram("x = 1; x = x;")
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	words, err := CompileProgramToROM(prog)
	if err != nil {
		t.Fatalf("CompileProgramToROM: %v", err)
	}
	// ADDI x,R0,1 ; HALT  (the "x = x;" statement emits nothing)
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2 (no-op self-assign elided): %v", len(words), words)
	}
}
