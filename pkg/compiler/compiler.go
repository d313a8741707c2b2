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

// Package compiler lowers a pkg/lang AST to retro16 instruction words: a
// trivial one-register-per-variable allocator, straight-line expression
// and condition lowering, and a label-backpatching scheme for forward
// jumps emitted by while/if.
package compiler

import (
	"fmt"

	"github.com/master-g/retro16/pkg/isa"
	"github.com/master-g/retro16/pkg/lang"
)

// R0 is the zero register by compiler convention; the CPU does not
// enforce this, the code generator just never writes anything else
// there.
const R0 = 0

// firstVarReg is where named-variable/temporary allocation starts; R0 is
// reserved as the zero source.
const firstVarReg = 1

// maxVarRegs is the hard cap on simultaneously live variables and
// temporaries (spec section 4.7/9): R1 through R7. Nothing stops a
// program from using all 7, but R7 is conventionally left to the
// compiler's own users as the future stack pointer register — callers
// that also want SP free for its intended purpose should keep programs
// to at most 6 live names.
const maxVarRegs = 7

// CompileError is a fatal code-generation failure. The AST carries no
// source positions past parsing, so these are reported by description
// only (spec section 7 requires positions "where available").
type CompileError struct {
	Message string
}

func (e *CompileError) Error() string {
	return "compiler: " + e.Message
}

type patchKind int

const (
	patchJmp patchKind = iota
	patchJz
	patchJnz
)

type patch struct {
	kind  patchKind
	index int
	label string
}

// Compiler holds the state of one compile call; it is not reusable
// across programs.
type Compiler struct {
	words   []uint16
	labels  map[string]int
	patches []patch
	varRegs map[string]int

	labelCounter int
	tempCounter  int
}

// New returns a fresh Compiler.
func New() *Compiler {
	return &Compiler{
		labels:  make(map[string]int),
		varRegs: make(map[string]int),
	}
}

// CompileProgramToROM is the package's single entry point: lower prog to
// a ROM word sequence ending in HALT, with every label reference
// resolved.
func CompileProgramToROM(prog *lang.Program) ([]uint16, error) {
	c := New()
	return c.compileProgram(prog)
}

func (c *Compiler) currentIndex() int { return len(c.words) }

func (c *Compiler) emit(w uint16) { c.words = append(c.words, w) }

func (c *Compiler) markLabel(label string) { c.labels[label] = c.currentIndex() }

func (c *Compiler) emitPatch(kind patchKind, label string) {
	idx := c.currentIndex()
	c.emit(0) // placeholder, resolved in patchJumps
	c.patches = append(c.patches, patch{kind: kind, index: idx, label: label})
}

func (c *Compiler) newLabel(prefix string) string {
	name := fmt.Sprintf("%s_%d", prefix, c.labelCounter)
	c.labelCounter++
	return name
}

func (c *Compiler) newTempName() string {
	name := fmt.Sprintf("__tmp%d", c.tempCounter)
	c.tempCounter++
	return name
}

// regOf returns name's register, allocating the next free slot
// (R1, R2, ... up to maxVarRegs) on first use.
func (c *Compiler) regOf(name string) (int, error) {
	if r, ok := c.varRegs[name]; ok {
		return r, nil
	}
	if len(c.varRegs) >= maxVarRegs {
		return 0, &CompileError{Message: fmt.Sprintf("too many variables/temporaries: limit is %d", maxVarRegs)}
	}
	r := firstVarReg + len(c.varRegs)
	c.varRegs[name] = r
	return r, nil
}

func (c *Compiler) compileProgram(prog *lang.Program) ([]uint16, error) {
	for _, s := range prog.Stmts {
		if err := c.compileStmt(s); err != nil {
			return nil, err
		}
	}

	c.emit(isa.EncodeJ(isa.OpHALT, 0))

	if err := c.patchJumps(); err != nil {
		return nil, err
	}

	return c.words, nil
}

func (c *Compiler) patchJumps() error {
	for _, p := range c.patches {
		target, ok := c.labels[p.label]
		if !ok {
			return &CompileError{Message: fmt.Sprintf("label %q not defined", p.label)}
		}

		off := target - (p.index + 1)
		if off > isa.Off12Sign-1 || off < -isa.Off12Sign {
			return &CompileError{Message: fmt.Sprintf("jump displacement %d does not fit in signed 12 bits", off)}
		}

		var op isa.Op
		switch p.kind {
		case patchJmp:
			op = isa.OpJMP
		case patchJz:
			op = isa.OpJZ
		case patchJnz:
			op = isa.OpJNZ
		}
		c.words[p.index] = isa.EncodeJ(op, off)
	}
	return nil
}

// compileStmt lowers one statement (spec section 4.7).
func (c *Compiler) compileStmt(s lang.Stmt) error {
	switch st := s.(type) {
	case lang.Assign:
		reg, err := c.regOf(st.Name)
		if err != nil {
			return err
		}
		return c.compileExpr(st.Expr, reg)

	case lang.While:
		loopLabel := c.newLabel("loop")
		c.markLabel(loopLabel)

		endLabel, err := c.compileCond(st.Cond)
		if err != nil {
			return err
		}

		for _, body := range st.Body {
			if err := c.compileStmt(body); err != nil {
				return err
			}
		}

		c.emitPatch(patchJmp, loopLabel)
		c.markLabel(endLabel)
		return nil

	case lang.If:
		elseLabel, err := c.compileCond(st.Cond)
		if err != nil {
			return err
		}

		for _, body := range st.Then {
			if err := c.compileStmt(body); err != nil {
				return err
			}
		}

		if st.Else != nil {
			endLabel := c.newLabel("if_end")
			c.emitPatch(patchJmp, endLabel)
			c.markLabel(elseLabel)

			for _, body := range st.Else {
				if err := c.compileStmt(body); err != nil {
					return err
				}
			}
			c.markLabel(endLabel)
		} else {
			c.markLabel(elseLabel)
		}
		return nil

	default:
		return &CompileError{Message: fmt.Sprintf("unknown statement %T", s)}
	}
}

// compileExpr lowers e so that its value ends up in register target
// (spec section 4.7 "Expression lowering" and section 4.10 for the
// condition-as-expression materialization).
func (c *Compiler) compileExpr(e lang.Expr, target int) error {
	switch ex := e.(type) {
	case lang.Const:
		c.emit(isa.EncodeI(isa.OpADDI, target, R0, ex.Value))
		return nil

	case lang.Var:
		srcReg, err := c.regOf(ex.Name)
		if err != nil {
			return err
		}
		if srcReg == target {
			return nil
		}
		c.emit(isa.EncodeR(isa.OpADD, target, srcReg, R0))
		return nil

	case lang.BinOp:
		varNode, leftIsVar := ex.Left.(lang.Var)
		constNode, rightIsConst := ex.Right.(lang.Const)
		if !leftIsVar || !rightIsConst {
			return &CompileError{Message: "unsupported BinOp shape: only Var +/- Const is supported"}
		}
		varReg, err := c.regOf(varNode.Name)
		if err != nil {
			return err
		}
		switch ex.Op {
		case lang.OpAdd:
			c.emit(isa.EncodeI(isa.OpADDI, target, varReg, constNode.Value))
		case lang.OpSub:
			c.emit(isa.EncodeI(isa.OpADDI, target, varReg, -constNode.Value))
		default:
			return &CompileError{Message: "unknown BinOp operator"}
		}
		return nil

	case lang.CmpZero, lang.Cmp:
		// Condition used in expression position: target = (cond ? 1 : 0).
		// Only Z may be clobbered between the comparison and the branch.
		c.emit(isa.EncodeI(isa.OpADDI, target, R0, 0))
		falseLabel := c.newLabel("cond_false")
		if err := c.emitCondBranch(e, falseLabel); err != nil {
			return err
		}
		c.emit(isa.EncodeI(isa.OpADDI, target, R0, 1))
		c.markLabel(falseLabel)
		return nil

	default:
		return &CompileError{Message: fmt.Sprintf("unknown expr: %T", e)}
	}
}

// compileCond lowers a condition with the branch-if-false policy (spec
// section 4.7): it emits the comparison and a conditional jump to a
// label that is returned to the caller to be marked at the right place
// (loop end / else / if-end). Implements section 4.8's If/else lowering
// and section 4.9's Cmp variants.
func (c *Compiler) compileCond(cond lang.Expr) (string, error) {
	falseLabel := c.newLabel("false")
	if err := c.emitCondBranch(cond, falseLabel); err != nil {
		return "", err
	}
	return falseLabel, nil
}

// emitCondBranch emits the compare + conditional jump to falseLabel for
// cond, without allocating or marking the label itself.
func (c *Compiler) emitCondBranch(cond lang.Expr, falseLabel string) error {
	switch cn := cond.(type) {
	case lang.CmpZero:
		r, err := c.regForExpr(cn.Expr)
		if err != nil {
			return err
		}
		c.emit(isa.EncodeI(isa.OpCMPI, 0, r, 0))
		switch cn.Op {
		case lang.CmpNeq:
			c.emitPatch(patchJz, falseLabel)
		case lang.CmpEq:
			c.emitPatch(patchJnz, falseLabel)
		default:
			return &CompileError{Message: "unknown CmpZero operator"}
		}
		return nil

	case lang.Cmp:
		if _, leftIsConst := cn.Left.(lang.Const); leftIsConst {
			return &CompileError{Message: "Cmp(Const, op, Var) is not supported"}
		}

		leftVar, leftIsVar := cn.Left.(lang.Var)
		if !leftIsVar {
			return &CompileError{Message: "unsupported Cmp left operand shape"}
		}
		leftReg, err := c.regOf(leftVar.Name)
		if err != nil {
			return err
		}

		switch right := cn.Right.(type) {
		case lang.Var:
			rightReg, err := c.regOf(right.Name)
			if err != nil {
				return err
			}
			c.emit(isa.EncodeR(isa.OpCMP, 0, leftReg, rightReg))
		case lang.Const:
			c.emit(isa.EncodeI(isa.OpCMPI, 0, leftReg, right.Value))
		default:
			return &CompileError{Message: "unsupported Cmp right operand shape"}
		}

		switch cn.Op {
		case lang.CmpNeq:
			c.emitPatch(patchJz, falseLabel)
		case lang.CmpEq:
			c.emitPatch(patchJnz, falseLabel)
		default:
			return &CompileError{Message: "unknown Cmp operator"}
		}
		return nil

	default:
		return &CompileError{Message: fmt.Sprintf("unsupported condition node %T", cond)}
	}
}

// regForExpr returns a register holding e's value: a bare Var's own
// register directly (no copy emitted), or a fresh temporary materialized
// via compileExpr for anything else.
func (c *Compiler) regForExpr(e lang.Expr) (int, error) {
	if v, ok := e.(lang.Var); ok {
		return c.regOf(v.Name)
	}
	tempReg, err := c.regOf(c.newTempName())
	if err != nil {
		return 0, err
	}
	if err := c.compileExpr(e, tempReg); err != nil {
		return 0, err
	}
	return tempReg, nil
}
