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

// Package cpu emulates the retro16 core: an 8-register, 16-bit fetch/
// decode/execute loop over a Bus, with Z/N/C/V flags updated per the
// formulae in spec section 4.3.
package cpu

import (
	"github.com/master-g/retro16/internal/retrolog"
	"github.com/master-g/retro16/pkg/isa"
)

// NumRegs is the size of the register file, R0..R7.
const NumRegs = 8

// SP is the register index future CALL/RET/PUSH/POP instructions would
// use as a stack pointer. No instruction in the current ISA touches it;
// the register allocator in pkg/compiler does not special-case it and
// hands it out to a program's seventh live name.
const SP = 7

// Bus is the memory interface the CPU fetches and accesses through. It is
// satisfied by *pkg/bus.Bus; kept as an interface so tests can substitute
// a bare byte slice.
type Bus interface {
	Load8(addr int) byte
	Store8(addr int, val byte)
	Load16(addr int) uint16
	Store16(addr int, val uint16)
}

// Flags holds the four condition bits.
type Flags struct {
	Z, N, C, V bool
}

// CPU is the register file, flags, program counter, and halted bit for
// one retro16 core. It holds no ownership over the Bus; Machine wires the
// two together.
type CPU struct {
	Reg     [NumRegs]uint16
	PC      uint16
	Flags   Flags
	Halted  bool
	Cycles  uint64

	bus    Bus
	logger retrolog.Logger
}

// New returns a CPU wired to bus, with a no-op trace logger.
func New(bus Bus) *CPU {
	return &CPU{bus: bus, logger: retrolog.Nop}
}

// SetLogger installs the logger used by Step when trace is true. A nil
// logger resets to the no-op default.
func (c *CPU) SetLogger(l retrolog.Logger) {
	if l == nil {
		l = retrolog.Nop
	}
	c.logger = l
}

// Reset zeroes registers, flags, PC, and the halted bit. It does not
// touch Bus memory.
func (c *CPU) Reset() {
	c.Reg = [NumRegs]uint16{}
	c.Flags = Flags{}
	c.PC = 0
	c.Halted = false
}

// fetch reads the word at PC and advances PC by 2, wrapping modulo 2^16.
func (c *CPU) fetch() uint16 {
	instr := c.bus.Load16(int(c.PC))
	c.PC = uint16((uint32(c.PC) + 2) & isa.WordMask)
	return instr
}

// Step executes exactly one instruction and returns the number of cycles
// it cost: 0 for HALT (including when the CPU is already halted — callers
// should check Halted before calling Step, as Machine does), 1 otherwise.
// A reserved opcode returns a non-nil *isa.UnknownOpcodeError and leaves
// the CPU state exactly as it was after the fetch (PC already advanced,
// per spec section 4.3 step 2).
func (c *CPU) Step(trace bool) (int, error) {
	if c.Halted {
		return 0, nil
	}

	pcBefore := c.PC
	instr := c.fetch()
	op := isa.DecodeOpcode(instr)

	if trace {
		c.traceLine(pcBefore, instr, op)
	}

	if op == isa.OpHALT {
		c.Halted = true
		return 0, nil
	}

	switch op {
	case isa.OpADD:
		c.execAdd(instr)
	case isa.OpSUB:
		c.execSub(instr)
	case isa.OpADDI:
		c.execAddi(instr)
	case isa.OpLD:
		c.execLd(instr)
	case isa.OpST:
		c.execSt(instr)
	case isa.OpJMP:
		c.execJmp(instr)
	case isa.OpJZ:
		c.execJz(instr)
	case isa.OpJNZ:
		c.execJnz(instr)
	case isa.OpCMP:
		c.execCmp(instr)
	case isa.OpCMPI:
		c.execCmpi(instr)
	default:
		return 0, &isa.UnknownOpcodeError{Opcode: op, PC: pcBefore}
	}

	return 1, nil
}

func (c *CPU) traceLine(pcBefore uint16, instr uint16, op isa.Op) {
	c.logger.Logf(
		"PC=%04X INSTR=%04X OP=%-4s REG=%04X %04X %04X %04X %04X %04X %04X %04X Z=%d N=%d C=%d V=%d",
		pcBefore, instr, op.Mnemonic(),
		c.Reg[0], c.Reg[1], c.Reg[2], c.Reg[3], c.Reg[4], c.Reg[5], c.Reg[6], c.Reg[7],
		b2i(c.Flags.Z), b2i(c.Flags.N), b2i(c.Flags.C), b2i(c.Flags.V),
	)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func wrap16(v int) uint16 {
	return uint16(v & isa.WordMask)
}

func isNeg(v uint16) bool {
	return v&isa.NegBit16 != 0
}

func (c *CPU) updateFlagsAdd(a, b, result uint16) {
	c.Flags.Z = result == 0
	c.Flags.N = isNeg(result)
	c.Flags.C = (int(a) + int(b)) > isa.WordMask
	sa, sb, sr := isNeg(a), isNeg(b), isNeg(result)
	c.Flags.V = sa == sb && sa != sr
}

func (c *CPU) updateFlagsSub(a, b, result uint16) {
	c.Flags.Z = result == 0
	c.Flags.N = isNeg(result)
	c.Flags.C = a >= b // C=1 means no borrow
	sa, sb, sr := isNeg(a), isNeg(b), isNeg(result)
	c.Flags.V = sa != sb && sa != sr
}

func (c *CPU) execAdd(instr uint16) {
	rd, rs1, rs2 := isa.DecodeR(instr)
	a, b := c.Reg[rs1], c.Reg[rs2]
	result := wrap16(int(a) + int(b))
	c.Reg[rd] = result
	c.updateFlagsAdd(a, b, result)
}

func (c *CPU) execAddi(instr uint16) {
	rd, rs, imm := isa.DecodeI(instr)
	a := c.Reg[rs]
	b := wrap16(imm)
	result := wrap16(int(a) + int(b))
	c.Reg[rd] = result
	c.updateFlagsAdd(a, b, result)
}

func (c *CPU) execSub(instr uint16) {
	rd, rs1, rs2 := isa.DecodeR(instr)
	a, b := c.Reg[rs1], c.Reg[rs2]
	result := wrap16(int(a) - int(b))
	c.Reg[rd] = result
	c.updateFlagsSub(a, b, result)
}

func (c *CPU) execCmp(instr uint16) {
	_, rs1, rs2 := isa.DecodeR(instr)
	a, b := c.Reg[rs1], c.Reg[rs2]
	result := wrap16(int(a) - int(b))
	c.updateFlagsSub(a, b, result)
}

func (c *CPU) execCmpi(instr uint16) {
	_, rs, imm := isa.DecodeI(instr)
	a := c.Reg[rs]
	b := wrap16(imm)
	result := wrap16(int(a) - int(b))
	c.updateFlagsSub(a, b, result)
}

func (c *CPU) execLd(instr uint16) {
	rd, base, off := isa.DecodeM(instr)
	addr := wrap16(int(c.Reg[base]) + off)
	val := c.bus.Load16(int(addr))
	c.Reg[rd] = val
	c.Flags.Z = val == 0
	c.Flags.N = isNeg(val)
	// C and V are intentionally left unchanged (spec section 4.3, 9).
}

func (c *CPU) execSt(instr uint16) {
	rs, base, off := isa.DecodeM(instr)
	addr := wrap16(int(c.Reg[base]) + off)
	c.bus.Store16(int(addr), c.Reg[rs])
}

func (c *CPU) branch(off int) {
	c.PC = wrap16(int(c.PC) + off*2)
}

func (c *CPU) execJmp(instr uint16) {
	c.branch(isa.DecodeJ(instr))
}

func (c *CPU) execJz(instr uint16) {
	off := isa.DecodeJ(instr)
	if c.Flags.Z {
		c.branch(off)
	}
}

func (c *CPU) execJnz(instr uint16) {
	off := isa.DecodeJ(instr)
	if !c.Flags.Z {
		c.branch(off)
	}
}
