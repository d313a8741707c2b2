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

// Package isa defines the retro16 instruction word layout: opcode table,
// bit masks/shifts, and the encode/decode functions shared by the CPU's
// decode stage and the assembler/compiler's code generator. Nothing here
// touches CPU or Bus state; it is pure bit manipulation over a single word.
package isa

import "fmt"

// Word is an unsigned 16-bit machine word. All arithmetic on it is modulo
// 2^16; callers mask with WordMask after any computation that might
// overflow.
type Word = uint16

// Bit widths and masks for the instruction word layout (spec section 3).
const (
	WordMask  = 0xFFFF
	ByteMask  = 0xFF
	ByteBits  = 8
	AddrMask  = 0xFFFF
	NegBit16  = 0x8000 // bit 15, used as the N-flag source and for sign tests

	OpcodeShift = 12
	OpcodeMask  = 0xF

	RegMask     = 0x7 // 3-bit register field
	RegShiftRd  = 9
	RegShiftRs1 = 6
	RegShiftRs2 = 3

	Imm6Mask   = 0x3F // 6-bit immediate/offset field
	Imm6Sign   = 0x20 // bit 5, sign bit of a 6-bit field

	Off12Mask = 0xFFF // 12-bit jump offset field
	Off12Sign = 0x800 // bit 11, sign bit of a 12-bit field
)

// Op is the 4-bit opcode enumeration. Codes are part of the ROM binary
// contract and must never be renumbered.
type Op uint8

const (
	OpADD  Op = 0
	OpSUB  Op = 1
	OpADDI Op = 2
	OpLD   Op = 3
	OpST   Op = 4
	OpJMP  Op = 5
	OpJZ   Op = 6
	OpCMP  Op = 7
	OpCMPI Op = 8
	OpJNZ  Op = 9
	OpHALT Op = 15
)

// Mnemonic returns the assembly mnemonic for op, or "RSVD" for an opcode
// with no assigned meaning.
func (op Op) Mnemonic() string {
	switch op {
	case OpADD:
		return "ADD"
	case OpSUB:
		return "SUB"
	case OpADDI:
		return "ADDI"
	case OpLD:
		return "LD"
	case OpST:
		return "ST"
	case OpJMP:
		return "JMP"
	case OpJZ:
		return "JZ"
	case OpCMP:
		return "CMP"
	case OpCMPI:
		return "CMPI"
	case OpJNZ:
		return "JNZ"
	case OpHALT:
		return "HALT"
	default:
		return "RSVD"
	}
}

func (op Op) String() string { return op.Mnemonic() }

// UnknownOpcodeError is returned by the CPU when fetch hits a reserved
// opcode; it is fatal and carries the PC of the offending fetch.
type UnknownOpcodeError struct {
	Opcode Op
	PC     uint16
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("isa: unknown opcode %d at pc=%#04x", e.Opcode, e.PC)
}

func opcodeField(op Op) Word {
	return Word(op&OpcodeMask) << OpcodeShift
}

// EncodeR packs an R-form word (ADD, SUB, CMP). rd is ignored by the CPU
// when executing CMP but is still encoded verbatim; callers pass 0 for it
// by convention.
func EncodeR(op Op, rd, rs1, rs2 int) Word {
	return opcodeField(op) |
		Word(rd&RegMask)<<RegShiftRd |
		Word(rs1&RegMask)<<RegShiftRs1 |
		Word(rs2&RegMask)<<RegShiftRs2
}

// EncodeI packs an I-form word (ADDI, CMPI). imm is masked to 6 bits;
// negative values are truncated to their two's-complement low bits and
// the decoder reinterprets the sign. Out-of-range immediates silently
// truncate — this is documented behavior, not an error.
func EncodeI(op Op, rd, rs, imm int) Word {
	return opcodeField(op) |
		Word(rd&RegMask)<<RegShiftRd |
		Word(rs&RegMask)<<RegShiftRs1 |
		Word(imm)&Imm6Mask
}

// EncodeM packs an M-form word (LD, ST). r is rd for LD, rs for ST.
func EncodeM(op Op, r, base, off int) Word {
	return opcodeField(op) |
		Word(r&RegMask)<<RegShiftRd |
		Word(base&RegMask)<<RegShiftRs1 |
		Word(off)&Imm6Mask
}

// EncodeJ packs a J-form word (JMP, JZ, JNZ, HALT). offWords is in
// instruction-word units, not bytes; the CPU multiplies by 2 at PC
// update time.
func EncodeJ(op Op, offWords int) Word {
	return opcodeField(op) | Word(offWords)&Off12Mask
}

// DecodeOpcode extracts the opcode field (bits 15..12).
func DecodeOpcode(instr Word) Op {
	return Op((instr >> OpcodeShift) & OpcodeMask)
}

// signExtend interprets the low `bits`-wide field of v as two's-complement
// and sign-extends it to a plain Go int.
func signExtend(v Word, bits uint, signBit Word) int {
	field := int(v)
	if v&signBit != 0 {
		field -= 1 << bits
	}
	return field
}

// DecodeR splits an R-form word into (rd, rs1, rs2).
func DecodeR(instr Word) (rd, rs1, rs2 int) {
	rs2 = int((instr >> RegShiftRs2) & RegMask)
	rs1 = int((instr >> RegShiftRs1) & RegMask)
	rd = int((instr >> RegShiftRd) & RegMask)
	return
}

// DecodeI splits an I-form word into (rd, rs, imm), sign-extending imm
// from 6 bits.
func DecodeI(instr Word) (rd, rs, imm int) {
	imm = signExtend(instr&Imm6Mask, 6, Imm6Sign)
	rs = int((instr >> RegShiftRs1) & RegMask)
	rd = int((instr >> RegShiftRd) & RegMask)
	return
}

// DecodeM splits an M-form word into (r, base, off), sign-extending off
// from 6 bits. Shares its bit layout with I-form; kept as a distinct
// function because the field names differ (spec section 3).
func DecodeM(instr Word) (r, base, off int) {
	rd, rs, imm := DecodeI(instr)
	return rd, rs, imm
}

// DecodeJ extracts the signed 12-bit word-unit offset of a J-form word.
func DecodeJ(instr Word) int {
	return signExtend(instr&Off12Mask, 12, Off12Sign)
}

// RegName returns the conventional Rn name for a 3-bit register index.
func RegName(r int) string {
	return fmt.Sprintf("R%d", r&RegMask)
}

// Disassemble renders a single decoded instruction word as a mnemonic
// and its operands, e.g. "ADDI R1, R1, #1" or "JMP -2". It is a pure
// function of the word alone — it has no access to register contents.
func Disassemble(instr Word) string {
	op := DecodeOpcode(instr)
	switch op {
	case OpADD, OpSUB:
		rd, rs1, rs2 := DecodeR(instr)
		return fmt.Sprintf("%s %s, %s, %s", op, RegName(rd), RegName(rs1), RegName(rs2))
	case OpCMP:
		_, rs1, rs2 := DecodeR(instr)
		return fmt.Sprintf("%s %s, %s", op, RegName(rs1), RegName(rs2))
	case OpADDI:
		rd, rs, imm := DecodeI(instr)
		return fmt.Sprintf("%s %s, %s, #%d", op, RegName(rd), RegName(rs), imm)
	case OpCMPI:
		_, rs, imm := DecodeI(instr)
		return fmt.Sprintf("%s %s, #%d", op, RegName(rs), imm)
	case OpLD:
		rd, base, off := DecodeM(instr)
		return fmt.Sprintf("%s %s, [%s, #%d]", op, RegName(rd), RegName(base), off)
	case OpST:
		rs, base, off := DecodeM(instr)
		return fmt.Sprintf("%s [%s, #%d], %s", op, RegName(base), off, RegName(rs))
	case OpJMP, OpJZ, OpJNZ:
		off := DecodeJ(instr)
		return fmt.Sprintf("%s %d", op, off)
	case OpHALT:
		return "HALT"
	default:
		return fmt.Sprintf("RSVD(%d) #%#04x", op, instr)
	}
}
