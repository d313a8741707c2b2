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

package isa

import "testing"

func TestEncodeDecodeR(t *testing.T) {
	cases := []struct {
		op             Op
		rd, rs1, rs2   int
	}{
		{OpADD, 1, 2, 3},
		{OpSUB, 7, 0, 7},
		{OpCMP, 0, 4, 5},
	}

	for _, c := range cases {
		w := EncodeR(c.op, c.rd, c.rs1, c.rs2)
		if got := DecodeOpcode(w); got != c.op {
			t.Errorf("DecodeOpcode(%04x) = %v, want %v", w, got, c.op)
		}
		rd, rs1, rs2 := DecodeR(w)
		if c.op != OpCMP && rd != c.rd {
			t.Errorf("rd = %d, want %d", rd, c.rd)
		}
		if rs1 != c.rs1 || rs2 != c.rs2 {
			t.Errorf("DecodeR(%04x) = (%d,%d,%d), want rs1=%d rs2=%d", w, rd, rs1, rs2, c.rs1, c.rs2)
		}
	}
}

func TestEncodeDecodeIRoundTrip(t *testing.T) {
	for imm := -32; imm <= 31; imm++ {
		w := EncodeI(OpADDI, 3, 4, imm)
		rd, rs, gotImm := DecodeI(w)
		if rd != 3 || rs != 4 {
			t.Fatalf("imm=%d: DecodeI(%04x) = (%d,%d,%d)", imm, w, rd, rs, gotImm)
		}
		if gotImm != imm {
			t.Errorf("imm=%d round-trip got %d", imm, gotImm)
		}
	}
}

func TestEncodeDecodeJRoundTrip(t *testing.T) {
	for off := -2048; off <= 2047; off++ {
		w := EncodeJ(OpJMP, off)
		if got := DecodeJ(w); got != off {
			t.Errorf("off=%d round-trip got %d", off, got)
		}
	}
}

func TestImmediateTruncatesOutOfRange(t *testing.T) {
	// Documented behavior: out-of-range immediates silently truncate
	// rather than erroring (spec section 4.2/9).
	w := EncodeI(OpADDI, 0, 0, 100) // doesn't fit in 6 bits
	_, _, imm := DecodeI(w)
	if imm == 100 {
		t.Fatalf("expected truncation, got exact value back")
	}
}

func TestMnemonicReservedOpcode(t *testing.T) {
	for _, code := range []Op{10, 11, 12, 13, 14} {
		if m := code.Mnemonic(); m != "RSVD" {
			t.Errorf("opcode %d: Mnemonic() = %q, want RSVD", code, m)
		}
	}
}

func TestDisassemble(t *testing.T) {
	cases := []struct {
		word uint16
		want string
	}{
		{EncodeI(OpADDI, 1, 1, 1), "ADDI R1, R1, #1"},
		{EncodeJ(OpJMP, -2), "JMP -2"},
		{EncodeJ(OpHALT, 0), "HALT"},
	}
	for _, c := range cases {
		if got := Disassemble(c.word); got != c.want {
			t.Errorf("Disassemble(%04x) = %q, want %q", c.word, got, c.want)
		}
	}
}
