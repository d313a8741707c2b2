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

// Package bus implements the flat 64 KiB byte-addressed memory that the
// CPU fetches instructions and data from. A future PPU/APU would attach
// here by address-range dispatch inside Load8/Store8, the same way the
// teacher's cartridge/PPU bus dispatches by address range; retro16 has no
// such peripheral today, so the dispatch is a single RAM array plus one
// write-protected ROM window.
package bus

import "github.com/master-g/retro16/pkg/isa"

// MemSize is the full 16-bit address space.
const MemSize = 1 << 16

// Bus owns the machine's entire address space. romStart/romEnd mark an
// inclusive write-protected window; by default it is empty (romStart >
// romEnd) so every address is writable, matching spec section 6's default.
type Bus struct {
	mem      [MemSize]byte
	romStart int
	romEnd   int
}

// New returns a Bus with no ROM protection (all memory writable).
func New() *Bus {
	return &Bus{romStart: 1, romEnd: 0}
}

// NewWithROMWindow returns a Bus whose [start, end] byte range silently
// rejects Store8/Store16 calls. start/end are inclusive.
func NewWithROMWindow(start, end int) *Bus {
	return &Bus{romStart: start, romEnd: end}
}

// Load8 reads one byte. addr is masked to the 16-bit address space.
func (b *Bus) Load8(addr int) byte {
	return b.mem[addr&isa.AddrMask]
}

// Store8 writes the low 8 bits of val, unless addr falls in the ROM
// window, in which case the call is a silent no-op.
func (b *Bus) Store8(addr int, val byte) {
	a := addr & isa.AddrMask
	if b.inROM(a) {
		return
	}
	b.mem[a] = val
}

// Load16 reads a little-endian 16-bit value with no alignment
// requirement; the address wraps independently for each byte.
func (b *Bus) Load16(addr int) uint16 {
	lo := b.Load8(addr)
	hi := b.Load8(addr + 1)
	return uint16(lo) | uint16(hi)<<isa.ByteBits
}

// Store16 writes a little-endian pair of bytes via two Store8 calls; each
// byte independently honors ROM protection.
func (b *Bus) Store16(addr int, val uint16) {
	b.Store8(addr, byte(val&isa.ByteMask))
	b.Store8(addr+1, byte((val>>isa.ByteBits)&isa.ByteMask))
}

func (b *Bus) inROM(addr int) bool {
	return b.romStart <= addr && addr <= b.romEnd
}

// LoadROM copies data into memory starting at addr, bypassing ROM
// protection: loading a ROM image is a privileged host operation, not a
// store performed by running code.
func (b *Bus) LoadROM(data []byte, addr int) {
	for i, v := range data {
		b.mem[(addr+i)&isa.AddrMask] = v
	}
}

// Reset zeroes the entire address space.
func (b *Bus) Reset() {
	for i := range b.mem {
		b.mem[i] = 0
	}
}
