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

// Package machine wires a CPU to a Bus and drives it: reset, ROM loading,
// and the three stepping entry points a host program uses (single step,
// a bounded number of steps, and one frame's worth of steps).
package machine

import (
	"github.com/master-g/retro16/internal/retrolog"
	"github.com/master-g/retro16/pkg/bus"
	"github.com/master-g/retro16/pkg/cpu"
)

// FrameBudget is the hard step ceiling for RunFrame, matching spec
// section 4.4.
const FrameBudget = 10000

// Machine owns one Bus and the CPU wired to it.
type Machine struct {
	Bus *bus.Bus
	CPU *cpu.CPU

	Cycles uint64
}

// New returns a freshly wired, reset Machine.
func New() *Machine {
	b := bus.New()
	c := cpu.New(b)
	m := &Machine{Bus: b, CPU: c}
	m.Reset()
	return m
}

// SetLogger installs the trace logger used when stepping with trace=true.
func (m *Machine) SetLogger(l retrolog.Logger) {
	m.CPU.SetLogger(l)
}

// Reset zeroes registers, flags, PC, the halted bit, and the cycle
// counter. It does not clear Bus memory; a loaded ROM survives a reset,
// matching the original simulator's reset() semantics.
func (m *Machine) Reset() {
	m.CPU.Reset()
	m.Cycles = 0
}

// LoadROM copies data into Bus memory starting at addr, bypassing ROM
// write protection.
func (m *Machine) LoadROM(data []byte, addr int) {
	m.Bus.LoadROM(data, addr)
}

// RunStep advances exactly one instruction if the CPU is not halted. It
// is a no-op, not an error, once halted.
func (m *Machine) RunStep(trace bool) error {
	if m.CPU.Halted {
		return nil
	}
	cost, err := m.CPU.Step(trace)
	m.Cycles += uint64(cost)
	return err
}

// RunNSteps advances up to n instructions, stopping early if the CPU
// halts or a fatal CPU error occurs.
func (m *Machine) RunNSteps(n int, trace bool) error {
	for i := 0; i < n; i++ {
		if m.CPU.Halted {
			return nil
		}
		if err := m.RunStep(trace); err != nil {
			return err
		}
	}
	return nil
}

// RunFrame advances up to FrameBudget instructions or until halt,
// whichever comes first.
func (m *Machine) RunFrame() error {
	return m.RunNSteps(FrameBudget, false)
}

// BuildROM serializes a sequence of 16-bit instruction words into a flat
// little-endian byte stream: no header, no checksum (spec section 6).
func BuildROM(words []uint16) []byte {
	out := make([]byte, 0, len(words)*2)
	for _, w := range words {
		out = append(out, byte(w&0xFF), byte((w>>8)&0xFF))
	}
	return out
}

// WordsFromROM is the inverse of BuildROM, used by tests and the
// disassembly CLI path to recover the original word sequence from a byte
// stream produced by BuildROM.
func WordsFromROM(data []byte) []uint16 {
	words := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		words = append(words, uint16(data[i])|uint16(data[i+1])<<8)
	}
	return words
}
