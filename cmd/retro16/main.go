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

// Command retro16 is a thin host around pkg/machine: it loads a ROM or
// compiles .s16 source, then runs, disassembles, or single-steps it. It
// does not reimplement any part of decode, flag computation, or code
// generation; all of that lives in the library packages and is tested
// there independent of this CLI.
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
	"gopkg.in/urfave/cli.v2"

	"github.com/master-g/retro16/internal/retrolog"
	"github.com/master-g/retro16/pkg/compiler"
	"github.com/master-g/retro16/pkg/isa"
	"github.com/master-g/retro16/pkg/lang"
	"github.com/master-g/retro16/pkg/machine"
)

func main() {
	app := &cli.App{
		Name:    "retro16",
		Usage:   "run, disassemble, or single-step retro16 programs",
		Version: "v0.1.0",
		Commands: []*cli.Command{
			runCommand(),
			disasmCommand(),
			debugCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadWords turns an input file into a ROM word sequence: compiled from
// .s16 source when asm is true, or read as a flat little-endian binary
// otherwise (spec section 6 ROM format).
func loadWords(path string, asm bool) ([]uint16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !asm {
		return machine.WordsFromROM(data), nil
	}

	prog, err := lang.ParseProgram(string(data))
	if err != nil {
		return nil, err
	}
	return compiler.CompileProgramToROM(prog)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "load and execute a ROM or .s16 source file",
		ArgsUsage: "<rom-or-source-file>",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "steps",
				Usage: "maximum number of instructions to execute",
				Value: machine.FrameBudget,
			},
			&cli.BoolFlag{
				Name:  "trace",
				Usage: "print one trace line per executed instruction",
			},
			&cli.BoolFlag{
				Name:  "asm",
				Usage: "treat the input as .s16 source and compile it first",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("run: missing <rom-or-source-file>", 1)
			}

			words, err := loadWords(path, c.Bool("asm"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			m := machine.New()
			if c.Bool("trace") {
				m.SetLogger(retrolog.NewStdLogger())
			}
			m.LoadROM(machine.BuildROM(words), 0)

			if err := m.RunNSteps(c.Int("steps"), c.Bool("trace")); err != nil {
				return cli.Exit(err.Error(), 1)
			}

			fmt.Printf("halted=%v pc=%#04x cycles=%d regs=%v flags=%+v\n",
				m.CPU.Halted, m.CPU.PC, m.Cycles, m.CPU.Reg, m.CPU.Flags)
			return nil
		},
	}
}

func disasmCommand() *cli.Command {
	return &cli.Command{
		Name:      "disasm",
		Usage:     "print the disassembly of every word in a ROM file",
		ArgsUsage: "<rom-file>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("disasm: missing <rom-file>", 1)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			for addr, w := range machine.WordsFromROM(data) {
				fmt.Printf("%04x: %04x  %s\n", addr*2, w, isa.Disassemble(w))
			}
			return nil
		},
	}
}

func debugCommand() *cli.Command {
	return &cli.Command{
		Name:      "debug",
		Usage:     "interactively single-step a ROM or .s16 source file",
		ArgsUsage: "<rom-or-source-file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "asm",
				Usage: "treat the input as .s16 source and compile it first",
			},
		},
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return cli.Exit("debug: missing <rom-or-source-file>", 1)
			}

			words, err := loadWords(path, c.Bool("asm"))
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			m := machine.New()
			m.LoadROM(machine.BuildROM(words), 0)

			return runDebugger(m)
		},
	}
}

// runDebugger drives a single-step session from raw terminal input:
// space or enter steps once, q quits. When stdin is not a terminal, e.g.
// when run from a script or test harness, it reads no input and instead
// steps until halt, printing the state after every step.
func runDebugger(m *machine.Machine) error {
	fd := int(os.Stdin.Fd())
	printState := func() {
		instr := m.Bus.Load16(int(m.CPU.PC))
		fmt.Printf("pc=%#04x next=%-24s halted=%v regs=%v flags=%+v\n",
			m.CPU.PC, isa.Disassemble(instr), m.CPU.Halted, m.CPU.Reg, m.CPU.Flags)
	}

	if !term.IsTerminal(fd) {
		printState()
		for !m.CPU.Halted {
			if err := m.RunStep(false); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			printState()
		}
		return nil
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer term.Restore(fd, oldState)

	fmt.Print("retro16 debugger: space/enter to step, q to quit\r\n")
	printState()

	buf := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(buf); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		switch buf[0] {
		case 'q', 'Q', 3: // 3 = Ctrl-C
			return nil
		case ' ', '\r', '\n':
			if m.CPU.Halted {
				continue
			}
			if err := m.RunStep(false); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			fmt.Print("\r\n")
			printState()
		}
	}
}
