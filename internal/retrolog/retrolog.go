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

// Package retrolog is a minimal injectable logging seam so pkg/cpu and
// pkg/machine never couple themselves to a concrete writer. Host programs
// (cmd/retro16, tests) supply their own Logger or take the no-op default.
package retrolog

import (
	"log"
	"os"
)

// Logger receives formatted trace/diagnostic lines.
type Logger interface {
	Logf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...any) {}

// Nop discards everything. It is the package default.
var Nop Logger = nopLogger{}

// StdLogger adapts the standard library *log.Logger to Logger.
type StdLogger struct {
	l *log.Logger
}

// NewStdLogger wraps a standard library logger writing to stderr with no
// prefix or flags, matching the plain trace-line format callers expect.
func NewStdLogger() *StdLogger {
	return &StdLogger{l: log.New(os.Stderr, "", 0)}
}

func (s *StdLogger) Logf(format string, args ...any) {
	s.l.Printf(format, args...)
}
