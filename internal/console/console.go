// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OpenPark Contributors

// Package console provides the interactive console surface that the
// scripting host and game commands write to.
package console

import (
	"fmt"
	"io"
	"sync"
)

// Console receives human-readable output lines. Error lines are kept
// distinct from normal output so front ends can classify them.
type Console interface {
	WriteLine(s string)
	WriteLineError(s string)
}

// Writer is a Console backed by an io.Writer, typically stdout.
// It is safe for concurrent use.
type Writer struct {
	out io.Writer
	mu  sync.Mutex
}

// NewWriter creates a Console writing to out.
func NewWriter(out io.Writer) *Writer {
	return &Writer{out: out}
}

// WriteLine writes a normal output line.
func (w *Writer) WriteLine(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	//nolint:errcheck // console output write errors are not actionable
	fmt.Fprintln(w.out, s)
}

// WriteLineError writes an error-classified line.
func (w *Writer) WriteLineError(s string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	//nolint:errcheck // console output write errors are not actionable
	fmt.Fprintln(w.out, "error: "+s)
}

// Buffer is a Console that records lines in memory. Used by tests and
// by the REPL integration suite to assert output ordering.
type Buffer struct {
	mu    sync.Mutex
	lines []Line
}

// Line is one recorded console line.
type Line struct {
	Text  string
	IsErr bool
}

// NewBuffer creates an empty recording console.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// WriteLine records a normal line.
func (b *Buffer) WriteLine(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, Line{Text: s})
}

// WriteLineError records an error line.
func (b *Buffer) WriteLineError(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, Line{Text: s, IsErr: true})
}

// Lines returns a copy of all recorded lines in write order.
func (b *Buffer) Lines() []Line {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Line, len(b.lines))
	copy(out, b.lines)
	return out
}

// Reset discards all recorded lines.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = nil
}
