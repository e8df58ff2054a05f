// internal/errors/errors.go
//
// Adapted from the teacher's SentraError — same Type/Message/Location/
// CallStack/Source fields and With*/Add* builder methods — regrown
// around Pocket's own error categories (spec §4.6, §4.8, §5) and an
// ANSI-aware pretty-printer gated on github.com/mattn/go-isatty.
package errors

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Kind distinguishes the origin of a PocketError (spec §4.6 "compiler
// errors", §4.8 "runtime errors", §5 "fiber Error string").
type Kind string

const (
	CompileError  Kind = "CompileError"
	UnexpectedEOF Kind = "UnexpectedEOF" // REPL: caller should prompt for more input
	RuntimeError  Kind = "RuntimeError"
	TypeError     Kind = "TypeError"
	NameError     Kind = "NameError"
	ImportError   Kind = "ImportError"
)

// Location pinpoints a source position.
type Location struct {
	File   string
	Line   int
	Column int
}

// StackFrame is one entry of a runtime call-stack snapshot (spec §4.8
// "unwinds printing a trace of Fn name + line per frame").
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// PocketError is the error type threaded through the compiler and VM.
type PocketError struct {
	Kind      Kind
	Message   string
	Location  Location
	CallStack []StackFrame
	Source    string
}

func (e *PocketError) Error() string {
	var sb strings.Builder
	color := isatty.IsTerminal(os.Stderr.Fd())

	head := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if color {
		head = "\x1b[31;1m" + head + "\x1b[0m"
	}
	sb.WriteString(head)
	sb.WriteByte('\n')

	if e.Location.File != "" {
		sb.WriteString(fmt.Sprintf("  at %s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column))
		if e.Source != "" {
			prefix := fmt.Sprintf("  %d | ", e.Location.Line)
			sb.WriteString(prefix)
			sb.WriteString(e.Source)
			sb.WriteByte('\n')
			sb.WriteString(strings.Repeat(" ", len(prefix)))
			if e.Location.Column > 0 {
				sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			}
			caret := "^"
			if color {
				caret = "\x1b[32;1m^\x1b[0m"
			}
			sb.WriteString(caret)
			sb.WriteByte('\n')
		}
	}

	if len(e.CallStack) > 0 {
		sb.WriteString(fmt.Sprintf("\ncall stack (%d frames):\n", len(e.CallStack)))
		for _, f := range e.CallStack {
			if f.Function != "" {
				sb.WriteString(fmt.Sprintf("  at %s (%s:%d)\n", f.Function, f.File, f.Line))
			} else {
				sb.WriteString(fmt.Sprintf("  at %s:%d\n", f.File, f.Line))
			}
		}
	}
	return sb.String()
}

func New(kind Kind, message, file string, line, column int) *PocketError {
	return &PocketError{Kind: kind, Message: message, Location: Location{File: file, Line: line, Column: column}}
}

func (e *PocketError) WithSource(src string) *PocketError { e.Source = src; return e }

func (e *PocketError) WithStack(stack []StackFrame) *PocketError { e.CallStack = stack; return e }

func (e *PocketError) AddFrame(function, file string, line int) *PocketError {
	e.CallStack = append(e.CallStack, StackFrame{Function: function, File: file, Line: line})
	return e
}


