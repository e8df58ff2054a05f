// internal/compiler/compiler.go
//
// Adapted from the teacher's StmtCompiler (internal/compiler/
// stmt_compiler.go in sentra) — same emitOp/emitByte-with-debug-info
// style and locals/parent-chain bookkeeping — regrown around direct
// token-driven emission instead of walking a parsed AST, since the
// spec explicitly excludes an AST layer: no type here ever holds a
// parsed expression tree, only the current/previous token and the
// function buffer being emitted into.
package compiler

import (
	"fmt"

	"pocket/internal/bytecode"
	"pocket/internal/errors"
	"pocket/internal/lexer"
	"pocket/internal/object"
	"pocket/internal/value"
)

// BuiltinResolver looks up host-registered builtins by name (spec §4.6
// name-resolution's last tier, "builtin function registry"; spec §6.1
// "register builtin"). Declared here rather than imported from package
// vm to avoid a compiler<->vm import cycle; the VM implements it.
type BuiltinResolver interface {
	ResolveFn(name string) (index int, ok bool)
	ResolveType(name string) (index int, ok bool)
}

// pendingGlobalRef is one forward reference awaiting resolution once the
// whole module has been parsed (spec §4.6 "forward-name fixup").
type pendingGlobalRef struct {
	name string
	pos  int // operand position of the PUSH_GLOBAL byte
	line int
	file string
}

// Compiler compiles one module's source into its @main Closure plus any
// nested Fn constants it allocates along the way.
type Compiler struct {
	lex  *lexer.Lexer
	gc   *object.GC
	mod  *object.Module
	file string

	fn *object.Fn
	fs *funcScope

	prev, cur lexer.Token

	builtins BuiltinResolver

	pending []pendingGlobalRef

	hadError  bool
	panicMode bool
	errs      []*errors.PocketError

	debugMode   bool // disables tail-call rewriting when true (spec §4.6)
	replMode    bool // echo top-level expression results via REPL_PRINT
	lastCallPos int  // opcode position of the most recently emitted CALL, -1 if none

	// declaredLocal is set when the expression just parsed declared a
	// fresh local: its value on the stack IS the new local's slot, so the
	// statement-level POP must be suppressed (declaration-by-assignment,
	// spec §4.6).
	declaredLocal bool
}

// Compile compiles src as module's top-level body, returning the
// @main Closure (spec §4.4 "Module.body") or the accumulated compile
// errors.
func Compile(gc *object.GC, mod *object.Module, src, file string, builtins BuiltinResolver, debugMode bool) (*object.Closure, []*errors.PocketError) {
	return compile(gc, mod, src, file, builtins, debugMode, false)
}

// CompileREPL is Compile with the REPL echo enabled: every top-level
// expression statement additionally emits REPL_PRINT. As in Compile, an
// error at end-of-input is reported as UnexpectedEOF, which lets a REPL
// host keep reading lines (spec §7).
func CompileREPL(gc *object.GC, mod *object.Module, src, file string, builtins BuiltinResolver, debugMode bool) (*object.Closure, []*errors.PocketError) {
	return compile(gc, mod, src, file, builtins, debugMode, true)
}

func compile(gc *object.GC, mod *object.Module, src, file string, builtins BuiltinResolver, debugMode, replMode bool) (*object.Closure, []*errors.PocketError) {
	c := &Compiler{
		lex:       lexer.NewLexer(src, file),
		gc:        gc,
		mod:       mod,
		file:      file,
		builtins:  builtins,
		debugMode: debugMode,
		replMode:  replMode,
		lastCallPos: -1,
	}
	c.fn = object.NewFn(gc, "@main", mod, 0)
	c.fs = newFuncScope(nil, false)

	c.advance()
	c.skipLines()
	for !c.check(lexer.TokenEOF) {
		c.declaration()
		c.skipLines()
	}
	c.emitFunctionEnd()
	c.resolvePending()

	closure := object.NewClosure(gc, c.fn)
	if c.hadError {
		return closure, c.errs
	}
	return closure, nil
}

// ---- token stream -------------------------------------------------

func (c *Compiler) advance() {
	c.prev = c.cur
	for {
		c.cur = c.lex.Next()
		if c.cur.Type != lexer.TokenErr {
			break
		}
		c.errAt(c.cur, c.cur.Lexeme)
	}
}

func (c *Compiler) check(t lexer.TokenType) bool { return c.cur.Type == t }

func (c *Compiler) match(t lexer.TokenType) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t lexer.TokenType, msg string) {
	if c.cur.Type == t {
		c.advance()
		return
	}
	c.errAt(c.cur, msg)
}

// skipLines consumes zero or more statement-terminator LINE tokens,
// used between statements where blank lines are insignificant.
func (c *Compiler) skipLines() {
	for c.check(lexer.TokenLine) {
		c.advance()
	}
}

func (c *Compiler) errAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	kind := errors.CompileError
	if tok.Type == lexer.TokenEOF {
		// A statement ran off the end of the input: in REPL mode the
		// host treats this as "feed me more lines" (spec §7).
		kind = errors.UnexpectedEOF
	}
	c.errs = append(c.errs, errors.New(kind, msg, c.file, tok.Line, 0))
}

// synchronize discards tokens until a likely statement boundary, so one
// syntax error doesn't cascade into dozens (teacher's panicMode idiom,
// internal/parser).
func (c *Compiler) synchronize() {
	c.panicMode = false
	for !c.check(lexer.TokenEOF) {
		if c.prev.Type == lexer.TokenLine {
			return
		}
		switch c.cur.Type {
		case lexer.TokenDef, lexer.TokenFunc, lexer.TokenClass, lexer.TokenIf,
			lexer.TokenWhile, lexer.TokenFor, lexer.TokenReturn, lexer.TokenImport:
			return
		}
		c.advance()
	}
}

// ---- emission -------------------------------------------------------

func (c *Compiler) code() *bytecode.Code { return c.fn.Code }

func (c *Compiler) emitOp(op bytecode.Op) int { return c.code().WriteOp(op, c.prev.Line) }

func (c *Compiler) emitByte(b byte) int { return c.code().WriteByte(b, c.prev.Line) }

func (c *Compiler) emitShort(v uint16) int { return c.code().WriteShort(v, c.prev.Line) }

func (c *Compiler) emitOpByte(op bytecode.Op, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitOpShort(op bytecode.Op, v uint16) {
	c.emitOp(op)
	c.emitShort(v)
}

// emitJump writes op followed by a placeholder u16 offset, returning the
// position of that placeholder for patchJump.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	return c.emitShort(0)
}

// patchJump backpatches the jump at pos to target the current code
// position (spec §4.6 "patch_jump").
func (c *Compiler) patchJump(pos int) {
	target := c.code().Len()
	if target > 0xFFFF {
		c.errAt(c.prev, "jump target too far")
	}
	c.code().PatchShort(pos, uint16(target))
}

// emitLoopJump emits a backward LOOP to start (spec §4.6
// "emit_loop_jump").
func (c *Compiler) emitLoopJump(start int) {
	c.emitOp(bytecode.Loop)
	offset := c.code().Len() - start + 2
	if offset > 0xFFFF {
		c.errAt(c.prev, "loop body too large")
	}
	c.emitShort(uint16(offset))
}

// emitFunctionEnd terminates the current function with an implicit
// `return null` then the END sentinel (spec §4.6 "emit_function_end").
func (c *Compiler) emitFunctionEnd() {
	c.emitOp(bytecode.PushNull)
	c.emitOp(bytecode.Return)
	c.emitOp(bytecode.End)
}

// rewriteTailCall turns the most recently emitted CALL into a TAIL_CALL
// when a `return <call-expr>` is compiled (spec §4.6 TCO), unless
// debugMode disables it. pos is the opcode byte position of that CALL.
func (c *Compiler) rewriteTailCall(pos int) {
	if c.debugMode {
		return
	}
	if bytecode.Op(c.code().Ops[pos]) == bytecode.Call {
		c.code().Ops[pos] = byte(bytecode.TailCall)
	}
}

// ---- constants / names ---------------------------------------------

func (c *Compiler) addConstant(v value.Value) uint16 { return uint16(c.mod.AddConstant(v)) }

func (c *Compiler) addName(s string) uint16 { return uint16(c.mod.AddName(c.gc, s)) }

func (c *Compiler) constString(s string) uint16 {
	return c.addConstant(value.FromObj(object.NewString(c.gc, s)))
}

// resolvePending resolves every forward name reference recorded during
// the pass against the now-complete set of module globals (spec §4.6
// "after the module finishes parsing, each pending entry resolves
// against the now-complete globals; unresolved entries are compile
// errors").
func (c *Compiler) resolvePending() {
	for _, p := range c.pending {
		if idx, ok := c.mod.GetGlobalIndex(p.name); ok {
			c.code().Ops[p.pos] = byte(idx)
			continue
		}
		c.hadError = true
		c.errs = append(c.errs, errors.New(errors.NameError,
			fmt.Sprintf("undefined name %q", p.name), p.file, p.line, 0))
	}
}


