package compiler

import (
	"fmt"

	"pocket/internal/bytecode"
	"pocket/internal/lexer"
	"pocket/internal/value"
)

// atModuleScope reports whether the compiler is currently emitting the
// module's own top-level body (outside every def/func/method), where
// declaration-by-assignment defines a module global rather than a local
// (spec §4.6 "module (-2), global (-1), local (>=0)"; simplified here to
// two tiers since Pocket has no separate "module" vs "global" namespace
// beyond the one Module.Globals table).
func (c *Compiler) atModuleScope() bool {
	return c.fs.enclosing == nil && c.fs.scopeDepth == 0
}

// fastLocalOp returns the dedicated PUSH_LOCAL_n/STORE_LOCAL_n opcode
// for slot when slot <= 8, else ok=false and the caller falls back to
// the *_N form (spec §4.7 "Locals: PUSH_LOCAL_0..8, PUSH_LOCAL_N u8").
func fastLocalOp(slot int, push bool) (op bytecode.Op, ok bool) {
	if slot < 0 || slot > 8 {
		return 0, false
	}
	if push {
		return bytecode.PushLocal0 + bytecode.Op(slot), true
	}
	return bytecode.StoreLocal0 + bytecode.Op(slot), true
}

func (c *Compiler) emitPushLocal(slot int) {
	if op, ok := fastLocalOp(slot, true); ok {
		c.emitOp(op)
		return
	}
	c.emitOpByte(bytecode.PushLocalN, byte(slot))
}

func (c *Compiler) emitStoreLocal(slot int) {
	if op, ok := fastLocalOp(slot, false); ok {
		c.emitOp(op)
		return
	}
	c.emitOpByte(bytecode.StoreLocalN, byte(slot))
}

// resolveName walks the lookup order in spec §4.6: current function's
// locals -> enclosing-function upvalue chain -> module globals ->
// builtin registry.
type nameKind int

const (
	nameLocal nameKind = iota
	nameUpvalue
	nameGlobal
	nameBuiltinFn
	nameBuiltinTy
	nameUnresolved
)

func (c *Compiler) resolveName(name string) (kind nameKind, index int) {
	if slot, ok := c.fs.resolveLocal(name); ok {
		return nameLocal, slot
	}
	if slot, ok := c.fs.resolveUpvalue(name); ok {
		return nameUpvalue, slot
	}
	if idx, ok := c.mod.GetGlobalIndex(name); ok {
		return nameGlobal, idx
	}
	if c.builtins != nil {
		if idx, ok := c.builtins.ResolveFn(name); ok {
			return nameBuiltinFn, idx
		}
		if idx, ok := c.builtins.ResolveType(name); ok {
			return nameBuiltinTy, idx
		}
	}
	return nameUnresolved, 0
}

// emitLoadName reads name's current value onto the stack, recording a
// forward-reference fixup if it cannot yet be resolved (spec §4.6
// "forward-name fixup").
func (c *Compiler) emitLoadName(name string, line int) {
	switch kind, idx := c.resolveName(name); kind {
	case nameLocal:
		c.emitPushLocal(idx)
	case nameUpvalue:
		c.emitOpByte(bytecode.PushUpvalue, byte(idx))
	case nameGlobal:
		c.emitOpByte(bytecode.PushGlobal, byte(idx))
	case nameBuiltinFn:
		c.emitOpByte(bytecode.PushBuiltinFn, byte(idx))
	case nameBuiltinTy:
		c.emitOpByte(bytecode.PushBuiltinTy, byte(idx))
	default:
		pos := c.emitJumpAwarePushGlobalPlaceholder()
		c.pending = append(c.pending, pendingGlobalRef{name: name, pos: pos, line: line, file: c.file})
	}
}

// emitJumpAwarePushGlobalPlaceholder emits PUSH_GLOBAL with a zero
// operand byte to be patched once the name resolves (resolvePending).
func (c *Compiler) emitJumpAwarePushGlobalPlaceholder() int {
	c.emitOp(bytecode.PushGlobal)
	return c.emitByte(0)
}

// declareOrAssign writes the top-of-stack value into name, declaring it
// fresh if this is the first time it's seen in the current scope (spec
// §4.6 "declaration-by-assignment... the only way to declare
// variables").
func (c *Compiler) declareOrAssign(name string, line int) {
	if slot, ok := c.fs.resolveLocal(name); ok {
		c.emitStoreLocal(slot)
		return
	}
	if slot, ok := c.fs.resolveUpvalue(name); ok {
		c.emitOpByte(bytecode.StoreUpvalue, byte(slot))
		return
	}
	if c.atModuleScope() {
		idx := c.mod.SetGlobal(c.gc, name, value.Null)
		c.emitOpByte(bytecode.StoreGlobal, byte(idx))
		return
	}
	if idx, ok := c.mod.GetGlobalIndex(name); ok && !c.inAnyFunction() {
		c.emitOpByte(bytecode.StoreGlobal, byte(idx))
		return
	}
	slot, redeclared := c.fs.declareLocal(name)
	c.fs.defineLocal(slot)
	if redeclared {
		c.emitStoreLocal(slot)
		return
	}
	// Fresh declaration: the value already sits at the new local's slot
	// (top of stack); no store or pop needed, just keep it there.
	c.declaredLocal = true
}

// inAnyFunction reports whether compilation is nested inside a def/func
// body right now (used only to keep declareOrAssign's module-global
// fallback from firing inside nested functions).
func (c *Compiler) inAnyFunction() bool { return c.fs.enclosing != nil }

func (c *Compiler) errorf(line int, format string, args ...interface{}) {
	c.errAt(lexer.Token{Line: line}, fmt.Sprintf(format, args...))
}


