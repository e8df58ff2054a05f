package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/lexer"
	"pocket/internal/object"
	"pocket/internal/value"
)

// ctorMethodName is the reserved method slot the compiler binds a
// class's field-default initializer under. It is not a legal source
// identifier (leading `@` is reserved for getter/setter method names,
// spec §4.6 "specific method slots: _init, @getter, @setter, _repr,
// operators"), so it cannot collide with a user-defined method; the VM's
// BIND_METHOD handler special-cases this name to populate Class.Ctor
// instead of Class.Methods (see the BindMethod case in internal/vm/interp.go).
const ctorMethodName = "@ctor"

// classDeclaration compiles `class Name [is Super] ... end` (spec
// §4.6). Field defaults (`name = expr` at class-body scope) are
// compiled into a synthetic zero-arg constructor method bound under
// ctorMethodName; `def` bodies become ordinary methods bound by name.
// Grounded on the teacher's method-table pattern absent from sentra's
// own VisitClassStmt stub (internal/compiler/compiler.go) — regrown
// from spec §4.8's CALL-on-Class semantics ("invokes constructor,
// pushes new instance and runs _init if defined").
func (c *Compiler) classDeclaration() {
	c.advance() // 'class'
	c.consume(lexer.TokenName, "expected class name")
	name := c.prev.Lexeme

	var localSlot int
	var isLocal, rebound bool
	if c.atModuleScope() {
		c.mod.SetGlobal(c.gc, name, value.Null)
	} else {
		localSlot, rebound = c.fs.declareLocal(name)
		c.fs.defineLocal(localSlot)
		isLocal = true
	}

	nameIdx := c.constString(name)
	if c.match(lexer.TokenIs) {
		c.consume(lexer.TokenName, "expected superclass name")
		c.emitLoadName(c.prev.Lexeme, c.prev.Line)
	} else {
		c.emitOp(bytecode.PushNull)
	}
	c.emitOpShort(bytecode.CreateClass, nameIdx)

	seenFields := map[string]bool{}
	seenMethods := map[string]bool{}

	enclosingFn, enclosingFs := c.fn, c.fs
	ctorFn := object.NewFn(c.gc, ctorMethodName, c.mod, 0)
	ctorFs := newFuncScope(enclosingFs, true)

	c.skipLines()
	for !c.check(lexer.TokenEnd) && !c.check(lexer.TokenEOF) {
		if c.check(lexer.TokenDef) {
			c.compileMethod(seenMethods)
		} else if c.check(lexer.TokenName) {
			c.advance()
			fname := c.prev.Lexeme
			if seenFields[fname] {
				c.errAt(c.prev, "duplicate field name in class body")
			}
			seenFields[fname] = true
			c.consume(lexer.TokenEq, "expected '=' in field default")
			c.fn, c.fs = ctorFn, ctorFs
			c.emitOp(bytecode.PushSelf)
			c.parseExpression()
			c.emitOpShort(bytecode.SetAttrib, c.addName(fname))
			c.emitOp(bytecode.Pop)
			c.fn, c.fs = enclosingFn, enclosingFs
		} else {
			c.errAt(c.cur, "expected a field default or method definition")
			c.advance()
		}
		c.skipLines()
	}

	c.fn, c.fs = ctorFn, ctorFs
	c.emitFunctionEnd()
	ctorFn.UpvalueCount = len(ctorFs.upvalues)
	c.fn, c.fs = enclosingFn, enclosingFs

	// Bind the synthetic constructor under the reserved slot.
	c.emitOpShort(bytecode.PushConstant, c.constString(ctorMethodName))
	c.emitClosure(compiledFn{fn: ctorFn, upvalues: ctorFs.upvalues})
	c.emitOp(bytecode.BindMethod)

	c.consume(lexer.TokenEnd, "expected 'end' to close class body")

	if isLocal {
		if rebound {
			c.emitStoreLocal(localSlot)
			c.emitOp(bytecode.Pop)
		}
		return
	}
	idx, _ := c.mod.GetGlobalIndex(name)
	c.emitOpByte(bytecode.StoreGlobal, byte(idx))
	c.emitOp(bytecode.Pop)
}

// compileMethod compiles one `def name(params) ... end` inside a class
// body and binds it by name onto the class value left on the operand
// stack by CreateClass.
func (c *Compiler) compileMethod(seen map[string]bool) {
	c.advance() // 'def'
	name := c.methodName()
	if seen[name] {
		c.errAt(c.prev, "duplicate method name in class body")
	}
	seen[name] = true

	cf := c.compileFunctionBody(name, true)
	c.emitOpShort(bytecode.PushConstant, c.constString(name))
	c.emitClosure(cf)
	c.emitOp(bytecode.BindMethod)
}

// methodName accepts a plain identifier or one of the overloadable
// operator slots (`+ - * / % ** == < <= > >=`, `[]`, `[]=`) as a method
// name inside a class body.
func (c *Compiler) methodName() string {
	switch c.cur.Type {
	case lexer.TokenName,
		lexer.TokenPlus, lexer.TokenMinus, lexer.TokenStar, lexer.TokenSlash,
		lexer.TokenPercent, lexer.TokenStarStar, lexer.TokenEqEq,
		lexer.TokenLT, lexer.TokenLE, lexer.TokenGT, lexer.TokenGE:
		c.advance()
		return c.prev.Lexeme
	case lexer.TokenLBracket:
		c.advance()
		c.consume(lexer.TokenRBracket, "expected ']' in operator method name")
		if c.match(lexer.TokenEq) {
			return "[]="
		}
		return "[]"
	}
	c.errAt(c.cur, "expected method name")
	return ""
}


