package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/lexer"
)

// declaration is the top-level statement dispatch, covering forms that
// introduce a new name (def/class/import) before falling through to
// plain statements.
func (c *Compiler) declaration() {
	switch {
	case c.check(lexer.TokenDef):
		c.defDeclaration()
	case c.check(lexer.TokenClass):
		c.classDeclaration()
	case c.check(lexer.TokenImport):
		c.importStatement()
	case c.check(lexer.TokenFrom):
		c.fromImportStatement()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) statement() {
	switch {
	case c.check(lexer.TokenIf):
		c.ifStatement()
	case c.check(lexer.TokenWhile):
		c.whileStatement()
	case c.check(lexer.TokenFor):
		c.forInStatement()
	case c.check(lexer.TokenBreak):
		c.breakStatement()
	case c.check(lexer.TokenContinue):
		c.continueStatement()
	case c.check(lexer.TokenReturn):
		c.returnStatement()
	case c.check(lexer.TokenYield):
		c.yieldStatement()
	default:
		c.expressionStatement()
	}
}

// block compiles statements until one of the given terminator keywords
// is the current token (left unconsumed so the caller can match it).
func (c *Compiler) block(terminators ...lexer.TokenType) {
	c.skipLines()
	for !c.check(lexer.TokenEOF) && !c.atAny(terminators) {
		c.declaration()
		c.skipLines()
	}
}

func (c *Compiler) atAny(types []lexer.TokenType) bool {
	for _, t := range types {
		if c.check(t) {
			return true
		}
	}
	return false
}

func (c *Compiler) expressionStatement() {
	c.lastCallPos = -1
	c.declaredLocal = false
	c.parsePrecedence(PrecOr)
	if c.replMode && c.fs.enclosing == nil {
		c.emitOp(bytecode.ReplPrint)
	}
	if !c.declaredLocal {
		// A fresh local's value stays behind as its stack slot; every
		// other expression result is discarded here.
		c.emitOp(bytecode.Pop)
	}
	c.endOfStatement()
}

// endOfStatement returns when a LINE or EOF follows. It reports no error
// for any other following token: that token is left for the caller's next
// parse step (inside a block, block() checks for its terminator on the
// next loop iteration).
func (c *Compiler) endOfStatement() {
	if c.check(lexer.TokenLine) || c.check(lexer.TokenEOF) {
		return
	}
}

// ---- control flow (spec §4.6) ---------------------------------------

func (c *Compiler) ifStatement() {
	c.advance() // 'if'
	c.parseExpression()
	c.consume(lexer.TokenThen, "expected 'then' after condition")

	elseJump := c.emitJump(bytecode.JumpIfNot)
	c.fs.beginScope()
	c.block(lexer.TokenElsif, lexer.TokenElse, lexer.TokenEnd)
	c.popScopeLocals(c.fs.endScope())

	endJumps := []int{}

	for c.check(lexer.TokenElsif) {
		endJumps = append(endJumps, c.emitJump(bytecode.Jump))
		c.patchJump(elseJump)
		c.advance() // 'elsif'
		c.parseExpression()
		c.consume(lexer.TokenThen, "expected 'then' after condition")
		elseJump = c.emitJump(bytecode.JumpIfNot)
		c.fs.beginScope()
		c.block(lexer.TokenElsif, lexer.TokenElse, lexer.TokenEnd)
		c.popScopeLocals(c.fs.endScope())
	}

	if c.check(lexer.TokenElse) {
		endJumps = append(endJumps, c.emitJump(bytecode.Jump))
		c.patchJump(elseJump)
		c.advance() // 'else'
		c.fs.beginScope()
		c.block(lexer.TokenEnd)
		c.popScopeLocals(c.fs.endScope())
	} else {
		c.patchJump(elseJump)
	}

	c.consume(lexer.TokenEnd, "expected 'end' to close 'if'")
	for _, j := range endJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) popScopeLocals(n int) {
	for i := 0; i < n; i++ {
		c.emitOp(bytecode.Pop)
	}
}

func (c *Compiler) whileStatement() {
	c.advance() // 'while'
	loopStart := c.code().Len()
	c.parseExpression()
	exitJump := c.emitJump(bytecode.JumpIfNot)

	ls := c.fs.pushLoop()
	ls.continueTarget = loopStart

	c.fs.beginScope()
	c.block(lexer.TokenEnd)
	n := c.fs.endScope()
	c.popScopeLocals(n)

	c.emitLoopJump(loopStart)
	c.patchJump(exitJump)
	for _, j := range ls.breakJumps {
		c.patchJump(j)
	}
	c.fs.popLoop()

	c.consume(lexer.TokenEnd, "expected 'end' to close 'while'")
}

// forInStatement desugars `for name in expr ... end` using three hidden
// locals (@seq, @iter, the named iteration variable) and the
// ITER_TEST/ITER opcode pair (spec §4.6).
func (c *Compiler) forInStatement() {
	c.advance() // 'for'
	c.consume(lexer.TokenName, "expected loop variable name")
	varName := c.prev.Lexeme
	c.consume(lexer.TokenIn, "expected 'in' after loop variable")

	c.fs.beginScope()

	seqSlot, _ := c.fs.declareLocal("@seq")
	c.fs.defineLocal(seqSlot)
	c.parseExpression()
	c.emitOp(bytecode.IterTest)

	iterSlot, _ := c.fs.declareLocal("@iter")
	c.fs.defineLocal(iterSlot)
	c.emitOp(bytecode.PushNull)

	varSlot, _ := c.fs.declareLocal(varName)
	c.fs.defineLocal(varSlot)
	c.emitOp(bytecode.PushNull)

	loopStart := c.code().Len()
	c.emitOp(bytecode.Iter)
	c.emitByte(byte(varSlot))
	exitPos := c.emitShort(0)

	ls := c.fs.pushLoop()
	ls.continueTarget = loopStart

	c.block(lexer.TokenEnd)
	c.emitLoopJump(loopStart)

	c.patchJump(exitPos)
	for _, j := range ls.breakJumps {
		c.patchJump(j)
	}
	c.fs.popLoop()

	c.consume(lexer.TokenEnd, "expected 'end' to close 'for'")

	n := c.fs.endScope()
	c.popScopeLocals(n)
}

func (c *Compiler) breakStatement() {
	c.advance()
	if c.fs.loop == nil {
		c.errAt(c.prev, "'break' outside a loop")
		return
	}
	c.emitLoopScopePops(c.fs.loop.scopeDepth)
	pos := c.emitJump(bytecode.Jump)
	c.fs.loop.breakJumps = append(c.fs.loop.breakJumps, pos)
}

func (c *Compiler) continueStatement() {
	c.advance()
	if c.fs.loop == nil {
		c.errAt(c.prev, "'continue' outside a loop")
		return
	}
	c.emitLoopScopePops(c.fs.loop.scopeDepth)
	c.emitLoopJump(c.fs.loop.continueTarget)
}

// emitLoopScopePops pops every local declared since the loop was
// entered (spec §4.6 "walk loops' locals and emit pops (using
// CLOSE_UPVALUE for captured locals, POP otherwise) before the jump").
func (c *Compiler) emitLoopScopePops(loopDepth int) {
	for i := len(c.fs.locals) - 1; i >= 0 && c.fs.locals[i].depth > loopDepth; i-- {
		if c.fs.locals[i].isCaptured {
			c.emitOp(bytecode.CloseUpvalue)
		} else {
			c.emitOp(bytecode.Pop)
		}
	}
}

func (c *Compiler) returnStatement() {
	c.advance()
	if c.fs.enclosing == nil {
		c.errAt(c.prev, "'return' outside a function")
	}
	if c.check(lexer.TokenLine) || c.check(lexer.TokenEnd) || c.check(lexer.TokenEOF) {
		c.emitOp(bytecode.PushNull)
		c.emitOp(bytecode.Return)
		return
	}
	c.lastCallPos = -1
	c.parseExpression()
	// Only a CALL that is the very last emission is in tail position;
	// `return f(x) + g(y)` must keep both calls ordinary.
	if c.lastCallPos >= 0 && c.code().Len() == c.lastCallPos+2 {
		c.rewriteTailCall(c.lastCallPos)
	}
	c.emitOp(bytecode.Return)
}

// yieldStatement compiles `yield expr` as a call to the current fiber's
// implicit yield surface: the VM recognizes this shape at CALL time
// through the builtin registry (spec §4.9's host/embedding boundary), so
// at the bytecode level a bare `yield` is just sugar for an expression
// statement wrapping the builtin `yield` function call.
func (c *Compiler) yieldStatement() {
	c.advance()
	c.emitLoadName("yield", c.prev.Line)
	argc := 0
	if !c.check(lexer.TokenLine) && !c.check(lexer.TokenEOF) && !c.check(lexer.TokenEnd) {
		c.parseExpression()
		argc = 1
	}
	c.emitOp(bytecode.Call)
	c.emitByte(byte(argc))
	c.emitOp(bytecode.Pop)
}


