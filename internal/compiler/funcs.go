package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/lexer"
	"pocket/internal/object"
	"pocket/internal/value"
)

// compiledFn holds the result of compiling one function body: the Fn
// object itself plus the upvalue-capture list its enclosing scope must
// emit alongside PUSH_CLOSURE (spec §4.6 "func(params) ... end inside
// an expression emits PUSH_CLOSURE <const-index> followed by
// per-upvalue (is_immediate, index) pairs").
type compiledFn struct {
	fn       *object.Fn
	upvalues []upvalueRef
}

// compileFunctionBody switches the compiler into a fresh funcScope/Fn
// pair, parses a parenthesized parameter list, compiles the body until
// `end`, and restores the previous scope. Grounded on the teacher's
// VisitFunctionStmt sub-compiler swap (internal/compiler/stmt_compiler.go),
// generalized to single-pass emission.
func (c *Compiler) compileFunctionBody(name string, isMethod bool) compiledFn {
	enclosingFn, enclosingFs, savedLastCall := c.fn, c.fs, c.lastCallPos

	c.consume(lexer.TokenLParen, "expected '(' after function name")
	params := c.parseParamList()

	fn := object.NewFn(c.gc, name, c.mod, len(params))
	c.fn = fn
	c.fs = newFuncScope(enclosingFs, isMethod)
	c.lastCallPos = -1

	for _, p := range params {
		slot, _ := c.fs.declareLocal(p)
		c.fs.defineLocal(slot)
	}

	c.skipLines()
	c.block(lexer.TokenEnd)
	c.consume(lexer.TokenEnd, "expected 'end' to close function body")
	c.emitFunctionEnd()

	fn.UpvalueCount = len(c.fs.upvalues)
	upvalues := c.fs.upvalues

	c.fn, c.fs, c.lastCallPos = enclosingFn, enclosingFs, savedLastCall
	return compiledFn{fn: fn, upvalues: upvalues}
}

func (c *Compiler) parseParamList() []string {
	var params []string
	if !c.check(lexer.TokenRParen) {
		for {
			c.consume(lexer.TokenName, "expected parameter name")
			params = append(params, c.prev.Lexeme)
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRParen, "expected ')' after parameters")
	return params
}

// emitClosure pushes cf.fn as a constant and emits PUSH_CLOSURE plus its
// per-upvalue capture bytes.
func (c *Compiler) emitClosure(cf compiledFn) {
	idx := c.addConstant(value.FromObj(cf.fn))
	c.emitOpShort(bytecode.PushClosure, idx)
	for _, uv := range cf.upvalues {
		immediate := byte(0)
		if uv.isLocal {
			immediate = 1
		}
		c.emitByte(immediate)
		c.emitByte(byte(uv.index))
	}
}

// defDeclaration compiles `def name(params) ... end`. The global/local
// slot is reserved before the body compiles so recursive calls to name
// inside the body resolve immediately rather than through the pending-
// patch path (spec §4.6 forward-name fixup still covers mutual
// recursion across separate defs).
func (c *Compiler) defDeclaration() {
	c.advance() // 'def'
	c.consume(lexer.TokenName, "expected function name")
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

	cf := c.compileFunctionBody(name, false)
	c.emitClosure(cf)

	if isLocal {
		// A fresh local's closure value already sits at its slot; a
		// rebinding stores into the existing slot and drops the copy.
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

// parseFuncLiteral compiles the anonymous `func(params) ... end`
// expression form.
func parseFuncLiteral(c *Compiler, _ bool) {
	cf := c.compileFunctionBody("<anonymous>", false)
	c.emitClosure(cf)
}


