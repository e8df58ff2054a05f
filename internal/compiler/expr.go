package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/lexer"
	"pocket/internal/value"
)

// ---- literals ---------------------------------------------------------

func parseNumber(c *Compiler, _ bool) {
	n := c.prev.Num
	switch n {
	case 0:
		c.emitOp(bytecode.PushZero)
	default:
		idx := c.addConstant(value.Num(n))
		c.emitOpShort(bytecode.PushConstant, idx)
	}
}

func parseString(c *Compiler, _ bool) {
	idx := c.constString(c.prev.Lexeme)
	c.emitOpShort(bytecode.PushConstant, idx)
}

// parseStringInterp compiles `"a " $name " b"` / `"a " ${expr} " b"`
// chains: the lexer already split them into STRING_INTERP, (NAME |
// expr-tokens), ..., STRING pieces (spec §4.5). Each interpolated
// expression is routed through the `str` builtin so non-string values
// render instead of failing string concatenation, then the pieces fold
// left with ADD. The bare `$name` form needs no special case here: the
// lexer emits exactly one NAME token before resuming the literal, so
// parseExpression stops at the following STRING chunk on its own.
func parseStringInterp(c *Compiler, _ bool) {
	idx := c.constString(c.prev.Lexeme)
	c.emitOpShort(bytecode.PushConstant, idx)
	for {
		c.emitLoadName("str", c.cur.Line)
		c.parseExpression()
		c.emitOp(bytecode.Call)
		c.emitByte(1)
		c.emitOpByte(bytecode.Add, 0)
		if c.check(lexer.TokenString) {
			c.advance()
			idx := c.constString(c.prev.Lexeme)
			c.emitOpShort(bytecode.PushConstant, idx)
			c.emitOpByte(bytecode.Add, 0)
			return
		}
		if !c.check(lexer.TokenStringInterp) {
			return
		}
		c.advance()
		idx := c.constString(c.prev.Lexeme)
		c.emitOpShort(bytecode.PushConstant, idx)
		c.emitOpByte(bytecode.Add, 0)
	}
}

// parseYield compiles `yield(expr)` in expression position: the
// resume's argument becomes the expression's value (spec §4.9 "a fiber
// may carry an optional yielded/returned value across the boundary").
func parseYield(c *Compiler, _ bool) {
	line := c.prev.Line
	c.emitLoadName("yield", line)
	argc := 0
	if c.match(lexer.TokenLParen) {
		argc = c.parseArgList()
	}
	c.emitOp(bytecode.Call)
	c.emitByte(byte(argc))
}

func parseLiteral(c *Compiler, _ bool) {
	switch c.prev.Type {
	case lexer.TokenTrue:
		c.emitOp(bytecode.PushTrue)
	case lexer.TokenFalse:
		c.emitOp(bytecode.PushFalse)
	case lexer.TokenNull:
		c.emitOp(bytecode.PushNull)
	}
}

func parseSelf(c *Compiler, _ bool) { c.emitOp(bytecode.PushSelf) }

// parseSuper compiles `super.method(args)` into SUPER_CALL (spec §4.7
// "SUPER_CALL u8 u16").
func parseSuper(c *Compiler, _ bool) {
	c.consume(lexer.TokenDot, "expected '.' after 'super'")
	c.consume(lexer.TokenName, "expected superclass method name")
	name := c.prev.Lexeme
	nameIdx := c.addName(name)
	c.emitOp(bytecode.PushSelf)
	argc := 0
	if c.match(lexer.TokenLParen) {
		argc = c.parseArgList()
	}
	c.emitOp(bytecode.SuperCall)
	c.emitByte(byte(argc))
	c.emitShort(nameIdx)
}

func parseGrouping(c *Compiler, _ bool) {
	c.parseExpression()
	c.consume(lexer.TokenRParen, "expected ')' after expression")
}

// ---- variables ----------------------------------------------------

func parseName(c *Compiler, canAssign bool) {
	name := c.prev.Lexeme
	line := c.prev.Line

	if canAssign && c.check(lexer.TokenEq) {
		c.advance()
		c.parseExpression()
		c.declareOrAssign(name, line)
		return
	}
	if canAssign && isAssignOp(c.cur.Type) {
		op := c.cur.Type
		c.advance()
		c.emitLoadName(name, line)
		c.parseExpression()
		emitCompoundOp(c, op)
		c.declareOrAssign(name, line)
		return
	}
	c.emitLoadName(name, line)
}

// ---- unary / binary -------------------------------------------------

func parseUnary(c *Compiler, _ bool) {
	op := c.prev.Type
	c.parsePrecedence(PrecUnary)
	switch op {
	case lexer.TokenPlus:
		c.emitOp(bytecode.Positive)
	case lexer.TokenMinus:
		c.emitOp(bytecode.Negative)
	case lexer.TokenNot:
		c.emitOp(bytecode.Not)
	case lexer.TokenTilde:
		c.emitOp(bytecode.BitNot)
	}
}

func parseBinary(c *Compiler, _ bool) {
	op := c.prev.Type
	rule := c.getRule(op)
	c.parsePrecedence(rule.prec + 1)
	switch op {
	case lexer.TokenPlus:
		c.emitOpByte(bytecode.Add, 0)
	case lexer.TokenMinus:
		c.emitOpByte(bytecode.Subtract, 0)
	case lexer.TokenStar:
		c.emitOpByte(bytecode.Multiply, 0)
	case lexer.TokenSlash:
		c.emitOpByte(bytecode.Divide, 0)
	case lexer.TokenStarStar:
		c.emitOpByte(bytecode.Exponent, 0)
	case lexer.TokenPercent:
		c.emitOpByte(bytecode.Mod, 0)
	case lexer.TokenAmp:
		c.emitOpByte(bytecode.BitAnd, 0)
	case lexer.TokenPipe:
		c.emitOpByte(bytecode.BitOr, 0)
	case lexer.TokenCaret:
		c.emitOpByte(bytecode.BitXor, 0)
	case lexer.TokenLShift:
		c.emitOpByte(bytecode.LShift, 0)
	case lexer.TokenRShift:
		c.emitOpByte(bytecode.RShift, 0)
	case lexer.TokenEqEq:
		c.emitOp(bytecode.EqEq)
	case lexer.TokenNotEq:
		c.emitOp(bytecode.NotEq)
	case lexer.TokenLT:
		c.emitOp(bytecode.Lt)
	case lexer.TokenLE:
		c.emitOp(bytecode.LtEq)
	case lexer.TokenGT:
		c.emitOp(bytecode.Gt)
	case lexer.TokenGE:
		c.emitOp(bytecode.GtEq)
	case lexer.TokenIn:
		c.emitOp(bytecode.In)
	case lexer.TokenIs:
		c.emitOp(bytecode.Is)
	}
}

// parseLogical compiles `and`/`or` using the dedicated short-circuit
// opcodes (spec §4.7 "OR/AND: peek top; OR branches on true without
// popping; AND on false; otherwise pops and continues"): the left
// operand is already on the stack as this infix handler's input.
func parseLogical(c *Compiler, _ bool) {
	op := c.prev.Type
	var jumpOp bytecode.Op
	if op == lexer.TokenAnd {
		jumpOp = bytecode.And
	} else {
		jumpOp = bytecode.Or
	}
	pos := c.emitJump(jumpOp)
	c.parsePrecedence(PrecAnd)
	c.patchJump(pos)
}

func parseRange(c *Compiler, _ bool) {
	c.parsePrecedence(PrecRange + 1)
	c.emitOp(bytecode.RangeOp)
}

// ---- postfix: call / subscript / attribute --------------------------

func (c *Compiler) parseArgList() int {
	argc := 0
	if !c.check(lexer.TokenRParen) {
		for {
			c.parseExpression()
			argc++
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRParen, "expected ')' after arguments")
	return argc
}

func parseCall(c *Compiler, _ bool) {
	argc := c.parseArgList()
	pos := c.emitOp(bytecode.Call)
	c.emitByte(byte(argc))
	c.lastCallPos = pos
}

func parseSubscript(c *Compiler, canAssign bool) {
	c.parseExpression()
	c.consume(lexer.TokenRBracket, "expected ']' after subscript")

	if canAssign && c.match(lexer.TokenEq) {
		c.parseExpression()
		c.emitOp(bytecode.SetSubscript)
		return
	}
	if canAssign && isAssignOp(c.cur.Type) {
		op := c.cur.Type
		c.advance()
		c.emitOp(bytecode.GetSubscriptKeep)
		c.parseExpression()
		emitCompoundOp(c, op)
		c.emitOp(bytecode.SetSubscript)
		return
	}
	c.emitOp(bytecode.GetSubscript)
}

// parseAttribute compiles `.name`, `.name = v`, `.name(args)` (method
// call, spec §4.7 "METHOD_CALL") and `.name op= v`.
func parseAttribute(c *Compiler, canAssign bool) {
	c.consume(lexer.TokenName, "expected attribute name after '.'")
	name := c.prev.Lexeme
	nameIdx := c.addName(name)

	if c.match(lexer.TokenLParen) {
		argc := c.parseArgList()
		c.emitOp(bytecode.MethodCall)
		c.emitByte(byte(argc))
		c.emitShort(nameIdx)
		return
	}
	if canAssign && c.match(lexer.TokenEq) {
		c.parseExpression()
		c.emitOpShort(bytecode.SetAttrib, nameIdx)
		return
	}
	if canAssign && isAssignOp(c.cur.Type) {
		op := c.cur.Type
		c.advance()
		c.emitOpShort(bytecode.GetAttribKeep, nameIdx)
		c.parseExpression()
		emitCompoundOp(c, op)
		c.emitOpShort(bytecode.SetAttrib, nameIdx)
		return
	}
	c.emitOpShort(bytecode.GetAttrib, nameIdx)
}

// emitCompoundOp emits the arithmetic/bitwise op a compound-assignment
// token stands for, with the in-place marker byte set (spec §4.7
// "trailing u8 on binary arithmetic ops marks an in-place compound-
// assignment form for diagnostics only").
func emitCompoundOp(c *Compiler, t lexer.TokenType) {
	switch t {
	case lexer.TokenPlusEq:
		c.emitOpByte(bytecode.Add, 1)
	case lexer.TokenMinusEq:
		c.emitOpByte(bytecode.Subtract, 1)
	case lexer.TokenStarEq:
		c.emitOpByte(bytecode.Multiply, 1)
	case lexer.TokenSlashEq:
		c.emitOpByte(bytecode.Divide, 1)
	case lexer.TokenPercentEq:
		c.emitOpByte(bytecode.Mod, 1)
	case lexer.TokenAmpEq:
		c.emitOpByte(bytecode.BitAnd, 1)
	case lexer.TokenPipeEq:
		c.emitOpByte(bytecode.BitOr, 1)
	case lexer.TokenCaretEq:
		c.emitOpByte(bytecode.BitXor, 1)
	case lexer.TokenLShiftEq:
		c.emitOpByte(bytecode.LShift, 1)
	case lexer.TokenRShiftEq:
		c.emitOpByte(bytecode.RShift, 1)
	}
}

// ---- containers -----------------------------------------------------

func parseListLiteral(c *Compiler, _ bool) {
	count := 0
	if !c.check(lexer.TokenRBracket) {
		c.skipLines()
		for {
			c.skipLines()
			c.parseExpression()
			count++
			c.skipLines()
			if !c.match(lexer.TokenComma) {
				break
			}
			c.skipLines()
			if c.check(lexer.TokenRBracket) {
				break
			}
		}
	}
	c.consume(lexer.TokenRBracket, "expected ']' after list elements")
	c.emitOpShort(bytecode.PushList, uint16(count))
}

func parseMapLiteral(c *Compiler, _ bool) {
	c.emitOp(bytecode.PushMap)
	if !c.check(lexer.TokenRBrace) {
		c.skipLines()
		for {
			c.skipLines()
			c.parseExpression()
			c.consume(lexer.TokenColon, "expected ':' in map literal")
			c.skipLines()
			c.parseExpression()
			c.emitOp(bytecode.MapInsert)
			c.skipLines()
			if !c.match(lexer.TokenComma) {
				break
			}
			c.skipLines()
			if c.check(lexer.TokenRBrace) {
				break
			}
		}
	}
	c.consume(lexer.TokenRBrace, "expected '}' after map entries")
}


