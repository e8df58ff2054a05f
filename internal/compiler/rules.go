package compiler

import "pocket/internal/lexer"

// Precedence mirrors spec §4.6's ladder exactly, lowest to highest.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecOr
	PrecAnd
	PrecEquality
	PrecTest // `in`
	PrecComparison
	PrecBitOr
	PrecBitXor
	PrecBitAnd
	PrecShift
	PrecRange
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecSubscript
	PrecAttribute
	PrecPrimary
)

type prefixFn func(c *Compiler, canAssign bool)
type infixFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix prefixFn
	infix  infixFn
	prec   Precedence
}

var rules map[lexer.TokenType]parseRule

func init() {
	rules = map[lexer.TokenType]parseRule{
		lexer.TokenNumber:       {prefix: parseNumber},
		lexer.TokenString:       {prefix: parseString},
		lexer.TokenStringInterp: {prefix: parseStringInterp},
		lexer.TokenTrue:         {prefix: parseLiteral},
		lexer.TokenFalse:        {prefix: parseLiteral},
		lexer.TokenNull:         {prefix: parseLiteral},
		lexer.TokenName:         {prefix: parseName},
		lexer.TokenSelf:         {prefix: parseSelf},
		lexer.TokenSuper:        {prefix: parseSuper},
		lexer.TokenFunc:         {prefix: parseFuncLiteral},
		lexer.TokenYield:        {prefix: parseYield},

		lexer.TokenLParen:   {prefix: parseGrouping, infix: parseCall, prec: PrecCall},
		lexer.TokenLBracket: {prefix: parseListLiteral, infix: parseSubscript, prec: PrecSubscript},
		lexer.TokenLBrace:   {prefix: parseMapLiteral},
		lexer.TokenDot:      {infix: parseAttribute, prec: PrecAttribute},

		lexer.TokenMinus: {prefix: parseUnary, infix: parseBinary, prec: PrecTerm},
		lexer.TokenPlus:  {prefix: parseUnary, infix: parseBinary, prec: PrecTerm},
		lexer.TokenSlash: {infix: parseBinary, prec: PrecFactor},
		lexer.TokenStar:  {infix: parseBinary, prec: PrecFactor},
		lexer.TokenPercent: {infix: parseBinary, prec: PrecFactor},
		lexer.TokenStarStar: {infix: parseBinary, prec: PrecFactor},
		lexer.TokenNot:   {prefix: parseUnary},
		lexer.TokenTilde: {prefix: parseUnary},

		lexer.TokenAmp:    {infix: parseBinary, prec: PrecBitAnd},
		lexer.TokenPipe:   {infix: parseBinary, prec: PrecBitOr},
		lexer.TokenCaret:  {infix: parseBinary, prec: PrecBitXor},
		lexer.TokenLShift: {infix: parseBinary, prec: PrecShift},
		lexer.TokenRShift: {infix: parseBinary, prec: PrecShift},

		lexer.TokenEqEq:  {infix: parseBinary, prec: PrecEquality},
		lexer.TokenNotEq: {infix: parseBinary, prec: PrecEquality},
		lexer.TokenLT:    {infix: parseBinary, prec: PrecComparison},
		lexer.TokenGT:    {infix: parseBinary, prec: PrecComparison},
		lexer.TokenLE:    {infix: parseBinary, prec: PrecComparison},
		lexer.TokenGE:    {infix: parseBinary, prec: PrecComparison},

		lexer.TokenAnd: {infix: parseLogical, prec: PrecAnd},
		lexer.TokenOr:  {infix: parseLogical, prec: PrecOr},
		lexer.TokenIn:  {infix: parseBinary, prec: PrecTest},
		lexer.TokenIs:  {infix: parseBinary, prec: PrecComparison},

		lexer.TokenRange: {infix: parseRange, prec: PrecRange},
	}
}

func (c *Compiler) getRule(t lexer.TokenType) parseRule { return rules[t] }

// parsePrecedence is the Pratt climbing loop (spec §4.6 "each token maps
// to prefix/infix handlers and an infix precedence, table-driven").
// canAssign is true only at the lowest real precedence tier (PrecOr),
// matching "the parser tracks an l_value flag" without a separate
// assignment-precedence rule: prefix/infix handlers for names,
// attributes and subscripts check canAssign themselves before emitting
// a read, per spec's l-value tracking.
func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	rule := c.getRule(c.prev.Type)
	if rule.prefix == nil {
		c.errAt(c.prev, "expected an expression")
		return
	}
	canAssign := prec <= PrecOr
	rule.prefix(c, canAssign)

	for {
		next := c.getRule(c.cur.Type)
		if prec > next.prec {
			break
		}
		c.advance()
		next.infix(c, canAssign)
	}

	if canAssign && isAssignOp(c.cur.Type) {
		c.errAt(c.cur, "invalid assignment target")
	}
}

func isAssignOp(t lexer.TokenType) bool {
	switch t {
	case lexer.TokenEq, lexer.TokenPlusEq, lexer.TokenMinusEq, lexer.TokenStarEq,
		lexer.TokenSlashEq, lexer.TokenPercentEq, lexer.TokenAmpEq, lexer.TokenPipeEq,
		lexer.TokenCaretEq, lexer.TokenLShiftEq, lexer.TokenRShiftEq:
		return true
	}
	return false
}

func (c *Compiler) parseExpression() { c.parsePrecedence(PrecOr) }


