package compiler

import (
	"pocket/internal/bytecode"
	"pocket/internal/lexer"
	"pocket/internal/value"
)

// bindTop binds the value on top of the stack to name in the current
// scope: at module scope it stores into a global and pops; at local
// scope a fresh name simply keeps the value in place as its new slot
// (the same convention declaration-by-assignment uses), while a rebound
// name stores and pops.
func (c *Compiler) bindTop(name string) {
	if c.atModuleScope() {
		c.mod.SetGlobal(c.gc, name, value.Null)
		idx, _ := c.mod.GetGlobalIndex(name)
		c.emitOpByte(bytecode.StoreGlobal, byte(idx))
		c.emitOp(bytecode.Pop)
		return
	}
	slot, redeclared := c.fs.declareLocal(name)
	c.fs.defineLocal(slot)
	if redeclared {
		c.emitStoreLocal(slot)
		c.emitOp(bytecode.Pop)
	}
}

// importStatement compiles `import m1, m2 as alias` (spec §4.6): each
// symbol binds a global holding the imported Module.
func (c *Compiler) importStatement() {
	c.advance() // 'import'
	for {
		c.consume(lexer.TokenName, "expected module name")
		path := c.prev.Lexeme
		alias := path
		if c.match(lexer.TokenAs) {
			c.consume(lexer.TokenName, "expected alias name")
			alias = c.prev.Lexeme
		}
		pathIdx := c.constString(path)
		c.emitOpShort(bytecode.Import, pathIdx)
		c.bindTop(alias)

		if !c.match(lexer.TokenComma) {
			break
		}
	}
}

// fromImportStatement compiles `from m import a, b as c` and
// `from m import *`. The module value itself is bound to a hidden
// per-path name, and each imported name compiles to a load of that
// hidden name, GET_ATTRIB, and a binding of the result, so the module is
// not kept on the stack across the bindings and no GET_ATTRIB_KEEP / POP
// pair is emitted.
func (c *Compiler) fromImportStatement() {
	c.advance() // 'from'
	c.consume(lexer.TokenName, "expected module name")
	path := c.prev.Lexeme
	c.consume(lexer.TokenImport, "expected 'import' after module path")

	pathIdx := c.constString(path)
	c.emitOpShort(bytecode.Import, pathIdx)

	if c.match(lexer.TokenStar) {
		// `from m import *`: binds every non-@-prefixed global of the
		// imported module directly into the current scope (spec §4.6).
		c.emitOp(bytecode.ImportStar)
		return
	}

	hidden := "@from " + path
	c.bindTop(hidden)

	for {
		c.consume(lexer.TokenName, "expected imported name")
		attr := c.prev.Lexeme
		alias := attr
		if c.match(lexer.TokenAs) {
			c.consume(lexer.TokenName, "expected alias name")
			alias = c.prev.Lexeme
		}
		c.emitLoadName(hidden, c.prev.Line)
		c.emitOpShort(bytecode.GetAttrib, c.addName(attr))
		c.bindTop(alias)

		if !c.match(lexer.TokenComma) {
			break
		}
	}
}
