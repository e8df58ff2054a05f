package object

import "pocket/internal/value"

// Closure pairs an Fn with the Upvalues it captured at creation time
// (spec §3.3, glossary "Closure").
type Closure struct {
	Header
	Fn       *Fn
	Upvalues []*Upvalue

	// BoundClass is the class this closure was bound to as a method, nil
	// for plain functions. super dispatch starts the lookup at
	// BoundClass.SuperClass, so a super call from an inherited method
	// cannot loop back into the class it came from.
	BoundClass *Class
}

func NewClosure(gc *GC, fn *Fn) *Closure {
	c := &Closure{Fn: fn, Upvalues: make([]*Upvalue, fn.UpvalueCount)}
	c.kind = value.ObjClosure
	gc.link(c, 32+uint64(fn.UpvalueCount)*8)
	return c
}

func (c *Closure) TruthyObj() bool { return true }

func (c *Closure) markChildren(gc *GC) {
	gc.MarkObj(c.Fn)
	for _, uv := range c.Upvalues {
		gc.MarkObj(uv)
	}
	if c.BoundClass != nil {
		gc.MarkObj(c.BoundClass)
	}
}

// MethodBind is a (method Closure, instance Value) pair produced when a
// bound method is taken as a first-class value (spec §3.3).
type MethodBind struct {
	Header
	Method   *Closure
	Instance value.Value
}

func NewMethodBind(gc *GC, method *Closure, instance value.Value) *MethodBind {
	mb := &MethodBind{Method: method, Instance: instance}
	mb.kind = value.ObjMethodBind
	gc.link(mb, 32)
	return mb
}

func (m *MethodBind) TruthyObj() bool { return true }

func (m *MethodBind) markChildren(gc *GC) {
	gc.MarkObj(m.Method)
	gc.MarkValue(m.Instance)
}


