package object

import "pocket/internal/value"

// ClassTag distinguishes a primitive-type class pointer from a
// script-defined instance class (spec §3.3 "class_of tag (primitive
// type or INSTANCE)").
type ClassTag uint8

const (
	ClassNum ClassTag = iota
	ClassBool
	ClassNullType
	ClassString
	ClassList
	ClassMap
	ClassRange
	ClassFnType
	ClassFiberType
	ClassModuleType
	ClassInstance
)

// NewInstanceFn/DeleteInstanceFn back a foreign (host-implemented) class
// (spec §3.3, §6.1 "Foreign classes").
type NewInstanceFn func(ctx NativeContext) (interface{}, error)
type DeleteInstanceFn func(ptr interface{})

// Class is either a script class or a foreign/primitive class (spec
// §3.3). Method lookup walks Methods by name, then SuperClass.
type Class struct {
	Header
	Name          *String
	Owner         *Module
	Ctor          *Closure
	Methods       map[string]*Closure
	StaticAttribs *Map
	FieldNames    []int // indices into Owner.Names
	SuperClass    *Class
	ClassOf       ClassTag

	NewFn    NewInstanceFn
	DeleteFn DeleteInstanceFn

	identityHash uint64
}

var nextClassIdentity uint64

func NewClass(gc *GC, name *String, owner *Module, tag ClassTag) *Class {
	nextClassIdentity++
	c := &Class{
		Name:          name,
		Owner:         owner,
		Methods:       make(map[string]*Closure),
		StaticAttribs: NewMap(gc),
		ClassOf:       tag,
		identityHash:  nextClassIdentity,
	}
	c.kind = value.ObjClass
	gc.link(c, 96)
	return c
}

// FindMethod looks up name on c, then walks SuperClass (spec §4.8
// METHOD_CALL "look up method on receiver's class").
func (c *Class) FindMethod(name string) (*Closure, bool) {
	for cur := c; cur != nil; cur = cur.SuperClass {
		if m, ok := cur.Methods[name]; ok {
			return m, true
		}
	}
	return nil, false
}

func (c *Class) EqualObj(other value.Obj) bool { return c == other }

func (c *Class) HashObj() (uint64, bool) {
	// Identity hash: a class is a singleton per definition, so a
	// creation-order counter is a stable, unsafe-free stand-in for a
	// pointer-derived hash.
	return c.identityHash, true
}

func (c *Class) TruthyObj() bool { return true }

func (c *Class) markChildren(gc *GC) {
	gc.MarkObj(c.Name)
	if c.Owner != nil {
		gc.MarkObj(c.Owner)
	}
	if c.Ctor != nil {
		gc.MarkObj(c.Ctor)
	}
	for _, m := range c.Methods {
		gc.MarkObj(m)
	}
	gc.MarkObj(c.StaticAttribs)
	if c.SuperClass != nil {
		gc.MarkObj(c.SuperClass)
	}
}


