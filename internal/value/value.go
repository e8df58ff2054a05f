// Package value implements Pocket's uniform tagged value representation
// (spec §3.1, §4.1). A Value is either null, a boolean, the undefined or
// void sentinels, a 64-bit float, or a reference to a heap object.
//
// The spec calls for NaN-boxing; this implementation uses an explicit
// tagged struct instead (kept deliberately simple per the "tagged sum of
// value types" design note), but exposes the same predicates so callers
// written against either representation port unchanged.
package value

import "math"

// Kind discriminates the cases a Value can hold.
type Kind uint8

const (
	KindNull Kind = iota
	KindUndef
	KindVoid
	KindBool
	KindNum
	KindObj
)

// ObjKind discriminates heap object kinds. Defined here (rather than in
// package object) so that Value can carry it without importing object,
// which would create an import cycle since object types hold Values.
type ObjKind uint8

const (
	ObjString ObjKind = iota
	ObjList
	ObjMap
	ObjRange
	ObjModule
	ObjFn
	ObjClosure
	ObjUpvalue
	ObjFiber
	ObjClass
	ObjInstance
	ObjMethodBind
)

func (k ObjKind) String() string {
	switch k {
	case ObjString:
		return "String"
	case ObjList:
		return "List"
	case ObjMap:
		return "Map"
	case ObjRange:
		return "Range"
	case ObjModule:
		return "Module"
	case ObjFn:
		return "Fn"
	case ObjClosure:
		return "Closure"
	case ObjUpvalue:
		return "Upvalue"
	case ObjFiber:
		return "Fiber"
	case ObjClass:
		return "Class"
	case ObjInstance:
		return "Instance"
	case ObjMethodBind:
		return "MethodBind"
	}
	return "?"
}

// Obj is implemented by every heap object kind (package object). It is
// declared here, not there, precisely to break the cycle: object imports
// value for the Value type, so value cannot import object.
type Obj interface {
	ObjKind() ObjKind
}

// Equatable lets a heap kind define semantic equality (spec §3.1 equal:
// "strings by content; ranges by endpoints; lists/maps element-wise").
// Kinds that don't implement it fall back to pointer identity.
type Equatable interface {
	EqualObj(other Obj) bool
}

// Hashable lets a heap kind participate in hash(); kinds for which hash
// is undefined (List, Map, Closure, ...) simply don't implement it.
type Hashable interface {
	HashObj() (uint64, bool)
}

// Truthish lets a heap kind override truthy(); default for objects not
// implementing it is true (matches "true otherwise" in §4.1).
type Truthish interface {
	TruthyObj() bool
}

// Value is the uniform 64-bit-class tagged value.
type Value struct {
	kind Kind
	bits uint64 // bool (0/1) and float (via math.Float64bits) payload
	obj  Obj
}

var (
	Null      = Value{kind: KindNull}
	Undefined = Value{kind: KindUndef}
	Void      = Value{kind: KindVoid}
	True      = Value{kind: KindBool, bits: 1}
	False     = Value{kind: KindBool, bits: 0}
)

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Num(f float64) Value {
	return Value{kind: KindNum, bits: math.Float64bits(f)}
}

func FromObj(o Obj) Value {
	if o == nil {
		return Null
	}
	return Value{kind: KindObj, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool  { return v.kind == KindNull }
func (v Value) IsUndef() bool { return v.kind == KindUndef }
func (v Value) IsVoid() bool  { return v.kind == KindVoid }
func (v Value) IsBool() bool  { return v.kind == KindBool }
func (v Value) IsNum() bool   { return v.kind == KindNum }
func (v Value) IsObj() bool   { return v.kind == KindObj }

func (v Value) AsBool() bool      { return v.bits != 0 }
func (v Value) AsNum() float64    { return math.Float64frombits(v.bits) }
func (v Value) AsObj() Obj        { return v.obj }
func (v Value) ObjKind() ObjKind  { return v.obj.ObjKind() }
func (v Value) IsObjKind(k ObjKind) bool {
	return v.kind == KindObj && v.obj.ObjKind() == k
}

// Same implements bit-identity (spec §3.1): same(+0,-0) is false, but
// same(NaN,NaN) is true for an identical NaN bit pattern.
func Same(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull, KindUndef, KindVoid:
		return true
	case KindBool, KindNum:
		return a.bits == b.bits
	case KindObj:
		return a.obj == b.obj
	}
	return false
}

// Equal implements semantic equality (spec §3.1 / §8 property 2).
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull, KindUndef, KindVoid:
		return true
	case KindBool:
		return a.bits == b.bits
	case KindNum:
		return a.AsNum() == b.AsNum() // NaN != NaN falls out of IEEE ==
	case KindObj:
		if a.obj == b.obj {
			return true
		}
		if a.obj.ObjKind() != b.obj.ObjKind() {
			return false
		}
		if eq, ok := a.obj.(Equatable); ok {
			return eq.EqualObj(b.obj)
		}
		return false
	}
	return false
}

// Hash implements hash() (spec §3.1): defined for null, bool, number,
// string, range, class; fails (ok=false) for other object kinds.
func Hash(v Value) (uint64, bool) {
	const (
		fnvOffset = 1469598103934665603
		fnvPrime  = 1099511628211
	)
	switch v.kind {
	case KindNull:
		return fnvOffset ^ 0x9e3779b1, true
	case KindUndef:
		return fnvOffset ^ 0x9e3779b2, true
	case KindVoid:
		return fnvOffset ^ 0x9e3779b3, true
	case KindBool:
		if v.AsBool() {
			return 1, true
		}
		return 0, true
	case KindNum:
		f := v.AsNum()
		if f == 0 {
			f = 0 // fold -0 into +0 per §4.1
		}
		return hashBytes(uint64Bytes(math.Float64bits(f))), true
	case KindObj:
		if h, ok := v.obj.(Hashable); ok {
			return h.HashObj()
		}
		return 0, false
	}
	return 0, false
}

func uint64Bytes(u uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
	return b
}

// HashBytes is the FNV-1a hash used for strings and float bit patterns,
// exported so package object can reuse it for String construction.
func HashBytes(b []byte) uint64 { return hashBytes(b) }

func hashBytes(b []byte) uint64 {
	var h uint64 = 1469598103934665603
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}

// Truthy implements truthy() (spec §4.1): false for null/false/0/empty
// string/empty list/empty map; true otherwise.
func Truthy(v Value) bool {
	switch v.kind {
	case KindNull, KindUndef:
		return false
	case KindBool:
		return v.AsBool()
	case KindNum:
		return v.AsNum() != 0
	case KindVoid:
		return true
	case KindObj:
		if t, ok := v.obj.(Truthish); ok {
			return t.TruthyObj()
		}
		return true
	}
	return true
}


