package object

import (
	"pocket/internal/bytecode"
	"pocket/internal/value"
)

// NativeContext is the view a native (host-implemented) Fn gets of the
// call that invoked it: its arguments, the active GC (to allocate
// results through), and a way to signal a runtime error. Implemented by
// package vm's interpreter; declared here so object.Fn can hold a
// NativeFn without importing vm (which imports object).
type NativeContext interface {
	GC() *GC
	Args() []value.Value
	Arg(i int) value.Value
	Self() value.Value
	Error(format string, args ...interface{}) error

	// Yield suspends the running fiber at this call, handing val to
	// whoever resumes it next (spec §4.9). A native fn that calls Yield
	// must immediately return its result.
	Yield(val value.Value) error
}

// NativeFn is a host function pointer (spec §3.3 Fn "If native: a
// function pointer into the host").
type NativeFn func(ctx NativeContext) (value.Value, error)

// Fn is a bytecode function or a native one (spec §3.3). Arity -1 means
// variadic.
type Fn struct {
	Header
	Name         string
	Owner        *Module
	Arity        int
	IsNative     bool
	UpvalueCount int
	Doc          string

	// Bytecode functions only.
	Code      *bytecode.Code
	StackSize int

	// Native functions only.
	Native NativeFn
}

func NewFn(gc *GC, name string, owner *Module, arity int) *Fn {
	fn := &Fn{Name: name, Owner: owner, Arity: arity, Code: bytecode.NewCode()}
	fn.kind = value.ObjFn
	gc.link(fn, 96)
	return fn
}

func NewNativeFn(gc *GC, name string, arity int, native NativeFn) *Fn {
	fn := &Fn{Name: name, Arity: arity, IsNative: true, Native: native}
	fn.kind = value.ObjFn
	gc.link(fn, 64)
	return fn
}

func (f *Fn) TruthyObj() bool { return true }

func (f *Fn) markChildren(gc *GC) {
	if f.Owner != nil {
		gc.MarkObj(f.Owner)
	}
}


