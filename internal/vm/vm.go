// Package vm implements Pocket's stack-based interpreter, its
// cooperative fiber scheduler, and the host-facing embedding surfaces:
// the slot-based ABI, dynamic-library module loading, and import path
// resolution.
//
// One VM owns the globals/modules/builtins tables and dispatches on a
// flat opcode switch; execution itself runs on object.Fiber's own
// call-frame stack rather than the Go call stack, so fibers can yield
// and resume with an explicit caller chain.
package vm

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"

	"pocket/internal/compiler"
	"pocket/internal/errors"
	"pocket/internal/object"
	"pocket/internal/value"
)

// DebugHook lets a host observe interpreter execution at the fiber
// scheduler's call/return boundary.
type DebugHook interface {
	OnCall(vm *VM, fiber *object.Fiber, fn *object.Fn)
	OnReturn(vm *VM, fiber *object.Fiber, fn *object.Fn)
	OnLine(vm *VM, fiber *object.Fiber, line int)
}

// ResolveImportFn / LoadSourceFn are the host callbacks a VM calls during
// import resolution: resolve_import(from, path) -> canonical_path|null
// and load_source(path) -> source_text|null.
type ResolveImportFn func(from, path string) (string, bool)
type LoadSourceFn func(path string) (string, bool)

// Option configures a VM at construction time via functional options.
type Option func(*VM)

func WithDebugHook(h DebugHook) Option        { return func(v *VM) { v.DebugHook = h } }
func WithResolveImport(f ResolveImportFn) Option { return func(v *VM) { v.ResolveImport = f } }
func WithLoadSource(f LoadSourceFn) Option    { return func(v *VM) { v.LoadSource = f } }
func WithDebugMode(on bool) Option            { return func(v *VM) { v.DebugMode = on } }
func WithStdout(w *os.File) Option            { return func(v *VM) { v.Stdout = w } }
func WithSearchPath(p string) Option          { return func(v *VM) { v.SearchPaths = append(v.SearchPaths, p) } }

// VM is the embeddable Pocket runtime: one GC, one module table, one
// builtin registry, shared by every fiber it runs.
type VM struct {
	GC      *object.GC
	Modules map[string]*object.Module

	PrimitiveClasses map[value.ObjKind]*object.Class
	NumClass, BoolClass, NullClass *object.Class

	builtinFns   []builtinFn
	builtinNames map[string]int
	builtinTypes []*object.Class
	builtinTypeNames map[string]int

	ResolveImport ResolveImportFn
	LoadSource    LoadSourceFn
	SearchPaths   []string

	DebugHook DebugHook
	DebugMode bool // disables tail-call optimization when true
	UserData  interface{}
	Stdout    *os.File

	current *object.Fiber // the fiber the interpreter is presently executing, marked as a GC root

	dlCleanups []func() // PkCleanupModule thunks registered by loadDynamicModule
}

// Close runs every loaded dynamic-library module's PkCleanupModule hook,
// in reverse load order. Safe to call once at host shutdown.
func (v *VM) Close() {
	for i := len(v.dlCleanups) - 1; i >= 0; i-- {
		v.dlCleanups[i]()
	}
	v.dlCleanups = nil
}

// RunConcurrentFibers resumes each of fibers once with its matching
// argument and collects every result, stopping at the first error. Unlike
// the search-path probe in imports.go, this runs strictly sequentially: fibers
// share one
// GC and one VM.current, so driving two Resume calls from separate
// goroutines would race on both. The embedding convenience here is
// aggregating N independent fiber runs behind one call, not concurrency.
func (v *VM) RunConcurrentFibers(fibers []*object.Fiber, args []value.Value) ([]value.Value, error) {
	results := make([]value.Value, len(fibers))
	for i, fib := range fibers {
		arg := value.Null
		if i < len(args) {
			arg = args[i]
		}
		res, err := v.Resume(fib, arg)
		if err != nil {
			return results, err
		}
		results[i] = res
	}
	return results, nil
}

// New constructs a VM with its GC, module table, and builtin/primitive
// registries wired up.
func New(opts ...Option) *VM {
	v := &VM{
		GC:               object.NewGC(),
		Modules:          make(map[string]*object.Module),
		PrimitiveClasses: make(map[value.ObjKind]*object.Class),
		builtinNames:     make(map[string]int),
		builtinTypeNames: make(map[string]int),
		SearchPaths:      []string{"."},
		Stdout:           os.Stdout,
	}
	v.GC.AddRoot(v)
	v.registerPrimitiveClasses()
	v.registerBuiltins()
	for _, o := range opts {
		o(v)
	}
	return v
}

// MarkRoots implements object.Root: the VM itself roots the modules
// table, the primitive-class registry, and the currently running fiber
// chain.
func (v *VM) MarkRoots(gc *object.GC) {
	for _, m := range v.Modules {
		gc.MarkObj(m)
	}
	for _, c := range v.PrimitiveClasses {
		gc.MarkObj(c)
	}
	for _, t := range v.builtinTypes {
		gc.MarkObj(t)
	}
	for _, b := range v.builtinFns {
		gc.MarkObj(b.closure)
	}
	for f := v.current; f != nil; f = f.Caller {
		gc.MarkObj(f)
	}
}

func (v *VM) registerPrimitiveClasses() {
	mk := func(tag object.ClassTag, name string) *object.Class {
		c := object.NewClass(v.GC, object.NewString(v.GC, name), nil, tag)
		return c
	}
	v.NumClass = mk(object.ClassNum, "Num")
	v.BoolClass = mk(object.ClassBool, "Bool")
	v.NullClass = mk(object.ClassNullType, "Null")
	v.PrimitiveClasses[value.ObjString] = mk(object.ClassString, "String")
	v.PrimitiveClasses[value.ObjList] = mk(object.ClassList, "List")
	v.PrimitiveClasses[value.ObjMap] = mk(object.ClassMap, "Map")
	v.PrimitiveClasses[value.ObjRange] = mk(object.ClassRange, "Range")
	v.PrimitiveClasses[value.ObjFn] = mk(object.ClassFnType, "Fn")
	v.PrimitiveClasses[value.ObjClosure] = mk(object.ClassFnType, "Fn")
	v.PrimitiveClasses[value.ObjFiber] = mk(object.ClassFiberType, "Fiber")
	v.PrimitiveClasses[value.ObjModule] = mk(object.ClassModuleType, "Module")
}

// ClassOf returns the class governing v's dynamic type, used by
// METHOD_CALL dispatch and the `is` operator.
func (v *VM) ClassOf(val value.Value) *object.Class {
	switch {
	case val.IsNum():
		return v.NumClass
	case val.IsBool():
		return v.BoolClass
	case val.IsNull(), val.IsUndef():
		return v.NullClass
	case val.IsObj():
		if val.ObjKind() == value.ObjInstance {
			return val.AsObj().(*object.Instance).Cls
		}
		return v.PrimitiveClasses[val.ObjKind()]
	}
	return nil
}

// runtimeError builds a *errors.PocketError carrying fiber's current
// call stack: the top N and bottom N frames, N >= 10.
func (v *VM) runtimeError(f *object.Fiber, format string, args ...interface{}) *errors.PocketError {
	msg := fmt.Sprintf(format, args...)
	e := errors.New(errors.RuntimeError, msg, "", 0, 0)
	frames := f.FrameCount()
	const n = 10
	add := func(i int) {
		fr := f.FrameAt(i)
		name := "?"
		line := 0
		if fr.Closure != nil && fr.Closure.Fn != nil {
			name = fr.Closure.Fn.Name
			line = fr.Closure.Fn.Code.Lines[min(fr.IP, len(fr.Closure.Fn.Code.Lines)-1)]
		}
		e.AddFrame(name, "", line)
	}
	if frames <= 2*n {
		for i := frames - 1; i >= 0; i-- {
			add(i)
		}
	} else {
		for i := frames - 1; i >= frames-n; i-- {
			add(i)
		}
		for i := n - 1; i >= 0; i-- {
			add(i)
		}
	}
	return e
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// GCStats formats the collector's bookkeeping with humanize, for the
// `--gc-stats` CLI flag.
func (v *VM) GCStats() string {
	return fmt.Sprintf("bytes_allocated=%s next_gc=%s collections=%d",
		humanize.Bytes(v.GC.BytesAllocated()), humanize.Bytes(v.GC.NextGC()), v.GC.Collections())
}

// --- compile/run entry points ------------------------------------------

// CompileString compiles src as a fresh module named name, returning the
// Module with its body Closure installed but not yet run.
func (v *VM) CompileString(name, path, src string) (*object.Module, []*errors.PocketError) {
	mod := object.NewModule(v.GC, name, path)
	closure, errs := compiler.Compile(v.GC, mod, src, path, v, v.DebugMode)
	mod.Body = closure
	return mod, errs
}

// CompileREPLString is CompileString in REPL mode: top-level expression
// results are echoed with REPL_PRINT, and a statement left unfinished at
// end-of-input compiles to an UnexpectedEOF error so the caller can
// prompt for more lines (spec §7).
func (v *VM) CompileREPLString(name, path, src string) (*object.Module, []*errors.PocketError) {
	mod := object.NewModule(v.GC, name, path)
	closure, errs := compiler.CompileREPL(v.GC, mod, src, path, v, v.DebugMode)
	mod.Body = closure
	return mod, errs
}

// RunString compiles and executes src as the program entry module,
// returning the body's return value.
func (v *VM) RunString(src, path string) (value.Value, error) {
	mod, errs := v.CompileString("@main", path, src)
	if len(errs) > 0 {
		return value.Null, errs[0]
	}
	v.Modules[path] = mod
	return v.RunModule(mod)
}

// RunFile compiles and executes the named file.
func (v *VM) RunFile(path string) (value.Value, error) {
	src, ok := v.readSource(path)
	if !ok {
		return value.Null, fmt.Errorf("pocket: cannot read %s", path)
	}
	return v.RunString(src, path)
}

func (v *VM) readSource(path string) (string, bool) {
	if v.LoadSource != nil {
		return v.LoadSource(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// RunModule runs mod's body closure on a fresh Fiber to completion (not
// a yield — the entry module never yields to anyone) and marks it
// initialized once its body function has run exactly once.
func (v *VM) RunModule(mod *object.Module) (value.Value, error) {
	if mod.Initialized {
		return value.Null, nil
	}
	f := object.NewFiber(v.GC, mod.Body)
	result, err := v.Resume(f, value.Null)
	if err == nil {
		mod.Initialized = true
	}
	return result, err
}

// --- builtin registry (implements compiler.BuiltinResolver) -----------

// builtinFn wraps a registered native function as a ready-to-push
// Closure, so PUSH_BUILTIN_FN deals in the same value kind CALL already
// knows how to invoke (a Closure over a native Fn) rather than a second
// calling convention.
type builtinFn struct {
	name    string
	closure *object.Closure
}

func (v *VM) registerBuiltinFn(name string, arity int, fn object.NativeFn) {
	nfn := object.NewNativeFn(v.GC, name, arity, fn)
	v.builtinNames[name] = len(v.builtinFns)
	v.builtinFns = append(v.builtinFns, builtinFn{name: name, closure: object.NewClosure(v.GC, nfn)})
}

func (v *VM) registerBuiltinType(name string, class *object.Class) {
	v.builtinTypeNames[name] = len(v.builtinTypes)
	v.builtinTypes = append(v.builtinTypes, class)
}

// ResolveFn implements compiler.BuiltinResolver's last name-resolution
// tier: the builtin function registry.
func (v *VM) ResolveFn(name string) (int, bool) {
	i, ok := v.builtinNames[name]
	return i, ok
}

// ResolveType implements compiler.BuiltinResolver for PUSH_BUILTIN_TY.
func (v *VM) ResolveType(name string) (int, bool) {
	i, ok := v.builtinTypeNames[name]
	return i, ok
}

func (v *VM) builtinFnAt(i int) (builtinFn, bool) {
	if i < 0 || i >= len(v.builtinFns) {
		return builtinFn{}, false
	}
	return v.builtinFns[i], true
}

func (v *VM) builtinTypeAt(i int) (*object.Class, bool) {
	if i < 0 || i >= len(v.builtinTypes) {
		return nil, false
	}
	return v.builtinTypes[i], true
}


