// Builtin function/type registry (spec §4.6 "builtin function registry"
// / "builtin type registry", §6.1 host-exposed surface). Grounded on the
// teacher's NewVM registering its stdlib builtins the same way (sentra
// internal/vm/builtins.go), trimmed to the host-facing free functions
// and native methods this spec's Non-goals leave in scope (no stdlib
// modules beyond what the core language itself needs: print, container
// methods, and the Fiber run/resume surface S4 exercises).
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"pocket/internal/object"
	"pocket/internal/value"
)

// registerBuiltins installs the free functions PushBuiltinFn resolves by
// name, the builtin types PushBuiltinTy resolves (also CALL targets and
// `is` operands), and the native methods METHOD_CALL dispatches on the
// primitive-type classes precisely like it would on a script Instance.
func (v *VM) registerBuiltins() {
	v.registerBuiltinFn("print", -1, v.builtinPrint)
	v.registerBuiltinFn("len", 1, v.builtinLen)
	v.registerBuiltinFn("str", 1, v.builtinStr)
	v.registerBuiltinFn("type", 1, v.builtinType)
	v.registerBuiltinFn("yield", -1, v.builtinYield)

	v.registerBuiltinType("Num", v.NumClass)
	v.registerBuiltinType("Bool", v.BoolClass)
	v.registerBuiltinType("Null", v.NullClass)
	v.registerBuiltinType("String", v.PrimitiveClasses[value.ObjString])
	v.registerBuiltinType("List", v.PrimitiveClasses[value.ObjList])
	v.registerBuiltinType("Map", v.PrimitiveClasses[value.ObjMap])
	v.registerBuiltinType("Range", v.PrimitiveClasses[value.ObjRange])
	v.registerBuiltinType("Fn", v.PrimitiveClasses[value.ObjFn])
	v.registerBuiltinType("Fiber", v.PrimitiveClasses[value.ObjFiber])
	v.registerBuiltinType("Module", v.PrimitiveClasses[value.ObjModule])

	v.installListMethods()
	v.installMapMethods()
	v.installStringMethods()
	v.installFiberMethods()
}

func (v *VM) builtinPrint(ctx object.NativeContext) (value.Value, error) {
	parts := make([]string, len(ctx.Args()))
	for i, a := range ctx.Args() {
		parts[i] = v.stringify(v.fiberOf(ctx), a)
	}
	fmt.Fprintln(v.Stdout, strings.Join(parts, " "))
	return value.Null, nil
}

func (v *VM) builtinLen(ctx object.NativeContext) (value.Value, error) {
	a := ctx.Arg(0)
	switch {
	case a.IsObjKind(value.ObjList):
		return value.Num(float64(a.AsObj().(*object.List).Len())), nil
	case a.IsObjKind(value.ObjMap):
		return value.Num(float64(a.AsObj().(*object.Map).Len())), nil
	case a.IsObjKind(value.ObjString):
		return value.Num(float64(a.AsObj().(*object.String).Len())), nil
	}
	return value.Null, ctx.Error("len() requires a list, map, or string")
}

func (v *VM) builtinStr(ctx object.NativeContext) (value.Value, error) {
	return value.FromObj(object.NewString(v.GC, v.stringify(v.fiberOf(ctx), ctx.Arg(0)))), nil
}

func (v *VM) builtinType(ctx object.NativeContext) (value.Value, error) {
	cls := v.ClassOf(ctx.Arg(0))
	if cls == nil {
		return value.FromObj(object.NewString(v.GC, "Null")), nil
	}
	return value.FromObj(cls.Name), nil
}

// builtinYield lets the compiler's desugared `yield expr` statement (and
// a native caller) hand control back to whoever resumed this fiber (spec
// §4.9).
func (v *VM) builtinYield(ctx object.NativeContext) (value.Value, error) {
	val := value.Null
	if len(ctx.Args()) > 0 {
		val = ctx.Arg(0)
	}
	return value.Null, ctx.Yield(val)
}

func (v *VM) addMethod(cls *object.Class, name string, arity int, fn object.NativeFn) {
	nfn := object.NewNativeFn(v.GC, name, arity, fn)
	cls.Methods[name] = object.NewClosure(v.GC, nfn)
}

func (v *VM) installListMethods() {
	cls := v.PrimitiveClasses[value.ObjList]
	v.addMethod(cls, "append", 1, func(ctx object.NativeContext) (value.Value, error) {
		lst, ok := ctx.Self().AsObj().(*object.List)
		if !ok {
			return value.Null, ctx.Error("append: receiver is not a list")
		}
		lst.Append(ctx.Arg(0))
		return ctx.Self(), nil
	})
	v.addMethod(cls, "pop", 0, func(ctx object.NativeContext) (value.Value, error) {
		lst := ctx.Self().AsObj().(*object.List)
		val, ok := lst.Remove(lst.Len() - 1)
		if !ok {
			return value.Null, ctx.Error("pop from an empty list")
		}
		return val, nil
	})
	v.addMethod(cls, "insert", 2, func(ctx object.NativeContext) (value.Value, error) {
		lst := ctx.Self().AsObj().(*object.List)
		if !ctx.Arg(0).IsNum() {
			return value.Null, ctx.Error("insert: index must be a number")
		}
		if !lst.Insert(int(ctx.Arg(0).AsNum()), ctx.Arg(1)) {
			return value.Null, ctx.Error("insert: index out of bounds")
		}
		return ctx.Self(), nil
	})
	v.addMethod(cls, "remove_at", 1, func(ctx object.NativeContext) (value.Value, error) {
		lst := ctx.Self().AsObj().(*object.List)
		if !ctx.Arg(0).IsNum() {
			return value.Null, ctx.Error("remove_at: index must be a number")
		}
		val, ok := lst.Remove(int(ctx.Arg(0).AsNum()))
		if !ok {
			return value.Null, ctx.Error("remove_at: index out of bounds")
		}
		return val, nil
	})
	v.addMethod(cls, "length", 0, func(ctx object.NativeContext) (value.Value, error) {
		return value.Num(float64(ctx.Self().AsObj().(*object.List).Len())), nil
	})
}

func (v *VM) installMapMethods() {
	cls := v.PrimitiveClasses[value.ObjMap]
	v.addMethod(cls, "keys", 0, func(ctx object.NativeContext) (value.Value, error) {
		m := ctx.Self().AsObj().(*object.Map)
		keys := object.NewListWithCap(v.GC, m.Len())
		for _, k := range m.Keys() {
			keys.Append(k)
		}
		return value.FromObj(keys), nil
	})
	v.addMethod(cls, "values", 0, func(ctx object.NativeContext) (value.Value, error) {
		m := ctx.Self().AsObj().(*object.Map)
		vals := object.NewListWithCap(v.GC, m.Len())
		m.Iterate(func(_, mv value.Value) bool { vals.Append(mv); return true })
		return value.FromObj(vals), nil
	})
	v.addMethod(cls, "has", 1, func(ctx object.NativeContext) (value.Value, error) {
		_, ok := ctx.Self().AsObj().(*object.Map).Get(ctx.Arg(0))
		return value.Bool(ok), nil
	})
	v.addMethod(cls, "remove", 1, func(ctx object.NativeContext) (value.Value, error) {
		return value.Bool(ctx.Self().AsObj().(*object.Map).Delete(ctx.Arg(0))), nil
	})
	v.addMethod(cls, "length", 0, func(ctx object.NativeContext) (value.Value, error) {
		return value.Num(float64(ctx.Self().AsObj().(*object.Map).Len())), nil
	})
}

func (v *VM) installStringMethods() {
	cls := v.PrimitiveClasses[value.ObjString]
	v.addMethod(cls, "upper", 0, func(ctx object.NativeContext) (value.Value, error) {
		return value.FromObj(object.Upper(v.GC, ctx.Self().AsObj().(*object.String))), nil
	})
	v.addMethod(cls, "lower", 0, func(ctx object.NativeContext) (value.Value, error) {
		return value.FromObj(object.Lower(v.GC, ctx.Self().AsObj().(*object.String))), nil
	})
	v.addMethod(cls, "strip", 0, func(ctx object.NativeContext) (value.Value, error) {
		return value.FromObj(object.Strip(v.GC, ctx.Self().AsObj().(*object.String))), nil
	})
	v.addMethod(cls, "split", 1, func(ctx object.NativeContext) (value.Value, error) {
		sep, ok := ctx.Arg(0).AsObj().(*object.String)
		if !ok {
			return value.Null, ctx.Error("split: separator must be a string")
		}
		parts := object.Split(v.GC, ctx.Self().AsObj().(*object.String), sep)
		out := object.NewListWithCap(v.GC, len(parts))
		for _, p := range parts {
			out.Append(value.FromObj(p))
		}
		return value.FromObj(out), nil
	})
	v.addMethod(cls, "replace", -1, func(ctx object.NativeContext) (value.Value, error) {
		old, ok := ctx.Arg(0).AsObj().(*object.String)
		if !ok {
			return value.Null, ctx.Error("replace: old must be a string")
		}
		newS, ok := ctx.Arg(1).AsObj().(*object.String)
		if !ok {
			return value.Null, ctx.Error("replace: new must be a string")
		}
		count := -1
		if len(ctx.Args()) > 2 && ctx.Arg(2).IsNum() {
			count = int(ctx.Arg(2).AsNum())
		}
		return value.FromObj(object.Replace(v.GC, ctx.Self().AsObj().(*object.String), old, newS, count)), nil
	})
	v.addMethod(cls, "length", 0, func(ctx object.NativeContext) (value.Value, error) {
		return value.Num(float64(ctx.Self().AsObj().(*object.String).Len())), nil
	})
	v.addMethod(cls, "to_num", 0, func(ctx object.NativeContext) (value.Value, error) {
		f, err := strconv.ParseFloat(strings.TrimSpace(ctx.Self().AsObj().(*object.String).Text()), 64)
		if err != nil {
			return value.Null, ctx.Error("to_num: not a number")
		}
		return value.Num(f), nil
	})
}

// installFiberMethods wires run/resume to VM.Resume (spec §4.9): both
// accept an optional argument and return whatever the fiber transfers
// back, whether by `return` or by `yield`.
func (v *VM) installFiberMethods() {
	cls := v.PrimitiveClasses[value.ObjFiber]
	resumeLike := func(ctx object.NativeContext) (value.Value, error) {
		fib, ok := ctx.Self().AsObj().(*object.Fiber)
		if !ok {
			return value.Null, ctx.Error("receiver is not a fiber")
		}
		arg := value.Null
		if len(ctx.Args()) > 0 {
			arg = ctx.Arg(0)
		}
		return v.Resume(fib, arg)
	}
	v.addMethod(cls, "run", -1, resumeLike)
	v.addMethod(cls, "resume", -1, resumeLike)
	v.addMethod(cls, "is_done", 0, func(ctx object.NativeContext) (value.Value, error) {
		fib, ok := ctx.Self().AsObj().(*object.Fiber)
		if !ok {
			return value.Null, ctx.Error("receiver is not a fiber")
		}
		return value.Bool(fib.State == object.FiberDone), nil
	})
	v.addMethod(cls, "error", 0, func(ctx object.NativeContext) (value.Value, error) {
		fib, ok := ctx.Self().AsObj().(*object.Fiber)
		if !ok {
			return value.Null, ctx.Error("receiver is not a fiber")
		}
		if fib.Error == nil {
			return value.Null, nil
		}
		return value.FromObj(fib.Error), nil
	})
}


