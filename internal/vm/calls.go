// CALL/TAIL_CALL/METHOD_CALL/SUPER_CALL dispatch: a switch on the
// callee's dynamic kind, extended with the frame-reuse path TAIL_CALL
// needs and the Class/Fiber construction cases this object model adds.
package vm

import (
	"pocket/internal/errors"
	"pocket/internal/object"
	"pocket/internal/value"
)

// performCall implements CALL/TAIL_CALL argc: the callee sits at
// sp[-argc-1], with its arguments above it. Legal targets: Closure,
// MethodBind (binds its instance as self), Class (constructor), Fiber
// (initializes and switches), or a foreign class's primitive-type Class.
func (v *VM) performCall(f *object.Fiber, argc int, tail bool, frame *object.Frame) (execSignal, *errors.PocketError) {
	calleeSlot := f.SP() - argc - 1
	callee := f.At(calleeSlot)

	switch {
	case callee.IsObjKind(value.ObjClosure):
		closure := callee.AsObj().(*object.Closure)
		if tail && !closure.Fn.IsNative {
			return v.tailCallClosure(f, frame, closure, value.Null, argc)
		}
		return v.dispatchInvoke(f, closure, value.Null, argc)

	case callee.IsObjKind(value.ObjMethodBind):
		mb := callee.AsObj().(*object.MethodBind)
		if tail && !mb.Method.Fn.IsNative {
			return v.tailCallClosure(f, frame, mb.Method, mb.Instance, argc)
		}
		return v.dispatchInvoke(f, mb.Method, mb.Instance, argc)

	case callee.IsObjKind(value.ObjClass):
		return v.constructFromClass(f, callee.AsObj().(*object.Class), calleeSlot, argc)

	case callee.IsObjKind(value.ObjFiber):
		fib := callee.AsObj().(*object.Fiber)
		arg := value.Null
		if argc > 0 {
			arg = f.At(calleeSlot + 1)
		}
		f.Truncate(calleeSlot)
		fib.Caller = f
		result, err := v.Resume(fib, arg)
		if err != nil {
			return sigReturn, v.runtimeError(f, "%s", err.Error())
		}
		f.Push(result)
		return sigReturn, nil
	}

	return sigReturn, v.runtimeError(f, "%s is not callable", kindLabel(callee))
}

// dispatchInvoke is the non-tail CALL path shared by plain Closure and
// MethodBind targets: it reuses invokeClosure (which already handles
// both native and bytecode functions) and translates its yield sentinel
// into the dispatch loop's own signal vocabulary.
func (v *VM) dispatchInvoke(f *object.Fiber, c *object.Closure, self value.Value, argc int) (execSignal, *errors.PocketError) {
	if perr := v.invokeClosure(f, c, self, argc); perr != nil {
		if perr == errYieldSentinel {
			return sigYield, nil
		}
		return sigReturn, perr
	}
	return sigReturn, nil
}

// tailCallClosure implements TAIL_CALL: overwrite the current frame's
// locals with the call's arguments in place and reuse the frame; return
// values flow to the original caller. Any upvalue still open into the
// frame being replaced is closed first.
func (v *VM) tailCallClosure(f *object.Fiber, frame *object.Frame, closure *object.Closure, self value.Value, argc int) (execSignal, *errors.PocketError) {
	fn := closure.Fn
	if fn.Arity >= 0 && argc != fn.Arity {
		return sigReturn, v.runtimeError(f, "%s() expected %d argument(s), got %d", fn.Name, fn.Arity, argc)
	}
	calleeSlot := f.SP() - argc - 1
	f.CloseUpvaluesFrom(frame.Rbp)
	newRbp := frame.Rbp
	for i := 0; i < argc; i++ {
		f.SetAt(newRbp+1+i, f.At(calleeSlot+1+i))
	}
	f.Truncate(newRbp + 1 + argc)
	frame.Closure = closure
	frame.IP = 0
	frame.Self = self
	if v.DebugHook != nil {
		v.DebugHook.OnCall(v, f, fn)
	}
	return sigReturn, nil
}

// performMethodCall implements METHOD_CALL/SUPER_CALL argc, name: look up
// name on the receiver's class (primitives included), or on the current
// method's superclass for SUPER_CALL, and invoke it with the receiver
// bound as self.
func (v *VM) performMethodCall(f *object.Fiber, argc int, name string, isSuper bool, frame *object.Frame) (execSignal, *errors.PocketError) {
	recvSlot := f.SP() - argc - 1
	recv := f.At(recvSlot)

	var cls *object.Class
	if isSuper {
		// Lookup starts above the class that owns the running method,
		// not the receiver's dynamic class, so an inherited method's
		// super call cannot re-dispatch into its own class.
		curCls := frame.Closure.BoundClass
		if curCls == nil {
			curCls = v.ClassOf(frame.Self)
		}
		if curCls == nil || curCls.SuperClass == nil {
			return sigReturn, v.runtimeError(f, "no superclass for 'super' call")
		}
		cls = curCls.SuperClass
	} else {
		if recv.IsObjKind(value.ObjModule) {
			// `m.f(args)` on a Module calls its global f as a plain function.
			mod := recv.AsObj().(*object.Module)
			if idx, ok := mod.GetGlobalIndex(name); ok {
				f.SetAt(recvSlot, mod.Globals[idx])
				return v.performCall(f, argc, false, frame)
			}
		}
		cls = v.ClassOf(recv)
	}
	if cls == nil {
		return sigReturn, v.runtimeError(f, "%s has no methods", kindLabel(recv))
	}
	method, ok := cls.FindMethod(name)
	if !ok {
		return sigReturn, v.runtimeError(f, "undefined method '%s' on %s", name, cls.Name.Text())
	}
	return v.dispatchInvoke(f, method, recv, argc)
}

// constructFromClass implements CALL on a Class value: invokes the
// constructor, pushes a new instance, and runs _init if defined.
// Generalized to the primitive-type classes so `List()`, `Map()`, and
// `Fiber(entry)` construct their native kind the same way a script class
// constructs an Instance.
func (v *VM) constructFromClass(f *object.Fiber, cls *object.Class, calleeSlot, argc int) (execSignal, *errors.PocketError) {
	switch cls.ClassOf {
	case object.ClassList:
		f.Truncate(calleeSlot)
		f.Push(value.FromObj(object.NewList(v.GC)))
		return sigReturn, nil
	case object.ClassMap:
		f.Truncate(calleeSlot)
		f.Push(value.FromObj(object.NewMap(v.GC)))
		return sigReturn, nil
	case object.ClassFiberType:
		if argc != 1 {
			return sigReturn, v.runtimeError(f, "Fiber() expects 1 argument (the entry function), got %d", argc)
		}
		arg := f.At(calleeSlot + 1)
		entry, ok := arg.AsObj().(*object.Closure)
		if !ok {
			return sigReturn, v.runtimeError(f, "Fiber() requires a function argument")
		}
		f.Truncate(calleeSlot)
		f.Push(value.FromObj(object.NewFiber(v.GC, entry)))
		return sigReturn, nil
	case object.ClassString:
		arg := value.Null
		if argc > 0 {
			arg = f.At(calleeSlot + 1)
		}
		f.Truncate(calleeSlot)
		f.Push(value.FromObj(object.NewString(v.GC, v.stringify(f, arg))))
		return sigReturn, nil
	}

	// Ordinary script-class or foreign-class instance construction.
	args := make([]value.Value, argc)
	for i := 0; i < argc; i++ {
		args[i] = f.At(calleeSlot + 1 + i)
	}
	f.Truncate(calleeSlot)

	inst := object.NewInstance(v.GC, cls)
	if cls.NewFn != nil {
		ctx := &nativeCtx{vm: v, fiber: f, args: args, self: value.FromObj(inst), rbp: -1}
		native, err := cls.NewFn(ctx)
		if err != nil {
			return sigReturn, v.runtimeError(f, "%s", err.Error())
		}
		inst.Native = native
	}
	// Field initializers run base-first down the inheritance chain, so a
	// subclass default can overwrite a superclass one.
	var ctors []*object.Closure
	for cc := cls; cc != nil; cc = cc.SuperClass {
		if cc.Ctor != nil {
			ctors = append(ctors, cc.Ctor)
		}
	}
	for i := len(ctors) - 1; i >= 0; i-- {
		if _, err := v.callClosureSync(f, ctors[i], value.FromObj(inst), nil); err != nil {
			return sigReturn, asPocketError(v, f, err)
		}
	}
	if initM, ok := cls.FindMethod(opInit); ok {
		if _, err := v.callClosureSync(f, initM, value.FromObj(inst), args); err != nil {
			return sigReturn, asPocketError(v, f, err)
		}
	}
	f.Push(value.FromObj(inst))
	return sigReturn, nil
}

func asPocketError(v *VM, f *object.Fiber, err error) *errors.PocketError {
	if pe, ok := err.(*errors.PocketError); ok {
		return pe
	}
	return v.runtimeError(f, "%s", err.Error())
}

func kindLabel(v value.Value) string {
	switch {
	case v.IsNull(), v.IsUndef():
		return "null"
	case v.IsBool():
		return "bool"
	case v.IsNum():
		return "number"
	case v.IsObj():
		return v.ObjKind().String()
	}
	return "value"
}


