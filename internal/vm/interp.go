// Interpreter dispatch loop and fiber scheduler.
//
// A big switch dispatches on a byte opcode; each frame holds ip/closure/
// rbp, but frames live on object.Fiber instead of a flat Go slice, and
// the loop is re-entrant: CALL pushes a frame and keeps looping in the
// same Go stack frame (no Go recursion for ordinary script calls), while
// `yield` pauses the loop and returns control to whoever called Resume,
// to be continued later by another call to Resume against the same
// Fiber.
package vm

import (
	"pocket/internal/bytecode"
	"pocket/internal/errors"
	"pocket/internal/object"
	"pocket/internal/value"
)

// ctorMethodName mirrors the compiler's internal constant of the same
// name (internal/compiler/classes.go) — the synthetic field-initializer
// method BindMethod routes to Class.Ctor instead of Class.Methods.
const ctorMethodName = "@ctor"

type execSignal int

const (
	sigReturn execSignal = iota
	sigYield
)

// Resume starts a NEW fiber or continues a YIELDED one, running it until
// it returns, yields again, or errors.
func (v *VM) Resume(f *object.Fiber, arg value.Value) (value.Value, error) {
	switch f.State {
	case object.FiberNew:
		f.State = object.FiberRunning
		if perr := v.invokeClosure(f, f.EntryClosure, value.Null, 0); perr != nil {
			f.State = object.FiberDone
			return value.Null, perr
		}
	case object.FiberYielded:
		f.State = object.FiberRunning
		f.SetSP(f.PendingReturnSlot + 1)
		f.SetAt(f.PendingReturnSlot, arg)
	default:
		return value.Null, errors.New(errors.RuntimeError,
			"cannot resume a "+f.State.String()+" fiber", "", 0, 0)
	}

	prevCurrent := v.current
	v.current = f
	result, sig, perr := v.runUntil(f, 0)
	v.current = prevCurrent

	if perr != nil {
		f.State = object.FiberDone
		f.Error = object.NewString(v.GC, perr.Error())
		return value.Null, perr
	}
	f.Transfer = result
	switch sig {
	case sigYield:
		f.State = object.FiberYielded
	default:
		f.State = object.FiberDone
	}
	return result, nil
}

// invokeClosure pushes a new call frame for c onto f, with argc
// arguments already sitting at the top of f's stack (CALL argc: target
// at sp[-argc-1]). The slot the callee/receiver occupied becomes the
// frame's reserved slot 0.
func (v *VM) invokeClosure(f *object.Fiber, c *object.Closure, self value.Value, argc int) *errors.PocketError {
	fn := c.Fn
	if fn.Arity >= 0 && argc != fn.Arity {
		return v.runtimeError(f, "%s() expected %d argument(s), got %d", fn.Name, fn.Arity, argc)
	}
	rbp := f.SP() - argc - 1
	if fn.IsNative {
		ctx := &nativeCtx{vm: v, fiber: f, args: make([]value.Value, argc), self: self, rbp: rbp}
		for i := 0; i < argc; i++ {
			ctx.args[i] = f.At(rbp + 1 + i)
		}
		result, err := fn.Native(ctx)
		if ys, ok := err.(*yieldSignal); ok {
			f.PendingReturnSlot = rbp
			f.Truncate(rbp)
			f.Transfer = ys.val
			return errYieldSentinel
		}
		if err != nil {
			f.Truncate(rbp)
			return v.runtimeError(f, "%s", err.Error())
		}
		f.Truncate(rbp)
		f.Push(result)
		return nil
	}
	f.PushFrame(c, rbp, self)
	if v.DebugHook != nil {
		v.DebugHook.OnCall(v, f, fn)
	}
	return nil
}

// errYieldSentinel is a marker *errors.PocketError recognized only by
// runUntil's CALL case; it never reaches a host.
var errYieldSentinel = &errors.PocketError{Kind: errors.RuntimeError, Message: "<<yield>>"}

// yieldSignal is returned by the native `yield` builtin (via
// nativeCtx.Yield) to ask invokeClosure to pause the fiber instead of
// treating this as an ordinary native-call error.
type yieldSignal struct{ val value.Value }

func (y *yieldSignal) Error() string { return "yield" }

// runUntil executes f's bytecode until its frame count drops back to
// floor (the call that is runUntil's own logical invocation returned)
// or the fiber yields. floor=0 is "run to fiber completion"; floor>0
// is used for a synchronous nested call (operator overloads, foreign
// callbacks) issued while another runUntil for the same fiber is
// already on the Go call stack.
func (v *VM) runUntil(f *object.Fiber, floor int) (value.Value, execSignal, *errors.PocketError) {
	for {
		frame := f.CurrentFrame()
		code := frame.Closure.Fn.Code
		op := bytecode.Op(code.Ops[frame.IP])
		frame.IP++

		switch op {
		case bytecode.PushConstant:
			idx := code.ReadShort(frame.IP)
			frame.IP += 2
			f.Push(frame.Closure.Fn.Owner.Constants[idx])
		case bytecode.PushNull:
			f.Push(value.Null)
		case bytecode.PushZero:
			f.Push(value.Num(0))
		case bytecode.PushTrue:
			f.Push(value.True)
		case bytecode.PushFalse:
			f.Push(value.False)
		case bytecode.PushSelf:
			f.Push(frame.Self)

		case bytecode.Swap:
			a, b := f.Pop(), f.Pop()
			f.Push(a)
			f.Push(b)
		case bytecode.Dup:
			f.Push(f.Peek(0))
		case bytecode.Pop:
			f.Pop()

		case bytecode.PushList:
			n := int(code.ReadShort(frame.IP))
			frame.IP += 2
			lst := object.NewListWithCap(v.GC, n)
			base := f.SP() - n
			for i := 0; i < n; i++ {
				lst.Append(f.At(base + i))
			}
			f.Truncate(base)
			f.Push(value.FromObj(lst))
		case bytecode.PushMap:
			f.Push(value.FromObj(object.NewMap(v.GC)))
		case bytecode.ListAppend:
			val := f.Pop()
			lst := f.Peek(0).AsObj().(*object.List)
			lst.Append(val)
		case bytecode.MapInsert:
			val := f.Pop()
			key := f.Pop()
			m := f.Peek(0).AsObj().(*object.Map)
			if err := m.Insert(key, val); err != nil {
				return value.Null, sigReturn, v.runtimeError(f, "unhashable map key")
			}

		case bytecode.PushLocal0, bytecode.PushLocal1, bytecode.PushLocal2, bytecode.PushLocal3,
			bytecode.PushLocal4, bytecode.PushLocal5, bytecode.PushLocal6, bytecode.PushLocal7, bytecode.PushLocal8:
			slot := int(op - bytecode.PushLocal0)
			f.Push(f.At(frame.Rbp + slot))
		case bytecode.PushLocalN:
			slot := int(code.Ops[frame.IP])
			frame.IP++
			f.Push(f.At(frame.Rbp + slot))
		case bytecode.StoreLocal0, bytecode.StoreLocal1, bytecode.StoreLocal2, bytecode.StoreLocal3,
			bytecode.StoreLocal4, bytecode.StoreLocal5, bytecode.StoreLocal6, bytecode.StoreLocal7, bytecode.StoreLocal8:
			slot := int(op - bytecode.StoreLocal0)
			f.SetAt(frame.Rbp+slot, f.Peek(0))
		case bytecode.StoreLocalN:
			slot := int(code.Ops[frame.IP])
			frame.IP++
			f.SetAt(frame.Rbp+slot, f.Peek(0))

		case bytecode.PushGlobal:
			idx := int(code.Ops[frame.IP])
			frame.IP++
			f.Push(frame.Closure.Fn.Owner.Globals[idx])
		case bytecode.StoreGlobal:
			idx := int(code.Ops[frame.IP])
			frame.IP++
			frame.Closure.Fn.Owner.Globals[idx] = f.Peek(0)

		case bytecode.PushBuiltinFn:
			idx := int(code.Ops[frame.IP])
			frame.IP++
			b, ok := v.builtinFnAt(idx)
			if !ok {
				return value.Null, sigReturn, v.runtimeError(f, "unknown builtin function")
			}
			f.Push(value.FromObj(b.closure))
		case bytecode.PushBuiltinTy:
			idx := int(code.Ops[frame.IP])
			frame.IP++
			t, ok := v.builtinTypeAt(idx)
			if !ok {
				return value.Null, sigReturn, v.runtimeError(f, "unknown builtin type")
			}
			f.Push(value.FromObj(t))

		case bytecode.PushUpvalue:
			idx := int(code.Ops[frame.IP])
			frame.IP++
			f.Push(frame.Closure.Upvalues[idx].Get())
		case bytecode.StoreUpvalue:
			idx := int(code.Ops[frame.IP])
			frame.IP++
			frame.Closure.Upvalues[idx].Set(f.Peek(0))
		case bytecode.CloseUpvalue:
			f.CloseUpvaluesFrom(f.SP() - 1)
			f.Pop()

		case bytecode.PushClosure:
			idx := code.ReadShort(frame.IP)
			frame.IP += 2
			fn := frame.Closure.Fn.Owner.Constants[idx].AsObj().(*object.Fn)
			cl := object.NewClosure(v.GC, fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := code.Ops[frame.IP] == 1
				index := int(code.Ops[frame.IP+1])
				frame.IP += 2
				if isLocal {
					cl.Upvalues[i] = f.OpenUpvalueFor(v.GC, frame.Rbp+index)
				} else {
					cl.Upvalues[i] = frame.Closure.Upvalues[index]
				}
			}
			f.Push(value.FromObj(cl))
		case bytecode.CreateClass:
			idx := code.ReadShort(frame.IP)
			frame.IP += 2
			name := frame.Closure.Fn.Owner.Constants[idx].AsObj().(*object.String)
			super := f.Pop()
			cls := object.NewClass(v.GC, name, frame.Closure.Fn.Owner, object.ClassInstance)
			if super.IsObjKind(value.ObjClass) {
				cls.SuperClass = super.AsObj().(*object.Class)
			}
			f.Push(value.FromObj(cls))
		case bytecode.BindMethod:
			closure := f.Pop().AsObj().(*object.Closure)
			name := f.Pop().AsObj().(*object.String)
			cls := f.Peek(0).AsObj().(*object.Class)
			closure.BoundClass = cls
			if name.Text() == ctorMethodName {
				cls.Ctor = closure
			} else {
				cls.Methods[name.Text()] = closure
			}

		case bytecode.Import:
			idx := code.ReadShort(frame.IP)
			frame.IP += 2
			path := frame.Closure.Fn.Owner.Constants[idx].AsObj().(*object.String).Text()
			mod, perr := v.importModule(frame.Closure.Fn.Owner.Path, path)
			if perr != nil {
				return value.Null, sigReturn, perr
			}
			f.Push(value.FromObj(mod))
		case bytecode.ImportStar:
			modVal := f.Pop()
			mod, ok := modVal.AsObj().(*object.Module)
			if !ok {
				return value.Null, sigReturn, v.runtimeError(f, "import * target is not a module")
			}
			curMod := frame.Closure.Fn.Owner
			for i, gi := range mod.GlobalNames {
				gname := mod.NameAt(gi)
				if len(gname) > 0 && gname[0] == '@' {
					continue
				}
				curMod.SetGlobal(v.GC, gname, mod.Globals[i])
			}

		case bytecode.Call, bytecode.TailCall:
			argc := int(code.Ops[frame.IP])
			frame.IP++
			sig, perr := v.performCall(f, argc, op == bytecode.TailCall, frame)
			if perr != nil {
				return value.Null, sigReturn, perr
			}
			if sig == sigYield {
				return f.Transfer, sigYield, nil
			}
		case bytecode.MethodCall, bytecode.SuperCall:
			argc := int(code.Ops[frame.IP])
			frame.IP++
			nameIdx := code.ReadShort(frame.IP)
			frame.IP += 2
			name := frame.Closure.Fn.Owner.NameAt(int(nameIdx))
			sig, perr := v.performMethodCall(f, argc, name, op == bytecode.SuperCall, frame)
			if perr != nil {
				return value.Null, sigReturn, perr
			}
			if sig == sigYield {
				return f.Transfer, sigYield, nil
			}

		case bytecode.IterTest:
			seq := f.Pop()
			f.Push(v.normalizeIterable(seq))
		case bytecode.Iter:
			varSlot := int(code.Ops[frame.IP])
			frame.IP++
			target := code.ReadShort(frame.IP)
			frame.IP += 2
			seqSlot, curSlot := varSlot-2, varSlot-1
			seq := f.At(frame.Rbp + seqSlot)
			cursor := f.At(frame.Rbp + curSlot)
			val, next, ok := v.iterAdvance(seq, cursor)
			if !ok {
				frame.IP = int(target)
				continue
			}
			f.SetAt(frame.Rbp+varSlot, val)
			f.SetAt(frame.Rbp+curSlot, next)

		case bytecode.Jump:
			target := code.ReadShort(frame.IP)
			frame.IP = int(target)
		case bytecode.Loop:
			offset := code.ReadShort(frame.IP)
			frame.IP = frame.IP + 2 - int(offset)
		case bytecode.JumpIf:
			target := code.ReadShort(frame.IP)
			frame.IP += 2
			if value.Truthy(f.Pop()) {
				frame.IP = int(target)
			}
		case bytecode.JumpIfNot:
			target := code.ReadShort(frame.IP)
			frame.IP += 2
			if !value.Truthy(f.Pop()) {
				frame.IP = int(target)
			}
		case bytecode.Or:
			target := code.ReadShort(frame.IP)
			frame.IP += 2
			if value.Truthy(f.Peek(0)) {
				frame.IP = int(target)
			} else {
				f.Pop()
			}
		case bytecode.And:
			target := code.ReadShort(frame.IP)
			frame.IP += 2
			if !value.Truthy(f.Peek(0)) {
				frame.IP = int(target)
			} else {
				f.Pop()
			}

		case bytecode.Return:
			retVal := f.Pop()
			popped := f.PopFrame()
			f.Truncate(popped.Rbp)
			if v.DebugHook != nil {
				v.DebugHook.OnReturn(v, f, frame.Closure.Fn)
			}
			if f.FrameCount() <= floor {
				return retVal, sigReturn, nil
			}
			f.Push(retVal)

		case bytecode.GetAttrib, bytecode.GetAttribKeep:
			name := frame.Closure.Fn.Owner.NameAt(int(code.ReadShort(frame.IP)))
			frame.IP += 2
			obj := f.Peek(0)
			if op == bytecode.GetAttrib {
				f.Pop()
			}
			val, perr := v.getAttrib(f, obj, name)
			if perr != nil {
				return value.Null, sigReturn, perr
			}
			f.Push(val)
		case bytecode.SetAttrib:
			nameIdx := code.ReadShort(frame.IP)
			frame.IP += 2
			name := frame.Closure.Fn.Owner.NameAt(int(nameIdx))
			val := f.Pop()
			obj := f.Pop()
			if perr := v.setAttrib(f, obj, name, val); perr != nil {
				return value.Null, sigReturn, perr
			}
			f.Push(val)

		case bytecode.GetSubscript, bytecode.GetSubscriptKeep:
			var key, container value.Value
			if op == bytecode.GetSubscript {
				key = f.Pop()
				container = f.Pop()
			} else {
				// Keep both container and key live underneath the fetched
				// value, so a trailing SET_SUBSCRIPT after a compound op
				// (x[i] += v) still has (container, key) to write back to.
				key = f.Peek(0)
				container = f.Peek(1)
			}
			val, perr := v.getSubscript(f, container, key)
			if perr != nil {
				return value.Null, sigReturn, perr
			}
			f.Push(val)
		case bytecode.SetSubscript:
			val := f.Pop()
			key := f.Pop()
			container := f.Pop()
			if perr := v.setSubscript(f, container, key, val); perr != nil {
				return value.Null, sigReturn, perr
			}
			f.Push(val)

		case bytecode.Add, bytecode.Subtract, bytecode.Multiply, bytecode.Divide,
			bytecode.Exponent, bytecode.Mod, bytecode.BitAnd, bytecode.BitOr,
			bytecode.BitXor, bytecode.LShift, bytecode.RShift:
			frame.IP++ // skip the in-place marker byte
			b, a := f.Pop(), f.Pop()
			res, perr := v.arith(f, op, a, b)
			if perr != nil {
				return value.Null, sigReturn, perr
			}
			f.Push(res)
		case bytecode.Positive:
			if !f.Peek(0).IsNum() {
				return value.Null, sigReturn, v.runtimeError(f, "unary '+' requires a number")
			}
		case bytecode.Negative:
			a := f.Pop()
			res, perr := v.unaryNegative(f, a)
			if perr != nil {
				return value.Null, sigReturn, perr.(*errors.PocketError)
			}
			f.Push(res)
		case bytecode.Not:
			a := f.Pop()
			f.Push(value.Bool(!value.Truthy(a)))
		case bytecode.BitNot:
			a := f.Pop()
			res, perr := v.unaryBitNot(f, a)
			if perr != nil {
				return value.Null, sigReturn, perr.(*errors.PocketError)
			}
			f.Push(res)
		case bytecode.EqEq, bytecode.NotEq:
			b, a := f.Pop(), f.Pop()
			eq, err := v.equalWithOverload(f, a, b)
			if err != nil {
				return value.Null, sigReturn, err.(*errors.PocketError)
			}
			if op == bytecode.NotEq {
				eq = !eq
			}
			f.Push(value.Bool(eq))
		case bytecode.Lt, bytecode.LtEq, bytecode.Gt, bytecode.GtEq:
			b, a := f.Pop(), f.Pop()
			res, perr := v.compare(f, opNameFor(op), a, b)
			if perr != nil {
				return value.Null, sigReturn, perr.(*errors.PocketError)
			}
			f.Push(res)
		case bytecode.RangeOp:
			b, a := f.Pop(), f.Pop()
			if !a.IsNum() || !b.IsNum() {
				return value.Null, sigReturn, v.runtimeError(f, "'..' requires numbers")
			}
			f.Push(value.FromObj(object.NewRange(v.GC, a.AsNum(), b.AsNum())))
		case bytecode.In:
			b, a := f.Pop(), f.Pop()
			res, perr := v.membership(f, a, b)
			if perr != nil {
				return value.Null, sigReturn, perr.(*errors.PocketError)
			}
			f.Push(res)
		case bytecode.Is:
			b, a := f.Pop(), f.Pop()
			res, perr := v.isOperator(f, a, b)
			if perr != nil {
				return value.Null, sigReturn, perr.(*errors.PocketError)
			}
			f.Push(res)

		case bytecode.ReplPrint:
			val := f.Peek(0)
			fmtPrintREPL(v, val)

		case bytecode.End:
			return value.Null, sigReturn, nil

		default:
			return value.Null, sigReturn, v.runtimeError(f, "unimplemented opcode %s", op)
		}
	}
}

func opNameFor(op bytecode.Op) string {
	switch op {
	case bytecode.Lt:
		return opLt
	case bytecode.LtEq:
		return opLe
	case bytecode.Gt:
		return opGt
	case bytecode.GtEq:
		return opGe
	}
	return ""
}

// callClosureSync invokes c synchronously on f (used by operator
// overload dispatch, see ops_arith.go): pushes self/args, runs to
// completion, and returns its value. A yield raised from inside one of
// these calls is reported as an error, since an operator overload isn't
// a fiber-yield boundary.
func (v *VM) callClosureSync(f *object.Fiber, c *object.Closure, self value.Value, args []value.Value) (value.Value, error) {
	f.Push(value.FromObj(c)) // occupies the callee/self slot
	for _, a := range args {
		f.Push(a)
	}
	floor := f.FrameCount()
	if perr := v.invokeClosure(f, c, self, len(args)); perr != nil {
		if perr == errYieldSentinel {
			return value.Null, v.runtimeError(f, "cannot yield from an operator overload")
		}
		return value.Null, perr
	}
	if c.Fn.IsNative {
		return f.Pop(), nil
	}
	result, sig, perr := v.runUntil(f, floor)
	if perr != nil {
		return value.Null, perr
	}
	if sig == sigYield {
		return value.Null, v.runtimeError(f, "cannot yield from an operator overload")
	}
	return result, nil
}

// nativeCtx implements object.NativeContext for one native call. rbp is
// the callee slot's index on the fiber stack while the call is live, or
// -1 when the context has no stack window (foreign-class new_fn); it
// anchors the slot view SlotsOf hands to embedders.
type nativeCtx struct {
	vm    *VM
	fiber *object.Fiber
	args  []value.Value
	self  value.Value
	rbp   int
}

func (c *nativeCtx) GC() *object.GC       { return c.vm.GC }
func (c *nativeCtx) Args() []value.Value  { return c.args }
func (c *nativeCtx) Self() value.Value    { return c.self }
func (c *nativeCtx) Arg(i int) value.Value {
	if i < 0 || i >= len(c.args) {
		return value.Null
	}
	return c.args[i]
}
func (c *nativeCtx) Error(format string, args ...interface{}) error {
	return c.vm.runtimeError(c.fiber, format, args...)
}
func (c *nativeCtx) Yield(val value.Value) error { return &yieldSignal{val: val} }


