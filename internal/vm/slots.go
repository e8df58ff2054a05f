// Slot-based embedding ABI: the host exchanges values with the VM
// through an indexed window into a fiber's data stack, so everything a
// host holds during a call is automatically a GC root (the fiber stack
// is root set #1). Two ways in: SlotsOf from inside a native function,
// or VM.OpenSlots for host-driven calls between runs.
package vm

import (
	"fmt"
	"math"

	"pocket/internal/errors"
	"pocket/internal/object"
	"pocket/internal/value"
)

// Slots is a host-facing view of the slot window [base, base+n) on a
// fiber's stack. Slot 0 of a native-call view holds the callee (or the
// bound receiver), slots 1..argc the arguments.
type Slots struct {
	vm   *VM
	f    *object.Fiber
	base int
	argc int
	self value.Value

	guard object.TempGuard // OpenSlots only; zero for native-call views
	owned bool
}

// SlotsOf returns the slot view for the native call ctx was created
// for. Reports false when ctx has no live stack window (a foreign
// class's new_instance_fn runs after its frame was torn down).
func SlotsOf(ctx object.NativeContext) (*Slots, bool) {
	nc, ok := ctx.(*nativeCtx)
	if !ok || nc.rbp < 0 {
		return nil, false
	}
	return &Slots{vm: nc.vm, f: nc.fiber, base: nc.rbp, argc: len(nc.args), self: nc.self}, true
}

// OpenSlots gives the host a scratch slot window on a detached fiber,
// for calling into the VM from outside any native function. The backing
// fiber is kept reachable through the temp-ref stack until Close; Close
// calls must nest LIFO with any other temp-ref use, same as every
// PushTempGuard.
func (v *VM) OpenSlots(n int) *Slots {
	f := object.NewFiber(v.GC, nil)
	s := &Slots{vm: v, f: f, guard: v.GC.PushTempGuard(f), owned: true}
	s.EnsureSlots(n)
	return s
}

// Close releases an OpenSlots window. No-op for native-call views.
func (s *Slots) Close() {
	if s.owned {
		s.guard.Release()
		s.owned = false
	}
}

// ArgCount reports how many arguments the native call received.
func (s *Slots) ArgCount() int { return s.argc }

// Count reports how many slots are currently addressable.
func (s *Slots) Count() int { return s.f.SP() - s.base }

// EnsureSlots grows the window to at least n slots, filling new ones
// with null.
func (s *Slots) EnsureSlots(n int) {
	if s.f.SP() < s.base+n {
		s.f.SetSP(s.base + n)
	}
}

func (s *Slots) check(i int) bool { return i >= 0 && i < s.Count() }

// Get reads slot i; out-of-window reads return null rather than
// faulting, mirroring nativeCtx.Arg.
func (s *Slots) Get(i int) value.Value {
	if !s.check(i) {
		return value.Null
	}
	return s.f.At(s.base + i)
}

// Set writes slot i, growing the window as needed.
func (s *Slots) Set(i int, val value.Value) {
	s.EnsureSlots(i + 1)
	s.f.SetAt(s.base+i, val)
}

func (s *Slots) SetNull(i int)            { s.Set(i, value.Null) }
func (s *Slots) SetBool(i int, b bool)    { s.Set(i, value.Bool(b)) }
func (s *Slots) SetNum(i int, n float64)  { s.Set(i, value.Num(n)) }
func (s *Slots) SetString(i int, str string) {
	s.Set(i, value.FromObj(object.NewString(s.vm.GC, str)))
}

// PlaceSelf writes the native call's receiver into slot i (null for an
// OpenSlots window, which has no receiver).
func (s *Slots) PlaceSelf(i int) { s.Set(i, s.self) }

// --- argument validation ----------------------------------------------

func (s *Slots) slotError(i int, want string) error {
	return &errors.PocketError{Kind: errors.TypeError,
		Message: fmt.Sprintf("slot %d: expected a %s, got %s", i, want, kindLabel(s.Get(i)))}
}

// ValidateBool reads slot i as a bool or reports a type error the
// native can return directly.
func (s *Slots) ValidateBool(i int) (bool, error) {
	v := s.Get(i)
	if !v.IsBool() {
		return false, s.slotError(i, "bool")
	}
	return v.AsBool(), nil
}

func (s *Slots) ValidateNum(i int) (float64, error) {
	v := s.Get(i)
	if !v.IsNum() {
		return 0, s.slotError(i, "number")
	}
	return v.AsNum(), nil
}

// ValidateInt reads slot i as a number and additionally requires it to
// be integral.
func (s *Slots) ValidateInt(i int) (int64, error) {
	n, err := s.ValidateNum(i)
	if err != nil {
		return 0, err
	}
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		return 0, s.slotError(i, "whole number")
	}
	return int64(n), nil
}

// ValidateNumRange reads slot i as a number within [lo, hi].
func (s *Slots) ValidateNumRange(i int, lo, hi float64) (float64, error) {
	n, err := s.ValidateNum(i)
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, &errors.PocketError{Kind: errors.RuntimeError,
			Message: fmt.Sprintf("slot %d: number out of range", i)}
	}
	return n, nil
}

func (s *Slots) ValidateString(i int) (string, error) {
	v := s.Get(i)
	if !v.IsObjKind(value.ObjString) {
		return "", s.slotError(i, "string")
	}
	return v.AsObj().(*object.String).Text(), nil
}

// ValidateInstanceOf reads slot i as an instance of cls (or a
// subclass).
func (s *Slots) ValidateInstanceOf(i int, cls *object.Class) (*object.Instance, error) {
	v := s.Get(i)
	if v.IsObjKind(value.ObjInstance) {
		inst := v.AsObj().(*object.Instance)
		for c := inst.Cls; c != nil; c = c.SuperClass {
			if c == cls {
				return inst, nil
			}
		}
	}
	return nil, s.slotError(i, cls.Name.Text())
}

// TypeName reports the class name governing slot i's value.
func (s *Slots) TypeName(i int) string {
	if cls := s.vm.ClassOf(s.Get(i)); cls != nil {
		return cls.Name.Text()
	}
	return "?"
}

// GetClass writes slot i's governing class into slot ret.
func (s *Slots) GetClass(i, ret int) *object.Class {
	cls := s.vm.ClassOf(s.Get(i))
	if cls != nil {
		s.Set(ret, value.FromObj(cls))
	}
	return cls
}

// IsInstanceOf reports whether slot i's value is governed by the class
// in slot clsSlot (walking superclasses).
func (s *Slots) IsInstanceOf(i, clsSlot int) (bool, error) {
	cv := s.Get(clsSlot)
	if !cv.IsObjKind(value.ObjClass) {
		return false, s.slotError(clsSlot, "class")
	}
	want := cv.AsObj().(*object.Class)
	for c := s.vm.ClassOf(s.Get(i)); c != nil; c = c.SuperClass {
		if c == want {
			return true, nil
		}
	}
	return false, nil
}

// Handle wraps slot i's value in a host handle that outlives this slot
// window (spec: handles are the only externally-writable root).
func (s *Slots) Handle(i int) *object.Handle {
	return s.vm.GC.NewHandle(s.Get(i))
}

// --- container constructors and list access ---------------------------

func (s *Slots) NewList(i int)  { s.Set(i, value.FromObj(object.NewList(s.vm.GC))) }
func (s *Slots) NewMap(i int)   { s.Set(i, value.FromObj(object.NewMap(s.vm.GC))) }
func (s *Slots) NewRange(i int, from, to float64) {
	s.Set(i, value.FromObj(object.NewRange(s.vm.GC, from, to)))
}

func (s *Slots) listAt(i int) (*object.List, error) {
	v := s.Get(i)
	if !v.IsObjKind(value.ObjList) {
		return nil, s.slotError(i, "list")
	}
	return v.AsObj().(*object.List), nil
}

// ListInsert inserts slot valSlot's value into the list in listSlot at
// index (index == length appends).
func (s *Slots) ListInsert(listSlot, index, valSlot int) error {
	lst, err := s.listAt(listSlot)
	if err != nil {
		return err
	}
	if !lst.Insert(normalizeIndex(index, lst.Len()), s.Get(valSlot)) {
		return &errors.PocketError{Kind: errors.RuntimeError, Message: "list index out of bounds"}
	}
	return nil
}

// ListPop removes the element at index from the list in listSlot and
// writes it to slot ret.
func (s *Slots) ListPop(listSlot, index, ret int) error {
	lst, err := s.listAt(listSlot)
	if err != nil {
		return err
	}
	val, ok := lst.Remove(normalizeIndex(index, lst.Len()))
	if !ok {
		return &errors.PocketError{Kind: errors.RuntimeError, Message: "list index out of bounds"}
	}
	s.Set(ret, val)
	return nil
}

func (s *Slots) ListLength(listSlot int) (int, error) {
	lst, err := s.listAt(listSlot)
	if err != nil {
		return 0, err
	}
	return lst.Len(), nil
}

// --- calling back into the VM -----------------------------------------

// CallFunction calls the value in slot fnSlot with argc arguments taken
// from slots firstArg..firstArg+argc-1, writing the result to slot ret.
// Legal callees are whatever CALL accepts: closures, method binds,
// classes, fibers.
func (s *Slots) CallFunction(fnSlot, argc, firstArg, ret int) error {
	return s.callCommon(s.Get(fnSlot), value.Undefined, "", argc, firstArg, ret)
}

// CallMethod looks up name on slot recvSlot's class and invokes it with
// the receiver bound as self.
func (s *Slots) CallMethod(recvSlot int, name string, argc, firstArg, ret int) error {
	return s.callCommon(value.Undefined, s.Get(recvSlot), name, argc, firstArg, ret)
}

func (s *Slots) callCommon(callee, recv value.Value, method string, argc, firstArg, ret int) error {
	f := s.f
	floor := f.FrameCount()
	top := f.SP()
	if method == "" {
		f.Push(callee)
	} else {
		f.Push(recv)
	}
	for i := 0; i < argc; i++ {
		f.Push(s.Get(firstArg + i))
	}

	var sig execSignal
	var perr *errors.PocketError
	if method == "" {
		sig, perr = s.vm.performCall(f, argc, false, nil)
	} else {
		sig, perr = s.vm.performMethodCall(f, argc, method, false, nil)
	}
	if perr != nil {
		f.Truncate(top)
		return perr
	}
	if sig == sigYield {
		f.Truncate(top)
		return &errors.PocketError{Kind: errors.RuntimeError,
			Message: "cannot yield across the embedding boundary"}
	}

	var result value.Value
	if f.FrameCount() > floor {
		// A bytecode frame was pushed; drive it to completion here.
		res, sig, perr := s.vm.runUntil(f, floor)
		if perr != nil {
			f.Truncate(top)
			return perr
		}
		if sig == sigYield {
			f.Truncate(top)
			return &errors.PocketError{Kind: errors.RuntimeError,
				Message: "cannot yield across the embedding boundary"}
		}
		result = res
	} else {
		// Native callee or constructor: the result was pushed in place.
		result = f.Pop()
	}
	f.Truncate(top)
	s.Set(ret, result)
	return nil
}

// GetAttribute reads objSlot.name into slot ret.
func (s *Slots) GetAttribute(objSlot int, name string, ret int) error {
	val, perr := s.vm.getAttrib(s.f, s.Get(objSlot), name)
	if perr != nil {
		return perr
	}
	s.Set(ret, val)
	return nil
}

// SetAttribute writes slot valSlot's value to objSlot.name.
func (s *Slots) SetAttribute(objSlot int, name string, valSlot int) error {
	if perr := s.vm.setAttrib(s.f, s.Get(objSlot), name, s.Get(valSlot)); perr != nil {
		return perr
	}
	return nil
}

// ImportModule resolves and runs path the way the IMPORT opcode does,
// writing the Module into slot ret.
func (s *Slots) ImportModule(path string, ret int) error {
	mod, perr := s.vm.importModule("", path)
	if perr != nil {
		return perr
	}
	s.Set(ret, value.FromObj(mod))
	return nil
}

// SetRuntimeError builds the error a native function should return to
// abort the current script call with message.
func (s *Slots) SetRuntimeError(message string) error {
	return s.vm.runtimeError(s.f, "%s", message)
}

// --- VM-level configuration (spec "VM lifecycle" operations) ----------

// RegisterBuiltin adds a host function to the builtin registry under
// name; scripts compiled afterwards resolve it like print or len.
// Arity -1 accepts any argument count.
func (v *VM) RegisterBuiltin(name string, arity int, fn object.NativeFn) {
	v.registerBuiltinFn(name, arity, fn)
}

// AddSearchPath appends a directory to the module search path.
func (v *VM) AddSearchPath(dir string) { v.SearchPaths = append(v.SearchPaths, dir) }

// SetUserData attaches host data to the VM; GetUserData reads it back
// from inside a native function.
func (v *VM) SetUserData(ud interface{}) { v.UserData = ud }
func (v *VM) GetUserData() interface{}   { return v.UserData }
