// GET_ATTRIB/SET_ATTRIB/GET_SUBSCRIPT/SET_SUBSCRIPT: attribute and
// subscript access may dispatch to an overloaded method on an Instance
// (@getter, @setter, indexing via [], []=) across the Module/Class/
// Instance/List/Map/String/Range object model.
package vm

import (
	"pocket/internal/errors"
	"pocket/internal/object"
	"pocket/internal/value"
)

func nameValue(v *VM, name string) value.Value {
	return value.FromObj(object.NewString(v.GC, name))
}

// getAttrib implements GET_ATTRIB/GET_ATTRIB_KEEP: a Module exposes its
// globals, a Class its static attributes and bound methods, an Instance
// its dynamic attribute map, its methods, and finally an @getter
// fallback for computed attributes.
func (v *VM) getAttrib(f *object.Fiber, obj value.Value, name string) (value.Value, *errors.PocketError) {
	switch {
	case obj.IsObjKind(value.ObjModule):
		mod := obj.AsObj().(*object.Module)
		if idx, ok := mod.GetGlobalIndex(name); ok {
			return mod.Globals[idx], nil
		}
		return value.Null, v.runtimeError(f, "module %q has no member %q", mod.Name, name)

	case obj.IsObjKind(value.ObjClass):
		cls := obj.AsObj().(*object.Class)
		if val, ok := cls.StaticAttribs.Get(nameValue(v, name)); ok {
			return val, nil
		}
		if m, ok := cls.FindMethod(name); ok {
			return value.FromObj(object.NewMethodBind(v.GC, m, obj)), nil
		}
		return value.Null, v.runtimeError(f, "class %q has no attribute %q", cls.Name.Text(), name)

	case obj.IsObjKind(value.ObjInstance):
		inst := obj.AsObj().(*object.Instance)
		if val, ok := inst.Attribs.Get(nameValue(v, name)); ok {
			return val, nil
		}
		if m, ok := inst.Cls.FindMethod(name); ok {
			return value.FromObj(object.NewMethodBind(v.GC, m, obj)), nil
		}
		if getter, ok := inst.Cls.FindMethod(opGetter); ok {
			return v.callClosureSyncErr(f, getter, obj, []value.Value{nameValue(v, name)})
		}
		return value.Null, v.runtimeError(f, "instance of %q has no attribute %q", inst.Cls.Name.Text(), name)

	default:
		if cls := v.ClassOf(obj); cls != nil {
			if m, ok := cls.FindMethod(name); ok {
				return value.FromObj(object.NewMethodBind(v.GC, m, obj)), nil
			}
		}
		return value.Null, v.runtimeError(f, "%s has no attribute %q", kindLabel(obj), name)
	}
}

// setAttrib implements SET_ATTRIB: a Module or Class stores the value
// directly; an Instance routes through @setter when the class defines
// one, else stores into its attribute map.
func (v *VM) setAttrib(f *object.Fiber, obj value.Value, name string, val value.Value) *errors.PocketError {
	switch {
	case obj.IsObjKind(value.ObjModule):
		obj.AsObj().(*object.Module).SetGlobal(v.GC, name, val)
		return nil

	case obj.IsObjKind(value.ObjClass):
		cls := obj.AsObj().(*object.Class)
		if err := cls.StaticAttribs.Insert(nameValue(v, name), val); err != nil {
			return v.runtimeError(f, "%s", err.Error())
		}
		return nil

	case obj.IsObjKind(value.ObjInstance):
		inst := obj.AsObj().(*object.Instance)
		if setter, ok := inst.Cls.FindMethod(opSetter); ok {
			_, perr := v.callClosureSyncErr(f, setter, obj, []value.Value{nameValue(v, name), val})
			return perr
		}
		if err := inst.Attribs.Insert(nameValue(v, name), val); err != nil {
			return v.runtimeError(f, "%s", err.Error())
		}
		return nil
	}
	return v.runtimeError(f, "cannot set attribute %q on %s", name, kindLabel(obj))
}

// callClosureSyncErr adapts callClosureSync's plain-error return to the
// *errors.PocketError the dispatch loop threads through.
func (v *VM) callClosureSyncErr(f *object.Fiber, c *object.Closure, self value.Value, args []value.Value) (value.Value, *errors.PocketError) {
	res, err := v.callClosureSync(f, c, self, args)
	if err != nil {
		return value.Null, asPocketError(v, f, err)
	}
	return res, nil
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		return length + i
	}
	return i
}

// getSubscript implements GET_SUBSCRIPT/GET_SUBSCRIPT_KEEP: an Instance
// defining "[]" overloads it, else List/Map/String/Range get their
// native element access — the same container-specific-access rule `in`
// uses for membership.
func (v *VM) getSubscript(f *object.Fiber, container, key value.Value) (value.Value, *errors.PocketError) {
	if m, ok := v.instanceMethod(container, opGetSub); ok {
		return v.callClosureSyncErr(f, m, container, []value.Value{key})
	}
	switch {
	case container.IsObjKind(value.ObjList):
		lst := container.AsObj().(*object.List)
		if !key.IsNum() {
			return value.Null, v.runtimeError(f, "list index must be a number")
		}
		val, ok := lst.Get(normalizeIndex(int(key.AsNum()), lst.Len()))
		if !ok {
			return value.Null, v.runtimeError(f, "list index out of bounds")
		}
		return val, nil

	case container.IsObjKind(value.ObjMap):
		val, ok := container.AsObj().(*object.Map).Get(key)
		if !ok {
			return value.Null, v.runtimeError(f, "key not found")
		}
		return val, nil

	case container.IsObjKind(value.ObjString):
		s := container.AsObj().(*object.String)
		if !key.IsNum() {
			return value.Null, v.runtimeError(f, "string index must be a number")
		}
		idx := normalizeIndex(int(key.AsNum()), s.Len())
		if idx < 0 || idx >= s.Len() {
			return value.Null, v.runtimeError(f, "string index out of bounds")
		}
		return value.FromObj(object.NewStringFromBytes(v.GC, s.Bytes()[idx:idx+1])), nil

	case container.IsObjKind(value.ObjRange):
		lst := container.AsObj().(*object.Range).Materialize(v.GC)
		if !key.IsNum() {
			return value.Null, v.runtimeError(f, "range index must be a number")
		}
		val, ok := lst.Get(normalizeIndex(int(key.AsNum()), lst.Len()))
		if !ok {
			return value.Null, v.runtimeError(f, "range index out of bounds")
		}
		return val, nil
	}
	return value.Null, v.runtimeError(f, "%s is not subscriptable", kindLabel(container))
}

// setSubscript implements SET_SUBSCRIPT.
func (v *VM) setSubscript(f *object.Fiber, container, key, val value.Value) *errors.PocketError {
	if m, ok := v.instanceMethod(container, opSetSub); ok {
		_, perr := v.callClosureSyncErr(f, m, container, []value.Value{key, val})
		return perr
	}
	switch {
	case container.IsObjKind(value.ObjList):
		lst := container.AsObj().(*object.List)
		if !key.IsNum() {
			return v.runtimeError(f, "list index must be a number")
		}
		if !lst.Set(normalizeIndex(int(key.AsNum()), lst.Len()), val) {
			return v.runtimeError(f, "list index out of bounds")
		}
		return nil

	case container.IsObjKind(value.ObjMap):
		if err := container.AsObj().(*object.Map).Insert(key, val); err != nil {
			return v.runtimeError(f, "%s", err.Error())
		}
		return nil
	}
	return v.runtimeError(f, "%s does not support item assignment", kindLabel(container))
}


