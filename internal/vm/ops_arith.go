package vm

import (
	"math"

	"pocket/internal/bytecode"
	"pocket/internal/errors"
	"pocket/internal/object"
	"pocket/internal/value"
)

// operatorMethod names the instance method slot an overloadable operator
// dispatches to (spec §4.8 "may dispatch to an overloaded method on an
// Instance (+, ==, >, _repr, @getter, @setter, indexing via [], []=)").
const (
	opAdd = "+"
	opSub = "-"
	opMul = "*"
	opDiv = "/"
	opMod = "%"
	opPow = "**"
	opEq  = "=="
	opLt  = "<"
	opLe  = "<="
	opGt  = ">"
	opGe  = ">="
	opRepr = "_repr"
	opGetSub = "[]"
	opSetSub = "[]="
	opGetter = "@getter"
	opSetter = "@setter"
	opInit   = "_init"
)

// instanceMethod looks up name on val's class if val is an Instance.
func (v *VM) instanceMethod(val value.Value, name string) (*object.Closure, bool) {
	if !val.IsObjKind(value.ObjInstance) {
		return nil, false
	}
	inst := val.AsObj().(*object.Instance)
	return inst.Cls.FindMethod(name)
}

// binaryOverload tries `lhs.<name>(rhs)` when lhs is an Instance
// defining it. ok=false means no overload applied and the caller should
// fall back to the builtin semantics.
func (v *VM) binaryOverload(f *object.Fiber, name string, lhs, rhs value.Value) (value.Value, bool, error) {
	m, found := v.instanceMethod(lhs, name)
	if !found {
		return value.Null, false, nil
	}
	res, err := v.callClosureSync(f, m, lhs, []value.Value{rhs})
	return res, true, err
}

func (v *VM) add(f *object.Fiber, a, b value.Value) (value.Value, error) {
	if r, ok, err := v.binaryOverload(f, opAdd, a, b); ok || err != nil {
		return r, err
	}
	switch {
	case a.IsNum() && b.IsNum():
		return value.Num(a.AsNum() + b.AsNum()), nil
	case a.IsObjKind(value.ObjString) && b.IsObjKind(value.ObjString):
		return value.FromObj(object.Concat(v.GC, a.AsObj().(*object.String), b.AsObj().(*object.String))), nil
	case a.IsObjKind(value.ObjList) && b.IsObjKind(value.ObjList):
		al, bl := a.AsObj().(*object.List), b.AsObj().(*object.List)
		out := object.NewListWithCap(v.GC, al.Len()+bl.Len())
		for _, e := range al.All() {
			out.Append(e)
		}
		for _, e := range bl.All() {
			out.Append(e)
		}
		return value.FromObj(out), nil
	}
	return value.Null, v.runtimeError(f, "unsupported operand types for +")
}

func (v *VM) numericBinary(f *object.Fiber, name string, a, b value.Value, fn func(x, y float64) float64) (value.Value, error) {
	if r, ok, err := v.binaryOverload(f, name, a, b); ok || err != nil {
		return r, err
	}
	if !a.IsNum() || !b.IsNum() {
		return value.Null, v.runtimeError(f, "operand must be a number")
	}
	return value.Num(fn(a.AsNum(), b.AsNum())), nil
}

func (v *VM) sub(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.numericBinary(f, opSub, a, b, func(x, y float64) float64 { return x - y })
}
func (v *VM) mul(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.numericBinary(f, opMul, a, b, func(x, y float64) float64 { return x * y })
}
func (v *VM) div(f *object.Fiber, a, b value.Value) (value.Value, error) {
	// Division by zero policy (spec §7): produces IEEE inf/nan, not an error.
	return v.numericBinary(f, opDiv, a, b, func(x, y float64) float64 { return x / y })
}
func (v *VM) exponent(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.numericBinary(f, opPow, a, b, math.Pow)
}
func (v *VM) mod(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.numericBinary(f, opMod, a, b, math.Mod)
}

func asInt64(v value.Value) int64 { return int64(v.AsNum()) }

func (v *VM) bitBinary(f *object.Fiber, a, b value.Value, fn func(x, y int64) int64) (value.Value, error) {
	if !a.IsNum() || !b.IsNum() {
		return value.Null, v.runtimeError(f, "bitwise operand must be a number")
	}
	return value.Num(float64(fn(asInt64(a), asInt64(b)))), nil
}

func (v *VM) bitAnd(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.bitBinary(f, a, b, func(x, y int64) int64 { return x & y })
}
func (v *VM) bitOr(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.bitBinary(f, a, b, func(x, y int64) int64 { return x | y })
}
func (v *VM) bitXor(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.bitBinary(f, a, b, func(x, y int64) int64 { return x ^ y })
}
func (v *VM) lshift(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.bitBinary(f, a, b, func(x, y int64) int64 { return x << uint(y) })
}
func (v *VM) rshift(f *object.Fiber, a, b value.Value) (value.Value, error) {
	return v.bitBinary(f, a, b, func(x, y int64) int64 { return x >> uint(y) })
}

// compare implements the spec's ordering operators: overloadable via
// "<"/">" (and their -eq variants synthesized from those), else numbers
// and strings compare natively.
func (v *VM) compare(f *object.Fiber, op string, a, b value.Value) (value.Value, error) {
	if r, ok, err := v.binaryOverload(f, op, a, b); ok || err != nil {
		return r, err
	}
	var less, equal bool
	switch {
	case a.IsNum() && b.IsNum():
		less = a.AsNum() < b.AsNum()
		equal = a.AsNum() == b.AsNum()
	case a.IsObjKind(value.ObjString) && b.IsObjKind(value.ObjString):
		as, bs := a.AsObj().(*object.String).Text(), b.AsObj().(*object.String).Text()
		less = as < bs
		equal = as == bs
	default:
		return value.Null, v.runtimeError(f, "comparison requires numbers or strings")
	}
	switch op {
	case opLt:
		return value.Bool(less), nil
	case opLe:
		return value.Bool(less || equal), nil
	case opGt:
		return value.Bool(!less && !equal), nil
	case opGe:
		return value.Bool(!less), nil
	}
	return value.Null, nil
}

// equalWithOverload implements ==/!= honoring an Instance's "==" method
// (spec §4.8), falling back to value.Equal.
func (v *VM) equalWithOverload(f *object.Fiber, a, b value.Value) (bool, error) {
	if m, found := v.instanceMethod(a, opEq); found {
		res, err := v.callClosureSync(f, m, a, []value.Value{b})
		if err != nil {
			return false, err
		}
		return value.Truthy(res), nil
	}
	return value.Equal(a, b), nil
}

// membership implements `in` (spec §4.8 "in uses container-specific
// membership").
func (v *VM) membership(f *object.Fiber, needle, container value.Value) (value.Value, error) {
	if !container.IsObj() {
		return value.Null, v.runtimeError(f, "'in' requires a container on the right")
	}
	switch container.ObjKind() {
	case value.ObjList:
		for _, e := range container.AsObj().(*object.List).All() {
			eq, err := v.equalWithOverload(f, needle, e)
			if err != nil {
				return value.Null, err
			}
			if eq {
				return value.True, nil
			}
		}
		return value.False, nil
	case value.ObjString:
		if !needle.IsObjKind(value.ObjString) {
			return value.Null, v.runtimeError(f, "'in' on a string requires a string needle")
		}
		s := container.AsObj().(*object.String).Text()
		sub := needle.AsObj().(*object.String).Text()
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return value.True, nil
			}
		}
		return value.False, nil
	case value.ObjMap:
		_, ok := container.AsObj().(*object.Map).Get(needle)
		return value.Bool(ok), nil
	case value.ObjRange:
		r := container.AsObj().(*object.Range)
		if !needle.IsNum() {
			return value.False, nil
		}
		n := needle.AsNum()
		return value.Bool(n >= r.From && n < r.To), nil
	}
	return value.Null, v.runtimeError(f, "'in' unsupported for %s", container.ObjKind())
}

// isOperator implements `is` (spec §4.8: "is compares against a
// class"), walking the superclass chain like an instanceof check.
func (v *VM) isOperator(f *object.Fiber, val, rhs value.Value) (value.Value, error) {
	if !rhs.IsObjKind(value.ObjClass) {
		return value.Null, v.runtimeError(f, "right-hand side of 'is' must be a class")
	}
	target := rhs.AsObj().(*object.Class)
	for c := v.ClassOf(val); c != nil; c = c.SuperClass {
		if c == target {
			return value.True, nil
		}
	}
	return value.False, nil
}

func (v *VM) unaryNegative(f *object.Fiber, a value.Value) (value.Value, error) {
	if m, found := v.instanceMethod(a, "-@"); found {
		return v.callClosureSync(f, m, a, nil)
	}
	if !a.IsNum() {
		return value.Null, v.runtimeError(f, "unary '-' requires a number")
	}
	return value.Num(-a.AsNum()), nil
}

// arith dispatches one of the ADD..RSHIFT opcodes to its implementation,
// used by the interpreter's single binary-arithmetic case.
func (v *VM) arith(f *object.Fiber, op bytecode.Op, a, b value.Value) (value.Value, *errors.PocketError) {
	var res value.Value
	var err error
	switch op {
	case bytecode.Add:
		res, err = v.add(f, a, b)
	case bytecode.Subtract:
		res, err = v.sub(f, a, b)
	case bytecode.Multiply:
		res, err = v.mul(f, a, b)
	case bytecode.Divide:
		res, err = v.div(f, a, b)
	case bytecode.Exponent:
		res, err = v.exponent(f, a, b)
	case bytecode.Mod:
		res, err = v.mod(f, a, b)
	case bytecode.BitAnd:
		res, err = v.bitAnd(f, a, b)
	case bytecode.BitOr:
		res, err = v.bitOr(f, a, b)
	case bytecode.BitXor:
		res, err = v.bitXor(f, a, b)
	case bytecode.LShift:
		res, err = v.lshift(f, a, b)
	case bytecode.RShift:
		res, err = v.rshift(f, a, b)
	default:
		return value.Null, v.runtimeError(f, "unreachable arithmetic opcode %s", op)
	}
	if err != nil {
		if pe, ok := err.(*errors.PocketError); ok {
			return value.Null, pe
		}
		return value.Null, v.runtimeError(f, "%s", err.Error())
	}
	return res, nil
}

func (v *VM) unaryBitNot(f *object.Fiber, a value.Value) (value.Value, error) {
	if !a.IsNum() {
		return value.Null, v.runtimeError(f, "unary '~' requires a number")
	}
	return value.Num(float64(^asInt64(a))), nil
}


