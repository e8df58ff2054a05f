// Display formatting for print()/str()/the REPL echo, generalized to
// dispatch a user class's _repr method when one is defined.
package vm

import (
	"fmt"
	"strconv"
	"strings"

	"pocket/internal/object"
	"pocket/internal/value"
)

func (v *VM) fiberOf(ctx object.NativeContext) *object.Fiber {
	if nc, ok := ctx.(*nativeCtx); ok {
		return nc.fiber
	}
	return nil
}

func formatNum(n float64) string {
	return strconv.FormatFloat(n, 'g', -1, 64)
}

func kindLabelV(k value.ObjKind) string { return k.String() }

// stringify renders val the way print()/str() display it. When f is
// non-nil and val is an Instance defining _repr, that method supplies
// the text — _repr is an overloadable Instance method.
func (v *VM) stringify(f *object.Fiber, val value.Value) string {
	switch {
	case val.IsNull(), val.IsUndef():
		return "null"
	case val.IsVoid():
		return "void"
	case val.IsBool():
		if val.AsBool() {
			return "true"
		}
		return "false"
	case val.IsNum():
		return formatNum(val.AsNum())
	case val.IsObj():
		return v.stringifyObj(f, val)
	}
	return "?"
}

// reprOf is stringify with strings quoted, used for List/Map element
// display so `[1, "a"]` reads unambiguously.
func (v *VM) reprOf(f *object.Fiber, val value.Value) string {
	if val.IsObjKind(value.ObjString) {
		return strconv.Quote(val.AsObj().(*object.String).Text())
	}
	return v.stringify(f, val)
}

func (v *VM) stringifyObj(f *object.Fiber, val value.Value) string {
	switch val.ObjKind() {
	case value.ObjString:
		return val.AsObj().(*object.String).Text()
	case value.ObjList:
		lst := val.AsObj().(*object.List)
		parts := make([]string, lst.Len())
		for i, e := range lst.All() {
			parts[i] = v.reprOf(f, e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case value.ObjMap:
		m := val.AsObj().(*object.Map)
		var parts []string
		m.Iterate(func(k, mv value.Value) bool {
			parts = append(parts, v.reprOf(f, k)+": "+v.reprOf(f, mv))
			return true
		})
		return "{" + strings.Join(parts, ", ") + "}"
	case value.ObjRange:
		r := val.AsObj().(*object.Range)
		return fmt.Sprintf("%s..%s", formatNum(r.From), formatNum(r.To))
	case value.ObjClass:
		return fmt.Sprintf("<class %s>", val.AsObj().(*object.Class).Name.Text())
	case value.ObjClosure:
		return fmt.Sprintf("<fn %s>", val.AsObj().(*object.Closure).Fn.Name)
	case value.ObjMethodBind:
		return fmt.Sprintf("<bound method %s>", val.AsObj().(*object.MethodBind).Method.Fn.Name)
	case value.ObjFiber:
		return fmt.Sprintf("<fiber %s>", val.AsObj().(*object.Fiber).ID)
	case value.ObjModule:
		return fmt.Sprintf("<module %s>", val.AsObj().(*object.Module).Name)
	case value.ObjInstance:
		inst := val.AsObj().(*object.Instance)
		if f != nil {
			if m, ok := inst.Cls.FindMethod(opRepr); ok {
				if res, err := v.callClosureSync(f, m, val, nil); err == nil && res.IsObjKind(value.ObjString) {
					return res.AsObj().(*object.String).Text()
				}
			}
		}
		return fmt.Sprintf("<%s instance>", inst.Cls.Name.Text())
	}
	return "<" + kindLabelV(val.ObjKind()) + ">"
}

// fmtPrintREPL implements the REPL_PRINT opcode: the REPL's trailing
// expression-statement result is echoed without being consumed. null/void
// results print nothing, matching a typical "no value to show" REPL
// convention.
func fmtPrintREPL(v *VM, val value.Value) {
	if val.IsNull() || val.IsVoid() {
		return
	}
	fmt.Fprintln(v.Stdout, v.stringify(v.current, val))
}


