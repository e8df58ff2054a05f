// ITER_TEST/ITER support (spec §4.7 opcode table, §4.8 "for-in desugars
// to a hidden sequence + cursor pair"). Grounded on the teacher's
// Range/List iteration helpers (sentra internal/object/list.go,
// range.go) and generalized to the map-iterates-its-keys rule spec §4.3
// gives Map.
package vm

import (
	"pocket/internal/object"
	"pocket/internal/value"
)

// normalizeIterable implements ITER_TEST: a Map iterates its keys, every
// other supported container (List, String, Range) iterates itself
// unchanged. Anything else is handed back as-is; iterAdvance then simply
// reports it has nothing to yield, so a for-in over a non-iterable value
// runs zero times rather than panicking.
func (v *VM) normalizeIterable(seq value.Value) value.Value {
	if !seq.IsObjKind(value.ObjMap) {
		return seq
	}
	m := seq.AsObj().(*object.Map)
	keys := object.NewListWithCap(v.GC, m.Len())
	for _, k := range m.Keys() {
		keys.Append(k)
	}
	return value.FromObj(keys)
}

// iterAdvance implements ITER: cursor is null before the first iteration
// and a Num holding the next index afterward. Returns ok=false once the
// sequence is exhausted (or isn't iterable at all).
func (v *VM) iterAdvance(seq, cursor value.Value) (value.Value, value.Value, bool) {
	idx := 0
	if cursor.IsNum() {
		idx = int(cursor.AsNum())
	}
	if !seq.IsObj() {
		return value.Null, value.Null, false
	}
	switch seq.ObjKind() {
	case value.ObjList:
		lst := seq.AsObj().(*object.List)
		if idx >= lst.Len() {
			return value.Null, value.Null, false
		}
		val, _ := lst.Get(idx)
		return val, value.Num(float64(idx + 1)), true
	case value.ObjString:
		s := seq.AsObj().(*object.String)
		if idx >= s.Len() {
			return value.Null, value.Null, false
		}
		return value.FromObj(object.NewStringFromBytes(v.GC, s.Bytes()[idx:idx+1])), value.Num(float64(idx + 1)), true
	case value.ObjRange:
		r := seq.AsObj().(*object.Range)
		cur := r.From + float64(idx)
		if !(cur < r.To) {
			return value.Null, value.Null, false
		}
		return value.Num(cur), value.Num(float64(idx + 1)), true
	}
	return value.Null, value.Null, false
}


