package object

import "pocket/internal/value"

// List is a growable ordered sequence of Values (spec §3.3). Insert and
// remove shift the backing slice; capacity halves when cap/2 >= count
// (spec's shrink policy).
type List struct {
	Header
	elems []value.Value
}

func NewList(gc *GC) *List {
	l := &List{}
	l.kind = value.ObjList
	gc.link(l, 48)
	return l
}

func NewListWithCap(gc *GC, n int) *List {
	l := &List{elems: make([]value.Value, 0, n)}
	l.kind = value.ObjList
	gc.link(l, uint64(n)*16+48)
	return l
}

func (l *List) Len() int             { return len(l.elems) }
func (l *List) Get(i int) (value.Value, bool) {
	if i < 0 || i >= len(l.elems) {
		return value.Null, false
	}
	return l.elems[i], true
}

func (l *List) Set(i int, v value.Value) bool {
	if i < 0 || i >= len(l.elems) {
		return false
	}
	l.elems[i] = v
	return true
}

func (l *List) Append(v value.Value) { l.elems = append(l.elems, v) }

func (l *List) Insert(i int, v value.Value) bool {
	if i < 0 || i > len(l.elems) {
		return false
	}
	l.elems = append(l.elems, value.Null)
	copy(l.elems[i+1:], l.elems[i:])
	l.elems[i] = v
	return true
}

func (l *List) Remove(i int) (value.Value, bool) {
	if i < 0 || i >= len(l.elems) {
		return value.Null, false
	}
	v := l.elems[i]
	copy(l.elems[i:], l.elems[i+1:])
	l.elems = l.elems[:len(l.elems)-1]
	l.maybeShrink()
	return v, true
}

// maybeShrink implements the spec's list shrink policy: halve capacity
// when cap/2 >= count.
func (l *List) maybeShrink() {
	c := cap(l.elems)
	n := len(l.elems)
	if c/2 >= n && c > 8 {
		ns := make([]value.Value, n, c/2)
		copy(ns, l.elems)
		l.elems = ns
	}
}

func (l *List) All() []value.Value { return l.elems }

func (l *List) EqualObj(other value.Obj) bool {
	o, ok := other.(*List)
	if !ok || len(o.elems) != len(l.elems) {
		return false
	}
	for i := range l.elems {
		if !value.Equal(l.elems[i], o.elems[i]) {
			return false
		}
	}
	return true
}

func (l *List) TruthyObj() bool { return len(l.elems) > 0 }

func (l *List) markChildren(gc *GC) {
	for _, v := range l.elems {
		gc.MarkValue(v)
	}
}


