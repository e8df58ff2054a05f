package object

import "pocket/internal/value"

// Range is a lazily materialized numeric interval (spec §3.3).
type Range struct {
	Header
	From, To float64
}

func NewRange(gc *GC, from, to float64) *Range {
	r := &Range{From: from, To: to}
	r.kind = value.ObjRange
	gc.link(r, 32)
	return r
}

// Materialize expands the range to a List: "from < to only, else empty"
// (spec §3.3).
func (r *Range) Materialize(gc *GC) *List {
	l := NewList(gc)
	if r.From < r.To {
		for v := r.From; v < r.To; v++ {
			l.Append(value.Num(v))
		}
	}
	return l
}

func (r *Range) EqualObj(other value.Obj) bool {
	o, ok := other.(*Range)
	return ok && r.From == o.From && r.To == o.To
}

func (r *Range) HashObj() (uint64, bool) {
	h1, _ := value.Hash(value.Num(r.From))
	h2, _ := value.Hash(value.Num(r.To))
	return h1*31 + h2, true
}

func (r *Range) TruthyObj() bool { return r.From < r.To }


