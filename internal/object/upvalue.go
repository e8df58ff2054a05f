package object

import "pocket/internal/value"

// Upvalue is either open (aliasing a live Fiber stack slot) or closed
// (owning a Value) (spec §3.3, §3.4). Open upvalues reference their
// owning Fiber by index rather than by raw pointer: the fiber's stack
// growth (spec §4.8 "stack grows x2 ... every open upvalue ... migrated")
// copies existing slots to the same indices in the new backing array, so
// an index-based reference survives growth without an explicit migration
// step — a deliberate simplification of the source's pointer-rewrite
// dance that preserves the same observable behavior (see DESIGN.md).
type Upvalue struct {
	Header
	owner    *Fiber
	slot     int
	closed   value.Value
	isClosed bool
}

func NewUpvalue(gc *GC, owner *Fiber, slot int) *Upvalue {
	uv := &Upvalue{owner: owner, slot: slot}
	uv.kind = value.ObjUpvalue
	gc.link(uv, 40)
	return uv
}

func (u *Upvalue) Get() value.Value {
	if u.isClosed {
		return u.closed
	}
	return u.owner.stack[u.slot]
}

func (u *Upvalue) Set(v value.Value) {
	if u.isClosed {
		u.closed = v
		return
	}
	u.owner.stack[u.slot] = v
}

// Close moves the pointed-to value into the closed field (spec §3.3).
func (u *Upvalue) Close() {
	if u.isClosed {
		return
	}
	u.closed = u.owner.stack[u.slot]
	u.isClosed = true
	u.owner = nil
}

func (u *Upvalue) IsOpenAt(slot int) bool { return !u.isClosed && u.slot == slot }
func (u *Upvalue) Slot() int              { return u.slot }

func (u *Upvalue) markChildren(gc *GC) {
	if u.isClosed {
		gc.MarkValue(u.closed)
	}
	// Open upvalues are reachable via the owning Fiber's own stack scan;
	// marking here too would be redundant but harmless, so we skip it to
	// keep one cycle's work proportional to live roots, not live stacks.
}


