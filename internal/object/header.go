// Package object implements Pocket's heap object kinds and its
// mark-and-sweep garbage collector (spec §3.2-3.4, §4.3). The two are one
// package deliberately: the design notes (spec §9) call the object graph
// "tightly coupled" through a shared owner (the GC's live-object list),
// and splitting GC from the kinds it collects would just re-introduce an
// import cycle through a different door.
//
// Grounded on the teacher's object model (sentra internal/vm uses Go
// interface{} for Value and ordinary Go GC for memory; this package keeps
// the teacher's "plain Go struct per kind" texture but adds the explicit
// mark-sweep bookkeeping the spec requires: a live-object list, a marked
// bit, bytes_allocated/next_gc triggers, a temp-ref stack, and a handle
// list) plus the teacher's own debugger hook style for an observability
// seam (internal/debugger/vm_hook.go).
package object

import "pocket/internal/value"

// Header is embedded by every heap object kind. It carries the GC's
// marked bit and the singly-linked "all live objects" pointer (spec
// §3.2). Embedding Header promotes gcHeader() to the embedding type, so
// GC.link/mark/sweep can treat any kind uniformly via the heapObj
// interface without each kind writing its own boilerplate accessor.
type Header struct {
	kind  value.ObjKind
	size  uint64 // approximate bytes, for bytes_allocated bookkeeping
	marked bool
	next  heapObj
}

func (h *Header) ObjKind() value.ObjKind { return h.kind }
func (h *Header) gcHeader() *Header      { return h }

// heapObj is the GC's internal view of any heap object: anything that
// satisfies value.Obj and exposes its Header. Every concrete kind in this
// package satisfies it by embedding Header.
type heapObj interface {
	value.Obj
	gcHeader() *Header
}

// childMarker lets a kind mark the Values/objects it references. Kinds
// with no outgoing references (String) don't need to implement it.
type childMarker interface {
	markChildren(gc *GC)
}

// freer lets a kind release kind-specific resources on sweep (spec §4.3
// "kind-specific freeing frees embedded buffers first, runs foreign
// delete_fn for Instances"). Most kinds rely on Go's own GC to reclaim
// their slice/map fields and don't need to implement it.
type freer interface {
	free()
}


