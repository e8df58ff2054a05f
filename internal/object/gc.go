package object

import "pocket/internal/value"

// Default heap thresholds (spec §4.3).
const (
	MinHeap           = 1 << 20  // 1 MiB
	InitialNextGC     = 10 << 20 // 10 MiB
	DefaultFillPercent = 75
)

// Root is implemented by anything the GC should treat as a marking root:
// the active Fiber, the modules table, the primitive-class registry, the
// compiler chain (spec §4.3 roots 1-6).
type Root interface {
	MarkRoots(gc *GC)
}

// GC is a tri-color mark-and-sweep collector over the heap-object list
// (spec §4.3). It does not itself free memory behind objects' backs —
// Go's runtime GC still owns real memory — but it faithfully reproduces
// the mark/sweep bookkeeping, the bytes_allocated/next_gc growth policy,
// and the temp-ref/handle rooting discipline the spec requires, so that
// "unreachable object unlinked from the live list" has the same
// observable semantics as "unreachable object freed."
type GC struct {
	head        heapObj
	working     []heapObj
	bytesAllocated uint64
	nextGC      uint64
	fillPercent int
	roots       []Root
	tempRefs    []heapObj
	handles     *handleNode // sentinel node; handles.next/.prev form the ring
	collections int
}

func NewGC() *GC {
	gc := &GC{
		nextGC:      InitialNextGC,
		fillPercent: DefaultFillPercent,
	}
	gc.handles = &handleNode{}
	gc.handles.next = gc.handles
	gc.handles.prev = gc.handles
	return gc
}

// AddRoot registers a long-lived root (a Fiber, the modules table, the
// primitive-class registry, ...). Roots are walked on every collection.
func (gc *GC) AddRoot(r Root) { gc.roots = append(gc.roots, r) }

// link threads a freshly allocated object onto the live-object list and
// accounts its approximate size toward bytes_allocated, then triggers a
// collection if the threshold was crossed (spec §4.3 Trigger).
func (gc *GC) link(o heapObj, size uint64) {
	h := o.gcHeader()
	h.size = size
	h.next = gc.head
	gc.head = o
	gc.bytesAllocated += size
	if gc.bytesAllocated > gc.nextGC {
		gc.Collect()
	}
}

// PushTemp installs obj as a GC root for the duration of an allocation
// sequence (spec §4.3 "temp-ref stack", design note "scoped guard"). Use
// PushTempGuard for the defer-safe form.
func (gc *GC) PushTemp(o value.Obj) {
	if o == nil {
		return
	}
	if ho, ok := o.(heapObj); ok {
		gc.tempRefs = append(gc.tempRefs, ho)
	}
}

func (gc *GC) PopTemp() {
	if len(gc.tempRefs) > 0 {
		gc.tempRefs = gc.tempRefs[:len(gc.tempRefs)-1]
	}
}

// TempGuard is the "acquisition on construction, release on scope exit"
// primitive the design notes call for (spec §9). Callers should
// `defer gc.PushTempGuard(obj).Release()` across any allocation sequence
// that might collect while obj is not yet reachable from a root.
type TempGuard struct{ gc *GC }

func (gc *GC) PushTempGuard(o value.Obj) TempGuard {
	gc.PushTemp(o)
	return TempGuard{gc: gc}
}

func (g TempGuard) Release() { g.gc.PopTemp() }

// MarkValue marks v's referent, if it is an object, and everything
// reachable from it.
func (gc *GC) MarkValue(v value.Value) {
	if !v.IsObj() {
		return
	}
	gc.MarkObj(v.AsObj())
}

// MarkObj marks o and pushes it onto the working set for child marking.
func (gc *GC) MarkObj(o value.Obj) {
	if o == nil {
		return
	}
	ho, ok := o.(heapObj)
	if !ok {
		return
	}
	h := ho.gcHeader()
	if h.marked {
		return
	}
	h.marked = true
	gc.working = append(gc.working, ho)
}

// Collect runs one full mark-and-sweep cycle (spec §4.3).
func (gc *GC) Collect() {
	gc.collections++
	gc.mark()
	gc.bytesAllocated = gc.sweep()
	gc.nextGC = gc.bytesAllocated * uint64(100+gc.fillPercent) / 100
	if gc.nextGC < MinHeap {
		gc.nextGC = MinHeap
	}
}

func (gc *GC) mark() {
	for _, r := range gc.roots {
		r.MarkRoots(gc)
	}
	for _, t := range gc.tempRefs {
		gc.MarkObj(t)
	}
	for n := gc.handles.next; n != gc.handles; n = n.next {
		gc.MarkValue(n.val)
	}
	for len(gc.working) > 0 {
		n := len(gc.working) - 1
		o := gc.working[n]
		gc.working = gc.working[:n]
		if cm, ok := o.(childMarker); ok {
			cm.markChildren(gc)
		}
	}
}

// sweep walks the live-object list, unlinking and freeing unmarked
// objects and clearing the mark bit on survivors (spec §4.3 Sweep).
// Returns the retained bytes_allocated total.
func (gc *GC) sweep() uint64 {
	var retained uint64
	var prev heapObj
	cur := gc.head
	for cur != nil {
		h := cur.gcHeader()
		next := h.next
		if h.marked {
			h.marked = false
			retained += h.size
			prev = cur
			cur = next
			continue
		}
		if f, ok := cur.(freer); ok {
			f.free()
		}
		if prev == nil {
			gc.head = next
		} else {
			prev.gcHeader().next = next
		}
		cur = next
	}
	return retained
}

// BytesAllocated and NextGC expose the GC's current bookkeeping, used by
// the `--gc-stats` CLI flag and diagnostics (humanize-formatted).
func (gc *GC) BytesAllocated() uint64 { return gc.bytesAllocated }
func (gc *GC) NextGC() uint64         { return gc.nextGC }
func (gc *GC) Collections() int       { return gc.collections }

// Live reports whether o is still on the live-object list (test hook for
// spec §8 property 5, "GC reachability").
func (gc *GC) Live(o value.Obj) bool {
	ho, ok := o.(heapObj)
	if !ok {
		return false
	}
	for cur := gc.head; cur != nil; cur = cur.gcHeader().next {
		if cur == heapObj(ho) {
			return true
		}
	}
	return false
}


