package object

import (
	"testing"

	"pocket/internal/value"
)

// rootSet is a test root: whatever values it holds survive a collection.
type rootSet struct{ vals []value.Value }

func (r *rootSet) MarkRoots(gc *GC) {
	for _, v := range r.vals {
		gc.MarkValue(v)
	}
}

func TestCollectFreesUnreachableObjects(t *testing.T) {
	gc := NewGC()
	s := NewString(gc, "orphan")
	if !gc.Live(s) {
		t.Fatal("freshly allocated object must be on the live list")
	}
	gc.Collect()
	if gc.Live(s) {
		t.Fatal("unreachable object must be unlinked by sweep")
	}
}

func TestCollectKeepsRootReachableGraph(t *testing.T) {
	gc := NewGC()
	root := &rootSet{}
	gc.AddRoot(root)

	inner := NewString(gc, "inner")
	lst := NewList(gc)
	lst.Append(value.FromObj(inner))
	m := NewMap(gc)
	m.Insert(value.FromObj(NewString(gc, "k")), value.FromObj(lst))
	root.vals = append(root.vals, value.FromObj(m))

	orphan := NewString(gc, "orphan")
	gc.Collect()

	for _, o := range []value.Obj{m, lst, inner} {
		if !gc.Live(o) {
			t.Fatalf("%T reachable from a root was freed", o)
		}
	}
	if gc.Live(orphan) {
		t.Fatal("orphan should have been freed alongside the live graph")
	}
}

func TestHandleRootsItsValueUntilRelease(t *testing.T) {
	gc := NewGC()
	s := NewString(gc, "held")
	h := gc.NewHandle(value.FromObj(s))

	gc.Collect()
	if !gc.Live(s) {
		t.Fatal("a handle's value must survive collection")
	}

	h.Release()
	gc.Collect()
	if gc.Live(s) {
		t.Fatal("after release the value must be collectable")
	}
}

func TestTempGuardRootsAcrossAllocations(t *testing.T) {
	gc := NewGC()
	s := NewString(gc, "pending")
	guard := gc.PushTempGuard(s)

	gc.Collect()
	if !gc.Live(s) {
		t.Fatal("a temp-rooted object must survive collection")
	}

	guard.Release()
	gc.Collect()
	if gc.Live(s) {
		t.Fatal("after guard release the object must be collectable")
	}
}

func TestCollectionUpdatesBytesAllocatedAndNextGC(t *testing.T) {
	gc := NewGC()
	for i := 0; i < 100; i++ {
		NewString(gc, "garbage garbage garbage")
	}
	before := gc.BytesAllocated()
	gc.Collect()
	if gc.BytesAllocated() >= before {
		t.Fatalf("sweep must drop bytes_allocated (was %d, now %d)", before, gc.BytesAllocated())
	}
	if gc.NextGC() < MinHeap {
		t.Fatalf("next_gc must respect MIN_HEAP, got %d", gc.NextGC())
	}
	if gc.Collections() != 1 {
		t.Fatalf("expected exactly 1 recorded collection, got %d", gc.Collections())
	}
}

func TestMarkBitClearedForNextCycle(t *testing.T) {
	gc := NewGC()
	root := &rootSet{}
	gc.AddRoot(root)
	s := NewString(gc, "survivor")
	root.vals = append(root.vals, value.FromObj(s))

	gc.Collect()
	gc.Collect() // a second cycle must re-mark from scratch
	if !gc.Live(s) {
		t.Fatal("survivor lost in the second cycle: mark bit was not cleared")
	}

	root.vals = nil
	gc.Collect()
	if gc.Live(s) {
		t.Fatal("dropping the root must make the object collectable")
	}
}
