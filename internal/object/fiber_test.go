package object

import (
	"testing"

	"pocket/internal/value"
)

func TestFiberStateStrings(t *testing.T) {
	cases := map[FiberState]string{
		FiberNew:     "NEW",
		FiberRunning: "RUNNING",
		FiberYielded: "YIELDED",
		FiberDone:    "DONE",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("state %d: got %q, want %q", state, got, want)
		}
	}
}

func TestFiberStackGrowthPreservesSlots(t *testing.T) {
	gc := NewGC()
	f := NewFiber(gc, nil)
	const n = defaultStackSize * 3
	for i := 0; i < n; i++ {
		f.Push(value.Num(float64(i)))
	}
	for i := 0; i < n; i++ {
		if got := f.At(i); got.AsNum() != float64(i) {
			t.Fatalf("slot %d corrupted across stack growth: %v", i, got)
		}
	}
}

func TestOpenUpvalueSurvivesStackGrowth(t *testing.T) {
	gc := NewGC()
	f := NewFiber(gc, nil)
	f.Push(value.Num(7))
	uv := f.OpenUpvalueFor(gc, 0)

	// Force several reallocation rounds; the index-based reference must
	// keep reading the same logical slot.
	for i := 0; i < defaultStackSize*4; i++ {
		f.Push(value.Null)
	}
	if got := uv.Get(); got.AsNum() != 7 {
		t.Fatalf("open upvalue read %v after growth, want 7", got)
	}
	uv.Set(value.Num(9))
	if got := f.At(0); got.AsNum() != 9 {
		t.Fatalf("open upvalue write did not land in slot 0: %v", got)
	}
}

func TestOpenUpvalueForDeduplicates(t *testing.T) {
	gc := NewGC()
	f := NewFiber(gc, nil)
	f.Push(value.Num(1))
	f.Push(value.Num(2))
	a := f.OpenUpvalueFor(gc, 1)
	b := f.OpenUpvalueFor(gc, 1)
	if a != b {
		t.Fatal("two captures of the same slot must share one upvalue")
	}
	if c := f.OpenUpvalueFor(gc, 0); c == a {
		t.Fatal("captures of distinct slots must not share an upvalue")
	}
}

func TestCloseUpvaluesFromClosesTailOnly(t *testing.T) {
	gc := NewGC()
	f := NewFiber(gc, nil)
	for i := 0; i < 4; i++ {
		f.Push(value.Num(float64(i)))
	}
	low := f.OpenUpvalueFor(gc, 1)
	high := f.OpenUpvalueFor(gc, 3)

	f.Truncate(2) // closes slot 3, leaves slot 1 open

	if high.IsOpenAt(3) {
		t.Fatal("upvalue above the truncation point must be closed")
	}
	if got := high.Get(); got.AsNum() != 3 {
		t.Fatalf("closed upvalue must own the value its slot held, got %v", got)
	}
	if !low.IsOpenAt(1) {
		t.Fatal("upvalue below the truncation point must stay open")
	}
}

func TestClosedUpvalueIsIndependentOfStack(t *testing.T) {
	gc := NewGC()
	f := NewFiber(gc, nil)
	f.Push(value.Num(5))
	uv := f.OpenUpvalueFor(gc, 0)
	f.Truncate(0)

	// The slot is dead; re-push something else over it.
	f.Push(value.Num(99))
	if got := uv.Get(); got.AsNum() != 5 {
		t.Fatalf("closed upvalue leaked a dead slot's new tenant: %v", got)
	}
	uv.Set(value.Num(6))
	if got := f.At(0); got.AsNum() != 99 {
		t.Fatalf("writing a closed upvalue must not touch the stack: %v", got)
	}
}

func TestFrameArrayGrowth(t *testing.T) {
	gc := NewGC()
	f := NewFiber(gc, nil)
	fn := NewFn(gc, "f", nil, 0)
	cl := NewClosure(gc, fn)
	const n = 200 // past the initial frame capacity
	for i := 0; i < n; i++ {
		f.PushFrame(cl, i, value.Null)
	}
	if f.FrameCount() != n {
		t.Fatalf("frame count %d, want %d", f.FrameCount(), n)
	}
	for i := n - 1; i >= 0; i-- {
		fr := f.PopFrame()
		if fr.Rbp != i {
			t.Fatalf("frame %d has rbp %d after growth", i, fr.Rbp)
		}
	}
}
