package object

import (
	"github.com/google/uuid"

	"pocket/internal/value"
)

type FiberState uint8

const (
	FiberNew FiberState = iota
	FiberRunning
	FiberYielded
	FiberDone
)

func (s FiberState) String() string {
	switch s {
	case FiberNew:
		return "NEW"
	case FiberRunning:
		return "RUNNING"
	case FiberYielded:
		return "YIELDED"
	case FiberDone:
		return "DONE"
	}
	return "?"
}

const defaultStackSize = 128 // spec §3.3: power-of-two, >= 128 slots

// Frame is a single call frame (spec §3.3 Fiber.frames).
type Frame struct {
	IP      int
	Closure *Closure
	Rbp     int // base of this frame's locals within the fiber stack
	Self    value.Value
}

// Fiber is a cooperatively scheduled stack of call frames with an
// independent data stack (spec §3.3, §4.9, glossary). Identity (ID) is a
// UUID, shown in the fiber's `<fiber ID>` repr (SPEC_FULL.md §4.11).
type Fiber struct {
	Header
	ID uuid.UUID

	EntryClosure *Closure

	stack []value.Value
	sp    int

	frames     []Frame
	frameCount int

	openUpvalues []*Upvalue // sorted ascending by slot

	Caller *Fiber
	Self   value.Value
	Error  *String
	State  FiberState

	// Last value produced across a yield/return boundary, handed to the
	// resumer (spec §4.9 "A fiber may carry an optional yielded/returned
	// value across the boundary").
	Transfer value.Value

	// PendingReturnSlot is the stack slot a paused `yield` call's result
	// must land in once this fiber is resumed (spec §4.9's yield/resume
	// handoff, mirroring a CALL's own "return value at sp[-argc-1]"
	// convention so resuming looks identical to an ordinary call return).
	PendingReturnSlot int
}

func NewFiber(gc *GC, entry *Closure) *Fiber {
	f := &Fiber{
		ID:           uuid.New(),
		EntryClosure: entry,
		stack:        make([]value.Value, defaultStackSize),
		frames:       make([]Frame, 64),
		State:        FiberNew,
	}
	f.kind = value.ObjFiber
	gc.link(f, uint64(defaultStackSize)*16+512)
	return f
}

func (f *Fiber) SP() int        { return f.sp }
func (f *Fiber) StackAt(i int) value.Value { return f.stack[i] }
func (f *Fiber) FrameCount() int { return f.frameCount }
func (f *Fiber) CurrentFrame() *Frame {
	if f.frameCount == 0 {
		return nil
	}
	return &f.frames[f.frameCount-1]
}

// FrameAt returns a copy of the i-th frame (0 = oldest), used by the
// stack-trace pretty-printer (spec §7 "a stack trace lists the top N
// and bottom N frames").
func (f *Fiber) FrameAt(i int) Frame { return f.frames[i] }

// ensureStack grows the data stack x2 when full (spec §4.8). Because
// Upvalue references its fiber by (owner, slot) rather than raw pointer
// (see upvalue.go), copying live values to the same indices in the
// bigger backing array is the entire "migration" needed.
func (f *Fiber) ensureStack(extra int) {
	for f.sp+extra >= len(f.stack) {
		bigger := make([]value.Value, len(f.stack)*2)
		copy(bigger, f.stack)
		f.stack = bigger
	}
}

func (f *Fiber) Push(v value.Value) {
	f.ensureStack(1)
	f.stack[f.sp] = v
	f.sp++
}

func (f *Fiber) Pop() value.Value {
	f.sp--
	return f.stack[f.sp]
}

func (f *Fiber) Peek(offset int) value.Value { return f.stack[f.sp-1-offset] }

func (f *Fiber) SetAt(i int, v value.Value) { f.stack[i] = v }
func (f *Fiber) At(i int) value.Value       { return f.stack[i] }

// SetSP moves the stack pointer directly to n, growing the backing
// array if needed and zeroing (to Null) any newly exposed slots (spec
// §4.8 call convention: a callee's locals above its arguments start
// out null until assigned).
func (f *Fiber) SetSP(n int) {
	if n > len(f.stack) {
		f.ensureStack(n - f.sp)
	}
	for i := f.sp; i < n; i++ {
		f.stack[i] = value.Value{}
	}
	f.sp = n
}

// Truncate drops every open upvalue at or above slot and resets sp to
// slot in one step, used by RETURN to tear down a callee's frame.
func (f *Fiber) Truncate(slot int) {
	f.CloseUpvaluesFrom(slot)
	f.sp = slot
}

// PushFrame grows the call-frame array x2 when full (spec §4.8).
func (f *Fiber) PushFrame(closure *Closure, rbp int, self value.Value) *Frame {
	if f.frameCount == len(f.frames) {
		bigger := make([]Frame, len(f.frames)*2)
		copy(bigger, f.frames)
		f.frames = bigger
	}
	f.frames[f.frameCount] = Frame{Closure: closure, Rbp: rbp, Self: self}
	f.frameCount++
	return &f.frames[f.frameCount-1]
}

func (f *Fiber) PopFrame() Frame {
	f.frameCount--
	return f.frames[f.frameCount]
}

// OpenUpvalueFor returns the open upvalue for slot, creating one and
// inserting it in ascending-slot order if none exists yet (spec §3.3,
// §9 "Open upvalue list: keep a linked list of open upvalues sorted by
// stack address").
func (f *Fiber) OpenUpvalueFor(gc *GC, slot int) *Upvalue {
	lo, hi := 0, len(f.openUpvalues)
	for lo < hi {
		mid := (lo + hi) / 2
		if f.openUpvalues[mid].Slot() < slot {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(f.openUpvalues) && f.openUpvalues[lo].IsOpenAt(slot) {
		return f.openUpvalues[lo]
	}
	uv := NewUpvalue(gc, f, slot)
	f.openUpvalues = append(f.openUpvalues, nil)
	copy(f.openUpvalues[lo+1:], f.openUpvalues[lo:])
	f.openUpvalues[lo] = uv
	return uv
}

// CloseUpvaluesFrom closes every open upvalue at or above slot (spec
// §3.4: "when the slot falls below sp, the upvalue must be closed before
// the slot is overwritten"), cost proportional to #to-close.
func (f *Fiber) CloseUpvaluesFrom(slot int) {
	i := 0
	for i < len(f.openUpvalues) && f.openUpvalues[i].Slot() < slot {
		i++
	}
	for _, uv := range f.openUpvalues[i:] {
		uv.Close()
	}
	f.openUpvalues = f.openUpvalues[:i]
}

func (f *Fiber) TruthyObj() bool { return true }

func (f *Fiber) markChildren(gc *GC) {
	for i := 0; i < f.sp; i++ {
		gc.MarkValue(f.stack[i])
	}
	for i := 0; i < f.frameCount; i++ {
		gc.MarkObj(f.frames[i].Closure)
		gc.MarkValue(f.frames[i].Self)
	}
	if f.EntryClosure != nil {
		gc.MarkObj(f.EntryClosure)
	}
	for _, uv := range f.openUpvalues {
		gc.MarkObj(uv)
	}
	if f.Caller != nil {
		gc.MarkObj(f.Caller)
	}
	gc.MarkValue(f.Self)
	if f.Error != nil {
		gc.MarkObj(f.Error)
	}
	gc.MarkValue(f.Transfer)
}


