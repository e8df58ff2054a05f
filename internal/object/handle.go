package object

import "pocket/internal/value"

// Handle wraps a Value the host holds onto across calls into the VM
// (spec §4.3 "Handles", glossary). It is a node in the GC's
// doubly-linked handle list, which the collector treats as a root set.
//
// The list is intrusive so that a handle can be released in O(1) from
// anywhere in it.
type Handle struct {
	node *handleNode
}

type handleNode struct {
	val  value.Value
	next *handleNode
	prev *handleNode
}

// NewHandle inserts val into gc's handle list and returns a Handle the
// host can later Release.
func (gc *GC) NewHandle(val value.Value) *Handle {
	n := &handleNode{val: val}
	sentinel := gc.handles
	n.next = sentinel
	n.prev = sentinel.prev
	sentinel.prev.next = n
	sentinel.prev = n
	return &Handle{node: n}
}

// Value returns the handle's current value.
func (h *Handle) Value() value.Value { return h.node.val }

// SetValue lets the host overwrite the handle's referent in place.
func (h *Handle) SetValue(v value.Value) { h.node.val = v }

// Release unlinks h from the handle list. After Release, h no longer
// keeps its value reachable; using h again is a bug (matches spec
// "release unlinks and frees the node").
func (h *Handle) Release() {
	if h.node == nil {
		return
	}
	h.node.prev.next = h.node.next
	h.node.next.prev = h.node.prev
	h.node.next = nil
	h.node.prev = nil
	h.node = nil
}


