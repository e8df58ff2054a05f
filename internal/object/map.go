package object

import (
	"errors"

	"pocket/internal/value"
)

const mapMinCap = 8

type mapEntry struct {
	key value.Value
	val value.Value
}

func (e mapEntry) isEmpty() bool     { return e.key.IsUndef() && e.val.IsBool() && !e.val.AsBool() }
func (e mapEntry) isTombstone() bool { return e.key.IsUndef() && e.val.IsBool() && e.val.AsBool() }

func emptyEntry() mapEntry     { return mapEntry{key: value.Undefined, val: value.False} }
func tombstoneEntry() mapEntry { return mapEntry{key: value.Undefined, val: value.True} }

// ErrUnhashableKey is returned by Map.Insert when key has no defined hash
// (spec §3.3: "Keys must be hashable; unhashable insert is an error.").
var ErrUnhashableKey = errors.New("pocket: unhashable map key")

// Map is an open-addressed hash table (spec §3.3). Insertion order of
// buckets (not of writes) determines iteration order, which the spec
// explicitly does not guarantee stable across resizes.
type Map struct {
	Header
	slots []mapEntry
	count int // live entries
	used  int // live + tombstones, drives grow decisions
}

func NewMap(gc *GC) *Map {
	m := &Map{}
	m.kind = value.ObjMap
	gc.link(m, 48)
	return m
}

func (m *Map) Len() int { return m.count }

// find implements the spec's §4.2 Map find algorithm: linear probe from
// hash(key) % cap; empty slot -> "not found, insert here (or at the
// first earlier tombstone encountered)"; equal key -> "found"; tombstone
// -> remember first, keep probing; full wraparound with only tombstones
// -> insert at the first tombstone.
func (m *Map) find(key value.Value, h uint64) (idx int, found bool) {
	size := len(m.slots)
	start := int(h % uint64(size))
	firstTombstone := -1
	for i := 0; i < size; i++ {
		slot := start + i
		if slot >= size {
			slot -= size
		}
		e := m.slots[slot]
		if e.isEmpty() {
			if firstTombstone >= 0 {
				return firstTombstone, false
			}
			return slot, false
		}
		if e.isTombstone() {
			if firstTombstone < 0 {
				firstTombstone = slot
			}
			continue
		}
		if value.Equal(e.key, key) {
			return slot, true
		}
	}
	// Wraparound with only tombstones.
	if firstTombstone >= 0 {
		return firstTombstone, false
	}
	return -1, false
}

func (m *Map) grow(newCap int) {
	old := m.slots
	m.slots = make([]mapEntry, newCap)
	for i := range m.slots {
		m.slots[i] = emptyEntry()
	}
	m.count = 0
	m.used = 0
	for _, e := range old {
		if e.isEmpty() || e.isTombstone() {
			continue
		}
		h, _ := value.Hash(e.key)
		idx, _ := m.find(e.key, h)
		m.slots[idx] = e
		m.count++
		m.used++
	}
}

// Insert sets key -> val, growing if the 75% load factor would be
// exceeded (spec §3.3 "Load factor <= 75%; grow factor x2; minimum
// capacity on first insert").
func (m *Map) Insert(key, val value.Value) error {
	h, ok := value.Hash(key)
	if !ok {
		return ErrUnhashableKey
	}
	if len(m.slots) == 0 {
		m.slots = make([]mapEntry, mapMinCap)
		for i := range m.slots {
			m.slots[i] = emptyEntry()
		}
	} else if (m.used+1)*100 > len(m.slots)*75 {
		m.grow(len(m.slots) * 2)
	}
	idx, found := m.find(key, h)
	wasEmpty := !found && m.slots[idx].isEmpty()
	m.slots[idx] = mapEntry{key: key, val: val}
	if !found {
		m.count++
		if wasEmpty {
			m.used++
		}
	}
	return nil
}

func (m *Map) Get(key value.Value) (value.Value, bool) {
	h, ok := value.Hash(key)
	if !ok || len(m.slots) == 0 {
		return value.Undefined, false
	}
	idx, found := m.find(key, h)
	if !found {
		return value.Undefined, false
	}
	return m.slots[idx].val, true
}

// Delete removes key, leaving a tombstone, and shrinks when the table's
// conservative low-water mark is reached (spec §3.3 "shrink when
// count*100/75 < cap/4, respecting the minimum").
func (m *Map) Delete(key value.Value) bool {
	h, ok := value.Hash(key)
	if !ok || len(m.slots) == 0 {
		return false
	}
	idx, found := m.find(key, h)
	if !found {
		return false
	}
	m.slots[idx] = tombstoneEntry()
	m.count--
	if len(m.slots) > mapMinCap && m.count*100/75 < len(m.slots)/4 {
		newCap := len(m.slots) / 2
		if newCap < mapMinCap {
			newCap = mapMinCap
		}
		m.grow(newCap)
	}
	return true
}

// Iterate walks live entries in bucket order.
func (m *Map) Iterate(fn func(k, v value.Value) bool) {
	for _, e := range m.slots {
		if e.isEmpty() || e.isTombstone() {
			continue
		}
		if !fn(e.key, e.val) {
			return
		}
	}
}

func (m *Map) Keys() []value.Value {
	out := make([]value.Value, 0, m.count)
	m.Iterate(func(k, v value.Value) bool { out = append(out, k); return true })
	return out
}

func (m *Map) EqualObj(other value.Obj) bool {
	o, ok := other.(*Map)
	if !ok || o.count != m.count {
		return false
	}
	eq := true
	m.Iterate(func(k, v value.Value) bool {
		ov, found := o.Get(k)
		if !found || !value.Equal(v, ov) {
			eq = false
			return false
		}
		return true
	})
	return eq
}

func (m *Map) TruthyObj() bool { return m.count > 0 }

func (m *Map) markChildren(gc *GC) {
	for _, e := range m.slots {
		if e.isEmpty() || e.isTombstone() {
			continue
		}
		gc.MarkValue(e.key)
		gc.MarkValue(e.val)
	}
}


