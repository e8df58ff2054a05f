package object

import (
	"testing"

	"pocket/internal/value"
)

func TestMapInsertGetDelete(t *testing.T) {
	gc := NewGC()
	m := NewMap(gc)

	if err := m.Insert(value.FromObj(NewString(gc, "a")), value.Num(1)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	got, ok := m.Get(value.FromObj(NewString(gc, "a")))
	if !ok || got.AsNum() != 1 {
		t.Fatalf("get after insert: got %v, %v", got, ok)
	}

	if !m.Delete(value.FromObj(NewString(gc, "a"))) {
		t.Fatal("delete of present key should report true")
	}
	if _, ok := m.Get(value.FromObj(NewString(gc, "a"))); ok {
		t.Fatal("get after delete should miss")
	}
	if m.Delete(value.FromObj(NewString(gc, "a"))) {
		t.Fatal("delete of absent key should report false")
	}
}

func TestMapUnhashableKeyRejected(t *testing.T) {
	gc := NewGC()
	m := NewMap(gc)
	if err := m.Insert(value.FromObj(NewList(gc)), value.Num(1)); err != ErrUnhashableKey {
		t.Fatalf("inserting a List key should fail with ErrUnhashableKey, got %v", err)
	}
}

func TestMapGrowsAndPreservesEntries(t *testing.T) {
	gc := NewGC()
	m := NewMap(gc)
	const n = 200
	for i := 0; i < n; i++ {
		key := value.Num(float64(i))
		if err := m.Insert(key, value.Num(float64(i*2))); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if m.Len() != n {
		t.Fatalf("expected %d live entries, got %d", n, m.Len())
	}
	for i := 0; i < n; i++ {
		got, ok := m.Get(value.Num(float64(i)))
		if !ok || got.AsNum() != float64(i*2) {
			t.Fatalf("entry %d missing or wrong after growth: %v %v", i, got, ok)
		}
	}
}

func TestMapShrinksOnDeleteChurn(t *testing.T) {
	gc := NewGC()
	m := NewMap(gc)
	const n = 64
	for i := 0; i < n; i++ {
		m.Insert(value.Num(float64(i)), value.Null)
	}
	for i := 0; i < n-4; i++ {
		m.Delete(value.Num(float64(i)))
	}
	if m.Len() != 4 {
		t.Fatalf("expected 4 entries remaining, got %d", m.Len())
	}
	for i := n - 4; i < n; i++ {
		if _, ok := m.Get(value.Num(float64(i))); !ok {
			t.Fatalf("surviving entry %d lost across shrink", i)
		}
	}
}

func TestMapEqualObj(t *testing.T) {
	gc := NewGC()
	a := NewMap(gc)
	b := NewMap(gc)
	a.Insert(value.Num(1), value.Num(2))
	b.Insert(value.Num(1), value.Num(2))
	if !a.EqualObj(b) {
		t.Error("maps with the same key/value pairs should be equal")
	}
	b.Insert(value.Num(3), value.Num(4))
	if a.EqualObj(b) {
		t.Error("maps with different entries should not be equal")
	}
}

func TestMapTruthy(t *testing.T) {
	gc := NewGC()
	m := NewMap(gc)
	if m.TruthyObj() {
		t.Error("empty map should be falsy")
	}
	m.Insert(value.Num(1), value.Null)
	if !m.TruthyObj() {
		t.Error("non-empty map should be truthy")
	}
}

func TestMapKeysIterationOrderStable(t *testing.T) {
	gc := NewGC()
	m := NewMap(gc)
	m.Insert(value.Num(1), value.Null)
	m.Insert(value.Num(2), value.Null)
	first := m.Keys()
	second := m.Keys()
	if len(first) != len(second) {
		t.Fatal("repeated Keys() calls without mutation should agree")
	}
	for i := range first {
		if !value.Same(first[i], second[i]) {
			t.Error("bucket order must stay stable between reads with no writes")
		}
	}
}


