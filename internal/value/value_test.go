package value

import (
	"math"
	"testing"
)

func TestSameBitIdentity(t *testing.T) {
	if Same(Num(0), Num(math.Copysign(0, -1))) {
		t.Error("same(+0, -0) must be false")
	}
	nan := Num(math.NaN())
	if !Same(nan, nan) {
		t.Error("same(NaN, NaN) must be true for an identical bit pattern")
	}
	if Same(Null, Undefined) {
		t.Error("same(null, undefined) must be false: different kinds")
	}
}

func TestEqualNumbers(t *testing.T) {
	if !Equal(Num(0), Num(math.Copysign(0, -1))) {
		t.Error("equal(+0, -0) must be true (IEEE ==)")
	}
	nan := Num(math.NaN())
	if Equal(nan, nan) {
		t.Error("equal(NaN, NaN) must be false (IEEE ==)")
	}
	if !Equal(Num(3), Num(3)) {
		t.Error("equal(3, 3) must be true")
	}
}

func TestEqualPrimitives(t *testing.T) {
	if !Equal(Null, Null) {
		t.Error("null equals null")
	}
	if !Equal(True, True) || Equal(True, False) {
		t.Error("bool equality is by value")
	}
}

func TestHashDefinedKinds(t *testing.T) {
	cases := []Value{Null, Undefined, Void, True, False, Num(1), Num(-1), Num(0)}
	for _, c := range cases {
		if _, ok := Hash(c); !ok {
			t.Errorf("hash(%v) should be defined", c)
		}
	}
}

func TestHashFoldsNegativeZero(t *testing.T) {
	hp, _ := Hash(Num(0))
	hn, _ := Hash(Num(math.Copysign(0, -1)))
	if hp != hn {
		t.Error("hash(+0) and hash(-0) must agree since equal(+0,-0) is true")
	}
}

func TestHashUndefinedForPlainObj(t *testing.T) {
	if _, ok := Hash(FromObj(bareObj{})); ok {
		t.Error("hash of an object with no Hashable implementation should fail")
	}
}

func TestTruthy(t *testing.T) {
	falsy := []Value{Null, Undefined, False, Num(0)}
	for _, v := range falsy {
		if Truthy(v) {
			t.Errorf("%v should be falsy", v)
		}
	}
	truthy := []Value{Void, True, Num(1), Num(-1)}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Errorf("%v should be truthy", v)
		}
	}
}

func TestObjKindString(t *testing.T) {
	if ObjString.String() != "String" || ObjFiber.String() != "Fiber" {
		t.Error("ObjKind.String must name every kind used in error messages")
	}
}

// bareObj is a minimal value.Obj that implements none of the optional
// Equatable/Hashable/Truthish interfaces, used to exercise the default
// fallbacks.
type bareObj struct{}

func (bareObj) ObjKind() ObjKind { return ObjInstance }


