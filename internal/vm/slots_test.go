package vm

import (
	"strings"
	"testing"

	"pocket/internal/object"
	"pocket/internal/value"
)

func TestSlotsInsideNativeCall(t *testing.T) {
	v := New()
	defer v.Close()
	v.RegisterBuiltin("vecsum", 2, func(ctx object.NativeContext) (value.Value, error) {
		s, ok := SlotsOf(ctx)
		if !ok {
			t.Fatal("SlotsOf must succeed inside an ordinary native call")
		}
		if s.ArgCount() != 2 {
			t.Fatalf("ArgCount = %d, want 2", s.ArgCount())
		}
		a, err := s.ValidateNum(1)
		if err != nil {
			return value.Null, err
		}
		b, err := s.ValidateNum(2)
		if err != nil {
			return value.Null, err
		}
		return value.Num(a + b), nil
	})

	if _, err := v.RunString(`x = vecsum(3, 4)`, "<test>"); err != nil {
		t.Fatalf("script error: %v", err)
	}
}

func TestSlotsValidationError(t *testing.T) {
	v := New()
	defer v.Close()
	v.RegisterBuiltin("wantnum", 1, func(ctx object.NativeContext) (value.Value, error) {
		s, _ := SlotsOf(ctx)
		if _, err := s.ValidateNum(1); err != nil {
			return value.Null, err
		}
		return value.Null, nil
	})
	_, err := v.RunString(`wantnum("nope")`, "<test>")
	if err == nil {
		t.Fatal("expected a type error from ValidateNum")
	}
	if !strings.Contains(err.Error(), "expected a number") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestOpenSlotsCallFunction(t *testing.T) {
	v := New()
	defer v.Close()
	mod, errs := v.CompileString("m", "<m>", `def add(a, b) return a+b end`)
	if len(errs) > 0 {
		t.Fatalf("compile: %v", errs[0])
	}
	if _, err := v.RunModule(mod); err != nil {
		t.Fatalf("module body: %v", err)
	}

	s := v.OpenSlots(4)
	defer s.Close()
	s.Set(0, value.FromObj(mod))
	if err := s.GetAttribute(0, "add", 1); err != nil {
		t.Fatalf("GetAttribute: %v", err)
	}
	s.SetNum(2, 3)
	s.SetNum(3, 4)
	if err := s.CallFunction(1, 2, 2, 0); err != nil {
		t.Fatalf("CallFunction: %v", err)
	}
	if got := s.Get(0); !got.IsNum() || got.AsNum() != 7 {
		t.Fatalf("add(3, 4) via slots = %v, want 7", got)
	}
}

func TestOpenSlotsCallMethod(t *testing.T) {
	v := New()
	defer v.Close()
	s := v.OpenSlots(2)
	defer s.Close()
	s.SetString(0, "pocket")
	if err := s.CallMethod(0, "upper", 0, 0, 1); err != nil {
		t.Fatalf("CallMethod: %v", err)
	}
	got, err := s.ValidateString(1)
	if err != nil || got != "POCKET" {
		t.Fatalf(`"pocket".upper() via slots = %q (%v), want "POCKET"`, got, err)
	}
}

func TestOpenSlotsListOps(t *testing.T) {
	v := New()
	defer v.Close()
	s := v.OpenSlots(3)
	defer s.Close()

	s.NewList(0)
	s.SetNum(1, 10)
	if err := s.ListInsert(0, 0, 1); err != nil {
		t.Fatalf("ListInsert: %v", err)
	}
	s.SetNum(1, 20)
	if err := s.ListInsert(0, 1, 1); err != nil {
		t.Fatalf("ListInsert: %v", err)
	}
	if n, err := s.ListLength(0); err != nil || n != 2 {
		t.Fatalf("ListLength = %d (%v), want 2", n, err)
	}
	if err := s.ListPop(0, 0, 2); err != nil {
		t.Fatalf("ListPop: %v", err)
	}
	if got := s.Get(2); got.AsNum() != 10 {
		t.Fatalf("popped %v, want 10", got)
	}
	if n, _ := s.ListLength(0); n != 1 {
		t.Fatalf("length after pop = %d, want 1", n)
	}
}

func TestOpenSlotsInstanceChecks(t *testing.T) {
	v := New()
	defer v.Close()
	mod, errs := v.CompileString("m", "<m>", `
class Point
  x = 0
  y = 0
end
origin = Point()
`)
	if len(errs) > 0 {
		t.Fatalf("compile: %v", errs[0])
	}
	if _, err := v.RunModule(mod); err != nil {
		t.Fatalf("module body: %v", err)
	}

	s := v.OpenSlots(4)
	defer s.Close()
	s.Set(0, value.FromObj(mod))
	if err := s.GetAttribute(0, "origin", 1); err != nil {
		t.Fatalf("GetAttribute origin: %v", err)
	}
	if err := s.GetAttribute(0, "Point", 2); err != nil {
		t.Fatalf("GetAttribute Point: %v", err)
	}
	ok, err := s.IsInstanceOf(1, 2)
	if err != nil || !ok {
		t.Fatalf("IsInstanceOf = %v (%v), want true", ok, err)
	}
	if s.TypeName(1) != "Point" {
		t.Fatalf("TypeName = %q, want Point", s.TypeName(1))
	}

	cls := s.Get(2).AsObj().(*object.Class)
	if _, err := s.ValidateInstanceOf(1, cls); err != nil {
		t.Fatalf("ValidateInstanceOf: %v", err)
	}
	if _, err := s.ValidateInstanceOf(3, cls); err == nil {
		t.Fatal("ValidateInstanceOf on a null slot must fail")
	}
}

func TestOpenSlotsAttributeRoundTrip(t *testing.T) {
	v := New()
	defer v.Close()
	mod, errs := v.CompileString("m", "<m>", `
class Box
  val = 0
end
b = Box()
`)
	if len(errs) > 0 {
		t.Fatalf("compile: %v", errs[0])
	}
	if _, err := v.RunModule(mod); err != nil {
		t.Fatalf("module body: %v", err)
	}

	s := v.OpenSlots(3)
	defer s.Close()
	s.Set(0, value.FromObj(mod))
	if err := s.GetAttribute(0, "b", 1); err != nil {
		t.Fatalf("GetAttribute b: %v", err)
	}
	s.SetNum(2, 42)
	if err := s.SetAttribute(1, "val", 2); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	if err := s.GetAttribute(1, "val", 2); err != nil {
		t.Fatalf("GetAttribute val: %v", err)
	}
	if got := s.Get(2); got.AsNum() != 42 {
		t.Fatalf("b.val = %v, want 42", got)
	}
}

func TestSlotsHandleOutlivesWindow(t *testing.T) {
	v := New()
	defer v.Close()
	s := v.OpenSlots(1)
	s.SetString(0, "kept")
	h := s.Handle(0)
	s.Close()

	v.GC.Collect()
	str, ok := h.Value().AsObj().(*object.String)
	if !ok || !v.GC.Live(str) {
		t.Fatal("handle must keep its string alive past the slot window")
	}
	h.Release()
	v.GC.Collect()
	if v.GC.Live(str) {
		t.Fatal("after release the string must be collectable")
	}
}
