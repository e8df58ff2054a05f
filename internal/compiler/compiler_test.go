package compiler

import (
	"testing"

	"pocket/internal/errors"
	"pocket/internal/object"
)

// stubResolver resolves the handful of builtin names these test
// programs call, and reports everything else unresolved.
type stubResolver struct{}

var stubBuiltinFns = map[string]int{"print": 0, "len": 1}

func (stubResolver) ResolveFn(name string) (int, bool) {
	idx, ok := stubBuiltinFns[name]
	return idx, ok
}
func (stubResolver) ResolveType(name string) (int, bool) { return 0, false }

func compileSrc(t *testing.T, src string) []*errors.PocketError {
	t.Helper()
	gc := object.NewGC()
	mod := object.NewModule(gc, "@main", "<test>")
	_, errs := Compile(gc, mod, src, "<test>", stubResolver{}, false)
	return errs
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	errs := compileSrc(t, "break")
	if len(errs) == 0 {
		t.Fatal("expected a compile error for break outside a loop")
	}
}

func TestContinueOutsideLoopIsCompileError(t *testing.T) {
	errs := compileSrc(t, "continue")
	if len(errs) == 0 {
		t.Fatal("expected a compile error for continue outside a loop")
	}
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	errs := compileSrc(t, "return 1")
	if len(errs) == 0 {
		t.Fatal("expected a compile error for return outside a function")
	}
}

func TestForwardNameResolvesAfterModuleCompletes(t *testing.T) {
	// `helper` is referenced before its def appears; spec §4.6 forward
	// references resolve once the whole module is parsed.
	errs := compileSrc(t, `
def caller() return helper() end
def helper() return 1 end
`)
	if len(errs) != 0 {
		t.Fatalf("forward reference to a later def should compile cleanly, got: %v", errs)
	}
}

func TestUnresolvedForwardNameIsCompileError(t *testing.T) {
	errs := compileSrc(t, `
def caller() return nonexistent_name() end
`)
	if len(errs) == 0 {
		t.Fatal("expected a compile error for a name that never resolves")
	}
	if errs[0].Kind != errors.NameError {
		t.Fatalf("expected NameError kind, got %v", errs[0].Kind)
	}
}

func TestReassigningLocalIsNotCompileError(t *testing.T) {
	errs := compileSrc(t, `
def f()
  x = 1
  x = 2
end
`)
	// Re-assignment of an existing local is not a redeclaration; only
	// re-declaring the same name as a fresh local in the same scope is.
	// This program is valid and should compile without error.
	if len(errs) != 0 {
		t.Fatalf("plain re-assignment should not be a compile error, got: %v", errs)
	}
}

func TestCleanProgramCompilesWithoutErrors(t *testing.T) {
	errs := compileSrc(t, `
def add(a, b) return a+b end
print(add(1, 2))
`)
	if len(errs) != 0 {
		t.Fatalf("expected no compile errors, got: %v", errs)
	}
}


func TestPartialStatementReportsUnexpectedEOF(t *testing.T) {
	errs := compileSrc(t, "def half(n)")
	if len(errs) == 0 {
		t.Fatal("expected an error for a statement cut off at end of input")
	}
	if errs[0].Kind != errors.UnexpectedEOF {
		t.Fatalf("expected UnexpectedEOF kind (REPL can read more lines), got %v", errs[0].Kind)
	}
}

func TestDuplicateClassFieldIsCompileError(t *testing.T) {
	errs := compileSrc(t, `
class C
  x = 1
  x = 2
end
`)
	if len(errs) == 0 {
		t.Fatal("expected a compile error for a duplicate field name")
	}
}
