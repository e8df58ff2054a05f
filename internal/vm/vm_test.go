package vm

import (
	"bufio"
	"os"
	"strings"
	"testing"
)

// runCaptured compiles and runs src as a fresh program, returning what it
// printed to stdout. Grounded on the spec's §8 "concrete end-to-end
// scenarios (literal source -> expected stdout)" table.
func runCaptured(t *testing.T, src string) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	v := New(WithStdout(w))
	defer v.Close()

	_, runErr := v.RunString(src, "<test>")
	w.Close()

	var sb strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if runErr != nil {
		t.Fatalf("program error: %v\noutput so far: %q", runErr, sb.String())
	}
	return sb.String()
}

func TestFibonacci(t *testing.T) {
	out := runCaptured(t, `
def fib(n) if n < 2 then return n end; return fib(n-1)+fib(n-2) end
print(fib(10))
`)
	if out != "55\n" {
		t.Fatalf("got %q, want %q", out, "55\n")
	}
}

func TestStringInterpolation(t *testing.T) {
	out := runCaptured(t, `
name = "world"
print("Hello, $name! ${1+2}")
`)
	if out != "Hello, world! 3\n" {
		t.Fatalf("got %q, want %q", out, "Hello, world! 3\n")
	}
}

func TestClosures(t *testing.T) {
	out := runCaptured(t, `
def make(x) return func(y) return x+y end end
add3 = make(3)
print(add3(4))
`)
	if out != "7\n" {
		t.Fatalf("got %q, want %q", out, "7\n")
	}
}

func TestFiberYield(t *testing.T) {
	out := runCaptured(t, `
def gen() yield(1); yield(2); yield(3) end
f = Fiber(gen)
print(f.run())
print(f.resume())
print(f.resume())
`)
	if out != "1\n2\n3\n" {
		t.Fatalf("got %q, want %q", out, "1\n2\n3\n")
	}
}

func TestClassAndMethod(t *testing.T) {
	out := runCaptured(t, `
class Box val = 0 end
b = Box()
b.val = 42
print(b.val)
`)
	if out != "42\n" {
		t.Fatalf("got %q, want %q", out, "42\n")
	}
}

func TestMapEquality(t *testing.T) {
	out := runCaptured(t, `
m = {"a":1, "b":2}
print(m == {"a":1, "b":2})
`)
	if out != "true\n" {
		t.Fatalf("got %q, want %q", out, "true\n")
	}
}

func TestTailCallConstantFrameDepth(t *testing.T) {
	// A deeply self-recursive tail function must not grow the frame
	// stack proportionally to the recursion depth (spec §8 property 7).
	out := runCaptured(t, `
def count(n, acc) if n == 0 then return acc end; return count(n-1, acc+1) end
print(count(100000, 0))
`)
	if out != "100000\n" {
		t.Fatalf("got %q, want %q", out, "100000\n")
	}
}

func TestRuntimeErrorOnArityMismatch(t *testing.T) {
	v := New()
	defer v.Close()
	_, err := v.RunString(`
def one(a) return a end
one(1, 2)
`, "<test>")
	if err == nil {
		t.Fatal("expected an arity-mismatch runtime error")
	}
}

func TestDivisionByZeroProducesInfNotError(t *testing.T) {
	// Spec §7: division by zero "produces IEEE inf/nan — not an error".
	v := New()
	defer v.Close()
	if _, err := v.RunString(`x = 1/0`, "<test>"); err != nil {
		t.Fatalf("division by zero must not raise a runtime error, got: %v", err)
	}
}

func TestClosedUpvalueObservedAfterScopeExit(t *testing.T) {
	// Spec §8 property 6: a local captured by a still-live closure keeps
	// its last value after the defining scope dies.
	out := runCaptured(t, `
def make()
  x = 1
  get = func() return x end
  x = 2
  return get
end
g = make()
print(g())
`)
	if out != "2\n" {
		t.Fatalf("got %q, want %q", out, "2\n")
	}
}

func TestSharedUpvalueBetweenClosures(t *testing.T) {
	out := runCaptured(t, `
def pair()
  n = 0
  bump = func() n = n + 1; return n end
  read = func() return n end
  out = [bump, read]
  return out
end
p = pair()
p[0]()
p[0]()
print(p[1]())
`)
	if out != "2\n" {
		t.Fatalf("got %q, want %q", out, "2\n")
	}
}

func TestForInList(t *testing.T) {
	out := runCaptured(t, `
total = 0
for x in [1, 2, 3, 4] total = total + x end
print(total)
`)
	if out != "10\n" {
		t.Fatalf("got %q, want %q", out, "10\n")
	}
}

func TestForInRange(t *testing.T) {
	// 1..5 yields 1, 2, 3, 4 (from < to only).
	out := runCaptured(t, `
total = 0
for x in 1..5 total = total + x end
print(total)
`)
	if out != "10\n" {
		t.Fatalf("got %q, want %q", out, "10\n")
	}
}

func TestForInString(t *testing.T) {
	out := runCaptured(t, `
parts = []
for ch in "abc" parts.append(ch) end
print(len(parts), parts[0], parts[2])
`)
	if out != "3 a c\n" {
		t.Fatalf("got %q, want %q", out, "3 a c\n")
	}
}

func TestForInMapIteratesKeys(t *testing.T) {
	out := runCaptured(t, `
m = {"a": 1, "b": 2, "c": 3}
total = 0
for k in m total = total + m[k] end
print(total)
`)
	if out != "6\n" {
		t.Fatalf("got %q, want %q", out, "6\n")
	}
}

func TestWhileBreakContinue(t *testing.T) {
	out := runCaptured(t, `
i = 0
total = 0
while true
  i = i + 1
  if i > 10 then break end
  if i % 2 == 0 then continue end
  total = total + i
end
print(total)
`)
	if out != "25\n" {
		t.Fatalf("got %q, want %q", out, "25\n")
	}
}

func TestElsifChain(t *testing.T) {
	out := runCaptured(t, `
def grade(n)
  if n >= 90 then return "A"
  elsif n >= 80 then return "B"
  elsif n >= 70 then return "C"
  else return "F"
  end
end
print(grade(95), grade(85), grade(71), grade(12))
`)
	if out != "A B C F\n" {
		t.Fatalf("got %q, want %q", out, "A B C F\n")
	}
}

func TestClassInitAndMethods(t *testing.T) {
	out := runCaptured(t, `
class Counter
  n = 0
  def _init(start) self.n = start end
  def bump() self.n = self.n + 1 end
  def get() return self.n end
end
c = Counter(40)
c.bump()
c.bump()
print(c.get())
`)
	if out != "42\n" {
		t.Fatalf("got %q, want %q", out, "42\n")
	}
}

func TestInheritanceAndSuperCall(t *testing.T) {
	out := runCaptured(t, `
class Animal
  def speak() return "..." end
  def describe() return "an animal" end
end
class Dog is Animal
  def speak() return "woof" end
  def describe() return super.describe() + " that says " + self.speak() end
end
d = Dog()
print(d.describe())
`)
	if out != "an animal that says woof\n" {
		t.Fatalf("got %q, want %q", out, "an animal that says woof\n")
	}
}

func TestOperatorOverloadOnInstance(t *testing.T) {
	out := runCaptured(t, `
class Vec
  x = 0
  y = 0
  def _init(x, y) self.x = x; self.y = y end
  def + (other) return Vec(self.x + other.x, self.y + other.y) end
  def _repr() return "(${self.x}, ${self.y})" end
end
print(Vec(1, 2) + Vec(3, 4))
`)
	if out != "(4, 6)\n" {
		t.Fatalf("got %q, want %q", out, "(4, 6)\n")
	}
}

func TestInAndIsOperators(t *testing.T) {
	out := runCaptured(t, `
print(2 in [1, 2, 3])
print("b" in {"a": 1})
print("ell" in "hello")
print(1 is Num)
print("s" is Num)
`)
	if out != "true\nfalse\ntrue\ntrue\nfalse\n" {
		t.Fatalf("got %q", out)
	}
}

func TestCompoundAssignmentForms(t *testing.T) {
	out := runCaptured(t, `
x = 10
x += 5
x -= 3
x *= 4
x /= 2
x %= 7
print(x)
lst = [1]
lst[0] += 9
print(lst[0])
`)
	if out != "3\n10\n" {
		t.Fatalf("got %q, want %q", out, "3\n10\n")
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	out := runCaptured(t, `
def boom() x = [1]; return x[5] end
print(true or boom())
print(false and boom())
print(null or "fallback")
`)
	if out != "true\nfalse\nfallback\n" {
		t.Fatalf("got %q", out)
	}
}

func TestStringMethods(t *testing.T) {
	out := runCaptured(t, `
s = "  Hello, World  "
print(s.strip().lower())
print("a,b,c".split(","))
print("aaa".replace("a", "b", 2))
`)
	if out != "hello, world\n[\"a\", \"b\", \"c\"]\nbba\n" {
		t.Fatalf("got %q", out)
	}
}

func TestFiberResumeCarriesValueIn(t *testing.T) {
	// A resume's argument becomes the paused yield call's return value.
	out := runCaptured(t, `
def echo()
  got = yield(1)
  print(got)
end
f = Fiber(echo)
f.run()
f.resume("from host")
`)
	if out != "from host\n" {
		t.Fatalf("got %q, want %q", out, "from host\n")
	}
}

func TestResumeDoneFiberIsError(t *testing.T) {
	v := New()
	defer v.Close()
	_, err := v.RunString(`
def quick() return 1 end
f = Fiber(quick)
f.run()
f.resume()
`, "<test>")
	if err == nil {
		t.Fatal("resuming a DONE fiber must be a runtime error")
	}
}

func TestUnexpectedEOFInREPLMode(t *testing.T) {
	v := New()
	defer v.Close()
	_, errs := v.CompileREPLString("@repl", "<repl>", "def half(n)")
	if len(errs) == 0 {
		t.Fatal("partial statement must produce an error")
	}
}

func TestMethodBindRetainsReceiver(t *testing.T) {
	out := runCaptured(t, `
class Greeter
  name = "?"
  def _init(n) self.name = n end
  def hello() return "hi " + self.name end
end
g = Greeter("ada")
m = g.hello
print(m())
`)
	if out != "hi ada\n" {
		t.Fatalf("got %q, want %q", out, "hi ada\n")
	}
}

func TestImportViaHostCallbacks(t *testing.T) {
	sources := map[string]string{
		"mathx.pk": `
def square(n) return n * n end
answer = 42
`,
	}
	v := New(
		WithResolveImport(func(from, path string) (string, bool) {
			return path + ".pk", true
		}),
		WithLoadSource(func(path string) (string, bool) {
			src, ok := sources[path]
			return src, ok
		}),
	)
	defer v.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	v.Stdout = w
	_, runErr := v.RunString(`
import mathx
print(mathx.square(6))
print(mathx.answer)
`, "<main>")
	w.Close()
	var sb strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	if sb.String() != "36\n42\n" {
		t.Fatalf("got %q, want %q", sb.String(), "36\n42\n")
	}
}

func TestFromImportBindsNames(t *testing.T) {
	sources := map[string]string{
		"util.pk": `
def double(n) return n + n end
tag = "v1"
`,
	}
	v := New(
		WithResolveImport(func(from, path string) (string, bool) { return path + ".pk", true }),
		WithLoadSource(func(path string) (string, bool) { src, ok := sources[path]; return src, ok }),
	)
	defer v.Close()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	v.Stdout = w
	_, runErr := v.RunString(`
from util import double, tag as version
print(double(21))
print(version)
`, "<main>")
	w.Close()
	var sb strings.Builder
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		sb.WriteString(sc.Text())
		sb.WriteByte('\n')
	}
	if runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	if sb.String() != "42\nv1\n" {
		t.Fatalf("got %q, want %q", sb.String(), "42\nv1\n")
	}
}

func TestModuleBodyRunsOnce(t *testing.T) {
	loads := 0
	sources := map[string]string{"counted.pk": `x = 1`}
	v := New(
		WithResolveImport(func(from, path string) (string, bool) { return path + ".pk", true }),
		WithLoadSource(func(path string) (string, bool) {
			loads++
			src, ok := sources[path]
			return src, ok
		}),
	)
	defer v.Close()
	if _, err := v.RunString(`
import counted
import counted
`, "<main>"); err != nil {
		t.Fatalf("run: %v", err)
	}
	if loads != 1 {
		t.Fatalf("module source loaded %d times, want 1 (body runs exactly once)", loads)
	}
}

func TestSuperThroughDeepChain(t *testing.T) {
	out := runCaptured(t, `
class A
  def who() return "A" end
end
class B is A
  def who() return super.who() + "B" end
end
class C is B
  def who() return super.who() + "C" end
end
print(C().who())
`)
	if out != "ABC\n" {
		t.Fatalf("got %q, want %q", out, "ABC\n")
	}
}

func TestSubscriptOverload(t *testing.T) {
	out := runCaptured(t, `
class Wrap
  data = null
  def _init() self.data = {} end
  def [] (k) return self.data[k] end
  def []= (k, v) self.data[k] = v end
end
w = Wrap()
w["k"] = 7
print(w["k"])
`)
	if out != "7\n" {
		t.Fatalf("got %q, want %q", out, "7\n")
	}
}
