package object

import "pocket/internal/value"

// Module is a compilation unit (spec §3.3, §4.4): it owns the constants
// pool, the name pool, the globals array (kept index-parallel with
// global_names), and the implicit @main body Closure compiled from the
// module's top-level statements. Compiler and VM share these tables
// directly (spec §4.4 "Module Tables ... shared by compiler and VM").
type Module struct {
	Header
	Name string
	Path string

	Globals     []value.Value
	GlobalNames []int // indices into Names, parallel to Globals

	Constants []value.Value // de-duplicated by Same, not Equal
	Names     []*String     // interned identifier/string-literal pool

	Body        *Closure
	Initialized bool

	// Native (.so/.dll/.dylib) module handle, set by the dynamic-library
	// loader (spec §6.2); nil for ordinary source modules.
	NativeHandle interface{}
}

func NewModule(gc *GC, name, path string) *Module {
	m := &Module{Name: name, Path: path}
	m.kind = value.ObjModule
	gc.link(m, 128)
	return m
}

// AddName interns s, returning the existing index if present (spec
// §4.4 "add_name(s) returns the existing index if present else
// appends").
func (m *Module) AddName(gc *GC, s string) int {
	for i, n := range m.Names {
		if n.Text() == s {
			return i
		}
	}
	m.Names = append(m.Names, NewString(gc, s))
	return len(m.Names) - 1
}

func (m *Module) NameAt(i int) string {
	if i < 0 || i >= len(m.Names) {
		return ""
	}
	return m.Names[i].Text()
}

// AddConstant de-duplicates by bit-identity (Same), matching §4.4.
func (m *Module) AddConstant(v value.Value) int {
	for i, c := range m.Constants {
		if value.Same(c, v) {
			return i
		}
	}
	m.Constants = append(m.Constants, v)
	return len(m.Constants) - 1
}

// SetGlobal updates the global named name if already defined, else
// appends a new global slot (spec §4.4).
func (m *Module) SetGlobal(gc *GC, name string, v value.Value) int {
	nameIdx := m.AddName(gc, name)
	for i, gi := range m.GlobalNames {
		if gi == nameIdx {
			m.Globals[i] = v
			return i
		}
	}
	m.Globals = append(m.Globals, v)
	m.GlobalNames = append(m.GlobalNames, nameIdx)
	return len(m.Globals) - 1
}

// GetGlobalIndex performs the linear search §4.4 specifies.
func (m *Module) GetGlobalIndex(name string) (int, bool) {
	for i, gi := range m.GlobalNames {
		if m.NameAt(gi) == name {
			return i, true
		}
	}
	return -1, false
}

func (m *Module) TruthyObj() bool { return true }

func (m *Module) markChildren(gc *GC) {
	for _, v := range m.Globals {
		gc.MarkValue(v)
	}
	for _, v := range m.Constants {
		gc.MarkValue(v)
	}
	for _, n := range m.Names {
		gc.MarkObj(n)
	}
	if m.Body != nil {
		gc.MarkObj(m.Body)
	}
}


