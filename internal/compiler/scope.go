package compiler

// local tracks one declared name within a funcScope's locals array,
// which doubles as the live-slot layout of the running Fiber's stack
// frame for this function (spec §4.6 "locals are slots on the current
// frame; the compiler's locals array mirrors the VM's layout exactly").
type local struct {
	name       string
	depth      int  // lexical block depth; -1 while mid-declaration (spec: "declared but not yet defined")
	isCaptured bool // true once some inner function closes over this slot
}

// upvalueRef records how slot `index` of the enclosing funcScope should
// be captured: directly off its locals (isLocal) or forwarded from its
// own upvalue list (spec §4.6 name-resolution: "mark captured locals
// is_upvalue=true, record (index, is_immediate) in the capturing
// function's upvalue-info table, recurse into outer").
type upvalueRef struct {
	index   int
	isLocal bool
}

// loopState tracks the innermost enclosing loop so break/continue can
// patch their jumps once the loop's bounds are known (spec §4.6 "for/
// while compile to ITER_TEST/ITER or JUMP_IF_NOT plus a backward LOOP;
// break/continue record pending jumps against the nearest enclosing
// loop").
type loopState struct {
	continueTarget int // bytecode offset the LOOP jump targets
	breakJumps     []int
	scopeDepth     int // scope depth when the loop body was entered
	enclosing      *loopState
}

// funcScope is the compiler's per-function compilation context: its own
// locals table, upvalue table, and link to the lexically enclosing
// funcScope (nil for the module's top-level @main). Exactly one
// funcScope is live per nested def/func/method being compiled at any
// time, mirroring the teacher's StmtCompiler.parent chain but without
// an AST: the Compiler pushes/pops funcScope as it walks tokens, not
// nodes.
type funcScope struct {
	enclosing *funcScope

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int

	isMethod bool
	loop     *loopState

	// Pending forward references to function/class names that may be
	// defined later in the same block (spec §4.6 "forward-name fixup
	// with a pending-patch list" for mutually recursive top-level defs).
	forwardRefs map[string][]int // name -> bytecode positions of PUSH_GLOBAL operand awaiting a real global slot
}

func newFuncScope(enclosing *funcScope, isMethod bool) *funcScope {
	fs := &funcScope{enclosing: enclosing, isMethod: isMethod, forwardRefs: make(map[string][]int)}
	if isMethod {
		// Slot 0 holds self, reserved and never user-addressable by name
		// beyond the `self` keyword.
		fs.locals = append(fs.locals, local{name: "self", depth: 0})
	} else {
		fs.locals = append(fs.locals, local{name: "", depth: 0})
	}
	return fs
}

func (fs *funcScope) beginScope() { fs.scopeDepth++ }

// endScope returns the number of locals that just fell out of scope, so
// the caller can emit the matching StoreLocal-adjacent pops / close any
// upvalues captured from them.
func (fs *funcScope) endScope() int {
	fs.scopeDepth--
	n := 0
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].depth > fs.scopeDepth {
		fs.locals = fs.locals[:len(fs.locals)-1]
		n++
	}
	return n
}

// declareLocal adds name as a not-yet-initialized local in the current
// scope depth (spec §4.6 "declaration-by-assignment semantics": the
// first assignment in a function declares the local). If name is already
// declared in the same block, that existing slot is returned with
// redeclared=true and no new local is added.
func (fs *funcScope) declareLocal(name string) (slot int, redeclared bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			return i, true
		}
	}
	fs.locals = append(fs.locals, local{name: name, depth: -1})
	return len(fs.locals) - 1, false
}

func (fs *funcScope) defineLocal(slot int) { fs.locals[slot].depth = fs.scopeDepth }

// resolveLocal finds name in fs's own locals, innermost first.
func (fs *funcScope) resolveLocal(name string) (slot int, ok bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			return i, true
		}
	}
	return 0, false
}

// addUpvalue interns (index, isLocal) into fs's upvalue table, returning
// the existing slot if already captured.
func (fs *funcScope) addUpvalue(index int, isLocal bool) int {
	for i, uv := range fs.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1
}

// resolveUpvalue implements the recursive capture walk (spec §4.6):
// look in the immediately enclosing function's locals; if found there,
// mark it captured and record a direct (isLocal=true) upvalue; else
// recurse into the enclosing function's own upvalue resolution and
// record a forwarded (isLocal=false) one.
func (fs *funcScope) resolveUpvalue(name string) (slot int, ok bool) {
	if fs.enclosing == nil {
		return 0, false
	}
	if i, found := fs.enclosing.resolveLocal(name); found {
		fs.enclosing.locals[i].isCaptured = true
		return fs.addUpvalue(i, true), true
	}
	if i, found := fs.enclosing.resolveUpvalue(name); found {
		return fs.addUpvalue(i, false), true
	}
	return 0, false
}

func (fs *funcScope) pushLoop() *loopState {
	ls := &loopState{scopeDepth: fs.scopeDepth, enclosing: fs.loop}
	fs.loop = ls
	return ls
}

func (fs *funcScope) popLoop() { fs.loop = fs.loop.enclosing }


