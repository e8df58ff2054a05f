// Package bytecode defines Pocket's instruction set (spec §4.7): a compact
// opcode byte, fixed inline operand widths, and a static stack-delta table
// for every fixed-delta instruction. Adapted from the teacher's flat
// OpCode enum (this file, originally a grab-bag of sentra opcodes),
// regrouped to match the byte-code ISA this spec calls for.
package bytecode

// Op is a single instruction opcode.
type Op byte

const (
	// Push constants / sentinels.
	PushConstant Op = iota // u16 const index
	PushNull
	PushZero
	PushTrue
	PushFalse
	PushSelf

	// Stack shuffling.
	Swap
	Dup
	Pop

	// Literal containers.
	PushList // u16 element count
	PushMap  // no operand; pairs appended via MapInsert
	ListAppend
	MapInsert

	// Locals (0-8 have dedicated fast ops; N is the general form).
	PushLocal0
	PushLocal1
	PushLocal2
	PushLocal3
	PushLocal4
	PushLocal5
	PushLocal6
	PushLocal7
	PushLocal8
	PushLocalN // u8 slot
	StoreLocal0
	StoreLocal1
	StoreLocal2
	StoreLocal3
	StoreLocal4
	StoreLocal5
	StoreLocal6
	StoreLocal7
	StoreLocal8
	StoreLocalN // u8 slot

	// Module globals.
	PushGlobal  // u8 global index
	StoreGlobal // u8 global index

	// Builtins and primitive-type tags.
	PushBuiltinFn // u8 builtin index
	PushBuiltinTy // u8 type tag

	// Upvalues.
	PushUpvalue  // u8 upvalue index
	StoreUpvalue // u8 upvalue index
	CloseUpvalue

	// Closures and classes.
	PushClosure // u16 Fn const index, then per-upvalue (isImmediate u8, index u8)
	CreateClass // u16 name-pool index
	BindMethod  // pops closure and method-name string, binds it on the class left on top

	// Imports.
	Import     // u16 name-pool index
	ImportStar // pops the just-imported module, binds every non-@ global into the current scope

	// Calls.
	Call       // u8 argc
	TailCall   // u8 argc
	MethodCall // u8 argc, u16 name-pool index
	SuperCall  // u8 argc, u16 name-pool index

	// Iteration.
	IterTest
	Iter // u8 local-slot of iteration var, u16 jump offset on exhaustion

	// Branching.
	Jump      // u16
	Loop      // u16 (backward)
	JumpIf    // u16
	JumpIfNot // u16
	Or        // u16 short-circuit true
	And       // u16 short-circuit false

	// Return.
	Return

	// Attributes / subscript.
	GetAttrib     // u16 name-pool index
	GetAttribKeep // u16 name-pool index
	SetAttrib     // u16 name-pool index
	GetSubscript
	GetSubscriptKeep
	SetSubscript

	// Arithmetic / logic. The trailing u8 on binary arithmetic ops marks
	// an in-place compound-assignment form (a += b) for diagnostics only;
	// the arithmetic itself is identical either way.
	Add
	Subtract
	Multiply
	Divide
	Exponent
	Mod
	BitAnd
	BitOr
	BitXor
	LShift
	RShift
	Positive
	Negative
	Not
	BitNot
	EqEq
	NotEq
	Lt
	LtEq
	Gt
	GtEq
	RangeOp
	In
	Is

	// REPL.
	ReplPrint

	// Function-tail sentinel (spec §4.6 emit_function_end).
	End
)

var names = [...]string{
	"PUSH_CONSTANT", "PUSH_NULL", "PUSH_0", "PUSH_TRUE", "PUSH_FALSE", "PUSH_SELF",
	"SWAP", "DUP", "POP",
	"PUSH_LIST", "PUSH_MAP", "LIST_APPEND", "MAP_INSERT",
	"PUSH_LOCAL_0", "PUSH_LOCAL_1", "PUSH_LOCAL_2", "PUSH_LOCAL_3", "PUSH_LOCAL_4",
	"PUSH_LOCAL_5", "PUSH_LOCAL_6", "PUSH_LOCAL_7", "PUSH_LOCAL_8", "PUSH_LOCAL_N",
	"STORE_LOCAL_0", "STORE_LOCAL_1", "STORE_LOCAL_2", "STORE_LOCAL_3", "STORE_LOCAL_4",
	"STORE_LOCAL_5", "STORE_LOCAL_6", "STORE_LOCAL_7", "STORE_LOCAL_8", "STORE_LOCAL_N",
	"PUSH_GLOBAL", "STORE_GLOBAL",
	"PUSH_BUILTIN_FN", "PUSH_BUILTIN_TY",
	"PUSH_UPVALUE", "STORE_UPVALUE", "CLOSE_UPVALUE",
	"PUSH_CLOSURE", "CREATE_CLASS", "BIND_METHOD",
	"IMPORT", "IMPORT_STAR",
	"CALL", "TAIL_CALL", "METHOD_CALL", "SUPER_CALL",
	"ITER_TEST", "ITER",
	"JUMP", "LOOP", "JUMP_IF", "JUMP_IF_NOT", "OR", "AND",
	"RETURN",
	"GET_ATTRIB", "GET_ATTRIB_KEEP", "SET_ATTRIB", "GET_SUBSCRIPT", "GET_SUBSCRIPT_KEEP", "SET_SUBSCRIPT",
	"ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "EXPONENT", "MOD",
	"BIT_AND", "BIT_OR", "BIT_XOR", "LSHIFT", "RSHIFT",
	"POSITIVE", "NEGATIVE", "NOT", "BIT_NOT",
	"EQEQ", "NOTEQ", "LT", "LTEQ", "GT", "GTEQ", "RANGE", "IN", "IS",
	"REPL_PRINT",
	"END",
}

func (op Op) String() string {
	if int(op) < len(names) {
		return names[op]
	}
	return "UNKNOWN_OP"
}

// OperandSize is the number of inline operand bytes each opcode consumes.
func (op Op) OperandSize() int {
	switch op {
	case MethodCall, SuperCall, Iter: // u8 + u16
		return 3
	case PushConstant, PushList, PushClosure, CreateClass, Import,
		Jump, Loop, JumpIf, JumpIfNot, Or, And,
		GetAttrib, GetAttribKeep, SetAttrib:
		return 2
	case PushLocalN, StoreLocalN, PushGlobal, StoreGlobal,
		PushBuiltinFn, PushBuiltinTy, PushUpvalue, StoreUpvalue,
		Call, TailCall, Add, Subtract, Multiply, Divide, Exponent, Mod,
		BitAnd, BitOr, BitXor, LShift, RShift:
		return 1
	default:
		return 0
	}
}

// stackDelta is the static per-op net stack effect for every fixed-delta
// opcode (spec §4.7/§4.8, design note "static stack-delta table"). Ops
// whose delta depends on a runtime operand (argc, upvalue count) are
// listed in variableDelta and excluded here.
var stackDelta = map[Op]int{
	PushConstant: 1, PushNull: 1, PushZero: 1, PushTrue: 1, PushFalse: 1, PushSelf: 1,
	Swap: 0, Dup: 1, Pop: -1,
	PushMap: 1, ListAppend: -1, MapInsert: -2,
	PushLocal0: 1, PushLocal1: 1, PushLocal2: 1, PushLocal3: 1, PushLocal4: 1,
	PushLocal5: 1, PushLocal6: 1, PushLocal7: 1, PushLocal8: 1, PushLocalN: 1,
	StoreLocal0: 0, StoreLocal1: 0, StoreLocal2: 0, StoreLocal3: 0, StoreLocal4: 0,
	StoreLocal5: 0, StoreLocal6: 0, StoreLocal7: 0, StoreLocal8: 0, StoreLocalN: 0,
	PushGlobal: 1, StoreGlobal: 0,
	PushBuiltinFn: 1, PushBuiltinTy: 1,
	PushUpvalue: 1, StoreUpvalue: 0, CloseUpvalue: 0,
	CreateClass: 0, BindMethod: -2,
	IterTest: 0, Iter: 0,
	Import: 1, ImportStar: -1,
	Jump: 0, Loop: 0, JumpIf: -1, JumpIfNot: -1, Or: 0, And: 0,
	Return: 0,
	GetAttrib: 0, GetAttribKeep: 1, SetAttrib: -1,
	GetSubscript: -1, GetSubscriptKeep: 0, SetSubscript: -2,
	Add: -1, Subtract: -1, Multiply: -1, Divide: -1, Exponent: -1, Mod: -1,
	BitAnd: -1, BitOr: -1, BitXor: -1, LShift: -1, RShift: -1,
	Positive: 0, Negative: 0, Not: 0, BitNot: 0,
	EqEq: -1, NotEq: -1, Lt: -1, LtEq: -1, Gt: -1, GtEq: -1, RangeOp: -1, In: -1, Is: -1,
	ReplPrint: 0,
	End:       0,
}

// variableDelta marks opcodes whose stack effect is only known at
// runtime (from an operand like argc, or from counts known only to the
// compiler at emission time), per §4.7's "variable-delta ops ... adjust
// sp by argc/upvalues known at runtime."
var variableDelta = map[Op]bool{
	PushList:    true,
	PushClosure: true,
	Call: true, TailCall: true, MethodCall: true, SuperCall: true,
}

// StackDelta returns the static stack effect for op, and ok=false if the
// effect can only be computed from a runtime operand (see variableDelta).
func StackDelta(op Op) (delta int, ok bool) {
	if variableDelta[op] {
		return 0, false
	}
	d, known := stackDelta[op]
	return d, known
}

// IsVariableDelta reports whether op's stack effect depends on a runtime
// operand rather than being statically known from the opcode alone.
func IsVariableDelta(op Op) bool { return variableDelta[op] }


