package bytecode

import (
	"strings"
	"testing"
)

func TestEveryOpcodeHasAName(t *testing.T) {
	for op := PushConstant; op <= End; op++ {
		if op.String() == "UNKNOWN_OP" {
			t.Errorf("opcode %d has no name entry", op)
		}
	}
	if Op(End + 1).String() != "UNKNOWN_OP" {
		t.Error("out-of-range opcode must stringify as UNKNOWN_OP")
	}
}

func TestEveryOpcodeHasAStackDelta(t *testing.T) {
	// Each opcode is either in the static table or flagged variable;
	// never both, never neither (spec §4.7 "per-op stack effect
	// metadata", §9 "static stack-delta table").
	for op := PushConstant; op <= End; op++ {
		_, static := StackDelta(op)
		variable := IsVariableDelta(op)
		if static && variable {
			t.Errorf("%s is both static- and variable-delta", op)
		}
		if !static && !variable {
			t.Errorf("%s has no stack-delta classification", op)
		}
	}
}

func TestStaticDeltaSpotChecks(t *testing.T) {
	cases := []struct {
		op   Op
		want int
	}{
		{PushConstant, 1},
		{Pop, -1},
		{Dup, 1},
		{Swap, 0},
		{MapInsert, -2},
		{EqEq, -1},
		{JumpIfNot, -1},
		{GetAttribKeep, 1},
		{SetSubscript, -2},
	}
	for _, c := range cases {
		got, ok := StackDelta(c.op)
		if !ok || got != c.want {
			t.Errorf("StackDelta(%s) = %d, %v; want %d, true", c.op, got, ok, c.want)
		}
	}
}

func TestWritePatchReadShort(t *testing.T) {
	code := NewCode()
	code.WriteOp(Jump, 1)
	pos := code.WriteShort(0, 1)
	code.WriteOp(Pop, 2)
	code.PatchShort(pos, 0xBEEF)
	if got := code.ReadShort(pos); got != 0xBEEF {
		t.Fatalf("patched short reads back %#x", got)
	}
	if len(code.Ops) != len(code.Lines) {
		t.Fatal("oplines must stay parallel to opcodes")
	}
}

func TestDisassembleWalksOperandWidths(t *testing.T) {
	code := NewCode()
	code.WriteOp(PushConstant, 1)
	code.WriteShort(3, 1)
	code.WriteOp(Call, 2)
	code.WriteByte(2, 2)
	code.WriteOp(MethodCall, 3)
	code.WriteByte(1, 3)
	code.WriteShort(7, 3)
	code.WriteOp(Return, 4)
	code.WriteOp(End, 4)

	out := code.Disassemble("test")
	for _, want := range []string{"PUSH_CONSTANT", "CALL", "METHOD_CALL", "RETURN", "END"} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "unknown operand width") {
		t.Errorf("disassembly lost alignment:\n%s", out)
	}
}
