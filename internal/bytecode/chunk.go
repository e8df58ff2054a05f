package bytecode

import "fmt"

// Code is a growable opcode buffer paired with a parallel line-number
// buffer (spec §3.3 Fn: "opcodes byte buffer, oplines parallel line-number
// buffer (same length as opcodes)"). Adapted from the teacher's Chunk
// (this file previously held Chunk+DebugInfo+Constants); constants now
// live on the owning Module (spec §4.4), and debug file/function names
// live on Fn, since every opcode in one buffer shares one owning function.
type Code struct {
	Ops   []byte
	Lines []int
}

func NewCode() *Code {
	return &Code{Ops: []byte{}, Lines: []int{}}
}

func (c *Code) WriteOp(op Op, line int) int {
	pos := len(c.Ops)
	c.Ops = append(c.Ops, byte(op))
	c.Lines = append(c.Lines, line)
	return pos
}

func (c *Code) WriteByte(b byte, line int) int {
	pos := len(c.Ops)
	c.Ops = append(c.Ops, b)
	c.Lines = append(c.Lines, line)
	return pos
}

func (c *Code) WriteShort(v uint16, line int) int {
	pos := c.WriteByte(byte(v>>8), line)
	c.WriteByte(byte(v), line)
	return pos
}

// PatchShort overwrites the big-endian u16 operand written at pos.
func (c *Code) PatchShort(pos int, v uint16) {
	c.Ops[pos] = byte(v >> 8)
	c.Ops[pos+1] = byte(v)
}

func (c *Code) ReadShort(pos int) uint16 {
	return uint16(c.Ops[pos])<<8 | uint16(c.Ops[pos+1])
}

func (c *Code) Len() int { return len(c.Ops) }

// Disassemble renders the buffer as human-readable text, one instruction
// per line, in the teacher's `<name> <operands>` debug-dump style.
func (c *Code) Disassemble(name string) string {
	out := fmt.Sprintf("== %s ==\n", name)
	ip := 0
	for ip < len(c.Ops) {
		op := Op(c.Ops[ip])
		line := c.Lines[ip]
		switch op.OperandSize() {
		case 0:
			out += fmt.Sprintf("%04d %4d %s\n", ip, line, op)
			ip++
		case 1:
			out += fmt.Sprintf("%04d %4d %-16s %d\n", ip, line, op, c.Ops[ip+1])
			ip += 2
		case 2:
			out += fmt.Sprintf("%04d %4d %-16s %d\n", ip, line, op, c.ReadShort(ip+1))
			ip += 3
		case 3:
			out += fmt.Sprintf("%04d %4d %-16s %d %d\n", ip, line, op, c.Ops[ip+1], c.ReadShort(ip+2))
			ip += 4
		default:
			out += fmt.Sprintf("%04d %4d %s (unknown operand width)\n", ip, line, op)
			ip++
		}
	}
	return out
}


