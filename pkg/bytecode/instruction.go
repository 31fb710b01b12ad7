package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Operand is the decoded operand of an instruction. The concrete type
// depends on the opcode's OperandKind; instructions without an operand
// carry a nil Operand.
type Operand interface {
	operand()
	String() string
}

// IntOperand is an integer immediate (PUSH, PUSHB, PUSHW).
type IntOperand int32

// FloatOperand is a float immediate (PUSHF).
type FloatOperand float32

// AddressOperand is an absolute code address (PUSHA).
type AddressOperand uint32

// JumpOperand is a signed offset relative to the address of the next
// instruction (BRA, BF, BT, JSR).
type JumpOperand int32

// CallOperand lists the start addresses of a call's argument blocks.
type CallOperand []int

// TextOperand is a string-table entry resolved at decode time.
type TextOperand string

// NameOperand is an identifier-table entry resolved at decode time.
type NameOperand string

func (IntOperand) operand()     {}
func (FloatOperand) operand()   {}
func (AddressOperand) operand() {}
func (JumpOperand) operand()    {}
func (CallOperand) operand()    {}
func (TextOperand) operand()    {}
func (NameOperand) operand()    {}

func (o IntOperand) String() string   { return strconv.FormatInt(int64(o), 10) }
func (o FloatOperand) String() string { return strconv.FormatFloat(float64(o), 'g', -1, 32) }
func (o AddressOperand) String() string {
	return fmt.Sprintf("%04X", uint32(o))
}
func (o JumpOperand) String() string { return fmt.Sprintf("%+d", int32(o)) }
func (o TextOperand) String() string { return strconv.Quote(string(o)) }
func (o NameOperand) String() string { return string(o) }

func (o CallOperand) String() string {
	parts := make([]string, len(o))
	for i, addr := range o {
		parts[i] = fmt.Sprintf("%04X", addr)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Instruction is one decoded instruction.
type Instruction struct {
	Address int     // Byte offset of the opcode
	Size    int     // Encoded length including the opcode byte
	Opcode  Opcode  // Operation tag
	Operand Operand // Decoded operand, nil if the opcode takes none
}

// Next returns the address of the instruction that follows in sequence.
func (in Instruction) Next() int {
	return in.Address + in.Size
}

// Offset returns the jump offset for jump instructions.
func (in Instruction) Offset() (int, bool) {
	j, ok := in.Operand.(JumpOperand)
	return int(j), ok
}

// Target returns the absolute address a jump instruction transfers to.
func (in Instruction) Target() (int, bool) {
	off, ok := in.Offset()
	if !ok {
		return 0, false
	}
	return in.Next() + off, true
}

// String formats the instruction the way the disassembler prints it.
func (in Instruction) String() string {
	if in.Operand == nil {
		return in.Opcode.String()
	}
	if target, ok := in.Target(); ok {
		return fmt.Sprintf("%s %s (-> %04X)", in.Opcode, in.Operand, target)
	}
	return fmt.Sprintf("%s %s", in.Opcode, in.Operand)
}
