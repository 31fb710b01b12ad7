package bytecode

import (
	"errors"
	"fmt"
)

// ErrUnknownOpcode is returned for opcode bytes outside the QVM opcode space.
var ErrUnknownOpcode = errors.New("unknown opcode")

// Opcode represents a QVM bytecode instruction tag.
// The opcode space is a closed single-byte range (0x00-0x30).
type Opcode byte

const (
	// ========================================================================
	// Control flow (0x00-0x07)
	// ========================================================================

	OpBRK  Opcode = 0x00 // End of block
	OpNOP  Opcode = 0x01 // No operation
	OpRET  Opcode = 0x02 // Return from script
	OpBRA  Opcode = 0x03 // Unconditional jump: OpBRA <offset:i32>
	OpBF   Opcode = 0x04 // Pop, jump if false: OpBF <offset:i32>
	OpBT   Opcode = 0x05 // Pop, jump if true: OpBT <offset:i32>
	OpJSR  Opcode = 0x06 // Jump to subroutine: OpJSR <offset:i32>
	OpCALL Opcode = 0x07 // Call: OpCALL <count:u32> <address:u32>...

	// ========================================================================
	// Pushes (0x08-0x17)
	// ========================================================================

	OpPUSH    Opcode = 0x08 // Push int32 immediate
	OpPUSHB   Opcode = 0x09 // Push int8 immediate
	OpPUSHW   Opcode = 0x0A // Push int16 immediate
	OpPUSHF   Opcode = 0x0B // Push float32 immediate
	OpPUSHA   Opcode = 0x0C // Push code address
	OpPUSHS   Opcode = 0x0D // Push string: <index:u32>
	OpPUSHSI  Opcode = 0x0E // Push string reference: <index:u32>
	OpPUSHSIB Opcode = 0x0F // Push string reference: <index:u8>
	OpPUSHSIW Opcode = 0x10 // Push string reference: <index:u16>
	OpPUSHI   Opcode = 0x11 // Push identifier: <index:u32>
	OpPUSHII  Opcode = 0x12 // Push identifier reference: <index:u32>
	OpPUSHIIB Opcode = 0x13 // Push identifier reference: <index:u8>
	OpPUSHIIW Opcode = 0x14 // Push identifier reference: <index:u16>
	OpPUSH0   Opcode = 0x15 // Push 0
	OpPUSH1   Opcode = 0x16 // Push 1
	OpPUSHM   Opcode = 0x17 // Push mark

	// ========================================================================
	// Stack (0x18)
	// ========================================================================

	OpPOP Opcode = 0x18 // Discard top of stack

	// ========================================================================
	// Binary operators (0x19-0x2A)
	// ========================================================================

	OpADD    Opcode = 0x19
	OpSUB    Opcode = 0x1A
	OpMUL    Opcode = 0x1B
	OpDIV    Opcode = 0x1C
	OpSHL    Opcode = 0x1D
	OpSHR    Opcode = 0x1E
	OpAND    Opcode = 0x1F
	OpOR     Opcode = 0x20
	OpXOR    Opcode = 0x21
	OpLAND   Opcode = 0x22
	OpLOR    Opcode = 0x23
	OpEQ     Opcode = 0x24
	OpNE     Opcode = 0x25
	OpLT     Opcode = 0x26
	OpLE     Opcode = 0x27
	OpGT     Opcode = 0x28
	OpGE     Opcode = 0x29
	OpASSIGN Opcode = 0x2A

	// ========================================================================
	// Unary operators (0x2B-0x2E)
	// ========================================================================

	OpPLUS  Opcode = 0x2B
	OpMINUS Opcode = 0x2C
	OpINV   Opcode = 0x2D
	OpNOT   Opcode = 0x2E

	// ========================================================================
	// Misc (0x2F-0x30)
	// ========================================================================

	OpBLK     Opcode = 0x2F
	OpILLEGAL Opcode = 0x30
)

// Class groups opcodes by how the decompiler treats them.
type Class uint8

const (
	// ClassOther opcodes are valid but have no reconstruction rule.
	ClassOther Class = iota
	ClassTerminator
	ClassConditionalBranch
	ClassPushNumber
	ClassPushString
	ClassPushIdentifier
	ClassDiscard
	ClassUnaryOp
	ClassBinaryOp
	ClassCall
)

var classNames = [...]string{
	ClassOther:             "other",
	ClassTerminator:        "terminator",
	ClassConditionalBranch: "conditional-branch",
	ClassPushNumber:        "push-number",
	ClassPushString:        "push-string",
	ClassPushIdentifier:    "push-identifier",
	ClassDiscard:           "discard",
	ClassUnaryOp:           "unary-op",
	ClassBinaryOp:          "binary-op",
	ClassCall:              "call",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", c)
}

// OperandKind describes the encoded layout of an instruction's operand.
type OperandKind uint8

const (
	OperandNone       OperandKind = iota
	OperandInt8                   // i8 immediate
	OperandInt16                  // i16 immediate
	OperandInt32                  // i32 immediate
	OperandFloat32                // f32 immediate
	OperandAddress                // u32 absolute code address
	OperandJump                   // i32 offset relative to the next instruction
	OperandCallTable              // u32 count followed by count u32 addresses
	OperandString8                // u8 string table index
	OperandString16               // u16 string table index
	OperandString32               // u32 string table index
	OperandIdent8                 // u8 identifier table index
	OperandIdent16                // u16 identifier table index
	OperandIdent32                // u32 identifier table index
)

// fixedWidth returns the encoded width of fixed-size operand kinds.
// OperandCallTable is variable and reports -1.
func (k OperandKind) fixedWidth() int {
	switch k {
	case OperandNone:
		return 0
	case OperandInt8, OperandString8, OperandIdent8:
		return 1
	case OperandInt16, OperandString16, OperandIdent16:
		return 2
	case OperandCallTable:
		return -1
	default:
		return 4
	}
}

// OpcodeInfo provides metadata about each opcode for decoding and diagnostics.
type OpcodeInfo struct {
	Name    string      // Canonical name
	Class   Class       // Semantic group
	Operand OperandKind // Operand layout
}

// opcodeInfoTable maps opcodes to their metadata. Indexed by opcode value.
var opcodeInfoTable = [...]OpcodeInfo{
	// Control flow
	OpBRK:  {"BRK", ClassTerminator, OperandNone},
	OpNOP:  {"NOP", ClassOther, OperandNone},
	OpRET:  {"RET", ClassOther, OperandNone},
	OpBRA:  {"BRA", ClassTerminator, OperandJump},
	OpBF:   {"BF", ClassConditionalBranch, OperandJump},
	OpBT:   {"BT", ClassOther, OperandJump},
	OpJSR:  {"JSR", ClassOther, OperandJump},
	OpCALL: {"CALL", ClassCall, OperandCallTable},

	// Pushes
	OpPUSH:    {"PUSH", ClassPushNumber, OperandInt32},
	OpPUSHB:   {"PUSHB", ClassOther, OperandInt8},
	OpPUSHW:   {"PUSHW", ClassOther, OperandInt16},
	OpPUSHF:   {"PUSHF", ClassPushNumber, OperandFloat32},
	OpPUSHA:   {"PUSHA", ClassOther, OperandAddress},
	OpPUSHS:   {"PUSHS", ClassPushString, OperandString32},
	OpPUSHSI:  {"PUSHSI", ClassOther, OperandString32},
	OpPUSHSIB: {"PUSHSIB", ClassOther, OperandString8},
	OpPUSHSIW: {"PUSHSIW", ClassOther, OperandString16},
	OpPUSHI:   {"PUSHI", ClassPushIdentifier, OperandIdent32},
	OpPUSHII:  {"PUSHII", ClassOther, OperandIdent32},
	OpPUSHIIB: {"PUSHIIB", ClassOther, OperandIdent8},
	OpPUSHIIW: {"PUSHIIW", ClassOther, OperandIdent16},
	OpPUSH0:   {"PUSH0", ClassOther, OperandNone},
	OpPUSH1:   {"PUSH1", ClassOther, OperandNone},
	OpPUSHM:   {"PUSHM", ClassOther, OperandNone},

	OpPOP: {"POP", ClassDiscard, OperandNone},

	// Binary operators
	OpADD:    {"ADD", ClassBinaryOp, OperandNone},
	OpSUB:    {"SUB", ClassBinaryOp, OperandNone},
	OpMUL:    {"MUL", ClassBinaryOp, OperandNone},
	OpDIV:    {"DIV", ClassBinaryOp, OperandNone},
	OpSHL:    {"SHL", ClassBinaryOp, OperandNone},
	OpSHR:    {"SHR", ClassBinaryOp, OperandNone},
	OpAND:    {"AND", ClassBinaryOp, OperandNone},
	OpOR:     {"OR", ClassBinaryOp, OperandNone},
	OpXOR:    {"XOR", ClassBinaryOp, OperandNone},
	OpLAND:   {"LAND", ClassBinaryOp, OperandNone},
	OpLOR:    {"LOR", ClassBinaryOp, OperandNone},
	OpEQ:     {"EQ", ClassBinaryOp, OperandNone},
	OpNE:     {"NE", ClassBinaryOp, OperandNone},
	OpLT:     {"LT", ClassBinaryOp, OperandNone},
	OpLE:     {"LE", ClassBinaryOp, OperandNone},
	OpGT:     {"GT", ClassBinaryOp, OperandNone},
	OpGE:     {"GE", ClassBinaryOp, OperandNone},
	OpASSIGN: {"ASSIGN", ClassBinaryOp, OperandNone},

	// Unary operators
	OpPLUS:  {"PLUS", ClassUnaryOp, OperandNone},
	OpMINUS: {"MINUS", ClassUnaryOp, OperandNone},
	OpINV:   {"INV", ClassUnaryOp, OperandNone},
	OpNOT:   {"NOT", ClassUnaryOp, OperandNone},

	OpBLK:     {"BLK", ClassOther, OperandNone},
	OpILLEGAL: {"ILLEGAL", ClassOther, OperandNone},
}

// Lookup returns metadata for an opcode, or ErrUnknownOpcode if the tag is
// outside the opcode space.
func Lookup(op Opcode) (OpcodeInfo, error) {
	if int(op) >= len(opcodeInfoTable) {
		return OpcodeInfo{}, fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, byte(op))
	}
	return opcodeInfoTable[op], nil
}

// Valid reports whether op is inside the opcode space.
func (op Opcode) Valid() bool {
	return int(op) < len(opcodeInfoTable)
}

// String returns the canonical name of an opcode.
func (op Opcode) String() string {
	if !op.Valid() {
		return fmt.Sprintf("UNKNOWN(0x%02X)", byte(op))
	}
	return opcodeInfoTable[op].Name
}

// Class returns the semantic class of an opcode. Unknown opcodes report
// ClassOther; use Lookup to distinguish them.
func (op Opcode) Class() Class {
	if !op.Valid() {
		return ClassOther
	}
	return opcodeInfoTable[op].Class
}

// IsJump returns true if the opcode carries a relative jump offset.
func (op Opcode) IsJump() bool {
	return op.Valid() && opcodeInfoTable[op].Operand == OperandJump
}

// IsTerminator returns true if the opcode ends a block.
func (op Opcode) IsTerminator() bool {
	return op.Class() == ClassTerminator
}

// AllOpcodes returns every defined opcode in ascending order.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, len(opcodeInfoTable))
	for i := range opcodeInfoTable {
		opcodes[i] = Opcode(i)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
