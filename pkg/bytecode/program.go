package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ProgramVersion is the current container format version.
// Increment when making incompatible changes to the format.
const ProgramVersion uint16 = 1

// ProgramMagic identifies a serialized program container: "QVMC".
var ProgramMagic = []byte{'Q', 'V', 'M', 'C'}

var (
	ErrInvalidMagic = errors.New("invalid program magic: expected QVMC")
	ErrVersion      = errors.New("unsupported program version")
	ErrTruncated    = errors.New("unexpected end of program data")
	ErrBadIndex     = errors.New("table index out of range")
)

// Symbol names a function entry point inside a program's code section.
type Symbol struct {
	Name    string
	Address int
}

// Program is a QVM script: a code section plus the string and identifier
// tables its push instructions index into, and a table of entry points.
type Program struct {
	Version uint16

	// Code section
	Code []byte

	// Tables referenced by PUSHS*/PUSHI* operands
	Strings     []string
	Identifiers []string

	// Entry points
	Functions []Symbol
}

// NewProgram creates an empty program with the current version.
func NewProgram() *Program {
	return &Program{
		Version: ProgramVersion,
		Code:    make([]byte, 0, 64),
	}
}

// AddString adds a string to the string table and returns its index.
// If the string already exists, returns the existing index.
func (p *Program) AddString(value string) uint32 {
	for i, s := range p.Strings {
		if s == value {
			return uint32(i)
		}
	}
	p.Strings = append(p.Strings, value)
	return uint32(len(p.Strings) - 1)
}

// AddIdentifier adds a name to the identifier table and returns its index.
func (p *Program) AddIdentifier(name string) uint32 {
	for i, s := range p.Identifiers {
		if s == name {
			return uint32(i)
		}
	}
	p.Identifiers = append(p.Identifiers, name)
	return uint32(len(p.Identifiers) - 1)
}

// AddFunction records an entry point at the given code offset.
func (p *Program) AddFunction(name string, address int) {
	p.Functions = append(p.Functions, Symbol{Name: name, Address: address})
}

// Emit appends a single-byte opcode to the code section.
func (p *Program) Emit(op Opcode) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(op))
	return offset
}

// EmitWithOperand appends an opcode with raw operand bytes.
func (p *Program) EmitWithOperand(op Opcode, operands ...byte) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(op))
	p.Code = append(p.Code, operands...)
	return offset
}

// EmitPush emits a PUSH of an int32 immediate.
func (p *Program) EmitPush(v int32) int {
	return p.EmitWithOperand(OpPUSH, binary.LittleEndian.AppendUint32(nil, uint32(v))...)
}

// EmitPushFloat emits a PUSHF of a float32 immediate.
func (p *Program) EmitPushFloat(v float32) int {
	return p.EmitWithOperand(OpPUSHF, binary.LittleEndian.AppendUint32(nil, math.Float32bits(v))...)
}

// EmitPushString emits a PUSHS, adding value to the string table.
func (p *Program) EmitPushString(value string) int {
	idx := p.AddString(value)
	return p.EmitWithOperand(OpPUSHS, binary.LittleEndian.AppendUint32(nil, idx)...)
}

// EmitPushIdentifier emits a PUSHI, adding name to the identifier table.
func (p *Program) EmitPushIdentifier(name string) int {
	idx := p.AddIdentifier(name)
	return p.EmitWithOperand(OpPUSHI, binary.LittleEndian.AppendUint32(nil, idx)...)
}

// EmitJump emits a jump instruction with a placeholder offset.
// Returns the offset of the placeholder for later patching.
func (p *Program) EmitJump(op Opcode) int {
	offset := len(p.Code)
	p.Code = append(p.Code, byte(op), 0, 0, 0, 0)
	return offset + 1
}

// PatchJump patches a jump instruction's offset to jump to the current position.
func (p *Program) PatchJump(placeholderOffset int) {
	p.PatchJumpTo(placeholderOffset, len(p.Code))
}

// PatchJumpTo patches a jump to go to a specific offset.
func (p *Program) PatchJumpTo(placeholderOffset int, target int) {
	jumpFrom := placeholderOffset + 4
	delta := int32(target - jumpFrom)
	binary.LittleEndian.PutUint32(p.Code[placeholderOffset:], uint32(delta))
}

// EmitLoop emits a backward BRA to the given loop start.
func (p *Program) EmitLoop(loopStart int) {
	jumpFrom := len(p.Code) + 5
	delta := int32(loopStart - jumpFrom)
	p.Code = append(p.Code, byte(OpBRA))
	p.Code = binary.LittleEndian.AppendUint32(p.Code, uint32(delta))
}

// EmitCall emits a CALL with argc argument-block slots set to zero.
// Returns the offset of the first slot; patch each with PatchCallArg.
func (p *Program) EmitCall(argc int) int {
	p.Code = append(p.Code, byte(OpCALL))
	p.Code = binary.LittleEndian.AppendUint32(p.Code, uint32(argc))
	slots := len(p.Code)
	p.Code = append(p.Code, make([]byte, 4*argc)...)
	return slots
}

// PatchCallArg points argument slot i of a CALL at the current position.
func (p *Program) PatchCallArg(slots int, i int) {
	binary.LittleEndian.PutUint32(p.Code[slots+4*i:], uint32(len(p.Code)))
}

// CurrentOffset returns the current offset in the code section.
func (p *Program) CurrentOffset() int {
	return len(p.Code)
}

// Serialize encodes the program to bytes for storage.
// Format (little-endian):
//
//	[magic:4] [version:2] [reserved:2]
//	[code_len:4] [code:...]
//	[string_count:4] ([len:4] [bytes:...])...
//	[ident_count:4] ([len:4] [bytes:...])...
//	[func_count:4] ([name_len:2] [name:...] [address:4])...
func (p *Program) Serialize() ([]byte, error) {
	buf := make([]byte, 0, 16+len(p.Code)+len(p.Strings)*16+len(p.Identifiers)*16)

	buf = append(buf, ProgramMagic...)
	buf = binary.LittleEndian.AppendUint16(buf, p.Version)
	buf = binary.LittleEndian.AppendUint16(buf, 0)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Code)))
	buf = append(buf, p.Code...)

	buf = appendTable(buf, p.Strings)
	buf = appendTable(buf, p.Identifiers)

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p.Functions)))
	for _, fn := range p.Functions {
		if len(fn.Name) > math.MaxUint16 {
			return nil, fmt.Errorf("function name too long: %d bytes", len(fn.Name))
		}
		if fn.Address < 0 || fn.Address > math.MaxUint32 {
			return nil, fmt.Errorf("function %s: address %d out of range", fn.Name, fn.Address)
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(fn.Name)))
		buf = append(buf, fn.Name...)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(fn.Address))
	}

	return buf, nil
}

func appendTable(buf []byte, table []string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(table)))
	for _, s := range table {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}
	return buf
}

// Deserialize decodes a program from bytes.
func Deserialize(data []byte) (*Program, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: need at least 8 bytes, got %d", ErrTruncated, len(data))
	}
	if string(data[0:4]) != string(ProgramMagic) {
		return nil, fmt.Errorf("%w, got %q", ErrInvalidMagic, data[0:4])
	}

	p := &Program{Version: binary.LittleEndian.Uint16(data[4:6])}
	if p.Version == 0 || p.Version > ProgramVersion {
		return nil, fmt.Errorf("%w: %d (supported: %d)", ErrVersion, p.Version, ProgramVersion)
	}

	r := &reader{data: data, pos: 8}

	codeLen, err := r.uint32("code length")
	if err != nil {
		return nil, err
	}
	code, err := r.bytes(int(codeLen), "code section")
	if err != nil {
		return nil, err
	}
	p.Code = append([]byte(nil), code...)

	if p.Strings, err = r.table("string"); err != nil {
		return nil, err
	}
	if p.Identifiers, err = r.table("identifier"); err != nil {
		return nil, err
	}

	funcCount, err := r.uint32("function count")
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < funcCount; i++ {
		nameLen, err := r.uint16("function name length")
		if err != nil {
			return nil, err
		}
		name, err := r.bytes(int(nameLen), "function name")
		if err != nil {
			return nil, err
		}
		addr, err := r.uint32("function address")
		if err != nil {
			return nil, err
		}
		p.Functions = append(p.Functions, Symbol{Name: string(name), Address: int(addr)})
	}

	return p, nil
}

// reader is a bounds-checked little-endian cursor over a byte slice.
type reader struct {
	data []byte
	pos  int
}

func (r *reader) bytes(n int, what string) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, fmt.Errorf("%w reading %s at pos %d", ErrTruncated, what, r.pos)
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) uint8(what string) (uint8, error) {
	b, err := r.bytes(1, what)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint16(what string) (uint16, error) {
	b, err := r.bytes(2, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) uint32(what string) (uint32, error) {
	b, err := r.bytes(4, what)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) table(what string) ([]string, error) {
	count, err := r.uint32(what + " count")
	if err != nil {
		return nil, err
	}
	if int(count) > len(r.data)-r.pos {
		return nil, fmt.Errorf("%w: %s count %d exceeds remaining data", ErrTruncated, what, count)
	}
	table := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		n, err := r.uint32(fmt.Sprintf("%s %d length", what, i))
		if err != nil {
			return nil, err
		}
		b, err := r.bytes(int(n), fmt.Sprintf("%s %d", what, i))
		if err != nil {
			return nil, err
		}
		table = append(table, string(b))
	}
	return table, nil
}
