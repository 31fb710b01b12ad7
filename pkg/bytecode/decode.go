package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DecodeError reports where decoding of the code section stopped.
type DecodeError struct {
	Address int
	Opcode  Opcode
	Err     error
}

func (e *DecodeError) Error() string {
	if e.Opcode.Valid() {
		return fmt.Sprintf("decode %s at %04X: %v", e.Opcode, e.Address, e.Err)
	}
	return fmt.Sprintf("decode at %04X: %v", e.Address, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode performs a linear sweep over the program's code section and
// returns the resulting instruction stream. String and identifier operands
// are resolved against the program's tables.
func (p *Program) Decode() (*Stream, error) {
	var instrs []Instruction
	for addr := 0; addr < len(p.Code); {
		in, err := p.decodeInstruction(addr)
		if err != nil {
			return nil, err
		}
		instrs = append(instrs, in)
		addr = in.Next()
	}
	return NewStream(instrs)
}

func (p *Program) decodeInstruction(addr int) (Instruction, error) {
	op := Opcode(p.Code[addr])
	info, err := Lookup(op)
	if err != nil {
		return Instruction{}, &DecodeError{Address: addr, Opcode: op, Err: err}
	}

	r := &reader{data: p.Code, pos: addr + 1}
	fail := func(err error) (Instruction, error) {
		return Instruction{}, &DecodeError{Address: addr, Opcode: op, Err: err}
	}

	var operand Operand
	switch info.Operand {
	case OperandNone:
	case OperandInt8:
		v, err := r.uint8("int8 operand")
		if err != nil {
			return fail(err)
		}
		operand = IntOperand(int8(v))
	case OperandInt16:
		v, err := r.uint16("int16 operand")
		if err != nil {
			return fail(err)
		}
		operand = IntOperand(int16(v))
	case OperandInt32:
		v, err := r.uint32("int32 operand")
		if err != nil {
			return fail(err)
		}
		operand = IntOperand(int32(v))
	case OperandFloat32:
		v, err := r.uint32("float operand")
		if err != nil {
			return fail(err)
		}
		operand = FloatOperand(math.Float32frombits(v))
	case OperandAddress:
		v, err := r.uint32("address operand")
		if err != nil {
			return fail(err)
		}
		operand = AddressOperand(v)
	case OperandJump:
		v, err := r.uint32("jump offset")
		if err != nil {
			return fail(err)
		}
		operand = JumpOperand(int32(v))
	case OperandCallTable:
		count, err := r.uint32("call argument count")
		if err != nil {
			return fail(err)
		}
		if int(count) > (len(p.Code)-r.pos)/4 {
			return fail(fmt.Errorf("%w: %d call arguments", ErrTruncated, count))
		}
		targets := make(CallOperand, count)
		for i := range targets {
			v, _ := r.uint32("call argument")
			targets[i] = int(v)
		}
		operand = targets
	case OperandString8, OperandString16, OperandString32:
		idx, err := r.index(info.Operand.fixedWidth())
		if err != nil {
			return fail(err)
		}
		if idx >= len(p.Strings) {
			return fail(fmt.Errorf("%w: string %d of %d", ErrBadIndex, idx, len(p.Strings)))
		}
		operand = TextOperand(p.Strings[idx])
	case OperandIdent8, OperandIdent16, OperandIdent32:
		idx, err := r.index(info.Operand.fixedWidth())
		if err != nil {
			return fail(err)
		}
		if idx >= len(p.Identifiers) {
			return fail(fmt.Errorf("%w: identifier %d of %d", ErrBadIndex, idx, len(p.Identifiers)))
		}
		operand = NameOperand(p.Identifiers[idx])
	}

	return Instruction{
		Address: addr,
		Size:    r.pos - addr,
		Opcode:  op,
		Operand: operand,
	}, nil
}

// index reads an unsigned table index of the given width.
func (r *reader) index(width int) (int, error) {
	b, err := r.bytes(width, "table index")
	if err != nil {
		return 0, err
	}
	switch width {
	case 1:
		return int(b[0]), nil
	case 2:
		return int(binary.LittleEndian.Uint16(b)), nil
	default:
		return int(binary.LittleEndian.Uint32(b)), nil
	}
}
