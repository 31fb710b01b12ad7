package bytecode

import (
	"errors"
	"fmt"
)

// ErrBadStream is returned when instructions cannot form an addressable stream.
var ErrBadStream = errors.New("malformed instruction stream")

// Stream is an immutable, address-indexed sequence of decoded instructions.
// It is safe for concurrent readers.
type Stream struct {
	instrs []Instruction
	index  map[int]int // address -> position in instrs
}

// NewStream builds a stream from instructions in ascending address order.
// Instructions must not overlap and must have a positive size.
func NewStream(instrs []Instruction) (*Stream, error) {
	s := &Stream{
		instrs: make([]Instruction, len(instrs)),
		index:  make(map[int]int, len(instrs)),
	}
	copy(s.instrs, instrs)

	end := -1
	for i, in := range s.instrs {
		if in.Size <= 0 {
			return nil, fmt.Errorf("%w: instruction at %04X has size %d", ErrBadStream, in.Address, in.Size)
		}
		if in.Address < 0 || in.Address < end {
			return nil, fmt.Errorf("%w: instruction at %04X overlaps or precedes %04X", ErrBadStream, in.Address, end)
		}
		if in.Operand != nil {
			if call, ok := in.Operand.(CallOperand); ok {
				// Keep the stream immutable even if the caller reuses the slice.
				s.instrs[i].Operand = append(CallOperand(nil), call...)
			}
		}
		s.index[in.Address] = i
		end = in.Next()
	}
	return s, nil
}

// At returns the instruction starting exactly at address.
func (s *Stream) At(address int) (Instruction, bool) {
	i, ok := s.index[address]
	if !ok {
		return Instruction{}, false
	}
	return s.instrs[i], true
}

// Len returns the number of instructions.
func (s *Stream) Len() int {
	return len(s.instrs)
}

// Instructions returns a copy of the instructions in address order.
func (s *Stream) Instructions() []Instruction {
	out := make([]Instruction, len(s.instrs))
	copy(out, s.instrs)
	return out
}

// End returns the address just past the last instruction.
func (s *Stream) End() int {
	if len(s.instrs) == 0 {
		return 0
	}
	return s.instrs[len(s.instrs)-1].Next()
}
