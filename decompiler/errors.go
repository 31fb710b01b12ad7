package decompiler

import (
	"errors"
	"fmt"

	"github.com/chazu/qvmtool/pkg/bytecode"
)

// ---------------------------------------------------------------------------
// Decompile Error Types
// ---------------------------------------------------------------------------

var (
	ErrUnknownOpcode     = bytecode.ErrUnknownOpcode
	ErrUnhandledOpcode   = errors.New("unhandled opcode")
	ErrMalformedBranch   = errors.New("malformed branch")
	ErrMalformedCall     = errors.New("malformed call")
	ErrStackUnderflow    = errors.New("expression stack underflow")
	ErrResourceExhausted = errors.New("resource limit exceeded")
	ErrInvalidAddress    = errors.New("invalid address")
	ErrBadOperand        = errors.New("operand does not match opcode")
)

// Error describes why a block could not be reconstructed. Kind is one of the
// sentinel errors above, so callers can test with errors.Is.
type Error struct {
	Kind    error
	Address int
	Opcode  string // canonical opcode name, empty if no instruction was read
	Detail  string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%v at %04X", e.Kind, e.Address)
	if e.Opcode != "" {
		msg += " (" + e.Opcode + ")"
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, in bytecode.Instruction, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Address: in.Address,
		Opcode:  in.Opcode.String(),
		Detail:  fmt.Sprintf(format, args...),
	}
}
