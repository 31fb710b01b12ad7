package decompiler

import (
	"fmt"

	"github.com/chazu/qvmtool/pkg/ast"
	"github.com/chazu/qvmtool/pkg/bytecode"
)

// Code is the read-only, address-indexed instruction source a walk consumes.
// *bytecode.Stream implements it.
type Code interface {
	At(address int) (bytecode.Instruction, bool)
}

// NoStop disables the stop address of a walk.
const NoStop = -1

const (
	DefaultMaxDepth = 512
	DefaultMaxSteps = 1 << 20
)

// Limits bounds the work a single top-level walk may do. Zero values select
// DefaultMaxDepth and DefaultMaxSteps; a negative MaxSteps disables the
// step ceiling.
type Limits struct {
	MaxDepth int // nested walks (bodies and call arguments)
	MaxSteps int // instructions visited across all nested walks
}

// Block is the result of one walk.
type Block struct {
	// Exit is the terminator that ended the walk, or the unconsumed
	// instruction at the stop address when Bounded is set.
	Exit       bytecode.Instruction
	Statements []ast.Node
	Bounded    bool
}

// Walk reconstructs the block that starts at start, stopping at the first
// terminator or, if stop is not NoStop, before the instruction at stop.
// Each call is independent; code is never modified.
func Walk(code Code, start, stop int) (Block, error) {
	return newWalker(code, Limits{}).walk(start, stop, 0)
}

// WalkWithLimits is Walk with explicit resource limits.
func WalkWithLimits(code Code, start, stop int, limits Limits) (Block, error) {
	return newWalker(code, limits).walk(start, stop, 0)
}

// walker carries the resource counters of one top-level walk. All
// reconstruction state lives in the per-invocation frame.
type walker struct {
	code     Code
	maxDepth int
	maxSteps int
	steps    int
}

func newWalker(code Code, limits Limits) *walker {
	w := &walker{code: code, maxDepth: limits.MaxDepth, maxSteps: limits.MaxSteps}
	if w.maxDepth <= 0 {
		w.maxDepth = DefaultMaxDepth
	}
	if w.maxSteps == 0 {
		w.maxSteps = DefaultMaxSteps
	}
	return w
}

// frame is the statement sequence of one walk. Values that nothing has
// consumed yet sit in items at the positions recorded in stack, so a value
// left behind by an operator or call reads as an expression statement in
// program order, while later operators can still pop it across statements.
type frame struct {
	items []ast.Node
	stack []int // positions in items, most recent last
}

func (f *frame) push(e ast.Expr) {
	f.stack = append(f.stack, len(f.items))
	f.items = append(f.items, e)
}

func (f *frame) pop(in bytecode.Instruction) (ast.Expr, error) {
	if len(f.stack) == 0 {
		return nil, newError(ErrStackUnderflow, in, "%s needs an operand", in.Opcode)
	}
	i := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	e := f.items[i].(ast.Expr)
	// Every other stacked position is below i, so only statements shift.
	f.items = append(f.items[:i], f.items[i+1:]...)
	return e, nil
}

// emit appends a control-flow statement.
func (f *frame) emit(s ast.Stmt) {
	f.items = append(f.items, s)
}

func (w *walker) walk(start, stop, depth int) (Block, error) {
	if depth > w.maxDepth {
		return Block{}, &Error{
			Kind:    ErrResourceExhausted,
			Address: start,
			Detail:  fmt.Sprintf("nesting deeper than %d", w.maxDepth),
		}
	}

	var f frame
	addr := start
	for {
		in, ok := w.code.At(addr)
		if !ok {
			return Block{}, &Error{Kind: ErrInvalidAddress, Address: addr, Detail: "block runs past the instruction stream"}
		}
		if stop != NoStop && addr == stop {
			return Block{Exit: in, Statements: f.items, Bounded: true}, nil
		}

		w.steps++
		if w.maxSteps > 0 && w.steps > w.maxSteps {
			return Block{}, newError(ErrResourceExhausted, in, "more than %d instructions visited", w.maxSteps)
		}

		info, err := bytecode.Lookup(in.Opcode)
		if err != nil {
			return Block{}, newError(ErrUnknownOpcode, in, "opcode byte 0x%02X", byte(in.Opcode))
		}

		switch info.Class {
		case bytecode.ClassTerminator:
			return Block{Exit: in, Statements: f.items}, nil

		case bytecode.ClassDiscard:
			addr = in.Next()

		case bytecode.ClassPushNumber, bytecode.ClassPushString, bytecode.ClassPushIdentifier:
			lit, err := literal(in, info.Class)
			if err != nil {
				return Block{}, err
			}
			f.push(lit)
			addr = in.Next()

		case bytecode.ClassUnaryOp:
			operand, err := f.pop(in)
			if err != nil {
				return Block{}, err
			}
			f.push(&ast.UnaryExpr{Op: unaryOps[in.Opcode], Operand: operand})
			addr = in.Next()

		case bytecode.ClassBinaryOp:
			// Operands come off the stack right first: PUSHI x; PUSH 1;
			// ASSIGN is x = 1.
			right, err := f.pop(in)
			if err != nil {
				return Block{}, err
			}
			left, err := f.pop(in)
			if err != nil {
				return Block{}, err
			}
			f.push(&ast.BinaryExpr{Op: binaryOps[in.Opcode], Left: left, Right: right})
			addr = in.Next()

		case bytecode.ClassCall:
			if addr, err = w.call(in, &f, depth); err != nil {
				return Block{}, err
			}

		case bytecode.ClassConditionalBranch:
			if addr, err = w.branch(in, &f, depth); err != nil {
				return Block{}, err
			}

		default:
			return Block{}, newError(ErrUnhandledOpcode, in, "no reconstruction rule for %s", in.Opcode)
		}
	}
}

// literal builds the node for a push instruction.
func literal(in bytecode.Instruction, class bytecode.Class) (ast.Expr, error) {
	switch op := in.Operand.(type) {
	case bytecode.IntOperand:
		if class == bytecode.ClassPushNumber {
			return &ast.Number{Value: float64(op)}, nil
		}
	case bytecode.FloatOperand:
		if class == bytecode.ClassPushNumber {
			return &ast.Number{Value: float64(op), Float: true}, nil
		}
	case bytecode.TextOperand:
		if class == bytecode.ClassPushString {
			return &ast.Text{Value: string(op)}, nil
		}
	case bytecode.NameOperand:
		if class == bytecode.ClassPushIdentifier {
			return &ast.Identifier{Name: string(op)}, nil
		}
	}
	return nil, newError(ErrBadOperand, in, "%s cannot push operand %T", class, in.Operand)
}

// branch reconstructs the statement a BF introduces and returns the address
// to resume at.
//
// The true body runs from the instruction after BF up to a BRA that ends
// exactly at BF's own target. The sign of that BRA's offset tells the
// construct apart: backwards is a loop, zero is a plain if, forwards skips
// an else region that ends at the BRA's target.
func (w *walker) branch(bf bytecode.Instruction, f *frame, depth int) (int, error) {
	cond, err := f.pop(bf)
	if err != nil {
		return 0, err
	}
	falseTarget, ok := bf.Target()
	if !ok {
		return 0, newError(ErrBadOperand, bf, "expected a jump offset, got %T", bf.Operand)
	}

	then, err := w.walk(bf.Next(), NoStop, depth+1)
	if err != nil {
		return 0, err
	}

	jump := then.Exit
	if jump.Opcode != bytecode.OpBRA {
		return 0, newError(ErrMalformedBranch, bf, "true body ends with %s at %04X, want BRA", jump.Opcode, jump.Address)
	}
	if jump.Next() != falseTarget {
		return 0, newError(ErrMalformedBranch, bf, "true body ends at %04X but the branch targets %04X", jump.Next(), falseTarget)
	}
	offset, ok := jump.Offset()
	if !ok {
		return 0, newError(ErrBadOperand, jump, "expected a jump offset, got %T", jump.Operand)
	}
	if _, ok := w.code.At(falseTarget); !ok {
		return 0, newError(ErrMalformedBranch, bf, "branch target %04X is not an instruction", falseTarget)
	}

	switch {
	case offset < 0:
		f.emit(&ast.WhileStmt{Cond: cond, Body: then.Statements})
		return falseTarget, nil

	case offset == 0:
		f.emit(&ast.IfStmt{Cond: cond, Then: then.Statements})
		return falseTarget, nil

	default:
		end := jump.Next() + offset
		if _, ok := w.code.At(end); !ok {
			return 0, newError(ErrMalformedBranch, jump, "else region ends at %04X, which is not an instruction", end)
		}
		els, err := w.walk(falseTarget, end, depth+1)
		if err != nil {
			return 0, err
		}
		if !els.Bounded {
			log.Debugf("else region at %04X ends with %s at %04X before %04X", falseTarget, els.Exit.Opcode, els.Exit.Address, end)
		}
		f.emit(&ast.IfElseStmt{Cond: cond, Then: then.Statements, Else: els.Statements})
		return end, nil
	}
}

// call reconstructs a CALL and returns the address to resume at.
//
// Each argument is a separate block ending in BRK that evaluates to one
// expression. The CALL is followed by a BRA that skips those blocks.
func (w *walker) call(in bytecode.Instruction, f *frame, depth int) (int, error) {
	callee, err := f.pop(in)
	if err != nil {
		return 0, err
	}
	targets, ok := in.Operand.(bytecode.CallOperand)
	if !ok {
		return 0, newError(ErrBadOperand, in, "expected argument addresses, got %T", in.Operand)
	}

	args := make([]ast.Expr, 0, len(targets))
	for i, start := range targets {
		if _, ok := w.code.At(start); !ok {
			return 0, newError(ErrMalformedCall, in, "argument %d starts at %04X, which is not an instruction", i, start)
		}
		arg, err := w.walk(start, NoStop, depth+1)
		if err != nil {
			return 0, err
		}
		if arg.Exit.Opcode != bytecode.OpBRK {
			return 0, newError(ErrMalformedCall, in, "argument %d ends with %s at %04X, want BRK", i, arg.Exit.Opcode, arg.Exit.Address)
		}
		if len(arg.Statements) != 1 {
			return 0, newError(ErrMalformedCall, in, "argument %d yields %d statements, want 1", i, len(arg.Statements))
		}
		e, ok := arg.Statements[0].(ast.Expr)
		if !ok {
			return 0, newError(ErrMalformedCall, in, "argument %d is a %T, want an expression", i, arg.Statements[0])
		}
		args = append(args, e)
	}

	jump, ok := w.code.At(in.Next())
	if !ok || jump.Opcode != bytecode.OpBRA {
		return 0, newError(ErrMalformedCall, in, "call is not followed by BRA")
	}
	resume, ok := jump.Target()
	if !ok {
		return 0, newError(ErrBadOperand, jump, "expected a jump offset, got %T", jump.Operand)
	}
	// A backward resume would let a walk revisit the call forever.
	if resume <= jump.Address {
		return 0, newError(ErrMalformedCall, jump, "post-call jump to %04X does not skip forward", resume)
	}
	if _, ok := w.code.At(resume); !ok {
		return 0, newError(ErrMalformedCall, jump, "post-call jump target %04X is not an instruction", resume)
	}

	f.push(&ast.CallExpr{Callee: callee, Args: args})
	return resume, nil
}
