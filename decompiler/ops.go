package decompiler

import (
	"github.com/chazu/qvmtool/pkg/ast"
	"github.com/chazu/qvmtool/pkg/bytecode"
)

var unaryOps = map[bytecode.Opcode]ast.UnaryOp{
	bytecode.OpPLUS:  ast.Plus,
	bytecode.OpMINUS: ast.Minus,
	bytecode.OpINV:   ast.BitNot,
	bytecode.OpNOT:   ast.Not,
}

var binaryOps = map[bytecode.Opcode]ast.BinaryOp{
	bytecode.OpADD:    ast.Add,
	bytecode.OpSUB:    ast.Sub,
	bytecode.OpMUL:    ast.Mul,
	bytecode.OpDIV:    ast.Div,
	bytecode.OpSHL:    ast.Shl,
	bytecode.OpSHR:    ast.Shr,
	bytecode.OpAND:    ast.BitAnd,
	bytecode.OpOR:     ast.BitOr,
	bytecode.OpXOR:    ast.BitXor,
	bytecode.OpLAND:   ast.LogAnd,
	bytecode.OpLOR:    ast.LogOr,
	bytecode.OpEQ:     ast.Eq,
	bytecode.OpNE:     ast.Ne,
	bytecode.OpLT:     ast.Lt,
	bytecode.OpLE:     ast.Le,
	bytecode.OpGT:     ast.Gt,
	bytecode.OpGE:     ast.Ge,
	bytecode.OpASSIGN: ast.Assign,
}
