// Package ast defines the tree the decompiler reconstructs from QVM bytecode.
//
// The node set is closed: every node implements Node through an unexported
// marker method, so switches over Node in this module cover every case.
// A statement sequence is a []Node in which an Expr stands for an
// expression statement whose value is discarded.
package ast

import (
	"fmt"
	"strconv"
)

// ---------------------------------------------------------------------------
// Node interfaces
// ---------------------------------------------------------------------------

// Node is the interface implemented by all AST nodes.
type Node interface {
	node() // marker method
}

// Expr is the interface for expression nodes.
type Expr interface {
	Node
	expr() // marker method
}

// Stmt is the interface for control-flow statement nodes.
type Stmt interface {
	Node
	stmt() // marker method
}

// ---------------------------------------------------------------------------
// Operators
// ---------------------------------------------------------------------------

// UnaryOp is a prefix operator.
type UnaryOp uint8

const (
	Plus   UnaryOp = iota + 1 // +x
	Minus                     // -x
	BitNot                    // ~x
	Not                       // !x
)

var unaryNames = [...]string{Plus: "+", Minus: "-", BitNot: "~", Not: "!"}

func (op UnaryOp) String() string {
	if op > 0 && int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return fmt.Sprintf("UnaryOp(%d)", uint8(op))
}

// BinaryOp is an infix operator.
type BinaryOp uint8

const (
	Add BinaryOp = iota + 1
	Sub
	Mul
	Div
	Shl
	Shr
	BitAnd
	BitOr
	BitXor
	LogAnd
	LogOr
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Assign
)

var binaryNames = [...]string{
	Add: "+", Sub: "-", Mul: "*", Div: "/",
	Shl: "<<", Shr: ">>",
	BitAnd: "&", BitOr: "|", BitXor: "^",
	LogAnd: "&&", LogOr: "||",
	Eq: "==", Ne: "!=", Lt: "<", Le: "<=", Gt: ">", Ge: ">=",
	Assign: "=",
}

func (op BinaryOp) String() string {
	if op > 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return fmt.Sprintf("BinaryOp(%d)", uint8(op))
}

// ---------------------------------------------------------------------------
// Literals
// ---------------------------------------------------------------------------

// Number is a numeric literal. Float reports whether the bytecode pushed
// it as a float immediate.
type Number struct {
	Value float64
	Float bool
}

func (n *Number) node() {}
func (n *Number) expr() {}

func (n *Number) String() string {
	if n.Float {
		return strconv.FormatFloat(n.Value, 'g', -1, 32)
	}
	return strconv.FormatInt(int64(n.Value), 10)
}

// Text is a string literal.
type Text struct {
	Value string
}

func (n *Text) node() {}
func (n *Text) expr() {}

// Identifier is a name reference.
type Identifier struct {
	Name string
}

func (n *Identifier) node() {}
func (n *Identifier) expr() {}

// ---------------------------------------------------------------------------
// Expressions
// ---------------------------------------------------------------------------

// UnaryExpr applies a prefix operator to one operand.
type UnaryExpr struct {
	Op      UnaryOp
	Operand Expr
}

func (n *UnaryExpr) node() {}
func (n *UnaryExpr) expr() {}

// BinaryExpr applies an infix operator to two operands.
type BinaryExpr struct {
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) node() {}
func (n *BinaryExpr) expr() {}

// CallExpr calls Callee with positional arguments.
type CallExpr struct {
	Callee Expr
	Args   []Expr
}

func (n *CallExpr) node() {}
func (n *CallExpr) expr() {}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// WhileStmt repeats Body while Cond holds.
type WhileStmt struct {
	Cond Expr
	Body []Node
}

func (n *WhileStmt) node() {}
func (n *WhileStmt) stmt() {}

// IfStmt runs Then when Cond holds.
type IfStmt struct {
	Cond Expr
	Then []Node
}

func (n *IfStmt) node() {}
func (n *IfStmt) stmt() {}

// IfElseStmt runs Then when Cond holds and Else otherwise.
type IfElseStmt struct {
	Cond Expr
	Then []Node
	Else []Node
}

func (n *IfElseStmt) node() {}
func (n *IfElseStmt) stmt() {}
