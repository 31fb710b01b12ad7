package report

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/qvmtool/pkg/ast"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("report: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ErrBadNode is returned when a wire node cannot be turned back into an AST node.
var ErrBadNode = errors.New("report: malformed wire node")

// NodeKind identifies the AST node a wire Node stands for.
type NodeKind uint8

const (
	KindNumber     NodeKind = 1
	KindFloat      NodeKind = 2
	KindText       NodeKind = 3
	KindIdentifier NodeKind = 4
	KindUnary      NodeKind = 5
	KindBinary     NodeKind = 6
	KindCall       NodeKind = 7
	KindWhile      NodeKind = 8
	KindIf         NodeKind = 9
	KindIfElse     NodeKind = 10
)

// Node is the flat wire form of an AST node.
//
//	Number/Float:  Value
//	Text:          Text
//	Identifier:    Text (the name)
//	Unary:         Op, Args = [operand]
//	Binary:        Op, Args = [left, right]
//	Call:          Args = [callee, arg...]
//	While/If:      Args = [cond], Then = body
//	IfElse:        Args = [cond], Then, Else
type Node struct {
	Kind  NodeKind `cbor:"1,keyasint"`
	Op    uint8    `cbor:"2,keyasint,omitempty"`
	Value float64  `cbor:"3,keyasint,omitempty"`
	Text  string   `cbor:"4,keyasint,omitempty"`
	Args  []Node   `cbor:"5,keyasint,omitempty"`
	Then  []Node   `cbor:"6,keyasint,omitempty"`
	Else  []Node   `cbor:"7,keyasint,omitempty"`
}

// Marshal serializes a Report to CBOR bytes.
func Marshal(r *Report) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// Unmarshal deserializes a Report from CBOR bytes.
func Unmarshal(data []byte) (*Report, error) {
	var r Report
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("report: unmarshal: %w", err)
	}
	return &r, nil
}

// FromAST converts a statement sequence to wire nodes.
func FromAST(nodes []ast.Node) []Node {
	if len(nodes) == 0 {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = fromNode(n)
	}
	return out
}

func fromExprs(exprs ...ast.Expr) []Node {
	out := make([]Node, len(exprs))
	for i, e := range exprs {
		out[i] = fromNode(e)
	}
	return out
}

func fromNode(n ast.Node) Node {
	switch n := n.(type) {
	case *ast.Number:
		if n.Float {
			return Node{Kind: KindFloat, Value: n.Value}
		}
		return Node{Kind: KindNumber, Value: n.Value}
	case *ast.Text:
		return Node{Kind: KindText, Text: n.Value}
	case *ast.Identifier:
		return Node{Kind: KindIdentifier, Text: n.Name}
	case *ast.UnaryExpr:
		return Node{Kind: KindUnary, Op: uint8(n.Op), Args: fromExprs(n.Operand)}
	case *ast.BinaryExpr:
		return Node{Kind: KindBinary, Op: uint8(n.Op), Args: fromExprs(n.Left, n.Right)}
	case *ast.CallExpr:
		return Node{Kind: KindCall, Args: fromExprs(append([]ast.Expr{n.Callee}, n.Args...)...)}
	case *ast.WhileStmt:
		return Node{Kind: KindWhile, Args: fromExprs(n.Cond), Then: FromAST(n.Body)}
	case *ast.IfStmt:
		return Node{Kind: KindIf, Args: fromExprs(n.Cond), Then: FromAST(n.Then)}
	case *ast.IfElseStmt:
		return Node{Kind: KindIfElse, Args: fromExprs(n.Cond), Then: FromAST(n.Then), Else: FromAST(n.Else)}
	default:
		panic(fmt.Sprintf("report: unexpected node type %T", n))
	}
}

// ToAST rebuilds a statement sequence from wire nodes.
func ToAST(nodes []Node) ([]ast.Node, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	out := make([]ast.Node, len(nodes))
	for i := range nodes {
		n, err := toNode(&nodes[i])
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

func toExprs(nodes []Node, want int) ([]ast.Expr, error) {
	if want >= 0 && len(nodes) != want {
		return nil, fmt.Errorf("%w: %d operands, want %d", ErrBadNode, len(nodes), want)
	}
	out := make([]ast.Expr, len(nodes))
	for i := range nodes {
		n, err := toNode(&nodes[i])
		if err != nil {
			return nil, err
		}
		e, ok := n.(ast.Expr)
		if !ok {
			return nil, fmt.Errorf("%w: %T used as an expression", ErrBadNode, n)
		}
		out[i] = e
	}
	return out, nil
}

func toNode(n *Node) (ast.Node, error) {
	switch n.Kind {
	case KindNumber:
		return &ast.Number{Value: n.Value}, nil
	case KindFloat:
		return &ast.Number{Value: n.Value, Float: true}, nil
	case KindText:
		return &ast.Text{Value: n.Text}, nil
	case KindIdentifier:
		return &ast.Identifier{Name: n.Text}, nil
	case KindUnary:
		args, err := toExprs(n.Args, 1)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{Op: ast.UnaryOp(n.Op), Operand: args[0]}, nil
	case KindBinary:
		args, err := toExprs(n.Args, 2)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpr{Op: ast.BinaryOp(n.Op), Left: args[0], Right: args[1]}, nil
	case KindCall:
		if len(n.Args) == 0 {
			return nil, fmt.Errorf("%w: call without callee", ErrBadNode)
		}
		args, err := toExprs(n.Args, -1)
		if err != nil {
			return nil, err
		}
		return &ast.CallExpr{Callee: args[0], Args: args[1:]}, nil
	case KindWhile, KindIf, KindIfElse:
		cond, err := toExprs(n.Args, 1)
		if err != nil {
			return nil, err
		}
		then, err := ToAST(n.Then)
		if err != nil {
			return nil, err
		}
		switch n.Kind {
		case KindWhile:
			return &ast.WhileStmt{Cond: cond[0], Body: then}, nil
		case KindIf:
			return &ast.IfStmt{Cond: cond[0], Then: then}, nil
		}
		els, err := ToAST(n.Else)
		if err != nil {
			return nil, err
		}
		return &ast.IfElseStmt{Cond: cond[0], Then: then, Else: els}, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %d", ErrBadNode, n.Kind)
	}
}
