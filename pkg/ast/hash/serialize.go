package hash

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chazu/qvmtool/pkg/ast"
)

// ---------------------------------------------------------------------------
// Deterministic binary serialization of a decompiled statement sequence.
//
// Encoding conventions:
//   - First byte: FormatVersion
//   - Integers: big-endian fixed-width (uint8 operator codes, uint32 counts)
//   - Numbers: IEEE 754 big-endian 8B
//   - Strings: uint32 big-endian length + bytes
//   - Child nodes: serialized inline (flat)
// ---------------------------------------------------------------------------

// Serialize produces a deterministic byte serialization of a statement
// sequence. The returned bytes are suitable for hashing with SHA-256.
func Serialize(nodes []ast.Node) []byte {
	s := &serializer{buf: make([]byte, 0, 256)}
	s.writeByte(FormatVersion)
	s.serializeBlock(nodes)
	return s.buf
}

type serializer struct {
	buf []byte
}

func (s *serializer) writeByte(b byte) {
	s.buf = append(s.buf, b)
}

func (s *serializer) writeUint32(v uint32) {
	s.buf = binary.BigEndian.AppendUint32(s.buf, v)
}

func (s *serializer) writeFloat64(v float64) {
	s.buf = binary.BigEndian.AppendUint64(s.buf, math.Float64bits(v))
}

func (s *serializer) writeString(v string) {
	s.writeUint32(uint32(len(v)))
	s.buf = append(s.buf, v...)
}

func (s *serializer) serializeBlock(nodes []ast.Node) {
	s.writeByte(TagBlock)
	s.writeUint32(uint32(len(nodes)))
	for _, n := range nodes {
		s.serializeNode(n)
	}
}

func (s *serializer) serializeNode(node ast.Node) {
	switch n := node.(type) {
	case *ast.Number:
		if n.Float {
			s.writeByte(TagFloat)
		} else {
			s.writeByte(TagNumber)
		}
		s.writeFloat64(n.Value)

	case *ast.Text:
		s.writeByte(TagText)
		s.writeString(n.Value)

	case *ast.Identifier:
		s.writeByte(TagIdentifier)
		s.writeString(n.Name)

	case *ast.UnaryExpr:
		s.writeByte(TagUnary)
		s.writeByte(byte(n.Op))
		s.serializeNode(n.Operand)

	case *ast.BinaryExpr:
		s.writeByte(TagBinary)
		s.writeByte(byte(n.Op))
		s.serializeNode(n.Left)
		s.serializeNode(n.Right)

	case *ast.CallExpr:
		s.writeByte(TagCall)
		s.serializeNode(n.Callee)
		s.writeUint32(uint32(len(n.Args)))
		for _, arg := range n.Args {
			s.serializeNode(arg)
		}

	case *ast.WhileStmt:
		s.writeByte(TagWhile)
		s.serializeNode(n.Cond)
		s.serializeBlock(n.Body)

	case *ast.IfStmt:
		s.writeByte(TagIf)
		s.serializeNode(n.Cond)
		s.serializeBlock(n.Then)

	case *ast.IfElseStmt:
		s.writeByte(TagIfElse)
		s.serializeNode(n.Cond)
		s.serializeBlock(n.Then)
		s.serializeBlock(n.Else)

	default:
		panic(fmt.Sprintf("hash: unexpected node type %T", node))
	}
}
