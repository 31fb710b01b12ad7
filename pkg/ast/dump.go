package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Dump renders a statement sequence as an indented S-expression listing.
// It is a debugging view of the tree shape, one statement per line.
func Dump(nodes []Node) string {
	var sb strings.Builder
	dumpBlock(&sb, nodes, 0)
	return sb.String()
}

// DumpNode renders a single node on one line.
func DumpNode(n Node) string {
	var sb strings.Builder
	dumpNode(&sb, n, 0)
	return sb.String()
}

func dumpBlock(sb *strings.Builder, nodes []Node, depth int) {
	for _, n := range nodes {
		sb.WriteString(strings.Repeat("  ", depth))
		dumpNode(sb, n, depth)
		sb.WriteString("\n")
	}
}

func dumpNode(sb *strings.Builder, n Node, depth int) {
	switch n := n.(type) {
	case *Number:
		sb.WriteString(n.String())
	case *Text:
		sb.WriteString(strconv.Quote(n.Value))
	case *Identifier:
		sb.WriteString(n.Name)
	case *UnaryExpr:
		fmt.Fprintf(sb, "(%s ", n.Op)
		dumpNode(sb, n.Operand, depth)
		sb.WriteString(")")
	case *BinaryExpr:
		fmt.Fprintf(sb, "(%s ", n.Op)
		dumpNode(sb, n.Left, depth)
		sb.WriteString(" ")
		dumpNode(sb, n.Right, depth)
		sb.WriteString(")")
	case *CallExpr:
		sb.WriteString("(call ")
		dumpNode(sb, n.Callee, depth)
		for _, arg := range n.Args {
			sb.WriteString(" ")
			dumpNode(sb, arg, depth)
		}
		sb.WriteString(")")
	case *WhileStmt:
		sb.WriteString("(while ")
		dumpNode(sb, n.Cond, depth)
		dumpBody(sb, "do", n.Body, depth)
		sb.WriteString(")")
	case *IfStmt:
		sb.WriteString("(if ")
		dumpNode(sb, n.Cond, depth)
		dumpBody(sb, "then", n.Then, depth)
		sb.WriteString(")")
	case *IfElseStmt:
		sb.WriteString("(if ")
		dumpNode(sb, n.Cond, depth)
		dumpBody(sb, "then", n.Then, depth)
		dumpBody(sb, "else", n.Else, depth)
		sb.WriteString(")")
	case nil:
		sb.WriteString("<nil>")
	default:
		fmt.Fprintf(sb, "<%T>", n)
	}
}

func dumpBody(sb *strings.Builder, label string, body []Node, depth int) {
	indent := strings.Repeat("  ", depth+1)
	sb.WriteString("\n" + indent + "(" + label)
	for _, n := range body {
		sb.WriteString("\n" + indent + "  ")
		dumpNode(sb, n, depth+2)
	}
	sb.WriteString(")")
}
