package ast

// Inspect traverses a node in depth-first order, calling f for each node.
// If f returns false, the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Number, *Text, *Identifier:
	case *UnaryExpr:
		Inspect(n.Operand, f)
	case *BinaryExpr:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *CallExpr:
		Inspect(n.Callee, f)
		for _, arg := range n.Args {
			Inspect(arg, f)
		}
	case *WhileStmt:
		Inspect(n.Cond, f)
		InspectAll(n.Body, f)
	case *IfStmt:
		Inspect(n.Cond, f)
		InspectAll(n.Then, f)
	case *IfElseStmt:
		Inspect(n.Cond, f)
		InspectAll(n.Then, f)
		InspectAll(n.Else, f)
	}
}

// InspectAll calls Inspect on each node of a statement sequence.
func InspectAll(nodes []Node, f func(Node) bool) {
	for _, n := range nodes {
		Inspect(n, f)
	}
}

// Count returns the number of nodes in a statement sequence, including
// nested ones.
func Count(nodes []Node) int {
	count := 0
	InspectAll(nodes, func(Node) bool {
		count++
		return true
	})
	return count
}
