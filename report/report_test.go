package report

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/chazu/qvmtool/decompiler"
	"github.com/chazu/qvmtool/pkg/ast"
	"github.com/chazu/qvmtool/pkg/ast/hash"
	"github.com/chazu/qvmtool/pkg/bytecode"
)

func sampleTree() []ast.Node {
	return []ast.Node{
		&ast.WhileStmt{
			Cond: &ast.BinaryExpr{Op: ast.Gt, Left: &ast.Identifier{Name: "hp"}, Right: &ast.Number{Value: 0}},
			Body: []ast.Node{
				&ast.IfElseStmt{
					Cond: &ast.UnaryExpr{Op: ast.Not, Operand: &ast.Identifier{Name: "shield"}},
					Then: []ast.Node{
						&ast.BinaryExpr{
							Op:    ast.Assign,
							Left:  &ast.Identifier{Name: "hp"},
							Right: &ast.BinaryExpr{Op: ast.Sub, Left: &ast.Identifier{Name: "hp"}, Right: &ast.Number{Value: 1.5, Float: true}},
						},
					},
					Else: []ast.Node{&ast.Text{Value: "blocked"}},
				},
				&ast.CallExpr{Callee: &ast.Identifier{Name: "wait"}, Args: []ast.Expr{&ast.Number{Value: 30}}},
			},
		},
		&ast.IfStmt{Cond: &ast.Identifier{Name: "dead"}, Then: []ast.Node{&ast.CallExpr{Callee: &ast.Identifier{Name: "respawn"}}}},
	}
}

func sampleFunctions() []*decompiler.Function {
	brk := bytecode.Instruction{Address: 0x40, Size: 1, Opcode: bytecode.OpBRK}
	return []*decompiler.Function{
		{Symbol: bytecode.Symbol{Name: "main", Address: 0}, Exit: brk, Body: sampleTree()},
		{Symbol: bytecode.Symbol{Name: "broken", Address: 0x41}, Err: errors.New("broken: unhandled opcode at 0041 (NOP)")},
		{Symbol: bytecode.Symbol{Name: "copy", Address: 0x50}, Exit: brk, Body: sampleTree()},
		{Symbol: bytecode.Symbol{Name: "empty", Address: 0x90}, Exit: brk},
	}
}

func TestASTRoundTrip(t *testing.T) {
	tree := sampleTree()

	got, err := ToAST(FromAST(tree))
	if err != nil {
		t.Fatalf("ToAST: %v", err)
	}
	if diff := cmp.Diff(tree, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestReportRoundTrip(t *testing.T) {
	r := New("level1.qvm", sampleFunctions())

	data, err := Marshal(r)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(r, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("report mismatch (-want +got):\n%s", diff)
	}

	body, err := ToAST(got.Functions[0].Body)
	if err != nil {
		t.Fatalf("ToAST: %v", err)
	}
	if hash.Sum(body) != got.Functions[0].Fingerprint {
		t.Error("decoded body does not match its fingerprint")
	}
}

func TestMarshalDeterministic(t *testing.T) {
	a, err := Marshal(New("x", sampleFunctions()))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Marshal(New("x", sampleFunctions()))
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Error("encoding is not deterministic")
	}
}

func TestNew(t *testing.T) {
	r := New("level1.qvm", sampleFunctions())

	if r.HashVersion != hash.FormatVersion {
		t.Errorf("HashVersion = %d, want %d", r.HashVersion, hash.FormatVersion)
	}
	if len(r.Functions) != 4 {
		t.Fatalf("got %d functions, want 4", len(r.Functions))
	}
	main := r.Functions[0]
	if main.Exit != "BRK" || main.ExitAddress != 0x40 || main.Failed() {
		t.Errorf("main = %+v", main)
	}
	broken := r.Functions[1]
	if !broken.Failed() || broken.Body != nil || broken.Exit != "" {
		t.Errorf("broken = %+v", broken)
	}
	if r.Failures() != 1 {
		t.Errorf("Failures() = %d, want 1", r.Failures())
	}
}

func TestDuplicates(t *testing.T) {
	r := New("level1.qvm", sampleFunctions())

	dups := r.Duplicates()
	if len(dups) != 1 {
		t.Fatalf("got %d duplicate groups, want 1: %v", len(dups), dups)
	}
	want := []string{"copy", "main"}
	if diff := cmp.Diff(want, dups[hash.Sum(sampleTree())]); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}
}

func TestToASTErrors(t *testing.T) {
	tests := []struct {
		name string
		node Node
	}{
		{"unknown kind", Node{Kind: 99}},
		{"binary with one operand", Node{Kind: KindBinary, Op: 1, Args: []Node{{Kind: KindNumber}}}},
		{"call without callee", Node{Kind: KindCall}},
		{"statement as operand", Node{Kind: KindUnary, Op: 1, Args: []Node{{Kind: KindIf, Args: []Node{{Kind: KindNumber}}}}}},
		{"while without condition", Node{Kind: KindWhile}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ToAST([]Node{tt.node}); !errors.Is(err, ErrBadNode) {
				t.Errorf("error = %v, want %v", err, ErrBadNode)
			}
		})
	}
}

func TestUnmarshalGarbage(t *testing.T) {
	if _, err := Unmarshal([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error")
	}
}
