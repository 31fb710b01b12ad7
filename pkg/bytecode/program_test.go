package bytecode

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleProgram() *Program {
	p := NewProgram()
	p.AddFunction("main", p.CurrentOffset())
	p.EmitPushIdentifier("greeting")
	p.EmitPushString("hello")
	p.Emit(OpASSIGN)
	p.Emit(OpBRK)

	p.AddFunction("onUse", p.CurrentOffset())
	p.EmitPushIdentifier("count")
	p.EmitPushIdentifier("count")
	p.EmitPushFloat(0.5)
	p.Emit(OpADD)
	p.Emit(OpASSIGN)
	p.Emit(OpBRK)
	return p
}

func TestProgramRoundTrip(t *testing.T) {
	p := sampleProgram()

	data, err := p.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	got, err := Deserialize(data)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestProgramTablesDeduplicate(t *testing.T) {
	p := sampleProgram()

	if len(p.Identifiers) != 2 {
		t.Errorf("identifiers = %v, want [greeting count]", p.Identifiers)
	}
	if p.AddString("hello") != 0 || p.AddString("bye") != 1 {
		t.Errorf("strings = %v", p.Strings)
	}
	if p.AddIdentifier("count") != 1 {
		t.Errorf("identifier index for count changed")
	}
}

func TestDeserializeErrors(t *testing.T) {
	valid, err := sampleProgram().Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	badMagic := append([]byte(nil), valid...)
	copy(badMagic, "QVMX")

	badVersion := append([]byte(nil), valid...)
	badVersion[4] = 9

	zeroVersion := append([]byte(nil), valid...)
	zeroVersion[4] = 0

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrTruncated},
		{"header only", valid[:6], ErrTruncated},
		{"bad magic", badMagic, ErrInvalidMagic},
		{"future version", badVersion, ErrVersion},
		{"zero version", zeroVersion, ErrVersion},
		{"truncated code", valid[:14], ErrTruncated},
		{"truncated tables", valid[:len(valid)-3], ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSerializeRejectsBadFunction(t *testing.T) {
	p := NewProgram()
	p.Emit(OpBRK)
	p.AddFunction("neg", -1)

	if _, err := p.Serialize(); err == nil {
		t.Error("expected error for negative function address")
	}
}

func TestJumpPatching(t *testing.T) {
	p := NewProgram()
	p.EmitPushIdentifier("c")    // 0000
	bf := p.EmitJump(OpBF)       // 0005
	p.EmitPush(1)                // 000A
	p.EmitLoop(0)                // 000F
	p.PatchJump(bf)              // -> 0014
	p.Emit(OpBRK)                // 0014

	s, err := p.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	in, _ := s.At(5)
	if target, ok := in.Target(); !ok || target != 0x14 {
		t.Errorf("BF target = %04X, want 0014", target)
	}
	in, _ = s.At(0x0F)
	if off, _ := in.Offset(); off != -0x14 {
		t.Errorf("loop offset = %d, want %d", off, -0x14)
	}
	if target, _ := in.Target(); target != 0 {
		t.Errorf("loop target = %04X, want 0000", target)
	}
}

func TestCallPatching(t *testing.T) {
	p := NewProgram()
	p.EmitPushIdentifier("f")
	slots := p.EmitCall(2)
	p.Emit(OpBRK)
	first := p.CurrentOffset()
	p.PatchCallArg(slots, 0)
	p.EmitPush(1)
	p.Emit(OpBRK)
	second := p.CurrentOffset()
	p.PatchCallArg(slots, 1)
	p.EmitPush(2)
	p.Emit(OpBRK)

	s, err := p.Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	in, ok := s.At(5)
	if !ok || in.Opcode != OpCALL {
		t.Fatalf("no CALL at 0005")
	}
	if in.Size != 1+4+8 {
		t.Errorf("CALL size = %d, want 13", in.Size)
	}
	if diff := cmp.Diff(CallOperand{first, second}, in.Operand); diff != "" {
		t.Errorf("call operand mismatch (-want +got):\n%s", diff)
	}
}
