package main

import "testing"

// Raw halfwords below match the canonical RVC encodings any RISC-V
// assembler emits for these mnemonics.

func TestDecodeCompressedLI(t *testing.T) {
	in, size, err := Decode(0x4515) // c.li a0, 5
	if err != nil {
		t.Fatal(err)
	}
	if size != 2 {
		t.Fatalf("size = %d, want 2", size)
	}
	if in.Kind != KindALUImm || in.ALUOp != ALUAdd || in.Rd != 10 || in.Rs1 != RegZero || in.Imm != 5 {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeCompressedADDI(t *testing.T) {
	in, _, err := Decode(0x0095) // c.addi ra, 5
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindALUImm || in.ALUOp != ALUAdd || in.Rd != 1 || in.Rs1 != 1 || in.Imm != 5 {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeCompressedEBreak(t *testing.T) {
	in, _, err := Decode(0x9002)
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindEBreak {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeCompressedJR(t *testing.T) {
	in, _, err := Decode(0x8082) // c.jr ra
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindJumpAndLinkReg || in.Rd != RegZero || in.Rs1 != 1 || in.Imm != 0 {
		t.Fatalf("got %+v", in)
	}
	if !in.IsTerminator() {
		t.Fatal("c.jr must be a terminator")
	}
}

func TestDecodeCompressedMV(t *testing.T) {
	in, _, err := Decode(0x852E) // c.mv a0, a1
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindALUReg || in.ALUOp != ALUAdd || in.Rd != 10 || in.Rs1 != RegZero || in.Rs2 != 11 {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeCompressedADD(t *testing.T) {
	in, _, err := Decode(0x952E) // c.add a0, a1
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindALUReg || in.ALUOp != ALUAdd || in.Rd != 10 || in.Rs1 != 10 || in.Rs2 != 11 {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeCompressedLW(t *testing.T) {
	in, _, err := Decode(0x4000) // c.lw s0, 0(s0)
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindLoad || in.Rd != 8 || in.Rs1 != 8 || in.Imm != 0 || in.Width != 4 || !in.SignExt {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeCompressedAllZeroIsIllegal(t *testing.T) {
	_, _, err := Decode(0x0000)
	if _, ok := err.(Illegal); !ok {
		t.Fatalf("expected Illegal for the all-zero word, got %T (%v)", err, err)
	}
}

func TestDecodeCompressedFloatFormsUnimplemented(t *testing.T) {
	// c.fld/c.fsd/c.fldsp/c.fsdsp are recognised but never executable - the
	// base decoder has no F/D opcode cases either, matching the original.
	for _, raw := range []uint16{0x2000 /* c.fld */, 0xA000 /* c.fsd */} {
		_, _, err := Decode(raw)
		if _, ok := err.(Unimplemented); !ok {
			t.Fatalf("raw=%#x: expected Unimplemented, got %T (%v)", raw, err, err)
		}
	}
}
