package main

import "testing"

// Raw words below are hand-verified against the canonical RV64I encodings
// (as any RISC-V assembler would emit them), not re-derived from the
// decoder's own field-layout code, so they catch a field-shift transcription
// bug rather than merely confirm self-consistency.

func TestDecodeAddi(t *testing.T) {
	in, size, err := Decode(0x00500093) // addi x1, x0, 5
	if err != nil {
		t.Fatal(err)
	}
	if size != 4 {
		t.Fatalf("size = %d, want 4", size)
	}
	if in.Kind != KindALUImm || in.ALUOp != ALUAdd || in.Rd != 1 || in.Rs1 != 0 || in.Imm != 5 {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeAddiNegativeImmediate(t *testing.T) {
	in, _, err := Decode(0xFFF08093) // addi x1, x1, -1
	if err != nil {
		t.Fatal(err)
	}
	if in.Imm != -1 {
		t.Fatalf("Imm = %d, want -1", in.Imm)
	}
}

func TestDecodeLUI(t *testing.T) {
	in, _, err := Decode(0x123450B7) // lui x1, 0x12345
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindLUI || in.Rd != 1 || in.Imm != 0x12345000 {
		t.Fatalf("got %+v", in)
	}
}

func TestDecodeJALR_Ret(t *testing.T) {
	in, _, err := Decode(0x00008067) // jalr x0, 0(x1) == ret
	if err != nil {
		t.Fatal(err)
	}
	if !in.IsRet() {
		t.Fatalf("expected IsRet() true, got %+v", in)
	}
	if !in.IsTerminator() {
		t.Fatal("jalr must be a terminator")
	}
}

func TestDecodeECallEBreak(t *testing.T) {
	in, _, err := Decode(0x00000073)
	if err != nil || in.Kind != KindECall {
		t.Fatalf("ecall: got %+v, %v", in, err)
	}
	in, _, err = Decode(0x00100073)
	if err != nil || in.Kind != KindEBreak {
		t.Fatalf("ebreak: got %+v, %v", in, err)
	}
	if !in.IsTerminator() {
		t.Fatal("ebreak must be a terminator")
	}
}

func TestDecodeALURegAddSubMul(t *testing.T) {
	cases := []struct {
		raw  uint32
		want ALUOp
	}{
		{0x003100B3, ALUAdd}, // add x1, x2, x3
		{0x403100B3, ALUSub}, // sub x1, x2, x3
		{0x023100B3, ALUMul}, // mul x1, x2, x3
	}
	for _, c := range cases {
		in, _, err := Decode(c.raw)
		if err != nil {
			t.Fatalf("raw=%#x: %v", c.raw, err)
		}
		if in.Kind != KindALUReg || in.ALUOp != c.want || in.Rd != 1 || in.Rs1 != 2 || in.Rs2 != 3 {
			t.Fatalf("raw=%#x: got %+v, want op=%v", c.raw, in, c.want)
		}
	}
}

func TestDecodeBranchBEQ(t *testing.T) {
	in, _, err := Decode(0x00208463) // beq x1, x2, 8
	if err != nil {
		t.Fatal(err)
	}
	if in.Kind != KindBranch || in.Pred != PredEQ || in.Rs1 != 1 || in.Rs2 != 2 || in.Imm != 8 {
		t.Fatalf("got %+v", in)
	}
	if !in.IsTerminator() {
		t.Fatal("branch must be a terminator")
	}
}

func TestDecodeLoadStoreWord(t *testing.T) {
	ld, _, err := Decode(0x00412083) // lw x1, 4(x2)
	if err != nil {
		t.Fatal(err)
	}
	if ld.Kind != KindLoad || ld.Rd != 1 || ld.Rs1 != 2 || ld.Imm != 4 || ld.Width != 4 || !ld.SignExt {
		t.Fatalf("got %+v", ld)
	}

	st, _, err := Decode(0x00112223) // sw x1, 4(x2)
	if err != nil {
		t.Fatal(err)
	}
	if st.Kind != KindStore || st.Rs1 != 2 || st.Rs2 != 1 || st.Imm != 4 || st.Width != 4 {
		t.Fatalf("got %+v", st)
	}
}

func TestDecodeUnknownOpcodeIsError(t *testing.T) {
	// opcode bits 1111111 is not allocated in the base ISA.
	_, _, err := Decode(0x0000007F)
	if err == nil {
		t.Fatal("expected a decode error for an unallocated opcode")
	}
	if _, ok := err.(InvalidEncoding); !ok {
		t.Fatalf("expected InvalidEncoding, got %T", err)
	}
}

func TestDecodeMulhVariantsAreUnimplemented(t *testing.T) {
	// mulh x1, x2, x3: f3=001, f7=0000001 - deliberately out of scope.
	raw := uint32(0x02311033) | (1 << 7)
	_, _, err := Decode(raw)
	if err == nil {
		t.Fatal("expected mulh to be rejected as unimplemented")
	}
	if _, ok := err.(Unimplemented); !ok {
		t.Fatalf("expected Unimplemented, got %T (%v)", err, err)
	}
}

func TestDecodeSelectsCompressedFormOn16BitWord(t *testing.T) {
	// c.addi4spn or similar: any word whose low two bits != 11 must take
	// the 2-byte compressed path regardless of what the upper 16 bits hold.
	_, size, _ := Decode(0x00000001) // quadrant 0b01, low bits 01 != 11
	if size != 2 {
		t.Fatalf("size = %d, want 2 for a compressed-form word", size)
	}
}

func TestSignExtend(t *testing.T) {
	if got := signExtend(0xFFF, 12); got != -1 {
		t.Fatalf("signExtend(0xfff, 12) = %d, want -1", got)
	}
	if got := signExtend(0x7FF, 12); got != 0x7FF {
		t.Fatalf("signExtend(0x7ff, 12) = %d, want 2047", got)
	}
	if got := signExtend(0x800, 12); got != -2048 {
		t.Fatalf("signExtend(0x800, 12) = %d, want -2048", got)
	}
}
