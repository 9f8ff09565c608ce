// decode.go - pure decode of a 32-bit or 16-bit RV64IMC code word

package main

// Kind discriminates the variant carried by Inst. Rather than model the
// decoded instruction as an interface with one concrete type per variant,
// Inst is a single flat struct reused across every Kind - the same shape
// the reference engine's decoder uses for its own CPU cores (one decoded
// struct, a switch on an opcode field).
type Kind uint8

const (
	KindUnknown Kind = iota
	KindLoad
	KindStore
	KindJumpAndLink
	KindJumpAndLinkReg
	KindBranch
	KindCSR
	KindECall
	KindEBreak
	KindALUImm
	KindALUReg
	KindLUI
	KindAUIPC
	KindLoadFP
	KindStoreFP
	KindFComp
)

// Predicate is the branch comparison applied to the two source registers.
type Predicate uint8

const (
	PredEQ Predicate = iota
	PredNE
	PredLT
	PredLTU
	PredGE
	PredGEU
)

// ALUOp is the shared operation set for ALUImm and ALUReg. Multiply/divide
// members have no immediate encoding - decoding one into ALUImm is a decoder
// bug, never a reachable state.
type ALUOp uint8

const (
	ALUAdd ALUOp = iota
	ALUAddW
	ALUSub
	ALUSubW
	ALUAnd
	ALUOr
	ALUXOr
	ALUSLT
	ALUSLTU
	ALUSLL
	ALUSLLW
	ALUSRL
	ALUSRLW
	ALUSRA
	ALUSRAW
	ALUMul
	ALUMulW
	ALUDiv
	ALUDivW
	ALUDivU
	ALUDivUW
	ALURem
	ALURemW
	ALURemU
	ALURemUW
)

var aluOpNames = map[ALUOp]string{
	ALUAdd: "add", ALUAddW: "addw", ALUSub: "sub", ALUSubW: "subw",
	ALUAnd: "and", ALUOr: "or", ALUXOr: "xor",
	ALUSLT: "slt", ALUSLTU: "sltu",
	ALUSLL: "sll", ALUSLLW: "sllw", ALUSRL: "srl", ALUSRLW: "srlw",
	ALUSRA: "sra", ALUSRAW: "sraw",
	ALUMul: "mul", ALUMulW: "mulw",
	ALUDiv: "div", ALUDivW: "divw", ALUDivU: "divu", ALUDivUW: "divuw",
	ALURem: "rem", ALURemW: "remw", ALURemU: "remu", ALURemUW: "remuw",
}

var aluImmOpNames = map[ALUOp]string{
	ALUAdd: "addi", ALUAddW: "addiw", ALUAnd: "andi", ALUOr: "ori", ALUXOr: "xori",
	ALUSLT: "slti", ALUSLTU: "sltiu",
	ALUSLL: "slli", ALUSLLW: "slliw", ALUSRL: "srli", ALUSRLW: "srliw",
	ALUSRA: "srai", ALUSRAW: "sraiw",
}

// CSROp names the six CSR access forms; the decoder recognises them but the
// interpreter never executes a CSR side effect (Non-goal: CSRs beyond stubs).
type CSROp uint8

const (
	CSRRW CSROp = iota
	CSRRS
	CSRRC
	CSRRWI
	CSRRSI
	CSRRCI
)

// Inst is the decoded form of one instruction. Only the fields relevant to
// Kind are meaningful; the rest are zero.
type Inst struct {
	Kind Kind

	Rd, Rs1, Rs2 uint8
	Imm          int32 // sign-extended where the format calls for it
	ALUOp        ALUOp
	Pred         Predicate
	CSROp        CSROp
	CSR          uint16
	Width        uint8 // 1, 2, 4 or 8
	SignExt      bool
}

// IsTerminator reports whether executing this instruction can redirect PC by
// something other than +size - the condition the TB-cache miss path uses to
// decide where a translation block ends.
func (in Inst) IsTerminator() bool {
	switch in.Kind {
	case KindJumpAndLink, KindJumpAndLinkReg, KindBranch, KindECall, KindEBreak:
		return true
	default:
		return false
	}
}

// IsCall reports a direct or indirect call (link register ra). Nothing in
// the emulator calls it.
func (in Inst) IsCall() bool {
	return (in.Kind == KindJumpAndLink || in.Kind == KindJumpAndLinkReg) && in.Rd == RegRA
}

// IsRet recognises the canonical `jalr x0, ra, 0` return sequence.
func (in Inst) IsRet() bool {
	return in.Kind == KindJumpAndLinkReg && in.Rd == RegZero && in.Rs1 == RegRA && in.Imm == 0
}

// signExtend reinterprets the low nbits of x as a signed field and sign
// extends it back out to the full 32 bits, using the identity
// (x XOR msb) - msb rather than a shift pair, matching the port target.
func signExtend(x uint32, nbits uint) int32 {
	msb := uint32(1) << (nbits - 1)
	mask := (msb << 1) - 1
	x &= mask
	return int32((x ^ msb) - msb)
}

func getRd(raw uint32) uint8     { return uint8((raw >> 7) & 0x1f) }
func getRs1(raw uint32) uint8    { return uint8((raw >> 15) & 0x1f) }
func getRs2(raw uint32) uint8    { return uint8((raw >> 20) & 0x1f) }
func getFunct3(raw uint32) uint8 { return uint8((raw >> 12) & 0x7) }
func getFunct7(raw uint32) uint8 { return uint8((raw >> 25) & 0x7f) }

// Decode is the pure decoder entry point: inspects the low two bits of the
// next code word to choose between the 16-bit compressed form and the full
// 32-bit base form. It never consults CPU state.
func Decode(word32 uint32) (Inst, int, error) {
	if word32&0b11 != 0b11 {
		in, err := decodeCompressed(uint16(word32))
		return in, 2, err
	}
	in, err := decodeBase(word32)
	return in, 4, err
}

func decodeBase(raw uint32) (Inst, error) {
	switch raw & 0x7f {
	case 0b0110111: // LUI
		return Inst{Kind: KindLUI, Rd: getRd(raw), Imm: int32(raw & 0xfffff000)}, nil

	case 0b0010111: // AUIPC
		return Inst{Kind: KindAUIPC, Rd: getRd(raw), Imm: int32(raw & 0xfffff000)}, nil

	case 0b1101111: // JAL
		off := signExtend(
			((raw&0x80000000)>>(31-20))|
				((raw&0x7fe00000)>>(21-1))|
				((raw&0x00100000)>>(20-11))|
				((raw&0x000ff000)>>(12-12)), 21)
		return Inst{Kind: KindJumpAndLink, Rd: getRd(raw), Imm: off}, nil

	case 0b1100111: // JALR
		if getFunct3(raw) != 0 {
			return Inst{}, InvalidEncoding{"jalr funct3"}
		}
		off := signExtend((raw&0xfff00000)>>20, 12)
		return Inst{Kind: KindJumpAndLinkReg, Rd: getRd(raw), Rs1: getRs1(raw), Imm: off}, nil

	case 0b1100011: // branches
		var pred Predicate
		switch getFunct3(raw) {
		case 0b000:
			pred = PredEQ
		case 0b001:
			pred = PredNE
		case 0b100:
			pred = PredLT
		case 0b101:
			pred = PredGE
		case 0b110:
			pred = PredLTU
		case 0b111:
			pred = PredGEU
		default:
			return Inst{}, InvalidEncoding{"unknown predicate for branch"}
		}
		off := signExtend(
			((raw&0x80000000)>>(31-12))|
				((raw&0x7e000000)>>(25-5))|
				((raw&0x00000f00)>>(8-1))|
				((raw&0x00000080)<<(11-7)), 13)
		return Inst{Kind: KindBranch, Pred: pred, Rs1: getRs1(raw), Rs2: getRs2(raw), Imm: off}, nil

	case 0b0000011: // loads
		var width uint8
		var signext bool
		switch getFunct3(raw) {
		case 0b000:
			width, signext = 1, true
		case 0b001:
			width, signext = 2, true
		case 0b010:
			width, signext = 4, true
		case 0b011:
			width, signext = 8, true
		case 0b100:
			width, signext = 1, false
		case 0b101:
			width, signext = 2, false
		case 0b110:
			width, signext = 4, false
		default:
			return Inst{}, InvalidEncoding{"invalid load width/sign extension"}
		}
		off := signExtend((raw&0xfff00000)>>20, 12)
		return Inst{Kind: KindLoad, Rd: getRd(raw), Rs1: getRs1(raw), Imm: off, Width: width, SignExt: signext}, nil

	case 0b0100011: // stores
		var width uint8
		switch getFunct3(raw) {
		case 0b000:
			width = 1
		case 0b001:
			width = 2
		case 0b010:
			width = 4
		case 0b011:
			width = 8
		default:
			return Inst{}, InvalidEncoding{"invalid store length"}
		}
		off := signExtend(
			((raw&0xfe000000)>>(25-5))|
				((raw&0x00000f80)>>(7-0)), 12)
		return Inst{Kind: KindStore, Rs2: getRs2(raw), Rs1: getRs1(raw), Imm: off, Width: width}, nil

	case 0b0010011: // ALU-immediate
		rd, rs1 := getRd(raw), getRs1(raw)
		imm12 := signExtend((raw&0xfff00000)>>20, 12)
		funct7 := getFunct7(raw) &^ 1
		switch getFunct3(raw) {
		case 0b000:
			return Inst{Kind: KindALUImm, ALUOp: ALUAdd, Rd: rd, Rs1: rs1, Imm: imm12}, nil
		case 0b010:
			return Inst{Kind: KindALUImm, ALUOp: ALUSLT, Rd: rd, Rs1: rs1, Imm: imm12}, nil
		case 0b011:
			return Inst{Kind: KindALUImm, ALUOp: ALUSLTU, Rd: rd, Rs1: rs1, Imm: imm12}, nil
		case 0b100:
			return Inst{Kind: KindALUImm, ALUOp: ALUXOr, Rd: rd, Rs1: rs1, Imm: imm12}, nil
		case 0b110:
			return Inst{Kind: KindALUImm, ALUOp: ALUOr, Rd: rd, Rs1: rs1, Imm: imm12}, nil
		case 0b111:
			return Inst{Kind: KindALUImm, ALUOp: ALUAnd, Rd: rd, Rs1: rs1, Imm: imm12}, nil
		case 0b001:
			if funct7 == 0b0000000 {
				return Inst{Kind: KindALUImm, ALUOp: ALUSLL, Rd: rd, Rs1: rs1, Imm: int32((raw >> 20) & 0x3f)}, nil
			}
		case 0b101:
			switch funct7 {
			case 0b0000000:
				return Inst{Kind: KindALUImm, ALUOp: ALUSRL, Rd: rd, Rs1: rs1, Imm: int32((raw >> 20) & 0x3f)}, nil
			case 0b0100000:
				return Inst{Kind: KindALUImm, ALUOp: ALUSRA, Rd: rd, Rs1: rs1, Imm: int32((raw >> 20) & 0x3f)}, nil
			}
		}
		return Inst{}, Unimplemented{"ALU instruction extensions"}

	case 0b0110011: // ALU-register, including M-extension
		rd, rs1, rs2 := getRd(raw), getRs1(raw), getRs2(raw)
		f3, f7 := getFunct3(raw), getFunct7(raw)
		op, ok := aluRegOp(f3, f7)
		if !ok {
			return Inst{}, Unimplemented{"ALU instruction extensions"}
		}
		return Inst{Kind: KindALUReg, ALUOp: op, Rd: rd, Rs1: rs1, Rs2: rs2}, nil

	case 0b1110011: // SYSTEM: ECALL/EBREAK/CSR
		dst, src := getRd(raw), getRs1(raw)
		csr := uint16((raw & 0xfff00000) >> 20)
		switch getFunct3(raw) {
		case 0b000:
			if dst == 0 && src == 0 && csr == 0 {
				return Inst{Kind: KindECall}, nil
			}
			if dst == 0 && src == 0 && csr == 1 {
				return Inst{Kind: KindEBreak}, nil
			}
			return Inst{}, InvalidEncoding{"system instruction"}
		case 0b001:
			return Inst{Kind: KindCSR, CSROp: CSRRW, Rd: dst, Rs1: src, CSR: csr}, nil
		case 0b010:
			return Inst{Kind: KindCSR, CSROp: CSRRS, Rd: dst, Rs1: src, CSR: csr}, nil
		case 0b011:
			return Inst{Kind: KindCSR, CSROp: CSRRC, Rd: dst, Rs1: src, CSR: csr}, nil
		case 0b101:
			return Inst{Kind: KindCSR, CSROp: CSRRWI, Rd: dst, Rs1: src, CSR: csr}, nil
		case 0b110:
			return Inst{Kind: KindCSR, CSROp: CSRRSI, Rd: dst, Rs1: src, CSR: csr}, nil
		case 0b111:
			return Inst{Kind: KindCSR, CSROp: CSRRCI, Rd: dst, Rs1: src, CSR: csr}, nil
		}
		return Inst{}, InvalidEncoding{"system instruction"}

	case 0b0011011: // W-variant ALU-immediate
		rd, rs1 := getRd(raw), getRs1(raw)
		f7, f3 := getFunct7(raw), getFunct3(raw)
		switch f3 {
		case 0b000:
			imm := signExtend((raw>>20)&0xfff, 12)
			return Inst{Kind: KindALUImm, ALUOp: ALUAddW, Rd: rd, Rs1: rs1, Imm: imm}, nil
		case 0b001:
			if f7 == 0b0000000 {
				return Inst{Kind: KindALUImm, ALUOp: ALUSLLW, Rd: rd, Rs1: rs1, Imm: int32(getRs2(raw))}, nil
			}
		case 0b101:
			switch f7 {
			case 0b0000000:
				return Inst{Kind: KindALUImm, ALUOp: ALUSRLW, Rd: rd, Rs1: rs1, Imm: int32(getRs2(raw))}, nil
			case 0b0100000:
				return Inst{Kind: KindALUImm, ALUOp: ALUSRAW, Rd: rd, Rs1: rs1, Imm: int32(getRs2(raw))}, nil
			}
		}
		return Inst{}, Unimplemented{"0b0011011 opcode space"}

	case 0b0111011: // W-variant ALU-register, including M-extension
		rd, rs1, rs2 := getRd(raw), getRs1(raw), getRs2(raw)
		f7, f3 := getFunct7(raw), getFunct3(raw)
		op, ok := aluRegWOp(f3, f7)
		if !ok {
			return Inst{}, Unimplemented{"0b0111011 opcode space"}
		}
		return Inst{Kind: KindALUReg, ALUOp: op, Rd: rd, Rs1: rs1, Rs2: rs2}, nil

	default:
		return Inst{}, InvalidEncoding{"unknown opcode"}
	}
}

func aluRegOp(f3, f7 uint8) (ALUOp, bool) {
	switch {
	case f3 == 0b000 && f7 == 0b0000000:
		return ALUAdd, true
	case f3 == 0b000 && f7 == 0b0100000:
		return ALUSub, true
	case f3 == 0b000 && f7 == 0b0000001:
		return ALUMul, true
	case f3 == 0b001 && f7 == 0b0000000:
		return ALUSLL, true
	case f3 == 0b010 && f7 == 0b0000000:
		return ALUSLT, true
	case f3 == 0b011 && f7 == 0b0000000:
		return ALUSLTU, true
	case f3 == 0b100 && f7 == 0b0000000:
		return ALUXOr, true
	case f3 == 0b100 && f7 == 0b0000001:
		return ALUDiv, true
	case f3 == 0b101 && f7 == 0b0000000:
		return ALUSRL, true
	case f3 == 0b101 && f7 == 0b0000001:
		return ALUDivU, true
	case f3 == 0b101 && f7 == 0b0100000:
		return ALUSRA, true
	case f3 == 0b110 && f7 == 0b0000000:
		return ALUOr, true
	case f3 == 0b110 && f7 == 0b0000001:
		return ALURem, true
	case f3 == 0b111 && f7 == 0b0000000:
		return ALUAnd, true
	case f3 == 0b111 && f7 == 0b0000001:
		return ALURemU, true
	// mulh/mulhsu/mulhu (f3 0b001/0b010/0b011, f7 0b0000001) are deliberately
	// deferred - see spec Non-goals.
	default:
		return 0, false
	}
}

func aluRegWOp(f3, f7 uint8) (ALUOp, bool) {
	switch {
	case f7 == 0b0000000 && f3 == 0b000:
		return ALUAddW, true
	case f7 == 0b0100000 && f3 == 0b000:
		return ALUSubW, true
	case f7 == 0b0000000 && f3 == 0b001:
		return ALUSLLW, true
	case f7 == 0b0000000 && f3 == 0b101:
		return ALUSRLW, true
	case f7 == 0b0100000 && f3 == 0b101:
		return ALUSRAW, true
	case f7 == 0b0000001 && f3 == 0b000:
		return ALUMulW, true
	case f7 == 0b0000001 && f3 == 0b100:
		return ALUDivW, true
	case f7 == 0b0000001 && f3 == 0b101:
		return ALUDivUW, true
	case f7 == 0b0000001 && f3 == 0b110:
		return ALURemW, true
	case f7 == 0b0000001 && f3 == 0b111:
		return ALURemUW, true
	default:
		return 0, false
	}
}
