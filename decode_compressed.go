// decode_compressed.go - the 16-bit C-extension encoding space

package main

func reg3_987(raw uint16) uint8 { return uint8((raw>>7)&0b111) + 8 }
func reg3_432(raw uint16) uint8 { return uint8((raw>>2)&0b111) + 8 }
func reg5_1110987(raw uint16) uint8 { return uint8((raw >> 7) & 0b11111) }

func decodeCompressed(raw uint16) (Inst, error) {
	quadrant := raw & 0b11
	funct3 := (raw >> 13) & 0b111

	switch {
	case funct3 == 0b000 && quadrant == 0b00:
		if raw == 0 {
			return Inst{}, Illegal{}
		}
		// C.ADDI4SPN
		imm := ((raw & 0b0000000000100000) >> (5 - 3)) |
			((raw & 0b0000000001000000) >> (6 - 2)) |
			((raw & 0b0000011110000000) >> (7 - 6)) |
			((raw & 0b0001100000000000) >> (11 - 4))
		return Inst{Kind: KindALUImm, ALUOp: ALUAdd, Rd: reg3_432(raw), Rs1: RegSP, Imm: int32(imm)}, nil

	case funct3 == 0b001 && quadrant == 0b00:
		return Inst{}, Unimplemented{"C.FLD"}

	case funct3 == 0b010 && quadrant == 0b00:
		off := ((raw & 0b0001110000000000) >> (10 - 3)) |
			((raw & 0b0000000001000000) >> (6 - 2)) |
			((raw & 0b0000000000100000) << (6 - 5))
		return Inst{Kind: KindLoad, Rd: reg3_432(raw), Rs1: reg3_987(raw), Imm: int32(off), Width: 4, SignExt: true}, nil

	case funct3 == 0b011 && quadrant == 0b00:
		off := ((raw & 0b0001110000000000) >> (10 - 3)) |
			((raw & 0b0000000001100000) << (6 - 5))
		return Inst{Kind: KindLoad, Rd: reg3_432(raw), Rs1: reg3_987(raw), Imm: int32(off), Width: 8, SignExt: true}, nil

	case funct3 == 0b100 && quadrant == 0b00:
		return Inst{}, InvalidEncoding{"C extension reserved space"}

	case funct3 == 0b101 && quadrant == 0b00:
		return Inst{}, Unimplemented{"C.FSD"}

	case funct3 == 0b110 && quadrant == 0b00:
		off := ((raw & 0b0001110000000000) >> (10 - 3)) |
			((raw & 0b0000000001000000) >> (6 - 2)) |
			((raw & 0b0000000000100000) << (6 - 5))
		return Inst{Kind: KindStore, Rs2: reg3_432(raw), Rs1: reg3_987(raw), Imm: int32(off), Width: 4}, nil

	case funct3 == 0b111 && quadrant == 0b00:
		off := ((raw & 0b0001110000000000) >> (10 - 3)) |
			((raw & 0b0000000001100000) << (6 - 5))
		return Inst{Kind: KindStore, Rs2: reg3_432(raw), Rs1: reg3_987(raw), Imm: int32(off), Width: 8}, nil

	case funct3 == 0b000 && quadrant == 0b01: // C.ADDI
		rd := reg5_1110987(raw)
		imm := signExtend(uint32(((raw&0b0001000000000000)>>(12-5))|((raw&0b0000000001111100)>>(2-0))), 6)
		return Inst{Kind: KindALUImm, ALUOp: ALUAdd, Rd: rd, Rs1: rd, Imm: imm}, nil

	case funct3 == 0b001 && quadrant == 0b01: // C.ADDIW
		rd := reg5_1110987(raw)
		imm := signExtend(uint32(((raw&0b0001000000000000)>>(12-5))|((raw&0b0000000001111100)>>(2-0))), 6)
		return Inst{Kind: KindALUImm, ALUOp: ALUAddW, Rd: rd, Rs1: rd, Imm: imm}, nil

	case funct3 == 0b010 && quadrant == 0b01: // C.LI
		rd := reg5_1110987(raw)
		imm := signExtend(uint32(((raw&0b0001000000000000)>>(12-5))|((raw&0b0000000001111100)>>(2-0))), 6)
		return Inst{Kind: KindALUImm, ALUOp: ALUAdd, Rd: rd, Rs1: RegZero, Imm: imm}, nil

	case funct3 == 0b011 && quadrant == 0b01:
		rd := reg5_1110987(raw)
		switch rd {
		case 2: // C.ADDI16SP
			imm := signExtend(uint32(
				((raw&0b0001000000000000)>>(12-9))|
					((raw&0b0000000001000000)>>(6-4))|
					((raw&0b0000000000100000)<<(6-5))|
					((raw&0b0000000000011000)<<(7-3))|
					((raw&0b0000000000000100)<<(5-2))), 10)
			return Inst{Kind: KindALUImm, ALUOp: ALUAdd, Rd: RegSP, Rs1: RegSP, Imm: imm}, nil
		case 0:
			return Inst{}, InvalidEncoding{"C extension reserved space"}
		default: // C.LUI
			imm := uint32((raw&0b0001000000000000))<<(17-12) | uint32((raw&0b0000000001111100))<<(12-2)
			return Inst{Kind: KindLUI, Rd: rd, Imm: signExtend(imm, 18)}, nil
		}

	case funct3 == 0b100 && quadrant == 0b01:
		funct2 := (raw >> 10) & 0b11
		rd := reg3_987(raw)
		switch funct2 {
		case 0b00: // C.SRLI
			imm := ((raw & 0b0001000000000000) >> (12 - 5)) | ((raw & 0b0000000001111100) >> (2 - 0))
			return Inst{Kind: KindALUImm, ALUOp: ALUSRL, Rd: rd, Rs1: rd, Imm: int32(imm)}, nil
		case 0b01: // C.SRAI
			imm := ((raw & 0b0001000000000000) >> (12 - 5)) | ((raw & 0b0000000001111100) >> (2 - 0))
			return Inst{Kind: KindALUImm, ALUOp: ALUSRA, Rd: rd, Rs1: rd, Imm: int32(imm)}, nil
		case 0b10: // C.ANDI
			imm := signExtend(uint32(((raw&0b0001000000000000)>>(12-5))|((raw&0b0000000001111100)>>(2-0))), 6)
			return Inst{Kind: KindALUImm, ALUOp: ALUAnd, Rd: rd, Rs1: rd, Imm: imm}, nil
		default: // 0b11: register-register quadrant
			bit12 := (raw >> 12) & 0b1
			sub := (raw >> 5) & 0b11
			rs2 := reg3_432(raw)
			switch {
			case bit12 == 0b0 && sub == 0b00:
				return Inst{Kind: KindALUReg, ALUOp: ALUSub, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			case bit12 == 0b0 && sub == 0b01:
				return Inst{Kind: KindALUReg, ALUOp: ALUXOr, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			case bit12 == 0b0 && sub == 0b10:
				return Inst{Kind: KindALUReg, ALUOp: ALUOr, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			case bit12 == 0b0 && sub == 0b11:
				return Inst{Kind: KindALUReg, ALUOp: ALUAnd, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			case bit12 == 0b1 && sub == 0b00:
				return Inst{Kind: KindALUReg, ALUOp: ALUSubW, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			case bit12 == 0b1 && sub == 0b01:
				return Inst{Kind: KindALUReg, ALUOp: ALUAddW, Rd: rd, Rs1: rd, Rs2: rs2}, nil
			default:
				return Inst{}, InvalidEncoding{"C extension reserved space"}
			}
		}

	case funct3 == 0b101 && quadrant == 0b01: // C.J
		off := signExtend(uint32(
			((raw&0b0001000000000000)>>(12-11))|
				((raw&0b0000100000000000)>>(11-4))|
				((raw&0b0000011000000000)>>(9-8))|
				((raw&0b0000000100000000)<<(10-8))|
				((raw&0b0000000010000000)>>(7-6))|
				((raw&0b0000000001000000)<<(7-6))|
				((raw&0b0000000000111000)>>(3-1))|
				((raw&0b0000000000000100)<<(5-2))), 12)
		return Inst{Kind: KindJumpAndLink, Rd: RegZero, Imm: off}, nil

	case funct3 == 0b110 && quadrant == 0b01: // C.BEQZ
		off := signExtend(uint32(
			((raw&0b0001000000000000)>>(12-8))|
				((raw&0b0000110000000000)>>(10-3))|
				((raw&0b0000000001100000)<<(6-5))|
				((raw&0b0000000000011000)>>(3-1))|
				((raw&0b0000000000000100)<<(5-2))), 9)
		return Inst{Kind: KindBranch, Pred: PredEQ, Rs1: reg3_987(raw), Rs2: RegZero, Imm: off}, nil

	case funct3 == 0b111 && quadrant == 0b01: // C.BNEZ
		off := signExtend(uint32(
			((raw&0b0001000000000000)>>(12-8))|
				((raw&0b0000110000000000)>>(10-3))|
				((raw&0b0000000001100000)<<(6-5))|
				((raw&0b0000000000011000)>>(3-1))|
				((raw&0b0000000000000100)<<(5-2))), 9)
		return Inst{Kind: KindBranch, Pred: PredNE, Rs1: reg3_987(raw), Rs2: RegZero, Imm: off}, nil

	case funct3 == 0b000 && quadrant == 0b10: // C.SLLI
		rd := reg5_1110987(raw)
		imm := ((raw & 0b0001000000000000) >> (12 - 5)) | ((raw & 0b0000000001111100) >> (2 - 0))
		return Inst{Kind: KindALUImm, ALUOp: ALUSLL, Rd: rd, Rs1: rd, Imm: int32(imm)}, nil

	case funct3 == 0b001 && quadrant == 0b10:
		return Inst{}, Unimplemented{"C.FLDSP"}

	case funct3 == 0b010 && quadrant == 0b10: // C.LWSP
		rd := reg5_1110987(raw)
		off := ((raw & 0b0001000000000000) >> (12 - 5)) |
			((raw & 0b0000000001110000) >> (4 - 2)) |
			((raw & 0b0000000000001100) << (6 - 2))
		return Inst{Kind: KindLoad, Rd: rd, Rs1: RegSP, Imm: int32(off), Width: 4, SignExt: true}, nil

	case funct3 == 0b011 && quadrant == 0b10: // C.LDSP
		rd := reg5_1110987(raw)
		off := ((raw & 0b0001000000000000) >> (12 - 5)) |
			((raw & 0b0000000001100000) >> (5 - 3)) |
			((raw & 0b0000000000011100) << (8 - 4))
		return Inst{Kind: KindLoad, Rd: rd, Rs1: RegSP, Imm: int32(off), Width: 8, SignExt: true}, nil

	case funct3 == 0b100 && quadrant == 0b10:
		bit12 := (raw >> 12) & 1
		rs1rd := uint8((raw >> 7) & 0x1f)
		rs2 := uint8((raw >> 2) & 0x1f)
		switch {
		case bit12 == 0 && rs1rd != 0 && rs2 == 0: // C.JR
			return Inst{Kind: KindJumpAndLinkReg, Rd: RegZero, Rs1: rs1rd, Imm: 0}, nil
		case bit12 == 0 && rs1rd != 0 && rs2 != 0: // C.MV
			return Inst{Kind: KindALUReg, ALUOp: ALUAdd, Rd: rs1rd, Rs1: RegZero, Rs2: rs2}, nil
		case bit12 == 1 && rs1rd == 0 && rs2 == 0: // C.EBREAK
			return Inst{Kind: KindEBreak}, nil
		case bit12 == 1 && rs1rd != 0 && rs2 == 0: // C.JALR
			return Inst{Kind: KindJumpAndLinkReg, Rd: RegRA, Rs1: rs1rd, Imm: 0}, nil
		case bit12 == 1 && rs1rd != 0 && rs2 != 0: // C.ADD
			return Inst{Kind: KindALUReg, ALUOp: ALUAdd, Rd: rs1rd, Rs1: rs1rd, Rs2: rs2}, nil
		default:
			return Inst{}, InvalidEncoding{"C extension reserved space"}
		}

	case funct3 == 0b101 && quadrant == 0b10:
		return Inst{}, Unimplemented{"C.FSDSP"}

	case funct3 == 0b110 && quadrant == 0b10: // C.SWSP
		rs2 := uint8((raw >> 2) & 0x1f)
		off := ((raw & 0b0001111000000000) >> (9 - 2)) | ((raw & 0b0000000110000000) >> (7 - 6))
		return Inst{Kind: KindStore, Rs2: rs2, Rs1: RegSP, Imm: int32(off), Width: 4}, nil

	case funct3 == 0b111 && quadrant == 0b10: // C.SDSP
		rs2 := uint8((raw >> 2) & 0x1f)
		off := ((raw & 0b0001110000000000) >> (10 - 3)) | ((raw & 0b0000001110000000) >> (7 - 6))
		return Inst{Kind: KindStore, Rs2: rs2, Rs1: RegSP, Imm: int32(off), Width: 8}, nil

	default:
		return Inst{}, InvalidEncoding{"not a compressed instruction"}
	}
}
