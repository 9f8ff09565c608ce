// disasm.go - decode-then-format disassembly, two phases like the decoder/interpreter split

package main

import "fmt"

// DisassembledLine is one decoded instruction formatted for display: the
// address, its encoded bytes as hex, and the mnemonic/operand text.
type DisassembledLine struct {
	Address uint64
	Hex     string
	Text    string
}

// Disassemble formats one instruction at addr, recognising the canonical
// pseudo-instruction encodings the same way the reference disassembler does,
// and annotating the address with its enclosing symbol when syms is non-nil.
func Disassemble(addr uint64, word uint32, in Inst, size int, syms *SymbolTreeNode) DisassembledLine {
	var hex string
	if size == 2 {
		hex = fmt.Sprintf("%04x", uint16(word))
	} else {
		hex = fmt.Sprintf("%08x", word)
	}

	text := mnemonic(int64(addr), in)
	if syms != nil {
		if name, start, ok := syms.Lookup(addr); ok {
			off := addr - start
			if off == 0 {
				text = fmt.Sprintf("%s  <%s>", text, name)
			} else {
				text = fmt.Sprintf("%s  <%s+%#x>", text, name, off)
			}
		}
	}

	return DisassembledLine{Address: addr, Hex: hex, Text: text}
}

func mnemonic(address int64, in Inst) string {
	r := regABIName
	switch in.Kind {
	case KindLoad:
		sfx := map[uint8]string{1: "b", 2: "h", 4: "w", 8: "d"}[in.Width]
		if !in.SignExt {
			sfx += "u"
		}
		return fmt.Sprintf("l%s\t%s,%d(%s)", sfx, r(in.Rd), in.Imm, r(in.Rs1))

	case KindStore:
		sfx := map[uint8]string{1: "b", 2: "h", 4: "w", 8: "d"}[in.Width]
		return fmt.Sprintf("s%s\t%s,%d(%s)", sfx, r(in.Rs2), in.Imm, r(in.Rs1))

	case KindJumpAndLink:
		if in.Rd == RegZero {
			return fmt.Sprintf("j\t%x", address+int64(in.Imm))
		}
		return fmt.Sprintf("jal\t%s,%x", r(in.Rd), address+int64(in.Imm))

	case KindJumpAndLinkReg:
		switch {
		case in.Rd == RegZero && in.Rs1 == RegRA && in.Imm == 0:
			return "ret"
		case in.Rd == RegZero && in.Imm == 0:
			return fmt.Sprintf("jr\t%s", r(in.Rs1))
		case in.Rd == RegRA && in.Imm == 0:
			return fmt.Sprintf("jalr\t%s", r(in.Rs1))
		default:
			return fmt.Sprintf("jalr\t%s,%s,%x", r(in.Rd), r(in.Rs1), address+int64(in.Imm))
		}

	case KindBranch:
		target := address + int64(in.Imm)
		switch {
		case in.Pred == PredEQ && in.Rs2 == RegZero:
			return fmt.Sprintf("beqz\t%s,%x", r(in.Rs1), target)
		case in.Pred == PredNE && in.Rs2 == RegZero:
			return fmt.Sprintf("bnez\t%s,%x", r(in.Rs1), target)
		case in.Pred == PredGE && in.Rs1 == RegZero:
			return fmt.Sprintf("blez\t%s,%x", r(in.Rs2), target)
		case in.Pred == PredGE && in.Rs2 == RegZero:
			return fmt.Sprintf("bgez\t%s,%x", r(in.Rs1), target)
		case in.Pred == PredLT && in.Rs2 == RegZero:
			return fmt.Sprintf("bltz\t%s,%x", r(in.Rs1), target)
		case in.Pred == PredLT && in.Rs1 == RegZero:
			return fmt.Sprintf("bgtz\t%s,%x", r(in.Rs2), target)
		default:
			names := map[Predicate]string{PredEQ: "eq", PredNE: "ne", PredLT: "lt", PredLTU: "ltu", PredGE: "ge", PredGEU: "geu"}
			return fmt.Sprintf("b%s\t%s,%s,%x", names[in.Pred], r(in.Rs1), r(in.Rs2), target)
		}

	case KindECall:
		return "ecall"
	case KindEBreak:
		return "ebreak"

	case KindLUI:
		return fmt.Sprintf("lui\t%s,%#x", r(in.Rd), uint32(in.Imm))
	case KindAUIPC:
		return fmt.Sprintf("auipc\t%s,%#x", r(in.Rd), uint32(in.Imm))

	case KindCSR:
		return "csr ???"

	case KindALUImm:
		switch {
		case in.ALUOp == ALUAdd && in.Rd == RegZero && in.Rs1 == RegZero && in.Imm == 0:
			return "nop"
		case in.ALUOp == ALUAdd && in.Rs1 == RegZero:
			return fmt.Sprintf("li\t%s,%d", r(in.Rd), in.Imm)
		case in.ALUOp == ALUAdd && in.Imm == 0:
			return fmt.Sprintf("mv\t%s,%s", r(in.Rd), r(in.Rs1))
		case in.ALUOp == ALUAddW && in.Imm == 0:
			return fmt.Sprintf("sext.w\t%s,%s", r(in.Rd), r(in.Rs1))
		case in.ALUOp == ALUAnd && in.Imm == 0xff:
			return fmt.Sprintf("zext.b\t%s,%s", r(in.Rd), r(in.Rs1))
		case in.ALUOp == ALUSLTU && in.Imm == 1:
			return fmt.Sprintf("seqz\t%s,%s", r(in.Rd), r(in.Rs1))
		case in.ALUOp == ALUXOr && uint32(in.Imm) == 0xffffffff:
			return fmt.Sprintf("not\t%s,%s", r(in.Rd), r(in.Rs1))
		default:
			return fmt.Sprintf("%s\t%s,%s,%d", aluImmOpNames[in.ALUOp], r(in.Rd), r(in.Rs1), in.Imm)
		}

	case KindALUReg:
		switch {
		case in.ALUOp == ALUAdd && in.Rs1 == RegZero:
			return fmt.Sprintf("mv\t%s,%s", r(in.Rd), r(in.Rs2))
		case in.ALUOp == ALUSub && in.Rs1 == RegZero:
			return fmt.Sprintf("neg\t%s,%s", r(in.Rd), r(in.Rs2))
		case in.ALUOp == ALUSubW && in.Rs1 == RegZero:
			return fmt.Sprintf("negw\t%s,%s", r(in.Rd), r(in.Rs2))
		case in.ALUOp == ALUSLTU && in.Rs1 == RegZero:
			return fmt.Sprintf("snez\t%s,%s", r(in.Rd), r(in.Rs2))
		default:
			return fmt.Sprintf("%s\t%s,%s,%s", aluOpNames[in.ALUOp], r(in.Rd), r(in.Rs1), r(in.Rs2))
		}

	default:
		return "???"
	}
}
