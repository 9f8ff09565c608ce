// jit.go - batch compilation of hot translation blocks into native Go closures
//
// The reference engine's tracing JIT emits real machine code through
// libgccjit: one compilation unit holding every hot block, compiled once and
// its functions extracted by name. Go has no cgo-free equivalent, so this
// port keeps the same shape - one batch pass, one set of candidates, built
// concurrently and installed together - but the "native code" it produces is
// a Go closure built directly over the decoded instruction stream, with the
// unsupported-instruction bailout preserved exactly: a block touching
// anything outside the set below is marked jitFailed and stays interpreted
// forever.
package main

import (
	"unsafe"

	"golang.org/x/sync/errgroup"
)

// nativeFn is the calling convention a compiled translation block exposes:
// the live register file and the guest memory base pointer in, the next PC
// to execute out. Compiled blocks do not bounds-check memory accesses - the
// same trade the reference engine's generated code makes.
type nativeFn func(regs *[32]uint64, memBase unsafe.Pointer) int64

// KickIn runs one JIT pass: every candidate translation block (hot enough,
// not already compiled, not previously failed) is compiled concurrently and
// the results installed once the whole batch finishes, mirroring the
// reference engine's single-module-many-functions compilation unit.
func (j *JIT) KickIn(verbose bool) {
	type candidate struct {
		pc int64
		tb *TranslationBlock
	}

	var candidates []candidate
	for pc, tb := range j.tbs {
		if !tb.jitFailed && tb.nativeFn() == nil && tb.ExecCount.Load() > tbJITCandidateThreshold {
			candidates = append(candidates, candidate{pc: pc, tb: tb})
		}
	}
	if len(candidates) == 0 {
		return
	}

	var g errgroup.Group
	results := make([]nativeFn, len(candidates))
	for i, c := range candidates {
		i, c := i, c
		g.Go(func() error {
			fn, ok := compileTB(c.tb)
			if ok {
				results[i] = fn
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, c := range candidates {
		if results[i] != nil {
			c.tb.jitFn.Store(&results[i])
		} else {
			c.tb.jitFailed = true
		}
	}
}

// compileTB builds a closure replaying tb's instructions directly against
// the register file and raw memory, or reports ok=false the first time it
// meets an instruction outside the supported subset - at which point the
// whole block is abandoned, never partially compiled.
func compileTB(tb *TranslationBlock) (nativeFn, bool) {
	type step func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool)

	steps := make([]step, 0, len(tb.Instrs))
	pc := int64(tb.Start)

	for _, di := range tb.Instrs {
		in := di.inst
		size := int64(di.size)
		instPC := pc
		pc += size

		switch {
		case in.Kind == KindALUImm && (in.ALUOp == ALUAddW || in.ALUOp == ALUSubW || in.ALUOp == ALUSRAW):
			op, rd, rs1, imm := in.ALUOp, in.Rd, in.Rs1, in.Imm
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				a := int32(regs[rs1])
				var r int32
				switch op {
				case ALUAddW:
					r = a + imm
				case ALUSubW:
					r = a - imm
				case ALUSRAW:
					r = a >> shamt32(uint64(imm))
				}
				setRegJIT(regs, rd, uint64(int64(r)))
				return pc + size, true
			})

		case in.Kind == KindALUImm && (in.ALUOp == ALUAdd || in.ALUOp == ALUSLL || in.ALUOp == ALUSRL):
			op, rd, rs1, imm := in.ALUOp, in.Rd, in.Rs1, in.Imm
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				a := regs[rs1]
				var r uint64
				switch op {
				case ALUAdd:
					r = a + uint64(int64(imm))
				case ALUSLL:
					r = a << shamt64(uint64(imm))
				case ALUSRL:
					r = a >> shamt64(uint64(imm))
				}
				setRegJIT(regs, rd, r)
				return pc + size, true
			})

		case in.Kind == KindALUReg && (in.ALUOp == ALUAddW || in.ALUOp == ALUSubW):
			op, rd, rs1, rs2 := in.ALUOp, in.Rd, in.Rs1, in.Rs2
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				a, b := uint32(regs[rs1]), uint32(regs[rs2])
				var r uint32
				if op == ALUAddW {
					r = a + b
				} else {
					r = a - b
				}
				setRegJIT(regs, rd, uint64(int64(int32(r))))
				return pc + size, true
			})

		case in.Kind == KindALUReg && (in.ALUOp == ALUAdd || in.ALUOp == ALUAnd || in.ALUOp == ALUOr || in.ALUOp == ALUXOr):
			op, rd, rs1, rs2 := in.ALUOp, in.Rd, in.Rs1, in.Rs2
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				a, b := getRegJIT(regs, rs1), getRegJIT(regs, rs2)
				var r uint64
				switch op {
				case ALUAdd:
					r = a + b
				case ALUAnd:
					r = a & b
				case ALUOr:
					r = a | b
				case ALUXOr:
					r = a ^ b
				}
				setRegJIT(regs, rd, r)
				return pc + size, true
			})

		case in.Kind == KindLoad && in.Width == 4 && in.SignExt:
			rd, rs1, off := in.Rd, in.Rs1, in.Imm
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				addr := uintptr(int64(getRegJIT(regs, rs1)) + int64(off))
				v := *(*int32)(unsafe.Add(mem, addr))
				setRegJIT(regs, rd, uint64(int64(v)))
				return pc + size, true
			})

		case in.Kind == KindLoad && in.Width == 8:
			rd, rs1, off := in.Rd, in.Rs1, in.Imm
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				addr := uintptr(int64(getRegJIT(regs, rs1)) + int64(off))
				v := *(*uint64)(unsafe.Add(mem, addr))
				setRegJIT(regs, rd, v)
				return pc + size, true
			})

		case in.Kind == KindStore && (in.Width == 1 || in.Width == 2 || in.Width == 4 || in.Width == 8):
			rs1, rs2, off, width := in.Rs1, in.Rs2, in.Imm, in.Width
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				addr := uintptr(int64(getRegJIT(regs, rs1)) + int64(off))
				val := getRegJIT(regs, rs2)
				switch width {
				case 1:
					*(*uint8)(unsafe.Add(mem, addr)) = uint8(val)
				case 2:
					*(*uint16)(unsafe.Add(mem, addr)) = uint16(val)
				case 4:
					*(*uint32)(unsafe.Add(mem, addr)) = uint32(val)
				case 8:
					*(*uint64)(unsafe.Add(mem, addr)) = val
				}
				return pc + size, true
			})

		case in.Kind == KindJumpAndLink:
			rd, off, target := in.Rd, in.Imm, instPC
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				if rd != RegZero {
					setRegJIT(regs, rd, uint64(pc+size))
				}
				return target + int64(off), true
			})

		case in.Kind == KindJumpAndLinkReg:
			rd, rs1, off := in.Rd, in.Rs1, in.Imm
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				ret := pc + size
				addr := int64(getRegJIT(regs, rs1)) + int64(off)
				if rd != RegZero {
					setRegJIT(regs, rd, uint64(ret))
				}
				return addr &^ 1, true
			})

		case in.Kind == KindBranch && (in.Pred == PredEQ || in.Pred == PredNE || in.Pred == PredLTU || in.Pred == PredGEU):
			pred, rs1, rs2, off, target := in.Pred, in.Rs1, in.Rs2, in.Imm, instPC
			steps = append(steps, func(regs *[32]uint64, mem unsafe.Pointer, pc int64) (int64, bool) {
				a, b := getRegJIT(regs, rs1), getRegJIT(regs, rs2)
				var taken bool
				switch pred {
				case PredEQ:
					taken = a == b
				case PredNE:
					taken = a != b
				case PredLTU:
					taken = a < b
				case PredGEU:
					taken = a >= b
				}
				if taken {
					return target + int64(off), true
				}
				return pc + size, true
			})

		default:
			return nil, false
		}
	}

	return func(regs *[32]uint64, memBase unsafe.Pointer) int64 {
		pc := int64(tb.Start)
		for _, s := range steps {
			var ok bool
			pc, ok = s(regs, memBase, pc)
			if !ok {
				break
			}
		}
		return pc
	}, true
}

func getRegJIT(regs *[32]uint64, r uint8) uint64 {
	if r == RegZero {
		return 0
	}
	return regs[r]
}

func setRegJIT(regs *[32]uint64, r uint8, val uint64) {
	if r != RegZero {
		regs[r] = val
	}
}
