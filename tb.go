// tb.go - translation block cache and the non-JIT step loop

package main

import (
	"fmt"
	"os"
	"sync/atomic"
)

// tbKickInJIT is the execution count at which a translation block, on
// reaching it, triggers a JIT pass over every candidate block.
const tbKickInJIT = 1_000

// tbJITCandidateThreshold is the lower bound a TB must cross before the JIT
// pass will even attempt to compile it - kept well below tbKickInJIT so a
// block that becomes hot mid-pass is still picked up on the next one.
const tbJITCandidateThreshold = 100

// decodedInst pairs one decoded instruction with its encoded size in bytes,
// the unit a translation block threads through both the interpreter and the
// JIT emitter.
type decodedInst struct {
	inst Inst
	size uint8
}

// TranslationBlock is a decoded straight-line run of instructions starting
// at Start and ending at a control-flow instruction, cached so repeat visits
// skip the decoder entirely.
type TranslationBlock struct {
	Start     uint64
	Instrs    []decodedInst
	ExecCount atomic.Int64
	Label     string

	jitFailed bool
	jitFn     atomic.Pointer[nativeFn]
}

func (tb *TranslationBlock) nativeFn() nativeFn {
	if p := tb.jitFn.Load(); p != nil {
		return *p
	}
	return nil
}

// JIT owns the translation block cache and the step loop's scratch decode
// buffer for building new blocks - mirroring the reference engine's one-struct-per-pass
// design, where the interpreter and the JIT share the same TB map.
type JIT struct {
	tbs    map[int64]*TranslationBlock
	buffer []decodedInst
}

func NewJIT() *JIT {
	return &JIT{
		tbs:    make(map[int64]*TranslationBlock, 1024),
		buffer: make([]decodedInst, 0, 32),
	}
}

// Step executes one translation block starting at cpu.PC: the cached one if
// present, otherwise decodes a fresh one up to (and including) the next
// control-flow instruction and installs it before running it. Every
// redirection of PC - taken branch, jump, syscall exit - happens inside
// execute, so Step itself never touches PC beyond what running the block
// does.
func Step(cpu *CPU, mem *Memory) error {
	jit := cpu.jit
	if tb, ok := jit.tbs[cpu.PC]; ok {
		count := tb.ExecCount.Add(1)
		if fn := tb.nativeFn(); fn != nil {
			cpu.PC = fn(&cpu.Regs, mem.BasePointer())
			return nil
		}
		if cpu.jitOn && count == tbKickInJIT {
			if cpu.verbose {
				fmt.Fprintf(os.Stderr, "[rv64sim] JIT: kicking in at %#08x (exec_count=%d)\n", cpu.PC, count)
			}
			jit.KickIn(cpu.verbose)
		}
		return runInterpreted(cpu, mem, tb)
	}

	startPC := cpu.PC
	startPCU := uint64(startPC)
	jit.buffer = jit.buffer[:0]
	pc := startPCU
	for {
		word, err := mem.Load32(pc)
		if err != nil {
			return err
		}
		in, size, err := Decode(word)
		if err != nil {
			return err
		}
		jit.buffer = append(jit.buffer, decodedInst{inst: in, size: uint8(size)})
		pc += uint64(size)
		if in.IsTerminator() {
			break
		}
	}

	tb := &TranslationBlock{
		Start:  startPCU,
		Instrs: append([]decodedInst(nil), jit.buffer...),
	}
	tb.ExecCount.Store(1)
	if cpu.symbols != nil {
		if name, sstart, ok := cpu.symbols.Lookup(startPCU); ok && sstart == startPCU {
			tb.Label = name
		}
	}
	if cpu.verbose {
		fmt.Fprintf(os.Stderr, "[rv64sim] new translation block at %#08x, instrs=%d label=%q\n",
			startPCU, len(tb.Instrs), tb.Label)
	}

	jit.tbs[startPC] = tb
	return runInterpreted(cpu, mem, tb)
}

func runInterpreted(cpu *CPU, mem *Memory, tb *TranslationBlock) error {
	for _, di := range tb.Instrs {
		if err := execute(cpu, mem, di.inst, int64(di.size)); err != nil {
			return err
		}
	}
	return nil
}
