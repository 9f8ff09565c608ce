// cpu.go - architectural register file and its CLI-driven settings (Step lives in tb.go)

package main

import "math"

// CPU holds the RV64IMC architectural state: integer and (NaN-boxed)
// floating point register files plus the program counter. It carries no
// memory of its own - Memory is threaded through explicitly so the same
// register file can be driven by the interpreter, the JIT and tests without
// any of them reaching through a shared global.
type CPU struct {
	PC     int64
	Regs   [32]uint64
	FRegs  [32]uint64
	Fds     *FdTable
	jit     *JIT
	symbols *SymbolTreeNode
	verbose bool
	jitOn   bool
}

// SetJITEnabled turns on the tracing JIT, driven by the CLI's --jit flag.
// With it off, Step only ever interprets - translation blocks are still
// cached and counted, but never handed to the compiler.
func (c *CPU) SetJITEnabled(v bool) { c.jitOn = v }

// NewCPU returns a CPU with x0 wired to zero and the floating point file
// NaN-boxed to all-ones, matching reset state for an untouched register.
func NewCPU() *CPU {
	cpu := &CPU{
		jit: NewJIT(),
		Fds: NewFdTable(),
	}
	for i := range cpu.FRegs {
		cpu.FRegs[i] = ^uint64(0)
	}
	return cpu
}

// GetReg reads an integer register. x0 is not special-cased on read because
// SetReg never writes to it - it is permanently zero by construction.
func (c *CPU) GetReg(r uint8) uint64 { return c.Regs[r] }

// SetReg writes an integer register, silently discarding writes to x0.
func (c *CPU) SetReg(r uint8, val uint64) {
	if r != RegZero {
		c.Regs[r] = val
	}
}

func (c *CPU) GetFRegF32(r uint8) float32 { return math.Float32frombits(uint32(c.FRegs[r])) }
func (c *CPU) GetFRegF64(r uint8) float64 { return math.Float64frombits(c.FRegs[r]) }

func (c *CPU) SetFRegF32(r uint8, val float32) {
	c.FRegs[r] = 0xffffffff00000000 | uint64(math.Float32bits(val))
}

func (c *CPU) SetFRegF64(r uint8, val float64) {
	c.FRegs[r] = math.Float64bits(val)
}

// SetVerbose toggles TB install/JIT-pass-request logging, driven by the
// CLI's --verbose flag.
func (c *CPU) SetVerbose(v bool) { c.verbose = v }

// AttachSymbols lets the step loop label freshly-installed translation
// blocks with the enclosing function name, for --verbose and --tb-stats
// output.
func (c *CPU) AttachSymbols(s *SymbolTreeNode) { c.symbols = s }

// TBStats exposes the current translation block population for the CLI's
// --tb-stats summary, taken after the guest has run to completion.
func (c *CPU) TBStats() []TBStat {
	stats := make([]TBStat, 0, len(c.jit.tbs))
	for _, tb := range c.jit.tbs {
		stats = append(stats, TBStat{
			Start:     tb.Start,
			ExecCount: tb.ExecCount.Load(),
			Label:     tb.Label,
			Compiled:  tb.nativeFn() != nil,
		})
	}
	return stats
}

// TBStat is a read-only snapshot of one cached translation block.
type TBStat struct {
	Start     uint64
	ExecCount int64
	Label     string
	Compiled  bool
}
