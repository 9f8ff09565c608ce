// breakpoints.go - --break EXPR condition evaluation, via an embedded Lua expression
//
// The reference engine's MachineMonitor parses a small hand-rolled condition
// grammar (`r1==$FF`, `[$1000]==$42`, `hitcount>10`) for its breakpoints.
// This port keeps the same idea - evaluate a boolean expression against live
// CPU state before every translation block the step loop runs - but lets the
// expression be an actual Lua boolean expression evaluated by an embedded
// gopher-lua state, so a condition can combine pc, registers and memory with
// full operator/precedence support instead of a single comparison. Hit
// counts are recorded per breakpoint but are not visible to the expression.
package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Breakpoint is one --break EXPR entry: the condition's Lua source text and
// the number of times it has fired. There is no separate trigger PC; a
// condition that should fire at one address tests pc itself.
type Breakpoint struct {
	expr     string
	hitCount int64
}

// BreakpointSet holds every --break condition registered on the CLI and the
// Lua state they run in. The single state is reused for every evaluation;
// each expression is compiled again from its source text on every Check.
type BreakpointSet struct {
	L           *lua.LState
	breakpoints []*Breakpoint
}

func NewBreakpointSet() *BreakpointSet {
	return &BreakpointSet{L: lua.NewState()}
}

// Add registers a new --break condition. The expression is validated eagerly
// so a typo is reported at startup, not on the first instruction executed.
func (b *BreakpointSet) Add(expr string) error {
	if _, err := b.L.LoadString("return (" + expr + ")"); err != nil {
		return fmt.Errorf("invalid --break expression %q: %w", expr, err)
	}
	b.breakpoints = append(b.breakpoints, &Breakpoint{expr: expr})
	return nil
}

// Check evaluates every registered condition against the current CPU/memory
// state and returns the first one that is true, or nil if none fired.
func (b *BreakpointSet) Check(cpu *CPU, mem *Memory) (*Breakpoint, error) {
	if len(b.breakpoints) == 0 {
		return nil, nil
	}
	b.bindState(cpu, mem)

	for _, bp := range b.breakpoints {
		fn, err := b.L.LoadString("return (" + bp.expr + ")")
		if err != nil {
			return nil, err
		}
		b.L.Push(fn)
		if err := b.L.PCall(0, 1, nil); err != nil {
			return nil, fmt.Errorf("evaluating --break %q: %w", bp.expr, err)
		}
		ret := b.L.Get(-1)
		b.L.Pop(1)
		if lua.LVAsBool(ret) {
			bp.hitCount++
			return bp, nil
		}
	}
	return nil, nil
}

// bindState exposes pc, regs[] (1-indexed, Lua convention) and a mem(addr)
// reader to the Lua global table ahead of every evaluation.
func (b *BreakpointSet) bindState(cpu *CPU, mem *Memory) {
	L := b.L
	L.SetGlobal("pc", lua.LNumber(cpu.PC))

	regs := L.NewTable()
	for i := 0; i < 32; i++ {
		regs.RawSetInt(i+1, lua.LNumber(cpu.Regs[i]))
		regs.RawSetString(regABIName(uint8(i)), lua.LNumber(cpu.Regs[i]))
	}
	L.SetGlobal("regs", regs)

	L.SetGlobal("mem", L.NewFunction(func(L *lua.LState) int {
		addr := uint64(L.CheckNumber(1))
		width := 8
		if L.GetTop() >= 2 {
			width = int(L.CheckNumber(2))
		}
		val, err := loadWidth(mem, addr, uint8(width), false)
		if err != nil {
			L.RaiseError("%s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(val))
		return 1
	}))
}

// Close releases the embedded Lua state.
func (b *BreakpointSet) Close() { b.L.Close() }
