// monitor.go - interactive single-key stepping monitor, entered on EBREAK or a hit --break condition
//
// Grounded on the reference engine's TerminalHost: stdin is put into raw
// mode so single keystrokes arrive immediately without waiting for Enter,
// and the previous terminal state is always restored before the monitor
// returns control - whether that is by quitting or by the process exiting.
package main

import (
	"bufio"
	"fmt"
	"os"

	"golang.org/x/term"
)

// Monitor drives the interactive REPL dropped into on EBREAK (or a satisfied
// --break condition). The run loop enters it in every mode, --exec included.
type Monitor struct {
	cpu  *CPU
	mem  *Memory
	syms *SymbolTreeNode
}

func NewMonitor(cpu *CPU, mem *Memory, syms *SymbolTreeNode) *Monitor {
	return &Monitor{cpu: cpu, mem: mem, syms: syms}
}

// Run prints a stop reason and reads single-key commands until the guest is
// told to continue or the user quits outright. It returns true if the guest
// should keep running, false if the user asked to abort the whole session.
func (m *Monitor) Run(reason string) bool {
	fmt.Printf("\nstopped: %s\n", reason)
	m.printPC()

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return m.runLineMode()
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return m.runLineMode()
	}
	defer term.Restore(fd, oldState)

	buf := make([]byte, 1)
	for {
		fmt.Print("\r\n(rv64sim) ")
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			return false
		}
		switch buf[0] {
		case 's', '\r', '\n':
			fmt.Print("\r\nstep\r\n")
			return true
		case 'c':
			fmt.Print("\r\ncontinuing\r\n")
			return true
		case 'r':
			term.Restore(fd, oldState)
			m.printRegs()
			oldState, _ = term.MakeRaw(fd)
		case 'd':
			term.Restore(fd, oldState)
			m.printDisasm()
			oldState, _ = term.MakeRaw(fd)
		case 'q':
			fmt.Print("\r\nquit\r\n")
			return false
		default:
			fmt.Print("\r\nkeys: s=step c=continue r=regs d=disasm q=quit\r\n")
		}
	}
}

func (m *Monitor) runLineMode() bool {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("(rv64sim) ")
		if !scanner.Scan() {
			return false
		}
		switch scanner.Text() {
		case "s", "":
			return true
		case "c":
			return true
		case "r":
			m.printRegs()
		case "d":
			m.printDisasm()
		case "q":
			return false
		default:
			fmt.Println("keys: s=step c=continue r=regs d=disasm q=quit")
		}
	}
}

func (m *Monitor) printPC() {
	fmt.Printf("pc=%#016x\n", m.cpu.PC)
}

func (m *Monitor) printRegs() {
	for i := 0; i < 32; i += 4 {
		for j := i; j < i+4; j++ {
			fmt.Printf("%-4s=%#016x ", regABIName(uint8(j)), m.cpu.Regs[j])
		}
		fmt.Println()
	}
}

func (m *Monitor) printDisasm() {
	word, err := m.mem.Load32(uint64(m.cpu.PC))
	if err != nil {
		fmt.Println(err)
		return
	}
	in, size, err := Decode(word)
	if err != nil {
		fmt.Println(err)
		return
	}
	line := Disassemble(uint64(m.cpu.PC), word, in, size, m.syms)
	fmt.Printf("%016x:\t%s\t%s\n", line.Address, line.Hex, line.Text)
}
