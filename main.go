// main.go - CLI entry point: load, disassemble or execute a guest RISC-V ELF binary

package main

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func main() {
	var (
		file       string
		dump       bool
		exec       bool
		jitEnabled bool
		verbose    bool
		tbStats    bool
		breaks     []string
	)

	root := &cobra.Command{
		Use:   "rv64sim",
		Short: "rv64sim - a user-mode RV64IMC emulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			if !dump && !exec {
				exec = true
			}

			f, err := elf.Open(file)
			if err != nil {
				return ELFError{err.Error()}
			}
			defer f.Close()

			cpu := NewCPU()
			mem := NewMemory()
			syms, err := LoadELF(cpu, mem, f)
			if err != nil {
				return err
			}
			cpu.AttachSymbols(syms)
			cpu.SetVerbose(verbose)
			cpu.SetJITEnabled(jitEnabled)

			if dump {
				return dumpText(f, syms)
			}

			guestArgv := append([]string{file}, args...)
			if err := SetupArgv(cpu, mem, guestArgv); err != nil {
				return err
			}

			bps := NewBreakpointSet()
			defer bps.Close()
			for _, expr := range breaks {
				if err := bps.Add(expr); err != nil {
					return err
				}
			}

			code, err := run(cpu, mem, bps, syms)
			if tbStats {
				printTBStats(cpu)
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "rv64sim: %v (pc=%#x)\n", err, cpu.PC)
				os.Exit(1)
			}
			os.Exit(code)
			return nil
		},
	}

	root.Flags().StringVarP(&file, "file", "f", "", "guest ELF binary to load (required)")
	root.Flags().BoolVarP(&dump, "dump", "d", false, "disassemble .text and exit")
	root.Flags().BoolVarP(&exec, "exec", "e", false, "run the guest binary (default when --dump is absent)")
	root.Flags().BoolVar(&jitEnabled, "jit", false, "enable the tracing JIT")
	root.Flags().BoolVarP(&verbose, "verbose", "v", false, "log translation block and JIT pass events")
	root.Flags().BoolVar(&tbStats, "tb-stats", false, "print the hottest translation blocks on exit")
	root.Flags().StringArrayVar(&breaks, "break", nil, "Lua boolean expression; drop into the monitor when true (repeatable)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run drives the guest to completion (or an unrecoverable error), dropping
// into the interactive monitor whenever the guest hits EBREAK or a
// registered --break condition fires.
func run(cpu *CPU, mem *Memory, bps *BreakpointSet, syms *SymbolTreeNode) (int, error) {
	mon := NewMonitor(cpu, mem, syms)

	for {
		if bp, err := bps.Check(cpu, mem); err != nil {
			return 1, err
		} else if bp != nil {
			if !mon.Run(fmt.Sprintf("--break condition %q", bp.expr)) {
				return 1, nil
			}
		}

		err := Step(cpu, mem)
		if err == nil {
			continue
		}

		if brk, ok := err.(EBreakHit); ok {
			if !mon.Run(brk.Error()) {
				return 1, nil
			}
			cpu.PC += brk.Size // past the EBREAK/C.EBREAK the monitor stopped at
			continue
		}

		if exitErr, ok := err.(Exit); ok {
			return int(exitErr.Code), nil
		}

		return 1, err
	}
}

func dumpText(f *elf.File, syms *SymbolTreeNode) error {
	sec := f.Section(".text")
	if sec == nil {
		return ELFError{"no .text section"}
	}
	data, err := sec.Data()
	if err != nil {
		return ELFError{"reading .text: " + err.Error()}
	}

	addr := sec.Addr
	for i := 0; i < len(data); {
		var word uint32
		if data[i]&0b11 != 0b11 {
			word = uint32(data[i]) | uint32(data[i+1])<<8
		} else {
			word = uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
		}

		in, size, derr := Decode(word)
		if derr != nil {
			fmt.Printf("%016x:\t%08x\t(bad: %v)\n", addr, word, derr)
			i += 2
			addr += 2
			continue
		}
		line := Disassemble(addr, word, in, size, syms)
		fmt.Printf("%016x:\t%s\t%s\n", line.Address, line.Hex, line.Text)
		i += size
		addr += uint64(size)
	}
	return nil
}

func printTBStats(cpu *CPU) {
	stats := cpu.TBStats()
	sort.Slice(stats, func(i, j int) bool { return stats[i].ExecCount > stats[j].ExecCount })
	if len(stats) > 25 {
		stats = stats[:25]
	}
	fmt.Fprintln(os.Stderr, "--- translation block stats (top 25 by exec count) ---")
	for _, s := range stats {
		label := s.Label
		if label == "" {
			label = "?"
		}
		fmt.Fprintf(os.Stderr, "%#08x  execs=%-8d jit=%-5v %s\n", s.Start, s.ExecCount, s.Compiled, label)
	}
}
