// loader.go - ELF program load and guest stack/argv layout

package main

import (
	"debug/elf"
)

// LoadELF maps every SHF_ALLOC section of f into mem at its link address,
// sets the CPU's PC to the entry point, and returns the binary's symbol
// table (nil if it carries none, e.g. it was stripped).
func LoadELF(cpu *CPU, mem *Memory, f *elf.File) (*SymbolTreeNode, error) {
	if f.Class != elf.ELFCLASS64 {
		return nil, ELFError{"not a 64-bit ELF"}
	}
	if f.Type != elf.ET_EXEC {
		return nil, ELFError{"not a static executable (ET_EXEC)"}
	}
	if f.Machine != elf.EM_RISCV {
		return nil, ELFError{"not a RISC-V object (EM_RISCV)"}
	}

	for _, sec := range f.Sections {
		if sec.Flags&elf.SHF_ALLOC == 0 {
			continue
		}
		if sec.Type == elf.SHT_NOBITS {
			continue // .bss - already zero in freshly allocated guest memory
		}
		if sec.Flags&elf.SHF_COMPRESSED != 0 {
			return nil, ELFError{"compressed sections are not supported"}
		}
		data, err := sec.Data()
		if err != nil {
			return nil, ELFError{"reading section " + sec.Name + ": " + err.Error()}
		}
		if err := mem.CopyBulk(sec.Addr, data); err != nil {
			return nil, err
		}
	}

	cpu.PC = int64(f.Entry)

	symtab, err := f.Symbols()
	if err != nil || len(symtab) == 0 {
		return nil, nil
	}
	symbols := make([]elfSymbol, 0, len(symtab))
	for _, s := range symtab {
		if s.Name == "" {
			continue
		}
		symbols = append(symbols, elfSymbol{name: s.Name, addr: s.Value, size: s.Size})
	}
	return buildSymbolIndex(symbols), nil
}

// SetupArgv lays out argc/argv/NUL-terminated strings on the guest stack
// per the platform's calling convention and points sp at the base of that
// layout, matching the fixed top-of-stack the reference engine hardcoded
// (generalized here to scale with MemSize instead of a literal 0x10000).
func SetupArgv(cpu *CPU, mem *Memory, argv []string) error {
	const tos = MemSize - MemSize/4

	argc := uint64(len(argv))
	ptrTableSize := 8 * (argc + 2)
	stringsBase := uint64(tos) + ptrTableSize

	if err := mem.Store64(uint64(tos), argc); err != nil {
		return err
	}

	cursor := stringsBase
	for i, arg := range argv {
		ptrSlot := uint64(tos) + 8*(uint64(i)+1)
		if err := mem.Store64(ptrSlot, cursor); err != nil {
			return err
		}
		bytes := append([]byte(arg), 0)
		if err := mem.CopyBulk(cursor, bytes); err != nil {
			return err
		}
		cursor += uint64(len(bytes))
	}

	nullSlot := uint64(tos) + 8*(argc+1)
	if err := mem.Store64(nullSlot, 0); err != nil {
		return err
	}

	cpu.SetReg(RegSP, uint64(tos))
	return nil
}
