package main

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"testing"
)

// buildMinimalELF hand-assembles a tiny valid ELF64 RISC-V ET_EXEC image with
// one loadable .text section, so LoadELF can be exercised against a real
// debug/elf.File rather than only against hand-built FileHeader literals.
func buildMinimalELF(t *testing.T, textAddr uint64, text []byte) []byte {
	t.Helper()
	le := binary.LittleEndian

	const (
		headerSize  = 64
		shdrSize    = 64
		shstrtabStr = "\x00.text\x00.shstrtab\x00"
	)

	textOff := uint64(headerSize)
	shstrtabOff := textOff + uint64(len(text))
	shstrtabSize := uint64(len(shstrtabStr))

	// pad section header table start to an 8-byte boundary
	shoff := shstrtabOff + shstrtabSize
	if pad := shoff % 8; pad != 0 {
		shoff += 8 - pad
	}

	buf := make([]byte, shoff+3*shdrSize)

	// e_ident
	copy(buf[0:4], []byte{0x7f, 'E', 'L', 'F'})
	buf[4] = 2 // ELFCLASS64
	buf[5] = 1 // ELFDATA2LSB
	buf[6] = 1 // EV_CURRENT

	le.PutUint16(buf[16:], uint16(elf.ET_EXEC))
	le.PutUint16(buf[18:], uint16(elf.EM_RISCV))
	le.PutUint32(buf[20:], 1) // e_version
	le.PutUint64(buf[24:], textAddr)
	le.PutUint64(buf[32:], 0) // e_phoff
	le.PutUint64(buf[40:], shoff)
	le.PutUint32(buf[48:], 0) // e_flags
	le.PutUint16(buf[52:], headerSize)
	le.PutUint16(buf[54:], 56) // e_phentsize
	le.PutUint16(buf[56:], 0)  // e_phnum
	le.PutUint16(buf[58:], shdrSize)
	le.PutUint16(buf[60:], 3) // e_shnum
	le.PutUint16(buf[62:], 2) // e_shstrndx

	copy(buf[textOff:], text)
	copy(buf[shstrtabOff:], shstrtabStr)

	writeShdr := func(i int, name uint32, typ, flags, addr, off, size, link, info, align, entsize uint64) {
		b := buf[shoff+uint64(i)*shdrSize:]
		le.PutUint32(b[0:], name)
		le.PutUint32(b[4:], uint32(typ))
		le.PutUint64(b[8:], flags)
		le.PutUint64(b[16:], addr)
		le.PutUint64(b[24:], off)
		le.PutUint64(b[32:], size)
		le.PutUint32(b[40:], uint32(link))
		le.PutUint32(b[44:], uint32(info))
		le.PutUint64(b[48:], align)
		le.PutUint64(b[56:], entsize)
	}

	writeShdr(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0) // NULL section
	writeShdr(1, 1 /* ".text" */, uint64(elf.SHT_PROGBITS),
		uint64(elf.SHF_ALLOC|elf.SHF_EXECINSTR), textAddr, textOff, uint64(len(text)), 0, 0, 4, 0)
	writeShdr(2, 7 /* ".shstrtab" */, uint64(elf.SHT_STRTAB), 0, 0, shstrtabOff, shstrtabSize, 0, 0, 1, 0)

	return buf
}

func openTestELF(t *testing.T, textAddr uint64, text []byte) *elf.File {
	t.Helper()
	data := buildMinimalELF(t, textAddr, text)
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("elf.NewFile: %v", err)
	}
	return f
}

func TestLoadELFCopiesTextAndSetsEntry(t *testing.T) {
	cpu, mem := newTestCPU()
	text := []byte{0x73, 0x00, 0x10, 0x00} // ebreak, little endian word 0x00100073
	f := openTestELF(t, 0x10000, text)

	if _, err := LoadELF(cpu, mem, f); err != nil {
		t.Fatal(err)
	}
	if cpu.PC != 0x10000 {
		t.Fatalf("PC = %#x, want 0x10000", cpu.PC)
	}
	word, err := mem.Load32(0x10000)
	if err != nil {
		t.Fatal(err)
	}
	if word != 0x00100073 {
		t.Fatalf("loaded word = %#x, want 0x00100073", word)
	}
}

func TestLoadELFRejectsWrongMachine(t *testing.T) {
	cpu, mem := newTestCPU()
	data := buildMinimalELF(t, 0x1000, []byte{0, 0, 0, 0})
	// Flip e_machine to something other than EM_RISCV.
	binary.LittleEndian.PutUint16(data[18:], uint16(elf.EM_X86_64))
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	_, err = LoadELF(cpu, mem, f)
	if _, ok := err.(ELFError); !ok {
		t.Fatalf("expected ELFError for a non-RISC-V machine, got %T (%v)", err, err)
	}
}

func TestSetupArgvLaysOutArgcAndPointers(t *testing.T) {
	cpu, mem := newTestCPU()
	if err := SetupArgv(cpu, mem, []string{"prog", "hello"}); err != nil {
		t.Fatal(err)
	}

	sp := cpu.GetReg(RegSP)
	argc, err := mem.Load64(sp)
	if err != nil {
		t.Fatal(err)
	}
	if argc != 2 {
		t.Fatalf("argc = %d, want 2", argc)
	}

	argv0Ptr, err := mem.Load64(sp + 8)
	if err != nil {
		t.Fatal(err)
	}
	b, err := mem.Load8(argv0Ptr)
	if err != nil || b != 'p' {
		t.Fatalf("argv[0][0] = %q, %v, want 'p'", b, err)
	}

	nullPtr, err := mem.Load64(sp + 8*3)
	if err != nil || nullPtr != 0 {
		t.Fatalf("argv null terminator = %#x, %v, want 0", nullPtr, err)
	}
}
