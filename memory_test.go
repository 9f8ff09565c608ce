package main

import "testing"

func TestMemoryLoadStoreRoundTrip(t *testing.T) {
	m := NewMemory()

	if err := m.Store8(0x100, 0xAB); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Load8(0x100); err != nil || v != 0xAB {
		t.Fatalf("Load8 = %#x, %v", v, err)
	}

	if err := m.Store16(0x200, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Load16(0x200); err != nil || v != 0xBEEF {
		t.Fatalf("Load16 = %#x, %v", v, err)
	}

	if err := m.Store32(0x300, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Load32(0x300); err != nil || v != 0xDEADBEEF {
		t.Fatalf("Load32 = %#x, %v", v, err)
	}

	if err := m.Store64(0x400, 0x0123456789ABCDEF); err != nil {
		t.Fatal(err)
	}
	if v, err := m.Load64(0x400); err != nil || v != 0x0123456789ABCDEF {
		t.Fatalf("Load64 = %#x, %v", v, err)
	}
}

func TestMemoryLittleEndian(t *testing.T) {
	m := NewMemory()
	if err := m.Store32(0, 0x01020304); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x04, 0x03, 0x02, 0x01}
	for i, b := range want {
		if m.data[i] != b {
			t.Fatalf("byte %d = %#x, want %#x", i, m.data[i], b)
		}
	}
}

func TestMemoryOutOfBounds(t *testing.T) {
	m := NewMemory()

	if _, err := m.Load32(MemSize - 2); err == nil {
		t.Fatal("expected OutOfBounds straddling the end of memory")
	} else if _, ok := err.(OutOfBounds); !ok {
		t.Fatalf("expected OutOfBounds, got %T", err)
	}

	if err := m.Store64(MemSize-4, 0); err == nil {
		t.Fatal("expected OutOfBounds for a store straddling the end")
	}

	// An address near the top of the uint64 range must not wrap around and
	// pass the bounds check.
	if _, err := m.Load8(^uint64(0)); err == nil {
		t.Fatal("expected OutOfBounds for a near-overflow address")
	}
}

func TestMemoryCopyBulk(t *testing.T) {
	m := NewMemory()
	src := []byte{1, 2, 3, 4, 5}
	if err := m.CopyBulk(0x1000, src); err != nil {
		t.Fatal(err)
	}
	for i, b := range src {
		got, err := m.Load8(0x1000 + uint64(i))
		if err != nil || got != b {
			t.Fatalf("byte %d = %#x, %v; want %#x", i, got, err, b)
		}
	}

	if err := m.CopyBulk(MemSize-2, src); err == nil {
		t.Fatal("expected OutOfBounds copying past the end of memory")
	}
}

func TestMemoryBasePointerAndBytes(t *testing.T) {
	m := NewMemory()
	if m.BasePointer() == nil {
		t.Fatal("BasePointer returned nil")
	}
	if len(m.Bytes()) != MemSize {
		t.Fatalf("Bytes() length = %d, want %d", len(m.Bytes()), MemSize)
	}
}
