package main

import "testing"

func TestRegABIName(t *testing.T) {
	cases := map[uint8]string{
		RegZero: "zero",
		RegRA:   "ra",
		RegSP:   "sp",
		RegA0:   "a0",
		RegA7:   "a7",
		31:      "t6",
	}
	for r, want := range cases {
		if got := regABIName(r); got != want {
			t.Errorf("regABIName(%d) = %q, want %q", r, got, want)
		}
	}
}

func TestRegABINameOutOfRange(t *testing.T) {
	if got := regABIName(200); got != "?" {
		t.Errorf("regABIName(200) = %q, want \"?\"", got)
	}
}

func TestRegByABIName(t *testing.T) {
	r, ok := regByABIName("sp")
	if !ok || r != RegSP {
		t.Fatalf("regByABIName(sp) = %d, %v", r, ok)
	}

	if _, ok := regByABIName("not-a-register"); ok {
		t.Fatal("expected ok=false for an unknown register name")
	}
}

func TestRegNameRoundTrip(t *testing.T) {
	for i := 0; i < 32; i++ {
		name := regABIName(uint8(i))
		r, ok := regByABIName(name)
		if !ok || int(r) != i {
			t.Errorf("round trip for reg %d (%q) failed: got %d, %v", i, name, r, ok)
		}
	}
}
