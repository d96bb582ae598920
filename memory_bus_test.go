package main

import (
	"testing"
)

func newTestBus(t *testing.T, rom []byte) *SystemBus {
	t.Helper()
	bus := NewSystemBus(quietLog())
	if err := bus.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	return bus
}

// TestSystemBusRAMMirror verifies that the 64KB of work RAM repeats
// through the whole RAM region.
func TestSystemBusRAMMirror(t *testing.T) {
	bus := newTestBus(t, newTestImage(testROMSize))

	bus.Store32(RAM_START+0x10, 0xDEADBEEF)
	for _, addr := range []uint32{RAM_START + 0x10, RAM_START + RAM_SIZE + 0x10, RAM_END - RAM_SIZE + 0x11} {
		if got := bus.Fetch32(addr); got != 0xDEADBEEF {
			t.Errorf("Fetch32(0x%06X) = 0x%08X", addr, got)
		}
	}
	if got := bus.Fetch8(RAM_START + 0x11); got != 0xAD {
		t.Errorf("big endian byte order broken: 0x%02X", got)
	}

	bus.Reset()
	if got := bus.Fetch32(RAM_START + 0x10); got != 0 {
		t.Errorf("RAM survived Reset: 0x%08X", got)
	}
}

// Word and long stores that start on the last byte of a RAM mirror wrap to
// its first byte, matching what reads see.
func TestSystemBusRAMEdgeStores(t *testing.T) {
	bus := newTestBus(t, newTestImage(testROMSize))

	tests := []struct {
		name  string
		store func()
		addr  uint32
		want  uint8
	}{
		{"word_high_byte", func() { bus.Store16(RAM_START+RAM_SIZE-1, 0xABCD) }, RAM_START + RAM_SIZE - 1, 0xAB},
		{"word_low_byte_wraps", func() { bus.Store16(RAM_START+RAM_SIZE-1, 0xABCD) }, RAM_START, 0xCD},
		{"long_last_byte", func() { bus.Store32(RAM_START+RAM_SIZE-3, 0x11223344) }, RAM_START + RAM_SIZE - 1, 0x33},
		{"long_wraps", func() { bus.Store32(RAM_START+RAM_SIZE-3, 0x11223344) }, RAM_START, 0x44},
		{"top_mirror", func() { bus.Store16(RAM_END, 0x5566) }, RAM_START + RAM_SIZE - 1, 0x55},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bus.Reset()
			tc.store()
			if got := bus.Fetch8(tc.addr); got != tc.want {
				t.Errorf("Fetch8(0x%06X) = 0x%02X, expected 0x%02X", tc.addr, got, tc.want)
			}
		})
	}

	bus.Reset()
	bus.Store16(RAM_START+RAM_SIZE-1, 0x1234)
	if got := bus.Fetch16(RAM_START + RAM_SIZE - 1); got != 0x1234 {
		t.Errorf("Fetch16 across the mirror edge = 0x%04X", got)
	}
}

// A program storing a word on the last RAM byte runs on.
func TestStoreAtRAMEdge(t *testing.T) {
	e, bus := newTestEngine(t, 0x33C0, 0x0010, 0xFFFF) // MOVE.W D0,$10FFFF
	e.regs.D[0] = 0xBEEF

	if _, err := e.Step(); err != nil {
		t.Fatal(err)
	}
	if hi, lo := bus.Fetch8(0x10FFFF), bus.Fetch8(RAM_START); hi != 0xBE || lo != 0xEF {
		t.Errorf("stored 0x%02X 0x%02X", hi, lo)
	}
	if e.regs.PC != testCodeBase+6 {
		t.Errorf("PC 0x%06X", e.regs.PC)
	}
}

func TestSystemBusROMIsReadOnly(t *testing.T) {
	rom := newTestImage(testROMSize)
	putWords(rom, 0x10, 0x1234)
	bus := newTestBus(t, rom)

	bus.Store16(0x10, 0xFFFF)
	bus.Store8(0x11, 0xFF)
	if got := bus.Fetch16(0x10); got != 0x1234 {
		t.Errorf("ROM changed to 0x%04X", got)
	}

	if err := bus.PatchROM(0x10, 0x5678); err != nil {
		t.Fatal(err)
	}
	if got := bus.Fetch16(0x10); got != 0x5678 {
		t.Errorf("PatchROM: 0x%04X", got)
	}
	if err := bus.PatchROM(testROMSize-2, 0x1111, 0x2222); err == nil {
		t.Error("patch past the end of ROM accepted")
	}
}

func TestSystemBusOpenBus(t *testing.T) {
	bus := newTestBus(t, newTestImage(testROMSize))

	for _, addr := range []uint32{0x500000, testROMSize + 0x100, BIOS_START} {
		if got := bus.Fetch8(addr); got != OPEN_BUS_PATTERN {
			t.Errorf("Fetch8(0x%06X) = 0x%02X", addr, got)
		}
	}
	if got := bus.Fetch16(0x500000); got != 0xF0F0 {
		t.Errorf("Fetch16 = 0x%04X", got)
	}
	if bus.Window(0x500000) != nil {
		t.Error("open bus has a fetch window")
	}
	if w := bus.Window(testCodeBase); len(w) != testROMSize-testCodeBase {
		t.Errorf("window length %d", len(w))
	}
}

func TestSystemBusBanks(t *testing.T) {
	rom := newTestImage(0x300000)
	putWords(rom, 0x100000, 0xAAAA)
	putWords(rom, 0x200000, 0xBBBB)
	bus := newTestBus(t, rom)

	tests := []struct {
		name string
		sel  uint8
		want uint16
		bank uint32
	}{
		{"power_on", 0xFF, 0xAAAA, 0x100000},
		{"bank_1", 1, 0xBBBB, 0x200000},
		{"bank_0", 0, 0xAAAA, 0x100000},
		{"past_end_falls_back", 5, 0xAAAA, 0x100000},
		{"high_bits_ignored", 0x09, 0xBBBB, 0x200000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.sel != 0xFF {
				bus.Store8(ROM_BANK_SELECT, tc.sel)
			}
			if got := bus.Fetch16(ROM_BANK_START); got != tc.want {
				t.Errorf("window reads 0x%04X, expected 0x%04X", got, tc.want)
			}
			m, err := bus.Region(ROM_BANK_START)
			if err != nil {
				t.Fatal(err)
			}
			if m.Class != RegionCacheable || m.Bank != tc.bank {
				t.Errorf("region %+v", m)
			}
		})
	}

	bus.Store8(ROM_BANK_SELECT, 1)
	bus.ResetDevices()
	if bus.Bank() != 0x100000 {
		t.Errorf("ResetDevices left bank 0x%06X", bus.Bank())
	}
}

func TestSystemBusRegions(t *testing.T) {
	bus := newTestBus(t, newTestImage(testROMSize))
	if err := bus.LoadBIOS(make([]byte, 0x100)); err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		addr  uint32
		class RegionClass
		phys  uint32
	}{
		{testCodeBase, RegionCacheable, testCodeBase},
		{RAM_START + RAM_SIZE + 4, RegionVolatile, 4},
		{BIOS_START + 0x10, RegionCacheable, 0x10},
		{IO_CONTROLLER1, RegionVolatile, IO_CONTROLLER1},
	}
	for _, tc := range tests {
		m, err := bus.Region(tc.addr)
		if err != nil {
			t.Errorf("0x%06X: %v", tc.addr, err)
			continue
		}
		if m.Class != tc.class || m.Physical != tc.phys {
			t.Errorf("0x%06X: got %s/0x%06X, expected %s/0x%06X", tc.addr, m.Class, m.Physical, tc.class, tc.phys)
		}
	}
}

func TestSystemBusMapIO(t *testing.T) {
	bus := newTestBus(t, newTestImage(testROMSize))

	var written []uint32
	// The region straddles a page boundary.
	bus.MapIO(0x4000FE, 0x400101,
		func(addr uint32) uint8 { return uint8(addr) },
		func(addr uint32, value uint8) { written = append(written, addr<<8|uint32(value)) })

	if got := bus.Fetch8(0x400100); got != 0x00 {
		t.Errorf("Fetch8 on second page = 0x%02X", got)
	}
	if got := bus.Fetch16(0x4000FE); got != 0xFEFF {
		t.Errorf("Fetch16 = 0x%04X", got)
	}
	if got := bus.Fetch8(0x400102); got != OPEN_BUS_PATTERN {
		t.Errorf("outside region = 0x%02X", got)
	}

	bus.Store16(0x400100, 0xA55A)
	if len(written) != 2 || written[0] != 0x400100A5 || written[1] != 0x4001015A {
		t.Errorf("writes %X", written)
	}
}

func TestSystemBusLoadErrors(t *testing.T) {
	bus := NewSystemBus(quietLog())
	if err := bus.LoadROM(nil); err == nil {
		t.Error("empty ROM accepted")
	}
	if err := bus.LoadROM(make([]byte, 3)); err == nil {
		t.Error("odd sized ROM accepted")
	}
	if err := bus.LoadBIOS(make([]byte, BIOS_END-BIOS_START+2)); err == nil {
		t.Error("oversized BIOS accepted")
	}
}

// TestResetInstruction checks that RESET reaches the bus's device hooks.
func TestResetInstruction(t *testing.T) {
	e, bus := newTestEngine(t, 0x4E70, 0x4E75) // RESET ; RTS
	resets := 0
	bus.OnReset(func() { resets++ })

	n, err := e.Step()
	if err != nil {
		t.Fatal(err)
	}
	if resets != 1 {
		t.Errorf("hooks ran %d times", resets)
	}
	if n != 132 || e.regs.PC != testCodeBase+2 {
		t.Errorf("cycles %d PC 0x%06X", n, e.regs.PC)
	}
}
