package main

import (
	"encoding/binary"
	"io"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
)

// Test machine layout. Every exception vector n points at its own RTE at
// testVectorAddr(n), so a test can tell which vector was taken from the PC.
const (
	testROMSize    = 0x20000
	testSSP        = 0x10F000
	testUSP        = 0x10E000
	testCodeBase   = 0x000400
	testVectorBase = 0x008000
	testRAM        = 0x100000
)

func testVectorAddr(vector int) uint32 { return testVectorBase + uint32(vector)*16 }

var (
	testTableOnce sync.Once
	testTable     *DecodeTable
	testTableErr  error
)

// sharedDecodeTable builds the production table once per test binary.
func sharedDecodeTable(t testing.TB) *DecodeTable {
	t.Helper()
	testTableOnce.Do(func() {
		testTable, testTableErr = BuildDecodeTable()
	})
	if testTableErr != nil {
		t.Fatalf("BuildDecodeTable: %v", testTableErr)
	}
	return testTable
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// newTestImage returns a ROM filled with NOPs, with the reset vectors, the
// exception handlers and code placed at testCodeBase.
func newTestImage(size int, code ...uint16) []byte {
	rom := make([]byte, size)
	for i := 0; i+1 < len(rom); i += 2 {
		binary.BigEndian.PutUint16(rom[i:], 0x4E71)
	}
	binary.BigEndian.PutUint32(rom[0:], testSSP)
	binary.BigEndian.PutUint32(rom[4:], testCodeBase)
	for v := 2; v < 256; v++ {
		binary.BigEndian.PutUint32(rom[v*4:], testVectorAddr(v))
		binary.BigEndian.PutUint16(rom[testVectorAddr(v):], 0x4E73) // RTE
	}
	putWords(rom, testCodeBase, code...)
	return rom
}

func putWords(rom []byte, addr uint32, words ...uint16) {
	for i, w := range words {
		binary.BigEndian.PutUint16(rom[addr+uint32(i*2):], w)
	}
}

// newTestEngine builds an engine over a fresh bus with code at
// testCodeBase.
func newTestEngine(t testing.TB, code ...uint16) (*M68KEngine, *SystemBus) {
	t.Helper()
	return newTestEngineROM(t, newTestImage(testROMSize, code...))
}

func newTestEngineROM(t testing.TB, rom []byte) (*M68KEngine, *SystemBus) {
	t.Helper()
	bus := NewSystemBus(quietLog())
	if err := bus.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}
	e := NewM68KEngine(bus, sharedDecodeTable(t), EngineConfig{Log: quietLog()})
	return e, bus
}

// enterUserMode drops to user mode with A7 = testUSP.
func enterUserMode(e *M68KEngine) {
	e.regs.SR &^= M68K_SR_S
	e.regs.SP = e.regs.A[7]
	e.regs.A[7] = testUSP
}

// FlagExpectation uses -1 for a flag the case does not check.
type FlagExpectation struct {
	X, N, Z, V, C int8
}

func FlagsNZVC(n, z, v, c int8) FlagExpectation { return FlagExpectation{-1, n, z, v, c} }

func FlagsXNZVC(x, n, z, v, c int8) FlagExpectation { return FlagExpectation{x, n, z, v, c} }

type MemoryExpectation struct {
	Address uint32
	Size    Size
	Value   uint32
}

// m68kCase is one table-driven instruction test. The opcodes are placed at
// testCodeBase and run with Step.
type m68kCase struct {
	name    string
	opcodes []uint16
	steps   int // default 1
	d       [8]uint32
	a       [7]uint32 // A0-A6; A7 stays the reset SSP
	sr      uint16    // initial CCR
	setup   func(e *M68KEngine, bus *SystemBus)

	wantD     map[int]uint32
	wantA     map[int]uint32
	wantMem   []MemoryExpectation
	wantFlags FlagExpectation
	wantPC    uint32 // 0 means the word after the opcodes
	wantCyc   int    // 0 means not checked
}

func runM68KCases(t *testing.T, cases []m68kCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, bus := newTestEngine(t, tc.opcodes...)
			e.regs.D = tc.d
			copy(e.regs.A[:7], tc.a[:])
			e.setCCR(tc.sr)
			if tc.setup != nil {
				tc.setup(e, bus)
			}

			steps := tc.steps
			if steps == 0 {
				steps = 1
			}
			cycles := 0
			for i := 0; i < steps; i++ {
				n, err := e.Step()
				if err != nil {
					t.Fatalf("step %d: %v", i, err)
				}
				cycles += n
			}

			for r, want := range tc.wantD {
				if got := e.regs.D[r]; got != want {
					t.Errorf("D%d: got 0x%08X, expected 0x%08X", r, got, want)
				}
			}
			for r, want := range tc.wantA {
				if got := e.regs.A[r]; got != want {
					t.Errorf("A%d: got 0x%08X, expected 0x%08X", r, got, want)
				}
			}
			for _, m := range tc.wantMem {
				if got := e.read(m.Address, m.Size); got != m.Value {
					t.Errorf("mem[0x%06X].%s: got 0x%08X, expected 0x%08X", m.Address, m.Size, got, m.Value)
				}
			}
			checkFlags(t, e, tc.wantFlags)

			wantPC := tc.wantPC
			if wantPC == 0 {
				wantPC = testCodeBase + uint32(len(tc.opcodes))*2
			}
			if e.regs.PC != wantPC {
				t.Errorf("PC: got 0x%06X, expected 0x%06X", e.regs.PC, wantPC)
			}
			if tc.wantCyc != 0 && cycles != tc.wantCyc {
				t.Errorf("cycles: got %d, expected %d", cycles, tc.wantCyc)
			}
			if t.Failed() {
				t.Log(spew.Sdump(e.regs))
			}
		})
	}
}

func checkFlags(t *testing.T, e *M68KEngine, want FlagExpectation) {
	t.Helper()
	check := func(name string, f FlagSet, w int8) {
		if w < 0 {
			return
		}
		if got := e.flag(f); got != (w == 1) {
			t.Errorf("flag %s: got %t, expected %t (SR=%04X)", name, got, w == 1, e.regs.SR)
		}
	}
	check("X", FlagX, want.X)
	check("N", FlagN, want.N)
	check("Z", FlagZ, want.Z)
	check("V", FlagV, want.V)
	check("C", FlagC, want.C)
}

func ExpectByte(addr uint32, v uint8) MemoryExpectation {
	return MemoryExpectation{addr, SizeByte, uint32(v)}
}

func ExpectWord(addr uint32, v uint16) MemoryExpectation {
	return MemoryExpectation{addr, SizeWord, uint32(v)}
}

func ExpectLong(addr uint32, v uint32) MemoryExpectation {
	return MemoryExpectation{addr, SizeLong, v}
}
