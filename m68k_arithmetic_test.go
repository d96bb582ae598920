package main

import (
	"testing"
)

// ============================================================================
// ADD / SUB / quick forms
// ============================================================================

func TestAddSub(t *testing.T) {
	runM68KCases(t, []m68kCase{
		{
			name:      "ADD.L_D1_D0_basic",
			opcodes:   []uint16{0xD081},
			d:         [8]uint32{0x00000010, 0x00000005},
			wantD:     map[int]uint32{0: 0x00000015},
			wantFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			name:      "ADD.L_D1_D0_overflow_positive",
			opcodes:   []uint16{0xD081},
			d:         [8]uint32{0x7FFFFFFF, 0x00000001},
			wantD:     map[int]uint32{0: 0x80000000},
			wantFlags: FlagsNZVC(1, 0, 1, 0),
		},
		{
			name:      "ADD.L_D1_D0_carry_to_zero",
			opcodes:   []uint16{0xD081},
			d:         [8]uint32{0xFFFFFFFF, 0x00000001},
			wantD:     map[int]uint32{0: 0},
			wantFlags: FlagsXNZVC(1, 0, 1, 0, 1),
		},
		{
			name:      "ADD.W_D1_D0_keeps_upper_word",
			opcodes:   []uint16{0xD041},
			d:         [8]uint32{0xFFFF0010, 0x00000005},
			wantD:     map[int]uint32{0: 0xFFFF0015},
			wantFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			name:      "ADD.B_D1_D0_signed_overflow",
			opcodes:   []uint16{0xD001},
			d:         [8]uint32{0x00000070, 0x00000020},
			wantD:     map[int]uint32{0: 0x00000090},
			wantFlags: FlagsNZVC(1, 0, 1, 0),
		},
		{
			name:      "SUB.L_D1_D0_borrow",
			opcodes:   []uint16{0x9081},
			d:         [8]uint32{5, 6},
			wantD:     map[int]uint32{0: 0xFFFFFFFF},
			wantFlags: FlagsXNZVC(1, 1, 0, 0, 1),
		},
		{
			name:      "SUB.W_D1_D0_overflow",
			opcodes:   []uint16{0x9041},
			d:         [8]uint32{0x00008000, 1},
			wantD:     map[int]uint32{0: 0x00007FFF},
			wantFlags: FlagsNZVC(0, 0, 1, 0),
		},
		{
			name:      "ADDQ.L_#1_D0_wraps",
			opcodes:   []uint16{0x5280},
			d:         [8]uint32{0xFFFFFFFF},
			wantD:     map[int]uint32{0: 0},
			wantFlags: FlagsXNZVC(1, 0, 1, 0, 1),
		},
		{
			name:      "ADDQ.W_#8_A0_whole_register_no_flags",
			opcodes:   []uint16{0x5048},
			a:         [7]uint32{0x0000FFFF},
			sr:        0x1F,
			wantA:     map[int]uint32{0: 0x00010007},
			wantFlags: FlagsXNZVC(1, 1, 1, 1, 1),
		},
		{
			name:    "SUBQ.L_#2_A1",
			opcodes: []uint16{0x5589},
			a:       [7]uint32{0, 0x00100001},
			wantA:   map[int]uint32{1: 0x000FFFFF},
		},
		{
			name:    "ADDA.W_D1_A0_sign_extends",
			opcodes: []uint16{0xD0C1},
			d:       [8]uint32{0, 0x0000FFFF},
			a:       [7]uint32{0x00000100},
			wantA:   map[int]uint32{0: 0x000000FF},
		},
		{
			name:      "ADDX.L_D1_D0_with_extend",
			opcodes:   []uint16{0xD181},
			d:         [8]uint32{1, 1},
			sr:        M68K_SR_X | M68K_SR_Z,
			wantD:     map[int]uint32{0: 3},
			wantFlags: FlagsXNZVC(0, 0, 0, 0, 0),
		},
		{
			name:      "ADDX.L_D1_D0_zero_keeps_Z",
			opcodes:   []uint16{0xD181},
			d:         [8]uint32{0xFFFFFFFF, 0},
			sr:        M68K_SR_X | M68K_SR_Z,
			wantD:     map[int]uint32{0: 0},
			wantFlags: FlagsXNZVC(1, 0, 1, 0, 1),
		},
		{
			name:      "ADDX.L_D1_D0_zero_does_not_set_Z",
			opcodes:   []uint16{0xD181},
			d:         [8]uint32{0xFFFFFFFF, 0},
			sr:        M68K_SR_X,
			wantD:     map[int]uint32{0: 0},
			wantFlags: FlagsXNZVC(1, 0, 0, 0, 1),
		},
		{
			name:      "NEG.L_D0",
			opcodes:   []uint16{0x4480},
			d:         [8]uint32{1},
			wantD:     map[int]uint32{0: 0xFFFFFFFF},
			wantFlags: FlagsXNZVC(1, 1, 0, 0, 1),
		},
		{
			name:      "NEG.B_D0_most_negative",
			opcodes:   []uint16{0x4400},
			d:         [8]uint32{0x80},
			wantD:     map[int]uint32{0: 0x80},
			wantFlags: FlagsXNZVC(1, 1, 0, 1, 1),
		},
		{
			name:      "NEG.L_D0_zero",
			opcodes:   []uint16{0x4480},
			wantD:     map[int]uint32{0: 0},
			wantFlags: FlagsXNZVC(0, 0, 1, 0, 0),
		},
	})
}

// ============================================================================
// Compare
// ============================================================================

func TestCompare(t *testing.T) {
	runM68KCases(t, []m68kCase{
		{
			name:      "CMP.L_D1_D0_equal_keeps_X",
			opcodes:   []uint16{0xB081},
			d:         [8]uint32{5, 5},
			sr:        M68K_SR_X,
			wantD:     map[int]uint32{0: 5},
			wantFlags: FlagsXNZVC(1, 0, 1, 0, 0),
		},
		{
			name:      "CMPI.W_#$1234_D0_lower",
			opcodes:   []uint16{0x0C40, 0x1234},
			d:         [8]uint32{0x1000},
			wantFlags: FlagsNZVC(1, 0, 0, 1),
		},
		{
			name:      "CMPA.W_D1_A0_sign_extended_equal",
			opcodes:   []uint16{0xB0C1},
			d:         [8]uint32{0, 0x0000FFFF},
			a:         [7]uint32{0xFFFFFFFF},
			wantFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			name:    "CMPM.B_(A0)+_(A1)+",
			opcodes: []uint16{0xB308},
			a:       [7]uint32{testRAM, testRAM + 0x10},
			setup: func(e *M68KEngine, bus *SystemBus) {
				bus.Store8(testRAM, 0x40)
				bus.Store8(testRAM+0x10, 0x40)
			},
			wantA:     map[int]uint32{0: testRAM + 1, 1: testRAM + 0x11},
			wantFlags: FlagsNZVC(0, 1, 0, 0),
		},
	})
}

// ============================================================================
// Multiply / divide
// ============================================================================

func TestMultiplyDivide(t *testing.T) {
	runM68KCases(t, []m68kCase{
		{
			name:      "MULU.W_D1_D0",
			opcodes:   []uint16{0xC0C1},
			d:         [8]uint32{0x1234FFFF, 0x0000FFFF},
			wantD:     map[int]uint32{0: 0xFFFE0001},
			wantFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			name:      "MULS.W_D1_D0_negative",
			opcodes:   []uint16{0xC1C1},
			d:         [8]uint32{0x0000FFFF, 2},
			wantD:     map[int]uint32{0: 0xFFFFFFFE},
			wantFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			name:      "DIVU.W_D1_D0",
			opcodes:   []uint16{0x80C1},
			d:         [8]uint32{100, 7},
			wantD:     map[int]uint32{0: 0x0002000E},
			wantFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			name:      "DIVU.W_D1_D0_overflow_leaves_register",
			opcodes:   []uint16{0x80C1},
			d:         [8]uint32{0x00010000, 1},
			wantD:     map[int]uint32{0: 0x00010000},
			wantFlags: FlagsNZVC(-1, -1, 1, 0),
		},
		{
			name:      "DIVS.W_D1_D0_truncates_toward_zero",
			opcodes:   []uint16{0x81C1},
			d:         [8]uint32{0xFFFFFFF9, 2},
			wantD:     map[int]uint32{0: 0xFFFFFFFD},
			wantFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			name:    "DIVU.W_by_zero_traps",
			opcodes: []uint16{0x80C1},
			d:       [8]uint32{100, 0},
			wantD:   map[int]uint32{0: 100},
			wantPC:  testVectorAddr(M68K_VEC_ZERO_DIVIDE),
			wantMem: []MemoryExpectation{
				ExpectLong(testSSP-4, testCodeBase+2),
			},
		},
	})
}

// ============================================================================
// Register forms: EXT, SWAP, CLR, TST, EXG
// ============================================================================

func TestRegisterForms(t *testing.T) {
	runM68KCases(t, []m68kCase{
		{
			name:      "EXT.W_D0",
			opcodes:   []uint16{0x4880},
			d:         [8]uint32{0x12345680},
			wantD:     map[int]uint32{0: 0x1234FF80},
			wantFlags: FlagsNZVC(1, 0, 0, 0),
		},
		{
			name:    "EXT.L_D0",
			opcodes: []uint16{0x48C0},
			d:       [8]uint32{0x00008000},
			wantD:   map[int]uint32{0: 0xFFFF8000},
		},
		{
			name:      "SWAP_D0",
			opcodes:   []uint16{0x4840},
			d:         [8]uint32{0x12345678},
			wantD:     map[int]uint32{0: 0x56781234},
			wantFlags: FlagsNZVC(0, 0, 0, 0),
		},
		{
			name:      "CLR.W_D0",
			opcodes:   []uint16{0x4240},
			d:         [8]uint32{0xFFFFFFFF},
			sr:        M68K_SR_N | M68K_SR_C,
			wantD:     map[int]uint32{0: 0xFFFF0000},
			wantFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			name:      "TST.L_D0_zero",
			opcodes:   []uint16{0x4A80},
			wantFlags: FlagsNZVC(0, 1, 0, 0),
		},
		{
			name:    "EXG_D0_D1",
			opcodes: []uint16{0xC141},
			d:       [8]uint32{0x11111111, 0x22222222},
			wantD:   map[int]uint32{0: 0x22222222, 1: 0x11111111},
		},
		{
			name:    "EXG_D0_A1",
			opcodes: []uint16{0xC189},
			d:       [8]uint32{0x11111111},
			a:       [7]uint32{0, 0x22222222},
			wantD:   map[int]uint32{0: 0x22222222},
			wantA:   map[int]uint32{1: 0x11111111},
		},
	})
}
