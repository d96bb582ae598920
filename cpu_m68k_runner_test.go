package main

import (
	"testing"
)

func TestRunForOverrun(t *testing.T) {
	// loop: ADDQ.L #1,D0 (8) ; BRA.S loop (10)
	e, _ := newTestEngine(t, 0x5280, 0x60FC)

	over, err := e.RunFor(20)
	if err != nil {
		t.Fatal(err)
	}
	if over != -16 {
		t.Errorf("overrun %d, expected -16", over)
	}
	if e.Clocks() != 36 || e.regs.D[0] != 2 {
		t.Errorf("clocks %d D0 %d", e.Clocks(), e.regs.D[0])
	}

	// A budget already used up by the last overrun runs nothing.
	over, err = e.RunFor(over)
	if err != nil || over != -16 || e.Clocks() != 36 {
		t.Errorf("non-positive budget: over %d clocks %d err %v", over, e.Clocks(), err)
	}
}

func TestRunForMatchesStep(t *testing.T) {
	code := []uint16{
		0x720A,         // MOVEQ #10,D1
		0xD081,         // loop: ADD.L D1,D0
		0x5381,         // SUBQ.L #1,D1
		0x66FA,         // BNE loop
		0x40C7,         // MOVE SR,D7
		0x4E72, 0x2700, // STOP #$2700
	}

	cached, _ := newTestEngine(t, code...)
	for i := 0; i < 100 && !cached.regs.Stopped; i++ {
		if _, err := cached.RunFor(50); err != nil {
			t.Fatal(err)
		}
	}

	stepped, _ := newTestEngine(t, code...)
	for i := 0; i < 1000 && !stepped.regs.Stopped; i++ {
		if _, err := stepped.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if !cached.regs.Stopped || !stepped.regs.Stopped {
		t.Fatal("program did not reach STOP")
	}
	if cached.Registers() != stepped.Registers() {
		t.Errorf("cached and stepped runs differ:\n  cached  %s\n  stepped %s", &cached.regs, &stepped.regs)
	}
	if cached.regs.D[0] != 55 {
		t.Errorf("D0=%d, expected 55", cached.regs.D[0])
	}
	if sr := cached.regs.D[7] & 0xFFFF; sr != 0x2704 {
		t.Errorf("stacked SR 0x%04X, expected 0x2704", sr)
	}
	if cached.Stats().BlockBuilds == 0 || stepped.Stats().BlockBuilds != 0 {
		t.Errorf("builds: cached %d stepped %d", cached.Stats().BlockBuilds, stepped.Stats().BlockBuilds)
	}
}

func TestRunForVolatileRAM(t *testing.T) {
	e, bus := newTestEngine(t, 0x4EF9, 0x0010, 0x0000) // JMP $100000
	bus.Store16(RAM_START, 0x7001)                     // MOVEQ #1,D0
	bus.Store32(RAM_START+2, 0x4E722700)               // STOP #$2700

	if _, err := e.RunFor(200); err != nil {
		t.Fatal(err)
	}
	if e.regs.D[0] != 1 {
		t.Fatalf("D0=%d", e.regs.D[0])
	}

	bus.Store16(RAM_START, 0x7002)
	e.regs.PC = RAM_START
	e.regs.Stopped = false
	if _, err := e.RunFor(200); err != nil {
		t.Fatal(err)
	}
	if e.regs.D[0] != 2 {
		t.Errorf("RAM code was not re-decoded: D0=%d", e.regs.D[0])
	}
	st := e.Stats()
	if st.VolatileInstrs != 4 || st.CachedBlocks != 1 {
		t.Errorf("stats: %+v", st)
	}
}

func TestRunForStaleROMUntilCleared(t *testing.T) {
	e, bus := newTestEngine(t, 0x7001, 0x4E72, 0x2700)
	rerun := func() {
		t.Helper()
		e.regs.PC = testCodeBase
		e.regs.Stopped = false
		if _, err := e.RunFor(100); err != nil {
			t.Fatal(err)
		}
	}

	rerun()
	if err := bus.PatchROM(testCodeBase, 0x7002); err != nil {
		t.Fatal(err)
	}
	rerun()
	if e.regs.D[0] != 1 {
		t.Errorf("expected the cached block to run, D0=%d", e.regs.D[0])
	}
	e.ClearCache()
	rerun()
	if e.regs.D[0] != 2 {
		t.Errorf("expected the patched code after ClearCache, D0=%d", e.regs.D[0])
	}
}

// After ClearCache and a reset, rebuilt blocks retrace the first run slice
// for slice, registers and RAM alike.
func TestRunForTrajectoryAfterClearCache(t *testing.T) {
	e, bus := newTestEngine(t,
		0x207C, 0x0010, 0x0000, // MOVEA.L #$100000,A0
		0x7000,                 // MOVEQ #0,D0
		0x5680,                 // loop: ADDQ.L #3,D0
		0x20C0,                 // MOVE.L D0,(A0)+
		0xB1FC, 0x0010, 0x0040, // CMPA.L #$100040,A0
		0x66F4,                 // BNE.S loop
		0x60EA,                 // BRA.S to the start
	)

	type sample struct {
		regs Registers
		ram  [0x40]byte
	}
	trace := func() []sample {
		var out []sample
		for i := 0; i < 60; i++ {
			if _, err := e.RunFor(37); err != nil {
				t.Fatal(err)
			}
			s := sample{regs: e.Registers()}
			for j := range s.ram {
				s.ram[j] = bus.Fetch8(RAM_START + uint32(j))
			}
			out = append(out, s)
		}
		return out
	}

	first := trace()
	if e.Stats().BlockBuilds == 0 {
		t.Fatal("nothing was cached")
	}
	e.ClearCache()
	bus.Reset()
	e.Reset()
	second := trace()

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slice %d differs:\n  first  %s\n  second %s", i, &first[i].regs, &second[i].regs)
		}
	}
}

func TestRunForStopped(t *testing.T) {
	e, _ := newTestEngine(t, 0x4E72, 0x2000) // STOP #$2000

	over, err := e.RunFor(1000)
	if err != nil {
		t.Fatal(err)
	}
	if over != 0 || e.Clocks() != 1000 {
		t.Errorf("overrun %d clocks %d", over, e.Clocks())
	}
	if !e.regs.Stopped || e.regs.PC != testCodeBase {
		t.Errorf("stopped %t at 0x%06X", e.regs.Stopped, e.regs.PC)
	}

	n, err := e.Step()
	if err != nil || n != M68K_IDLE_CYCLES {
		t.Errorf("Step while stopped: %d %v", n, err)
	}
	if e.Clocks() != 1000+M68K_IDLE_CYCLES {
		t.Errorf("clocks %d", e.Clocks())
	}

	if e.FieldClocks() != e.Clocks() {
		t.Errorf("field clocks %d, clocks %d", e.FieldClocks(), e.Clocks())
	}
	e.EndField()
	if e.FieldClocks() != 0 || e.Clocks() != 1000+M68K_IDLE_CYCLES {
		t.Errorf("after EndField: field %d clocks %d", e.FieldClocks(), e.Clocks())
	}
}

func TestEngineReset(t *testing.T) {
	e, _ := newTestEngine(t, 0x5280, 0x60FC)
	if _, err := e.RunFor(500); err != nil {
		t.Fatal(err)
	}
	e.regs.SR = 0x0000
	e.RequestAutovector(3)

	e.Reset()
	r := e.Registers()
	if r.PC != testCodeBase || r.A[7] != testSSP || r.SR != M68K_SR_S|M68K_SR_IPL_MASK {
		t.Errorf("after reset: %s", &r)
	}
	if r.Pending != 0 || r.Stopped {
		t.Errorf("pending %d stopped %t", r.Pending, r.Stopped)
	}
	if e.Clocks() != 0 || e.FieldClocks() != 0 || e.cache.Len() != 0 {
		t.Errorf("clocks %d field %d blocks %d", e.Clocks(), e.FieldClocks(), e.cache.Len())
	}
}

func TestRunnerFrames(t *testing.T) {
	// MOVE #$2000,SR ; loop: ADDQ.L #1,D0 ; BRA.S loop
	e, _ := newTestEngine(t, 0x46FC, 0x2000, 0x5280, 0x60FC)
	cfg := FrameConfig{
		CyclesPerFrame: 2640,
		Scanlines:      264,
		RasterLine:     10,
		VBlankLevel:    1,
		RasterLevel:    2,
	}
	r := NewM68KRunner(e, cfg)
	if r.SliceCycles() != 10 {
		t.Fatalf("slice %d", r.SliceCycles())
	}

	if err := r.RunFrame(); err != nil {
		t.Fatal(err)
	}
	if r.Frames() != 1 || e.FieldClocks() != 0 {
		t.Errorf("frames %d field clocks %d", r.Frames(), e.FieldClocks())
	}
	if e.Clocks() != uint64(2640-r.carry) {
		t.Errorf("clocks %d with carry %d", e.Clocks(), r.carry)
	}
	if got := e.Stats().Interrupts; got != 1 {
		t.Errorf("raster interrupt: %d delivered", got)
	}
	if e.regs.Pending != cfg.VBlankLevel {
		t.Errorf("vblank not pending: %d", e.regs.Pending)
	}

	if err := r.RunFrame(); err != nil {
		t.Fatal(err)
	}
	if got := e.Stats().Interrupts; got != 3 {
		t.Errorf("after two frames: %d interrupts", got)
	}

	r.Reset()
	if r.Frames() != 0 || e.Clocks() != 0 || r.carry != 0 {
		t.Errorf("runner reset: frames %d clocks %d carry %d", r.Frames(), e.Clocks(), r.carry)
	}
}

func TestRunnerOverclock(t *testing.T) {
	tests := []struct {
		overclock int
		want      int
	}{
		{0, 200000 / 264},
		{50, 300000 / 264},
		{100, 400000 / 264},
		{-100, 1},
	}
	for _, tc := range tests {
		e, _ := newTestEngine(t)
		cfg := DefaultFrameConfig()
		cfg.Overclock = tc.overclock
		if got := NewM68KRunner(e, cfg).SliceCycles(); got != tc.want {
			t.Errorf("overclock %d%%: slice %d, expected %d", tc.overclock, got, tc.want)
		}
	}
}
