// cpu_m68k_runner.go - Clock budgeted execution and the frame runner

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Step runs exactly one instruction, uncached, after honouring a pending
// interrupt. A stopped CPU idles for M68K_IDLE_CYCLES.
func (e *M68KEngine) Step() (int, error) {
	e.serviceAutovector()
	if e.regs.Stopped {
		e.addClocks(M68K_IDLE_CYCLES)
		return M68K_IDLE_CYCLES, nil
	}
	f := e.newFetcher(e.regs.PC)
	ipc, err := e.decode(&f, e.regs.PC&M68K_ADDRESS_MASK)
	if err != nil {
		return 0, e.fatal(err)
	}
	ipc.handler.call(e, &ipc)
	e.stats.Instructions++
	e.addClocks(ipc.iib.Cycles)
	return ipc.iib.Cycles, nil
}

// RunFor executes whole blocks until at least budget cycles have been
// consumed and returns the overrun as a value <= 0, which the host adds to
// its next budget. A stopped CPU consumes the rest of the budget.
func (e *M68KEngine) RunFor(budget int) (int, error) {
	for budget > 0 {
		e.serviceAutovector()
		if e.regs.Stopped {
			e.addClocks(budget)
			return 0, nil
		}

		pc := e.regs.PC & M68K_ADDRESS_MASK
		m, err := e.bus.Region(pc)
		if err != nil {
			return budget, e.fatal(&FatalError{Kind: FatalBankResolve, Addr: pc, Detail: err.Error()})
		}

		var cost int
		if m.Class == RegionVolatile {
			cost, err = e.runUncached(pc)
		} else {
			var b *Block
			b, err = e.getOrBuild(pc, m.Bank)
			if err == nil {
				cost = e.runBlock(b)
			}
		}
		if err != nil {
			return budget, e.fatal(err)
		}
		budget -= cost
		e.addClocks(cost)
	}
	return budget, nil
}

func (e *M68KEngine) runBlock(b *Block) int {
	for i := range b.Instrs {
		ipc := &b.Instrs[i]
		ipc.handler.call(e, ipc)
	}
	e.stats.Instructions += uint64(len(b.Instrs))
	return b.Clocks
}

// runUncached interprets from pc up to the first block-ending instruction
// without caching anything. Every instruction computes all of its flags.
func (e *M68KEngine) runUncached(pc uint32) (int, error) {
	cost := 0
	for n := 0; ; n++ {
		if n >= e.maxBlockInstrs {
			return cost, &FatalError{
				Kind:   FatalRunawayDecode,
				Addr:   pc,
				Detail: fmt.Sprintf("no block terminator within %d uncached instructions", e.maxBlockInstrs),
			}
		}
		addr := e.regs.PC & M68K_ADDRESS_MASK
		f := e.newFetcher(addr)
		ipc, err := e.decode(&f, addr)
		if err != nil {
			return cost, err
		}
		ipc.handler.call(e, &ipc)
		cost += ipc.iib.Cycles
		e.stats.Instructions++
		e.stats.VolatileInstrs++
		if ipc.iib.EndBlock {
			return cost, nil
		}
	}
}

// fatal logs a fatal condition with its location and hands it back.
func (e *M68KEngine) fatal(err error) error {
	fields := logrus.Fields{"kind": "unknown"}
	if fe, ok := IsFatal(err); ok {
		fields = logrus.Fields{
			"kind":   fe.Kind.String(),
			"pc":     fmt.Sprintf("0x%06X", fe.Addr),
			"opcode": fmt.Sprintf("0x%04X", fe.Opcode),
			"bank":   fmt.Sprintf("0x%06X", fe.Bank),
		}
	}
	e.log.WithFields(fields).Error(err)
	return err
}

// FrameConfig describes how a host slices a video frame into CPU time.
type FrameConfig struct {
	// CyclesPerFrame is the 68000 timeslice for one frame at the nominal
	// clock.
	CyclesPerFrame int
	// Overclock adds this percentage of CyclesPerFrame; 0 is nominal.
	Overclock int
	Scanlines int
	// RasterLine raises a level 2 autovector when reached; negative
	// disables it.
	RasterLine  int
	VBlankLevel int
	RasterLevel int
}

// DefaultFrameConfig matches a 12 MHz 68000 at 60 frames per second with
// 264 scanlines.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{
		CyclesPerFrame: 200000,
		Scanlines:      264,
		RasterLine:     -1,
		VBlankLevel:    1,
		RasterLevel:    2,
	}
}

// M68KRunner drives an engine frame by frame, carrying each slice's
// overrun into the next.
type M68KRunner struct {
	cpu      *M68KEngine
	cfg      FrameConfig
	slice    int
	carry    int
	frames   uint64
	scanline int
	log      *logrus.Entry
}

func NewM68KRunner(cpu *M68KEngine, cfg FrameConfig) *M68KRunner {
	if cfg.Scanlines <= 0 {
		cfg.Scanlines = 1
	}
	r := &M68KRunner{cpu: cpu, cfg: cfg, log: cpu.log.WithField("component", "frame")}
	r.slice = (cfg.CyclesPerFrame + cfg.CyclesPerFrame*cfg.Overclock/100) / cfg.Scanlines
	if r.slice < 1 {
		r.slice = 1
	}
	return r
}

func (r *M68KRunner) CPU() *M68KEngine { return r.cpu }

func (r *M68KRunner) Frames() uint64 { return r.frames }

func (r *M68KRunner) Scanline() int { return r.scanline }

// SliceCycles is the budget handed to the engine per scanline before carry.
func (r *M68KRunner) SliceCycles() int { return r.slice }

// Reset resets the engine and the frame counters.
func (r *M68KRunner) Reset() {
	r.cpu.Reset()
	r.carry = 0
	r.frames = 0
	r.scanline = 0
}

// RunFrame runs every scanline of one frame, raises the vertical blank
// interrupt and closes the field.
func (r *M68KRunner) RunFrame() error {
	for r.scanline = 0; r.scanline < r.cfg.Scanlines; r.scanline++ {
		if r.scanline == r.cfg.RasterLine && r.cfg.RasterLevel > 0 {
			r.cpu.RequestAutovector(r.cfg.RasterLevel)
		}
		over, err := r.cpu.RunFor(r.slice + r.carry)
		if err != nil {
			return err
		}
		r.carry = over
	}
	if r.cfg.VBlankLevel > 0 {
		r.cpu.RequestAutovector(r.cfg.VBlankLevel)
	}
	r.cpu.EndField()
	r.frames++
	r.log.WithField("frame", r.frames).Trace("frame done")
	return nil
}
