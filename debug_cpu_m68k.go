// debug_cpu_m68k.go - M68K debug adapter for the monitor and script host

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/bradleyjkemp/memviz"
	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

func init() {
	compiledFeatures = append(compiledFeatures, "debug:cache-graph")
}

type RegisterInfo struct {
	Name     string
	BitWidth int
	Value    uint64
	Group    string
}

// DebugM68K gives the monitor and the Lua host one view of an engine.
type DebugM68K struct {
	cpu    *M68KEngine
	runner *M68KRunner
}

func NewDebugM68K(runner *M68KRunner) *DebugM68K {
	return &DebugM68K{cpu: runner.CPU(), runner: runner}
}

// usp and ssp pick the right copy of each stack pointer for the current
// mode.
func (d *DebugM68K) usp() uint32 {
	r := &d.cpu.regs
	if r.SR&M68K_SR_S != 0 {
		return r.SP
	}
	return r.A[7]
}

func (d *DebugM68K) ssp() uint32 {
	r := &d.cpu.regs
	if r.SR&M68K_SR_S != 0 {
		return r.A[7]
	}
	return r.SP
}

func (d *DebugM68K) GetRegisters() []RegisterInfo {
	r := &d.cpu.regs
	regs := make([]RegisterInfo, 0, 20)
	for i := 0; i < 8; i++ {
		regs = append(regs, RegisterInfo{
			Name: fmt.Sprintf("D%d", i), BitWidth: 32,
			Value: uint64(r.D[i]), Group: "general",
		})
	}
	for i := 0; i < 8; i++ {
		regs = append(regs, RegisterInfo{
			Name: fmt.Sprintf("A%d", i), BitWidth: 32,
			Value: uint64(r.A[i]), Group: "general",
		})
	}
	regs = append(regs, RegisterInfo{Name: "PC", BitWidth: 32, Value: uint64(r.PC), Group: "general"})
	regs = append(regs, RegisterInfo{Name: "SR", BitWidth: 16, Value: uint64(r.SR), Group: "flags"})
	regs = append(regs, RegisterInfo{Name: "USP", BitWidth: 32, Value: uint64(d.usp()), Group: "general"})
	regs = append(regs, RegisterInfo{Name: "SSP", BitWidth: 32, Value: uint64(d.ssp()), Group: "general"})
	return regs
}

func (d *DebugM68K) GetRegister(name string) (uint64, bool) {
	r := &d.cpu.regs
	upper := strings.ToUpper(name)
	switch {
	case upper == "PC":
		return uint64(r.PC), true
	case upper == "SR":
		return uint64(r.SR), true
	case upper == "CCR":
		return uint64(r.SR & M68K_SR_CCR), true
	case upper == "USP":
		return uint64(d.usp()), true
	case upper == "SSP":
		return uint64(d.ssp()), true
	case upper == "SP":
		return uint64(r.A[7]), true
	case len(upper) == 2 && upper[0] == 'D' && upper[1] >= '0' && upper[1] <= '7':
		return uint64(r.D[upper[1]-'0']), true
	case len(upper) == 2 && upper[0] == 'A' && upper[1] >= '0' && upper[1] <= '7':
		return uint64(r.A[upper[1]-'0']), true
	}
	return 0, false
}

func (d *DebugM68K) ReadMemory(addr uint64, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = d.cpu.bus.Fetch8(uint32(addr+uint64(i)) & M68K_ADDRESS_MASK)
	}
	return out
}

func (d *DebugM68K) WriteMemory(addr uint64, data []byte) {
	for i, b := range data {
		d.cpu.bus.Store8(uint32(addr+uint64(i))&M68K_ADDRESS_MASK, b)
	}
}

// DumpRegisters prints the register file in two rows of eight.
func (d *DebugM68K) DumpRegisters(w io.Writer) {
	r := &d.cpu.regs
	for i := 0; i < 8; i++ {
		fmt.Fprintf(w, "D%d=%08X ", i, r.D[i])
	}
	fmt.Fprintln(w)
	for i := 0; i < 8; i++ {
		fmt.Fprintf(w, "A%d=%08X ", i, r.A[i])
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "PC=%06X SR=%04X USP=%08X SSP=%08X stopped=%t pending=%d frozen=%t\n",
		r.PC, r.SR, d.usp(), d.ssp(), r.Stopped, r.Pending, d.cpu.Frozen())
	fmt.Fprintf(w, "clocks=%d field=%d frame=%d line=%d\n",
		d.cpu.Clocks(), d.cpu.FieldClocks(), d.runner.Frames(), d.runner.Scanline())
}

// currentBlock finds the block the PC would run, building it if needed.
// Volatile regions have no block.
func (d *DebugM68K) currentBlock() (*Block, error) {
	pc := d.cpu.regs.PC & M68K_ADDRESS_MASK
	m, err := d.cpu.bus.Region(pc)
	if err != nil {
		return nil, errors.Wrapf(err, "resolving 0x%06X", pc)
	}
	if m.Class == RegionVolatile {
		return nil, errors.Errorf("0x%06X is in a volatile region", pc)
	}
	return d.cpu.getOrBuild(pc, m.Bank)
}

// ListBlock writes one line per instruction with the flags it must compute
// and the variant bound to it.
func ListBlock(w io.Writer, b *Block) {
	fmt.Fprintf(w, "block %06X bank %06X clocks %d norepeat %t\n", b.PC, b.Bank, b.Clocks, b.NoRepeat)
	for i := range b.Instrs {
		ipc := &b.Instrs[i]
		fmt.Fprintf(w, "  %06X %04X %-24s set=%-5s used=%-5s %s\n",
			ipc.Addr, ipc.Opcode, ipc.iib, ipc.Set, ipc.Used, ipc.handler.Variant)
	}
}

var blockDumper = spew.ConfigState{
	Indent:                  "  ",
	MaxDepth:                4,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// DumpBlock lists the current block and then dumps its decoded form.
func (d *DebugM68K) DumpBlock(w io.Writer) error {
	b, err := d.currentBlock()
	if err != nil {
		return err
	}
	ListBlock(w, b)
	blockDumper.Fdump(w, blockView(b))
	return nil
}

// cachedBlockView is the exported shape of a block for dumps and graphs.
// It carries no handler funcs or chain pointers.
type cachedBlockView struct {
	PC       string
	Bank     string
	Clocks   int
	NoRepeat bool
	Instrs   []cachedInstrView
}

type cachedInstrView struct {
	Addr     string
	Opcode   string
	Insn     string
	Set      string
	Used     string
	Variant  string
	Src, Dst uint32
}

func blockView(b *Block) *cachedBlockView {
	v := &cachedBlockView{
		PC:       fmt.Sprintf("0x%06X", b.PC),
		Bank:     fmt.Sprintf("0x%06X", b.Bank),
		Clocks:   b.Clocks,
		NoRepeat: b.NoRepeat,
	}
	for i := range b.Instrs {
		ipc := &b.Instrs[i]
		v.Instrs = append(v.Instrs, cachedInstrView{
			Addr:    fmt.Sprintf("0x%06X", ipc.Addr),
			Opcode:  fmt.Sprintf("0x%04X", ipc.Opcode),
			Insn:    ipc.iib.String(),
			Set:     ipc.Set.String(),
			Used:    ipc.Used.String(),
			Variant: ipc.handler.Variant.String(),
			Src:     ipc.Src,
			Dst:     ipc.Dst,
		})
	}
	return v
}

// WriteCacheGraph writes every cached block as a graphviz dot graph.
func (d *DebugM68K) WriteCacheGraph(w io.Writer) {
	blocks := d.cpu.cache.Blocks()
	views := make([]*cachedBlockView, len(blocks))
	for i, b := range blocks {
		views[i] = blockView(b)
	}
	memviz.Map(w, &views)
}
