/*
cpu_m68k.go - Motorola 68000 threaded interpreter core

The engine executes 68000 code as basic blocks of pre-decoded instructions.
Every opcode is looked up once in a shared DecodeTable, decoded into an IPC
carrying its resolved operands, and bound to either the flag-computing or
the flag-skipping form of its handler depending on whether any later
instruction in the block can observe the flags it produces. Blocks are
cached per program counter and bank; code running from volatile memory is
interpreted one instruction at a time instead.

Interrupts and exceptions are delivered at block boundaries only. A level
raised while the mask is higher stays pending until software lowers the
mask or a higher level arrives.
*/

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	M68K_ADDRESS_MASK = 0x00FFFFFF

	M68K_SR_C         = 0x0001
	M68K_SR_V         = 0x0002
	M68K_SR_Z         = 0x0004
	M68K_SR_N         = 0x0008
	M68K_SR_X         = 0x0010
	M68K_SR_CCR       = 0x001F
	M68K_SR_IPL_MASK  = 0x0700
	M68K_SR_IPL_SHIFT = 8
	M68K_SR_S         = 0x2000
	M68K_SR_T         = 0x8000
	M68K_SR_VALID     = M68K_SR_T | M68K_SR_S | M68K_SR_IPL_MASK | M68K_SR_CCR
)

// Exception vector numbers.
const (
	M68K_VEC_RESET_SSP    = 0
	M68K_VEC_RESET_PC     = 1
	M68K_VEC_BUS_ERROR    = 2
	M68K_VEC_ADDRESS      = 3
	M68K_VEC_ILLEGAL      = 4
	M68K_VEC_ZERO_DIVIDE  = 5
	M68K_VEC_CHK          = 6
	M68K_VEC_TRAPV        = 7
	M68K_VEC_PRIVILEGE    = 8
	M68K_VEC_TRACE        = 9
	M68K_VEC_LINE_A       = 10
	M68K_VEC_LINE_F       = 11
	M68K_VEC_SPURIOUS     = 24
	M68K_VEC_AUTOVECTOR   = 24 // plus level 1-7
	M68K_VEC_TRAP_BASE    = 32
	M68K_IDLE_CYCLES      = 4
	M68K_BLOCK_BUCKETS    = 16384
	M68K_BLOCK_MAX_INSTRS = 10000
)

// Registers is the architectural state of one 68000.
type Registers struct {
	PC uint32
	D  [8]uint32
	A  [8]uint32
	// SP is the inactive stack pointer: USP while in supervisor mode, SSP
	// while in user mode. A7 always holds the active one.
	SP      uint32
	SR      uint16
	Stopped bool
	Pending int
	Frozen  bool
}

func (r *Registers) String() string {
	return fmt.Sprintf("PC=%06X SR=%04X D=%08X A=%08X SP=%08X stop=%t pend=%d",
		r.PC, r.SR, r.D, r.A, r.SP, r.Stopped, r.Pending)
}

// EngineConfig holds construction options. Zero values pick defaults.
type EngineConfig struct {
	Log            *logrus.Entry
	MaxBlockInstrs int
}

// EngineStats counts engine activity since the last reset.
type EngineStats struct {
	BlockBuilds    uint64
	BlockHits      uint64
	CachedBlocks   int
	Instructions   uint64
	VolatileInstrs uint64
	Interrupts     uint64
	Exceptions     uint64
}

// M68KEngine is one emulated 68000. It is owned by a single host goroutine.
type M68KEngine struct {
	regs  Registers
	bus   M68KBus
	table *DecodeTable
	cache *BlockCache
	log   *logrus.Entry

	maxBlockInstrs int
	clocks         uint64
	fieldClocks    uint64
	stats          EngineStats
}

// NewM68KEngine creates an engine bound to bus and table and resets it.
func NewM68KEngine(bus M68KBus, table *DecodeTable, cfg EngineConfig) *M68KEngine {
	e := &M68KEngine{
		bus:            bus,
		table:          table,
		cache:          NewBlockCache(),
		log:            cfg.Log,
		maxBlockInstrs: cfg.MaxBlockInstrs,
	}
	if e.log == nil {
		e.log = logrus.NewEntry(logrus.StandardLogger())
	}
	e.log = e.log.WithField("component", "m68k")
	if e.maxBlockInstrs <= 0 {
		e.maxBlockInstrs = M68K_BLOCK_MAX_INSTRS
	}
	e.Reset()
	return e
}

// Reset loads SSP and PC from the vector table, enters supervisor mode with
// all interrupts masked, zeroes the clock counters and drops every cached
// block.
func (e *M68KEngine) Reset() {
	e.cache.Clear()
	e.regs = Registers{SR: M68K_SR_S | M68K_SR_IPL_MASK}
	e.regs.A[7] = e.read32(M68K_VEC_RESET_SSP * 4)
	e.regs.PC = e.read32(M68K_VEC_RESET_PC * 4)
	e.clocks = 0
	e.fieldClocks = 0
	e.stats = EngineStats{}
	e.log.WithFields(logrus.Fields{
		"ssp": fmt.Sprintf("0x%06X", e.regs.A[7]),
		"pc":  fmt.Sprintf("0x%06X", e.regs.PC),
	}).Debug("reset")
}

// ClearCache discards every cached block. Hosts call it after changing
// memory that cached code may have been decoded from.
func (e *M68KEngine) ClearCache() {
	e.cache.Clear()
	e.log.Debug("block cache cleared")
}

// EndField zeroes the per-field clock counter.
func (e *M68KEngine) EndField() { e.fieldClocks = 0 }

// Clocks is the number of cycles executed since reset.
func (e *M68KEngine) Clocks() uint64 { return e.clocks }

// FieldClocks is the number of cycles executed since the last EndField.
func (e *M68KEngine) FieldClocks() uint64 { return e.fieldClocks }

// Registers returns a copy of the register file.
func (e *M68KEngine) Registers() Registers { return e.regs }

func (e *M68KEngine) Stats() EngineStats {
	s := e.stats
	s.CachedBlocks = e.cache.Len()
	return s
}

// SetFrozen gates autovector delivery. Requests made while frozen stay
// pending.
func (e *M68KEngine) SetFrozen(frozen bool) { e.regs.Frozen = frozen }

func (e *M68KEngine) Frozen() bool { return e.regs.Frozen }

func (e *M68KEngine) addClocks(n int) {
	e.clocks += uint64(n)
	e.fieldClocks += uint64(n)
}

// Memory access. Every address is masked to the 24-bit bus.

func (e *M68KEngine) read(addr uint32, size Size) uint32 {
	addr &= M68K_ADDRESS_MASK
	switch size {
	case SizeByte:
		return uint32(e.bus.Fetch8(addr))
	case SizeWord:
		return uint32(e.bus.Fetch16(addr))
	}
	return e.bus.Fetch32(addr)
}

func (e *M68KEngine) write(addr uint32, size Size, v uint32) {
	addr &= M68K_ADDRESS_MASK
	switch size {
	case SizeByte:
		e.bus.Store8(addr, uint8(v))
	case SizeWord:
		e.bus.Store16(addr, uint16(v))
	default:
		e.bus.Store32(addr, v)
	}
}

func (e *M68KEngine) read16(addr uint32) uint16 { return e.bus.Fetch16(addr & M68K_ADDRESS_MASK) }
func (e *M68KEngine) read32(addr uint32) uint32 { return e.bus.Fetch32(addr & M68K_ADDRESS_MASK) }

func (e *M68KEngine) push16(v uint16) {
	e.regs.A[7] -= 2
	e.bus.Store16(e.regs.A[7]&M68K_ADDRESS_MASK, v)
}

func (e *M68KEngine) push32(v uint32) {
	e.regs.A[7] -= 4
	e.bus.Store32(e.regs.A[7]&M68K_ADDRESS_MASK, v)
}

func (e *M68KEngine) pop16() uint16 {
	v := e.read16(e.regs.A[7])
	e.regs.A[7] += 2
	return v
}

func (e *M68KEngine) pop32() uint32 {
	v := e.read32(e.regs.A[7])
	e.regs.A[7] += 4
	return v
}

// Status register.

func (e *M68KEngine) supervisor() bool { return e.regs.SR&M68K_SR_S != 0 }

func (e *M68KEngine) interruptMask() int {
	return int(e.regs.SR&M68K_SR_IPL_MASK) >> M68K_SR_IPL_SHIFT
}

func (e *M68KEngine) swapStacks() {
	e.regs.A[7], e.regs.SP = e.regs.SP, e.regs.A[7]
}

// setSR writes the whole status register, switching stacks when the
// supervisor bit changes.
func (e *M68KEngine) setSR(v uint16) {
	v &= M68K_SR_VALID
	if (v^e.regs.SR)&M68K_SR_S != 0 {
		e.swapStacks()
	}
	e.regs.SR = v
}

func (e *M68KEngine) setCCR(v uint16) {
	e.regs.SR = e.regs.SR&^M68K_SR_CCR | v&M68K_SR_CCR
}

func (e *M68KEngine) flag(f FlagSet) bool { return e.regs.SR&uint16(f) != 0 }

func (e *M68KEngine) setFlag(f FlagSet, on bool) {
	if on {
		e.regs.SR |= uint16(f)
	} else {
		e.regs.SR &^= uint16(f)
	}
}

// setNZ sets N and Z from a result and clears V and C.
func (e *M68KEngine) setNZ(r uint32, size Size) {
	e.regs.SR &^= M68K_SR_N | M68K_SR_Z | M68K_SR_V | M68K_SR_C
	if r&size.MSB() != 0 {
		e.regs.SR |= M68K_SR_N
	}
	if r&size.Mask() == 0 {
		e.regs.SR |= M68K_SR_Z
	}
}

// setAddFlags sets flags for r = d + s. X follows C when withX is set.
func (e *M68KEngine) setAddFlags(s, d, r uint32, size Size, withX bool) {
	msb := size.MSB()
	e.setNZ(r, size)
	carry := (s&d|^r&(s|d))&msb != 0
	e.setFlag(FlagC, carry)
	e.setFlag(FlagV, (s^r)&(d^r)&msb != 0)
	if withX {
		e.setFlag(FlagX, carry)
	}
}

// setSubFlags sets flags for r = d - s. X follows C when withX is set.
func (e *M68KEngine) setSubFlags(s, d, r uint32, size Size, withX bool) {
	msb := size.MSB()
	e.setNZ(r, size)
	borrow := (s&^d|r&^d|s&r)&msb != 0
	e.setFlag(FlagC, borrow)
	e.setFlag(FlagV, (s^d)&(r^d)&msb != 0)
	if withX {
		e.setFlag(FlagX, borrow)
	}
}

func (e *M68KEngine) testCondition(c Condition) bool {
	n, z, v, cf := e.flag(FlagN), e.flag(FlagZ), e.flag(FlagV), e.flag(FlagC)
	switch c {
	case CondT:
		return true
	case CondF:
		return false
	case CondHI:
		return !cf && !z
	case CondLS:
		return cf || z
	case CondCC:
		return !cf
	case CondCS:
		return cf
	case CondNE:
		return !z
	case CondEQ:
		return z
	case CondVC:
		return !v
	case CondVS:
		return v
	case CondPL:
		return !n
	case CondMI:
		return n
	case CondGE:
		return n == v
	case CondLT:
		return n != v
	case CondGT:
		return !z && n == v
	}
	return z || n != v
}
