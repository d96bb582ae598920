/*
memory_bus.go - 68000 system bus with banked program ROM

The bus lays out the 24-bit address space the way a cartridge system with
a banked program ROM does:

    0x000000-0x0FFFFF  first megabyte of program ROM
    0x100000-0x1FFFFF  64KB work RAM, mirrored
    0x200000-0x2FFFFF  banked window onto the rest of program ROM
    0xC00000-0xC1FFFF  optional BIOS ROM
    elsewhere          memory-mapped I/O regions, or open bus

Writes to the top of the banked window select the bank. ROM and BIOS are
cacheable; the engine may keep decoded code from them until it is told to
clear its cache. RAM and I/O are volatile and never cached.

All storage is big-endian, as the 68000 sees it.
*/

package main

import (
	"encoding/binary"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	PAGE_SIZE = 0x100
	PAGE_MASK = 0xFFFF00

	ROM_FIXED_START  = 0x000000
	ROM_FIXED_END    = 0x0FFFFF
	RAM_START        = 0x100000
	RAM_END          = 0x1FFFFF
	RAM_SIZE         = 0x10000
	ROM_BANK_START   = 0x200000
	ROM_BANK_END     = 0x2FFFFF
	ROM_BANK_SELECT  = 0x2FFFF0
	ROM_BANK_SIZE    = 0x100000
	BIOS_START       = 0xC00000
	BIOS_END         = 0xC1FFFF
	OPEN_BUS_PATTERN = 0xF0
)

// RegionClass says whether code at an address may be cached.
type RegionClass int

const (
	RegionCacheable RegionClass = iota
	RegionVolatile
)

func (c RegionClass) String() string {
	if c == RegionVolatile {
		return "volatile"
	}
	return "cacheable"
}

// Mapping is the bus's view of an address: its class, the bank
// discriminant that keys cached code, and the backing offset.
type Mapping struct {
	Class    RegionClass
	Bank     uint32
	Physical uint32
}

// M68KBus is what the engine needs from memory. Addresses are already
// masked to 24 bits.
type M68KBus interface {
	Fetch8(addr uint32) uint8
	Fetch16(addr uint32) uint16
	Fetch32(addr uint32) uint32
	Store8(addr uint32, v uint8)
	Store16(addr uint32, v uint16)
	Store32(addr uint32, v uint32)
	// Window returns the backing bytes from addr to the end of its region
	// for straight-line instruction fetch, or nil.
	Window(addr uint32) []byte
	Region(addr uint32) (Mapping, error)
}

// DeviceResetter is implemented by buses with devices on the reset line.
type DeviceResetter interface {
	ResetDevices()
}

type IORegion struct {
	start   uint32
	end     uint32
	onRead  func(addr uint32) uint8
	onWrite func(addr uint32, value uint8)
}

// SystemBus implements M68KBus. It is not safe for concurrent use; it
// belongs to the goroutine driving its engine.
type SystemBus struct {
	rom     []byte
	ram     []byte
	bios    []byte
	bank    uint32
	mapping map[uint32][]IORegion
	resets  []func()
	log     *logrus.Entry
}

func NewSystemBus(log *logrus.Entry) *SystemBus {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &SystemBus{
		ram:     make([]byte, RAM_SIZE),
		mapping: make(map[uint32][]IORegion),
		log:     log.WithField("component", "bus"),
	}
}

// LoadROM installs a program ROM image and selects the power-on bank.
func (bus *SystemBus) LoadROM(image []byte) error {
	if len(image) == 0 || len(image)%2 != 0 {
		return errors.Errorf("program ROM must be a non-empty even number of bytes, got %d", len(image))
	}
	bus.rom = append([]byte(nil), image...)
	bus.bank = bus.defaultBank()
	bus.log.WithFields(logrus.Fields{"size": len(image), "bank": bus.bank}).Debug("program ROM loaded")
	return nil
}

// LoadBIOS installs an optional BIOS image at BIOS_START.
func (bus *SystemBus) LoadBIOS(image []byte) error {
	if len(image) > BIOS_END-BIOS_START+1 {
		return errors.Errorf("BIOS image of %d bytes does not fit", len(image))
	}
	bus.bios = append([]byte(nil), image...)
	return nil
}

// PatchROM overwrites program ROM words at a ROM offset. Hosts must clear
// the engine cache afterwards if the patched code may have run.
func (bus *SystemBus) PatchROM(offset uint32, words ...uint16) error {
	if int(offset)+2*len(words) > len(bus.rom) {
		return errors.Errorf("patch at 0x%06X runs past the end of ROM", offset)
	}
	for i, w := range words {
		binary.BigEndian.PutUint16(bus.rom[offset+uint32(i*2):], w)
	}
	return nil
}

func (bus *SystemBus) defaultBank() uint32 {
	if len(bus.rom) > ROM_BANK_SIZE {
		return ROM_BANK_SIZE
	}
	return 0
}

// Bank returns the ROM offset the banked window currently shows.
func (bus *SystemBus) Bank() uint32 { return bus.bank }

// SelectBank switches the banked window. Only the low three bits of the
// value are decoded; banks past the end of ROM fall back to the first
// switchable bank. ROMs that fit the fixed region ignore it.
func (bus *SystemBus) SelectBank(data uint32) {
	if len(bus.rom) <= ROM_BANK_SIZE {
		return
	}
	bank := ((data & 7) + 1) * ROM_BANK_SIZE
	if int(bank) >= len(bus.rom) {
		bank = ROM_BANK_SIZE
	}
	if bank != bus.bank {
		bus.log.WithField("bank", bank).Trace("bank switch")
	}
	bus.bank = bank
}

// ResetDevices restores the power-on bank and runs registered reset hooks.
func (bus *SystemBus) ResetDevices() {
	bus.bank = bus.defaultBank()
	for _, f := range bus.resets {
		f()
	}
}

// OnReset registers a hook for the RESET instruction.
func (bus *SystemBus) OnReset(f func()) {
	bus.resets = append(bus.resets, f)
}

func (bus *SystemBus) MapIO(start, end uint32, onRead func(addr uint32) uint8, onWrite func(addr uint32, value uint8)) {
	/*
		MapIO registers a memory-mapped I/O region. The region is added to
		every 256 byte page it touches so a lookup only scans the regions
		of one page.
	*/

	region := IORegion{
		start:   start,
		end:     end,
		onRead:  onRead,
		onWrite: onWrite,
	}
	firstPage := start & PAGE_MASK
	lastPage := end & PAGE_MASK
	for page := firstPage; page <= lastPage; page += PAGE_SIZE {
		bus.mapping[page] = append(bus.mapping[page], region)
	}
}

func (bus *SystemBus) ioRegion(addr uint32) *IORegion {
	regions := bus.mapping[addr&PAGE_MASK]
	for i := range regions {
		if addr >= regions[i].start && addr <= regions[i].end {
			return &regions[i]
		}
	}
	return nil
}

// backing returns the storage of the region holding addr, cut to the
// region's extent, and the offset of addr within it. mem is nil for I/O and
// open bus.
func (bus *SystemBus) backing(addr uint32) (mem []byte, off uint32) {
	switch {
	case addr <= ROM_FIXED_END:
		mem, off = bus.rom[:min(len(bus.rom), ROM_BANK_SIZE)], addr
	case addr <= RAM_END:
		return bus.ram, addr & (RAM_SIZE - 1)
	case addr <= ROM_BANK_END:
		if int(bus.bank) < len(bus.rom) {
			mem = bus.rom[bus.bank:min(len(bus.rom), int(bus.bank)+ROM_BANK_SIZE)]
		}
		off = addr - ROM_BANK_START
	case addr >= BIOS_START && addr <= BIOS_END:
		mem, off = bus.bios, addr-BIOS_START
	}
	if int(off) >= len(mem) {
		return nil, 0
	}
	return mem, off
}

func (bus *SystemBus) Fetch8(addr uint32) uint8 {
	if mem, off := bus.backing(addr); mem != nil {
		return mem[off]
	}
	if r := bus.ioRegion(addr); r != nil && r.onRead != nil {
		return r.onRead(addr)
	}
	return OPEN_BUS_PATTERN
}

func (bus *SystemBus) Fetch16(addr uint32) uint16 {
	if mem, off := bus.backing(addr); mem != nil && int(off)+2 <= len(mem) {
		return binary.BigEndian.Uint16(mem[off:])
	}
	return uint16(bus.Fetch8(addr))<<8 | uint16(bus.Fetch8((addr+1)&M68K_ADDRESS_MASK))
}

func (bus *SystemBus) Fetch32(addr uint32) uint32 {
	return uint32(bus.Fetch16(addr))<<16 | uint32(bus.Fetch16((addr+2)&M68K_ADDRESS_MASK))
}

func (bus *SystemBus) Store8(addr uint32, v uint8) {
	switch {
	case addr >= RAM_START && addr <= RAM_END:
		bus.ram[addr&(RAM_SIZE-1)] = v
	case addr >= ROM_BANK_SELECT && addr <= ROM_BANK_END:
		bus.SelectBank(uint32(v))
	default:
		if r := bus.ioRegion(addr); r != nil && r.onWrite != nil {
			r.onWrite(addr, v)
		}
	}
}

func (bus *SystemBus) Store16(addr uint32, v uint16) {
	switch {
	case addr >= RAM_START && addr <= RAM_END && addr&(RAM_SIZE-1) != RAM_SIZE-1:
		binary.BigEndian.PutUint16(bus.ram[addr&(RAM_SIZE-1):], v)
	case addr >= ROM_BANK_SELECT && addr <= ROM_BANK_END:
		bus.SelectBank(uint32(v))
	default:
		// Also the last byte of a RAM mirror, whose low half wraps.
		bus.Store8(addr, uint8(v>>8))
		bus.Store8((addr+1)&M68K_ADDRESS_MASK, uint8(v))
	}
}

func (bus *SystemBus) Store32(addr uint32, v uint32) {
	bus.Store16(addr, uint16(v>>16))
	bus.Store16((addr+2)&M68K_ADDRESS_MASK, uint16(v))
}

func (bus *SystemBus) Window(addr uint32) []byte {
	if mem, off := bus.backing(addr); mem != nil {
		return mem[off:]
	}
	return nil
}

// Region classifies addr. The banked window reports the selected bank as
// its discriminant, so code cached from one bank is never run for another.
func (bus *SystemBus) Region(addr uint32) (Mapping, error) {
	switch {
	case addr <= ROM_FIXED_END:
		return Mapping{Class: RegionCacheable, Physical: addr}, nil
	case addr <= RAM_END:
		return Mapping{Class: RegionVolatile, Physical: addr & (RAM_SIZE - 1)}, nil
	case addr <= ROM_BANK_END:
		off := bus.bank + addr - ROM_BANK_START
		if int(off) >= len(bus.rom) {
			return Mapping{}, errors.Errorf("bank 0x%06X maps 0x%06X outside a %d byte ROM", bus.bank, addr, len(bus.rom))
		}
		return Mapping{Class: RegionCacheable, Bank: bus.bank, Physical: off}, nil
	case addr >= BIOS_START && addr <= BIOS_END:
		return Mapping{Class: RegionCacheable, Physical: addr - BIOS_START}, nil
	}
	return Mapping{Class: RegionVolatile, Physical: addr}, nil
}

// Reset clears work RAM and restores the power-on bank.
func (bus *SystemBus) Reset() {
	clear(bus.ram)
	bus.bank = bus.defaultBank()
}
