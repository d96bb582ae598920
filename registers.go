/*
registers.go - Master I/O Register Address Map

This file provides a centralized reference for the memory-mapped I/O ports
the host wires onto the system bus. Everything not listed here and not ROM,
RAM or BIOS reads as open bus.

MEMORY MAP OVERVIEW
===================

Address Range       Size    Device              Defined in
---------------------------------------------------------------------------
0x000000-0x0FFFFF   1MB     Program ROM         memory_bus.go
0x100000-0x1FFFFF   64KB    Work RAM, mirrored  memory_bus.go
0x200000-0x2FFFFF   1MB     Banked ROM window   memory_bus.go
0x300000-0x300001   2B      Controller 1        registers.go
0x320000-0x320001   2B      Sound latch         registers.go
0x3C0006-0x3C0007   2B      Raster line         registers.go
0x3E0000-0x3E0001   2B      Host console        registers.go
0xC00000-0xC1FFFF   128KB   BIOS ROM            memory_bus.go

I/O REGION DETAILS
==================

Controller 1 (0x300000) - active low buttons, 0xFF when idle. Writes to
0x300001 kick the watchdog and are otherwise ignored.

Sound latch (0x320000) - the last command byte the 68000 wrote. Reads
return the reply byte, which stays zero without a sound CPU.

Raster line (0x3C0006) - the scanline the frame driver is running, offset
by 0xF8 as the video hardware counts it, in the upper nine bits.

Host console (0x3E0000) - every byte written to 0x3E0001 goes to the host's
console writer. Test programs use it to report results.
*/

package main

import (
	"io"
)

const (
	IO_CONTROLLER1   = 0x300000
	IO_WATCHDOG      = 0x300001
	IO_SOUND_LATCH   = 0x320000
	IO_RASTER_LINE   = 0x3C0006
	IO_CONSOLE       = 0x3E0000
	IO_CONSOLE_OUT   = 0x3E0001
	RASTER_LINE_BASE = 0xF8
)

// HostIO holds the state behind the host's I/O ports.
type HostIO struct {
	runner     *M68KRunner
	console    io.Writer
	Buttons    uint8
	SoundCmd   uint8
	SoundReply uint8
	Watchdog   uint64
}

// mapHostIO registers every port in the map above. runner may be nil until
// the engine exists; the raster line then reads as the first line.
func mapHostIO(bus *SystemBus, console io.Writer) *HostIO {
	h := &HostIO{console: console, Buttons: 0xFF}

	bus.MapIO(IO_CONTROLLER1, IO_WATCHDOG,
		func(addr uint32) uint8 {
			if addr == IO_CONTROLLER1 {
				return h.Buttons
			}
			return 0xFF
		},
		func(addr uint32, value uint8) {
			if addr == IO_WATCHDOG {
				h.Watchdog++
			}
		})

	bus.MapIO(IO_SOUND_LATCH, IO_SOUND_LATCH+1,
		func(addr uint32) uint8 {
			if addr == IO_SOUND_LATCH {
				return h.SoundReply
			}
			return 0
		},
		func(addr uint32, value uint8) {
			if addr == IO_SOUND_LATCH {
				h.SoundCmd = value
			}
		})

	bus.MapIO(IO_RASTER_LINE, IO_RASTER_LINE+1,
		func(addr uint32) uint8 {
			v := h.rasterWord()
			if addr == IO_RASTER_LINE {
				return uint8(v >> 8)
			}
			return uint8(v)
		},
		nil)

	bus.MapIO(IO_CONSOLE, IO_CONSOLE_OUT,
		nil,
		func(addr uint32, value uint8) {
			if addr == IO_CONSOLE_OUT && h.console != nil {
				_, _ = h.console.Write([]byte{value})
			}
		})

	bus.OnReset(func() {
		h.SoundCmd = 0
		h.SoundReply = 0
	})
	return h
}

// Attach connects the frame driver whose scanline the raster port reports.
func (h *HostIO) Attach(runner *M68KRunner) { h.runner = runner }

func (h *HostIO) rasterWord() uint16 {
	line := 0
	if h.runner != nil {
		line = h.runner.Scanline()
	}
	return uint16(line+RASTER_LINE_BASE) << 7
}
