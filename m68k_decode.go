// m68k_decode.go - Instruction decode and basic block construction

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
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
)

// fetcher reads instruction words, preferring the bus fast window.
type fetcher struct {
	bus  M68KBus
	base uint32
	win  []byte
}

func (e *M68KEngine) newFetcher(addr uint32) fetcher {
	addr &= M68K_ADDRESS_MASK
	return fetcher{bus: e.bus, base: addr, win: e.bus.Window(addr)}
}

func (f *fetcher) word(addr uint32) uint16 {
	addr &= M68K_ADDRESS_MASK
	if off := addr - f.base; addr >= f.base && int(off)+2 <= len(f.win) {
		return binary.BigEndian.Uint16(f.win[off:])
	}
	return f.bus.Fetch16(addr)
}

func (f *fetcher) long(addr uint32) uint32 {
	return uint32(f.word(addr))<<16 | uint32(f.word(addr+2))
}

// resolveStatic decodes the part of an operand that cannot change between
// executions: displacements, absolute addresses, immediates and
// PC-relative addresses. ext is the address of the operand's first
// extension word; the address after its last one is returned.
func resolveStatic(f *fetcher, kind OperandKind, d *IIB, pos uint8, opcode uint16, ext uint32) (uint32, uint16, uint32) {
	switch kind {
	case OpAdis:
		return uint32(int32(int16(f.word(ext)))), 0, ext + 2
	case OpAidx:
		w := f.word(ext)
		return uint32(int32(int8(w))), w, ext + 2
	case OpAbsW:
		return uint32(int32(int16(f.word(ext)))), 0, ext + 2
	case OpAbsL:
		return f.long(ext), 0, ext + 4
	case OpPdis:
		return ext + uint32(int32(int16(f.word(ext)))), 0, ext + 2
	case OpPidx:
		w := f.word(ext)
		return ext + uint32(int32(int8(w))), w, ext + 2
	case OpImmB:
		return uint32(f.word(ext) & 0xFF), 0, ext + 2
	case OpImmW:
		return uint32(f.word(ext)), 0, ext + 2
	case OpImmL:
		return f.long(ext), 0, ext + 4
	case OpImmS:
		return d.ImmValue, 0, ext
	case OpImm3:
		v := uint32(opcode>>pos) & 7
		if v == 0 {
			v = 8
		}
		return v, 0, ext
	case OpImm4:
		return uint32(opcode>>pos) & 0xF, 0, ext
	case OpImm8:
		return uint32(opcode>>pos) & 0xFF, 0, ext
	case OpImm8s:
		return uint32(int32(int8(opcode >> pos))), 0, ext
	case OpImm12:
		return uint32(opcode>>pos) & 0xFFF, 0, ext
	}
	return 0, 0, ext
}

// decode builds the IPC for the instruction at pc, bound to the flags
// variant of its handler.
func (e *M68KEngine) decode(f *fetcher, pc uint32) (IPC, error) {
	opcode := f.word(pc)
	entry := &e.table.entries[opcode]
	d := entry.iib
	if d == nil {
		fe := &FatalError{Kind: FatalIllegalOpcode, Addr: pc & M68K_ADDRESS_MASK, Opcode: opcode}
		return IPC{}, fe
	}

	ipc := IPC{
		Addr:     pc,
		Opcode:   opcode,
		WordLen:  d.WordLen,
		Used:     d.Used,
		Set:      d.Set,
		iib:      d,
		variants: &entry.variants,
	}
	ext := pc + 2
	ipc.Src, ipc.SrcExt, ext = resolveStatic(f, d.Src, d, d.SrcPos, opcode, ext)
	ipc.Dst, ipc.DstExt, _ = resolveStatic(f, d.Dst, d, d.DstPos, opcode, ext)
	if d.Branch {
		// Displacements are relative to the word after the opcode.
		disp := ipc.Src
		if d.Src == OpImmW {
			disp = signExtend(disp, SizeWord)
		}
		ipc.Src = pc + 2 + disp
	}
	ipc.handler = entry.variants[VariantFlags]
	return ipc, nil
}

// buildBlock decodes from pc up to and including the first block-ending
// instruction or the last one inside pc's region, trims flag work and
// computes the block's cost.
func (e *M68KEngine) buildBlock(pc, bank uint32) (*Block, error) {
	b := &Block{PC: pc, Bank: bank}
	f := e.newFetcher(pc)
	addr := pc
	for {
		if len(b.Instrs) >= e.maxBlockInstrs {
			return nil, &FatalError{
				Kind:   FatalRunawayDecode,
				Addr:   pc,
				Bank:   bank,
				Detail: fmt.Sprintf("no block terminator within %d instructions", e.maxBlockInstrs),
			}
		}
		ipc, err := e.decode(&f, addr)
		if err != nil {
			if fe, ok := IsFatal(err); ok {
				fe.Bank = bank
			}
			return nil, err
		}
		b.Instrs = append(b.Instrs, ipc)
		b.Clocks += ipc.iib.Cycles
		addr = (addr + uint32(ipc.WordLen)*2) & M68K_ADDRESS_MASK
		if ipc.iib.EndBlock || !e.sameRegion(addr, bank) {
			break
		}
	}

	reduceFlags(b.Instrs)
	b.NoRepeat = isNoRepeat(b)
	e.stats.BlockBuilds++

	if e.log.Logger.IsLevelEnabled(logrus.DebugLevel) {
		e.log.WithFields(logrus.Fields{
			"pc":       fmt.Sprintf("0x%06X", pc),
			"bank":     fmt.Sprintf("0x%06X", bank),
			"instrs":   len(b.Instrs),
			"clocks":   b.Clocks,
			"norepeat": b.NoRepeat,
		}).Debug("block built")
	}
	return b, nil
}

// sameRegion reports whether code at addr may join a block cached for bank.
// A block that falls through into volatile memory, another bank or an
// unresolvable address ends there, and RunFor picks up at addr.
func (e *M68KEngine) sameRegion(addr, bank uint32) bool {
	m, err := e.bus.Region(addr)
	return err == nil && m.Class == RegionCacheable && m.Bank == bank
}

// isNoRepeat marks a two-instruction poll loop: a compare or test whose
// operands have no side effects followed by a branch back to the block
// start.
func isNoRepeat(b *Block) bool {
	if len(b.Instrs) != 2 {
		return false
	}
	test, br := b.Instrs[0].iib, &b.Instrs[1]
	switch test.Mnemonic {
	case MnCMP, MnCMPA, MnCMPI, MnTST, MnBTST:
	default:
		return false
	}
	for _, k := range []OperandKind{test.Src, test.Dst} {
		if k == OpAinc || k == OpAdec {
			return false
		}
	}
	return br.iib.Mnemonic == MnBcc && br.Src&M68K_ADDRESS_MASK == b.PC
}
