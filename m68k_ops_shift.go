// m68k_ops_shift.go - Shift and rotate instructions

package main

// opShift implements the eight shift and rotate families, register and
// memory forms. The count comes from the instruction (1-8), from a data
// register modulo 64, or is 1 for memory forms.
func opShift(e *M68KEngine, ipc *IPC, flags bool) {
	d := ipc.iib
	size := d.Size
	count := ipc.Src
	if d.Src == OpDreg {
		count = e.regs.D[e.srcOperand(ipc).reg] & 63
	}
	dst := e.dstOperand(ipc)
	v := e.load(dst, size)
	msb, mask := size.MSB(), size.Mask()

	x := e.flag(FlagX)
	var c, overflow bool
	for i := uint32(0); i < count; i++ {
		switch d.Mnemonic {
		case MnASL:
			out := v&msb != 0
			v = v << 1 & mask
			if (v&msb != 0) != out {
				overflow = true
			}
			c, x = out, out
		case MnASR:
			out := v&1 != 0
			v = v>>1 | v&msb
			c, x = out, out
		case MnLSL:
			out := v&msb != 0
			v = v << 1 & mask
			c, x = out, out
		case MnLSR:
			out := v&1 != 0
			v >>= 1
			c, x = out, out
		case MnROL:
			out := v&msb != 0
			v = v << 1 & mask
			if out {
				v |= 1
			}
			c = out
		case MnROR:
			out := v&1 != 0
			v >>= 1
			if out {
				v |= msb
			}
			c = out
		case MnROXL:
			out := v&msb != 0
			v = v << 1 & mask
			if x {
				v |= 1
			}
			c, x = out, out
		case MnROXR:
			out := v&1 != 0
			v >>= 1
			if x {
				v |= msb
			}
			c, x = out, out
		}
	}
	e.store(dst, size, v)

	if flags {
		e.setNZ(v, size)
		e.setFlag(FlagV, overflow)
		switch {
		case count == 0 && (d.Mnemonic == MnROXL || d.Mnemonic == MnROXR):
			e.setFlag(FlagC, x)
		case count == 0:
			e.setFlag(FlagC, false)
		default:
			e.setFlag(FlagC, c)
			if d.Mnemonic != MnROL && d.Mnemonic != MnROR {
				e.setFlag(FlagX, x)
			}
		}
	}
	e.next(ipc)
}
