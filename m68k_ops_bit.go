// m68k_ops_bit.go - Single bit test and modify

package main

// opBit covers BTST, BCHG, BCLR and BSET. Register destinations use the bit
// number modulo 32, memory destinations modulo 8.
func opBit(e *M68KEngine, ipc *IPC, flags bool) {
	d := ipc.iib
	size := d.Size
	bit := e.load(e.srcOperand(ipc), SizeLong)
	if size == SizeLong {
		bit &= 31
	} else {
		bit &= 7
	}
	dst := e.dstOperand(ipc)
	v := e.load(dst, size)
	m := uint32(1) << bit
	if flags {
		e.setFlag(FlagZ, v&m == 0)
	}
	switch d.Mnemonic {
	case MnBCHG:
		e.store(dst, size, v^m)
	case MnBCLR:
		e.store(dst, size, v&^m)
	case MnBSET:
		e.store(dst, size, v|m)
	}
	e.next(ipc)
}
