// m68k_ops_move.go - Data movement instructions

package main

func opMove(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	v := e.load(e.srcOperand(ipc), size)
	e.store(e.dstOperand(ipc), size, v)
	if flags {
		e.setNZ(v, size)
	}
	e.next(ipc)
}

func opMovea(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	v := signExtend(e.load(e.srcOperand(ipc), size), size)
	e.regs.A[e.dstOperand(ipc).reg] = v
	e.next(ipc)
}

func opMoveq(e *M68KEngine, ipc *IPC, flags bool) {
	e.regs.D[e.dstOperand(ipc).reg] = ipc.Src
	if flags {
		e.setNZ(ipc.Src, SizeLong)
	}
	e.next(ipc)
}

func opLea(e *M68KEngine, ipc *IPC, flags bool) {
	addr := e.srcOperand(ipc).addr
	e.regs.A[e.dstOperand(ipc).reg] = addr
	e.next(ipc)
}

func opPea(e *M68KEngine, ipc *IPC, flags bool) {
	e.push32(e.srcOperand(ipc).addr)
	e.next(ipc)
}

func opClr(e *M68KEngine, ipc *IPC, flags bool) {
	e.store(e.dstOperand(ipc), ipc.iib.Size, 0)
	if flags {
		e.setNZ(0, ipc.iib.Size)
	}
	e.next(ipc)
}

func opExg(e *M68KEngine, ipc *IPC, flags bool) {
	src, dst := e.srcOperand(ipc), e.dstOperand(ipc)
	reg := func(op operand) *uint32 {
		if op.kind == OpAreg {
			return &e.regs.A[op.reg]
		}
		return &e.regs.D[op.reg]
	}
	a, b := reg(src), reg(dst)
	*a, *b = *b, *a
	e.next(ipc)
}

func opSwap(e *M68KEngine, ipc *IPC, flags bool) {
	r := e.dstOperand(ipc).reg
	v := e.regs.D[r]>>16 | e.regs.D[r]<<16
	e.regs.D[r] = v
	if flags {
		e.setNZ(v, SizeLong)
	}
	e.next(ipc)
}

func opExt(e *M68KEngine, ipc *IPC, flags bool) {
	r := e.dstOperand(ipc).reg
	size := ipc.iib.Size
	var v uint32
	if size == SizeWord {
		v = signExtend(e.regs.D[r], SizeByte) & 0xFFFF
		e.regs.D[r] = e.regs.D[r]&0xFFFF0000 | v
	} else {
		v = signExtend(e.regs.D[r], SizeWord)
		e.regs.D[r] = v
	}
	if flags {
		e.setNZ(v, size)
	}
	e.next(ipc)
}

// opMovep moves a data register to or from alternate bytes of memory.
func opMovep(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	n := int(size.Bytes())
	if ipc.iib.Src == OpAdis {
		addr := e.srcOperand(ipc).addr
		r := e.dstOperand(ipc).reg
		var v uint32
		for i := 0; i < n; i++ {
			v = v<<8 | e.read(addr+uint32(i*2), SizeByte)
		}
		m := size.Mask()
		e.regs.D[r] = e.regs.D[r]&^m | v
	} else {
		r := e.srcOperand(ipc).reg
		addr := e.dstOperand(ipc).addr
		v := e.regs.D[r]
		for i := 0; i < n; i++ {
			e.write(addr+uint32(i*2), SizeByte, v>>(uint(n-1-i)*8))
		}
	}
	e.next(ipc)
}

func movemReg(e *M68KEngine, i int) *uint32 {
	if i < 8 {
		return &e.regs.D[i]
	}
	return &e.regs.A[i-8]
}

// opMovemToMem stores the registers selected by the mask. For -(An) the
// mask is reversed and registers are written from A7 down to D0.
func opMovemToMem(e *M68KEngine, ipc *IPC, flags bool) {
	d := ipc.iib
	mask := uint16(ipc.Src)
	n := d.Size.Bytes()
	if d.Dst == OpAdec {
		an := int(ipc.Opcode>>d.DstPos) & 7
		addr := e.regs.A[an]
		for i := 15; i >= 0; i-- {
			if mask&(1<<(15-i)) != 0 {
				addr -= n
				e.write(addr, d.Size, *movemReg(e, i))
			}
		}
		e.regs.A[an] = addr
	} else {
		addr := e.dstOperand(ipc).addr
		for i := 0; i < 16; i++ {
			if mask&(1<<i) != 0 {
				e.write(addr, d.Size, *movemReg(e, i))
				addr += n
			}
		}
	}
	e.next(ipc)
}

// opMovemToReg loads the registers selected by the mask. Words are sign
// extended to the full register.
func opMovemToReg(e *M68KEngine, ipc *IPC, flags bool) {
	d := ipc.iib
	mask := uint16(ipc.Src)
	n := d.Size.Bytes()
	var addr uint32
	an := int(ipc.Opcode>>d.DstPos) & 7
	if d.Dst == OpAinc {
		addr = e.regs.A[an]
	} else {
		addr = e.dstOperand(ipc).addr
	}
	for i := 0; i < 16; i++ {
		if mask&(1<<i) != 0 {
			*movemReg(e, i) = signExtend(e.read(addr, d.Size), d.Size)
			addr += n
		}
	}
	if d.Dst == OpAinc {
		e.regs.A[an] = addr
	}
	e.next(ipc)
}

func opMoveFromSR(e *M68KEngine, ipc *IPC, flags bool) {
	e.store(e.dstOperand(ipc), SizeWord, uint32(e.regs.SR))
	e.next(ipc)
}

func opMoveToCCR(e *M68KEngine, ipc *IPC, flags bool) {
	e.setCCR(uint16(e.load(e.srcOperand(ipc), SizeWord)))
	e.next(ipc)
}

func opMoveToSR(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.checkPrivilege() {
		return
	}
	e.setSR(uint16(e.load(e.srcOperand(ipc), SizeWord)))
	e.next(ipc)
}

// opMoveUSP copies between an address register and the user stack pointer,
// which the shadow SP holds while in supervisor mode.
func opMoveUSP(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.checkPrivilege() {
		return
	}
	if ipc.iib.Mnemonic == MnMOVETOUSP {
		e.regs.SP = e.regs.A[e.srcOperand(ipc).reg]
	} else {
		e.regs.A[e.dstOperand(ipc).reg] = e.regs.SP
	}
	e.next(ipc)
}
