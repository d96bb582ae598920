// m68k_ops_logic.go - Logical instructions and status register arithmetic

package main

func logicResult(m Mnemonic, s, d uint32) uint32 {
	switch m {
	case MnOR, MnORI, MnORICCR, MnORISR:
		return d | s
	case MnAND, MnANDI, MnANDICCR, MnANDISR:
		return d & s
	}
	return d ^ s
}

// opLogic covers AND, OR, EOR and their immediate forms.
func opLogic(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := e.load(e.srcOperand(ipc), size)
	dst := e.dstOperand(ipc)
	r := logicResult(ipc.iib.Mnemonic, s, e.load(dst, size))
	e.store(dst, size, r)
	if flags {
		e.setNZ(r, size)
	}
	e.next(ipc)
}

func opLogicCCR(e *M68KEngine, ipc *IPC, flags bool) {
	ccr := uint32(e.regs.SR & M68K_SR_CCR)
	e.setCCR(uint16(logicResult(ipc.iib.Mnemonic, ipc.Src, ccr)))
	e.next(ipc)
}

func opLogicSR(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.checkPrivilege() {
		return
	}
	e.setSR(uint16(logicResult(ipc.iib.Mnemonic, ipc.Src, uint32(e.regs.SR))))
	e.next(ipc)
}

func opNot(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	dst := e.dstOperand(ipc)
	r := ^e.load(dst, size) & size.Mask()
	e.store(dst, size, r)
	if flags {
		e.setNZ(r, size)
	}
	e.next(ipc)
}

func opTst(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	v := e.load(e.dstOperand(ipc), size)
	if flags {
		e.setNZ(v, size)
	}
	e.next(ipc)
}

// opTas tests a byte and sets its high bit.
func opTas(e *M68KEngine, ipc *IPC, flags bool) {
	dst := e.dstOperand(ipc)
	v := e.load(dst, SizeByte)
	if flags {
		e.setNZ(v, SizeByte)
	}
	e.store(dst, SizeByte, v|0x80)
	e.next(ipc)
}

func opScc(e *M68KEngine, ipc *IPC, flags bool) {
	var v uint32
	if e.testCondition(ipc.iib.Cond) {
		v = 0xFF
	}
	e.store(e.dstOperand(ipc), SizeByte, v)
	e.next(ipc)
}
