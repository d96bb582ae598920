// m68k_ops_ctrl.go - Program control, traps and system control

package main

// Branch targets are resolved at decode time and arrive in ipc.Src.

func opBcc(e *M68KEngine, ipc *IPC, flags bool) {
	if e.testCondition(ipc.iib.Cond) {
		e.regs.PC = ipc.Src
		return
	}
	e.next(ipc)
}

func opBsr(e *M68KEngine, ipc *IPC, flags bool) {
	e.push32(e.nextPC(ipc))
	e.regs.PC = ipc.Src
}

// opDbcc decrements the low word of the counter and loops until it reaches
// -1 or the condition holds.
func opDbcc(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.testCondition(ipc.iib.Cond) {
		r := e.dstOperand(ipc).reg
		n := (e.regs.D[r] - 1) & 0xFFFF
		e.regs.D[r] = e.regs.D[r]&0xFFFF0000 | n
		if n != 0xFFFF {
			e.regs.PC = ipc.Src
			return
		}
	}
	e.next(ipc)
}

func opJmp(e *M68KEngine, ipc *IPC, flags bool) {
	e.regs.PC = e.srcOperand(ipc).addr
}

func opJsr(e *M68KEngine, ipc *IPC, flags bool) {
	target := e.srcOperand(ipc).addr
	e.push32(e.nextPC(ipc))
	e.regs.PC = target
}

func opRts(e *M68KEngine, ipc *IPC, flags bool) {
	e.regs.PC = e.pop32()
}

func opRtr(e *M68KEngine, ipc *IPC, flags bool) {
	e.setCCR(e.pop16())
	e.regs.PC = e.pop32()
}

// opRte pops SR and PC from the supervisor stack, then switches stacks if
// the restored SR leaves supervisor mode.
func opRte(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.checkPrivilege() {
		return
	}
	sr := e.pop16()
	pc := e.pop32()
	e.setSR(sr)
	e.regs.PC = pc
}

func opLink(e *M68KEngine, ipc *IPC, flags bool) {
	r := e.dstOperand(ipc).reg
	e.push32(e.regs.A[r])
	e.regs.A[r] = e.regs.A[7]
	e.regs.A[7] += signExtend(ipc.Src, SizeWord)
	e.next(ipc)
}

func opUnlk(e *M68KEngine, ipc *IPC, flags bool) {
	r := e.dstOperand(ipc).reg
	e.regs.A[7] = e.regs.A[r]
	e.regs.A[r] = e.pop32()
	e.next(ipc)
}

func opNop(e *M68KEngine, ipc *IPC, flags bool) {
	e.next(ipc)
}

// opStop loads SR and halts until an interrupt. PC stays on the STOP so
// delivery can step over it. Without supervisor mode, or with an immediate
// that would leave it, STOP raises a privilege violation instead.
func opStop(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.supervisor() || ipc.Src&M68K_SR_S == 0 {
		e.raiseException(M68K_VEC_PRIVILEGE, e.nextPC(ipc))
		return
	}
	e.setSR(uint16(ipc.Src))
	e.regs.Stopped = true
}

// opReset pulses the external reset line. Buses that model devices behind
// it implement DeviceResetter.
func opReset(e *M68KEngine, ipc *IPC, flags bool) {
	if !e.checkPrivilege() {
		return
	}
	if r, ok := e.bus.(DeviceResetter); ok {
		r.ResetDevices()
	}
	e.next(ipc)
}

func opTrap(e *M68KEngine, ipc *IPC, flags bool) {
	e.raiseException(M68K_VEC_TRAP_BASE+int(ipc.Src), e.nextPC(ipc))
}

func opTrapv(e *M68KEngine, ipc *IPC, flags bool) {
	if e.flag(FlagV) {
		e.raiseException(M68K_VEC_TRAPV, e.nextPC(ipc))
		return
	}
	e.next(ipc)
}

func opIllegal(e *M68KEngine, ipc *IPC, flags bool) {
	e.raiseException(M68K_VEC_ILLEGAL, e.regs.PC)
}

func opLineTrap(e *M68KEngine, ipc *IPC, flags bool) {
	vector := M68K_VEC_LINE_A
	if ipc.iib.Mnemonic == MnLINE15 {
		vector = M68K_VEC_LINE_F
	}
	e.raiseException(vector, e.regs.PC)
}
