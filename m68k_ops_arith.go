// m68k_ops_arith.go - Integer and decimal arithmetic

package main

// opAdd covers ADD, ADDI and ADDQ. ADDQ to an address register works on the
// whole register and leaves the flags alone.
func opAdd(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := e.load(e.srcOperand(ipc), size)
	dst := e.dstOperand(ipc)
	if dst.kind == OpAreg {
		e.regs.A[dst.reg] += s
		e.next(ipc)
		return
	}
	d := e.load(dst, size)
	r := (d + s) & size.Mask()
	e.store(dst, size, r)
	if flags {
		e.setAddFlags(s, d, r, size, true)
	}
	e.next(ipc)
}

// opSub covers SUB, SUBI and SUBQ.
func opSub(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := e.load(e.srcOperand(ipc), size)
	dst := e.dstOperand(ipc)
	if dst.kind == OpAreg {
		e.regs.A[dst.reg] -= s
		e.next(ipc)
		return
	}
	d := e.load(dst, size)
	r := (d - s) & size.Mask()
	e.store(dst, size, r)
	if flags {
		e.setSubFlags(s, d, r, size, true)
	}
	e.next(ipc)
}

func opAdda(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := signExtend(e.load(e.srcOperand(ipc), size), size)
	e.regs.A[e.dstOperand(ipc).reg] += s
	e.next(ipc)
}

func opSuba(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := signExtend(e.load(e.srcOperand(ipc), size), size)
	e.regs.A[e.dstOperand(ipc).reg] -= s
	e.next(ipc)
}

// extendedZ clears Z for a non-zero result and otherwise leaves it, so a
// multi-precision chain reports zero only when every part was zero.
func (e *M68KEngine) extendedZ(r uint32, size Size, z bool) {
	e.setFlag(FlagZ, z && r&size.Mask() == 0)
}

func opAddx(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := e.load(e.srcOperand(ipc), size)
	dst := e.dstOperand(ipc)
	d := e.load(dst, size)
	var x uint32
	if e.flag(FlagX) {
		x = 1
	}
	r := (d + s + x) & size.Mask()
	e.store(dst, size, r)
	if flags {
		z := e.flag(FlagZ)
		e.setAddFlags(s, d, r, size, true)
		e.extendedZ(r, size, z)
	}
	e.next(ipc)
}

func opSubx(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := e.load(e.srcOperand(ipc), size)
	dst := e.dstOperand(ipc)
	d := e.load(dst, size)
	var x uint32
	if e.flag(FlagX) {
		x = 1
	}
	r := (d - s - x) & size.Mask()
	e.store(dst, size, r)
	if flags {
		z := e.flag(FlagZ)
		e.setSubFlags(s, d, r, size, true)
		e.extendedZ(r, size, z)
	}
	e.next(ipc)
}

func opNeg(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	dst := e.dstOperand(ipc)
	d := e.load(dst, size)
	r := (0 - d) & size.Mask()
	e.store(dst, size, r)
	if flags {
		e.setSubFlags(d, 0, r, size, true)
	}
	e.next(ipc)
}

func opNegx(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	dst := e.dstOperand(ipc)
	d := e.load(dst, size)
	var x uint32
	if e.flag(FlagX) {
		x = 1
	}
	r := (0 - d - x) & size.Mask()
	e.store(dst, size, r)
	if flags {
		z := e.flag(FlagZ)
		e.setSubFlags(d, 0, r, size, true)
		e.extendedZ(r, size, z)
	}
	e.next(ipc)
}

// opCmp covers CMP, CMPI and CMPM.
func opCmp(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := e.load(e.srcOperand(ipc), size)
	d := e.load(e.dstOperand(ipc), size)
	if flags {
		e.setSubFlags(s, d, (d-s)&size.Mask(), size, false)
	}
	e.next(ipc)
}

func opCmpa(e *M68KEngine, ipc *IPC, flags bool) {
	size := ipc.iib.Size
	s := signExtend(e.load(e.srcOperand(ipc), size), size)
	d := e.regs.A[e.dstOperand(ipc).reg]
	if flags {
		e.setSubFlags(s, d, d-s, SizeLong, false)
	}
	e.next(ipc)
}

func opMulu(e *M68KEngine, ipc *IPC, flags bool) {
	s := e.load(e.srcOperand(ipc), SizeWord)
	r := e.dstOperand(ipc).reg
	v := (e.regs.D[r] & 0xFFFF) * s
	e.regs.D[r] = v
	if flags {
		e.setNZ(v, SizeLong)
	}
	e.next(ipc)
}

func opMuls(e *M68KEngine, ipc *IPC, flags bool) {
	s := int32(int16(e.load(e.srcOperand(ipc), SizeWord)))
	r := e.dstOperand(ipc).reg
	v := uint32(int32(int16(e.regs.D[r])) * s)
	e.regs.D[r] = v
	if flags {
		e.setNZ(v, SizeLong)
	}
	e.next(ipc)
}

// opDivu divides a long by a word. On overflow the register is unchanged
// and V is set.
func opDivu(e *M68KEngine, ipc *IPC, flags bool) {
	s := e.load(e.srcOperand(ipc), SizeWord)
	if s == 0 {
		e.raiseException(M68K_VEC_ZERO_DIVIDE, e.nextPC(ipc))
		return
	}
	r := e.dstOperand(ipc).reg
	q, rem := e.regs.D[r]/s, e.regs.D[r]%s
	if q > 0xFFFF {
		if flags {
			e.setFlag(FlagV, true)
			e.setFlag(FlagC, false)
		}
		e.next(ipc)
		return
	}
	e.regs.D[r] = rem<<16 | q
	if flags {
		e.setNZ(q, SizeWord)
	}
	e.next(ipc)
}

func opDivs(e *M68KEngine, ipc *IPC, flags bool) {
	s := int64(int16(e.load(e.srcOperand(ipc), SizeWord)))
	if s == 0 {
		e.raiseException(M68K_VEC_ZERO_DIVIDE, e.nextPC(ipc))
		return
	}
	r := e.dstOperand(ipc).reg
	dividend := int64(int32(e.regs.D[r]))
	q, rem := dividend/s, dividend%s
	if q < -0x8000 || q > 0x7FFF {
		if flags {
			e.setFlag(FlagV, true)
			e.setFlag(FlagC, false)
		}
		e.next(ipc)
		return
	}
	e.regs.D[r] = uint32(rem)<<16 | uint32(q)&0xFFFF
	if flags {
		e.setNZ(uint32(q), SizeWord)
	}
	e.next(ipc)
}

// Packed decimal. X is the incoming borrow/carry; Z is only ever cleared.

func bcdAdd(s, d uint32, x bool) (uint32, bool) {
	r := s&0x0F + d&0x0F
	if x {
		r++
	}
	if r > 9 {
		r += 6
	}
	r += s&0xF0 + d&0xF0
	carry := r > 0x99
	if carry {
		r -= 0xA0
	}
	return r & 0xFF, carry
}

func bcdSub(s, d uint32, x bool) (uint32, bool) {
	r := d&0x0F - s&0x0F
	if x {
		r--
	}
	if r > 9 {
		r -= 6
	}
	r += d&0xF0 - s&0xF0
	borrow := r > 0x99
	if borrow {
		r += 0xA0
	}
	return r & 0xFF, borrow
}

func (e *M68KEngine) setBCDFlags(r uint32, carry bool) {
	e.setFlag(FlagC, carry)
	e.setFlag(FlagX, carry)
	e.setFlag(FlagN, r&0x80 != 0)
	e.setFlag(FlagV, false)
	if r != 0 {
		e.setFlag(FlagZ, false)
	}
}

func opAbcd(e *M68KEngine, ipc *IPC, flags bool) {
	s := e.load(e.srcOperand(ipc), SizeByte)
	dst := e.dstOperand(ipc)
	r, carry := bcdAdd(s, e.load(dst, SizeByte), e.flag(FlagX))
	e.store(dst, SizeByte, r)
	if flags {
		e.setBCDFlags(r, carry)
	}
	e.next(ipc)
}

func opSbcd(e *M68KEngine, ipc *IPC, flags bool) {
	s := e.load(e.srcOperand(ipc), SizeByte)
	dst := e.dstOperand(ipc)
	r, borrow := bcdSub(s, e.load(dst, SizeByte), e.flag(FlagX))
	e.store(dst, SizeByte, r)
	if flags {
		e.setBCDFlags(r, borrow)
	}
	e.next(ipc)
}

func opNbcd(e *M68KEngine, ipc *IPC, flags bool) {
	dst := e.dstOperand(ipc)
	r, borrow := bcdSub(e.load(dst, SizeByte), 0, e.flag(FlagX))
	e.store(dst, SizeByte, r)
	if flags {
		e.setBCDFlags(r, borrow)
	}
	e.next(ipc)
}

// opChk traps when the register is negative or above the bound.
func opChk(e *M68KEngine, ipc *IPC, flags bool) {
	bound := int16(e.load(e.srcOperand(ipc), SizeWord))
	v := int16(e.regs.D[e.dstOperand(ipc).reg])
	switch {
	case v < 0:
		e.setFlag(FlagN, true)
	case v > bound:
		e.setFlag(FlagN, false)
	default:
		e.next(ipc)
		return
	}
	e.raiseException(M68K_VEC_CHK, e.nextPC(ipc))
}
