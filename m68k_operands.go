// m68k_operands.go - Effective address resolution at execution time

package main

// operand is an effective address resolved against the current registers.
// Resolution applies postincrement and predecrement exactly once.
type operand struct {
	kind  OperandKind
	reg   int
	addr  uint32
	value uint32
}

// step is the address register adjustment for (An)+ and -(An). Byte
// accesses through A7 keep the stack word aligned.
func step(reg int, size Size) uint32 {
	if size == SizeByte && reg == 7 {
		return 2
	}
	return size.Bytes()
}

func (e *M68KEngine) index(ext uint16) uint32 {
	reg := int(ext>>12) & 7
	var x uint32
	if ext&0x8000 != 0 {
		x = e.regs.A[reg]
	} else {
		x = e.regs.D[reg]
	}
	if ext&0x0800 == 0 {
		x = uint32(int32(int16(x)))
	}
	return x
}

func (e *M68KEngine) resolve(kind OperandKind, pos uint8, static uint32, ext uint16, opcode uint16, size Size) operand {
	op := operand{kind: kind, reg: int(opcode>>pos) & 7}
	switch kind {
	case OpAind:
		op.addr = e.regs.A[op.reg]
	case OpAinc:
		op.addr = e.regs.A[op.reg]
		e.regs.A[op.reg] += step(op.reg, size)
	case OpAdec:
		e.regs.A[op.reg] -= step(op.reg, size)
		op.addr = e.regs.A[op.reg]
	case OpAdis:
		op.addr = e.regs.A[op.reg] + static
	case OpAidx:
		op.addr = e.regs.A[op.reg] + static + e.index(ext)
	case OpAbsW, OpAbsL, OpPdis:
		op.addr = static
	case OpPidx:
		op.addr = static + e.index(ext)
	case OpDreg, OpAreg:
	default:
		op.value = static
	}
	return op
}

func (e *M68KEngine) srcOperand(ipc *IPC) operand {
	d := ipc.iib
	return e.resolve(d.Src, d.SrcPos, ipc.Src, ipc.SrcExt, ipc.Opcode, d.Size)
}

func (e *M68KEngine) dstOperand(ipc *IPC) operand {
	d := ipc.iib
	return e.resolve(d.Dst, d.DstPos, ipc.Dst, ipc.DstExt, ipc.Opcode, d.Size)
}

func (e *M68KEngine) load(op operand, size Size) uint32 {
	switch op.kind {
	case OpDreg:
		return e.regs.D[op.reg] & size.Mask()
	case OpAreg:
		return e.regs.A[op.reg] & size.Mask()
	}
	if op.kind.isMemory() {
		return e.read(op.addr, size)
	}
	return op.value & size.Mask()
}

// store writes the low size bits of v. Data registers keep their upper
// bits; address registers are always written whole.
func (e *M68KEngine) store(op operand, size Size, v uint32) {
	switch op.kind {
	case OpDreg:
		m := size.Mask()
		e.regs.D[op.reg] = e.regs.D[op.reg]&^m | v&m
	case OpAreg:
		e.regs.A[op.reg] = v
	default:
		if op.kind.isMemory() {
			e.write(op.addr, size, v)
		}
	}
}

func signExtend(v uint32, size Size) uint32 {
	switch size {
	case SizeByte:
		return uint32(int32(int8(v)))
	case SizeWord:
		return uint32(int32(int16(v)))
	}
	return v
}

// next moves PC past the instruction.
func (e *M68KEngine) next(ipc *IPC) {
	e.regs.PC += uint32(ipc.WordLen) * 2
}

func (e *M68KEngine) nextPC(ipc *IPC) uint32 {
	return e.regs.PC + uint32(ipc.WordLen)*2
}
