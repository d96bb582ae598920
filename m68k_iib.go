// m68k_iib.go - Decode descriptors and decoded instructions for the 68000 engine

package main

import "fmt"

// FlagSet is a bitmap over the five condition bits. The bit values match
// their position in the status register so a FlagSet can be masked
// straight against SR.
type FlagSet uint8

const (
	FlagC FlagSet = 1 << iota
	FlagV
	FlagZ
	FlagN
	FlagX

	FlagsNone FlagSet = 0
	FlagsAll  FlagSet = FlagC | FlagV | FlagZ | FlagN | FlagX
)

func (f FlagSet) String() string {
	if f == 0 {
		return "-"
	}
	b := make([]byte, 0, 5)
	for _, fl := range []struct {
		bit FlagSet
		c   byte
	}{{FlagX, 'X'}, {FlagN, 'N'}, {FlagZ, 'Z'}, {FlagV, 'V'}, {FlagC, 'C'}} {
		if f&fl.bit != 0 {
			b = append(b, fl.c)
		}
	}
	return string(b)
}

// Size is the operand size class of an instruction.
type Size uint8

const (
	SizeNone Size = iota
	SizeByte
	SizeWord
	SizeLong
)

func (s Size) Bytes() uint32 {
	switch s {
	case SizeByte:
		return 1
	case SizeWord:
		return 2
	case SizeLong:
		return 4
	}
	return 0
}

func (s Size) Mask() uint32 {
	switch s {
	case SizeByte:
		return 0xFF
	case SizeWord:
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

func (s Size) MSB() uint32 {
	switch s {
	case SizeByte:
		return 0x80
	case SizeWord:
		return 0x8000
	}
	return 0x80000000
}

func (s Size) String() string {
	return [...]string{"", ".B", ".W", ".L"}[s]
}

// OperandKind says how an operand field is encoded and where its value
// comes from at execution time.
type OperandKind uint8

const (
	OpNone OperandKind = iota
	OpDreg
	OpAreg
	OpAind
	OpAinc
	OpAdec
	OpAdis
	OpAidx
	OpAbsW
	OpAbsL
	OpPdis
	OpPidx
	OpImmB
	OpImmW
	OpImmL
	OpImmS // payload fixed by the descriptor
	OpImm3
	OpImm4
	OpImm8
	OpImm8s
	OpImm12
)

var operandKindNames = [...]string{
	OpNone: "-", OpDreg: "Dn", OpAreg: "An", OpAind: "(An)", OpAinc: "(An)+",
	OpAdec: "-(An)", OpAdis: "d16(An)", OpAidx: "d8(An,Xi)", OpAbsW: "abs.W",
	OpAbsL: "abs.L", OpPdis: "d16(PC)", OpPidx: "d8(PC,Xi)", OpImmB: "#b",
	OpImmW: "#w", OpImmL: "#l", OpImmS: "#=", OpImm3: "#3", OpImm4: "#4",
	OpImm8: "#8", OpImm8s: "#8s", OpImm12: "#12",
}

func (k OperandKind) String() string {
	if int(k) < len(operandKindNames) {
		return operandKindNames[k]
	}
	return fmt.Sprintf("OperandKind(%d)", int(k))
}

// hasRegField reports whether the kind reads a 3-bit register number from
// the opcode.
func (k OperandKind) hasRegField() bool {
	return k >= OpDreg && k <= OpAidx
}

// fieldWidth is the number of opcode bits the kind consumes.
func (k OperandKind) fieldWidth() int {
	switch {
	case k.hasRegField(), k == OpImm3:
		return 3
	case k == OpImm4:
		return 4
	case k == OpImm8, k == OpImm8s:
		return 8
	case k == OpImm12:
		return 12
	}
	return 0
}

// extWords is the number of extension words the kind consumes for an
// instruction of size s.
func (k OperandKind) extWords(s Size) int {
	switch k {
	case OpAdis, OpAidx, OpAbsW, OpPdis, OpPidx, OpImmB, OpImmW:
		return 1
	case OpAbsL, OpImmL:
		return 2
	}
	return 0
}

func (k OperandKind) isMemory() bool {
	return k >= OpAind && k <= OpPidx
}

// Condition selects one of the sixteen 68000 condition codes.
type Condition uint8

const (
	CondT Condition = iota
	CondF
	CondHI
	CondLS
	CondCC
	CondCS
	CondNE
	CondEQ
	CondVC
	CondVS
	CondPL
	CondMI
	CondGE
	CondLT
	CondGT
	CondLE
)

var conditionNames = [...]string{"T", "F", "HI", "LS", "CC", "CS", "NE", "EQ", "VC", "VS", "PL", "MI", "GE", "LT", "GT", "LE"}

func (c Condition) String() string { return conditionNames[c&15] }

// flagsRead is the set of condition bits the condition evaluates.
func (c Condition) flagsRead() FlagSet {
	switch c {
	case CondHI, CondLS:
		return FlagC | FlagZ
	case CondCC, CondCS:
		return FlagC
	case CondNE, CondEQ:
		return FlagZ
	case CondVC, CondVS:
		return FlagV
	case CondPL, CondMI:
		return FlagN
	case CondGE, CondLT:
		return FlagN | FlagV
	case CondGT, CondLE:
		return FlagN | FlagV | FlagZ
	}
	return FlagsNone
}

// IIB is an instruction information block: the decode descriptor shared by
// every opcode one pattern expands to.
type IIB struct {
	Mask, Bits uint16
	Mnemonic   Mnemonic
	Size       Size
	Src, Dst   OperandKind
	SrcPos     uint8
	DstPos     uint8
	ImmValue   uint32
	Cond       Condition
	EndBlock   bool
	Priv       bool
	ImmNotZero bool
	Branch     bool // Src holds a PC-relative target resolved at decode
	Used, Set  FlagSet
	WordLen    int
	Cycles     int
}

// Matches reports whether opcode belongs to this descriptor.
func (d *IIB) Matches(opcode uint16) bool {
	if opcode&d.Mask != d.Bits {
		return false
	}
	if d.ImmNotZero && (opcode>>d.SrcPos)&uint16(1<<d.Src.fieldWidth()-1) == 0 {
		return false
	}
	return true
}

func (d *IIB) String() string {
	name := d.Mnemonic.String()
	if d.Mnemonic == MnBcc || d.Mnemonic == MnScc || d.Mnemonic == MnDBcc {
		name = name[:len(name)-2] + d.Cond.String()
	}
	return fmt.Sprintf("%s%s %s,%s", name, d.Size, d.Src, d.Dst)
}

// IPC is one decoded instruction inside a block. The handler is bound
// once, after flag liveness has picked a variant.
type IPC struct {
	Addr    uint32
	Opcode  uint16
	WordLen int
	Src     uint32
	Dst     uint32
	SrcExt  uint16 // brief extension word of indexed modes
	DstExt  uint16
	Used    FlagSet
	Set     FlagSet

	iib      *IIB
	variants *[2]Handler
	handler  Handler
}

// Descriptor returns the decode descriptor the instruction was built from.
func (i *IPC) Descriptor() *IIB { return i.iib }
