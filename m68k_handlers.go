// m68k_handlers.go - Mnemonics and handler variants

package main

import "fmt"

// Mnemonic identifies the semantic routine an opcode is executed by.
type Mnemonic uint8

const (
	MnInvalid Mnemonic = iota
	MnORI
	MnANDI
	MnSUBI
	MnADDI
	MnEORI
	MnCMPI
	MnORICCR
	MnANDICCR
	MnEORICCR
	MnORISR
	MnANDISR
	MnEORISR
	MnBTST
	MnBCHG
	MnBCLR
	MnBSET
	MnMOVEP
	MnMOVE
	MnMOVEA
	MnMOVEFROMSR
	MnMOVETOCCR
	MnMOVETOSR
	MnMOVETOUSP
	MnMOVEFROMUSP
	MnNEGX
	MnCLR
	MnNEG
	MnNOT
	MnTST
	MnTAS
	MnNBCD
	MnCHK
	MnLEA
	MnPEA
	MnSWAP
	MnEXT
	MnMOVEMRM
	MnMOVEMMR
	MnTRAP
	MnLINK
	MnUNLK
	MnRESET
	MnNOP
	MnSTOP
	MnRTE
	MnRTS
	MnTRAPV
	MnRTR
	MnJSR
	MnJMP
	MnILLEGAL
	MnADDQ
	MnSUBQ
	MnScc
	MnDBcc
	MnBcc
	MnBSR
	MnMOVEQ
	MnOR
	MnAND
	MnEOR
	MnSUB
	MnSUBA
	MnSUBX
	MnADD
	MnADDA
	MnADDX
	MnCMP
	MnCMPA
	MnCMPM
	MnDIVU
	MnDIVS
	MnMULU
	MnMULS
	MnSBCD
	MnABCD
	MnEXG
	MnASL
	MnASR
	MnLSL
	MnLSR
	MnROXL
	MnROXR
	MnROL
	MnROR
	MnLINE10
	MnLINE15

	mnemonicCount
)

var mnemonicNames = [mnemonicCount]string{
	MnInvalid: "???", MnORI: "ORI", MnANDI: "ANDI", MnSUBI: "SUBI", MnADDI: "ADDI",
	MnEORI: "EORI", MnCMPI: "CMPI", MnORICCR: "ORICCR", MnANDICCR: "ANDICCR",
	MnEORICCR: "EORICCR", MnORISR: "ORISR", MnANDISR: "ANDISR", MnEORISR: "EORISR",
	MnBTST: "BTST", MnBCHG: "BCHG", MnBCLR: "BCLR", MnBSET: "BSET", MnMOVEP: "MOVEP",
	MnMOVE: "MOVE", MnMOVEA: "MOVEA", MnMOVEFROMSR: "MOVEFROMSR", MnMOVETOCCR: "MOVETOCCR",
	MnMOVETOSR: "MOVETOSR", MnMOVETOUSP: "MOVETOUSP", MnMOVEFROMUSP: "MOVEFROMUSP",
	MnNEGX: "NEGX", MnCLR: "CLR", MnNEG: "NEG", MnNOT: "NOT", MnTST: "TST", MnTAS: "TAS",
	MnNBCD: "NBCD", MnCHK: "CHK", MnLEA: "LEA", MnPEA: "PEA", MnSWAP: "SWAP", MnEXT: "EXT",
	MnMOVEMRM: "MOVEMRM", MnMOVEMMR: "MOVEMMR", MnTRAP: "TRAP", MnLINK: "LINK",
	MnUNLK: "UNLK", MnRESET: "RESET", MnNOP: "NOP", MnSTOP: "STOP", MnRTE: "RTE",
	MnRTS: "RTS", MnTRAPV: "TRAPV", MnRTR: "RTR", MnJSR: "JSR", MnJMP: "JMP",
	MnILLEGAL: "ILLEGAL", MnADDQ: "ADDQ", MnSUBQ: "SUBQ", MnScc: "Scc", MnDBcc: "DBcc",
	MnBcc: "Bcc", MnBSR: "BSR", MnMOVEQ: "MOVEQ", MnOR: "OR", MnAND: "AND", MnEOR: "EOR",
	MnSUB: "SUB", MnSUBA: "SUBA", MnSUBX: "SUBX", MnADD: "ADD", MnADDA: "ADDA",
	MnADDX: "ADDX", MnCMP: "CMP", MnCMPA: "CMPA", MnCMPM: "CMPM", MnDIVU: "DIVU",
	MnDIVS: "DIVS", MnMULU: "MULU", MnMULS: "MULS", MnSBCD: "SBCD", MnABCD: "ABCD",
	MnEXG: "EXG", MnASL: "ASL", MnASR: "ASR", MnLSL: "LSL", MnLSR: "LSR", MnROXL: "ROXL",
	MnROXR: "ROXR", MnROL: "ROL", MnROR: "ROR", MnLINE10: "LINE10", MnLINE15: "LINE15",
}

func (m Mnemonic) String() string {
	if m < mnemonicCount {
		return mnemonicNames[m]
	}
	return fmt.Sprintf("Mnemonic(%d)", int(m))
}

func mnemonicByName(name string) (Mnemonic, bool) {
	for m := MnInvalid + 1; m < mnemonicCount; m++ {
		if mnemonicNames[m] == name {
			return m, true
		}
	}
	return MnInvalid, false
}

// Variant selects between the flag-computing and flag-skipping form of a
// handler.
type Variant uint8

const (
	VariantNoFlags Variant = iota
	VariantFlags
)

func (v Variant) String() string {
	if v == VariantFlags {
		return "flags"
	}
	return "noflags"
}

// semantic executes one instruction. It advances PC itself (or redirects it
// for control flow and exceptions) and only touches the condition bits
// when flags is true.
type semantic func(e *M68KEngine, ipc *IPC, flags bool)

// Handler is a bound instruction routine.
type Handler struct {
	Mnemonic Mnemonic
	Variant  Variant
	exec     semantic
}

func (h Handler) call(e *M68KEngine, ipc *IPC) {
	h.exec(e, ipc, h.Variant == VariantFlags)
}

// Valid reports whether the handler has a routine behind it.
func (h Handler) Valid() bool { return h.exec != nil }

var m68kSemantics = [mnemonicCount]semantic{
	MnORI:         opLogic,
	MnANDI:        opLogic,
	MnEORI:        opLogic,
	MnSUBI:        opSub,
	MnADDI:        opAdd,
	MnCMPI:        opCmp,
	MnORICCR:      opLogicCCR,
	MnANDICCR:     opLogicCCR,
	MnEORICCR:     opLogicCCR,
	MnORISR:       opLogicSR,
	MnANDISR:      opLogicSR,
	MnEORISR:      opLogicSR,
	MnBTST:        opBit,
	MnBCHG:        opBit,
	MnBCLR:        opBit,
	MnBSET:        opBit,
	MnMOVEP:       opMovep,
	MnMOVE:        opMove,
	MnMOVEA:       opMovea,
	MnMOVEFROMSR:  opMoveFromSR,
	MnMOVETOCCR:   opMoveToCCR,
	MnMOVETOSR:    opMoveToSR,
	MnMOVETOUSP:   opMoveUSP,
	MnMOVEFROMUSP: opMoveUSP,
	MnNEGX:        opNegx,
	MnCLR:         opClr,
	MnNEG:         opNeg,
	MnNOT:         opNot,
	MnTST:         opTst,
	MnTAS:         opTas,
	MnNBCD:        opNbcd,
	MnCHK:         opChk,
	MnLEA:         opLea,
	MnPEA:         opPea,
	MnSWAP:        opSwap,
	MnEXT:         opExt,
	MnMOVEMRM:     opMovemToMem,
	MnMOVEMMR:     opMovemToReg,
	MnTRAP:        opTrap,
	MnLINK:        opLink,
	MnUNLK:        opUnlk,
	MnRESET:       opReset,
	MnNOP:         opNop,
	MnSTOP:        opStop,
	MnRTE:         opRte,
	MnRTS:         opRts,
	MnTRAPV:       opTrapv,
	MnRTR:         opRtr,
	MnJSR:         opJsr,
	MnJMP:         opJmp,
	MnILLEGAL:     opIllegal,
	MnADDQ:        opAdd,
	MnSUBQ:        opSub,
	MnScc:         opScc,
	MnDBcc:        opDbcc,
	MnBcc:         opBcc,
	MnBSR:         opBsr,
	MnMOVEQ:       opMoveq,
	MnOR:          opLogic,
	MnAND:         opLogic,
	MnEOR:         opLogic,
	MnSUB:         opSub,
	MnSUBA:        opSuba,
	MnSUBX:        opSubx,
	MnADD:         opAdd,
	MnADDA:        opAdda,
	MnADDX:        opAddx,
	MnCMP:         opCmp,
	MnCMPA:        opCmpa,
	MnCMPM:        opCmp,
	MnDIVU:        opDivu,
	MnDIVS:        opDivs,
	MnMULU:        opMulu,
	MnMULS:        opMuls,
	MnSBCD:        opSbcd,
	MnABCD:        opAbcd,
	MnEXG:         opExg,
	MnASL:         opShift,
	MnASR:         opShift,
	MnLSL:         opShift,
	MnLSR:         opShift,
	MnROXL:        opShift,
	MnROXR:        opShift,
	MnROL:         opShift,
	MnROR:         opShift,
	MnLINE10:      opLineTrap,
	MnLINE15:      opLineTrap,
}

// handlerPair returns both variants for a mnemonic. Descriptors that set no
// flags get the flag-skipping routine in both slots.
func handlerPair(d *IIB) ([2]Handler, error) {
	fn := m68kSemantics[d.Mnemonic]
	if fn == nil {
		return [2]Handler{}, newFatal(FatalTableMalformed, "no routine for mnemonic %s", d.Mnemonic)
	}
	pair := [2]Handler{
		{Mnemonic: d.Mnemonic, Variant: VariantNoFlags, exec: fn},
		{Mnemonic: d.Mnemonic, Variant: VariantFlags, exec: fn},
	}
	if d.Set == FlagsNone {
		pair[VariantFlags] = pair[VariantNoFlags]
	}
	return pair, nil
}
